package usecase

import (
	"errors"
	"strings"
	"testing"

	"github.com/omnicart/channelbridge/internal/core/domain"
)

type stubValidator struct {
	err   error
	calls int
}

func (v *stubValidator) Validate(_ domain.MessageType, _ string) error {
	v.calls++
	return v.err
}

func TestParseGroupsItemsByChannelInFirstSeenOrder(t *testing.T) {
	p := NewPipeline(&stubValidator{})
	env := domain.Envelope{
		ID:   "env-1",
		Type: domain.MessageTypeRanging,
		Message: `<EXTNChannelList><EXTNChannelItemList>` +
			`<EXTNChannelItem ChannelID="UA" EAN="EAN_1" ItemID="SKU1" RangeFlag="Y"/>` +
			`<EXTNChannelItem ChannelID="UB" EAN="EAN_2" ItemID="SKU2" RangeFlag="Y"/>` +
			`<EXTNChannelItem ChannelID="UA" EAN="EAN_3" ItemID="SKU3" RangeFlag="Y"/>` +
			`</EXTNChannelItemList></EXTNChannelList>`,
	}

	doc, err := p.Parse(env)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Channels) != 2 {
		t.Fatalf("expected 2 channel references, got %d", len(doc.Channels))
	}
	if doc.Channels[0].ChannelID != "UA" || doc.Channels[1].ChannelID != "UB" {
		t.Fatalf("unexpected channel order: %s, %s", doc.Channels[0].ChannelID, doc.Channels[1].ChannelID)
	}
	if len(doc.Channels[0].Items) != 2 {
		t.Fatalf("expected 2 items for UA, got %d", len(doc.Channels[0].Items))
	}
	if doc.Channels[0].Items[0].ID != "SKU1" || doc.Channels[0].Items[1].ID != "SKU3" {
		t.Fatalf("item order not preserved: %s, %s", doc.Channels[0].Items[0].ID, doc.Channels[0].Items[1].ID)
	}
}

func TestParseInventoryQuantities(t *testing.T) {
	p := NewPipeline(&stubValidator{})
	env := domain.Envelope{
		ID:   "env-2",
		Type: domain.MessageTypeInventory,
		Message: `<EXTNChannelList><EXTNChannelItemList>` +
			`<EXTNChannelItem ChannelID="UA" EAN="EAN_1" ItemID="SKU1" Quantity="42"/>` +
			`</EXTNChannelItemList></EXTNChannelList>`,
	}

	doc, err := p.Parse(env)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if doc.Channels[0].Items[0].Quantity != 42 {
		t.Fatalf("expected quantity 42, got %d", doc.Channels[0].Items[0].Quantity)
	}
}

func TestParseInvalidQuantityIsParseError(t *testing.T) {
	p := NewPipeline(&stubValidator{})
	env := domain.Envelope{
		ID:   "env-3",
		Type: domain.MessageTypeInventory,
		Message: `<EXTNChannelList><EXTNChannelItemList>` +
			`<EXTNChannelItem ChannelID="UA" EAN="EAN_1" ItemID="SKU1" Quantity="many"/>` +
			`</EXTNChannelItemList></EXTNChannelList>`,
	}

	_, err := p.Parse(env)
	var parseErr *domain.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *domain.ParseError, got %v", err)
	}
	if parseErr.Error() == "" {
		t.Fatal("parse error must carry a descriptive message")
	}
}

func TestParseMalformedXMLIsParseError(t *testing.T) {
	p := NewPipeline(&stubValidator{})
	env := domain.Envelope{ID: "env-4", Type: domain.MessageTypeRanging, Message: "<EXTNChannelList><unterminated"}

	_, err := p.Parse(env)
	var parseErr *domain.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *domain.ParseError, got %v", err)
	}
}

func TestValidateShapeRejectsEmptyDocument(t *testing.T) {
	p := NewPipeline(&stubValidator{})
	err := p.ValidateShape(domain.ParsedDocument{Type: domain.MessageTypeRanging}, domain.MessageTypeRanging)
	if err == nil {
		t.Fatal("expected shape error for empty document")
	}
	if !strings.Contains(err.Error(), "no channel references") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestValidateShapeRejectsBlankItemFields(t *testing.T) {
	p := NewPipeline(&stubValidator{})
	doc := domain.ParsedDocument{
		Type: domain.MessageTypeRanging,
		Channels: []domain.ChannelReference{
			{ChannelID: "UA", Items: []domain.LineItem{{EAN: "", ID: "SKU1"}}},
		},
	}

	err := p.ValidateShape(doc, domain.MessageTypeRanging)
	var violation *domain.ErrPayloadViolation
	if !errors.As(err, &violation) {
		t.Fatalf("expected *domain.ErrPayloadViolation, got %v", err)
	}
	if !strings.Contains(err.Error(), "ean must not be blank") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestValidateShapeAcceptsWellFormedDocument(t *testing.T) {
	p := NewPipeline(&stubValidator{})
	doc := domain.ParsedDocument{
		Type: domain.MessageTypeRanging,
		Channels: []domain.ChannelReference{
			{ChannelID: "UA", Items: []domain.LineItem{{EAN: "EAN_1", ID: "SKU1"}}},
		},
	}
	if err := p.ValidateShape(doc, domain.MessageTypeRanging); err != nil {
		t.Fatalf("unexpected shape error: %v", err)
	}
}
