package usecase

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/omnicart/channelbridge/internal/core/domain"
	"github.com/omnicart/channelbridge/internal/core/ports"
)

// Pipeline turns a raw envelope into a dispatch-ready document. Schema
// validation runs against the per-type schema resource; Parse assumes the
// schema check already passed but still returns a *domain.ParseError when a
// structural assumption fails.
type Pipeline struct {
	validator ports.PayloadValidator
}

func NewPipeline(validator ports.PayloadValidator) *Pipeline {
	return &Pipeline{validator: validator}
}

// ValidateSchema checks the envelope payload against the schema registered
// for its message type. nil means the payload conforms.
func (p *Pipeline) ValidateSchema(env domain.Envelope) error {
	return p.validator.Validate(env.Type, env.Message)
}

type channelItemXML struct {
	ChannelID string `xml:"ChannelID,attr"`
	EAN       string `xml:"EAN,attr"`
	ItemID    string `xml:"ItemID,attr"`
	RangeFlag string `xml:"RangeFlag,attr"`
	Quantity  string `xml:"Quantity,attr"`
	UnitPrice string `xml:"UnitPrice,attr"`
	ListPrice string `xml:"ListPrice,attr"`
}

type channelListXML struct {
	XMLName xml.Name         `xml:"EXTNChannelList"`
	Items   []channelItemXML `xml:"EXTNChannelItemList>EXTNChannelItem"`
}

// Parse builds the canonical document: items grouped by channel id in
// first-seen source order, item order preserved within each channel.
func (p *Pipeline) Parse(env domain.Envelope) (domain.ParsedDocument, error) {
	var list channelListXML
	if err := xml.Unmarshal([]byte(env.Message), &list); err != nil {
		return domain.ParsedDocument{}, &domain.ParseError{MessageType: env.Type, Detail: err.Error()}
	}

	doc := domain.ParsedDocument{Type: env.Type}
	index := map[string]int{}
	for _, raw := range list.Items {
		item, err := buildLineItem(env.Type, raw)
		if err != nil {
			return domain.ParsedDocument{}, err
		}
		i, ok := index[raw.ChannelID]
		if !ok {
			i = len(doc.Channels)
			index[raw.ChannelID] = i
			doc.Channels = append(doc.Channels, domain.ChannelReference{ChannelID: raw.ChannelID})
		}
		doc.Channels[i].Items = append(doc.Channels[i].Items, item)
	}
	return doc, nil
}

func buildLineItem(t domain.MessageType, raw channelItemXML) (domain.LineItem, error) {
	item := domain.LineItem{EAN: raw.EAN, ID: raw.ItemID}
	switch t {
	case domain.MessageTypeInventory:
		qty, err := strconv.Atoi(raw.Quantity)
		if err != nil {
			return domain.LineItem{}, &domain.ParseError{MessageType: t, Detail: fmt.Sprintf("item %s: invalid quantity %q", raw.ItemID, raw.Quantity)}
		}
		item.Quantity = qty
	case domain.MessageTypePricing:
		unit, err := strconv.ParseFloat(raw.UnitPrice, 64)
		if err != nil {
			return domain.LineItem{}, &domain.ParseError{MessageType: t, Detail: fmt.Sprintf("item %s: invalid unit price %q", raw.ItemID, raw.UnitPrice)}
		}
		list, err := strconv.ParseFloat(raw.ListPrice, 64)
		if err != nil {
			return domain.LineItem{}, &domain.ParseError{MessageType: t, Detail: fmt.Sprintf("item %s: invalid list price %q", raw.ItemID, raw.ListPrice)}
		}
		item.UnitPrice = unit
		item.ListPrice = list
	}
	return item, nil
}

// ValidateShape re-validates the parsed document against the stricter
// type-independent shape contract: at least one channel reference, non-blank
// channel ids, non-empty item lists, non-blank item identifiers.
func (p *Pipeline) ValidateShape(doc domain.ParsedDocument, t domain.MessageType) error {
	var problems []string
	if len(doc.Channels) == 0 {
		problems = append(problems, "document contains no channel references")
	}
	for ci, ref := range doc.Channels {
		if strings.TrimSpace(ref.ChannelID) == "" {
			problems = append(problems, fmt.Sprintf("channel %d: channel id must not be blank", ci))
		}
		if len(ref.Items) == 0 {
			problems = append(problems, fmt.Sprintf("channel %d (%s): item list must not be empty", ci, ref.ChannelID))
		}
		for ii, item := range ref.Items {
			if strings.TrimSpace(item.EAN) == "" {
				problems = append(problems, fmt.Sprintf("channel %d (%s) item %d: ean must not be blank", ci, ref.ChannelID, ii))
			}
			if strings.TrimSpace(item.ID) == "" {
				problems = append(problems, fmt.Sprintf("channel %d (%s) item %d: item id must not be blank", ci, ref.ChannelID, ii))
			}
		}
	}
	if len(problems) > 0 {
		return &domain.ErrPayloadViolation{Errors: problems}
	}
	return nil
}
