// Package schemaval validates inbound OMS payloads against the schema
// resource registered for each message type. The payload is decoded to a
// canonical document and checked with JSON Schema; resources live under
// schemas/<type>.json and are embedded at build time.
package schemaval

import (
	"bytes"
	"embed"
	"encoding/xml"
	"errors"
	"fmt"
	"sync"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/omnicart/channelbridge/internal/core/domain"
)

//go:embed schemas/*.json
var schemaFS embed.FS

type Validator struct {
	cache sync.Map // key: domain.MessageType → *santhosh.Schema
}

func New() *Validator {
	return &Validator{}
}

// Validate checks payload against the message type's schema. It returns nil
// on success and *domain.ErrPayloadViolation when the payload does not
// conform; malformed input is an expected outcome, never a panic. The result
// is a pure function of the payload and the embedded schema resource.
func (v *Validator) Validate(messageType domain.MessageType, payload string) error {
	sch, err := v.compiled(messageType)
	if err != nil {
		return fmt.Errorf("load schema for %s: %w", messageType, err)
	}

	doc, err := canonicalize(payload)
	if err != nil {
		return &domain.ErrPayloadViolation{Errors: []string{fmt.Sprintf("malformed xml: %v", err)}}
	}

	if err := sch.Validate(doc); err != nil {
		var ve *santhosh.ValidationError
		if errors.As(err, &ve) {
			return &domain.ErrPayloadViolation{Errors: collectCauses(ve)}
		}
		return &domain.ErrPayloadViolation{Errors: []string{err.Error()}}
	}
	return nil
}

func (v *Validator) compiled(messageType domain.MessageType) (*santhosh.Schema, error) {
	if cached, ok := v.cache.Load(messageType); ok {
		return cached.(*santhosh.Schema), nil
	}

	raw, err := schemaFS.ReadFile(fmt.Sprintf("schemas/%s.json", messageType))
	if err != nil {
		return nil, err
	}
	compiler := santhosh.NewCompiler()
	compiler.Draft = santhosh.Draft7
	name := string(messageType) + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		return nil, err
	}
	v.cache.Store(messageType, sch)
	return sch, nil
}

func collectCauses(ve *santhosh.ValidationError) []string {
	var msgs []string
	for _, cause := range ve.Causes {
		msgs = append(msgs, collectCauses(cause)...)
	}
	if len(ve.Causes) == 0 {
		msgs = append(msgs, ve.Error())
	}
	return msgs
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

// canonicalize decodes the XML payload into the generic document the schemas
// are written against. Absent attributes are omitted so `required` applies.
func canonicalize(payload string) (any, error) {
	var list channelListXML
	if err := xml.Unmarshal([]byte(payload), &list); err != nil {
		return nil, err
	}

	items := make([]any, 0, len(list.Items))
	for _, item := range list.Items {
		m := map[string]any{}
		setIfPresent(m, "channel_id", item.ChannelID)
		setIfPresent(m, "ean", item.EAN)
		setIfPresent(m, "item_id", item.ItemID)
		setIfPresent(m, "range_flag", item.RangeFlag)
		setIfPresent(m, "quantity", item.Quantity)
		setIfPresent(m, "unit_price", item.UnitPrice)
		setIfPresent(m, "list_price", item.ListPrice)
		items = append(items, m)
	}
	return map[string]any{"items": items}, nil
}

func setIfPresent(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
