package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// EventType partitions the event-name vocabulary. An oms event records receipt
// of an inbound message, a system event records an infrastructure failure, and
// a domain event records the outcome of a business operation on one channel.
type EventType string

const (
	EventTypeOMS    EventType = "oms"
	EventTypeSystem EventType = "system"
	EventTypeDomain EventType = "domain"
)

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
	LevelFatal: 4,
}

func (l Level) Valid() bool {
	_, ok := levelRank[l]
	return ok
}

// AtLeast reports whether l is as severe as min.
func (l Level) AtLeast(min Level) bool {
	return levelRank[l] >= levelRank[min]
}

type EventName string

const (
	NameItemsRanged             EventName = "oms.items_ranged"
	NameItemsDeranged           EventName = "oms.items_deranged"
	NameInventoryUpdateReceived EventName = "oms.inventory_update_received"
	NamePriceUpdateReceived     EventName = "oms.price_update_received"

	NameParsingFailed    EventName = "system.parsing_failed"
	NameChannelNotFound  EventName = "system.channel_not_found"
	NameProcessingFailed EventName = "system.processing_failed"
)

// eventNameTypes is the closed vocabulary. Operation outcome names are added
// by init so the table stays the single source of truth.
var eventNameTypes = map[EventName]EventType{
	NameItemsRanged:             EventTypeOMS,
	NameItemsDeranged:           EventTypeOMS,
	NameInventoryUpdateReceived: EventTypeOMS,
	NamePriceUpdateReceived:     EventTypeOMS,
	NameParsingFailed:           EventTypeSystem,
	NameChannelNotFound:         EventTypeSystem,
	NameProcessingFailed:        EventTypeSystem,
}

func init() {
	for _, op := range OperationKinds {
		eventNameTypes[op.SucceededName()] = EventTypeDomain
		eventNameTypes[op.FailedName()] = EventTypeDomain
	}
}

// TypeOfName resolves an event name to its type partition. The second result
// is false for names outside the vocabulary.
func TypeOfName(name EventName) (EventType, bool) {
	t, ok := eventNameTypes[name]
	return t, ok
}

// TimestampZone is the organization's fixed operating offset. Every event
// timestamp must render in this zone; any other offset is invalid.
var TimestampZone = time.FixedZone("IST", 5*3600+30*60)

const timestampSuffix = "+05:30"

// FormatTimestamp renders t as the canonical event timestamp.
func FormatTimestamp(t time.Time) string {
	return t.In(TimestampZone).Format(time.RFC3339Nano)
}

// Payload is the sealed set of per-name payload shapes. A payload's Name must
// equal the name of the event carrying it.
type Payload interface {
	Name() EventName
}

// OMSMessagePayload carries the raw inbound message string.
type OMSMessagePayload struct {
	Type    EventName `json:"type"`
	Message string    `json:"message"`
}

func (p OMSMessagePayload) Name() EventName { return p.Type }

// ParsingFailedPayload describes a schema or shape validation failure.
type ParsingFailedPayload struct {
	Type        EventName   `json:"type"`
	MessageType MessageType `json:"message_type"`
	Error       string      `json:"error"`
}

func (p ParsingFailedPayload) Name() EventName { return p.Type }

// ChannelNotFoundPayload identifies the channel reference that had no
// registration.
type ChannelNotFoundPayload struct {
	Type      EventName `json:"type"`
	ChannelID string    `json:"channel_id"`
}

func (p ChannelNotFoundPayload) Name() EventName { return p.Type }

// ProcessingFailedPayload captures an unhandled failure at the dispatcher
// boundary.
type ProcessingFailedPayload struct {
	Type  EventName `json:"type"`
	Error string    `json:"error"`
	Stack string    `json:"stack"`
}

func (p ProcessingFailedPayload) Name() EventName { return p.Type }

// OperationPayload records a channel operation outcome. Error is set only on
// the failed variant.
type OperationPayload struct {
	Type  EventName  `json:"type"`
	Items []LineItem `json:"items"`
	Error string     `json:"error,omitempty"`
}

func (p OperationPayload) Name() EventName { return p.Type }

// Event is the atomic unit of the audit trail. Events form a tree through
// ParentID; the parent is always the oms receipt event of the same batch.
type Event struct {
	ID          string      `json:"id"`
	ParentID    string      `json:"parent_id,omitempty"`
	Name        EventName   `json:"name"`
	Type        EventType   `json:"type"`
	Level       Level       `json:"level"`
	Timestamp   string      `json:"timestamp"`
	ChannelID   string      `json:"channel_id,omitempty"`
	ChannelName ChannelName `json:"channel_name,omitempty"`
	Payload     Payload     `json:"payload"`
}

// Validate enforces the taxonomy invariants: the name belongs to the closed
// vocabulary and matches the type partition, the timestamp carries the fixed
// offset, channel identity appears exactly on domain events, and the payload
// tag equals the event name.
func (e Event) Validate() error {
	if e.ID == "" {
		return errors.New("event id must not be blank")
	}
	wantType, ok := eventNameTypes[e.Name]
	if !ok {
		return fmt.Errorf("unknown event name %q", e.Name)
	}
	if e.Type != wantType {
		return fmt.Errorf("event %q must have type %q, got %q", e.Name, wantType, e.Type)
	}
	if !e.Level.Valid() {
		return fmt.Errorf("invalid level %q", e.Level)
	}
	if err := validateTimestamp(e.Timestamp); err != nil {
		return err
	}
	switch e.Type {
	case EventTypeDomain:
		if e.ChannelID == "" || e.ChannelName == "" {
			return fmt.Errorf("domain event %q requires channel_id and channel_name", e.Name)
		}
		if !e.ChannelName.Valid() {
			return fmt.Errorf("unsupported channel name %q", e.ChannelName)
		}
	default:
		if e.ChannelID != "" || e.ChannelName != "" {
			return fmt.Errorf("%s event %q must not carry channel identity", e.Type, e.Name)
		}
	}
	if e.Payload == nil {
		return fmt.Errorf("event %q has no payload", e.Name)
	}
	if e.Payload.Name() != e.Name {
		return fmt.Errorf("payload type %q does not match event name %q", e.Payload.Name(), e.Name)
	}
	return nil
}

func validateTimestamp(ts string) error {
	if !strings.HasSuffix(ts, timestampSuffix) {
		return fmt.Errorf("timestamp %q must use the %s offset", ts, timestampSuffix)
	}
	if _, err := time.Parse(time.RFC3339Nano, ts); err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", ts, err)
	}
	return nil
}

// ValidateBatch checks the cross-event invariants of one dispatch batch: the
// first event is the oms parent (unless the batch collapsed to a single
// processing-failed event), ids are unique, and every parent reference points
// at the batch's oms event.
func ValidateBatch(events []Event) error {
	if len(events) == 0 {
		return errors.New("batch must contain at least one event")
	}
	for i, e := range events {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	if events[0].Type != EventTypeOMS {
		if len(events) == 1 && events[0].Name == NameProcessingFailed {
			return nil
		}
		return fmt.Errorf("batch must start with an oms event, got %q", events[0].Name)
	}
	parent := events[0]
	seen := map[string]bool{parent.ID: true}
	for i, e := range events[1:] {
		if seen[e.ID] {
			return fmt.Errorf("duplicate event id %q", e.ID)
		}
		seen[e.ID] = true
		if e.ParentID != "" && e.ParentID != parent.ID {
			return fmt.Errorf("event %d parent %q is not the batch parent %q", i+1, e.ParentID, parent.ID)
		}
	}
	return nil
}
