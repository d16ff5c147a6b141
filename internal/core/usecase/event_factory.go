package usecase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/omnicart/channelbridge/internal/core/domain"
)

// newEvent stamps a fresh id and the fixed-offset timestamp and derives the
// event type from the name. It is the single construction path; the public
// constructors below layer their own contracts on top of it.
func newEvent(name domain.EventName, payload domain.Payload, level domain.Level, parentID string, channelID string, channelName domain.ChannelName) (domain.Event, error) {
	e := domain.Event{
		ID:          uuid.NewString(),
		ParentID:    parentID,
		Name:        name,
		Level:       level,
		Timestamp:   domain.FormatTimestamp(time.Now()),
		ChannelID:   channelID,
		ChannelName: channelName,
		Payload:     payload,
	}
	t, ok := domain.TypeOfName(name)
	if !ok {
		return domain.Event{}, fmt.Errorf("unknown event name %q", name)
	}
	e.Type = t
	if err := e.Validate(); err != nil {
		return domain.Event{}, err
	}
	return e, nil
}

// NewEvent constructs an arbitrary taxonomy-valid event. A construction error
// is a contract violation by the caller, not a runtime condition.
func NewEvent(name domain.EventName, payload domain.Payload, level domain.Level, parentID string, channelID string, channelName domain.ChannelName) (domain.Event, error) {
	return newEvent(name, payload, level, parentID, channelID, channelName)
}

// NewOMSEvent records receipt of an inbound message. The name must belong to
// the oms partition and the raw message must not be blank.
func NewOMSEvent(name domain.EventName, message string) (domain.Event, error) {
	if t, ok := domain.TypeOfName(name); !ok || t != domain.EventTypeOMS {
		return domain.Event{}, fmt.Errorf("%q is not an oms event name", name)
	}
	if strings.TrimSpace(message) == "" {
		return domain.Event{}, errors.New("oms event message must not be blank")
	}
	return newEvent(name, domain.OMSMessagePayload{Type: name, Message: message}, domain.LevelInfo, "", "", "")
}

// NewParsingFailedEvent records a schema or shape validation failure for the
// message identified by parentID.
func NewParsingFailedEvent(parentID string, messageType domain.MessageType, errMsg string) domain.Event {
	e, err := newEvent(domain.NameParsingFailed, domain.ParsingFailedPayload{
		Type:        domain.NameParsingFailed,
		MessageType: messageType,
		Error:       errMsg,
	}, domain.LevelError, parentID, "", "")
	if err != nil {
		panic(fmt.Sprintf("parsing_failed event construction: %v", err))
	}
	return e
}

// NewChannelNotFoundEvent records a reference to an unregistered channel.
func NewChannelNotFoundEvent(parentID, channelID string) domain.Event {
	e, err := newEvent(domain.NameChannelNotFound, domain.ChannelNotFoundPayload{
		Type:      domain.NameChannelNotFound,
		ChannelID: channelID,
	}, domain.LevelError, parentID, "", "")
	if err != nil {
		panic(fmt.Sprintf("channel_not_found event construction: %v", err))
	}
	return e
}

// NewProcessingFailedEvent captures an unhandled failure. It carries no
// parent id: when this event is emitted even establishing the parent may have
// failed.
func NewProcessingFailedEvent(cause error, stack []byte) domain.Event {
	msg := "unknown failure"
	if cause != nil {
		msg = cause.Error()
	}
	e, err := newEvent(domain.NameProcessingFailed, domain.ProcessingFailedPayload{
		Type:  domain.NameProcessingFailed,
		Error: msg,
		Stack: string(stack),
	}, domain.LevelError, "", "", "")
	if err != nil {
		panic(fmt.Sprintf("processing_failed event construction: %v", err))
	}
	return e
}

// NewOperationSucceededEvent records a successful channel operation outcome.
func NewOperationSucceededEvent(parentID string, op domain.OperationKind, cfg domain.ChannelConfig, items []domain.LineItem) (domain.Event, error) {
	name := op.SucceededName()
	return newEvent(name, domain.OperationPayload{Type: name, Items: items}, domain.LevelInfo, parentID, cfg.ID, cfg.Name)
}

// NewOperationFailedEvent records a business-level channel operation failure.
func NewOperationFailedEvent(parentID string, op domain.OperationKind, cfg domain.ChannelConfig, items []domain.LineItem, cause error) (domain.Event, error) {
	name := op.FailedName()
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	return newEvent(name, domain.OperationPayload{Type: name, Items: items, Error: detail}, domain.LevelError, parentID, cfg.ID, cfg.Name)
}
