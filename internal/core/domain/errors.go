package domain

import (
	"fmt"
	"strings"
)

// ErrPayloadViolation is returned when an inbound payload does not conform to
// its message-type schema or shape contract. It is an expected, modeled
// outcome, never a panic.
type ErrPayloadViolation struct {
	Errors []string
}

func (e *ErrPayloadViolation) Error() string {
	return fmt.Sprintf("payload validation failed: %s", strings.Join(e.Errors, "; "))
}

// ParseError reports a structural assumption that failed while building the
// canonical document from an already schema-valid payload.
type ParseError struct {
	MessageType MessageType
	Detail      string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s message: %s", e.MessageType, e.Detail)
}

// BusinessError is a channel operation reporting failure: a marketplace API
// error, a timeout, a rejected item. It maps to a domain.<op>_failed event and
// is never treated as a system failure.
type BusinessError struct {
	Channel ChannelName
	Op      OperationKind
	Detail  string
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Channel, e.Op, e.Detail)
}
