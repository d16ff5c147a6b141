package ports

import "github.com/omnicart/channelbridge/internal/core/domain"

// PayloadValidator structurally validates a raw payload against the schema
// resource registered for its message type. A nil return means the payload
// conforms; a conformance failure is a *domain.ErrPayloadViolation, never a
// panic. Validation is a pure function of the payload and the static schema.
type PayloadValidator interface {
	Validate(messageType domain.MessageType, payload string) error
}
