package domain

import (
	"fmt"
	"strings"
)

// MessageType discriminates inbound messages and selects the schema, parser,
// and operation kind that apply.
type MessageType string

const (
	MessageTypeRanging   MessageType = "ranging"
	MessageTypeDeranging MessageType = "deranging"
	MessageTypeInventory MessageType = "inventory"
	MessageTypePricing   MessageType = "pricing"
)

var messageTypes = map[MessageType]struct {
	receipt EventName
	op      OperationKind
}{
	MessageTypeRanging:   {receipt: NameItemsRanged, op: OperationRanging},
	MessageTypeDeranging: {receipt: NameItemsDeranged, op: OperationDeranging},
	MessageTypeInventory: {receipt: NameInventoryUpdateReceived, op: OperationInventoryUpdate},
	MessageTypePricing:   {receipt: NamePriceUpdateReceived, op: OperationPriceUpdate},
}

func (t MessageType) Valid() bool {
	_, ok := messageTypes[t]
	return ok
}

// ReceiptName is the oms event name recorded when a message of this type
// arrives.
func (t MessageType) ReceiptName() EventName {
	return messageTypes[t].receipt
}

// Operation is the channel operation kind a message of this type dispatches.
func (t MessageType) Operation() OperationKind {
	return messageTypes[t].op
}

// ParseMessageType resolves a transport-supplied tag to a MessageType.
func ParseMessageType(s string) (MessageType, error) {
	t := MessageType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown message type %q", s)
	}
	return t, nil
}

// Envelope is the inbound unit of work. It lives for one dispatch cycle and is
// never persisted; only the events derived from it are. ID doubles as the
// correlation id and becomes the id of the batch's oms receipt event.
type Envelope struct {
	ID      string
	Type    MessageType
	Message string
}

func (e Envelope) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("envelope id must not be blank")
	}
	if !e.Type.Valid() {
		return fmt.Errorf("unknown message type %q", e.Type)
	}
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Errorf("envelope message must not be blank")
	}
	return nil
}
