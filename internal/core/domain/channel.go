package domain

// ChannelName is the closed enumeration of supported marketplaces.
type ChannelName string

const (
	ChannelAmazon   ChannelName = "amazon"
	ChannelFlipkart ChannelName = "flipkart"
	ChannelSnapdeal ChannelName = "snapdeal"
)

// ChannelNames lists every supported channel.
var ChannelNames = []ChannelName{ChannelAmazon, ChannelFlipkart, ChannelSnapdeal}

func (n ChannelName) Valid() bool {
	switch n {
	case ChannelAmazon, ChannelFlipkart, ChannelSnapdeal:
		return true
	}
	return false
}

// OperationKind names the business operations a channel supports.
type OperationKind string

const (
	OperationRanging         OperationKind = "ranging"
	OperationDeranging       OperationKind = "deranging"
	OperationInventoryUpdate OperationKind = "inventory_update"
	OperationPriceUpdate     OperationKind = "price_update"
)

var OperationKinds = []OperationKind{
	OperationRanging,
	OperationDeranging,
	OperationInventoryUpdate,
	OperationPriceUpdate,
}

func (k OperationKind) SucceededName() EventName {
	return EventName("domain." + string(k) + "_succeeded")
}

func (k OperationKind) FailedName() EventName {
	return EventName("domain." + string(k) + "_failed")
}

// ChannelConfig is the static per-channel registration: identity plus the
// credentials needed to call out to the marketplace. Built once at startup and
// read-only afterwards.
type ChannelConfig struct {
	ID      string
	Name    ChannelName
	BaseURL string
	APIKey  string
}

// LineItem is one catalog line within a channel reference. Quantity applies to
// inventory messages, UnitPrice/ListPrice to pricing messages.
type LineItem struct {
	EAN       string  `json:"ean"`
	ID        string  `json:"id"`
	Quantity  int     `json:"quantity,omitempty"`
	UnitPrice float64 `json:"unit_price,omitempty"`
	ListPrice float64 `json:"list_price,omitempty"`
}

// ChannelReference groups the line items of a parsed message destined for one
// channel. Owned by the parsed document and discarded after dispatch.
type ChannelReference struct {
	ChannelID string
	Items     []LineItem
}

// ParsedDocument is the canonical intermediate representation of a validated
// message: channel references in first-seen source order, items in source
// order within each channel.
type ParsedDocument struct {
	Type     MessageType
	Channels []ChannelReference
}
