// Package model defines the wire types of both checkout protocols and the
// error model shared by every package.
package model

// Protocol names the checkout protocol an order was placed through.
type Protocol string

const (
	// ProtocolACP is the token-based protocol: payment is authorized by a
	// shared payment token issued by the payment processor.
	ProtocolACP Protocol = "ACP"
	// ProtocolAP2 is the intent-based protocol: the caller declares intent
	// and supplies a payment method descriptor.
	ProtocolAP2 Protocol = "AP2"
)

// === Token protocol (ACP) ===

// ACPProduct is the flat product representation served to token-protocol agents.
type ACPProduct struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  *string         `json:"description,omitempty"`
	Price        Price           `json:"price"`
	Availability ACPAvailability `json:"availability"`
	Media        []ACPMedia      `json:"media,omitempty"`
}

// ACPAvailability is derived from stock: unknown stock counts as in stock.
type ACPAvailability string

const (
	AvailabilityInStock    ACPAvailability = "in_stock"
	AvailabilityOutOfStock ACPAvailability = "out_of_stock"
)

// ACPMedia is a product image reference.
type ACPMedia struct {
	URL  string `json:"url"`
	Type string `json:"type"` // always "image"
}

// ACPOverride is the sparse per-product override stored for the token protocol.
// Only display fields are honored; pricing and stock always come from the row.
type ACPOverride struct {
	Description *string    `json:"description,omitempty"`
	Media       []ACPMedia `json:"media,omitempty"`
}

// Price is an amount in major currency units plus ISO currency code.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// DefaultQuantity is used when a line item omits quantity.
const DefaultQuantity = 1

// LineItemRequest is a requested product and quantity.
// Quantity is nil when the caller omitted it; an explicit 0 is kept.
type LineItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity,omitempty"`
}

// Qty returns the requested quantity, or DefaultQuantity when none was sent.
func (li LineItemRequest) Qty() int {
	if li.Quantity == nil {
		return DefaultQuantity
	}
	return *li.Quantity
}

// ACPCheckoutRequest is the token-protocol checkout payload.
type ACPCheckoutRequest struct {
	CartID       string            `json:"cartId"`
	Items        []LineItemRequest `json:"items"`
	PaymentToken string            `json:"paymentToken"`
	Metadata     map[string]any    `json:"metadata,omitempty"`
}

// ACPCheckoutStatus is the synchronous checkout outcome for the token protocol.
// Only "authorized" is produced synchronously; the others arrive by webhook.
type ACPCheckoutStatus string

const (
	ACPStatusAuthorized     ACPCheckoutStatus = "authorized"
	ACPStatusRequiresAction ACPCheckoutStatus = "requires_action"
	ACPStatusFailed         ACPCheckoutStatus = "failed"
)

// ACPCheckoutResponse is returned by a successful token-protocol checkout.
type ACPCheckoutResponse struct {
	OrderID string            `json:"orderId"`
	Status  ACPCheckoutStatus `json:"status"`
}

// ACPOrderEvent is the object carried by an agent_commerce.order.updated event.
type ACPOrderEvent struct {
	ID     string            `json:"id"`
	Status ACPCheckoutStatus `json:"status"`
}
