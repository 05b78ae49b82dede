package model

// === Intent protocol (AP2) ===

// AP2Product is the nested product representation served to intent-protocol agents.
type AP2Product struct {
	Product   AP2ProductInfo `json:"product"`
	Pricing   Price          `json:"pricing"`
	Inventory AP2Inventory   `json:"inventory"`
}

// AP2ProductInfo holds the descriptive part of an AP2 product.
type AP2ProductInfo struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Media       []AP2Media `json:"media,omitempty"`
}

// AP2Media is a product image reference.
type AP2Media struct {
	URL  string `json:"url"`
	Kind string `json:"kind"` // always "image"
}

// AP2Inventory reports stock; Available is null when stock is not tracked.
type AP2Inventory struct {
	Available *int `json:"available"`
}

// AP2Override is the sparse per-product override stored for the intent protocol.
// It mirrors AP2Product but only product.description and product.media are read.
type AP2Override struct {
	Product *struct {
		Description *string    `json:"description,omitempty"`
		Media       []AP2Media `json:"media,omitempty"`
	} `json:"product,omitempty"`
}

// AP2Intent declares what the agent wants done with the payment method.
type AP2Intent string

const (
	IntentAuthorize AP2Intent = "authorize"
	IntentCharge    AP2Intent = "charge"
)

// AP2PaymentMethod describes the payment instrument by provider and opaque token.
type AP2PaymentMethod struct {
	Provider string `json:"provider"` // visa, mastercard, paypal, coinbase
	Token    string `json:"token"`
}

// AP2CheckoutRequest is the intent-protocol checkout payload.
type AP2CheckoutRequest struct {
	Intent        AP2Intent         `json:"intent"`
	LineItems     []LineItemRequest `json:"lineItems"`
	PaymentMethod AP2PaymentMethod  `json:"paymentMethod"`
	Metadata      map[string]any    `json:"metadata,omitempty"`
}

// AP2CheckoutStatus is the checkout outcome reported to intent-protocol agents.
type AP2CheckoutStatus string

const (
	AP2StatusPending   AP2CheckoutStatus = "pending"
	AP2StatusConfirmed AP2CheckoutStatus = "confirmed"
	AP2StatusFailed    AP2CheckoutStatus = "failed"
)

// AP2CheckoutResponse is returned by a successful intent-protocol checkout.
type AP2CheckoutResponse struct {
	OrderID string            `json:"orderId"`
	Status  AP2CheckoutStatus `json:"status"`
}

// AP2Notification is the partner's asynchronous order status update.
type AP2Notification struct {
	ID       string            `json:"id"`
	Status   AP2CheckoutStatus `json:"status"`
	OrderRef string            `json:"orderRef"`
}
