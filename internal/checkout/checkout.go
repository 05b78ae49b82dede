// Package checkout turns protocol-specific checkout requests into persisted
// orders. It is the only writer of new Order rows.
//
// Both protocols price only the first line item. Additional items are
// accepted but neither priced nor recorded.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"commerce-unify/internal/agent"
	"commerce-unify/internal/model"
	"commerce-unify/internal/payments"
	"commerce-unify/internal/store"
)

// Products looks up products by id.
type Products interface {
	FindProduct(ctx context.Context, id string) (*store.Product, error)
}

// Orders persists new orders.
type Orders interface {
	CreateOrder(ctx context.Context, order *store.Order) error
}

// TokenVerifier checks a shared payment token with the payment processor.
type TokenVerifier interface {
	VerifySharedPaymentToken(ctx context.Context, token string) (*payments.SharedPaymentToken, error)
}

// Service runs checkouts for both protocols.
type Service struct {
	products Products
	orders   Orders
	verifier TokenVerifier
	logger   *slog.Logger
}

// NewService creates a Service.
func NewService(products Products, orders Orders, verifier TokenVerifier, logger *slog.Logger) *Service {
	return &Service{
		products: products,
		orders:   orders,
		verifier: verifier,
		logger:   logger,
	}
}

// CheckoutACP runs a token-protocol checkout.
//
// The token is verified before the product is looked up, so an inactive token
// wins over an unknown product. The order is recorded as AUTHORIZED with the
// cart id as its external reference.
func (s *Service) CheckoutACP(ctx context.Context, req model.ACPCheckoutRequest) (*model.ACPCheckoutResponse, error) {
	if len(req.Items) == 0 {
		return nil, model.NewValidationError("No items provided in checkout payload")
	}
	if err := validateQuantity(req.Items[0]); err != nil {
		return nil, err
	}

	if _, err := s.verifier.VerifySharedPaymentToken(ctx, req.PaymentToken); err != nil {
		return nil, err
	}

	first := req.Items[0]
	product, err := s.products.FindProduct(ctx, first.ProductID)
	if err != nil {
		return nil, err
	}

	order, err := s.placeOrder(ctx, product, first.Qty(), model.ProtocolACP, store.StatusAuthorized, req.CartID, req.Metadata)
	if err != nil {
		return nil, err
	}

	return &model.ACPCheckoutResponse{OrderID: order.ID, Status: model.ACPStatusAuthorized}, nil
}

// CheckoutAP2 runs an intent-protocol checkout.
//
// No payment verification happens here. Intent "charge" records the order as
// CAPTURED, any other intent as PENDING; the payment method token becomes the
// external reference.
func (s *Service) CheckoutAP2(ctx context.Context, req model.AP2CheckoutRequest) (*model.AP2CheckoutResponse, error) {
	if len(req.LineItems) == 0 {
		return nil, model.NewValidationError("No line items provided in checkout payload")
	}
	if err := validateQuantity(req.LineItems[0]); err != nil {
		return nil, err
	}

	first := req.LineItems[0]
	product, err := s.products.FindProduct(ctx, first.ProductID)
	if err != nil {
		return nil, err
	}

	status := store.StatusPending
	if req.Intent == model.IntentCharge {
		status = store.StatusCaptured
	}

	order, err := s.placeOrder(ctx, product, first.Qty(), model.ProtocolAP2, status, req.PaymentMethod.Token, req.Metadata)
	if err != nil {
		return nil, err
	}

	resp := &model.AP2CheckoutResponse{OrderID: order.ID, Status: model.AP2StatusPending}
	if order.Status == store.StatusCaptured {
		resp.Status = model.AP2StatusConfirmed
	}
	return resp, nil
}

// Checkout decodes body as the request type of protocol and runs it.
func (s *Service) Checkout(ctx context.Context, protocol model.Protocol, body json.RawMessage) (any, error) {
	switch protocol {
	case model.ProtocolACP:
		var req model.ACPCheckoutRequest
		if err := decodeRequest(body, &req); err != nil {
			return nil, err
		}
		return s.CheckoutACP(ctx, req)
	case model.ProtocolAP2:
		var req model.AP2CheckoutRequest
		if err := decodeRequest(body, &req); err != nil {
			return nil, err
		}
		return s.CheckoutAP2(ctx, req)
	default:
		return nil, model.NewValidationError("Unsupported protocol")
	}
}

func decodeRequest(body json.RawMessage, v any) error {
	if len(body) == 0 {
		return model.NewValidationError("invalid JSON: empty body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return model.NewValidationError(fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

// validateQuantity rejects a negative quantity on the priced line.
// Zero is allowed and yields a zero amount.
func validateQuantity(item model.LineItemRequest) error {
	if item.Quantity != nil && *item.Quantity < 0 {
		return model.NewValidationError("Quantity must not be negative")
	}
	return nil
}

// placeOrder prices the first line and inserts the order.
func (s *Service) placeOrder(ctx context.Context, product *store.Product, quantity int, protocol model.Protocol, status store.OrderStatus, externalID string, metadata map[string]any) (*store.Order, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}

	order := &store.Order{
		MerchantID: product.MerchantID,
		ProductID:  product.ID,
		Protocol:   protocol,
		Status:     status,
		Amount:     model.LineAmount(product.Price, quantity),
		ExternalID: externalID,
		Metadata:   datatypes.JSONMap(metadata),
	}
	if a := agent.FromContext(ctx); a != nil {
		order.AgentProfile = a.Profile
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		slog.String("order_id", order.ID),
		slog.String("protocol", string(protocol)),
		slog.String("status", string(order.Status)),
		slog.String("product_id", product.ID),
		slog.String("amount", order.Amount.String()),
	)
	return order, nil
}
