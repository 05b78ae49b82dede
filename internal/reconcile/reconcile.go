// Package reconcile applies asynchronous order status notifications from the
// two checkout protocols to stored orders.
//
// Notifications are matched to orders by external reference only. Every
// matching order is updated, and the new status is an absolute assignment,
// so a replayed notification leaves the store unchanged.
package reconcile

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"

	"commerce-unify/internal/model"
	"commerce-unify/internal/payments"
	"commerce-unify/internal/store"
)

// EventOrderUpdated is the only token-protocol event that changes orders.
const EventOrderUpdated = "agent_commerce.order.updated"

// Orders updates order status by external reference.
type Orders interface {
	UpdateOrderStatusByExternalID(ctx context.Context, externalID string, status store.OrderStatus) (int64, error)
}

// Config holds the shared secrets of both channels. Either may be empty;
// the matching channel then rejects every request.
type Config struct {
	ACPSigningKey string
	AP2PartnerKey string
}

// Result describes what a notification did.
type Result struct {
	Event     string
	Reference string
	Status    store.OrderStatus
	Matched   int64
}

// Reconciler verifies notifications and updates orders.
type Reconciler struct {
	orders        Orders
	acpSigningKey string
	ap2PartnerKey string
	logger        *slog.Logger
}

// New creates a Reconciler.
func New(orders Orders, cfg Config, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		orders:        orders,
		acpSigningKey: cfg.ACPSigningKey,
		ap2PartnerKey: cfg.AP2PartnerKey,
		logger:        logger,
	}
}

// MapACPStatus maps a token-protocol order status onto the order table.
// Only "authorized" succeeds; "requires_action" counts as failed.
func MapACPStatus(status model.ACPCheckoutStatus) store.OrderStatus {
	if status == model.ACPStatusAuthorized {
		return store.StatusAuthorized
	}
	return store.StatusFailed
}

// MapAP2Status maps an intent-protocol notification status onto the order table.
func MapAP2Status(status model.AP2CheckoutStatus) store.OrderStatus {
	switch status {
	case model.AP2StatusConfirmed:
		return store.StatusCaptured
	case model.AP2StatusFailed:
		return store.StatusFailed
	default:
		return store.StatusPending
	}
}

// ReconcileACP handles a Stripe-signed token-protocol event.
//
// The signature is checked over the raw payload before anything is decoded.
// Events other than EventOrderUpdated are acknowledged without writes.
func (r *Reconciler) ReconcileACP(ctx context.Context, payload []byte, signatureHeader string) (*Result, error) {
	if r.acpSigningKey == "" {
		return nil, model.NewConfigurationError("Missing webhook configuration")
	}
	if signatureHeader == "" {
		return nil, model.NewAuthError("Missing webhook configuration")
	}

	event, err := payments.ConstructEvent(payload, signatureHeader, r.acpSigningKey)
	if err != nil {
		r.logger.WarnContext(ctx, "acp webhook signature rejected", slog.String("error", err.Error()))
		return nil, model.NewAuthError("Invalid signature")
	}

	result := &Result{Event: string(event.Type)}
	if result.Event != EventOrderUpdated {
		r.logger.DebugContext(ctx, "acp webhook ignored", slog.String("event", result.Event))
		return result, nil
	}

	if event.Data == nil {
		return nil, model.NewValidationError("Invalid event payload")
	}
	var order model.ACPOrderEvent
	if err := json.Unmarshal(event.Data.Raw, &order); err != nil {
		return nil, model.NewValidationError("Invalid event payload")
	}

	result.Reference = order.ID
	result.Status = MapACPStatus(order.Status)
	return r.apply(ctx, result)
}

// ReconcileAP2 handles an intent-protocol partner notification.
// partnerKey must equal the configured key.
func (r *Reconciler) ReconcileAP2(ctx context.Context, partnerKey string, payload []byte) (*Result, error) {
	if r.ap2PartnerKey == "" || partnerKey == "" ||
		subtle.ConstantTimeCompare([]byte(partnerKey), []byte(r.ap2PartnerKey)) != 1 {
		return nil, model.NewAuthError("Unauthorized")
	}

	var note model.AP2Notification
	if err := json.Unmarshal(payload, &note); err != nil {
		return nil, model.NewValidationError("Invalid notification payload")
	}

	return r.apply(ctx, &Result{
		Event:     "ap2.notification",
		Reference: note.OrderRef,
		Status:    MapAP2Status(note.Status),
	})
}

// apply writes result.Status to every order matching result.Reference.
// An empty reference matches nothing and is not written.
func (r *Reconciler) apply(ctx context.Context, result *Result) (*Result, error) {
	if result.Reference == "" {
		r.logger.WarnContext(ctx, "notification without order reference",
			slog.String("event", result.Event))
		return result, nil
	}

	n, err := r.orders.UpdateOrderStatusByExternalID(ctx, result.Reference, result.Status)
	if err != nil {
		return nil, err
	}
	result.Matched = n

	r.logger.InfoContext(ctx, "orders reconciled",
		slog.String("event", result.Event),
		slog.String("external_id", result.Reference),
		slog.String("status", string(result.Status)),
		slog.Int64("matched", n),
	)
	return result, nil
}
