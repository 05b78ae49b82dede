package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v81/webhook"

	"commerce-unify/internal/model"
	"commerce-unify/internal/store"
)

const (
	testSigningKey = "whsec_test"
	testPartnerKey = "partner-secret"
)

type update struct {
	externalID string
	status     store.OrderStatus
}

// fakeOrders records status updates and reports matched rows per reference.
type fakeOrders struct {
	matches map[string]int64
	updates []update
	err     error
}

func (f *fakeOrders) UpdateOrderStatusByExternalID(ctx context.Context, externalID string, status store.OrderStatus) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.updates = append(f.updates, update{externalID, status})
	return f.matches[externalID], nil
}

func newTestReconciler(orders Orders) *Reconciler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(orders, Config{ACPSigningKey: testSigningKey, AP2PartnerKey: testPartnerKey}, logger)
}

func signedEvent(t *testing.T, payload string, secret string) ([]byte, string) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func orderUpdated(id, status string) string {
	return `{"id":"evt_1","object":"event","api_version":"2024-12-18.acacia","type":"agent_commerce.order.updated",` +
		`"data":{"object":{"id":"` + id + `","status":"` + status + `"}}}`
}

func TestMapACPStatus(t *testing.T) {
	tests := []struct {
		in   model.ACPCheckoutStatus
		want store.OrderStatus
	}{
		{model.ACPStatusAuthorized, store.StatusAuthorized},
		{model.ACPStatusRequiresAction, store.StatusFailed},
		{model.ACPStatusFailed, store.StatusFailed},
		{"", store.StatusFailed},
	}
	for _, tt := range tests {
		if got := MapACPStatus(tt.in); got != tt.want {
			t.Errorf("MapACPStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMapAP2Status(t *testing.T) {
	tests := []struct {
		in   model.AP2CheckoutStatus
		want store.OrderStatus
	}{
		{model.AP2StatusConfirmed, store.StatusCaptured},
		{model.AP2StatusFailed, store.StatusFailed},
		{model.AP2StatusPending, store.StatusPending},
		{"refunded", store.StatusPending},
	}
	for _, tt := range tests {
		if got := MapAP2Status(tt.in); got != tt.want {
			t.Errorf("MapAP2Status(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReconcileACP(t *testing.T) {
	tests := []struct {
		name        string
		status      string
		wantStatus  store.OrderStatus
		wantMatched int64
	}{
		{"authorized", "authorized", store.StatusAuthorized, 2},
		{"failed", "failed", store.StatusFailed, 2},
		{"requires action collapses to failed", "requires_action", store.StatusFailed, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &fakeOrders{matches: map[string]int64{"cart_1": 2}}
			r := newTestReconciler(orders)
			payload, header := signedEvent(t, orderUpdated("cart_1", tt.status), testSigningKey)

			result, err := r.ReconcileACP(context.Background(), payload, header)
			if err != nil {
				t.Fatalf("ReconcileACP() error = %v", err)
			}
			if result.Matched != tt.wantMatched {
				t.Errorf("Matched = %d, want %d", result.Matched, tt.wantMatched)
			}
			if len(orders.updates) != 1 || orders.updates[0] != (update{"cart_1", tt.wantStatus}) {
				t.Errorf("updates = %+v, want [{cart_1 %s}]", orders.updates, tt.wantStatus)
			}
		})
	}
}

func TestReconcileACP_Rejections(t *testing.T) {
	payload, header := signedEvent(t, orderUpdated("cart_1", "authorized"), testSigningKey)
	_, foreignHeader := signedEvent(t, orderUpdated("cart_1", "authorized"), "whsec_other")

	tests := []struct {
		name       string
		signingKey string
		payload    []byte
		header     string
		wantKind   model.ErrorKind
		wantMsg    string
	}{
		{"no signing key configured", "", payload, header, model.KindConfiguration, "Missing webhook configuration"},
		{"no signature header", testSigningKey, payload, "", model.KindAuth, "Missing webhook configuration"},
		{"signed with another secret", testSigningKey, payload, foreignHeader, model.KindAuth, "Invalid signature"},
		{"tampered payload", testSigningKey, []byte(orderUpdated("cart_2", "authorized")), header, model.KindAuth, "Invalid signature"},
		{"garbage header", testSigningKey, payload, "t=1,v1=deadbeef", model.KindAuth, "Invalid signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &fakeOrders{}
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			r := New(orders, Config{ACPSigningKey: tt.signingKey}, logger)

			_, err := r.ReconcileACP(context.Background(), tt.payload, tt.header)

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *model.APIError", err)
			}
			if apiErr.Kind != tt.wantKind || apiErr.Message != tt.wantMsg {
				t.Errorf("error = %s %q, want %s %q", apiErr.Kind, apiErr.Message, tt.wantKind, tt.wantMsg)
			}
			if len(orders.updates) != 0 {
				t.Errorf("store touched: %+v", orders.updates)
			}
		})
	}
}

func TestReconcileACP_OtherEventsIgnored(t *testing.T) {
	orders := &fakeOrders{}
	r := newTestReconciler(orders)
	payload, header := signedEvent(t,
		`{"id":"evt_2","object":"event","type":"payment_intent.created","data":{"object":{"id":"pi_1"}}}`, testSigningKey)

	result, err := r.ReconcileACP(context.Background(), payload, header)
	if err != nil {
		t.Fatalf("ReconcileACP() error = %v", err)
	}
	if result.Event != "payment_intent.created" {
		t.Errorf("Event = %q", result.Event)
	}
	if len(orders.updates) != 0 {
		t.Errorf("updates = %+v, want none", orders.updates)
	}
}

func TestReconcileACP_StoreErrorPropagates(t *testing.T) {
	orders := &fakeOrders{err: errors.New("database is locked")}
	r := newTestReconciler(orders)
	payload, header := signedEvent(t, orderUpdated("cart_1", "authorized"), testSigningKey)

	_, err := r.ReconcileACP(context.Background(), payload, header)
	if err == nil || err.Error() != "database is locked" {
		t.Errorf("error = %v, want database is locked", err)
	}
}

func TestReconcileAP2(t *testing.T) {
	tests := []struct {
		name       string
		status     string
		wantStatus store.OrderStatus
	}{
		{"confirmed", "confirmed", store.StatusCaptured},
		{"failed", "failed", store.StatusFailed},
		{"pending", "pending", store.StatusPending},
		{"unknown", "on_hold", store.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &fakeOrders{matches: map[string]int64{"pm_tok": 3}}
			r := newTestReconciler(orders)

			result, err := r.ReconcileAP2(context.Background(), testPartnerKey,
				[]byte(`{"id":"n1","status":"`+tt.status+`","orderRef":"pm_tok"}`))
			if err != nil {
				t.Fatalf("ReconcileAP2() error = %v", err)
			}
			if result.Matched != 3 {
				t.Errorf("Matched = %d, want 3", result.Matched)
			}
			if len(orders.updates) != 1 || orders.updates[0] != (update{"pm_tok", tt.wantStatus}) {
				t.Errorf("updates = %+v", orders.updates)
			}
		})
	}
}

func TestReconcileAP2_Rejections(t *testing.T) {
	body := []byte(`{"id":"n1","status":"confirmed","orderRef":"pm_tok"}`)

	tests := []struct {
		name       string
		configured string
		header     string
		body       []byte
		wantKind   model.ErrorKind
	}{
		{"wrong key", testPartnerKey, "guess", body, model.KindAuth},
		{"missing header", testPartnerKey, "", body, model.KindAuth},
		{"no key configured", "", "", body, model.KindAuth},
		{"prefix of key", testPartnerKey, testPartnerKey[:5], body, model.KindAuth},
		{"malformed body", testPartnerKey, testPartnerKey, []byte(`{`), model.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := &fakeOrders{}
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			r := New(orders, Config{AP2PartnerKey: tt.configured}, logger)

			_, err := r.ReconcileAP2(context.Background(), tt.header, tt.body)
			if !model.Is(err, tt.wantKind) {
				t.Errorf("error = %v, want kind %s", err, tt.wantKind)
			}
			if tt.wantKind == model.KindAuth && err.(*model.APIError).Message != "Unauthorized" {
				t.Errorf("Message = %q, want Unauthorized", err.(*model.APIError).Message)
			}
			if len(orders.updates) != 0 {
				t.Errorf("store touched: %+v", orders.updates)
			}
		})
	}
}

func TestReconcileAP2_EmptyReferenceSkipsWrite(t *testing.T) {
	orders := &fakeOrders{}
	r := newTestReconciler(orders)

	result, err := r.ReconcileAP2(context.Background(), testPartnerKey, []byte(`{"id":"n1","status":"confirmed"}`))
	if err != nil {
		t.Fatalf("ReconcileAP2() error = %v", err)
	}
	if result.Matched != 0 || len(orders.updates) != 0 {
		t.Errorf("result = %+v, updates = %+v", result, orders.updates)
	}
}

func TestReconcileACP_EmptyReferenceSkipsWrite(t *testing.T) {
	orders := &fakeOrders{matches: map[string]int64{"": 3}}
	r := newTestReconciler(orders)
	payload, header := signedEvent(t, orderUpdated("", "authorized"), testSigningKey)

	result, err := r.ReconcileACP(context.Background(), payload, header)
	if err != nil {
		t.Fatalf("ReconcileACP() error = %v", err)
	}
	if result.Matched != 0 || len(orders.updates) != 0 {
		t.Errorf("result = %+v, updates = %+v", result, orders.updates)
	}
}
