// Package handler provides HTTP handlers for the commerce API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"commerce-unify/internal/catalog"
	"commerce-unify/internal/model"
	"commerce-unify/internal/reconcile"
	"commerce-unify/internal/store"
)

// Checkouts runs protocol checkouts.
type Checkouts interface {
	CheckoutACP(ctx context.Context, req model.ACPCheckoutRequest) (*model.ACPCheckoutResponse, error)
	CheckoutAP2(ctx context.Context, req model.AP2CheckoutRequest) (*model.AP2CheckoutResponse, error)
	Checkout(ctx context.Context, protocol model.Protocol, body json.RawMessage) (any, error)
}

// Webhooks reconciles order status from protocol notifications.
type Webhooks interface {
	ReconcileACP(ctx context.Context, payload []byte, signatureHeader string) (*reconcile.Result, error)
	ReconcileAP2(ctx context.Context, partnerKey string, payload []byte) (*reconcile.Result, error)
}

// Importer syncs a merchant catalog from its storefront.
type Importer interface {
	Sync(ctx context.Context, req catalog.SyncRequest) (*catalog.SyncResult, error)
}

// Catalog reads stored merchants and products.
type Catalog interface {
	FindMerchantWithProducts(ctx context.Context, id string) (*store.Merchant, error)
	ListProducts(ctx context.Context, merchantID string) ([]store.Product, error)
	Ping(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	checkouts Checkouts
	webhooks  Webhooks
	importer  Importer
	catalog   Catalog
	logger    *slog.Logger
}

// New creates a new Handler.
func New(checkouts Checkouts, webhooks Webhooks, importer Importer, catalog Catalog, logger *slog.Logger) *Handler {
	return &Handler{
		checkouts: checkouts,
		webhooks:  webhooks,
		importer:  importer,
		catalog:   catalog,
		logger:    logger,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Token protocol
	mux.HandleFunc("POST /api/acp/checkout", h.handleACPCheckout)
	mux.HandleFunc("POST /api/acp/webhook", h.handleACPWebhook)

	// Intent protocol
	mux.HandleFunc("POST /api/ap2/checkout", h.handleAP2Checkout)
	mux.HandleFunc("GET /api/ap2/feed/{merchantId}", h.handleAP2Feed)
	mux.HandleFunc("POST /api/ap2/webhook", h.handleAP2Webhook)

	// Protocol-agnostic surface
	mux.HandleFunc("POST /api/unify/orders", h.handleUnifyOrders)
	mux.HandleFunc("GET /api/unify/products", h.handleListProducts)
	mux.HandleFunc("POST /api/unify/products", h.handleSyncProducts)

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error string `json:"error"`
}

// statusFunc picks the HTTP status a route answers for an error.
// Routes differ: checkout always answers 400, webhooks distinguish auth failures.
type statusFunc func(*model.APIError) int

// writeError sends {"error": message}. Errors that are not APIErrors are
// logged and replaced by a generic internal error before statusFor runs.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, statusFor statusFunc) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		h.logger.ErrorContext(r.Context(), "internal error",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		apiErr = model.NewInternalError(err)
	} else {
		h.logger.WarnContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("kind", string(apiErr.Kind)),
			slog.String("error", apiErr.Error()))
	}

	h.writeJSON(w, statusFor(apiErr), errorResponse{Error: apiErr.Message})
}

// defaultStatus uses the status carried by the error.
func defaultStatus(e *model.APIError) int {
	return e.StatusCode
}

// MaxRequestBodySize limits request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB

// readBody reads the raw request body, limited to MaxRequestBodySize.
// Webhook signatures are computed over these exact bytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, model.NewValidationError("request body too large")
		}
		return nil, model.NewValidationError("unable to read request body")
	}
	return body, nil
}

// decodeJSON reads JSON from request body into v.
// Limits body size to MaxRequestBodySize to prevent memory exhaustion.
// Returns an APIError if decoding fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	// Limit request body size to prevent DoS
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		// Don't expose internal error details to client
		return model.NewValidationError("invalid JSON")
	}
	return nil
}
