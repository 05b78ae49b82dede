package handler

import (
	"context"
	"net/http"

	"commerce-unify/internal/catalog"
	"commerce-unify/internal/feed"
	"commerce-unify/internal/model"
	"commerce-unify/internal/store"
)

// handleAP2Feed serves a merchant's intent-protocol product feed.
// GET /api/ap2/feed/{merchantId}
func (h *Handler) handleAP2Feed(w http.ResponseWriter, r *http.Request) {
	merchant, err := h.catalog.FindMerchantWithProducts(r.Context(), r.PathValue("merchantId"))
	if err != nil {
		h.writeError(w, r, err, defaultStatus)
		return
	}

	h.writeJSON(w, http.StatusOK, feed.BuildAP2Feed(*merchant))
}

// productListResponse is the unified product listing.
type productListResponse struct {
	MerchantID string            `json:"merchantId"`
	Products   []feed.Projection `json:"products"`
}

// handleListProducts lists a merchant's products with their protocol projections.
// ?protocol=ACP or ?protocol=AP2 restricts the projections; omitted means both.
// GET /api/unify/products?merchantId=...&protocol=...
func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	merchantID := r.URL.Query().Get("merchantId")
	if merchantID == "" {
		h.writeError(w, r, model.NewValidationError("merchantId is required"), defaultStatus)
		return
	}

	protocol, err := parseProtocolFilter(r.URL.Query().Get("protocol"))
	if err != nil {
		h.writeError(w, r, err, defaultStatus)
		return
	}

	listing, err := h.listProducts(r.Context(), merchantID, protocol)
	if err != nil {
		h.writeError(w, r, err, defaultStatus)
		return
	}

	h.writeJSON(w, http.StatusOK, listing)
}

func (h *Handler) listProducts(ctx context.Context, merchantID string, protocol model.Protocol) (*productListResponse, error) {
	products, err := h.catalog.ListProducts(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	return &productListResponse{MerchantID: merchantID, Products: project(products, protocol)}, nil
}

// project always returns a non-nil slice so empty listings encode as [].
func project(products []store.Product, protocol model.Protocol) []feed.Projection {
	out := make([]feed.Projection, 0, len(products))
	for _, p := range products {
		out = append(out, feed.Project(p, protocol))
	}
	return out
}

func parseProtocolFilter(v string) (model.Protocol, error) {
	switch p := model.Protocol(v); p {
	case "", model.ProtocolACP, model.ProtocolAP2:
		return p, nil
	default:
		return "", model.NewValidationError("Unsupported protocol")
	}
}

// importStatus answers an unknown merchant with 404 and everything else with 400.
func importStatus(e *model.APIError) int {
	if e.Kind == model.KindNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// handleSyncProducts imports a merchant's catalog from its storefront.
// POST /api/unify/products
func (h *Handler) handleSyncProducts(w http.ResponseWriter, r *http.Request) {
	var req catalog.SyncRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err, importStatus)
		return
	}

	result, err := h.importer.Sync(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err, importStatus)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}
