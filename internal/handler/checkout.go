package handler

import (
	"encoding/json"
	"net/http"

	"commerce-unify/internal/model"
)

// checkoutStatus answers every checkout failure with 400.
func checkoutStatus(*model.APIError) int {
	return http.StatusBadRequest
}

// handleACPCheckout places a token-protocol order.
// POST /api/acp/checkout
func (h *Handler) handleACPCheckout(w http.ResponseWriter, r *http.Request) {
	h.checkout(w, r, model.ProtocolACP)
}

// handleAP2Checkout places an intent-protocol order.
// POST /api/ap2/checkout
func (h *Handler) handleAP2Checkout(w http.ResponseWriter, r *http.Request) {
	h.checkout(w, r, model.ProtocolAP2)
}

// handleUnifyOrders dispatches on the "protocol" field of the body.
// The rest of the body is the protocol's own checkout payload.
// POST /api/unify/orders
func (h *Handler) handleUnifyOrders(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.writeError(w, r, err, checkoutStatus)
		return
	}

	var envelope struct {
		Protocol model.Protocol `json:"protocol"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		h.writeError(w, r, model.NewValidationError("invalid JSON"), checkoutStatus)
		return
	}

	h.dispatch(w, r, envelope.Protocol, body)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request, protocol model.Protocol) {
	body, err := readBody(w, r)
	if err != nil {
		h.writeError(w, r, err, checkoutStatus)
		return
	}
	h.dispatch(w, r, protocol, body)
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, protocol model.Protocol, body []byte) {
	resp, err := h.checkouts.Checkout(r.Context(), protocol, body)
	if err != nil {
		h.writeError(w, r, err, checkoutStatus)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}
