package handler

import (
	"net/http"

	"commerce-unify/internal/model"
)

const (
	stripeSignatureHeader = "Stripe-Signature"
	ap2SignatureHeader    = "AP2-Signature"
)

// acpWebhookStatus answers configuration, signature and payload problems
// with 400. Anything else keeps its own status.
func acpWebhookStatus(e *model.APIError) int {
	switch e.Kind {
	case model.KindAuth, model.KindConfiguration, model.KindValidation:
		return http.StatusBadRequest
	}
	return e.StatusCode
}

// handleACPWebhook reconciles orders from a Stripe-signed event.
// The body is passed through unparsed so the signature can be checked.
// POST /api/acp/webhook
func (h *Handler) handleACPWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := readBody(w, r)
	if err != nil {
		h.writeError(w, r, err, acpWebhookStatus)
		return
	}

	if _, err := h.webhooks.ReconcileACP(r.Context(), payload, r.Header.Get(stripeSignatureHeader)); err != nil {
		h.writeError(w, r, err, acpWebhookStatus)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// handleAP2Webhook reconciles orders from a partner notification.
// POST /api/ap2/webhook
func (h *Handler) handleAP2Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := readBody(w, r)
	if err != nil {
		h.writeError(w, r, err, defaultStatus)
		return
	}

	if _, err := h.webhooks.ReconcileAP2(r.Context(), r.Header.Get(ap2SignatureHeader), payload); err != nil {
		h.writeError(w, r, err, defaultStatus)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"acknowledged": true})
}
