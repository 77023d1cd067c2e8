package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aromelle/api/internal/payments"
	"github.com/aromelle/api/internal/platform/httpx"
	"github.com/aromelle/api/internal/services"
)

// WebhookVerifier validates a raw webhook delivery and extracts the fields
// reconciliation needs.
type WebhookVerifier interface {
	Verify(payload []byte, signature string) (payments.WebhookEvent, error)
}

// WebhookHandlers settles orders from asynchronous PSP notifications. This
// is the authoritative settlement path; the client-side confirm endpoint
// only covers the happy redirect.
type WebhookHandlers struct {
	verifier WebhookVerifier
	checkout services.CheckoutService
}

const maxWebhookBodySize = 256 * 1024

func NewWebhookHandlers(verifier WebhookVerifier, checkout services.CheckoutService) *WebhookHandlers {
	return &WebhookHandlers{verifier: verifier, checkout: checkout}
}

func (h *WebhookHandlers) Routes(r chi.Router) {
	r.Post("/stripe", h.Stripe)
}

// Stripe verifies and dispatches one webhook delivery. Unknown sessions and
// already settled orders are acknowledged so the provider stops retrying.
func (h *WebhookHandlers) Stripe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize+1))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unable to read payload", http.StatusBadRequest))
		return
	}
	if len(payload) > maxWebhookBodySize {
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "webhook payload exceeds allowed size", http.StatusRequestEntityTooLarge))
		return
	}

	event, err := h.verifier.Verify(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payments.ErrInvalidWebhookSignature) {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_signature", "webhook signature verification failed", http.StatusBadRequest))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unable to decode webhook event", http.StatusBadRequest))
		return
	}

	if event.SessionID == "" {
		// Intent-level events carry no session reference; the session
		// completed event arrives separately.
		writeJSONResponse(w, http.StatusOK, map[string]any{"received": true, "handled": false})
		return
	}

	var settleErr error
	handled := false
	switch event.Status {
	case payments.StatusSucceeded:
		_, settleErr = h.checkout.ConfirmBySession(ctx, event.SessionID)
		handled = settleErr == nil
	case payments.StatusFailed:
		_, settleErr = h.checkout.FailBySession(ctx, event.SessionID)
		handled = settleErr == nil
	}

	if settleErr != nil {
		switch {
		case errors.Is(settleErr, services.ErrCheckoutOrderNotFound),
			errors.Is(settleErr, services.ErrCheckoutPaymentIncomplete):
			// Session belongs to another environment or the provider state
			// lags; acknowledge and let reconciliation settle it.
		default:
			httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to settle order", http.StatusInternalServerError))
			return
		}
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"received": true, "handled": handled})
}
