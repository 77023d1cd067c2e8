package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aromelle/api/internal/platform/httpx"
	"github.com/aromelle/api/internal/services"
)

// InternalHandlers serves scheduler-invoked jobs. The route group carries
// OIDC middleware so only the configured service account can reach it.
type InternalHandlers struct {
	checkout services.CheckoutService
}

const defaultReconcileAge = 30 * time.Minute

func NewInternalHandlers(checkout services.CheckoutService) *InternalHandlers {
	return &InternalHandlers{checkout: checkout}
}

func (h *InternalHandlers) Routes(r chi.Router) {
	r.Post("/jobs/reconcile-payments", h.ReconcilePayments)
}

type reconcileRequest struct {
	OlderThanMinutes int `json:"older_than_minutes"`
}

// ReconcilePayments sweeps stale pending orders against the payment
// provider. The request body is optional.
func (h *InternalHandlers) ReconcilePayments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	olderThan := defaultReconcileAge
	body, err := readLimitedBody(r, defaultMaxBodySize)
	switch err {
	case nil:
		var req reconcileRequest
		if jsonErr := json.Unmarshal(body, &req); jsonErr != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
			return
		}
		if req.OlderThanMinutes < 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "older_than_minutes must not be negative", http.StatusBadRequest))
			return
		}
		if req.OlderThanMinutes > 0 {
			olderThan = time.Duration(req.OlderThanMinutes) * time.Minute
		}
	case errEmptyBody:
		// defaults
	default:
		writeBodyError(w, r, err)
		return
	}

	report, err := h.checkout.ReconcilePending(ctx, olderThan)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "reconciliation sweep failed", http.StatusInternalServerError))
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"scanned":   report.Scanned,
		"confirmed": report.Confirmed,
		"failed":    report.Failed,
		"skipped":   report.Skipped,
	})
}
