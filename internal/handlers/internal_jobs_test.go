package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aromelle/api/internal/services"
)

func newInternalRouter(checkout services.CheckoutService) chi.Router {
	h := NewInternalHandlers(checkout)
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func TestInternalReconcileDefaultsWindow(t *testing.T) {
	var captured time.Duration
	checkout := &stubCheckoutService{
		reconcilePending: func(_ context.Context, olderThan time.Duration) (services.ReconcileReport, error) {
			captured = olderThan
			return services.ReconcileReport{Scanned: 3, Confirmed: 1, Failed: 1, Skipped: 1}, nil
		},
	}
	router := newInternalRouter(checkout)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/reconcile-payments", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if captured != defaultReconcileAge {
		t.Fatalf("older than = %v, want %v", captured, defaultReconcileAge)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["scanned"] != float64(3) || body["confirmed"] != float64(1) {
		t.Fatalf("report = %v", body)
	}
}

func TestInternalReconcileCustomWindow(t *testing.T) {
	var captured time.Duration
	checkout := &stubCheckoutService{
		reconcilePending: func(_ context.Context, olderThan time.Duration) (services.ReconcileReport, error) {
			captured = olderThan
			return services.ReconcileReport{}, nil
		},
	}
	router := newInternalRouter(checkout)

	req := httptest.NewRequest(http.MethodPost, "/jobs/reconcile-payments",
		strings.NewReader(`{"older_than_minutes":120}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if captured != 2*time.Hour {
		t.Fatalf("older than = %v, want 2h", captured)
	}
}

func TestInternalReconcileRejectsNegativeWindow(t *testing.T) {
	router := newInternalRouter(&stubCheckoutService{})

	req := httptest.NewRequest(http.MethodPost, "/jobs/reconcile-payments",
		strings.NewReader(`{"older_than_minutes":-5}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestInternalReconcileSurfacesSweepFailure(t *testing.T) {
	checkout := &stubCheckoutService{
		reconcilePending: func(context.Context, time.Duration) (services.ReconcileReport, error) {
			return services.ReconcileReport{}, errors.New("provider unavailable")
		},
	}
	router := newInternalRouter(checkout)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/reconcile-payments", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}
