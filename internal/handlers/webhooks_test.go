package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/aromelle/api/internal/domain"
	"github.com/aromelle/api/internal/payments"
	"github.com/aromelle/api/internal/services"
)

type stubWebhookVerifier struct {
	event payments.WebhookEvent
	err   error

	payload   []byte
	signature string
}

func (v *stubWebhookVerifier) Verify(payload []byte, signature string) (payments.WebhookEvent, error) {
	v.payload = payload
	v.signature = signature
	return v.event, v.err
}

func newWebhookRouter(verifier WebhookVerifier, checkout services.CheckoutService) chi.Router {
	h := NewWebhookHandlers(verifier, checkout)
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func TestWebhookCompletedSessionConfirmsOrder(t *testing.T) {
	verifier := &stubWebhookVerifier{
		event: payments.WebhookEvent{
			ID:        "evt_1",
			Type:      payments.EventCheckoutSessionCompleted,
			SessionID: "cs_test_1",
			Status:    payments.StatusSucceeded,
		},
	}
	var confirmed string
	checkout := &stubCheckoutService{
		confirmBySession: func(_ context.Context, sessionID string) (domain.Order, error) {
			confirmed = sessionID
			return orderFixture("ord_1", "user_1"), nil
		},
	}
	router := newWebhookRouter(verifier, checkout)

	req := httptest.NewRequest(http.MethodPost, "/stripe", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	if confirmed != "cs_test_1" {
		t.Fatalf("confirmed session = %q, want cs_test_1", confirmed)
	}
	if verifier.signature != "t=1,v1=abc" {
		t.Fatalf("signature header not forwarded: %q", verifier.signature)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["handled"] != true {
		t.Fatalf("handled = %v, want true", body["handled"])
	}
}

func TestWebhookExpiredSessionFailsOrder(t *testing.T) {
	verifier := &stubWebhookVerifier{
		event: payments.WebhookEvent{
			ID:        "evt_2",
			Type:      payments.EventCheckoutSessionExpired,
			SessionID: "cs_test_2",
			Status:    payments.StatusFailed,
		},
	}
	var failed string
	checkout := &stubCheckoutService{
		failBySession: func(_ context.Context, sessionID string) (domain.Order, error) {
			failed = sessionID
			order := orderFixture("ord_2", "user_1")
			order.PaymentStatus = domain.PaymentFailed
			return order, nil
		},
	}
	router := newWebhookRouter(verifier, checkout)

	req := httptest.NewRequest(http.MethodPost, "/stripe", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if failed != "cs_test_2" {
		t.Fatalf("failed session = %q, want cs_test_2", failed)
	}
}

func TestWebhookInvalidSignatureRejected(t *testing.T) {
	verifier := &stubWebhookVerifier{err: payments.ErrInvalidWebhookSignature}
	router := newWebhookRouter(verifier, &stubCheckoutService{})

	req := httptest.NewRequest(http.MethodPost, "/stripe", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestWebhookUnknownSessionAcknowledged(t *testing.T) {
	verifier := &stubWebhookVerifier{
		event: payments.WebhookEvent{
			Type:      payments.EventCheckoutSessionCompleted,
			SessionID: "cs_other_env",
			Status:    payments.StatusSucceeded,
		},
	}
	checkout := &stubCheckoutService{
		confirmBySession: func(context.Context, string) (domain.Order, error) {
			return domain.Order{}, services.ErrCheckoutOrderNotFound
		},
	}
	router := newWebhookRouter(verifier, checkout)

	req := httptest.NewRequest(http.MethodPost, "/stripe", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["handled"] != false {
		t.Fatalf("handled = %v, want false", body["handled"])
	}
}

func TestWebhookIntentEventWithoutSessionIgnored(t *testing.T) {
	verifier := &stubWebhookVerifier{
		event: payments.WebhookEvent{
			Type:     payments.EventPaymentIntentSucceeded,
			IntentID: "pi_1",
			Status:   payments.StatusSucceeded,
		},
	}
	router := newWebhookRouter(verifier, &stubCheckoutService{})

	req := httptest.NewRequest(http.MethodPost, "/stripe", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
