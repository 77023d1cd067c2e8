package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/aromelle/api/internal/domain"
	"github.com/aromelle/api/internal/services"
)

func newOrdersRouter(orders services.OrderService, checkout services.CheckoutService) chi.Router {
	h := NewOrderHandlers(nil, orders, checkout)
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func TestOrdersListScopedToCaller(t *testing.T) {
	var captured services.OrderListFilter
	orders := &stubOrderService{
		listOrders: func(_ context.Context, filter services.OrderListFilter) (domain.CursorPage[domain.Order], error) {
			captured = filter
			return domain.CursorPage[domain.Order]{Items: []domain.Order{orderFixture("ord_1", filter.UserID)}}, nil
		},
	}
	router := newOrdersRouter(orders, &stubCheckoutService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newAuthedRequest(http.MethodGet, "/?payment_status=succeeded&shipping_status=SHIPPED", nil, newIdentity("user_1")))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	if captured.UserID != "user_1" {
		t.Fatalf("filter user = %q, want user_1", captured.UserID)
	}
	if len(captured.PaymentStatus) != 1 || captured.PaymentStatus[0] != domain.PaymentSucceeded {
		t.Fatalf("payment filter = %+v", captured.PaymentStatus)
	}
	if len(captured.ShippingStatus) != 1 || captured.ShippingStatus[0] != domain.ShippingShipped {
		t.Fatalf("shipping filter = %+v", captured.ShippingStatus)
	}

	var body orderListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Orders) != 1 || body.Orders[0].Number != "AR-2026-000001" {
		t.Fatalf("orders = %+v", body.Orders)
	}
}

func TestOrdersGetPassesOwnerScope(t *testing.T) {
	var captured services.OrderQuery
	orders := &stubOrderService{
		getOrder: func(_ context.Context, query services.OrderQuery) (domain.Order, error) {
			captured = query
			if query.OrderID != "ord_1" {
				return domain.Order{}, services.ErrOrderNotFound
			}
			return orderFixture("ord_1", "user_1"), nil
		},
	}
	router := newOrdersRouter(orders, &stubCheckoutService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newAuthedRequest(http.MethodGet, "/ord_1", nil, newIdentity("user_1")))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if captured.UserID != "user_1" || captured.OrderID != "ord_1" {
		t.Fatalf("query = %+v", captured)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, newAuthedRequest(http.MethodGet, "/ord_missing", nil, newIdentity("user_1")))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing order status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestOrdersRetryPayment(t *testing.T) {
	var captured services.RetryPaymentCommand
	checkout := &stubCheckoutService{
		retryPayment: func(_ context.Context, cmd services.RetryPaymentCommand) (services.CheckoutResult, error) {
			captured = cmd
			return services.CheckoutResult{
				Order:       orderFixture(cmd.OrderID, cmd.UserID),
				SessionID:   "cs_test_retry",
				RedirectURL: "https://checkout.stripe.com/c/pay/cs_test_retry",
			}, nil
		},
	}
	router := newOrdersRouter(&stubOrderService{}, checkout)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newAuthedRequest(http.MethodPost, "/ord_1/retry-payment", nil, newIdentity("user_1")))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if captured.UserID != "user_1" || captured.OrderID != "ord_1" {
		t.Fatalf("command = %+v", captured)
	}

	var body checkoutResultPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.SessionID != "cs_test_retry" {
		t.Fatalf("session = %q", body.SessionID)
	}
}

func TestOrdersRetryPaymentNotRetryable(t *testing.T) {
	checkout := &stubCheckoutService{
		retryPayment: func(context.Context, services.RetryPaymentCommand) (services.CheckoutResult, error) {
			return services.CheckoutResult{}, services.ErrCheckoutNotRetryable
		},
	}
	router := newOrdersRouter(&stubOrderService{}, checkout)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newAuthedRequest(http.MethodPost, "/ord_1/retry-payment", nil, newIdentity("user_1")))
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}
