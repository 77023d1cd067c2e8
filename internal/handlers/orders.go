package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/aromelle/api/internal/domain"
	"github.com/aromelle/api/internal/platform/auth"
	"github.com/aromelle/api/internal/platform/httpx"
	"github.com/aromelle/api/internal/services"
)

// OrderHandlers serves order history for the authenticated customer, always
// scoped to the caller.
type OrderHandlers struct {
	authn    *auth.Authenticator
	orders   services.OrderService
	checkout services.CheckoutService
}

func NewOrderHandlers(authn *auth.Authenticator, orders services.OrderService, checkout services.CheckoutService) *OrderHandlers {
	return &OrderHandlers{authn: authn, orders: orders, checkout: checkout}
}

func (h *OrderHandlers) Routes(r chi.Router) {
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}

	r.Get("/", h.ListOrders)
	r.Get("/{orderID}", h.GetOrder)
	r.Post("/{orderID}/retry-payment", h.RetryPayment)
}

type orderListResponse struct {
	Orders        []orderPayload `json:"orders"`
	NextPageToken string         `json:"next_page_token,omitempty"`
}

func (h *OrderHandlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	pager, err := parsePageQuery(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	filter := services.OrderListFilter{UserID: identity.UID, Pagination: pager}
	if raw := strings.TrimSpace(r.URL.Query().Get("payment_status")); raw != "" {
		filter.PaymentStatus = []domain.PaymentStatus{domain.PaymentStatus(raw)}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("shipping_status")); raw != "" {
		filter.ShippingStatus = []domain.ShippingStatus{domain.ShippingStatus(raw)}
	}

	page, err := h.orders.ListOrders(ctx, filter)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	items := make([]orderPayload, 0, len(page.Items))
	for _, order := range page.Items {
		items = append(items, newOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, orderListResponse{Orders: items, NextPageToken: page.NextPageToken})
}

func (h *OrderHandlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.GetOrder(ctx, services.OrderQuery{OrderID: orderID, UserID: identity.UID})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newOrderPayload(order))
}

// RetryPayment opens a fresh hosted session for an order whose payment is
// still pending or previously failed. Pay-later orders settle through this
// path.
func (h *OrderHandlers) RetryPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	result, err := h.checkout.RetryPayment(ctx, services.RetryPaymentCommand{
		UserID:  identity.UID,
		OrderID: orderID,
	})
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, checkoutResultPayload{
		Order:       newOrderPayload(result.Order),
		SessionID:   result.SessionID,
		RedirectURL: result.RedirectURL,
		ExpiresAt:   formatTime(result.ExpiresAt),
	})
}
