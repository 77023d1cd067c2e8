package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/aromelle/api/internal/domain"
	"github.com/aromelle/api/internal/platform/httpx"
	"github.com/aromelle/api/internal/services"
)

// ListOrders is the unscoped admin order listing with payment, shipping,
// and user filters.
func (h *AdminHandlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pager, err := parsePageQuery(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	filter := services.OrderListFilter{
		UserID:     strings.TrimSpace(r.URL.Query().Get("user_id")),
		Pagination: pager,
	}
	for _, raw := range r.URL.Query()["payment_status"] {
		if raw = strings.TrimSpace(raw); raw != "" {
			filter.PaymentStatus = append(filter.PaymentStatus, domain.PaymentStatus(raw))
		}
	}
	for _, raw := range r.URL.Query()["shipping_status"] {
		if raw = strings.TrimSpace(raw); raw != "" {
			filter.ShippingStatus = append(filter.ShippingStatus, domain.ShippingStatus(raw))
		}
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

func (h *AdminHandlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	order, err := h.orders.GetOrder(ctx, services.OrderQuery{OrderID: orderID})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newOrderPayload(order))
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder voids an order that has not shipped, refunding its payment
// when one was captured.
func (h *AdminHandlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
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

	var req cancelOrderRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeBodyError(w, r, err)
		return
	}

	order, err := h.checkout.CancelOrder(ctx, services.CancelOrderCommand{
		OrderID: orderID,
		ActorID: identity.UID,
		Reason:  strings.TrimSpace(req.Reason),
	})
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newOrderPayload(order))
}

type batchTransitionRequest struct {
	OrderIDs []string `json:"order_ids"`
	Target   string   `json:"target"`
}

type orderTransitionPayload struct {
	OrderID string `json:"order_id"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Error   string `json:"error,omitempty"`
}

type batchTransitionResponse struct {
	Results []orderTransitionPayload `json:"results"`
}

// BatchTransitionStatus advances the shipping status of several orders at
// once. Outcomes are reported per order; one failure never rolls back the
// rest.
func (h *AdminHandlers) BatchTransitionStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req batchTransitionRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}
	if len(req.OrderIDs) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order_ids is required", http.StatusBadRequest))
		return
	}

	result, err := h.orders.BatchTransitionStatus(ctx, services.BatchTransitionCommand{
		OrderIDs: req.OrderIDs,
		Target:   domain.ShippingStatus(strings.TrimSpace(req.Target)),
		ActorID:  identity.UID,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	resp := batchTransitionResponse{Results: make([]orderTransitionPayload, 0, len(result.Results))}
	for _, tr := range result.Results {
		item := orderTransitionPayload{
			OrderID: tr.OrderID,
			From:    string(tr.From),
			To:      string(tr.To),
		}
		if tr.Err != nil {
			item.Error = tr.Err.Error()
		}
		resp.Results = append(resp.Results, item)
	}
	writeJSONResponse(w, http.StatusOK, resp)
}
