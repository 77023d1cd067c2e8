package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/aromelle/api/internal/platform/httpx"
	"github.com/aromelle/api/internal/services"
)

// Sentinel-to-HTTP mappings shared across handler groups. Anything unmapped
// is reported as an opaque 500 so repository errors never leak to clients.

func writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCartLineNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("cart_line_not_found", "cart line not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartInventoryNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("inventory_not_found", "inventory unit not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartStockExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("stock_exceeded", "requested quantity exceeds available stock", http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to serve cart request", http.StatusInternalServerError))
	}
}

func writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("empty_cart", "no cart lines are selected for checkout", http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutAddressNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("address_not_found", "shipping address not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCheckoutStockUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("stock_unavailable", "one or more items are out of stock", http.StatusConflict))
	case errors.Is(err, services.ErrCheckoutOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCheckoutPaymentIncomplete):
		httpx.WriteError(ctx, w, httpx.NewError("payment_incomplete", "payment has not completed", http.StatusConflict))
	case errors.Is(err, services.ErrCheckoutNotRetryable):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_retryable", "order is not awaiting payment", http.StatusConflict))
	case errors.Is(err, services.ErrCheckoutPayLaterDisabled):
		httpx.WriteError(ctx, w, httpx.NewError("pay_later_disabled", "pay later checkout is not enabled", http.StatusForbidden))
	case errors.Is(err, services.ErrCheckoutNotCancellable):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_cancellable", "order has started fulfilment or cannot be refunded", http.StatusConflict))
	default:
		writePromotionError(ctx, w, err)
	}
}

func writePromotionError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrPromotionInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrPromotionNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("promotion_not_found", "promotion code not found", http.StatusNotFound))
	case errors.Is(err, services.ErrPromotionNotYetValid):
		httpx.WriteError(ctx, w, httpx.NewError("promotion_not_yet_valid", "promotion code is not valid yet", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrPromotionExpired):
		httpx.WriteError(ctx, w, httpx.NewError("promotion_expired", "promotion code has expired", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrPromotionAlreadyUsed):
		httpx.WriteError(ctx, w, httpx.NewError("promotion_already_used", "promotion code was already used by this account", http.StatusConflict))
	case errors.Is(err, services.ErrPromotionUsageLimitReached):
		httpx.WriteError(ctx, w, httpx.NewError("promotion_exhausted", "promotion code has reached its usage limit", http.StatusConflict))
	case errors.Is(err, services.ErrPromotionDuplicateCode):
		httpx.WriteError(ctx, w, httpx.NewError("duplicate_code", "a promotion with this code already exists", http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to serve checkout request", http.StatusInternalServerError))
	}
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderInvalidTransition):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_transition", "shipping status may only move forward", http.StatusConflict))
	case errors.Is(err, services.ErrOrderNotPaid):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_paid", "order has not been paid", http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to serve order request", http.StatusInternalServerError))
	}
}

func writeUserError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrUserInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrUserInvalidLocale):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_locale", "locale is not a valid BCP-47 tag", http.StatusBadRequest))
	case errors.Is(err, services.ErrUserInvalidRole):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_role", "role must be USER or ADMIN", http.StatusBadRequest))
	case errors.Is(err, services.ErrUserNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("user_not_found", "user not found", http.StatusNotFound))
	case errors.Is(err, services.ErrUserAddressNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("address_not_found", "address not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to serve account request", http.StatusInternalServerError))
	}
}

func writeContentError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrContentInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrContentNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("content_not_found", "content entry not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to serve content request", http.StatusInternalServerError))
	}
}

func writeInventoryError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInventoryInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrInventoryNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("inventory_not_found", "inventory unit not found", http.StatusNotFound))
	case errors.Is(err, services.ErrInventoryInsufficientStock):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", "stock cannot drop below the reserved amount", http.StatusConflict))
	case errors.Is(err, services.ErrInventoryInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_hold_state", "inventory hold is in an invalid state", http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to serve inventory request", http.StatusInternalServerError))
	}
}

func writeMediaError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrMediaInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to serve media request", http.StatusInternalServerError))
	}
}
