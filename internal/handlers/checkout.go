package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aromelle/api/internal/platform/auth"
	"github.com/aromelle/api/internal/platform/httpx"
	"github.com/aromelle/api/internal/services"
)

// CheckoutHandlers serves checkout session creation, promotion validation,
// and the client-side confirmation poll after the hosted payment page
// redirects back.
type CheckoutHandlers struct {
	authn      *auth.Authenticator
	checkout   services.CheckoutService
	promotions services.PromotionService
	carts      services.CartService
	// promoLimiter throttles code validation per user so promotion codes
	// cannot be enumerated.
	promoLimiter rateLimiter
}

func NewCheckoutHandlers(authn *auth.Authenticator, checkout services.CheckoutService, promotions services.PromotionService, carts services.CartService, limits RateLimitSettings) *CheckoutHandlers {
	return &CheckoutHandlers{
		authn:        authn,
		checkout:     checkout,
		promotions:   promotions,
		carts:        carts,
		promoLimiter: newKeyedRateLimiter(limits.AuthenticatedPerMinute, 0),
	}
}

func (h *CheckoutHandlers) Routes(r chi.Router) {
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}

	r.Post("/sessions", h.CreateSession)
	r.Post("/sessions/{sessionID}/confirm", h.ConfirmSession)
	r.Post("/promotions/validate", h.ValidatePromotion)
}

type createSessionRequest struct {
	AddressID     string `json:"address_id"`
	PromotionCode string `json:"promotion_code"`
	PayLater      bool   `json:"pay_later"`
	Locale        string `json:"locale"`
}

type checkoutResultPayload struct {
	Order       orderPayload `json:"order"`
	SessionID   string       `json:"session_id,omitempty"`
	RedirectURL string       `json:"redirect_url,omitempty"`
	ExpiresAt   string       `json:"expires_at,omitempty"`
}

// CreateSession snapshots the selected cart lines into an order, holds
// stock, and opens a hosted payment session unless pay-later was requested.
func (h *CheckoutHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req createSessionRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	locale := strings.TrimSpace(req.Locale)
	if locale == "" {
		locale = identity.Locale
	}

	result, err := h.checkout.CreateSession(ctx, services.CreateCheckoutCommand{
		UserID:        identity.UID,
		AddressID:     strings.TrimSpace(req.AddressID),
		PromotionCode: strings.TrimSpace(req.PromotionCode),
		PayLater:      req.PayLater,
		Locale:        locale,
	})
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, checkoutResultPayload{
		Order:       newOrderPayload(result.Order),
		SessionID:   result.SessionID,
		RedirectURL: result.RedirectURL,
		ExpiresAt:   formatTime(result.ExpiresAt),
	})
}

// ConfirmSession is the client-side settlement path for the success
// redirect. The provider is re-queried, so a forged call cannot mark an
// unpaid order as paid.
func (h *CheckoutHandlers) ConfirmSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	if sessionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "session id is required", http.StatusBadRequest))
		return
	}

	order, err := h.checkout.ConfirmBySession(ctx, sessionID)
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}
	if order.UserID != identity.UID && !identity.HasRole(auth.RoleAdmin) {
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
		return
	}
	writeJSONResponse(w, http.StatusOK, newOrderPayload(order))
}

type validatePromotionRequest struct {
	Code     string `json:"code"`
	Subtotal int64  `json:"subtotal"`
}

type promotionValidationPayload struct {
	Code               string `json:"code"`
	Status             string `json:"status"`
	DiscountPercentage int    `json:"discount_percentage"`
	Discount           int64  `json:"discount"`
}

// ValidatePromotion previews whether a code would apply to the given
// subtotal without consuming it.
func (h *CheckoutHandlers) ValidatePromotion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if h.promoLimiter != nil && !h.promoLimiter.Allow(identity.UID) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many validation attempts, slow down", http.StatusTooManyRequests))
		return
	}

	var req validatePromotionRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	subtotal := req.Subtotal
	if subtotal <= 0 && h.carts != nil {
		view, err := h.carts.GetCart(ctx, identity.UID)
		if err != nil {
			writeCartError(ctx, w, err)
			return
		}
		subtotal = view.Estimate.SelectedSubtotal
	}

	validation, err := h.promotions.Validate(ctx, services.ValidatePromotionCommand{
		Code:     strings.TrimSpace(req.Code),
		UserID:   identity.UID,
		Subtotal: subtotal,
	})
	if err != nil {
		writePromotionError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, promotionValidationPayload{
		Code:               validation.Promotion.Code,
		Status:             string(validation.Status),
		DiscountPercentage: validation.Promotion.DiscountPercentage,
		Discount:           validation.Discount,
	})
}
