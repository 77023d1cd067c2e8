package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aromelle/api/internal/platform/httpx"
	"github.com/aromelle/api/internal/services"
)

type upsertPromotionRequest struct {
	Code               string `json:"code"`
	Description        string `json:"description"`
	DiscountPercentage int    `json:"discount_percentage"`
	StartsAt           string `json:"starts_at"`
	EndsAt             string `json:"ends_at"`
	UsageLimit         int    `json:"usage_limit"`
}

func (req upsertPromotionRequest) command(promotionID *string, actorID string) (services.UpsertPromotionCommand, error) {
	var startsAt, endsAt time.Time
	var err error
	if strings.TrimSpace(req.StartsAt) != "" {
		if startsAt, err = parseRFC3339(req.StartsAt); err != nil {
			return services.UpsertPromotionCommand{}, err
		}
	}
	if strings.TrimSpace(req.EndsAt) != "" {
		if endsAt, err = parseRFC3339(req.EndsAt); err != nil {
			return services.UpsertPromotionCommand{}, err
		}
	}
	return services.UpsertPromotionCommand{
		PromotionID:        promotionID,
		Code:               strings.TrimSpace(req.Code),
		Description:        strings.TrimSpace(req.Description),
		DiscountPercentage: req.DiscountPercentage,
		StartsAt:           startsAt,
		EndsAt:             endsAt,
		UsageLimit:         req.UsageLimit,
		ActorID:            actorID,
	}, nil
}

type promotionListResponse struct {
	Promotions    []promotionPayload `json:"promotions"`
	NextPageToken string             `json:"next_page_token,omitempty"`
}

func (h *AdminHandlers) ListPromotions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pager, err := parsePageQuery(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.promotions.ListPromotions(ctx, pager)
	if err != nil {
		writePromotionError(ctx, w, err)
		return
	}

	items := make([]promotionPayload, 0, len(page.Items))
	for _, promo := range page.Items {
		items = append(items, newPromotionPayload(promo))
	}
	writeJSONResponse(w, http.StatusOK, promotionListResponse{Promotions: items, NextPageToken: page.NextPageToken})
}

func (h *AdminHandlers) CreatePromotion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req upsertPromotionRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	cmd, err := req.command(nil, identity.UID)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	promo, err := h.promotions.CreatePromotion(ctx, cmd)
	if err != nil {
		writePromotionError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, newPromotionPayload(promo))
}

func (h *AdminHandlers) UpdatePromotion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	promotionID := strings.TrimSpace(chi.URLParam(r, "promotionID"))
	if promotionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "promotion id is required", http.StatusBadRequest))
		return
	}

	var req upsertPromotionRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	cmd, err := req.command(&promotionID, identity.UID)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	promo, err := h.promotions.UpdatePromotion(ctx, cmd)
	if err != nil {
		writePromotionError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newPromotionPayload(promo))
}

func (h *AdminHandlers) DeletePromotion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	promotionID := strings.TrimSpace(chi.URLParam(r, "promotionID"))
	if promotionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "promotion id is required", http.StatusBadRequest))
		return
	}

	if err := h.promotions.DeletePromotion(ctx, promotionID); err != nil {
		writePromotionError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type promotionUsagePayload struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	UserID  string `json:"user_id"`
	OrderID string `json:"order_id"`
	UsedAt  string `json:"used_at"`
}

type promotionUsageResponse struct {
	Usage         []promotionUsagePayload `json:"usage"`
	NextPageToken string                  `json:"next_page_token,omitempty"`
}

func (h *AdminHandlers) ListPromotionUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	promotionID := strings.TrimSpace(chi.URLParam(r, "promotionID"))
	if promotionID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "promotion id is required", http.StatusBadRequest))
		return
	}

	pager, err := parsePageQuery(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	page, err := h.promotions.ListUsage(ctx, services.PromotionUsageFilter{PromotionID: promotionID, Pagination: pager})
	if err != nil {
		writePromotionError(ctx, w, err)
		return
	}

	items := make([]promotionUsagePayload, 0, len(page.Items))
	for _, usage := range page.Items {
		items = append(items, promotionUsagePayload{
			ID:      usage.ID,
			Code:    usage.Code,
			UserID:  usage.UserID,
			OrderID: usage.OrderID,
			UsedAt:  formatTime(usage.UsedAt),
		})
	}
	writeJSONResponse(w, http.StatusOK, promotionUsageResponse{Usage: items, NextPageToken: page.NextPageToken})
}
