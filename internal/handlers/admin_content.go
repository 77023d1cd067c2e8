package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aromelle/api/internal/platform/httpx"
	"github.com/aromelle/api/internal/services"
)

type upsertAdvertisementRequest struct {
	Title     string `json:"title"`
	ImagePath string `json:"image_path"`
	LinkURL   string `json:"link_url"`
	StartsAt  string `json:"starts_at"`
	EndsAt    string `json:"ends_at"`
	Active    bool   `json:"active"`
	SortOrder int    `json:"sort_order"`
}

func (req upsertAdvertisementRequest) command(adID *string, actorID string) (services.UpsertAdvertisementCommand, error) {
	var startsAt, endsAt time.Time
	var err error
	if strings.TrimSpace(req.StartsAt) != "" {
		if startsAt, err = parseRFC3339(req.StartsAt); err != nil {
			return services.UpsertAdvertisementCommand{}, err
		}
	}
	if strings.TrimSpace(req.EndsAt) != "" {
		if endsAt, err = parseRFC3339(req.EndsAt); err != nil {
			return services.UpsertAdvertisementCommand{}, err
		}
	}
	return services.UpsertAdvertisementCommand{
		AdID:      adID,
		Title:     strings.TrimSpace(req.Title),
		ImagePath: strings.TrimSpace(req.ImagePath),
		LinkURL:   strings.TrimSpace(req.LinkURL),
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		Active:    req.Active,
		SortOrder: req.SortOrder,
		ActorID:   actorID,
	}, nil
}

// ListAdvertisements is the admin listing; scheduling is not applied so
// disabled and future entries are visible.
func (h *AdminHandlers) ListAdvertisements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ads, err := h.content.ListAdvertisements(ctx, false)
	if err != nil {
		writeContentError(ctx, w, err)
		return
	}

	payload := make([]advertisementPayload, 0, len(ads))
	for _, ad := range ads {
		payload = append(payload, newAdvertisementPayload(ad))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"advertisements": payload})
}

func (h *AdminHandlers) CreateAdvertisement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req upsertAdvertisementRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	cmd, err := req.command(nil, identity.UID)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	ad, err := h.content.UpsertAdvertisement(ctx, cmd)
	if err != nil {
		writeContentError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, newAdvertisementPayload(ad))
}

func (h *AdminHandlers) UpdateAdvertisement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	adID := strings.TrimSpace(chi.URLParam(r, "adID"))
	if adID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "advertisement id is required", http.StatusBadRequest))
		return
	}

	var req upsertAdvertisementRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	cmd, err := req.command(&adID, identity.UID)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	ad, err := h.content.UpsertAdvertisement(ctx, cmd)
	if err != nil {
		writeContentError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newAdvertisementPayload(ad))
}

func (h *AdminHandlers) DeleteAdvertisement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	adID := strings.TrimSpace(chi.URLParam(r, "adID"))
	if adID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "advertisement id is required", http.StatusBadRequest))
		return
	}

	if err := h.content.DeleteAdvertisement(ctx, adID); err != nil {
		writeContentError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type upsertHeroImageRequest struct {
	ImagePath string `json:"image_path"`
	LinkURL   string `json:"link_url"`
	Active    bool   `json:"active"`
	SortOrder int    `json:"sort_order"`
}

func (h *AdminHandlers) ListHeroImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	heroes, err := h.content.ListHeroImages(ctx, false)
	if err != nil {
		writeContentError(ctx, w, err)
		return
	}

	payload := make([]heroImagePayload, 0, len(heroes))
	for _, hero := range heroes {
		payload = append(payload, newHeroImagePayload(hero))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"hero_images": payload})
}

func (h *AdminHandlers) CreateHeroImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req upsertHeroImageRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	hero, err := h.content.UpsertHeroImage(ctx, services.UpsertHeroImageCommand{
		ImagePath: strings.TrimSpace(req.ImagePath),
		LinkURL:   strings.TrimSpace(req.LinkURL),
		Active:    req.Active,
		SortOrder: req.SortOrder,
		ActorID:   identity.UID,
	})
	if err != nil {
		writeContentError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, newHeroImagePayload(hero))
}

func (h *AdminHandlers) UpdateHeroImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	heroID := strings.TrimSpace(chi.URLParam(r, "heroID"))
	if heroID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "hero image id is required", http.StatusBadRequest))
		return
	}

	var req upsertHeroImageRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	hero, err := h.content.UpsertHeroImage(ctx, services.UpsertHeroImageCommand{
		HeroID:    &heroID,
		ImagePath: strings.TrimSpace(req.ImagePath),
		LinkURL:   strings.TrimSpace(req.LinkURL),
		Active:    req.Active,
		SortOrder: req.SortOrder,
		ActorID:   identity.UID,
	})
	if err != nil {
		writeContentError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newHeroImagePayload(hero))
}

func (h *AdminHandlers) DeleteHeroImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	heroID := strings.TrimSpace(chi.URLParam(r, "heroID"))
	if heroID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "hero image id is required", http.StatusBadRequest))
		return
	}

	if err := h.content.DeleteHeroImage(ctx, heroID); err != nil {
		writeContentError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
