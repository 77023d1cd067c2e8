package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aromelle/api/internal/platform/httpx"
	"github.com/aromelle/api/internal/services"
)

type favoritePayload struct {
	ProductID string         `json:"product_id"`
	Product   productPayload `json:"product"`
	AddedAt   string         `json:"added_at,omitempty"`
}

type favoriteListResponse struct {
	Favorites     []favoritePayload `json:"favorites"`
	NextPageToken string            `json:"next_page_token,omitempty"`
}

func (h *MeHandlers) ListFavorites(w http.ResponseWriter, r *http.Request) {
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

	page, err := h.users.ListFavorites(ctx, identity.UID, pager)
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}

	items := make([]favoritePayload, 0, len(page.Items))
	for _, fav := range page.Items {
		items = append(items, favoritePayload{
			ProductID: fav.ProductID,
			Product:   newProductPayload(fav.Product),
			AddedAt:   formatTime(fav.CreatedAt),
		})
	}
	writeJSONResponse(w, http.StatusOK, favoriteListResponse{Favorites: items, NextPageToken: page.NextPageToken})
}

// ToggleFavorite flips the bookmark state for a product and reports the
// resulting state.
func (h *MeHandlers) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	favorited, err := h.users.ToggleFavorite(ctx, services.ToggleFavoriteCommand{UserID: identity.UID, ProductID: productID})
	if err != nil {
		writeUserError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"product_id": productID, "favorited": favorited})
}
