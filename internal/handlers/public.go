package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aromelle/api/internal/platform/httpx"
	"github.com/aromelle/api/internal/services"
)

// PublicHandlers serves the unauthenticated storefront surface: catalog
// browsing, facet collections, and scheduled content.
type PublicHandlers struct {
	catalog services.CatalogService
	content services.ContentService
}

func NewPublicHandlers(catalog services.CatalogService, content services.ContentService) *PublicHandlers {
	return &PublicHandlers{catalog: catalog, content: content}
}

// Routes registers the public endpoints on the provided router.
func (h *PublicHandlers) Routes(r chi.Router) {
	r.Get("/products", h.ListProducts)
	r.Get("/products/{productKey}", h.GetProduct)
	r.Get("/facets", h.ListFacets)
	r.Get("/advertisements", h.ListAdvertisements)
	r.Get("/hero-images", h.ListHeroImages)
}

type productSummaryPayload struct {
	productPayload
	MinPrice int64 `json:"min_price"`
	MaxPrice int64 `json:"max_price"`
	InStock  bool  `json:"in_stock"`
}

type productListResponse struct {
	Products      []productSummaryPayload `json:"products"`
	NextPageToken string                  `json:"next_page_token,omitempty"`
}

func (h *PublicHandlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pager, err := parsePageQuery(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	filter := services.ProductListFilter{
		Query:      strings.TrimSpace(r.URL.Query().Get("q")),
		Pagination: pager,
	}
	if v := strings.TrimSpace(r.URL.Query().Get("family_id")); v != "" {
		filter.FamilyID = &v
	}
	if v := strings.TrimSpace(r.URL.Query().Get("formula_id")); v != "" {
		filter.FormulaID = &v
	}
	if v := strings.TrimSpace(r.URL.Query().Get("scent_type_id")); v != "" {
		filter.ScentTypeID = &v
	}

	page, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	items := make([]productSummaryPayload, 0, len(page.Items))
	for _, summary := range page.Items {
		items = append(items, productSummaryPayload{
			productPayload: newProductPayload(summary.Product),
			MinPrice:       summary.MinPrice,
			MaxPrice:       summary.MaxPrice,
			InStock:        summary.InStock,
		})
	}
	writeJSONResponse(w, http.StatusOK, productListResponse{Products: items, NextPageToken: page.NextPageToken})
}

type productDetailResponse struct {
	productPayload
	Inventory []inventoryPayload `json:"inventory"`
}

func (h *PublicHandlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key := strings.TrimSpace(chi.URLParam(r, "productKey"))
	if key == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product identifier is required", http.StatusBadRequest))
		return
	}

	query := services.ProductQuery{}
	// Product IDs are ULID based with a fixed prefix; everything else is a slug.
	if strings.HasPrefix(key, "prod_") {
		query.ProductID = key
	} else {
		query.Slug = key
	}

	detail, err := h.catalog.GetProduct(ctx, query)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	inventory := make([]inventoryPayload, 0, len(detail.Inventory))
	for _, inv := range detail.Inventory {
		inventory = append(inventory, newInventoryPayload(inv))
	}
	writeJSONResponse(w, http.StatusOK, productDetailResponse{
		productPayload: newProductPayload(detail.Product),
		Inventory:      inventory,
	})
}

type facetPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	SortOrder int    `json:"sort_order"`
}

type facetsResponse struct {
	Families   []facetPayload `json:"families"`
	Formulas   []facetPayload `json:"formulas"`
	ScentTypes []facetPayload `json:"scent_types"`
}

func (h *PublicHandlers) ListFacets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	facets, err := h.catalog.ListFacets(ctx)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	resp := facetsResponse{
		Families:   make([]facetPayload, 0, len(facets.Families)),
		Formulas:   make([]facetPayload, 0, len(facets.Formulas)),
		ScentTypes: make([]facetPayload, 0, len(facets.ScentTypes)),
	}
	for _, f := range facets.Families {
		resp.Families = append(resp.Families, facetPayload{ID: f.ID, Name: f.Name, Slug: f.Slug, SortOrder: f.SortOrder})
	}
	for _, f := range facets.Formulas {
		resp.Formulas = append(resp.Formulas, facetPayload{ID: f.ID, Name: f.Name, Slug: f.Slug, SortOrder: f.SortOrder})
	}
	for _, f := range facets.ScentTypes {
		resp.ScentTypes = append(resp.ScentTypes, facetPayload{ID: f.ID, Name: f.Name, Slug: f.Slug, SortOrder: f.SortOrder})
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

func (h *PublicHandlers) ListAdvertisements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ads, err := h.content.ListAdvertisements(ctx, true)
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

func (h *PublicHandlers) ListHeroImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	heroes, err := h.content.ListHeroImages(ctx, true)
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

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogDuplicateSlug):
		httpx.WriteError(ctx, w, httpx.NewError("duplicate_slug", "a product with this slug already exists", http.StatusConflict))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "failed to serve catalog request", http.StatusInternalServerError))
	}
}
