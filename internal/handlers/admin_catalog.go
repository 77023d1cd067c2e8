package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/aromelle/api/internal/domain"
	"github.com/aromelle/api/internal/platform/httpx"
	"github.com/aromelle/api/internal/services"
)

type upsertProductRequest struct {
	Name        string              `json:"name"`
	Slug        string              `json:"slug"`
	Brand       string              `json:"brand"`
	Description string              `json:"description"`
	FamilyID    string              `json:"family_id"`
	FormulaID   string              `json:"formula_id"`
	ScentTypeID string              `json:"scent_type_id"`
	Notes       ingredientNotesView `json:"notes"`
	ImagePaths  []string            `json:"image_paths"`
	Published   bool                `json:"published"`
}

func (req upsertProductRequest) command(productID *string, actorID string) services.UpsertProductCommand {
	return services.UpsertProductCommand{
		ProductID:   productID,
		Name:        strings.TrimSpace(req.Name),
		Slug:        strings.TrimSpace(req.Slug),
		Brand:       strings.TrimSpace(req.Brand),
		Description: strings.TrimSpace(req.Description),
		FamilyID:    strings.TrimSpace(req.FamilyID),
		FormulaID:   strings.TrimSpace(req.FormulaID),
		ScentTypeID: strings.TrimSpace(req.ScentTypeID),
		Notes:       domain.IngredientNotes{Top: req.Notes.Top, Heart: req.Notes.Heart, Base: req.Notes.Base},
		ImagePaths:  req.ImagePaths,
		Published:   req.Published,
		ActorID:     actorID,
	}
}

// ListProducts is the admin catalog listing; unpublished products are
// included.
func (h *AdminHandlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pager, err := parsePageQuery(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	filter := services.ProductListFilter{
		Query:              strings.TrimSpace(r.URL.Query().Get("q")),
		IncludeUnpublished: true,
		Pagination:         pager,
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

func (h *AdminHandlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	detail, err := h.catalog.GetProduct(ctx, services.ProductQuery{ProductID: productID, IncludeUnpublished: true})
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

func (h *AdminHandlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req upsertProductRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	product, err := h.catalog.UpsertProduct(ctx, req.command(nil, identity.UID))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, newProductPayload(product))
}

func (h *AdminHandlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
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

	var req upsertProductRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	product, err := h.catalog.UpsertProduct(ctx, req.command(&productID, identity.UID))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newProductPayload(product))
}

func (h *AdminHandlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	if err := h.catalog.DeleteProduct(ctx, productID); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type upsertInventoryRequest struct {
	SKU      string `json:"sku"`
	SizeML   int    `json:"size_ml"`
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
	Stock    *int   `json:"stock"`
}

func (h *AdminHandlers) CreateInventory(w http.ResponseWriter, r *http.Request) {
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

	var req upsertInventoryRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	inv, err := h.catalog.UpsertInventory(ctx, services.UpsertInventoryCommand{
		ProductID: productID,
		SKU:       strings.TrimSpace(req.SKU),
		SizeML:    req.SizeML,
		Price:     req.Price,
		Currency:  strings.TrimSpace(req.Currency),
		Stock:     req.Stock,
		ActorID:   identity.UID,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, newInventoryPayload(inv))
}

func (h *AdminHandlers) UpdateInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	inventoryID := strings.TrimSpace(chi.URLParam(r, "inventoryID"))
	if inventoryID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "inventory id is required", http.StatusBadRequest))
		return
	}

	var req upsertInventoryRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	inv, err := h.catalog.UpsertInventory(ctx, services.UpsertInventoryCommand{
		InventoryID: &inventoryID,
		SKU:         strings.TrimSpace(req.SKU),
		SizeML:      req.SizeML,
		Price:       req.Price,
		Currency:    strings.TrimSpace(req.Currency),
		Stock:       req.Stock,
		ActorID:     identity.UID,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newInventoryPayload(inv))
}

func (h *AdminHandlers) DeleteInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	inventoryID := strings.TrimSpace(chi.URLParam(r, "inventoryID"))
	if inventoryID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "inventory id is required", http.StatusBadRequest))
		return
	}

	if err := h.catalog.DeleteInventory(ctx, inventoryID); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type adjustStockRequest struct {
	Stock *int `json:"stock"`
}

// AdjustStock sets the absolute on-hand count without touching reservations.
func (h *AdminHandlers) AdjustStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	inventoryID := strings.TrimSpace(chi.URLParam(r, "inventoryID"))
	if inventoryID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "inventory id is required", http.StatusBadRequest))
		return
	}

	var req adjustStockRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}
	if req.Stock == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "stock is required", http.StatusBadRequest))
		return
	}

	inv, err := h.inventory.AdjustStock(ctx, services.AdjustStockCommand{
		InventoryID: inventoryID,
		Stock:       *req.Stock,
		ActorID:     identity.UID,
	})
	if err != nil {
		writeInventoryError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newInventoryPayload(inv))
}
