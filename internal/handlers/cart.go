package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aromelle/api/internal/platform/auth"
	"github.com/aromelle/api/internal/platform/httpx"
	"github.com/aromelle/api/internal/services"
)

// CartHandlers serves the authenticated cart surface. Every mutation returns
// the full cart view so clients never need a follow-up read.
type CartHandlers struct {
	authn *auth.Authenticator
	carts services.CartService
}

func NewCartHandlers(authn *auth.Authenticator, carts services.CartService) *CartHandlers {
	return &CartHandlers{authn: authn, carts: carts}
}

func (h *CartHandlers) Routes(r chi.Router) {
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}

	r.Get("/", h.GetCart)
	r.Post("/items", h.AddItem)
	r.Patch("/items/{inventoryID}", h.UpdateItem)
	r.Delete("/items/{inventoryID}", h.RemoveItem)
	r.Post("/selection", h.SetSelection)
}

func (h *CartHandlers) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	view, err := h.carts.GetCart(ctx, identity.UID)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newCartPayload(view))
}

type addCartItemRequest struct {
	InventoryID string `json:"inventory_id"`
	Quantity    int    `json:"quantity"`
}

func (h *CartHandlers) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req addCartItemRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}

	view, created, err := h.carts.AddItem(ctx, services.AddCartItemCommand{
		UserID:      identity.UID,
		InventoryID: strings.TrimSpace(req.InventoryID),
		Quantity:    req.Quantity,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, addCartItemResponse{
		cartPayload: newCartPayload(view),
		CreatedLine: created,
	})
}

type addCartItemResponse struct {
	cartPayload
	CreatedLine bool `json:"created_line"`
}

type updateCartItemRequest struct {
	Quantity *int  `json:"quantity"`
	Selected *bool `json:"selected"`
}

// UpdateItem changes the quantity and/or selection flag of one cart line.
func (h *CartHandlers) UpdateItem(w http.ResponseWriter, r *http.Request) {
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

	var req updateCartItemRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}
	if req.Quantity == nil && req.Selected == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "no editable fields supplied", http.StatusBadRequest))
		return
	}

	var view services.CartView
	var err error

	if req.Quantity != nil {
		view, err = h.carts.SetItemQuantity(ctx, services.SetCartQuantityCommand{
			UserID:      identity.UID,
			InventoryID: inventoryID,
			Quantity:    *req.Quantity,
		})
		if err != nil {
			writeCartError(ctx, w, err)
			return
		}
	}
	if req.Selected != nil {
		view, err = h.carts.SetSelection(ctx, services.SetCartSelectionCommand{
			UserID:       identity.UID,
			InventoryIDs: []string{inventoryID},
			Selected:     *req.Selected,
		})
		if err != nil {
			writeCartError(ctx, w, err)
			return
		}
	}
	writeJSONResponse(w, http.StatusOK, newCartPayload(view))
}

func (h *CartHandlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
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

	view, err := h.carts.RemoveItem(ctx, services.RemoveCartItemCommand{
		UserID:      identity.UID,
		InventoryID: inventoryID,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newCartPayload(view))
}

type setSelectionRequest struct {
	InventoryIDs []string `json:"inventory_ids"`
	Selected     *bool    `json:"selected"`
}

// SetSelection flips the checkout flag on several lines at once, typically
// from a select-all control.
func (h *CartHandlers) SetSelection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req setSelectionRequest
	if err := decodeJSONBody(r, defaultMaxBodySize, &req); err != nil {
		writeBodyError(w, r, err)
		return
	}
	if req.Selected == nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "selected flag is required", http.StatusBadRequest))
		return
	}

	view, err := h.carts.SetSelection(ctx, services.SetCartSelectionCommand{
		UserID:       identity.UID,
		InventoryIDs: req.InventoryIDs,
		Selected:     *req.Selected,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newCartPayload(view))
}
