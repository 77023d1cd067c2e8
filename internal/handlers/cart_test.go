package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/aromelle/api/internal/domain"
	"github.com/aromelle/api/internal/services"
)

func cartViewFixture(userID string) services.CartView {
	line := domain.CartLine{ID: "cl_1", ProductID: "prod_1", InventoryID: "inv_1", Quantity: 2, Selected: true}
	return services.CartView{
		Cart: domain.Cart{
			UserID:   userID,
			Lines:    []domain.CartLine{line},
			Estimate: domain.CartEstimate{Currency: "thb", SelectedSubtotal: 380_000, ItemCount: 2},
		},
		Items: []services.CartItemView{
			{
				Line:      line,
				Product:   domain.Product{ID: "prod_1", Name: "Siam Oud", Slug: "siam-oud", Published: true},
				Inventory: domain.Inventory{ID: "inv_1", ProductID: "prod_1", SKU: "OUD-50", SizeML: 50, Price: 190_000, Currency: "thb", Stock: 5},
				LineTotal: 380_000,
			},
		},
	}
}

func newCartRouter(carts services.CartService) chi.Router {
	h := NewCartHandlers(nil, carts)
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func TestCartRequiresIdentity(t *testing.T) {
	router := newCartRouter(&stubCartService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestCartGetRendersView(t *testing.T) {
	carts := &stubCartService{
		getCart: func(_ context.Context, userID string) (services.CartView, error) {
			return cartViewFixture(userID), nil
		},
	}
	router := newCartRouter(carts)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newAuthedRequest(http.MethodGet, "/", nil, newIdentity("user_1")))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body cartPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.UserID != "user_1" || len(body.Items) != 1 {
		t.Fatalf("unexpected cart: %+v", body)
	}
	if body.Items[0].LineTotal != 380_000 || body.Items[0].Product.Name != "Siam Oud" {
		t.Fatalf("line not joined with catalog data: %+v", body.Items[0])
	}
	if body.Estimate.SelectedSubtotal != 380_000 || body.Estimate.ItemCount != 2 {
		t.Fatalf("estimate = %+v", body.Estimate)
	}
}

func TestCartAddItemForwardsCommand(t *testing.T) {
	var captured services.AddCartItemCommand
	carts := &stubCartService{
		addItem: func(_ context.Context, cmd services.AddCartItemCommand) (services.CartView, bool, error) {
			captured = cmd
			return cartViewFixture(cmd.UserID), true, nil
		},
	}
	router := newCartRouter(carts)

	req := newAuthedRequest(http.MethodPost, "/items",
		strings.NewReader(`{"inventory_id":" inv_1 ","quantity":2}`), newIdentity("user_1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if captured.UserID != "user_1" || captured.InventoryID != "inv_1" || captured.Quantity != 2 {
		t.Fatalf("command = %+v", captured)
	}

	var body struct {
		cartPayload
		CreatedLine bool `json:"created_line"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.CreatedLine {
		t.Fatalf("expected created_line true in response: %s", rec.Body.String())
	}
	if body.UserID != "user_1" {
		t.Fatalf("cart payload missing from response: %s", rec.Body.String())
	}
}

func TestCartAddItemReportsMergedLine(t *testing.T) {
	carts := &stubCartService{
		addItem: func(_ context.Context, cmd services.AddCartItemCommand) (services.CartView, bool, error) {
			return cartViewFixture(cmd.UserID), false, nil
		},
	}
	router := newCartRouter(carts)

	req := newAuthedRequest(http.MethodPost, "/items",
		strings.NewReader(`{"inventory_id":"inv_1","quantity":1}`), newIdentity("user_1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body struct {
		CreatedLine bool `json:"created_line"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.CreatedLine {
		t.Fatalf("expected created_line false for merged add: %s", rec.Body.String())
	}
}

func TestCartAddItemStockExceededMapsToConflict(t *testing.T) {
	carts := &stubCartService{
		addItem: func(context.Context, services.AddCartItemCommand) (services.CartView, bool, error) {
			return services.CartView{}, false, services.ErrCartStockExceeded
		},
	}
	router := newCartRouter(carts)

	req := newAuthedRequest(http.MethodPost, "/items",
		strings.NewReader(`{"inventory_id":"inv_1","quantity":99}`), newIdentity("user_1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestCartUpdateItemQuantityAndSelection(t *testing.T) {
	var quantityCmd services.SetCartQuantityCommand
	var selectionCmd services.SetCartSelectionCommand
	carts := &stubCartService{
		setItemQuantity: func(_ context.Context, cmd services.SetCartQuantityCommand) (services.CartView, error) {
			quantityCmd = cmd
			return cartViewFixture(cmd.UserID), nil
		},
		setSelection: func(_ context.Context, cmd services.SetCartSelectionCommand) (services.CartView, error) {
			selectionCmd = cmd
			return cartViewFixture(cmd.UserID), nil
		},
	}
	router := newCartRouter(carts)

	req := newAuthedRequest(http.MethodPatch, "/items/inv_1",
		strings.NewReader(`{"quantity":3,"selected":false}`), newIdentity("user_1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if quantityCmd.InventoryID != "inv_1" || quantityCmd.Quantity != 3 {
		t.Fatalf("quantity command = %+v", quantityCmd)
	}
	if len(selectionCmd.InventoryIDs) != 1 || selectionCmd.InventoryIDs[0] != "inv_1" || selectionCmd.Selected {
		t.Fatalf("selection command = %+v", selectionCmd)
	}
}

func TestCartUpdateItemRejectsEmptyEdit(t *testing.T) {
	router := newCartRouter(&stubCartService{})

	req := newAuthedRequest(http.MethodPatch, "/items/inv_1",
		strings.NewReader(`{}`), newIdentity("user_1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCartRemoveItem(t *testing.T) {
	var captured services.RemoveCartItemCommand
	carts := &stubCartService{
		removeItem: func(_ context.Context, cmd services.RemoveCartItemCommand) (services.CartView, error) {
			captured = cmd
			return services.CartView{Cart: domain.Cart{UserID: cmd.UserID}}, nil
		},
	}
	router := newCartRouter(carts)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newAuthedRequest(http.MethodDelete, "/items/inv_1", nil, newIdentity("user_1")))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if captured.UserID != "user_1" || captured.InventoryID != "inv_1" {
		t.Fatalf("command = %+v", captured)
	}
}

func TestCartBulkSelection(t *testing.T) {
	var captured services.SetCartSelectionCommand
	carts := &stubCartService{
		setSelection: func(_ context.Context, cmd services.SetCartSelectionCommand) (services.CartView, error) {
			captured = cmd
			return cartViewFixture(cmd.UserID), nil
		},
	}
	router := newCartRouter(carts)

	req := newAuthedRequest(http.MethodPost, "/selection",
		strings.NewReader(`{"inventory_ids":["inv_1","inv_2"],"selected":true}`), newIdentity("user_1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(captured.InventoryIDs) != 2 || !captured.Selected {
		t.Fatalf("command = %+v", captured)
	}
}
