package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/aromelle/api/internal/domain"
	"github.com/aromelle/api/internal/repositories"
)

func newTestCartService(t *testing.T, carts *stubCartRepository, inventory *stubInventoryRepository, products *stubProductRepository) CartService {
	t.Helper()
	svc, err := NewCartService(CartServiceDeps{
		Carts:       carts,
		Inventory:   inventory,
		Products:    products,
		Clock:       fixedClock(time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)),
		IDGenerator: sequenceIDs("cl"),
	})
	if err != nil {
		t.Fatalf("new cart service: %v", err)
	}
	return svc
}

func TestCartAddItemCreatesSelectedLine(t *testing.T) {
	products := newStubProductRepository(domain.Product{ID: "prod_1", Name: "Nuit de Siam", Published: true})
	inventory := newStubInventoryRepository(domain.Inventory{ID: "inv_1", ProductID: "prod_1", Price: 95_000, Stock: 10})
	carts := newStubCartRepository()
	svc := newTestCartService(t, carts, inventory, products)

	view, created, err := svc.AddItem(context.Background(), AddCartItemCommand{UserID: "user_1", InventoryID: "inv_1", Quantity: 2})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if !created {
		t.Fatalf("expected a newly created line")
	}
	if len(view.Lines) != 1 {
		t.Fatalf("expected one line, got %d", len(view.Lines))
	}
	line := view.Lines[0]
	if !line.Selected {
		t.Fatalf("expected new line selected")
	}
	if line.ProductID != "prod_1" {
		t.Fatalf("expected line bound to product, got %s", line.ProductID)
	}
	if view.Estimate.SelectedSubtotal != 190_000 {
		t.Fatalf("expected subtotal 190000, got %d", view.Estimate.SelectedSubtotal)
	}
	if view.Estimate.ItemCount != 2 {
		t.Fatalf("expected item count 2, got %d", view.Estimate.ItemCount)
	}
}

func TestCartAddItemMergesQuantities(t *testing.T) {
	products := newStubProductRepository(domain.Product{ID: "prod_1", Published: true})
	inventory := newStubInventoryRepository(domain.Inventory{ID: "inv_1", ProductID: "prod_1", Price: 1_000, Stock: 10})
	carts := newStubCartRepository()
	svc := newTestCartService(t, carts, inventory, products)

	if _, created, err := svc.AddItem(context.Background(), AddCartItemCommand{UserID: "user_1", InventoryID: "inv_1", Quantity: 2}); err != nil || !created {
		t.Fatalf("first add: created=%v err=%v", created, err)
	}
	view, created, err := svc.AddItem(context.Background(), AddCartItemCommand{UserID: "user_1", InventoryID: "inv_1", Quantity: 3})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if created {
		t.Fatalf("expected merge into the existing line")
	}
	if len(view.Lines) != 1 {
		t.Fatalf("expected merged line, got %d lines", len(view.Lines))
	}
	if view.Lines[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", view.Lines[0].Quantity)
	}
}

func TestCartAddItemUnknownInventory(t *testing.T) {
	svc := newTestCartService(t, newStubCartRepository(), newStubInventoryRepository(), newStubProductRepository())

	_, _, err := svc.AddItem(context.Background(), AddCartItemCommand{UserID: "user_1", InventoryID: "inv_missing", Quantity: 1})
	if !errors.Is(err, ErrCartInventoryNotFound) {
		t.Fatalf("expected inventory not found, got %v", err)
	}
}

func TestCartStockCeilingSurfacesAsStockExceeded(t *testing.T) {
	products := newStubProductRepository(domain.Product{ID: "prod_1", Published: true})
	inventory := newStubInventoryRepository(domain.Inventory{ID: "inv_1", ProductID: "prod_1", Price: 1_000, Stock: 3})
	carts := newStubCartRepository()
	carts.upsertErr = repositories.NewInventoryError(repositories.InventoryErrorInsufficientStock, "unit inv_1", nil)
	svc := newTestCartService(t, carts, inventory, products)

	_, _, err := svc.AddItem(context.Background(), AddCartItemCommand{UserID: "user_1", InventoryID: "inv_1", Quantity: 5})
	if !errors.Is(err, ErrCartStockExceeded) {
		t.Fatalf("expected stock exceeded, got %v", err)
	}
}

func TestCartSetItemQuantityRejectsNonPositive(t *testing.T) {
	svc := newTestCartService(t, newStubCartRepository(), newStubInventoryRepository(), newStubProductRepository())

	for _, qty := range []int{0, -1} {
		_, err := svc.SetItemQuantity(context.Background(), SetCartQuantityCommand{UserID: "user_1", InventoryID: "inv_1", Quantity: qty})
		if !errors.Is(err, ErrCartInvalidInput) {
			t.Fatalf("quantity %d: expected invalid input, got %v", qty, err)
		}
	}
}

func TestCartEstimateCoversOnlySelectedLines(t *testing.T) {
	products := newStubProductRepository(domain.Product{ID: "prod_1", Published: true})
	inventory := newStubInventoryRepository(
		domain.Inventory{ID: "inv_1", ProductID: "prod_1", Price: 1_000, Stock: 10},
		domain.Inventory{ID: "inv_2", ProductID: "prod_1", Price: 2_000, Stock: 10},
	)
	carts := newStubCartRepository()
	svc := newTestCartService(t, carts, inventory, products)

	if _, _, err := svc.AddItem(context.Background(), AddCartItemCommand{UserID: "user_1", InventoryID: "inv_1", Quantity: 1}); err != nil {
		t.Fatalf("add inv_1: %v", err)
	}
	if _, _, err := svc.AddItem(context.Background(), AddCartItemCommand{UserID: "user_1", InventoryID: "inv_2", Quantity: 2}); err != nil {
		t.Fatalf("add inv_2: %v", err)
	}

	view, err := svc.SetSelection(context.Background(), SetCartSelectionCommand{
		UserID:       "user_1",
		InventoryIDs: []string{"inv_2"},
		Selected:     false,
	})
	if err != nil {
		t.Fatalf("set selection: %v", err)
	}
	if view.Estimate.SelectedSubtotal != 1_000 {
		t.Fatalf("expected subtotal 1000, got %d", view.Estimate.SelectedSubtotal)
	}
	if view.Estimate.ItemCount != 1 {
		t.Fatalf("expected item count 1, got %d", view.Estimate.ItemCount)
	}
}

func TestCartViewSkipsDelistedInventory(t *testing.T) {
	products := newStubProductRepository(domain.Product{ID: "prod_1", Published: true})
	inventory := newStubInventoryRepository(domain.Inventory{ID: "inv_1", ProductID: "prod_1", Price: 1_000, Stock: 10})
	carts := newStubCartRepository()
	svc := newTestCartService(t, carts, inventory, products)

	if _, _, err := svc.AddItem(context.Background(), AddCartItemCommand{UserID: "user_1", InventoryID: "inv_1", Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	delete(inventory.units, "inv_1")

	view, err := svc.GetCart(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("expected no rendered items, got %d", len(view.Items))
	}
	if len(view.Lines) != 1 {
		t.Fatalf("expected raw line preserved, got %d", len(view.Lines))
	}
}

func TestCartRemoveItem(t *testing.T) {
	products := newStubProductRepository(domain.Product{ID: "prod_1", Published: true})
	inventory := newStubInventoryRepository(domain.Inventory{ID: "inv_1", ProductID: "prod_1", Price: 1_000, Stock: 10})
	carts := newStubCartRepository()
	svc := newTestCartService(t, carts, inventory, products)

	if _, _, err := svc.AddItem(context.Background(), AddCartItemCommand{UserID: "user_1", InventoryID: "inv_1", Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	view, err := svc.RemoveItem(context.Background(), RemoveCartItemCommand{UserID: "user_1", InventoryID: "inv_1"})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(view.Lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(view.Lines))
	}

	if _, err := svc.RemoveItem(context.Background(), RemoveCartItemCommand{UserID: "user_1", InventoryID: "inv_1"}); !errors.Is(err, ErrCartLineNotFound) {
		t.Fatalf("expected line not found, got %v", err)
	}
}
