package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/aromelle/api/internal/domain"
)

func newTestInventoryService(t *testing.T, repo *stubInventoryRepository) InventoryService {
	t.Helper()
	svc, err := NewInventoryService(InventoryServiceDeps{
		Inventory: repo,
		Clock:     fixedClock(time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("new inventory service: %v", err)
	}
	return svc
}

func TestInventoryReserveHoldsStock(t *testing.T) {
	repo := newStubInventoryRepository(
		domain.Inventory{ID: "inv_1", ProductID: "prod_1", Stock: 10},
		domain.Inventory{ID: "inv_2", ProductID: "prod_1", Stock: 5},
	)
	svc := newTestInventoryService(t, repo)

	err := svc.Reserve(context.Background(), ReserveStockCommand{
		OrderID:    "ord_1",
		Quantities: map[string]int{"inv_1": 2, "inv_2": 1},
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if repo.units["inv_1"].Reserved != 2 || repo.units["inv_2"].Reserved != 1 {
		t.Fatalf("expected reserved counts 2/1, got %d/%d", repo.units["inv_1"].Reserved, repo.units["inv_2"].Reserved)
	}
}

func TestInventoryReserveFailsAtomicallyOnShortage(t *testing.T) {
	repo := newStubInventoryRepository(
		domain.Inventory{ID: "inv_1", Stock: 10},
		domain.Inventory{ID: "inv_2", Stock: 1},
	)
	svc := newTestInventoryService(t, repo)

	err := svc.Reserve(context.Background(), ReserveStockCommand{
		OrderID:    "ord_1",
		Quantities: map[string]int{"inv_1": 2, "inv_2": 3},
	})
	if !errors.Is(err, ErrInventoryInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if repo.units["inv_1"].Reserved != 0 {
		t.Fatalf("expected no partial hold, got reserved %d", repo.units["inv_1"].Reserved)
	}
}

func TestInventoryReserveValidatesQuantities(t *testing.T) {
	svc := newTestInventoryService(t, newStubInventoryRepository())

	cases := []ReserveStockCommand{
		{OrderID: "", Quantities: map[string]int{"inv_1": 1}},
		{OrderID: "ord_1"},
		{OrderID: "ord_1", Quantities: map[string]int{"inv_1": 0}},
		{OrderID: "ord_1", Quantities: map[string]int{"inv_1": -2}},
	}
	for i, cmd := range cases {
		if err := svc.Reserve(context.Background(), cmd); !errors.Is(err, ErrInventoryInvalidInput) {
			t.Fatalf("case %d: expected invalid input, got %v", i, err)
		}
	}
}

func TestInventoryCommitConvertsHold(t *testing.T) {
	repo := newStubInventoryRepository(domain.Inventory{ID: "inv_1", Stock: 10})
	svc := newTestInventoryService(t, repo)

	if err := svc.Reserve(context.Background(), ReserveStockCommand{OrderID: "ord_1", Quantities: map[string]int{"inv_1": 4}}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := svc.Commit(context.Background(), "ord_1"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	unit := repo.units["inv_1"]
	if unit.Stock != 6 || unit.Reserved != 0 {
		t.Fatalf("expected stock 6 reserved 0, got %d/%d", unit.Stock, unit.Reserved)
	}
}

func TestInventoryReleaseReturnsHold(t *testing.T) {
	repo := newStubInventoryRepository(domain.Inventory{ID: "inv_1", Stock: 10})
	svc := newTestInventoryService(t, repo)

	if err := svc.Reserve(context.Background(), ReserveStockCommand{OrderID: "ord_1", Quantities: map[string]int{"inv_1": 4}}); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := svc.Release(context.Background(), "ord_1"); err != nil {
		t.Fatalf("release: %v", err)
	}

	unit := repo.units["inv_1"]
	if unit.Stock != 10 || unit.Reserved != 0 {
		t.Fatalf("expected stock 10 reserved 0, got %d/%d", unit.Stock, unit.Reserved)
	}

	if err := svc.Release(context.Background(), "ord_1"); !errors.Is(err, ErrInventoryNotFound) {
		t.Fatalf("expected not found on second release, got %v", err)
	}
}

func TestInventoryAdjustStockRefusesBelowReserved(t *testing.T) {
	repo := newStubInventoryRepository(domain.Inventory{ID: "inv_1", Stock: 10, Reserved: 4})
	svc := newTestInventoryService(t, repo)

	if _, err := svc.AdjustStock(context.Background(), AdjustStockCommand{InventoryID: "inv_1", Stock: 3}); !errors.Is(err, ErrInventoryInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	updated, err := svc.AdjustStock(context.Background(), AdjustStockCommand{InventoryID: "inv_1", Stock: 20})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if updated.Stock != 20 || updated.Reserved != 4 {
		t.Fatalf("expected stock 20 reserved 4, got %d/%d", updated.Stock, updated.Reserved)
	}
}
