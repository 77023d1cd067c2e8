package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aromelle/api/internal/repositories"
)

var (
	// ErrInventoryInvalidInput signals the caller provided invalid arguments.
	ErrInventoryInvalidInput = errors.New("inventory: invalid input")
	// ErrInventoryInsufficientStock indicates the requested quantity exceeds availability.
	ErrInventoryInsufficientStock = errors.New("inventory: insufficient stock")
	// ErrInventoryNotFound indicates the inventory unit or its hold could not be located.
	ErrInventoryNotFound = errors.New("inventory: not found")
	// ErrInventoryInvalidState indicates the stock hold cannot transition from its current state.
	ErrInventoryInvalidState = errors.New("inventory: hold state invalid")
)

// InventoryServiceDeps bundles the collaborators required to construct an inventory service.
type InventoryServiceDeps struct {
	Inventory repositories.InventoryRepository
	Clock     func() time.Time
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

type inventoryService struct {
	repo   repositories.InventoryRepository
	clock  func() time.Time
	logger func(context.Context, string, map[string]any)
}

// NewInventoryService wires dependencies into a concrete InventoryService implementation.
func NewInventoryService(deps InventoryServiceDeps) (InventoryService, error) {
	if deps.Inventory == nil {
		return nil, errors.New("inventory service: inventory repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &inventoryService{
		repo: deps.Inventory,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// Reserve holds the requested quantities for the order. The hold is atomic
// across units: any shortage fails the whole request without holding stock.
func (s *inventoryService) Reserve(ctx context.Context, cmd ReserveStockCommand) error {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return fmt.Errorf("%w: order id is required", ErrInventoryInvalidInput)
	}
	if len(cmd.Quantities) == 0 {
		return fmt.Errorf("%w: at least one quantity is required", ErrInventoryInvalidInput)
	}
	quantities := make(map[string]int, len(cmd.Quantities))
	for inventoryID, qty := range cmd.Quantities {
		inventoryID = strings.TrimSpace(inventoryID)
		if inventoryID == "" {
			return fmt.Errorf("%w: inventory id is required", ErrInventoryInvalidInput)
		}
		if qty <= 0 {
			return fmt.Errorf("%w: quantity for %s must be positive", ErrInventoryInvalidInput, inventoryID)
		}
		quantities[inventoryID] = qty
	}

	err := s.repo.Reserve(ctx, repositories.InventoryReserveRequest{
		OrderID:    orderID,
		Quantities: quantities,
		Now:        s.clock(),
	})
	if err != nil {
		return s.mapRepositoryError(err)
	}

	s.logger(ctx, "inventory.reserved", map[string]any{
		"orderId": orderID,
		"units":   len(quantities),
	})
	return nil
}

// Commit converts the order's hold into stock decrements.
func (s *inventoryService) Commit(ctx context.Context, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return fmt.Errorf("%w: order id is required", ErrInventoryInvalidInput)
	}
	if err := s.repo.Commit(ctx, orderID, s.clock()); err != nil {
		return s.mapRepositoryError(err)
	}
	s.logger(ctx, "inventory.committed", map[string]any{"orderId": orderID})
	return nil
}

// Release returns the order's hold to availability.
func (s *inventoryService) Release(ctx context.Context, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return fmt.Errorf("%w: order id is required", ErrInventoryInvalidInput)
	}
	if err := s.repo.Release(ctx, orderID, s.clock()); err != nil {
		return s.mapRepositoryError(err)
	}
	s.logger(ctx, "inventory.released", map[string]any{"orderId": orderID})
	return nil
}

// AdjustStock sets the on-hand count of an inventory unit. Reserved holds are
// untouched; the new count must cover them.
func (s *inventoryService) AdjustStock(ctx context.Context, cmd AdjustStockCommand) (Inventory, error) {
	inventoryID := strings.TrimSpace(cmd.InventoryID)
	if inventoryID == "" {
		return Inventory{}, fmt.Errorf("%w: inventory id is required", ErrInventoryInvalidInput)
	}
	if cmd.Stock < 0 {
		return Inventory{}, fmt.Errorf("%w: stock must be >= 0", ErrInventoryInvalidInput)
	}

	inv, err := s.repo.FindByID(ctx, inventoryID)
	if err != nil {
		return Inventory{}, s.mapRepositoryError(err)
	}
	if cmd.Stock < inv.Reserved {
		return Inventory{}, fmt.Errorf("%w: stock %d is below reserved %d", ErrInventoryInvalidInput, cmd.Stock, inv.Reserved)
	}

	inv.Stock = cmd.Stock
	inv.UpdatedAt = s.clock()
	if err := s.repo.Update(ctx, inv); err != nil {
		return Inventory{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "inventory.adjusted", map[string]any{
		"inventoryId": inventoryID,
		"stock":       cmd.Stock,
		"actorId":     cmd.ActorID,
	})
	return inv, nil
}

func (s *inventoryService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var invErr *repositories.InventoryError
	if errors.As(err, &invErr) {
		switch invErr.Code {
		case repositories.InventoryErrorInsufficientStock:
			return fmt.Errorf("%w: %s", ErrInventoryInsufficientStock, invErr.Message)
		case repositories.InventoryErrorNotFound, repositories.InventoryErrorHoldNotFound:
			return fmt.Errorf("%w: %s", ErrInventoryNotFound, invErr.Message)
		case repositories.InventoryErrorInvalidHoldState:
			return fmt.Errorf("%w: %s", ErrInventoryInvalidState, invErr.Message)
		}
	}
	if isNotFound(err) {
		return fmt.Errorf("%w: %v", ErrInventoryNotFound, err)
	}
	return err
}
