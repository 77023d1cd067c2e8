package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/aromelle/api/internal/domain"
	"github.com/aromelle/api/internal/repositories"
)

const defaultCartCurrency = "THB"

var (
	// ErrCartInvalidInput signals a malformed cart command.
	ErrCartInvalidInput = errors.New("cart: invalid input")
	// ErrCartLineNotFound indicates the cart has no line for the inventory unit.
	ErrCartLineNotFound = errors.New("cart: line not found")
	// ErrCartStockExceeded indicates the requested quantity would exceed available stock.
	ErrCartStockExceeded = errors.New("cart: stock exceeded")
	// ErrCartInventoryNotFound indicates the inventory unit does not exist or is not purchasable.
	ErrCartInventoryNotFound = errors.New("cart: inventory not found")
)

// CartServiceDeps bundles dependencies for the cart service.
type CartServiceDeps struct {
	Carts       repositories.CartRepository
	Inventory   repositories.InventoryRepository
	Products    repositories.ProductRepository
	Currency    string
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type cartService struct {
	carts     repositories.CartRepository
	inventory repositories.InventoryRepository
	products  repositories.ProductRepository
	currency  string
	clock     func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
}

// NewCartService wires a CartService over the cart, inventory, and product repositories.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, errors.New("cart service: cart repository is required")
	}
	if deps.Inventory == nil {
		return nil, errors.New("cart service: inventory repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("cart service: product repository is required")
	}

	currency := strings.ToUpper(strings.TrimSpace(deps.Currency))
	if currency == "" {
		currency = defaultCartCurrency
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &cartService{
		carts:     deps.Carts,
		inventory: deps.Inventory,
		products:  deps.Products,
		currency:  currency,
		clock:     func() time.Time { return clock().UTC() },
		newID:     idGen,
		logger:    logger,
	}, nil
}

func (s *cartService) GetCart(ctx context.Context, userID string) (CartView, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return CartView{}, fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return CartView{}, err
	}
	return s.buildView(ctx, cart)
}

// AddItem merges the quantity into the user's line for the inventory unit.
// The merged quantity may never exceed the unit's available stock. The bool
// reports whether the add created a new line.
func (s *cartService) AddItem(ctx context.Context, cmd AddCartItemCommand) (CartView, bool, error) {
	userID := strings.TrimSpace(cmd.UserID)
	inventoryID := strings.TrimSpace(cmd.InventoryID)
	if userID == "" || inventoryID == "" {
		return CartView{}, false, fmt.Errorf("%w: user id and inventory id are required", ErrCartInvalidInput)
	}
	if cmd.Quantity <= 0 {
		return CartView{}, false, fmt.Errorf("%w: quantity must be positive", ErrCartInvalidInput)
	}

	inv, err := s.inventory.FindByID(ctx, inventoryID)
	if err != nil {
		if isNotFound(err) {
			return CartView{}, false, ErrCartInventoryNotFound
		}
		return CartView{}, false, err
	}

	now := s.clock()
	line := domain.CartLine{
		ID:          "cl_" + s.newID(),
		ProductID:   inv.ProductID,
		InventoryID: inv.ID,
		Quantity:    cmd.Quantity,
		Selected:    true,
		AddedAt:     now,
		UpdatedAt:   now,
	}

	cart, created, err := s.carts.UpsertLine(ctx, userID, line)
	if err != nil {
		return CartView{}, false, s.mapStockError(err)
	}

	s.logger(ctx, "cart.item.added", map[string]any{
		"userId":      userID,
		"inventoryId": inventoryID,
		"quantity":    cmd.Quantity,
		"newLine":     created,
	})
	view, err := s.buildView(ctx, cart)
	if err != nil {
		return CartView{}, false, err
	}
	return view, created, nil
}

// SetItemQuantity replaces the line's quantity. Zero and negative values are
// rejected; removal is an explicit operation.
func (s *cartService) SetItemQuantity(ctx context.Context, cmd SetCartQuantityCommand) (CartView, error) {
	userID := strings.TrimSpace(cmd.UserID)
	inventoryID := strings.TrimSpace(cmd.InventoryID)
	if userID == "" || inventoryID == "" {
		return CartView{}, fmt.Errorf("%w: user id and inventory id are required", ErrCartInvalidInput)
	}
	if cmd.Quantity <= 0 {
		return CartView{}, fmt.Errorf("%w: quantity must be positive", ErrCartInvalidInput)
	}

	cart, err := s.carts.SetLineQuantity(ctx, userID, inventoryID, cmd.Quantity, s.clock())
	if err != nil {
		return CartView{}, s.mapStockError(err)
	}
	return s.buildView(ctx, cart)
}

func (s *cartService) SetSelection(ctx context.Context, cmd SetCartSelectionCommand) (CartView, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return CartView{}, fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}
	if len(cmd.InventoryIDs) == 0 {
		return CartView{}, fmt.Errorf("%w: at least one inventory id is required", ErrCartInvalidInput)
	}

	cart, err := s.carts.SetLineSelection(ctx, userID, cmd.InventoryIDs, cmd.Selected, s.clock())
	if err != nil {
		return CartView{}, s.mapStockError(err)
	}
	return s.buildView(ctx, cart)
}

func (s *cartService) RemoveItem(ctx context.Context, cmd RemoveCartItemCommand) (CartView, error) {
	userID := strings.TrimSpace(cmd.UserID)
	inventoryID := strings.TrimSpace(cmd.InventoryID)
	if userID == "" || inventoryID == "" {
		return CartView{}, fmt.Errorf("%w: user id and inventory id are required", ErrCartInvalidInput)
	}

	if err := s.carts.RemoveLine(ctx, userID, inventoryID); err != nil {
		return CartView{}, s.mapStockError(err)
	}
	s.logger(ctx, "cart.item.removed", map[string]any{
		"userId":      userID,
		"inventoryId": inventoryID,
	})
	return s.GetCart(ctx, userID)
}

// buildView joins cart lines with their catalog data and derives the
// estimate over the selected lines. Lines whose inventory has been removed
// from the catalog are omitted from the rendered items but left in place.
func (s *cartService) buildView(ctx context.Context, cart domain.Cart) (CartView, error) {
	view := CartView{Cart: cart}
	estimate := domain.CartEstimate{Currency: s.currency}

	for _, line := range cart.Lines {
		inv, err := s.inventory.FindByID(ctx, line.InventoryID)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return CartView{}, err
		}
		product, err := s.products.FindByID(ctx, inv.ProductID)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return CartView{}, err
		}

		item := CartItemView{
			Line:      line,
			Product:   product,
			Inventory: inv,
			LineTotal: inv.Price * int64(line.Quantity),
		}
		view.Items = append(view.Items, item)

		if line.Selected {
			estimate.SelectedSubtotal += item.LineTotal
			estimate.ItemCount += line.Quantity
		}
	}

	view.Estimate = estimate
	return view, nil
}

func (s *cartService) mapStockError(err error) error {
	if err == nil {
		return nil
	}
	var invErr *repositories.InventoryError
	if errors.As(err, &invErr) {
		switch invErr.Code {
		case repositories.InventoryErrorInsufficientStock:
			return fmt.Errorf("%w: %s", ErrCartStockExceeded, invErr.Message)
		case repositories.InventoryErrorNotFound:
			return fmt.Errorf("%w: %s", ErrCartInventoryNotFound, invErr.Message)
		}
	}
	if isConflict(err) {
		return fmt.Errorf("%w: %v", ErrCartStockExceeded, err)
	}
	if isNotFound(err) {
		return fmt.Errorf("%w: %v", ErrCartLineNotFound, err)
	}
	return err
}
