package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/aromelle/api/internal/domain"
	pfirestore "github.com/aromelle/api/internal/platform/firestore"
	"github.com/aromelle/api/internal/repositories"
)

const (
	inventoryCollection  = "inventory"
	stockHoldsCollection = "stockHolds"

	holdStatusHeld      = "held"
	holdStatusCommitted = "committed"
	holdStatusReleased  = "released"
)

// InventoryRepository stores purchasable units and the stock holds created
// by checkouts. Holds are keyed by order id so reserve/commit/release are
// naturally idempotent per order.
type InventoryRepository struct {
	provider *pfirestore.Provider
	units    *pfirestore.BaseRepository[inventoryDocument]
	holds    *pfirestore.BaseRepository[stockHoldDocument]
}

// NewInventoryRepository constructs a Firestore-backed inventory repository.
func NewInventoryRepository(provider *pfirestore.Provider) (*InventoryRepository, error) {
	if provider == nil {
		return nil, errors.New("inventory repository requires firestore provider")
	}
	return &InventoryRepository{
		provider: provider,
		units:    pfirestore.NewBaseRepository[inventoryDocument](provider, inventoryCollection, nil, nil),
		holds:    pfirestore.NewBaseRepository[stockHoldDocument](provider, stockHoldsCollection, nil, nil),
	}, nil
}

func (r *InventoryRepository) Insert(ctx context.Context, inv domain.Inventory) error {
	if r == nil || r.units == nil {
		return errors.New("inventory repository not initialised")
	}
	ref, err := r.units.DocumentRef(ctx, inv.ID)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, newInventoryDocument(inv)); err != nil {
		return pfirestore.WrapError("inventory.insert", err)
	}
	return nil
}

func (r *InventoryRepository) Update(ctx context.Context, inv domain.Inventory) error {
	if r == nil || r.provider == nil {
		return errors.New("inventory repository not initialised")
	}
	// Reserved counts are owned by the hold lifecycle; admin edits replace
	// everything else and may reset stock explicitly.
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.units.DocumentRef(ctx, inv.ID)
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var existing inventoryDocument
		if err := snap.DataTo(&existing); err != nil {
			return fmt.Errorf("decode inventory %s: %w", snap.Ref.ID, err)
		}
		doc := newInventoryDocument(inv)
		doc.Reserved = existing.Reserved
		doc.CreatedAt = existing.CreatedAt
		doc.recalculate()
		return tx.Set(ref, doc)
	})
	if err != nil {
		return pfirestore.WrapError("inventory.update", err)
	}
	return nil
}

func (r *InventoryRepository) Delete(ctx context.Context, inventoryID string) error {
	if r == nil || r.units == nil {
		return errors.New("inventory repository not initialised")
	}
	ref, err := r.units.DocumentRef(ctx, inventoryID)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		return pfirestore.WrapError("inventory.delete", err)
	}
	return nil
}

func (r *InventoryRepository) FindByID(ctx context.Context, inventoryID string) (domain.Inventory, error) {
	if r == nil || r.units == nil {
		return domain.Inventory{}, errors.New("inventory repository not initialised")
	}
	doc, err := r.units.Get(ctx, inventoryID)
	if err != nil {
		return domain.Inventory{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

func (r *InventoryRepository) ListByProduct(ctx context.Context, productID string) ([]domain.Inventory, error) {
	if r == nil || r.units == nil {
		return nil, errors.New("inventory repository not initialised")
	}
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return nil, errors.New("inventory repository: product id is required")
	}
	docs, err := r.units.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("productId", "==", pid).OrderBy("sizeMl", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}
	units := make([]domain.Inventory, 0, len(docs))
	for _, doc := range docs {
		units = append(units, doc.Data.toDomain(doc.ID))
	}
	return units, nil
}

// Reserve atomically holds the requested quantities against available stock.
// Either every unit has enough availability and the hold document is
// created, or the transaction fails and nothing is held.
func (r *InventoryRepository) Reserve(ctx context.Context, req repositories.InventoryReserveRequest) error {
	if r == nil || r.provider == nil {
		return errors.New("inventory repository not initialised")
	}
	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		return errors.New("inventory reserve: order id is required")
	}
	if len(req.Quantities) == 0 {
		return errors.New("inventory reserve: at least one quantity is required")
	}
	now := req.Now.UTC()

	// Deterministic iteration keeps transaction retries stable.
	ids := make([]string, 0, len(req.Quantities))
	for id := range req.Quantities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		holdRef, err := r.holds.DocumentRef(ctx, orderID)
		if err != nil {
			return err
		}
		if _, err := tx.Get(holdRef); err == nil {
			return repositories.NewInventoryError(repositories.InventoryErrorInvalidHoldState, fmt.Sprintf("hold for order %s already exists", orderID), nil)
		} else if status.Code(err) != codes.NotFound {
			return err
		}

		// All reads must precede the first write inside a transaction, so
		// validate every unit before emitting any update.
		refs := make([]*firestore.DocumentRef, 0, len(ids))
		docs := make([]inventoryDocument, 0, len(ids))
		lines := make([]stockHoldLine, 0, len(ids))
		for _, id := range ids {
			qty := req.Quantities[id]
			if qty <= 0 {
				return repositories.NewInventoryError(repositories.InventoryErrorUnknown, fmt.Sprintf("inventory reserve: quantity for %s must be > 0", id), nil)
			}
			unitRef, err := r.units.DocumentRef(ctx, id)
			if err != nil {
				return err
			}
			snap, err := tx.Get(unitRef)
			if err != nil {
				if status.Code(err) == codes.NotFound {
					return repositories.NewInventoryError(repositories.InventoryErrorNotFound, fmt.Sprintf("inventory %s not found", id), err)
				}
				return err
			}
			var doc inventoryDocument
			if err := snap.DataTo(&doc); err != nil {
				return fmt.Errorf("decode inventory %s: %w", id, err)
			}
			if doc.Stock-doc.Reserved < qty {
				return repositories.NewInventoryError(repositories.InventoryErrorInsufficientStock, fmt.Sprintf("insufficient stock for %s", id), nil)
			}
			doc.Reserved += qty
			doc.UpdatedAt = now
			doc.recalculate()
			refs = append(refs, unitRef)
			docs = append(docs, doc)
			lines = append(lines, stockHoldLine{InventoryID: id, Quantity: qty})
		}

		for i, unitRef := range refs {
			if err := tx.Set(unitRef, docs[i]); err != nil {
				return err
			}
		}

		hold := stockHoldDocument{
			Status:    holdStatusHeld,
			Lines:     lines,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.Create(holdRef, hold)
	})
	if err != nil {
		return wrapInventoryError("inventory.reserve", err)
	}
	return nil
}

// Commit converts the order's hold into a stock decrement.
func (r *InventoryRepository) Commit(ctx context.Context, orderID string, now time.Time) error {
	return r.settleHold(ctx, "inventory.commit", orderID, now, true)
}

// Release returns the order's hold to availability.
func (r *InventoryRepository) Release(ctx context.Context, orderID string, now time.Time) error {
	return r.settleHold(ctx, "inventory.release", orderID, now, false)
}

func (r *InventoryRepository) settleHold(ctx context.Context, op string, orderID string, now time.Time, commit bool) error {
	if r == nil || r.provider == nil {
		return errors.New("inventory repository not initialised")
	}
	id := strings.TrimSpace(orderID)
	if id == "" {
		return errors.New("inventory: order id is required")
	}
	ts := now.UTC()

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		holdRef, err := r.holds.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		snap, err := tx.Get(holdRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return repositories.NewInventoryError(repositories.InventoryErrorHoldNotFound, fmt.Sprintf("hold for order %s not found", id), err)
			}
			return err
		}
		var hold stockHoldDocument
		if err := snap.DataTo(&hold); err != nil {
			return fmt.Errorf("decode stock hold %s: %w", id, err)
		}
		if hold.Status != holdStatusHeld {
			return repositories.NewInventoryError(repositories.InventoryErrorInvalidHoldState, fmt.Sprintf("hold for order %s is %s", id, hold.Status), nil)
		}

		// Read every unit before the first write; the client forbids reads
		// once the transaction has buffered writes.
		refs := make([]*firestore.DocumentRef, 0, len(hold.Lines))
		docs := make([]inventoryDocument, 0, len(hold.Lines))
		for _, line := range hold.Lines {
			unitRef, err := r.units.DocumentRef(ctx, line.InventoryID)
			if err != nil {
				return err
			}
			unitSnap, err := tx.Get(unitRef)
			if err != nil {
				if status.Code(err) == codes.NotFound {
					return repositories.NewInventoryError(repositories.InventoryErrorNotFound, fmt.Sprintf("inventory %s not found", line.InventoryID), err)
				}
				return err
			}
			var doc inventoryDocument
			if err := unitSnap.DataTo(&doc); err != nil {
				return fmt.Errorf("decode inventory %s: %w", line.InventoryID, err)
			}
			if doc.Reserved < line.Quantity {
				return repositories.NewInventoryError(repositories.InventoryErrorInvalidHoldState, fmt.Sprintf("reserved count for %s is below hold", line.InventoryID), nil)
			}
			doc.Reserved -= line.Quantity
			if commit {
				if doc.Stock < line.Quantity {
					return repositories.NewInventoryError(repositories.InventoryErrorInvalidHoldState, fmt.Sprintf("stock for %s cannot drop below zero", line.InventoryID), nil)
				}
				doc.Stock -= line.Quantity
			}
			doc.UpdatedAt = ts
			doc.recalculate()
			refs = append(refs, unitRef)
			docs = append(docs, doc)
		}

		for i, unitRef := range refs {
			if err := tx.Set(unitRef, docs[i]); err != nil {
				return err
			}
		}

		if commit {
			hold.Status = holdStatusCommitted
			hold.CommittedAt = &ts
		} else {
			hold.Status = holdStatusReleased
			hold.ReleasedAt = &ts
		}
		hold.UpdatedAt = ts
		return tx.Set(holdRef, hold)
	})
	if err != nil {
		return wrapInventoryError(op, err)
	}
	return nil
}

// Helper structures ---------------------------------------------------------

type inventoryDocument struct {
	ProductID string    `firestore:"productId"`
	SKU       string    `firestore:"sku"`
	SizeML    int       `firestore:"sizeMl"`
	Price     int64     `firestore:"price"`
	Currency  string    `firestore:"currency"`
	Stock     int       `firestore:"stock"`
	Reserved  int       `firestore:"reserved"`
	Available int       `firestore:"available"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func (d *inventoryDocument) recalculate() {
	d.Available = d.Stock - d.Reserved
}

func newInventoryDocument(inv domain.Inventory) inventoryDocument {
	doc := inventoryDocument{
		ProductID: strings.TrimSpace(inv.ProductID),
		SKU:       strings.TrimSpace(inv.SKU),
		SizeML:    inv.SizeML,
		Price:     inv.Price,
		Currency:  strings.ToLower(strings.TrimSpace(inv.Currency)),
		Stock:     inv.Stock,
		Reserved:  inv.Reserved,
		CreatedAt: inv.CreatedAt.UTC(),
		UpdatedAt: inv.UpdatedAt.UTC(),
	}
	doc.recalculate()
	return doc
}

func (d inventoryDocument) toDomain(id string) domain.Inventory {
	return domain.Inventory{
		ID:        id,
		ProductID: d.ProductID,
		SKU:       d.SKU,
		SizeML:    d.SizeML,
		Price:     d.Price,
		Currency:  d.Currency,
		Stock:     d.Stock,
		Reserved:  d.Reserved,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type stockHoldDocument struct {
	Status      string          `firestore:"status"`
	Lines       []stockHoldLine `firestore:"lines"`
	CommittedAt *time.Time      `firestore:"committedAt,omitempty"`
	ReleasedAt  *time.Time      `firestore:"releasedAt,omitempty"`
	CreatedAt   time.Time       `firestore:"createdAt"`
	UpdatedAt   time.Time       `firestore:"updatedAt"`
}

type stockHoldLine struct {
	InventoryID string `firestore:"inventoryId"`
	Quantity    int    `firestore:"qty"`
}

func wrapInventoryError(op string, err error) error {
	if err == nil {
		return nil
	}
	var invErr *repositories.InventoryError
	if errors.As(err, &invErr) {
		if invErr.Op == "" {
			invErr.Op = op
		}
		return invErr
	}
	return pfirestore.WrapError(op, err)
}

// Ensure interface compliance.
var _ repositories.InventoryRepository = (*InventoryRepository)(nil)
