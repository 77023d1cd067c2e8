package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/aromelle/api/internal/domain"
	pfirestore "github.com/aromelle/api/internal/platform/firestore"
	"github.com/aromelle/api/internal/repositories"
)

const cartCollection = "carts"

// CartRepository persists one cart document per user. Line mutations that
// depend on stock read the inventory document in the same transaction, so a
// quantity can never pass its check against stale stock.
type CartRepository struct {
	base     *pfirestore.BaseRepository[cartDocument]
	units    *pfirestore.BaseRepository[inventoryDocument]
	provider *pfirestore.Provider
}

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	return &CartRepository{
		base:     pfirestore.NewBaseRepository[cartDocument](provider, cartCollection, nil, nil),
		units:    pfirestore.NewBaseRepository[inventoryDocument](provider, inventoryCollection, nil, nil),
		provider: provider,
	}, nil
}

// GetCart returns the user's cart; a missing document is an empty cart.
func (r *CartRepository) GetCart(ctx context.Context, userID string) (domain.Cart, error) {
	if r == nil || r.base == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.Cart{}, errors.New("cart repository: user id is required")
	}

	doc, err := r.base.Get(ctx, uid)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return domain.Cart{UserID: uid}, nil
		}
		return domain.Cart{}, err
	}
	return doc.Data.toDomain(uid), nil
}

// UpsertLine merges the quantity delta into the line for the inventory unit,
// creating the line when absent. The merged quantity is checked against the
// unit's available stock inside the transaction.
func (r *CartRepository) UpsertLine(ctx context.Context, userID string, line domain.CartLine) (domain.Cart, bool, error) {
	if r == nil || r.provider == nil {
		return domain.Cart{}, false, errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.Cart{}, false, errors.New("cart repository: user id is required")
	}
	invID := strings.TrimSpace(line.InventoryID)
	if invID == "" {
		return domain.Cart{}, false, errors.New("cart repository: inventory id is required")
	}
	if line.Quantity <= 0 {
		return domain.Cart{}, false, errors.New("cart repository: quantity must be > 0")
	}
	now := line.UpdatedAt.UTC()
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var (
		saved   domain.Cart
		created bool
	)
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		unit, err := r.readUnit(ctx, tx, invID)
		if err != nil {
			return err
		}

		cartRef, doc, err := r.readCart(ctx, tx, uid)
		if err != nil {
			return err
		}

		idx := doc.lineIndex(invID)
		requested := line.Quantity
		if idx >= 0 {
			requested += doc.Lines[idx].Quantity
		}
		if requested > unit.Stock-unit.Reserved {
			return repositories.NewInventoryError(repositories.InventoryErrorInsufficientStock, fmt.Sprintf("insufficient stock for %s", invID), nil)
		}

		if idx >= 0 {
			doc.Lines[idx].Quantity = requested
			doc.Lines[idx].UpdatedAt = now
		} else {
			created = true
			doc.Lines = append(doc.Lines, cartLineDocument{
				ID:          strings.TrimSpace(line.ID),
				ProductID:   strings.TrimSpace(line.ProductID),
				InventoryID: invID,
				Quantity:    requested,
				Selected:    true,
				AddedAt:     now,
				UpdatedAt:   now,
			})
		}
		doc.UpdatedAt = now
		if err := tx.Set(cartRef, doc); err != nil {
			return err
		}
		saved = doc.toDomain(uid)
		return nil
	})
	if err != nil {
		return domain.Cart{}, false, wrapInventoryError("cart.upsertLine", err)
	}
	return saved, created, nil
}

// SetLineQuantity replaces the line's quantity under the same transactional
// stock check. The line must already exist.
func (r *CartRepository) SetLineQuantity(ctx context.Context, userID string, inventoryID string, quantity int, now time.Time) (domain.Cart, error) {
	if r == nil || r.provider == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	invID := strings.TrimSpace(inventoryID)
	if uid == "" || invID == "" {
		return domain.Cart{}, errors.New("cart repository: user id and inventory id are required")
	}
	if quantity <= 0 {
		return domain.Cart{}, errors.New("cart repository: quantity must be > 0")
	}
	ts := now.UTC()

	var saved domain.Cart
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		unit, err := r.readUnit(ctx, tx, invID)
		if err != nil {
			return err
		}
		cartRef, doc, err := r.readCart(ctx, tx, uid)
		if err != nil {
			return err
		}
		idx := doc.lineIndex(invID)
		if idx < 0 {
			return pfirestore.WrapError("cart.setLineQuantity", status.Error(codes.NotFound, "cart line not found"))
		}
		if quantity > unit.Stock-unit.Reserved {
			return repositories.NewInventoryError(repositories.InventoryErrorInsufficientStock, fmt.Sprintf("insufficient stock for %s", invID), nil)
		}
		doc.Lines[idx].Quantity = quantity
		doc.Lines[idx].UpdatedAt = ts
		doc.UpdatedAt = ts
		if err := tx.Set(cartRef, doc); err != nil {
			return err
		}
		saved = doc.toDomain(uid)
		return nil
	})
	if err != nil {
		return domain.Cart{}, wrapInventoryError("cart.setLineQuantity", err)
	}
	return saved, nil
}

// SetLineSelection flips the checkout-selection flag on the named lines.
func (r *CartRepository) SetLineSelection(ctx context.Context, userID string, inventoryIDs []string, selected bool, now time.Time) (domain.Cart, error) {
	if r == nil || r.provider == nil {
		return domain.Cart{}, errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.Cart{}, errors.New("cart repository: user id is required")
	}
	wanted := make(map[string]struct{}, len(inventoryIDs))
	for _, id := range inventoryIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			wanted[trimmed] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return domain.Cart{}, errors.New("cart repository: at least one inventory id is required")
	}
	ts := now.UTC()

	var saved domain.Cart
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		cartRef, doc, err := r.readCart(ctx, tx, uid)
		if err != nil {
			return err
		}
		matched := 0
		for i := range doc.Lines {
			if _, ok := wanted[doc.Lines[i].InventoryID]; !ok {
				continue
			}
			doc.Lines[i].Selected = selected
			doc.Lines[i].UpdatedAt = ts
			matched++
		}
		if matched != len(wanted) {
			return pfirestore.WrapError("cart.setLineSelection", status.Error(codes.NotFound, "cart line not found"))
		}
		doc.UpdatedAt = ts
		if err := tx.Set(cartRef, doc); err != nil {
			return err
		}
		saved = doc.toDomain(uid)
		return nil
	})
	if err != nil {
		return domain.Cart{}, err
	}
	return saved, nil
}

// RemoveLine deletes the line for the inventory unit; missing lines are a
// not-found error.
func (r *CartRepository) RemoveLine(ctx context.Context, userID string, inventoryID string) error {
	return r.removeLines(ctx, userID, []string{inventoryID}, true)
}

// RemoveLines deletes any of the named lines that exist. Used to clear
// purchased lines after checkout, where absence is not an error.
func (r *CartRepository) RemoveLines(ctx context.Context, userID string, inventoryIDs []string) error {
	return r.removeLines(ctx, userID, inventoryIDs, false)
}

func (r *CartRepository) removeLines(ctx context.Context, userID string, inventoryIDs []string, strict bool) error {
	if r == nil || r.provider == nil {
		return errors.New("cart repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return errors.New("cart repository: user id is required")
	}
	wanted := make(map[string]struct{}, len(inventoryIDs))
	for _, id := range inventoryIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			wanted[trimmed] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return errors.New("cart repository: at least one inventory id is required")
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		cartRef, doc, err := r.readCart(ctx, tx, uid)
		if err != nil {
			return err
		}
		kept := doc.Lines[:0]
		removed := 0
		for _, line := range doc.Lines {
			if _, ok := wanted[line.InventoryID]; ok {
				removed++
				continue
			}
			kept = append(kept, line)
		}
		if strict && removed == 0 {
			return pfirestore.WrapError("cart.removeLine", status.Error(codes.NotFound, "cart line not found"))
		}
		doc.Lines = kept
		doc.UpdatedAt = time.Now().UTC()
		return tx.Set(cartRef, doc)
	})
	return err
}

func (r *CartRepository) readCart(ctx context.Context, tx *firestore.Transaction, userID string) (*firestore.DocumentRef, cartDocument, error) {
	cartRef, err := r.base.DocumentRef(ctx, userID)
	if err != nil {
		return nil, cartDocument{}, err
	}
	snap, err := tx.Get(cartRef)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return cartRef, cartDocument{}, nil
		}
		return nil, cartDocument{}, err
	}
	var doc cartDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, cartDocument{}, fmt.Errorf("decode cart %s: %w", userID, err)
	}
	return cartRef, doc, nil
}

func (r *CartRepository) readUnit(ctx context.Context, tx *firestore.Transaction, inventoryID string) (inventoryDocument, error) {
	unitRef, err := r.units.DocumentRef(ctx, inventoryID)
	if err != nil {
		return inventoryDocument{}, err
	}
	snap, err := tx.Get(unitRef)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return inventoryDocument{}, repositories.NewInventoryError(repositories.InventoryErrorNotFound, fmt.Sprintf("inventory %s not found", inventoryID), err)
		}
		return inventoryDocument{}, err
	}
	var doc inventoryDocument
	if err := snap.DataTo(&doc); err != nil {
		return inventoryDocument{}, fmt.Errorf("decode inventory %s: %w", inventoryID, err)
	}
	return doc, nil
}

// Helper structures ---------------------------------------------------------

type cartDocument struct {
	Lines     []cartLineDocument `firestore:"lines"`
	UpdatedAt time.Time          `firestore:"updatedAt"`
}

func (d cartDocument) lineIndex(inventoryID string) int {
	for i, line := range d.Lines {
		if line.InventoryID == inventoryID {
			return i
		}
	}
	return -1
}

func (d cartDocument) toDomain(userID string) domain.Cart {
	lines := make([]domain.CartLine, len(d.Lines))
	for i, line := range d.Lines {
		lines[i] = line.toDomain()
	}
	return domain.Cart{
		UserID:    userID,
		Lines:     lines,
		UpdatedAt: d.UpdatedAt,
	}
}

type cartLineDocument struct {
	ID          string    `firestore:"id,omitempty"`
	ProductID   string    `firestore:"productId"`
	InventoryID string    `firestore:"inventoryId"`
	Quantity    int       `firestore:"qty"`
	Selected    bool      `firestore:"selected"`
	AddedAt     time.Time `firestore:"addedAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func (d cartLineDocument) toDomain() domain.CartLine {
	return domain.CartLine{
		ID:          d.ID,
		ProductID:   d.ProductID,
		InventoryID: d.InventoryID,
		Quantity:    d.Quantity,
		Selected:    d.Selected,
		AddedAt:     d.AddedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// Ensure interface compliance.
var _ repositories.CartRepository = (*CartRepository)(nil)
