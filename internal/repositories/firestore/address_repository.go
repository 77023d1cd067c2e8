package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/aromelle/api/internal/domain"
	pfirestore "github.com/aromelle/api/internal/platform/firestore"
	"github.com/aromelle/api/internal/repositories"
)

const addressCollectionPattern = "users/%s/addresses"

// AddressRepository persists shipping addresses as a per-user subcollection.
type AddressRepository struct {
	provider *pfirestore.Provider
}

// NewAddressRepository constructs a Firestore-backed address repository.
func NewAddressRepository(provider *pfirestore.Provider) (*AddressRepository, error) {
	if provider == nil {
		return nil, errors.New("address repository requires firestore provider")
	}
	return &AddressRepository{provider: provider}, nil
}

// List returns all addresses for the specified user ordered by most recent update.
func (r *AddressRepository) List(ctx context.Context, userID string) ([]domain.Address, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return nil, err
	}

	iter := coll.OrderBy("updatedAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var results []domain.Address
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("addresses.list", err)
		}
		addr, err := decodeAddressDocument(userID, snap)
		if err != nil {
			return nil, err
		}
		results = append(results, addr)
	}
	return results, nil
}

// Get fetches a single address owned by the user.
func (r *AddressRepository) Get(ctx context.Context, userID string, addressID string) (domain.Address, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return domain.Address{}, err
	}
	id := strings.TrimSpace(addressID)
	if id == "" {
		return domain.Address{}, errors.New("address repository: address id is required")
	}
	snap, err := coll.Doc(id).Get(ctx)
	if err != nil {
		return domain.Address{}, pfirestore.WrapError("addresses.get", err)
	}
	return decodeAddressDocument(userID, snap)
}

// Insert creates a new address. When the address is flagged default the
// previous default is cleared in the same transaction.
func (r *AddressRepository) Insert(ctx context.Context, addr domain.Address) (domain.Address, error) {
	coll, err := r.collection(ctx, addr.UserID)
	if err != nil {
		return domain.Address{}, err
	}

	docRef := coll.NewDoc()
	if id := strings.TrimSpace(addr.ID); id != "" {
		docRef = coll.Doc(id)
	}

	doc := newAddressDocument(addr)
	var saved domain.Address
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if doc.IsDefault {
			if err := r.clearDefault(tx, coll, docRef.ID); err != nil {
				return err
			}
		}
		if err := tx.Create(docRef, doc); err != nil {
			return err
		}
		saved = doc.toDomain(addr.UserID, docRef.ID)
		return nil
	})
	if err != nil {
		return domain.Address{}, pfirestore.WrapError("addresses.insert", err)
	}
	return saved, nil
}

// Update replaces an existing address document, preserving creation time and
// keeping the default singleton when the update flags the address default.
func (r *AddressRepository) Update(ctx context.Context, addr domain.Address) (domain.Address, error) {
	coll, err := r.collection(ctx, addr.UserID)
	if err != nil {
		return domain.Address{}, err
	}
	id := strings.TrimSpace(addr.ID)
	if id == "" {
		return domain.Address{}, errors.New("address repository: address id is required")
	}

	var saved domain.Address
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docRef := coll.Doc(id)
		snap, err := tx.Get(docRef)
		if err != nil {
			return err
		}
		var existing addressDocument
		if err := snap.DataTo(&existing); err != nil {
			return fmt.Errorf("decode address %s: %w", snap.Ref.ID, err)
		}

		doc := newAddressDocument(addr)
		doc.CreatedAt = existing.CreatedAt
		if doc.IsDefault && !existing.IsDefault {
			if err := r.clearDefault(tx, coll, docRef.ID); err != nil {
				return err
			}
		}
		if err := tx.Set(docRef, doc); err != nil {
			return err
		}
		saved = doc.toDomain(addr.UserID, docRef.ID)
		return nil
	})
	if err != nil {
		return domain.Address{}, pfirestore.WrapError("addresses.update", err)
	}
	return saved, nil
}

// Delete removes the specified address document.
func (r *AddressRepository) Delete(ctx context.Context, userID string, addressID string) error {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(addressID)
	if id == "" {
		return errors.New("address repository: address id is required")
	}
	if _, err := coll.Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return pfirestore.WrapError("addresses.delete", err)
	}
	return nil
}

// HasAny reports whether the user owns at least one address.
func (r *AddressRepository) HasAny(ctx context.Context, userID string) (bool, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return false, err
	}
	iter := coll.Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil {
		if errors.Is(err, iterator.Done) {
			return false, nil
		}
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, pfirestore.WrapError("addresses.hasAny", err)
	}
	return true, nil
}

// SetDefault marks the address default and unsets every other default for
// the user inside one transaction, so exactly one default survives.
func (r *AddressRepository) SetDefault(ctx context.Context, userID string, addressID string, now time.Time) (domain.Address, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return domain.Address{}, err
	}
	id := strings.TrimSpace(addressID)
	if id == "" {
		return domain.Address{}, errors.New("address repository: address id is required")
	}

	var saved domain.Address
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docRef := coll.Doc(id)
		snap, err := tx.Get(docRef)
		if err != nil {
			return err
		}
		var doc addressDocument
		if err := snap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode address %s: %w", snap.Ref.ID, err)
		}

		if err := r.clearDefault(tx, coll, docRef.ID); err != nil {
			return err
		}

		doc.IsDefault = true
		doc.UpdatedAt = now.UTC()
		if err := tx.Set(docRef, doc); err != nil {
			return err
		}
		saved = doc.toDomain(userID, docRef.ID)
		return nil
	})
	if err != nil {
		return domain.Address{}, pfirestore.WrapError("addresses.setDefault", err)
	}
	return saved, nil
}

func (r *AddressRepository) collection(ctx context.Context, userID string) (*firestore.CollectionRef, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("address repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, errors.New("address repository: user id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(fmt.Sprintf(addressCollectionPattern, uid)), nil
}

func (r *AddressRepository) clearDefault(tx *firestore.Transaction, coll *firestore.CollectionRef, currentID string) error {
	query := coll.Where("isDefault", "==", true).Limit(10)
	snaps, err := tx.Documents(query).GetAll()
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return err
	}
	for _, snap := range snaps {
		if snap.Ref.ID == currentID {
			continue
		}
		if err := tx.Update(snap.Ref, []firestore.Update{{Path: "isDefault", Value: false}}); err != nil {
			return err
		}
	}
	return nil
}

func decodeAddressDocument(userID string, snapshot *firestore.DocumentSnapshot) (domain.Address, error) {
	var doc addressDocument
	if err := snapshot.DataTo(&doc); err != nil {
		return domain.Address{}, fmt.Errorf("decode address %s: %w", snapshot.Ref.ID, err)
	}
	return doc.toDomain(userID, snapshot.Ref.ID), nil
}

type addressDocument struct {
	Recipient  string    `firestore:"recipient"`
	Phone      string    `firestore:"phone"`
	Line1      string    `firestore:"line1"`
	Line2      string    `firestore:"line2,omitempty"`
	District   string    `firestore:"district"`
	Province   string    `firestore:"province"`
	PostalCode string    `firestore:"postalCode"`
	IsDefault  bool      `firestore:"isDefault"`
	CreatedAt  time.Time `firestore:"createdAt"`
	UpdatedAt  time.Time `firestore:"updatedAt"`
}

func newAddressDocument(addr domain.Address) addressDocument {
	return addressDocument{
		Recipient:  strings.TrimSpace(addr.Recipient),
		Phone:      strings.TrimSpace(addr.Phone),
		Line1:      strings.TrimSpace(addr.Line1),
		Line2:      strings.TrimSpace(addr.Line2),
		District:   strings.TrimSpace(addr.District),
		Province:   strings.TrimSpace(addr.Province),
		PostalCode: strings.TrimSpace(addr.PostalCode),
		IsDefault:  addr.IsDefault,
		CreatedAt:  addr.CreatedAt.UTC(),
		UpdatedAt:  addr.UpdatedAt.UTC(),
	}
}

func (d addressDocument) toDomain(userID, id string) domain.Address {
	return domain.Address{
		ID:         id,
		UserID:     userID,
		Recipient:  d.Recipient,
		Phone:      d.Phone,
		Line1:      d.Line1,
		Line2:      d.Line2,
		District:   d.District,
		Province:   d.Province,
		PostalCode: d.PostalCode,
		IsDefault:  d.IsDefault,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

// Ensure interface compliance.
var _ repositories.AddressRepository = (*AddressRepository)(nil)
