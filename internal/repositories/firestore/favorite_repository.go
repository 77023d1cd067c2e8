package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/aromelle/api/internal/domain"
	pfirestore "github.com/aromelle/api/internal/platform/firestore"
	"github.com/aromelle/api/internal/repositories"
)

const favoriteCollectionPattern = "users/%s/favorites"

// FavoriteRepository persists product bookmarks per user, keyed by product id
// so a product can be favorited at most once.
type FavoriteRepository struct {
	provider *pfirestore.Provider
}

// NewFavoriteRepository constructs a Firestore-backed favorite repository.
func NewFavoriteRepository(provider *pfirestore.Provider) (*FavoriteRepository, error) {
	if provider == nil {
		return nil, errors.New("favorite repository requires firestore provider")
	}
	return &FavoriteRepository{provider: provider}, nil
}

// List returns favorites ordered by most recent addition.
func (r *FavoriteRepository) List(ctx context.Context, userID string, pager domain.Pagination) (domain.CursorPage[domain.Favorite], error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return domain.CursorPage[domain.Favorite]{}, err
	}

	pageSize := pager.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}

	query := coll.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc).Limit(pageSize + 1)
	if token := strings.TrimSpace(pager.PageToken); token != "" {
		createdAt, id, err := decodePageToken(token)
		if err != nil {
			return domain.CursorPage[domain.Favorite]{}, fmt.Errorf("favorites.list: invalid page token: %w", err)
		}
		query = query.StartAfter(createdAt, id)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var favorites []domain.Favorite
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.Favorite]{}, pfirestore.WrapError("favorites.list", err)
		}
		var doc favoriteDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.CursorPage[domain.Favorite]{}, fmt.Errorf("decode favorite %s: %w", snap.Ref.ID, err)
		}
		favorites = append(favorites, doc.toDomain(userID, snap.Ref.ID))
	}

	var nextToken string
	if len(favorites) > pageSize {
		favorites = favorites[:pageSize]
		last := favorites[len(favorites)-1]
		encoded, err := encodePageToken(last.CreatedAt, last.ProductID)
		if err != nil {
			return domain.CursorPage[domain.Favorite]{}, err
		}
		nextToken = encoded
	}

	return domain.CursorPage[domain.Favorite]{Items: favorites, NextPageToken: nextToken}, nil
}

// Find returns the favorite for (user, product).
func (r *FavoriteRepository) Find(ctx context.Context, userID string, productID string) (domain.Favorite, error) {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return domain.Favorite{}, err
	}
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return domain.Favorite{}, errors.New("favorite repository: product id is required")
	}
	snap, err := coll.Doc(pid).Get(ctx)
	if err != nil {
		return domain.Favorite{}, pfirestore.WrapError("favorites.find", err)
	}
	var doc favoriteDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Favorite{}, fmt.Errorf("decode favorite %s: %w", snap.Ref.ID, err)
	}
	return doc.toDomain(userID, snap.Ref.ID), nil
}

// Put stores the favorite; re-favoriting keeps the original timestamp.
func (r *FavoriteRepository) Put(ctx context.Context, fav domain.Favorite) (domain.Favorite, error) {
	coll, err := r.collection(ctx, fav.UserID)
	if err != nil {
		return domain.Favorite{}, err
	}
	pid := strings.TrimSpace(fav.ProductID)
	if pid == "" {
		return domain.Favorite{}, errors.New("favorite repository: product id is required")
	}
	doc := favoriteDocument{ProductID: pid, CreatedAt: fav.CreatedAt.UTC()}
	if _, err := coll.Doc(pid).Create(ctx, doc); err != nil {
		return domain.Favorite{}, pfirestore.WrapError("favorites.put", err)
	}
	return doc.toDomain(fav.UserID, pid), nil
}

// Delete removes the favorite; a missing document is a not-found error.
func (r *FavoriteRepository) Delete(ctx context.Context, userID string, productID string) error {
	coll, err := r.collection(ctx, userID)
	if err != nil {
		return err
	}
	pid := strings.TrimSpace(productID)
	if pid == "" {
		return errors.New("favorite repository: product id is required")
	}
	if _, err := coll.Doc(pid).Delete(ctx, firestore.Exists); err != nil {
		return pfirestore.WrapError("favorites.delete", err)
	}
	return nil
}

func (r *FavoriteRepository) collection(ctx context.Context, userID string) (*firestore.CollectionRef, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("favorite repository not initialised")
	}
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, errors.New("favorite repository: user id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(fmt.Sprintf(favoriteCollectionPattern, uid)), nil
}

type favoriteDocument struct {
	ProductID string    `firestore:"productId"`
	CreatedAt time.Time `firestore:"createdAt"`
}

func (d favoriteDocument) toDomain(userID, id string) domain.Favorite {
	pid := d.ProductID
	if pid == "" {
		pid = id
	}
	return domain.Favorite{
		ID:        id,
		UserID:    userID,
		ProductID: pid,
		CreatedAt: d.CreatedAt,
	}
}

// Ensure interface compliance.
var _ repositories.FavoriteRepository = (*FavoriteRepository)(nil)
