package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/aromelle/api/internal/domain"
	pfirestore "github.com/aromelle/api/internal/platform/firestore"
	"github.com/aromelle/api/internal/repositories"
)

const (
	advertisementCollection = "advertisements"
	heroImageCollection     = "heroImages"
)

// ContentRepository stores the storefront marketing surfaces: advertisement
// banners with scheduling windows and the hero carousel.
type ContentRepository struct {
	provider *pfirestore.Provider
}

// NewContentRepository constructs a Firestore-backed content repository.
func NewContentRepository(provider *pfirestore.Provider) (*ContentRepository, error) {
	if provider == nil {
		return nil, errors.New("content repository requires firestore provider")
	}
	return &ContentRepository{provider: provider}, nil
}

func (r *ContentRepository) ListAdvertisements(ctx context.Context, activeOnly bool) ([]domain.Advertisement, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("content repository not initialised")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("content.listAdvertisements", err)
	}

	query := client.Collection(advertisementCollection).Query
	if activeOnly {
		query = query.Where("active", "==", true)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var ads []domain.Advertisement
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("content.listAdvertisements", err)
		}
		var doc advertisementDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode advertisement %s: %w", snap.Ref.ID, err)
		}
		ads = append(ads, doc.toDomain(snap.Ref.ID))
	}

	sort.SliceStable(ads, func(i, j int) bool {
		if ads[i].SortOrder != ads[j].SortOrder {
			return ads[i].SortOrder < ads[j].SortOrder
		}
		return ads[i].ID < ads[j].ID
	})
	return ads, nil
}

func (r *ContentRepository) UpsertAdvertisement(ctx context.Context, ad domain.Advertisement) (domain.Advertisement, error) {
	if r == nil || r.provider == nil {
		return domain.Advertisement{}, errors.New("content repository not initialised")
	}
	if strings.TrimSpace(ad.ID) == "" {
		return domain.Advertisement{}, errors.New("content repository: advertisement id is required")
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		client, err := r.provider.Client(ctx)
		if err != nil {
			return err
		}
		ref := client.Collection(advertisementCollection).Doc(ad.ID)
		snap, err := tx.Get(ref)
		if err == nil {
			var existing advertisementDocument
			if decodeErr := snap.DataTo(&existing); decodeErr == nil && !existing.CreatedAt.IsZero() {
				ad.CreatedAt = existing.CreatedAt
			}
		}
		return tx.Set(ref, newAdvertisementDocument(ad))
	})
	if err != nil {
		return domain.Advertisement{}, pfirestore.WrapError("content.upsertAdvertisement", err)
	}
	return ad, nil
}

func (r *ContentRepository) DeleteAdvertisement(ctx context.Context, adID string) error {
	return r.deleteContentDoc(ctx, advertisementCollection, adID, "content.deleteAdvertisement")
}

func (r *ContentRepository) ListHeroImages(ctx context.Context, activeOnly bool) ([]domain.HeroImage, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("content repository not initialised")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return nil, pfirestore.WrapError("content.listHeroImages", err)
	}

	query := client.Collection(heroImageCollection).Query
	if activeOnly {
		query = query.Where("active", "==", true)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var heroes []domain.HeroImage
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, pfirestore.WrapError("content.listHeroImages", err)
		}
		var doc heroImageDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode hero image %s: %w", snap.Ref.ID, err)
		}
		heroes = append(heroes, doc.toDomain(snap.Ref.ID))
	}

	sort.SliceStable(heroes, func(i, j int) bool {
		if heroes[i].SortOrder != heroes[j].SortOrder {
			return heroes[i].SortOrder < heroes[j].SortOrder
		}
		return heroes[i].ID < heroes[j].ID
	})
	return heroes, nil
}

func (r *ContentRepository) UpsertHeroImage(ctx context.Context, hero domain.HeroImage) (domain.HeroImage, error) {
	if r == nil || r.provider == nil {
		return domain.HeroImage{}, errors.New("content repository not initialised")
	}
	if strings.TrimSpace(hero.ID) == "" {
		return domain.HeroImage{}, errors.New("content repository: hero image id is required")
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		client, err := r.provider.Client(ctx)
		if err != nil {
			return err
		}
		ref := client.Collection(heroImageCollection).Doc(hero.ID)
		snap, err := tx.Get(ref)
		if err == nil {
			var existing heroImageDocument
			if decodeErr := snap.DataTo(&existing); decodeErr == nil && !existing.CreatedAt.IsZero() {
				hero.CreatedAt = existing.CreatedAt
			}
		}
		return tx.Set(ref, newHeroImageDocument(hero))
	})
	if err != nil {
		return domain.HeroImage{}, pfirestore.WrapError("content.upsertHeroImage", err)
	}
	return hero, nil
}

func (r *ContentRepository) DeleteHeroImage(ctx context.Context, heroID string) error {
	return r.deleteContentDoc(ctx, heroImageCollection, heroID, "content.deleteHeroImage")
}

func (r *ContentRepository) deleteContentDoc(ctx context.Context, collection, id, op string) error {
	if r == nil || r.provider == nil {
		return errors.New("content repository not initialised")
	}
	if strings.TrimSpace(id) == "" {
		return errors.New("content repository: document id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError(op, err)
	}
	if _, err := client.Collection(collection).Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return pfirestore.WrapError(op, err)
	}
	return nil
}

// Helper structures ---------------------------------------------------------

type advertisementDocument struct {
	Title     string    `firestore:"title"`
	ImagePath string    `firestore:"imagePath"`
	LinkURL   string    `firestore:"linkUrl,omitempty"`
	StartsAt  time.Time `firestore:"startsAt,omitempty"`
	EndsAt    time.Time `firestore:"endsAt,omitempty"`
	Active    bool      `firestore:"active"`
	SortOrder int       `firestore:"sortOrder"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func newAdvertisementDocument(ad domain.Advertisement) advertisementDocument {
	return advertisementDocument{
		Title:     strings.TrimSpace(ad.Title),
		ImagePath: strings.TrimSpace(ad.ImagePath),
		LinkURL:   strings.TrimSpace(ad.LinkURL),
		StartsAt:  ad.StartsAt.UTC(),
		EndsAt:    ad.EndsAt.UTC(),
		Active:    ad.Active,
		SortOrder: ad.SortOrder,
		CreatedAt: ad.CreatedAt.UTC(),
		UpdatedAt: ad.UpdatedAt.UTC(),
	}
}

func (d advertisementDocument) toDomain(id string) domain.Advertisement {
	return domain.Advertisement{
		ID:        id,
		Title:     d.Title,
		ImagePath: d.ImagePath,
		LinkURL:   d.LinkURL,
		StartsAt:  d.StartsAt,
		EndsAt:    d.EndsAt,
		Active:    d.Active,
		SortOrder: d.SortOrder,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type heroImageDocument struct {
	ImagePath string    `firestore:"imagePath"`
	LinkURL   string    `firestore:"linkUrl,omitempty"`
	Active    bool      `firestore:"active"`
	SortOrder int       `firestore:"sortOrder"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func newHeroImageDocument(hero domain.HeroImage) heroImageDocument {
	return heroImageDocument{
		ImagePath: strings.TrimSpace(hero.ImagePath),
		LinkURL:   strings.TrimSpace(hero.LinkURL),
		Active:    hero.Active,
		SortOrder: hero.SortOrder,
		CreatedAt: hero.CreatedAt.UTC(),
		UpdatedAt: hero.UpdatedAt.UTC(),
	}
}

func (d heroImageDocument) toDomain(id string) domain.HeroImage {
	return domain.HeroImage{
		ID:        id,
		ImagePath: d.ImagePath,
		LinkURL:   d.LinkURL,
		Active:    d.Active,
		SortOrder: d.SortOrder,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Ensure interface compliance.
var _ repositories.ContentRepository = (*ContentRepository)(nil)
