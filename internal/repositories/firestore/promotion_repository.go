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

const (
	promotionCollection        = "promotions"
	promotionUsagesSubcollName = "usages"
)

// PromotionRepository maintains promotion code definitions. Codes are stored
// upper-cased and must be unique across documents.
type PromotionRepository struct {
	base     *pfirestore.BaseRepository[promotionDocument]
	provider *pfirestore.Provider
}

// NewPromotionRepository constructs a Firestore-backed promotion repository.
func NewPromotionRepository(provider *pfirestore.Provider) (*PromotionRepository, error) {
	if provider == nil {
		return nil, errors.New("promotion repository requires firestore provider")
	}
	return &PromotionRepository{
		base:     pfirestore.NewBaseRepository[promotionDocument](provider, promotionCollection, nil, nil),
		provider: provider,
	}, nil
}

func (r *PromotionRepository) Insert(ctx context.Context, promo domain.PromotionCode) error {
	if r == nil || r.provider == nil {
		return errors.New("promotion repository not initialised")
	}
	code := normalizePromoCode(promo.Code)
	if code == "" {
		return errors.New("promotion repository: code is required")
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		client, err := r.provider.Client(ctx)
		if err != nil {
			return err
		}
		dupQuery := client.Collection(promotionCollection).Where("code", "==", code).Limit(1)
		snaps, err := tx.Documents(dupQuery).GetAll()
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if len(snaps) > 0 {
			return status.Error(codes.AlreadyExists, fmt.Sprintf("promotion code %s already exists", code))
		}
		ref, err := r.base.DocumentRef(ctx, promo.ID)
		if err != nil {
			return err
		}
		return tx.Create(ref, newPromotionDocument(promo))
	})
	if err != nil {
		return pfirestore.WrapError("promotions.insert", err)
	}
	return nil
}

func (r *PromotionRepository) Update(ctx context.Context, promo domain.PromotionCode) error {
	if r == nil || r.provider == nil {
		return errors.New("promotion repository not initialised")
	}
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, promo.ID)
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var existing promotionDocument
		if err := snap.DataTo(&existing); err != nil {
			return fmt.Errorf("decode promotion %s: %w", snap.Ref.ID, err)
		}
		doc := newPromotionDocument(promo)
		doc.CreatedAt = existing.CreatedAt
		doc.UsageCount = existing.UsageCount
		return tx.Set(ref, doc)
	})
	if err != nil {
		return pfirestore.WrapError("promotions.update", err)
	}
	return nil
}

func (r *PromotionRepository) Delete(ctx context.Context, promotionID string) error {
	if r == nil || r.base == nil {
		return errors.New("promotion repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, promotionID)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		return pfirestore.WrapError("promotions.delete", err)
	}
	return nil
}

func (r *PromotionRepository) FindByID(ctx context.Context, promotionID string) (domain.PromotionCode, error) {
	if r == nil || r.base == nil {
		return domain.PromotionCode{}, errors.New("promotion repository not initialised")
	}
	doc, err := r.base.Get(ctx, promotionID)
	if err != nil {
		return domain.PromotionCode{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

func (r *PromotionRepository) FindByCode(ctx context.Context, code string) (domain.PromotionCode, error) {
	if r == nil || r.provider == nil {
		return domain.PromotionCode{}, errors.New("promotion repository not initialised")
	}
	normalized := normalizePromoCode(code)
	if normalized == "" {
		return domain.PromotionCode{}, errors.New("promotion repository: code is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.PromotionCode{}, pfirestore.WrapError("promotions.findByCode", err)
	}
	iter := client.Collection(promotionCollection).Where("code", "==", normalized).Limit(1).Documents(ctx)
	defer iter.Stop()
	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return domain.PromotionCode{}, pfirestore.WrapError("promotions.findByCode", status.Error(codes.NotFound, "promotion not found"))
	}
	if err != nil {
		return domain.PromotionCode{}, pfirestore.WrapError("promotions.findByCode", err)
	}
	var doc promotionDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.PromotionCode{}, fmt.Errorf("decode promotion %s: %w", snap.Ref.ID, err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}

func (r *PromotionRepository) List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.PromotionCode], error) {
	if r == nil || r.provider == nil {
		return domain.CursorPage[domain.PromotionCode]{}, errors.New("promotion repository not initialised")
	}

	pageSize := pager.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.CursorPage[domain.PromotionCode]{}, pfirestore.WrapError("promotions.list", err)
	}

	query := client.Collection(promotionCollection).
		OrderBy("createdAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc).
		Limit(pageSize + 1)

	if token := strings.TrimSpace(pager.PageToken); token != "" {
		createdAt, id, err := decodePageToken(token)
		if err != nil {
			return domain.CursorPage[domain.PromotionCode]{}, fmt.Errorf("promotions.list: invalid page token: %w", err)
		}
		query = query.StartAfter(createdAt, id)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var promos []domain.PromotionCode
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.PromotionCode]{}, pfirestore.WrapError("promotions.list", err)
		}
		var doc promotionDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.CursorPage[domain.PromotionCode]{}, fmt.Errorf("decode promotion %s: %w", snap.Ref.ID, err)
		}
		promos = append(promos, doc.toDomain(snap.Ref.ID))
	}

	var nextToken string
	if len(promos) > pageSize {
		promos = promos[:pageSize]
		last := promos[len(promos)-1]
		encoded, err := encodePageToken(last.CreatedAt, last.ID)
		if err != nil {
			return domain.CursorPage[domain.PromotionCode]{}, err
		}
		nextToken = encoded
	}

	return domain.CursorPage[domain.PromotionCode]{Items: promos, NextPageToken: nextToken}, nil
}

// Helper structures ---------------------------------------------------------

type promotionDocument struct {
	Code               string    `firestore:"code"`
	Description        string    `firestore:"description,omitempty"`
	DiscountPercentage int       `firestore:"discountPercentage"`
	StartsAt           time.Time `firestore:"startsAt"`
	EndsAt             time.Time `firestore:"endsAt"`
	UsageLimit         int       `firestore:"usageLimit"`
	UsageCount         int       `firestore:"usageCount"`
	CreatedAt          time.Time `firestore:"createdAt"`
	UpdatedAt          time.Time `firestore:"updatedAt"`
}

func newPromotionDocument(promo domain.PromotionCode) promotionDocument {
	return promotionDocument{
		Code:               normalizePromoCode(promo.Code),
		Description:        strings.TrimSpace(promo.Description),
		DiscountPercentage: promo.DiscountPercentage,
		StartsAt:           promo.StartsAt.UTC(),
		EndsAt:             promo.EndsAt.UTC(),
		UsageLimit:         promo.UsageLimit,
		UsageCount:         promo.UsageCount,
		CreatedAt:          promo.CreatedAt.UTC(),
		UpdatedAt:          promo.UpdatedAt.UTC(),
	}
}

func (d promotionDocument) toDomain(id string) domain.PromotionCode {
	return domain.PromotionCode{
		ID:                 id,
		Code:               d.Code,
		Description:        d.Description,
		DiscountPercentage: d.DiscountPercentage,
		StartsAt:           d.StartsAt,
		EndsAt:             d.EndsAt,
		UsageLimit:         d.UsageLimit,
		UsageCount:         d.UsageCount,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

func normalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Ensure interface compliance.
var _ repositories.PromotionRepository = (*PromotionRepository)(nil)
