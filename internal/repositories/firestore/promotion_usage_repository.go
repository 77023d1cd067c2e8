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

const promotionUsageCollection = "promotionUsages"

// PromotionUsageRepository records per-user redemptions. Documents are keyed
// by promotionID_userID so the one-use-per-user rule is enforced by document
// identity rather than a query.
type PromotionUsageRepository struct {
	provider *pfirestore.Provider
}

// NewPromotionUsageRepository constructs a Firestore-backed usage repository.
func NewPromotionUsageRepository(provider *pfirestore.Provider) (*PromotionUsageRepository, error) {
	if provider == nil {
		return nil, errors.New("promotion usage repository requires firestore provider")
	}
	return &PromotionUsageRepository{provider: provider}, nil
}

func (r *PromotionUsageRepository) Record(ctx context.Context, usage domain.PromotionUsage) (domain.PromotionUsage, error) {
	if r == nil || r.provider == nil {
		return domain.PromotionUsage{}, errors.New("promotion usage repository not initialised")
	}
	promotionID := strings.TrimSpace(usage.PromotionID)
	userID := strings.TrimSpace(usage.UserID)
	if promotionID == "" || userID == "" {
		return domain.PromotionUsage{}, errors.New("promotion usage repository: promotion id and user id are required")
	}

	docID := usageDocID(promotionID, userID)
	stored := usage
	stored.ID = docID

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		client, err := r.provider.Client(ctx)
		if err != nil {
			return err
		}
		usageRef := client.Collection(promotionUsageCollection).Doc(docID)
		promoRef := client.Collection(promotionCollection).Doc(promotionID)

		promoSnap, err := tx.Get(promoRef)
		if err != nil {
			return err
		}
		var promo promotionDocument
		if err := promoSnap.DataTo(&promo); err != nil {
			return fmt.Errorf("decode promotion %s: %w", promoSnap.Ref.ID, err)
		}

		if err := tx.Create(usageRef, newPromotionUsageDocument(stored)); err != nil {
			return err
		}
		return tx.Update(promoRef, []firestore.Update{
			{Path: "usageCount", Value: promo.UsageCount + 1},
			{Path: "updatedAt", Value: usage.UsedAt.UTC()},
		})
	})
	if err != nil {
		return domain.PromotionUsage{}, pfirestore.WrapError("promotionUsages.record", err)
	}
	return stored, nil
}

// Release deletes the usage entry and decrements the aggregate count, but
// only when the entry belongs to the given order. Entries recorded for a
// different order are left alone so a stale compensation cannot revoke a
// redemption that now backs another purchase.
func (r *PromotionUsageRepository) Release(ctx context.Context, promotionID, userID, orderID string) error {
	if r == nil || r.provider == nil {
		return errors.New("promotion usage repository not initialised")
	}
	promotionID = strings.TrimSpace(promotionID)
	userID = strings.TrimSpace(userID)
	orderID = strings.TrimSpace(orderID)
	if promotionID == "" || userID == "" || orderID == "" {
		return errors.New("promotion usage repository: promotion id, user id, and order id are required")
	}

	docID := usageDocID(promotionID, userID)
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		client, err := r.provider.Client(ctx)
		if err != nil {
			return err
		}
		usageRef := client.Collection(promotionUsageCollection).Doc(docID)
		promoRef := client.Collection(promotionCollection).Doc(promotionID)

		usageSnap, err := tx.Get(usageRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil
			}
			return err
		}
		var doc promotionUsageDocument
		if err := usageSnap.DataTo(&doc); err != nil {
			return fmt.Errorf("decode promotion usage %s: %w", usageSnap.Ref.ID, err)
		}
		if doc.OrderID != orderID {
			return nil
		}

		promoSnap, err := tx.Get(promoRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return tx.Delete(usageRef)
			}
			return err
		}
		var promo promotionDocument
		if err := promoSnap.DataTo(&promo); err != nil {
			return fmt.Errorf("decode promotion %s: %w", promoSnap.Ref.ID, err)
		}

		if err := tx.Delete(usageRef); err != nil {
			return err
		}
		count := promo.UsageCount - 1
		if count < 0 {
			count = 0
		}
		return tx.Update(promoRef, []firestore.Update{
			{Path: "usageCount", Value: count},
			{Path: "updatedAt", Value: time.Now().UTC()},
		})
	})
	if err != nil {
		return pfirestore.WrapError("promotionUsages.release", err)
	}
	return nil
}

func (r *PromotionUsageRepository) Find(ctx context.Context, promotionID string, userID string) (domain.PromotionUsage, error) {
	if r == nil || r.provider == nil {
		return domain.PromotionUsage{}, errors.New("promotion usage repository not initialised")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.PromotionUsage{}, pfirestore.WrapError("promotionUsages.find", err)
	}
	docID := usageDocID(promotionID, userID)
	snap, err := client.Collection(promotionUsageCollection).Doc(docID).Get(ctx)
	if err != nil {
		return domain.PromotionUsage{}, pfirestore.WrapError("promotionUsages.find", err)
	}
	var doc promotionUsageDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.PromotionUsage{}, fmt.Errorf("decode promotion usage %s: %w", snap.Ref.ID, err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}

func (r *PromotionUsageRepository) List(ctx context.Context, promotionID string, pager domain.Pagination) (domain.CursorPage[domain.PromotionUsage], error) {
	if r == nil || r.provider == nil {
		return domain.CursorPage[domain.PromotionUsage]{}, errors.New("promotion usage repository not initialised")
	}
	promotionID = strings.TrimSpace(promotionID)
	if promotionID == "" {
		return domain.CursorPage[domain.PromotionUsage]{}, errors.New("promotion usage repository: promotion id is required")
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
		return domain.CursorPage[domain.PromotionUsage]{}, pfirestore.WrapError("promotionUsages.list", err)
	}

	query := client.Collection(promotionUsageCollection).
		Where("promotionId", "==", promotionID).
		OrderBy("usedAt", firestore.Desc).
		OrderBy(firestore.DocumentID, firestore.Desc).
		Limit(pageSize + 1)

	if token := strings.TrimSpace(pager.PageToken); token != "" {
		usedAt, id, err := decodePageToken(token)
		if err != nil {
			return domain.CursorPage[domain.PromotionUsage]{}, fmt.Errorf("promotionUsages.list: invalid page token: %w", err)
		}
		query = query.StartAfter(usedAt, id)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var usages []domain.PromotionUsage
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.PromotionUsage]{}, pfirestore.WrapError("promotionUsages.list", err)
		}
		var doc promotionUsageDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.CursorPage[domain.PromotionUsage]{}, fmt.Errorf("decode promotion usage %s: %w", snap.Ref.ID, err)
		}
		usages = append(usages, doc.toDomain(snap.Ref.ID))
	}

	var nextToken string
	if len(usages) > pageSize {
		usages = usages[:pageSize]
		last := usages[len(usages)-1]
		encoded, err := encodePageToken(last.UsedAt, last.ID)
		if err != nil {
			return domain.CursorPage[domain.PromotionUsage]{}, err
		}
		nextToken = encoded
	}

	return domain.CursorPage[domain.PromotionUsage]{Items: usages, NextPageToken: nextToken}, nil
}

// Helper structures ---------------------------------------------------------

type promotionUsageDocument struct {
	PromotionID string    `firestore:"promotionId"`
	Code        string    `firestore:"code"`
	UserID      string    `firestore:"userId"`
	OrderID     string    `firestore:"orderId"`
	UsedAt      time.Time `firestore:"usedAt"`
}

func newPromotionUsageDocument(usage domain.PromotionUsage) promotionUsageDocument {
	return promotionUsageDocument{
		PromotionID: usage.PromotionID,
		Code:        normalizePromoCode(usage.Code),
		UserID:      usage.UserID,
		OrderID:     usage.OrderID,
		UsedAt:      usage.UsedAt.UTC(),
	}
}

func (d promotionUsageDocument) toDomain(id string) domain.PromotionUsage {
	return domain.PromotionUsage{
		ID:          id,
		PromotionID: d.PromotionID,
		Code:        d.Code,
		UserID:      d.UserID,
		OrderID:     d.OrderID,
		UsedAt:      d.UsedAt,
	}
}

func usageDocID(promotionID, userID string) string {
	return fmt.Sprintf("%s_%s", strings.TrimSpace(promotionID), strings.TrimSpace(userID))
}

// Ensure interface compliance.
var _ repositories.PromotionUsageRepository = (*PromotionUsageRepository)(nil)
