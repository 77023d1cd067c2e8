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

const maxDiscountPercentage = 100

// PromotionServiceDeps bundles dependencies required to construct a PromotionService implementation.
type PromotionServiceDeps struct {
	Promotions  repositories.PromotionRepository
	Usage       repositories.PromotionUsageRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type promotionService struct {
	promos repositories.PromotionRepository
	usage  repositories.PromotionUsageRepository
	clock  func() time.Time
	newID  func() string
	logger func(context.Context, string, map[string]any)
}

// NewPromotionService wires a PromotionService backed by the provided repositories.
func NewPromotionService(deps PromotionServiceDeps) (PromotionService, error) {
	if deps.Promotions == nil {
		return nil, errors.New("promotion service: promotion repository is required")
	}
	if deps.Usage == nil {
		return nil, errors.New("promotion service: usage repository is required")
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

	return &promotionService{
		promos: deps.Promotions,
		usage:  deps.Usage,
		clock:  func() time.Time { return clock().UTC() },
		newID:  idGen,
		logger: logger,
	}, nil
}

// Validate resolves a code and reports whether the user may redeem it right
// now, with the discount it would yield against the supplied subtotal. The
// window status is always derived from the clock, never read from storage.
func (s *promotionService) Validate(ctx context.Context, cmd ValidatePromotionCommand) (PromotionValidation, error) {
	code := strings.ToUpper(strings.TrimSpace(cmd.Code))
	if code == "" {
		return PromotionValidation{}, fmt.Errorf("%w: code is required", ErrPromotionInvalidInput)
	}

	promo, err := s.promos.FindByCode(ctx, code)
	if err != nil {
		return PromotionValidation{}, s.mapRepositoryError(err)
	}

	now := s.clock()
	status := promo.StatusAt(now)
	result := PromotionValidation{Promotion: promo, Status: status}

	switch status {
	case domain.PromotionNotYetValid:
		return result, ErrPromotionNotYetValid
	case domain.PromotionExpired:
		return result, ErrPromotionExpired
	}

	if promo.UsageLimit > 0 && promo.UsageCount >= promo.UsageLimit {
		return result, ErrPromotionUsageLimitReached
	}

	if userID := strings.TrimSpace(cmd.UserID); userID != "" {
		_, err := s.usage.Find(ctx, promo.ID, userID)
		switch {
		case err == nil:
			return result, ErrPromotionAlreadyUsed
		case !isNotFound(err):
			return PromotionValidation{}, err
		}
	}

	result.Discount = domain.AggregateDiscount(cmd.Subtotal, promo.DiscountPercentage)
	return result, nil
}

func (s *promotionService) ListPromotions(ctx context.Context, pager Pagination) (domain.CursorPage[PromotionCode], error) {
	page, err := s.promos.List(ctx, pager)
	if err != nil {
		return domain.CursorPage[PromotionCode]{}, err
	}
	return page, nil
}

func (s *promotionService) CreatePromotion(ctx context.Context, cmd UpsertPromotionCommand) (PromotionCode, error) {
	promo, err := s.buildPromotion(cmd)
	if err != nil {
		return PromotionCode{}, err
	}

	now := s.clock()
	promo.ID = "promo_" + s.newID()
	promo.CreatedAt = now
	promo.UpdatedAt = now

	if err := s.promos.Insert(ctx, promo); err != nil {
		if isConflict(err) {
			return PromotionCode{}, fmt.Errorf("%w: %s", ErrPromotionDuplicateCode, promo.Code)
		}
		return PromotionCode{}, err
	}

	s.logger(ctx, "promotion.created", map[string]any{
		"promotionId": promo.ID,
		"code":        promo.Code,
		"actorId":     cmd.ActorID,
	})
	return promo, nil
}

func (s *promotionService) UpdatePromotion(ctx context.Context, cmd UpsertPromotionCommand) (PromotionCode, error) {
	if cmd.PromotionID == nil || strings.TrimSpace(*cmd.PromotionID) == "" {
		return PromotionCode{}, fmt.Errorf("%w: promotion id is required", ErrPromotionInvalidInput)
	}

	existing, err := s.promos.FindByID(ctx, strings.TrimSpace(*cmd.PromotionID))
	if err != nil {
		return PromotionCode{}, s.mapRepositoryError(err)
	}

	promo, err := s.buildPromotion(cmd)
	if err != nil {
		return PromotionCode{}, err
	}

	promo.ID = existing.ID
	promo.UsageCount = existing.UsageCount
	promo.CreatedAt = existing.CreatedAt
	promo.UpdatedAt = s.clock()

	if err := s.promos.Update(ctx, promo); err != nil {
		if isConflict(err) {
			return PromotionCode{}, fmt.Errorf("%w: %s", ErrPromotionDuplicateCode, promo.Code)
		}
		return PromotionCode{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "promotion.updated", map[string]any{
		"promotionId": promo.ID,
		"actorId":     cmd.ActorID,
	})
	return promo, nil
}

func (s *promotionService) DeletePromotion(ctx context.Context, promotionID string) error {
	promotionID = strings.TrimSpace(promotionID)
	if promotionID == "" {
		return fmt.Errorf("%w: promotion id is required", ErrPromotionInvalidInput)
	}
	if err := s.promos.Delete(ctx, promotionID); err != nil {
		return s.mapRepositoryError(err)
	}
	s.logger(ctx, "promotion.deleted", map[string]any{"promotionId": promotionID})
	return nil
}

func (s *promotionService) ListUsage(ctx context.Context, filter PromotionUsageFilter) (domain.CursorPage[PromotionUsage], error) {
	promotionID := strings.TrimSpace(filter.PromotionID)
	if promotionID == "" {
		return domain.CursorPage[PromotionUsage]{}, fmt.Errorf("%w: promotion id is required", ErrPromotionInvalidInput)
	}
	return s.usage.List(ctx, promotionID, filter.Pagination)
}

func (s *promotionService) buildPromotion(cmd UpsertPromotionCommand) (PromotionCode, error) {
	code := strings.ToUpper(strings.TrimSpace(cmd.Code))
	if code == "" {
		return PromotionCode{}, fmt.Errorf("%w: code is required", ErrPromotionInvalidInput)
	}
	if cmd.DiscountPercentage <= 0 || cmd.DiscountPercentage > maxDiscountPercentage {
		return PromotionCode{}, fmt.Errorf("%w: discount percentage must be in (0, %d]", ErrPromotionInvalidInput, maxDiscountPercentage)
	}
	if cmd.StartsAt.IsZero() || cmd.EndsAt.IsZero() {
		return PromotionCode{}, fmt.Errorf("%w: validity window is required", ErrPromotionInvalidInput)
	}
	if !cmd.EndsAt.After(cmd.StartsAt) {
		return PromotionCode{}, fmt.Errorf("%w: window end must follow start", ErrPromotionInvalidInput)
	}
	if cmd.UsageLimit < 0 {
		return PromotionCode{}, fmt.Errorf("%w: usage limit must be >= 0", ErrPromotionInvalidInput)
	}

	return PromotionCode{
		Code:               code,
		Description:        strings.TrimSpace(cmd.Description),
		DiscountPercentage: cmd.DiscountPercentage,
		StartsAt:           cmd.StartsAt.UTC(),
		EndsAt:             cmd.EndsAt.UTC(),
		UsageLimit:         cmd.UsageLimit,
	}, nil
}

func (s *promotionService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return ErrPromotionNotFound
	}
	return err
}

func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func isConflict(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsConflict()
}
