package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/aromelle/api/internal/domain"
)

func testPromotion(now time.Time) domain.PromotionCode {
	return domain.PromotionCode{
		ID:                 "promo_1",
		Code:               "SPRING10",
		DiscountPercentage: 10,
		StartsAt:           now.Add(-time.Hour),
		EndsAt:             now.Add(24 * time.Hour),
	}
}

func newTestPromotionService(t *testing.T, repo *stubPromotionRepository, usage *stubPromotionUsageRepository, now time.Time) PromotionService {
	t.Helper()
	svc, err := NewPromotionService(PromotionServiceDeps{
		Promotions:  repo,
		Usage:       usage,
		Clock:       fixedClock(now),
		IDGenerator: sequenceIDs("p"),
	})
	if err != nil {
		t.Fatalf("new promotion service: %v", err)
	}
	return svc
}

func TestPromotionValidateActiveCode(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	repo := newStubPromotionRepository(testPromotion(now))
	svc := newTestPromotionService(t, repo, newStubPromotionUsageRepository(), now)

	result, err := svc.Validate(context.Background(), ValidatePromotionCommand{
		Code:     " spring10 ",
		UserID:   "user_1",
		Subtotal: 125_000,
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Status != domain.PromotionActive {
		t.Fatalf("expected ACTIVE, got %s", result.Status)
	}
	if result.Discount != 12_500 {
		t.Fatalf("expected discount 12500, got %d", result.Discount)
	}
}

func TestPromotionValidateDerivesWindowStatus(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		starts  time.Time
		ends    time.Time
		wantErr error
		status  domain.PromotionStatus
	}{
		{"not yet valid", now.Add(time.Hour), now.Add(48 * time.Hour), ErrPromotionNotYetValid, domain.PromotionNotYetValid},
		{"expired", now.Add(-48 * time.Hour), now.Add(-time.Hour), ErrPromotionExpired, domain.PromotionExpired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			promo := testPromotion(now)
			promo.StartsAt = tc.starts
			promo.EndsAt = tc.ends
			repo := newStubPromotionRepository(promo)
			svc := newTestPromotionService(t, repo, newStubPromotionUsageRepository(), now)

			result, err := svc.Validate(context.Background(), ValidatePromotionCommand{Code: "SPRING10", Subtotal: 10_000})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if result.Status != tc.status {
				t.Fatalf("expected status %s, got %s", tc.status, result.Status)
			}
		})
	}
}

func TestPromotionValidateRejectsSecondUseBySameUser(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	repo := newStubPromotionRepository(testPromotion(now))
	usage := newStubPromotionUsageRepository()
	svc := newTestPromotionService(t, repo, usage, now)

	if _, err := usage.Record(context.Background(), domain.PromotionUsage{
		PromotionID: "promo_1",
		UserID:      "user_1",
		OrderID:     "ord_1",
		UsedAt:      now,
	}); err != nil {
		t.Fatalf("seed usage: %v", err)
	}

	_, err := svc.Validate(context.Background(), ValidatePromotionCommand{Code: "SPRING10", UserID: "user_1", Subtotal: 10_000})
	if !errors.Is(err, ErrPromotionAlreadyUsed) {
		t.Fatalf("expected already used, got %v", err)
	}

	// A different user may still redeem.
	if _, err := svc.Validate(context.Background(), ValidatePromotionCommand{Code: "SPRING10", UserID: "user_2", Subtotal: 10_000}); err != nil {
		t.Fatalf("expected second user to validate, got %v", err)
	}
}

func TestPromotionValidateEnforcesUsageLimit(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	promo := testPromotion(now)
	promo.UsageLimit = 5
	promo.UsageCount = 5
	repo := newStubPromotionRepository(promo)
	svc := newTestPromotionService(t, repo, newStubPromotionUsageRepository(), now)

	_, err := svc.Validate(context.Background(), ValidatePromotionCommand{Code: "SPRING10", Subtotal: 10_000})
	if !errors.Is(err, ErrPromotionUsageLimitReached) {
		t.Fatalf("expected usage limit reached, got %v", err)
	}
}

func TestPromotionCreateRejectsDuplicateCode(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	repo := newStubPromotionRepository(testPromotion(now))
	svc := newTestPromotionService(t, repo, newStubPromotionUsageRepository(), now)

	_, err := svc.CreatePromotion(context.Background(), UpsertPromotionCommand{
		Code:               "spring10",
		DiscountPercentage: 15,
		StartsAt:           now,
		EndsAt:             now.Add(time.Hour),
	})
	if !errors.Is(err, ErrPromotionDuplicateCode) {
		t.Fatalf("expected duplicate code, got %v", err)
	}
}

func TestPromotionCreateValidatesInput(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestPromotionService(t, newStubPromotionRepository(), newStubPromotionUsageRepository(), now)

	cases := []UpsertPromotionCommand{
		{Code: "", DiscountPercentage: 10, StartsAt: now, EndsAt: now.Add(time.Hour)},
		{Code: "X", DiscountPercentage: 0, StartsAt: now, EndsAt: now.Add(time.Hour)},
		{Code: "X", DiscountPercentage: 101, StartsAt: now, EndsAt: now.Add(time.Hour)},
		{Code: "X", DiscountPercentage: 10, StartsAt: now.Add(time.Hour), EndsAt: now},
		{Code: "X", DiscountPercentage: 10, StartsAt: now, EndsAt: now.Add(time.Hour), UsageLimit: -1},
	}
	for i, cmd := range cases {
		if _, err := svc.CreatePromotion(context.Background(), cmd); !errors.Is(err, ErrPromotionInvalidInput) {
			t.Fatalf("case %d: expected invalid input, got %v", i, err)
		}
	}
}

func TestPromotionUpdatePreservesUsageCount(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	promo := testPromotion(now)
	promo.UsageCount = 7
	promo.CreatedAt = now.Add(-72 * time.Hour)
	repo := newStubPromotionRepository(promo)
	svc := newTestPromotionService(t, repo, newStubPromotionUsageRepository(), now)

	id := promo.ID
	updated, err := svc.UpdatePromotion(context.Background(), UpsertPromotionCommand{
		PromotionID:        &id,
		Code:               "SPRING15",
		DiscountPercentage: 15,
		StartsAt:           now,
		EndsAt:             now.Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.UsageCount != 7 {
		t.Fatalf("expected usage count preserved, got %d", updated.UsageCount)
	}
	if !updated.CreatedAt.Equal(promo.CreatedAt) {
		t.Fatalf("expected created at preserved")
	}
	if updated.DiscountPercentage != 15 {
		t.Fatalf("expected percentage 15, got %d", updated.DiscountPercentage)
	}
}
