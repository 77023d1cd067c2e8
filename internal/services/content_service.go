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

var (
	// ErrContentInvalidInput signals a malformed content command.
	ErrContentInvalidInput = errors.New("content: invalid input")
	// ErrContentNotFound indicates the advertisement or hero image does not exist.
	ErrContentNotFound = errors.New("content: not found")
)

// ContentServiceDeps bundles dependencies for the content service.
type ContentServiceDeps struct {
	Content     repositories.ContentRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type contentService struct {
	content repositories.ContentRepository
	clock   func() time.Time
	newID   func() string
	logger  func(context.Context, string, map[string]any)
}

// NewContentService wires a ContentService over the content repository.
func NewContentService(deps ContentServiceDeps) (ContentService, error) {
	if deps.Content == nil {
		return nil, errors.New("content service: content repository is required")
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

	return &contentService{
		content: deps.Content,
		clock:   func() time.Time { return clock().UTC() },
		newID:   idGen,
		logger:  logger,
	}, nil
}

// ListAdvertisements returns banners; with activeOnly set, only banners whose
// schedule covers the current instant are returned.
func (s *contentService) ListAdvertisements(ctx context.Context, activeOnly bool) ([]Advertisement, error) {
	ads, err := s.content.ListAdvertisements(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	if !activeOnly {
		return ads, nil
	}

	now := s.clock()
	visible := make([]Advertisement, 0, len(ads))
	for _, ad := range ads {
		if ad.ActiveAt(now) {
			visible = append(visible, ad)
		}
	}
	return visible, nil
}

func (s *contentService) UpsertAdvertisement(ctx context.Context, cmd UpsertAdvertisementCommand) (Advertisement, error) {
	if strings.TrimSpace(cmd.ImagePath) == "" {
		return Advertisement{}, fmt.Errorf("%w: image path is required", ErrContentInvalidInput)
	}
	if !cmd.StartsAt.IsZero() && !cmd.EndsAt.IsZero() && !cmd.EndsAt.After(cmd.StartsAt) {
		return Advertisement{}, fmt.Errorf("%w: window end must follow start", ErrContentInvalidInput)
	}

	ad := domain.Advertisement{
		Title:     strings.TrimSpace(cmd.Title),
		ImagePath: strings.TrimSpace(cmd.ImagePath),
		LinkURL:   strings.TrimSpace(cmd.LinkURL),
		StartsAt:  cmd.StartsAt,
		EndsAt:    cmd.EndsAt,
		Active:    cmd.Active,
		SortOrder: cmd.SortOrder,
		UpdatedAt: s.clock(),
	}
	if cmd.AdID != nil && strings.TrimSpace(*cmd.AdID) != "" {
		ad.ID = strings.TrimSpace(*cmd.AdID)
	} else {
		ad.ID = "ad_" + s.newID()
		ad.CreatedAt = ad.UpdatedAt
	}

	saved, err := s.content.UpsertAdvertisement(ctx, ad)
	if err != nil {
		return Advertisement{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "content.advertisement.upserted", map[string]any{
		"adId":    saved.ID,
		"actorId": cmd.ActorID,
	})
	return saved, nil
}

func (s *contentService) DeleteAdvertisement(ctx context.Context, adID string) error {
	adID = strings.TrimSpace(adID)
	if adID == "" {
		return fmt.Errorf("%w: advertisement id is required", ErrContentInvalidInput)
	}
	if err := s.content.DeleteAdvertisement(ctx, adID); err != nil {
		return s.mapRepositoryError(err)
	}
	s.logger(ctx, "content.advertisement.deleted", map[string]any{"adId": adID})
	return nil
}

func (s *contentService) ListHeroImages(ctx context.Context, activeOnly bool) ([]HeroImage, error) {
	return s.content.ListHeroImages(ctx, activeOnly)
}

func (s *contentService) UpsertHeroImage(ctx context.Context, cmd UpsertHeroImageCommand) (HeroImage, error) {
	if strings.TrimSpace(cmd.ImagePath) == "" {
		return HeroImage{}, fmt.Errorf("%w: image path is required", ErrContentInvalidInput)
	}

	hero := domain.HeroImage{
		ImagePath: strings.TrimSpace(cmd.ImagePath),
		LinkURL:   strings.TrimSpace(cmd.LinkURL),
		Active:    cmd.Active,
		SortOrder: cmd.SortOrder,
		UpdatedAt: s.clock(),
	}
	if cmd.HeroID != nil && strings.TrimSpace(*cmd.HeroID) != "" {
		hero.ID = strings.TrimSpace(*cmd.HeroID)
	} else {
		hero.ID = "hero_" + s.newID()
		hero.CreatedAt = hero.UpdatedAt
	}

	saved, err := s.content.UpsertHeroImage(ctx, hero)
	if err != nil {
		return HeroImage{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "content.hero.upserted", map[string]any{
		"heroId":  saved.ID,
		"actorId": cmd.ActorID,
	})
	return saved, nil
}

func (s *contentService) DeleteHeroImage(ctx context.Context, heroID string) error {
	heroID = strings.TrimSpace(heroID)
	if heroID == "" {
		return fmt.Errorf("%w: hero image id is required", ErrContentInvalidInput)
	}
	if err := s.content.DeleteHeroImage(ctx, heroID); err != nil {
		return s.mapRepositoryError(err)
	}
	s.logger(ctx, "content.hero.deleted", map[string]any{"heroId": heroID})
	return nil
}

func (s *contentService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return ErrContentNotFound
	}
	return err
}
