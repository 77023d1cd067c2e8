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

const userCollection = "users"

// UserRepository persists user profiles keyed by the identity provider UID.
type UserRepository struct {
	base     *pfirestore.BaseRepository[userDocument]
	provider *pfirestore.Provider
}

// NewUserRepository constructs a Firestore-backed user repository.
func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}
	return &UserRepository{
		base:     pfirestore.NewBaseRepository[userDocument](provider, userCollection, nil, nil),
		provider: provider,
	}, nil
}

// FindByID loads the user profile by UID.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (domain.UserProfile, error) {
	if r == nil || r.base == nil {
		return domain.UserProfile{}, errors.New("user repository not initialised")
	}
	if strings.TrimSpace(userID) == "" {
		return domain.UserProfile{}, errors.New("user repository: user id is required")
	}

	doc, err := r.base.Get(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// Upsert writes the profile, preserving creation time and role on update
// unless the incoming profile sets them.
func (r *UserRepository) Upsert(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	if r == nil || r.base == nil {
		return domain.UserProfile{}, errors.New("user repository not initialised")
	}
	id := strings.TrimSpace(profile.ID)
	if id == "" {
		return domain.UserProfile{}, errors.New("user repository: profile id is required")
	}

	doc := newUserDocument(profile)
	var saved domain.UserProfile
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err == nil {
			var existing userDocument
			if err := snap.DataTo(&existing); err != nil {
				return fmt.Errorf("decode user %s: %w", id, err)
			}
			doc.CreatedAt = existing.CreatedAt
			if doc.Role == "" {
				doc.Role = existing.Role
			}
		}
		if doc.Role == "" {
			doc.Role = string(domain.RoleUser)
		}
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = doc.UpdatedAt
		}
		if err := tx.Set(ref, doc); err != nil {
			return err
		}
		saved = doc.toDomain(id)
		return nil
	})
	if err != nil {
		return domain.UserProfile{}, pfirestore.WrapError("users.upsert", err)
	}
	return saved, nil
}

// List pages through profiles for the admin console. The optional query
// matches an exact email.
func (r *UserRepository) List(ctx context.Context, filter repositories.UserListFilter) (domain.CursorPage[domain.UserProfile], error) {
	if r == nil || r.provider == nil {
		return domain.CursorPage[domain.UserProfile]{}, errors.New("user repository not initialised")
	}

	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.CursorPage[domain.UserProfile]{}, pfirestore.WrapError("users.list", err)
	}

	query := client.Collection(userCollection).Query
	if filter.Role != nil {
		query = query.Where("role", "==", string(*filter.Role))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		query = query.Where("email", "==", strings.ToLower(q))
	}
	query = query.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc).Limit(pageSize + 1)

	if token := strings.TrimSpace(filter.Pagination.PageToken); token != "" {
		createdAt, id, err := decodePageToken(token)
		if err != nil {
			return domain.CursorPage[domain.UserProfile]{}, fmt.Errorf("users.list: invalid page token: %w", err)
		}
		query = query.StartAfter(createdAt, id)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var profiles []domain.UserProfile
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.UserProfile]{}, pfirestore.WrapError("users.list", err)
		}
		var doc userDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.CursorPage[domain.UserProfile]{}, fmt.Errorf("decode user %s: %w", snap.Ref.ID, err)
		}
		profiles = append(profiles, doc.toDomain(snap.Ref.ID))
	}

	var nextToken string
	if len(profiles) > pageSize {
		profiles = profiles[:pageSize]
		last := profiles[len(profiles)-1]
		encoded, err := encodePageToken(last.CreatedAt, last.ID)
		if err != nil {
			return domain.CursorPage[domain.UserProfile]{}, err
		}
		nextToken = encoded
	}

	return domain.CursorPage[domain.UserProfile]{Items: profiles, NextPageToken: nextToken}, nil
}

// Helper structures ---------------------------------------------------------

type userDocument struct {
	Email       string    `firestore:"email"`
	DisplayName string    `firestore:"displayName,omitempty"`
	PhotoURL    string    `firestore:"photoUrl,omitempty"`
	Role        string    `firestore:"role"`
	Locale      string    `firestore:"locale,omitempty"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func newUserDocument(profile domain.UserProfile) userDocument {
	return userDocument{
		Email:       strings.ToLower(strings.TrimSpace(profile.Email)),
		DisplayName: strings.TrimSpace(profile.DisplayName),
		PhotoURL:    strings.TrimSpace(profile.PhotoURL),
		Role:        string(profile.Role),
		Locale:      strings.TrimSpace(profile.Locale),
		CreatedAt:   profile.CreatedAt.UTC(),
		UpdatedAt:   profile.UpdatedAt.UTC(),
	}
}

func (d userDocument) toDomain(id string) domain.UserProfile {
	role := domain.Role(d.Role)
	if role == "" {
		role = domain.RoleUser
	}
	return domain.UserProfile{
		ID:          id,
		Email:       d.Email,
		DisplayName: d.DisplayName,
		PhotoURL:    d.PhotoURL,
		Role:        role,
		Locale:      d.Locale,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// Ensure interface compliance.
var _ repositories.UserRepository = (*UserRepository)(nil)
