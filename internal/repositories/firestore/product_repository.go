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

const productCollection = "products"

// ProductRepository persists fragrance products.
type ProductRepository struct {
	base     *pfirestore.BaseRepository[productDocument]
	provider *pfirestore.Provider
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	return &ProductRepository{
		base:     pfirestore.NewBaseRepository[productDocument](provider, productCollection, nil, nil),
		provider: provider,
	}, nil
}

func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, product.ID)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, newProductDocument(product)); err != nil {
		return pfirestore.WrapError("products.insert", err)
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	if r == nil || r.provider == nil {
		return errors.New("product repository not initialised")
	}
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, product.ID)
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var existing productDocument
		if err := snap.DataTo(&existing); err != nil {
			return fmt.Errorf("decode product %s: %w", snap.Ref.ID, err)
		}
		doc := newProductDocument(product)
		doc.CreatedAt = existing.CreatedAt
		return tx.Set(ref, doc)
	})
	if err != nil {
		return pfirestore.WrapError("products.update", err)
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, productID string) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	ref, err := r.base.DocumentRef(ctx, productID)
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx, firestore.Exists); err != nil {
		return pfirestore.WrapError("products.delete", err)
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	doc, err := r.base.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

func (r *ProductRepository) FindBySlug(ctx context.Context, slug string) (domain.Product, error) {
	if r == nil || r.provider == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	trimmed := strings.TrimSpace(slug)
	if trimmed == "" {
		return domain.Product{}, errors.New("product repository: slug is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Product{}, pfirestore.WrapError("products.findBySlug", err)
	}
	iter := client.Collection(productCollection).Where("slug", "==", trimmed).Limit(1).Documents(ctx)
	defer iter.Stop()
	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return domain.Product{}, pfirestore.WrapError("products.findBySlug", status.Error(codes.NotFound, "product not found"))
	}
	if err != nil {
		return domain.Product{}, pfirestore.WrapError("products.findBySlug", err)
	}
	var doc productDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Product{}, fmt.Errorf("decode product %s: %w", snap.Ref.ID, err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}

// List pages through products newest first, applying facet filters in the
// query and the optional text match in memory over the fetched page window.
func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	if r == nil || r.provider == nil {
		return domain.CursorPage[domain.Product]{}, errors.New("product repository not initialised")
	}

	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = 24
	}
	if pageSize > 100 {
		pageSize = 100
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.CursorPage[domain.Product]{}, pfirestore.WrapError("products.list", err)
	}

	query := client.Collection(productCollection).Query
	if filter.OnlyPublished {
		query = query.Where("published", "==", true)
	}
	if filter.FamilyID != nil && strings.TrimSpace(*filter.FamilyID) != "" {
		query = query.Where("familyId", "==", strings.TrimSpace(*filter.FamilyID))
	}
	if filter.FormulaID != nil && strings.TrimSpace(*filter.FormulaID) != "" {
		query = query.Where("formulaId", "==", strings.TrimSpace(*filter.FormulaID))
	}
	if filter.ScentTypeID != nil && strings.TrimSpace(*filter.ScentTypeID) != "" {
		query = query.Where("scentTypeId", "==", strings.TrimSpace(*filter.ScentTypeID))
	}
	query = query.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc).Limit(pageSize + 1)

	if token := strings.TrimSpace(filter.Pagination.PageToken); token != "" {
		createdAt, id, err := decodePageToken(token)
		if err != nil {
			return domain.CursorPage[domain.Product]{}, fmt.Errorf("products.list: invalid page token: %w", err)
		}
		query = query.StartAfter(createdAt, id)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	needle := strings.ToLower(strings.TrimSpace(filter.Query))
	var products []domain.Product
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.Product]{}, pfirestore.WrapError("products.list", err)
		}
		var doc productDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.CursorPage[domain.Product]{}, fmt.Errorf("decode product %s: %w", snap.Ref.ID, err)
		}
		product := doc.toDomain(snap.Ref.ID)
		if needle != "" && !strings.Contains(strings.ToLower(product.Name), needle) && !strings.Contains(strings.ToLower(product.Brand), needle) {
			continue
		}
		products = append(products, product)
	}

	var nextToken string
	if len(products) > pageSize {
		products = products[:pageSize]
		last := products[len(products)-1]
		encoded, err := encodePageToken(last.CreatedAt, last.ID)
		if err != nil {
			return domain.CursorPage[domain.Product]{}, err
		}
		nextToken = encoded
	}

	return domain.CursorPage[domain.Product]{Items: products, NextPageToken: nextToken}, nil
}

// Helper structures ---------------------------------------------------------

type productDocument struct {
	Name        string    `firestore:"name"`
	Slug        string    `firestore:"slug"`
	Brand       string    `firestore:"brand,omitempty"`
	Description string    `firestore:"description,omitempty"`
	FamilyID    string    `firestore:"familyId,omitempty"`
	FormulaID   string    `firestore:"formulaId,omitempty"`
	ScentTypeID string    `firestore:"scentTypeId,omitempty"`
	NotesTop    []string  `firestore:"notesTop,omitempty"`
	NotesHeart  []string  `firestore:"notesHeart,omitempty"`
	NotesBase   []string  `firestore:"notesBase,omitempty"`
	ImagePaths  []string  `firestore:"imagePaths,omitempty"`
	Published   bool      `firestore:"published"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func newProductDocument(product domain.Product) productDocument {
	return productDocument{
		Name:        strings.TrimSpace(product.Name),
		Slug:        strings.TrimSpace(product.Slug),
		Brand:       strings.TrimSpace(product.Brand),
		Description: product.Description,
		FamilyID:    strings.TrimSpace(product.FamilyID),
		FormulaID:   strings.TrimSpace(product.FormulaID),
		ScentTypeID: strings.TrimSpace(product.ScentTypeID),
		NotesTop:    append([]string(nil), product.Notes.Top...),
		NotesHeart:  append([]string(nil), product.Notes.Heart...),
		NotesBase:   append([]string(nil), product.Notes.Base...),
		ImagePaths:  append([]string(nil), product.ImagePaths...),
		Published:   product.Published,
		CreatedAt:   product.CreatedAt.UTC(),
		UpdatedAt:   product.UpdatedAt.UTC(),
	}
}

func (d productDocument) toDomain(id string) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        d.Name,
		Slug:        d.Slug,
		Brand:       d.Brand,
		Description: d.Description,
		FamilyID:    d.FamilyID,
		FormulaID:   d.FormulaID,
		ScentTypeID: d.ScentTypeID,
		Notes: domain.IngredientNotes{
			Top:   append([]string(nil), d.NotesTop...),
			Heart: append([]string(nil), d.NotesHeart...),
			Base:  append([]string(nil), d.NotesBase...),
		},
		ImagePaths: append([]string(nil), d.ImagePaths...),
		Published:  d.Published,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

// Ensure interface compliance.
var _ repositories.ProductRepository = (*ProductRepository)(nil)
