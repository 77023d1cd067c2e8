package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	domain "github.com/aromelle/api/internal/domain"
	pfirestore "github.com/aromelle/api/internal/platform/firestore"
	"github.com/aromelle/api/internal/repositories"
)

const (
	familyCollection    = "fragranceFamilies"
	formulaCollection   = "formulas"
	scentTypeCollection = "scentTypes"
)

// FacetRepository serves the small lookup collections backing catalog filters.
type FacetRepository struct {
	families   *pfirestore.BaseRepository[facetDocument]
	formulas   *pfirestore.BaseRepository[facetDocument]
	scentTypes *pfirestore.BaseRepository[facetDocument]
}

// NewFacetRepository constructs a Firestore-backed facet repository.
func NewFacetRepository(provider *pfirestore.Provider) (*FacetRepository, error) {
	if provider == nil {
		return nil, errors.New("facet repository requires firestore provider")
	}
	return &FacetRepository{
		families:   pfirestore.NewBaseRepository[facetDocument](provider, familyCollection, nil, nil),
		formulas:   pfirestore.NewBaseRepository[facetDocument](provider, formulaCollection, nil, nil),
		scentTypes: pfirestore.NewBaseRepository[facetDocument](provider, scentTypeCollection, nil, nil),
	}, nil
}

func (r *FacetRepository) ListFamilies(ctx context.Context) ([]domain.FragranceFamily, error) {
	docs, err := r.listSorted(ctx, r.families, "facets.families")
	if err != nil {
		return nil, err
	}
	families := make([]domain.FragranceFamily, len(docs))
	for i, doc := range docs {
		families[i] = domain.FragranceFamily(doc)
	}
	return families, nil
}

func (r *FacetRepository) ListFormulas(ctx context.Context) ([]domain.Formula, error) {
	docs, err := r.listSorted(ctx, r.formulas, "facets.formulas")
	if err != nil {
		return nil, err
	}
	formulas := make([]domain.Formula, len(docs))
	for i, doc := range docs {
		formulas[i] = domain.Formula(doc)
	}
	return formulas, nil
}

func (r *FacetRepository) ListScentTypes(ctx context.Context) ([]domain.ScentType, error) {
	docs, err := r.listSorted(ctx, r.scentTypes, "facets.scentTypes")
	if err != nil {
		return nil, err
	}
	types := make([]domain.ScentType, len(docs))
	for i, doc := range docs {
		types[i] = domain.ScentType(doc)
	}
	return types, nil
}

func (r *FacetRepository) listSorted(ctx context.Context, base *pfirestore.BaseRepository[facetDocument], op string) ([]facetEntry, error) {
	if r == nil || base == nil {
		return nil, errors.New("facet repository not initialised")
	}
	docs, err := base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("sortOrder", firestore.Asc)
	})
	if err != nil {
		return nil, pfirestore.WrapError(op, err)
	}
	entries := make([]facetEntry, len(docs))
	for i, doc := range docs {
		entries[i] = facetEntry{
			ID:        doc.ID,
			Name:      doc.Data.Name,
			Slug:      doc.Data.Slug,
			SortOrder: doc.Data.SortOrder,
		}
	}
	return entries, nil
}

type facetDocument struct {
	Name      string `firestore:"name"`
	Slug      string `firestore:"slug"`
	SortOrder int    `firestore:"sortOrder"`
}

// facetEntry mirrors the shared shape of the facet domain types.
type facetEntry struct {
	ID        string
	Name      string
	Slug      string
	SortOrder int
}

// Ensure interface compliance.
var _ repositories.FacetRepository = (*FacetRepository)(nil)
