package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/aromelle/api/internal/domain"
	"github.com/aromelle/api/internal/repositories"
)

var (
	// ErrCatalogInvalidInput signals a malformed catalog command.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCatalogNotFound indicates the product or inventory unit does not exist.
	ErrCatalogNotFound = errors.New("catalog: not found")
	// ErrCatalogDuplicateSlug indicates another product already owns the slug.
	ErrCatalogDuplicateSlug = errors.New("catalog: duplicate slug")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// CatalogServiceDeps bundles the repositories backing the catalog service.
type CatalogServiceDeps struct {
	Products    repositories.ProductRepository
	Facets      repositories.FacetRepository
	Inventory   repositories.InventoryRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type catalogService struct {
	products  repositories.ProductRepository
	facets    repositories.FacetRepository
	inventory repositories.InventoryRepository
	clock     func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
	sanitizer *bluemonday.Policy
}

// NewCatalogService wires a CatalogService over the product, facet, and
// inventory repositories.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}
	if deps.Facets == nil {
		return nil, errors.New("catalog service: facet repository is required")
	}
	if deps.Inventory == nil {
		return nil, errors.New("catalog service: inventory repository is required")
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

	return &catalogService{
		products:  deps.Products,
		facets:    deps.Facets,
		inventory: deps.Inventory,
		clock:     func() time.Time { return clock().UTC() },
		newID:     idGen,
		logger:    logger,
		sanitizer: bluemonday.UGCPolicy(),
	}, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter ProductListFilter) (domain.CursorPage[ProductSummary], error) {
	repoFilter := repositories.ProductListFilter{
		FamilyID:      filter.FamilyID,
		FormulaID:     filter.FormulaID,
		ScentTypeID:   filter.ScentTypeID,
		Query:         strings.TrimSpace(filter.Query),
		OnlyPublished: !filter.IncludeUnpublished,
		Pagination:    filter.Pagination,
	}

	page, err := s.products.List(ctx, repoFilter)
	if err != nil {
		return domain.CursorPage[ProductSummary]{}, err
	}

	summaries := make([]ProductSummary, 0, len(page.Items))
	for _, product := range page.Items {
		summary := ProductSummary{Product: product}
		units, err := s.inventory.ListByProduct(ctx, product.ID)
		if err != nil {
			return domain.CursorPage[ProductSummary]{}, err
		}
		for _, unit := range units {
			if summary.MinPrice == 0 || unit.Price < summary.MinPrice {
				summary.MinPrice = unit.Price
			}
			if unit.Price > summary.MaxPrice {
				summary.MaxPrice = unit.Price
			}
			if unit.Available() > 0 {
				summary.InStock = true
			}
		}
		summaries = append(summaries, summary)
	}

	return domain.CursorPage[ProductSummary]{
		Items:         summaries,
		NextPageToken: page.NextPageToken,
	}, nil
}

func (s *catalogService) GetProduct(ctx context.Context, query ProductQuery) (ProductDetail, error) {
	var (
		product domain.Product
		err     error
	)
	switch {
	case strings.TrimSpace(query.ProductID) != "":
		product, err = s.products.FindByID(ctx, strings.TrimSpace(query.ProductID))
	case strings.TrimSpace(query.Slug) != "":
		product, err = s.products.FindBySlug(ctx, strings.TrimSpace(query.Slug))
	default:
		return ProductDetail{}, fmt.Errorf("%w: product id or slug is required", ErrCatalogInvalidInput)
	}
	if err != nil {
		return ProductDetail{}, s.mapRepositoryError(err)
	}

	if !product.Published && !query.IncludeUnpublished {
		return ProductDetail{}, ErrCatalogNotFound
	}

	units, err := s.inventory.ListByProduct(ctx, product.ID)
	if err != nil {
		return ProductDetail{}, err
	}

	return ProductDetail{Product: product, Inventory: units}, nil
}

func (s *catalogService) ListFacets(ctx context.Context) (CatalogFacets, error) {
	families, err := s.facets.ListFamilies(ctx)
	if err != nil {
		return CatalogFacets{}, err
	}
	formulas, err := s.facets.ListFormulas(ctx)
	if err != nil {
		return CatalogFacets{}, err
	}
	scentTypes, err := s.facets.ListScentTypes(ctx)
	if err != nil {
		return CatalogFacets{}, err
	}
	return CatalogFacets{
		Families:   families,
		Formulas:   formulas,
		ScentTypes: scentTypes,
	}, nil
}

func (s *catalogService) UpsertProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error) {
	product, err := s.buildProduct(cmd)
	if err != nil {
		return Product{}, err
	}

	now := s.clock()

	if cmd.ProductID == nil || strings.TrimSpace(*cmd.ProductID) == "" {
		product.ID = "prod_" + s.newID()
		product.CreatedAt = now
		product.UpdatedAt = now
		if err := s.products.Insert(ctx, product); err != nil {
			if isConflict(err) {
				return Product{}, fmt.Errorf("%w: %s", ErrCatalogDuplicateSlug, product.Slug)
			}
			return Product{}, err
		}
		s.logger(ctx, "catalog.product.created", map[string]any{
			"productId": product.ID,
			"slug":      product.Slug,
			"actorId":   cmd.ActorID,
		})
		return product, nil
	}

	existing, err := s.products.FindByID(ctx, strings.TrimSpace(*cmd.ProductID))
	if err != nil {
		return Product{}, s.mapRepositoryError(err)
	}

	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = now
	if err := s.products.Update(ctx, product); err != nil {
		if isConflict(err) {
			return Product{}, fmt.Errorf("%w: %s", ErrCatalogDuplicateSlug, product.Slug)
		}
		return Product{}, s.mapRepositoryError(err)
	}

	s.logger(ctx, "catalog.product.updated", map[string]any{
		"productId": product.ID,
		"actorId":   cmd.ActorID,
	})
	return product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}

	units, err := s.inventory.ListByProduct(ctx, productID)
	if err != nil {
		return err
	}
	for _, unit := range units {
		if unit.Reserved > 0 {
			return fmt.Errorf("%w: inventory %s has active holds", ErrCatalogInvalidInput, unit.ID)
		}
	}
	for _, unit := range units {
		if err := s.inventory.Delete(ctx, unit.ID); err != nil {
			return s.mapRepositoryError(err)
		}
	}

	if err := s.products.Delete(ctx, productID); err != nil {
		return s.mapRepositoryError(err)
	}
	s.logger(ctx, "catalog.product.deleted", map[string]any{"productId": productID})
	return nil
}

func (s *catalogService) UpsertInventory(ctx context.Context, cmd UpsertInventoryCommand) (Inventory, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return Inventory{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	sku := strings.ToUpper(strings.TrimSpace(cmd.SKU))
	if sku == "" {
		return Inventory{}, fmt.Errorf("%w: sku is required", ErrCatalogInvalidInput)
	}
	if cmd.SizeML <= 0 {
		return Inventory{}, fmt.Errorf("%w: size must be positive", ErrCatalogInvalidInput)
	}
	if cmd.Price <= 0 {
		return Inventory{}, fmt.Errorf("%w: price must be positive", ErrCatalogInvalidInput)
	}
	currency := strings.ToUpper(strings.TrimSpace(cmd.Currency))
	if currency == "" {
		return Inventory{}, fmt.Errorf("%w: currency is required", ErrCatalogInvalidInput)
	}
	if cmd.Stock != nil && *cmd.Stock < 0 {
		return Inventory{}, fmt.Errorf("%w: stock must be >= 0", ErrCatalogInvalidInput)
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return Inventory{}, s.mapRepositoryError(err)
	}

	now := s.clock()

	if cmd.InventoryID == nil || strings.TrimSpace(*cmd.InventoryID) == "" {
		inv := domain.Inventory{
			ID:        "inv_" + s.newID(),
			ProductID: productID,
			SKU:       sku,
			SizeML:    cmd.SizeML,
			Price:     cmd.Price,
			Currency:  currency,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if cmd.Stock != nil {
			inv.Stock = *cmd.Stock
		}
		if err := s.inventory.Insert(ctx, inv); err != nil {
			return Inventory{}, s.mapRepositoryError(err)
		}
		s.logger(ctx, "catalog.inventory.created", map[string]any{
			"inventoryId": inv.ID,
			"productId":   productID,
			"sku":         sku,
			"actorId":     cmd.ActorID,
		})
		return inv, nil
	}

	existing, err := s.inventory.FindByID(ctx, strings.TrimSpace(*cmd.InventoryID))
	if err != nil {
		return Inventory{}, s.mapRepositoryError(err)
	}

	existing.ProductID = productID
	existing.SKU = sku
	existing.SizeML = cmd.SizeML
	existing.Price = cmd.Price
	existing.Currency = currency
	if cmd.Stock != nil {
		if *cmd.Stock < existing.Reserved {
			return Inventory{}, fmt.Errorf("%w: stock %d is below reserved %d", ErrCatalogInvalidInput, *cmd.Stock, existing.Reserved)
		}
		existing.Stock = *cmd.Stock
	}
	existing.UpdatedAt = now

	if err := s.inventory.Update(ctx, existing); err != nil {
		return Inventory{}, s.mapRepositoryError(err)
	}
	s.logger(ctx, "catalog.inventory.updated", map[string]any{
		"inventoryId": existing.ID,
		"actorId":     cmd.ActorID,
	})
	return existing, nil
}

func (s *catalogService) DeleteInventory(ctx context.Context, inventoryID string) error {
	inventoryID = strings.TrimSpace(inventoryID)
	if inventoryID == "" {
		return fmt.Errorf("%w: inventory id is required", ErrCatalogInvalidInput)
	}

	inv, err := s.inventory.FindByID(ctx, inventoryID)
	if err != nil {
		return s.mapRepositoryError(err)
	}
	if inv.Reserved > 0 {
		return fmt.Errorf("%w: inventory %s has active holds", ErrCatalogInvalidInput, inventoryID)
	}

	if err := s.inventory.Delete(ctx, inventoryID); err != nil {
		return s.mapRepositoryError(err)
	}
	s.logger(ctx, "catalog.inventory.deleted", map[string]any{"inventoryId": inventoryID})
	return nil
}

func (s *catalogService) buildProduct(cmd UpsertProductCommand) (domain.Product, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: name is required", ErrCatalogInvalidInput)
	}
	slug := strings.ToLower(strings.TrimSpace(cmd.Slug))
	if slug == "" {
		slug = slugify(name)
	}
	if !slugPattern.MatchString(slug) {
		return domain.Product{}, fmt.Errorf("%w: slug %q is malformed", ErrCatalogInvalidInput, slug)
	}
	if strings.TrimSpace(cmd.FamilyID) == "" {
		return domain.Product{}, fmt.Errorf("%w: family id is required", ErrCatalogInvalidInput)
	}

	return domain.Product{
		Name:        name,
		Slug:        slug,
		Brand:       strings.TrimSpace(cmd.Brand),
		Description: s.sanitizer.Sanitize(strings.TrimSpace(cmd.Description)),
		FamilyID:    strings.TrimSpace(cmd.FamilyID),
		FormulaID:   strings.TrimSpace(cmd.FormulaID),
		ScentTypeID: strings.TrimSpace(cmd.ScentTypeID),
		Notes:       cmd.Notes,
		ImagePaths:  cmd.ImagePaths,
		Published:   cmd.Published,
	}, nil
}

func (s *catalogService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return ErrCatalogNotFound
	}
	return err
}

func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
