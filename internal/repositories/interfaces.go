package repositories

import (
	"context"
	"time"

	domain "github.com/aromelle/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Products() ProductRepository
	Facets() FacetRepository
	Inventory() InventoryRepository
	Carts() CartRepository
	Promotions() PromotionRepository
	PromotionUsage() PromotionUsageRepository
	Orders() OrderRepository
	Users() UserRepository
	Addresses() AddressRepository
	Favorites() FavoriteRepository
	Content() ContentRepository
	Counters() CounterRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProductRepository persists fragrance products.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, productID string) error
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (domain.Product, error)
	List(ctx context.Context, filter ProductListFilter) (domain.CursorPage[domain.Product], error)
}

// FacetRepository serves the catalog lookup collections used for filtering.
type FacetRepository interface {
	ListFamilies(ctx context.Context) ([]domain.FragranceFamily, error)
	ListFormulas(ctx context.Context) ([]domain.Formula, error)
	ListScentTypes(ctx context.Context) ([]domain.ScentType, error)
}

// InventoryRepository manages purchasable units, stock levels, and the
// reservation lifecycle with transactional guarantees.
type InventoryRepository interface {
	Insert(ctx context.Context, inv domain.Inventory) error
	Update(ctx context.Context, inv domain.Inventory) error
	Delete(ctx context.Context, inventoryID string) error
	FindByID(ctx context.Context, inventoryID string) (domain.Inventory, error)
	ListByProduct(ctx context.Context, productID string) ([]domain.Inventory, error)

	// Reserve atomically holds quantities against available stock for every
	// requested unit, or fails without holding anything.
	Reserve(ctx context.Context, req InventoryReserveRequest) error
	// Commit finalises a hold: reserved counts convert into stock decrements.
	Commit(ctx context.Context, orderID string, now time.Time) error
	// Release returns a hold to availability.
	Release(ctx context.Context, orderID string, now time.Time) error
}

// InventoryReserveRequest encapsulates an atomic multi-unit stock hold keyed
// by the order that requested it.
type InventoryReserveRequest struct {
	OrderID    string
	Quantities map[string]int
	Now        time.Time
}

// CartRepository owns per-user cart lines. Mutations that depend on current
// stock run inside a transaction with the inventory document.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (domain.Cart, error)
	// UpsertLine merges a quantity delta into the line for (user, inventory),
	// creating the line when absent. The merged quantity must not exceed the
	// inventory's available stock; on violation the repository returns a
	// conflict and leaves the cart untouched. Reports whether a new line was
	// created.
	UpsertLine(ctx context.Context, userID string, line domain.CartLine) (domain.Cart, bool, error)
	// SetLineQuantity replaces a line's quantity under the same stock check.
	SetLineQuantity(ctx context.Context, userID string, inventoryID string, quantity int, now time.Time) (domain.Cart, error)
	SetLineSelection(ctx context.Context, userID string, inventoryIDs []string, selected bool, now time.Time) (domain.Cart, error)
	RemoveLine(ctx context.Context, userID string, inventoryID string) error
	RemoveLines(ctx context.Context, userID string, inventoryIDs []string) error
}

// PromotionRepository maintains promotion code definitions.
type PromotionRepository interface {
	Insert(ctx context.Context, promo domain.PromotionCode) error
	Update(ctx context.Context, promo domain.PromotionCode) error
	Delete(ctx context.Context, promotionID string) error
	FindByID(ctx context.Context, promotionID string) (domain.PromotionCode, error)
	FindByCode(ctx context.Context, code string) (domain.PromotionCode, error)
	List(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.PromotionCode], error)
}

// PromotionUsageRepository records per-user redemptions to enforce the
// one-use-per-user rule.
type PromotionUsageRepository interface {
	// Record creates the usage entry for (promotion, user) and bumps the
	// aggregate count; an existing entry is a conflict.
	Record(ctx context.Context, usage domain.PromotionUsage) (domain.PromotionUsage, error)
	// Release removes the usage entry for (promotion, user) and reverses the
	// aggregate count, but only when the entry was recorded for the given
	// order. A missing entry or one held by another order is a no-op.
	Release(ctx context.Context, promotionID, userID, orderID string) error
	Find(ctx context.Context, promotionID string, userID string) (domain.PromotionUsage, error)
	List(ctx context.Context, promotionID string, pager domain.Pagination) (domain.CursorPage[domain.PromotionUsage], error)
}

// OrderRepository persists order documents with query helpers for users and admins.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	FindBySessionID(ctx context.Context, sessionID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
}

// UserRepository stores user profiles.
type UserRepository interface {
	FindByID(ctx context.Context, userID string) (domain.UserProfile, error)
	Upsert(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error)
	List(ctx context.Context, filter UserListFilter) (domain.CursorPage[domain.UserProfile], error)
}

// AddressRepository stores shipping addresses per user. SetDefault must be
// atomic: unsetting the previous default and setting the new one happen in
// one transaction.
type AddressRepository interface {
	List(ctx context.Context, userID string) ([]domain.Address, error)
	Get(ctx context.Context, userID string, addressID string) (domain.Address, error)
	Insert(ctx context.Context, addr domain.Address) (domain.Address, error)
	Update(ctx context.Context, addr domain.Address) (domain.Address, error)
	Delete(ctx context.Context, userID string, addressID string) error
	HasAny(ctx context.Context, userID string) (bool, error)
	SetDefault(ctx context.Context, userID string, addressID string, now time.Time) (domain.Address, error)
}

// FavoriteRepository tracks bookmarked products per user.
type FavoriteRepository interface {
	List(ctx context.Context, userID string, pager domain.Pagination) (domain.CursorPage[domain.Favorite], error)
	Find(ctx context.Context, userID string, productID string) (domain.Favorite, error)
	Put(ctx context.Context, fav domain.Favorite) (domain.Favorite, error)
	Delete(ctx context.Context, userID string, productID string) error
}

// ContentRepository stores storefront advertisements and hero images.
type ContentRepository interface {
	ListAdvertisements(ctx context.Context, activeOnly bool) ([]domain.Advertisement, error)
	UpsertAdvertisement(ctx context.Context, ad domain.Advertisement) (domain.Advertisement, error)
	DeleteAdvertisement(ctx context.Context, adID string) error

	ListHeroImages(ctx context.Context, activeOnly bool) ([]domain.HeroImage, error)
	UpsertHeroImage(ctx context.Context, hero domain.HeroImage) (domain.HeroImage, error)
	DeleteHeroImage(ctx context.Context, heroID string) error
}

// CounterRepository provides transaction-safe sequence numbers.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
}

// HealthRepository exposes status of downstream dependencies for health checks.
type HealthRepository interface {
	Ping(ctx context.Context) error
}

// Filter DTOs shared across repositories ------------------------------------

type ProductListFilter struct {
	FamilyID      *string
	FormulaID     *string
	ScentTypeID   *string
	Query         string
	OnlyPublished bool
	Pagination    domain.Pagination
}

type OrderListFilter struct {
	UserID         string
	PaymentStatus  []domain.PaymentStatus
	ShippingStatus []domain.ShippingStatus
	CreatedAfter   *time.Time
	CreatedBefore  *time.Time
	Pagination     domain.Pagination
}

type UserListFilter struct {
	Role       *domain.Role
	Query      string
	Pagination domain.Pagination
}
