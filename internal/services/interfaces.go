package services

import (
	"context"
	"time"

	domain "github.com/aromelle/api/internal/domain"
	"github.com/aromelle/api/internal/platform/events"
	"github.com/aromelle/api/internal/repositories"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination      = domain.Pagination
	Product         = domain.Product
	Inventory       = domain.Inventory
	FragranceFamily = domain.FragranceFamily
	Formula         = domain.Formula
	ScentType       = domain.ScentType
	Cart            = domain.Cart
	CartLine        = domain.CartLine
	CartEstimate    = domain.CartEstimate
	PromotionCode   = domain.PromotionCode
	PromotionStatus = domain.PromotionStatus
	PromotionUsage  = domain.PromotionUsage
	Order           = domain.Order
	OrderItem       = domain.OrderItem
	OrderTotals     = domain.OrderTotals
	PaymentStatus   = domain.PaymentStatus
	ShippingStatus  = domain.ShippingStatus
	Address         = domain.Address
	UserProfile     = domain.UserProfile
	Favorite        = domain.Favorite
	Advertisement   = domain.Advertisement
	HeroImage       = domain.HeroImage
)

// CatalogService manages the fragrance catalog: products, purchasable
// inventory units, and the facet collections the storefront filters on.
type CatalogService interface {
	ListProducts(ctx context.Context, filter ProductListFilter) (domain.CursorPage[ProductSummary], error)
	GetProduct(ctx context.Context, query ProductQuery) (ProductDetail, error)
	ListFacets(ctx context.Context) (CatalogFacets, error)

	UpsertProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error)
	DeleteProduct(ctx context.Context, productID string) error
	UpsertInventory(ctx context.Context, cmd UpsertInventoryCommand) (Inventory, error)
	DeleteInventory(ctx context.Context, inventoryID string) error
}

// CartService manages per-user cart lines while enforcing stock ceilings.
type CartService interface {
	GetCart(ctx context.Context, userID string) (CartView, error)
	// AddItem merges the quantity into the user's cart and reports whether
	// a new line was created (false when merged into an existing line).
	AddItem(ctx context.Context, cmd AddCartItemCommand) (CartView, bool, error)
	SetItemQuantity(ctx context.Context, cmd SetCartQuantityCommand) (CartView, error)
	SetSelection(ctx context.Context, cmd SetCartSelectionCommand) (CartView, error)
	RemoveItem(ctx context.Context, cmd RemoveCartItemCommand) (CartView, error)
}

// PromotionService validates promotion codes for checkout and exposes the
// admin lifecycle operations.
type PromotionService interface {
	Validate(ctx context.Context, cmd ValidatePromotionCommand) (PromotionValidation, error)
	ListPromotions(ctx context.Context, pager Pagination) (domain.CursorPage[PromotionCode], error)
	CreatePromotion(ctx context.Context, cmd UpsertPromotionCommand) (PromotionCode, error)
	UpdatePromotion(ctx context.Context, cmd UpsertPromotionCommand) (PromotionCode, error)
	DeletePromotion(ctx context.Context, promotionID string) error
	ListUsage(ctx context.Context, filter PromotionUsageFilter) (domain.CursorPage[PromotionUsage], error)
}

// CheckoutService turns selected cart lines into orders and coordinates the
// hosted payment session lifecycle.
type CheckoutService interface {
	CreateSession(ctx context.Context, cmd CreateCheckoutCommand) (CheckoutResult, error)
	RetryPayment(ctx context.Context, cmd RetryPaymentCommand) (CheckoutResult, error)
	ConfirmBySession(ctx context.Context, sessionID string) (Order, error)
	FailBySession(ctx context.Context, sessionID string) (Order, error)
	// CancelOrder voids an order that has not started fulfilment, refunding
	// the payment through the provider when one was captured.
	CancelOrder(ctx context.Context, cmd CancelOrderCommand) (Order, error)
	ReconcilePending(ctx context.Context, olderThan time.Duration) (ReconcileReport, error)
}

// OrderService serves order reads for users and admins plus fulfilment
// status transitions.
type OrderService interface {
	ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error)
	GetOrder(ctx context.Context, query OrderQuery) (Order, error)
	BatchTransitionStatus(ctx context.Context, cmd BatchTransitionCommand) (BatchTransitionResult, error)
}

// InventoryService centralises the stock hold lifecycle used by checkout and
// admin stock adjustments.
type InventoryService interface {
	Reserve(ctx context.Context, cmd ReserveStockCommand) error
	Commit(ctx context.Context, orderID string) error
	Release(ctx context.Context, orderID string) error
	AdjustStock(ctx context.Context, cmd AdjustStockCommand) (Inventory, error)
}

// UserService manages profiles, shipping addresses, and favorites.
type UserService interface {
	EnsureProfile(ctx context.Context, cmd EnsureProfileCommand) (UserProfile, error)
	GetProfile(ctx context.Context, userID string) (UserProfile, error)
	UpdateProfile(ctx context.Context, cmd UpdateProfileCommand) (UserProfile, error)
	ListUsers(ctx context.Context, filter UserListFilter) (domain.CursorPage[UserProfile], error)
	SetRole(ctx context.Context, cmd SetRoleCommand) (UserProfile, error)

	ListAddresses(ctx context.Context, userID string) ([]Address, error)
	CreateAddress(ctx context.Context, cmd UpsertAddressCommand) (Address, error)
	UpdateAddress(ctx context.Context, cmd UpsertAddressCommand) (Address, error)
	DeleteAddress(ctx context.Context, cmd DeleteAddressCommand) error
	SetDefaultAddress(ctx context.Context, cmd SetDefaultAddressCommand) (Address, error)

	ListFavorites(ctx context.Context, userID string, pager Pagination) (domain.CursorPage[FavoriteProduct], error)
	ToggleFavorite(ctx context.Context, cmd ToggleFavoriteCommand) (bool, error)
}

// ContentService serves storefront advertisements and hero images.
type ContentService interface {
	ListAdvertisements(ctx context.Context, activeOnly bool) ([]Advertisement, error)
	UpsertAdvertisement(ctx context.Context, cmd UpsertAdvertisementCommand) (Advertisement, error)
	DeleteAdvertisement(ctx context.Context, adID string) error

	ListHeroImages(ctx context.Context, activeOnly bool) ([]HeroImage, error)
	UpsertHeroImage(ctx context.Context, cmd UpsertHeroImageCommand) (HeroImage, error)
	DeleteHeroImage(ctx context.Context, heroID string) error
}

// MediaService issues signed storage URLs for catalog and content imagery.
type MediaService interface {
	IssueUpload(ctx context.Context, cmd MediaUploadCommand) (SignedMedia, error)
	IssueDownload(ctx context.Context, cmd MediaDownloadCommand) (SignedMedia, error)
	PromoteUpload(ctx context.Context, cmd PromoteUploadCommand) (string, error)
}

// CounterService hands out monotonic sequence values and formatted order numbers.
type CounterService interface {
	Next(ctx context.Context, scope, name string, opts CounterGenerationOptions) (CounterValue, error)
	NextOrderNumber(ctx context.Context) (string, error)
}

// SystemService aggregates utility endpoints such as health checks.
type SystemService interface {
	HealthReport(ctx context.Context) (HealthReport, error)
}

// OrderEventPublisher accepts order lifecycle notifications for downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event events.OrderEvent) error
}

// Command and DTO definitions ------------------------------------------------

type ProductListFilter struct {
	FamilyID    *string
	FormulaID   *string
	ScentTypeID *string
	Query       string
	// IncludeUnpublished is only honoured for admin callers.
	IncludeUnpublished bool
	Pagination         Pagination
}

// ProductSummary is a product joined with the price range of its inventory units.
type ProductSummary struct {
	Product
	MinPrice int64
	MaxPrice int64
	InStock  bool
}

type ProductQuery struct {
	ProductID          string
	Slug               string
	IncludeUnpublished bool
}

// ProductDetail is a product with its purchasable units.
type ProductDetail struct {
	Product
	Inventory []Inventory
}

type CatalogFacets struct {
	Families   []FragranceFamily
	Formulas   []Formula
	ScentTypes []ScentType
}

type UpsertProductCommand struct {
	ProductID   *string
	Name        string
	Slug        string
	Brand       string
	Description string
	FamilyID    string
	FormulaID   string
	ScentTypeID string
	Notes       domain.IngredientNotes
	ImagePaths  []string
	Published   bool
	ActorID     string
}

type UpsertInventoryCommand struct {
	InventoryID *string
	ProductID   string
	SKU         string
	SizeML      int
	Price       int64
	Currency    string
	Stock       *int
	ActorID     string
}

// CartView pairs cart lines with the catalog data needed to render them.
type CartView struct {
	Cart
	Items []CartItemView
}

// CartItemView joins a cart line with its product and inventory snapshot.
type CartItemView struct {
	Line      CartLine
	Product   Product
	Inventory Inventory
	LineTotal int64
}

type AddCartItemCommand struct {
	UserID      string
	InventoryID string
	Quantity    int
}

type SetCartQuantityCommand struct {
	UserID      string
	InventoryID string
	Quantity    int
}

type SetCartSelectionCommand struct {
	UserID       string
	InventoryIDs []string
	Selected     bool
}

type RemoveCartItemCommand struct {
	UserID      string
	InventoryID string
}

type ValidatePromotionCommand struct {
	Code     string
	UserID   string
	Subtotal int64
}

// PromotionValidation reports the derived status of a code and the discount
// it would produce against the supplied subtotal.
type PromotionValidation struct {
	Promotion PromotionCode
	Status    PromotionStatus
	Discount  int64
}

type UpsertPromotionCommand struct {
	PromotionID        *string
	Code               string
	Description        string
	DiscountPercentage int
	StartsAt           time.Time
	EndsAt             time.Time
	UsageLimit         int
	ActorID            string
}

type PromotionUsageFilter struct {
	PromotionID string
	Pagination  Pagination
}

type CreateCheckoutCommand struct {
	UserID        string
	AddressID     string
	PromotionCode string
	// PayLater creates the order without opening a payment session.
	PayLater bool
	Locale   string
}

type RetryPaymentCommand struct {
	UserID  string
	OrderID string
}

// CancelOrderCommand voids an order on behalf of an administrator. Reason is
// forwarded to the payment provider when a refund is issued.
type CancelOrderCommand struct {
	OrderID string
	ActorID string
	Reason  string
}

// CheckoutResult reports the created order and, when a hosted session was
// opened, where to send the customer.
type CheckoutResult struct {
	Order       Order
	SessionID   string
	RedirectURL string
	ExpiresAt   time.Time
}

// ReconcileReport summarises a reconciliation sweep over pending orders.
type ReconcileReport struct {
	Scanned   int
	Confirmed int
	Failed    int
	Skipped   int
}

type OrderListFilter = repositories.OrderListFilter

type OrderQuery struct {
	OrderID string
	// UserID, when set, restricts the read to the order owner.
	UserID string
}

type BatchTransitionCommand struct {
	OrderIDs []string
	Target   ShippingStatus
	ActorID  string
}

// BatchTransitionResult reports per-order outcomes; the batch is not atomic.
type BatchTransitionResult struct {
	Results []OrderTransition
}

type OrderTransition struct {
	OrderID string
	From    ShippingStatus
	To      ShippingStatus
	Err     error
}

type ReserveStockCommand struct {
	OrderID    string
	Quantities map[string]int
}

type AdjustStockCommand struct {
	InventoryID string
	Stock       int
	ActorID     string
}

type EnsureProfileCommand struct {
	UserID      string
	Email       string
	DisplayName string
	PhotoURL    string
	Locale      string
}

type UpdateProfileCommand struct {
	UserID      string
	DisplayName *string
	Locale      *string
}

type UserListFilter = repositories.UserListFilter

type SetRoleCommand struct {
	UserID  string
	Role    domain.Role
	ActorID string
}

type UpsertAddressCommand struct {
	UserID     string
	AddressID  *string
	Recipient  string
	Phone      string
	Line1      string
	Line2      string
	District   string
	Province   string
	PostalCode string
	IsDefault  bool
}

type DeleteAddressCommand struct {
	UserID    string
	AddressID string
}

type SetDefaultAddressCommand struct {
	UserID    string
	AddressID string
}

// FavoriteProduct joins a bookmark with the product it points at.
type FavoriteProduct struct {
	Favorite
	Product Product
}

type ToggleFavoriteCommand struct {
	UserID    string
	ProductID string
}

type UpsertAdvertisementCommand struct {
	AdID      *string
	Title     string
	ImagePath string
	LinkURL   string
	StartsAt  time.Time
	EndsAt    time.Time
	Active    bool
	SortOrder int
	ActorID   string
}

type UpsertHeroImageCommand struct {
	HeroID    *string
	ImagePath string
	LinkURL   string
	Active    bool
	SortOrder int
	ActorID   string
}

type MediaUploadCommand struct {
	Purpose     string
	ProductID   string
	ContentID   string
	FileName    string
	ContentType string
	ActorID     string
}

type MediaDownloadCommand struct {
	ObjectPath string
	ActorID    string
}

type PromoteUploadCommand struct {
	SourcePath string
	Purpose    string
	ProductID  string
	ContentID  string
	FileName   string
	ActorID    string
}

// SignedMedia carries a time-limited URL for a storage object.
type SignedMedia struct {
	URL        string
	ObjectPath string
	Method     string
	ExpiresAt  time.Time
	Headers    map[string]string
}

// CounterGenerationOptions controls how counter values are incremented and formatted.
type CounterGenerationOptions struct {
	Step      int64
	Prefix    string
	Suffix    string
	PadLength int
	Formatter func(now time.Time, value int64) string
}

// CounterValue is a sequence value with its formatted representation.
type CounterValue struct {
	Value     int64
	Formatted string
}

// HealthReport summarises dependency health for readiness probes.
type HealthReport struct {
	Status      string
	Detail      string
	Version     string
	CommitSHA   string
	Environment string
	Uptime      time.Duration
	GeneratedAt time.Time
}
