package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// CursorPage is a generic cursor-paginated result set.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// Role identifies the coarse access level of an authenticated user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// UserProfile stores account data mirrored from the identity provider plus
// storefront preferences.
type UserProfile struct {
	ID          string
	Email       string
	DisplayName string
	PhotoURL    string
	Role        Role
	// Locale is a normalised BCP-47 tag, e.g. "th-TH".
	Locale    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FragranceFamily is a catalog facet (floral, woody, citrus, ...).
type FragranceFamily struct {
	ID        string
	Name      string
	Slug      string
	SortOrder int
}

// Formula is the concentration tier of a fragrance (EDP, EDT, parfum, cologne).
type Formula struct {
	ID        string
	Name      string
	Slug      string
	SortOrder int
}

// ScentType is a secondary catalog facet (fresh, warm, sweet, ...).
type ScentType struct {
	ID        string
	Name      string
	Slug      string
	SortOrder int
}

// IngredientNotes groups the note pyramid of a fragrance.
type IngredientNotes struct {
	Top   []string
	Heart []string
	Base  []string
}

// Product is a fragrance in the catalog. Purchasable variants live in
// Inventory; a product with no inventory units cannot be carted.
type Product struct {
	ID          string
	Name        string
	Slug        string
	Brand       string
	Description string
	FamilyID    string
	FormulaID   string
	ScentTypeID string
	Notes       IngredientNotes
	// ImagePaths are object paths in the assets bucket, not public URLs.
	ImagePaths []string
	Published  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Inventory is a purchasable unit of a product at a specific bottle size.
// Price is in minor currency units (satang for THB).
type Inventory struct {
	ID        string
	ProductID string
	SKU       string
	SizeML    int
	Price     int64
	Currency  string
	// Stock is the on-hand count. Reserved is the portion held by
	// checkouts that have not yet been confirmed or released.
	Stock     int
	Reserved  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Available reports the stock a cart mutation or checkout may still claim.
func (i Inventory) Available() int {
	avail := i.Stock - i.Reserved
	if avail < 0 {
		return 0
	}
	return avail
}

// CartLine is one user's chosen quantity of one inventory unit. Lines are
// unique per (user, inventory); re-adding the same unit merges quantities.
type CartLine struct {
	ID          string
	ProductID   string
	InventoryID string
	Quantity    int
	// Selected marks the line for inclusion in the next checkout.
	Selected  bool
	AddedAt   time.Time
	UpdatedAt time.Time
}

// Cart aggregates a user's lines with a derived estimate.
type Cart struct {
	UserID    string
	Lines     []CartLine
	Estimate  CartEstimate
	UpdatedAt time.Time
}

// CartEstimate is the derived pricing of the selected lines, in minor
// currency units.
type CartEstimate struct {
	Currency         string
	SelectedSubtotal int64
	ItemCount        int
}

// PromotionStatus classifies a promotion code against the clock.
type PromotionStatus string

const (
	PromotionNotYetValid PromotionStatus = "NOT_YET_VALID"
	PromotionActive      PromotionStatus = "ACTIVE"
	PromotionExpired     PromotionStatus = "EXPIRED"
)

// PromotionCode is a percentage discount token with a validity window.
type PromotionCode struct {
	ID                 string
	Code               string
	Description        string
	DiscountPercentage int
	StartsAt           time.Time
	EndsAt             time.Time
	// UsageLimit caps total redemptions across all users; zero means
	// unlimited. Per-user reuse is always capped at one.
	UsageLimit int
	UsageCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// StatusAt derives the window classification for the given instant. Any
// persisted status field is advisory; callers must derive.
func (p PromotionCode) StatusAt(now time.Time) PromotionStatus {
	switch {
	case now.Before(p.StartsAt):
		return PromotionNotYetValid
	case now.After(p.EndsAt):
		return PromotionExpired
	default:
		return PromotionActive
	}
}

// PromotionUsage records that a user consumed a promotion code. At most one
// usage exists per (promotion, user).
type PromotionUsage struct {
	ID          string
	PromotionID string
	Code        string
	UserID      string
	OrderID     string
	UsedAt      time.Time
}

// PaymentStatus tracks the provider-reported state of an order's payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// ShippingStatus is the fulfilment state of a paid order.
type ShippingStatus string

const (
	ShippingPending   ShippingStatus = "PENDING"
	ShippingShipped   ShippingStatus = "SHIPPED"
	ShippingTransit   ShippingStatus = "TRANSIT"
	ShippingDelivered ShippingStatus = "DELIVERED"
	// ShippingCancelled is terminal and only reachable from PENDING via an
	// admin cancellation; it never participates in the forward fulfilment
	// transitions.
	ShippingCancelled ShippingStatus = "CANCELLED"
)

// OrderItem snapshots one purchased inventory unit. UnitPrice is copied
// from the inventory at order creation; later price edits never alter it.
type OrderItem struct {
	InventoryID string
	ProductID   string
	ProductName string
	SKU         string
	SizeML      int
	ImagePath   string
	UnitPrice   int64
	Quantity    int
}

// OrderTotals is the order's monetary summary in minor currency units.
// Discount is a single rounding of the aggregate, not a sum of per-item
// roundings.
type OrderTotals struct {
	Currency string
	Subtotal int64
	Discount int64
	Total    int64
}

// OrderPromotion snapshots the promotion applied at order creation.
type OrderPromotion struct {
	PromotionID        string
	Code               string
	DiscountPercentage int
}

// OrderAddress snapshots the shipping destination at order creation.
type OrderAddress struct {
	Recipient  string
	Phone      string
	Line1      string
	Line2      string
	District   string
	Province   string
	PostalCode string
}

// Order is created at checkout initiation and reconciled against the
// payment provider afterwards.
type Order struct {
	ID             string
	Number         string
	UserID         string
	Items          []OrderItem
	Totals         OrderTotals
	Promotion      *OrderPromotion
	Address        OrderAddress
	PaymentStatus  PaymentStatus
	ShippingStatus ShippingStatus
	// CheckoutSessionID is the provider-hosted session for the most
	// recent payment attempt (initial checkout or pay-later retry).
	CheckoutSessionID string
	StatusTimestamps  map[ShippingStatus]time.Time
	PaidAt            *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Address is a shipping destination. At most one address per user carries
// IsDefault.
type Address struct {
	ID         string
	UserID     string
	Recipient  string
	Phone      string
	Line1      string
	Line2      string
	District   string
	Province   string
	PostalCode string
	IsDefault  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Favorite marks a product a user has bookmarked.
type Favorite struct {
	ID        string
	UserID    string
	ProductID string
	CreatedAt time.Time
}

// Advertisement is a scheduled storefront banner.
type Advertisement struct {
	ID        string
	Title     string
	ImagePath string
	LinkURL   string
	StartsAt  time.Time
	EndsAt    time.Time
	Active    bool
	SortOrder int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActiveAt reports whether the advertisement should be served at the given
// instant. Zero window bounds are open-ended.
func (a Advertisement) ActiveAt(now time.Time) bool {
	if !a.Active {
		return false
	}
	if !a.StartsAt.IsZero() && now.Before(a.StartsAt) {
		return false
	}
	if !a.EndsAt.IsZero() && now.After(a.EndsAt) {
		return false
	}
	return true
}

// HeroImage is a storefront carousel entry.
type HeroImage struct {
	ID        string
	ImagePath string
	LinkURL   string
	Active    bool
	SortOrder int
	CreatedAt time.Time
	UpdatedAt time.Time
}
