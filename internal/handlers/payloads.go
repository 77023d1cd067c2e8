package handlers

import (
	domain "github.com/aromelle/api/internal/domain"
	"github.com/aromelle/api/internal/services"
)

// JSON projections of the domain models shared across handler groups.

type productPayload struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Slug        string               `json:"slug"`
	Brand       string               `json:"brand,omitempty"`
	Description string               `json:"description,omitempty"`
	FamilyID    string               `json:"family_id,omitempty"`
	FormulaID   string               `json:"formula_id,omitempty"`
	ScentTypeID string               `json:"scent_type_id,omitempty"`
	Notes       ingredientNotesView  `json:"notes"`
	ImagePaths  []string             `json:"image_paths,omitempty"`
	Published   bool                 `json:"published"`
	CreatedAt   string               `json:"created_at,omitempty"`
	UpdatedAt   string               `json:"updated_at,omitempty"`
}

type ingredientNotesView struct {
	Top   []string `json:"top,omitempty"`
	Heart []string `json:"heart,omitempty"`
	Base  []string `json:"base,omitempty"`
}

func newProductPayload(p domain.Product) productPayload {
	return productPayload{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Brand:       p.Brand,
		Description: p.Description,
		FamilyID:    p.FamilyID,
		FormulaID:   p.FormulaID,
		ScentTypeID: p.ScentTypeID,
		Notes:       ingredientNotesView{Top: p.Notes.Top, Heart: p.Notes.Heart, Base: p.Notes.Base},
		ImagePaths:  p.ImagePaths,
		Published:   p.Published,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
}

type inventoryPayload struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
	SizeML    int    `json:"size_ml"`
	Price     int64  `json:"price"`
	Currency  string `json:"currency"`
	Stock     int    `json:"stock"`
	Reserved  int    `json:"reserved"`
	Available int    `json:"available"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func newInventoryPayload(inv domain.Inventory) inventoryPayload {
	return inventoryPayload{
		ID:        inv.ID,
		ProductID: inv.ProductID,
		SKU:       inv.SKU,
		SizeML:    inv.SizeML,
		Price:     inv.Price,
		Currency:  inv.Currency,
		Stock:     inv.Stock,
		Reserved:  inv.Reserved,
		Available: inv.Available(),
		CreatedAt: formatTime(inv.CreatedAt),
		UpdatedAt: formatTime(inv.UpdatedAt),
	}
}

type cartItemPayload struct {
	LineID      string           `json:"line_id"`
	InventoryID string           `json:"inventory_id"`
	Quantity    int              `json:"quantity"`
	Selected    bool             `json:"selected"`
	LineTotal   int64            `json:"line_total"`
	Product     productPayload   `json:"product"`
	Inventory   inventoryPayload `json:"inventory"`
	AddedAt     string           `json:"added_at,omitempty"`
	UpdatedAt   string           `json:"updated_at,omitempty"`
}

type cartPayload struct {
	UserID    string            `json:"user_id"`
	Items     []cartItemPayload `json:"items"`
	Estimate  cartEstimateView  `json:"estimate"`
	UpdatedAt string            `json:"updated_at,omitempty"`
}

type cartEstimateView struct {
	Currency         string `json:"currency"`
	SelectedSubtotal int64  `json:"selected_subtotal"`
	ItemCount        int    `json:"item_count"`
}

func newCartPayload(view services.CartView) cartPayload {
	items := make([]cartItemPayload, 0, len(view.Items))
	for _, item := range view.Items {
		items = append(items, cartItemPayload{
			LineID:      item.Line.ID,
			InventoryID: item.Line.InventoryID,
			Quantity:    item.Line.Quantity,
			Selected:    item.Line.Selected,
			LineTotal:   item.LineTotal,
			Product:     newProductPayload(item.Product),
			Inventory:   newInventoryPayload(item.Inventory),
			AddedAt:     formatTime(item.Line.AddedAt),
			UpdatedAt:   formatTime(item.Line.UpdatedAt),
		})
	}
	return cartPayload{
		UserID: view.UserID,
		Items:  items,
		Estimate: cartEstimateView{
			Currency:         view.Estimate.Currency,
			SelectedSubtotal: view.Estimate.SelectedSubtotal,
			ItemCount:        view.Estimate.ItemCount,
		},
		UpdatedAt: formatTime(view.Cart.UpdatedAt),
	}
}

type orderItemPayload struct {
	InventoryID string `json:"inventory_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	SKU         string `json:"sku"`
	SizeML      int    `json:"size_ml"`
	ImagePath   string `json:"image_path,omitempty"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
}

type orderTotalsPayload struct {
	Currency string `json:"currency"`
	Subtotal int64  `json:"subtotal"`
	Discount int64  `json:"discount"`
	Total    int64  `json:"total"`
}

type orderPromotionPayload struct {
	PromotionID        string `json:"promotion_id"`
	Code               string `json:"code"`
	DiscountPercentage int    `json:"discount_percentage"`
}

type orderAddressPayload struct {
	Recipient  string `json:"recipient"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	District   string `json:"district"`
	Province   string `json:"province"`
	PostalCode string `json:"postal_code"`
}

type orderPayload struct {
	ID                string                 `json:"id"`
	Number            string                 `json:"number"`
	UserID            string                 `json:"user_id"`
	Items             []orderItemPayload     `json:"items"`
	Totals            orderTotalsPayload     `json:"totals"`
	Promotion         *orderPromotionPayload `json:"promotion,omitempty"`
	Address           orderAddressPayload    `json:"address"`
	PaymentStatus     string                 `json:"payment_status"`
	ShippingStatus    string                 `json:"shipping_status"`
	CheckoutSessionID string                 `json:"checkout_session_id,omitempty"`
	StatusTimestamps  map[string]string      `json:"status_timestamps,omitempty"`
	PaidAt            string                 `json:"paid_at,omitempty"`
	CreatedAt         string                 `json:"created_at,omitempty"`
	UpdatedAt         string                 `json:"updated_at,omitempty"`
}

func newOrderPayload(order domain.Order) orderPayload {
	items := make([]orderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemPayload{
			InventoryID: item.InventoryID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			SKU:         item.SKU,
			SizeML:      item.SizeML,
			ImagePath:   item.ImagePath,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}

	var promo *orderPromotionPayload
	if order.Promotion != nil {
		promo = &orderPromotionPayload{
			PromotionID:        order.Promotion.PromotionID,
			Code:               order.Promotion.Code,
			DiscountPercentage: order.Promotion.DiscountPercentage,
		}
	}

	var stamps map[string]string
	if len(order.StatusTimestamps) > 0 {
		stamps = make(map[string]string, len(order.StatusTimestamps))
		for status, at := range order.StatusTimestamps {
			stamps[string(status)] = formatTime(at)
		}
	}

	return orderPayload{
		ID:     order.ID,
		Number: order.Number,
		UserID: order.UserID,
		Items:  items,
		Totals: orderTotalsPayload{
			Currency: order.Totals.Currency,
			Subtotal: order.Totals.Subtotal,
			Discount: order.Totals.Discount,
			Total:    order.Totals.Total,
		},
		Promotion: promo,
		Address: orderAddressPayload{
			Recipient:  order.Address.Recipient,
			Phone:      order.Address.Phone,
			Line1:      order.Address.Line1,
			Line2:      order.Address.Line2,
			District:   order.Address.District,
			Province:   order.Address.Province,
			PostalCode: order.Address.PostalCode,
		},
		PaymentStatus:     string(order.PaymentStatus),
		ShippingStatus:    string(order.ShippingStatus),
		CheckoutSessionID: order.CheckoutSessionID,
		StatusTimestamps:  stamps,
		PaidAt:            formatTime(pointerTime(order.PaidAt)),
		CreatedAt:         formatTime(order.CreatedAt),
		UpdatedAt:         formatTime(order.UpdatedAt),
	}
}

type addressPayload struct {
	ID         string `json:"id"`
	Recipient  string `json:"recipient"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	District   string `json:"district"`
	Province   string `json:"province"`
	PostalCode string `json:"postal_code"`
	IsDefault  bool   `json:"is_default"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

func newAddressPayload(addr domain.Address) addressPayload {
	return addressPayload{
		ID:         addr.ID,
		Recipient:  addr.Recipient,
		Phone:      addr.Phone,
		Line1:      addr.Line1,
		Line2:      addr.Line2,
		District:   addr.District,
		Province:   addr.Province,
		PostalCode: addr.PostalCode,
		IsDefault:  addr.IsDefault,
		CreatedAt:  formatTime(addr.CreatedAt),
		UpdatedAt:  formatTime(addr.UpdatedAt),
	}
}

type promotionPayload struct {
	ID                 string `json:"id"`
	Code               string `json:"code"`
	Description        string `json:"description,omitempty"`
	DiscountPercentage int    `json:"discount_percentage"`
	StartsAt           string `json:"starts_at"`
	EndsAt             string `json:"ends_at"`
	UsageLimit         int    `json:"usage_limit"`
	UsageCount         int    `json:"usage_count"`
	CreatedAt          string `json:"created_at,omitempty"`
	UpdatedAt          string `json:"updated_at,omitempty"`
}

func newPromotionPayload(promo domain.PromotionCode) promotionPayload {
	return promotionPayload{
		ID:                 promo.ID,
		Code:               promo.Code,
		Description:        promo.Description,
		DiscountPercentage: promo.DiscountPercentage,
		StartsAt:           formatTime(promo.StartsAt),
		EndsAt:             formatTime(promo.EndsAt),
		UsageLimit:         promo.UsageLimit,
		UsageCount:         promo.UsageCount,
		CreatedAt:          formatTime(promo.CreatedAt),
		UpdatedAt:          formatTime(promo.UpdatedAt),
	}
}

type advertisementPayload struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	ImagePath string `json:"image_path"`
	LinkURL   string `json:"link_url,omitempty"`
	StartsAt  string `json:"starts_at,omitempty"`
	EndsAt    string `json:"ends_at,omitempty"`
	Active    bool   `json:"active"`
	SortOrder int    `json:"sort_order"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func newAdvertisementPayload(ad domain.Advertisement) advertisementPayload {
	return advertisementPayload{
		ID:        ad.ID,
		Title:     ad.Title,
		ImagePath: ad.ImagePath,
		LinkURL:   ad.LinkURL,
		StartsAt:  formatTime(ad.StartsAt),
		EndsAt:    formatTime(ad.EndsAt),
		Active:    ad.Active,
		SortOrder: ad.SortOrder,
		CreatedAt: formatTime(ad.CreatedAt),
		UpdatedAt: formatTime(ad.UpdatedAt),
	}
}

type heroImagePayload struct {
	ID        string `json:"id"`
	ImagePath string `json:"image_path"`
	LinkURL   string `json:"link_url,omitempty"`
	Active    bool   `json:"active"`
	SortOrder int    `json:"sort_order"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

func newHeroImagePayload(hero domain.HeroImage) heroImagePayload {
	return heroImagePayload{
		ID:        hero.ID,
		ImagePath: hero.ImagePath,
		LinkURL:   hero.LinkURL,
		Active:    hero.Active,
		SortOrder: hero.SortOrder,
		CreatedAt: formatTime(hero.CreatedAt),
		UpdatedAt: formatTime(hero.UpdatedAt),
	}
}

type profilePayload struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
	Role        string `json:"role"`
	Locale      string `json:"locale,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

func newProfilePayload(profile domain.UserProfile) profilePayload {
	return profilePayload{
		ID:          profile.ID,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		PhotoURL:    profile.PhotoURL,
		Role:        string(profile.Role),
		Locale:      profile.Locale,
		CreatedAt:   formatTime(profile.CreatedAt),
		UpdatedAt:   formatTime(profile.UpdatedAt),
	}
}
