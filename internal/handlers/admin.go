package handlers

import (
	"github.com/go-chi/chi/v5"

	"github.com/aromelle/api/internal/platform/auth"
	"github.com/aromelle/api/internal/services"
)

// AdminHandlers serves the back-office surface. Every route requires the
// admin role.
type AdminHandlers struct {
	authn      *auth.Authenticator
	catalog    services.CatalogService
	inventory  services.InventoryService
	promotions services.PromotionService
	orders     services.OrderService
	checkout   services.CheckoutService
	users      services.UserService
	content    services.ContentService
	media      services.MediaService
}

type AdminHandlersDeps struct {
	Authenticator *auth.Authenticator
	Catalog       services.CatalogService
	Inventory     services.InventoryService
	Promotions    services.PromotionService
	Orders        services.OrderService
	Checkout      services.CheckoutService
	Users         services.UserService
	Content       services.ContentService
	Media         services.MediaService
}

func NewAdminHandlers(deps AdminHandlersDeps) *AdminHandlers {
	return &AdminHandlers{
		authn:      deps.Authenticator,
		catalog:    deps.Catalog,
		inventory:  deps.Inventory,
		promotions: deps.Promotions,
		orders:     deps.Orders,
		checkout:   deps.Checkout,
		users:      deps.Users,
		content:    deps.Content,
		media:      deps.Media,
	}
}

func (h *AdminHandlers) Routes(r chi.Router) {
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth(auth.RoleAdmin))
	}

	r.Route("/products", func(pr chi.Router) {
		pr.Get("/", h.ListProducts)
		pr.Post("/", h.CreateProduct)
		pr.Get("/{productID}", h.GetProduct)
		pr.Put("/{productID}", h.UpdateProduct)
		pr.Delete("/{productID}", h.DeleteProduct)
		pr.Post("/{productID}/inventory", h.CreateInventory)
	})

	r.Route("/inventory", func(ir chi.Router) {
		ir.Put("/{inventoryID}", h.UpdateInventory)
		ir.Delete("/{inventoryID}", h.DeleteInventory)
		ir.Post("/{inventoryID}/stock", h.AdjustStock)
	})

	r.Route("/promotions", func(pr chi.Router) {
		pr.Get("/", h.ListPromotions)
		pr.Post("/", h.CreatePromotion)
		pr.Put("/{promotionID}", h.UpdatePromotion)
		pr.Delete("/{promotionID}", h.DeletePromotion)
		pr.Get("/{promotionID}/usage", h.ListPromotionUsage)
	})

	r.Route("/orders", func(or chi.Router) {
		or.Get("/", h.ListOrders)
		or.Get("/{orderID}", h.GetOrder)
		or.Post("/status-batch", h.BatchTransitionStatus)
		or.Post("/{orderID}/cancel", h.CancelOrder)
	})

	r.Route("/users", func(ur chi.Router) {
		ur.Get("/", h.ListUsers)
		ur.Put("/{userID}/role", h.SetRole)
	})

	r.Route("/advertisements", func(ar chi.Router) {
		ar.Get("/", h.ListAdvertisements)
		ar.Post("/", h.CreateAdvertisement)
		ar.Put("/{adID}", h.UpdateAdvertisement)
		ar.Delete("/{adID}", h.DeleteAdvertisement)
	})

	r.Route("/hero-images", func(hr chi.Router) {
		hr.Get("/", h.ListHeroImages)
		hr.Post("/", h.CreateHeroImage)
		hr.Put("/{heroID}", h.UpdateHeroImage)
		hr.Delete("/{heroID}", h.DeleteHeroImage)
	})

	r.Route("/media", func(mr chi.Router) {
		mr.Post("/uploads", h.IssueUpload)
		mr.Post("/uploads/promote", h.PromoteUpload)
		mr.Post("/downloads", h.IssueDownload)
	})
}
