package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	domain "github.com/aromelle/api/internal/domain"
	"github.com/aromelle/api/internal/platform/auth"
	"github.com/aromelle/api/internal/services"
)

// Function-field stubs for the service interfaces. Tests set only the
// methods a route exercises; hitting an unset method fails loudly.

type stubCatalogService struct {
	listProducts    func(ctx context.Context, filter services.ProductListFilter) (domain.CursorPage[services.ProductSummary], error)
	getProduct      func(ctx context.Context, query services.ProductQuery) (services.ProductDetail, error)
	listFacets      func(ctx context.Context) (services.CatalogFacets, error)
	upsertProduct   func(ctx context.Context, cmd services.UpsertProductCommand) (domain.Product, error)
	deleteProduct   func(ctx context.Context, productID string) error
	upsertInventory func(ctx context.Context, cmd services.UpsertInventoryCommand) (domain.Inventory, error)
	deleteInventory func(ctx context.Context, inventoryID string) error
}

func (s *stubCatalogService) ListProducts(ctx context.Context, filter services.ProductListFilter) (domain.CursorPage[services.ProductSummary], error) {
	return s.listProducts(ctx, filter)
}

func (s *stubCatalogService) GetProduct(ctx context.Context, query services.ProductQuery) (services.ProductDetail, error) {
	return s.getProduct(ctx, query)
}

func (s *stubCatalogService) ListFacets(ctx context.Context) (services.CatalogFacets, error) {
	return s.listFacets(ctx)
}

func (s *stubCatalogService) UpsertProduct(ctx context.Context, cmd services.UpsertProductCommand) (domain.Product, error) {
	return s.upsertProduct(ctx, cmd)
}

func (s *stubCatalogService) DeleteProduct(ctx context.Context, productID string) error {
	return s.deleteProduct(ctx, productID)
}

func (s *stubCatalogService) UpsertInventory(ctx context.Context, cmd services.UpsertInventoryCommand) (domain.Inventory, error) {
	return s.upsertInventory(ctx, cmd)
}

func (s *stubCatalogService) DeleteInventory(ctx context.Context, inventoryID string) error {
	return s.deleteInventory(ctx, inventoryID)
}

type stubCartService struct {
	getCart         func(ctx context.Context, userID string) (services.CartView, error)
	addItem         func(ctx context.Context, cmd services.AddCartItemCommand) (services.CartView, bool, error)
	setItemQuantity func(ctx context.Context, cmd services.SetCartQuantityCommand) (services.CartView, error)
	setSelection    func(ctx context.Context, cmd services.SetCartSelectionCommand) (services.CartView, error)
	removeItem      func(ctx context.Context, cmd services.RemoveCartItemCommand) (services.CartView, error)
}

func (s *stubCartService) GetCart(ctx context.Context, userID string) (services.CartView, error) {
	return s.getCart(ctx, userID)
}

func (s *stubCartService) AddItem(ctx context.Context, cmd services.AddCartItemCommand) (services.CartView, bool, error) {
	return s.addItem(ctx, cmd)
}

func (s *stubCartService) SetItemQuantity(ctx context.Context, cmd services.SetCartQuantityCommand) (services.CartView, error) {
	return s.setItemQuantity(ctx, cmd)
}

func (s *stubCartService) SetSelection(ctx context.Context, cmd services.SetCartSelectionCommand) (services.CartView, error) {
	return s.setSelection(ctx, cmd)
}

func (s *stubCartService) RemoveItem(ctx context.Context, cmd services.RemoveCartItemCommand) (services.CartView, error) {
	return s.removeItem(ctx, cmd)
}

type stubPromotionService struct {
	validate        func(ctx context.Context, cmd services.ValidatePromotionCommand) (services.PromotionValidation, error)
	listPromotions  func(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.PromotionCode], error)
	createPromotion func(ctx context.Context, cmd services.UpsertPromotionCommand) (domain.PromotionCode, error)
	updatePromotion func(ctx context.Context, cmd services.UpsertPromotionCommand) (domain.PromotionCode, error)
	deletePromotion func(ctx context.Context, promotionID string) error
	listUsage       func(ctx context.Context, filter services.PromotionUsageFilter) (domain.CursorPage[domain.PromotionUsage], error)
}

func (s *stubPromotionService) Validate(ctx context.Context, cmd services.ValidatePromotionCommand) (services.PromotionValidation, error) {
	return s.validate(ctx, cmd)
}

func (s *stubPromotionService) ListPromotions(ctx context.Context, pager domain.Pagination) (domain.CursorPage[domain.PromotionCode], error) {
	return s.listPromotions(ctx, pager)
}

func (s *stubPromotionService) CreatePromotion(ctx context.Context, cmd services.UpsertPromotionCommand) (domain.PromotionCode, error) {
	return s.createPromotion(ctx, cmd)
}

func (s *stubPromotionService) UpdatePromotion(ctx context.Context, cmd services.UpsertPromotionCommand) (domain.PromotionCode, error) {
	return s.updatePromotion(ctx, cmd)
}

func (s *stubPromotionService) DeletePromotion(ctx context.Context, promotionID string) error {
	return s.deletePromotion(ctx, promotionID)
}

func (s *stubPromotionService) ListUsage(ctx context.Context, filter services.PromotionUsageFilter) (domain.CursorPage[domain.PromotionUsage], error) {
	return s.listUsage(ctx, filter)
}

type stubCheckoutService struct {
	createSession    func(ctx context.Context, cmd services.CreateCheckoutCommand) (services.CheckoutResult, error)
	retryPayment     func(ctx context.Context, cmd services.RetryPaymentCommand) (services.CheckoutResult, error)
	confirmBySession func(ctx context.Context, sessionID string) (domain.Order, error)
	failBySession    func(ctx context.Context, sessionID string) (domain.Order, error)
	cancelOrder      func(ctx context.Context, cmd services.CancelOrderCommand) (domain.Order, error)
	reconcilePending func(ctx context.Context, olderThan time.Duration) (services.ReconcileReport, error)
}

func (s *stubCheckoutService) CreateSession(ctx context.Context, cmd services.CreateCheckoutCommand) (services.CheckoutResult, error) {
	return s.createSession(ctx, cmd)
}

func (s *stubCheckoutService) RetryPayment(ctx context.Context, cmd services.RetryPaymentCommand) (services.CheckoutResult, error) {
	return s.retryPayment(ctx, cmd)
}

func (s *stubCheckoutService) ConfirmBySession(ctx context.Context, sessionID string) (domain.Order, error) {
	return s.confirmBySession(ctx, sessionID)
}

func (s *stubCheckoutService) FailBySession(ctx context.Context, sessionID string) (domain.Order, error) {
	return s.failBySession(ctx, sessionID)
}

func (s *stubCheckoutService) CancelOrder(ctx context.Context, cmd services.CancelOrderCommand) (domain.Order, error) {
	return s.cancelOrder(ctx, cmd)
}

func (s *stubCheckoutService) ReconcilePending(ctx context.Context, olderThan time.Duration) (services.ReconcileReport, error) {
	return s.reconcilePending(ctx, olderThan)
}

type stubOrderService struct {
	listOrders            func(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[domain.Order], error)
	getOrder              func(ctx context.Context, query services.OrderQuery) (domain.Order, error)
	batchTransitionStatus func(ctx context.Context, cmd services.BatchTransitionCommand) (services.BatchTransitionResult, error)
}

func (s *stubOrderService) ListOrders(ctx context.Context, filter services.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	return s.listOrders(ctx, filter)
}

func (s *stubOrderService) GetOrder(ctx context.Context, query services.OrderQuery) (domain.Order, error) {
	return s.getOrder(ctx, query)
}

func (s *stubOrderService) BatchTransitionStatus(ctx context.Context, cmd services.BatchTransitionCommand) (services.BatchTransitionResult, error) {
	return s.batchTransitionStatus(ctx, cmd)
}

type stubInventoryService struct {
	reserve     func(ctx context.Context, cmd services.ReserveStockCommand) error
	commit      func(ctx context.Context, orderID string) error
	release     func(ctx context.Context, orderID string) error
	adjustStock func(ctx context.Context, cmd services.AdjustStockCommand) (domain.Inventory, error)
}

func (s *stubInventoryService) Reserve(ctx context.Context, cmd services.ReserveStockCommand) error {
	return s.reserve(ctx, cmd)
}

func (s *stubInventoryService) Commit(ctx context.Context, orderID string) error {
	return s.commit(ctx, orderID)
}

func (s *stubInventoryService) Release(ctx context.Context, orderID string) error {
	return s.release(ctx, orderID)
}

func (s *stubInventoryService) AdjustStock(ctx context.Context, cmd services.AdjustStockCommand) (domain.Inventory, error) {
	return s.adjustStock(ctx, cmd)
}

type stubUserService struct {
	ensureProfile     func(ctx context.Context, cmd services.EnsureProfileCommand) (domain.UserProfile, error)
	getProfile        func(ctx context.Context, userID string) (domain.UserProfile, error)
	updateProfile     func(ctx context.Context, cmd services.UpdateProfileCommand) (domain.UserProfile, error)
	listUsers         func(ctx context.Context, filter services.UserListFilter) (domain.CursorPage[domain.UserProfile], error)
	setRole           func(ctx context.Context, cmd services.SetRoleCommand) (domain.UserProfile, error)
	listAddresses     func(ctx context.Context, userID string) ([]domain.Address, error)
	createAddress     func(ctx context.Context, cmd services.UpsertAddressCommand) (domain.Address, error)
	updateAddress     func(ctx context.Context, cmd services.UpsertAddressCommand) (domain.Address, error)
	deleteAddress     func(ctx context.Context, cmd services.DeleteAddressCommand) error
	setDefaultAddress func(ctx context.Context, cmd services.SetDefaultAddressCommand) (domain.Address, error)
	listFavorites     func(ctx context.Context, userID string, pager domain.Pagination) (domain.CursorPage[services.FavoriteProduct], error)
	toggleFavorite    func(ctx context.Context, cmd services.ToggleFavoriteCommand) (bool, error)
}

func (s *stubUserService) EnsureProfile(ctx context.Context, cmd services.EnsureProfileCommand) (domain.UserProfile, error) {
	return s.ensureProfile(ctx, cmd)
}

func (s *stubUserService) GetProfile(ctx context.Context, userID string) (domain.UserProfile, error) {
	return s.getProfile(ctx, userID)
}

func (s *stubUserService) UpdateProfile(ctx context.Context, cmd services.UpdateProfileCommand) (domain.UserProfile, error) {
	return s.updateProfile(ctx, cmd)
}

func (s *stubUserService) ListUsers(ctx context.Context, filter services.UserListFilter) (domain.CursorPage[domain.UserProfile], error) {
	return s.listUsers(ctx, filter)
}

func (s *stubUserService) SetRole(ctx context.Context, cmd services.SetRoleCommand) (domain.UserProfile, error) {
	return s.setRole(ctx, cmd)
}

func (s *stubUserService) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	return s.listAddresses(ctx, userID)
}

func (s *stubUserService) CreateAddress(ctx context.Context, cmd services.UpsertAddressCommand) (domain.Address, error) {
	return s.createAddress(ctx, cmd)
}

func (s *stubUserService) UpdateAddress(ctx context.Context, cmd services.UpsertAddressCommand) (domain.Address, error) {
	return s.updateAddress(ctx, cmd)
}

func (s *stubUserService) DeleteAddress(ctx context.Context, cmd services.DeleteAddressCommand) error {
	return s.deleteAddress(ctx, cmd)
}

func (s *stubUserService) SetDefaultAddress(ctx context.Context, cmd services.SetDefaultAddressCommand) (domain.Address, error) {
	return s.setDefaultAddress(ctx, cmd)
}

func (s *stubUserService) ListFavorites(ctx context.Context, userID string, pager domain.Pagination) (domain.CursorPage[services.FavoriteProduct], error) {
	return s.listFavorites(ctx, userID, pager)
}

func (s *stubUserService) ToggleFavorite(ctx context.Context, cmd services.ToggleFavoriteCommand) (bool, error) {
	return s.toggleFavorite(ctx, cmd)
}

type stubContentService struct {
	listAdvertisements  func(ctx context.Context, activeOnly bool) ([]domain.Advertisement, error)
	upsertAdvertisement func(ctx context.Context, cmd services.UpsertAdvertisementCommand) (domain.Advertisement, error)
	deleteAdvertisement func(ctx context.Context, adID string) error
	listHeroImages      func(ctx context.Context, activeOnly bool) ([]domain.HeroImage, error)
	upsertHeroImage     func(ctx context.Context, cmd services.UpsertHeroImageCommand) (domain.HeroImage, error)
	deleteHeroImage     func(ctx context.Context, heroID string) error
}

func (s *stubContentService) ListAdvertisements(ctx context.Context, activeOnly bool) ([]domain.Advertisement, error) {
	return s.listAdvertisements(ctx, activeOnly)
}

func (s *stubContentService) UpsertAdvertisement(ctx context.Context, cmd services.UpsertAdvertisementCommand) (domain.Advertisement, error) {
	return s.upsertAdvertisement(ctx, cmd)
}

func (s *stubContentService) DeleteAdvertisement(ctx context.Context, adID string) error {
	return s.deleteAdvertisement(ctx, adID)
}

func (s *stubContentService) ListHeroImages(ctx context.Context, activeOnly bool) ([]domain.HeroImage, error) {
	return s.listHeroImages(ctx, activeOnly)
}

func (s *stubContentService) UpsertHeroImage(ctx context.Context, cmd services.UpsertHeroImageCommand) (domain.HeroImage, error) {
	return s.upsertHeroImage(ctx, cmd)
}

func (s *stubContentService) DeleteHeroImage(ctx context.Context, heroID string) error {
	return s.deleteHeroImage(ctx, heroID)
}

type stubMediaService struct {
	issueUpload   func(ctx context.Context, cmd services.MediaUploadCommand) (services.SignedMedia, error)
	issueDownload func(ctx context.Context, cmd services.MediaDownloadCommand) (services.SignedMedia, error)
	promoteUpload func(ctx context.Context, cmd services.PromoteUploadCommand) (string, error)
}

func (s *stubMediaService) IssueUpload(ctx context.Context, cmd services.MediaUploadCommand) (services.SignedMedia, error) {
	return s.issueUpload(ctx, cmd)
}

func (s *stubMediaService) IssueDownload(ctx context.Context, cmd services.MediaDownloadCommand) (services.SignedMedia, error) {
	return s.issueDownload(ctx, cmd)
}

func (s *stubMediaService) PromoteUpload(ctx context.Context, cmd services.PromoteUploadCommand) (string, error) {
	return s.promoteUpload(ctx, cmd)
}

type stubSystemService struct {
	healthReport func(ctx context.Context) (services.HealthReport, error)
}

func (s *stubSystemService) HealthReport(ctx context.Context) (services.HealthReport, error) {
	return s.healthReport(ctx)
}

// newAuthedRequest builds a request carrying an authenticated identity, the
// way the auth middleware would after verifying a token.
func newAuthedRequest(method, target string, body io.Reader, identity *auth.Identity) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(auth.WithIdentity(req.Context(), identity))
}

func newIdentity(uid string, roles ...string) *auth.Identity {
	if len(roles) == 0 {
		roles = []string{auth.RoleUser}
	}
	return &auth.Identity{
		UID:    uid,
		Email:  uid + "@example.com",
		Locale: "th-TH",
		Roles:  roles,
	}
}
