package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	domain "github.com/aromelle/api/internal/domain"
	"github.com/aromelle/api/internal/platform/events"
	"github.com/aromelle/api/internal/repositories"
)

// Shared in-memory stubs for service tests. Error injection goes through the
// *Err fields; typed repository errors come from errNotFound / errConflict.

type repoError struct {
	msg         string
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e *repoError) Error() string       { return e.msg }
func (e *repoError) IsNotFound() bool    { return e.notFound }
func (e *repoError) IsConflict() bool    { return e.conflict }
func (e *repoError) IsUnavailable() bool { return e.unavailable }

func errNotFound(what string) error {
	return &repoError{msg: what + " not found", notFound: true}
}

func errConflict(what string) error {
	return &repoError{msg: what + " conflict", conflict: true}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequenceIDs(prefix string) func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("%s%03d", prefix, n)
	}
}

// --- products ---------------------------------------------------------------

type stubProductRepository struct {
	products   map[string]domain.Product
	listPage   domain.CursorPage[domain.Product]
	listErr    error
	lastFilter repositories.ProductListFilter
	deleted    []string
}

func newStubProductRepository(products ...domain.Product) *stubProductRepository {
	repo := &stubProductRepository{products: make(map[string]domain.Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (s *stubProductRepository) Insert(_ context.Context, product domain.Product) error {
	for _, existing := range s.products {
		if existing.Slug == product.Slug {
			return errConflict("product slug")
		}
	}
	s.products[product.ID] = product
	return nil
}

func (s *stubProductRepository) Update(_ context.Context, product domain.Product) error {
	if _, ok := s.products[product.ID]; !ok {
		return errNotFound("product")
	}
	s.products[product.ID] = product
	return nil
}

func (s *stubProductRepository) Delete(_ context.Context, productID string) error {
	if _, ok := s.products[productID]; !ok {
		return errNotFound("product")
	}
	delete(s.products, productID)
	s.deleted = append(s.deleted, productID)
	return nil
}

func (s *stubProductRepository) FindByID(_ context.Context, productID string) (domain.Product, error) {
	product, ok := s.products[productID]
	if !ok {
		return domain.Product{}, errNotFound("product")
	}
	return product, nil
}

func (s *stubProductRepository) FindBySlug(_ context.Context, slug string) (domain.Product, error) {
	for _, product := range s.products {
		if product.Slug == slug {
			return product, nil
		}
	}
	return domain.Product{}, errNotFound("product")
}

func (s *stubProductRepository) List(_ context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	s.lastFilter = filter
	if s.listErr != nil {
		return domain.CursorPage[domain.Product]{}, s.listErr
	}
	return s.listPage, nil
}

type stubFacetRepository struct {
	families   []domain.FragranceFamily
	formulas   []domain.Formula
	scentTypes []domain.ScentType
}

func (s *stubFacetRepository) ListFamilies(context.Context) ([]domain.FragranceFamily, error) {
	return s.families, nil
}

func (s *stubFacetRepository) ListFormulas(context.Context) ([]domain.Formula, error) {
	return s.formulas, nil
}

func (s *stubFacetRepository) ListScentTypes(context.Context) ([]domain.ScentType, error) {
	return s.scentTypes, nil
}

// --- inventory --------------------------------------------------------------

type stubInventoryRepository struct {
	units      map[string]domain.Inventory
	holds      map[string]map[string]int
	committed  []string
	released   []string
	reserveErr error
}

func newStubInventoryRepository(units ...domain.Inventory) *stubInventoryRepository {
	repo := &stubInventoryRepository{
		units: make(map[string]domain.Inventory),
		holds: make(map[string]map[string]int),
	}
	for _, unit := range units {
		repo.units[unit.ID] = unit
	}
	return repo
}

func (s *stubInventoryRepository) Insert(_ context.Context, inv domain.Inventory) error {
	s.units[inv.ID] = inv
	return nil
}

func (s *stubInventoryRepository) Update(_ context.Context, inv domain.Inventory) error {
	if _, ok := s.units[inv.ID]; !ok {
		return errNotFound("inventory")
	}
	s.units[inv.ID] = inv
	return nil
}

func (s *stubInventoryRepository) Delete(_ context.Context, inventoryID string) error {
	if _, ok := s.units[inventoryID]; !ok {
		return errNotFound("inventory")
	}
	delete(s.units, inventoryID)
	return nil
}

func (s *stubInventoryRepository) FindByID(_ context.Context, inventoryID string) (domain.Inventory, error) {
	inv, ok := s.units[inventoryID]
	if !ok {
		return domain.Inventory{}, errNotFound("inventory")
	}
	return inv, nil
}

func (s *stubInventoryRepository) ListByProduct(_ context.Context, productID string) ([]domain.Inventory, error) {
	var units []domain.Inventory
	for _, unit := range s.units {
		if unit.ProductID == productID {
			units = append(units, unit)
		}
	}
	return units, nil
}

func (s *stubInventoryRepository) Reserve(_ context.Context, req repositories.InventoryReserveRequest) error {
	if s.reserveErr != nil {
		return s.reserveErr
	}
	if _, ok := s.holds[req.OrderID]; ok {
		return repositories.NewInventoryError(repositories.InventoryErrorInvalidHoldState, "hold exists", nil)
	}
	for id, qty := range req.Quantities {
		unit, ok := s.units[id]
		if !ok {
			return repositories.NewInventoryError(repositories.InventoryErrorNotFound, "unit "+id, nil)
		}
		if unit.Available() < qty {
			return repositories.NewInventoryError(repositories.InventoryErrorInsufficientStock, "unit "+id, nil)
		}
	}
	for id, qty := range req.Quantities {
		unit := s.units[id]
		unit.Reserved += qty
		s.units[id] = unit
	}
	s.holds[req.OrderID] = req.Quantities
	return nil
}

func (s *stubInventoryRepository) Commit(_ context.Context, orderID string, _ time.Time) error {
	hold, ok := s.holds[orderID]
	if !ok {
		return repositories.NewInventoryError(repositories.InventoryErrorHoldNotFound, "order "+orderID, nil)
	}
	for id, qty := range hold {
		unit := s.units[id]
		unit.Stock -= qty
		unit.Reserved -= qty
		s.units[id] = unit
	}
	delete(s.holds, orderID)
	s.committed = append(s.committed, orderID)
	return nil
}

func (s *stubInventoryRepository) Release(_ context.Context, orderID string, _ time.Time) error {
	hold, ok := s.holds[orderID]
	if !ok {
		return repositories.NewInventoryError(repositories.InventoryErrorHoldNotFound, "order "+orderID, nil)
	}
	for id, qty := range hold {
		unit := s.units[id]
		unit.Reserved -= qty
		s.units[id] = unit
	}
	delete(s.holds, orderID)
	s.released = append(s.released, orderID)
	return nil
}

// --- carts ------------------------------------------------------------------

type stubCartRepository struct {
	carts        map[string]domain.Cart
	upsertErr    error
	setQtyErr    error
	removeErr    error
	removedLines []string
}

func newStubCartRepository() *stubCartRepository {
	return &stubCartRepository{carts: make(map[string]domain.Cart)}
}

func (s *stubCartRepository) GetCart(_ context.Context, userID string) (domain.Cart, error) {
	cart, ok := s.carts[userID]
	if !ok {
		return domain.Cart{UserID: userID}, nil
	}
	return cart, nil
}

func (s *stubCartRepository) UpsertLine(_ context.Context, userID string, line domain.CartLine) (domain.Cart, bool, error) {
	if s.upsertErr != nil {
		return domain.Cart{}, false, s.upsertErr
	}
	cart := s.carts[userID]
	cart.UserID = userID
	for i, existing := range cart.Lines {
		if existing.InventoryID == line.InventoryID {
			cart.Lines[i].Quantity += line.Quantity
			cart.Lines[i].UpdatedAt = line.UpdatedAt
			s.carts[userID] = cart
			return cart, false, nil
		}
	}
	cart.Lines = append(cart.Lines, line)
	s.carts[userID] = cart
	return cart, true, nil
}

func (s *stubCartRepository) SetLineQuantity(_ context.Context, userID string, inventoryID string, quantity int, now time.Time) (domain.Cart, error) {
	if s.setQtyErr != nil {
		return domain.Cart{}, s.setQtyErr
	}
	cart := s.carts[userID]
	for i, line := range cart.Lines {
		if line.InventoryID == inventoryID {
			cart.Lines[i].Quantity = quantity
			cart.Lines[i].UpdatedAt = now
			s.carts[userID] = cart
			return cart, nil
		}
	}
	return domain.Cart{}, errNotFound("cart line")
}

func (s *stubCartRepository) SetLineSelection(_ context.Context, userID string, inventoryIDs []string, selected bool, now time.Time) (domain.Cart, error) {
	cart := s.carts[userID]
	for _, id := range inventoryIDs {
		for i, line := range cart.Lines {
			if line.InventoryID == id {
				cart.Lines[i].Selected = selected
				cart.Lines[i].UpdatedAt = now
			}
		}
	}
	s.carts[userID] = cart
	return cart, nil
}

func (s *stubCartRepository) RemoveLine(_ context.Context, userID string, inventoryID string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	cart := s.carts[userID]
	for i, line := range cart.Lines {
		if line.InventoryID == inventoryID {
			cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
			s.carts[userID] = cart
			s.removedLines = append(s.removedLines, inventoryID)
			return nil
		}
	}
	return errNotFound("cart line")
}

func (s *stubCartRepository) RemoveLines(_ context.Context, userID string, inventoryIDs []string) error {
	for _, id := range inventoryIDs {
		cart := s.carts[userID]
		for i, line := range cart.Lines {
			if line.InventoryID == id {
				cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
				s.carts[userID] = cart
				break
			}
		}
		s.removedLines = append(s.removedLines, id)
	}
	return nil
}

// --- promotions -------------------------------------------------------------

type stubPromotionRepository struct {
	promos    map[string]domain.PromotionCode
	insertErr error
	updateErr error
	listPage  domain.CursorPage[domain.PromotionCode]
}

func newStubPromotionRepository(promos ...domain.PromotionCode) *stubPromotionRepository {
	repo := &stubPromotionRepository{promos: make(map[string]domain.PromotionCode)}
	for _, p := range promos {
		repo.promos[p.ID] = p
	}
	return repo
}

func (s *stubPromotionRepository) Insert(_ context.Context, promo domain.PromotionCode) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	for _, existing := range s.promos {
		if existing.Code == promo.Code {
			return errConflict("promotion code")
		}
	}
	s.promos[promo.ID] = promo
	return nil
}

func (s *stubPromotionRepository) Update(_ context.Context, promo domain.PromotionCode) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.promos[promo.ID]; !ok {
		return errNotFound("promotion")
	}
	s.promos[promo.ID] = promo
	return nil
}

func (s *stubPromotionRepository) Delete(_ context.Context, promotionID string) error {
	if _, ok := s.promos[promotionID]; !ok {
		return errNotFound("promotion")
	}
	delete(s.promos, promotionID)
	return nil
}

func (s *stubPromotionRepository) FindByID(_ context.Context, promotionID string) (domain.PromotionCode, error) {
	promo, ok := s.promos[promotionID]
	if !ok {
		return domain.PromotionCode{}, errNotFound("promotion")
	}
	return promo, nil
}

func (s *stubPromotionRepository) FindByCode(_ context.Context, code string) (domain.PromotionCode, error) {
	for _, promo := range s.promos {
		if promo.Code == code {
			return promo, nil
		}
	}
	return domain.PromotionCode{}, errNotFound("promotion")
}

func (s *stubPromotionRepository) List(_ context.Context, _ domain.Pagination) (domain.CursorPage[domain.PromotionCode], error) {
	return s.listPage, nil
}

// --- promotion usage --------------------------------------------------------

type stubPromotionUsageRepository struct {
	mu        sync.Mutex
	usages    map[string]domain.PromotionUsage
	recordErr error
}

func newStubPromotionUsageRepository() *stubPromotionUsageRepository {
	return &stubPromotionUsageRepository{usages: make(map[string]domain.PromotionUsage)}
}

func usageKey(promotionID, userID string) string {
	return promotionID + "|" + userID
}

func (s *stubPromotionUsageRepository) Record(_ context.Context, usage domain.PromotionUsage) (domain.PromotionUsage, error) {
	if s.recordErr != nil {
		return domain.PromotionUsage{}, s.recordErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := usageKey(usage.PromotionID, usage.UserID)
	if _, ok := s.usages[key]; ok {
		return domain.PromotionUsage{}, errConflict("promotion usage")
	}
	s.usages[key] = usage
	return usage, nil
}

func (s *stubPromotionUsageRepository) Release(_ context.Context, promotionID, userID, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := usageKey(promotionID, userID)
	if usage, ok := s.usages[key]; ok && usage.OrderID == orderID {
		delete(s.usages, key)
	}
	return nil
}

func (s *stubPromotionUsageRepository) Find(_ context.Context, promotionID string, userID string) (domain.PromotionUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	usage, ok := s.usages[usageKey(promotionID, userID)]
	if !ok {
		return domain.PromotionUsage{}, errNotFound("promotion usage")
	}
	return usage, nil
}

func (s *stubPromotionUsageRepository) List(_ context.Context, promotionID string, _ domain.Pagination) (domain.CursorPage[domain.PromotionUsage], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []domain.PromotionUsage
	for _, usage := range s.usages {
		if usage.PromotionID == promotionID {
			items = append(items, usage)
		}
	}
	return domain.CursorPage[domain.PromotionUsage]{Items: items}, nil
}

// --- orders -----------------------------------------------------------------

type stubOrderRepository struct {
	orders     map[string]domain.Order
	insertErr  error
	updateErr  error
	listFn     func(repositories.OrderListFilter) (domain.CursorPage[domain.Order], error)
	lastFilter repositories.OrderListFilter
}

func newStubOrderRepository(orders ...domain.Order) *stubOrderRepository {
	repo := &stubOrderRepository{orders: make(map[string]domain.Order)}
	for _, o := range orders {
		repo.orders[o.ID] = o
	}
	return repo
}

func (s *stubOrderRepository) Insert(_ context.Context, order domain.Order) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.orders[order.ID] = order
	return nil
}

func (s *stubOrderRepository) Update(_ context.Context, order domain.Order) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.orders[order.ID]; !ok {
		return errNotFound("order")
	}
	s.orders[order.ID] = order
	return nil
}

func (s *stubOrderRepository) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, errNotFound("order")
	}
	return order, nil
}

func (s *stubOrderRepository) FindBySessionID(_ context.Context, sessionID string) (domain.Order, error) {
	for _, order := range s.orders {
		if order.CheckoutSessionID == sessionID {
			return order, nil
		}
	}
	return domain.Order{}, errNotFound("order")
}

func (s *stubOrderRepository) List(_ context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	s.lastFilter = filter
	if s.listFn != nil {
		return s.listFn(filter)
	}
	var items []domain.Order
	for _, order := range s.orders {
		if len(filter.PaymentStatus) > 0 {
			matched := false
			for _, status := range filter.PaymentStatus {
				if order.PaymentStatus == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		if filter.UserID != "" && order.UserID != filter.UserID {
			continue
		}
		items = append(items, order)
	}
	return domain.CursorPage[domain.Order]{Items: items}, nil
}

// --- addresses --------------------------------------------------------------

type stubAddressRepository struct {
	addresses map[string][]domain.Address
}

func newStubAddressRepository(addresses ...domain.Address) *stubAddressRepository {
	repo := &stubAddressRepository{addresses: make(map[string][]domain.Address)}
	for _, addr := range addresses {
		repo.addresses[addr.UserID] = append(repo.addresses[addr.UserID], addr)
	}
	return repo
}

func (s *stubAddressRepository) List(_ context.Context, userID string) ([]domain.Address, error) {
	return append([]domain.Address(nil), s.addresses[userID]...), nil
}

func (s *stubAddressRepository) Get(_ context.Context, userID string, addressID string) (domain.Address, error) {
	for _, addr := range s.addresses[userID] {
		if addr.ID == addressID {
			return addr, nil
		}
	}
	return domain.Address{}, errNotFound("address")
}

func (s *stubAddressRepository) Insert(_ context.Context, addr domain.Address) (domain.Address, error) {
	s.addresses[addr.UserID] = append(s.addresses[addr.UserID], addr)
	return addr, nil
}

func (s *stubAddressRepository) Update(_ context.Context, addr domain.Address) (domain.Address, error) {
	for i, existing := range s.addresses[addr.UserID] {
		if existing.ID == addr.ID {
			s.addresses[addr.UserID][i] = addr
			return addr, nil
		}
	}
	return domain.Address{}, errNotFound("address")
}

func (s *stubAddressRepository) Delete(_ context.Context, userID string, addressID string) error {
	list := s.addresses[userID]
	for i, addr := range list {
		if addr.ID == addressID {
			s.addresses[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return errNotFound("address")
}

func (s *stubAddressRepository) HasAny(_ context.Context, userID string) (bool, error) {
	return len(s.addresses[userID]) > 0, nil
}

func (s *stubAddressRepository) SetDefault(_ context.Context, userID string, addressID string, now time.Time) (domain.Address, error) {
	list := s.addresses[userID]
	var target *domain.Address
	for i := range list {
		list[i].IsDefault = list[i].ID == addressID
		if list[i].IsDefault {
			list[i].UpdatedAt = now
			target = &list[i]
		}
	}
	if target == nil {
		return domain.Address{}, errNotFound("address")
	}
	return *target, nil
}

// --- users & favorites ------------------------------------------------------

type stubUserRepository struct {
	profiles map[string]domain.UserProfile
	listPage domain.CursorPage[domain.UserProfile]
}

func newStubUserRepository(profiles ...domain.UserProfile) *stubUserRepository {
	repo := &stubUserRepository{profiles: make(map[string]domain.UserProfile)}
	for _, p := range profiles {
		repo.profiles[p.ID] = p
	}
	return repo
}

func (s *stubUserRepository) FindByID(_ context.Context, userID string) (domain.UserProfile, error) {
	profile, ok := s.profiles[userID]
	if !ok {
		return domain.UserProfile{}, errNotFound("user")
	}
	return profile, nil
}

func (s *stubUserRepository) Upsert(_ context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	s.profiles[profile.ID] = profile
	return profile, nil
}

func (s *stubUserRepository) List(_ context.Context, _ repositories.UserListFilter) (domain.CursorPage[domain.UserProfile], error) {
	return s.listPage, nil
}

type stubFavoriteRepository struct {
	favorites map[string]domain.Favorite
	putErr    error
}

func newStubFavoriteRepository() *stubFavoriteRepository {
	return &stubFavoriteRepository{favorites: make(map[string]domain.Favorite)}
}

func favoriteKey(userID, productID string) string {
	return userID + "|" + productID
}

func (s *stubFavoriteRepository) List(_ context.Context, userID string, _ domain.Pagination) (domain.CursorPage[domain.Favorite], error) {
	var items []domain.Favorite
	for _, fav := range s.favorites {
		if fav.UserID == userID {
			items = append(items, fav)
		}
	}
	return domain.CursorPage[domain.Favorite]{Items: items}, nil
}

func (s *stubFavoriteRepository) Find(_ context.Context, userID string, productID string) (domain.Favorite, error) {
	fav, ok := s.favorites[favoriteKey(userID, productID)]
	if !ok {
		return domain.Favorite{}, errNotFound("favorite")
	}
	return fav, nil
}

func (s *stubFavoriteRepository) Put(_ context.Context, fav domain.Favorite) (domain.Favorite, error) {
	if s.putErr != nil {
		return domain.Favorite{}, s.putErr
	}
	s.favorites[favoriteKey(fav.UserID, fav.ProductID)] = fav
	return fav, nil
}

func (s *stubFavoriteRepository) Delete(_ context.Context, userID string, productID string) error {
	key := favoriteKey(userID, productID)
	if _, ok := s.favorites[key]; !ok {
		return errNotFound("favorite")
	}
	delete(s.favorites, key)
	return nil
}

// --- content ----------------------------------------------------------------

type stubContentRepository struct {
	ads    []domain.Advertisement
	heroes []domain.HeroImage
}

func (s *stubContentRepository) ListAdvertisements(_ context.Context, activeOnly bool) ([]domain.Advertisement, error) {
	if !activeOnly {
		return append([]domain.Advertisement(nil), s.ads...), nil
	}
	var active []domain.Advertisement
	for _, ad := range s.ads {
		if ad.Active {
			active = append(active, ad)
		}
	}
	return active, nil
}

func (s *stubContentRepository) UpsertAdvertisement(_ context.Context, ad domain.Advertisement) (domain.Advertisement, error) {
	for i, existing := range s.ads {
		if existing.ID == ad.ID {
			s.ads[i] = ad
			return ad, nil
		}
	}
	s.ads = append(s.ads, ad)
	return ad, nil
}

func (s *stubContentRepository) DeleteAdvertisement(_ context.Context, adID string) error {
	for i, ad := range s.ads {
		if ad.ID == adID {
			s.ads = append(s.ads[:i], s.ads[i+1:]...)
			return nil
		}
	}
	return errNotFound("advertisement")
}

func (s *stubContentRepository) ListHeroImages(_ context.Context, activeOnly bool) ([]domain.HeroImage, error) {
	if !activeOnly {
		return append([]domain.HeroImage(nil), s.heroes...), nil
	}
	var active []domain.HeroImage
	for _, hero := range s.heroes {
		if hero.Active {
			active = append(active, hero)
		}
	}
	return active, nil
}

func (s *stubContentRepository) UpsertHeroImage(_ context.Context, hero domain.HeroImage) (domain.HeroImage, error) {
	for i, existing := range s.heroes {
		if existing.ID == hero.ID {
			s.heroes[i] = hero
			return hero, nil
		}
	}
	s.heroes = append(s.heroes, hero)
	return hero, nil
}

func (s *stubContentRepository) DeleteHeroImage(_ context.Context, heroID string) error {
	for i, hero := range s.heroes {
		if hero.ID == heroID {
			s.heroes = append(s.heroes[:i], s.heroes[i+1:]...)
			return nil
		}
	}
	return errNotFound("hero image")
}

// --- counters & health ------------------------------------------------------

type stubCounterRepository struct {
	values  map[string]int64
	nextErr error
	calls   []string
}

func newStubCounterRepository() *stubCounterRepository {
	return &stubCounterRepository{values: make(map[string]int64)}
}

func (s *stubCounterRepository) Next(_ context.Context, counterID string, step int64) (int64, error) {
	if s.nextErr != nil {
		return 0, s.nextErr
	}
	if step <= 0 {
		step = 1
	}
	s.calls = append(s.calls, counterID)
	s.values[counterID] += step
	return s.values[counterID], nil
}

type stubHealthRepository struct {
	err error
}

func (s *stubHealthRepository) Ping(context.Context) error { return s.err }

// --- events -----------------------------------------------------------------

type stubEventPublisher struct {
	events     []events.OrderEvent
	publishErr error
}

func (s *stubEventPublisher) PublishOrderEvent(_ context.Context, event events.OrderEvent) error {
	if s.publishErr != nil {
		return s.publishErr
	}
	s.events = append(s.events, event)
	return nil
}

func (s *stubEventPublisher) eventTypes() []string {
	types := make([]string, 0, len(s.events))
	for _, event := range s.events {
		types = append(types, event.Type)
	}
	return types
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
