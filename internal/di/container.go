package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aromelle/api/internal/platform/config"
	pstorage "github.com/aromelle/api/internal/platform/storage"
	"github.com/aromelle/api/internal/repositories"
	"github.com/aromelle/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Catalog    services.CatalogService
	Cart       services.CartService
	Inventory  services.InventoryService
	Promotions services.PromotionService
	Checkout   services.CheckoutService
	Orders     services.OrderService
	Users      services.UserService
	Content    services.ContentService
	Media      services.MediaService
	Counters   services.CounterService
	System     services.SystemService
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// Option supplies collaborators the registry cannot construct on its own,
// such as the payment gateway or the signed URL client.
type Option func(*containerOptions)

type containerOptions struct {
	gateway     services.PaymentGateway
	events      services.OrderEventPublisher
	mediaSigner *pstorage.Client
	mediaCopier services.ObjectCopier
	build       services.BuildInfo
	clock       func() time.Time
	idGenerator func() string
	logger      func(ctx context.Context, event string, fields map[string]any)
}

// WithPaymentGateway provides the payment manager used by the checkout flow.
// Without it the checkout service is left unset.
func WithPaymentGateway(gateway services.PaymentGateway) Option {
	return func(o *containerOptions) {
		o.gateway = gateway
	}
}

// WithOrderEvents provides the order lifecycle event publisher.
func WithOrderEvents(events services.OrderEventPublisher) Option {
	return func(o *containerOptions) {
		o.events = events
	}
}

// WithMediaStorage provides the signed URL client and object copier backing
// the media service. Without a signer the media service is left unset.
func WithMediaStorage(signer *pstorage.Client, copier services.ObjectCopier) Option {
	return func(o *containerOptions) {
		o.mediaSigner = signer
		o.mediaCopier = copier
	}
}

// WithBuildInfo records the build metadata surfaced by health reports.
func WithBuildInfo(build services.BuildInfo) Option {
	return func(o *containerOptions) {
		o.build = build
	}
}

// WithClock overrides time.Now, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *containerOptions) {
		o.clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the services.
func WithIDGenerator(gen func() string) Option {
	return func(o *containerOptions) {
		o.idGenerator = gen
	}
}

// WithLogger installs the structured event logger passed to every service.
func WithLogger(logger func(ctx context.Context, event string, fields map[string]any)) Option {
	return func(o *containerOptions) {
		o.logger = logger
	}
}

// NewContainer constructs the runtime dependencies. Production wiring provides a
// Firestore-backed registry, while tests can supply in-memory implementations.
func NewContainer(cfg config.Config, reg repositories.Registry, opts ...Option) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	options := containerOptions{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	svc, err := buildServices(cfg, reg, options)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases resources held by the repository registry.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(cfg config.Config, reg repositories.Registry, options containerOptions) (Services, error) {
	var svc Services

	counterSvc, err := services.NewCounterService(services.CounterServiceDeps{
		Repository: reg.Counters(),
		Clock:      options.clock,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build counter service: %w", err)
	}
	svc.Counters = counterSvc

	inventorySvc, err := services.NewInventoryService(services.InventoryServiceDeps{
		Inventory: reg.Inventory(),
		Clock:     options.clock,
		Logger:    options.logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build inventory service: %w", err)
	}
	svc.Inventory = inventorySvc

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products:    reg.Products(),
		Facets:      reg.Facets(),
		Inventory:   reg.Inventory(),
		Clock:       options.clock,
		IDGenerator: options.idGenerator,
		Logger:      options.logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}
	svc.Catalog = catalogSvc

	cartSvc, err := services.NewCartService(services.CartServiceDeps{
		Carts:       reg.Carts(),
		Inventory:   reg.Inventory(),
		Products:    reg.Products(),
		Currency:    cfg.Checkout.Currency,
		Clock:       options.clock,
		IDGenerator: options.idGenerator,
		Logger:      options.logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build cart service: %w", err)
	}
	svc.Cart = cartSvc

	promotionSvc, err := services.NewPromotionService(services.PromotionServiceDeps{
		Promotions:  reg.Promotions(),
		Usage:       reg.PromotionUsage(),
		Clock:       options.clock,
		IDGenerator: options.idGenerator,
		Logger:      options.logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build promotion service: %w", err)
	}
	svc.Promotions = promotionSvc

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders: reg.Orders(),
		Events: options.events,
		Clock:  options.clock,
		Logger: options.logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orderSvc

	userSvc, err := services.NewUserService(services.UserServiceDeps{
		Users:       reg.Users(),
		Addresses:   reg.Addresses(),
		Favorites:   reg.Favorites(),
		Products:    reg.Products(),
		Clock:       options.clock,
		IDGenerator: options.idGenerator,
		Logger:      options.logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build user service: %w", err)
	}
	svc.Users = userSvc

	contentSvc, err := services.NewContentService(services.ContentServiceDeps{
		Content:     reg.Content(),
		Clock:       options.clock,
		IDGenerator: options.idGenerator,
		Logger:      options.logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build content service: %w", err)
	}
	svc.Content = contentSvc

	if healthRepo := reg.Health(); healthRepo != nil {
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			HealthRepository: healthRepo,
			Clock:            options.clock,
			Build:            options.build,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	if options.gateway != nil {
		checkoutSvc, err := services.NewCheckoutService(services.CheckoutServiceDeps{
			Carts:      reg.Carts(),
			Orders:     reg.Orders(),
			Addresses:  reg.Addresses(),
			Products:   reg.Products(),
			Inventory:  reg.Inventory(),
			Usage:      reg.PromotionUsage(),
			Stock:      inventorySvc,
			Promotions: promotionSvc,
			Counters:   counterSvc,
			Gateway:    options.gateway,
			Events:     options.events,

			Currency:         cfg.Checkout.Currency,
			SuccessURL:       cfg.Checkout.SuccessURL,
			CancelURL:        cfg.Checkout.CancelURL,
			EnablePromotions: cfg.Features.EnablePromotions,
			EnablePayLater:   cfg.Features.EnablePayLater,

			Clock:       options.clock,
			IDGenerator: options.idGenerator,
			Logger:      options.logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build checkout service: %w", err)
		}
		svc.Checkout = checkoutSvc
	}

	if options.mediaSigner != nil {
		mediaSvc, err := services.NewMediaService(services.MediaServiceDeps{
			Signer:        options.mediaSigner,
			Copier:        options.mediaCopier,
			MediaBucket:   cfg.Storage.MediaBucket,
			StagingBucket: cfg.Storage.StagingBucket,
			Clock:         options.clock,
			IDGenerator:   options.idGenerator,
			Logger:        options.logger,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build media service: %w", err)
		}
		svc.Media = mediaSvc
	}

	return svc, nil
}
