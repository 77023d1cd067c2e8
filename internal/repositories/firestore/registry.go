package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	pfirestore "github.com/aromelle/api/internal/platform/firestore"
	"github.com/aromelle/api/internal/repositories"
)

// Registry bundles the Firestore-backed repositories behind the
// repositories.Registry contract so the composition root can hand a single
// value to the service layer.
type Registry struct {
	provider *pfirestore.Provider

	products  *ProductRepository
	facets    *FacetRepository
	inventory *InventoryRepository
	carts     *CartRepository
	promos    *PromotionRepository
	usage     *PromotionUsageRepository
	orders    *OrderRepository
	users     *UserRepository
	addresses *AddressRepository
	favorites *FavoriteRepository
	content   *ContentRepository
	counters  *CounterRepository
	health    repositories.HealthRepository
}

var _ repositories.Registry = (*Registry)(nil)

// RegistryOption customises registry construction.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	extraChecks []repositories.DependencyCheck
}

// WithHealthChecks appends dependency checks evaluated alongside the built-in
// Firestore ping when the registry's health repository is consulted.
func WithHealthChecks(checks ...repositories.DependencyCheck) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.extraChecks = append(cfg.extraChecks, checks...)
	}
}

// NewRegistry constructs every Firestore repository over the shared provider.
func NewRegistry(provider *pfirestore.Provider, opts ...RegistryOption) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	cfg := registryConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	reg := &Registry{provider: provider}

	var err error
	if reg.products, err = NewProductRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: product repository: %w", err)
	}
	if reg.facets, err = NewFacetRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: facet repository: %w", err)
	}
	if reg.inventory, err = NewInventoryRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: inventory repository: %w", err)
	}
	if reg.carts, err = NewCartRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: cart repository: %w", err)
	}
	if reg.promos, err = NewPromotionRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: promotion repository: %w", err)
	}
	if reg.usage, err = NewPromotionUsageRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: promotion usage repository: %w", err)
	}
	if reg.orders, err = NewOrderRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: order repository: %w", err)
	}
	if reg.users, err = NewUserRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: user repository: %w", err)
	}
	if reg.addresses, err = NewAddressRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: address repository: %w", err)
	}
	if reg.favorites, err = NewFavoriteRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: favorite repository: %w", err)
	}
	if reg.content, err = NewContentRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: content repository: %w", err)
	}
	if reg.counters, err = NewCounterRepository(provider); err != nil {
		return nil, fmt.Errorf("registry: counter repository: %w", err)
	}

	checks := append([]repositories.DependencyCheck{firestorePingCheck(provider)}, cfg.extraChecks...)
	if reg.health, err = repositories.NewDependencyHealthRepository(checks); err != nil {
		return nil, fmt.Errorf("registry: health repository: %w", err)
	}

	return reg, nil
}

func firestorePingCheck(provider *pfirestore.Provider) repositories.DependencyCheck {
	return repositories.DependencyCheck{
		Name:    "firestore",
		Timeout: 1500 * time.Millisecond,
		Check: func(ctx context.Context) error {
			client, err := provider.Client(ctx)
			if err != nil {
				return err
			}
			_, err = client.Collections(ctx).Next()
			if errors.Is(err, iterator.Done) {
				return nil
			}
			return err
		},
	}
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

// RunInTx groups repository calls inside a single Firestore transaction.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return errors.New("registry: transaction function is required")
	}
	return r.provider.RunTransaction(ctx, func(ctx context.Context, _ *firestore.Transaction) error {
		return fn(ctx)
	})
}

func (r *Registry) Products() repositories.ProductRepository { return r.products }

func (r *Registry) Facets() repositories.FacetRepository { return r.facets }

func (r *Registry) Inventory() repositories.InventoryRepository { return r.inventory }

func (r *Registry) Carts() repositories.CartRepository { return r.carts }

func (r *Registry) Promotions() repositories.PromotionRepository { return r.promos }

func (r *Registry) PromotionUsage() repositories.PromotionUsageRepository { return r.usage }

func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

func (r *Registry) Users() repositories.UserRepository { return r.users }

func (r *Registry) Addresses() repositories.AddressRepository { return r.addresses }

func (r *Registry) Favorites() repositories.FavoriteRepository { return r.favorites }

func (r *Registry) Content() repositories.ContentRepository { return r.content }

func (r *Registry) Counters() repositories.CounterRepository { return r.counters }

func (r *Registry) Health() repositories.HealthRepository { return r.health }
