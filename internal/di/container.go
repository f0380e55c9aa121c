package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/naga-sai1/inv-ecommerce/internal/platform/auth"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/config"
	pfirestore "github.com/naga-sai1/inv-ecommerce/internal/platform/firestore"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/idempotency"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/observability"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories"
	firestoreRepo "github.com/naga-sai1/inv-ecommerce/internal/repositories/firestore"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories/memory"
	"github.com/naga-sai1/inv-ecommerce/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Catalog   services.CatalogService
	Cart      services.CartService
	Checkout  services.CheckoutService
	Orders    services.OrderService
	Dashboard services.DashboardService
	System    services.SystemService
}

// Container wires repositories, services, and background infrastructure for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Idempotency  idempotency.Store
	Services     Services
}

// Option customises NewContainer.
type Option func(*containerOptions)

type containerOptions struct {
	logger      *zap.Logger
	events      services.OrderEventPublisher
	idempotency idempotency.Store
	meter       metric.Meter
	clock       func() time.Time
	newID       func() string
	build       services.BuildInfo
}

// WithLogger sets the base logger the services log through.
func WithLogger(logger *zap.Logger) Option {
	return func(o *containerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEventPublisher enables order event publishing.
func WithEventPublisher(publisher services.OrderEventPublisher) Option {
	return func(o *containerOptions) {
		o.events = publisher
	}
}

// WithIdempotencyStore overrides the in-memory idempotency store.
func WithIdempotencyStore(store idempotency.Store) Option {
	return func(o *containerOptions) {
		if store != nil {
			o.idempotency = store
		}
	}
}

// WithMeter sets the meter used for checkout metrics.
func WithMeter(meter metric.Meter) Option {
	return func(o *containerOptions) {
		o.meter = meter
	}
}

// WithClock overrides time.Now for every service.
func WithClock(clock func() time.Time) Option {
	return func(o *containerOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithOrderIDGenerator overrides the ulid based order id generator.
func WithOrderIDGenerator(fn func() string) Option {
	return func(o *containerOptions) {
		o.newID = fn
	}
}

// WithBuildInfo sets the metadata reported by the readiness endpoint.
func WithBuildInfo(build services.BuildInfo) Option {
	return func(o *containerOptions) {
		o.build = build
	}
}

// NewContainer constructs the runtime dependencies. Production wiring passes the registry picked
// by OpenRegistry; tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, opts ...Option) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	options := containerOptions{
		logger: zap.NewNop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if options.idempotency == nil {
		options.idempotency = idempotency.NewMemoryStore()
	}

	svc, err := buildServices(ctx, reg, cfg, options)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Idempotency:  options.idempotency,
		Services:     svc,
	}, nil
}

// Close releases repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(_ context.Context, reg repositories.Registry, cfg config.Config, o containerOptions) (Services, error) {
	var svc Services
	serviceLogger := func(name string) services.Logger {
		return observability.ServiceLogger(o.logger.Named(name))
	}

	pricing, err := services.NewPricingCalculator(services.PricingRules{
		TaxRate:               cfg.Pricing.TaxRate,
		FreeShippingThreshold: cfg.Pricing.FreeShippingThreshold,
		FlatShippingFee:       cfg.Pricing.FlatShippingFee,
		CODSurcharge:          cfg.Pricing.CODSurcharge,
		Currency:              cfg.Pricing.Currency,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build pricing calculator: %w", err)
	}

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products: reg.Products(),
		Clock:    o.clock,
		Logger:   serviceLogger("catalog"),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build catalog service: %w", err)
	}
	svc.Catalog = catalogSvc

	cartSvc, err := services.NewCartService(services.CartServiceDeps{
		Carts:          reg.Carts(),
		Products:       catalogSvc,
		Pricing:        pricing,
		AllowGuestCart: cfg.Features.AllowGuestCart,
		Clock:          o.clock,
		Logger:         serviceLogger("cart"),
	})
	if err != nil {
		return Services{}, fmt.Errorf("build cart service: %w", err)
	}
	svc.Cart = cartSvc

	checkoutDeps := services.CheckoutServiceDeps{
		Cart:           cartSvc,
		Pricing:        pricing,
		Orders:         reg.Orders(),
		OrderLines:     reg.OrderLines(),
		Profiles:       reg.Profiles(),
		Idempotency:    o.idempotency,
		IdempotencyTTL: cfg.Checkout.IdempotencyTTL,
		Meter:          o.meter,
		Clock:          o.clock,
		Logger:         serviceLogger("checkout"),
		IDGenerator:    o.newID,
	}
	if o.events != nil {
		checkoutDeps.Events = o.events
	}
	if cfg.Features.ReserveInventory {
		reserver, err := services.NewStockReserver(services.StockReserverDeps{
			Products: reg.Products(),
			Clock:    o.clock,
			Logger:   serviceLogger("inventory"),
		})
		if err != nil {
			return Services{}, fmt.Errorf("build stock reserver: %w", err)
		}
		checkoutDeps.Inventory = reserver
	}
	checkoutSvc, err := services.NewCheckoutService(checkoutDeps)
	if err != nil {
		return Services{}, fmt.Errorf("build checkout service: %w", err)
	}
	svc.Checkout = checkoutSvc

	orderDeps := services.OrderServiceDeps{
		Orders:     reg.Orders(),
		OrderLines: reg.OrderLines(),
		UnitOfWork: reg,
		Clock:      o.clock,
		Logger:     serviceLogger("orders"),
	}
	if o.events != nil {
		orderDeps.Events = o.events
	}
	orderSvc, err := services.NewOrderService(orderDeps)
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}
	svc.Orders = orderSvc

	dashboardSvc, err := services.NewDashboardService(services.DashboardServiceDeps{
		Products:          reg.Products(),
		Orders:            reg.Orders(),
		Profiles:          reg.Profiles(),
		LowStockThreshold: cfg.Admin.LowStockThreshold,
		Clock:             o.clock,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build dashboard service: %w", err)
	}
	svc.Dashboard = dashboardSvc

	if healthRepo := reg.Health(); healthRepo != nil {
		build := o.build
		if build.Environment == "" {
			build.Environment = cfg.Security.Environment
		}
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			HealthRepository: healthRepo,
			Clock:            o.clock,
			Build:            build,
		})
		if err != nil {
			return Services{}, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	return svc, nil
}

// OpenRegistry selects the persistence driver from cfg. extraChecks join the readiness probe.
// The Firestore provider is returned for callers that share its client, and is nil for the
// memory driver.
func OpenRegistry(ctx context.Context, cfg config.Config, extraChecks []repositories.DependencyCheck) (repositories.Registry, *pfirestore.Provider, error) {
	healthOpts := []repositories.DependencyHealthOption{
		repositories.WithEnvironment(cfg.Security.Environment),
		repositories.WithDependencyTimeout(cfg.Server.HealthProbeTimeout),
	}

	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		products, err := memory.LoadSeedFile(cfg.Store.SeedFile)
		if err != nil {
			return nil, nil, err
		}
		checks := append([]repositories.DependencyCheck{{
			Name:  "memory",
			Check: func(context.Context) error { return nil },
		}}, extraChecks...)
		health, err := repositories.NewDependencyHealthRepository(checks, healthOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("memory registry: %w", err)
		}
		return memory.NewRegistry(memory.WithProducts(products...), memory.WithHealth(health)), nil, nil

	case config.StoreDriverFirestore:
		provider := pfirestore.NewProvider(cfg.Firestore, pfirestore.WithClientOptions(auth.ClientOptions(cfg.Firebase)...))
		if _, err := provider.Client(ctx); err != nil {
			return nil, nil, fmt.Errorf("firestore registry: %w", err)
		}
		reg, err := firestoreRepo.NewRegistry(provider, extraChecks, healthOpts...)
		if err != nil {
			_ = provider.Close(ctx)
			return nil, nil, err
		}
		return reg, provider, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
