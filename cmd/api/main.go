// Command api serves the storefront pricing, cart, checkout and order API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/naga-sai1/inv-ecommerce/internal/di"
	"github.com/naga-sai1/inv-ecommerce/internal/handlers"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/config"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/idempotency"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/observability"
)

const (
	meterName     = "github.com/naga-sai1/inv-ecommerce/api"
	drainTimeout  = 10 * time.Second
	cleanupBudget = time.Minute
)

func main() {
	base, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	logger := base.Named("api")
	if err := run(logger); err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Error("missing required secrets", zap.Strings("secrets", missing.RedactedNames()))
		} else {
			logger.Error("api exited", zap.Error(err))
		}
		_ = base.Sync()
		os.Exit(1)
	}
	_ = base.Sync()
}

func run(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	startedAt := time.Now().UTC()

	env, err := config.EnvironmentValues()
	if err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	fetcher, err := newSecretFetcher(ctx, logger, env)
	if err != nil {
		return fmt.Errorf("secret fetcher: %w", err)
	}
	defer closeLogged(logger, "secret fetcher", fetcher.Close)

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(fetcher),
		config.WithRequiredSecrets(requiredSecretNames(env)...),
	)
	if err != nil {
		return err
	}
	build := buildInfoFromEnv(env, cfg, startedAt)

	orders, err := newOrderEvents(ctx, cfg)
	if err != nil {
		return err
	}
	defer orders.close(logger)

	registry, provider, err := di.OpenRegistry(ctx, cfg, orders.checks)
	if err != nil {
		return fmt.Errorf("open %s repositories: %w", cfg.Store.Driver, err)
	}

	var keys idempotency.Store = idempotency.NewMemoryStore()
	if provider != nil {
		client, err := provider.Client(ctx)
		if err != nil {
			return fmt.Errorf("firestore client: %w", err)
		}
		keys = idempotency.NewFirestoreStore(client, idempotency.WithCollection(cfg.Checkout.IdempotencyCollection))
	}

	opts := []di.Option{
		di.WithLogger(logger),
		di.WithIdempotencyStore(keys),
		di.WithMeter(otel.GetMeterProvider().Meter(meterName)),
		di.WithBuildInfo(build),
	}
	if orders.publisher != nil {
		opts = append(opts, di.WithEventPublisher(orders.publisher))
	}
	container, err := di.NewContainer(ctx, cfg, registry, opts...)
	if err != nil {
		return fmt.Errorf("services: %w", err)
	}
	defer func() {
		orders.close(logger)
		closeCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		closeLogged(logger, "repositories", func() error { return container.Close(closeCtx) })
	}()

	authenticator, err := newAuthenticator(ctx, logger, cfg)
	if err != nil {
		return err
	}
	svc := container.Services
	httpLogger := logger.Named("http")
	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(httpLogger),
			observability.TraceMiddleware(traceProjectID(cfg)),
			observability.RecoveryMiddleware(httpLogger),
			observability.RequestLoggerMiddleware(),
		),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(
			handlers.WithHealthBuildInfo(build),
			handlers.WithHealthSystemService(svc.System),
		)),
		handlers.WithPublicRoutes(handlers.NewCatalogHandlers(svc.Catalog).Routes),
		handlers.WithCartRoutes(handlers.NewCartHandlers(authenticator, svc.Cart).Routes),
		handlers.WithCheckoutRoutes(handlers.NewCheckoutHandlers(authenticator, svc.Checkout).Routes),
		handlers.WithOrderRoutes(handlers.NewOrderHandlers(authenticator, svc.Orders).Routes),
		handlers.WithAdminRoutes(handlers.NewAdminHandlers(authenticator, svc.Catalog, svc.Orders, svc.Dashboard).Routes),
	)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		httpLogger.Info("storefront api listening",
			zap.String("addr", server.Addr),
			zap.String("driver", cfg.Store.Driver),
			zap.Bool("guestCart", cfg.Features.AllowGuestCart),
			zap.Bool("reserveInventory", cfg.Features.ReserveInventory),
		)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("draining requests")
		drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		return server.Shutdown(drainCtx)
	})
	g.Go(func() error {
		sweepIdempotencyKeys(gctx, logger.Named("idempotency"), keys, cfg.Checkout)
		return nil
	})
	return g.Wait()
}

// sweepIdempotencyKeys purges expired checkout tokens until ctx is done.
func sweepIdempotencyKeys(ctx context.Context, logger *zap.Logger, store idempotency.Store, cfg config.CheckoutConfig) {
	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		runCtx, cancel := context.WithTimeout(ctx, cleanupBudget)
		removed, err := store.CleanupExpired(runCtx, time.Now().UTC(), cfg.CleanupBatchSize)
		cancel()
		switch {
		case err != nil:
			logger.Error("cleanup failed", zap.Error(err))
		case removed > 0:
			logger.Info("expired keys removed", zap.Int("count", removed))
		}
	}
}

func closeLogged(logger *zap.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Warn("close failed", zap.String("resource", what), zap.Error(err))
	}
}
