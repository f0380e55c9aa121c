package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/naga-sai1/inv-ecommerce/internal/platform/httpx"
)

const (
	apiPrefix      = "/api/v1"
	requestTimeout = 30 * time.Second
)

// RouteRegistrar adds one API group's routes to r.
type RouteRegistrar func(r chi.Router)

type routeGroup int

const (
	groupPublic routeGroup = iota
	groupCart
	groupCheckout
	groupOrders
	groupAdmin
	groupCount
)

// mount paths, indexed by routeGroup
var groupPaths = [groupCount]string{"/public", "/cart", "/checkout", "/orders", "/admin"}

type routerConfig struct {
	middlewares []func(http.Handler) http.Handler
	health      *HealthHandlers
	groups      [groupCount]RouteRegistrar
}

// Option customises NewRouter.
type Option func(*routerConfig)

// NewRouter builds the API router. Request ids, real client IPs and a request timeout are
// always applied before middleware added with WithMiddlewares. Groups without a registrar
// answer 501.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Timeout(requestTimeout),
		},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("route_not_found", "no route for "+req.URL.Path, http.StatusNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed",
			req.Method+" is not allowed on "+req.URL.Path, http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)

	r.Route(apiPrefix, func(api chi.Router) {
		for g, path := range groupPaths {
			register := cfg.groups[g]
			api.Route(path, func(sub chi.Router) {
				if register == nil {
					notImplemented(sub, path)
					return
				}
				register(sub)
			})
		}
	})
	return r
}

func withGroup(g routeGroup, reg RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.groups[g] = reg }
}

// WithMiddlewares appends global middleware.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) { cfg.health = h }
}

// WithPublicRoutes mounts the catalog under /api/v1/public.
func WithPublicRoutes(reg RouteRegistrar) Option { return withGroup(groupPublic, reg) }

func WithCartRoutes(reg RouteRegistrar) Option { return withGroup(groupCart, reg) }

func WithCheckoutRoutes(reg RouteRegistrar) Option { return withGroup(groupCheckout, reg) }

// WithOrderRoutes mounts the signed-in shopper's order history.
func WithOrderRoutes(reg RouteRegistrar) Option { return withGroup(groupOrders, reg) }

func WithAdminRoutes(reg RouteRegistrar) Option { return withGroup(groupAdmin, reg) }

func notImplemented(r chi.Router, path string) {
	handler := func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("not_implemented",
			apiPrefix+path+" is not available on this deployment", http.StatusNotImplemented))
	}
	r.HandleFunc("/", handler)
	r.HandleFunc("/*", handler)
	r.NotFound(handler)
	r.MethodNotAllowed(handler)
}
