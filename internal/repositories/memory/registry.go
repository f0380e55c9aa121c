// Package memory provides process-local repositories used by the memory store driver and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories"
)

// Error implements repositories.RepositoryError for the in-memory store.
type Error struct {
	op       string
	msg      string
	notFound bool
	conflict bool
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("memory.%s: %s", e.op, e.msg)
}

func (e *Error) IsNotFound() bool    { return e != nil && e.notFound }
func (e *Error) IsConflict() bool    { return e != nil && e.conflict }
func (e *Error) IsUnavailable() bool { return false }

func notFound(op, format string, args ...any) error {
	return &Error{op: op, msg: fmt.Sprintf(format, args...), notFound: true}
}

func conflict(op, format string, args ...any) error {
	return &Error{op: op, msg: fmt.Sprintf(format, args...), conflict: true}
}

// Registry bundles the in-memory repositories behind a single lock.
type Registry struct {
	mu sync.RWMutex

	products   map[string]domain.Product
	carts      map[string]map[string]domain.CartLine
	orders     map[string]domain.Order
	orderLines map[string][]domain.OrderLine
	profiles   map[string]domain.Profile
	health     repositories.HealthRepository
}

// Option customises the registry at construction.
type Option func(*Registry)

// WithProducts seeds the catalog.
func WithProducts(products ...domain.Product) Option {
	return func(r *Registry) {
		for _, p := range products {
			r.products[p.ID] = p
		}
	}
}

// WithHealth overrides the readiness probe set.
func WithHealth(health repositories.HealthRepository) Option {
	return func(r *Registry) {
		if health != nil {
			r.health = health
		}
	}
}

// NewRegistry constructs an empty registry and applies opts.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		products:   make(map[string]domain.Product),
		carts:      make(map[string]map[string]domain.CartLine),
		orders:     make(map[string]domain.Order),
		orderLines: make(map[string][]domain.OrderLine),
		profiles:   make(map[string]domain.Profile),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.health == nil {
		health, _ := repositories.NewDependencyHealthRepository([]repositories.DependencyCheck{{
			Name:  "memory",
			Check: func(context.Context) error { return nil },
		}})
		r.health = health
	}
	return r
}

var _ repositories.Registry = (*Registry)(nil)

func (r *Registry) Close(context.Context) error { return nil }

// RunInTx runs fn directly. Individual repository calls are atomic; there is no rollback.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *Registry) Products() repositories.ProductRepository     { return productRepository{r} }
func (r *Registry) Carts() repositories.CartRepository           { return cartRepository{r} }
func (r *Registry) Orders() repositories.OrderRepository         { return orderRepository{r} }
func (r *Registry) OrderLines() repositories.OrderLineRepository { return orderLineRepository{r} }
func (r *Registry) Profiles() repositories.ProfileRepository     { return profileRepository{r} }
func (r *Registry) Health() repositories.HealthRepository        { return r.health }
