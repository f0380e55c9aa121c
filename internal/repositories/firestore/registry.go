// Package firestore implements the repository contracts on Cloud Firestore.
package firestore

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/iterator"

	pfirestore "github.com/naga-sai1/inv-ecommerce/internal/platform/firestore"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories"
)

// Registry wires every Firestore repository onto a shared provider.
type Registry struct {
	provider   *pfirestore.Provider
	products   *ProductRepository
	carts      *CartRepository
	orders     *OrderRepository
	orderLines *OrderLineRepository
	profiles   *ProfileRepository
	health     repositories.HealthRepository
}

// NewRegistry constructs the repositories. extraChecks are appended to the Firestore readiness probe.
func NewRegistry(provider *pfirestore.Provider, extraChecks []repositories.DependencyCheck, opts ...repositories.DependencyHealthOption) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("firestore registry requires provider")
	}
	reg := &Registry{provider: provider}

	var err error
	if reg.products, err = NewProductRepository(provider); err != nil {
		return nil, err
	}
	if reg.carts, err = NewCartRepository(provider); err != nil {
		return nil, err
	}
	if reg.orders, err = NewOrderRepository(provider); err != nil {
		return nil, err
	}
	if reg.orderLines, err = NewOrderLineRepository(provider); err != nil {
		return nil, err
	}
	if reg.profiles, err = NewProfileRepository(provider); err != nil {
		return nil, err
	}

	checks := append([]repositories.DependencyCheck{{Name: "firestore", Check: reg.ping}}, extraChecks...)
	if reg.health, err = repositories.NewDependencyHealthRepository(checks, opts...); err != nil {
		return nil, fmt.Errorf("firestore registry: %w", err)
	}
	return reg, nil
}

func (r *Registry) ping(ctx context.Context) error {
	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}
	iter := client.Collection(productsCollection).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return pfirestore.WrapError("firestore.ping", err)
	}
	return nil
}

// RunInTx runs fn without an enclosing Firestore transaction. Repositories open their own
// transactions where a single call must be atomic.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *Registry) Close(ctx context.Context) error { return r.provider.Close(ctx) }

func (r *Registry) Products() repositories.ProductRepository     { return r.products }
func (r *Registry) Carts() repositories.CartRepository           { return r.carts }
func (r *Registry) Orders() repositories.OrderRepository         { return r.orders }
func (r *Registry) OrderLines() repositories.OrderLineRepository { return r.orderLines }
func (r *Registry) Profiles() repositories.ProfileRepository     { return r.profiles }
func (r *Registry) Health() repositories.HealthRepository        { return r.health }

var _ repositories.Registry = (*Registry)(nil)
