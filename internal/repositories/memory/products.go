package memory

import (
	"context"
	"errors"
	"slices"
	"time"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/pagination"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories"
)

type productRepository struct{ r *Registry }

func (p productRepository) FindByID(_ context.Context, productID string) (domain.Product, error) {
	p.r.mu.RLock()
	defer p.r.mu.RUnlock()
	product, ok := p.r.products[productID]
	if !ok {
		return domain.Product{}, notFound("products.get", "product %s not found", productID)
	}
	return product, nil
}

func (p productRepository) List(_ context.Context, filter repositories.ProductFilter) (domain.CursorPage[domain.Product], error) {
	p.r.mu.RLock()
	matched := make([]domain.Product, 0, len(p.r.products))
	for _, product := range p.r.products {
		if filter.Match(product) {
			matched = append(matched, product)
		}
	}
	p.r.mu.RUnlock()

	slices.SortFunc(matched, filter.Compare)

	start, end, next, err := pagination.Window(len(matched), filter.Pagination.PageSize, filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Product]{}, err
	}
	return domain.CursorPage[domain.Product]{Items: matched[start:end], NextPageToken: next}, nil
}

func (p productRepository) Count(context.Context) (int, error) {
	p.r.mu.RLock()
	defer p.r.mu.RUnlock()
	return len(p.r.products), nil
}

func (p productRepository) Save(_ context.Context, product domain.Product) error {
	if product.ID == "" {
		return errors.New("memory.products.save: product id is required")
	}
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	p.r.products[product.ID] = product
	return nil
}

func (p productRepository) AdjustStock(_ context.Context, productID string, delta int, now time.Time) (domain.Product, error) {
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	product, ok := p.r.products[productID]
	if !ok {
		return domain.Product{}, notFound("products.adjust_stock", "product %s not found", productID)
	}
	next := product.StockQuantity + delta
	if next < 0 {
		return domain.Product{}, repositories.NewInsufficientStockError(productID, -delta, product.StockQuantity)
	}
	product.StockQuantity = next
	product.InStock = next > 0
	product.UpdatedAt = now
	p.r.products[productID] = product
	return product, nil
}
