package memory

import (
	"cmp"
	"context"
	"slices"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
)

type cartRepository struct{ r *Registry }

// GetCart returns an empty cart for unknown keys. Lines are ordered by the time they were added.
func (c cartRepository) GetCart(_ context.Context, cartKey string) (domain.Cart, error) {
	c.r.mu.RLock()
	defer c.r.mu.RUnlock()
	cart := domain.Cart{Key: cartKey}
	for _, line := range c.r.carts[cartKey] {
		cart.Lines = append(cart.Lines, line)
		if line.UpdatedAt.After(cart.UpdatedAt) {
			cart.UpdatedAt = line.UpdatedAt
		}
	}
	slices.SortFunc(cart.Lines, func(a, b domain.CartLine) int {
		if n := a.AddedAt.Compare(b.AddedAt); n != 0 {
			return n
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	return cart, nil
}

func (c cartRepository) UpsertLine(_ context.Context, cartKey string, line domain.CartLine) error {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	lines, ok := c.r.carts[cartKey]
	if !ok {
		lines = make(map[string]domain.CartLine)
		c.r.carts[cartKey] = lines
	}
	if existing, ok := lines[line.ProductID]; ok && !existing.AddedAt.IsZero() {
		line.AddedAt = existing.AddedAt
	}
	lines[line.ProductID] = line
	return nil
}

func (c cartRepository) DeleteLine(_ context.Context, cartKey string, productID string) error {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	if lines, ok := c.r.carts[cartKey]; ok {
		delete(lines, productID)
		if len(lines) == 0 {
			delete(c.r.carts, cartKey)
		}
	}
	return nil
}

func (c cartRepository) Clear(_ context.Context, cartKey string) error {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	delete(c.r.carts, cartKey)
	return nil
}
