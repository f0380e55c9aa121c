package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/naga-sai1/inv-ecommerce/internal/repositories"
)

const (
	eventInventoryReserve = "inventory.reserve"
	eventInventoryRelease = "inventory.release"
)

// StockReserverDeps wires the product repository that holds stock counts.
type StockReserverDeps struct {
	Products repositories.ProductRepository
	Clock    func() time.Time
	Logger   Logger
}

type stockReserver struct {
	products repositories.ProductRepository
	now      func() time.Time
	logger   Logger
}

// NewStockReserver constructs an InventoryReserver that decrements product stock counts in place.
func NewStockReserver(deps StockReserverDeps) (InventoryReserver, error) {
	if deps.Products == nil {
		return nil, errors.New("stock reserver: product repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger
	}
	return &stockReserver{
		products: deps.Products,
		now:      func() time.Time { return clock().UTC() },
		logger:   logger,
	}, nil
}

// Reserve decrements every line or none: a failing line restores those already taken.
func (r *stockReserver) Reserve(ctx context.Context, orderID string, lines []PricedLine) error {
	now := r.now()
	for i, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		if _, err := r.products.AdjustStock(ctx, line.ProductID, -line.Quantity, now); err != nil {
			if rollbackErr := r.restore(ctx, lines[:i], now); rollbackErr != nil {
				r.logger(ctx, "inventory.reserve.rollback_failed", map[string]any{
					"orderId": orderID,
					"error":   rollbackErr.Error(),
				})
			}
			return r.mapStockError(err, line)
		}
	}
	r.logger(ctx, eventInventoryReserve, map[string]any{
		"orderId": orderID,
		"lines":   len(lines),
	})
	return nil
}

// Release returns the quantities of lines to stock.
func (r *stockReserver) Release(ctx context.Context, orderID string, lines []PricedLine) error {
	if err := r.restore(ctx, lines, r.now()); err != nil {
		return err
	}
	r.logger(ctx, eventInventoryRelease, map[string]any{
		"orderId": orderID,
		"lines":   len(lines),
	})
	return nil
}

func (r *stockReserver) restore(ctx context.Context, lines []PricedLine, now time.Time) error {
	var errs []error
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		if _, err := r.products.AdjustStock(ctx, line.ProductID, line.Quantity, now); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", line.ProductID, err))
		}
	}
	return errors.Join(errs...)
}

func (r *stockReserver) mapStockError(err error, line PricedLine) error {
	if errors.Is(err, repositories.ErrInsufficientStock) {
		var stockErr *repositories.StockError
		if errors.As(err, &stockErr) {
			return fmt.Errorf("%w: product %s requested %d, available %d", ErrInsufficientStock, line.ProductID, stockErr.Requested, stockErr.Available)
		}
		return fmt.Errorf("%w: product %s", ErrInsufficientStock, line.ProductID)
	}
	return mapRepositoryError(err, ErrProductNotFound)
}
