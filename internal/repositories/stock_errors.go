package repositories

import (
	"errors"
	"fmt"
)

// ErrInsufficientStock is matched by errors.Is against any StockError carrying StockErrorInsufficient.
var ErrInsufficientStock = errors.New("repositories: insufficient stock")

// StockErrorCode enumerates repository error causes for stock adjustments.
type StockErrorCode string

const (
	// StockErrorUnknown represents an unspecified failure.
	StockErrorUnknown StockErrorCode = "stock_unknown"
	// StockErrorInsufficient indicates the adjustment would drive the quantity below zero.
	StockErrorInsufficient StockErrorCode = "stock_insufficient"
	// StockErrorProductNotFound indicates the product does not exist.
	StockErrorProductNotFound StockErrorCode = "stock_product_not_found"
)

// StockError wraps stock-specific failures with machine readable codes.
type StockError struct {
	ProductID string
	Code      StockErrorCode
	Requested int
	Available int
	Err       error
}

// Error implements the error interface.
func (e *StockError) Error() string {
	if e == nil {
		return ""
	}
	switch e.Code {
	case StockErrorInsufficient:
		return fmt.Sprintf("stock %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
	case StockErrorProductNotFound:
		return fmt.Sprintf("stock %s: product not found", e.ProductID)
	default:
		if e.Err != nil {
			return fmt.Sprintf("stock %s: %v", e.ProductID, e.Err)
		}
		return fmt.Sprintf("stock %s: %s", e.ProductID, e.Code)
	}
}

// Unwrap exposes the underlying error, if any.
func (e *StockError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets callers match insufficient stock failures with errors.Is.
func (e *StockError) Is(target error) bool {
	return e != nil && target == ErrInsufficientStock && e.Code == StockErrorInsufficient
}

// IsNotFound reports whether the product was missing.
func (e *StockError) IsNotFound() bool {
	return e != nil && e.Code == StockErrorProductNotFound
}

// IsConflict reports whether the adjustment was rejected by the current stock level.
func (e *StockError) IsConflict() bool {
	return e != nil && e.Code == StockErrorInsufficient
}

// IsUnavailable is always false; transport failures surface as the store's own error type.
func (e *StockError) IsUnavailable() bool {
	return false
}

// NewInsufficientStockError constructs the error returned when a decrement exceeds availability.
func NewInsufficientStockError(productID string, requested, available int) *StockError {
	return &StockError{
		ProductID: productID,
		Code:      StockErrorInsufficient,
		Requested: requested,
		Available: available,
	}
}
