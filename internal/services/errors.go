package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/naga-sai1/inv-ecommerce/internal/platform/pagination"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories"
)

var (
	// ErrValidation marks caller input that failed a field rule.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is the root of every missing-entity error.
	ErrNotFound = errors.New("not found")
	// ErrProductNotFound indicates the product id is not in the catalog.
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	// ErrCartLineNotFound indicates the cart has no line for the product.
	ErrCartLineNotFound = fmt.Errorf("cart line %w", ErrNotFound)
	// ErrOrderNotFound indicates the order does not exist or is not visible to the caller.
	ErrOrderNotFound = fmt.Errorf("order %w", ErrNotFound)
	// ErrEmptyCart indicates checkout was attempted with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrConfiguration indicates business rules were constructed with invalid values.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrOrderItemsCreation indicates the order lines could not be persisted.
	ErrOrderItemsCreation = errors.New("order items could not be created")
	// ErrAuthenticationRequired indicates the shopper could not be identified.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrDuplicateOrder indicates the idempotency key already produced an order.
	ErrDuplicateOrder = errors.New("order already placed for idempotency key")
	// ErrCheckoutInProgress indicates another request holds the idempotency key.
	ErrCheckoutInProgress = errors.New("checkout already in progress for idempotency key")
	// ErrIdempotencyKeyReused indicates the key was first used for a different request.
	ErrIdempotencyKeyReused = errors.New("idempotency key reused with different request")
	// ErrInsufficientStock indicates the inventory collaborator could not reserve a line.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrOrderInvalidState indicates the requested status transition is not allowed.
	ErrOrderInvalidState = errors.New("order: invalid state transition")
	// ErrUnavailable indicates a backing store is temporarily unreachable.
	ErrUnavailable = errors.New("service unavailable")
)

// ValidationError names the first offending field of a request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func validationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ConfigurationError names the pricing rule that holds an invalid value.
type ConfigurationError struct {
	Field string
	Value string
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s must not be negative (got %s)", ErrConfiguration, e.Field, e.Value)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// OrderItemsCreationError reports a failed line insert. The header has already been removed.
type OrderItemsCreationError struct {
	OrderID string
	// Cleanup is set when the compensating delete also failed.
	Cleanup error
	Err     error
}

func (e *OrderItemsCreationError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: order %s: %v", ErrOrderItemsCreation, e.OrderID, e.Err)
	if e.Cleanup != nil {
		fmt.Fprintf(&b, " (header cleanup failed: %v)", e.Cleanup)
	}
	return b.String()
}

func (e *OrderItemsCreationError) Unwrap() []error {
	return []error{ErrOrderItemsCreation, e.Err}
}

// DuplicateOrderError carries the id of the order an idempotency key already produced.
type DuplicateOrderError struct {
	OrderID string
}

func (e *DuplicateOrderError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", ErrDuplicateOrder, e.OrderID)
}

func (e *DuplicateOrderError) Unwrap() error { return ErrDuplicateOrder }

// mapRepositoryError translates persistence failures into service sentinels. notFound is the
// sentinel reported for missing documents.
func mapRepositoryError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, pagination.ErrInvalidPageToken) {
		return &ValidationError{Field: "pageToken", Reason: "is invalid"}
	}
	var repoErr repositories.RepositoryError
	if !errors.As(err, &repoErr) {
		return err
	}
	switch {
	case repoErr.IsNotFound():
		if notFound == nil {
			notFound = ErrNotFound
		}
		return fmt.Errorf("%w: %v", notFound, err)
	case repoErr.IsUnavailable():
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return err
	}
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}
