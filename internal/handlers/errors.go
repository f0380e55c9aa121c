package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/naga-sai1/inv-ecommerce/internal/platform/httpx"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/pagination"
	"github.com/naga-sai1/inv-ecommerce/internal/services"
)

// writeServiceError maps service errors onto the JSON error envelope.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	var (
		validation *services.ValidationError
		duplicate  *services.DuplicateOrderError
	)
	switch {
	case errors.As(err, &duplicate):
		httpx.WriteError(ctx, w, httpx.NewError("duplicate_order", "an order was already placed with this idempotency key", http.StatusConflict).
			WithDetails(map[string]any{"orderId": duplicate.OrderID}))
	case errors.As(err, &validation):
		apiErr := httpx.NewError("validation_failed", validation.Error(), http.StatusBadRequest)
		if validation.Field != "" {
			apiErr = apiErr.WithDetails(map[string]any{"field": validation.Field})
		}
		httpx.WriteError(ctx, w, apiErr)
	case errors.Is(err, services.ErrValidation):
		httpx.WriteError(ctx, w, httpx.NewError("validation_failed", err.Error(), http.StatusBadRequest))
	case errors.Is(err, pagination.ErrInvalidPageSize):
		httpx.WriteError(ctx, w, httpx.NewError("validation_failed", err.Error(), http.StatusBadRequest).
			WithDetails(map[string]any{"field": "pageSize"}))
	case errors.Is(err, pagination.ErrInvalidPageToken):
		httpx.WriteError(ctx, w, httpx.NewError("validation_failed", err.Error(), http.StatusBadRequest).
			WithDetails(map[string]any{"field": "pageToken"}))
	case errors.Is(err, services.ErrEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("empty_cart", "cart is empty", http.StatusConflict))
	case errors.Is(err, services.ErrNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrAuthenticationRequired):
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "sign in or provide a guest cart id", http.StatusUnauthorized))
	case errors.Is(err, services.ErrDuplicateOrder):
		httpx.WriteError(ctx, w, httpx.NewError("duplicate_order", "an order was already placed with this idempotency key", http.StatusConflict))
	case errors.Is(err, services.ErrCheckoutInProgress):
		httpx.WriteError(ctx, w, httpx.NewError("checkout_in_progress", "checkout is already in progress for this idempotency key", http.StatusConflict))
	case errors.Is(err, services.ErrIdempotencyKeyReused):
		httpx.WriteError(ctx, w, httpx.NewError("idempotency_key_reused", "idempotency key was used for a different request", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrOrderItemsCreation):
		httpx.WriteError(ctx, w, httpx.NewError("order_items_failed", "order items could not be created; retry checkout", http.StatusServiceUnavailable))
	case errors.Is(err, services.ErrInsufficientStock):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderInvalidState):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_state", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrConfiguration):
		httpx.WriteError(ctx, w, httpx.NewError("configuration_error", "pricing rules are misconfigured", http.StatusInternalServerError))
	case errors.Is(err, services.ErrUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "a backing service is unavailable", http.StatusServiceUnavailable))
	case errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("timeout", "request timed out", http.StatusGatewayTimeout))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
