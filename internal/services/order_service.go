package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories"
)

var orderStateTransitions = map[OrderStatus][]OrderStatus{
	domain.OrderStatusPending:    {domain.OrderStatusProcessing, domain.OrderStatusCancelled},
	domain.OrderStatusProcessing: {domain.OrderStatusShipped, domain.OrderStatusCancelled},
	domain.OrderStatusShipped:    {domain.OrderStatusCompleted},
}

var knownOrderStatuses = []OrderStatus{
	domain.OrderStatusPending,
	domain.OrderStatusProcessing,
	domain.OrderStatusShipped,
	domain.OrderStatusCompleted,
	domain.OrderStatusCancelled,
}

const maxStatusReasonLength = 500

// OrderServiceDeps wires the repositories and collaborators of the order service.
type OrderServiceDeps struct {
	Orders     repositories.OrderRepository
	OrderLines repositories.OrderLineRepository
	UnitOfWork repositories.UnitOfWork
	Events     OrderEventPublisher
	Clock      func() time.Time
	Logger     Logger
}

type orderService struct {
	orders repositories.OrderRepository
	lines  repositories.OrderLineRepository
	uow    repositories.UnitOfWork
	events OrderEventPublisher
	now    func() time.Time
	logger Logger
}

// NewOrderService constructs an OrderService. UnitOfWork and Events are optional.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.OrderLines == nil {
		return nil, errors.New("order service: order line repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger
	}
	uow := deps.UnitOfWork
	if uow == nil {
		uow = noopUnitOfWork{}
	}
	return &orderService{
		orders: deps.Orders,
		lines:  deps.OrderLines,
		uow:    uow,
		events: deps.Events,
		now:    func() time.Time { return clock().UTC() },
		logger: logger,
	}, nil
}

// GetOrder loads the header together with its line snapshots.
func (s *orderService) GetOrder(ctx context.Context, orderID string) (Order, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return Order{}, validationError("orderId", "is required")
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return Order{}, mapRepositoryError(err, ErrOrderNotFound)
	}
	return s.withLines(ctx, order)
}

// GetOrderForShopper reports orders that belong to someone else as missing.
func (s *orderService) GetOrderForShopper(ctx context.Context, userID, orderID string) (Order, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return Order{}, ErrAuthenticationRequired
	}
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if order.UserID != uid {
		return Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, strings.TrimSpace(orderID))
	}
	return order, nil
}

func (s *orderService) ListShopperOrders(ctx context.Context, userID string, pager Pagination) (domain.CursorPage[Order], error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return domain.CursorPage[Order]{}, ErrAuthenticationRequired
	}
	return s.list(ctx, OrderListFilter{UserID: uid, Pagination: pager})
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error) {
	filter.Search = strings.TrimSpace(filter.Search)
	for _, status := range filter.Status {
		if !slices.Contains(knownOrderStatuses, status) {
			return domain.CursorPage[Order]{}, validationError("status", fmt.Sprintf("%q is not a known order status", status))
		}
	}
	return s.list(ctx, filter)
}

func (s *orderService) list(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error) {
	page, err := s.orders.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[Order]{}, mapRepositoryError(err, nil)
	}
	for i := range page.Items {
		order, err := s.withLines(ctx, page.Items[i])
		if err != nil {
			return domain.CursorPage[Order]{}, err
		}
		page.Items[i] = order
	}
	return page, nil
}

// UpdateStatus applies an allowed fulfillment transition and records it in the status history.
// Requesting the current status is a no-op.
func (s *orderService) UpdateStatus(ctx context.Context, cmd OrderStatusUpdateCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, validationError("orderId", "is required")
	}
	target := OrderStatus(strings.ToLower(strings.TrimSpace(string(cmd.TargetStatus))))
	if !slices.Contains(knownOrderStatuses, target) {
		return Order{}, validationError("status", "is not a known order status")
	}
	reason := strings.TrimSpace(cmd.Reason)
	if len(reason) > maxStatusReasonLength {
		return Order{}, validationError("reason", "is too long")
	}

	var (
		updated  Order
		previous OrderStatus
		changed  bool
	)
	err := s.runInTx(ctx, func(txCtx context.Context) error {
		order, err := s.orders.FindByID(txCtx, orderID)
		if err != nil {
			return mapRepositoryError(err, ErrOrderNotFound)
		}
		previous = order.Status
		if previous == target {
			updated = order
			return nil
		}
		if !canTransition(previous, target) {
			return fmt.Errorf("%w: %s -> %s", ErrOrderInvalidState, previous, target)
		}

		now := s.now()
		order.Status = target
		order.UpdatedAt = now
		order.StatusHistory = append(slices.Clone(order.StatusHistory), domain.OrderStatusChange{
			From:      previous,
			To:        target,
			ActorID:   strings.TrimSpace(cmd.ActorID),
			Reason:    reason,
			ChangedAt: now,
		})
		if err := s.orders.Update(txCtx, order); err != nil {
			return mapRepositoryError(err, ErrOrderNotFound)
		}
		updated = order
		changed = true
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	if changed {
		s.logger(ctx, "order.status.updated", map[string]any{
			"orderId": orderID,
			"from":    string(previous),
			"to":      string(target),
			"actorId": strings.TrimSpace(cmd.ActorID),
		})
		publishOrderEvent(ctx, s.events, s.logger, OrderEvent{
			Type:           OrderEventStatusChanged,
			OrderID:        updated.ID,
			UserID:         updated.UserID,
			PreviousStatus: string(previous),
			CurrentStatus:  string(updated.Status),
			TotalAmount:    updated.TotalAmount,
			Currency:       updated.Pricing.Currency,
			ActorID:        strings.TrimSpace(cmd.ActorID),
			OccurredAt:     updated.UpdatedAt,
		})
	}
	return s.withLines(ctx, updated)
}

func (s *orderService) withLines(ctx context.Context, order Order) (Order, error) {
	lines, err := s.lines.List(ctx, order.ID)
	if err != nil {
		return Order{}, mapRepositoryError(err, nil)
	}
	order.Lines = lines
	return order, nil
}

func (s *orderService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	return s.uow.RunInTx(ctx, fn)
}

func publishOrderEvent(ctx context.Context, events OrderEventPublisher, logger Logger, event OrderEvent) {
	if events == nil {
		return
	}
	if err := events.PublishOrderEvent(ctx, event); err != nil {
		logger(ctx, "order.event.publish.failed", map[string]any{
			"type":   event.Type,
			"order":  event.OrderID,
			"error":  err.Error(),
			"status": event.CurrentStatus,
		})
	}
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func canTransition(current, target OrderStatus) bool {
	if current == target {
		return true
	}
	next, ok := orderStateTransitions[current]
	if !ok {
		return false
	}
	return slices.Contains(next, target)
}
