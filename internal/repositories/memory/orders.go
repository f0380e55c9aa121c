package memory

import (
	"cmp"
	"context"
	"slices"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/pagination"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories"
)

type orderRepository struct{ r *Registry }

func (o orderRepository) Insert(_ context.Context, order domain.Order) error {
	o.r.mu.Lock()
	defer o.r.mu.Unlock()
	if _, exists := o.r.orders[order.ID]; exists {
		return conflict("orders.insert", "order %s already exists", order.ID)
	}
	o.r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (o orderRepository) Update(_ context.Context, order domain.Order) error {
	o.r.mu.Lock()
	defer o.r.mu.Unlock()
	if _, exists := o.r.orders[order.ID]; !exists {
		return notFound("orders.update", "order %s not found", order.ID)
	}
	o.r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (o orderRepository) Delete(_ context.Context, orderID string) error {
	o.r.mu.Lock()
	defer o.r.mu.Unlock()
	delete(o.r.orders, orderID)
	return nil
}

func (o orderRepository) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	o.r.mu.RLock()
	defer o.r.mu.RUnlock()
	order, ok := o.r.orders[orderID]
	if !ok {
		return domain.Order{}, notFound("orders.get", "order %s not found", orderID)
	}
	return cloneOrder(order), nil
}

func (o orderRepository) List(_ context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	o.r.mu.RLock()
	matched := make([]domain.Order, 0, len(o.r.orders))
	for _, order := range o.r.orders {
		if filter.Match(order) {
			matched = append(matched, cloneOrder(order))
		}
	}
	o.r.mu.RUnlock()

	slices.SortFunc(matched, repositories.CompareOrders)

	start, end, next, err := pagination.Window(len(matched), filter.Pagination.PageSize, filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}
	return domain.CursorPage[domain.Order]{Items: matched[start:end], NextPageToken: next}, nil
}

func cloneOrder(order domain.Order) domain.Order {
	dup := order
	if order.Guest != nil {
		guest := *order.Guest
		dup.Guest = &guest
	}
	dup.Lines = slices.Clone(order.Lines)
	dup.StatusHistory = slices.Clone(order.StatusHistory)
	return dup
}

type orderLineRepository struct{ r *Registry }

func (l orderLineRepository) InsertAll(_ context.Context, orderID string, lines []domain.OrderLine) error {
	l.r.mu.Lock()
	defer l.r.mu.Unlock()
	if _, exists := l.r.orderLines[orderID]; exists {
		return conflict("order_lines.insert", "lines for order %s already exist", orderID)
	}
	stored := make([]domain.OrderLine, len(lines))
	for i, line := range lines {
		line.OrderID = orderID
		stored[i] = line
	}
	l.r.orderLines[orderID] = stored
	return nil
}

func (l orderLineRepository) DeleteAll(_ context.Context, orderID string) error {
	l.r.mu.Lock()
	defer l.r.mu.Unlock()
	delete(l.r.orderLines, orderID)
	return nil
}

func (l orderLineRepository) List(_ context.Context, orderID string) ([]domain.OrderLine, error) {
	l.r.mu.RLock()
	defer l.r.mu.RUnlock()
	lines := slices.Clone(l.r.orderLines[orderID])
	slices.SortFunc(lines, func(a, b domain.OrderLine) int { return cmp.Compare(a.Position, b.Position) })
	return lines, nil
}

type profileRepository struct{ r *Registry }

func (p profileRepository) Upsert(_ context.Context, profile domain.Profile) error {
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	p.r.profiles[profile.UserID] = profile
	return nil
}

func (p profileRepository) FindByID(_ context.Context, userID string) (domain.Profile, error) {
	p.r.mu.RLock()
	defer p.r.mu.RUnlock()
	profile, ok := p.r.profiles[userID]
	if !ok {
		return domain.Profile{}, notFound("profiles.get", "profile %s not found", userID)
	}
	return profile, nil
}

func (p profileRepository) Count(context.Context) (int, error) {
	p.r.mu.RLock()
	defer p.r.mu.RUnlock()
	return len(p.r.profiles), nil
}
