package services

import (
	"context"
	"errors"
	"time"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/pagination"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories"
)

const (
	defaultLowStockThreshold = 10
	recentOrdersLimit        = 5
)

// DashboardServiceDeps wires the repositories the admin summary reads.
type DashboardServiceDeps struct {
	Products          repositories.ProductRepository
	Orders            repositories.OrderRepository
	Profiles          repositories.ProfileRepository
	LowStockThreshold int
	Clock             func() time.Time
}

type dashboardService struct {
	products  repositories.ProductRepository
	orders    repositories.OrderRepository
	profiles  repositories.ProfileRepository
	threshold int
	now       func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(deps DashboardServiceDeps) (DashboardService, error) {
	switch {
	case deps.Products == nil:
		return nil, errors.New("dashboard service: product repository is required")
	case deps.Orders == nil:
		return nil, errors.New("dashboard service: order repository is required")
	case deps.Profiles == nil:
		return nil, errors.New("dashboard service: profile repository is required")
	}
	threshold := deps.LowStockThreshold
	if threshold <= 0 {
		threshold = defaultLowStockThreshold
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &dashboardService{
		products:  deps.Products,
		orders:    deps.Orders,
		profiles:  deps.Profiles,
		threshold: threshold,
		now:       func() time.Time { return clock().UTC() },
	}, nil
}

// Summary walks every order to total revenue. Cancelled orders count as orders but not revenue.
func (s *dashboardService) Summary(ctx context.Context) (DashboardSummary, error) {
	summary := DashboardSummary{LowStockThreshold: s.threshold, GeneratedAt: s.now()}

	products, err := s.products.Count(ctx)
	if err != nil {
		return DashboardSummary{}, mapRepositoryError(err, nil)
	}
	summary.TotalProducts = products

	customers, err := s.profiles.Count(ctx)
	if err != nil {
		return DashboardSummary{}, mapRepositoryError(err, nil)
	}
	summary.TotalCustomers = customers

	filter := OrderListFilter{Pagination: Pagination{PageSize: pagination.DefaultMaxPageSize}}
	for {
		page, err := s.orders.List(ctx, filter)
		if err != nil {
			return DashboardSummary{}, mapRepositoryError(err, nil)
		}
		for _, order := range page.Items {
			summary.TotalOrders++
			if order.Status != domain.OrderStatusCancelled {
				summary.TotalRevenue += order.TotalAmount
			}
			if len(summary.RecentOrders) < recentOrdersLimit {
				summary.RecentOrders = append(summary.RecentOrders, order)
			}
		}
		if page.NextPageToken == "" {
			break
		}
		filter.Pagination.PageToken = page.NextPageToken
	}

	threshold := s.threshold
	lowStock := ProductFilter{MaxStock: &threshold, SortBy: repositories.ProductSortStock}
	err = eachProduct(ctx, s.products, lowStock, func(p Product) {
		summary.LowStockProducts = append(summary.LowStockProducts, p)
	})
	if err != nil {
		return DashboardSummary{}, mapRepositoryError(err, nil)
	}
	return summary, nil
}
