package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories/memory"
)

func TestDashboardServiceSummary(t *testing.T) {
	registry := memory.NewRegistry(memory.WithProducts(testProducts()...))
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		status := domain.OrderStatusProcessing
		if i == 0 {
			status = domain.OrderStatusCancelled
		}
		seedOrder(t, registry, Order{
			ID:          fmt.Sprintf("ord_%d", i),
			Status:      status,
			TotalAmount: 10000,
			CreatedAt:   testNow.Add(time.Duration(i) * time.Minute),
		})
	}
	if err := registry.Profiles().Upsert(ctx, Profile{UserID: "user-alice"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	svc, err := NewDashboardService(DashboardServiceDeps{
		Products: registry.Products(),
		Orders:   registry.Orders(),
		Profiles: registry.Profiles(),
		Clock:    fixedClock,
	})
	if err != nil {
		t.Fatalf("NewDashboardService: %v", err)
	}

	summary, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.TotalProducts != 4 || summary.TotalCustomers != 1 || summary.TotalOrders != 7 {
		t.Fatalf("unexpected counts %+v", summary)
	}
	if summary.TotalRevenue != 60000 {
		t.Fatalf("expected cancelled order excluded from revenue, got %d", summary.TotalRevenue)
	}
	if len(summary.RecentOrders) != 5 || summary.RecentOrders[0].ID != "ord_6" {
		t.Fatalf("expected five newest orders, got %+v", summary.RecentOrders)
	}
	if summary.LowStockThreshold != 10 {
		t.Fatalf("expected default threshold 10, got %d", summary.LowStockThreshold)
	}
	if got := productIDs(summary.LowStockProducts); len(got) != 2 || got[0] != "shawl" || got[1] != "lamp" {
		t.Fatalf("expected low stock products ordered by stock, got %v", got)
	}
	if !summary.GeneratedAt.Equal(testNow) {
		t.Fatalf("expected generated at %v, got %v", testNow, summary.GeneratedAt)
	}
}
