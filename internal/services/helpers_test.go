package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories/memory"
)

var testNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func testProducts() []domain.Product {
	return []domain.Product{
		{ID: "kurta", Name: "Cotton Kurta", Category: "Clothing", UnitPrice: 19999, InStock: true, StockQuantity: 12, Rating: 4.5, CreatedAt: testNow.Add(-48 * time.Hour)},
		{ID: "lamp", Name: "Brass Lamp", Category: "Home", UnitPrice: 5000, InStock: true, StockQuantity: 3, Rating: 4.8, CreatedAt: testNow.Add(-24 * time.Hour)},
		{ID: "rug", Name: "Jute Rug", Category: "Home", UnitPrice: 50000, InStock: true, StockQuantity: 40, Rating: 3.9, CreatedAt: testNow.Add(-72 * time.Hour)},
		{ID: "shawl", Name: "Pashmina Shawl", Category: "Clothing", UnitPrice: 89900, InStock: false, StockQuantity: 0, Rating: 4.9, CreatedAt: testNow},
	}
}

type testEnv struct {
	registry *memory.Registry
	catalog  CatalogService
	pricing  PricingCalculator
	cart     CartService
}

func newTestEnv(t *testing.T, allowGuest bool) *testEnv {
	t.Helper()
	registry := memory.NewRegistry(memory.WithProducts(testProducts()...))
	catalog, err := NewCatalogService(CatalogServiceDeps{Products: registry.Products()})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	pricing, err := NewPricingCalculator(DefaultPricingRules())
	if err != nil {
		t.Fatalf("NewPricingCalculator: %v", err)
	}
	cart, err := NewCartService(CartServiceDeps{
		Carts:          registry.Carts(),
		Products:       catalog,
		Pricing:        pricing,
		AllowGuestCart: allowGuest,
		Clock:          fixedClock,
	})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	return &testEnv{registry: registry, catalog: catalog, pricing: pricing, cart: cart}
}

func (e *testEnv) add(t *testing.T, shopper Shopper, productID string, quantity int) {
	t.Helper()
	if _, err := e.cart.AddItem(context.Background(), shopper, productID, quantity); err != nil {
		t.Fatalf("AddItem(%s, %d): %v", productID, quantity, err)
	}
}

type productLookupStub struct {
	getFn func(ctx context.Context, productID string) (Product, error)
}

func (s *productLookupStub) GetProduct(ctx context.Context, productID string) (Product, error) {
	return s.getFn(ctx, productID)
}

type orderLineRepoStub struct {
	insertAllFn func(ctx context.Context, orderID string, lines []OrderLine) error
	deleteAllFn func(ctx context.Context, orderID string) error
	listFn      func(ctx context.Context, orderID string) ([]OrderLine, error)
}

func (s *orderLineRepoStub) InsertAll(ctx context.Context, orderID string, lines []OrderLine) error {
	if s.insertAllFn != nil {
		return s.insertAllFn(ctx, orderID, lines)
	}
	return nil
}

func (s *orderLineRepoStub) DeleteAll(ctx context.Context, orderID string) error {
	if s.deleteAllFn != nil {
		return s.deleteAllFn(ctx, orderID)
	}
	return nil
}

func (s *orderLineRepoStub) List(ctx context.Context, orderID string) ([]OrderLine, error) {
	if s.listFn != nil {
		return s.listFn(ctx, orderID)
	}
	return nil, nil
}

type captureEvents struct {
	mu     sync.Mutex
	events []OrderEvent
	err    error
}

func (c *captureEvents) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return c.err
}

type captureLogger struct {
	mu     sync.Mutex
	events []string
}

func (c *captureLogger) log(_ context.Context, event string, _ map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureLogger) has(event string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.events {
		if e == event {
			return true
		}
	}
	return false
}

var errBoom = errors.New("boom")
