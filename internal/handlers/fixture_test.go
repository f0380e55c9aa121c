package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/go-chi/chi/v5"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/auth"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/idempotency"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories/memory"
	"github.com/naga-sai1/inv-ecommerce/internal/services"
)

var fixtureNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

const (
	aliceToken = "alice-token"
	bobToken   = "bob-token"
	adminToken = "admin-token"
)

type tokenTable map[string]*firebaseauth.Token

func (t tokenTable) VerifyIDToken(_ context.Context, idToken string) (*firebaseauth.Token, error) {
	if token, ok := t[idToken]; ok {
		return token, nil
	}
	return nil, errors.New("unknown token")
}

func testTokens() tokenTable {
	return tokenTable{
		aliceToken: {UID: "user-alice", Claims: map[string]interface{}{"email": "alice@example.in"}},
		bobToken:   {UID: "user-bob", Claims: map[string]interface{}{"email": "bob@example.in"}},
		adminToken: {UID: "user-root", Claims: map[string]interface{}{"email": "Owner@Shop.in"}},
	}
}

func fixtureProducts() []domain.Product {
	return []domain.Product{
		{ID: "kurta", Name: "Cotton Kurta", Category: "Clothing", UnitPrice: 19999, InStock: true, StockQuantity: 12, Rating: 4.5, CreatedAt: fixtureNow.Add(-48 * time.Hour)},
		{ID: "lamp", Name: "Brass Lamp", Category: "Home", UnitPrice: 5000, InStock: true, StockQuantity: 3, Rating: 4.8, CreatedAt: fixtureNow.Add(-24 * time.Hour)},
		{ID: "rug", Name: "Jute Rug", Category: "Home", UnitPrice: 50000, InStock: true, StockQuantity: 40, Rating: 3.9, CreatedAt: fixtureNow.Add(-72 * time.Hour)},
	}
}

type apiFixture struct {
	registry *memory.Registry
	router   chi.Router
}

func newAPIFixture(t *testing.T, allowGuest bool) *apiFixture {
	t.Helper()
	clock := func() time.Time { return fixtureNow }
	registry := memory.NewRegistry(memory.WithProducts(fixtureProducts()...))

	catalog, err := services.NewCatalogService(services.CatalogServiceDeps{Products: registry.Products()})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	pricing, err := services.NewPricingCalculator(services.DefaultPricingRules())
	if err != nil {
		t.Fatalf("NewPricingCalculator: %v", err)
	}
	carts, err := services.NewCartService(services.CartServiceDeps{
		Carts:          registry.Carts(),
		Products:       catalog,
		Pricing:        pricing,
		AllowGuestCart: allowGuest,
		Clock:          clock,
	})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	inventory, err := services.NewStockReserver(services.StockReserverDeps{Products: registry.Products(), Clock: clock})
	if err != nil {
		t.Fatalf("NewStockReserver: %v", err)
	}
	var seq atomic.Int64
	checkout, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Cart:        carts,
		Pricing:     pricing,
		Orders:      registry.Orders(),
		OrderLines:  registry.OrderLines(),
		Profiles:    registry.Profiles(),
		Inventory:   inventory,
		Idempotency: idempotency.NewMemoryStore(),
		Clock:       clock,
		IDGenerator: func() string { return fmt.Sprintf("ord_%03d", seq.Add(1)) },
	})
	if err != nil {
		t.Fatalf("NewCheckoutService: %v", err)
	}
	orders, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:     registry.Orders(),
		OrderLines: registry.OrderLines(),
		UnitOfWork: registry,
		Clock:      clock,
	})
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	dashboard, err := services.NewDashboardService(services.DashboardServiceDeps{
		Products:          registry.Products(),
		Orders:            registry.Orders(),
		Profiles:          registry.Profiles(),
		LowStockThreshold: 5,
		Clock:             clock,
	})
	if err != nil {
		t.Fatalf("NewDashboardService: %v", err)
	}

	authn := auth.NewAuthenticator(testTokens(), auth.WithAdminEmails("owner@shop.in"))
	router := NewRouter(
		WithPublicRoutes(NewCatalogHandlers(catalog).Routes),
		WithCartRoutes(NewCartHandlers(authn, carts).Routes),
		WithCheckoutRoutes(NewCheckoutHandlers(authn, checkout).Routes),
		WithOrderRoutes(NewOrderHandlers(authn, orders).Routes),
		WithAdminRoutes(NewAdminHandlers(authn, catalog, orders, dashboard).Routes),
	)
	return &apiFixture{registry: registry, router: router}
}

type requestOption func(*http.Request)

func withToken(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withGuest(id string) requestOption {
	return func(r *http.Request) { r.Header.Set(GuestCartHeader, id) }
}

func withIdempotencyKey(key string) requestOption {
	return func(r *http.Request) { r.Header.Set(IdempotencyKeyHeader, key) }
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rr.Code, rr.Body.String())
	}
}

func expectErrorCode(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) map[string]any {
	t.Helper()
	expectStatus(t, rr, status)
	body := decodeBody[map[string]any](t, rr)
	if body["error"] != code {
		t.Fatalf("expected error %q, got %v", code, body["error"])
	}
	return body
}

func validCheckoutBody() map[string]any {
	return map[string]any{
		"shipping": map[string]any{
			"fullName":   "Asha Rao",
			"email":      "asha@example.in",
			"phone":      "+91 98765 43210",
			"address":    "12 MG Road",
			"city":       "Bengaluru",
			"postalCode": "560001",
		},
		"paymentMethod": "card",
		"payment": map[string]any{
			"cardNumber": "4111111111111111",
			"expiry":     "12/27",
			"cvv":        "123",
			"nameOnCard": "ASHA RAO",
		},
	}
}
