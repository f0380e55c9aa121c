package services

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
)

var alice = Shopper{UserID: "user-alice"}

func TestCartServiceAddItemIncrementsExistingLine(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	env.add(t, alice, "kurta", 1)
	view, err := env.cart.AddItem(ctx, alice, "kurta", 2)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if len(view.Lines) != 1 {
		t.Fatalf("expected a single line, got %d", len(view.Lines))
	}
	if view.Lines[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", view.Lines[0].Quantity)
	}
	if view.TotalPrice != 3*19999 {
		t.Fatalf("expected total price %d, got %d", 3*19999, view.TotalPrice)
	}
	if view.Key != "user-alice" {
		t.Fatalf("expected cart keyed by user id, got %q", view.Key)
	}
}

func TestCartServiceAddItemDefaultsZeroQuantityToOne(t *testing.T) {
	env := newTestEnv(t, false)
	view, err := env.cart.AddItem(context.Background(), alice, "lamp", 0)
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if view.TotalItems != 1 {
		t.Fatalf("expected one item, got %d", view.TotalItems)
	}
}

func TestCartServiceAddItemRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t, false)

	tests := []struct {
		name      string
		productID string
		quantity  int
		want      error
		field     string
	}{
		{name: "negative quantity", productID: "kurta", quantity: -2, want: ErrValidation, field: "quantity"},
		{name: "unknown product", productID: "ghost", quantity: 1, want: ErrProductNotFound},
		{name: "out of stock", productID: "shawl", quantity: 1, want: ErrValidation, field: "productId"},
		{name: "blank product", productID: "  ", quantity: 1, want: ErrValidation, field: "productId"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.cart.AddItem(context.Background(), alice, tc.productID, tc.quantity)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if tc.field != "" {
				var vErr *ValidationError
				if !errors.As(err, &vErr) || vErr.Field != tc.field {
					t.Fatalf("expected validation error on %s, got %v", tc.field, err)
				}
			}
		})
	}

	total, err := env.cart.TotalItems(context.Background(), alice)
	if err != nil {
		t.Fatalf("TotalItems: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected rejected adds to leave the cart empty, got %d items", total)
	}
}

func TestCartServiceUpdateQuantity(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.add(t, alice, "kurta", 1)
	env.add(t, alice, "lamp", 1)

	view, err := env.cart.UpdateQuantity(ctx, alice, "kurta", 5)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if view.TotalItems != 6 {
		t.Fatalf("expected 6 items, got %d", view.TotalItems)
	}

	view, err = env.cart.UpdateQuantity(ctx, alice, "kurta", 0)
	if err != nil {
		t.Fatalf("UpdateQuantity to zero: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].ProductID != "lamp" {
		t.Fatalf("expected zero quantity to remove the line, got %+v", view.Lines)
	}

	if _, err := env.cart.UpdateQuantity(ctx, alice, "rug", 2); !errors.Is(err, ErrCartLineNotFound) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected cart line not found, got %v", err)
	}
}

func TestCartServiceCapsLineQuantity(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	expectCapped := func(t *testing.T, err error) {
		t.Helper()
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Field != "quantity" {
			t.Fatalf("expected quantity validation error, got %v", err)
		}
	}

	_, err := env.cart.AddItem(ctx, alice, "kurta", domain.MaxLineQuantity+1)
	expectCapped(t, err)

	env.add(t, alice, "kurta", domain.MaxLineQuantity-1)
	view, err := env.cart.AddItem(ctx, alice, "kurta", 1)
	if err != nil {
		t.Fatalf("AddItem up to the cap: %v", err)
	}
	if view.TotalItems != domain.MaxLineQuantity {
		t.Fatalf("expected %d items, got %d", domain.MaxLineQuantity, view.TotalItems)
	}

	_, err = env.cart.AddItem(ctx, alice, "kurta", 1)
	expectCapped(t, err)
	_, err = env.cart.AddItem(ctx, alice, "kurta", math.MaxInt-1)
	expectCapped(t, err)
	_, err = env.cart.UpdateQuantity(ctx, alice, "kurta", 1_000_000_000_000_000)
	expectCapped(t, err)

	total, err := env.cart.TotalItems(ctx, alice)
	if err != nil {
		t.Fatalf("TotalItems: %v", err)
	}
	if total != domain.MaxLineQuantity {
		t.Fatalf("expected rejected changes to keep %d items, got %d", domain.MaxLineQuantity, total)
	}
	price, err := env.cart.TotalPrice(ctx, alice)
	if err != nil {
		t.Fatalf("TotalPrice: %v", err)
	}
	if want := int64(domain.MaxLineQuantity) * 19999; price != want {
		t.Fatalf("expected total price %d, got %d", want, price)
	}
}

func TestCartServiceRemoveAndClear(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.add(t, alice, "kurta", 2)
	env.add(t, alice, "lamp", 1)

	if _, err := env.cart.RemoveItem(ctx, alice, "rug"); err != nil {
		t.Fatalf("removing a missing line should be a no-op, got %v", err)
	}
	view, err := env.cart.RemoveItem(ctx, alice, "kurta")
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if view.TotalItems != 1 {
		t.Fatalf("expected one item left, got %d", view.TotalItems)
	}

	if err := env.cart.Clear(ctx, alice); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	view, err = env.cart.GetCart(ctx, alice)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(view.Lines) != 0 || view.TotalPrice != 0 {
		t.Fatalf("expected empty cart after clear, got %+v", view)
	}
}

func TestCartServiceShopperScoping(t *testing.T) {
	ctx := context.Background()

	closed := newTestEnv(t, false)
	if _, err := closed.cart.GetCart(ctx, Shopper{GuestID: "g-1"}); !errors.Is(err, ErrAuthenticationRequired) {
		t.Fatalf("expected guests to be rejected, got %v", err)
	}
	if _, err := closed.cart.GetCart(ctx, Shopper{}); !errors.Is(err, ErrAuthenticationRequired) {
		t.Fatalf("expected anonymous shopper to be rejected, got %v", err)
	}

	open := newTestEnv(t, true)
	view, err := open.cart.AddItem(ctx, Shopper{GuestID: "g-1"}, "lamp", 1)
	if err != nil {
		t.Fatalf("AddItem as guest: %v", err)
	}
	if view.Key != "guest:g-1" {
		t.Fatalf("expected guest cart key, got %q", view.Key)
	}
	other, err := open.cart.GetCart(ctx, Shopper{GuestID: "g-2"})
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(other.Lines) != 0 {
		t.Fatalf("expected guest carts to be isolated, got %+v", other.Lines)
	}
	if _, err := open.cart.GetCart(ctx, Shopper{GuestID: "a/b"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected invalid guest id to be rejected, got %v", err)
	}
	signedIn, err := open.cart.GetCart(ctx, Shopper{UserID: "u-1", GuestID: "g-1"})
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if signedIn.Key != "u-1" {
		t.Fatalf("expected the user id to win over the guest id, got %q", signedIn.Key)
	}
}

func TestCartServiceReportsUnavailableLines(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.add(t, alice, "kurta", 2)
	env.add(t, alice, "lamp", 1)

	lookup := &productLookupStub{getFn: func(ctx context.Context, productID string) (Product, error) {
		if productID == "lamp" {
			return Product{}, ErrProductNotFound
		}
		return env.catalog.GetProduct(ctx, productID)
	}}
	cart, err := NewCartService(CartServiceDeps{
		Carts:    env.registry.Carts(),
		Products: lookup,
		Pricing:  env.pricing,
		Clock:    fixedClock,
	})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}

	view, err := cart.GetCart(ctx, alice)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(view.Lines) != 2 {
		t.Fatalf("expected both lines to be reported, got %d", len(view.Lines))
	}
	var unavailable int
	for _, line := range view.Lines {
		if line.Unavailable {
			unavailable++
			if line.Product != nil || line.LineTotal != 0 {
				t.Fatalf("expected unavailable line without product or price, got %+v", line)
			}
		}
	}
	if unavailable != 1 {
		t.Fatalf("expected one unavailable line, got %d", unavailable)
	}
	if view.TotalPrice != 2*19999 {
		t.Fatalf("expected unavailable line excluded from price, got %d", view.TotalPrice)
	}
	if view.TotalItems != 3 {
		t.Fatalf("expected total items to include every line, got %d", view.TotalItems)
	}
	if got := len(view.PricedLines()); got != 1 {
		t.Fatalf("expected one priced line, got %d", got)
	}
}

func TestCartServiceComputeTotals(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.add(t, alice, "kurta", 2)
	env.add(t, alice, "lamp", 1)

	card, err := env.cart.ComputeTotals(ctx, alice, domain.PaymentMethodCard)
	if err != nil {
		t.Fatalf("ComputeTotals: %v", err)
	}
	if card.GrandTotal != 58098 {
		t.Fatalf("expected card total 58098, got %d", card.GrandTotal)
	}
	cod, err := env.cart.ComputeTotals(ctx, alice, domain.PaymentMethodCashOnDelivery)
	if err != nil {
		t.Fatalf("ComputeTotals: %v", err)
	}
	if cod.GrandTotal != 60598 {
		t.Fatalf("expected cod total 60598, got %d", cod.GrandTotal)
	}
	if _, err := env.cart.ComputeTotals(ctx, alice, PaymentMethod("cheque")); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected unsupported method to fail validation, got %v", err)
	}
}

func TestCartServiceTotalPriceMatchesLineSum(t *testing.T) {
	rng := rand.New(rand.NewPCG(2024, 5))
	products := []string{"kurta", "lamp", "rug"}
	prices := map[string]int64{"kurta": 19999, "lamp": 5000, "rug": 50000}

	for i := 0; i < 50; i++ {
		env := newTestEnv(t, false)
		quantities := map[string]int{}
		for j := 0; j < 1+rng.IntN(8); j++ {
			id := products[rng.IntN(len(products))]
			q := 1 + rng.IntN(4)
			env.add(t, alice, id, q)
			quantities[id] += q
		}

		var want int64
		wantItems := 0
		for id, q := range quantities {
			want += int64(q) * prices[id]
			wantItems += q
		}

		price, err := env.cart.TotalPrice(context.Background(), alice)
		if err != nil {
			t.Fatalf("TotalPrice: %v", err)
		}
		items, err := env.cart.TotalItems(context.Background(), alice)
		if err != nil {
			t.Fatalf("TotalItems: %v", err)
		}
		if price != want || items != wantItems {
			t.Fatalf("iteration %d: expected %d items at %d, got %d at %d", i, wantItems, want, items, price)
		}
	}
}

func TestNewCartServiceRequiresDependencies(t *testing.T) {
	env := newTestEnv(t, false)
	if _, err := NewCartService(CartServiceDeps{Products: env.catalog, Pricing: env.pricing, Clock: fixedClock}); err == nil {
		t.Fatalf("expected missing repository error")
	}
	if _, err := NewCartService(CartServiceDeps{Carts: env.registry.Carts(), Pricing: env.pricing, Clock: fixedClock}); err == nil {
		t.Fatalf("expected missing product lookup error")
	}
	if _, err := NewCartService(CartServiceDeps{Carts: env.registry.Carts(), Products: env.catalog, Clock: fixedClock}); err == nil {
		t.Fatalf("expected missing pricing error")
	}
	if _, err := NewCartService(CartServiceDeps{Carts: env.registry.Carts(), Products: env.catalog, Pricing: env.pricing}); err == nil {
		t.Fatalf("expected missing clock error")
	}
}
