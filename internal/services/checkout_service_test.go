package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/idempotency"
)

type checkoutFixture struct {
	env       *testEnv
	service   CheckoutService
	events    *captureEvents
	logger    *captureLogger
	store     *idempotency.MemoryStore
	inventory InventoryReserver
}

type checkoutOption func(*CheckoutServiceDeps, *checkoutFixture)

func withIdempotency() checkoutOption {
	return func(deps *CheckoutServiceDeps, f *checkoutFixture) {
		f.store = idempotency.NewMemoryStore()
		deps.Idempotency = f.store
	}
}

func withInventory(t *testing.T) checkoutOption {
	return func(deps *CheckoutServiceDeps, f *checkoutFixture) {
		reserver, err := NewStockReserver(StockReserverDeps{Products: f.env.registry.Products(), Clock: fixedClock})
		if err != nil {
			t.Fatalf("NewStockReserver: %v", err)
		}
		f.inventory = reserver
		deps.Inventory = reserver
	}
}

func withOrderLines(repo *orderLineRepoStub) checkoutOption {
	return func(deps *CheckoutServiceDeps, _ *checkoutFixture) {
		deps.OrderLines = repo
	}
}

func newCheckoutFixture(t *testing.T, allowGuest bool, opts ...checkoutOption) *checkoutFixture {
	t.Helper()
	f := &checkoutFixture{
		env:    newTestEnv(t, allowGuest),
		events: &captureEvents{},
		logger: &captureLogger{},
	}
	seq := 0
	deps := CheckoutServiceDeps{
		Cart:       f.env.cart,
		Pricing:    f.env.pricing,
		Orders:     f.env.registry.Orders(),
		OrderLines: f.env.registry.OrderLines(),
		Profiles:   f.env.registry.Profiles(),
		Events:     f.events,
		Clock:      fixedClock,
		Logger:     f.logger.log,
		IDGenerator: func() string {
			seq++
			return fmt.Sprintf("TEST%02d", seq)
		},
	}
	for _, opt := range opts {
		opt(&deps, f)
	}
	service, err := NewCheckoutService(deps)
	if err != nil {
		t.Fatalf("NewCheckoutService: %v", err)
	}
	f.service = service
	return f
}

func validShipping() ShippingInfo {
	return ShippingInfo{
		FullName:   "Asha Rao",
		Email:      "asha@example.in",
		Phone:      "+91 98765 43210",
		Address:    "12 MG Road",
		City:       "Bengaluru",
		PostalCode: "560001",
	}
}

func cardCommand(shopper Shopper) PlaceOrderCommand {
	return PlaceOrderCommand{
		Shopper:       shopper,
		Shipping:      validShipping(),
		PaymentMethod: domain.PaymentMethodCard,
		Payment:       PaymentDetails{CardNumber: "4111111111111111", Expiry: "12/27", CVV: "123", NameOnCard: "ASHA RAO"},
	}
}

func TestCheckoutPlaceOrderForSignedInShopper(t *testing.T) {
	f := newCheckoutFixture(t, false)
	ctx := context.Background()
	f.env.add(t, alice, "kurta", 2)
	f.env.add(t, alice, "lamp", 1)

	result, err := f.service.PlaceOrder(ctx, cardCommand(alice))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if result.OrderID != "ord_TEST01" {
		t.Fatalf("expected order id ord_TEST01, got %s", result.OrderID)
	}
	if result.Breakdown.GrandTotal != 58098 || result.Breakdown.Tax != 8100 || result.Breakdown.Shipping != 5000 {
		t.Fatalf("unexpected breakdown %+v", result.Breakdown)
	}

	order, err := f.env.registry.Orders().FindByID(ctx, result.OrderID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if order.UserID != "user-alice" || order.Guest != nil {
		t.Fatalf("expected owned order without guest contact, got %+v", order)
	}
	if order.Status != domain.OrderStatusProcessing {
		t.Fatalf("expected processing status, got %s", order.Status)
	}
	if order.PaymentStatus != domain.PaymentStatusCompleted {
		t.Fatalf("expected completed payment for card, got %s", order.PaymentStatus)
	}
	if order.TotalAmount != 58098 {
		t.Fatalf("expected total snapshot 58098, got %d", order.TotalAmount)
	}
	if order.ShippingAddress != "12 MG Road, Bengaluru, 560001, India" {
		t.Fatalf("unexpected shipping address %q", order.ShippingAddress)
	}
	if !order.CreatedAt.Equal(testNow) {
		t.Fatalf("expected created at %v, got %v", testNow, order.CreatedAt)
	}

	lines, err := f.env.registry.OrderLines().List(ctx, result.OrderID)
	if err != nil {
		t.Fatalf("List lines: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected two order lines, got %d", len(lines))
	}
	for _, line := range lines {
		switch line.ProductID {
		case "kurta":
			if line.Quantity != 2 || line.UnitPrice != 19999 {
				t.Fatalf("unexpected kurta line %+v", line)
			}
		case "lamp":
			if line.Quantity != 1 || line.UnitPrice != 5000 {
				t.Fatalf("unexpected lamp line %+v", line)
			}
		default:
			t.Fatalf("unexpected line %+v", line)
		}
	}

	view, err := f.env.cart.GetCart(ctx, alice)
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if len(view.Lines) != 0 {
		t.Fatalf("expected cart cleared after checkout, got %d lines", len(view.Lines))
	}

	profile, err := f.env.registry.Profiles().FindByID(ctx, "user-alice")
	if err != nil {
		t.Fatalf("expected profile upserted: %v", err)
	}
	if profile.Phone != "9876543210" || profile.Country != "India" {
		t.Fatalf("unexpected profile %+v", profile)
	}

	if len(f.events.events) != 1 || f.events.events[0].Type != OrderEventPlaced || f.events.events[0].OrderID != result.OrderID {
		t.Fatalf("expected one order.placed event, got %+v", f.events.events)
	}
}

func TestCheckoutGuestOrderCarriesContactSnapshot(t *testing.T) {
	f := newCheckoutFixture(t, true)
	ctx := context.Background()
	guest := Shopper{GuestID: "g-42"}
	f.env.add(t, guest, "kurta", 2)
	f.env.add(t, guest, "lamp", 1)

	cmd := PlaceOrderCommand{Shopper: guest, Shipping: validShipping(), PaymentMethod: domain.PaymentMethodCashOnDelivery}
	cmd.Shipping.Country = "IN"
	result, err := f.service.PlaceOrder(ctx, cmd)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if result.Breakdown.Surcharge != 2500 || result.Breakdown.GrandTotal != 60598 {
		t.Fatalf("unexpected cod breakdown %+v", result.Breakdown)
	}
	order := result.Order
	if order.UserID != "" {
		t.Fatalf("expected guest order without owner, got %q", order.UserID)
	}
	if order.Guest == nil || order.Guest.Name != "Asha Rao" || order.Guest.Email != "asha@example.in" || order.Guest.Phone != "9876543210" {
		t.Fatalf("unexpected guest contact %+v", order.Guest)
	}
	if order.PaymentStatus != domain.PaymentStatusPending {
		t.Fatalf("expected pending payment for cod, got %s", order.PaymentStatus)
	}
	if order.ShippingAddress != "12 MG Road, Bengaluru, 560001, IN" {
		t.Fatalf("unexpected shipping address %q", order.ShippingAddress)
	}
	count, err := f.env.registry.Profiles().Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no profile for guest checkout, got %d", count)
	}
}

func TestCheckoutEmptyCartCreatesNoOrder(t *testing.T) {
	f := newCheckoutFixture(t, false)
	ctx := context.Background()

	cmd := cardCommand(alice)
	cmd.Shipping = ShippingInfo{}
	_, err := f.service.PlaceOrder(ctx, cmd)
	if !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected empty cart to be reported before validation, got %v", err)
	}
	page, err := f.env.registry.Orders().List(ctx, OrderListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Items) != 0 {
		t.Fatalf("expected no orders, got %d", len(page.Items))
	}
}

func TestCheckoutValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PlaceOrderCommand)
		field  string
	}{
		{name: "missing name", mutate: func(c *PlaceOrderCommand) { c.Shipping.FullName = " " }, field: "fullName"},
		{name: "missing name wins over bad email", mutate: func(c *PlaceOrderCommand) { c.Shipping.FullName = ""; c.Shipping.Email = "nope" }, field: "fullName"},
		{name: "missing city", mutate: func(c *PlaceOrderCommand) { c.Shipping.City = "" }, field: "city"},
		{name: "bad email", mutate: func(c *PlaceOrderCommand) { c.Shipping.Email = "asha@example" }, field: "email"},
		{name: "bad email wins over bad phone", mutate: func(c *PlaceOrderCommand) { c.Shipping.Email = "a b@c.d"; c.Shipping.Phone = "123" }, field: "email"},
		{name: "short phone", mutate: func(c *PlaceOrderCommand) { c.Shipping.Phone = "98765" }, field: "phone"},
		{name: "landline prefix", mutate: func(c *PlaceOrderCommand) { c.Shipping.Phone = "0801234567" }, field: "phone"},
		{name: "markup only name", mutate: func(c *PlaceOrderCommand) { c.Shipping.FullName = "<script></script>" }, field: "fullName"},
		{name: "card without cvv", mutate: func(c *PlaceOrderCommand) { c.Payment.CVV = "" }, field: "cvv"},
		{name: "upi missing", mutate: func(c *PlaceOrderCommand) { c.PaymentMethod = domain.PaymentMethodUPI }, field: "upiId"},
		{name: "upi malformed", mutate: func(c *PlaceOrderCommand) {
			c.PaymentMethod = domain.PaymentMethodUPI
			c.Payment.UPIID = "asha@okbank1"
		}, field: "upiId"},
		{name: "netbanking without bank", mutate: func(c *PlaceOrderCommand) { c.PaymentMethod = domain.PaymentMethodNetBanking }, field: "bankName"},
		{name: "unknown method", mutate: func(c *PlaceOrderCommand) { c.PaymentMethod = "cheque" }, field: "paymentMethod"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newCheckoutFixture(t, false)
			f.env.add(t, alice, "lamp", 1)
			cmd := cardCommand(alice)
			tc.mutate(&cmd)

			_, err := f.service.PlaceOrder(context.Background(), cmd)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if vErr.Field != tc.field {
				t.Fatalf("expected field %s, got %s (%v)", tc.field, vErr.Field, err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected error to wrap ErrValidation")
			}
			view, _ := f.env.cart.GetCart(context.Background(), alice)
			if len(view.Lines) != 1 {
				t.Fatalf("expected cart untouched after validation failure")
			}
		})
	}
}

func TestCheckoutAcceptsValidPaymentVariants(t *testing.T) {
	tests := []struct {
		name    string
		method  PaymentMethod
		details PaymentDetails
		phone   string
	}{
		{name: "upi", method: domain.PaymentMethodUPI, details: PaymentDetails{UPIID: "asha.rao-1@okhdfc"}, phone: "9876543210"},
		{name: "netbanking", method: domain.PaymentMethodNetBanking, details: PaymentDetails{BankName: "SBI"}, phone: "(0) 98765-43210"},
		{name: "full width phone", method: domain.PaymentMethodCashOnDelivery, phone: "９８７６５４３２１０"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newCheckoutFixture(t, false)
			f.env.add(t, alice, "lamp", 1)
			cmd := PlaceOrderCommand{Shopper: alice, Shipping: validShipping(), PaymentMethod: tc.method, Payment: tc.details}
			cmd.Shipping.Phone = tc.phone
			result, err := f.service.PlaceOrder(context.Background(), cmd)
			if err != nil {
				t.Fatalf("PlaceOrder: %v", err)
			}
			if result.Order.PaymentMethod != tc.method {
				t.Fatalf("expected method %s, got %s", tc.method, result.Order.PaymentMethod)
			}
		})
	}
}

func TestCheckoutStripsMarkupFromShippingFields(t *testing.T) {
	f := newCheckoutFixture(t, true)
	guest := Shopper{GuestID: "g-1"}
	f.env.add(t, guest, "lamp", 1)

	cmd := PlaceOrderCommand{Shopper: guest, Shipping: validShipping(), PaymentMethod: domain.PaymentMethodCashOnDelivery}
	cmd.Shipping.FullName = "<b>Asha</b> O'Neil"
	cmd.Shipping.Address = `12 MG Road <img src="x" onerror="alert(1)">`
	result, err := f.service.PlaceOrder(context.Background(), cmd)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if result.Order.Guest.Name != "Asha O'Neil" {
		t.Fatalf("expected markup stripped from name, got %q", result.Order.Guest.Name)
	}
	if result.Order.ShippingAddress != "12 MG Road, Bengaluru, 560001, India" {
		t.Fatalf("expected markup stripped from address, got %q", result.Order.ShippingAddress)
	}
}

func TestCheckoutRejectsUnavailableLines(t *testing.T) {
	f := newCheckoutFixture(t, false)
	f.env.add(t, alice, "lamp", 1)
	f.env.add(t, alice, "kurta", 1)

	lookup := &productLookupStub{getFn: func(ctx context.Context, productID string) (Product, error) {
		if productID == "kurta" {
			return Product{}, ErrProductNotFound
		}
		return f.env.catalog.GetProduct(ctx, productID)
	}}
	cart, err := NewCartService(CartServiceDeps{Carts: f.env.registry.Carts(), Products: lookup, Pricing: f.env.pricing, Clock: fixedClock})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	service, err := NewCheckoutService(CheckoutServiceDeps{
		Cart:       cart,
		Pricing:    f.env.pricing,
		Orders:     f.env.registry.Orders(),
		OrderLines: f.env.registry.OrderLines(),
		Clock:      fixedClock,
	})
	if err != nil {
		t.Fatalf("NewCheckoutService: %v", err)
	}

	_, err = service.PlaceOrder(context.Background(), cardCommand(alice))
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "cart" {
		t.Fatalf("expected cart validation error, got %v", err)
	}
}

func TestCheckoutRejectsOversizedStoredLine(t *testing.T) {
	f := newCheckoutFixture(t, false)
	ctx := context.Background()
	err := f.env.registry.Carts().UpsertLine(ctx, alice.UserID, CartLine{
		ProductID: "kurta",
		Quantity:  1_000_000_000_000_000,
		AddedAt:   testNow,
		UpdatedAt: testNow,
	})
	if err != nil {
		t.Fatalf("UpsertLine: %v", err)
	}

	_, err = f.service.PlaceOrder(ctx, cardCommand(alice))
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "quantity" {
		t.Fatalf("expected quantity validation error, got %v", err)
	}
	page, err := f.env.registry.Orders().List(ctx, OrderListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page.Items) != 0 {
		t.Fatalf("expected no order to be created, got %d", len(page.Items))
	}
}

func TestCheckoutLineFailureRemovesHeader(t *testing.T) {
	lines := &orderLineRepoStub{insertAllFn: func(context.Context, string, []OrderLine) error { return errBoom }}
	f := newCheckoutFixture(t, false, withOrderLines(lines), withInventory(t))
	ctx := context.Background()
	f.env.add(t, alice, "lamp", 2)

	_, err := f.service.PlaceOrder(ctx, cardCommand(alice))
	if !errors.Is(err, ErrOrderItemsCreation) {
		t.Fatalf("expected order items creation error, got %v", err)
	}
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	var itemsErr *OrderItemsCreationError
	if !errors.As(err, &itemsErr) || itemsErr.OrderID != "ord_TEST01" || itemsErr.Cleanup != nil {
		t.Fatalf("unexpected items error %+v", itemsErr)
	}

	if _, err := f.env.registry.Orders().FindByID(ctx, "ord_TEST01"); err == nil {
		t.Fatalf("expected order header to be deleted")
	}
	product, err := f.env.registry.Products().FindByID(ctx, "lamp")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if product.StockQuantity != 3 {
		t.Fatalf("expected stock released back to 3, got %d", product.StockQuantity)
	}
	view, _ := f.env.cart.GetCart(ctx, alice)
	if len(view.Lines) != 1 {
		t.Fatalf("expected cart kept after failure")
	}
	if !f.logger.has("checkout.order_lines.insert_failed") {
		t.Fatalf("expected insert failure to be logged")
	}
	if len(f.events.events) != 0 {
		t.Fatalf("expected no events for failed checkout")
	}
}

func TestCheckoutInventoryReservation(t *testing.T) {
	f := newCheckoutFixture(t, false, withInventory(t))
	ctx := context.Background()

	f.env.add(t, alice, "lamp", 3)
	if _, err := f.service.PlaceOrder(ctx, cardCommand(alice)); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	lamp, _ := f.env.registry.Products().FindByID(ctx, "lamp")
	if lamp.StockQuantity != 0 || lamp.InStock {
		t.Fatalf("expected lamp sold out, got %+v", lamp)
	}

	f.env.add(t, alice, "kurta", 13)
	_, err := f.service.PlaceOrder(ctx, cardCommand(alice))
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if _, err := f.env.registry.Orders().FindByID(ctx, "ord_TEST02"); err == nil {
		t.Fatalf("expected header removed after failed reservation")
	}
	kurta, _ := f.env.registry.Products().FindByID(ctx, "kurta")
	if kurta.StockQuantity != 12 {
		t.Fatalf("expected kurta stock untouched, got %d", kurta.StockQuantity)
	}
}

func TestCheckoutIdempotency(t *testing.T) {
	ctx := context.Background()

	t.Run("key required", func(t *testing.T) {
		f := newCheckoutFixture(t, false, withIdempotency())
		f.env.add(t, alice, "lamp", 1)
		_, err := f.service.PlaceOrder(ctx, cardCommand(alice))
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.Field != "idempotencyKey" {
			t.Fatalf("expected idempotency key validation error, got %v", err)
		}
	})

	t.Run("empty cart reported before missing key", func(t *testing.T) {
		f := newCheckoutFixture(t, false, withIdempotency())
		_, err := f.service.PlaceOrder(ctx, cardCommand(alice))
		if !errors.Is(err, ErrEmptyCart) {
			t.Fatalf("expected empty cart error, got %v", err)
		}
		if page, _ := f.env.registry.Orders().List(ctx, OrderListFilter{}); len(page.Items) != 0 {
			t.Fatalf("expected no order, got %d", len(page.Items))
		}
	})

	t.Run("duplicate rejected", func(t *testing.T) {
		f := newCheckoutFixture(t, false, withIdempotency())
		f.env.add(t, alice, "lamp", 1)
		cmd := cardCommand(alice)
		cmd.IdempotencyKey = "checkout-1"

		first, err := f.service.PlaceOrder(ctx, cmd)
		if err != nil {
			t.Fatalf("PlaceOrder: %v", err)
		}
		f.env.add(t, alice, "lamp", 1)
		_, err = f.service.PlaceOrder(ctx, cmd)
		var dup *DuplicateOrderError
		if !errors.As(err, &dup) || dup.OrderID != first.OrderID {
			t.Fatalf("expected duplicate order error for %s, got %v", first.OrderID, err)
		}
		if !errors.Is(err, ErrDuplicateOrder) {
			t.Fatalf("expected ErrDuplicateOrder, got %v", err)
		}
		page, _ := f.env.registry.Orders().List(ctx, OrderListFilter{})
		if len(page.Items) != 1 {
			t.Fatalf("expected a single order, got %d", len(page.Items))
		}
		view, _ := f.env.cart.GetCart(ctx, alice)
		if len(view.Lines) != 1 {
			t.Fatalf("expected rejected duplicate to leave the new cart alone")
		}
	})

	t.Run("key reused with other request", func(t *testing.T) {
		f := newCheckoutFixture(t, false, withIdempotency())
		f.env.add(t, alice, "lamp", 1)
		cmd := cardCommand(alice)
		cmd.IdempotencyKey = "checkout-1"
		if _, err := f.service.PlaceOrder(ctx, cmd); err != nil {
			t.Fatalf("PlaceOrder: %v", err)
		}
		cmd.Shipping.City = "Mysuru"
		if _, err := f.service.PlaceOrder(ctx, cmd); !errors.Is(err, ErrIdempotencyKeyReused) {
			t.Fatalf("expected key reuse error, got %v", err)
		}
	})

	t.Run("failure releases key", func(t *testing.T) {
		f := newCheckoutFixture(t, false, withIdempotency())
		cmd := cardCommand(alice)
		cmd.IdempotencyKey = "checkout-1"
		if _, err := f.service.PlaceOrder(ctx, cmd); !errors.Is(err, ErrEmptyCart) {
			t.Fatalf("expected empty cart, got %v", err)
		}
		f.env.add(t, alice, "lamp", 1)
		if _, err := f.service.PlaceOrder(ctx, cmd); err != nil {
			t.Fatalf("expected retry with same key to succeed, got %v", err)
		}
	})

	t.Run("keys are scoped per shopper", func(t *testing.T) {
		f := newCheckoutFixture(t, false, withIdempotency())
		bob := Shopper{UserID: "user-bob"}
		f.env.add(t, alice, "lamp", 1)
		f.env.add(t, bob, "lamp", 1)
		for _, shopper := range []Shopper{alice, bob} {
			cmd := cardCommand(shopper)
			cmd.IdempotencyKey = "same"
			if _, err := f.service.PlaceOrder(ctx, cmd); err != nil {
				t.Fatalf("PlaceOrder(%s): %v", shopper.UserID, err)
			}
		}
	})

	t.Run("pending key reports in progress", func(t *testing.T) {
		f := newCheckoutFixture(t, false, withIdempotency())
		f.env.add(t, alice, "lamp", 1)
		cmd := cardCommand(alice)
		cmd.IdempotencyKey = "checkout-1"
		key := idempotency.Key{Scope: "user:user-alice", Value: "checkout-1"}
		if _, err := f.store.Reserve(ctx, key, checkoutFingerprint(cmd), testNow, 0); err != nil {
			t.Fatalf("Reserve: %v", err)
		}
		if _, err := f.service.PlaceOrder(ctx, cmd); !errors.Is(err, ErrCheckoutInProgress) {
			t.Fatalf("expected checkout in progress, got %v", err)
		}
	})
}

func TestCheckoutBestEffortFollowUps(t *testing.T) {
	f := newCheckoutFixture(t, false)
	f.events.err = errBoom
	f.env.add(t, alice, "lamp", 1)

	if _, err := f.service.PlaceOrder(context.Background(), cardCommand(alice)); err != nil {
		t.Fatalf("expected publish failure to be swallowed, got %v", err)
	}
	if !f.logger.has("order.event.publish.failed") {
		t.Fatalf("expected publish failure to be logged")
	}
}

func TestCheckoutRequiresShopper(t *testing.T) {
	f := newCheckoutFixture(t, false)
	if _, err := f.service.PlaceOrder(context.Background(), cardCommand(Shopper{})); !errors.Is(err, ErrAuthenticationRequired) {
		t.Fatalf("expected authentication required, got %v", err)
	}
	if _, err := f.service.PlaceOrder(context.Background(), cardCommand(Shopper{GuestID: "g-1"})); !errors.Is(err, ErrAuthenticationRequired) {
		t.Fatalf("expected guests rejected when guest carts are disabled, got %v", err)
	}
}
