package services

import (
	"context"
	"time"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination         = domain.Pagination
	Product            = domain.Product
	Cart               = domain.Cart
	CartLine           = domain.CartLine
	PricedLine         = domain.PricedLine
	PricingBreakdown   = domain.PricingBreakdown
	PaymentMethod      = domain.PaymentMethod
	Order              = domain.Order
	OrderLine          = domain.OrderLine
	OrderStatus        = domain.OrderStatus
	Profile            = domain.Profile
	DashboardSummary   = domain.DashboardSummary
	ProductFilter      = repositories.ProductFilter
	OrderListFilter    = repositories.OrderListFilter
	SystemHealthReport = domain.SystemHealthReport
)

// Logger is the structured logging hook every service accepts.
type Logger func(ctx context.Context, event string, fields map[string]any)

func noopLogger(context.Context, string, map[string]any) {}

// PricingCalculator derives checkout totals from priced lines.
type PricingCalculator interface {
	ComputeTotals(lines []PricedLine, method PaymentMethod) PricingBreakdown
}

// ProductLookup is the catalog collaborator used by the cart and checkout.
type ProductLookup interface {
	GetProduct(ctx context.Context, productID string) (Product, error)
}

// CatalogService serves storefront product listings and admin product writes.
type CatalogService interface {
	ProductLookup
	ListProducts(ctx context.Context, filter ProductFilter) (domain.CursorPage[Product], error)
	FeaturedProducts(ctx context.Context, limit int) ([]Product, error)
	Categories(ctx context.Context) ([]string, error)
	UpsertProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error)
}

// UpsertProductCommand carries an admin product write. A blank ProductID creates a new
// product; otherwise the existing product is replaced. Prices are minor units. A nil InStock
// follows StockQuantity.
type UpsertProductCommand struct {
	ProductID     string
	Name          string
	Description   string
	UnitPrice     int64
	OriginalPrice *int64
	Category      string
	ImageURL      string
	Badge         string
	Rating        float64
	InStock       *bool
	StockQuantity int
	ActorID       string
}

// CartService maintains the set of (product, quantity) lines held for a shopper.
type CartService interface {
	AddItem(ctx context.Context, shopper Shopper, productID string, quantity int) (CartView, error)
	UpdateQuantity(ctx context.Context, shopper Shopper, productID string, quantity int) (CartView, error)
	RemoveItem(ctx context.Context, shopper Shopper, productID string) (CartView, error)
	Clear(ctx context.Context, shopper Shopper) error
	GetCart(ctx context.Context, shopper Shopper) (CartView, error)
	TotalItems(ctx context.Context, shopper Shopper) (int, error)
	TotalPrice(ctx context.Context, shopper Shopper) (int64, error)
	ComputeTotals(ctx context.Context, shopper Shopper, method PaymentMethod) (PricingBreakdown, error)
}

// CheckoutService validates shopper input and turns the cart into an order.
type CheckoutService interface {
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (PlaceOrderResult, error)
}

// OrderService exposes order reads and the fulfillment status workflow.
type OrderService interface {
	GetOrder(ctx context.Context, orderID string) (Order, error)
	GetOrderForShopper(ctx context.Context, userID, orderID string) (Order, error)
	ListShopperOrders(ctx context.Context, userID string, pager Pagination) (domain.CursorPage[Order], error)
	ListOrders(ctx context.Context, filter OrderListFilter) (domain.CursorPage[Order], error)
	UpdateStatus(ctx context.Context, cmd OrderStatusUpdateCommand) (Order, error)
}

// DashboardService aggregates store metrics for administrators.
type DashboardService interface {
	Summary(ctx context.Context) (DashboardSummary, error)
}

// SystemService reports dependency readiness.
type SystemService interface {
	Readiness(ctx context.Context) (SystemHealthReport, error)
}

// InventoryReserver decrements and restores stock for order lines.
type InventoryReserver interface {
	Reserve(ctx context.Context, orderID string, lines []PricedLine) error
	Release(ctx context.Context, orderID string, lines []PricedLine) error
}

// OrderEventPublisher publishes order domain events for downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

const (
	OrderEventPlaced        = "order.placed"
	OrderEventStatusChanged = "order.status.changed"
)

// OrderEvent captures metadata for emitted order domain events.
type OrderEvent struct {
	Type           string
	OrderID        string
	UserID         string
	PreviousStatus string
	CurrentStatus  string
	TotalAmount    int64
	Currency       string
	ActorID        string
	OccurredAt     time.Time
}

// Shopper identifies the owner of a cart: a signed-in user or, when allowed, a guest token.
type Shopper struct {
	UserID  string
	GuestID string
}

// CartView is the cart joined with current catalog data.
type CartView struct {
	Key        string
	Lines      []CartViewLine
	TotalItems int
	TotalPrice int64
	UpdatedAt  time.Time
}

// CartViewLine is a cart line with the product it refers to. Unavailable lines have no product
// and contribute no price.
type CartViewLine struct {
	ProductID   string
	Quantity    int
	Product     *Product
	Unavailable bool
	LineTotal   int64
	AddedAt     time.Time
}

// ShippingInfo is the delivery contact captured at checkout.
type ShippingInfo struct {
	FullName   string
	Email      string
	Phone      string
	Address    string
	City       string
	PostalCode string
	Country    string
}

// PaymentDetails carries the method-specific fields the checkout form collects.
type PaymentDetails struct {
	CardNumber string
	Expiry     string
	CVV        string
	NameOnCard string
	UPIID      string
	BankName   string
}

// PlaceOrderCommand is the checkout request.
type PlaceOrderCommand struct {
	Shopper        Shopper
	Shipping       ShippingInfo
	PaymentMethod  PaymentMethod
	Payment        PaymentDetails
	IdempotencyKey string
}

// PlaceOrderResult is returned on successful checkout.
type PlaceOrderResult struct {
	OrderID   string
	Breakdown PricingBreakdown
	Order     Order
}

// OrderStatusUpdateCommand requests a fulfillment status change.
type OrderStatusUpdateCommand struct {
	OrderID      string
	TargetStatus OrderStatus
	ActorID      string
	Reason       string
}
