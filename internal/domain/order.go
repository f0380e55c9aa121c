package domain

import "time"

// OrderStatus enumerates fulfillment states of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus enumerates capture states of an order payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// GuestContact is the denormalised contact snapshot stored on guest orders.
type GuestContact struct {
	Name  string
	Email string
	Phone string
}

// Order is the immutable header produced at checkout. Only Status changes afterwards.
type Order struct {
	ID              string
	UserID          string
	Guest           *GuestContact
	ShippingAddress string
	PaymentMethod   PaymentMethod
	PaymentStatus   PaymentStatus
	Status          OrderStatus
	TotalAmount     int64
	Pricing         PricingBreakdown
	IdempotencyKey  string
	Lines           []OrderLine
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StatusHistory   []OrderStatusChange
}

// OrderLine snapshots the unit price of a product at order time.
type OrderLine struct {
	OrderID   string
	Position  int
	ProductID string
	Name      string
	Quantity  int
	UnitPrice int64
}

// OrderStatusChange records an explicit fulfillment status update.
type OrderStatusChange struct {
	From      OrderStatus
	To        OrderStatus
	ActorID   string
	Reason    string
	ChangedAt time.Time
}

// DashboardSummary aggregates store metrics for the admin dashboard.
type DashboardSummary struct {
	TotalProducts     int
	TotalCustomers    int
	TotalOrders       int
	TotalRevenue      int64
	RecentOrders      []Order
	LowStockProducts  []Product
	LowStockThreshold int
	GeneratedAt       time.Time
}
