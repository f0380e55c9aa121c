package repositories

import (
	"context"
	"time"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Products() ProductRepository
	Carts() CartRepository
	Orders() OrderRepository
	OrderLines() OrderLineRepository
	Profiles() ProfileRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// HealthRepository exposes status of downstream dependencies for readiness checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

// ProductRepository reads and writes catalog entries and adjusts stock counts.
type ProductRepository interface {
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	List(ctx context.Context, filter ProductFilter) (domain.CursorPage[domain.Product], error)
	Count(ctx context.Context) (int, error)
	// Save creates or replaces the product stored under product.ID.
	Save(ctx context.Context, product domain.Product) error
	// AdjustStock applies delta to the stock quantity atomically. A result below zero
	// fails with ErrInsufficientStock and leaves the product untouched.
	AdjustStock(ctx context.Context, productID string, delta int, now time.Time) (domain.Product, error)
}

// CartRepository persists cart lines keyed by (cart key, product id).
type CartRepository interface {
	GetCart(ctx context.Context, cartKey string) (domain.Cart, error)
	UpsertLine(ctx context.Context, cartKey string, line domain.CartLine) error
	DeleteLine(ctx context.Context, cartKey string, productID string) error
	Clear(ctx context.Context, cartKey string) error
}

// OrderRepository persists order headers and provides query helpers for shoppers and admins.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	Update(ctx context.Context, order domain.Order) error
	Delete(ctx context.Context, orderID string) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
}

// OrderLineRepository stores the ordered line snapshots underneath an order.
type OrderLineRepository interface {
	InsertAll(ctx context.Context, orderID string, lines []domain.OrderLine) error
	DeleteAll(ctx context.Context, orderID string) error
	List(ctx context.Context, orderID string) ([]domain.OrderLine, error)
}

// ProfileRepository stores the shipping profile of signed-in shoppers.
type ProfileRepository interface {
	Upsert(ctx context.Context, profile domain.Profile) error
	FindByID(ctx context.Context, userID string) (domain.Profile, error)
	Count(ctx context.Context) (int, error)
}

// ProductFilter narrows catalog listings. Prices are minor units.
type ProductFilter struct {
	Category    string
	Search      string
	MinPrice    *int64
	MaxPrice    *int64
	InStockOnly bool
	MaxStock    *int
	SortBy      ProductSort
	Pagination  domain.Pagination
}

// ProductSort selects the ordering of product listings.
type ProductSort string

const (
	ProductSortNewest ProductSort = "newest"
	ProductSortRating ProductSort = "rating"
	ProductSortStock  ProductSort = "stock"
)

// OrderListFilter narrows order listings. Search matches id, guest contact, or address.
type OrderListFilter struct {
	UserID     string
	Status     []domain.OrderStatus
	Search     string
	Pagination domain.Pagination
}
