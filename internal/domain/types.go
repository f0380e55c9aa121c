package domain

import "time"

const (
	// MaxLineQuantity caps the units held by one cart line.
	MaxLineQuantity = 9999
	// MaxUnitPrice caps catalog prices in minor units. MaxLineQuantity*MaxUnitPrice stays
	// below 1e14, so line and cart totals cannot overflow int64.
	MaxUnitPrice int64 = 10_000_000_000
)

// Pagination captures list pagination parameters.
type Pagination struct {
	PageSize  int
	PageToken string
}

// CursorPage packages list results with an encoded next token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// Product is the catalog entry a cart line refers to. Prices are minor units.
type Product struct {
	ID            string
	Name          string
	Description   string
	UnitPrice     int64
	OriginalPrice *int64
	Category      string
	ImageURL      string
	Badge         string
	Rating        float64
	ReviewCount   int
	InStock       bool
	StockQuantity int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Cart is the set of lines held for a single cart key (user id or guest key).
type Cart struct {
	Key       string
	Lines     []CartLine
	UpdatedAt time.Time
}

// CartLine pairs a product reference with a positive quantity.
type CartLine struct {
	ProductID string
	Quantity  int
	AddedAt   time.Time
	UpdatedAt time.Time
}

// Profile stores the shipping details a signed-in shopper last checked out with.
type Profile struct {
	UserID     string
	FullName   string
	Email      string
	Phone      string
	Address    string
	City       string
	PostalCode string
	Country    string
	UpdatedAt  time.Time
}
