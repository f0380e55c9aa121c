package repositories

import (
	"cmp"
	"slices"
	"strings"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
)

// Match reports whether product satisfies every criterion of the filter.
// Category and search comparisons are case-insensitive.
func (f ProductFilter) Match(product domain.Product) bool {
	if f.Category != "" && !strings.EqualFold(product.Category, f.Category) {
		return false
	}
	if f.InStockOnly && !product.InStock {
		return false
	}
	if f.MinPrice != nil && product.UnitPrice < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && product.UnitPrice > *f.MaxPrice {
		return false
	}
	if f.MaxStock != nil && product.StockQuantity >= *f.MaxStock {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(product.Name), q) && !strings.Contains(strings.ToLower(product.Description), q) {
			return false
		}
	}
	return true
}

// Compare orders two products according to the filter's sort, breaking ties by id.
func (f ProductFilter) Compare(a, b domain.Product) int {
	var c int
	switch f.SortBy {
	case ProductSortRating:
		c = cmp.Compare(b.Rating, a.Rating)
	case ProductSortStock:
		c = cmp.Compare(a.StockQuantity, b.StockQuantity)
	default:
		c = b.CreatedAt.Compare(a.CreatedAt)
	}
	if c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Match reports whether order satisfies the owner, status, and search criteria.
func (f OrderListFilter) Match(order domain.Order) bool {
	if f.UserID != "" && order.UserID != f.UserID {
		return false
	}
	if len(f.Status) > 0 && !slices.Contains(f.Status, order.Status) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	fields := []string{order.ID, order.ShippingAddress}
	if order.Guest != nil {
		fields = append(fields, order.Guest.Name, order.Guest.Email, order.Guest.Phone)
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// CompareOrders orders newest first, breaking ties by id.
func CompareOrders(a, b domain.Order) int {
	if n := b.CreatedAt.Compare(a.CreatedAt); n != 0 {
		return n
	}
	return cmp.Compare(a.ID, b.ID)
}
