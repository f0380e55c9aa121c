package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/pagination"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories"
)

const (
	defaultFeaturedLimit = 8
	productIDPrefix      = "prd_"
	maxProductRating     = 5
)

var errCatalogRepositoryRequired = errors.New("catalog service: product repository is required")

// CatalogServiceDeps wires the product repository into the catalog service. Clock and
// IDGenerator default to the wall clock and ULIDs.
type CatalogServiceDeps struct {
	Products    repositories.ProductRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      Logger
}

type catalogService struct {
	products repositories.ProductRepository
	now      func() time.Time
	newID    func() string
	logger   Logger
}

// NewCatalogService constructs a CatalogService.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errCatalogRepositoryRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	return &catalogService{
		products: deps.Products,
		now:      func() time.Time { return clock().UTC() },
		newID:    idGen,
		logger:   logger,
	}, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (Product, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return Product{}, validationError("productId", "is required")
	}
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return Product{}, mapRepositoryError(err, ErrProductNotFound)
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, filter ProductFilter) (domain.CursorPage[Product], error) {
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.MinPrice != nil && *filter.MinPrice < 0 {
		return domain.CursorPage[Product]{}, validationError("minPrice", "must not be negative")
	}
	if filter.MaxPrice != nil && *filter.MaxPrice < 0 {
		return domain.CursorPage[Product]{}, validationError("maxPrice", "must not be negative")
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return domain.CursorPage[Product]{}, validationError("minPrice", "must not exceed maxPrice")
	}
	page, err := s.products.List(ctx, filter)
	if err != nil {
		return domain.CursorPage[Product]{}, mapRepositoryError(err, nil)
	}
	return page, nil
}

// FeaturedProducts returns the best rated in-stock products.
func (s *catalogService) FeaturedProducts(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = defaultFeaturedLimit
	}
	limit = min(limit, pagination.DefaultMaxPageSize)
	page, err := s.products.List(ctx, ProductFilter{
		InStockOnly: true,
		SortBy:      repositories.ProductSortRating,
		Pagination:  Pagination{PageSize: limit},
	})
	if err != nil {
		return nil, mapRepositoryError(err, nil)
	}
	return page.Items, nil
}

// Categories walks the catalog and returns each distinct label once, sorted.
func (s *catalogService) Categories(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	categories := make([]string, 0)
	err := eachProduct(ctx, s.products, ProductFilter{}, func(p Product) {
		label := strings.TrimSpace(p.Category)
		if label == "" {
			return
		}
		if _, ok := seen[label]; ok {
			return
		}
		seen[label] = struct{}{}
		categories = append(categories, label)
	})
	if err != nil {
		return nil, mapRepositoryError(err, nil)
	}
	slices.Sort(categories)
	return categories, nil
}

// UpsertProduct validates an admin product write and stores it. Updates keep the creation time
// and review count of the stored product.
func (s *catalogService) UpsertProduct(ctx context.Context, cmd UpsertProductCommand) (Product, error) {
	product, err := productFromCommand(cmd)
	if err != nil {
		return Product{}, err
	}

	now := s.now()
	created := product.ID == ""
	if created {
		product.ID = productIDPrefix + s.newID()
		product.CreatedAt = now
	} else {
		existing, err := s.products.FindByID(ctx, product.ID)
		if err != nil {
			return Product{}, mapRepositoryError(err, ErrProductNotFound)
		}
		product.CreatedAt = existing.CreatedAt
		product.ReviewCount = existing.ReviewCount
	}
	product.UpdatedAt = now

	if err := s.products.Save(ctx, product); err != nil {
		return Product{}, mapRepositoryError(err, nil)
	}
	s.logger(ctx, "catalog.product.saved", map[string]any{
		"productId": product.ID,
		"created":   created,
		"actorId":   strings.TrimSpace(cmd.ActorID),
	})
	return product, nil
}

func productFromCommand(cmd UpsertProductCommand) (Product, error) {
	product := Product{
		ID:            strings.TrimSpace(cmd.ProductID),
		Name:          strings.TrimSpace(cmd.Name),
		Description:   strings.TrimSpace(cmd.Description),
		UnitPrice:     cmd.UnitPrice,
		Category:      strings.TrimSpace(cmd.Category),
		ImageURL:      strings.TrimSpace(cmd.ImageURL),
		Badge:         strings.TrimSpace(cmd.Badge),
		Rating:        cmd.Rating,
		StockQuantity: cmd.StockQuantity,
		InStock:       cmd.StockQuantity > 0,
	}
	switch {
	case product.Name == "":
		return Product{}, validationError("name", "is required")
	case !validUnitPrice(product.UnitPrice):
		return Product{}, validationError("price", fmt.Sprintf("must be between 0 and %d", domain.MaxUnitPrice))
	case cmd.OriginalPrice != nil && !validUnitPrice(*cmd.OriginalPrice):
		return Product{}, validationError("originalPrice", fmt.Sprintf("must be between 0 and %d", domain.MaxUnitPrice))
	case product.StockQuantity < 0:
		return Product{}, validationError("stockQuantity", "must not be negative")
	case product.Rating < 0 || product.Rating > maxProductRating:
		return Product{}, validationError("rating", fmt.Sprintf("must be between 0 and %d", maxProductRating))
	}
	if cmd.OriginalPrice != nil {
		original := *cmd.OriginalPrice
		product.OriginalPrice = &original
	}
	if cmd.InStock != nil {
		product.InStock = *cmd.InStock
	}
	return product, nil
}

func validUnitPrice(price int64) bool {
	return price >= 0 && price <= domain.MaxUnitPrice
}

func eachProduct(ctx context.Context, products repositories.ProductRepository, filter ProductFilter, fn func(Product)) error {
	filter.Pagination = Pagination{PageSize: pagination.DefaultMaxPageSize}
	for {
		page, err := products.List(ctx, filter)
		if err != nil {
			return err
		}
		for _, p := range page.Items {
			fn(p)
		}
		if page.NextPageToken == "" {
			return nil
		}
		filter.Pagination.PageToken = page.NextPageToken
	}
}
