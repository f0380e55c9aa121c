package firestore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	pfirestore "github.com/naga-sai1/inv-ecommerce/internal/platform/firestore"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/pagination"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories"
)

const productsCollection = "products"

// ProductRepository reads the catalog and performs transactional stock adjustments.
type ProductRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.Collection[productDocument]
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	return &ProductRepository{
		provider: provider,
		base:     pfirestore.NewCollection[productDocument](provider, productsCollection),
	}, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.base == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(productID))
	if err != nil {
		return domain.Product{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// List narrows by stock state in Firestore and applies the remaining criteria in process, since
// substring search and case-insensitive category matching have no native query form.
func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductFilter) (domain.CursorPage[domain.Product], error) {
	if r == nil || r.base == nil {
		return domain.CursorPage[domain.Product]{}, errors.New("product repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.InStockOnly {
			q = q.Where("inStock", "==", true)
		}
		return q
	})
	if err != nil {
		return domain.CursorPage[domain.Product]{}, err
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		product := doc.Data.toDomain(doc.ID)
		if filter.Match(product) {
			products = append(products, product)
		}
	}
	slices.SortFunc(products, filter.Compare)

	start, end, next, err := pagination.Window(len(products), filter.Pagination.PageSize, filter.Pagination.PageToken)
	if err != nil {
		return domain.CursorPage[domain.Product]{}, err
	}
	return domain.CursorPage[domain.Product]{Items: products[start:end], NextPageToken: next}, nil
}

func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	if r == nil || r.base == nil {
		return 0, errors.New("product repository not initialised")
	}
	return countCollection(ctx, r.base.Ref)
}

// Save upserts a catalog entry.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) error {
	if r == nil || r.base == nil {
		return errors.New("product repository not initialised")
	}
	return r.base.Set(ctx, strings.TrimSpace(product.ID), newProductDocument(product))
}

// AdjustStock reads and writes the stock counters inside one transaction.
func (r *ProductRepository) AdjustStock(ctx context.Context, productID string, delta int, now time.Time) (domain.Product, error) {
	if r == nil || r.provider == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	productID = strings.TrimSpace(productID)

	var updated domain.Product
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.Doc(ctx, productID)
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		doc, err := r.base.Decode(snap)
		if err != nil {
			return err
		}

		next := doc.Data.StockQuantity + delta
		if next < 0 {
			return repositories.NewInsufficientStockError(productID, -delta, doc.Data.StockQuantity)
		}
		doc.Data.StockQuantity = next
		doc.Data.InStock = next > 0
		doc.Data.UpdatedAt = now.UTC()
		if err := tx.Update(ref, []firestore.Update{
			{Path: "stockQuantity", Value: doc.Data.StockQuantity},
			{Path: "inStock", Value: doc.Data.InStock},
			{Path: "updatedAt", Value: doc.Data.UpdatedAt},
		}); err != nil {
			return err
		}
		updated = doc.Data.toDomain(doc.ID)
		return nil
	})
	if err != nil {
		var stockErr *repositories.StockError
		if errors.As(err, &stockErr) {
			return domain.Product{}, stockErr
		}
		return domain.Product{}, pfirestore.WrapError("products.adjust_stock", err)
	}
	return updated, nil
}

type productDocument struct {
	Name          string    `firestore:"name"`
	Description   string    `firestore:"description,omitempty"`
	UnitPrice     int64     `firestore:"unitPrice"`
	OriginalPrice *int64    `firestore:"originalPrice,omitempty"`
	Category      string    `firestore:"category,omitempty"`
	ImageURL      string    `firestore:"imageUrl,omitempty"`
	Badge         string    `firestore:"badge,omitempty"`
	Rating        float64   `firestore:"rating"`
	ReviewCount   int       `firestore:"reviewCount"`
	InStock       bool      `firestore:"inStock"`
	StockQuantity int       `firestore:"stockQuantity"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

func (d productDocument) toDomain(id string) domain.Product {
	return domain.Product{
		ID:            id,
		Name:          d.Name,
		Description:   d.Description,
		UnitPrice:     d.UnitPrice,
		OriginalPrice: d.OriginalPrice,
		Category:      d.Category,
		ImageURL:      d.ImageURL,
		Badge:         d.Badge,
		Rating:        d.Rating,
		ReviewCount:   d.ReviewCount,
		InStock:       d.InStock,
		StockQuantity: d.StockQuantity,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

func newProductDocument(p domain.Product) productDocument {
	return productDocument{
		Name:          p.Name,
		Description:   p.Description,
		UnitPrice:     p.UnitPrice,
		OriginalPrice: p.OriginalPrice,
		Category:      p.Category,
		ImageURL:      p.ImageURL,
		Badge:         p.Badge,
		Rating:        p.Rating,
		ReviewCount:   p.ReviewCount,
		InStock:       p.InStock,
		StockQuantity: p.StockQuantity,
		CreatedAt:     p.CreatedAt.UTC(),
		UpdatedAt:     p.UpdatedAt.UTC(),
	}
}

// countCollection runs a server-side COUNT aggregation.
func countCollection(ctx context.Context, collection func(context.Context) (*firestore.CollectionRef, error)) (int, error) {
	coll, err := collection(ctx)
	if err != nil {
		return 0, err
	}
	results, err := coll.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, pfirestore.WrapError(coll.ID+".count", err)
	}
	value, ok := results["all"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("%s.count: unexpected aggregation result %T", coll.ID, results["all"])
	}
	return int(value.GetIntegerValue()), nil
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)
