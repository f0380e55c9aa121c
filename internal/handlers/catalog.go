package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/httpx"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/money"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/pagination"
	"github.com/naga-sai1/inv-ecommerce/internal/repositories"
	"github.com/naga-sai1/inv-ecommerce/internal/services"
)

// CatalogHandlers exposes the public product catalog.
type CatalogHandlers struct {
	catalog services.CatalogService
}

// NewCatalogHandlers constructs catalog handlers.
func NewCatalogHandlers(catalog services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// Routes wires the /public endpoints onto the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Get("/products/featured", h.featuredProducts)
	r.Get("/products/{productId}", h.getProduct)
	r.Get("/categories", h.categories)
}

type productListResponse struct {
	Items         []productPayload `json:"items"`
	NextPageToken string           `json:"nextPageToken,omitempty"`
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	filter, err := parseProductFilter(r)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	page, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, productListResponse{
		Items:         buildProductPayloads(page.Items),
		NextPageToken: page.NextPageToken,
	})
}

func (h *CatalogHandlers) featuredProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeServiceError(ctx, w, &services.ValidationError{Field: "limit", Reason: "must be a positive integer"})
			return
		}
		limit = parsed
	}

	products, err := h.catalog.FeaturedProducts(ctx, limit)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, productListResponse{Items: buildProductPayloads(products)})
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "productId"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildProductPayload(product))
}

func (h *CatalogHandlers) categories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": categories})
}

// parseProductFilter reads listing criteria. Prices are major units ("499.00").
func parseProductFilter(r *http.Request) (services.ProductFilter, error) {
	query := r.URL.Query()
	params, err := pagination.Parse(query, pagination.Limits{})
	if err != nil {
		return services.ProductFilter{}, err
	}

	filter := services.ProductFilter{
		Category:   query.Get("category"),
		Search:     query.Get("search"),
		Pagination: domain.Pagination{PageSize: params.PageSize, PageToken: params.PageToken},
	}

	if filter.MinPrice, err = parseOptionalPrice(query.Get("minPrice"), "minPrice"); err != nil {
		return services.ProductFilter{}, err
	}
	if filter.MaxPrice, err = parseOptionalPrice(query.Get("maxPrice"), "maxPrice"); err != nil {
		return services.ProductFilter{}, err
	}

	if raw := strings.TrimSpace(query.Get("inStock")); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			return services.ProductFilter{}, &services.ValidationError{Field: "inStock", Reason: "must be a boolean"}
		}
		filter.InStockOnly = inStock
	}

	switch sort := repositories.ProductSort(strings.ToLower(strings.TrimSpace(query.Get("sort")))); sort {
	case "":
	case repositories.ProductSortNewest, repositories.ProductSortRating, repositories.ProductSortStock:
		filter.SortBy = sort
	default:
		return services.ProductFilter{}, &services.ValidationError{Field: "sort", Reason: "must be newest, rating, or stock"}
	}
	return filter, nil
}

func parseOptionalPrice(raw, field string) (*int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	value, err := money.ParseMinor(raw)
	if err != nil {
		return nil, &services.ValidationError{Field: field, Reason: "must be an amount with at most two decimals"}
	}
	return &value, nil
}
