package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/auth"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/httpx"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/pagination"
	"github.com/naga-sai1/inv-ecommerce/internal/services"
)

const (
	maxStatusBodySize  = 4 * 1024
	maxProductBodySize = 64 * 1024
)

// AdminHandlers exposes product management, order management and the store dashboard to
// administrators.
type AdminHandlers struct {
	authn     *auth.Authenticator
	catalog   services.CatalogService
	orders    services.OrderService
	dashboard services.DashboardService
}

// NewAdminHandlers constructs admin handlers guarded by Firebase authentication and the admin check.
func NewAdminHandlers(authn *auth.Authenticator, catalog services.CatalogService, orders services.OrderService, dashboard services.DashboardService) *AdminHandlers {
	return &AdminHandlers{
		authn:     authn,
		catalog:   catalog,
		orders:    orders,
		dashboard: dashboard,
	}
}

// Routes wires the /admin endpoints onto the provided router.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Use(auth.RequireAdmin())
	r.Post("/products", h.createProduct)
	r.Put("/products/{productId}", h.updateProduct)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{orderId}", h.getOrder)
	r.Put("/orders/{orderId}:status", h.updateStatus)
	r.Get("/dashboard", h.summary)
}

type adminProductRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         int64   `json:"price"`
	OriginalPrice *int64  `json:"originalPrice"`
	Category      string  `json:"category"`
	ImageURL      string  `json:"imageUrl"`
	Badge         string  `json:"badge"`
	Rating        float64 `json:"rating"`
	InStock       *bool   `json:"inStock"`
	StockQuantity int     `json:"stockQuantity"`
}

func (h *AdminHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, "")
}

func (h *AdminHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	productID := strings.TrimSpace(chi.URLParam(r, "productId"))
	if productID == "" {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}
	h.saveProduct(w, r, productID)
}

func (h *AdminHandlers) saveProduct(w http.ResponseWriter, r *http.Request, productID string) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_service_unavailable", "catalog service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req adminProductRequest
	if err := httpx.DecodeJSON(r, maxProductBodySize, &req); err != nil {
		httpx.WriteDecodeError(w, r, err)
		return
	}

	product, err := h.catalog.UpsertProduct(ctx, services.UpsertProductCommand{
		ProductID:     productID,
		Name:          req.Name,
		Description:   req.Description,
		UnitPrice:     req.Price,
		OriginalPrice: req.OriginalPrice,
		Category:      req.Category,
		ImageURL:      req.ImageURL,
		Badge:         req.Badge,
		Rating:        req.Rating,
		InStock:       req.InStock,
		StockQuantity: req.StockQuantity,
		ActorID:       requestUserID(r),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	status := http.StatusOK
	if productID == "" {
		status = http.StatusCreated
	}
	httpx.WriteJSON(w, status, buildProductPayload(product))
}

func (h *AdminHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeOrdersUnavailable(w, r)
		return
	}

	params, err := pagination.FromRequest(r, pagination.Limits{})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	query := r.URL.Query()
	filter := services.OrderListFilter{
		Search:     query.Get("search"),
		Status:     parseStatusFilter(query["status"]),
		Pagination: domain.Pagination{PageSize: params.PageSize, PageToken: params.PageToken},
	}

	page, err := h.orders.ListOrders(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, orderListResponse{
		Items:         buildOrderPayloads(page.Items),
		NextPageToken: page.NextPageToken,
	})
}

func (h *AdminHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeOrdersUnavailable(w, r)
		return
	}

	order, err := h.orders.GetOrder(ctx, chi.URLParam(r, "orderId"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildOrderPayload(order))
}

type updateStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (h *AdminHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeOrdersUnavailable(w, r)
		return
	}

	var req updateStatusRequest
	if err := httpx.DecodeJSON(r, maxStatusBodySize, &req); err != nil {
		httpx.WriteDecodeError(w, r, err)
		return
	}

	order, err := h.orders.UpdateStatus(ctx, services.OrderStatusUpdateCommand{
		OrderID:      chi.URLParam(r, "orderId"),
		TargetStatus: domain.OrderStatus(req.Status),
		ActorID:      requestUserID(r),
		Reason:       req.Reason,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildOrderPayload(order))
}

type dashboardPayload struct {
	TotalProducts     int              `json:"totalProducts"`
	TotalCustomers    int              `json:"totalCustomers"`
	TotalOrders       int              `json:"totalOrders"`
	TotalRevenue      int64            `json:"totalRevenue"`
	RecentOrders      []orderPayload   `json:"recentOrders"`
	LowStockProducts  []productPayload `json:"lowStockProducts"`
	LowStockThreshold int              `json:"lowStockThreshold"`
	GeneratedAt       string           `json:"generatedAt"`
}

func (h *AdminHandlers) summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.dashboard == nil {
		httpx.WriteError(ctx, w, httpx.NewError("dashboard_service_unavailable", "dashboard service is unavailable", http.StatusServiceUnavailable))
		return
	}

	summary, err := h.dashboard.Summary(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, dashboardPayload{
		TotalProducts:     summary.TotalProducts,
		TotalCustomers:    summary.TotalCustomers,
		TotalOrders:       summary.TotalOrders,
		TotalRevenue:      summary.TotalRevenue,
		RecentOrders:      buildOrderPayloads(summary.RecentOrders),
		LowStockProducts:  buildProductPayloads(summary.LowStockProducts),
		LowStockThreshold: summary.LowStockThreshold,
		GeneratedAt:       summary.GeneratedAt.UTC().Format(time.RFC3339),
	})
}

// parseStatusFilter accepts repeated or comma-separated status values.
func parseStatusFilter(values []string) []domain.OrderStatus {
	var out []domain.OrderStatus
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.ToLower(strings.TrimSpace(part)); trimmed != "" {
				out = append(out, domain.OrderStatus(trimmed))
			}
		}
	}
	return out
}
