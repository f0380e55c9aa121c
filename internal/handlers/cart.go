package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/auth"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/httpx"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/requestctx"
	"github.com/naga-sai1/inv-ecommerce/internal/services"
)

// GuestCartHeader carries the client-generated cart token of an anonymous shopper.
const GuestCartHeader = "X-Guest-Cart-Id"

const maxCartBodySize = 16 * 1024

// CartHandlers exposes cart endpoints for signed-in shoppers and, when enabled, guests.
type CartHandlers struct {
	authn *auth.Authenticator
	carts services.CartService
}

// NewCartHandlers constructs cart handlers. Authentication is optional on every route.
func NewCartHandlers(authn *auth.Authenticator, carts services.CartService) *CartHandlers {
	return &CartHandlers{
		authn: authn,
		carts: carts,
	}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.OptionalFirebaseAuth())
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Get("/totals", h.totals)
	r.Post("/items", h.addItem)
	r.Put("/items/{productId}", h.updateItem)
	r.Delete("/items/{productId}", h.removeItem)
}

type addCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		writeCartUnavailable(w, r)
		return
	}

	view, err := h.carts.GetCart(ctx, shopperFromRequest(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildCartPayload(view))
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		writeCartUnavailable(w, r)
		return
	}

	var req addCartItemRequest
	if err := httpx.DecodeJSON(r, maxCartBodySize, &req); err != nil {
		httpx.WriteDecodeError(w, r, err)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	view, err := h.carts.AddItem(ctx, shopperFromRequest(r), req.ProductID, quantity)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildCartPayload(view))
}

func (h *CartHandlers) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		writeCartUnavailable(w, r)
		return
	}

	var req updateCartItemRequest
	if err := httpx.DecodeJSON(r, maxCartBodySize, &req); err != nil {
		httpx.WriteDecodeError(w, r, err)
		return
	}
	if req.Quantity == nil {
		writeServiceError(ctx, w, &services.ValidationError{Field: "quantity", Reason: "is required"})
		return
	}

	view, err := h.carts.UpdateQuantity(ctx, shopperFromRequest(r), chi.URLParam(r, "productId"), *req.Quantity)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildCartPayload(view))
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		writeCartUnavailable(w, r)
		return
	}

	view, err := h.carts.RemoveItem(ctx, shopperFromRequest(r), chi.URLParam(r, "productId"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildCartPayload(view))
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		writeCartUnavailable(w, r)
		return
	}

	if err := h.carts.Clear(ctx, shopperFromRequest(r)); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// totals prices the cart for ?paymentMethod=, defaulting to card.
func (h *CartHandlers) totals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.carts == nil {
		writeCartUnavailable(w, r)
		return
	}

	method := domain.PaymentMethod(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("paymentMethod"))))
	if method == "" {
		method = domain.PaymentMethodCard
	}

	breakdown, err := h.carts.ComputeTotals(ctx, shopperFromRequest(r), method)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildBreakdownPayload(breakdown))
}

func writeCartUnavailable(w http.ResponseWriter, r *http.Request) {
	httpx.WriteError(r.Context(), w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
}

// shopperFromRequest prefers the verified identity and falls back to the guest cart header.
// Whether guests are accepted is decided by the cart service.
func shopperFromRequest(r *http.Request) services.Shopper {
	if identity, ok := auth.IdentityFromContext(r.Context()); ok && identity != nil && strings.TrimSpace(identity.UID) != "" {
		return services.Shopper{UserID: identity.UID}
	}
	guestID := strings.TrimSpace(r.Header.Get(GuestCartHeader))
	if guestID != "" {
		requestctx.SetGuestID(r.Context(), guestID)
	}
	return services.Shopper{GuestID: guestID}
}
