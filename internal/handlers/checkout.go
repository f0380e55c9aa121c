package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/auth"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/httpx"
	"github.com/naga-sai1/inv-ecommerce/internal/services"
)

// IdempotencyKeyHeader names the client-chosen key that deduplicates checkout submissions.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxCheckoutBodySize = 32 * 1024

// CheckoutHandlers turns the shopper's cart into an order.
type CheckoutHandlers struct {
	authn    *auth.Authenticator
	checkout services.CheckoutService
}

// NewCheckoutHandlers constructs checkout handlers.
func NewCheckoutHandlers(authn *auth.Authenticator, checkout services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{
		authn:    authn,
		checkout: checkout,
	}
}

// Routes wires the /checkout endpoints onto the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.OptionalFirebaseAuth())
	}
	r.Post("/orders", h.placeOrder)
}

type shippingRequest struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type paymentRequest struct {
	CardNumber string `json:"cardNumber"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
	NameOnCard string `json:"nameOnCard"`
	UPIID      string `json:"upiId"`
	BankName   string `json:"bankName"`
}

type placeOrderRequest struct {
	Shipping      shippingRequest `json:"shipping"`
	PaymentMethod string          `json:"paymentMethod"`
	Payment       paymentRequest  `json:"payment"`
}

type placeOrderResponse struct {
	OrderID string           `json:"orderId"`
	Pricing breakdownPayload `json:"pricing"`
	Order   orderPayload     `json:"order"`
}

func (h *CheckoutHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_service_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req placeOrderRequest
	if err := httpx.DecodeJSON(r, maxCheckoutBodySize, &req); err != nil {
		httpx.WriteDecodeError(w, r, err)
		return
	}

	result, err := h.checkout.PlaceOrder(ctx, services.PlaceOrderCommand{
		Shopper: shopperFromRequest(r),
		Shipping: services.ShippingInfo{
			FullName:   req.Shipping.FullName,
			Email:      req.Shipping.Email,
			Phone:      req.Shipping.Phone,
			Address:    req.Shipping.Address,
			City:       req.Shipping.City,
			PostalCode: req.Shipping.PostalCode,
			Country:    req.Shipping.Country,
		},
		PaymentMethod: domain.PaymentMethod(strings.ToLower(strings.TrimSpace(req.PaymentMethod))),
		Payment: services.PaymentDetails{
			CardNumber: req.Payment.CardNumber,
			Expiry:     req.Payment.Expiry,
			CVV:        req.Payment.CVV,
			NameOnCard: req.Payment.NameOnCard,
			UPIID:      req.Payment.UPIID,
			BankName:   req.Payment.BankName,
		},
		IdempotencyKey: strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader)),
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/orders/"+result.OrderID)
	httpx.WriteJSON(w, http.StatusCreated, placeOrderResponse{
		OrderID: result.OrderID,
		Pricing: buildBreakdownPayload(result.Breakdown),
		Order:   buildOrderPayload(result.Order),
	})
}
