package handlers

import (
	"time"

	"github.com/naga-sai1/inv-ecommerce/internal/platform/money"
	"github.com/naga-sai1/inv-ecommerce/internal/services"
)

// Amounts are minor currency units. The *Display fields carry the same amount formatted with
// two decimals for clients that do not want to do the arithmetic.

type productPayload struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Price         int64   `json:"price"`
	PriceDisplay  string  `json:"priceDisplay"`
	OriginalPrice *int64  `json:"originalPrice,omitempty"`
	Category      string  `json:"category"`
	ImageURL      string  `json:"imageUrl,omitempty"`
	Badge         string  `json:"badge,omitempty"`
	Rating        float64 `json:"rating"`
	ReviewCount   int     `json:"reviewCount"`
	InStock       bool    `json:"inStock"`
	StockQuantity int     `json:"stockQuantity"`
	CreatedAt     string  `json:"createdAt,omitempty"`
}

func buildProductPayload(p services.Product) productPayload {
	payload := productPayload{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.UnitPrice,
		PriceDisplay:  money.Format(p.UnitPrice),
		Category:      p.Category,
		ImageURL:      p.ImageURL,
		Badge:         p.Badge,
		Rating:        p.Rating,
		ReviewCount:   p.ReviewCount,
		InStock:       p.InStock,
		StockQuantity: p.StockQuantity,
		CreatedAt:     formatTime(p.CreatedAt),
	}
	if p.OriginalPrice != nil {
		original := *p.OriginalPrice
		payload.OriginalPrice = &original
	}
	return payload
}

func buildProductPayloads(products []services.Product) []productPayload {
	out := make([]productPayload, 0, len(products))
	for _, p := range products {
		out = append(out, buildProductPayload(p))
	}
	return out
}

type breakdownPayload struct {
	Currency          string `json:"currency"`
	PaymentMethod     string `json:"paymentMethod"`
	Subtotal          int64  `json:"subtotal"`
	Tax               int64  `json:"tax"`
	Shipping          int64  `json:"shipping"`
	Surcharge         int64  `json:"surcharge"`
	GrandTotal        int64  `json:"grandTotal"`
	GrandTotalDisplay string `json:"grandTotalDisplay"`
}

func buildBreakdownPayload(b services.PricingBreakdown) breakdownPayload {
	return breakdownPayload{
		Currency:          b.Currency,
		PaymentMethod:     string(b.PaymentMethod),
		Subtotal:          b.Subtotal,
		Tax:               b.Tax,
		Shipping:          b.Shipping,
		Surcharge:         b.Surcharge,
		GrandTotal:        b.GrandTotal,
		GrandTotalDisplay: money.Format(b.GrandTotal),
	}
}

type cartLinePayload struct {
	ProductID   string          `json:"productId"`
	Quantity    int             `json:"quantity"`
	Unavailable bool            `json:"unavailable,omitempty"`
	LineTotal   int64           `json:"lineTotal"`
	AddedAt     string          `json:"addedAt,omitempty"`
	Product     *productPayload `json:"product,omitempty"`
}

type cartPayload struct {
	Lines             []cartLinePayload `json:"lines"`
	TotalItems        int               `json:"totalItems"`
	TotalPrice        int64             `json:"totalPrice"`
	TotalPriceDisplay string            `json:"totalPriceDisplay"`
	UpdatedAt         string            `json:"updatedAt,omitempty"`
}

func buildCartPayload(view services.CartView) cartPayload {
	payload := cartPayload{
		Lines:             make([]cartLinePayload, 0, len(view.Lines)),
		TotalItems:        view.TotalItems,
		TotalPrice:        view.TotalPrice,
		TotalPriceDisplay: money.Format(view.TotalPrice),
		UpdatedAt:         formatTime(view.UpdatedAt),
	}
	for _, line := range view.Lines {
		entry := cartLinePayload{
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			Unavailable: line.Unavailable,
			LineTotal:   line.LineTotal,
			AddedAt:     formatTime(line.AddedAt),
		}
		if line.Product != nil {
			product := buildProductPayload(*line.Product)
			entry.Product = &product
		}
		payload.Lines = append(payload.Lines, entry)
	}
	return payload
}

type orderLinePayload struct {
	Position  int    `json:"position"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
	LineTotal int64  `json:"lineTotal"`
}

type guestPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type statusChangePayload struct {
	From      string `json:"from"`
	To        string `json:"to"`
	ActorID   string `json:"actorId,omitempty"`
	Reason    string `json:"reason,omitempty"`
	ChangedAt string `json:"changedAt"`
}

type orderPayload struct {
	ID              string                `json:"id"`
	UserID          string                `json:"userId,omitempty"`
	Guest           *guestPayload         `json:"guest,omitempty"`
	ShippingAddress string                `json:"shippingAddress"`
	PaymentMethod   string                `json:"paymentMethod"`
	PaymentStatus   string                `json:"paymentStatus"`
	Status          string                `json:"status"`
	TotalAmount     int64                 `json:"totalAmount"`
	Pricing         breakdownPayload      `json:"pricing"`
	Lines           []orderLinePayload    `json:"lines"`
	StatusHistory   []statusChangePayload `json:"statusHistory,omitempty"`
	CreatedAt       string                `json:"createdAt"`
	UpdatedAt       string                `json:"updatedAt,omitempty"`
}

func buildOrderPayload(order services.Order) orderPayload {
	payload := orderPayload{
		ID:              order.ID,
		UserID:          order.UserID,
		ShippingAddress: order.ShippingAddress,
		PaymentMethod:   string(order.PaymentMethod),
		PaymentStatus:   string(order.PaymentStatus),
		Status:          string(order.Status),
		TotalAmount:     order.TotalAmount,
		Pricing:         buildBreakdownPayload(order.Pricing),
		Lines:           make([]orderLinePayload, 0, len(order.Lines)),
		CreatedAt:       formatTime(order.CreatedAt),
		UpdatedAt:       formatTime(order.UpdatedAt),
	}
	if order.Guest != nil {
		payload.Guest = &guestPayload{Name: order.Guest.Name, Email: order.Guest.Email, Phone: order.Guest.Phone}
	}
	for _, line := range order.Lines {
		payload.Lines = append(payload.Lines, orderLinePayload{
			Position:  line.Position,
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.UnitPrice * int64(line.Quantity),
		})
	}
	for _, change := range order.StatusHistory {
		payload.StatusHistory = append(payload.StatusHistory, statusChangePayload{
			From:      string(change.From),
			To:        string(change.To),
			ActorID:   change.ActorID,
			Reason:    change.Reason,
			ChangedAt: formatTime(change.ChangedAt),
		})
	}
	return payload
}

func buildOrderPayloads(orders []services.Order) []orderPayload {
	out := make([]orderPayload, 0, len(orders))
	for _, o := range orders {
		out = append(out, buildOrderPayload(o))
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
