package domain

// PaymentMethod enumerates the checkout payment rails offered to shoppers.
type PaymentMethod string

const (
	PaymentMethodCard           PaymentMethod = "card"
	PaymentMethodUPI            PaymentMethod = "upi"
	PaymentMethodNetBanking     PaymentMethod = "netbanking"
	PaymentMethodCashOnDelivery PaymentMethod = "cod"
)

// Valid reports whether the payment method is one of the supported rails.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodUPI, PaymentMethodNetBanking, PaymentMethodCashOnDelivery:
		return true
	default:
		return false
	}
}

// PricedLine is a cart line joined with the unit price that applies to it.
type PricedLine struct {
	ProductID string
	Quantity  int
	UnitPrice int64
}

// PricingBreakdown captures the derived totals for a cart under a payment method.
// All amounts are minor currency units.
type PricingBreakdown struct {
	Currency      string
	Subtotal      int64
	Tax           int64
	Shipping      int64
	Surcharge     int64
	GrandTotal    int64
	PaymentMethod PaymentMethod
}
