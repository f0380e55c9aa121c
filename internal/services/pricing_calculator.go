package services

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	domain "github.com/naga-sai1/inv-ecommerce/internal/domain"
	"github.com/naga-sai1/inv-ecommerce/internal/platform/money"
)

const defaultCurrency = "INR"

// PricingRules are the business parameters of the calculator. Amounts are minor units.
type PricingRules struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold int64
	FlatShippingFee       int64
	CODSurcharge          int64
	Currency              string
}

// DefaultPricingRules returns the storefront defaults: 18% tax, free shipping from 500.00,
// 50.00 flat fee below it, and a 25.00 cash-on-delivery surcharge.
func DefaultPricingRules() PricingRules {
	return PricingRules{
		TaxRate:               decimal.RequireFromString("0.18"),
		FreeShippingThreshold: 50000,
		FlatShippingFee:       5000,
		CODSurcharge:          2500,
		Currency:              defaultCurrency,
	}
}

type pricingCalculator struct {
	rules PricingRules
}

// NewPricingCalculator validates rules and returns a calculator bound to them.
func NewPricingCalculator(rules PricingRules) (PricingCalculator, error) {
	switch {
	case rules.TaxRate.IsNegative():
		return nil, &ConfigurationError{Field: "taxRate", Value: rules.TaxRate.String()}
	case rules.FreeShippingThreshold < 0:
		return nil, &ConfigurationError{Field: "freeShippingThreshold", Value: strconv.FormatInt(rules.FreeShippingThreshold, 10)}
	case rules.FlatShippingFee < 0:
		return nil, &ConfigurationError{Field: "flatShippingFee", Value: strconv.FormatInt(rules.FlatShippingFee, 10)}
	case rules.CODSurcharge < 0:
		return nil, &ConfigurationError{Field: "codSurcharge", Value: strconv.FormatInt(rules.CODSurcharge, 10)}
	}
	rules.Currency = strings.ToUpper(strings.TrimSpace(rules.Currency))
	if rules.Currency == "" {
		rules.Currency = defaultCurrency
	}
	return &pricingCalculator{rules: rules}, nil
}

// ComputeTotals is pure: the same lines and method always give the same breakdown.
func (c *pricingCalculator) ComputeTotals(lines []PricedLine, method PaymentMethod) PricingBreakdown {
	var subtotal int64
	for _, line := range lines {
		subtotal += int64(line.Quantity) * line.UnitPrice
	}

	breakdown := PricingBreakdown{
		Currency:      c.rules.Currency,
		Subtotal:      subtotal,
		Tax:           money.ApplyRate(subtotal, c.rules.TaxRate),
		PaymentMethod: method,
	}
	if subtotal < c.rules.FreeShippingThreshold {
		breakdown.Shipping = c.rules.FlatShippingFee
	}
	if method == domain.PaymentMethodCashOnDelivery {
		breakdown.Surcharge = c.rules.CODSurcharge
	}
	breakdown.GrandTotal = breakdown.Subtotal + breakdown.Tax + breakdown.Shipping + breakdown.Surcharge
	return breakdown
}
