// Package pricing turns cart line items into subtotal, shipping, tax and total.
//
// Amounts accumulate as exact decimals. Rounding to two places happens only
// when a Breakdown is rendered, so per-line rounding error never compounds.
package pricing

import (
	"fmt"

	"github.com/davex-ai/SwiftBites/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	DefaultShippingFee = 1500.0
	DefaultTaxRate     = 0.075
)

type LineItem struct {
	UnitPrice float64
	Quantity  int
}

type Breakdown struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// Summary is the display form of a Breakdown, rounded to two places.
type Summary struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

type Calculator struct {
	shippingFee decimal.Decimal
	taxRate     decimal.Decimal
}

func NewCalculator(shippingFee, taxRate float64) *Calculator {
	return &Calculator{
		shippingFee: decimal.NewFromFloat(shippingFee),
		taxRate:     decimal.NewFromFloat(taxRate),
	}
}

var defaultCalculator = NewCalculator(DefaultShippingFee, DefaultTaxRate)

// Calculate prices items with the default flat shipping fee and tax rate.
func Calculate(items []LineItem) (Breakdown, error) {
	return defaultCalculator.Calculate(items)
}

func (c *Calculator) Calculate(items []LineItem) (Breakdown, error) {
	subtotal := decimal.Zero
	for i, item := range items {
		if item.UnitPrice < 0 || item.Quantity < 0 {
			return Breakdown{}, fmt.Errorf("%w: line %d has price %v and quantity %d",
				domain.ErrInvalidLineItem, i, item.UnitPrice, item.Quantity)
		}
		line := decimal.NewFromFloat(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}

	shipping := decimal.Zero
	if subtotal.IsPositive() {
		shipping = c.shippingFee
	}
	tax := subtotal.Mul(c.taxRate)

	return Breakdown{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}, nil
}

func (b Breakdown) Rounded() Summary {
	return Summary{
		Subtotal: b.Subtotal.Round(2).InexactFloat64(),
		Shipping: b.Shipping.Round(2).InexactFloat64(),
		Tax:      b.Tax.Round(2).InexactFloat64(),
		Total:    b.Total.Round(2).InexactFloat64(),
	}
}

// FromCartLines prices lines at their current catalog price.
func FromCartLines(lines []domain.CartLine) []LineItem {
	items := make([]LineItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, LineItem{UnitPrice: line.Product.Price, Quantity: line.Quantity})
	}
	return items
}

// FromOrderItems prices items at their frozen order price.
func FromOrderItems(orderItems []domain.OrderItem) []LineItem {
	items := make([]LineItem, 0, len(orderItems))
	for _, item := range orderItems {
		items = append(items, LineItem{UnitPrice: item.Price, Quantity: item.Quantity})
	}
	return items
}
