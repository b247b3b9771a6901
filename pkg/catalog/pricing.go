package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

var ErrComparePriceNotAbovePrice = errors.New("compare price must be greater than regular price")

// ValidateComparePrice enforces compare > price whenever a compare price is set.
func ValidateComparePrice(priceCents int64, compareCents *int64) error {
	if priceCents < 0 {
		return errors.New("price must not be negative")
	}
	if compareCents != nil && *compareCents <= priceCents {
		return ErrComparePriceNotAbovePrice
	}
	return nil
}

// Line is one priced quantity on an order.
type Line struct {
	Name       string
	PriceCents int64
	Quantity   int
}

// Totals is the computed money breakdown of an order, all in cents.
type Totals struct {
	Subtotal int64
	Tax      int64
	Shipping int64
	Discount int64
	Total    int64
}

// ValidateLines reports every invalid line at once.
func ValidateLines(lines []Line) error {
	if len(lines) == 0 {
		return errors.New("order must contain at least one item")
	}
	var err error
	for i, l := range lines {
		if l.Quantity < 1 {
			err = multierr.Append(err, fmt.Errorf("item %d (%s): quantity must be at least 1", i, l.Name))
		}
		if l.PriceCents < 0 {
			err = multierr.Append(err, fmt.Errorf("item %d (%s): price must not be negative", i, l.Name))
		}
	}
	return err
}

// ComputeTotals sums the lines and applies tax in basis points (rounded half
// up to the cent), flat shipping and a discount. The total never goes below zero.
func ComputeTotals(lines []Line, taxRateBPS, shippingCents, discountCents int64) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(decimal.NewFromInt(l.PriceCents).Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	tax := decimal.Zero
	if taxRateBPS > 0 {
		tax = subtotal.Mul(decimal.NewFromInt(taxRateBPS)).Div(decimal.NewFromInt(10000)).Round(0)
	}

	shipping := decimal.NewFromInt(max(shippingCents, 0))
	discount := decimal.NewFromInt(max(discountCents, 0))

	total := subtotal.Add(tax).Add(shipping).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal: subtotal.IntPart(),
		Tax:      tax.IntPart(),
		Shipping: shipping.IntPart(),
		Discount: discount.IntPart(),
		Total:    total.IntPart(),
	}
}
