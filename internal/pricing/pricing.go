// Package pricing holds the currency arithmetic shared by carts and orders.
// All sums go through decimal.Decimal so repeated additions of prices like
// 0.1 and 0.2 do not drift.
package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidLineItem = errors.New("invalid line item")
	ErrInvalidDiscount = errors.New("discount must be between 1 and 100")
)

var hundred = decimal.NewFromInt(100)

// LineItem is anything with a quantity and a unit price.
type LineItem interface {
	LineQuantity() int
	LineUnitPrice() float64
}

// ComputeTotal sums quantity*unitPrice over items. An empty slice totals 0.
func ComputeTotal[T LineItem](items []T) (float64, error) {
	total := decimal.Zero
	for i, item := range items {
		qty := item.LineQuantity()
		price := item.LineUnitPrice()

		if qty < 0 {
			return 0, fmt.Errorf("%w: line %d has negative quantity %d", ErrInvalidLineItem, i, qty)
		}
		if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
			return 0, fmt.Errorf("%w: line %d has unit price %v", ErrInvalidLineItem, i, price)
		}

		total = total.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(qty))))
	}
	return total.InexactFloat64(), nil
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// ApplyDiscount returns round2(total * (1 - percent/100)).
func ApplyDiscount(total float64, percent int) (float64, error) {
	if percent < 1 || percent > 100 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidDiscount, percent)
	}
	remaining := decimal.NewFromInt(int64(100 - percent))
	discounted := decimal.NewFromFloat(total).Mul(remaining).Div(hundred)
	return discounted.Round(2).InexactFloat64(), nil
}

// OrderTotal adds the cart price and the policy additives (tax, shipping).
func OrderTotal(cartPrice float64, additives ...float64) float64 {
	sum := decimal.NewFromFloat(cartPrice)
	for _, a := range additives {
		sum = sum.Add(decimal.NewFromFloat(a))
	}
	return sum.Round(2).InexactFloat64()
}

// MinorUnits converts an amount to the smallest currency unit (cents, piastres).
func MinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(hundred).Round(0).IntPart()
}
