package pricing

import (
	"fmt"
	"storefront-api/internal/model"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountNone       DiscountType = "none"
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Discount is expressed through exactly one representation; the other one is derived.
type Discount struct {
	Type     DiscountType
	Value    decimal.Decimal
	StartsAt *time.Time
	EndsAt   *time.Time
}

// ApplyDiscount writes d onto product, deriving the fixed price from a percentage
// or the percentage from a fixed price. A half-open or inverted window clears the
// discount entirely.
func ApplyDiscount(product *model.Product, d Discount) error {
	switch d.Type {
	case DiscountNone:
		ClearDiscount(product)
		return nil
	case DiscountPercentage, DiscountFixed:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidDiscount, d.Type)
	}

	if !validWindow(d.StartsAt, d.EndsAt) {
		ClearDiscount(product)
		return nil
	}

	price := product.PricePerUnit
	var fixed, percentage decimal.Decimal
	if d.Type == DiscountPercentage {
		if !d.Value.IsPositive() || d.Value.GreaterThanOrEqual(hundred) {
			return fmt.Errorf("%w: percentage must be between 0 and 100, got %s", ErrInvalidDiscount, d.Value)
		}
		percentage = d.Value.Round(2)
		fixed = price.Mul(hundred.Sub(percentage)).Div(hundred).Round(2)
	} else {
		if !d.Value.IsPositive() || d.Value.GreaterThanOrEqual(price) {
			return fmt.Errorf("%w: fixed price must be between 0 and %s, got %s", ErrInvalidDiscount, price, d.Value)
		}
		fixed = d.Value.Round(2)
		percentage = price.Sub(fixed).Div(price).Mul(hundred).Round(2)
	}

	product.DiscountPrice = decimal.NewNullDecimal(fixed)
	product.DiscountPercentage = decimal.NewNullDecimal(percentage)
	product.DiscountStartsAt = d.StartsAt
	product.DiscountEndsAt = d.EndsAt
	return nil
}

func ClearDiscount(product *model.Product) {
	product.DiscountPrice = decimal.NullDecimal{}
	product.DiscountPercentage = decimal.NullDecimal{}
	product.DiscountStartsAt = nil
	product.DiscountEndsAt = nil
}

func validWindow(start, end *time.Time) bool {
	if start == nil && end == nil {
		return true
	}
	if start == nil || end == nil {
		return false
	}
	return end.After(*start)
}
