// Package pricing decides what a cart line costs at order time. Everything here
// is pure: callers pass in the product and the clock reading.
package pricing

import (
	"errors"
	"fmt"
	"storefront-api/internal/model"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrProductUnavailable = errors.New("product unavailable")
	ErrBelowMinimumOrder  = errors.New("quantity below minimum order quantity")
	ErrInvalidDiscount    = errors.New("invalid discount")
)

var hundred = decimal.NewFromInt(100)

// RejectionError names the product a cart line was rejected for.
// Limit is the stock on hand for ErrProductUnavailable and the minimum
// order quantity for ErrBelowMinimumOrder.
type RejectionError struct {
	Reason      error
	ProductID   uint
	ProductName string
	Requested   int64
	Limit       int64
}

func (e *RejectionError) Error() string {
	if errors.Is(e.Reason, ErrBelowMinimumOrder) {
		return fmt.Sprintf("%q: quantity %d is below the minimum order quantity of %d",
			e.ProductName, e.Requested, e.Limit)
	}
	if e.ProductName == "" {
		return fmt.Sprintf("product %d is not available", e.ProductID)
	}
	return fmt.Sprintf("%q is not available in the requested quantity: requested %d, in stock %d",
		e.ProductName, e.Requested, e.Limit)
}

func (e *RejectionError) Unwrap() error {
	return e.Reason
}

type PricedLine struct {
	ProductID     uint
	ProductName   string
	UnitOfMeasure string
	Quantity      int64
	UnitPrice     decimal.Decimal
	LineTotal     decimal.Decimal
}

// ValidateAndPrice checks a cart line against the live product and prices it at
// the product's current price, ignoring the price snapshot on the line.
func ValidateAndPrice(line *model.CartLine, product *model.Product, now time.Time) (*PricedLine, error) {
	if err := CheckQuantity(product, line.ProductID, line.Quantity); err != nil {
		return nil, err
	}

	unitPrice := CurrentPrice(product, now)
	return &PricedLine{
		ProductID:     product.ID,
		ProductName:   product.Name,
		UnitOfMeasure: product.UnitOfMeasure,
		Quantity:      line.Quantity,
		UnitPrice:     unitPrice,
		LineTotal:     LineTotal(line.Quantity, unitPrice),
	}, nil
}

// CheckQuantity reports whether quantity units of product can be bought right now.
func CheckQuantity(product *model.Product, productID uint, quantity int64) error {
	if product == nil || !product.IsActive {
		rej := &RejectionError{Reason: ErrProductUnavailable, ProductID: productID, Requested: quantity}
		if product != nil {
			rej.ProductName = product.Name
		}
		return rej
	}
	if product.StockQuantity < quantity {
		return &RejectionError{
			Reason:      ErrProductUnavailable,
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   quantity,
			Limit:       product.StockQuantity,
		}
	}
	if minimum := MinimumOrder(product); quantity < minimum {
		return &RejectionError{
			Reason:      ErrBelowMinimumOrder,
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   quantity,
			Limit:       minimum,
		}
	}
	return nil
}

// MinimumOrder is the product's minimum order quantity, never less than one.
func MinimumOrder(product *model.Product) int64 {
	if product.MinOrderQuantity < 1 {
		return 1
	}
	return product.MinOrderQuantity
}

// CurrentPrice is the discounted price while a discount is active, the list price otherwise.
func CurrentPrice(product *model.Product, now time.Time) decimal.Decimal {
	if DiscountActive(product, now) {
		return product.DiscountPrice.Decimal.Round(2)
	}
	return product.PricePerUnit.Round(2)
}

func DiscountActive(product *model.Product, now time.Time) bool {
	if !product.DiscountPrice.Valid {
		return false
	}
	if product.DiscountStartsAt != nil && now.Before(*product.DiscountStartsAt) {
		return false
	}
	if product.DiscountEndsAt != nil && now.After(*product.DiscountEndsAt) {
		return false
	}
	return true
}

func LineTotal(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(quantity).Mul(unitPrice).Round(2)
}

// ToMinorUnits converts a major-unit amount (e.g. 110.00) to minor units (11000).
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
