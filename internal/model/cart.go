package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusConverted CartStatus = "converted"
	CartStatusAbandoned CartStatus = "abandoned"
)

type Cart struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// exactly one of UserID / GuestToken is set
	UserID     *uint      `gorm:"uniqueIndex" json:"user_id,omitempty"`
	GuestToken *string    `gorm:"size:64;uniqueIndex" json:"guest_token,omitempty"`
	Status     CartStatus `gorm:"size:16;not null" json:"status"`
	Lines      []CartLine `gorm:"constraint:OnDelete:CASCADE" json:"lines"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.LineTotal)
	}
	return total
}

type CartLine struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// FK → carts.id
	CartID uint `gorm:"uniqueIndex:idx_cart_product;not null" json:"cart_id"`
	// FK → products.id
	ProductID uint     `gorm:"uniqueIndex:idx_cart_product;not null" json:"product_id"`
	Product   *Product `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Quantity  int64    `gorm:"not null" json:"quantity"`

	// snapshot taken when the line was added or last updated
	PricePerUnit  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price_per_unit"`
	UnitOfMeasure string          `gorm:"size:32" json:"unit_of_measure"`
	LineTotal     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_total"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartOwner identifies whose cart is meant: an authenticated user or a guest token.
type CartOwner struct {
	UserID     uint
	GuestToken string
}

func (o CartOwner) IsGuest() bool {
	return o.UserID == 0
}

func (o CartOwner) Valid() bool {
	return o.UserID != 0 || o.GuestToken != ""
}
