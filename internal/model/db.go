package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	UnitOfMeasure string          `gorm:"size:32;not null" json:"unit_of_measure"` // kg, piece, crate
	PricePerUnit  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price_per_unit"`

	// DiscountPrice and DiscountPercentage always describe the same discount;
	// pricing.ApplyDiscount keeps them consistent.
	DiscountPrice      decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"discount_price"`
	DiscountPercentage decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"discount_percentage"`
	DiscountStartsAt   *time.Time          `json:"discount_starts_at"`
	DiscountEndsAt     *time.Time          `json:"discount_ends_at"`

	StockQuantity    int64 `gorm:"not null" json:"stock_quantity"`
	MinOrderQuantity int64 `gorm:"not null" json:"min_order_quantity"`
	IsActive         bool  `gorm:"not null;index" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Customer struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	UserID    uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	FirstName string `gorm:"size:100" json:"first_name"`
	LastName  string `gorm:"size:100" json:"last_name"`
	Email     string `gorm:"size:255;not null" json:"email"`
	Phone     string `gorm:"size:32" json:"phone"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Customer) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

type Address struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// FK → customers.id
	CustomerID    uint      `gorm:"index;not null" json:"customer_id"`
	Customer      *Customer `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	StreetAddress string    `gorm:"size:255;not null" json:"street_address"`
	City          string    `gorm:"size:100;not null" json:"city"`
	State         string    `gorm:"size:100" json:"state"`
	PostalCode    string    `gorm:"size:20" json:"postal_code"`
	Country       string    `gorm:"size:100;not null" json:"country"`
	IsDefault     bool      `json:"is_default"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type DeliveryOption struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	Name     string          `gorm:"size:100;not null" json:"name"`
	Cost     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost"`
	IsActive bool            `gorm:"not null" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PaymentNotification is the audit trail of webhook deliveries, one row per delivery.
type PaymentNotification struct {
	ID         uint      `gorm:"primaryKey"`
	Reference  string    `gorm:"size:64;index"`
	EventType  string    `gorm:"size:64;index"`
	Outcome    string    `gorm:"size:32;not null"`
	HTTPStatus int       `gorm:"not null"`
	ReceivedAt time.Time `gorm:"not null"`
	CreatedAt  time.Time
}
