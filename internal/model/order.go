package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid                PaymentStatus = "unpaid"
	PaymentStatusPendingGatewayPayment PaymentStatus = "pending_gateway_payment"
	PaymentStatusPaid                  PaymentStatus = "paid"
	PaymentStatusFailed                PaymentStatus = "failed"
	PaymentStatusAmountMismatch        PaymentStatus = "amount_mismatch"
	PaymentStatusRefunded              PaymentStatus = "refunded"
	PaymentStatusPartiallyPaid         PaymentStatus = "partially_paid"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

type AddressType string

const (
	AddressTypeShipping AddressType = "Shipping"
	AddressTypeBilling  AddressType = "Billing"
)

const (
	// PaymentMethodCashOnDelivery is the only method that skips the payment gateway.
	PaymentMethodCashOnDelivery = "cash_on_delivery"
	PaymentMethodCard           = "card"
)

type Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"size:64;uniqueIndex;not null" json:"order_number"`
	// FK → customers.id
	CustomerID        uint            `gorm:"index;not null" json:"customer_id"`
	DeliveryAddressID uint            `gorm:"not null" json:"delivery_address_id"`
	DeliveryOptionID  uint            `gorm:"not null" json:"delivery_option_id"`
	DeliveryCost      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"delivery_cost"`
	OrderTotal        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"order_total"`
	PaymentMethod     string          `gorm:"size:32;not null" json:"payment_method"`
	PaymentStatus     PaymentStatus   `gorm:"size:32;index;not null" json:"payment_status"`
	OrderStatus       OrderStatus     `gorm:"size:32;index;not null" json:"order_status"`
	Notes             string          `gorm:"type:text" json:"notes,omitempty"`
	TrackingNumber    string          `gorm:"size:64" json:"tracking_number,omitempty"`

	PaymentGatewayTransactionID *string `gorm:"size:128" json:"payment_gateway_transaction_id"`
	// raw gateway payload, kept for audit
	PaymentDetails string `gorm:"type:text" json:"payment_details,omitempty"`

	OrderedAt    time.Time  `gorm:"not null" json:"ordered_at"`
	DispatchedAt *time.Time `json:"dispatched_at"`
	DeliveredAt  *time.Time `json:"delivered_at"`

	Items     []OrderItem            `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	Addresses []OrderAddressSnapshot `gorm:"constraint:OnDelete:CASCADE" json:"addresses"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// FK → orders.id
	OrderID uint `gorm:"index;not null" json:"order_id"`
	// FK → products.id; a product with order history cannot be deleted
	ProductID               uint            `gorm:"index;not null" json:"product_id"`
	Product                 *Product        `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	ProductName             string          `gorm:"size:255;not null" json:"product_name"`
	PricePerUnitAtPurchase  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price_per_unit_at_purchase"`
	UnitOfMeasureAtPurchase string          `gorm:"size:32" json:"unit_of_measure_at_purchase"`
	Quantity                int64           `gorm:"not null" json:"quantity"`
	LineItemTotal           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"line_item_total"`

	CreatedAt time.Time `json:"created_at"`
}

type OrderAddressSnapshot struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// FK → orders.id
	OrderID       uint        `gorm:"index;not null" json:"order_id"`
	AddressType   AddressType `gorm:"size:16;not null" json:"address_type"`
	FullName      string      `gorm:"size:255" json:"full_name"`
	Phone         string      `gorm:"size:32" json:"phone"`
	StreetAddress string      `gorm:"size:255;not null" json:"street_address"`
	City          string      `gorm:"size:100;not null" json:"city"`
	State         string      `gorm:"size:100" json:"state"`
	PostalCode    string      `gorm:"size:20" json:"postal_code"`
	Country       string      `gorm:"size:100;not null" json:"country"`

	CreatedAt time.Time `json:"created_at"`
}
