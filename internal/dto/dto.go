package dto

import (
	"storefront-api/internal/model"
	"time"

	"github.com/shopspring/decimal"
)

type MessageResponse struct {
	Message string `json:"message"`
}

type PlaceOrderRequest struct {
	DeliveryAddressID uint   `json:"delivery_address_id"`
	DeliveryOptionID  uint   `json:"delivery_option_id"`
	PaymentMethod     string `json:"payment_method"`
	Notes             string `json:"notes"`
}

type PlaceOrderResponse struct {
	Message          string       `json:"message"`
	Order            *model.Order `json:"order"`
	AuthorizationURL string       `json:"authorization_url,omitempty"`
	AccessCode       string       `json:"access_code,omitempty"`
}

type FulfillmentRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number"`
}

type CartItemRequest struct {
	ProductID uint  `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

type CartResponse struct {
	Cart       *model.Cart     `json:"cart"`
	Total      decimal.Decimal `json:"total"`
	GuestToken string          `json:"guest_token,omitempty"`
}

// DiscountRequest sets a product discount. Type is one of percentage, fixed or none.
type DiscountRequest struct {
	Type     string          `json:"type"`
	Value    decimal.Decimal `json:"value"`
	StartsAt *time.Time      `json:"starts_at"`
	EndsAt   *time.Time      `json:"ends_at"`
}

type ProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type AddressRequest struct {
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
	IsDefault     bool   `json:"is_default"`
}

type RejectionResponse struct {
	Message     string `json:"message"`
	ProductID   uint   `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Requested   int64  `json:"requested"`
	Limit       int64  `json:"limit"`
}
