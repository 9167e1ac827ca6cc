package service

import "errors"

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrCustomerProfileMissing = errors.New("customer profile not found")
	ErrProfileExists          = errors.New("customer profile already exists")
	ErrEmptyCart              = errors.New("cart is empty")
	ErrInvalidSelection       = errors.New("invalid delivery address or delivery option")
	ErrOrderPlacementFailed   = errors.New("order placement failed")
	ErrOrderNotFound          = errors.New("order not found")
	ErrProductNotFound        = errors.New("product not found")
	ErrCartLineNotFound       = errors.New("product is not in the cart")
	ErrInvalidQuantity        = errors.New("quantity must be greater than zero")
	ErrInvalidTransition      = errors.New("invalid order status transition")
	ErrForbidden              = errors.New("forbidden")
)
