package domain

import (
	"errors"

	"github.com/fjod/go_cart/storefront/internal/pricing"
)

var (
	ErrInvalidLineItem        = pricing.ErrInvalidLineItem
	ErrItemNotFound           = errors.New("item not found in cart")
	ErrNoCartForUser          = errors.New("no cart for this user")
	ErrCartNotFound           = errors.New("cart not found")
	ErrInvalidOrExpiredCoupon = errors.New("invalid or expired coupon")
	ErrInventoryUpdateFailed  = errors.New("inventory update failed")

	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrCouponNotFound  = errors.New("coupon not found")
	ErrDuplicateCoupon = errors.New("coupon with this name already exists")
	ErrInvalidCoupon   = errors.New("invalid coupon")
	ErrInvalidID       = errors.New("invalid id format")
	ErrPaymentSession  = errors.New("payment session could not be created")
)

// Class tells whether a failure was caused by the caller or by the server.
type Class int

const (
	ClassServer Class = iota
	ClassClient
)

func (c Class) String() string {
	if c == ClassClient {
		return "client"
	}
	return "server"
}

var clientErrors = []error{
	ErrInvalidLineItem,
	ErrItemNotFound,
	ErrNoCartForUser,
	ErrCartNotFound,
	ErrInvalidOrExpiredCoupon,
	ErrProductNotFound,
	ErrOrderNotFound,
	ErrCouponNotFound,
	ErrDuplicateCoupon,
	ErrInvalidCoupon,
	ErrInvalidID,
	pricing.ErrInvalidDiscount,
}

// Classify returns ClassClient for bad ids, missing resources and invalid input.
// Anything else, including store failures, is ClassServer.
func Classify(err error) Class {
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return ClassClient
		}
	}
	return ClassServer
}
