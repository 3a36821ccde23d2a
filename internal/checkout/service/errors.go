package service

import "errors"

var (
	ErrEmptyCart           = errors.New("cart is empty, nothing to checkout")
	ErrMissingStreet       = errors.New("delivery address requires a street")
	ErrMissingStreetNumber = errors.New("delivery address requires a street number")

	// ErrPaymentRequestFailed means the order and its reservation are already
	// persisted; the buyer may retry the payment handoff for the same order.
	ErrPaymentRequestFailed = errors.New("payment request failed, order kept for retry")

	ErrOrderNotPayable = errors.New("order is not waiting for payment")
)
