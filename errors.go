package vesting

import (
	"errors"

	"github.com/xraph/vesting/token"
)

// Sentinel errors for common failure scenarios. Every error rejects the
// whole operation with no partial effect; the registry stays valid for
// subsequent calls.
var (
	// ErrUnknownPayment is returned when a payment id does not exist.
	ErrUnknownPayment = errors.New("vesting: unknown payment")

	// ErrUnauthorized is returned when the caller is not the required
	// employer or employee for the operation.
	ErrUnauthorized = errors.New("vesting: unauthorized")

	// ErrPaymentInactive is returned when release or cancel is attempted
	// on a cancelled stream.
	ErrPaymentInactive = errors.New("vesting: payment inactive")

	// ErrNotCancellable is returned when cancel is attempted on a stream
	// created without the cancel right.
	ErrNotCancellable = errors.New("vesting: payment not cancellable")

	// ErrInvalidInput is returned for malformed creation parameters
	// (zero amount, zero duration, missing or self-referential accounts).
	ErrInvalidInput = errors.New("vesting: invalid input")
)

// IsNotFound reports whether err is an unknown-payment rejection.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownPayment)
}

// IsAuthorizationError reports whether err is an access-control rejection.
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsFundsError reports whether err is an external-ledger funds rejection.
func IsFundsError(err error) bool {
	return errors.Is(err, token.ErrInsufficientBalance) ||
		errors.Is(err, token.ErrInsufficientAllowance)
}
