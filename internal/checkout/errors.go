package checkout

import "errors"

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition = errors.New("illegal checkout status transition")
)

type FailureCode string

const (
	FailureNetwork             FailureCode = "NETWORK_FAILURE"
	FailureInsufficientBalance FailureCode = "INSUFFICIENT_BALANCE"
	FailurePaymentRejected     FailureCode = "PAYMENT_REJECTED"
	FailureOrderCreation       FailureCode = "ORDER_CREATION_FAILED"
)

// Error is a terminal failure of one checkout attempt. Message is
// user-facing; PaymentRejected carries the upstream reason verbatim,
// everything else degrades to a generic payment failure. OrdersCreated
// records how many orders were created before the attempt died, which is
// non-zero only for FailureOrderCreation (the wallet stays debited in that
// case, there is no compensating refund here).
type Error struct {
	Code          FailureCode
	Message       string
	OrdersCreated int
	cause         error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Code) + ": " + e.cause.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func failure(code FailureCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// AsCheckoutError unwraps err to *Error when possible.
func AsCheckoutError(err error) (*Error, bool) {
	var ce *Error
	ok := errors.As(err, &ce)
	return ce, ok
}
