package payments

import "errors"

var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidMethod = errors.New("invalid payment method")
	ErrInvalidStatus = errors.New("invalid payment status")

	ErrAlreadyCompleted = errors.New("payment already completed")
	ErrRetryExhausted   = errors.New("payment cannot be retried")

	ErrDuplicateNotification = errors.New("duplicate transaction")
	ErrNoMatchingPayment     = errors.New("no matching pending payment")
	ErrMemoMismatch          = errors.New("content does not reference this payment's invoice")
	ErrAmountMismatch        = errors.New("amount does not match the pending payment")

	ErrRefundNotEligible      = errors.New("payment is not eligible for refund")
	ErrRefundExceedsAvailable = errors.New("refund amount exceeds available refund amount")
	ErrRefundBackward         = errors.New("refund status cannot move backward")
)
