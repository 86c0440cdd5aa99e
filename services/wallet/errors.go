package wallet

import "errors"

var (
	// ErrInvalidAmount rejects non-positive credit/debit amounts.
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	// ErrInsufficientBalance aborts a debit that would overdraw the wallet.
	ErrInsufficientBalance = errors.New("insufficient wallet balance")
	// ErrReasonRequired rejects admin adjustments without a reason string.
	ErrReasonRequired = errors.New("adjustment reason is required")
	// ErrConcurrencyConflict surfaces after the bounded retry on wallet
	// version conflicts is exhausted.
	ErrConcurrencyConflict = errors.New("wallet mutation conflicted repeatedly, try again")
)
