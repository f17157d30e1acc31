package errs

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across services. Handlers map these to HTTP
// status codes; repositories and services wrap them with context via %w.
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrLimitExceeded    = errors.New("limit exceeded")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrTransferFailed   = errors.New("external transfer failed")
)

// InsufficientFundsError carries the balances needed for a useful
// client-facing message. Matches errors.Is(err, ErrInsufficientFunds).
type InsufficientFundsError struct {
	Current  decimal.Decimal
	Required decimal.Decimal
}

var ErrInsufficientFunds = errors.New("insufficient funds")

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %s, required %s", e.Current, e.Required)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

func InsufficientFunds(current, required decimal.Decimal) error {
	return &InsufficientFundsError{Current: current, Required: required}
}

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

func LimitExceededf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrLimitExceeded}, args...)...)
}
