package coinselect

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientFunds indicates the spendable set cannot cover
	// target+fee. Returned errors carry the required and available amounts
	// via InsufficientFundsError.
	ErrInsufficientFunds = errors.New("coinselect: insufficient funds")

	// ErrInvalidOptions indicates an option set no strategy can satisfy.
	ErrInvalidOptions = errors.New("coinselect: invalid options")

	// ErrUnknownStrategy indicates an unrecognized strategy name.
	ErrUnknownStrategy = errors.New("coinselect: unknown strategy")
)

// InsufficientFundsError reports how far the spendable set fell short.
// It unwraps to ErrInsufficientFunds.
type InsufficientFundsError struct {
	Required  uint64 // target + fee
	Available uint64 // spendable total after filtering
	Reason    string // optional detail, e.g. which constraint emptied the set
}

func (e *InsufficientFundsError) Error() string {
	msg := fmt.Sprintf("%v: required %d, available %d", ErrInsufficientFunds, e.Required, e.Available)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// insufficient builds the typed shortfall error.
func insufficient(required, available uint64, reason string) error {
	return &InsufficientFundsError{Required: required, Available: available, Reason: reason}
}
