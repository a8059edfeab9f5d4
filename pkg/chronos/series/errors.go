package series

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable matches every fetch failure via errors.Is.
	ErrUnavailable = errors.New("series unavailable")
	// ErrInvalidRequest means neither parameter pair was fully specified.
	ErrInvalidRequest = errors.New("need period and interval, or start and end")
	// ErrEmpty means the provider returned no usable rows.
	ErrEmpty = errors.New("no data returned")
	// ErrNoClose means the provider table has no Close column.
	ErrNoClose = errors.New("no Close column in provider data")
)

// UnavailableError carries the symbol and the underlying cause of a failed
// fetch. Its message is meant to be shown to the user as-is.
type UnavailableError struct {
	Symbol string
	Cause  error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("could not fetch data for %s: %v; check the ticker symbol or your internet connection", e.Symbol, e.Cause)
}

func (e *UnavailableError) Unwrap() []error { return []error{ErrUnavailable, e.Cause} }

func unavailable(symbol string, cause error) error {
	return &UnavailableError{Symbol: symbol, Cause: cause}
}
