package exchange

import (
	"errors"
	"fmt"
)

// Error taxonomy for rate sources.
var (
	// ErrNetwork covers rejected requests, timeouts and non-200 responses.
	ErrNetwork = errors.New("rate source request failed")

	// ErrParse indicates a body that is not valid JSON or lacks the rates object.
	ErrParse = errors.New("rate source response malformed")

	// ErrRateNotFound indicates the table has no entry for the requested code.
	ErrRateNotFound = errors.New("exchange rate not found")
)

// ProviderError represents an error from a rate source
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return "provider " + e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError checks if an error is a ProviderError
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// RateNotFoundError names the missing code. It matches ErrRateNotFound.
type RateNotFoundError struct {
	Base string
	Code string
}

func (e *RateNotFoundError) Error() string {
	return fmt.Sprintf("%s: no rate for %s in %s table", ErrRateNotFound, e.Code, e.Base)
}

func (e *RateNotFoundError) Is(target error) bool {
	return target == ErrRateNotFound
}
