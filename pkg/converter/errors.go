package converter

import (
	"errors"

	"github.com/amirasaad/fxconverter/pkg/currency"
)

var (
	// ErrInvalidAmount is returned when non-empty amount text is not a number.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrUnsupportedCurrency is returned for codes outside the view's set.
	ErrUnsupportedCurrency = currency.ErrUnsupportedCurrency

	// ErrUnmounted is returned by mutations after Unmount.
	ErrUnmounted = errors.New("converter view unmounted")
)
