// Package exchange defines the contract between the converter and the
// services that publish exchange rate tables.
package exchange

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RateSource fetches rate tables relative to a base currency.
type RateSource interface {
	// FetchRates returns every rate the source publishes for base.
	FetchRates(ctx context.Context, base string) (*RateTable, error)

	// Name returns the source's name for logging and metrics.
	Name() string
}

// RateTable maps currency codes to rates relative to Base.
// Tables are transient: one is fetched per request and dropped after use.
type RateTable struct {
	Base      string                     `json:"base"`
	Date      string                     `json:"date,omitempty"`
	Rates     map[string]decimal.Decimal `json:"rates"`
	Provider  string                     `json:"provider"`
	FetchedAt time.Time                  `json:"fetched_at"`
}

// Rate looks up the rate for code. The base currency resolves to one when
// the source leaves it out of the table.
func (t *RateTable) Rate(code string) (decimal.Decimal, error) {
	if t == nil {
		return decimal.Zero, ErrRateNotFound
	}
	code = strings.ToUpper(code)
	if rate, ok := t.Rates[code]; ok {
		return rate, nil
	}
	if strings.EqualFold(code, t.Base) {
		return decimal.NewFromInt(1), nil
	}
	return decimal.Zero, &RateNotFoundError{Base: t.Base, Code: code}
}
