// Package mockexchangerate provides an in-memory exchange.RateSource used by
// tests, demos and EXCHANGE_RATE_SOURCE=static.
package mockexchangerate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/fxconverter/pkg/provider/exchange"
	"github.com/shopspring/decimal"
)

// DefaultEURRates are mid-market rates against EUR used when no table is given.
var DefaultEURRates = map[string]decimal.Decimal{
	"EUR": decimal.NewFromInt(1),
	"USD": decimal.RequireFromString("1.05"),
	"GBP": decimal.RequireFromString("0.83"),
	"JPY": decimal.RequireFromString("162.5"),
	"CHF": decimal.RequireFromString("0.94"),
	"CAD": decimal.RequireFromString("1.47"),
	"AUD": decimal.RequireFromString("1.63"),
}

// MockExchangeRate answers FetchRates from an anchor table, deriving cross
// rates for any base in that table. FetchRatesFunc overrides the default.
type MockExchangeRate struct {
	FetchRatesFunc func(ctx context.Context, base string) (*exchange.RateTable, error)
	NameFunc       func() string

	mu     sync.Mutex
	anchor map[string]decimal.Decimal
	calls  []string
}

// NewMockExchangeRate creates a source anchored on EUR rates.
func NewMockExchangeRate(eurRates map[string]decimal.Decimal) *MockExchangeRate {
	if eurRates == nil {
		eurRates = DefaultEURRates
	}
	anchor := make(map[string]decimal.Decimal, len(eurRates))
	for code, rate := range eurRates {
		anchor[strings.ToUpper(code)] = rate
	}
	return &MockExchangeRate{anchor: anchor}
}

// FetchRates calls the mock implementation of FetchRates.
func (m *MockExchangeRate) FetchRates(ctx context.Context, base string) (*exchange.RateTable, error) {
	base = strings.ToUpper(base)
	m.mu.Lock()
	m.calls = append(m.calls, base)
	m.mu.Unlock()

	if m.FetchRatesFunc != nil {
		return m.FetchRatesFunc(ctx, base)
	}
	if err := ctx.Err(); err != nil {
		return nil, &exchange.ProviderError{Provider: m.Name(), Err: fmt.Errorf("%w: %w", exchange.ErrNetwork, err)}
	}

	baseRate, ok := m.anchor[base]
	if !ok || baseRate.IsZero() {
		return nil, &exchange.ProviderError{Provider: m.Name(), Err: fmt.Errorf("%w: unknown base %s", exchange.ErrNetwork, base)}
	}

	rates := make(map[string]decimal.Decimal, len(m.anchor))
	for code, rate := range m.anchor {
		rates[code] = rate.DivRound(baseRate, 6)
	}
	return &exchange.RateTable{
		Base:      base,
		Date:      time.Now().UTC().Format(time.DateOnly),
		Rates:     rates,
		Provider:  m.Name(),
		FetchedAt: time.Now(),
	}, nil
}

// Name calls the mock implementation of Name.
func (m *MockExchangeRate) Name() string {
	if m.NameFunc != nil {
		return m.NameFunc()
	}
	return "static"
}

// Calls returns the bases requested so far, in order.
func (m *MockExchangeRate) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

var _ exchange.RateSource = (*MockExchangeRate)(nil)
