// Package currency holds the closed set of currencies a converter view may
// select from, together with the display metadata the presentation layers
// render next to each code.
package currency

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultDecimals is the default number of decimal places for currencies
	DefaultDecimals = 2
)

var (
	// ErrUnsupportedCurrency is returned for codes outside the configured set.
	ErrUnsupportedCurrency = errors.New("unsupported currency")

	// ErrInvalidCurrencyCode is returned for codes that are not three letters.
	ErrInvalidCurrencyCode = errors.New("invalid currency code")

	codePattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

// Meta holds currency-specific display metadata
type Meta struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Label renders the option text used by the currency selectors.
func (m Meta) Label() string {
	return m.Code + " - " + m.Name
}

var known = map[string]Meta{
	"USD": {Code: "USD", Name: "US Dollar", Symbol: "$", Decimals: 2},
	"EUR": {Code: "EUR", Name: "Euro", Symbol: "€", Decimals: 2},
	"JPY": {Code: "JPY", Name: "Japanese Yen", Symbol: "¥", Decimals: 0},
	"GBP": {Code: "GBP", Name: "British Pound", Symbol: "£", Decimals: 2},
	"CHF": {Code: "CHF", Name: "Swiss Franc", Symbol: "CHF", Decimals: 2},
	"CAD": {Code: "CAD", Name: "Canadian Dollar", Symbol: "C$", Decimals: 2},
	"AUD": {Code: "AUD", Name: "Australian Dollar", Symbol: "A$", Decimals: 2},
	"CNY": {Code: "CNY", Name: "Chinese Yuan", Symbol: "¥", Decimals: 2},
	"INR": {Code: "INR", Name: "Indian Rupee", Symbol: "₹", Decimals: 2},
	"KWD": {Code: "KWD", Name: "Kuwaiti Dinar", Symbol: "د.ك", Decimals: 3},
	"EGP": {Code: "EGP", Name: "Egyptian Pound", Symbol: "£", Decimals: 2},
}

// Set is an ordered, immutable set of selectable currencies.
type Set struct {
	codes []string
	meta  map[string]Meta
}

// NewSet builds a set from codes, keeping their order and dropping
// duplicates. Codes without known metadata are named after themselves.
func NewSet(codes ...string) (*Set, error) {
	s := &Set{meta: make(map[string]Meta, len(codes))}
	for _, raw := range codes {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if !codePattern.MatchString(code) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCurrencyCode, raw)
		}
		if _, dup := s.meta[code]; dup {
			continue
		}
		meta, ok := known[code]
		if !ok {
			meta = Meta{Code: code, Name: code, Symbol: code, Decimals: DefaultDecimals}
		}
		s.codes = append(s.codes, code)
		s.meta[code] = meta
	}
	if len(s.codes) == 0 {
		return nil, fmt.Errorf("%w: empty currency set", ErrInvalidCurrencyCode)
	}
	return s, nil
}

// DefaultSet returns the two-entry set the widget ships with.
func DefaultSet() *Set {
	s, _ := NewSet("USD", "EUR")
	return s
}

// Normalize upper-cases code and checks membership.
func (s *Set) Normalize(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if _, ok := s.meta[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, code)
	}
	return c, nil
}

// Contains reports whether code is in the set.
func (s *Set) Contains(code string) bool {
	_, err := s.Normalize(code)
	return err == nil
}

// Get returns the metadata for code.
func (s *Set) Get(code string) (Meta, bool) {
	m, ok := s.meta[strings.ToUpper(code)]
	return m, ok
}

// Codes returns the codes in configuration order.
func (s *Set) Codes() []string {
	out := make([]string, len(s.codes))
	copy(out, s.codes)
	return out
}

// List returns the metadata in configuration order.
func (s *Set) List() []Meta {
	out := make([]Meta, 0, len(s.codes))
	for _, c := range s.codes {
		out = append(out, s.meta[c])
	}
	return out
}

// Len returns the number of currencies in the set.
func (s *Set) Len() int {
	return len(s.codes)
}
