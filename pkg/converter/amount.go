package converter

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a non-negative decimal or the empty marker. The zero value is
// empty.
type Amount struct {
	value decimal.Decimal
	set   bool
}

// EmptyAmount returns the empty marker.
func EmptyAmount() Amount {
	return Amount{}
}

// AmountOf wraps d, clamping negatives to zero.
func AmountOf(d decimal.Decimal) Amount {
	if d.IsNegative() {
		d = decimal.Zero
	}
	return Amount{value: d, set: true}
}

// Input bounds. Exponent notation lets a short string describe a number
// with millions of digits, so magnitude is capped before anything renders it.
const (
	maxAmountText    = 64
	maxIntegerDigits = 18
	maxFracDigits    = 18
)

// ParseAmount turns raw input text into an Amount. Blank text yields the
// empty marker rather than zero. Numbers with more than 18 integer digits
// are rejected; fractions finer than 18 places are rounded.
func ParseAmount(text string) (Amount, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return EmptyAmount(), nil
	}
	if len(text) > maxAmountText {
		return Amount{}, fmt.Errorf("%w: input longer than %d characters", ErrInvalidAmount, maxAmountText)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
	if d.IsZero() {
		return AmountOf(decimal.Zero), nil
	}
	exp := int64(d.Exponent())
	if exp+int64(d.NumDigits()) > maxIntegerDigits {
		return Amount{}, fmt.Errorf("%w: %q is too large", ErrInvalidAmount, text)
	}
	if exp < -maxAmountText {
		return Amount{}, fmt.Errorf("%w: %q is too small", ErrInvalidAmount, text)
	}
	if exp < -maxFracDigits {
		d = d.Round(maxFracDigits)
	}
	return AmountOf(d), nil
}

// IsEmpty reports whether a is the empty marker.
func (a Amount) IsEmpty() bool {
	return !a.set
}

// Decimal returns the value and whether one is present.
func (a Amount) Decimal() (decimal.Decimal, bool) {
	return a.value, a.set
}

// Equal compares two amounts numerically; two empty amounts are equal.
func (a Amount) Equal(b Amount) bool {
	if a.set != b.set {
		return false
	}
	return !a.set || a.value.Equal(b.value)
}

// String renders the amount as entered; empty renders as "".
func (a Amount) String() string {
	if !a.set {
		return ""
	}
	return a.value.String()
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.set {
		return []byte("null"), nil
	}
	return []byte(`"` + a.value.String() + `"`), nil
}
