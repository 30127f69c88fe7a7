package converter

import "fmt"

// DisplayDecimals is the precision used for results and rates on screen.
const DisplayDecimals = 4

// Notice is the informational text shown under the result.
const Notice = "We use the mid-market rate for our Converter. This is for informational purposes only. " +
	"You won't receive this rate when sending money."

// FormatResult renders a result with four decimals, or "0.00" before the
// first successful conversion.
func FormatResult(v Value) string {
	if !v.Value.Valid {
		return "0.00"
	}
	return v.Value.Decimal.StringFixed(DisplayDecimals)
}

// FormatReferenceRate renders the reference rate, blank until one arrives.
func FormatReferenceRate(v Value) string {
	if !v.Value.Valid {
		return ""
	}
	return v.Value.Decimal.StringFixed(DisplayDecimals)
}

// AmountPlaceholder stands in for an empty amount in rendered lines.
const AmountPlaceholder = "-"

// ResultLine renders "<amount> <source> = <result> <target>".
func ResultLine(s State) string {
	amount := s.Amount.String()
	if s.Amount.IsEmpty() {
		amount = AmountPlaceholder
	}
	return fmt.Sprintf("%s %s = %s %s", amount, s.Source, FormatResult(s.Result), s.Target)
}

// ReferenceLine renders "1 <base> = <rate> <quote>".
func ReferenceLine(s State) string {
	return fmt.Sprintf("1 %s = %s %s", s.ReferenceBase, FormatReferenceRate(s.ReferenceRate), s.ReferenceTo)
}
