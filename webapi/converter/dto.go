package converter

import (
	"time"

	"github.com/amirasaad/fxconverter/pkg/converter"
	"github.com/amirasaad/fxconverter/pkg/currency"
)

// MountRequest is the optional body of POST /api/views.
type MountRequest struct {
	Amount *string `json:"amount,omitempty"`
	Source string  `json:"source,omitempty" validate:"omitempty,len=3,alpha"`
	Target string  `json:"target,omitempty" validate:"omitempty,len=3,alpha"`
}

// AmountRequest carries raw amount text. A blank string empties the amount.
type AmountRequest struct {
	Amount *string `json:"amount"`
}

// CurrencyRequest selects a source or target currency.
type CurrencyRequest struct {
	Currency string `json:"currency" validate:"required,len=3,alpha"`
}

// CurrencyOption is one entry of a currency selector.
type CurrencyOption struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// ValueResponse is a fetched value with its display form.
type ValueResponse struct {
	Status    converter.Status `json:"status"`
	Value     *string          `json:"value"`
	Display   string           `json:"display"`
	Error     string           `json:"error,omitempty"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
}

// ViewResponse is the rendered state of a converter view.
type ViewResponse struct {
	ID            string           `json:"id"`
	Amount        *string          `json:"amount"`
	Source        CurrencyOption   `json:"source"`
	Target        CurrencyOption   `json:"target"`
	Result        ValueResponse    `json:"result"`
	ReferenceRate ValueResponse    `json:"reference_rate"`
	Reference     string           `json:"reference"`
	ResultLine    string           `json:"result_line"`
	Notice        string           `json:"notice"`
	Currencies    []CurrencyOption `json:"currencies"`
	Seq           uint64           `json:"seq"`
	Version       uint64           `json:"version"`
	Mounted       bool             `json:"mounted"`
}

// ToResponse renders a snapshot for the API.
func ToResponse(s converter.State, set *currency.Set) *ViewResponse {
	resp := &ViewResponse{
		ID:            s.ViewID,
		Source:        option(set, s.Source),
		Target:        option(set, s.Target),
		Result:        toValue(s.Result, converter.FormatResult(s.Result)),
		ReferenceRate: toValue(s.ReferenceRate, converter.FormatReferenceRate(s.ReferenceRate)),
		Reference:     converter.ReferenceLine(s),
		ResultLine:    converter.ResultLine(s),
		Notice:        converter.Notice,
		Seq:           s.Seq,
		Version:       s.Version,
		Mounted:       s.Mounted,
	}
	if !s.Amount.IsEmpty() {
		amount := s.Amount.String()
		resp.Amount = &amount
	}
	if set != nil {
		for _, meta := range set.List() {
			resp.Currencies = append(resp.Currencies, CurrencyOption{Code: meta.Code, Label: meta.Label()})
		}
	}
	return resp
}

func toValue(v converter.Value, display string) ValueResponse {
	out := ValueResponse{
		Status:    v.Status,
		Display:   display,
		Error:     v.Error,
		UpdatedAt: v.UpdatedAt,
	}
	if v.Value.Valid {
		value := v.Value.Decimal.String()
		out.Value = &value
	}
	return out
}

func option(set *currency.Set, code string) CurrencyOption {
	if set != nil {
		if meta, ok := set.Get(code); ok {
			return CurrencyOption{Code: code, Label: meta.Label()}
		}
	}
	return CurrencyOption{Code: code, Label: code}
}
