package currency

import "github.com/amirasaad/fxconverter/pkg/currency"

// CurrencyResponse represents the response structure for currency data
type CurrencyResponse struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	Label    string `json:"label"`
}

// ToResponse converts currency metadata to a response DTO
func ToResponse(meta currency.Meta) *CurrencyResponse {
	return &CurrencyResponse{
		Code:     meta.Code,
		Name:     meta.Name,
		Symbol:   meta.Symbol,
		Decimals: meta.Decimals,
		Label:    meta.Label(),
	}
}
