package currency

import (
	"fmt"

	"github.com/amirasaad/fxconverter/pkg/currency"
	"github.com/amirasaad/fxconverter/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the read-only currency endpoints.
func Routes(app *fiber.App, set *currency.Set) {
	currencyGroup := app.Group("/api/currencies")

	currencyGroup.Get("/", ListCurrencies(set))
	currencyGroup.Get("/:code", GetCurrency(set))
}

// ListCurrencies returns a Fiber handler listing the selectable currencies
// in configuration order.
// @Summary List currencies
// @Description Returns the selectable currencies in configuration order.
// @Tags currencies
// @Produce json
// @Success 200 {object} common.Response{data=[]CurrencyResponse} "Currencies fetched successfully"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /api/currencies [get]
func ListCurrencies(set *currency.Set) fiber.Handler {
	return func(c *fiber.Ctx) error {
		metas := set.List()
		out := make([]*CurrencyResponse, 0, len(metas))
		for _, meta := range metas {
			out = append(out, ToResponse(meta))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Currencies fetched successfully", out)
	}
}

// GetCurrency returns a Fiber handler for a single currency of the set.
// @Summary Get a currency
// @Description Returns metadata for one selectable currency.
// @Tags currencies
// @Produce json
// @Param code path string true "ISO 4217 currency code"
// @Success 200 {object} common.Response{data=CurrencyResponse} "Currency fetched successfully"
// @Failure 404 {object} common.ProblemDetails "Currency not found"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /api/currencies/{code} [get]
func GetCurrency(set *currency.Set) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := c.Params("code")
		meta, ok := set.Get(code)
		if !ok {
			return common.ProblemDetailsJSON(
				c,
				"Currency not found",
				fmt.Errorf("%w: %q", currency.ErrUnsupportedCurrency, code),
				fiber.StatusNotFound,
			)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Currency fetched successfully", ToResponse(meta))
	}
}
