package converter

import (
	"errors"

	"github.com/amirasaad/fxconverter/pkg/converter"
	convertersvc "github.com/amirasaad/fxconverter/pkg/service/converter"
	"github.com/amirasaad/fxconverter/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the converter view endpoints.
func Routes(app *fiber.App, svc *convertersvc.Service) {
	views := app.Group("/api/views")

	views.Post("/", Mount(svc))
	views.Get("/:id", GetView(svc))
	views.Delete("/:id", Unmount(svc))
	views.Put("/:id/amount", SetAmount(svc))
	views.Put("/:id/source", SetSource(svc))
	views.Put("/:id/target", SetTarget(svc))
	views.Post("/:id/swap", Swap(svc))
	views.Post("/:id/recompute", Recompute(svc))
}

// Mount returns a Fiber handler that mounts a new converter view.
// The body is optional; absent fields take the configured defaults.
// @Summary Mount a converter view
// @Description Creates a converter view seeded with the configured defaults. Amount, source and target may be overridden. The first conversion and the reference rate are fetched in the background.
// @Tags views
// @Accept json
// @Produce json
// @Param request body MountRequest false "Initial amount and currencies"
// @Success 201 {object} common.Response{data=ViewResponse} "View mounted"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 422 {object} common.ProblemDetails "Unsupported currency"
// @Failure 503 {object} common.ProblemDetails "Too many mounted views"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /api/views [post]
func Mount(svc *convertersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := &MountRequest{}
		if len(c.Body()) > 0 {
			var err error
			if req, err = common.BindAndValidate[MountRequest](c); err != nil {
				return nil
			}
		}
		view, err := svc.Mount(convertersvc.MountRequest{
			Amount: req.Amount,
			Source: req.Source,
			Target: req.Target,
		})
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to mount converter view", err)
		}
		c.Location("/api/views/" + view.ID())
		return common.SuccessResponseJSON(
			c,
			fiber.StatusCreated,
			"Converter view mounted",
			ToResponse(view.Snapshot(), view.Currencies()),
		)
	}
}

// GetView returns the current snapshot. With ?wait=true the handler first
// waits for in-flight fetches to settle.
// @Summary Get a converter view
// @Description Returns the current snapshot of a view. Pass wait=true to block until in-flight fetches settle.
// @Tags views
// @Produce json
// @Param id path string true "View ID"
// @Param wait query bool false "Wait for in-flight fetches"
// @Success 200 {object} common.Response{data=ViewResponse} "View fetched"
// @Failure 404 {object} common.ProblemDetails "View not found"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /api/views/{id} [get]
func GetView(svc *convertersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := svc.Get(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Converter view not found", err)
		}
		if c.QueryBool("wait") {
			view.Wait()
		}
		return common.SuccessResponseJSON(
			c,
			fiber.StatusOK,
			"Converter view fetched",
			ToResponse(view.Snapshot(), view.Currencies()),
		)
	}
}

// Unmount returns a Fiber handler that unmounts a view.
// @Summary Unmount a converter view
// @Description Cancels the view's pending fetches and removes it.
// @Tags views
// @Param id path string true "View ID"
// @Success 204 "View unmounted"
// @Failure 404 {object} common.ProblemDetails "View not found"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /api/views/{id} [delete]
func Unmount(svc *convertersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Unmount(c.Params("id")); err != nil {
			return common.ProblemDetailsJSON(c, "Converter view not found", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SetAmount returns a Fiber handler that applies raw amount text.
// @Summary Set the amount
// @Description Applies raw amount text. A blank string clears the amount and the result.
// @Tags views
// @Accept json
// @Produce json
// @Param id path string true "View ID"
// @Param request body AmountRequest true "Request body"
// @Success 202 {object} common.Response{data=ViewResponse} "Change accepted"
// @Failure 400 {object} common.ProblemDetails "Invalid amount"
// @Failure 404 {object} common.ProblemDetails "View not found"
// @Failure 410 {object} common.ProblemDetails "View unmounted"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /api/views/{id}/amount [put]
func SetAmount(svc *convertersvc.Service) fiber.Handler {
	return mutate(svc, "Amount updated", func(c *fiber.Ctx, view *converter.Converter) (bool, error) {
		req, err := common.BindAndValidate[AmountRequest](c)
		if err != nil {
			return false, nil
		}
		if req.Amount == nil {
			return false, common.ErrorResponseJSON(c, fiber.StatusBadRequest, "Validation failed", "amount is required")
		}
		return true, view.SetAmount(*req.Amount)
	})
}

// SetSource returns a Fiber handler that changes the source currency.
// @Summary Set the source currency
// @Description Selects the currency converted from and refetches the result.
// @Tags views
// @Accept json
// @Produce json
// @Param id path string true "View ID"
// @Param request body CurrencyRequest true "Request body"
// @Success 202 {object} common.Response{data=ViewResponse} "Change accepted"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 422 {object} common.ProblemDetails "Unsupported currency"
// @Failure 404 {object} common.ProblemDetails "View not found"
// @Failure 410 {object} common.ProblemDetails "View unmounted"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /api/views/{id}/source [put]
func SetSource(svc *convertersvc.Service) fiber.Handler {
	return mutate(svc, "Source currency updated", func(c *fiber.Ctx, view *converter.Converter) (bool, error) {
		req, err := common.BindAndValidate[CurrencyRequest](c)
		if err != nil {
			return false, nil
		}
		return true, view.SetSource(req.Currency)
	})
}

// SetTarget returns a Fiber handler that changes the target currency.
// @Summary Set the target currency
// @Description Selects the currency converted to and refetches the result.
// @Tags views
// @Accept json
// @Produce json
// @Param id path string true "View ID"
// @Param request body CurrencyRequest true "Request body"
// @Success 202 {object} common.Response{data=ViewResponse} "Change accepted"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 422 {object} common.ProblemDetails "Unsupported currency"
// @Failure 404 {object} common.ProblemDetails "View not found"
// @Failure 410 {object} common.ProblemDetails "View unmounted"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /api/views/{id}/target [put]
func SetTarget(svc *convertersvc.Service) fiber.Handler {
	return mutate(svc, "Target currency updated", func(c *fiber.Ctx, view *converter.Converter) (bool, error) {
		req, err := common.BindAndValidate[CurrencyRequest](c)
		if err != nil {
			return false, nil
		}
		return true, view.SetTarget(req.Currency)
	})
}

// Swap returns a Fiber handler that exchanges source and target.
// @Summary Swap currencies
// @Description Exchanges source and target and refetches the result.
// @Tags views
// @Accept json
// @Produce json
// @Param id path string true "View ID"
// @Success 202 {object} common.Response{data=ViewResponse} "Change accepted"
// @Failure 404 {object} common.ProblemDetails "View not found"
// @Failure 410 {object} common.ProblemDetails "View unmounted"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /api/views/{id}/swap [post]
func Swap(svc *convertersvc.Service) fiber.Handler {
	return mutate(svc, "Currencies swapped", func(_ *fiber.Ctx, view *converter.Converter) (bool, error) {
		return true, view.Swap()
	})
}

// Recompute returns a Fiber handler that refetches the conversion rate for
// unchanged inputs.
// @Summary Recompute the result
// @Description Refetches the conversion for unchanged inputs.
// @Tags views
// @Accept json
// @Produce json
// @Param id path string true "View ID"
// @Success 202 {object} common.Response{data=ViewResponse} "Change accepted"
// @Failure 404 {object} common.ProblemDetails "View not found"
// @Failure 410 {object} common.ProblemDetails "View unmounted"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /api/views/{id}/recompute [post]
func Recompute(svc *convertersvc.Service) fiber.Handler {
	return mutate(svc, "Recompute requested", func(_ *fiber.Ctx, view *converter.Converter) (bool, error) {
		return true, view.Recompute()
	})
}

// mutate resolves the view, applies fn and answers 202 with the snapshot
// taken right after the change. fn returns false when it has already written
// a response.
func mutate(
	svc *convertersvc.Service,
	message string,
	fn func(c *fiber.Ctx, view *converter.Converter) (bool, error),
) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := svc.Get(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Converter view not found", err)
		}
		applied, err := fn(c, view)
		if !applied {
			return err
		}
		if err != nil {
			title := "Failed to update converter view"
			if errors.Is(err, converter.ErrInvalidAmount) {
				title = "Invalid amount"
			}
			return common.ProblemDetailsJSON(c, title, err)
		}
		return common.SuccessResponseJSON(
			c,
			fiber.StatusAccepted,
			message,
			ToResponse(view.Snapshot(), view.Currencies()),
		)
	}
}
