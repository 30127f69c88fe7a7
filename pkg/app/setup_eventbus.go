package app

import (
	"context"

	"github.com/amirasaad/fxconverter/pkg/converter"
	"github.com/amirasaad/fxconverter/pkg/eventbus"
)

// setupEventBus registers the application-wide event handlers.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	if bus == nil {
		return
	}
	logger := a.Deps.Logger.With("handler", "state_changed")

	bus.Register(converter.EventStateChanged, func(ctx context.Context, e eventbus.Event) error {
		changed, ok := e.(converter.StateChanged)
		if !ok {
			logger.Error("Unexpected event payload", "type", e.Type())
			return nil
		}
		logger.Debug("Converter state changed",
			"view", changed.ViewID,
			"reason", changed.Reason,
			"version", changed.State.Version,
			"result_status", changed.State.Result.Status,
			"reference_status", changed.State.ReferenceRate.Status,
		)
		return nil
	})
}
