package app

import (
	"io"
	"log/slog"
	"testing"

	infra_eventbus "github.com/amirasaad/fxconverter/infra/eventbus"
	"github.com/amirasaad/fxconverter/infra/provider/mockexchangerate"
	"github.com/amirasaad/fxconverter/pkg/config"
	convertersvc "github.com/amirasaad/fxconverter/pkg/service/converter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func converterConfig() *config.Converter {
	return &config.Converter{
		Currencies:     []string{"USD", "EUR", "GBP"},
		DefaultAmount:  "25",
		DefaultSource:  "GBP",
		DefaultTarget:  "USD",
		ReferenceBase:  "USD",
		ReferenceQuote: "EUR",
	}
}

func TestViewOptions(t *testing.T) {
	opts, err := ViewOptions(converterConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"USD", "EUR", "GBP"}, opts.Currencies.Codes())
	require.NotNil(t, opts.Amount)
	assert.Equal(t, "25", opts.Amount.String())
	assert.False(t, opts.EmptyAmount)
	assert.Equal(t, "GBP", opts.Source)

	cfg := converterConfig()
	cfg.DefaultAmount = ""
	opts, err = ViewOptions(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, opts.Amount)
	assert.True(t, opts.EmptyAmount)

	cfg.DefaultAmount = "x"
	_, err = ViewOptions(cfg, nil)
	assert.Error(t, err)
}

func TestNew_MountsViewsWithConfiguredDefaults(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := infra_eventbus.NewRecordingMemory(logger)
	deps := &Deps{
		RateSource: mockexchangerate.NewMockExchangeRate(nil),
		EventBus:   bus,
		Logger:     logger,
	}
	a, err := New(deps, &config.App{Converter: converterConfig()})
	require.NoError(t, err)
	t.Cleanup(a.ConverterService.Shutdown)

	view, err := a.ConverterService.Mount(convertersvc.MountRequest{})
	require.NoError(t, err)
	view.Wait()

	snap := view.Snapshot()
	assert.Equal(t, "GBP", snap.Source)
	assert.Equal(t, "25", snap.Amount.String())
	assert.NotEmpty(t, bus.Published())
}
