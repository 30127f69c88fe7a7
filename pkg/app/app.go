package app

import (
	"fmt"
	"log/slog"

	"github.com/amirasaad/fxconverter/pkg/config"
	"github.com/amirasaad/fxconverter/pkg/converter"
	"github.com/amirasaad/fxconverter/pkg/currency"
	"github.com/amirasaad/fxconverter/pkg/eventbus"
	"github.com/amirasaad/fxconverter/pkg/provider/exchange"
	convertersvc "github.com/amirasaad/fxconverter/pkg/service/converter"
	"github.com/prometheus/client_golang/prometheus"
)

// Deps contains everything the services are built from.
type Deps struct {
	RateSource   exchange.RateSource
	EventBus     eventbus.Bus
	Currencies   *currency.Set
	Recorder     converter.Recorder
	MountedViews convertersvc.Gauge
	Gatherer     prometheus.Gatherer
	Logger       *slog.Logger
}

type App struct {
	Deps             *Deps
	Config           *config.App
	ConverterService *convertersvc.Service
}

func New(deps *Deps, cfg *config.App) (*App, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	opts, err := ViewOptions(cfg.Converter, deps.Currencies)
	if err != nil {
		return nil, err
	}
	opts.Bus = deps.EventBus
	opts.Recorder = deps.Recorder

	app := &App{
		Deps:   deps,
		Config: cfg,
	}
	maxViews := 0
	if cfg.Views != nil {
		maxViews = cfg.Views.MaxMounted
	}
	app.ConverterService = convertersvc.New(
		deps.RateSource,
		opts,
		maxViews,
		deps.MountedViews,
		deps.Logger,
	)
	app.setupEventBus()
	return app, nil
}

// ViewOptions turns the converter config section into view defaults.
func ViewOptions(cfg *config.Converter, set *currency.Set) (converter.Options, error) {
	opts := converter.DefaultOptions()
	if cfg == nil {
		return opts, nil
	}
	if set == nil {
		var err error
		if set, err = cfg.CurrencySet(); err != nil {
			return opts, fmt.Errorf("failed to build currency set: %w", err)
		}
	}
	amount, err := cfg.Amount()
	if err != nil {
		return opts, err
	}
	opts.Currencies = set
	opts.Amount = amount
	opts.EmptyAmount = amount == nil
	opts.Source = cfg.DefaultSource
	opts.Target = cfg.DefaultTarget
	opts.ReferenceBase = cfg.ReferenceBase
	opts.ReferenceQuote = cfg.ReferenceQuote
	return opts, nil
}
