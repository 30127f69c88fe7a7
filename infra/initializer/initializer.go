package initializer

import (
	"fmt"
	"log/slog"

	infra_eventbus "github.com/amirasaad/fxconverter/infra/eventbus"
	"github.com/amirasaad/fxconverter/infra/metrics"
	"github.com/amirasaad/fxconverter/infra/provider/mockexchangerate"
	"github.com/amirasaad/fxconverter/infra/provider/vatcomply"
	"github.com/amirasaad/fxconverter/pkg/app"
	"github.com/amirasaad/fxconverter/pkg/config"
	"github.com/amirasaad/fxconverter/pkg/currency"
	"github.com/amirasaad/fxconverter/pkg/provider/exchange"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// InitializeDependencies builds every dependency from cfg, logging to stdout.
func InitializeDependencies(cfg *config.App) (*app.Deps, error) {
	return InitializeDependenciesWithLogger(cfg, SetupLogger(cfg.Log))
}

// InitializeDependenciesWithLogger builds every dependency around an
// existing logger.
func InitializeDependenciesWithLogger(cfg *config.App, logger *slog.Logger) (*app.Deps, error) {
	deps := &app.Deps{Logger: logger, Currencies: currency.DefaultSet()}

	if cfg.Converter != nil {
		set, err := cfg.Converter.CurrencySet()
		if err != nil {
			return nil, fmt.Errorf("failed to build currency set: %w", err)
		}
		deps.Currencies = set
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewConverterMetrics(registry)
	deps.Gatherer = registry
	deps.Recorder = m
	deps.MountedViews = m.MountedViews

	source, err := initRateSource(cfg.ExchangeRate, logger)
	if err != nil {
		return nil, err
	}
	deps.RateSource = m.Instrument(source)
	deps.EventBus = infra_eventbus.NewWithMemory(logger)

	logger.Info("Dependencies initialized",
		"rate_source", source.Name(),
		"currencies", deps.Currencies.Codes(),
	)
	return deps, nil
}

func initRateSource(cfg *config.ExchangeRate, logger *slog.Logger) (exchange.RateSource, error) {
	if cfg == nil {
		cfg = &config.ExchangeRate{Source: "vatcomply", ApiUrl: "https://api.vatcomply.com/rates"}
	}
	factories := map[string]func() exchange.RateSource{
		"vatcomply": func() exchange.RateSource {
			return vatcomply.New(cfg, logger)
		},
		"static": func() exchange.RateSource {
			return mockexchangerate.NewMockExchangeRate(nil)
		},
	}
	factory, ok := factories[cfg.Source]
	if !ok {
		return nil, fmt.Errorf("unknown rate source %q", cfg.Source)
	}
	logger.Debug("Rate source selected", "source", cfg.Source, "url", cfg.ApiUrl, "timeout", cfg.HTTPTimeout)
	return factory(), nil
}
