package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/amirasaad/fxconverter/pkg/currency"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()
	logger.Info("Loading environment variables")

	// If no specific paths provided, try default .env
	if len(envFilePath) == 0 {
		logger.Debug("No environment file specified, trying default .env")
		if err := godotenv.Load(); err != nil {
			logger.Warn("No .env file found in current directory")
		}
		return loadFromEnv()
	}

	// Try each provided path until we find a valid one
	for _, path := range envFilePath {
		logger.Debug("Looking for environment file", "path", path)
		foundPath, err := findEnvFile(path)
		if err != nil {
			logger.Debug("Environment file not found", "path", path, "error", err)
			continue
		}

		logger.Info("Loading environment from file", "path", foundPath)
		if err := godotenv.Load(foundPath); err != nil {
			logger.Error("Failed to load environment file", "path", foundPath, "error", err)
			continue
		}

		return loadFromEnv()
	}

	logger.Info("No valid environment files found, using process environment")
	return loadFromEnv()
}

// findEnvFile looks for filename (default .env) in the working directory and
// its parents. The walk stops at the module root, the first directory that
// holds a go.mod, so a checkout never picks up an env file from above it.
func findEnvFile(filename string) (string, error) {
	if filename == "" {
		filename = ".env"
	}
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err != nil {
			return "", err
		}
		return filename, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func loadFromEnv() (*App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Default().Info("App config loaded",
		"env", cfg.Env,
		"rate_source", cfg.ExchangeRate.Source,
		"rate_source_url", cfg.ExchangeRate.ApiUrl,
		"rate_source_timeout", cfg.ExchangeRate.HTTPTimeout,
		"currencies", cfg.Converter.Currencies,
		"rate_limit_max_requests", cfg.RateLimit.MaxRequests,
		"rate_limit_window", cfg.RateLimit.Window,
	)
	return &cfg, nil
}

// Validate checks the converter section against its own currency set.
func (c *App) Validate() error {
	if c.Converter == nil {
		return fmt.Errorf("converter config missing")
	}
	set, err := c.Converter.CurrencySet()
	if err != nil {
		return fmt.Errorf("CONVERTER_CURRENCIES: %w", err)
	}
	for name, code := range map[string]string{
		"CONVERTER_DEFAULT_SOURCE":  c.Converter.DefaultSource,
		"CONVERTER_DEFAULT_TARGET":  c.Converter.DefaultTarget,
		"CONVERTER_REFERENCE_BASE":  c.Converter.ReferenceBase,
		"CONVERTER_REFERENCE_QUOTE": c.Converter.ReferenceQuote,
	} {
		if _, err := set.Normalize(code); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if _, err := c.Converter.Amount(); err != nil {
		return err
	}
	if c.ExchangeRate != nil {
		switch c.ExchangeRate.Source {
		case "vatcomply", "static":
		default:
			return fmt.Errorf("EXCHANGE_RATE_SOURCE: unknown source %q", c.ExchangeRate.Source)
		}
	}
	return nil
}

// CurrencySet builds the closed set of selectable currencies.
func (c *Converter) CurrencySet() (*currency.Set, error) {
	return currency.NewSet(c.Currencies...)
}

// Amount parses DefaultAmount. An empty value means the view starts blank.
func (c *Converter) Amount() (*decimal.Decimal, error) {
	if c.DefaultAmount == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(c.DefaultAmount)
	if err != nil {
		return nil, fmt.Errorf("CONVERTER_DEFAULT_AMOUNT: %w", err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("CONVERTER_DEFAULT_AMOUNT: must not be negative")
	}
	return &d, nil
}
