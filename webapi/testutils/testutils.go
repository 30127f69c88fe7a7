// Package testutils builds a fully wired Fiber app backed by the static rate
// source for HTTP tests.
package testutils

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/fxconverter/infra/initializer"
	"github.com/amirasaad/fxconverter/pkg/app"
	"github.com/amirasaad/fxconverter/pkg/config"
	"github.com/amirasaad/fxconverter/webapi"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

// TestApp bundles the Fiber app with the application it serves.
type TestApp struct {
	Fiber *fiber.App
	App   *app.App
}

// TestConfig returns a configuration using the static rate source and a
// rate limit high enough to stay out of the way.
func TestConfig() *config.App {
	return &config.App{
		Env:       "test",
		Log:       &config.Log{Format: "text"},
		RateLimit: &config.RateLimit{MaxRequests: 10000, Window: time.Minute},
		ExchangeRate: &config.ExchangeRate{
			Source: "static",
		},
		Converter: &config.Converter{
			Currencies:     []string{"USD", "EUR"},
			DefaultAmount:  "1",
			DefaultSource:  "EUR",
			DefaultTarget:  "USD",
			ReferenceBase:  "USD",
			ReferenceQuote: "EUR",
		},
		Views: &config.Views{MaxMounted: 100},
	}
}

// NewTestApp wires the application. mods adjust the config first.
func NewTestApp(t *testing.T, mods ...func(*config.App)) *TestApp {
	t.Helper()
	cfg := TestConfig()
	for _, mod := range mods {
		mod(cfg)
	}
	require.NoError(t, cfg.Validate())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps, err := initializer.InitializeDependenciesWithLogger(cfg, logger)
	require.NoError(t, err)
	a, err := app.New(deps, cfg)
	require.NoError(t, err)
	t.Cleanup(a.ConverterService.Shutdown)

	return &TestApp{Fiber: webapi.SetupApp(a), App: a}
}

// MakeRequestWithApp is a helper for making HTTP requests with a standalone app (for non-suite tests)
func MakeRequestWithApp(app *fiber.App, method, path, body string) *http.Response {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		panic(err) // For standalone tests, panic on error
	}
	return resp
}

// Envelope mirrors common.Response with a typed payload.
type Envelope[T any] struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// DecodeData reads the envelope from resp and returns its payload.
func DecodeData[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close() //nolint:errcheck
	var env Envelope[T]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env.Data
}
