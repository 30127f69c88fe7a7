// Package vatcomply implements exchange.RateSource against the vatcomply.com
// rates endpoint (or any service speaking the same `?base=` dialect).
package vatcomply

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amirasaad/fxconverter/pkg/config"
	"github.com/amirasaad/fxconverter/pkg/provider/exchange"
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

const providerName = "vatcomply"

// maxBodySize caps how much of an error body ends up in an error message.
const maxBodySize = 512

// Provider implements exchange.RateSource for GET <url>?base=<CODE>.
type Provider struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// ratesResponse is the body returned by the rates endpoint.
// Example: {"date":"2024-05-10","base":"EUR","rates":{"USD":1.0772,"EUR":1.0}}
type ratesResponse struct {
	Date  string                     `json:"date"`
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// New creates a provider from config
func New(cfg *config.ExchangeRate, logger *slog.Logger) *Provider {
	return NewWithClient(cfg.ApiUrl, &http.Client{Timeout: cfg.HTTPTimeout}, cfg.UserAgent, logger)
}

// NewWithClient creates a provider with a caller-supplied HTTP client.
func NewWithClient(baseURL string, client *http.Client, userAgent string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Provider{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: client,
		logger:     logger.With("provider", providerName),
	}
}

// Name returns the provider's name
func (p *Provider) Name() string {
	return providerName
}

// FetchRates fetches the full rate table for base.
func (p *Provider) FetchRates(ctx context.Context, base string) (*exchange.RateTable, error) {
	base = strings.ToUpper(base)
	endpoint, err := p.endpoint(base)
	if err != nil {
		return nil, p.fail(exchange.ErrNetwork, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, p.fail(exchange.ErrNetwork, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	p.logger.Debug("Fetching exchange rates", "url", endpoint)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, p.fail(exchange.ErrNetwork, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		return nil, p.fail(exchange.ErrNetwork,
			fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var apiResp ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		if ctx.Err() != nil {
			return nil, p.fail(exchange.ErrNetwork, ctx.Err())
		}
		return nil, p.fail(exchange.ErrParse, fmt.Errorf("failed to decode response: %w", err))
	}
	if apiResp.Rates == nil {
		return nil, p.fail(exchange.ErrParse, fmt.Errorf("response has no rates object"))
	}

	tableBase := strings.ToUpper(apiResp.Base)
	if tableBase == "" {
		tableBase = base
	}
	rates := make(map[string]decimal.Decimal, len(apiResp.Rates))
	for code, rate := range apiResp.Rates {
		rates[strings.ToUpper(code)] = rate
	}

	p.logger.Debug("Exchange rates fetched", "base", tableBase, "count", len(rates), "date", apiResp.Date)
	return &exchange.RateTable{
		Base:      tableBase,
		Date:      apiResp.Date,
		Rates:     rates,
		Provider:  providerName,
		FetchedAt: time.Now(),
	}, nil
}

func (p *Provider) endpoint(base string) (string, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid rates url %q: %w", p.baseURL, err)
	}
	q := u.Query()
	q.Set("base", base)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (p *Provider) fail(kind, err error) error {
	return &exchange.ProviderError{Provider: providerName, Err: fmt.Errorf("%w: %w", kind, err)}
}

// Ensure Provider implements exchange.RateSource
var _ exchange.RateSource = (*Provider)(nil)
