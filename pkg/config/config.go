package config

import (
	"time"
)

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"text"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[fxconverter]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

// ExchangeRate configures the Rate Source the converter queries.
// Source selects the implementation: "vatcomply" (HTTP) or "static".
//
//revive:disable
type ExchangeRate struct {
	Source      string        `envconfig:"SOURCE" default:"vatcomply"`
	ApiUrl      string        `envconfig:"API_URL" default:"https://api.vatcomply.com/rates"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`
	UserAgent   string        `envconfig:"USER_AGENT" default:"fxconverter/1.0"`
}

//revive:enable

// Converter holds the view defaults and the closed currency set.
type Converter struct {
	Currencies     []string `envconfig:"CURRENCIES" default:"USD,EUR"`
	DefaultAmount  string   `envconfig:"DEFAULT_AMOUNT" default:"1"`
	DefaultSource  string   `envconfig:"DEFAULT_SOURCE" default:"EUR"`
	DefaultTarget  string   `envconfig:"DEFAULT_TARGET" default:"USD"`
	ReferenceBase  string   `envconfig:"REFERENCE_BASE" default:"USD"`
	ReferenceQuote string   `envconfig:"REFERENCE_QUOTE" default:"EUR"`
}

type Views struct {
	MaxMounted int `envconfig:"MAX_MOUNTED" default:"1000"`
}

type App struct {
	Env          string        `envconfig:"APP_ENV" default:"development"`
	Server       *Server       `envconfig:"SERVER"`
	Log          *Log          `envconfig:"LOG"`
	RateLimit    *RateLimit    `envconfig:"RATE_LIMIT"`
	ExchangeRate *ExchangeRate `envconfig:"EXCHANGE_RATE"`
	Converter    *Converter    `envconfig:"CONVERTER"`
	Views        *Views        `envconfig:"VIEWS"`
}
