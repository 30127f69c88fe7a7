package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/amirasaad/fxconverter/pkg/provider/exchange"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConverterMetrics holds every collector the converter exports.
type ConverterMetrics struct {
	// Outbound requests to the Rate Source
	RateRequestsTotal   *prometheus.CounterVec
	RateRequestDuration *prometheus.HistogramVec

	// Fetch outcomes as seen by converter views
	FetchesTotal        *prometheus.CounterVec
	StaleResponsesTotal prometheus.Counter

	// Mounted views
	MountedViews prometheus.Gauge
}

// NewConverterMetrics registers the collectors with reg.
func NewConverterMetrics(reg prometheus.Registerer) *ConverterMetrics {
	factory := promauto.With(reg)
	return &ConverterMetrics{
		RateRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxconverter_rate_requests_total",
				Help: "Requests sent to the rate source, by outcome",
			},
			[]string{"provider", "base", "outcome"},
		),
		RateRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fxconverter_rate_request_duration_seconds",
				Help:    "Latency of rate source requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxconverter_fetches_total",
				Help: "Completed view fetches applied to state, by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		StaleResponsesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "fxconverter_stale_responses_total",
				Help: "Conversion responses discarded because a newer request was issued",
			},
		),
		MountedViews: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "fxconverter_mounted_views",
				Help: "Converter views currently mounted",
			},
		),
	}
}

// FetchSucceeded implements converter.Recorder.
func (m *ConverterMetrics) FetchSucceeded(kind string) {
	m.FetchesTotal.WithLabelValues(kind, "success").Inc()
}

// FetchFailed implements converter.Recorder.
func (m *ConverterMetrics) FetchFailed(kind string) {
	m.FetchesTotal.WithLabelValues(kind, "failure").Inc()
}

// StaleDiscarded implements converter.Recorder.
func (m *ConverterMetrics) StaleDiscarded() {
	m.StaleResponsesTotal.Inc()
}

// Instrument wraps src so every request is counted and timed.
func (m *ConverterMetrics) Instrument(src exchange.RateSource) exchange.RateSource {
	return &instrumentedSource{next: src, metrics: m}
}

type instrumentedSource struct {
	next    exchange.RateSource
	metrics *ConverterMetrics
}

func (s *instrumentedSource) Name() string {
	return s.next.Name()
}

func (s *instrumentedSource) FetchRates(ctx context.Context, base string) (*exchange.RateTable, error) {
	start := time.Now()
	table, err := s.next.FetchRates(ctx, base)
	s.metrics.RateRequestDuration.WithLabelValues(s.next.Name()).Observe(time.Since(start).Seconds())
	s.metrics.RateRequestsTotal.WithLabelValues(s.next.Name(), base, outcome(err)).Inc()
	return table, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, exchange.ErrParse):
		return "parse_error"
	default:
		return "network_error"
	}
}
