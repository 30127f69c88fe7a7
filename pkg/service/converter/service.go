// Package converter manages the set of mounted converter views. Each view is
// addressed by a UUID; mounting registers it, unmounting removes it.
package converter

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/amirasaad/fxconverter/pkg/converter"
	"github.com/amirasaad/fxconverter/pkg/currency"
	"github.com/amirasaad/fxconverter/pkg/provider/exchange"
)

var (
	ErrViewNotFound = errors.New("converter view not found")
	ErrTooManyViews = errors.New("too many mounted converter views")
)

// Gauge receives the number of mounted views. prometheus.Gauge satisfies it.
type Gauge interface {
	Set(float64)
}

// MountRequest carries optional initial values for a new view. Nil or empty
// fields take the configured defaults; an empty Amount string mounts a blank
// view.
type MountRequest struct {
	Amount *string
	Source string
	Target string
}

// Service is the view registry.
type Service struct {
	source   exchange.RateSource
	defaults converter.Options
	maxViews int
	gauge    Gauge
	logger   *slog.Logger

	mu    sync.RWMutex
	views map[string]*converter.Converter
}

// New creates a registry. defaults seeds every mounted view; its ID is ignored.
// maxViews <= 0 disables the limit.
func New(
	source exchange.RateSource,
	defaults converter.Options,
	maxViews int,
	gauge Gauge,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if defaults.Currencies == nil {
		defaults.Currencies = currency.DefaultSet()
	}
	defaults.ID = ""
	defaults.Logger = logger
	return &Service{
		source:   source,
		defaults: defaults,
		maxViews: maxViews,
		gauge:    gauge,
		logger:   logger.With("service", "converter"),
		views:    make(map[string]*converter.Converter),
	}
}

// Currencies returns the set every view selects from.
func (s *Service) Currencies() *currency.Set {
	return s.defaults.Currencies
}

// Mount creates a view, mounts it and registers it.
func (s *Service) Mount(req MountRequest) (*converter.Converter, error) {
	if s.full() {
		return nil, ErrTooManyViews
	}

	opts := s.defaults
	if req.Amount != nil {
		amount, err := converter.ParseAmount(*req.Amount)
		if err != nil {
			return nil, err
		}
		if d, ok := amount.Decimal(); ok {
			opts.Amount = &d
			opts.EmptyAmount = false
		} else {
			opts.Amount = nil
			opts.EmptyAmount = true
		}
	}
	if req.Source != "" {
		opts.Source = req.Source
	}
	if req.Target != "" {
		opts.Target = req.Target
	}

	view, err := converter.New(s.source, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create converter view: %w", err)
	}

	count, err := s.register(view)
	if err != nil {
		return nil, err
	}

	if err := view.Mount(); err != nil {
		s.remove(view.ID())
		return nil, err
	}
	s.logger.Info("Converter view mounted", "view", view.ID(), "mounted", count)
	return view, nil
}

// Get returns a mounted view.
func (s *Service) Get(id string) (*converter.Converter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view, ok := s.views[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrViewNotFound, id)
	}
	return view, nil
}

// Unmount cancels a view's fetches and removes it.
func (s *Service) Unmount(id string) error {
	view := s.remove(id)
	if view == nil {
		return fmt.Errorf("%w: %s", ErrViewNotFound, id)
	}
	view.Unmount()
	s.logger.Info("Converter view unmounted", "view", id)
	return nil
}

// Count returns the number of mounted views.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}

// Shutdown unmounts every view and waits for their fetches to settle.
func (s *Service) Shutdown() {
	s.mu.Lock()
	views := s.views
	s.views = make(map[string]*converter.Converter)
	s.mu.Unlock()
	s.report(0)

	for _, view := range views {
		view.Unmount()
	}
	for _, view := range views {
		view.Wait()
	}
	s.logger.Info("Converter views shut down", "count", len(views))
}

// register adds view unless the limit was reached since the caller's first
// check; a rejected view is unmounted so its context is released.
func (s *Service) register(view *converter.Converter) (int, error) {
	s.mu.Lock()
	if s.maxViews > 0 && len(s.views) >= s.maxViews {
		s.mu.Unlock()
		view.Unmount()
		return 0, ErrTooManyViews
	}
	s.views[view.ID()] = view
	count := len(s.views)
	s.mu.Unlock()
	s.report(count)
	return count, nil
}

func (s *Service) full() bool {
	if s.maxViews <= 0 {
		return false
	}
	return s.Count() >= s.maxViews
}

func (s *Service) remove(id string) *converter.Converter {
	s.mu.Lock()
	view, ok := s.views[id]
	if ok {
		delete(s.views, id)
	}
	count := len(s.views)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	s.report(count)
	return view
}

func (s *Service) report(count int) {
	if s.gauge != nil {
		s.gauge.Set(float64(count))
	}
}
