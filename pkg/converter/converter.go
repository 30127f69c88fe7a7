// Package converter implements the converter view: a reactive state
// container holding an amount, a source and a target currency, the converted
// result and an informational reference rate.
//
// Every accepted input change issues a fresh rate-table fetch for the current
// source currency. Requests are numbered; a completion is applied only when it
// answers the latest request, so a slow response can never overwrite the
// result of a newer one.
package converter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/fxconverter/pkg/currency"
	"github.com/amirasaad/fxconverter/pkg/eventbus"
	"github.com/amirasaad/fxconverter/pkg/provider/exchange"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fetch kinds reported to a Recorder.
const (
	KindConversion = "conversion"
	KindReference  = "reference"
)

// Recorder observes fetch outcomes. Implementations must be safe for
// concurrent use.
type Recorder interface {
	FetchSucceeded(kind string)
	FetchFailed(kind string)
	StaleDiscarded()
}

type nopRecorder struct{}

func (nopRecorder) FetchSucceeded(string) {}
func (nopRecorder) FetchFailed(string)    {}
func (nopRecorder) StaleDiscarded()       {}

// Options configures a view. Zero fields fall back to DefaultOptions.
type Options struct {
	ID             string
	Currencies     *currency.Set
	Amount         *decimal.Decimal
	EmptyAmount    bool
	Source         string
	Target         string
	ReferenceBase  string
	ReferenceQuote string

	Logger   *slog.Logger
	Bus      eventbus.Bus
	Recorder Recorder
}

// DefaultOptions returns the widget defaults: 1 EUR to USD, reference rate
// USD to EUR, currencies {USD, EUR}.
func DefaultOptions() Options {
	one := decimal.NewFromInt(1)
	return Options{
		Currencies:     currency.DefaultSet(),
		Amount:         &one,
		Source:         "EUR",
		Target:         "USD",
		ReferenceBase:  "USD",
		ReferenceQuote: "EUR",
	}
}

// Converter is one mounted converter view. All methods are safe for
// concurrent use.
type Converter struct {
	id       string
	source   exchange.RateSource
	set      *currency.Set
	logger   *slog.Logger
	bus      eventbus.Bus
	recorder Recorder

	ctx    context.Context
	cancel context.CancelFunc

	mu             sync.Mutex
	settled        *sync.Cond // signalled on mu when inflight drops to zero
	inflight       int
	state          State
	cancelInflight context.CancelFunc
	unmounted      bool
}

// New creates a view in its initial state. No request is issued until Mount.
func New(source exchange.RateSource, opts Options) (*Converter, error) {
	if source == nil {
		return nil, fmt.Errorf("converter: nil rate source")
	}
	def := DefaultOptions()
	if opts.Currencies == nil {
		opts.Currencies = def.Currencies
	}
	if opts.Amount == nil && !opts.EmptyAmount {
		opts.Amount = def.Amount
	}
	if opts.Source == "" {
		opts.Source = def.Source
	}
	if opts.Target == "" {
		opts.Target = def.Target
	}
	if opts.ReferenceBase == "" {
		opts.ReferenceBase = def.ReferenceBase
	}
	if opts.ReferenceQuote == "" {
		opts.ReferenceQuote = def.ReferenceQuote
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}

	src, err := opts.Currencies.Normalize(opts.Source)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	dst, err := opts.Currencies.Normalize(opts.Target)
	if err != nil {
		return nil, fmt.Errorf("target: %w", err)
	}

	amount := EmptyAmount()
	if opts.Amount != nil && !opts.EmptyAmount {
		amount = AmountOf(*opts.Amount)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Converter{
		id:       opts.ID,
		source:   source,
		set:      opts.Currencies,
		logger:   opts.Logger.With("view", opts.ID),
		bus:      opts.Bus,
		recorder: opts.Recorder,
		ctx:      ctx,
		cancel:   cancel,
		state: State{
			ViewID:        opts.ID,
			Amount:        amount,
			Source:        src,
			Target:        dst,
			Result:        Value{Status: StatusUnset},
			ReferenceBase: opts.ReferenceBase,
			ReferenceTo:   opts.ReferenceQuote,
			ReferenceRate: Value{Status: StatusUnset},
		},
	}
	c.settled = sync.NewCond(&c.mu)
	return c, nil
}

// ID returns the view identifier.
func (c *Converter) ID() string {
	return c.id
}

// Currencies returns the closed set the view selects from.
func (c *Converter) Currencies() *currency.Set {
	return c.set
}

// Mount fetches the reference rate and computes the initial result.
// Calling Mount again has no effect.
func (c *Converter) Mount() error {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return ErrUnmounted
	}
	if c.state.Mounted {
		c.mu.Unlock()
		return nil
	}
	c.state.Mounted = true
	c.startReferenceLocked()
	c.recomputeLocked()
	snap := c.bumpLocked()
	c.mu.Unlock()

	c.logger.Debug("Converter view mounted", "source", snap.Source, "target", snap.Target)
	c.emit(snap, "mount")
	return nil
}

// Unmount cancels every in-flight fetch and rejects further changes.
func (c *Converter) Unmount() {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return
	}
	c.unmounted = true
	c.state.Mounted = false
	c.cancelInflight = nil
	c.mu.Unlock()

	c.cancel()
	c.logger.Debug("Converter view unmounted")
}

// Wait blocks until no fetch is in flight. Fetches issued by concurrent
// mutations while Wait blocks extend the wait.
func (c *Converter) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.inflight > 0 {
		c.settled.Wait()
	}
}

// startLocked accounts for a fetch goroutine about to start.
func (c *Converter) startLocked() {
	c.inflight++
}

// finish is deferred by every fetch goroutine. The caller must not hold mu.
func (c *Converter) finish() {
	c.mu.Lock()
	c.inflight--
	if c.inflight == 0 {
		c.settled.Broadcast()
	}
	c.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (c *Converter) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetAmount applies raw amount text. Blank text empties the amount and
// suppresses conversion; negative numbers are stored as zero.
func (c *Converter) SetAmount(text string) error {
	amount, err := ParseAmount(text)
	if err != nil {
		return err
	}
	return c.update("amount", func(s *State) bool {
		if s.Amount.Equal(amount) {
			return false
		}
		s.Amount = amount
		return true
	})
}

// SetSource selects the currency converted from.
func (c *Converter) SetSource(code string) error {
	code, err := c.set.Normalize(code)
	if err != nil {
		return err
	}
	return c.update("source", func(s *State) bool {
		if s.Source == code {
			return false
		}
		s.Source = code
		return true
	})
}

// SetTarget selects the currency converted to.
func (c *Converter) SetTarget(code string) error {
	code, err := c.set.Normalize(code)
	if err != nil {
		return err
	}
	return c.update("target", func(s *State) bool {
		if s.Target == code {
			return false
		}
		s.Target = code
		return true
	})
}

// Swap exchanges source and target in a single update.
func (c *Converter) Swap() error {
	return c.update("swap", func(s *State) bool {
		if s.Source == s.Target {
			return false
		}
		s.Source, s.Target = s.Target, s.Source
		return true
	})
}

// Recompute issues a conversion request for the current inputs even when
// nothing changed.
func (c *Converter) Recompute() error {
	return c.update("recompute", func(*State) bool { return true })
}

func (c *Converter) update(reason string, mutate func(*State) bool) error {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return ErrUnmounted
	}
	if !mutate(&c.state) {
		c.mu.Unlock()
		return nil
	}
	c.recomputeLocked()
	snap := c.bumpLocked()
	c.mu.Unlock()

	c.emit(snap, reason)
	return nil
}

type conversionRequest struct {
	seq    uint64
	amount decimal.Decimal
	source string
	target string
}

// recomputeLocked supersedes the in-flight request and issues a new one.
// An empty amount issues nothing and clears the result.
func (c *Converter) recomputeLocked() {
	c.state.Seq++
	if c.cancelInflight != nil {
		c.cancelInflight()
		c.cancelInflight = nil
	}

	amount, ok := c.state.Amount.Decimal()
	if !ok {
		c.state.Result = Value{Status: StatusUnset}
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelInflight = cancel
	c.state.Result.Status = StatusPending
	c.state.Result.Error = ""

	req := conversionRequest{
		seq:    c.state.Seq,
		amount: amount,
		source: c.state.Source,
		target: c.state.Target,
	}
	c.startLocked()
	go c.convert(ctx, cancel, req)
}

func (c *Converter) convert(ctx context.Context, cancel context.CancelFunc, req conversionRequest) {
	defer c.finish()
	defer cancel()

	product, rate, err := c.lookup(ctx, req)

	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return
	}
	if latest := c.state.Seq; req.seq != latest {
		c.mu.Unlock()
		c.recorder.StaleDiscarded()
		c.logger.Debug("Discarding stale conversion response", "seq", req.seq, "latest", latest)
		return
	}
	c.cancelInflight = nil
	now := time.Now()
	if err != nil {
		c.state.Result.Status = StatusFailed
		c.state.Result.Error = err.Error()
		c.state.Result.UpdatedAt = &now
	} else {
		c.state.Result = Value{
			Status:    StatusAvailable,
			Value:     decimal.NewNullDecimal(product),
			Rate:      decimal.NewNullDecimal(rate),
			UpdatedAt: &now,
		}
	}
	snap := c.bumpLocked()
	c.mu.Unlock()

	if err != nil {
		c.recorder.FetchFailed(KindConversion)
		c.logger.Error("Error fetching conversion rate",
			"seq", req.seq, "base", req.source, "target", req.target, "error", err)
		c.emit(snap, "result_failed")
		return
	}
	c.recorder.FetchSucceeded(KindConversion)
	c.logger.Debug("Conversion result updated",
		"seq", req.seq, "amount", req.amount, "base", req.source, "target", req.target, "rate", rate, "result", product)
	c.emit(snap, "result")
}

func (c *Converter) lookup(ctx context.Context, req conversionRequest) (product, rate decimal.Decimal, err error) {
	table, err := c.source.FetchRates(ctx, req.source)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	rate, err = table.Rate(req.target)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return req.amount.Mul(rate), rate, nil
}

// startReferenceLocked fetches the informational reference rate once.
func (c *Converter) startReferenceLocked() {
	base, quote := c.state.ReferenceBase, c.state.ReferenceTo
	c.state.ReferenceRate = Value{Status: StatusPending}
	c.startLocked()
	go c.fetchReference(base, quote)
}

func (c *Converter) fetchReference(base, quote string) {
	defer c.finish()

	var rate decimal.Decimal
	table, err := c.source.FetchRates(c.ctx, base)
	if err == nil {
		rate, err = table.Rate(quote)
	}

	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return
	}
	now := time.Now()
	if err != nil {
		c.state.ReferenceRate = Value{Status: StatusFailed, Error: err.Error(), UpdatedAt: &now}
	} else {
		c.state.ReferenceRate = Value{
			Status:    StatusAvailable,
			Value:     decimal.NewNullDecimal(rate),
			UpdatedAt: &now,
		}
	}
	snap := c.bumpLocked()
	c.mu.Unlock()

	if err != nil {
		c.recorder.FetchFailed(KindReference)
		c.logger.Error("Error fetching exchange rate", "base", base, "quote", quote, "error", err)
		c.emit(snap, "reference_failed")
		return
	}
	c.recorder.FetchSucceeded(KindReference)
	c.emit(snap, "reference")
}

func (c *Converter) bumpLocked() State {
	c.state.Version++
	return c.state
}

func (c *Converter) emit(snap State, reason string) {
	if c.bus == nil {
		return
	}
	if err := c.bus.Emit(c.ctx, StateChanged{ViewID: c.id, State: snap, Reason: reason}); err != nil {
		c.logger.Warn("Failed to emit state change", "reason", reason, "error", err)
	}
}
