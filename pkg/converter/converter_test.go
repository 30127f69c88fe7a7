package converter

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	infra_eventbus "github.com/amirasaad/fxconverter/infra/eventbus"
	"github.com/amirasaad/fxconverter/pkg/currency"
	"github.com/amirasaad/fxconverter/pkg/eventbus"
	"github.com/amirasaad/fxconverter/pkg/provider/exchange"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRateSource is a mock implementation for testing
type MockRateSource struct {
	mock.Mock
}

func (m *MockRateSource) FetchRates(ctx context.Context, base string) (*exchange.RateTable, error) {
	args := m.Called(base)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*exchange.RateTable), args.Error(1)
}

func (m *MockRateSource) Name() string {
	return "mock"
}

// gatedSource holds every request for one base until the test releases it.
type gatedSource struct {
	gated  string
	tables map[string]*exchange.RateTable

	mu       sync.Mutex
	gates    []chan struct{}
	canceled atomic.Int32
}

func newGatedSource(gated string, tables map[string]*exchange.RateTable) *gatedSource {
	return &gatedSource{gated: gated, tables: tables}
}

func (g *gatedSource) FetchRates(ctx context.Context, base string) (*exchange.RateTable, error) {
	if base != g.gated {
		return g.tables[base], nil
	}
	gate := make(chan struct{})
	g.mu.Lock()
	g.gates = append(g.gates, gate)
	g.mu.Unlock()

	<-gate
	if ctx.Err() != nil {
		g.canceled.Add(1)
	}
	return g.tables[base], nil
}

func (g *gatedSource) Name() string { return "gated" }

func (g *gatedSource) arrived() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.gates)
}

func (g *gatedSource) release(i int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	close(g.gates[i])
}

type countingRecorder struct {
	succeeded atomic.Int32
	failed    atomic.Int32
	stale     atomic.Int32
}

func (r *countingRecorder) FetchSucceeded(string) { r.succeeded.Add(1) }
func (r *countingRecorder) FetchFailed(string)    { r.failed.Add(1) }
func (r *countingRecorder) StaleDiscarded()       { r.stale.Add(1) }

func table(base string, rates map[string]string) *exchange.RateTable {
	t := &exchange.RateTable{Base: base, Rates: make(map[string]decimal.Decimal, len(rates)), Provider: "test"}
	for code, r := range rates {
		t.Rates[code] = decimal.RequireFromString(r)
	}
	return t
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConverter(t *testing.T, src exchange.RateSource, opts Options) *Converter {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	c, err := New(src, opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		c.Unmount()
		c.Wait()
	})
	return c
}

func newMockSource() *MockRateSource {
	src := new(MockRateSource)
	src.On("FetchRates", "EUR").Return(table("EUR", map[string]string{"USD": "1.05"}), nil)
	src.On("FetchRates", "USD").Return(table("USD", map[string]string{"EUR": "0.95"}), nil)
	return src
}

func assertDecimal(t *testing.T, want string, got decimal.NullDecimal) {
	t.Helper()
	require.True(t, got.Valid, "expected a value, got none")
	assert.True(t, decimal.RequireFromString(want).Equal(got.Decimal), "want %s, got %s", want, got.Decimal)
}

func TestConverter_Defaults(t *testing.T) {
	c := newTestConverter(t, newMockSource(), Options{ID: "view-1"})

	s := c.Snapshot()
	assert.Equal(t, "view-1", s.ViewID)
	assert.Equal(t, "1", s.Amount.String())
	assert.Equal(t, "EUR", s.Source)
	assert.Equal(t, "USD", s.Target)
	assert.Equal(t, StatusUnset, s.Result.Status)
	assert.False(t, s.Result.Value.Valid)
	assert.Equal(t, StatusUnset, s.ReferenceRate.Status)
	assert.False(t, s.Mounted)
}

func TestConverter_New_Validation(t *testing.T) {
	_, err := New(nil, Options{})
	assert.Error(t, err)

	_, err = New(newMockSource(), Options{Source: "JPY"})
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)

	_, err = New(newMockSource(), Options{Target: "JPY"})
	assert.ErrorIs(t, err, ErrUnsupportedCurrency)

	c, err := New(newMockSource(), Options{EmptyAmount: true, Logger: discardLogger()})
	require.NoError(t, err)
	assert.True(t, c.Snapshot().Amount.IsEmpty())
	assert.NotEmpty(t, c.ID())
}

func TestConverter_MountComputesResultAndReferenceRate(t *testing.T) {
	src := newMockSource()
	c := newTestConverter(t, src, Options{})

	require.NoError(t, c.Mount())
	c.Wait()

	s := c.Snapshot()
	assert.True(t, s.Mounted)
	assert.Equal(t, StatusAvailable, s.Result.Status)
	assertDecimal(t, "1.05", s.Result.Value)
	assertDecimal(t, "1.05", s.Result.Rate)
	assert.Equal(t, StatusAvailable, s.ReferenceRate.Status)
	assertDecimal(t, "0.95", s.ReferenceRate.Value)
	assert.Equal(t, "1 EUR = 1.0500 USD", ResultLine(s))
	assert.Equal(t, "1 USD = 0.9500 EUR", ReferenceLine(s))

	require.NoError(t, c.Mount())
	c.Wait()
	src.AssertNumberOfCalls(t, "FetchRates", 2)
}

func TestConverter_ResultIsAmountTimesRate(t *testing.T) {
	c := newTestConverter(t, newMockSource(), Options{})
	require.NoError(t, c.Mount())

	for _, tt := range []struct{ amount, want string }{
		{"10", "10.5"},
		{"0", "0"},
		{"2.5", "2.625"},
		{"1000000", "1050000"},
	} {
		require.NoError(t, c.SetAmount(tt.amount))
		c.Wait()
		assertDecimal(t, tt.want, c.Snapshot().Result.Value)
	}
}

func TestConverter_EmptyAmountSuppressesConversion(t *testing.T) {
	src := newMockSource()
	c := newTestConverter(t, src, Options{})
	require.NoError(t, c.Mount())
	c.Wait()

	require.NoError(t, c.SetAmount(""))
	c.Wait()

	s := c.Snapshot()
	assert.True(t, s.Amount.IsEmpty())
	assert.Equal(t, "", s.Amount.String())
	assert.Equal(t, StatusUnset, s.Result.Status)
	assert.False(t, s.Result.Value.Valid)
	src.AssertNumberOfCalls(t, "FetchRates", 2)

	// Currency changes while empty still issue nothing.
	require.NoError(t, c.Swap())
	c.Wait()
	src.AssertNumberOfCalls(t, "FetchRates", 2)
}

func TestConverter_NegativeAmountClampsToZero(t *testing.T) {
	c := newTestConverter(t, newMockSource(), Options{})
	require.NoError(t, c.Mount())

	require.NoError(t, c.SetAmount("-5"))
	c.Wait()

	s := c.Snapshot()
	d, ok := s.Amount.Decimal()
	require.True(t, ok)
	assert.True(t, d.IsZero())
	assertDecimal(t, "0", s.Result.Value)
}

func TestConverter_InvalidAmountLeavesStateUnchanged(t *testing.T) {
	src := newMockSource()
	c := newTestConverter(t, src, Options{})
	require.NoError(t, c.Mount())
	c.Wait()
	before := c.Snapshot()

	err := c.SetAmount("ten")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	c.Wait()

	assert.Equal(t, before.Version, c.Snapshot().Version)
	src.AssertNumberOfCalls(t, "FetchRates", 2)
}

func TestConverter_SwapIsAtomic(t *testing.T) {
	ten := decimal.NewFromInt(10)
	bus := infra_eventbus.NewWithMemory(discardLogger())
	var mu sync.Mutex
	var seen []StateChanged
	bus.Register(EventStateChanged, func(ctx context.Context, e eventbus.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e.(StateChanged))
		return nil
	})

	src := newMockSource()
	c := newTestConverter(t, src, Options{Amount: &ten, Bus: bus})
	require.NoError(t, c.Mount())
	c.Wait()

	require.NoError(t, c.Swap())
	s := c.Snapshot()
	assert.Equal(t, "USD", s.Source)
	assert.Equal(t, "EUR", s.Target)
	assert.Equal(t, "10", s.Amount.String())

	c.Wait()
	assertDecimal(t, "9.5", c.Snapshot().Result.Value)
	src.AssertNumberOfCalls(t, "FetchRates", 3)

	mu.Lock()
	defer mu.Unlock()
	swaps := 0
	for _, e := range seen {
		assert.NotEqual(t, e.State.Source, e.State.Target, "observed intermediate state %s/%s", e.State.Source, e.State.Target)
		if e.Reason == "swap" {
			swaps++
			assert.Equal(t, "USD", e.State.Source)
			assert.Equal(t, "EUR", e.State.Target)
		}
	}
	assert.Equal(t, 1, swaps)
}

func TestConverter_SameCurrencyConvertsAtParity(t *testing.T) {
	c := newTestConverter(t, newMockSource(), Options{})
	require.NoError(t, c.Mount())
	require.NoError(t, c.SetTarget("eur"))
	c.Wait()

	s := c.Snapshot()
	assert.Equal(t, "EUR", s.Target)
	assertDecimal(t, "1", s.Result.Value)

	// Swapping identical currencies changes nothing.
	v := s.Version
	require.NoError(t, c.Swap())
	assert.Equal(t, v, c.Snapshot().Version)
}

func TestConverter_UnsupportedCurrency(t *testing.T) {
	c := newTestConverter(t, newMockSource(), Options{})

	assert.ErrorIs(t, c.SetSource("JPY"), ErrUnsupportedCurrency)
	assert.ErrorIs(t, c.SetTarget("XXX"), currency.ErrUnsupportedCurrency)
	assert.Equal(t, "EUR", c.Snapshot().Source)
}

func TestConverter_FetchFailureOnFirstRequest(t *testing.T) {
	src := new(MockRateSource)
	src.On("FetchRates", "EUR").Return(nil, &exchange.ProviderError{Provider: "mock", Err: exchange.ErrNetwork})
	src.On("FetchRates", "USD").Return(nil, &exchange.ProviderError{Provider: "mock", Err: exchange.ErrParse})
	rec := &countingRecorder{}

	c := newTestConverter(t, src, Options{Recorder: rec})
	require.NotPanics(t, func() {
		require.NoError(t, c.Mount())
		c.Wait()
	})

	s := c.Snapshot()
	assert.Equal(t, StatusFailed, s.Result.Status)
	assert.False(t, s.Result.Value.Valid)
	assert.Contains(t, s.Result.Error, "rate source request failed")
	assert.Equal(t, StatusFailed, s.ReferenceRate.Status)
	assert.False(t, s.ReferenceRate.Value.Valid)
	assert.Equal(t, "0.00", FormatResult(s.Result))
	assert.Equal(t, "", FormatReferenceRate(s.ReferenceRate))
	assert.Equal(t, int32(2), rec.failed.Load())
}

func TestConverter_FetchFailureKeepsStaleResult(t *testing.T) {
	src := new(MockRateSource)
	src.On("FetchRates", "EUR").Return(table("EUR", map[string]string{"USD": "1.05"}), nil).Once()
	src.On("FetchRates", "EUR").Return(nil, errors.New("connection reset"))
	src.On("FetchRates", "USD").Return(table("USD", map[string]string{"EUR": "0.95"}), nil)

	c := newTestConverter(t, src, Options{})
	require.NoError(t, c.Mount())
	c.Wait()
	assertDecimal(t, "1.05", c.Snapshot().Result.Value)

	require.NoError(t, c.SetAmount("3"))
	c.Wait()

	s := c.Snapshot()
	assert.Equal(t, StatusFailed, s.Result.Status)
	assert.Equal(t, "connection reset", s.Result.Error)
	assertDecimal(t, "1.05", s.Result.Value)
}

func TestConverter_MissingRateKeyFails(t *testing.T) {
	src := new(MockRateSource)
	src.On("FetchRates", "EUR").Return(table("EUR", map[string]string{"GBP": "0.8"}), nil)
	src.On("FetchRates", "USD").Return(table("USD", map[string]string{"GBP": "0.8"}), nil)

	c := newTestConverter(t, src, Options{})
	require.NoError(t, c.Mount())
	c.Wait()

	s := c.Snapshot()
	assert.Equal(t, StatusFailed, s.Result.Status)
	assert.Contains(t, s.Result.Error, "exchange rate not found")
	assert.Equal(t, StatusFailed, s.ReferenceRate.Status)
}

func TestConverter_StaleResponseIsDiscarded(t *testing.T) {
	src := newGatedSource("EUR", map[string]*exchange.RateTable{
		"EUR": table("EUR", map[string]string{"USD": "1.05"}),
		"USD": table("USD", map[string]string{"EUR": "0.95"}),
	})
	rec := &countingRecorder{}
	c := newTestConverter(t, src, Options{Recorder: rec})

	require.NoError(t, c.Mount())
	require.Eventually(t, func() bool { return src.arrived() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.SetAmount("2"))
	require.Eventually(t, func() bool { return src.arrived() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, StatusPending, c.Snapshot().Result.Status)
	assert.Equal(t, uint64(2), c.Snapshot().Seq)

	// The newer request completes first.
	src.release(1)
	require.Eventually(t, func() bool {
		return c.Snapshot().Result.Status == StatusAvailable
	}, time.Second, 5*time.Millisecond)
	assertDecimal(t, "2.1", c.Snapshot().Result.Value)

	// The older one resolves late and must not overwrite the result.
	src.release(0)
	c.Wait()

	assertDecimal(t, "2.1", c.Snapshot().Result.Value)
	assert.Equal(t, int32(1), rec.stale.Load())
	assert.Equal(t, int32(1), src.canceled.Load(), "superseded request should see a canceled context")
}

func TestConverter_Idempotent(t *testing.T) {
	c := newTestConverter(t, newMockSource(), Options{})
	require.NoError(t, c.Mount())
	c.Wait()
	first := c.Snapshot().Result.Value

	for range 3 {
		require.NoError(t, c.Recompute())
		c.Wait()
		got := c.Snapshot().Result.Value
		require.True(t, got.Valid)
		assert.True(t, first.Decimal.Equal(got.Decimal))
	}
}

func TestConverter_UnchangedInputIssuesNoRequest(t *testing.T) {
	src := newMockSource()
	c := newTestConverter(t, src, Options{})
	require.NoError(t, c.Mount())
	c.Wait()

	require.NoError(t, c.SetAmount("1.0"))
	require.NoError(t, c.SetSource("EUR"))
	require.NoError(t, c.SetTarget("USD"))
	c.Wait()
	src.AssertNumberOfCalls(t, "FetchRates", 2)
}

func TestConverter_Unmount(t *testing.T) {
	src := newGatedSource("EUR", map[string]*exchange.RateTable{
		"EUR": table("EUR", map[string]string{"USD": "1.05"}),
		"USD": table("USD", map[string]string{"EUR": "0.95"}),
	})
	c := newTestConverter(t, src, Options{})
	require.NoError(t, c.Mount())
	require.Eventually(t, func() bool { return src.arrived() == 1 }, time.Second, 5*time.Millisecond)

	c.Unmount()
	src.release(0)
	c.Wait()

	s := c.Snapshot()
	assert.False(t, s.Mounted)
	assert.Equal(t, StatusPending, s.Result.Status)
	assert.ErrorIs(t, c.SetAmount("5"), ErrUnmounted)
	assert.ErrorIs(t, c.Swap(), ErrUnmounted)
	assert.ErrorIs(t, c.Recompute(), ErrUnmounted)
	assert.ErrorIs(t, c.Mount(), ErrUnmounted)

	c.Unmount()
}

func TestConverter_EmitsStateChanges(t *testing.T) {
	bus := infra_eventbus.NewRecordingMemory(discardLogger())
	c := newTestConverter(t, newMockSource(), Options{ID: "v", Bus: bus})

	require.NoError(t, c.Mount())
	c.Wait()

	published := bus.Published()
	require.Len(t, published, 3)

	reasons := map[string]bool{}
	var maxVersion uint64
	for _, e := range published {
		sc, ok := e.(StateChanged)
		require.True(t, ok)
		assert.Equal(t, "v", sc.ViewID)
		reasons[sc.Reason] = true
		if sc.State.Version > maxVersion {
			maxVersion = sc.State.Version
		}
	}
	assert.True(t, reasons["mount"])
	assert.True(t, reasons["result"])
	assert.True(t, reasons["reference"])
	assert.Equal(t, c.Snapshot().Version, maxVersion)
}

func TestConverter_WaitWhileMutating(t *testing.T) {
	src := newGatedSource("", map[string]*exchange.RateTable{
		"EUR": table("EUR", map[string]string{"USD": "1.05"}),
		"USD": table("USD", map[string]string{"EUR": "0.95"}),
	})
	c := newTestConverter(t, src, Options{})
	require.NoError(t, c.Mount())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 200 {
			assert.NoError(t, c.SetAmount(strconv.Itoa(i+1)))
		}
	}()
	go func() {
		defer wg.Done()
		for range 200 {
			c.Wait()
		}
	}()
	wg.Wait()
	c.Wait()

	s := c.Snapshot()
	assert.Equal(t, StatusAvailable, s.Result.Status)
	assertDecimal(t, "210", s.Result.Value)
}

func TestConverter_WaitBlocksUntilFetchSettles(t *testing.T) {
	src := newGatedSource("EUR", map[string]*exchange.RateTable{
		"EUR": table("EUR", map[string]string{"USD": "1.05"}),
		"USD": table("USD", map[string]string{"EUR": "0.95"}),
	})
	c := newTestConverter(t, src, Options{})
	require.NoError(t, c.Mount())
	require.Eventually(t, func() bool { return src.arrived() == 1 }, time.Second, 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		c.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned while a fetch was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	src.release(0)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after the fetch settled")
	}
	assert.Equal(t, StatusAvailable, c.Snapshot().Result.Status)
}
