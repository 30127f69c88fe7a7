package converter_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/amirasaad/fxconverter/infra/provider/mockexchangerate"
	"github.com/amirasaad/fxconverter/pkg/converter"
	"github.com/amirasaad/fxconverter/pkg/currency"
	convertersvc "github.com/amirasaad/fxconverter/pkg/service/converter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T, maxViews int) (*convertersvc.Service, prometheus.Gauge) {
	t.Helper()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_mounted_views"})
	svc := convertersvc.New(
		mockexchangerate.NewMockExchangeRate(nil),
		converter.DefaultOptions(),
		maxViews,
		gauge,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	t.Cleanup(svc.Shutdown)
	return svc, gauge
}

func TestService_MountWithDefaults(t *testing.T) {
	svc, gauge := newService(t, 0)

	view, err := svc.Mount(convertersvc.MountRequest{})
	require.NoError(t, err)
	view.Wait()

	snap := view.Snapshot()
	assert.True(t, snap.Mounted)
	assert.Equal(t, "1", snap.Amount.String())
	assert.Equal(t, "EUR", snap.Source)
	assert.Equal(t, "USD", snap.Target)
	assert.Equal(t, converter.StatusAvailable, snap.Result.Status)
	assert.Equal(t, "1.0500", converter.FormatResult(snap.Result))
	assert.Equal(t, 1, svc.Count())
	assert.InDelta(t, 1, testutil.ToFloat64(gauge), 0)
}

func TestService_MountWithOverrides(t *testing.T) {
	svc, _ := newService(t, 0)
	amount := "10"

	view, err := svc.Mount(convertersvc.MountRequest{Amount: &amount, Source: "usd", Target: "eur"})
	require.NoError(t, err)
	view.Wait()

	snap := view.Snapshot()
	assert.Equal(t, "10", snap.Amount.String())
	assert.Equal(t, "USD", snap.Source)
	assert.Equal(t, "EUR", snap.Target)
	assert.Equal(t, converter.StatusAvailable, snap.Result.Status)
}

func TestService_MountBlankAmount(t *testing.T) {
	svc, _ := newService(t, 0)
	blank := ""

	view, err := svc.Mount(convertersvc.MountRequest{Amount: &blank})
	require.NoError(t, err)
	view.Wait()

	snap := view.Snapshot()
	assert.True(t, snap.Amount.IsEmpty())
	assert.Equal(t, converter.StatusUnset, snap.Result.Status)
}

func TestService_MountRejectsBadInput(t *testing.T) {
	svc, _ := newService(t, 0)
	bad := "abc"

	_, err := svc.Mount(convertersvc.MountRequest{Amount: &bad})
	assert.ErrorIs(t, err, converter.ErrInvalidAmount)

	_, err = svc.Mount(convertersvc.MountRequest{Source: "GBP"})
	assert.ErrorIs(t, err, currency.ErrUnsupportedCurrency)

	assert.Equal(t, 0, svc.Count())
}

func TestService_MaxViews(t *testing.T) {
	svc, _ := newService(t, 2)

	for range 2 {
		_, err := svc.Mount(convertersvc.MountRequest{})
		require.NoError(t, err)
	}
	_, err := svc.Mount(convertersvc.MountRequest{})
	assert.ErrorIs(t, err, convertersvc.ErrTooManyViews)
}

func TestService_GetAndUnmount(t *testing.T) {
	svc, gauge := newService(t, 0)

	view, err := svc.Mount(convertersvc.MountRequest{})
	require.NoError(t, err)

	got, err := svc.Get(view.ID())
	require.NoError(t, err)
	assert.Same(t, view, got)

	require.NoError(t, svc.Unmount(view.ID()))
	assert.False(t, view.Snapshot().Mounted)
	assert.ErrorIs(t, view.SetAmount("2"), converter.ErrUnmounted)
	assert.InDelta(t, 0, testutil.ToFloat64(gauge), 0)

	_, err = svc.Get(view.ID())
	assert.ErrorIs(t, err, convertersvc.ErrViewNotFound)
	assert.ErrorIs(t, svc.Unmount(view.ID()), convertersvc.ErrViewNotFound)
}

func TestService_Shutdown(t *testing.T) {
	svc, gauge := newService(t, 0)

	a, err := svc.Mount(convertersvc.MountRequest{})
	require.NoError(t, err)
	b, err := svc.Mount(convertersvc.MountRequest{})
	require.NoError(t, err)

	svc.Shutdown()
	assert.Equal(t, 0, svc.Count())
	assert.False(t, a.Snapshot().Mounted)
	assert.False(t, b.Snapshot().Mounted)
	assert.InDelta(t, 0, testutil.ToFloat64(gauge), 0)
}
