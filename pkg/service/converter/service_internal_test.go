package converter

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/amirasaad/fxconverter/infra/provider/mockexchangerate"
	"github.com/amirasaad/fxconverter/pkg/converter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RegisterRejectsAndUnmountsOverLimit(t *testing.T) {
	src := mockexchangerate.NewMockExchangeRate(nil)
	svc := New(src, converter.DefaultOptions(), 1, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(svc.Shutdown)

	first, err := converter.New(src, converter.DefaultOptions())
	require.NoError(t, err)
	count, err := svc.register(first)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	second, err := converter.New(src, converter.DefaultOptions())
	require.NoError(t, err)
	_, err = svc.register(second)
	assert.ErrorIs(t, err, ErrTooManyViews)
	assert.ErrorIs(t, second.Mount(), converter.ErrUnmounted)
	assert.Equal(t, 1, svc.Count())
}

func TestService_ConcurrentMountsRespectLimit(t *testing.T) {
	svc := New(
		mockexchangerate.NewMockExchangeRate(nil),
		converter.DefaultOptions(),
		3,
		nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	t.Cleanup(svc.Shutdown)

	var mounted, rejected atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Mount(MountRequest{}); err != nil {
				assert.ErrorIs(t, err, ErrTooManyViews)
				rejected.Add(1)
				return
			}
			mounted.Add(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), mounted.Load())
	assert.Equal(t, int32(17), rejected.Load())
	assert.Equal(t, 3, svc.Count())
}
