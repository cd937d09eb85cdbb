package location

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(provider Provider) *Pipeline {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPipeline(provider, logger)
}

func TestAcquire_CachesFixForTheAttempt(t *testing.T) {
	pipeline := newTestPipeline(&StaticProvider{Fix: Fix{Latitude: -6.2, Longitude: 106.8}})

	fix, err := pipeline.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -6.2, fix.Latitude)
	assert.Equal(t, 106.8, fix.Longitude)

	cached, ok := pipeline.Current()
	require.True(t, ok)
	assert.Equal(t, fix, cached)
}

func TestAcquire_NilProviderIsUnsupported(t *testing.T) {
	pipeline := newTestPipeline(nil)
	_, err := pipeline.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrNotSupported)
}

func TestAcquire_FailureClassification(t *testing.T) {
	cases := []struct {
		name        string
		providerErr error
		want        error
	}{
		{"permission denied passes through", ErrPermissionDenied, ErrPermissionDenied},
		{"unavailable passes through", ErrPositionUnavailable, ErrPositionUnavailable},
		{"unsupported host", ErrNotSupported, ErrNotSupported},
		{"deadline maps to timeout", context.DeadlineExceeded, ErrTimeout},
		{"unknown wraps unavailable", errors.New("gps glitch"), ErrPositionUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pipeline := newTestPipeline(ProviderFunc(func(ctx context.Context) (Fix, error) {
				return Fix{}, tc.providerErr
			}))

			_, err := pipeline.Acquire(context.Background())
			assert.ErrorIs(t, err, tc.want)

			// A failed attempt never caches anything.
			_, ok := pipeline.Current()
			assert.False(t, ok)
		})
	}
}

func TestAcquire_CanceledContextPassesThrough(t *testing.T) {
	pipeline := newTestPipeline(&StaticProvider{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAcquire_FailureKeepsPreviousFixCleared(t *testing.T) {
	calls := 0
	pipeline := newTestPipeline(ProviderFunc(func(ctx context.Context) (Fix, error) {
		calls++
		if calls == 1 {
			return Fix{Latitude: 1, Longitude: 2}, nil
		}
		return Fix{}, ErrPositionUnavailable
	}))

	_, err := pipeline.Acquire(context.Background())
	require.NoError(t, err)

	// A later failed attempt does not disturb the cached fix; only Reset
	// discards it.
	_, err = pipeline.Acquire(context.Background())
	require.Error(t, err)
	cached, ok := pipeline.Current()
	require.True(t, ok)
	assert.Equal(t, 1.0, cached.Latitude)

	pipeline.Reset()
	_, ok = pipeline.Current()
	assert.False(t, ok)
}
