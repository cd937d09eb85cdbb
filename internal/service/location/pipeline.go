package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// AcquireTimeout bounds a single acquisition attempt.
const AcquireTimeout = 10 * time.Second

// Pipeline performs single-shot position acquisition. A successful fix
// is cached for the remainder of the current check-in attempt and never
// silently refreshed; Reset discards it. There is no retry policy; the
// caller re-invokes Acquire explicitly.
type Pipeline struct {
	provider Provider
	logger   *slog.Logger
	timeout  time.Duration

	mu  sync.Mutex
	fix *Fix
}

func NewPipeline(provider Provider, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		provider: provider,
		logger:   logger,
		timeout:  AcquireTimeout,
	}
}

// Acquire resolves the current position, classifying failures into the
// four failure classes. The fix is cached until Reset.
func (p *Pipeline) Acquire(ctx context.Context) (Fix, error) {
	if p.provider == nil {
		return Fix{}, ErrNotSupported
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	fix, err := p.provider.CurrentPosition(ctx)
	if err != nil {
		classified := classify(err, ctx)
		p.logger.Warn("location acquisition failed", "error", classified)
		return Fix{}, classified
	}

	p.mu.Lock()
	p.fix = &fix
	p.mu.Unlock()

	p.logger.Debug("location acquired", "latitude", fix.Latitude, "longitude", fix.Longitude)
	return fix, nil
}

// Current returns the cached fix from this attempt, if any.
func (p *Pipeline) Current() (Fix, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fix == nil {
		return Fix{}, false
	}
	return *p.fix, true
}

// Reset discards the cached fix; the next attempt must re-acquire.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fix = nil
}

func classify(err error, ctx context.Context) error {
	switch {
	case errors.Is(err, ErrPermissionDenied),
		errors.Is(err, ErrPositionUnavailable),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrNotSupported):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}
}
