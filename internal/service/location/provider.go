package location

import (
	"context"
	"errors"
)

// Fix is a one-shot geolocation result.
type Fix struct {
	Latitude  float64
	Longitude float64
}

// Failure classes, each carrying a distinct user-facing message.
var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("location information is unavailable")
	ErrTimeout             = errors.New("the request to get the current location timed out")
	ErrNotSupported        = errors.New("geolocation is not supported on this host")
)

// Provider resolves the device's current position. Implementations
// should respect ctx cancellation; the pipeline enforces the timeout.
type Provider interface {
	CurrentPosition(ctx context.Context) (Fix, error)
}

// StaticProvider answers with fixed coordinates. Kiosks are bolted to a
// wall; their position is configuration.
type StaticProvider struct {
	Fix Fix
}

func (p *StaticProvider) CurrentPosition(ctx context.Context) (Fix, error) {
	if err := ctx.Err(); err != nil {
		return Fix{}, err
	}
	return p.Fix, nil
}

// Unsupported is the provider for hosts with no location source at all.
type Unsupported struct{}

func (Unsupported) CurrentPosition(ctx context.Context) (Fix, error) {
	return Fix{}, ErrNotSupported
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context) (Fix, error)

func (f ProviderFunc) CurrentPosition(ctx context.Context) (Fix, error) {
	return f(ctx)
}
