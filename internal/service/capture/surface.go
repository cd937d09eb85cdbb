package capture

import (
	"context"
	"image"
	"sync"
)

// PreviewSurface is the kiosk's live-view sink: it holds whatever
// stream is currently attached and can render a preview frame from it.
type PreviewSurface struct {
	mu     sync.Mutex
	stream Stream
}

func NewPreviewSurface() *PreviewSurface {
	return &PreviewSurface{}
}

func (s *PreviewSurface) Attach(stream Stream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stream = stream
}

func (s *PreviewSurface) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stream = nil
}

func (s *PreviewSurface) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream != nil
}

// Preview renders the current frame from the attached stream.
func (s *PreviewSurface) Preview(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	stream := s.stream
	s.mu.Unlock()
	if stream == nil {
		return nil, ErrCameraInactive
	}
	return stream.Frame(ctx)
}
