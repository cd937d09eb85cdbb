package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/leaveapproval/attendance-client-go/internal/domain/attendance"
)

// Mode is the workflow phase a photo belongs to. Each mode has its own
// photo slot and live-view surface.
type Mode string

const (
	ModeCheckIn  Mode = "checkIn"
	ModeCheckOut Mode = "checkOut"
)

// CameraState tracks the acquisition state machine.
type CameraState int

const (
	StateInactive CameraState = iota
	StateActive
	StateError
)

func (s CameraState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateError:
		return "error"
	default:
		return "inactive"
	}
}

var (
	// ErrCameraInactive rejects capture attempts while no stream is
	// acquired. A validation error, reported before any device access.
	ErrCameraInactive = errors.New("camera is not active")
	// ErrNotImage rejects uploads whose payload does not decode as an
	// image.
	ErrNotImage = errors.New("please select an image file")
)

// Surface is a live-view sink (a video element in the browser client,
// a preview pane on the kiosk). The pipeline attaches its single stream
// to whichever surfaces are registered, so one acquisition serves both
// phases of a session.
type Surface interface {
	Attach(Stream)
	Detach()
	Attached() bool
}

// Pipeline acquires the camera once and produces still-image payloads
// on demand: a frame from the live stream, or a user-selected file.
// The two sources are mutually exclusive per mode; choosing one clears
// the other.
type Pipeline struct {
	camera Camera
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	state    CameraState
	stream   Stream
	surfaces map[Mode]Surface
	photos   map[Mode]attendance.Photo
}

func NewPipeline(camera Camera, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		camera:   camera,
		logger:   logger,
		now:      time.Now,
		surfaces: make(map[Mode]Surface),
		photos:   make(map[Mode]attendance.Photo),
	}
}

// State returns the acquisition state.
func (p *Pipeline) State() CameraState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// RegisterSurface binds a live-view surface to a mode. If a stream is
// already acquired it is attached immediately.
func (p *Pipeline) RegisterSurface(mode Mode, surface Surface) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.surfaces[mode] = surface
	if p.stream != nil {
		surface.Attach(p.stream)
	}
}

// Start acquires the camera stream and attaches it to every registered
// surface. Acquisition failure is classified, moves the pipeline to
// Error, and leaves no device locked. Already-active pipelines restart
// cleanly (old tracks released first).
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.releaseLocked()

	stream, err := p.camera.Open(ctx)
	if err != nil {
		p.state = StateError
		p.logger.Warn("camera acquisition failed", "error", err)
		return fmt.Errorf("failed to start camera: %w", err)
	}

	p.stream = stream
	p.state = StateActive
	for _, surface := range p.surfaces {
		surface.Attach(stream)
	}
	p.logger.Debug("camera started")
	return nil
}

// Refresh re-attaches the existing stream to a mode's surface after the
// surface lost its attachment. Only when no stream exists does it fall
// back to a full acquisition.
func (p *Pipeline) Refresh(ctx context.Context, mode Mode) error {
	p.mu.Lock()
	if p.stream != nil {
		if surface, ok := p.surfaces[mode]; ok {
			surface.Attach(p.stream)
		}
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	return p.Start(ctx)
}

// Capture renders the current frame to an encoded still image, stores
// it in the mode's slot, and clears any previously uploaded file for
// that mode. Requires Active.
func (p *Pipeline) Capture(ctx context.Context, mode Mode) (attendance.Photo, error) {
	p.mu.Lock()
	stream := p.stream
	active := p.state == StateActive
	p.mu.Unlock()

	if !active || stream == nil {
		return attendance.Photo{}, ErrCameraInactive
	}

	frame, err := stream.Frame(ctx)
	if err != nil {
		return attendance.Photo{}, fmt.Errorf("failed to capture frame: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, frame, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return attendance.Photo{}, fmt.Errorf("failed to encode frame: %w", err)
	}

	photo := attendance.Photo{
		Data:     buf.Bytes(),
		Filename: fmt.Sprintf("%s-%d.jpg", mode, p.now().Unix()),
		FromFile: false,
	}

	p.mu.Lock()
	p.photos[mode] = photo
	p.mu.Unlock()

	p.logger.Debug("photo captured", "mode", string(mode), "bytes", len(photo.Data))
	return photo, nil
}

// AttachFile stores a user-selected file in the mode's slot after
// verifying it decodes as an image, clearing any previously captured
// frame for that mode.
func (p *Pipeline) AttachFile(mode Mode, filename string, r io.Reader) (attendance.Photo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return attendance.Photo{}, fmt.Errorf("failed to read upload: %w", err)
	}

	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		return attendance.Photo{}, ErrNotImage
	}

	photo := attendance.Photo{
		Data:     data,
		Filename: filename,
		FromFile: true,
	}

	p.mu.Lock()
	p.photos[mode] = photo
	p.mu.Unlock()

	p.logger.Debug("photo uploaded", "mode", string(mode), "filename", filename)
	return photo, nil
}

// Photo returns the mode's current photo, if any.
func (p *Pipeline) Photo(mode Mode) (attendance.Photo, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	photo, ok := p.photos[mode]
	return photo, ok
}

// ClearPhoto empties the mode's slot (retake).
func (p *Pipeline) ClearPhoto(mode Mode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.photos, mode)
}

// ClearPhotos empties every slot.
func (p *Pipeline) ClearPhotos() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.photos = make(map[Mode]attendance.Photo)
}

// Stop releases all acquired media tracks and detaches every surface.
// Safe to call on every exit path.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked()
	p.state = StateInactive
}

func (p *Pipeline) releaseLocked() {
	if p.stream == nil {
		return
	}
	if err := p.stream.Close(); err != nil {
		p.logger.Warn("failed to release camera stream", "error", err)
	}
	p.stream = nil
	for _, surface := range p.surfaces {
		surface.Detach()
	}
}
