package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/disintegration/imaging"
)

// Camera is a capture device. Open acquires the device and returns a
// live stream; the stream's Close is the release handle and must be
// invoked on every exit path, or the device stays locked.
type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an acquired camera stream.
type Stream interface {
	// Frame renders the current video frame.
	Frame(ctx context.Context) (image.Image, error)
	// Close releases the underlying media tracks. Idempotent.
	Close() error
}

// Acquisition failure classes, surfaced distinctly to the user.
var (
	ErrCameraPermission = errors.New("camera permission denied")
	ErrCameraBusy       = errors.New("camera is in use by another application")
	ErrCameraNotFound   = errors.New("no camera device found")
)

// FileCamera simulates a camera from still images on disk: a single
// image file, or a directory whose images are cycled frame by frame.
// Kiosk deployments without a camera API use it, as do the tests.
type FileCamera struct {
	Source string
}

func (c *FileCamera) Open(ctx context.Context) (Stream, error) {
	if c.Source == "" {
		return nil, ErrCameraNotFound
	}
	info, err := os.Stat(c.Source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCameraNotFound, c.Source)
		}
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: %s", ErrCameraPermission, c.Source)
		}
		return nil, fmt.Errorf("failed to open camera source: %w", err)
	}

	var frames []string
	if info.IsDir() {
		entries, err := os.ReadDir(c.Source)
		if err != nil {
			return nil, fmt.Errorf("failed to read camera source directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			frames = append(frames, filepath.Join(c.Source, entry.Name()))
		}
		sort.Strings(frames)
	} else {
		frames = []string{c.Source}
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: no frames in %s", ErrCameraNotFound, c.Source)
	}

	return &fileStream{frames: frames}, nil
}

type fileStream struct {
	mu     sync.Mutex
	frames []string
	next   int
	closed bool
}

func (s *fileStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("stream is closed")
	}

	path := s.frames[s.next%len(s.frames)]
	s.next++

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame %s: %w", path, err)
	}
	return img, nil
}

func (s *fileStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
