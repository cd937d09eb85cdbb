package capture

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCamera struct {
	openErr   error
	openCount int
	stream    *fakeStream
}

func (c *fakeCamera) Open(ctx context.Context) (Stream, error) {
	c.openCount++
	if c.openErr != nil {
		return nil, c.openErr
	}
	c.stream = &fakeStream{}
	return c.stream, nil
}

type fakeStream struct {
	closes int
}

func (s *fakeStream) Frame(ctx context.Context) (image.Image, error) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(0, 0, color.White)
	return img, nil
}

func (s *fakeStream) Close() error {
	s.closes++
	return nil
}

func newTestPipeline(camera Camera) *Pipeline {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPipeline(camera, logger)
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG))
	return buf.Bytes()
}

func TestStart_AcquiresStreamAndAttachesSurfaces(t *testing.T) {
	camera := &fakeCamera{}
	pipeline := newTestPipeline(camera)

	surface := NewPreviewSurface()
	pipeline.RegisterSurface(ModeCheckIn, surface)

	require.NoError(t, pipeline.Start(context.Background()))
	assert.Equal(t, StateActive, pipeline.State())
	assert.True(t, surface.Attached())
}

func TestStart_BusyDeviceMovesToErrorAndBlocksCapture(t *testing.T) {
	camera := &fakeCamera{openErr: ErrCameraBusy}
	pipeline := newTestPipeline(camera)

	err := pipeline.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCameraBusy)
	assert.Equal(t, StateError, pipeline.State())

	_, err = pipeline.Capture(context.Background(), ModeCheckIn)
	assert.ErrorIs(t, err, ErrCameraInactive)
}

func TestStart_RestartReleasesPreviousStream(t *testing.T) {
	camera := &fakeCamera{}
	pipeline := newTestPipeline(camera)

	require.NoError(t, pipeline.Start(context.Background()))
	first := camera.stream
	require.NoError(t, pipeline.Start(context.Background()))

	assert.Equal(t, 1, first.closes)
	assert.Equal(t, 2, camera.openCount)
	assert.Equal(t, StateActive, pipeline.State())
}

func TestCapture_StoresEncodedFrame(t *testing.T) {
	pipeline := newTestPipeline(&fakeCamera{})
	require.NoError(t, pipeline.Start(context.Background()))

	photo, err := pipeline.Capture(context.Background(), ModeCheckIn)
	require.NoError(t, err)
	assert.NotEmpty(t, photo.Data)
	assert.False(t, photo.FromFile)
	assert.True(t, strings.HasSuffix(photo.Filename, ".jpg"))

	stored, ok := pipeline.Photo(ModeCheckIn)
	require.True(t, ok)
	assert.Equal(t, photo.Filename, stored.Filename)

	// The other mode's slot is untouched.
	_, ok = pipeline.Photo(ModeCheckOut)
	assert.False(t, ok)
}

func TestCapture_RequiresActivePipeline(t *testing.T) {
	pipeline := newTestPipeline(&fakeCamera{})
	_, err := pipeline.Capture(context.Background(), ModeCheckIn)
	assert.ErrorIs(t, err, ErrCameraInactive)
}

// A captured frame and an uploaded file compete for the same slot; the
// most recent choice wins.
func TestCaptureAndUpload_AreMutuallyExclusivePerMode(t *testing.T) {
	pipeline := newTestPipeline(&fakeCamera{})
	require.NoError(t, pipeline.Start(context.Background()))

	_, err := pipeline.Capture(context.Background(), ModeCheckIn)
	require.NoError(t, err)

	uploaded, err := pipeline.AttachFile(ModeCheckIn, "me.jpg", bytes.NewReader(jpegBytes(t)))
	require.NoError(t, err)
	assert.True(t, uploaded.FromFile)

	stored, ok := pipeline.Photo(ModeCheckIn)
	require.True(t, ok)
	assert.True(t, stored.FromFile)
	assert.Equal(t, "me.jpg", stored.Filename)

	recaptured, err := pipeline.Capture(context.Background(), ModeCheckIn)
	require.NoError(t, err)

	stored, ok = pipeline.Photo(ModeCheckIn)
	require.True(t, ok)
	assert.False(t, stored.FromFile)
	assert.Equal(t, recaptured.Filename, stored.Filename)
}

func TestAttachFile_RejectsNonImagePayload(t *testing.T) {
	pipeline := newTestPipeline(&fakeCamera{})

	_, err := pipeline.AttachFile(ModeCheckIn, "notes.txt", strings.NewReader("not an image"))
	assert.ErrorIs(t, err, ErrNotImage)

	_, ok := pipeline.Photo(ModeCheckIn)
	assert.False(t, ok)
}

func TestAttachFile_WorksWithoutActiveCamera(t *testing.T) {
	pipeline := newTestPipeline(&fakeCamera{openErr: ErrCameraPermission})

	photo, err := pipeline.AttachFile(ModeCheckOut, "out.jpg", bytes.NewReader(jpegBytes(t)))
	require.NoError(t, err)
	assert.True(t, photo.FromFile)
}

func TestRefresh_ReattachesWithoutReacquisition(t *testing.T) {
	camera := &fakeCamera{}
	pipeline := newTestPipeline(camera)

	surface := NewPreviewSurface()
	pipeline.RegisterSurface(ModeCheckOut, surface)
	require.NoError(t, pipeline.Start(context.Background()))

	surface.Detach()
	require.False(t, surface.Attached())

	require.NoError(t, pipeline.Refresh(context.Background(), ModeCheckOut))
	assert.True(t, surface.Attached())
	assert.Equal(t, 1, camera.openCount)
}

func TestRefresh_FallsBackToStartWhenNoStream(t *testing.T) {
	camera := &fakeCamera{}
	pipeline := newTestPipeline(camera)
	pipeline.RegisterSurface(ModeCheckIn, NewPreviewSurface())

	require.NoError(t, pipeline.Refresh(context.Background(), ModeCheckIn))
	assert.Equal(t, 1, camera.openCount)
	assert.Equal(t, StateActive, pipeline.State())
}

func TestStop_ReleasesStreamAndDetachesSurfaces(t *testing.T) {
	camera := &fakeCamera{}
	pipeline := newTestPipeline(camera)

	surface := NewPreviewSurface()
	pipeline.RegisterSurface(ModeCheckIn, surface)
	require.NoError(t, pipeline.Start(context.Background()))

	pipeline.Stop()
	assert.Equal(t, StateInactive, pipeline.State())
	assert.False(t, surface.Attached())
	assert.Equal(t, 1, camera.stream.closes)

	// Stop is safe on every exit path, including repeats.
	pipeline.Stop()
	assert.Equal(t, 1, camera.stream.closes)
}
