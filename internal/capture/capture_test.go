package capture

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu      sync.Mutex
	opened  bool
	closed  bool
	reads   int
	openErr error
}

func (f *fakeSource) Open(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	f.opened = true
	return nil
}

func (f *fakeSource) Read(ctx context.Context) (image.Image, error) {
	f.mu.Lock()
	f.reads++
	f.mu.Unlock()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	return img, nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

type fixedDetector struct {
	rects []image.Rectangle
}

func (d fixedDetector) Detect(img image.Image) []image.Rectangle {
	return d.rects
}

func solid(i int) image.Image {
	img := image.NewGray(image.Rect(0, 0, 1, 1))
	img.SetGray(0, 0, color.Gray{Y: uint8(i)})
	return img
}

func TestFrameBufferDropsOldest(t *testing.T) {
	b := newFrameBuffer(LiveBufferSize)

	dropped := 0
	for i := 0; i < LiveBufferSize+3; i++ {
		if b.push(solid(i)) {
			dropped++
		}
	}
	assert.Equal(t, 3, dropped)
	assert.Equal(t, LiveBufferSize, b.len())

	first, ok := b.pop()
	require.True(t, ok)
	assert.Equal(t, uint8(3), first.(*image.Gray).GrayAt(0, 0).Y)

	for b.len() > 0 {
		b.pop()
	}
	_, ok = b.pop()
	assert.False(t, ok)
}

func TestRecorderLifecycle(t *testing.T) {
	src := &fakeSource{}
	stamp := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	rec := NewRecorder(src, RecorderOptions{
		FPS:      200,
		Detector: fixedDetector{rects: []image.Rectangle{image.Rect(10, 10, 40, 40)}},
		Now:      func() time.Time { return stamp },
	})

	require.NoError(t, rec.Start(context.Background()))
	assert.True(t, rec.Running())
	assert.ErrorIs(t, rec.Start(context.Background()), ErrAlreadyRecording)

	require.Eventually(t, func() bool {
		_, ok := rec.CurrentFrame()
		return ok
	}, 2*time.Second, 5*time.Millisecond)

	live, ok := rec.LiveFrame()
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 64, 48), live.Bounds())

	faces := rec.Faces()
	assert.True(t, faces.Present)
	assert.Equal(t, 1, faces.FacesDetected)

	frames := rec.Stop()
	assert.False(t, rec.Running())
	assert.GreaterOrEqual(t, frames, 1)
	assert.True(t, src.closed)
	assert.Equal(t, frames, rec.Stop())
}

func TestRecorderStartFailsWithoutCamera(t *testing.T) {
	rec := NewRecorder(&fakeSource{openErr: ErrCameraUnavailable}, RecorderOptions{})
	assert.ErrorIs(t, rec.Start(context.Background()), ErrCameraUnavailable)
	assert.False(t, rec.Running())
}

func TestRecorderHoldsOnlyLiveFrames(t *testing.T) {
	rec := NewRecorder(&fakeSource{}, RecorderOptions{FPS: 500})
	require.NoError(t, rec.Start(context.Background()))

	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.total > 3*LiveBufferSize
	}, 5*time.Second, 5*time.Millisecond)

	total := rec.Stop()
	assert.Greater(t, total, 3*LiveBufferSize)
	assert.Equal(t, LiveBufferSize, rec.live.len(), "undisplayed frames beyond the live buffer are dropped")
	_, ok := rec.CurrentFrame()
	assert.True(t, ok)
}

func TestOverlayDrawsBox(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 80))
	face := image.Rect(20, 20, 60, 70)

	out := Overlay(img, []image.Rectangle{face, image.Rect(200, 200, 300, 300)})

	assert.Equal(t, img.Bounds(), out.Bounds())
	assert.Equal(t, boxColor, out.RGBAAt(face.Min.X, face.Max.Y-1))
	assert.Equal(t, boxColor, out.RGBAAt(face.Max.X-1, face.Min.Y+30))
	assert.Equal(t, color.RGBA{}, out.RGBAAt(40, 45), "box interior untouched")
	assert.Equal(t, color.RGBA{}, img.RGBAAt(face.Min.X, face.Max.Y-1), "source image untouched")
}

func TestStampTimePreservesBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	out := StampTime(img, time.Now())
	assert.Equal(t, img.Bounds(), out.Bounds())

	changed := false
	for x := 0; x < 200 && !changed; x++ {
		for y := 0; y < 30; y++ {
			if out.RGBAAt(x, y) != (color.RGBA{}) {
				changed = true
				break
			}
		}
	}
	assert.True(t, changed, "timestamp should be drawn in the top-left corner")
}

func TestAnalyze(t *testing.T) {
	assert.Equal(t, FaceAnalysis{}, Analyze(nil, image.NewRGBA(image.Rect(0, 0, 1, 1))))

	none := Analyze(fixedDetector{}, image.NewRGBA(image.Rect(0, 0, 1, 1)))
	assert.False(t, none.Present)
	assert.Zero(t, none.FacesDetected)

	two := Analyze(fixedDetector{rects: []image.Rectangle{image.Rect(0, 0, 1, 1), image.Rect(1, 1, 2, 2)}}, image.NewRGBA(image.Rect(0, 0, 4, 4)))
	assert.True(t, two.Present)
	assert.Equal(t, 2, two.FacesDetected)
}

func TestPigoDetectorMissingCascade(t *testing.T) {
	_, err := NewPigoDetector(filepath.Join(t.TempDir(), "facefinder"))
	assert.ErrorIs(t, err, ErrDetectorUnavailable)
}

func TestCommandSourceMissingFFmpeg(t *testing.T) {
	src := NewCommandSource("definitely-not-ffmpeg", "", 0)
	assert.ErrorIs(t, src.Open(context.Background()), ErrCameraUnavailable)

	_, err := src.Read(context.Background())
	assert.ErrorIs(t, err, ErrCameraUnavailable)
	assert.NoError(t, src.Close())
}
