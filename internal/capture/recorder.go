package capture

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"
)

// LiveBufferSize is how many frames wait for the display before the oldest is dropped.
// Only the live buffer and the latest frame are held in memory.
const LiveBufferSize = 10

// ErrAlreadyRecording is returned by Start on a running recorder
var ErrAlreadyRecording = errors.New("recorder already running")

// frameBuffer is a bounded FIFO that drops its oldest frame when full
type frameBuffer struct {
	mu     sync.Mutex
	frames []image.Image
	size   int
}

func newFrameBuffer(size int) *frameBuffer {
	return &frameBuffer{size: size, frames: make([]image.Image, 0, size)}
}

// push adds a frame and reports whether an old one was dropped
func (b *frameBuffer) push(img image.Image) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	dropped := false
	if len(b.frames) == b.size {
		copy(b.frames, b.frames[1:])
		b.frames = b.frames[:b.size-1]
		dropped = true
	}
	b.frames = append(b.frames, img)
	return dropped
}

func (b *frameBuffer) pop() (image.Image, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.frames) == 0 {
		return nil, false
	}
	img := b.frames[0]
	copy(b.frames, b.frames[1:])
	b.frames[len(b.frames)-1] = nil
	b.frames = b.frames[:len(b.frames)-1]
	return img, true
}

func (b *frameBuffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}

func (b *frameBuffer) reset() {
	b.mu.Lock()
	b.frames = b.frames[:0]
	b.mu.Unlock()
}

// RecorderOptions configures a Recorder
type RecorderOptions struct {
	FPS int
	// Detector enables face boxes on live frames when set
	Detector Detector
	// Now stamps frames; defaults to time.Now
	Now func() time.Time
}

// Recorder polls a Source on its own goroutine
type Recorder struct {
	source   Source
	interval time.Duration
	detector Detector
	now      func() time.Time

	live *frameBuffer

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	total   int
	current image.Image
	faces   FaceAnalysis
}

// NewRecorder creates a recorder for source
func NewRecorder(source Source, opts RecorderOptions) *Recorder {
	fps := opts.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Recorder{
		source:   source,
		interval: time.Second / time.Duration(fps),
		detector: opts.Detector,
		now:      now,
		live:     newFrameBuffer(LiveBufferSize),
	}
}

// Start opens the source and begins capturing
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrAlreadyRecording
	}
	if err := r.source.Open(ctx); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.running = true
	r.cancel = cancel
	r.done = make(chan struct{})
	r.total = 0
	r.current = nil
	r.live.reset()

	go r.loop(loopCtx, r.done)
	slog.Info("camera recording started", slog.Duration("interval", r.interval))
	return nil
}

// Stop ends capturing and returns how many frames were captured
func (r *Recorder) Stop() int {
	r.mu.Lock()
	if !r.running {
		total := r.total
		r.mu.Unlock()
		return total
	}
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	<-done

	if err := r.source.Close(); err != nil {
		slog.Warn("failed to close camera", slog.Any("error", err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	slog.Info("camera recording stopped", slog.Int("frames", r.total))
	return r.total
}

// Running reports whether the capture loop is active
func (r *Recorder) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// CurrentFrame returns the latest stamped frame
func (r *Recorder) CurrentFrame() (image.Image, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.current != nil
}

// LiveFrame takes the oldest pending frame for display
func (r *Recorder) LiveFrame() (image.Image, bool) {
	return r.live.pop()
}

// Faces returns the analysis of the latest frame
func (r *Recorder) Faces() FaceAnalysis {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.faces
}

func (r *Recorder) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		img, err := r.source.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("failed to read camera frame", slog.Any("error", err))
			continue
		}

		stamped := StampTime(img, r.now())
		display := image.Image(stamped)
		var faces FaceAnalysis
		if r.detector != nil {
			faces = Analyze(r.detector, stamped)
			if faces.Present {
				display = Overlay(stamped, faces.Positions)
			}
		}

		r.mu.Lock()
		r.total++
		r.current = stamped
		r.faces = faces
		r.mu.Unlock()

		r.live.push(display)
	}
}
