// Package capture grabs camera frames, records them and annotates faces.
package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os/exec"
	"runtime"
	"strconv"
	"sync"
)

const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480
)

// ErrCameraUnavailable is returned when no camera can be opened
var ErrCameraUnavailable = errors.New("camera unavailable")

// Source yields camera frames
type Source interface {
	Open(ctx context.Context) error
	Read(ctx context.Context) (image.Image, error)
	Close() error
}

// CommandSource streams PNG frames from an ffmpeg child process
type CommandSource struct {
	ffmpeg string
	device string
	fps    int
	width  int
	height int

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader
}

// NewCommandSource creates a camera source. Empty values pick platform defaults.
func NewCommandSource(ffmpeg, device string, fps int) *CommandSource {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if device == "" {
		device = defaultVideoDevice()
	}
	if fps <= 0 {
		fps = DefaultFPS
	}
	return &CommandSource{ffmpeg: ffmpeg, device: device, fps: fps, width: DefaultWidth, height: DefaultHeight}
}

func defaultVideoDevice() string {
	switch runtime.GOOS {
	case "darwin":
		return "0"
	case "windows":
		return "video=Integrated Camera"
	default:
		return "/dev/video0"
	}
}

func videoFormat() string {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation"
	case "windows":
		return "dshow"
	default:
		return "v4l2"
	}
}

// Open starts the capture process
func (s *CommandSource) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return nil
	}

	path, err := exec.LookPath(s.ffmpeg)
	if err != nil {
		return fmt.Errorf("%w: %s not found", ErrCameraUnavailable, s.ffmpeg)
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", videoFormat(),
		"-framerate", strconv.Itoa(s.fps),
		"-video_size", fmt.Sprintf("%dx%d", s.width, s.height),
		"-i", s.device,
		"-f", "image2pipe", "-vcodec", "png", "-",
	}
	cmd := exec.CommandContext(ctx, path, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open camera pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}

	s.cmd = cmd
	s.stdout = stdout
	s.reader = bufio.NewReaderSize(stdout, 1<<20)
	return nil
}

// Read decodes the next frame from the stream
func (s *CommandSource) Read(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	reader := s.reader
	s.mu.Unlock()

	if reader == nil {
		return nil, fmt.Errorf("%w: source not open", ErrCameraUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := png.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	return img, nil
}

// Close stops the capture process
func (s *CommandSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil {
		return nil
	}
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.stdout.Close()
	_ = s.cmd.Wait()

	s.cmd = nil
	s.stdout = nil
	s.reader = nil
	return nil
}
