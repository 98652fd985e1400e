package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"time"
)

const (
	// DefaultListenTimeout caps a single spoken answer
	DefaultListenTimeout = 30 * time.Second
)

// ErrMicrophoneUnavailable is returned when audio cannot be captured
var ErrMicrophoneUnavailable = errors.New("microphone unavailable")

// Microphone records raw mono 16-bit PCM through ffmpeg
type Microphone struct {
	ffmpeg     string
	device     string
	sampleRate int
}

// NewMicrophone creates a recorder. Empty values pick platform defaults.
func NewMicrophone(ffmpeg, device string) *Microphone {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if device == "" {
		device = defaultAudioDevice()
	}
	return &Microphone{ffmpeg: ffmpeg, device: device, sampleRate: DefaultSampleRate}
}

func defaultAudioDevice() string {
	switch runtime.GOOS {
	case "darwin":
		return ":0"
	case "windows":
		return "audio=default"
	default:
		return "default"
	}
}

func audioFormat() string {
	switch runtime.GOOS {
	case "darwin":
		return "avfoundation"
	case "windows":
		return "dshow"
	default:
		return "alsa"
	}
}

// Record captures audio for the given duration
func (m *Microphone) Record(ctx context.Context, d time.Duration) ([]byte, error) {
	path, err := exec.LookPath(m.ffmpeg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrMicrophoneUnavailable, m.ffmpeg)
	}
	if d <= 0 {
		d = DefaultListenTimeout
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", audioFormat(), "-i", m.device,
		"-t", strconv.FormatFloat(d.Seconds(), 'f', 1, 64),
		"-ac", "1", "-ar", strconv.Itoa(m.sampleRate),
		"-f", "s16le", "-",
	}
	out, err := exec.CommandContext(ctx, path, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMicrophoneUnavailable, err)
	}
	return out, nil
}

// Recorder captures audio for a bounded duration
type Recorder interface {
	Record(ctx context.Context, d time.Duration) ([]byte, error)
}

// Listen records one spoken answer and transcribes it
func Listen(ctx context.Context, rec Recorder, t Transcriber, d time.Duration) (string, error) {
	if rec == nil || t == nil {
		return "", ErrMicrophoneUnavailable
	}

	audio, err := rec.Record(ctx, d)
	if err != nil {
		return "", err
	}

	res, err := t.Transcribe(ctx, audio)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}
