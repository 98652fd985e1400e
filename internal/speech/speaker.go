// Package speech wraps text-to-speech and speech-to-text engines.
package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

const (
	DefaultRate   = 150
	DefaultVolume = 0.8
)

// ErrEngineUnavailable is returned when no speech engine binary is installed
var ErrEngineUnavailable = errors.New("speech engine unavailable")

// CommandSpeaker speaks through an operating system TTS command
type CommandSpeaker struct {
	command string
	rate    int
	volume  float64
}

// NewCommandSpeaker creates a speaker. An empty command picks the platform default.
func NewCommandSpeaker(command string, rate int, volume float64) *CommandSpeaker {
	if command == "" {
		command = DefaultCommand()
	}
	if rate <= 0 {
		rate = DefaultRate
	}
	if volume <= 0 || volume > 1 {
		volume = DefaultVolume
	}
	return &CommandSpeaker{command: command, rate: rate, volume: volume}
}

// DefaultCommand returns the TTS command shipped with the platform
func DefaultCommand() string {
	switch runtime.GOOS {
	case "darwin":
		return "say"
	case "windows":
		return "powershell"
	default:
		return "espeak"
	}
}

// Available reports whether the command can be found
func (s *CommandSpeaker) Available() bool {
	_, err := exec.LookPath(s.command)
	return err == nil
}

// Say speaks text and blocks until playback ends
func (s *CommandSpeaker) Say(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	path, err := exec.LookPath(s.command)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrEngineUnavailable, s.command)
	}

	cmd := exec.CommandContext(ctx, path, s.args(text)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to run %s: %w: %s", s.command, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// args builds the command line for the known engines.
// Text always follows "--" so it is never parsed as an option.
func (s *CommandSpeaker) args(text string) []string {
	switch strings.TrimSuffix(filepath.Base(s.command), ".exe") {
	case "say":
		return []string{"-r", strconv.Itoa(s.rate), "--", text}
	case "espeak", "espeak-ng":
		return []string{"-s", strconv.Itoa(s.rate), "-a", strconv.Itoa(int(s.volume * 100)), "--", text}
	case "powershell":
		script := fmt.Sprintf(
			"Add-Type -AssemblyName System.Speech; $s = New-Object System.Speech.Synthesis.SpeechSynthesizer; $s.Volume = %d; $s.Speak('%s')",
			int(s.volume*100), strings.ReplaceAll(text, "'", "''"))
		return []string{"-NoProfile", "-Command", script}
	default:
		return []string{"--", text}
	}
}
