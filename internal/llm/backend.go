package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Backend is a text-generation service used for scoring and conversation
type Backend interface {
	Name() string
	Available(ctx context.Context) bool
	Generate(ctx context.Context, prompt string) (string, error)
}

const (
	// DefaultProbeTimeout bounds availability probes
	DefaultProbeTimeout = 5 * time.Second
	// DefaultGenerateTimeout bounds a single generation call
	DefaultGenerateTimeout = 30 * time.Second

	maxRetries   = 3
	retryBackoff = 10 * time.Second
)

// ErrEmptyReply is returned when a backend answers with no text
var ErrEmptyReply = errors.New("backend returned an empty reply")

// UnavailableError reports that a backend could not be reached or refused the request
type UnavailableError struct {
	Backend string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("backend %s unavailable: %v", e.Backend, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err is an UnavailableError
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

func unavailable(backend string, err error) error {
	if err == nil {
		return nil
	}
	if IsUnavailable(err) {
		return err
	}
	return &UnavailableError{Backend: backend, Err: err}
}

// httpStatusError is a non-2xx response from a backend
type httpStatusError struct {
	code int
	body string
}

func (e *httpStatusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("HTTP %d", e.code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.code, e.body)
}

// Negotiate probes candidates in order and returns the first available one.
// A nil result means no backend is usable and callers run on heuristics.
// Candidates that are not returned are closed when they implement io.Closer.
func Negotiate(ctx context.Context, candidates ...Backend) Backend {
	var chosen Backend
	for _, b := range candidates {
		if b == nil {
			continue
		}
		if b.Available(ctx) {
			slog.Info("generation backend selected", slog.String("backend", b.Name()))
			chosen = b
			break
		}
		slog.Warn("generation backend unavailable", slog.String("backend", b.Name()))
	}
	if chosen == nil {
		slog.Warn("no generation backend available, using heuristic scoring")
	}

	for _, b := range candidates {
		if b == nil || b == chosen {
			continue
		}
		if closer, ok := b.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				slog.Warn("failed to close unused backend", slog.String("backend", b.Name()), slog.Any("error", err))
			}
		}
	}
	return chosen
}

// isRateLimitError checks if an error is due to rate limiting or quota exhaustion
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) && statusErr.code == 429 {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"resourceexhausted", "resource exhausted", "429", "rate limit", "quota"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// withRetry calls fn again after a linear backoff while it fails on rate limits
func withRetry(ctx context.Context, backend string, backoff time.Duration, fn func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		if !isRateLimitError(err) {
			return "", err
		}
		lastErr = err
		if attempt == maxRetries {
			break
		}

		wait := backoff * time.Duration(attempt+1)
		slog.Warn("rate limited, retrying",
			slog.String("backend", backend),
			slog.Int("attempt", attempt+1),
			slog.Duration("wait", wait))

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
	return "", fmt.Errorf("rate limit persisted after %d retries: %w", maxRetries, lastErr)
}

// StatusCode returns the HTTP status of a rejected backend request
func StatusCode(err error) (int, bool) {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.code, true
	}
	return 0, false
}
