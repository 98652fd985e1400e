// Package conversation drives the interviewer's side of the dialogue.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fmuoria/interview-agent/internal/llm"
	"github.com/fmuoria/interview-agent/internal/models"
)

const (
	RejectedReply    = "I'm having trouble processing that. Could you please repeat?"
	FailureReply     = "I'm experiencing technical difficulties. Please try again."
	OfflineReply     = "Thank you for your answer. Let's continue."
	FollowUpFallback = "Thank you for that answer."

	speakTimeout = 2 * time.Minute
)

// Speaker plays text aloud and blocks until playback ends
type Speaker interface {
	Say(ctx context.Context, text string) error
}

// Context describes where the interview currently stands
type Context struct {
	CandidateName   string
	CurrentQuestion int
}

// Driver produces interviewer replies and follow-up questions
type Driver struct {
	personality models.Personality
	backend     llm.Backend
	speaker     Speaker

	mu         sync.Mutex
	transcript []models.TranscriptEntry
}

// New creates a driver. Backend and speaker may be nil.
func New(personality models.Personality, backend llm.Backend, speaker Speaker) *Driver {
	return &Driver{
		personality: personality,
		backend:     backend,
		speaker:     speaker,
	}
}

// Personality returns the interviewer style in use
func (d *Driver) Personality() models.Personality {
	return d.personality
}

// GenerateResponse replies to the candidate and records the exchange
func (d *Driver) GenerateResponse(ctx context.Context, userInput, role string, c Context) string {
	reply := d.generate(ctx, buildResponsePrompt(d.personality, userInput, role, c), replyFallback)

	d.mu.Lock()
	d.transcript = append(d.transcript,
		models.TranscriptEntry{Role: "user", Content: userInput},
		models.TranscriptEntry{Role: "assistant", Content: reply},
	)
	d.mu.Unlock()

	return reply
}

// GenerateFollowUp asks a follow-up question about an answer
func (d *Driver) GenerateFollowUp(ctx context.Context, answer, role, question string) string {
	return d.generate(ctx, buildFollowUpPrompt(answer, role, question), func(error) string {
		return FollowUpFallback
	})
}

// Transcript returns a copy of the recorded conversation
func (d *Driver) Transcript() []models.TranscriptEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.TranscriptEntry(nil), d.transcript...)
}

// Reset clears the transcript
func (d *Driver) Reset() {
	d.mu.Lock()
	d.transcript = nil
	d.mu.Unlock()
}

// Speak plays text in the background. The returned channel closes when
// playback has finished or failed; callers are free to ignore it.
func (d *Driver) Speak(text string) <-chan struct{} {
	done := make(chan struct{})
	speaker := d.speaker

	go func() {
		defer close(done)
		if speaker == nil {
			slog.Warn("speech output unavailable, skipping playback")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), speakTimeout)
		defer cancel()

		if err := speaker.Say(ctx, text); err != nil {
			slog.Warn("speech playback failed", slog.Any("error", err))
		}
	}()

	return done
}

func (d *Driver) generate(ctx context.Context, prompt string, fallback func(error) string) string {
	if d.backend == nil {
		return fallback(nil)
	}

	reply, err := d.backend.Generate(ctx, prompt)
	if err != nil {
		slog.Warn("conversation backend failed",
			slog.String("backend", d.backend.Name()),
			slog.Any("error", err))
		return fallback(err)
	}
	return reply
}

func replyFallback(err error) string {
	if err == nil {
		return OfflineReply
	}
	if _, ok := llm.StatusCode(err); ok {
		return RejectedReply
	}
	return FailureReply
}

func buildResponsePrompt(p models.Personality, userInput, role string, c Context) string {
	name := c.CandidateName
	if strings.TrimSpace(name) == "" {
		name = "Unknown"
	}
	question := c.CurrentQuestion
	if question < 1 {
		question = 1
	}

	var sb strings.Builder
	sb.WriteString(p.Prompt + "\n\n")
	sb.WriteString(fmt.Sprintf("You are interviewing a candidate for the position of %s.\n", role))
	sb.WriteString("Keep responses conversational and under 100 words.\n")
	sb.WriteString("Ask follow-up questions naturally.\n")
	sb.WriteString("Be encouraging and professional.\n\n")
	sb.WriteString("Current interview context:\n")
	sb.WriteString(fmt.Sprintf("- Candidate name: %s\n", name))
	sb.WriteString(fmt.Sprintf("- Role: %s\n", role))
	sb.WriteString(fmt.Sprintf("- Question number: %d\n\n", question))
	sb.WriteString(fmt.Sprintf("User said: %s\n\n", userInput))
	sb.WriteString("Respond as an interviewer:\n")
	return sb.String()
}

func buildFollowUpPrompt(answer, role, question string) string {
	var sb strings.Builder
	sb.WriteString("Based on this interview context:\n")
	sb.WriteString(fmt.Sprintf("- Role: %s\n", role))
	sb.WriteString(fmt.Sprintf("- Original question: %s\n", question))
	sb.WriteString(fmt.Sprintf("- Candidate's answer: %s\n\n", answer))
	sb.WriteString("Generate a brief, natural follow-up question (under 50 words) that:\n")
	sb.WriteString("1. Builds on their answer\n")
	sb.WriteString("2. Seeks more specific details\n")
	sb.WriteString("3. Stays relevant to the role\n\n")
	sb.WriteString(fmt.Sprintf("If the answer was complete, respond with %q\n", FollowUpFallback))
	return sb.String()
}
