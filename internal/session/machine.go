// Package session implements the interview wizard as pure state transitions.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fmuoria/interview-agent/internal/catalog"
	"github.com/fmuoria/interview-agent/internal/models"
	"github.com/fmuoria/interview-agent/internal/scoring"
)

// SkippedAnswer is recorded in place of an answer for a skipped question
const SkippedAnswer = "Skipped"

// ErrNotInterviewing is returned by Submit and Skip outside an active interview
var ErrNotInterviewing = errors.New("no interview in progress")

// ValidationError is a user-correctable input problem
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AnswerScorer scores a single answer
type AnswerScorer interface {
	Score(ctx context.Context, question, answer, role string) models.ScoreRecord
}

// Machine applies interview transitions. Every transition takes a session
// and returns a new one; inputs are never modified.
type Machine struct {
	catalog *catalog.Catalog
	scorer  AnswerScorer
	now     func() time.Time
}

// NewMachine creates a state machine over a catalog and scorer
func NewMachine(c *catalog.Catalog, scorer AnswerScorer) *Machine {
	return &Machine{catalog: c, scorer: scorer, now: time.Now}
}

// New returns a fresh session on the setup page
func (m *Machine) New() models.Session {
	return models.Session{Page: models.PageSetup}
}

// Reset discards a session and starts over
func (m *Machine) Reset() models.Session {
	return m.New()
}

// Start validates the setup form and moves to the interview page
func (m *Machine) Start(s models.Session, candidateName, role, personality string) (models.Session, error) {
	if s.Page != models.PageSetup {
		return s, fmt.Errorf("%w: session already started", ErrNotInterviewing)
	}

	name := strings.TrimSpace(candidateName)
	if name == "" {
		return s, &ValidationError{Field: "candidate_name", Message: "Please enter your name"}
	}
	if strings.TrimSpace(role) == "" {
		return s, &ValidationError{Field: "role", Message: "Please select a role"}
	}

	r, ok := m.catalog.Role(role)
	if !ok {
		return s, &ValidationError{Field: "role", Message: fmt.Sprintf("Unknown role %q", role)}
	}

	next := s.Clone()
	next.ID = uuid.NewString()
	next.CandidateName = name
	next.Role = r
	next.Personality = m.catalog.PersonalityOrDefault(personality)
	next.CurrentQuestionIndex = 0
	next.Answers = []string{}
	next.Scores = []models.ScoreRecord{}
	next.Page = models.PageInterview
	next.StartedAt = m.now()
	return next, nil
}

// Submit scores an answer to the current question and advances
func (m *Machine) Submit(ctx context.Context, s models.Session, answer string) (models.Session, error) {
	question, ok := CurrentQuestion(s)
	if !ok {
		return s, ErrNotInterviewing
	}
	if strings.TrimSpace(answer) == "" {
		return s, &ValidationError{Field: "answer", Message: "Please provide an answer before submitting"}
	}

	var rec models.ScoreRecord
	if m.scorer != nil {
		rec = m.scorer.Score(ctx, question, answer, s.Role.Name)
	} else {
		rec = scoring.FallbackScore(answer)
	}
	return advance(s, answer, rec), nil
}

// Skip records the current question as skipped and advances
func (m *Machine) Skip(s models.Session) (models.Session, error) {
	if _, ok := CurrentQuestion(s); !ok {
		return s, ErrNotInterviewing
	}
	return advance(s, SkippedAnswer, scoring.SkippedRecord()), nil
}

func advance(s models.Session, answer string, rec models.ScoreRecord) models.Session {
	next := s.Clone()
	next.Answers = append(next.Answers, answer)
	next.Scores = append(next.Scores, rec)
	next.CurrentQuestionIndex++
	if next.CurrentQuestionIndex >= len(next.Role.Questions) {
		next.Page = models.PageResults
	}
	return next
}

// CurrentQuestion returns the question awaiting an answer
func CurrentQuestion(s models.Session) (string, bool) {
	if s.Page != models.PageInterview {
		return "", false
	}
	if s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(s.Role.Questions) {
		return "", false
	}
	return s.Role.Questions[s.CurrentQuestionIndex], true
}

// Progress returns how many questions were handled out of the total
func Progress(s models.Session) (done, total int) {
	return s.CurrentQuestionIndex, len(s.Role.Questions)
}

// AnsweredCount counts questions whose score is not the skip sentinel
func AnsweredCount(s models.Session) int {
	n := 0
	for _, rec := range s.Scores {
		if !scoring.IsSkipped(rec) {
			n++
		}
	}
	return n
}
