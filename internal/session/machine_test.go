package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmuoria/interview-agent/internal/catalog"
	"github.com/fmuoria/interview-agent/internal/models"
	"github.com/fmuoria/interview-agent/internal/scoring"
)

type countingScorer struct {
	calls int
}

func (c *countingScorer) Score(ctx context.Context, question, answer, role string) models.ScoreRecord {
	c.calls++
	return scoring.FallbackScore(answer)
}

func newMachine() (*Machine, *countingScorer) {
	sc := &countingScorer{}
	return NewMachine(catalog.Default(), sc), sc
}

func started(t *testing.T, m *Machine) models.Session {
	t.Helper()
	s, err := m.Start(m.New(), "Ada", "Software Engineer", "Technical")
	require.NoError(t, err)
	return s
}

func assertInvariant(t *testing.T, s models.Session) {
	t.Helper()
	assert.Equal(t, s.CurrentQuestionIndex, len(s.Answers))
	assert.Equal(t, s.CurrentQuestionIndex, len(s.Scores))
}

func TestStartValidation(t *testing.T) {
	m, _ := newMachine()

	tests := []struct {
		name      string
		candidate string
		role      string
		field     string
	}{
		{"Blank name", "   ", "Software Engineer", "candidate_name"},
		{"Missing role", "Ada", "", "role"},
		{"Unknown role", "Ada", "Astronaut", "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := m.New()
			out, err := m.Start(in, tt.candidate, tt.role, "Friendly")

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
			assert.True(t, IsValidation(err))
			assert.Equal(t, in, out)
		})
	}
}

func TestStartEntersInterview(t *testing.T) {
	m, _ := newMachine()
	s := started(t, m)

	assert.Equal(t, models.PageInterview, s.Page)
	assert.Equal(t, "Ada", s.CandidateName)
	assert.Equal(t, "Technical", s.Personality.Name)
	assert.NotEmpty(t, s.ID)
	assertInvariant(t, s)

	q, ok := CurrentQuestion(s)
	require.True(t, ok)
	assert.Equal(t, "Tell me about your experience with programming languages?", q)

	_, err := m.Start(s, "Bo", "UX Designer", "")
	assert.ErrorIs(t, err, ErrNotInterviewing)
}

func TestStartUnknownPersonalityFallsBack(t *testing.T) {
	m, _ := newMachine()
	s, err := m.Start(m.New(), "Ada", "Data Scientist", "Grumpy")
	require.NoError(t, err)
	assert.Equal(t, catalog.DefaultPersonality, s.Personality.Name)
}

func TestSubmitBlankAnswer(t *testing.T) {
	m, sc := newMachine()
	s := started(t, m)

	out, err := m.Submit(context.Background(), s, "  \n ")
	assert.True(t, IsValidation(err))
	assert.Equal(t, s, out)
	assert.Zero(t, sc.calls)
}

func TestFullInterviewReachesResults(t *testing.T) {
	m, sc := newMachine()
	s := started(t, m)
	total := len(s.Role.Questions)

	var err error
	for i := 0; i < total; i++ {
		if i%2 == 0 {
			s, err = m.Submit(context.Background(), s, "I worked on a project with my team")
		} else {
			s, err = m.Skip(s)
		}
		require.NoError(t, err)
		assertInvariant(t, s)
	}

	assert.Equal(t, models.PageResults, s.Page)
	assert.Len(t, s.Answers, total)
	assert.Equal(t, 3, sc.calls)
	assert.Equal(t, 3, AnsweredCount(s))
	assert.Equal(t, SkippedAnswer, s.Answers[1])
	assert.True(t, scoring.IsSkipped(s.Scores[1]))

	done, all := Progress(s)
	assert.Equal(t, total, done)
	assert.Equal(t, total, all)

	_, ok := CurrentQuestion(s)
	assert.False(t, ok)
}

func TestSubmitAndSkipAfterResultsAreNoOps(t *testing.T) {
	m, _ := newMachine()
	s := started(t, m)
	for range s.Role.Questions {
		var err error
		s, err = m.Skip(s)
		require.NoError(t, err)
	}

	out, err := m.Skip(s)
	assert.ErrorIs(t, err, ErrNotInterviewing)
	assert.Equal(t, s, out)

	out, err = m.Submit(context.Background(), s, "late answer")
	assert.ErrorIs(t, err, ErrNotInterviewing)
	assert.Equal(t, s, out)

	_, err = m.Skip(m.New())
	assert.ErrorIs(t, err, ErrNotInterviewing)
}

func TestSkipAlwaysAdvancesByOne(t *testing.T) {
	m, _ := newMachine()
	s := started(t, m)

	next, err := m.Skip(s)
	require.NoError(t, err)
	assert.Equal(t, s.CurrentQuestionIndex+1, next.CurrentQuestionIndex)
	assert.Equal(t, []string{SkippedAnswer}, next.Answers)
	assert.Zero(t, next.Scores[0].OverallScore)
}

func TestTransitionsDoNotAliasInput(t *testing.T) {
	m, _ := newMachine()
	s := started(t, m)

	a, err := m.Submit(context.Background(), s, "first answer")
	require.NoError(t, err)
	b, err := m.Skip(a)
	require.NoError(t, err)
	c, err := m.Submit(context.Background(), a, "different answer")
	require.NoError(t, err)

	assert.Len(t, a.Answers, 1)
	assert.Equal(t, SkippedAnswer, b.Answers[1])
	assert.Equal(t, "different answer", c.Answers[1])
	assert.Empty(t, s.Answers)
}

func TestAnsweredCountTrustsScoresNotText(t *testing.T) {
	m, _ := newMachine()
	s := started(t, m)

	s, err := m.Submit(context.Background(), s, SkippedAnswer)
	require.NoError(t, err)
	s, err = m.Skip(s)
	require.NoError(t, err)

	assert.Equal(t, SkippedAnswer, s.Answers[0])
	assert.Equal(t, SkippedAnswer, s.Answers[1])
	assert.Equal(t, 1, AnsweredCount(s))
}

func TestReset(t *testing.T) {
	m, _ := newMachine()
	s := started(t, m)
	s, _ = m.Skip(s)

	fresh := m.Reset()
	assert.Equal(t, models.PageSetup, fresh.Page)
	assert.Empty(t, fresh.Answers)
	assert.Zero(t, fresh.CurrentQuestionIndex)
	assert.Empty(t, fresh.CandidateName)
}

func TestSubmitWithoutScorerUsesHeuristic(t *testing.T) {
	m := NewMachine(catalog.Default(), nil)
	s, err := m.Start(m.New(), "Ada", "UX Designer", "")
	require.NoError(t, err)

	s, err = m.Submit(context.Background(), s, "I prototype with Figma")
	require.NoError(t, err)
	assert.Equal(t, scoring.FallbackScore("I prototype with Figma"), s.Scores[0])
}
