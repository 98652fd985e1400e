package agent

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmuoria/interview-agent/internal/capture"
	"github.com/fmuoria/interview-agent/internal/conversation"
	"github.com/fmuoria/interview-agent/internal/models"
	"github.com/fmuoria/interview-agent/internal/session"
	"github.com/fmuoria/interview-agent/internal/speech"
)

type stubBackend struct {
	reply string

	mu      sync.Mutex
	prompts []string
}

func (b *stubBackend) Name() string { return "stub" }
func (b *stubBackend) Available(ctx context.Context) bool { return true }
func (b *stubBackend) Generate(ctx context.Context, prompt string) (string, error) {
	b.mu.Lock()
	b.prompts = append(b.prompts, prompt)
	b.mu.Unlock()
	return b.reply, nil
}

func (b *stubBackend) lastPrompt() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.prompts) == 0 {
		return ""
	}
	return b.prompts[len(b.prompts)-1]
}

type stubCamera struct {
	mu       sync.Mutex
	startErr error
	starts   int
	stops    int
}

func (c *stubCamera) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErr != nil {
		return c.startErr
	}
	c.starts++
	return nil
}

func (c *stubCamera) Stop() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stops++
	return 42
}

func (c *stubCamera) LiveFrame() (image.Image, bool) {
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), true
}

func (c *stubCamera) Faces() capture.FaceAnalysis {
	return capture.FaceAnalysis{FacesDetected: 1, Present: true}
}

var fixedTime = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

func newTestAgent(opts Options) *InterviewAgent {
	opts.Now = func() time.Time { return fixedTime }
	return NewInterviewAgent(opts)
}

const goodAnswer = "I worked on a project where our team needed a solution for slow builds, so my approach was to measure first"

func finishInterview(t *testing.T, a *InterviewAgent) models.Session {
	t.Helper()
	_, err := a.StartInterview("Ada Lovelace", "Software Engineer", "Professional")
	require.NoError(t, err)

	var s models.Session
	for i := 0; i < 4; i++ {
		s, err = a.SubmitAnswer(context.Background(), goodAnswer)
		require.NoError(t, err)
	}
	s, err = a.SkipQuestion()
	require.NoError(t, err)
	return s
}

func TestNewInterviewAgent(t *testing.T) {
	a := newTestAgent(Options{})
	assert.Equal(t, models.PageSetup, a.Session().Page)
	assert.Equal(t, HeuristicBackend, a.BackendName())
	assert.NotEmpty(t, a.Catalog().RoleNames())

	_, _, _, ok := a.CurrentQuestion()
	assert.False(t, ok)
}

func TestInterviewFlow(t *testing.T) {
	a := newTestAgent(Options{})

	var messages []string
	a.SetProgressCallback(func(current, total int, message string) {
		messages = append(messages, message)
		assert.Equal(t, 5, total)
	})

	s := finishInterview(t, a)
	assert.Equal(t, models.PageResults, s.Page)
	assert.Len(t, s.Answers, 5)
	assert.Equal(t, session.SkippedAnswer, s.Answers[4])
	assert.Equal(t, "Professional", s.Personality.Name)
	assert.NotEmpty(t, s.ID)

	require.Len(t, messages, 6)
	assert.Equal(t, "Interview for Software Engineer started", messages[0])
	assert.Equal(t, "Interview complete!", messages[5])

	sum, err := a.Summary()
	require.NoError(t, err)
	assert.Equal(t, 4, sum.QuestionsAnswered)
	assert.Equal(t, 5, sum.TotalQuestions)
	assert.Contains(t, sum.Narrative, "# Interview Report for Ada Lovelace")
}

func TestStartInterviewValidation(t *testing.T) {
	a := newTestAgent(Options{})

	s, err := a.StartInterview("  ", "Software Engineer", "")
	assert.True(t, session.IsValidation(err))
	assert.Equal(t, models.PageSetup, s.Page)

	_, err = a.StartInterview("Bo", "Astronaut", "")
	assert.True(t, session.IsValidation(err))
	assert.Equal(t, models.PageSetup, a.Session().Page)
}

func TestSubmitOutsideInterview(t *testing.T) {
	a := newTestAgent(Options{})

	_, err := a.SubmitAnswer(context.Background(), "hello")
	assert.ErrorIs(t, err, session.ErrNotInterviewing)

	_, err = a.SkipQuestion()
	assert.ErrorIs(t, err, session.ErrNotInterviewing)
}

func TestSubmitBlankAnswer(t *testing.T) {
	a := newTestAgent(Options{})
	_, err := a.StartInterview("Ada", "Data Scientist", "")
	require.NoError(t, err)

	s, err := a.SubmitAnswer(context.Background(), "   ")
	assert.True(t, session.IsValidation(err))
	assert.Equal(t, 0, s.CurrentQuestionIndex)
}

func TestReportBeforeResults(t *testing.T) {
	a := newTestAgent(Options{})

	_, err := a.Summary()
	assert.ErrorIs(t, err, ErrNotFinished)
	_, err = a.GetReport()
	assert.ErrorIs(t, err, ErrNotFinished)
	_, _, err = a.ReportJSON()
	assert.ErrorIs(t, err, ErrNotFinished)
	_, err = a.ExportExcel(filepath.Join(t.TempDir(), "r.xlsx"))
	assert.ErrorIs(t, err, ErrNotFinished)
}

func TestReportJSONAndSave(t *testing.T) {
	a := newTestAgent(Options{})
	finishInterview(t, a)

	data, name, err := a.ReportJSON()
	require.NoError(t, err)
	assert.Equal(t, "interview_report_Ada_Lovelace_20240501_103000.json", name)

	var decoded models.ReportSnapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Ada Lovelace", decoded.CandidateName)
	assert.Equal(t, "2024-05-01T10:30:00Z", decoded.Timestamp)
	assert.Len(t, decoded.Scores, 5)

	dir := filepath.Join(t.TempDir(), "reports")
	path, err := a.SaveReport(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, name), path)

	saved, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, saved)

	xlsx, err := a.ExportExcel(filepath.Join(t.TempDir(), "report"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(xlsx, ".xlsx"))
}

func TestBackendScoring(t *testing.T) {
	backend := &stubBackend{reply: `Scores: {"relevance": 9, "depth": 8, "communication": 7, "experience": 6, "problem_solving": 5}`}
	a := newTestAgent(Options{Backend: backend})
	assert.Equal(t, "stub", a.BackendName())

	_, err := a.StartInterview("Ada", "Software Engineer", "")
	require.NoError(t, err)
	s, err := a.SubmitAnswer(context.Background(), goodAnswer)
	require.NoError(t, err)

	require.Len(t, s.Scores, 1)
	assert.Equal(t, 9, s.Scores[0].Scores[models.Relevance])
	assert.InDelta(t, 7.0, s.Scores[0].OverallScore, 1e-9)
}

func TestRespondAndTranscript(t *testing.T) {
	a := newTestAgent(Options{})
	_, err := a.StartInterview("Ada", "Software Engineer", "")
	require.NoError(t, err)

	reply := a.Respond(context.Background(), "Could you repeat the question?")
	assert.Equal(t, conversation.OfflineReply, reply)

	transcript := a.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, "user", transcript[0].Role)

	a.Reset()
	assert.Empty(t, a.Transcript())
	assert.Equal(t, models.PageSetup, a.Session().Page)
}

func TestRespondPromptCarriesQuestionNumber(t *testing.T) {
	backend := &stubBackend{reply: "Good, tell me more."}
	a := newTestAgent(Options{Backend: backend})

	_, err := a.StartInterview("Ada", "Software Engineer", "")
	require.NoError(t, err)

	assert.Equal(t, "Good, tell me more.", a.Respond(context.Background(), "Hello"))
	assert.Contains(t, backend.lastPrompt(), "- Question number: 1\n")
	assert.Contains(t, backend.lastPrompt(), "- Candidate name: Ada\n")

	_, err = a.SubmitAnswer(context.Background(), goodAnswer)
	require.NoError(t, err)

	a.Respond(context.Background(), "Can you clarify?")
	assert.Contains(t, backend.lastPrompt(), "- Question number: 2\n")
	assert.Contains(t, backend.lastPrompt(), "User said: Can you clarify?")
}

func TestFollowUp(t *testing.T) {
	a := newTestAgent(Options{})

	_, err := a.FollowUp(context.Background(), "answer")
	assert.ErrorIs(t, err, ErrNoQuestion)

	finishInterview(t, a)
	reply, err := a.FollowUp(context.Background(), "answer")
	require.NoError(t, err)
	assert.Equal(t, conversation.FollowUpFallback, reply)
}

func TestAskQuestion(t *testing.T) {
	a := newTestAgent(Options{})

	_, _, err := a.AskQuestion()
	assert.ErrorIs(t, err, ErrNoQuestion)

	_, err = a.StartInterview("Ada", "UX Designer", "")
	require.NoError(t, err)

	question, done, err := a.AskQuestion()
	require.NoError(t, err)
	assert.NotEmpty(t, question)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("speech without a speaker should finish immediately")
	}
}

func TestCameraLifecycle(t *testing.T) {
	cam := &stubCamera{}
	a := newTestAgent(Options{Camera: cam})

	finishInterview(t, a)
	assert.Equal(t, 1, cam.starts)
	assert.Equal(t, 1, cam.stops)

	a.Reset()
	assert.Equal(t, 1, cam.stops)

	_, ok := a.CameraFrame()
	assert.True(t, ok)
	assert.True(t, a.Faces().Present)
}

func TestCameraStartFailure(t *testing.T) {
	cam := &stubCamera{startErr: capture.ErrCameraUnavailable}
	a := newTestAgent(Options{Camera: cam})

	_, err := a.StartInterview("Ada", "Software Engineer", "")
	require.NoError(t, err)
	require.NoError(t, a.Close())
	assert.Zero(t, cam.stops)
}

func TestWithoutCamera(t *testing.T) {
	a := newTestAgent(Options{})
	_, ok := a.CameraFrame()
	assert.False(t, ok)
	assert.False(t, a.Faces().Present)
}

func TestListenWithoutMicrophone(t *testing.T) {
	a := newTestAgent(Options{})
	_, err := a.Listen(context.Background(), time.Second)
	assert.True(t, errors.Is(err, speech.ErrMicrophoneUnavailable))
}
