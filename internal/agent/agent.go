package agent

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fmuoria/interview-agent/internal/capture"
	"github.com/fmuoria/interview-agent/internal/catalog"
	"github.com/fmuoria/interview-agent/internal/conversation"
	"github.com/fmuoria/interview-agent/internal/export"
	"github.com/fmuoria/interview-agent/internal/llm"
	"github.com/fmuoria/interview-agent/internal/models"
	"github.com/fmuoria/interview-agent/internal/report"
	"github.com/fmuoria/interview-agent/internal/scoring"
	"github.com/fmuoria/interview-agent/internal/session"
	"github.com/fmuoria/interview-agent/internal/speech"
)

// HeuristicBackend is reported as the backend name when no model is reachable
const HeuristicBackend = "heuristic"

var (
	// ErrNotFinished is returned when a report is requested before the results page
	ErrNotFinished = errors.New("interview not finished")
	// ErrNoQuestion is returned when there is no current question to act on
	ErrNoQuestion = errors.New("no current question")
)

// ProgressCallback is called to report progress through the interview
type ProgressCallback func(current, total int, message string)

// Camera is the capture surface used during an interview
type Camera interface {
	Start(ctx context.Context) error
	Stop() int
	LiveFrame() (image.Image, bool)
	Faces() capture.FaceAnalysis
}

// Options wires the agent's collaborators. Only Catalog is required.
type Options struct {
	Catalog *catalog.Catalog
	// Backend is nil when no model is reachable; scoring and conversation fall back to heuristics
	Backend     llm.Backend
	Speaker     conversation.Speaker
	Camera      Camera
	Microphone  speech.Recorder
	Transcriber speech.Transcriber
	Now         func() time.Time
}

// InterviewAgent drives a single interview session
type InterviewAgent struct {
	catalog     *catalog.Catalog
	backend     llm.Backend
	speaker     conversation.Speaker
	machine     *session.Machine
	camera      Camera
	microphone  speech.Recorder
	transcriber speech.Transcriber
	now         func() time.Time

	mu           sync.RWMutex
	session      models.Session
	driver       *conversation.Driver
	cameraCancel context.CancelFunc
	progressCb   ProgressCallback
}

// NewInterviewAgent creates an agent on the setup page
func NewInterviewAgent(opts Options) *InterviewAgent {
	c := opts.Catalog
	if c == nil {
		c = catalog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	machine := session.NewMachine(c, scoring.NewScorer(opts.Backend))
	return &InterviewAgent{
		catalog:     c,
		backend:     opts.Backend,
		speaker:     opts.Speaker,
		machine:     machine,
		camera:      opts.Camera,
		microphone:  opts.Microphone,
		transcriber: opts.Transcriber,
		now:         now,
		session:     machine.New(),
		driver:      conversation.New(c.PersonalityOrDefault(catalog.DefaultPersonality), opts.Backend, opts.Speaker),
	}
}

// SetProgressCallback sets the progress callback function
func (a *InterviewAgent) SetProgressCallback(cb ProgressCallback) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.progressCb = cb
}

// reportProgress calls the progress callback if set
func (a *InterviewAgent) reportProgress(s models.Session, message string) {
	a.mu.RLock()
	cb := a.progressCb
	a.mu.RUnlock()

	if cb != nil {
		done, total := session.Progress(s)
		cb(done, total, message)
	}
}

// Catalog returns the question bank in use
func (a *InterviewAgent) Catalog() *catalog.Catalog {
	return a.catalog
}

// BackendName returns the negotiated backend, or "heuristic" when there is none
func (a *InterviewAgent) BackendName() string {
	if a.backend == nil {
		return HeuristicBackend
	}
	return a.backend.Name()
}

// Session returns a copy of the current session (thread-safe)
func (a *InterviewAgent) Session() models.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session.Clone()
}

// CurrentQuestion returns the question being asked and the progress so far
func (a *InterviewAgent) CurrentQuestion() (question string, done, total int, ok bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	question, ok = session.CurrentQuestion(a.session)
	done, total = session.Progress(a.session)
	return question, done, total, ok
}

// StartInterview validates the setup form and moves to the interview page
func (a *InterviewAgent) StartInterview(candidateName, role, personality string) (models.Session, error) {
	a.mu.Lock()
	next, err := a.machine.Start(a.session, candidateName, role, personality)
	if err != nil {
		cur := a.session.Clone()
		a.mu.Unlock()
		return cur, err
	}
	a.session = next
	a.driver = conversation.New(next.Personality, a.backend, a.speaker)
	a.mu.Unlock()

	slog.Info("Interview started",
		slog.String("session", next.ID),
		slog.String("role", next.Role.Name),
		slog.String("personality", next.Personality.Name),
		slog.String("backend", a.BackendName()))

	a.startCamera()
	a.reportProgress(next, fmt.Sprintf("Interview for %s started", next.Role.Name))
	return next.Clone(), nil
}

// SubmitAnswer scores the answer to the current question and advances
func (a *InterviewAgent) SubmitAnswer(ctx context.Context, answer string) (models.Session, error) {
	a.mu.Lock()
	next, err := a.machine.Submit(ctx, a.session, answer)
	if err != nil {
		cur := a.session.Clone()
		a.mu.Unlock()
		return cur, err
	}
	a.session = next
	a.mu.Unlock()

	last := next.Scores[len(next.Scores)-1]
	slog.Info("Answer scored",
		slog.String("session", next.ID),
		slog.Int("question", next.CurrentQuestionIndex),
		slog.Float64("overall", last.OverallScore))

	a.afterTransition(next, "Answer submitted")
	return next.Clone(), nil
}

// SkipQuestion records a skipped answer and advances
func (a *InterviewAgent) SkipQuestion() (models.Session, error) {
	a.mu.Lock()
	next, err := a.machine.Skip(a.session)
	if err != nil {
		cur := a.session.Clone()
		a.mu.Unlock()
		return cur, err
	}
	a.session = next
	a.mu.Unlock()

	slog.Info("Question skipped", slog.String("session", next.ID), slog.Int("question", next.CurrentQuestionIndex))
	a.afterTransition(next, "Question skipped")
	return next.Clone(), nil
}

func (a *InterviewAgent) afterTransition(s models.Session, message string) {
	if s.Page == models.PageResults {
		a.stopCamera()
		message = "Interview complete!"
	}
	a.reportProgress(s, message)
}

// Reset abandons the current session and returns to the setup page
func (a *InterviewAgent) Reset() models.Session {
	a.stopCamera()

	a.mu.Lock()
	a.session = a.machine.Reset()
	a.driver.Reset()
	s := a.session.Clone()
	a.mu.Unlock()

	a.reportProgress(s, "New interview")
	return s
}

// Respond generates the interviewer's reply to free-form candidate input
func (a *InterviewAgent) Respond(ctx context.Context, input string) string {
	a.mu.RLock()
	driver := a.driver
	s := a.session
	a.mu.RUnlock()

	return driver.GenerateResponse(ctx, input, s.Role.Name, conversation.Context{
		CandidateName:   s.CandidateName,
		CurrentQuestion: s.CurrentQuestionIndex + 1,
	})
}

// FollowUp generates a follow-up to an answer on the most recent question
func (a *InterviewAgent) FollowUp(ctx context.Context, answer string) (string, error) {
	a.mu.RLock()
	driver := a.driver
	s := a.session
	a.mu.RUnlock()

	question, ok := session.CurrentQuestion(s)
	if !ok {
		if s.CurrentQuestionIndex == 0 || s.CurrentQuestionIndex > len(s.Role.Questions) {
			return "", ErrNoQuestion
		}
		question = s.Role.Questions[s.CurrentQuestionIndex-1]
	}
	return driver.GenerateFollowUp(ctx, answer, s.Role.Name, question), nil
}

// Speak reads text aloud without blocking. The channel closes when playback ends.
func (a *InterviewAgent) Speak(text string) <-chan struct{} {
	a.mu.RLock()
	driver := a.driver
	a.mu.RUnlock()
	return driver.Speak(text)
}

// AskQuestion reads the current question aloud
func (a *InterviewAgent) AskQuestion() (string, <-chan struct{}, error) {
	question, _, _, ok := a.CurrentQuestion()
	if !ok {
		return "", nil, ErrNoQuestion
	}
	return question, a.Speak(question), nil
}

// Transcript returns the conversation so far
func (a *InterviewAgent) Transcript() []models.TranscriptEntry {
	a.mu.RLock()
	driver := a.driver
	a.mu.RUnlock()
	return driver.Transcript()
}

// Listen records a spoken answer and returns its transcript
func (a *InterviewAgent) Listen(ctx context.Context, d time.Duration) (string, error) {
	if d <= 0 {
		d = speech.DefaultListenTimeout
	}
	return speech.Listen(ctx, a.microphone, a.transcriber, d)
}

// CameraFrame returns the next live frame when the camera is running
func (a *InterviewAgent) CameraFrame() (image.Image, bool) {
	if a.camera == nil {
		return nil, false
	}
	return a.camera.LiveFrame()
}

// Faces returns the face analysis of the latest camera frame
func (a *InterviewAgent) Faces() capture.FaceAnalysis {
	if a.camera == nil {
		return capture.FaceAnalysis{}
	}
	return a.camera.Faces()
}

func (a *InterviewAgent) startCamera() {
	if a.camera == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := a.camera.Start(ctx); err != nil {
		cancel()
		slog.Warn("Camera unavailable, continuing without video", slog.Any("error", err))
		return
	}

	a.mu.Lock()
	a.cameraCancel = cancel
	a.mu.Unlock()
}

func (a *InterviewAgent) stopCamera() {
	a.mu.Lock()
	cancel := a.cameraCancel
	a.cameraCancel = nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	frames := a.camera.Stop()
	cancel()
	slog.Info("Camera stopped", slog.Int("frames", frames))
}

// Summary returns the results-page summary
func (a *InterviewAgent) Summary() (report.Summary, error) {
	s, err := a.finished()
	if err != nil {
		return report.Summary{}, err
	}
	return report.Render(s), nil
}

// GetReport returns the downloadable report of a finished interview
func (a *InterviewAgent) GetReport() (models.ReportSnapshot, error) {
	s, err := a.finished()
	if err != nil {
		return models.ReportSnapshot{}, err
	}
	return report.Snapshot(s, a.now()), nil
}

// ReportJSON returns the encoded report and its download file name
func (a *InterviewAgent) ReportJSON() ([]byte, string, error) {
	s, err := a.finished()
	if err != nil {
		return nil, "", err
	}

	at := a.now()
	data, err := report.MarshalJSON(report.Snapshot(s, at))
	if err != nil {
		return nil, "", err
	}
	return data, report.FileName(s, at), nil
}

// SaveReport writes the JSON report into dir and returns its path
func (a *InterviewAgent) SaveReport(dir string) (string, error) {
	data, name, err := a.ReportJSON()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	slog.Info("Report saved", slog.String("path", path))
	return path, nil
}

// ExportExcel writes the report workbook to outputPath and returns the path written
func (a *InterviewAgent) ExportExcel(outputPath string) (string, error) {
	snapshot, err := a.GetReport()
	if err != nil {
		return "", err
	}
	return export.ExportToExcel(snapshot, outputPath)
}

func (a *InterviewAgent) finished() (models.Session, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.session.Page != models.PageResults {
		return models.Session{}, ErrNotFinished
	}
	return a.session.Clone(), nil
}

// Close cleans up resources
func (a *InterviewAgent) Close() error {
	a.stopCamera()
	if closer, ok := a.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
