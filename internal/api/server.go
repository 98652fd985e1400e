package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fmuoria/interview-agent/internal/agent"
	"github.com/fmuoria/interview-agent/internal/session"
	"github.com/fmuoria/interview-agent/internal/speech"
)

const maxBodyBytes = 1 << 20

// Server handles HTTP requests
type Server struct {
	agent *agent.InterviewAgent
}

// NewServer creates a new API server
func NewServer(agent *agent.InterviewAgent) *Server {
	return &Server{
		agent: agent,
	}
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /roles", s.handleRoles)
	mux.HandleFunc("GET /personalities", s.handlePersonalities)

	mux.HandleFunc("POST /session", s.handleStart)
	mux.HandleFunc("GET /session", s.handleSession)
	mux.HandleFunc("GET /session/question", s.handleQuestion)
	mux.HandleFunc("POST /session/answer", s.handleAnswer)
	mux.HandleFunc("POST /session/skip", s.handleSkip)
	mux.HandleFunc("POST /session/reset", s.handleReset)
	mux.HandleFunc("POST /session/listen", s.handleListen)

	mux.HandleFunc("POST /conversation/respond", s.handleRespond)
	mux.HandleFunc("POST /conversation/followup", s.handleFollowUp)
	mux.HandleFunc("POST /conversation/speak", s.handleSpeak)
	mux.HandleFunc("GET /conversation/transcript", s.handleTranscript)

	mux.HandleFunc("GET /camera/faces", s.handleFaces)

	mux.HandleFunc("GET /report", s.handleReport)
	mux.HandleFunc("GET /report/download", s.handleReportDownload)
	mux.HandleFunc("GET /report/xlsx", s.handleReportExcel)

	return s.loggingMiddleware(mux)
}

// handleRoot provides API information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "Interview Agent",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"GET /roles":                   "List interview roles",
			"GET /personalities":           "List interviewer personalities",
			"POST /session":                "Start an interview",
			"GET /session":                 "Current session state",
			"GET /session/question":        "Current question and progress",
			"POST /session/answer":         "Submit an answer",
			"POST /session/skip":           "Skip the current question",
			"POST /session/reset":          "Start over",
			"POST /session/listen":         "Record and transcribe a spoken answer",
			"POST /conversation/respond":   "Talk to the interviewer",
			"POST /conversation/followup":  "Ask for a follow-up question",
			"POST /conversation/speak":     "Read text aloud",
			"GET /conversation/transcript": "Conversation so far",
			"GET /camera/faces":            "Latest face detection result",
			"GET /report":                  "Results summary",
			"GET /report/download":         "Download the JSON report",
			"GET /report/xlsx":             "Download the Excel report",
			"GET /health":                  "Health check",
		},
	})
}

// handleHealth provides a health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"backend": s.agent.BackendName(),
	})
}

type roleInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Questions   int    `json:"questions"`
}

func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	c := s.agent.Catalog()
	roles := make([]roleInfo, 0)
	for _, name := range c.RoleNames() {
		role, _ := c.Role(name)
		roles = append(roles, roleInfo{Name: role.Name, Description: role.Description, Questions: len(role.Questions)})
	}
	s.respondJSON(w, http.StatusOK, roles)
}

func (s *Server) handlePersonalities(w http.ResponseWriter, r *http.Request) {
	c := s.agent.Catalog()
	out := make([]map[string]string, 0)
	for _, name := range c.PersonalityNames() {
		p, _ := c.Personality(name)
		out = append(out, map[string]string{"name": p.Name, "style": p.Style})
	}
	s.respondJSON(w, http.StatusOK, out)
}

type startRequest struct {
	CandidateName string `json:"candidate_name"`
	Role          string `json:"role"`
	Personality   string `json:"personality"`
}

// handleStart submits the setup form
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !s.decode(w, r, &req) {
		return
	}

	sess, err := s.agent.StartInterview(req.CandidateName, req.Role, req.Personality)
	if err != nil {
		s.respondAgentError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.agent.Session())
}

type questionResponse struct {
	Question string `json:"question,omitempty"`
	Index    int    `json:"index"`
	Total    int    `json:"total"`
	Progress string `json:"progress"`
	Active   bool   `json:"active"`
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	question, done, total, ok := s.agent.CurrentQuestion()
	s.respondJSON(w, http.StatusOK, questionResponse{
		Question: question,
		Index:    done,
		Total:    total,
		Progress: fmt.Sprintf("Question %d of %d", min(done+1, total), total),
		Active:   ok,
	})
}

type answerRequest struct {
	Answer string `json:"answer"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !s.decode(w, r, &req) {
		return
	}

	sess, err := s.agent.SubmitAnswer(r.Context(), req.Answer)
	if err != nil {
		s.respondAgentError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	sess, err := s.agent.SkipQuestion()
	if err != nil {
		s.respondAgentError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.agent.Reset())
}

type listenRequest struct {
	Seconds int `json:"seconds"`
}

func (s *Server) handleListen(w http.ResponseWriter, r *http.Request) {
	var req listenRequest
	if r.ContentLength != 0 && !s.decode(w, r, &req) {
		return
	}

	text, err := s.agent.Listen(r.Context(), time.Duration(req.Seconds)*time.Second)
	if err != nil {
		s.respondAgentError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"text": text})
}

type respondRequest struct {
	Input string `json:"input"`
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	var req respondRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		s.respondError(w, http.StatusBadRequest, "input is required")
		return
	}

	reply := s.agent.Respond(r.Context(), req.Input)
	s.respondJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) handleFollowUp(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !s.decode(w, r, &req) {
		return
	}

	reply, err := s.agent.FollowUp(r.Context(), req.Answer)
	if err != nil {
		s.respondAgentError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

type speakRequest struct {
	Text string `json:"text"`
}

// handleSpeak starts playback and returns without waiting for it
func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if !s.decode(w, r, &req) {
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		question, _, err := s.agent.AskQuestion()
		if err != nil {
			s.respondAgentError(w, err)
			return
		}
		text = question
	} else {
		s.agent.Speak(text)
	}

	s.respondJSON(w, http.StatusAccepted, map[string]string{"status": "speaking", "text": text})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.agent.Transcript())
}

func (s *Server) handleFaces(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.agent.Faces())
}

// handleReport returns the results summary
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	summary, err := s.agent.Summary()
	if err != nil {
		s.respondAgentError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleReportDownload(w http.ResponseWriter, r *http.Request) {
	data, name, err := s.agent.ReportJSON()
	if err != nil {
		s.respondAgentError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleReportExcel(w http.ResponseWriter, r *http.Request) {
	tmpDir, err := os.MkdirTemp("", "interview-report-*")
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer os.RemoveAll(tmpDir)

	path, err := s.agent.ExportExcel(filepath.Join(tmpDir, "interview_report.xlsx"))
	if err != nil {
		s.respondAgentError(w, err)
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read workbook: %v", err))
		return
	}

	name := strings.TrimSuffix(filepath.Base(path), ".xlsx")
	if sess := s.agent.Session(); sess.ID != "" {
		name = "interview_report_" + sess.ID
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".xlsx"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// decode reads a JSON request body, responding 400 on failure
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return false
	}
	return true
}

// respondAgentError maps agent errors onto HTTP status codes
func (s *Server) respondAgentError(w http.ResponseWriter, err error) {
	var ve *session.ValidationError
	switch {
	case errors.As(err, &ve):
		s.respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": ve.Message,
			"field": ve.Field,
		})
	case errors.Is(err, session.ErrNotInterviewing),
		errors.Is(err, agent.ErrNotFinished),
		errors.Is(err, agent.ErrNoQuestion):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, speech.ErrMicrophoneUnavailable):
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, speech.ErrNoSpeech):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error("Request failed", slog.Any("error", err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", slog.Any("error", err))
	}
}

// respondError sends an error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Info("HTTP request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote", r.RemoteAddr),
			slog.Duration("duration", time.Since(start)))
	})
}
