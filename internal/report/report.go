// Package report turns a finished interview session into summaries and exports.
package report

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fmuoria/interview-agent/internal/models"
	"github.com/fmuoria/interview-agent/internal/scoring"
	"github.com/fmuoria/interview-agent/internal/session"
)

const fileTimeLayout = "20060102_150405"

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Summary is the results-page view of a session
type Summary struct {
	CandidateName     string                       `json:"candidate_name"`
	Role              string                       `json:"role"`
	CriterionAverages map[models.Criterion]float64 `json:"criterion_averages"`
	OverallScore      float64                      `json:"overall_score"`
	QuestionsAnswered int                          `json:"questions_answered"`
	TotalQuestions    int                          `json:"total_questions"`
	Narrative         string                       `json:"narrative"`
}

// Render computes the summary of a session
func Render(s models.Session) Summary {
	return Summary{
		CandidateName:     s.CandidateName,
		Role:              s.Role.Name,
		CriterionAverages: scoring.CriterionAverages(s.Scores),
		OverallScore:      scoring.OverallAverage(s.Scores),
		QuestionsAnswered: session.AnsweredCount(s),
		TotalQuestions:    len(s.Role.Questions),
		Narrative:         scoring.GenerateFinalReport(s.Scores, s.CandidateName, s.Role.Name),
	}
}

// Snapshot flattens a session into the downloadable report
func Snapshot(s models.Session, at time.Time) models.ReportSnapshot {
	return models.ReportSnapshot{
		SessionID:     s.ID,
		CandidateName: s.CandidateName,
		Role:          s.Role.Name,
		Personality:   s.Personality.Name,
		OverallScore:  scoring.OverallAverage(s.Scores),
		Questions:     append([]string{}, s.Role.Questions...),
		Answers:       append([]string{}, s.Answers...),
		Scores:        append([]models.ScoreRecord{}, s.Scores...),
		FinalReport:   scoring.GenerateFinalReport(s.Scores, s.CandidateName, s.Role.Name),
		Timestamp:     at.Format(time.RFC3339),
	}
}

// MarshalJSON encodes a snapshot with two-space indentation
func MarshalJSON(snapshot models.ReportSnapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}

// FileName returns the download name for a session's JSON report
func FileName(s models.Session, at time.Time) string {
	return fmt.Sprintf("interview_report_%s_%s.json", safeName(s.CandidateName), at.Format(fileTimeLayout))
}

func safeName(name string) string {
	name = strings.TrimSpace(name)
	name = unsafeFileChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	if name == "" {
		return "candidate"
	}
	return name
}
