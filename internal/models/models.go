package models

import "time"

// Criterion names one of the fixed evaluation dimensions of an answer
type Criterion string

const (
	Relevance      Criterion = "relevance"
	Depth          Criterion = "depth"
	Communication  Criterion = "communication"
	Experience     Criterion = "experience"
	ProblemSolving Criterion = "problem_solving"
)

// Criteria lists every criterion in report order
var Criteria = []Criterion{Relevance, Depth, Communication, Experience, ProblemSolving}

// Title returns a human readable label for the criterion
func (c Criterion) Title() string {
	switch c {
	case Relevance:
		return "Relevance"
	case Depth:
		return "Depth"
	case Communication:
		return "Communication"
	case Experience:
		return "Experience"
	case ProblemSolving:
		return "Problem-solving"
	default:
		return string(c)
	}
}

// Role is a static catalog entry describing an interview position
type Role struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Questions   []string `json:"questions" yaml:"questions"`
}

// Personality is a static interviewer style
type Personality struct {
	Name   string `json:"name" yaml:"name"`
	Style  string `json:"style" yaml:"style"`
	Prompt string `json:"prompt" yaml:"prompt"`
}

// ScoreRecord is the evaluation of a single answer.
// OverallScore is always the mean of Scores.
type ScoreRecord struct {
	Scores       map[Criterion]int    `json:"scores"`
	Feedback     map[Criterion]string `json:"feedback,omitempty"`
	OverallScore float64              `json:"overall_score"`
	Summary      string               `json:"summary"`
}

// NewScoreRecord builds a record and computes its overall score
func NewScoreRecord(scores map[Criterion]int, feedback map[Criterion]string, summary string) ScoreRecord {
	return ScoreRecord{
		Scores:       scores,
		Feedback:     feedback,
		OverallScore: MeanScore(scores),
		Summary:      summary,
	}
}

// MeanScore averages the fixed criteria; missing criteria count as zero
func MeanScore(scores map[Criterion]int) float64 {
	total := 0
	for _, c := range Criteria {
		total += scores[c]
	}
	return float64(total) / float64(len(Criteria))
}

// Page is a step of the interview wizard
type Page string

const (
	PageSetup     Page = "setup"
	PageInterview Page = "interview"
	PageResults   Page = "results"
)

// Session is one candidate's interview.
// len(Answers) == len(Scores) == CurrentQuestionIndex at all times.
type Session struct {
	ID                   string        `json:"id"`
	CandidateName        string        `json:"candidate_name"`
	Role                 Role          `json:"role"`
	Personality          Personality   `json:"personality"`
	CurrentQuestionIndex int           `json:"current_question_index"`
	Answers              []string      `json:"answers"`
	Scores               []ScoreRecord `json:"scores"`
	Page                 Page          `json:"page"`
	StartedAt            time.Time     `json:"started_at"`
}

// Clone returns a copy that shares no slices with s
func (s Session) Clone() Session {
	c := s
	c.Answers = append([]string(nil), s.Answers...)
	c.Scores = append([]ScoreRecord(nil), s.Scores...)
	c.Role.Questions = append([]string(nil), s.Role.Questions...)
	return c
}

// TranscriptEntry is one line of the interviewer conversation
type TranscriptEntry struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ReportSnapshot is the downloadable interview report
type ReportSnapshot struct {
	SessionID     string        `json:"session_id"`
	CandidateName string        `json:"candidate_name"`
	Role          string        `json:"role"`
	Personality   string        `json:"personality"`
	OverallScore  float64       `json:"overall_score"`
	Questions     []string      `json:"questions"`
	Answers       []string      `json:"answers"`
	Scores        []ScoreRecord `json:"scores"`
	FinalReport   string        `json:"final_report"`
	Timestamp     string        `json:"timestamp"`
}
