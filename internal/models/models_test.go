package models

import (
	"encoding/json"
	"testing"
)

func TestMeanScore(t *testing.T) {
	tests := []struct {
		name   string
		scores map[Criterion]int
		want   float64
	}{
		{
			name:   "All criteria present",
			scores: map[Criterion]int{Relevance: 4, Depth: 2, Communication: 8, Experience: 6, ProblemSolving: 5},
			want:   5.0,
		},
		{
			name:   "Skip sentinel",
			scores: map[Criterion]int{Relevance: 0, Depth: 0, Communication: 0, Experience: 0, ProblemSolving: 0},
			want:   0,
		},
		{
			name:   "Missing criteria count as zero",
			scores: map[Criterion]int{Relevance: 10},
			want:   2.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MeanScore(tt.scores); got != tt.want {
				t.Errorf("MeanScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewScoreRecordComputesOverall(t *testing.T) {
	rec := NewScoreRecord(map[Criterion]int{Relevance: 7, Depth: 6, Communication: 7, Experience: 6, ProblemSolving: 6}, nil, "ok")
	if rec.OverallScore != 6.4 {
		t.Errorf("Expected overall 6.4, got %v", rec.OverallScore)
	}
}

func TestSessionCloneDoesNotShareSlices(t *testing.T) {
	s := Session{
		Role:    Role{Name: "UX Designer", Questions: []string{"q1", "q2"}},
		Answers: make([]string, 1, 4),
		Scores:  make([]ScoreRecord, 1, 4),
	}
	c := s.Clone()
	c.Answers = append(c.Answers, "second")
	c.Role.Questions[0] = "changed"

	if s.Role.Questions[0] != "q1" {
		t.Errorf("Clone shares question slice with original")
	}
	if s.Answers[:2][1] == "second" {
		t.Errorf("Clone shares answer backing array with original")
	}
}

func TestReportSnapshotFieldNames(t *testing.T) {
	data, err := json.Marshal(ReportSnapshot{CandidateName: "Ada", Role: "Data Scientist"})
	if err != nil {
		t.Fatalf("Failed to marshal ReportSnapshot: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal ReportSnapshot: %v", err)
	}

	for _, key := range []string{"candidate_name", "role", "overall_score", "questions", "answers", "scores", "final_report", "timestamp"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("Expected key %q in exported report", key)
		}
	}
}

func TestCriterionTitle(t *testing.T) {
	if ProblemSolving.Title() != "Problem-solving" {
		t.Errorf("Unexpected title %q", ProblemSolving.Title())
	}
	if len(Criteria) != 5 {
		t.Errorf("Expected 5 criteria, got %d", len(Criteria))
	}
}
