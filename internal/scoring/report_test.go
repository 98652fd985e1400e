package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fmuoria/interview-agent/internal/models"
)

func record(v int) models.ScoreRecord {
	scores := make(map[models.Criterion]int)
	for _, c := range models.Criteria {
		scores[c] = v
	}
	return models.NewScoreRecord(scores, nil, "")
}

func TestGenerateFinalReportEmpty(t *testing.T) {
	assert.Equal(t, "No answers were scored.", GenerateFinalReport(nil, "Ada", "Data Scientist"))
}

func TestGenerateFinalReportBuckets(t *testing.T) {
	tests := []struct {
		name           string
		records        []models.ScoreRecord
		level          string
		recommendation string
		nextSteps      string
		overallLine    string
	}{
		{
			name:           "Strong",
			records:        []models.ScoreRecord{record(8), record(7)},
			level:          "strong",
			recommendation: "Recommended for next round",
			nextSteps:      "Schedule technical interview",
			overallLine:    "## Overall Score: 7.5/10",
		},
		{
			name:           "Good at boundary",
			records:        []models.ScoreRecord{record(5)},
			level:          "good",
			recommendation: "Consider for further evaluation",
			nextSteps:      "Review with hiring manager",
			overallLine:    "## Overall Score: 5.0/10",
		},
		{
			name:           "Skips drag average down",
			records:        []models.ScoreRecord{record(8), SkippedRecord()},
			level:          "basic",
			recommendation: "Additional assessment needed",
			nextSteps:      "Provide feedback and consider re-interview",
			overallLine:    "## Overall Score: 4.0/10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := GenerateFinalReport(tt.records, "Ada", "Product Manager")
			assert.Contains(t, report, "# Interview Report for Ada")
			assert.Contains(t, report, "## Position: Product Manager")
			assert.Contains(t, report, tt.overallLine)
			assert.Contains(t, report, "demonstrated "+tt.level+" performance")
			assert.Contains(t, report, tt.recommendation)
			assert.Contains(t, report, tt.nextSteps)
		})
	}
}

func TestGenerateFinalReportListsCriteria(t *testing.T) {
	report := GenerateFinalReport([]models.ScoreRecord{record(6)}, "Bo", "UX Designer")
	for _, c := range models.Criteria {
		assert.Contains(t, report, "- **"+c.Title()+"**: 6.0/10")
	}
	assert.True(t, strings.Index(report, "Relevance") < strings.Index(report, "Problem-solving"))
}

func TestCriterionAverages(t *testing.T) {
	avg := CriterionAverages([]models.ScoreRecord{record(4), record(8)})
	for _, c := range models.Criteria {
		assert.InDelta(t, 6.0, avg[c], 1e-9)
	}
	assert.Empty(t, CriterionAverages(nil))
	assert.Equal(t, 0.0, OverallAverage(nil))
	assert.InDelta(t, 6.0, OverallAverage([]models.ScoreRecord{record(4), record(8)}), 1e-9)
}
