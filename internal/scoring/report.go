package scoring

import (
	"fmt"
	"strings"

	"github.com/fmuoria/interview-agent/internal/models"
)

// NoScoresMessage is the final report when nothing was scored
const NoScoresMessage = "No answers were scored."

// Assessment is the qualitative bucket of an overall average
type Assessment struct {
	Level          string
	Recommendation string
	NextSteps      string
}

// Assess buckets an overall average
func Assess(overall float64) Assessment {
	switch {
	case overall >= 7:
		return Assessment{Level: "strong", Recommendation: "Recommended for next round", NextSteps: "Schedule technical interview"}
	case overall >= 5:
		return Assessment{Level: "good", Recommendation: "Consider for further evaluation", NextSteps: "Review with hiring manager"}
	default:
		return Assessment{Level: "basic", Recommendation: "Additional assessment needed", NextSteps: "Provide feedback and consider re-interview"}
	}
}

// CriterionAverages averages each criterion over every record, skipped ones included
func CriterionAverages(records []models.ScoreRecord) map[models.Criterion]float64 {
	avg := make(map[models.Criterion]float64, len(models.Criteria))
	if len(records) == 0 {
		return avg
	}
	for _, c := range models.Criteria {
		total := 0
		for _, r := range records {
			total += r.Scores[c]
		}
		avg[c] = float64(total) / float64(len(records))
	}
	return avg
}

// OverallAverage is the mean of the per-criterion averages
func OverallAverage(records []models.ScoreRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	avg := CriterionAverages(records)
	total := 0.0
	for _, c := range models.Criteria {
		total += avg[c]
	}
	return total / float64(len(models.Criteria))
}

// GenerateFinalReport renders the Markdown interview report
func GenerateFinalReport(records []models.ScoreRecord, candidateName, role string) string {
	if len(records) == 0 {
		return NoScoresMessage
	}

	avg := CriterionAverages(records)
	overall := OverallAverage(records)
	assessment := Assess(overall)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Interview Report for %s\n", candidateName))
	sb.WriteString(fmt.Sprintf("## Position: %s\n", role))
	sb.WriteString(fmt.Sprintf("## Overall Score: %.1f/10\n\n", overall))

	sb.WriteString("### Performance Summary:\n")
	for _, c := range models.Criteria {
		sb.WriteString(fmt.Sprintf("- **%s**: %.1f/10\n", c.Title(), avg[c]))
	}

	sb.WriteString("\n### Assessment:\n")
	sb.WriteString(fmt.Sprintf("The candidate demonstrated %s performance across all evaluation criteria.\n", assessment.Level))
	sb.WriteString("\n### Recommendation:\n")
	sb.WriteString(assessment.Recommendation + "\n")
	sb.WriteString("\n### Next Steps:\n")
	sb.WriteString(assessment.NextSteps + "\n")

	return sb.String()
}
