package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/interview-agent/internal/models"
	"github.com/fmuoria/interview-agent/internal/scoring"
)

// ExportToExcel generates an Excel workbook for an interview report
func ExportToExcel(snapshot models.ReportSnapshot, outputPath string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "Summary"
	scoresSheet := "Question Scores"
	feedbackSheet := "Feedback"

	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(scoresSheet)
	f.NewSheet(feedbackSheet)

	if err := createSummarySheet(f, summarySheet, snapshot); err != nil {
		return "", fmt.Errorf("failed to create summary sheet: %w", err)
	}

	if err := createScoresSheet(f, scoresSheet, snapshot); err != nil {
		return "", fmt.Errorf("failed to create question scores sheet: %w", err)
	}

	if err := createFeedbackSheet(f, feedbackSheet, snapshot); err != nil {
		return "", fmt.Errorf("failed to create feedback sheet: %w", err)
	}

	return SaveWorkbook(f, outputPath)
}

// createSummarySheet writes candidate details, averages and the narrative report
func createSummarySheet(f *excelize.File, sheetName string, snapshot models.ReportSnapshot) error {
	f.SetColWidth(sheetName, "A", "A", 25)
	f.SetColWidth(sheetName, "B", "B", 70)

	st, err := newStyles(f)
	if err != nil {
		return err
	}

	row := 1

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Interview Report")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), st.title)
	f.MergeCell(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row))
	row += 2

	details := [][2]any{
		{"Candidate:", snapshot.CandidateName},
		{"Position:", snapshot.Role},
		{"Interviewer:", snapshot.Personality},
		{"Generated:", snapshot.Timestamp},
		{"Questions:", len(snapshot.Questions)},
		{"Overall Score:", fmt.Sprintf("%.1f/10", snapshot.OverallScore)},
	}
	for _, d := range details {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), d[0])
		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), st.label)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), d[1])
		row++
	}
	row++

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Criterion Averages:")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), st.title)
	f.MergeCell(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row))
	row++

	averages := scoring.CriterionAverages(snapshot.Scores)
	for _, c := range models.Criteria {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), c.Title()+":")
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), fmt.Sprintf("%.1f/10", averages[c]))
		row++
	}
	row++

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Final Report:")
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), st.title)
	f.MergeCell(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row))
	row++

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), snapshot.FinalReport)
	f.MergeCell(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row))
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), st.wrap)
	f.SetRowHeight(sheetName, row, float64(15*(strings.Count(snapshot.FinalReport, "\n")+1)))

	return nil
}

// createScoresSheet lists one row per question, color-coded by overall score
func createScoresSheet(f *excelize.File, sheetName string, snapshot models.ReportSnapshot) error {
	headers := []string{"#", "Question", "Answer", "Overall"}
	for _, c := range models.Criteria {
		headers = append(headers, c.Title())
	}

	rows := make([][]any, 0, len(snapshot.Scores))
	bands := make([]Band, 0, len(snapshot.Scores))
	for i, rec := range snapshot.Scores {
		question := ""
		if i < len(snapshot.Questions) {
			question = snapshot.Questions[i]
		}
		answer := ""
		if i < len(snapshot.Answers) {
			answer = snapshot.Answers[i]
		}

		row := []any{i + 1, question, answer, fmt.Sprintf("%.1f", rec.OverallScore)}
		for _, c := range models.Criteria {
			row = append(row, rec.Scores[c])
		}
		rows = append(rows, row)
		bands = append(bands, scoreBand(rec))
	}

	widths := map[string]float64{"A": 5, "B": 45, "C": 60, "D": 10}
	return WriteTable(f, sheetName, headers, rows, TableOptions{Widths: widths, Bands: bands})
}

// createFeedbackSheet lists the per-criterion feedback of each answer
func createFeedbackSheet(f *excelize.File, sheetName string, snapshot models.ReportSnapshot) error {
	headers := []string{"#", "Criterion", "Score", "Feedback"}

	var rows [][]any
	for i, rec := range snapshot.Scores {
		if scoring.IsSkipped(rec) {
			rows = append(rows, []any{i + 1, "-", 0, rec.Summary})
			continue
		}
		for _, c := range models.Criteria {
			rows = append(rows, []any{i + 1, c.Title(), rec.Scores[c], rec.Feedback[c]})
		}
		rows = append(rows, []any{i + 1, "Summary", fmt.Sprintf("%.1f", rec.OverallScore), rec.Summary})
	}

	widths := map[string]float64{"A": 5, "B": 18, "C": 8, "D": 80}
	return WriteTable(f, sheetName, headers, rows, TableOptions{Widths: widths, Wrap: true})
}

// scoreBand maps an answer's overall score onto the report color bands
func scoreBand(rec models.ScoreRecord) Band {
	switch {
	case scoring.IsSkipped(rec):
		return BandPoor
	case rec.OverallScore >= 8:
		return BandExcellent
	case rec.OverallScore >= 6:
		return BandGood
	case rec.OverallScore >= 4:
		return BandFair
	default:
		return BandPoor
	}
}
