package hrdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fmuoria/interview-agent/internal/export"
)

// InsightsFile is the name of the plain-text insights report
const InsightsFile = "HR_Attrition_Insights.txt"

// Export writes every dashboard table to dir as .xlsx and .csv, followed by
// the insights report. It returns the paths written.
func Export(dir string, records []Record, now time.Time) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	dashboard := Build(records)
	var written []string
	for _, table := range dashboard.Tables() {
		xlsx, err := writeWorkbook(table, filepath.Join(dir, table.Name+".xlsx"))
		if err != nil {
			return written, err
		}
		written = append(written, xlsx)

		csvPath := filepath.Join(dir, table.Name+".csv")
		if err := writeCSVFile(table, csvPath); err != nil {
			return written, err
		}
		written = append(written, csvPath)

		slog.Info("Exported dataset", slog.String("table", table.Name), slog.Int("rows", len(table.Rows)))
	}

	insightsPath := filepath.Join(dir, InsightsFile)
	file, err := os.Create(insightsPath)
	if err != nil {
		return written, fmt.Errorf("failed to create insights report: %w", err)
	}
	defer file.Close()

	if err := WriteInsights(file, Analyze(records), now); err != nil {
		return written, fmt.Errorf("failed to write insights report: %w", err)
	}
	written = append(written, insightsPath)

	return written, nil
}

func writeWorkbook(table Table, path string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Data"
	f.SetSheetName("Sheet1", sheet)
	if err := export.WriteTable(f, sheet, table.Headers, table.Rows, export.TableOptions{}); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", table.Name, err)
	}
	return export.SaveWorkbook(f, path)
}

func writeCSVFile(table Table, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := WriteCSV(file, table); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

// WriteCSV writes a table with its header row
func WriteCSV(w io.Writer, table Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Headers); err != nil {
		return err
	}

	record := make([]string, len(table.Headers))
	for _, row := range table.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = formatCell(row[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// WriteInsights renders the insights report as plain text
func WriteInsights(w io.Writer, in Insights, now time.Time) error {
	var b strings.Builder
	rule := strings.Repeat("=", 60)

	fmt.Fprintf(&b, "HR ATTRITION INSIGHTS REPORT\n%s\n", rule)
	fmt.Fprintf(&b, "Generated on: %s\n\n", now.Format(time.DateTime))

	b.WriteString("Key Findings:\n")
	fmt.Fprintf(&b, "- Total Employees: %s\n", thousands(in.KPIs.TotalEmployees))
	fmt.Fprintf(&b, "- Overall Attrition Rate: %.1f%%\n", in.KPIs.AttritionRate)
	fmt.Fprintf(&b, "- Average Tenure: %.1f years\n", in.KPIs.AverageTenure)
	fmt.Fprintf(&b, "- Average Monthly Income: $%s\n", thousands(int(in.AverageIncome+0.5)))
	if len(in.Departments) > 0 {
		fmt.Fprintf(&b, "- Highest Risk Department: %s (%.1f%%)\n", in.Departments[0].Group, in.Departments[0].Rate)
	}
	if len(in.AgeGroups) > 0 {
		fmt.Fprintf(&b, "- Most Critical Age Group: %s (%.1f%%)\n", in.AgeGroups[0].Group, in.AgeGroups[0].Rate)
	}

	writeGroupRates(&b, "Department Analysis", in.Departments)
	writeGroupRates(&b, "Age Group Analysis", in.AgeGroups)

	if len(in.Satisfaction) > 0 {
		b.WriteString("\nSatisfaction Impact:\n")
		for _, s := range in.Satisfaction {
			fmt.Fprintf(&b, "- %s: Stayed=%.1f, Left=%.1f\n", s.Column, s.Stayed, s.Left)
		}
	}

	if len(in.RiskFactors) > 0 {
		b.WriteString("\nKey Risk Factors:\n")
		for _, f := range in.RiskFactors {
			fmt.Fprintf(&b, "- %s: %.1f%% attrition rate\n", f.Name, f.Rate)
		}
	}

	b.WriteString("\nRetention Factors:\n")
	fmt.Fprintf(&b, "- High Performers Retained: %.1f%%\n", in.HighPerformersRetained)
	fmt.Fprintf(&b, "- Stock Options: %.1f avg level\n", in.AverageStockOptions)
	fmt.Fprintf(&b, "- Training: %.1f avg sessions\n", in.AverageTraining)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeGroupRates(b *strings.Builder, title string, rates []GroupRate) {
	if len(rates) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	fmt.Fprintf(b, "%-20s %16s %14s\n", "Group", "Attrition Rate %", "Employees")
	for _, r := range rates {
		fmt.Fprintf(b, "%-20s %16.1f %14d\n", r.Group, r.Rate, r.Count)
	}
}

// thousands formats n with comma separators
func thousands(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var out []byte
	for i := range len(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
