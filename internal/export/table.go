package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Band is the color band of a data row
type Band int

const (
	BandNone Band = iota
	BandExcellent
	BandGood
	BandFair
	BandPoor
)

var bandColors = map[Band]string{
	BandExcellent: "C6EFCE",
	BandGood:      "FFEB9C",
	BandFair:      "FFC7CE",
	BandPoor:      "FF9999",
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

type styles struct {
	title  int
	label  int
	header int
	cell   int
	wrap   int
	bands  map[Band]int
}

func newStyles(f *excelize.File) (*styles, error) {
	s := &styles{bands: make(map[Band]int)}
	var err error

	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	}); err != nil {
		return nil, err
	}

	if s.label, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	}); err != nil {
		return nil, err
	}

	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	}); err != nil {
		return nil, err
	}

	if s.cell, err = f.NewStyle(&excelize.Style{Border: thinBorder}); err != nil {
		return nil, err
	}

	if s.wrap, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    thinBorder,
	}); err != nil {
		return nil, err
	}

	for band, color := range bandColors {
		id, err := f.NewStyle(&excelize.Style{
			Fill:   excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Border: thinBorder,
		})
		if err != nil {
			return nil, err
		}
		s.bands[band] = id
	}

	return s, nil
}

// TableOptions controls how WriteTable lays out a sheet
type TableOptions struct {
	// Widths maps column letters to widths
	Widths map[string]float64
	// Bands color-codes data rows by index
	Bands []Band
	// Wrap wraps long cell text
	Wrap bool
}

// WriteTable writes a header row and data rows, then freezes the header and adds a filter
func WriteTable(f *excelize.File, sheetName string, headers []string, rows [][]any, opts TableOptions) error {
	if len(headers) == 0 {
		return fmt.Errorf("table %s has no columns", sheetName)
	}

	if idx, err := f.GetSheetIndex(sheetName); err != nil || idx == -1 {
		if _, err := f.NewSheet(sheetName); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheetName, err)
		}
	}

	st, err := newStyles(f)
	if err != nil {
		return err
	}

	for col, width := range opts.Widths {
		f.SetColWidth(sheetName, col, col, width)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, st.header)
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}

	for i, values := range rows {
		row := i + 2
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, start, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}

		style := st.cell
		if opts.Wrap {
			style = st.wrap
		}
		if i < len(opts.Bands) {
			if id, ok := st.bands[opts.Bands[i]]; ok {
				style = id
			}
		}
		f.SetCellStyle(sheetName, start, fmt.Sprintf("%s%d", lastCol, row), style)
	}

	if len(rows) > 0 {
		f.AutoFilter(sheetName, fmt.Sprintf("A1:%s%d", lastCol, len(rows)+1), []excelize.AutoFilterOptions{})
	}

	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	return nil
}

// SaveWorkbook writes f to outputPath, adding the .xlsx extension when missing.
// It returns the path written.
func SaveWorkbook(f *excelize.File, outputPath string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath = outputPath + ".xlsx"
	}

	// Clean the path for cross-platform compatibility (Windows paths)
	outputPath = filepath.Clean(outputPath)

	if err := f.SaveAs(outputPath); err != nil {
		// If direct save fails, try buffer write fallback
		var buf bytes.Buffer
		if writeErr := f.Write(&buf); writeErr != nil {
			return "", fmt.Errorf("failed to save Excel file: direct save failed (%v), buffer write also failed: %w", err, writeErr)
		}

		if fileErr := os.WriteFile(outputPath, buf.Bytes(), 0644); fileErr != nil {
			return "", fmt.Errorf("failed to save Excel file: direct save failed (%v), file write failed: %w", err, fileErr)
		}
	}

	return outputPath, nil
}
