package hrdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
)

// LoadCSV reads a train and a test export and combines them on their
// common columns. Each record is tagged with the file it came from.
func LoadCSV(trainPath, testPath string) ([]Employee, error) {
	trainHeader, trainRows, err := readCSV(trainPath)
	if err != nil {
		return nil, err
	}
	testHeader, testRows, err := readCSV(testPath)
	if err != nil {
		return nil, err
	}

	common := commonColumns(trainHeader, testHeader)
	for _, col := range employeeColumns {
		if col == "DataSource" {
			continue
		}
		if !common[col] {
			return nil, fmt.Errorf("column %s is not present in both %s and %s", col, trainPath, testPath)
		}
	}

	employees := make([]Employee, 0, len(trainRows)+len(testRows))
	for _, part := range []struct {
		source string
		path   string
		header []string
		rows   [][]string
	}{
		{SourceTrain, trainPath, trainHeader, trainRows},
		{SourceTest, testPath, testHeader, testRows},
	} {
		index := columnIndex(part.header, common)
		for i, record := range part.rows {
			e, err := parseEmployee(index, record)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s row %d: %w", part.path, i+2, err)
			}
			e.DataSource = part.source
			employees = append(employees, e)
		}
	}

	return employees, nil
}

// LoadOrGenerate loads the CSV pair when both files exist and generates a
// default dataset otherwise
func LoadOrGenerate(trainPath, testPath string) ([]Employee, error) {
	employees, err := LoadCSV(trainPath, testPath)
	if err == nil {
		slog.Info("Loaded HR datasets", slog.String("train", trainPath), slog.String("test", testPath), slog.Int("records", len(employees)))
		return employees, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	slog.Warn("HR datasets not found, generating sample data", slog.String("error", err.Error()), slog.Int("records", DefaultSamples))
	return Generate(DefaultSamples, DefaultSeed), nil
}

func readCSV(path string) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("dataset %s is empty", path)
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	return header, records[1:], nil
}

func commonColumns(a, b []string) map[string]bool {
	inB := make(map[string]bool, len(b))
	for _, col := range b {
		inB[col] = true
	}
	common := make(map[string]bool)
	for _, col := range a {
		if inB[col] {
			common[col] = true
		}
	}
	return common
}

func columnIndex(header []string, keep map[string]bool) map[string]int {
	index := make(map[string]int, len(keep))
	for i, col := range header {
		if keep[col] {
			index[col] = i
		}
	}
	return index
}
