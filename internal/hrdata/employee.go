// Package hrdata builds HR attrition datasets for dashboard tools.
//
// Records either come from a pair of CSV exports or are generated from
// fixed probability tables. They are then enriched with grouping, risk and
// calendar columns and written out as Excel workbooks, CSV files and a
// plain-text insights report.
package hrdata

import (
	"fmt"
	"strconv"
	"strings"
)

// Employee is a single row of the raw attrition dataset
type Employee struct {
	EmployeeID               string
	Age                      int
	Gender                   string
	Department               string
	JobRole                  string
	EducationLevel           string
	MaritalStatus            string
	YearsAtCompany           float64
	YearsInCurrentRole       float64
	YearsWithCurrManager     float64
	MonthlyIncome            int
	JobSatisfaction          int
	EnvironmentSatisfaction  int
	RelationshipSatisfaction int
	WorkLifeBalance          int
	PerformanceRating        int
	DistanceFromHome         int
	BusinessTravel           string
	OverTime                 string
	TrainingTimesLastYear    int
	StockOptionLevel         int
	NumCompaniesWorked       int
	Attrition                string
	DataSource               string
}

const (
	Yes = "Yes"
	No  = "No"

	TravelNone       = "Non-Travel"
	TravelRarely     = "Travel_Rarely"
	TravelFrequently = "Travel_Frequently"

	SourceTrain = "Train"
	SourceTest  = "Test"
)

var employeeColumns = []string{
	"EmployeeID", "Age", "Gender", "Department", "JobRole", "EducationLevel",
	"MaritalStatus", "YearsAtCompany", "YearsInCurrentRole", "YearsWithCurrManager",
	"MonthlyIncome", "JobSatisfaction", "EnvironmentSatisfaction",
	"RelationshipSatisfaction", "WorkLifeBalance", "PerformanceRating",
	"DistanceFromHome", "BusinessTravel", "OverTime", "TrainingTimesLastYear",
	"StockOptionLevel", "NumCompaniesWorked", "Attrition", "DataSource",
}

func (e Employee) values() []any {
	return []any{
		e.EmployeeID, e.Age, e.Gender, e.Department, e.JobRole, e.EducationLevel,
		e.MaritalStatus, e.YearsAtCompany, e.YearsInCurrentRole, e.YearsWithCurrManager,
		e.MonthlyIncome, e.JobSatisfaction, e.EnvironmentSatisfaction,
		e.RelationshipSatisfaction, e.WorkLifeBalance, e.PerformanceRating,
		e.DistanceFromHome, e.BusinessTravel, e.OverTime, e.TrainingTimesLastYear,
		e.StockOptionLevel, e.NumCompaniesWorked, e.Attrition, e.DataSource,
	}
}

// Left reports whether the employee left the company
func (e Employee) Left() bool {
	return e.Attrition == Yes
}

// rowParser reads typed fields out of a CSV record by column name
type rowParser struct {
	index  map[string]int
	record []string
	err    error
}

func (p *rowParser) str(col string) string {
	i, ok := p.index[col]
	if !ok || i >= len(p.record) {
		if p.err == nil {
			p.err = fmt.Errorf("missing column %s", col)
		}
		return ""
	}
	return strings.TrimSpace(p.record[i])
}

func (p *rowParser) int(col string) int {
	raw := p.str(col)
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.err = fmt.Errorf("invalid %s %q: %w", col, raw, err)
		return 0
	}
	return int(v)
}

func (p *rowParser) float(col string) float64 {
	raw := p.str(col)
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.err = fmt.Errorf("invalid %s %q: %w", col, raw, err)
		return 0
	}
	return v
}

func parseEmployee(index map[string]int, record []string) (Employee, error) {
	p := &rowParser{index: index, record: record}
	e := Employee{
		EmployeeID:               p.str("EmployeeID"),
		Age:                      p.int("Age"),
		Gender:                   p.str("Gender"),
		Department:               p.str("Department"),
		JobRole:                  p.str("JobRole"),
		EducationLevel:           p.str("EducationLevel"),
		MaritalStatus:            p.str("MaritalStatus"),
		YearsAtCompany:           p.float("YearsAtCompany"),
		YearsInCurrentRole:       p.float("YearsInCurrentRole"),
		YearsWithCurrManager:     p.float("YearsWithCurrManager"),
		MonthlyIncome:            p.int("MonthlyIncome"),
		JobSatisfaction:          p.int("JobSatisfaction"),
		EnvironmentSatisfaction:  p.int("EnvironmentSatisfaction"),
		RelationshipSatisfaction: p.int("RelationshipSatisfaction"),
		WorkLifeBalance:          p.int("WorkLifeBalance"),
		PerformanceRating:        p.int("PerformanceRating"),
		DistanceFromHome:         p.int("DistanceFromHome"),
		BusinessTravel:           p.str("BusinessTravel"),
		OverTime:                 p.str("OverTime"),
		TrainingTimesLastYear:    p.int("TrainingTimesLastYear"),
		StockOptionLevel:         p.int("StockOptionLevel"),
		NumCompaniesWorked:       p.int("NumCompaniesWorked"),
		Attrition:                p.str("Attrition"),
	}
	return e, p.err
}
