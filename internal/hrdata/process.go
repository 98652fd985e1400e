package hrdata

import (
	"math"
	"sort"
	"time"
)

// Retention risk levels
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

var (
	// hireBaseDate anchors the derived hire dates
	hireBaseDate = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	performanceLabels  = map[int]string{1: "Poor", 2: "Below Average", 3: "Good", 4: "Excellent"}
	satisfactionLabels = map[int]string{1: "Low", 2: "Medium", 3: "High", 4: "Very High"}

	ageGroups    = bins{edges: []float64{0, 25, 35, 45, 55, 100}, labels: []string{"Under 25", "25-34", "35-44", "45-54", "55+"}}
	tenureGroups = bins{edges: []float64{0, 1, 3, 5, 10, 100}, labels: []string{"<1 Year", "1-3 Years", "3-5 Years", "5-10 Years", "10+ Years"}}
	salaryLabels = []string{"Low", "Medium-Low", "Medium-High", "High"}
)

// bins assigns values to right-closed intervals (edges[i], edges[i+1]]
type bins struct {
	edges  []float64
	labels []string
}

func (b bins) label(v float64) string {
	for i := 1; i < len(b.edges); i++ {
		if v > b.edges[i-1] && v <= b.edges[i] {
			return b.labels[i-1]
		}
	}
	return ""
}

// Record is an employee enriched with dashboard columns
type Record struct {
	Employee

	AgeGroup                     string
	TenureGroup                  string
	SalaryGroup                  string
	PerformanceCategory          string
	JobSatisfactionLevel         string
	EnvironmentSatisfactionLevel string
	WorkLifeBalanceLevel         string
	RetentionRisk                string
	EmployeeValueScore           float64
	HireDate                     time.Time
	HireYear                     int
	HireMonth                    int
	HireQuarter                  int
	IsHighPerformer              int
	IsNewEmployee                int
	IsOvertime                   int
	IsFrequentTraveler           int
	IsHighDistance               int
	IsAttrition                  int
}

var recordColumns = append(append([]string{}, employeeColumns...),
	"AgeGroup", "TenureGroup", "SalaryGroup", "PerformanceCategory",
	"JobSatisfactionLevel", "EnvironmentSatisfactionLevel", "WorkLifeBalanceLevel",
	"RetentionRisk", "EmployeeValueScore", "HireDate", "HireYear", "HireMonth",
	"HireQuarter", "IsHighPerformer", "IsNewEmployee", "IsOvertime",
	"IsFrequentTraveler", "IsHighDistance", "IsAttrition",
)

func (r Record) values() []any {
	return append(r.Employee.values(),
		r.AgeGroup, r.TenureGroup, r.SalaryGroup, r.PerformanceCategory,
		r.JobSatisfactionLevel, r.EnvironmentSatisfactionLevel, r.WorkLifeBalanceLevel,
		r.RetentionRisk, r.EmployeeValueScore, r.HireDate.Format(time.DateOnly), r.HireYear, r.HireMonth,
		r.HireQuarter, r.IsHighPerformer, r.IsNewEmployee, r.IsOvertime,
		r.IsFrequentTraveler, r.IsHighDistance, r.IsAttrition,
	)
}

// Process derives the dashboard columns for every employee
func Process(employees []Employee) []Record {
	incomes := make([]float64, len(employees))
	for i, e := range employees {
		incomes[i] = float64(e.MonthlyIncome)
	}
	sort.Float64s(incomes)
	salaryGroups := bins{
		edges:  []float64{0, quantile(incomes, 0.25), quantile(incomes, 0.5), quantile(incomes, 0.75), math.Inf(1)},
		labels: salaryLabels,
	}

	records := make([]Record, len(employees))
	for i, e := range employees {
		hired := hireBaseDate.AddDate(0, 0, -int(e.YearsAtCompany*365))
		records[i] = Record{
			Employee:                     e,
			AgeGroup:                     ageGroups.label(float64(e.Age)),
			TenureGroup:                  tenureGroups.label(e.YearsAtCompany),
			SalaryGroup:                  salaryGroups.label(float64(e.MonthlyIncome)),
			PerformanceCategory:          performanceLabels[e.PerformanceRating],
			JobSatisfactionLevel:         satisfactionLabels[e.JobSatisfaction],
			EnvironmentSatisfactionLevel: satisfactionLabels[e.EnvironmentSatisfaction],
			WorkLifeBalanceLevel:         satisfactionLabels[e.WorkLifeBalance],
			RetentionRisk:                retentionRisk(e),
			EmployeeValueScore:           valueScore(e),
			HireDate:                     hired,
			HireYear:                     hired.Year(),
			HireMonth:                    int(hired.Month()),
			HireQuarter:                  (int(hired.Month())-1)/3 + 1,
			IsHighPerformer:              flag(e.PerformanceRating >= 4),
			IsNewEmployee:                flag(e.YearsAtCompany <= 1),
			IsOvertime:                   flag(e.OverTime == Yes),
			IsFrequentTraveler:           flag(e.BusinessTravel == TravelFrequently),
			IsHighDistance:               flag(e.DistanceFromHome > 20),
			IsAttrition:                  flag(e.Left()),
		}
	}
	return records
}

func retentionRisk(e Employee) string {
	high := e.JobSatisfaction <= 2 ||
		e.EnvironmentSatisfaction <= 2 ||
		e.WorkLifeBalance <= 2 ||
		(e.OverTime == Yes && e.JobSatisfaction <= 3)
	if high {
		return RiskHigh
	}

	medium := (e.JobSatisfaction == 3 && e.YearsAtCompany < 2) ||
		(e.DistanceFromHome > 15 && e.BusinessTravel == TravelFrequently) ||
		e.TrainingTimesLastYear == 0
	if medium {
		return RiskMedium
	}
	return RiskLow
}

// valueScore ranks employees for retention effort
func valueScore(e Employee) float64 {
	score := float64(e.PerformanceRating)*25 +
		e.YearsAtCompany*5 +
		float64(e.MonthlyIncome)/1000*2 +
		float64(e.TrainingTimesLastYear)*3
	return math.RoundToEven(score)
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
