package hrdata

import "sort"

// Table is a named, column-ordered dataset ready for export
type Table struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Dashboard groups the tables written for the dashboard pages
type Dashboard struct {
	Main      Table
	Attrition Table
	Retention Table
	KPIs      Table
}

// KPIs are the headline dashboard figures
type KPIs struct {
	TotalEmployees  int
	AttritionCount  int
	AttritionRate   float64
	AverageTenure   float64
	AverageJobScore float64
}

// ComputeKPIs summarizes records. Rates and averages are rounded to one decimal.
func ComputeKPIs(records []Record) KPIs {
	k := KPIs{TotalEmployees: len(records)}
	if len(records) == 0 {
		return k
	}

	var tenure, satisfaction float64
	for _, r := range records {
		if r.Left() {
			k.AttritionCount++
		}
		tenure += r.YearsAtCompany
		satisfaction += float64(r.JobSatisfaction)
	}

	n := float64(len(records))
	k.AttritionRate = round1(float64(k.AttritionCount) / n * 100)
	k.AverageTenure = round1(tenure / n)
	k.AverageJobScore = round1(satisfaction / n)
	return k
}

// Build splits records into the dashboard tables
func Build(records []Record) Dashboard {
	var main, left, stayed [][]any
	for _, r := range records {
		row := r.values()
		main = append(main, row)
		if r.Left() {
			left = append(left, row)
		} else {
			stayed = append(stayed, row)
		}
	}

	k := ComputeKPIs(records)
	return Dashboard{
		Main:      Table{Name: "HR_Dashboard_Main_Data", Headers: recordColumns, Rows: main},
		Attrition: Table{Name: "HR_Attrition_Analysis", Headers: recordColumns, Rows: left},
		Retention: Table{Name: "HR_Retention_Analysis", Headers: recordColumns, Rows: stayed},
		KPIs: Table{
			Name:    "HR_Summary_KPIs",
			Headers: []string{"Metric", "Value"},
			Rows: [][]any{
				{"Total Employees", k.TotalEmployees},
				{"Attrition Count", k.AttritionCount},
				{"Attrition Rate (%)", k.AttritionRate},
				{"Average Tenure (Years)", k.AverageTenure},
				{"Average Job Satisfaction", k.AverageJobScore},
			},
		},
	}
}

// Tables returns the dashboard tables in export order
func (d Dashboard) Tables() []Table {
	return []Table{d.Main, d.Attrition, d.Retention, d.KPIs}
}

// GroupRate is the attrition rate of one group of employees
type GroupRate struct {
	Group string
	Rate  float64
	Count int
}

// RiskFactor is the attrition rate among employees sharing a risk trait
type RiskFactor struct {
	Name string
	Rate float64
}

// Insights holds the findings written to the insights report
type Insights struct {
	KPIs          KPIs
	AverageIncome float64
	Departments   []GroupRate
	AgeGroups     []GroupRate
	Satisfaction  []SatisfactionGap
	RiskFactors   []RiskFactor

	HighPerformersRetained float64
	AverageStockOptions    float64
	AverageTraining        float64
}

// SatisfactionGap compares a satisfaction score between stayers and leavers
type SatisfactionGap struct {
	Column string
	Stayed float64
	Left   float64
}

// Analyze computes the insights for records. Departments and age groups are
// sorted by attrition rate, highest first.
func Analyze(records []Record) Insights {
	in := Insights{KPIs: ComputeKPIs(records)}
	if len(records) == 0 {
		return in
	}

	var income float64
	for _, r := range records {
		income += float64(r.MonthlyIncome)
	}
	in.AverageIncome = income / float64(len(records))

	in.Departments = groupRates(records, func(r Record) string { return r.Department })
	in.AgeGroups = groupRates(records, func(r Record) string { return r.AgeGroup })

	var stayed, left []Record
	for _, r := range records {
		if r.Left() {
			left = append(left, r)
		} else {
			stayed = append(stayed, r)
		}
	}

	for _, col := range []struct {
		name  string
		value func(Record) float64
	}{
		{"JobSatisfaction", func(r Record) float64 { return float64(r.JobSatisfaction) }},
		{"EnvironmentSatisfaction", func(r Record) float64 { return float64(r.EnvironmentSatisfaction) }},
		{"WorkLifeBalance", func(r Record) float64 { return float64(r.WorkLifeBalance) }},
	} {
		in.Satisfaction = append(in.Satisfaction, SatisfactionGap{
			Column: col.name,
			Stayed: mean(stayed, col.value),
			Left:   mean(left, col.value),
		})
	}

	in.RiskFactors = []RiskFactor{
		{"Overtime (Yes)", attritionRate(records, func(r Record) bool { return r.OverTime == Yes })},
		{"Low Job Satisfaction (1-2)", attritionRate(records, func(r Record) bool { return r.JobSatisfaction <= 2 })},
		{"Frequent Travel", attritionRate(records, func(r Record) bool { return r.BusinessTravel == TravelFrequently })},
		{"High Distance (>20km)", attritionRate(records, func(r Record) bool { return r.DistanceFromHome > 20 })},
		{"New Employees (<1 year)", attritionRate(records, func(r Record) bool { return r.YearsAtCompany < 1 })},
	}
	sort.SliceStable(in.RiskFactors, func(i, j int) bool { return in.RiskFactors[i].Rate > in.RiskFactors[j].Rate })

	in.HighPerformersRetained = mean(stayed, func(r Record) float64 { return float64(r.IsHighPerformer) }) * 100
	in.AverageStockOptions = mean(stayed, func(r Record) float64 { return float64(r.StockOptionLevel) })
	in.AverageTraining = mean(stayed, func(r Record) float64 { return float64(r.TrainingTimesLastYear) })

	return in
}

func groupRates(records []Record, key func(Record) string) []GroupRate {
	type tally struct{ left, total int }
	var order []string
	tallies := make(map[string]*tally)
	for _, r := range records {
		k := key(r)
		t, ok := tallies[k]
		if !ok {
			t = &tally{}
			tallies[k] = t
			order = append(order, k)
		}
		t.total++
		if r.Left() {
			t.left++
		}
	}

	rates := make([]GroupRate, 0, len(order))
	for _, k := range order {
		t := tallies[k]
		rates = append(rates, GroupRate{
			Group: k,
			Rate:  round1(float64(t.left) / float64(t.total) * 100),
			Count: t.total,
		})
	}
	sort.SliceStable(rates, func(i, j int) bool {
		if rates[i].Rate != rates[j].Rate {
			return rates[i].Rate > rates[j].Rate
		}
		return rates[i].Group < rates[j].Group
	})
	return rates
}

func attritionRate(records []Record, match func(Record) bool) float64 {
	var left, total int
	for _, r := range records {
		if !match(r) {
			continue
		}
		total++
		if r.Left() {
			left++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(left) / float64(total) * 100
}

func mean(records []Record, value func(Record) float64) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += value(r)
	}
	return sum / float64(len(records))
}
