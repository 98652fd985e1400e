package hrdata

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGenerateDeterministic(t *testing.T) {
	a := Generate(200, DefaultSeed)
	b := Generate(200, DefaultSeed)
	assert.Equal(t, a, b)

	c := Generate(200, 7)
	assert.NotEqual(t, a, c)
}

func TestGenerateRanges(t *testing.T) {
	employees := Generate(DefaultSamples, DefaultSeed)
	require.Len(t, employees, DefaultSamples)

	id := regexp.MustCompile(`^EMP\d{6}$`)
	assert.Equal(t, "EMP000001", employees[0].EmployeeID)

	left := 0
	for _, e := range employees {
		assert.Regexp(t, id, e.EmployeeID)
		assert.GreaterOrEqual(t, e.Age, 22)
		assert.LessOrEqual(t, e.Age, 65)
		assert.Contains(t, jobRoles[e.Department], e.JobRole)

		assert.GreaterOrEqual(t, e.YearsAtCompany, 0.1)
		assert.LessOrEqual(t, e.YearsAtCompany, 20.0)
		assert.LessOrEqual(t, e.YearsInCurrentRole, e.YearsAtCompany)
		assert.LessOrEqual(t, e.YearsWithCurrManager, e.YearsInCurrentRole)

		for _, s := range []int{e.JobSatisfaction, e.EnvironmentSatisfaction, e.RelationshipSatisfaction, e.WorkLifeBalance, e.PerformanceRating} {
			assert.GreaterOrEqual(t, s, 1)
			assert.LessOrEqual(t, s, 4)
		}
		assert.GreaterOrEqual(t, e.DistanceFromHome, 1)
		assert.LessOrEqual(t, e.DistanceFromHome, 50)
		assert.LessOrEqual(t, e.TrainingTimesLastYear, 10)
		assert.GreaterOrEqual(t, e.NumCompaniesWorked, 1)
		assert.LessOrEqual(t, e.NumCompaniesWorked, 8)
		assert.Contains(t, []string{Yes, No}, e.Attrition)
		assert.Contains(t, []string{SourceTrain, SourceTest}, e.DataSource)

		if e.Left() {
			left++
		}
	}

	rate := float64(left) / float64(len(employees))
	assert.Greater(t, rate, 0.05)
	assert.Less(t, rate, 0.80)
}

func TestAttritionProbability(t *testing.T) {
	calm := Employee{
		JobSatisfaction:         4,
		EnvironmentSatisfaction: 4,
		WorkLifeBalance:         4,
		OverTime:                No,
		DistanceFromHome:        3,
		BusinessTravel:          TravelNone,
		YearsAtCompany:          8,
		MonthlyIncome:           9000,
		TrainingTimesLastYear:   3,
	}
	assert.Equal(t, 0.05, attritionProbability(calm, 5000))

	risky := Employee{
		JobSatisfaction:         1,
		EnvironmentSatisfaction: 1,
		WorkLifeBalance:         1,
		OverTime:                Yes,
		DistanceFromHome:        30,
		BusinessTravel:          TravelFrequently,
		YearsAtCompany:          0.5,
		MonthlyIncome:           3000,
		TrainingTimesLastYear:   0,
	}
	assert.InDelta(t, 0.80, attritionProbability(risky, 5000), 1e-9)

	overtimeOnly := calm
	overtimeOnly.OverTime = Yes
	overtimeOnly.YearsAtCompany = 1
	assert.InDelta(t, 0.55/3, attritionProbability(overtimeOnly, 5000), 1e-9)
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 2.0, quantile(sorted, 0.25))
	assert.Equal(t, 3.0, quantile(sorted, 0.5))
	assert.InDelta(t, 1.75, quantile([]float64{1, 2, 3, 4}, 0.25), 1e-9)
	assert.Zero(t, quantile(nil, 0.5))
}

func TestProcessGroupsAndRisk(t *testing.T) {
	base := Employee{
		Age:                     25,
		YearsAtCompany:          1,
		MonthlyIncome:           5000,
		JobSatisfaction:         4,
		EnvironmentSatisfaction: 4,
		WorkLifeBalance:         4,
		PerformanceRating:       4,
		OverTime:                No,
		BusinessTravel:          TravelRarely,
		TrainingTimesLastYear:   2,
		Attrition:               No,
	}

	lowSat := base
	lowSat.Age = 26
	lowSat.YearsAtCompany = 4.5
	lowSat.JobSatisfaction = 2
	lowSat.Attrition = Yes

	noTraining := base
	noTraining.Age = 60
	noTraining.YearsAtCompany = 12
	noTraining.TrainingTimesLastYear = 0

	records := Process([]Employee{base, lowSat, noTraining})
	require.Len(t, records, 3)

	assert.Equal(t, "Under 25", records[0].AgeGroup)
	assert.Equal(t, "<1 Year", records[0].TenureGroup)
	assert.Equal(t, RiskLow, records[0].RetentionRisk)
	assert.Equal(t, "Excellent", records[0].PerformanceCategory)
	assert.Equal(t, "Very High", records[0].JobSatisfactionLevel)
	assert.Equal(t, 1, records[0].IsHighPerformer)
	assert.Equal(t, 1, records[0].IsNewEmployee)
	assert.Equal(t, time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), records[0].HireDate)
	assert.Equal(t, 1, records[0].HireQuarter)
	// 4*25 + 1*5 + 5*2 + 2*3
	assert.Equal(t, 121.0, records[0].EmployeeValueScore)

	assert.Equal(t, "25-34", records[1].AgeGroup)
	assert.Equal(t, "3-5 Years", records[1].TenureGroup)
	assert.Equal(t, RiskHigh, records[1].RetentionRisk)
	assert.Equal(t, 1, records[1].IsAttrition)

	assert.Equal(t, "55+", records[2].AgeGroup)
	assert.Equal(t, "10+ Years", records[2].TenureGroup)
	assert.Equal(t, RiskMedium, records[2].RetentionRisk)
}

func TestRetentionRiskOvertime(t *testing.T) {
	e := Employee{JobSatisfaction: 3, EnvironmentSatisfaction: 3, WorkLifeBalance: 3, OverTime: Yes, YearsAtCompany: 5, TrainingTimesLastYear: 1}
	assert.Equal(t, RiskHigh, retentionRisk(e))

	e.OverTime = No
	assert.Equal(t, RiskLow, retentionRisk(e))

	e.YearsAtCompany = 1.5
	assert.Equal(t, RiskMedium, retentionRisk(e))
}

func TestComputeKPIs(t *testing.T) {
	records := Process([]Employee{
		{YearsAtCompany: 2, JobSatisfaction: 3, Attrition: Yes},
		{YearsAtCompany: 4, JobSatisfaction: 4, Attrition: No},
		{YearsAtCompany: 3.5, JobSatisfaction: 2, Attrition: No},
	})

	k := ComputeKPIs(records)
	assert.Equal(t, 3, k.TotalEmployees)
	assert.Equal(t, 1, k.AttritionCount)
	assert.Equal(t, 33.3, k.AttritionRate)
	assert.Equal(t, 3.2, k.AverageTenure)
	assert.Equal(t, 3.0, k.AverageJobScore)

	assert.Equal(t, KPIs{}, ComputeKPIs(nil))
}

func TestBuildSplitsTables(t *testing.T) {
	records := Process(Generate(300, DefaultSeed))
	d := Build(records)

	k := ComputeKPIs(records)
	assert.Len(t, d.Main.Rows, 300)
	assert.Len(t, d.Attrition.Rows, k.AttritionCount)
	assert.Len(t, d.Retention.Rows, 300-k.AttritionCount)
	assert.Len(t, d.KPIs.Rows, 5)
	assert.Equal(t, "Attrition Rate (%)", d.KPIs.Rows[2][0])
	assert.Len(t, d.Main.Rows[0], len(d.Main.Headers))
}

func TestAnalyzeOrdersByRate(t *testing.T) {
	in := Analyze(Process(Generate(500, DefaultSeed)))
	require.NotEmpty(t, in.Departments)
	for i := 1; i < len(in.Departments); i++ {
		assert.GreaterOrEqual(t, in.Departments[i-1].Rate, in.Departments[i].Rate)
	}
	for i := 1; i < len(in.RiskFactors); i++ {
		assert.GreaterOrEqual(t, in.RiskFactors[i-1].Rate, in.RiskFactors[i].Rate)
	}
	assert.Len(t, in.Satisfaction, 3)
}

func TestWriteInsights(t *testing.T) {
	var buf bytes.Buffer
	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	require.NoError(t, WriteInsights(&buf, Analyze(Process(Generate(DefaultSamples, DefaultSeed))), now))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "HR ATTRITION INSIGHTS REPORT\n"))
	assert.Contains(t, out, "Generated on: 2025-02-03 04:05:06")
	assert.Contains(t, out, "- Total Employees: 2,000")
	assert.Contains(t, out, "- Highest Risk Department: ")
	assert.Contains(t, out, "Age Group Analysis:")
}

func TestThousands(t *testing.T) {
	assert.Equal(t, "0", thousands(0))
	assert.Equal(t, "999", thousands(999))
	assert.Equal(t, "1,000", thousands(1000))
	assert.Equal(t, "1,234,567", thousands(1234567))
	assert.Equal(t, "-12,000", thousands(-12000))
}

func TestExportAndReload(t *testing.T) {
	dir := t.TempDir()
	records := Process(Generate(120, DefaultSeed))

	written, err := Export(dir, records, time.Now())
	require.NoError(t, err)
	assert.Len(t, written, 9)

	for _, name := range []string{
		"HR_Dashboard_Main_Data.xlsx", "HR_Dashboard_Main_Data.csv",
		"HR_Attrition_Analysis.xlsx", "HR_Retention_Analysis.csv",
		"HR_Summary_KPIs.xlsx", InsightsFile,
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	f, err := excelize.OpenFile(filepath.Join(dir, "HR_Summary_KPIs.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Data", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Total Employees", v)

	k := ComputeKPIs(records)
	loaded, err := LoadCSV(filepath.Join(dir, "HR_Dashboard_Main_Data.csv"), filepath.Join(dir, "HR_Attrition_Analysis.csv"))
	require.NoError(t, err)
	require.Len(t, loaded, 120+k.AttritionCount)
	assert.Equal(t, SourceTrain, loaded[0].DataSource)
	assert.Equal(t, SourceTest, loaded[len(loaded)-1].DataSource)

	want := records[0].Employee
	want.DataSource = SourceTrain
	assert.Equal(t, want, loaded[0])
}

func TestLoadCSVMissingColumn(t *testing.T) {
	dir := t.TempDir()
	train := filepath.Join(dir, "train.csv")
	test := filepath.Join(dir, "test.csv")
	require.NoError(t, os.WriteFile(train, []byte("EmployeeID,Age\nEMP000001,30\n"), 0644))
	require.NoError(t, os.WriteFile(test, []byte("EmployeeID,Age\nEMP000002,40\n"), 0644))

	_, err := LoadCSV(train, test)
	assert.ErrorContains(t, err, "not present in both")
}

func TestLoadOrGenerateFallsBack(t *testing.T) {
	dir := t.TempDir()
	employees, err := LoadOrGenerate(filepath.Join(dir, "train.csv"), filepath.Join(dir, "test.csv"))
	require.NoError(t, err)
	assert.Len(t, employees, DefaultSamples)
	assert.Equal(t, Generate(DefaultSamples, DefaultSeed), employees)
}
