package hrdata

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
)

const (
	// DefaultSamples is the size of a generated dataset
	DefaultSamples = 2000
	// DefaultSeed makes generated datasets reproducible
	DefaultSeed uint64 = 42

	minAttritionProbability = 0.05
	maxAttritionProbability = 0.80
)

type weighted[T any] struct {
	values  []T
	weights []float64
}

func (w weighted[T]) pick(r *rand.Rand) T {
	x := r.Float64()
	acc := 0.0
	for i, p := range w.weights {
		acc += p
		if x < acc {
			return w.values[i]
		}
	}
	return w.values[len(w.values)-1]
}

var (
	genders = weighted[string]{[]string{"Male", "Female"}, []float64{0.55, 0.45}}

	departments = weighted[string]{
		[]string{"Human Resources", "Sales", "Engineering", "Marketing", "Finance", "Operations", "IT", "Customer Service"},
		[]float64{0.08, 0.25, 0.20, 0.12, 0.10, 0.08, 0.12, 0.05},
	}

	jobRoles = map[string][]string{
		"Engineering":      {"Software Engineer", "Senior Engineer", "Lead Engineer", "Architect"},
		"Sales":            {"Sales Representative", "Sales Manager", "Account Manager", "Sales Director"},
		"Human Resources":  {"HR Specialist", "HR Manager", "HR Director", "Recruiter"},
		"Marketing":        {"Marketing Specialist", "Marketing Manager", "Brand Manager", "Digital Marketer"},
		"Finance":          {"Financial Analyst", "Finance Manager", "Accountant", "CFO"},
		"Operations":       {"Operations Manager", "Process Analyst", "Operations Director"},
		"IT":               {"IT Support", "System Administrator", "IT Manager", "DevOps Engineer"},
		"Customer Service": {"Customer Service Rep", "Customer Success Manager"},
	}

	baseSalaries = map[string]float64{
		"Human Resources":  55000,
		"Sales":            60000,
		"Engineering":      80000,
		"Marketing":        65000,
		"Finance":          70000,
		"Operations":       58000,
		"IT":               75000,
		"Customer Service": 45000,
	}

	educationLevels = weighted[string]{[]string{"High School", "Bachelor", "Master", "PhD"}, []float64{0.15, 0.55, 0.25, 0.05}}
	maritalStatuses = weighted[string]{[]string{"Single", "Married", "Divorced"}, []float64{0.35, 0.55, 0.10}}

	jobSatisfaction          = weighted[int]{[]int{1, 2, 3, 4}, []float64{0.10, 0.20, 0.45, 0.25}}
	environmentSatisfaction  = weighted[int]{[]int{1, 2, 3, 4}, []float64{0.08, 0.22, 0.50, 0.20}}
	relationshipSatisfaction = weighted[int]{[]int{1, 2, 3, 4}, []float64{0.12, 0.18, 0.40, 0.30}}
	workLifeBalance          = weighted[int]{[]int{1, 2, 3, 4}, []float64{0.15, 0.25, 0.40, 0.20}}
	performanceRating        = weighted[int]{[]int{1, 2, 3, 4}, []float64{0.05, 0.15, 0.65, 0.15}}

	businessTravel = weighted[string]{[]string{TravelNone, TravelRarely, TravelFrequently}, []float64{0.30, 0.55, 0.15}}
	overtime       = weighted[string]{[]string{Yes, No}, []float64{0.35, 0.65}}
	stockOptions   = weighted[int]{[]int{0, 1, 2, 3}, []float64{0.40, 0.35, 0.15, 0.10}}
	dataSources    = weighted[string]{[]string{SourceTrain, SourceTest}, []float64{0.7, 0.3}}
)

// Generate creates n synthetic employees. The same seed always yields the same dataset.
func Generate(n int, seed uint64) []Employee {
	r := rand.New(rand.NewPCG(seed, seed))
	employees := make([]Employee, n)
	incomes := make([]float64, n)

	for i := range employees {
		e := &employees[i]
		e.EmployeeID = fmt.Sprintf("EMP%06d", i+1)
		e.Age = clampInt(int(r.NormFloat64()*8+35), 22, 65)
		e.Gender = genders.pick(r)
		e.Department = departments.pick(r)
		roles := jobRoles[e.Department]
		e.JobRole = roles[r.IntN(len(roles))]
		e.EducationLevel = educationLevels.pick(r)
		e.MaritalStatus = maritalStatuses.pick(r)

		e.YearsAtCompany = round1(clamp(r.ExpFloat64()*4, 0.1, 20))
		e.YearsInCurrentRole = round1(clamp(e.YearsAtCompany*uniform(r, 0.3, 1.0), 0.1, e.YearsAtCompany))
		e.YearsWithCurrManager = round1(clamp(e.YearsInCurrentRole*uniform(r, 0.2, 1.0), 0.1, e.YearsInCurrentRole))

		yearly := baseSalaries[e.Department] + e.YearsAtCompany*2000 + uniform(r, 0.8, 1.4)*1000
		e.MonthlyIncome = int(math.RoundToEven(yearly / 12))
		incomes[i] = float64(e.MonthlyIncome)

		e.JobSatisfaction = jobSatisfaction.pick(r)
		e.EnvironmentSatisfaction = environmentSatisfaction.pick(r)
		e.RelationshipSatisfaction = relationshipSatisfaction.pick(r)
		e.WorkLifeBalance = workLifeBalance.pick(r)
		e.PerformanceRating = performanceRating.pick(r)

		e.DistanceFromHome = clampInt(int(r.ExpFloat64()*8), 1, 50)
		e.BusinessTravel = businessTravel.pick(r)
		e.OverTime = overtime.pick(r)
		e.TrainingTimesLastYear = clampInt(poisson(r, 3), 0, 10)
		e.StockOptionLevel = stockOptions.pick(r)
		e.NumCompaniesWorked = clampInt(poisson(r, 2), 1, 8)
	}

	sorted := append([]float64{}, incomes...)
	sort.Float64s(sorted)
	lowIncome := quantile(sorted, 0.25)

	for i := range employees {
		e := &employees[i]
		e.Attrition = No
		if r.Float64() < attritionProbability(*e, lowIncome) {
			e.Attrition = Yes
		}
		e.DataSource = dataSources.pick(r)
	}

	return employees
}

// attritionProbability sums the risk weights that apply to e, scaled into [0.05, 0.80]
func attritionProbability(e Employee, lowIncome float64) float64 {
	risk := 0.0
	if e.JobSatisfaction == 1 {
		risk += 0.4
	}
	if e.EnvironmentSatisfaction == 1 {
		risk += 0.3
	}
	if e.WorkLifeBalance == 1 {
		risk += 0.35
	}
	if e.OverTime == Yes {
		risk += 0.25
	}
	if e.DistanceFromHome > 20 {
		risk += 0.15
	}
	if e.BusinessTravel == TravelFrequently {
		risk += 0.20
	}
	if e.YearsAtCompany < 2 {
		risk += 0.30
	}
	if float64(e.MonthlyIncome) < lowIncome {
		risk += 0.25
	}
	if e.TrainingTimesLastYear == 0 {
		risk += 0.20
	}
	return clamp(risk/3, minAttritionProbability, maxAttritionProbability)
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// poisson draws with Knuth's multiplication method, fine for small means
func poisson(r *rand.Rand, mean float64) int {
	limit := math.Exp(-mean)
	k := 0
	p := r.Float64()
	for p > limit {
		k++
		p *= r.Float64()
	}
	return k
}

// quantile interpolates linearly between the closest ranks of sorted values
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func round1(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}
