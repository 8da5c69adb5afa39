package analysis

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/KaramelBytes/orderlens-cli/internal/dataset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics of one numeric column. Missing values
// are excluded; with no values every statistic is NaN.
type Summary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// ColumnSummary pairs a column with its statistics.
type ColumnSummary struct {
	Column dataset.Column `json:"column"`
	Stats  Summary        `json:"stats"`
}

// Summarize computes count, mean, sample standard deviation, min and max.
func Summarize(values []float64) Summary {
	xs := present(values)
	s := Summary{Count: len(xs), Mean: math.NaN(), Std: math.NaN(), Min: math.NaN(), Max: math.NaN()}
	if len(xs) == 0 {
		return s
	}
	s.Min, s.Max = floats.Min(xs), floats.Max(xs)
	if len(xs) == 1 {
		s.Mean = xs[0]
		return s
	}
	s.Mean, s.Std = stat.MeanStdDev(xs, nil)
	return s
}

// MarshalJSON encodes undefined statistics as null.
func (s Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Count int      `json:"count"`
		Mean  *float64 `json:"mean"`
		Std   *float64 `json:"std"`
		Min   *float64 `json:"min"`
		Max   *float64 `json:"max"`
	}{s.Count, nullable(s.Mean), nullable(s.Std), nullable(s.Min), nullable(s.Max)})
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func present(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Describe summarizes every numeric column of t.
func Describe(t *dataset.Table) ([]ColumnSummary, error) {
	out := make([]ColumnSummary, 0, len(dataset.NumericColumns))
	for _, c := range dataset.NumericColumns {
		v, err := t.Floats(c)
		if err != nil {
			return nil, err
		}
		out = append(out, ColumnSummary{Column: c, Stats: Summarize(v)})
	}
	return out, nil
}

// ScoreGroup aggregates the rows sharing one review score.
type ScoreGroup struct {
	Score     float64 `json:"review_score"`
	Customers int     `json:"customers"`
	Weight    Summary `json:"product_weight_g"`
	Freight   Summary `json:"freight_value"`
}

// ByReviewScore groups rows by review score, ascending. Rows without a score
// are skipped.
func ByReviewScore(t *dataset.Table) ([]ScoreGroup, error) {
	scores, err := t.Floats(dataset.ReviewScore)
	if err != nil {
		return nil, err
	}
	weights, err := t.Floats(dataset.ProductWeight)
	if err != nil {
		return nil, err
	}
	freights, err := t.Floats(dataset.FreightValue)
	if err != nil {
		return nil, err
	}
	customers := t.Strings(dataset.CustomerID)

	type acc struct {
		customers map[string]struct{}
		w, f      []float64
	}
	groups := make(map[float64]*acc)
	for i, s := range scores {
		if math.IsNaN(s) {
			continue
		}
		a, ok := groups[s]
		if !ok {
			a = &acc{customers: make(map[string]struct{})}
			groups[s] = a
		}
		if customers[i] != "" {
			a.customers[customers[i]] = struct{}{}
		}
		a.w = append(a.w, weights[i])
		a.f = append(a.f, freights[i])
	}
	out := make([]ScoreGroup, 0, len(groups))
	for s, a := range groups {
		out = append(out, ScoreGroup{
			Score:     s,
			Customers: len(a.customers),
			Weight:    Summarize(a.w),
			Freight:   Summarize(a.f),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	return out, nil
}

// CityOrders is the number of distinct orders placed from a city.
type CityOrders struct {
	City   string `json:"customer_city"`
	Orders int    `json:"orders"`
}

// OrdersByCity counts distinct orders per city, most orders first. Equal
// counts are ordered by city name.
func OrdersByCity(t *dataset.Table) []CityOrders {
	cities := t.Strings(dataset.CustomerCity)
	orders := t.Strings(dataset.OrderID)
	sets := make(map[string]map[string]struct{})
	for i, c := range cities {
		if c == "" || orders[i] == "" {
			continue
		}
		set, ok := sets[c]
		if !ok {
			set = make(map[string]struct{})
			sets[c] = set
		}
		set[orders[i]] = struct{}{}
	}
	out := make([]CityOrders, 0, len(sets))
	for c, set := range sets {
		out = append(out, CityOrders{City: c, Orders: len(set)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Orders != out[j].Orders {
			return out[i].Orders > out[j].Orders
		}
		return out[i].City < out[j].City
	})
	return out
}

// CategoryStat summarizes one product category.
type CategoryStat struct {
	Category   string  `json:"product_category_name"`
	Products   int     `json:"products"`
	MeanReview float64 `json:"mean_review_score"`
}

// CategorySummary counts distinct products and averages the review score per
// category, sorted by category name.
func CategorySummary(t *dataset.Table) ([]CategoryStat, error) {
	scores, err := t.Floats(dataset.ReviewScore)
	if err != nil {
		return nil, err
	}
	cats := t.Strings(dataset.ProductCategory)
	products := t.Strings(dataset.ProductID)

	type acc struct {
		products map[string]struct{}
		scores   []float64
	}
	groups := make(map[string]*acc)
	for i, c := range cats {
		if c == "" {
			continue
		}
		a, ok := groups[c]
		if !ok {
			a = &acc{products: make(map[string]struct{})}
			groups[c] = a
		}
		if products[i] != "" {
			a.products[products[i]] = struct{}{}
		}
		a.scores = append(a.scores, scores[i])
	}
	out := make([]CategoryStat, 0, len(groups))
	for c, a := range groups {
		out = append(out, CategoryStat{Category: c, Products: len(a.products), MeanReview: Summarize(a.scores).Mean})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// MarshalJSON encodes an undefined mean review as null.
func (c CategoryStat) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Category   string   `json:"product_category_name"`
		Products   int      `json:"products"`
		MeanReview *float64 `json:"mean_review_score"`
	}{c.Category, c.Products, nullable(c.MeanReview)})
}

// CityTopCategory is the most purchased category of one city.
type CityTopCategory struct {
	City     string `json:"customer_city"`
	Category string `json:"product_category_name"`
	Count    int    `json:"purchase_count"`
}

// TopCategoryPerCity finds each city's most purchased category (ties go to
// the alphabetically first category), then orders the cities by that count
// descending and city name ascending.
func TopCategoryPerCity(t *dataset.Table) []CityTopCategory {
	cities := t.Strings(dataset.CustomerCity)
	cats := t.Strings(dataset.ProductCategory)
	orders := t.Strings(dataset.OrderID)
	counts := make(map[string]map[string]int)
	for i, city := range cities {
		if city == "" || cats[i] == "" || orders[i] == "" {
			continue
		}
		m, ok := counts[city]
		if !ok {
			m = make(map[string]int)
			counts[city] = m
		}
		m[cats[i]]++
	}
	out := make([]CityTopCategory, 0, len(counts))
	for city, m := range counts {
		best := CityTopCategory{City: city}
		for cat, n := range m {
			if n > best.Count || (n == best.Count && cat < best.Category) {
				best.Category, best.Count = cat, n
			}
		}
		out = append(out, best)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].City < out[j].City
	})
	return out
}

// ExploreVars are the columns correlated by the explore report.
var ExploreVars = []string{
	string(dataset.ProductWeight),
	string(dataset.FreightValue),
	string(dataset.ReviewScore),
}

// ExploreReport gathers the exploratory views of the merged table.
type ExploreReport struct {
	Source      string            `json:"source"`
	Rows        int               `json:"rows"`
	Describe    []ColumnSummary   `json:"describe"`
	ByScore     []ScoreGroup      `json:"by_review_score"`
	Cities      []CityOrders      `json:"orders_by_city"`
	CityTotal   int               `json:"city_total"`
	Categories  []CategoryStat    `json:"categories"`
	TopPerCity  []CityTopCategory `json:"top_category_per_city"`
	Correlation *CorrMatrix       `json:"correlation"`
	TopN        int               `json:"top_n"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// Explore builds the full report. topN bounds the city listings; 0 keeps all.
func Explore(t *dataset.Table, topN int) (*ExploreReport, error) {
	rep := &ExploreReport{Source: t.Name(), Rows: t.Len(), TopN: topN}
	var err error
	if rep.Describe, err = Describe(t); err != nil {
		return nil, err
	}
	if rep.ByScore, err = ByReviewScore(t); err != nil {
		return nil, err
	}
	if rep.Categories, err = CategorySummary(t); err != nil {
		return nil, err
	}
	cities := OrdersByCity(t)
	rep.CityTotal = len(cities)
	rep.Cities = topOf(cities, topN)
	rep.TopPerCity = topOf(TopCategoryPerCity(t), topN)
	if rep.Correlation, err = Correlate(t, ExploreVars); err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		rep.Warnings = append(rep.Warnings, "table has no rows")
	}
	return rep, nil
}

func topOf[T any](xs []T, n int) []T {
	if n <= 0 || len(xs) <= n {
		return xs
	}
	return xs[:n]
}
