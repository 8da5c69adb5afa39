package dataset

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Table is a loaded, read-only snapshot of the merged order table. Queries
// return new tables and never modify the receiver.
type Table struct {
	name string
	df   dataframe.DataFrame
}

// Load reads the merged table at path. Every column in Columns must be present;
// numeric columns are parsed as float64 with missing values as NaN.
func Load(path string, delimiter rune) (*Table, error) {
	df, err := ReadFile(path, ReadOptions{Delimiter: delimiter, Floats: NumericColumns})
	if err != nil {
		return nil, err
	}
	t, err := NewTable(filepath.Base(path), df)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// NewTable wraps an existing frame after checking it carries every recognized
// column. Numeric columns that are still text are converted to float64.
func NewTable(name string, df dataframe.DataFrame) (*Table, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	names := make([]string, len(Columns))
	for i, c := range Columns {
		names[i] = string(c)
	}
	if err := RequireColumns(df, name, names...); err != nil {
		return nil, err
	}
	for _, c := range NumericColumns {
		col := df.Col(string(c))
		if col.Type() == series.Float {
			continue
		}
		df = df.Mutate(series.New(col.Float(), series.Float, string(c)))
		if df.Err != nil {
			return nil, fmt.Errorf("convert %s: %w", c, df.Err)
		}
	}
	return &Table{name: name, df: df}, nil
}

// Name is the base name of the file the table was loaded from.
func (t *Table) Name() string { return t.name }

// Len returns the number of rows.
func (t *Table) Len() int { return t.df.Nrow() }

// Strings returns the text values of column c in row order.
func (t *Table) Strings(c Column) []string {
	if t.Len() == 0 {
		return nil
	}
	return t.df.Col(string(c)).Records()
}

// Floats returns the values of numeric column c; missing cells are NaN.
func (t *Table) Floats(c Column) ([]float64, error) {
	if !c.IsNumeric() {
		return nil, &UnknownColumnError{Name: string(c), NotNumeric: true}
	}
	if t.Len() == 0 {
		return nil, nil
	}
	return t.df.Col(string(c)).Float(), nil
}

// FilterCity returns the rows whose customer_city equals city exactly.
func (t *Table) FilterCity(city string) *Table {
	if t.Len() == 0 {
		return t
	}
	df := t.df.Filter(dataframe.F{
		Colname:    string(CustomerCity),
		Comparator: series.Eq,
		Comparando: city,
	})
	if df.Err != nil {
		// the column is guaranteed by NewTable; a filter error means no match
		return t.empty()
	}
	return &Table{name: t.name, df: df}
}

// Cities returns the distinct customer cities, sorted.
func (t *Table) Cities() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range t.Strings(CustomerCity) {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// HasCity reports whether any row belongs to city.
func (t *Table) HasCity(city string) bool {
	for _, c := range t.Strings(CustomerCity) {
		if c == city {
			return true
		}
	}
	return false
}

func (t *Table) empty() *Table {
	return &Table{name: t.name, df: t.df.Subset([]int{})}
}
