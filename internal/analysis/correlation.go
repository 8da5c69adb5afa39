package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/orderlens-cli/internal/dataset"
	"gonum.org/v1/gonum/stat"
)

// ErrTooFewColumns is returned when fewer than two distinct columns are selected.
var ErrTooFewColumns = errors.New("please select at least 2 variables")

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
// Cells whose correlation is undefined (fewer than two complete observations or
// a constant column) are NaN; the diagonal is always 1.
type CorrMatrix struct {
	Columns []dataset.Column
	Values  [][]float64 // row-major, Values[i][j]
	// N[i][j] is the number of rows complete in both columns.
	N [][]int
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B dataset.Column
	R    float64
	N    int
}

// ResolveColumns maps user supplied names (any case, spaces or underscores)
// to distinct numeric columns in the order given.
func ResolveColumns(names []string) ([]dataset.Column, error) {
	var cols []dataset.Column
	seen := make(map[dataset.Column]struct{})
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		c, err := dataset.ParseNumericColumn(n)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		cols = append(cols, c)
	}
	if len(cols) < 2 {
		return cols, ErrTooFewColumns
	}
	return cols, nil
}

// Correlate computes the pairwise Pearson matrix for the named columns. Each
// pair uses only the rows where both values are present.
func Correlate(t *dataset.Table, names []string) (*CorrMatrix, error) {
	cols, err := ResolveColumns(names)
	if err != nil {
		return nil, err
	}
	vals := make([][]float64, len(cols))
	for i, c := range cols {
		v, err := t.Floats(c)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	n := len(cols)
	m := &CorrMatrix{Columns: cols, Values: make([][]float64, n), N: make([][]int, n)}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
		m.N[i] = make([]int, n)
	}
	for a := 0; a < n; a++ {
		m.Values[a][a] = 1
		m.N[a][a] = countPresent(vals[a])
		for b := a + 1; b < n; b++ {
			r, cnt := pearson(vals[a], vals[b])
			m.Values[a][b], m.Values[b][a] = r, r
			m.N[a][b], m.N[b][a] = cnt, cnt
		}
	}
	return m, nil
}

// pearson correlates the complete pairs of x and y.
func pearson(x, y []float64) (float64, int) {
	var xs, ys []float64
	for i := range x {
		if i >= len(y) || math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 || constant(xs) || constant(ys) {
		return math.NaN(), len(xs)
	}
	r := stat.Correlation(xs, ys, nil)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, len(xs)
}

func constant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}

func countPresent(v []float64) int {
	n := 0
	for _, x := range v {
		if !math.IsNaN(x) {
			n++
		}
	}
	return n
}

// At returns the coefficient for columns a and b.
func (m *CorrMatrix) At(a, b dataset.Column) (float64, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

func (m *CorrMatrix) index(c dataset.Column) int {
	for i, col := range m.Columns {
		if col == c {
			return i
		}
	}
	return -1
}

// Pairs lists the off-diagonal pairs ordered by |r| descending; undefined
// pairs come last.
func (m *CorrMatrix) Pairs() []PairCorr {
	var pairs []PairCorr
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j], N: m.N[i][j]})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		ni, nj := math.IsNaN(pairs[i].R), math.IsNaN(pairs[j].R)
		if ni != nj {
			return nj
		}
		return math.Abs(pairs[i].R) > math.Abs(pairs[j].R)
	})
	return pairs
}

// FormatCoef renders a coefficient rounded to two decimals, "n/a" when undefined.
func FormatCoef(r float64) string {
	if math.IsNaN(r) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", r)
}

// Markdown renders the matrix as a table with coefficients rounded to 2 decimals.
func (m *CorrMatrix) Markdown() string {
	var b strings.Builder
	b.WriteString("| |")
	for _, c := range m.Columns {
		b.WriteString(" ")
		b.WriteString(string(c))
		b.WriteString(" |")
	}
	b.WriteString("\n|---|")
	for range m.Columns {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for i, c := range m.Columns {
		b.WriteString("| ")
		b.WriteString(string(c))
		b.WriteString(" |")
		for j := range m.Columns {
			b.WriteString(" ")
			b.WriteString(FormatCoef(m.Values[i][j]))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}
	return b.String()
}

type corrJSON struct {
	Columns []dataset.Column `json:"columns"`
	Values  [][]*float64     `json:"values"`
	N       [][]int          `json:"n"`
}

// MarshalJSON encodes undefined coefficients as null.
func (m *CorrMatrix) MarshalJSON() ([]byte, error) {
	out := corrJSON{Columns: m.Columns, N: m.N, Values: make([][]*float64, len(m.Values))}
	for i, row := range m.Values {
		out.Values[i] = make([]*float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			v := v
			out.Values[i][j] = &v
		}
	}
	return json.Marshal(out)
}
