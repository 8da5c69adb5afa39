package merge

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/orderlens-cli/internal/dataset"
	"github.com/KaramelBytes/orderlens-cli/internal/utils"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ReviewPolicy decides how orders with several reviews enter the merged table.
type ReviewPolicy string

const (
	// ReviewsAll keeps every review row; an order with two reviews yields two
	// rows per item.
	ReviewsAll ReviewPolicy = "all"
	// ReviewsFirst keeps the first review of each order in file order.
	ReviewsFirst ReviewPolicy = "first"
	// ReviewsMean collapses an order's reviews into one row with the mean score.
	ReviewsMean ReviewPolicy = "mean"
)

// ParseReviewPolicy accepts "all", "first" or "mean" (case-insensitive).
// An empty string selects ReviewsAll.
func ParseReviewPolicy(s string) (ReviewPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "keep":
		return ReviewsAll, nil
	case "first":
		return ReviewsFirst, nil
	case "mean", "avg", "average":
		return ReviewsMean, nil
	default:
		return "", fmt.Errorf("invalid review policy: %s (use all|first|mean)", s)
	}
}

// Options controls a merge run.
type Options struct {
	// Delimiter of the source files and of the merged output. If 0, inferred
	// from each file's extension.
	Delimiter rune
	Reviews   ReviewPolicy
}

// Inputs holds the pruned source tables keyed by Source.Name.
type Inputs map[string]dataframe.DataFrame

// TableStat summarizes one source table after column pruning.
type TableStat struct {
	Name       string
	File       string
	Rows       int
	Cols       int
	Duplicates int
}

// StageStat records the row counts around one inner join.
type StageStat struct {
	Right     string
	Key       dataset.Column
	LeftRows  int
	RightRows int
	Rows      int
}

// Report describes what a merge did.
type Report struct {
	Tables        []TableStat
	Reviews       ReviewPolicy
	ReviewsBefore int
	ReviewsAfter  int
	Stages        []StageStat
	Rows          int
	Columns       []string
	Output        string
	Warnings      []string
}

// LoadSources reads every Source from dir, checks its declared columns and
// drops the columns not needed downstream.
func LoadSources(dir string, delimiter rune) (Inputs, []TableStat, error) {
	in := make(Inputs, len(Sources))
	stats := make([]TableStat, 0, len(Sources))
	for _, s := range Sources {
		df, err := dataset.ReadFile(s.Path(dir), dataset.ReadOptions{Delimiter: delimiter})
		if err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", s.Name, err)
		}
		keep := s.keepNames()
		if err := dataset.RequireColumns(df, s.Name, keep...); err != nil {
			return nil, nil, err
		}
		df = df.Select(keep)
		if df.Err != nil {
			return nil, nil, fmt.Errorf("select %s columns: %w", s.Name, df.Err)
		}
		in[s.Name] = df
		stats = append(stats, TableStat{
			Name:       s.Name,
			File:       s.File,
			Rows:       df.Nrow(),
			Cols:       df.Ncol(),
			Duplicates: countDuplicates(df),
		})
	}
	return in, stats, nil
}

// Join runs the successive inner joins customers⋈orders⋈items⋈reviews⋈products.
func Join(in Inputs, policy ReviewPolicy) (dataframe.DataFrame, *Report, error) {
	if policy == "" {
		policy = ReviewsAll
	}
	frame := func(s Source) (dataframe.DataFrame, error) {
		df, ok := in[s.Name]
		if !ok {
			return dataframe.DataFrame{}, fmt.Errorf("missing input table %s", s.Name)
		}
		if err := dataset.RequireColumns(df, s.Name, s.keepNames()...); err != nil {
			return dataframe.DataFrame{}, err
		}
		return df, nil
	}

	rep := &Report{Reviews: policy}
	acc, err := frame(Customers)
	if err != nil {
		return dataframe.DataFrame{}, nil, err
	}
	steps := []struct {
		src Source
		key dataset.Column
	}{
		{Orders, dataset.CustomerID},
		{OrderItems, dataset.OrderID},
		{OrderReviews, dataset.OrderID},
		{Products, dataset.ProductID},
	}
	for _, st := range steps {
		right, err := frame(st.src)
		if err != nil {
			return dataframe.DataFrame{}, nil, err
		}
		if st.src.Name == OrderReviews.Name {
			rep.ReviewsBefore = right.Nrow()
			right, err = applyReviewPolicy(right, policy)
			if err != nil {
				return dataframe.DataFrame{}, nil, err
			}
			rep.ReviewsAfter = right.Nrow()
		}
		out, err := innerJoin(acc, right, st.key)
		if err != nil {
			return dataframe.DataFrame{}, nil, fmt.Errorf("join %s on %s: %w", st.src.Name, st.key, err)
		}
		rep.Stages = append(rep.Stages, StageStat{
			Right:     st.src.Name,
			Key:       st.key,
			LeftRows:  acc.Nrow(),
			RightRows: right.Nrow(),
			Rows:      out.Nrow(),
		})
		acc = out
	}
	rep.Rows = acc.Nrow()
	rep.Columns = acc.Names()
	if rep.Rows == 0 {
		rep.Warnings = append(rep.Warnings, "merge produced no rows; source keys do not overlap")
	}
	return acc, rep, nil
}

// Run loads the sources in dir, joins them and writes the merged table to
// output, replacing any file already there.
func Run(dir, output string, opt Options) (*Report, error) {
	in, stats, err := LoadSources(dir, opt.Delimiter)
	if err != nil {
		return nil, err
	}
	df, rep, err := Join(in, opt.Reviews)
	if err != nil {
		return nil, err
	}
	rep.Tables = stats
	for _, s := range stats {
		if s.Duplicates > 0 {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: %d duplicated rows after column pruning", s.Name, s.Duplicates))
		}
	}
	if err := WriteCSV(output, df, opt.Delimiter); err != nil {
		return nil, err
	}
	rep.Output = output
	return rep, nil
}

// WriteCSV writes df with a header row, atomically replacing path. Fields are
// separated by delimiter, or by the one dataset.ReadFile infers from path when
// delimiter is 0, so the result loads back with the same setting.
func WriteCSV(path string, df dataframe.DataFrame, delimiter rune) error {
	if df.Err != nil {
		return df.Err
	}
	if delimiter == 0 {
		delimiter = dataset.DelimiterFor(path)
	}
	records := df.Records()
	err := utils.WriteFileAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		cw.Comma = delimiter
		if err := cw.WriteAll(records); err != nil {
			return err
		}
		return cw.Error()
	})
	if err != nil {
		return fmt.Errorf("write merged table: %w", err)
	}
	return nil
}

// innerJoin is a hash join on a single key column. Output rows follow the
// left table's order, and for each left row the right matches in their order.
// Columns are the left columns followed by the right columns minus the key.
// Empty keys never match.
func innerJoin(left, right dataframe.DataFrame, key dataset.Column) (dataframe.DataFrame, error) {
	k := string(key)
	if err := dataset.RequireColumns(left, "left", k); err != nil {
		return dataframe.DataFrame{}, err
	}
	if err := dataset.RequireColumns(right, "right", k); err != nil {
		return dataframe.DataFrame{}, err
	}
	leftNames := make(map[string]struct{}, left.Ncol())
	for _, n := range left.Names() {
		leftNames[n] = struct{}{}
	}
	for _, n := range right.Names() {
		if _, dup := leftNames[n]; dup && n != k {
			return dataframe.DataFrame{}, fmt.Errorf("column %q present on both sides", n)
		}
	}

	index := make(map[string][]int)
	for j, v := range keyValues(right, k) {
		if v == "" {
			continue
		}
		index[v] = append(index[v], j)
	}
	var li, ri []int
	for i, v := range keyValues(left, k) {
		for _, j := range index[v] {
			li = append(li, i)
			ri = append(ri, j)
		}
	}
	if li == nil {
		li, ri = []int{}, []int{}
	}

	rest := right.Drop(k)
	if rest.Err != nil {
		return dataframe.DataFrame{}, rest.Err
	}
	out := left.Subset(li).CBind(rest.Subset(ri))
	if out.Err != nil {
		return dataframe.DataFrame{}, out.Err
	}
	return out, nil
}

func keyValues(df dataframe.DataFrame, col string) []string {
	if df.Nrow() == 0 {
		return nil
	}
	return df.Col(col).Records()
}

func applyReviewPolicy(reviews dataframe.DataFrame, policy ReviewPolicy) (dataframe.DataFrame, error) {
	if reviews.Nrow() == 0 {
		return reviews, nil
	}
	ids := reviews.Col(string(dataset.OrderID)).Records()
	switch policy {
	case ReviewsAll:
		return reviews, nil
	case ReviewsFirst:
		seen := make(map[string]struct{}, len(ids))
		idx := make([]int, 0, len(ids))
		for i, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			idx = append(idx, i)
		}
		out := reviews.Subset(idx)
		return out, out.Err
	case ReviewsMean:
		scores := reviews.Col(string(dataset.ReviewScore)).Records()
		type acc struct {
			sum float64
			n   int
		}
		var order []string
		accs := make(map[string]*acc, len(ids))
		for i, id := range ids {
			a, ok := accs[id]
			if !ok {
				a = &acc{}
				accs[id] = a
				order = append(order, id)
			}
			if v, err := strconv.ParseFloat(strings.TrimSpace(scores[i]), 64); err == nil && !math.IsNaN(v) {
				a.sum += v
				a.n++
			}
		}
		means := make([]string, len(order))
		for i, id := range order {
			if a := accs[id]; a.n > 0 {
				means[i] = strconv.FormatFloat(a.sum/float64(a.n), 'f', -1, 64)
			}
		}
		out := dataframe.New(
			series.New(order, series.String, string(dataset.OrderID)),
			series.New(means, series.String, string(dataset.ReviewScore)),
		)
		return out, out.Err
	default:
		return dataframe.DataFrame{}, fmt.Errorf("invalid review policy: %s", policy)
	}
}

func countDuplicates(df dataframe.DataFrame) int {
	if df.Nrow() == 0 {
		return 0
	}
	cols := make([][]string, 0, df.Ncol())
	for _, n := range df.Names() {
		cols = append(cols, df.Col(n).Records())
	}
	seen := make(map[string]struct{}, df.Nrow())
	dups := 0
	var b strings.Builder
	for r := 0; r < df.Nrow(); r++ {
		b.Reset()
		for c := range cols {
			if c > 0 {
				b.WriteByte(0x1f)
			}
			b.WriteString(cols[c][r])
		}
		k := b.String()
		if _, ok := seen[k]; ok {
			dups++
			continue
		}
		seen[k] = struct{}{}
	}
	return dups
}
