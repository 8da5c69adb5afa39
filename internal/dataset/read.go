package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// ReadOptions controls how a delimited file is turned into a DataFrame.
type ReadOptions struct {
	// Delimiter for CSV. If 0, ',' is used (or '\t' for .tsv paths in ReadFile).
	Delimiter rune
	// Floats names the columns parsed as float64; everything else stays text.
	Floats []Column
}

// ReadFrame reads a delimited table with a header row. Values keep their exact
// text unless the column is listed in opt.Floats, where unparsable or empty
// cells become NaN. A header-only input yields a zero-row frame.
func ReadFrame(r io.Reader, opt ReadOptions) (dataframe.DataFrame, error) {
	cr := csv.NewReader(r)
	cr.Comma = opt.Delimiter
	if cr.Comma == 0 {
		cr.Comma = ','
	}
	records, err := cr.ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return dataframe.DataFrame{}, ErrEmptyFile
	}
	header := records[0]
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		header[i] = strings.TrimSpace(h)
	}
	types := make(map[string]series.Type, len(opt.Floats))
	for _, c := range opt.Floats {
		types[string(c)] = series.Float
	}

	var df dataframe.DataFrame
	if len(records) == 1 {
		cols := make([]series.Series, len(header))
		for i, name := range header {
			t, ok := types[name]
			if !ok {
				t = series.String
			}
			cols[i] = series.New([]string{}, t, name)
		}
		df = dataframe.New(cols...)
	} else {
		df = dataframe.LoadRecords(records,
			dataframe.HasHeader(true),
			dataframe.DetectTypes(false),
			dataframe.DefaultType(series.String),
			dataframe.NaNValues(nil),
			dataframe.WithTypes(types),
		)
	}
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("load records: %w", df.Err)
	}
	return df, nil
}

// ReadFile opens path and reads it with ReadFrame.
func ReadFile(path string, opt ReadOptions) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = DelimiterFor(path)
	}
	df, err := ReadFrame(f, opt)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("%s: %w", path, err)
	}
	return df, nil
}

// RequireColumns returns a *SchemaError for the first name missing from df.
func RequireColumns(df dataframe.DataFrame, table string, names ...string) error {
	have := make(map[string]struct{}, df.Ncol())
	for _, n := range df.Names() {
		have[n] = struct{}{}
	}
	for _, n := range names {
		if _, ok := have[n]; !ok {
			return &SchemaError{Table: table, Column: n}
		}
	}
	return nil
}

// DelimiterFor returns '\t' for .tsv paths and ',' otherwise.
func DelimiterFor(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
