package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyFile indicates a CSV input without even a header row.
var ErrEmptyFile = errors.New("empty csv file")

// SchemaError reports a required column missing from an input table.
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("missing column %q", e.Column)
	}
	return fmt.Sprintf("%s: missing column %q", e.Table, e.Column)
}

// UnknownColumnError reports a user supplied column name that is not recognized.
type UnknownColumnError struct {
	Name       string
	NotNumeric bool
}

func (e *UnknownColumnError) Error() string {
	if e.NotNumeric {
		return fmt.Sprintf("column %q is not numeric (choose from %s)", e.Name, numericNames())
	}
	return fmt.Sprintf("unknown column %q (choose from %s)", e.Name, numericNames())
}

func numericNames() string {
	names := make([]string, len(NumericColumns))
	for i, c := range NumericColumns {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
