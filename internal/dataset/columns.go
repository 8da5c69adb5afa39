package dataset

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Column identifies a recognized column of the merged order table.
type Column string

const (
	CustomerID        Column = "customer_id"
	CustomerCity      Column = "customer_city"
	OrderID           Column = "order_id"
	PurchaseTimestamp Column = "order_purchase_timestamp"
	ProductID         Column = "product_id"
	ProductCategory   Column = "product_category_name"
	ProductWeight     Column = "product_weight_g"
	FreightValue      Column = "freight_value"
	Price             Column = "price"
	ReviewScore       Column = "review_score"
)

// Columns lists every column a merged table must carry.
var Columns = []Column{
	CustomerID,
	CustomerCity,
	OrderID,
	PurchaseTimestamp,
	ProductID,
	ProductCategory,
	ProductWeight,
	FreightValue,
	Price,
	ReviewScore,
}

// NumericColumns are the columns loaded as float64 and eligible for correlation.
var NumericColumns = []Column{ProductWeight, FreightValue, ReviewScore, Price}

// IsNumeric reports whether c holds numeric values.
func (c Column) IsNumeric() bool {
	for _, n := range NumericColumns {
		if c == n {
			return true
		}
	}
	return false
}

// Label is the human-facing name, e.g. "Product Weight G".
func (c Column) Label() string {
	return cases.Title(language.Und).String(strings.ReplaceAll(string(c), "_", " "))
}

// NormalizeName lower-cases a user supplied column name and turns spaces into
// underscores, so "Freight Value" and "freight_value" resolve the same way.
func NormalizeName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(n), "_")
}

// ParseColumn resolves a user supplied name to a recognized Column.
func ParseColumn(name string) (Column, error) {
	n := NormalizeName(name)
	for _, c := range Columns {
		if string(c) == n {
			return c, nil
		}
	}
	return "", &UnknownColumnError{Name: name}
}

// ParseNumericColumn resolves name and rejects non-numeric columns.
func ParseNumericColumn(name string) (Column, error) {
	c, err := ParseColumn(name)
	if err != nil {
		return "", err
	}
	if !c.IsNumeric() {
		return "", &UnknownColumnError{Name: name, NotNumeric: true}
	}
	return c, nil
}
