package analysis

import (
	"sort"

	"github.com/KaramelBytes/orderlens-cli/internal/dataset"
)

// CategoryCount is the number of purchases of one product category.
type CategoryCount struct {
	Category string `json:"product_category_name"`
	Count    int    `json:"purchase_count"`
}

// CategoryCounts filters t to the rows of city (exact, case-sensitive match)
// and counts purchases per product category, largest first.
func CategoryCounts(t *dataset.Table, city string) []CategoryCount {
	return CountByCategory(t.FilterCity(city))
}

// CountByCategory counts rows per product category, sorted by count
// descending. Rows with an empty order_id are not counted and rows without a
// category are not grouped. Equal counts keep the order in which the category
// first appears.
func CountByCategory(t *dataset.Table) []CategoryCount {
	if t.Len() == 0 {
		return []CategoryCount{}
	}
	cats := t.Strings(dataset.ProductCategory)
	orders := t.Strings(dataset.OrderID)
	index := make(map[string]int)
	out := []CategoryCount{}
	for i, c := range cats {
		if c == "" || orders[i] == "" {
			continue
		}
		pos, ok := index[c]
		if !ok {
			pos = len(out)
			index[c] = pos
			out = append(out, CategoryCount{Category: c})
		}
		out[pos].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Top returns at most n leading entries; n <= 0 returns all of them.
func Top(counts []CategoryCount, n int) []CategoryCount {
	return topOf(counts, n)
}
