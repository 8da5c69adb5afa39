package analysis

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TitleCity renders a city name for headings, e.g. "sao paulo" -> "Sao Paulo".
func TitleCity(city string) string {
	return cases.Title(language.Und).String(city)
}

// CategoryTitle is the heading used for a city's category chart.
func CategoryTitle(city string) string {
	return "Most Purchases in " + TitleCity(city)
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.4g", v)
}

// CategoriesMarkdown renders the purchase counts of a city.
func CategoriesMarkdown(city string, counts []CategoryCount) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s]\n", strings.ToUpper(CategoryTitle(city))))
	if len(counts) == 0 {
		b.WriteString("No purchases recorded for this city.\n")
		return b.String()
	}
	b.WriteString("| product_category_name | purchase_count |\n|---|---|\n")
	for _, c := range counts {
		b.WriteString(p.Sprintf("| %s | %d |\n", c.Category, c.Count))
	}
	return b.String()
}

// Markdown renders the explore report with bracketed sections.
func (r *ExploreReport) Markdown() string {
	p := message.NewPrinter(language.English)
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Source))
	}
	b.WriteString(p.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(p.Sprintf("Cities: %d\n", r.CityTotal))
	b.WriteString(p.Sprintf("Categories: %d\n\n", len(r.Categories)))

	b.WriteString("[DESCRIBE]\n")
	for _, c := range r.Describe {
		s := c.Stats
		b.WriteString(p.Sprintf("- %s (n=%d)", c.Column, s.Count))
		b.WriteString(fmt.Sprintf(": min %s, max %s, mean %s, std %s\n", num(s.Min), num(s.Max), num(s.Mean), num(s.Std)))
	}

	if len(r.ByScore) > 0 {
		b.WriteString("\n[BY REVIEW SCORE]\n")
		for _, g := range r.ByScore {
			b.WriteString(p.Sprintf("- score %g: %d customers\n", g.Score, g.Customers))
			b.WriteString(fmt.Sprintf("  • product_weight_g: max %s, min %s, mean %s, std %s\n", num(g.Weight.Max), num(g.Weight.Min), num(g.Weight.Mean), num(g.Weight.Std)))
			b.WriteString(fmt.Sprintf("  • freight_value: max %s, min %s, mean %s, std %s\n", num(g.Freight.Max), num(g.Freight.Min), num(g.Freight.Mean), num(g.Freight.Std)))
		}
	}

	if len(r.Cities) > 0 {
		b.WriteString("\n[ORDERS BY CITY]\n")
		for _, c := range r.Cities {
			b.WriteString(p.Sprintf("- %s: %d orders\n", c.City, c.Orders))
		}
		if len(r.Cities) < r.CityTotal {
			b.WriteString(p.Sprintf("  (top %d of %d cities)\n", len(r.Cities), r.CityTotal))
		}
	}

	if len(r.Categories) > 0 {
		b.WriteString("\n[CATEGORIES]\n")
		for _, c := range r.Categories {
			b.WriteString(p.Sprintf("- %s: %d products, mean review %s\n", c.Category, c.Products, num(c.MeanReview)))
		}
	}

	if len(r.TopPerCity) > 0 {
		b.WriteString("\n[TOP CATEGORY PER CITY]\n")
		for _, c := range r.TopPerCity {
			b.WriteString(p.Sprintf("- %s: %s (%d)\n", c.City, c.Category, c.Count))
		}
	}

	if r.Correlation != nil && len(r.Correlation.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		b.WriteString(r.Correlation.Markdown())
		for _, pr := range r.Correlation.Pairs() {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%s (n=%d)\n", pr.A, pr.B, FormatCoef(pr.R), pr.N))
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RFMMarkdown renders customer profiles as a table.
func RFMMarkdown(rows []RFM) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder
	b.WriteString("[RFM]\n")
	if len(rows) == 0 {
		b.WriteString("No customers.\n")
		return b.String()
	}
	b.WriteString("| customer_id | customer_city | recency_days | frequency | monetary |\n|---|---|---|---|---|\n")
	for _, r := range rows {
		rec := "n/a"
		if r.Recency >= 0 {
			rec = fmt.Sprint(r.Recency)
		}
		b.WriteString(p.Sprintf("| %s | %s | %s | %d | %.2f |\n", r.CustomerID, r.City, rec, r.Frequency, r.Monetary))
	}
	return b.String()
}
