package merge

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Markdown renders the merge report in the same bracketed-section layout as the
// analysis reports.
func (r *Report) Markdown() string {
	p := message.NewPrinter(language.English)
	var b strings.Builder
	b.WriteString("[MERGE SUMMARY]\n")
	if r.Output != "" {
		b.WriteString(fmt.Sprintf("Output: %s\n", r.Output))
	}
	b.WriteString(p.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %s\n", strings.Join(r.Columns, ", ")))
	b.WriteString(fmt.Sprintf("Review policy: %s", r.Reviews))
	if r.ReviewsBefore != r.ReviewsAfter {
		b.WriteString(p.Sprintf(" (%d → %d review rows)", r.ReviewsBefore, r.ReviewsAfter))
	}
	b.WriteString("\n")

	if len(r.Tables) > 0 {
		b.WriteString("\n[SOURCES]\n")
		for _, t := range r.Tables {
			b.WriteString(p.Sprintf("- %s (%s): %d rows, %d columns kept, %d duplicated\n", t.Name, t.File, t.Rows, t.Cols, t.Duplicates))
		}
	}
	if len(r.Stages) > 0 {
		b.WriteString("\n[JOINS]\n")
		for _, s := range r.Stages {
			b.WriteString(p.Sprintf("- ⋈ %s on %s: %d × %d → %d rows\n", s.Right, string(s.Key), s.LeftRows, s.RightRows, s.Rows))
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
