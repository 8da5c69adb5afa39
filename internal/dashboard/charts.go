package dashboard

import (
	"embed"
	"fmt"
	"html/template"
	"math"
	"strings"

	"github.com/KaramelBytes/orderlens-cli/internal/analysis"
	"github.com/KaramelBytes/orderlens-cli/internal/dataset"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

type pageData struct {
	City      string
	Cities    []string
	Options   []varOption
	Bars      *barChart
	Heatmap   *heatmap
	CorrError string
}

type varOption struct {
	Name     string
	Label    string
	Selected bool
}

func varOptions(selected []string) []varOption {
	picked := make(map[dataset.Column]bool)
	for _, s := range selected {
		if c, err := dataset.ParseNumericColumn(s); err == nil {
			picked[c] = true
		}
	}
	out := make([]varOption, 0, len(dataset.NumericColumns))
	for _, c := range dataset.NumericColumns {
		out = append(out, varOption{Name: string(c), Label: c.Label(), Selected: picked[c]})
	}
	return out
}

// Chart geometry in SVG user units.
const (
	barWidth   = 48
	barGap     = 16
	plotHeight = 240
	plotLeft   = 56
	plotTop    = 40
	labelSpace = 140
	cellSize   = 96
	heatLeft   = 160
	heatTop    = 40
)

type bar struct {
	X, Y, W, H    int
	LabelX, TextY int
	Category      string
	Count         int
}

type barChart struct {
	Title         string
	Width, Height int
	AxisY         int
	Max           int
	Bars          []bar
}

func newBarChart(title string, counts []analysis.CategoryCount) *barChart {
	ch := &barChart{
		Title:  title,
		Width:  plotLeft + len(counts)*(barWidth+barGap) + barGap,
		Height: plotTop + plotHeight + labelSpace,
		AxisY:  plotTop + plotHeight,
	}
	if ch.Width < 320 {
		ch.Width = 320
	}
	for _, c := range counts {
		if c.Count > ch.Max {
			ch.Max = c.Count
		}
	}
	for i, c := range counts {
		h := 0
		if ch.Max > 0 {
			h = c.Count * plotHeight / ch.Max
		}
		x := plotLeft + barGap + i*(barWidth+barGap)
		ch.Bars = append(ch.Bars, bar{
			X:        x,
			Y:        ch.AxisY - h,
			W:        barWidth,
			H:        h,
			LabelX:   x + barWidth/2,
			TextY:    ch.AxisY - h - 6,
			Category: c.Category,
			Count:    c.Count,
		})
	}
	return ch
}

type cell struct {
	X, Y       int
	TextX      int
	TextY      int
	Fill       string
	TextFill   string
	Annotation string
}

type axisLabel struct {
	X, Y int
	Text string
}

type heatmap struct {
	Title         string
	Width, Height int
	Cells         []cell
	RowLabels     []axisLabel
	ColLabels     []axisLabel
}

func newHeatmap(m *analysis.CorrMatrix) *heatmap {
	n := len(m.Columns)
	labels := make([]string, n)
	for i, c := range m.Columns {
		labels[i] = c.Label()
	}
	h := &heatmap{
		Title:  "Correlation between " + strings.Join(labels, ", "),
		Width:  heatLeft + n*cellSize + 20,
		Height: heatTop + n*cellSize + 40,
	}
	for i := 0; i < n; i++ {
		y := heatTop + i*cellSize
		h.RowLabels = append(h.RowLabels, axisLabel{X: heatLeft - 8, Y: y + cellSize/2, Text: labels[i]})
		h.ColLabels = append(h.ColLabels, axisLabel{X: heatLeft + i*cellSize + cellSize/2, Y: heatTop + n*cellSize + 20, Text: labels[i]})
		for j := 0; j < n; j++ {
			v := m.Values[i][j]
			fill, text := coolwarm(v)
			x := heatLeft + j*cellSize
			h.Cells = append(h.Cells, cell{
				X:          x,
				Y:          y,
				TextX:      x + cellSize/2,
				TextY:      y + cellSize/2 + 5,
				Fill:       fill,
				TextFill:   text,
				Annotation: analysis.FormatCoef(v),
			})
		}
	}
	return h
}

// coolwarm maps r in [-1, 1] onto a diverging blue-white-red scale and picks
// a readable annotation color. Undefined values are grey.
func coolwarm(r float64) (fill, text string) {
	if math.IsNaN(r) {
		return "#d0d0d0", "#333333"
	}
	cold := [3]float64{59, 76, 192}
	mid := [3]float64{221, 221, 221}
	warm := [3]float64{180, 4, 38}
	r = math.Max(-1, math.Min(1, r))
	from, to, t := mid, warm, r
	if r < 0 {
		from, to, t = mid, cold, -r
	}
	var rgb [3]int
	for k := range rgb {
		rgb[k] = int(math.Round(from[k] + (to[k]-from[k])*t))
	}
	text = "#222222"
	if math.Abs(r) > 0.6 {
		text = "#ffffff"
	}
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2]), text
}
