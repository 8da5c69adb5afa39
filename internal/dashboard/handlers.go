package dashboard

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/KaramelBytes/orderlens-cli/internal/analysis"
	"github.com/KaramelBytes/orderlens-cli/internal/dataset"
	"github.com/gin-gonic/gin"
)

// healthCheck endpoint for monitoring
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "orderlens",
		"source":  s.table.Name(),
		"rows":    s.table.Len(),
	})
}

func (s *Server) cities(c *gin.Context) {
	cities := s.table.Cities()
	if cities == nil {
		cities = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}

func (s *Server) categories(c *gin.Context) {
	city := c.Query("city")
	if strings.TrimSpace(city) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "city is required"})
		return
	}
	top, err := s.topParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	counts := analysis.Top(analysis.CategoryCounts(s.table, city), top)
	c.JSON(http.StatusOK, gin.H{
		"city":       city,
		"title":      analysis.CategoryTitle(city),
		"categories": counts,
	})
}

func (s *Server) correlation(c *gin.Context) {
	m, status, err := s.correlate(c.QueryArray("var"), c.Query("city"))
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"city":   c.Query("city"),
		"matrix": m,
	})
}

// correlate runs the correlation on the whole table or, when city is set, on
// that city's rows. Selection problems map to 400.
func (s *Server) correlate(vars []string, city string) (*analysis.CorrMatrix, int, error) {
	t := s.table
	if city != "" {
		t = t.FilterCity(city)
	}
	m, err := analysis.Correlate(t, vars)
	if err != nil {
		var uce *dataset.UnknownColumnError
		if errors.Is(err, analysis.ErrTooFewColumns) || errors.As(err, &uce) {
			return nil, http.StatusBadRequest, err
		}
		return nil, http.StatusInternalServerError, err
	}
	return m, http.StatusOK, nil
}

func (s *Server) topParam(c *gin.Context) (int, error) {
	raw := c.Query("top")
	if raw == "" {
		return s.opts.TopN, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("top must be a positive integer")
	}
	return n, nil
}

func (s *Server) index(c *gin.Context) {
	cities := s.table.Cities()
	city := c.Query("city")
	if city == "" && len(cities) > 0 {
		city = cities[0]
	}
	vars := c.QueryArray("var")
	if len(vars) == 0 {
		vars = s.opts.DefaultVars
	}

	page := pageData{
		City:    city,
		Cities:  cities,
		Options: varOptions(vars),
	}
	if city != "" {
		counts := analysis.Top(analysis.CategoryCounts(s.table, city), s.opts.TopN)
		page.Bars = newBarChart(analysis.CategoryTitle(city), counts)
	}
	m, _, err := s.correlate(vars, city)
	if err != nil {
		page.CorrError = err.Error()
	} else {
		page.Heatmap = newHeatmap(m)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "index.html", page); err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "render page: %v", err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
