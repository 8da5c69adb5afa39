package dashboard

import (
	"context"
	"encoding/json"
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/orderlens-cli/internal/dataset"
)

const csvBody = `customer_id,customer_city,order_id,order_purchase_timestamp,product_id,price,freight_value,review_score,product_category_name,product_weight_g
c1,sao paulo,o1,2018-01-01 00:00:00,p1,10,1,5,cama_mesa_banho,100
c1,sao paulo,o1,2018-01-01 00:00:00,p2,20,2,4,cama_mesa_banho,250
c2,sao paulo,o2,2018-01-05 00:00:00,p3,10,3,4,cama_mesa_banho,300
c2,sao paulo,o3,2018-01-10 00:00:00,p4,30,4,2,esporte_lazer,400
c3,sao paulo,o4,2018-01-11 00:00:00,p4,40,5,3,esporte_lazer,500
c4,curitiba,o5,2018-01-21 00:00:00,p5,5,6,1,telefonia,600
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	df, err := dataset.ReadFrame(strings.NewReader(csvBody), dataset.ReadOptions{Floats: dataset.NumericColumns})
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	tbl, err := dataset.NewTable("ecommerce_dataset.csv", df)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return NewServer(tbl, Options{Mode: "test", LogOutput: io.Discard})
}

func get(t *testing.T, s *Server, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("missing %s header", RequestIDHeader)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["rows"] != float64(6) {
		t.Fatalf("body = %v", body)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("request id = %q, want client value", got)
	}
}

func TestCitiesEndpoint(t *testing.T) {
	rec := get(t, newTestServer(t), "/api/cities")
	var body struct {
		Cities []string `json:"cities"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Cities) != 2 || body.Cities[0] != "curitiba" || body.Cities[1] != "sao paulo" {
		t.Fatalf("cities = %v", body.Cities)
	}
}

type categoriesBody struct {
	City       string `json:"city"`
	Title      string `json:"title"`
	Categories []struct {
		Name  string `json:"product_category_name"`
		Count int    `json:"purchase_count"`
	} `json:"categories"`
}

func TestCategoriesEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/api/categories?city=sao+paulo")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var body categoriesBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Title != "Most Purchases in Sao Paulo" {
		t.Fatalf("title = %q", body.Title)
	}
	if len(body.Categories) != 2 || body.Categories[0].Name != "cama_mesa_banho" || body.Categories[0].Count != 3 {
		t.Fatalf("categories = %+v", body.Categories)
	}

	rec = get(t, s, "/api/categories?city=sao+paulo&top=1")
	body = categoriesBody{}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Categories) != 1 {
		t.Fatalf("top=1 returned %d", len(body.Categories))
	}

	rec = get(t, s, "/api/categories?city=atlantis")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"categories":[]`) {
		t.Fatalf("unknown city: %d %s", rec.Code, rec.Body)
	}

	for _, url := range []string{"/api/categories", "/api/categories?city=x&top=0"} {
		if rec := get(t, s, url); rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", url, rec.Code)
		}
	}
}

func TestCorrelationEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/api/correlation?var=Freight+Value&var=product_weight_g")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var body struct {
		Matrix struct {
			Columns []string     `json:"columns"`
			Values  [][]*float64 `json:"values"`
		} `json:"matrix"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Matrix.Columns) != 2 || body.Matrix.Columns[0] != "freight_value" {
		t.Fatalf("columns = %v", body.Matrix.Columns)
	}
	if v := body.Matrix.Values[0][0]; v == nil || *v != 1 {
		t.Fatalf("diagonal = %v", v)
	}

	rec = get(t, s, "/api/correlation?var=price&var=review_score&city=curitiba")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "null") {
		t.Fatalf("single-row city: %d %s", rec.Code, rec.Body)
	}

	for _, url := range []string{
		"/api/correlation",
		"/api/correlation?var=price",
		"/api/correlation?var=price&var=height",
		"/api/correlation?var=price&var=customer_city",
	} {
		rec := get(t, s, url)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", url, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"error"`) {
			t.Errorf("%s body = %s", url, rec.Body)
		}
	}
}

func TestIndexPage(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/?city=sao+paulo")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	html := rec.Body.String()
	for _, want := range []string{"Most Purchases in Sao Paulo", "cama_mesa_banho", "<svg", "Correlation between"} {
		if !strings.Contains(html, want) {
			t.Fatalf("page missing %q", want)
		}
	}

	rec = get(t, s, "/?city=sao+paulo&var=price")
	if !strings.Contains(rec.Body.String(), "at least 2 variables") {
		t.Fatalf("expected selection message")
	}
}

func TestIndexRenderErrorIs500(t *testing.T) {
	orig := templates
	t.Cleanup(func() { templates = orig })
	templates = template.Must(template.New("index.html").Parse(`<p>{{.City}}</p>{{.Missing}}`))

	rec := get(t, newTestServer(t), "/?city=sao+paulo")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "<p>sao paulo</p>") {
		t.Fatalf("partial page written: %s", rec.Body)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestCoolwarm(t *testing.T) {
	if fill, _ := coolwarm(1); fill != "#b40426" {
		t.Fatalf("r=1 fill = %s", fill)
	}
	if fill, _ := coolwarm(-1); fill != "#3b4cc0" {
		t.Fatalf("r=-1 fill = %s", fill)
	}
	if fill, _ := coolwarm(0); fill != "#dddddd" {
		t.Fatalf("r=0 fill = %s", fill)
	}
}
