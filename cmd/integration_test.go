package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags clears values and Changed state that persist across Execute calls.
func resetFlags() {
	cfgFile, debug, flagDataPath = "", false, ""
	mergeSources, mergeOutput, mergeReviews, mergeReport = "", "", "", false
	citiesFormat = "markdown"
	catCity, catTop, catFormat, catOutput = "", 0, "markdown", ""
	corrVars, corrCity, corrFormat, corrOutput = nil, "", "markdown", ""
	expTop, expFormat, expOutput = 0, "markdown", ""
	rfmTop, rfmFormat, rfmOutput = 0, "markdown", ""
	serveAddr = ""
	cfg = nil

	var walk func(c *cobra.Command)
	walk = func(c *cobra.Command) {
		c.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
		c.PersistentFlags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
		for _, sub := range c.Commands() {
			walk(sub)
		}
	}
	walk(rootCmd)
}

// runCmd is a helper to execute the root command with args and return stdout.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := tryCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func tryCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out, _, err := execCmd(t, args...)
	return out, err
}

// execCmd runs the root command and returns stdout and stderr separately.
func execCmd(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags()
	var outBuf, errBuf bytes.Buffer
	rootCmd.SetOut(&outBuf)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

var sources = map[string]string{
	"customers_dataset.csv": `customer_id,customer_unique_id,customer_zip_code_prefix,customer_city,customer_state
c1,u1,01000,sao paulo,SP
c2,u2,01001,sao paulo,SP
c3,u3,20000,rio de janeiro,RJ
`,
	"orders_dataset.csv": `order_id,customer_id,order_status,order_purchase_timestamp
o1,c1,delivered,2018-01-02 10:00:00
o2,c2,delivered,2018-01-12 10:00:00
o3,c3,delivered,2018-01-22 10:00:00
`,
	"order_items_dataset.csv": `order_id,order_item_id,product_id,seller_id,price,freight_value
o1,1,p1,s1,10.00,1.50
o1,2,p2,s1,20.00,3.00
o2,1,p1,s2,10.00,2.00
o3,1,p3,s1,99.90,9.00
`,
	"order_reviews_dataset.csv": `review_id,order_id,review_score,review_comment_message
r1,o1,5,
r2,o2,4,"chegou rápido, ótimo"
r3,o3,1,
`,
	"products_dataset.csv": `product_id,product_category_name,product_weight_g
p1,beleza_saude,200
p2,cama_mesa_banho,800
p3,telefonia,150
`,
}

func setupWorkspace(t *testing.T) (dir string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir = filepath.Join(home, "sources")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, body := range sources {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestCLI_Merge_Categories_Correlate_Explore(t *testing.T) {
	dir := setupWorkspace(t)
	data := filepath.Join(dir, "ecommerce_dataset.csv")

	out := runCmd(t, "merge", "--sources", dir, "--output", data, "--report")
	if !strings.Contains(out, "✓ Merged 4 rows") || !strings.Contains(out, "[JOINS]") {
		t.Fatalf("merge output:\n%s", out)
	}

	out = runCmd(t, "--data", data, "categories", "--city", "sao paulo")
	if !strings.Contains(out, "MOST PURCHASES IN SAO PAULO") || !strings.Contains(out, "| beleza_saude | 2 |") {
		t.Fatalf("categories output:\n%s", out)
	}

	out = runCmd(t, "--data", data, "categories", "--city", "sao paulo", "--format", "json", "--top", "1")
	var counts []map[string]any
	if err := json.Unmarshal([]byte(out), &counts); err != nil {
		t.Fatalf("decode categories json: %v\n%s", err, out)
	}
	if len(counts) != 1 || counts[0]["product_category_name"] != "beleza_saude" {
		t.Fatalf("counts = %v", counts)
	}

	out = runCmd(t, "--data", data, "correlate", "--vars", "Freight Value", "--vars", "product_weight_g")
	if !strings.Contains(out, "| freight_value | 1.00 |") {
		t.Fatalf("correlate output:\n%s", out)
	}

	report := filepath.Join(dir, "eda.md")
	runCmd(t, "--data", data, "explore", "--output", report)
	b, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	for _, want := range []string{"[DATASET SUMMARY]", "Rows: 4", "[TOP CATEGORY PER CITY]", "[CORRELATIONS]"} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("report missing %q:\n%s", want, b)
		}
	}

	out = runCmd(t, "--data", data, "rfm", "--top", "1")
	if !strings.Contains(out, "| c3 | rio de janeiro | 0 | 1 | 99.90 |") {
		t.Fatalf("rfm output:\n%s", out)
	}

	out = runCmd(t, "--data", data, "cities")
	if !strings.HasPrefix(out, "sao paulo\t2\n") {
		t.Fatalf("cities output:\n%s", out)
	}
}

func TestCLI_CorrelateNeedsTwoVariables(t *testing.T) {
	dir := setupWorkspace(t)
	data := filepath.Join(dir, "ecommerce_dataset.csv")
	runCmd(t, "merge", "--sources", dir, "--output", data)

	if _, err := tryCmd(t, "--data", data, "correlate", "--vars", "price"); err == nil || !strings.Contains(err.Error(), "at least 2") {
		t.Fatalf("expected too-few-variables error, got %v", err)
	}
	if _, err := tryCmd(t, "--data", data, "correlate", "--vars", "price", "--vars", "height"); err == nil {
		t.Fatalf("expected unknown column error")
	}
}

func TestCLI_MissingSourceFails(t *testing.T) {
	dir := setupWorkspace(t)
	if err := os.Remove(filepath.Join(dir, "products_dataset.csv")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := tryCmd(t, "merge", "--sources", dir, "--output", filepath.Join(dir, "out.csv")); err == nil {
		t.Fatalf("expected error for missing products table")
	}
	if _, err := os.Stat(filepath.Join(dir, "out.csv")); !os.IsNotExist(err) {
		t.Fatalf("output should not exist after a failed merge")
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	setupWorkspace(t)
	runCmd(t, "config", "set", "top_n", "3")
	runCmd(t, "config", "set", "review_policy", "mean")
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "top_n: 3") || !strings.Contains(out, "review_policy: mean") {
		t.Fatalf("config show:\n%s", out)
	}
	if _, err := tryCmd(t, "config", "set", "review_policy", "median"); err == nil {
		t.Fatalf("expected invalid value error")
	}
}

func TestCLI_DelimiterAppliesToMergedFile(t *testing.T) {
	dir := setupWorkspace(t)
	for name := range sources {
		path := filepath.Join(dir, name)
		b, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if err := os.WriteFile(path, bytes.ReplaceAll(b, []byte(","), []byte(";")), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	data := filepath.Join(dir, "ecommerce_dataset.csv")

	runCmd(t, "config", "set", "delimiter", ";")
	runCmd(t, "merge", "--sources", dir, "--output", data)

	b, err := os.ReadFile(data)
	if err != nil {
		t.Fatalf("read merged: %v", err)
	}
	if !strings.HasPrefix(string(b), "customer_id;customer_city;") {
		t.Fatalf("merged header:\n%s", b)
	}

	out := runCmd(t, "--data", data, "categories", "--city", "sao paulo")
	if !strings.Contains(out, "| beleza_saude | 2 |") {
		t.Fatalf("categories output:\n%s", out)
	}
	out = runCmd(t, "--data", data, "cities")
	if !strings.HasPrefix(out, "sao paulo\t2\n") {
		t.Fatalf("cities output:\n%s", out)
	}
}

func TestCLI_CategoriesWarnsOnUnknownCity(t *testing.T) {
	dir := setupWorkspace(t)
	data := filepath.Join(dir, "ecommerce_dataset.csv")
	runCmd(t, "merge", "--sources", dir, "--output", data)

	_, stderr, err := execCmd(t, "--data", data, "categories", "--city", "Sao Paulo")
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if !strings.Contains(stderr, `no customers in city "Sao Paulo"`) {
		t.Fatalf("stderr = %q", stderr)
	}

	_, stderr, err = execCmd(t, "--data", data, "categories", "--city", "sao paulo")
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if strings.Contains(stderr, "Warning") {
		t.Fatalf("unexpected warning for a known city: %q", stderr)
	}
}
