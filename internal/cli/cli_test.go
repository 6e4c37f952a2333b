// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

const header = "customer_id,product_id,product_name,uom,qty,unit_price,total,modified\n"

var envVars = []string{
	"SALESPULSE_CONFIG", "INPUT_KIND", "INPUT_PATH", "DUCKDB_QUERY", "DUCKDB_DATABASE",
	"ARTIFACT_BACKEND", "ARTIFACT_DIR", "ARTIFACT_BADGER_PATH", "ARTIFACT_CACHE_SIZE",
	"ARTIFACT_BREAKER_FAILURES", "ARTIFACT_BREAKER_TIMEOUT",
	"FORECAST_HORIZON", "FORECAST_WORKERS", "FORECAST_CAP_PERCENTILE",
	"RECOMMEND_TOP_K", "LOG_LEVEL", "LOG_FORMAT", "LOG_CALLER", "METRICS_TEXTFILE",
}

// workspace runs the test from a fresh directory with a clean environment
// and returns the directory.
func workspace(t *testing.T) string {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.MkdirAll(filepath.Join(dir, "models"), 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand(&stdout, &stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "salespulse "+Version) {
		t.Errorf("version output = %q", out)
	}
}

func TestRecommendArgs(t *testing.T) {
	workspace(t)

	out, _, err := run(t, "recommend")
	if err != nil || out != "[]\n" {
		t.Errorf("recommend without id = %q, %v, want []", out, err)
	}

	for _, bad := range [][]string{{"recommend", "abc"}, {"recommend", "1.5"}, {"recommend", "1", "2"}} {
		if _, _, err := run(t, bad...); err == nil {
			t.Errorf("%v: expected usage error", bad)
		}
	}
}

func TestSegmentCommand(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, "input_data.csv"), header+
		"1,10,Widget,pcs,2,5,10,2024-05-31 00:00:00\n"+
		"2,10,Widget,pcs,2,5,10,2024-02-22 00:00:00\n")
	writeFile(t, filepath.Join(dir, "models", "scaler.json"), `{"mean":[0,0,0],"scale":[1,1,1]}`)
	writeFile(t, filepath.Join(dir, "models", "customer_segment.json"), `{"cluster_centers":[[0,1,10],[100,1,10]]}`)

	out, stderr, err := run(t, "segment", "--as-of", "2024-06-01T00:00:00Z")
	if err != nil {
		t.Fatalf("segment error = %v\n%s", err, stderr)
	}

	var got []map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("stdout is not a JSON array: %v\n%s", err, out)
	}
	if len(got) != 2 || got[0]["Segment"] != "High Value" || got[1]["Segment"] != "Low Value" {
		t.Errorf("segment output = %v", got)
	}
	if strings.Contains(out, "run_id") {
		t.Error("logs leaked into stdout")
	}
	if !strings.Contains(stderr, "run complete") {
		t.Errorf("expected run log on stderr, got %q", stderr)
	}
}

func TestForecastCommandFlags(t *testing.T) {
	dir := workspace(t)
	input := filepath.Join(dir, "data", "tx.csv")
	writeFile(t, input, header+
		"1,10,Widget,pcs,5,1,5,2024-05-06 09:00:00\n"+
		"1,10,Widget,pcs,3,1,3,2024-05-08 09:00:00\n"+
		"1,10,Widget,pcs,2,1,2,2024-05-14 09:00:00\n")
	artifacts := filepath.Join(dir, "store")
	writeFile(t, filepath.Join(artifacts, "forecasting_models", "sarima_model_1_10.json"),
		`{"order":[0,0,0],"seasonal_order":[0,0,0,0],"const":3,"endog":[5,3,2]}`)

	out, stderr, err := run(t, "forecast",
		"--input", input,
		"--artifacts", artifacts,
		"--as-of", "2024-06-03T00:00:00Z",
		"--log-level", "debug",
		"--log-format", "console")
	if err != nil {
		t.Fatalf("forecast error = %v\n%s", err, stderr)
	}

	var points []map[string]any
	if err := json.Unmarshal([]byte(out), &points); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(points) != 10 {
		t.Fatalf("got %d points, want 10", len(points))
	}
	if points[0]["date"] != "2024-06-03" || points[9]["date"] != "2024-08-05" {
		t.Errorf("dates = %v .. %v", points[0]["date"], points[9]["date"])
	}
	if points[0]["quantity"] != float64(3) {
		t.Errorf("quantity = %v, want 3", points[0]["quantity"])
	}
}

func TestStructuralFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
		args  []string
	}{
		{
			name: "missing input file",
			args: []string{"forecast"},
		},
		{
			name: "missing artifact directory",
			setup: func(t *testing.T, dir string) {
				writeFile(t, filepath.Join(dir, "input_data.csv"), header)
			},
			args: []string{"segment", "--artifacts", "nowhere"},
		},
		{
			name: "missing global artifact",
			setup: func(t *testing.T, dir string) {
				writeFile(t, filepath.Join(dir, "input_data.csv"), header+"1,10,Widget,pcs,2,5,10,2024-05-31\n")
			},
			args: []string{"segment"},
		},
		{
			name: "invalid as-of",
			args: []string{"segment", "--as-of", "yesterday"},
		},
		{
			name: "invalid log level",
			args: []string{"segment", "--log-level", "loud"},
		},
		{
			name: "missing config file",
			args: []string{"segment", "--config", "absent.yaml"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := workspace(t)
			if tt.setup != nil {
				tt.setup(t, dir)
			}
			out, _, err := run(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if out != "" {
				t.Errorf("stdout = %q on failure, want nothing", out)
			}
		})
	}
}

func TestEmptyInputNeedsNoArtifacts(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, "input_data.csv"), "")

	for _, args := range [][]string{{"segment"}, {"forecast"}, {"recommend", "7"}} {
		out, stderr, err := run(t, args...)
		if err != nil || out != "[]\n" {
			t.Errorf("%v = %q, %v\n%s", args, out, err, stderr)
		}
	}
}

func TestArtifactsImportAndBadgerBackend(t *testing.T) {
	dir := workspace(t)
	src := filepath.Join(dir, "exported")
	writeFile(t, filepath.Join(src, "scaler.json"), `{"mean":[0,0,0],"scale":[1,1,1]}`)
	writeFile(t, filepath.Join(src, "customer_segment.json"), `{"cluster_centers":[[0,1,10]]}`)
	writeFile(t, filepath.Join(dir, "input_data.csv"), header+"1,10,Widget,pcs,2,5,10,2024-05-31 00:00:00\n")

	badgerPath := filepath.Join(dir, "badger")
	out, stderr, err := run(t, "artifacts", "import", src, "--to", badgerPath)
	if err != nil {
		t.Fatalf("import error = %v\n%s", err, stderr)
	}
	if !strings.Contains(out, "imported 2 artifacts") {
		t.Errorf("import output = %q", out)
	}

	cfgPath := filepath.Join(dir, "salespulse.yaml")
	writeFile(t, cfgPath, "artifacts:\n  backend: badger\n  badger_path: "+badgerPath+"\n")

	out, stderr, err = run(t, "segment", "--config", cfgPath, "--as-of", "2024-06-01T00:00:00Z")
	if err != nil {
		t.Fatalf("segment error = %v\n%s", err, stderr)
	}
	var got []map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil || len(got) != 1 {
		t.Fatalf("segment output = %q, %v", out, err)
	}
	// A single cluster is labelled Low Value.
	if got[0]["Segment"] != "Low Value" {
		t.Errorf("Segment = %v", got[0]["Segment"])
	}
}

func TestArtifactsImportRejectsInvalidJSON(t *testing.T) {
	dir := workspace(t)
	src := filepath.Join(dir, "exported")
	writeFile(t, filepath.Join(src, "scaler.json"), `{"mean":`)

	if _, _, err := run(t, "artifacts", "import", src, "--to", filepath.Join(dir, "badger")); err == nil {
		t.Error("expected error for invalid artifact")
	}
}

func TestMetricsTextfile(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, "input_data.csv"), header)
	path := filepath.Join(dir, "salespulse.prom")
	t.Setenv("METRICS_TEXTFILE", path)

	if _, stderr, err := run(t, "forecast"); err != nil {
		t.Fatalf("forecast error = %v\n%s", err, stderr)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("metrics textfile not written: %v", err)
	}
	if !strings.Contains(string(data), "salespulse_records_emitted_total") {
		t.Errorf("textfile lacks records metric:\n%s", data)
	}
}
