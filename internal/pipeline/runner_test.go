// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/salespulse/internal/ingest"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input_data.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunnerEmptyInput(t *testing.T) {
	// No artifacts exist: every variant must still print [].
	r, _ := newResolver(t, nil)

	inputs := map[string]string{
		"zero bytes":    "",
		"header only":   header,
		"all filtered":  header + "1,10,Widget,pcs,0,1,0,2024-05-01\n,11,Gadget,pcs,1,1,1,2024-05-01\n",
		"bad timestamp": header + "1,10,Widget,pcs,1,1,1,yesterday\n",
	}
	for name, content := range inputs {
		t.Run(name, func(t *testing.T) {
			rn := NewRunner(ingest.NewCSVSource(writeInput(t, content)), r, nil)
			ctx := context.Background()

			runs := map[string]func(*bytes.Buffer) error{
				"segment": func(b *bytes.Buffer) error {
					rn.Out = b
					return rn.RunSegment(ctx, segmentOpts)
				},
				"forecast": func(b *bytes.Buffer) error {
					rn.Out = b
					return rn.RunForecast(ctx, forecastOpts())
				},
			}
			for variant, fn := range runs {
				var buf bytes.Buffer
				if err := fn(&buf); err != nil {
					t.Fatalf("%s: error = %v", variant, err)
				}
				if buf.String() != "[]\n" {
					t.Errorf("%s: output = %q, want []", variant, buf.String())
				}
			}
		})
	}
}

func TestRunnerMissingColumn(t *testing.T) {
	r, _ := newResolver(t, nil)
	path := writeInput(t, "customer_id,qty\n1,2\n")

	var buf bytes.Buffer
	rn := NewRunner(ingest.NewCSVSource(path), r, &buf)
	err := rn.RunForecast(context.Background(), forecastOpts())
	if !errors.Is(err, ingest.ErrMissingColumn) {
		t.Errorf("RunForecast() error = %v, want ErrMissingColumn", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %q on structural failure", buf.String())
	}
}

func TestRunnerMissingInput(t *testing.T) {
	r, _ := newResolver(t, nil)
	rn := NewRunner(ingest.NewCSVSource(filepath.Join(t.TempDir(), "nope.csv")), r, &bytes.Buffer{})
	if err := rn.RunSegment(context.Background(), segmentOpts); err == nil {
		t.Error("expected error for missing input file")
	}
}

func TestRunnerSegment(t *testing.T) {
	r, _ := newResolver(t, segmentArtifacts)
	var buf bytes.Buffer
	rn := NewRunner(ingest.NewCSVSource(writeInput(t, header+segmentRows)), r, &buf)

	if err := rn.RunSegment(context.Background(), segmentOpts); err != nil {
		t.Fatalf("RunSegment() error = %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", err, buf.String())
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	for _, key := range []string{"customer_id", "recency", "frequency", "monetary", "cluster_id", "Segment"} {
		if _, ok := got[0][key]; !ok {
			t.Errorf("record lacks key %q: %v", key, got[0])
		}
	}
	if got[0]["Segment"] != LabelHigh {
		t.Errorf("customer 1 segment = %v", got[0]["Segment"])
	}
}

func TestRunnerSegmentDropsNonFiniteTotals(t *testing.T) {
	r, _ := newResolver(t, segmentArtifacts)
	var buf bytes.Buffer
	rows := segmentRows +
		"9,10,Widget,pcs,2,5,inf,2024-05-20 00:00:00\n" +
		"8,10,Widget,pcs,2,5,1e308,2024-05-20 00:00:00\n" +
		"8,11,Gadget,pcs,2,5,1e308,2024-05-21 00:00:00\n"
	rn := NewRunner(ingest.NewCSVSource(writeInput(t, header+rows)), r, &buf)

	if err := rn.RunSegment(context.Background(), segmentOpts); err != nil {
		t.Fatalf("RunSegment() error = %v", err)
	}

	var got []SegmentResult
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", err, buf.String())
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3: %+v", len(got), got)
	}
	for _, res := range got {
		if res.CustomerID == 8 || res.CustomerID == 9 {
			t.Errorf("customer %d with a non-finite total was segmented", res.CustomerID)
		}
	}
}

func TestRunnerForecastIdempotent(t *testing.T) {
	r, _ := newResolver(t, map[string]string{"forecasting_models/sarima_model_1_10": flatModel})
	path := writeInput(t, header+forecastRows)

	run := func() string {
		var buf bytes.Buffer
		rn := NewRunner(ingest.NewCSVSource(path), r, &buf)
		if err := rn.RunForecast(context.Background(), forecastOpts()); err != nil {
			t.Fatalf("RunForecast() error = %v", err)
		}
		return buf.String()
	}

	first := run()
	if first != run() {
		t.Error("two runs over the same input differ")
	}
	if !strings.Contains(first, `"date":"2024-06-03"`) || !strings.HasSuffix(first, "]\n") {
		t.Errorf("unexpected output %s", first)
	}
	var points []ForecastPoint
	if err := json.Unmarshal([]byte(first), &points); err != nil || len(points) != 10 {
		t.Errorf("decoded %d points, err %v", len(points), err)
	}
	for i := 1; i < len(points); i++ {
		prev, _ := time.Parse(ForecastDateLayout, points[i-1].Date)
		cur, _ := time.Parse(ForecastDateLayout, points[i].Date)
		if cur.Sub(prev) != 7*24*time.Hour {
			t.Errorf("dates %s -> %s not one week apart", points[i-1].Date, points[i].Date)
		}
	}
}

func TestRunnerRecommend(t *testing.T) {
	r, _ := newResolver(t, map[string]string{"product_recommendation": knnModel})
	var buf bytes.Buffer
	rn := NewRunner(ingest.NewCSVSource(writeInput(t, header+recommendRows)), r, &buf)

	if err := rn.RunRecommend(context.Background(), 1, recommendOpts); err != nil {
		t.Fatalf("RunRecommend() error = %v", err)
	}
	var got []Recommendation
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 5 || got[0].ProductID != 17 {
		t.Errorf("RunRecommend() = %+v", got)
	}
}
