// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestQuoteLiteral(t *testing.T) {
	if got := quoteLiteral("it's.csv"); got != "'it''s.csv'" {
		t.Errorf("quoteLiteral() = %s", got)
	}
}

func TestCellFromValue(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		input any
		want  Cell
	}{
		{nil, Cell{}},
		{"NaN", Cell{}},
		{" 5 ", Cell{Value: "5", Valid: true}},
		{int64(42), Cell{Value: "42", Valid: true}},
		{int32(7), Cell{Value: "7", Valid: true}},
		{2.5, Cell{Value: "2.5", Valid: true}},
		{ts, Cell{Value: "2024-01-02T03:04:05Z", Valid: true}},
		{[]byte("abc"), Cell{Value: "abc", Valid: true}},
	}

	for _, tt := range tests {
		if got := cellFromValue(tt.input); got != tt.want {
			t.Errorf("cellFromValue(%v) = %+v, want %+v", tt.input, got, tt.want)
		}
	}
}

func TestDuckDBSourceReadCSV(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping DuckDB test in short mode")
	}

	path := filepath.Join(t.TempDir(), "sales.csv")
	content := header +
		"1,10,Widget,pcs,2,1.5,3,2024-01-01 08:00:00\n" +
		"2,11,Gadget,pcs,1,2,2,2024-01-02 09:30:00\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	tbl, err := NewDuckDBSource("", "", path).Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}

	recs, _, err := Clean(context.Background(), tbl, SegmentationProfile)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[1].CustomerID != 2 || recs[1].ProductName != "Gadget" {
		t.Errorf("unexpected record: %+v", recs[1])
	}
	want := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	if !recs[1].Modified.Equal(want) {
		t.Errorf("Modified = %v, want %v", recs[1].Modified, want)
	}
}

func TestDuckDBSourceCustomQuery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping DuckDB test in short mode")
	}

	query := `SELECT 5 AS customer_id, 9 AS product_id, 'Bolt' AS product_name, CAST(3 AS DOUBLE) AS qty`
	tbl, err := NewDuckDBSource("", query, "").Read(context.Background())
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	recs, _, err := Clean(context.Background(), tbl, RecommendationProfile)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if len(recs) != 1 || recs[0].CustomerID != 5 || recs[0].ProductID != 9 || recs[0].Quantity != 3 {
		t.Errorf("unexpected records: %+v", recs)
	}
}
