// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const header = "customer_id,product_id,product_name,uom,qty,unit_price,total,modified\n"

func readString(t *testing.T, csvText string) *Table {
	t.Helper()
	tbl, err := ReadCSV(context.Background(), strings.NewReader(csvText))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	return tbl
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 4, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		input string
		want  time.Time
		ok    bool
	}{
		{"2024-03-04T10:30:00Z", want, true},
		{"2024-03-04T12:30:00+02:00", want, true},
		{"2024-03-04 10:30:00", want, true},
		{"2024-03-04 10:30:00.000", want, true},
		{"2024-03-04T10:30:00", want, true},
		{"2024/03/04 10:30:00", want, true},
		{"03/04/2024 10:30", want, true},
		{"2024-03-04", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), true},
		{"03/04/2024", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), true},
		{"yesterday", time.Time{}, false},
		{"2024-13-45", time.Time{}, false},
	}

	for _, tt := range tests {
		got, err := ParseTimestamp(tt.input)
		if (err == nil) != tt.ok {
			t.Errorf("ParseTimestamp(%q) error = %v, want ok=%v", tt.input, err, tt.ok)
			continue
		}
		if tt.ok && !got.Equal(tt.want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		input string
		want  int64
		ok    bool
	}{
		{"12", 12, true},
		{"12.0", 12, true},
		{"-3", -3, true},
		{"12.5", 0, false},
		{"abc", 0, false},
		{"1e3", 1000, true},
	}

	for _, tt := range tests {
		got, err := ParseID(tt.input)
		if (err == nil) != tt.ok {
			t.Errorf("ParseID(%q) error = %v, want ok=%v", tt.input, err, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseID(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestReadCSV(t *testing.T) {
	tbl := readString(t, "extra,"+header+
		"x,1,10,Widget,pcs,2,1.5,3,2024-01-01\n"+
		"y,2.0,11,Gadget,NA,1\n")

	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
	if !tbl.Has(ColModified) {
		t.Error("expected modified column to be present")
	}

	row := tbl.Rows[1]
	if row[ColCustomerID].Value != "2.0" || !row[ColCustomerID].Valid {
		t.Errorf("unexpected customer cell: %+v", row[ColCustomerID])
	}
	if row[ColUOM].Valid {
		t.Error("NA uom should be missing")
	}
	if row[ColTotal].Valid {
		t.Error("short row should pad total as missing")
	}
}

func TestReadCSVEmpty(t *testing.T) {
	tbl := readString(t, "")
	if len(tbl.Rows) != 0 {
		t.Errorf("expected no rows, got %d", len(tbl.Rows))
	}
	if err := tbl.Require(SegmentationProfile.Columns...); err != nil {
		t.Errorf("empty input should satisfy requirements, got %v", err)
	}
}

func TestTableRequire(t *testing.T) {
	tbl := readString(t, "customer_id,product_id,qty\n1,2,3\n")

	if err := tbl.Require(RecommendationProfile.Columns...); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	err := tbl.Require(SegmentationProfile.Columns...)
	if err == nil || !strings.Contains(err.Error(), "modified") {
		t.Errorf("expected error naming modified, got %v", err)
	}
}

func TestCSVSource(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.csv")
	if err := os.WriteFile(empty, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	tbl, err := NewCSVSource(empty).Read(context.Background())
	if err != nil {
		t.Fatalf("zero-byte file should read, got %v", err)
	}
	if len(tbl.Rows) != 0 {
		t.Errorf("expected 0 rows, got %d", len(tbl.Rows))
	}

	if _, err := NewCSVSource(filepath.Join(dir, "missing.csv")).Read(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestClean(t *testing.T) {
	input := header +
		"1,10,Widget,pcs,2,1.5,3,2024-01-01\n" + // kept
		"1,10,Widget,pcs,2.0,1.5,3,2024-01-01 00:00:00\n" + // duplicate after parsing
		",10,Widget,pcs,2,1.5,3,2024-01-01\n" + // missing customer
		"2,11,Gadget,pcs,1,2,2,not-a-date\n" + // bad timestamp
		"3,12,Gizmo,,1,2,2,2024-01-02\n" + // missing uom
		"4,13,Doohickey,pcs,0,2,0,2024-01-03\n" + // zero qty
		"5,14,Thing,pcs,-1,2,-2,2024-01-04\n" + // negative qty
		"6,15,Bolt,pcs,3,-2,-6,2024-01-05\n" + // negative price
		"7.0,16,Nut,pcs,4,0.5,2,2024-01-06\n" // kept, float id

	tbl := readString(t, input)

	tests := []struct {
		name    string
		profile Profile
		kept    int
		dropped map[string]int
	}{
		{
			name:    "segmentation",
			profile: SegmentationProfile,
			kept:    2,
			dropped: map[string]int{
				DropDuplicate:       1,
				DropMissingCustomer: 1,
				DropBadTimestamp:    1,
				DropMissingField:    1,
				DropNonPositiveQty:  2,
				DropNegativeValue:   1,
			},
		},
		{
			name:    "forecasting",
			profile: ForecastingProfile,
			kept:    3,
			dropped: map[string]int{
				DropDuplicate:       1,
				DropMissingCustomer: 1,
				DropBadTimestamp:    1,
				DropNonPositiveQty:  2,
				DropNegativeValue:   1,
			},
		},
		{
			name:    "recommendation",
			profile: RecommendationProfile,
			kept:    5,
			dropped: map[string]int{
				DropDuplicate:       1,
				DropMissingCustomer: 1,
				DropNegativeValue:   2,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, stats, err := Clean(context.Background(), tbl, tt.profile)
			if err != nil {
				t.Fatalf("Clean() error = %v", err)
			}
			if len(recs) != tt.kept || stats.Kept != tt.kept {
				t.Errorf("kept %d (stats %d), want %d", len(recs), stats.Kept, tt.kept)
			}
			for reason, n := range tt.dropped {
				if stats.Dropped[reason] != n {
					t.Errorf("dropped[%s] = %d, want %d (all: %v)", reason, stats.Dropped[reason], n, stats.Dropped)
				}
			}
			if stats.Read != len(tbl.Rows) || stats.Kept+stats.DroppedTotal() != stats.Read {
				t.Errorf("stats do not add up: %+v", stats)
			}
			for _, r := range recs {
				if !r.Has(ColCustomerID) || r.Quantity < 0 {
					t.Errorf("invariant violated by %+v", r)
				}
			}
		})
	}
}

func TestCleanFloatIDs(t *testing.T) {
	tbl := readString(t, header+"7.0,16.0,Nut,pcs,4,0.5,2,2024-01-06\n")

	recs, _, err := Clean(context.Background(), tbl, SegmentationProfile)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].CustomerID != 7 || recs[0].ProductID != 16 {
		t.Fatalf("unexpected records: %+v", recs)
	}
}

func TestCleanMissingColumn(t *testing.T) {
	tbl := readString(t, "customer_id,qty\n1,2\n")

	if _, _, err := Clean(context.Background(), tbl, ForecastingProfile); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("expected ErrMissingColumn, got %v", err)
	}
}

func TestCleanNonFiniteValues(t *testing.T) {
	tbl := readString(t, header+
		"1,10,Widget,pcs,2,5,10,2024-05-20\n"+ // kept
		"2,10,Widget,pcs,2,5,inf,2024-05-20\n"+
		"3,10,Widget,pcs,2,5,-Inf,2024-05-20\n"+
		"4,10,Widget,pcs,+inf,5,10,2024-05-20\n"+
		"5,10,Widget,pcs,2,Infinity,10,2024-05-20\n")

	tests := []struct {
		name    string
		profile Profile
		kept    int
	}{
		{"segmentation", SegmentationProfile, 1},
		{"forecasting", ForecastingProfile, 1},
		{"recommendation", RecommendationProfile, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, stats, err := Clean(context.Background(), tbl, tt.profile)
			if err != nil {
				t.Fatalf("Clean() error = %v", err)
			}
			if len(recs) != tt.kept || recs[0].CustomerID != 1 {
				t.Fatalf("kept %+v, want only customer 1", recs)
			}
			if stats.Dropped[DropNonFiniteValue] != 4 {
				t.Errorf("dropped[%s] = %d, want 4 (all: %v)", DropNonFiniteValue, stats.Dropped[DropNonFiniteValue], stats.Dropped)
			}
		})
	}
}
