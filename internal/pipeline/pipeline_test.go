// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tomtom215/salespulse/internal/artifact"
	"github.com/tomtom215/salespulse/internal/ingest"
)

const header = "customer_id,product_id,product_name,uom,qty,unit_price,total,modified\n"

func records(t *testing.T, profile ingest.Profile, rows string) []ingest.Record {
	t.Helper()
	tbl, err := ingest.ReadCSV(context.Background(), strings.NewReader(header+rows))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	recs, _, err := ingest.Clean(context.Background(), tbl, profile)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	return recs
}

func writeArtifact(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name)+".json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

// newResolver returns a resolver over a fresh artifact directory holding
// the given artifacts.
func newResolver(t *testing.T, artifacts map[string]string) (*artifact.Resolver, string) {
	t.Helper()
	root := t.TempDir()
	for name, content := range artifacts {
		writeArtifact(t, root, name, content)
	}
	store, err := artifact.NewDirStore(root)
	if err != nil {
		t.Fatalf("NewDirStore() error = %v", err)
	}
	r := artifact.NewResolver(store, artifact.DefaultResolverConfig())
	t.Cleanup(func() { r.Close() })
	return r, root
}
