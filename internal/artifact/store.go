// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

// Package artifact locates trained model artifacts by name.
//
// A Store returns the raw document for a name or ErrNotFound. The Resolver
// puts an LRU cache and a circuit breaker in front of a Store and reports
// each lookup as Found, NotFound or LoadFailed, so callers can tell an
// expected absence from a broken artifact.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound means no artifact exists under the requested name.
var ErrNotFound = errors.New("artifact not found")

// ErrInvalidName means a name cannot address an artifact.
var ErrInvalidName = errors.New("invalid artifact name")

// Store is a keyed artifact lookup.
type Store interface {
	// Get returns the artifact document, or an error wrapping ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)
	Close() error
}

// ForecastModelName returns the artifact name of the forecasting model for
// one customer and product under prefix.
func ForecastModelName(prefix string, customerID, productID int64) string {
	return fmt.Sprintf("%s_%d_%d", prefix, customerID, productID)
}

// checkName rejects names that are empty, absolute or escape the root.
func checkName(name string) error {
	if name == "" || strings.Contains(name, "\\") || !filepath.IsLocal(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// DirStore reads artifacts from <root>/<name>.json.
type DirStore struct {
	root string
}

// NewDirStore creates a store rooted at dir. The directory must exist.
func NewDirStore(dir string) (*DirStore, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("artifact directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("artifact directory %s is not a directory", dir)
	}
	return &DirStore{root: dir}, nil
}

// Path returns the file backing name.
func (s *DirStore) Path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name)+".json")
}

// Get reads the artifact file.
func (s *DirStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", name, err)
	}
	return data, nil
}

// Walk calls fn with the name of every artifact under the root, in lexical
// order.
func (s *DirStore) Walk(fn func(name string) error) error {
	return filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		return fn(strings.TrimSuffix(filepath.ToSlash(rel), ".json"))
	})
}

// Close implements Store.
func (s *DirStore) Close() error {
	return nil
}
