// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package artifact

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/salespulse/internal/cache"
	"github.com/tomtom215/salespulse/internal/logging"
	"github.com/tomtom215/salespulse/internal/metrics"
)

// Status is the outcome of resolving one artifact.
type Status int

const (
	// Found means the artifact was loaded and decoded.
	Found Status = iota
	// NotFound means no artifact exists under the name.
	NotFound
	// LoadFailed means the artifact exists but could not be read or decoded.
	LoadFailed
)

// String returns the metrics label for s.
func (s Status) String() string {
	switch s {
	case Found:
		return metrics.LookupFound
	case NotFound:
		return metrics.LookupNotFound
	default:
		return metrics.LookupFailed
	}
}

// Resolution is the result of Resolve. Value is set only when Status is
// Found; Err is set otherwise.
type Resolution[T any] struct {
	Status Status
	Value  T
	Err    error
}

// ResolverConfig tunes the cache and circuit breaker.
type ResolverConfig struct {
	// CacheSize bounds the number of decoded artifacts (and absences) kept.
	CacheSize int

	// FailureThreshold is the number of consecutive store failures that
	// opens the breaker. Not-found lookups are not failures.
	FailureThreshold uint32

	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
}

// DefaultResolverConfig returns the defaults used when configuration is
// silent.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		CacheSize:        1024,
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
	}
}

// cacheEntry is a decoded artifact or a remembered failure.
type cacheEntry struct {
	value  any
	status Status
	err    error
}

// Resolver loads artifacts through a cache and a circuit breaker.
// It is safe for concurrent use.
type Resolver struct {
	store   Store
	cache   *cache.LRU[string, cacheEntry]
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewResolver wraps store.
func NewResolver(store Store, cfg ResolverConfig) *Resolver {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}

	settings := gobreaker.Settings{
		Name:        "artifact-store",
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotFound) ||
				errors.Is(err, ErrInvalidName) ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("artifact store circuit breaker changed state")
		},
	}

	return &Resolver{
		store:   store,
		cache:   cache.NewLRU[string, cacheEntry](cfg.CacheSize),
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// Fetch returns the raw document for name through the circuit breaker.
func (r *Resolver) Fetch(ctx context.Context, name string) ([]byte, error) {
	return r.breaker.Execute(func() ([]byte, error) {
		return r.store.Get(ctx, name)
	})
}

// Resolve loads and decodes the artifact called name. kind labels metrics
// and logs. Results, including absences and decode failures, are cached so
// a name is read from the store at most once while it stays cached.
func Resolve[T any](ctx context.Context, r *Resolver, kind, name string, decode func([]byte) (T, error)) Resolution[T] {
	res := resolve(ctx, r, name, decode)
	metrics.RecordLookup(kind, res.Status.String())
	return res
}

func resolve[T any](ctx context.Context, r *Resolver, name string, decode func([]byte) (T, error)) Resolution[T] {
	if e, ok := r.cache.Get(name); ok {
		metrics.ArtifactCacheHits.Inc()
		if e.status != Found {
			return Resolution[T]{Status: e.status, Err: e.err}
		}
		if v, ok := e.value.(T); ok {
			return Resolution[T]{Status: Found, Value: v}
		}
	} else {
		metrics.ArtifactCacheMisses.Inc()
	}

	data, err := r.Fetch(ctx, name)
	switch {
	case errors.Is(err, ErrNotFound):
		r.cache.Add(name, cacheEntry{status: NotFound, err: err})
		return Resolution[T]{Status: NotFound, Err: err}
	case ctx.Err() != nil:
		// Cancellation says nothing about the artifact; do not cache it.
		return Resolution[T]{Status: LoadFailed, Err: ctx.Err()}
	case err != nil:
		// Store failures (including an open breaker) may be transient.
		return Resolution[T]{Status: LoadFailed, Err: err}
	}

	v, err := decode(data)
	if err != nil {
		err = fmt.Errorf("decode artifact %s: %w", name, err)
		r.cache.Add(name, cacheEntry{status: LoadFailed, err: err})
		return Resolution[T]{Status: LoadFailed, Err: err}
	}

	r.cache.Add(name, cacheEntry{value: v, status: Found})
	return Resolution[T]{Status: Found, Value: v}
}

// Close closes the underlying store.
func (r *Resolver) Close() error {
	logging.Debug().Int("cached", r.cache.Len()).Msg("closing artifact resolver")
	return r.store.Close()
}
