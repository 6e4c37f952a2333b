// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tomtom215/salespulse/internal/artifact"
	"github.com/tomtom215/salespulse/internal/config"
	"github.com/tomtom215/salespulse/internal/ingest"
	"github.com/tomtom215/salespulse/internal/logging"
	"github.com/tomtom215/salespulse/internal/metrics"
	"github.com/tomtom215/salespulse/internal/pipeline"
)

// app is everything one invocation needs.
type app struct {
	cfg      *config.Config
	asOf     time.Time
	log      zerolog.Logger
	resolver *artifact.Resolver
	runner   *pipeline.Runner
}

// newApp loads configuration, configures logging and opens the input
// source and artifact store.
func newApp(cmd *cobra.Command, flags *globalFlags) (context.Context, *app, error) {
	cfg, err := config.Load(flags.configPath, flags.overrides(cmd))
	if err != nil {
		return nil, nil, err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: cmd.ErrOrStderr(),
	})

	asOf, err := parseAsOf(flags.asOf)
	if err != nil {
		return nil, nil, err
	}

	runID := logging.GenerateRunID()
	ctx := logging.ContextWithRunID(cmd.Context(), runID)
	log := logging.Ctx(ctx).With().Str("command", cmd.Name()).Logger()

	store, err := openStore(ctx, &cfg.Artifacts)
	if err != nil {
		return nil, nil, err
	}
	resolver := artifact.NewResolver(store, artifact.ResolverConfig{
		CacheSize:        cfg.Artifacts.CacheSize,
		FailureThreshold: cfg.Artifacts.BreakerFailures,
		Timeout:          cfg.Artifacts.BreakerTimeout,
	})

	log.Debug().
		Str("input_kind", cfg.Input.Kind).
		Str("artifact_backend", cfg.Artifacts.Backend).
		Time("as_of", asOf).
		Msg("configuration loaded")

	a := &app{
		cfg:      cfg,
		asOf:     asOf,
		log:      log,
		resolver: resolver,
		runner:   pipeline.NewRunner(newSource(&cfg.Input), resolver, cmd.OutOrStdout()),
	}
	return ctx, a, nil
}

// close releases the store and writes the metrics textfile when configured.
func (a *app) close() {
	if err := a.resolver.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close artifact store")
	}
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			a.log.Warn().Err(err).Msg("failed to write metrics textfile")
		}
	}
}

// fail logs a structural failure once and returns it for the exit status.
func (a *app) fail(err error) error {
	if err != nil && !errors.Is(err, context.Canceled) {
		a.log.Error().Err(err).Msg("run failed")
	}
	return err
}

func parseAsOf(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --as-of %q: want RFC 3339, e.g. 2024-06-01T00:00:00Z", s)
	}
	return t, nil
}

func newSource(cfg *config.InputConfig) ingest.Source {
	if cfg.Kind == config.InputKindDuckDB {
		return ingest.NewDuckDBSource(cfg.DuckDBDatabase, cfg.DuckDBQuery, cfg.Path)
	}
	return ingest.NewCSVSource(cfg.Path)
}

func openStore(ctx context.Context, cfg *config.ArtifactsConfig) (artifact.Store, error) {
	switch cfg.Backend {
	case config.BackendBadger:
		logging.Ctx(ctx).Debug().Str("path", cfg.BadgerPath).Msg("opening badger artifact store")
		return artifact.OpenBadgerStore(cfg.BadgerPath, true)
	default:
		return artifact.NewDirStore(cfg.Dir)
	}
}
