// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/salespulse/internal/artifact"
	"github.com/tomtom215/salespulse/internal/config"
	"github.com/tomtom215/salespulse/internal/logging"
)

func newArtifactsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "artifacts",
		Short:   "Manage the artifact store",
		GroupID: groupTools,
	}
	cmd.AddCommand(newArtifactsImportCmd(flags))
	return cmd
}

func newArtifactsImportCmd(flags *globalFlags) *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Copy an artifact directory into a badger store",
		Long: `Copy every <name>.json under <dir> into the badger store so the
scoring commands can run with artifacts.backend=badger.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configPath, flags.overrides(cmd))
			if err != nil {
				logging.Error().Err(err).Msg("startup failed")
				return err
			}
			logging.Init(logging.Config{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Caller: cfg.Logging.Caller,
				Output: cmd.ErrOrStderr(),
			})

			if dest == "" {
				dest = cfg.Artifacts.BadgerPath
			}
			if dest == "" {
				return errors.New("no badger path: set --to or artifacts.badger_path")
			}

			n, err := importArtifacts(cmd.Context(), args[0], dest)
			if err != nil {
				logging.Error().Err(err).Msg("artifact import failed")
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d artifacts into %s\n", n, dest)
			return nil
		},
	}
	cmd.Flags().StringVar(&dest, "to", "", "badger directory (default: artifacts.badger_path)")
	return cmd
}

// importArtifacts copies every document of the directory store at src into
// the badger store at dest. Documents that are not valid JSON are rejected
// before anything is written.
func importArtifacts(ctx context.Context, src, dest string) (int, error) {
	from, err := artifact.NewDirStore(src)
	if err != nil {
		return 0, err
	}

	docs := make(map[string][]byte)
	var names []string
	err = from.Walk(func(name string) error {
		data, err := from.Get(ctx, name)
		if err != nil {
			return err
		}
		if !json.Valid(data) {
			return fmt.Errorf("artifact %s is not valid JSON", name)
		}
		docs[name] = data
		names = append(names, name)
		return nil
	})
	if err != nil {
		return 0, err
	}

	to, err := artifact.OpenBadgerStore(dest, false)
	if err != nil {
		return 0, err
	}
	defer to.Close()

	log := logging.WithComponent("artifacts")
	for _, name := range names {
		if err := to.Put(ctx, name, docs[name]); err != nil {
			return 0, fmt.Errorf("import %s: %w", name, err)
		}
		log.Debug().Str("artifact", name).Int("bytes", len(docs[name])).Msg("imported artifact")
	}
	return len(names), nil
}
