// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

// Package cli wires configuration, logging, input sources and the artifact
// store into the salespulse subcommands.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Command groups.
const (
	groupScoring = "scoring"
	groupTools   = "tools"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	configPath string
	input      string
	artifacts  string
	asOf       string
	logLevel   string
	logFormat  string
}

// overrides maps the flags that were set to their koanf paths.
func (f *globalFlags) overrides(cmd *cobra.Command) map[string]interface{} {
	out := make(map[string]interface{})
	set := func(flag, key, value string) {
		if cmd.Flags().Changed(flag) {
			out[key] = value
		}
	}
	set("input", "input.path", f.input)
	set("artifacts", "artifacts.dir", f.artifacts)
	set("log-level", "logging.level", f.logLevel)
	set("log-format", "logging.format", f.logFormat)
	return out
}

// NewRootCommand builds the salespulse command tree. Results go to stdout;
// logs always go to stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "salespulse",
		Short: "Batch inference over sales transactions",
		Long: `salespulse - batch inference over sales transactions
  - segment    label customers High/Mid/Low Value from RFM clusters
  - forecast   10-week demand per customer and product
  - recommend  top products for one customer

Each command prints one JSON array on stdout.`,
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "YAML config file (default: $SALESPULSE_CONFIG or ./salespulse.yaml)")
	pf.StringVar(&flags.input, "input", "", "input CSV path (default: input_data.csv)")
	pf.StringVar(&flags.artifacts, "artifacts", "", "artifact directory (default: models)")
	pf.StringVar(&flags.asOf, "as-of", "", "reference instant in RFC 3339 (default: now)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "log format: json or console")

	root.AddGroup(
		&cobra.Group{ID: groupScoring, Title: "Scoring Commands:"},
		&cobra.Group{ID: groupTools, Title: "Tools:"},
	)

	root.AddCommand(newSegmentCmd(flags))
	root.AddCommand(newForecastCmd(flags))
	root.AddCommand(newRecommendCmd(flags))
	root.AddCommand(newArtifactsCmd(flags))
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the root command against the process streams. SIGINT and
// SIGTERM cancel the run.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(os.Stdout, os.Stderr)
	return root.ExecuteContext(ctx)
}
