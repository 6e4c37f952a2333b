// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/salespulse/internal/ingest"
	"github.com/tomtom215/salespulse/internal/logging"
	"github.com/tomtom215/salespulse/internal/output"
	"github.com/tomtom215/salespulse/internal/pipeline"
)

// runWith bootstraps an app, runs fn and tears the app down.
func runWith(cmd *cobra.Command, flags *globalFlags, fn func(context.Context, *app) error) error {
	ctx, a, err := newApp(cmd, flags)
	if err != nil {
		logging.Error().Err(err).Str("command", cmd.Name()).Msg("startup failed")
		return err
	}
	defer a.close()
	return a.fail(fn(ctx, a))
}

func newSegmentCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "segment",
		Short:   "Label customers by RFM cluster",
		GroupID: groupScoring,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(cmd, flags, func(ctx context.Context, a *app) error {
				return a.runner.RunSegment(ctx, pipeline.SegmentOptions{
					ModelName:  a.cfg.Segment.ModelName,
					ScalerName: a.cfg.Segment.ScalerName,
					Now:        a.asOf,
				})
			})
		},
	}
}

func newForecastCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "forecast",
		Short:   "Forecast weekly demand per customer and product",
		GroupID: groupScoring,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWith(cmd, flags, func(ctx context.Context, a *app) error {
				return a.runner.RunForecast(ctx, pipeline.ForecastOptions{
					ModelPrefix:   a.cfg.Forecast.ModelPrefix,
					Horizon:       a.cfg.Forecast.Horizon,
					Workers:       a.cfg.Forecast.Workers,
					CapPercentile: a.cfg.Forecast.CapPercentile,
					Today:         a.asOf,
				})
			})
		},
	}
}

func newRecommendCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "recommend [customer_id]",
		Short:   "Recommend products for a customer",
		Long:    "Recommend products for a customer. Without a customer_id an empty array is printed.",
		GroupID: groupScoring,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(1)(cmd, args); err != nil {
				return err
			}
			if len(args) == 1 {
				if _, err := ingest.ParseID(args[0]); err != nil {
					return fmt.Errorf("invalid customer_id %q: must be an integer", args[0])
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return output.WriteArray[pipeline.Recommendation](cmd.OutOrStdout(), nil)
			}
			customerID, _ := ingest.ParseID(args[0])

			return runWith(cmd, flags, func(ctx context.Context, a *app) error {
				return a.runner.RunRecommend(ctx, customerID, pipeline.RecommendOptions{
					ModelName: a.cfg.Recommend.ModelName,
					TopK:      a.cfg.Recommend.TopK,
				})
			})
		},
	}
}
