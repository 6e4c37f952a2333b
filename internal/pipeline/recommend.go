// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/tomtom215/salespulse/internal/artifact"
	"github.com/tomtom215/salespulse/internal/features"
	"github.com/tomtom215/salespulse/internal/ingest"
	"github.com/tomtom215/salespulse/internal/logging"
	"github.com/tomtom215/salespulse/internal/model"
)

// ErrUnknownCustomer is reported by Candidates when the customer was not in
// the model's training population.
var ErrUnknownCustomer = errors.New("customer not in trained population")

// Recommendation is one recommended product.
type Recommendation struct {
	ProductID      int64   `json:"product_id"`
	ProductName    string  `json:"product_name"`
	EstimatedScore float64 `json:"estimated_score"`
}

// RecommendOptions configure Recommend.
type RecommendOptions struct {
	ModelName string
	TopK      int
}

// Recommend scores every product the customer has not bought in the
// trained population and returns the TopK by descending score. Products
// with no name in recs are dropped after ranking, so fewer than TopK may
// come back. An unknown customer yields an empty result. A missing or
// broken model is an error.
func Recommend(ctx context.Context, r *artifact.Resolver, recs []ingest.Record, customerID int64, opts RecommendOptions) ([]Recommendation, error) {
	log := logging.Ctx(ctx).With().
		Str("component", "recommend").
		Int64("customer_id", customerID).
		Logger()

	prefs := features.BuildPreferences(recs)
	z, summary := features.ZScores(prefs.Quantities())
	log.Debug().
		Int("signals", summary.N).
		Float64("qty_mean", summary.Mean).
		Float64("qty_std", summary.Std).
		Float64("scale_max", prefs.Scale.Max).
		Int("z_scores", len(z)).
		Msg("preference signals")

	res := artifact.Resolve(ctx, r, "knn", opts.ModelName, model.DecodeKNN)
	if res.Status != artifact.Found {
		return nil, fmt.Errorf("recommendation artifact %q: %w", opts.ModelName, res.Err)
	}
	knn := res.Value

	candidates, err := Candidates(knn, customerID)
	if errors.Is(err, ErrUnknownCustomer) {
		log.Info().Msg("customer not in trained population")
		return nil, nil
	}
	if len(candidates) == 0 {
		log.Info().Msg("no candidate products")
		return nil, nil
	}

	scored := make([]model.Prediction, 0, len(candidates))
	for _, item := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("recommend interrupted: %w", err)
		}
		p := knn.Predict(customerID, item)
		if math.IsNaN(p.Estimate) || math.IsInf(p.Estimate, 0) {
			log.Warn().Int64("product_id", item).Msg("non-finite score, skipping candidate")
			continue
		}
		scored = append(scored, p)
	}

	top := RankPredictions(scored, opts.TopK)

	names := features.ProductNames(recs)
	out := make([]Recommendation, 0, len(top))
	for _, p := range top {
		name, ok := names[p.Item]
		if !ok {
			log.Debug().Int64("product_id", p.Item).Msg("no product name, dropping recommendation")
			continue
		}
		out = append(out, Recommendation{
			ProductID:      p.Item,
			ProductName:    name,
			EstimatedScore: p.Estimate,
		})
	}
	return out, nil
}

// Candidates lists the trained items the customer has not rated, in
// ascending product id order.
func Candidates(knn *model.KNNBasic, customerID int64) ([]int64, error) {
	if !knn.Knows(customerID) {
		return nil, ErrUnknownCustomer
	}
	bought := make(map[int64]struct{})
	for _, item := range knn.ItemsOf(customerID) {
		bought[item] = struct{}{}
	}
	var out []int64
	for _, item := range knn.Items() {
		if _, ok := bought[item]; !ok {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// RankPredictions orders predictions by descending estimate, ties by
// ascending item, and keeps at most k.
func RankPredictions(preds []model.Prediction, k int) []model.Prediction {
	ranked := append([]model.Prediction(nil), preds...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Estimate != ranked[j].Estimate {
			return ranked[i].Estimate > ranked[j].Estimate
		}
		return ranked[i].Item < ranked[j].Item
	})
	if k >= 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
