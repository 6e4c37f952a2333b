// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/salespulse/internal/artifact"
	"github.com/tomtom215/salespulse/internal/features"
	"github.com/tomtom215/salespulse/internal/ingest"
	"github.com/tomtom215/salespulse/internal/logging"
	"github.com/tomtom215/salespulse/internal/model"
)

// Segment labels.
const (
	LabelHigh = "High Value"
	LabelMid  = "Mid Value"
	LabelLow  = "Low Value"
)

// SegmentResult is one customer's segmentation. The Segment key keeps the
// payload shape existing consumers read.
type SegmentResult struct {
	CustomerID int64   `json:"customer_id"`
	Recency    int64   `json:"recency"`
	Frequency  int64   `json:"frequency"`
	Monetary   float64 `json:"monetary"`
	ClusterID  int     `json:"cluster_id"`
	Segment    string  `json:"Segment"`
}

// SegmentOptions configure Segment.
type SegmentOptions struct {
	ModelName  string
	ScalerName string

	// Now is the instant recency is measured from.
	Now time.Time
}

// Segment computes RFM metrics per customer, clusters them with the
// k-means and scaler artifacts and labels each cluster by its mean recency
// within this batch. A missing or broken artifact is an error.
func Segment(ctx context.Context, r *artifact.Resolver, recs []ingest.Record, opts SegmentOptions) ([]SegmentResult, error) {
	log := logging.Ctx(ctx).With().Str("component", "segment").Logger()

	rfm := features.ComputeRFM(recs, opts.Now)
	if len(rfm) == 0 {
		log.Info().Msg("no qualifying customers")
		return nil, nil
	}

	scaler := artifact.Resolve(ctx, r, "scaler", opts.ScalerName, model.DecodeScaler)
	if scaler.Status != artifact.Found {
		return nil, fmt.Errorf("scaler artifact %q: %w", opts.ScalerName, scaler.Err)
	}
	kmeans := artifact.Resolve(ctx, r, "kmeans", opts.ModelName, model.DecodeKMeans)
	if kmeans.Status != artifact.Found {
		return nil, fmt.Errorf("segmentation artifact %q: %w", opts.ModelName, kmeans.Err)
	}

	out := make([]SegmentResult, len(rfm))
	for i, m := range rfm {
		scaled, err := scaler.Value.Transform(m.Vector())
		if err != nil {
			return nil, fmt.Errorf("scale customer %d: %w", m.CustomerID, err)
		}
		cluster, err := kmeans.Value.Predict(scaled)
		if err != nil {
			return nil, fmt.Errorf("cluster customer %d: %w", m.CustomerID, err)
		}
		out[i] = SegmentResult{
			CustomerID: m.CustomerID,
			Recency:    m.Recency,
			Frequency:  m.Frequency,
			Monetary:   m.Monetary,
			ClusterID:  cluster,
		}
	}

	labels := AssignLabels(MeanRecencyByCluster(out))
	for i := range out {
		out[i].Segment = labels[out[i].ClusterID]
	}

	log.Debug().Int("customers", len(out)).Int("clusters", len(labels)).Msg("segmented customers")
	return out, nil
}

// MeanRecencyByCluster averages recency over the customers of each cluster.
func MeanRecencyByCluster(results []SegmentResult) map[int]float64 {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, r := range results {
		sums[r.ClusterID] += float64(r.Recency)
		counts[r.ClusterID]++
	}
	means := make(map[int]float64, len(sums))
	for id, s := range sums {
		means[id] = s / float64(counts[id])
	}
	return means
}

// AssignLabels maps clusters to labels by mean recency: the cluster with
// the highest mean is Low Value, the lowest is High Value, the rest are
// Mid Value. The highest is decided first, so a lone cluster is Low Value.
// Ties go to the lowest cluster id.
func AssignLabels(meanRecency map[int]float64) map[int]string {
	if len(meanRecency) == 0 {
		return map[int]string{}
	}

	ids := make([]int, 0, len(meanRecency))
	for id := range meanRecency {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	maxID, minID := ids[0], ids[0]
	for _, id := range ids[1:] {
		if meanRecency[id] > meanRecency[maxID] {
			maxID = id
		}
		if meanRecency[id] < meanRecency[minID] {
			minID = id
		}
	}

	labels := make(map[int]string, len(ids))
	for _, id := range ids {
		switch id {
		case maxID:
			labels[id] = LabelLow
		case minID:
			labels[id] = LabelHigh
		default:
			labels[id] = LabelMid
		}
	}
	return labels
}
