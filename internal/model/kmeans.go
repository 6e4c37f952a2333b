// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package model

import (
	"fmt"

	"github.com/goccy/go-json"
)

// KMeans assigns points to the nearest of a fixed set of centroids.
type KMeans struct {
	Centers [][]float64 `json:"cluster_centers"`
}

// DecodeKMeans parses a k-means artifact.
func DecodeKMeans(data []byte) (*KMeans, error) {
	var km KMeans
	if err := json.Unmarshal(data, &km); err != nil {
		return nil, fmt.Errorf("decode kmeans: %w", err)
	}
	if len(km.Centers) == 0 {
		return nil, fmt.Errorf("%w: kmeans has no cluster centers", ErrInvalidArtifact)
	}
	dim := len(km.Centers[0])
	for i, c := range km.Centers {
		if len(c) == 0 || len(c) != dim {
			return nil, fmt.Errorf("%w: cluster %d has %d dimensions, want %d", ErrInvalidArtifact, i, len(c), dim)
		}
		for _, v := range c {
			if !finite(v) {
				return nil, fmt.Errorf("%w: cluster %d is not finite", ErrInvalidArtifact, i)
			}
		}
	}
	return &km, nil
}

// Clusters returns the number of centroids.
func (km *KMeans) Clusters() int {
	return len(km.Centers)
}

// Predict returns the index of the centroid nearest to x by squared
// Euclidean distance. Ties go to the lowest index.
func (km *KMeans) Predict(x []float64) (int, error) {
	if len(x) != len(km.Centers[0]) {
		return 0, fmt.Errorf("%w: kmeans expects %d features, got %d", ErrDimension, len(km.Centers[0]), len(x))
	}

	best, bestDist := 0, 0.0
	for i, c := range km.Centers {
		var d float64
		for j := range c {
			diff := x[j] - c[j]
			d += diff * diff
		}
		if i == 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}
