// SalesPulse - Batch Inference for Sales Transactions
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salespulse

package model

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/goccy/go-json"
)

// Similarity measures supported by KNNBasic.
const (
	SimMSD     = "msd"
	SimCosine  = "cosine"
	SimPearson = "pearson"
)

// Rating is one training triple.
type Rating struct {
	User   int64   `json:"user"`
	Item   int64   `json:"item"`
	Rating float64 `json:"rating"`
}

// SimOptions configure the similarity measure.
type SimOptions struct {
	Name       string `json:"name"`
	UserBased  *bool  `json:"user_based,omitempty"`
	MinSupport int    `json:"min_support"`
}

// knnArtifact is the exported form of a KNNBasic model.
type knnArtifact struct {
	K           int        `json:"k"`
	MinK        int        `json:"min_k"`
	SimOptions  SimOptions `json:"sim_options"`
	RatingScale [2]float64 `json:"rating_scale"`
	Ratings     []Rating   `json:"ratings"`
}

// entry is an (inner id, rating) pair.
type entry struct {
	id     int
	rating float64
}

// KNNBasic is a neighbourhood collaborative filter. A prediction for
// (user, item) is the similarity-weighted mean rating of the k most
// similar neighbours that rated the item (user-based) or that the user
// rated (item-based). Only neighbours with positive similarity count.
// When fewer than MinK neighbours qualify, or the user or item is unknown,
// the prediction is the global mean rating. Every prediction is clipped to
// the rating scale.
//
// Similarity rows are computed on first use and cached.
type KNNBasic struct {
	k          int
	minK       int
	sim        string
	userBased  bool
	minSupport int
	scaleLo    float64
	scaleHi    float64
	globalMean float64

	// Inner ids are assigned by first appearance in the training ratings.
	userInner map[int64]int
	itemInner map[int64]int
	userRaw   []int64
	itemRaw   []int64

	ur [][]entry
	ir [][]entry

	mu      sync.Mutex
	simRows map[int][]float64
}

// DecodeKNN parses a KNNBasic artifact.
func DecodeKNN(data []byte) (*KNNBasic, error) {
	var a knnArtifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode knn: %w", err)
	}
	return NewKNNBasic(a.Ratings, a.SimOptions, a.K, a.MinK, a.RatingScale)
}

// NewKNNBasic builds the model from training ratings. k defaults to 40 and
// minK to 1; similarity defaults to msd, user-based, min support 1.
func NewKNNBasic(ratings []Rating, opts SimOptions, k, minK int, scale [2]float64) (*KNNBasic, error) {
	if len(ratings) == 0 {
		return nil, fmt.Errorf("%w: knn has no training ratings", ErrInvalidArtifact)
	}
	if k <= 0 {
		k = 40
	}
	if minK <= 0 {
		minK = 1
	}
	if opts.Name == "" {
		opts.Name = SimMSD
	}
	switch opts.Name {
	case SimMSD, SimCosine, SimPearson:
	default:
		return nil, fmt.Errorf("%w: unknown similarity %q", ErrInvalidArtifact, opts.Name)
	}
	if opts.MinSupport <= 0 {
		opts.MinSupport = 1
	}
	if !finite(scale[0]) || !finite(scale[1]) || scale[0] > scale[1] {
		return nil, fmt.Errorf("%w: rating scale %v", ErrInvalidArtifact, scale)
	}

	m := &KNNBasic{
		k:          k,
		minK:       minK,
		sim:        opts.Name,
		userBased:  opts.UserBased == nil || *opts.UserBased,
		minSupport: opts.MinSupport,
		scaleLo:    scale[0],
		scaleHi:    scale[1],
		userInner:  make(map[int64]int),
		itemInner:  make(map[int64]int),
		simRows:    make(map[int][]float64),
	}

	var sum float64
	for _, r := range ratings {
		if !finite(r.Rating) {
			return nil, fmt.Errorf("%w: non-finite rating for user %d item %d", ErrInvalidArtifact, r.User, r.Item)
		}
		u, ok := m.userInner[r.User]
		if !ok {
			u = len(m.userRaw)
			m.userInner[r.User] = u
			m.userRaw = append(m.userRaw, r.User)
			m.ur = append(m.ur, nil)
		}
		i, ok := m.itemInner[r.Item]
		if !ok {
			i = len(m.itemRaw)
			m.itemInner[r.Item] = i
			m.itemRaw = append(m.itemRaw, r.Item)
			m.ir = append(m.ir, nil)
		}
		m.ur[u] = append(m.ur[u], entry{id: i, rating: r.Rating})
		m.ir[i] = append(m.ir[i], entry{id: u, rating: r.Rating})
		sum += r.Rating
	}
	m.globalMean = sum / float64(len(ratings))

	return m, nil
}

// GlobalMean returns the mean training rating.
func (m *KNNBasic) GlobalMean() float64 {
	return m.globalMean
}

// Knows reports whether user was in the training population.
func (m *KNNBasic) Knows(user int64) bool {
	_, ok := m.userInner[user]
	return ok
}

// ItemsOf returns the distinct items user rated in training, in rating order.
func (m *KNNBasic) ItemsOf(user int64) []int64 {
	u, ok := m.userInner[user]
	if !ok {
		return nil
	}
	seen := make(map[int]struct{}, len(m.ur[u]))
	out := make([]int64, 0, len(m.ur[u]))
	for _, e := range m.ur[u] {
		if _, dup := seen[e.id]; dup {
			continue
		}
		seen[e.id] = struct{}{}
		out = append(out, m.itemRaw[e.id])
	}
	return out
}

// Items returns every trained item in inner id order.
func (m *KNNBasic) Items() []int64 {
	return append([]int64(nil), m.itemRaw...)
}

// Prediction is the result of Predict.
type Prediction struct {
	User       int64
	Item       int64
	Estimate   float64
	Impossible bool
}

// Predict estimates the rating of item by user.
func (m *KNNBasic) Predict(user, item int64) Prediction {
	p := Prediction{User: user, Item: item}

	est, ok := m.estimate(user, item)
	if !ok {
		est = m.globalMean
		p.Impossible = true
	}
	p.Estimate = math.Max(m.scaleLo, math.Min(m.scaleHi, est))
	return p
}

func (m *KNNBasic) estimate(user, item int64) (float64, bool) {
	u, uok := m.userInner[user]
	i, iok := m.itemInner[item]
	if !uok || !iok {
		return 0, false
	}

	x, yr := u, m.ir[i]
	if !m.userBased {
		x, yr = i, m.ur[u]
	}
	row := m.simRow(x)

	type candidate struct {
		sim    float64
		rating float64
	}
	neighbors := make([]candidate, len(yr))
	for n, e := range yr {
		neighbors[n] = candidate{sim: row[e.id], rating: e.rating}
	}
	sort.SliceStable(neighbors, func(a, b int) bool { return neighbors[a].sim > neighbors[b].sim })
	if len(neighbors) > m.k {
		neighbors = neighbors[:m.k]
	}

	var sumSim, sumRatings float64
	actualK := 0
	for _, n := range neighbors {
		if n.sim > 0 {
			sumSim += n.sim
			sumRatings += n.sim * n.rating
			actualK++
		}
	}
	if actualK < m.minK {
		return 0, false
	}
	return sumRatings / sumSim, true
}

// simRow returns the similarities between x and every other x, where x is
// a user (user-based) or an item (item-based).
func (m *KNNBasic) simRow(x int) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if row, ok := m.simRows[x]; ok {
		return row
	}

	xr, yr := m.ur, m.ir
	if !m.userBased {
		xr, yr = m.ir, m.ur
	}
	nx := len(xr)

	freq := make([]float64, nx)
	prods := make([]float64, nx)
	sqi := make([]float64, nx)
	sqj := make([]float64, nx)
	si := make([]float64, nx)
	sj := make([]float64, nx)

	// Every pair of ratings x and x2 gave to a shared y.
	for _, ey := range xr[x] {
		ri := ey.rating
		for _, ex := range yr[ey.id] {
			x2, rj := ex.id, ex.rating
			freq[x2]++
			switch m.sim {
			case SimMSD:
				prods[x2] += (ri - rj) * (ri - rj)
			default:
				prods[x2] += ri * rj
				sqi[x2] += ri * ri
				sqj[x2] += rj * rj
				si[x2] += ri
				sj[x2] += rj
			}
		}
	}

	row := make([]float64, nx)
	for x2 := 0; x2 < nx; x2++ {
		if x2 == x {
			row[x2] = 1
			continue
		}
		if freq[x2] < float64(m.minSupport) {
			continue
		}
		switch m.sim {
		case SimMSD:
			row[x2] = 1 / (prods[x2]/freq[x2] + 1)
		case SimCosine:
			if den := math.Sqrt(sqi[x2] * sqj[x2]); den > 0 {
				row[x2] = prods[x2] / den
			}
		case SimPearson:
			n := freq[x2]
			num := n*prods[x2] - si[x2]*sj[x2]
			den := math.Sqrt((n*sqi[x2] - si[x2]*si[x2]) * (n*sqj[x2] - sj[x2]*sj[x2]))
			if den > 0 {
				row[x2] = num / den
			}
		}
	}

	m.simRows[x] = row
	return row
}
