/*
Copyright © 2024 the fishnet authors.
This file is part of fishnet.

fishnet is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

fishnet is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with fishnet.  If not, see <http://www.gnu.org/licenses/>.
*/

package cluster

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Names of the labelings in a Result.
const (
	ConsensusLabels    = "consensus"
	HierarchicalLabels = "hierarchical"
	DensityLabels      = "density"
)

// Options configures Analyze.
type Options struct {
	// K is the number of clusters. The default is 2.
	K int

	// Iterations is the number of runs in the consensus. The default
	// is DefaultIterations.
	Iterations int

	// Strategy is the algorithm used in the consensus. The default is
	// KMeans with default parameters.
	Strategy Strategy

	// Density configures the density-based comparison labeling.
	Density DBSCAN
}

// Result holds the labelings and quality metrics from Analyze.
type Result struct {
	// Standardized holds the standardized features.
	Standardized *mat.Dense

	// Consensus, Hierarchical, and Density hold one label per entity.
	Consensus, Hierarchical, Density []int

	// Votes holds the number of consensus votes each entity received
	// for each label.
	Votes *mat.Dense

	// Silhouette holds the mean silhouette coefficient of each
	// labeling, or NaN where it is undefined.
	Silhouette map[string]float64

	// ARI holds the adjusted Rand index between the consensus labeling
	// and each comparison labeling.
	ARI map[string]float64
}

// Analyze standardizes the features in t, calculates the consensus
// labeling, and compares it to a Ward hierarchical labeling and a
// DBSCAN labeling. The comparison labelings do not affect the
// consensus.
func Analyze(ctx context.Context, t *Table, o Options) (*Result, error) {
	if o.K == 0 {
		o.K = 2
	}
	if o.Strategy == nil {
		o.Strategy = KMeans{}
	}
	x, err := Standardize(t.Data)
	if err != nil {
		return nil, err
	}
	r := &Result{
		Standardized: x,
		Silhouette:   make(map[string]float64),
		ARI:          make(map[string]float64),
	}
	r.Consensus, r.Votes, err = Consensus(ctx, x, o.K, o.Iterations, o.Strategy)
	if err != nil {
		return nil, err
	}
	r.Hierarchical, err = Agglomerative{}.Fit(x, o.K, 0)
	if err != nil {
		return nil, fmt.Errorf("cluster: hierarchical labeling: %w", err)
	}
	r.Density, err = o.Density.Fit(x, o.K, 0)
	if err != nil {
		return nil, fmt.Errorf("cluster: density labeling: %w", err)
	}

	for name, l := range map[string][]int{
		ConsensusLabels:    r.Consensus,
		HierarchicalLabels: r.Hierarchical,
		DensityLabels:      r.Density,
	} {
		s, err := Silhouette(x, l)
		if errors.Is(err, ErrSilhouetteUndefined) {
			s = math.NaN()
		} else if err != nil {
			return nil, err
		}
		r.Silhouette[name] = s
	}
	r.ARI[HierarchicalLabels] = AdjustedRandIndex(r.Consensus, r.Hierarchical)
	r.ARI[DensityLabels] = AdjustedRandIndex(r.Consensus, r.Density)
	return r, nil
}
