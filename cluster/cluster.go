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

// Package cluster groups entities described by numeric features. It
// combines many randomized k-means runs into a single consensus
// labeling by majority vote, and compares the result against
// hierarchical and density-based labelings.
package cluster

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrTooFewEntities is returned when there are fewer entities than
	// requested clusters, or fewer than two entities to standardize.
	ErrTooFewEntities = errors.New("cluster: too few entities")

	// ErrNonFinite is returned when a feature value is NaN or infinite.
	ErrNonFinite = errors.New("cluster: non-finite feature value")

	// ErrDegenerateFeature is returned when a feature has zero variance.
	ErrDegenerateFeature = errors.New("cluster: zero-variance feature")

	// ErrNoConvergence is returned when k-means does not converge within
	// the iteration limit.
	ErrNoConvergence = errors.New("cluster: k-means did not converge")

	// ErrSilhouetteUndefined is returned when the silhouette coefficient
	// cannot be calculated because of the number of distinct labels.
	ErrSilhouetteUndefined = errors.New("cluster: silhouette undefined")
)

// Noise is the label given to entities that DBSCAN does not assign to
// any cluster.
const Noise = -1

// Standardize returns a copy of m in which each column has been
// shifted to zero mean and scaled to unit population standard
// deviation.
func Standardize(m *mat.Dense) (*mat.Dense, error) {
	n, d := m.Dims()
	if n < 2 {
		return nil, fmt.Errorf("%w: %d rows", ErrTooFewEntities, n)
	}
	out := mat.NewDense(n, d, nil)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, m)
		for i, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: row %d column %d", ErrNonFinite, i, j)
			}
		}
		mean, variance := stat.MeanVariance(col, nil)
		std := math.Sqrt(variance * float64(n-1) / float64(n))
		if std == 0 {
			return nil, fmt.Errorf("%w: column %d", ErrDegenerateFeature, j)
		}
		for i, v := range col {
			out.Set(i, j, (v-mean)/std)
		}
	}
	return out, nil
}

// sqDist returns the squared Euclidean distance between a and b.
func sqDist(a, b []float64) float64 {
	var sum float64
	for i, v := range a {
		d := v - b[i]
		sum += d * d
	}
	return sum
}

// relabel renumbers labels in order of first appearance, leaving
// Noise unchanged.
func relabel(labels []int) []int {
	m := make(map[int]int)
	out := make([]int, len(labels))
	for i, l := range labels {
		if l == Noise {
			out[i] = Noise
			continue
		}
		v, ok := m[l]
		if !ok {
			v = len(m)
			m[l] = v
		}
		out[i] = v
	}
	return out
}
