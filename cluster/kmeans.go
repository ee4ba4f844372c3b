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
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// KMeans is Lloyd's k-means algorithm with k-means++ initialization.
type KMeans struct {
	// MaxIter is the maximum number of iterations. The default is 300.
	MaxIter int

	// Tol is the total squared centroid shift below which the
	// algorithm is considered converged. The default is 1e-4.
	Tol float64
}

// Name returns "kmeans".
func (KMeans) Name() string { return "kmeans" }

func (km KMeans) params() (maxIter int, tol float64) {
	maxIter, tol = km.MaxIter, km.Tol
	if maxIter <= 0 {
		maxIter = 300
	}
	if tol <= 0 {
		tol = 1.e-4
	}
	return
}

// Fit clusters the rows of x into k groups. The result depends only on
// x, k, and seed. Clusters are numbered in order of first appearance,
// so a run that finds the same groups as another numbers them the
// same way whatever order its centers were seeded in.
func (km KMeans) Fit(x *mat.Dense, k int, seed uint64) ([]int, error) {
	n, d := x.Dims()
	if err := checkK(n, k); err != nil {
		return nil, err
	}
	maxIter, tol := km.params()
	rng := rand.New(rand.NewSource(int64(seed)))

	centers := seedCenters(x, k, rng)
	labels := make([]int, n)
	next := make([][]float64, k)
	counts := make([]int, k)
	for iter := 0; iter < maxIter; iter++ {
		assign(x, centers, labels)

		for c := range next {
			next[c] = make([]float64, d)
			counts[c] = 0
		}
		for i, l := range labels {
			row := x.RawRowView(i)
			for j, v := range row {
				next[l][j] += v
			}
			counts[l]++
		}
		used := make(map[int]bool)
		for c := range next {
			if counts[c] == 0 {
				i := farthest(x, centers, labels, used)
				used[i] = true
				copy(next[c], x.RawRowView(i))
				continue
			}
			for j := range next[c] {
				next[c][j] /= float64(counts[c])
			}
		}

		var shift float64
		for c := range centers {
			shift += sqDist(centers[c], next[c])
			centers[c], next[c] = next[c], centers[c]
		}
		if shift <= tol {
			assign(x, centers, labels)
			return relabel(labels), nil
		}
	}
	return nil, fmt.Errorf("%w after %d iterations", ErrNoConvergence, maxIter)
}

// seedCenters chooses k initial centers from the rows of x using
// k-means++ weighting.
func seedCenters(x *mat.Dense, k int, rng *rand.Rand) [][]float64 {
	n, _ := x.Dims()
	centers := make([][]float64, 0, k)
	first := rng.Intn(n)
	centers = append(centers, append([]float64(nil), x.RawRowView(first)...))

	dist := make([]float64, n)
	for i := range dist {
		dist[i] = sqDist(x.RawRowView(i), centers[0])
	}
	for len(centers) < k {
		var total float64
		for _, v := range dist {
			total += v
		}
		var pick int
		if total == 0 {
			pick = rng.Intn(n)
		} else {
			r := rng.Float64() * total
			pick = n - 1
			for i, v := range dist {
				r -= v
				if r < 0 {
					pick = i
					break
				}
			}
		}
		c := append([]float64(nil), x.RawRowView(pick)...)
		centers = append(centers, c)
		for i := range dist {
			dist[i] = math.Min(dist[i], sqDist(x.RawRowView(i), c))
		}
	}
	return centers
}

// assign sets each label to the index of the nearest center, with ties
// going to the lowest index.
func assign(x *mat.Dense, centers [][]float64, labels []int) {
	for i := range labels {
		row := x.RawRowView(i)
		best, bestDist := 0, math.Inf(1)
		for c, center := range centers {
			if d := sqDist(row, center); d < bestDist {
				best, bestDist = c, d
			}
		}
		labels[i] = best
	}
}

// farthest returns the index of the row that is farthest from its
// assigned center, skipping rows in used.
func farthest(x *mat.Dense, centers [][]float64, labels []int, used map[int]bool) int {
	best, bestDist := 0, -1.
	for i, l := range labels {
		if used[i] {
			continue
		}
		if d := sqDist(x.RawRowView(i), centers[l]); d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
