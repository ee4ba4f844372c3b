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
	"math"

	"gonum.org/v1/gonum/mat"
)

// Agglomerative is bottom-up hierarchical clustering with Ward
// linkage. It is deterministic and ignores the seed.
type Agglomerative struct{}

// Name returns "agglomerative".
func (Agglomerative) Name() string { return "agglomerative" }

// Fit merges the rows of x until k clusters remain. At each step the
// pair of clusters whose merge least increases the within-cluster
// variance is merged; ties go to the pair with the lowest indices.
// Labels are numbered in order of first appearance.
func (Agglomerative) Fit(x *mat.Dense, k int, _ uint64) ([]int, error) {
	n, _ := x.Dims()
	if err := checkK(n, k); err != nil {
		return nil, err
	}

	// dist holds squared Euclidean distances, updated with the
	// Lance-Williams formula for Ward linkage as clusters merge.
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := 0; j < i; j++ {
			d := sqDist(x.RawRowView(i), x.RawRowView(j))
			dist[i][j], dist[j][i] = d, d
		}
	}
	size := make([]float64, n)
	active := make([]bool, n)
	owner := make([]int, n) // cluster that each entity belongs to
	for i := range size {
		size[i] = 1
		active[i] = true
		owner[i] = i
	}

	for clusters := n; clusters > k; clusters-- {
		bi, bj, best := -1, -1, math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && dist[i][j] < best {
					bi, bj, best = i, j, dist[i][j]
				}
			}
		}
		// Merge bj into bi.
		for m := 0; m < n; m++ {
			if !active[m] || m == bi || m == bj {
				continue
			}
			t := size[bi] + size[bj] + size[m]
			d := ((size[bi]+size[m])*dist[bi][m] + (size[bj]+size[m])*dist[bj][m] - size[m]*best) / t
			dist[bi][m], dist[m][bi] = d, d
		}
		size[bi] += size[bj]
		active[bj] = false
		for e, o := range owner {
			if o == bj {
				owner[e] = bi
			}
		}
	}
	return relabel(owner), nil
}
