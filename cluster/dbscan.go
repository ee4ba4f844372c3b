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
	"gonum.org/v1/gonum/mat"
)

// DBSCAN is density-based clustering. It is deterministic and ignores
// both the requested number of clusters and the seed.
type DBSCAN struct {
	// Eps is the neighborhood radius. The default is 0.5.
	Eps float64

	// MinSamples is the number of entities, including the entity
	// itself, that must be within Eps for an entity to be a core
	// point. The default is 5.
	MinSamples int
}

// Name returns "dbscan".
func (DBSCAN) Name() string { return "dbscan" }

func (db DBSCAN) params() (eps float64, minSamples int) {
	eps, minSamples = db.Eps, db.MinSamples
	if eps <= 0 {
		eps = 0.5
	}
	if minSamples <= 0 {
		minSamples = 5
	}
	return
}

// Fit labels the rows of x. Entities that are not density-reachable
// from any core point are labeled Noise. Clusters are numbered in the
// order they are discovered when scanning the rows in order.
func (db DBSCAN) Fit(x *mat.Dense, _ int, _ uint64) ([]int, error) {
	eps, minSamples := db.params()
	eps2 := eps * eps
	n, _ := x.Dims()

	neighbors := func(i int) []int {
		var o []int
		row := x.RawRowView(i)
		for j := 0; j < n; j++ {
			if sqDist(row, x.RawRowView(j)) <= eps2 {
				o = append(o, j)
			}
		}
		return o
	}

	const unvisited = -2
	labels := make([]int, n)
	for i := range labels {
		labels[i] = unvisited
	}
	var c int
	for i := 0; i < n; i++ {
		if labels[i] != unvisited {
			continue
		}
		nb := neighbors(i)
		if len(nb) < minSamples {
			labels[i] = Noise
			continue
		}
		labels[i] = c
		queue := nb
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]
			if labels[j] == Noise {
				labels[j] = c // border point
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = c
			if nbj := neighbors(j); len(nbj) >= minSamples {
				queue = append(queue, nbj...)
			}
		}
		c++
	}
	return labels, nil
}
