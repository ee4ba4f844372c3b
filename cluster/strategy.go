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
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Strategy is a clustering algorithm. The set of strategies is closed:
// KMeans, Agglomerative, and DBSCAN.
type Strategy interface {
	// Name returns a short name for the strategy.
	Name() string

	// Fit assigns a label to each row of x. k is the requested number
	// of clusters and seed initializes any randomness; strategies that
	// do not need them ignore them.
	Fit(x *mat.Dense, k int, seed uint64) ([]int, error)

	isStrategy()
}

func (KMeans) isStrategy()        {}
func (Agglomerative) isStrategy() {}
func (DBSCAN) isStrategy()        {}

// ParseStrategy returns the strategy with the given name, which is one
// of "kmeans", "agglomerative" (or "ward"), or "dbscan". The returned
// strategy uses default parameters.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "kmeans", "k-means":
		return KMeans{}, nil
	case "agglomerative", "ward", "hierarchical":
		return Agglomerative{}, nil
	case "dbscan":
		return DBSCAN{}, nil
	default:
		return nil, fmt.Errorf("cluster: invalid strategy '%s'; valid options are kmeans, agglomerative, and dbscan", name)
	}
}

// checkK returns an error if k clusters cannot be made from n entities.
func checkK(n, k int) error {
	if k < 1 || k > n {
		return fmt.Errorf("%w: cannot make %d clusters from %d entities", ErrTooFewEntities, k, n)
	}
	return nil
}
