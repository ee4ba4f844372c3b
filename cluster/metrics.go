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
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Silhouette returns the mean silhouette coefficient of labels over
// the rows of x, using Euclidean distance. Noise is treated as an
// ordinary label. An entity alone in its cluster scores zero. It
// returns ErrSilhouetteUndefined unless there are between 2 and n-1
// distinct labels.
func Silhouette(x *mat.Dense, labels []int) (float64, error) {
	n, _ := x.Dims()
	if len(labels) != n {
		return math.NaN(), fmt.Errorf("cluster: %d labels for %d entities", len(labels), n)
	}
	sizes := make(map[int]int)
	for _, l := range labels {
		sizes[l]++
	}
	if len(sizes) < 2 || len(sizes) > n-1 {
		return math.NaN(), fmt.Errorf("%w: %d distinct labels for %d entities", ErrSilhouetteUndefined, len(sizes), n)
	}

	var total float64
	sums := make(map[int]float64, len(sizes))
	for i := 0; i < n; i++ {
		if sizes[labels[i]] == 1 {
			continue
		}
		for l := range sums {
			delete(sums, l)
		}
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			sums[labels[j]] += floats.Distance(x.RawRowView(i), x.RawRowView(j), 2)
		}
		a := sums[labels[i]] / float64(sizes[labels[i]]-1)
		b := math.Inf(1)
		for l, s := range sums {
			if l != labels[i] {
				b = math.Min(b, s/float64(sizes[l]))
			}
		}
		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(n), nil
}

// comb2 returns n choose 2.
func comb2(n float64) float64 { return n * (n - 1) / 2 }

// AdjustedRandIndex returns the adjusted Rand index between two
// labelings of the same entities. Identical labelings score one, and
// the expected score of random labelings is zero. Identical
// single-cluster labelings score one. It panics if a and b have
// different lengths.
func AdjustedRandIndex(a, b []int) float64 {
	if len(a) != len(b) {
		panic(fmt.Errorf("cluster: label lengths %d and %d differ", len(a), len(b)))
	}
	type pair struct{ a, b int }
	contingency := make(map[pair]float64)
	aSums := make(map[int]float64)
	bSums := make(map[int]float64)
	for i := range a {
		contingency[pair{a[i], b[i]}]++
		aSums[a[i]]++
		bSums[b[i]]++
	}
	var index, sumA, sumB float64
	for _, v := range contingency {
		index += comb2(v)
	}
	for _, v := range aSums {
		sumA += comb2(v)
	}
	for _, v := range bSums {
		sumB += comb2(v)
	}
	expected := sumA * sumB / comb2(float64(len(a)))
	maxIndex := (sumA + sumB) / 2
	if maxIndex == expected {
		return 1
	}
	return (index - expected) / (maxIndex - expected)
}

// Inertia returns the within-cluster sum of squared distances from
// each entity to the mean of its cluster. Noise entities are skipped.
func Inertia(x *mat.Dense, labels []int) float64 {
	_, d := x.Dims()
	means := make(map[int][]float64)
	counts := make(map[int]float64)
	for i, l := range labels {
		if l == Noise {
			continue
		}
		if means[l] == nil {
			means[l] = make([]float64, d)
		}
		floats.Add(means[l], x.RawRowView(i))
		counts[l]++
	}
	for l, m := range means {
		floats.Scale(1/counts[l], m)
	}
	var sum float64
	for i, l := range labels {
		if l == Noise {
			continue
		}
		sum += sqDist(x.RawRowView(i), means[l])
	}
	return sum
}

// Elbow returns the k-means inertia for each number of clusters from
// kmin through kmax. It is used to choose the number of clusters.
func Elbow(x *mat.Dense, kmin, kmax int, seed uint64) ([]float64, error) {
	n, _ := x.Dims()
	if kmin < 1 {
		kmin = 1
	}
	if kmax > n {
		kmax = n
	}
	if kmax < kmin {
		return nil, fmt.Errorf("%w: cannot make %d clusters from %d entities", ErrTooFewEntities, kmin, n)
	}
	o := make([]float64, 0, kmax-kmin+1)
	for k := kmin; k <= kmax; k++ {
		labels, err := KMeans{}.Fit(x, k, seed)
		if err != nil {
			return nil, fmt.Errorf("cluster: elbow k=%d: %w", k, err)
		}
		o = append(o, Inertia(x, labels))
	}
	return o, nil
}

// distinct returns the sorted distinct labels.
func distinct(labels []int) []int {
	m := make(map[int]struct{})
	for _, l := range labels {
		m[l] = struct{}{}
	}
	o := make([]int, 0, len(m))
	for l := range m {
		o = append(o, l)
	}
	sort.Ints(o)
	return o
}
