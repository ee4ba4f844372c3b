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

// Package impute fills in missing cluster labels of polygons from the
// labels of the polygons they touch.
package impute

import (
	"sort"
	"strconv"
)

// Label is a cluster label that may be null.
type Label struct {
	Value int
	Valid bool
}

func (l Label) String() string {
	if !l.Valid {
		return "null"
	}
	return strconv.Itoa(l.Value)
}

// Labels holds the label of each polygon, keyed by object ID. It is
// updated in place by Impute.
type Labels map[int]Label

// Nulls returns the object IDs with null labels in ascending order.
func (l Labels) Nulls() []int {
	var o []int
	for oid, lbl := range l {
		if !lbl.Valid {
			o = append(o, oid)
		}
	}
	sort.Ints(o)
	return o
}

// Impute makes a single pass over the polygons whose labels are null
// when the pass begins, in ascending object ID order. Each one is
// given the most common label among its neighbors, read from the
// current state of labels, so labels assigned earlier in the pass are
// visible to later polygons. Ties go to the label encountered first
// when the neighbors are visited in ascending object ID order. A
// polygon with no labeled neighbors stays null. Impute returns the
// number of labels assigned.
func Impute(labels Labels, adj Adjacency) int {
	var assigned int
	for _, oid := range labels.Nulls() {
		counts := make(map[int]int)
		var order []int
		for _, nb := range adj[oid] {
			l := labels[nb]
			if !l.Valid {
				continue
			}
			if counts[l.Value] == 0 {
				order = append(order, l.Value)
			}
			counts[l.Value]++
		}
		if len(order) == 0 {
			continue
		}
		best := order[0]
		for _, v := range order[1:] {
			if counts[v] > counts[best] {
				best = v
			}
		}
		labels[oid] = Label{Value: best, Valid: true}
		assigned++
	}
	return assigned
}

// ImputeAll runs Impute until a pass assigns no labels. It returns the
// number of passes run, including the final one, and the total number
// of labels assigned. It always terminates because every pass that
// does not end the loop reduces the number of null labels.
func ImputeAll(labels Labels, adj Adjacency) (passes, assigned int) {
	for {
		passes++
		n := Impute(labels, adj)
		if n == 0 {
			return passes, assigned
		}
		assigned += n
	}
}
