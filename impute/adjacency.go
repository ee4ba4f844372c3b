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

package impute

import (
	"fmt"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/wkb"
	"github.com/ctessum/geom/index/rtree"
	"github.com/twpayne/go-geos"
)

// Polygon is a polygon with an object ID.
type Polygon struct {
	geom.Polygonal
	OID int
}

// Adjacency holds the object IDs of the polygons that each polygon
// touches, in ascending order. It is symmetric and a polygon is never
// its own neighbor.
type Adjacency map[int][]int

// BuildAdjacency finds the pairs of polygons that intersect, including
// pairs that only share a boundary or a vertex.
func BuildAdjacency(polys []*Polygon) (Adjacency, error) {
	index := rtree.NewTree(25, 50)
	shapes := make(map[int]*geos.Geom, len(polys))
	for _, p := range polys {
		if p.Polygonal == nil {
			continue
		}
		g, err := toGEOS(p.Polygonal)
		if err != nil {
			return nil, fmt.Errorf("impute: polygon %d: %v", p.OID, err)
		}
		shapes[p.OID] = g
		index.Insert(p)
	}
	adj := make(Adjacency, len(polys))
	for _, p := range polys {
		adj[p.OID] = nil
		if p.Polygonal == nil {
			continue
		}
		for _, oI := range index.SearchIntersect(grow(p.Bounds())) {
			o := oI.(*Polygon)
			if o.OID == p.OID {
				continue
			}
			if shapes[p.OID].Intersects(shapes[o.OID]) {
				adj[p.OID] = append(adj[p.OID], o.OID)
			}
		}
		sort.Ints(adj[p.OID])
	}
	return adj, nil
}

// grow returns a copy of b enlarged slightly so that index searches
// find polygons whose bounds only touch b.
func grow(b *geom.Bounds) *geom.Bounds {
	o := b.Copy()
	d := 1.e-9 * max(o.Max.X-o.Min.X, o.Max.Y-o.Min.Y, 1)
	o.Min.X -= d
	o.Min.Y -= d
	o.Max.X += d
	o.Max.Y += d
	return o
}

// toGEOS converts p to a GEOS geometry through its well-known binary
// encoding.
func toGEOS(p geom.Polygonal) (*geos.Geom, error) {
	polys := p.Polygons()
	var g geom.Geom = geom.MultiPolygon(polys)
	if len(polys) == 1 {
		g = polys[0]
	}
	b, err := wkb.Encode(g, wkb.NDR)
	if err != nil {
		return nil, err
	}
	return geos.NewGeomFromWKB(b)
}

// Intersects reports whether a and b have any point in common.
func Intersects(a, b geom.Polygonal) (bool, error) {
	if !a.Bounds().Overlaps(b.Bounds()) {
		return false, nil
	}
	ga, err := toGEOS(a)
	if err != nil {
		return false, err
	}
	gb, err := toGEOS(b)
	if err != nil {
		return false, err
	}
	return ga.Intersects(gb), nil
}
