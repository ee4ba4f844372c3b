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

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Project2D projects the rows of x, which should already be centered,
// onto their first two principal components. If there is only one
// component the second coordinate is zero.
func Project2D(x *mat.Dense) (*mat.Dense, error) {
	n, d := x.Dims()
	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return nil, fmt.Errorf("cluster: principal component analysis failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	_, vc := vecs.Dims()
	nc := min(2, vc)
	var proj mat.Dense
	proj.Mul(x, vecs.Slice(0, d, 0, nc))

	out := mat.NewDense(n, 2, nil)
	out.Slice(0, n, 0, nc).(*mat.Dense).Copy(&proj)
	return out, nil
}

// PlotClusters saves a scatter plot of the first two principal
// components of x to fileName, with one color per label.
func PlotClusters(x *mat.Dense, labels []int, title, fileName string) error {
	xy, err := Project2D(x)
	if err != nil {
		return err
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Principal component 1"
	p.Y.Label.Text = "Principal component 2"
	for i, l := range distinct(labels) {
		var pts plotter.XYs
		for j, lj := range labels {
			if lj == l {
				pts = append(pts, plotter.XY{X: xy.At(j, 0), Y: xy.At(j, 1)})
			}
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("cluster: plotting clusters: %v", err)
		}
		s.Color = plotutil.Color(i)
		s.Shape = draw.CircleGlyph{}
		p.Add(s)
		name := fmt.Sprintf("cluster %d", l)
		if l == Noise {
			name = "noise"
		}
		p.Legend.Add(name, s)
	}
	if err := p.Save(5*vg.Inch, 4*vg.Inch, fileName); err != nil {
		return fmt.Errorf("cluster: saving cluster plot: %v", err)
	}
	return nil
}

// PlotElbow saves a line plot of inertia against the number of
// clusters, starting at kmin, to fileName.
func PlotElbow(inertia []float64, kmin int, fileName string) error {
	p := plot.New()
	p.Title.Text = "Elbow method"
	p.X.Label.Text = "Number of clusters"
	p.Y.Label.Text = "Inertia"
	pts := make(plotter.XYs, len(inertia))
	for i, v := range inertia {
		pts[i] = plotter.XY{X: float64(kmin + i), Y: v}
	}
	l, s, err := plotter.NewLinePoints(pts)
	if err != nil {
		return fmt.Errorf("cluster: plotting elbow: %v", err)
	}
	s.Shape = draw.CircleGlyph{}
	p.Add(l, s)
	if err := p.Save(5*vg.Inch, 4*vg.Inch, fileName); err != nil {
		return fmt.Errorf("cluster: saving elbow plot: %v", err)
	}
	return nil
}
