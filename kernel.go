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

package fishnet

import (
	"math"
	"strconv"
)

// Tap is a single weighted position in a stencil, relative to the
// center cell.
type Tap struct {
	DRow, DCol int
	Weight     float64
}

// Stencil is a set of weighted positions around a center cell.
type Stencil []Tap

// Apply returns the weighted sum of the grid values covered by s
// when it is centered on (row, col).
func (s Stencil) Apply(g *Grid, row, col int) float64 {
	var sum float64
	for _, t := range s {
		sum += t.Weight * g.Value(row+t.DRow, col+t.DCol)
	}
	return sum
}

// Operator is a named function of a grid at a given cell.
type Operator struct {
	// Name is the attribute name the result is stored under. It is
	// kept to 10 characters or fewer so it can be used as a
	// shapefile field name.
	Name string

	// Description is a longer name used as a table header.
	Description string

	// Func calculates the operator value at (row, col).
	Func func(g *Grid, row, col int) float64
}

// BoxMean returns an operator that calculates the mean of the
// size×size block of cells centered on each cell. Missing cells
// count as zero but still count toward the divisor.
func BoxMean(size int) Operator {
	h := size / 2
	n := float64(size * size)
	dim := strconv.Itoa(size) + "x" + strconv.Itoa(size)
	return Operator{
		Name:        "Conv" + dim,
		Description: "Convolution_" + dim,
		Func: func(g *Grid, row, col int) float64 {
			var sum float64
			for i := -h; i <= h; i++ {
				for j := -h; j <= h; j++ {
					sum += g.Value(row+i, col+j)
				}
			}
			return sum / n
		},
	}
}

// Sobel kernels. DRow increases downward and DCol to the right.
var (
	SobelX = Stencil{
		{-1, -1, -1}, {-1, 0, -2}, {-1, 1, -1},
		{1, -1, 1}, {1, 0, 2}, {1, 1, 1},
	}
	SobelY = Stencil{
		{-1, -1, 1}, {-1, 1, -1},
		{0, -1, 2}, {0, 1, -2},
		{1, -1, 1}, {1, 1, -1},
	}
)

// Prewitt kernels.
var (
	PrewittX = Stencil{
		{-1, -1, -1}, {-1, 0, -1}, {-1, 1, -1},
		{1, -1, 1}, {1, 0, 1}, {1, 1, 1},
	}
	PrewittY = Stencil{
		{-1, -1, 1}, {-1, 1, -1},
		{0, -1, 1}, {0, 1, -1},
		{1, -1, 1}, {1, 1, -1},
	}
)

// LaplacianCross is the four-neighbor Laplacian kernel.
var LaplacianCross = Stencil{
	{0, 0, -4},
	{-1, 0, 1}, {1, 0, 1}, {0, -1, 1}, {0, 1, 1},
}

// Gradient returns an operator that calculates the gradient
// magnitude sqrt(Gx² + Gy²) for the kernel pair gx, gy.
func Gradient(name, description string, gx, gy Stencil) Operator {
	return Operator{
		Name:        name,
		Description: description,
		Func: func(g *Grid, row, col int) float64 {
			return math.Hypot(gx.Apply(g, row, col), gy.Apply(g, row, col))
		},
	}
}

// Sobel returns the Sobel edge strength operator.
func Sobel() Operator {
	return Gradient("Sobel", "Edge_Strength_Sobel", SobelX, SobelY)
}

// Prewitt returns the Prewitt edge strength operator.
func Prewitt() Operator {
	return Gradient("Prewitt", "Edge_Strength_Prewitt", PrewittX, PrewittY)
}

// Laplacian returns the absolute value of the four-neighbor
// Laplacian.
func Laplacian() Operator {
	return Operator{
		Name:        "Laplacian",
		Description: "Edge_Strength_Laplacian",
		Func: func(g *Grid, row, col int) float64 {
			return math.Abs(LaplacianCross.Apply(g, row, col))
		},
	}
}

// DefaultOperators returns the 3×3 and 5×5 box means and the Sobel,
// Prewitt, and Laplacian edge strengths, in that order.
func DefaultOperators() []Operator {
	return []Operator{BoxMean(3), BoxMean(5), Sobel(), Prewitt(), Laplacian()}
}
