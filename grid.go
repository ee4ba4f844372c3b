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

// Package fishnet computes smoothing and edge-detection filters over
// scalar attributes of fishnet grid cells. Cells are addressed by
// the row and column encoded in their page names.
package fishnet

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// Version gives the version number.
const Version = "1.0.0"

var (
	// ErrDuplicateCell is returned when two cells resolve to the same
	// row and column.
	ErrDuplicateCell = errors.New("fishnet: duplicate grid cell")

	// ErrGridTooLarge is returned when the extent of the cells is too
	// large to index.
	ErrGridTooLarge = errors.New("fishnet: grid extent too large")
)

// Cell is a single fishnet grid cell.
type Cell struct {
	// Polygonal is the cell geometry. It is carried through input
	// and output but not used by the filters.
	geom.Polygonal

	PageName string
	Row, Col int

	// Attributes holds the named measurements for the cell. Filter
	// outputs are added here.
	Attributes map[string]float64

	// Text holds the values of non-numeric fields, which are carried
	// through input and output unchanged.
	Text map[string]string
}

// NewCell creates a cell from its page name, resolving the row and
// column.
func NewCell(pageName string, g geom.Polygonal) *Cell {
	row, col := ParsePageName(pageName)
	return &Cell{
		Polygonal:  g,
		PageName:   pageName,
		Row:        row,
		Col:        col,
		Attributes: make(map[string]float64),
		Text:       make(map[string]string),
	}
}

// Grid is an immutable sparse mapping from (row, column) to value.
// Positions with no value, including positions outside of the grid
// extent, read as zero.
type Grid struct {
	data           *sparse.SparseArray
	minRow, minCol int
	nRows, nCols   int
}

// maxGridSize is the largest number of positions a Grid may span.
const maxGridSize = math.MaxInt32

// NewGrid creates a grid from the given values, which are indexed
// the same as cells. It returns ErrDuplicateCell if more than one
// cell has the same row and column. NaN values mark missing
// measurements and are stored as zero.
func NewGrid(cells []*Cell, values []float64) (*Grid, error) {
	if len(cells) != len(values) {
		return nil, fmt.Errorf("fishnet: %d cells but %d values", len(cells), len(values))
	}
	g := new(Grid)
	if len(cells) == 0 {
		g.data = sparse.ZerosSparse(1, 1)
		g.nRows, g.nCols = 1, 1
		return g, nil
	}
	minRow, minCol := math.MaxInt, math.MaxInt
	maxRow, maxCol := math.MinInt, math.MinInt
	for _, c := range cells {
		minRow = min(minRow, c.Row)
		minCol = min(minCol, c.Col)
		maxRow = max(maxRow, c.Row)
		maxCol = max(maxCol, c.Col)
	}
	nRows, nCols := maxRow-minRow+1, maxCol-minCol+1
	if nRows <= 0 || nCols <= 0 || nRows > maxGridSize/nCols {
		return nil, fmt.Errorf("%w: rows %d-%d, columns %d-%d", ErrGridTooLarge, minRow, maxRow, minCol, maxCol)
	}
	g.minRow, g.minCol = minRow, minCol
	g.nRows, g.nCols = nRows, nCols
	g.data = sparse.ZerosSparse(nRows, nCols)

	seen := make(map[[2]int]string, len(cells))
	for i, c := range cells {
		key := [2]int{c.Row, c.Col}
		if other, ok := seen[key]; ok {
			return nil, fmt.Errorf("%w: %q and %q both resolve to row %d column %d",
				ErrDuplicateCell, other, c.PageName, c.Row, c.Col)
		}
		seen[key] = c.PageName
		if !math.IsNaN(values[i]) {
			g.data.Set(values[i], c.Row-minRow, c.Col-minCol)
		}
	}
	return g, nil
}

// Value returns the value at the given position, or zero if there is
// none.
func (g *Grid) Value(row, col int) float64 {
	i, j := row-g.minRow, col-g.minCol
	if i < 0 || j < 0 || i >= g.nRows || j >= g.nCols {
		return 0
	}
	return g.data.Get(i, j)
}
