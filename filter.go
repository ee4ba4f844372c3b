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
	"fmt"
	"math"
	"runtime"
	"sync"
)

// Calculate runs the operators on every cell of the grid g, which
// must have been created from cells. The result holds one row per
// cell and one column per operator. Cells are processed concurrently;
// because every operator reads only from g the result does not depend
// on processing order.
func Calculate(g *Grid, cells []*Cell, ops ...Operator) [][]float64 {
	out := make([][]float64, len(cells))

	nprocs := runtime.GOMAXPROCS(0)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for ii := pp; ii < len(cells); ii += nprocs {
				c := cells[ii]
				r := make([]float64, len(ops))
				for j, op := range ops {
					r[j] = op.Func(g, c.Row, c.Col)
				}
				out[ii] = r
			}
		}(pp)
	}
	wg.Wait()
	return out
}

// Filter builds a grid from values (one per cell, in the same order)
// and stores the result of each operator as a new attribute on each
// cell, named after the operator. No attributes are written until all
// results have been calculated, so outputs never feed back into the
// inputs.
func Filter(cells []*Cell, values []float64, ops ...Operator) error {
	if len(ops) == 0 {
		ops = DefaultOperators()
	}
	for _, c := range cells {
		for _, op := range ops {
			if _, ok := c.Attributes[op.Name]; ok {
				return fmt.Errorf("fishnet: cell %s already has attribute %s", c.PageName, op.Name)
			}
		}
	}
	g, err := NewGrid(cells, values)
	if err != nil {
		return err
	}
	results := Calculate(g, cells, ops...)
	for i, c := range cells {
		if c.Attributes == nil {
			c.Attributes = make(map[string]float64, len(ops))
		}
		for j, op := range ops {
			c.Attributes[op.Name] = results[i][j]
		}
	}
	return nil
}

// FilterAttribute runs Filter using the named attribute of each cell
// as input. Cells without the attribute, or where it is NaN, are
// treated as having no value.
func FilterAttribute(cells []*Cell, attribute string, ops ...Operator) error {
	values := make([]float64, len(cells))
	for i, c := range cells {
		if v, ok := c.Attributes[attribute]; ok && !math.IsNaN(v) {
			values[i] = v
		}
	}
	return Filter(cells, values, ops...)
}
