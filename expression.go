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

	"github.com/Knetic/govaluate"
)

// expressionFuncs are the functions available in input expressions.
var expressionFuncs = map[string]govaluate.ExpressionFunction{
	"log": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("fishnet: got %d arguments for function 'log', but needs 1", len(args))
		}
		return math.Log(args[0].(float64)), nil
	},
	"sqrt": func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("fishnet: got %d arguments for function 'sqrt', but needs 1", len(args))
		}
		return math.Sqrt(args[0].(float64)), nil
	},
}

// ExpressionValues evaluates expression for every cell, with the
// cell attributes available as variables, and returns one value per
// cell. A cell missing one of the variables gets NaN. It is an error
// for the expression to refer to a variable that none of the cells
// have, or to evaluate to something other than a number.
func ExpressionValues(cells []*Cell, expression string) ([]float64, error) {
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(expression, expressionFuncs)
	if err != nil {
		return nil, fmt.Errorf("fishnet: parsing expression %q: %v", expression, err)
	}
	vars := expr.Vars()
	for _, v := range vars {
		var found bool
		for _, c := range cells {
			if _, ok := c.Attributes[v]; ok {
				found = true
				break
			}
		}
		if !found && len(cells) > 0 {
			return nil, fmt.Errorf("fishnet: undefined variable name '%s' in expression %q", v, expression)
		}
	}

	out := make([]float64, len(cells))
	params := make(map[string]interface{}, len(vars))
cellLoop:
	for i, c := range cells {
		for _, v := range vars {
			val, ok := c.Attributes[v]
			if !ok {
				out[i] = math.NaN()
				continue cellLoop
			}
			params[v] = val
		}
		r, err := expr.Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("fishnet: evaluating %q for cell %s: %v", expression, c.PageName, err)
		}
		f, ok := r.(float64)
		if !ok {
			return nil, fmt.Errorf("fishnet: expression %q gives %T, not a number", expression, r)
		}
		out[i] = f
	}
	return out, nil
}
