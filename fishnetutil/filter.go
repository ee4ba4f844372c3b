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

package fishnetutil

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/fishnet"
	"github.com/spatialmodel/fishnet/internal/hash"
)

// RunFilter reads the fishnet cells in the shapefile input, calculates
// the default filters of either the named attribute or, if it is not
// empty, the given expression, and writes the input table with the
// filter results added to the shapefile output. If excelOutput is not empty, a
// table of the results is also written there.
func RunFilter(log logrus.FieldLogger, input, output, pageField, attribute, expression, excelOutput string) error {
	inHash, err := hash.Files(shapefileParts(input)...)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"file": input, "hash": inHash}).Info("reading fishnet cells")
	layer, err := fishnet.ReadLayer(input, pageField)
	if err != nil {
		return err
	}
	cells := layer.Cells
	if len(cells) == 0 {
		return fmt.Errorf("fishnet: no cells in %s", input)
	}

	ops := fishnet.DefaultOperators()
	source := attribute
	var values []float64
	if expression != "" {
		source = expression
		values, err = fishnet.ExpressionValues(cells, expression)
		if err != nil {
			return err
		}
		if err = fishnet.Filter(cells, values, ops...); err != nil {
			return err
		}
	} else {
		if !hasAttribute(cells, attribute) {
			return fmt.Errorf("fishnet: no cell in %s has attribute %s", input, attribute)
		}
		values = make([]float64, len(cells))
		for i, c := range cells {
			values[i] = c.Attributes[attribute]
		}
		if err = fishnet.FilterAttribute(cells, attribute, ops...); err != nil {
			return err
		}
	}
	log.WithFields(logrus.Fields{"cells": len(cells), "input": source}).Info("calculated filters")

	if err = layer.Write(output); err != nil {
		return err
	}
	if err = fishnet.CopyProjection(input, output); err != nil {
		return err
	}
	outHash, err := hash.Files(shapefileParts(output)...)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"file": output, "hash": outHash}).Info("wrote filtered cells")

	if excelOutput != "" {
		if err = fishnet.WriteExcel(excelOutput, source, values, cells, ops...); err != nil {
			return err
		}
		log.WithField("file", excelOutput).Info("wrote filter table")
	}
	return nil
}

func hasAttribute(cells []*fishnet.Cell, attribute string) bool {
	for _, c := range cells {
		if _, ok := c.Attributes[attribute]; ok {
			return true
		}
	}
	return false
}
