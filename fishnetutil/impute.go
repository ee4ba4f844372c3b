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
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/fishnet"
	"github.com/spatialmodel/fishnet/impute"
	"github.com/spatialmodel/fishnet/internal/hash"
)

// RunImpute reads the polygons in the shapefile input, fills in
// missing values of labelField from touching polygons, and writes the
// result to the shapefile output. If fixedPoint is true, passes are
// repeated until no more labels can be filled in.
func RunImpute(log logrus.FieldLogger, input, output, labelField string, fixedPoint bool) error {
	inHash, err := hash.Files(shapefileParts(input)...)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"file": input, "hash": inHash}).Info("reading polygons")
	l, err := impute.ReadLayer(input, labelField)
	if err != nil {
		return err
	}
	nulls := len(l.Labels.Nulls())
	adj, err := impute.BuildAdjacency(l.Polygons)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"polygons": len(l.Polygons), "missing": nulls}).Info("built adjacency")

	passes, assigned := 1, 0
	if fixedPoint {
		passes, assigned = impute.ImputeAll(l.Labels, adj)
	} else {
		assigned = impute.Impute(l.Labels, adj)
	}
	log.WithFields(logrus.Fields{
		"passes":    passes,
		"assigned":  assigned,
		"remaining": nulls - assigned,
	}).Info("imputed labels")

	if err = l.Write(output); err != nil {
		return err
	}
	if err = fishnet.CopyProjection(input, output); err != nil {
		return err
	}
	outHash, err := hash.Files(shapefileParts(output)...)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"file": output, "hash": outHash}).Info("wrote polygons")
	return nil
}
