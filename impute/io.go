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
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/spf13/cast"
)

// Layer is a polygon shapefile with a nullable label field. Every
// record's attributes are kept so the layer can be written back out
// unchanged apart from the labels.
type Layer struct {
	// LabelField is the name of the label field.
	LabelField string

	Polygons []*Polygon
	Labels   Labels

	fields []goshp.Field
	names  []string
	attrs  [][]string
}

func shpBase(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}

func fieldName(f goshp.Field) string {
	n := strings.IndexByte(string(f.Name[:]), 0)
	if n == -1 {
		n = len(f.Name)
	}
	return strings.TrimSpace(string(f.Name[:n]))
}

func trimAttribute(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}

// parseLabel converts a label attribute to a Label. Empty values are
// null.
func parseLabel(s string) (Label, error) {
	s = trimAttribute(s)
	if s == "" {
		return Label{}, nil
	}
	v, err := cast.ToFloat64E(s)
	if err != nil {
		return Label{}, err
	}
	if math.IsNaN(v) {
		return Label{}, nil
	}
	if v != math.Trunc(v) {
		return Label{}, fmt.Errorf("label %q is not an integer", s)
	}
	return Label{Value: int(v), Valid: true}, nil
}

// ReadLayer reads a polygon shapefile. Object IDs are the record
// indices, starting at zero.
func ReadLayer(fileName, labelField string) (*Layer, error) {
	f, err := shp.NewDecoder(shpBase(fileName) + ".shp")
	if err != nil {
		return nil, fmt.Errorf("impute: opening shapefile '%s': %v", fileName, err)
	}
	defer f.Close()

	l := &Layer{Labels: make(Labels)}
	l.fields = f.Fields()
	labelCol := -1
	for i, fld := range l.fields {
		name := fieldName(fld)
		if strings.EqualFold(name, labelField) {
			labelCol = i
			l.LabelField = name
		}
		l.names = append(l.names, name)
	}
	if labelCol < 0 {
		return nil, fmt.Errorf("impute: shapefile '%s' does not contain label field '%s'", fileName, labelField)
	}

	for oid := 0; ; oid++ {
		g, fields, more := f.DecodeRowFields(l.names...)
		if !more {
			break
		}
		var poly geom.Polygonal
		if g != nil {
			var ok bool
			if poly, ok = g.(geom.Polygonal); !ok {
				return nil, fmt.Errorf("impute: shapefile '%s' has non-polygon geometry type %T", fileName, g)
			}
		}
		rec := make([]string, len(l.names))
		for i, n := range l.names {
			rec[i] = trimAttribute(fields[n])
		}
		lbl, err := parseLabel(rec[labelCol])
		if err != nil {
			return nil, fmt.Errorf("impute: record %d of '%s': %v", oid, fileName, err)
		}
		l.Polygons = append(l.Polygons, &Polygon{Polygonal: poly, OID: oid})
		l.Labels[oid] = lbl
		l.attrs = append(l.attrs, rec)
	}
	if err := f.Error(); err != nil {
		return nil, fmt.Errorf("impute: reading shapefile '%s': %v", fileName, err)
	}
	return l, nil
}

// Write writes the layer to a new shapefile with the same fields as
// the one it was read from and the current labels. Null labels are
// written as empty values.
func (l *Layer) Write(fileName string) error {
	e, err := shp.NewEncoderFromFields(shpBase(fileName)+".shp", goshp.POLYGON, l.fields...)
	if err != nil {
		return fmt.Errorf("impute: creating shapefile: %v", err)
	}
	defer e.Close()
	for i, p := range l.Polygons {
		vals := make([]interface{}, len(l.names))
		for j, n := range l.names {
			if n == l.LabelField {
				vals[j] = ""
				if lbl := l.Labels[p.OID]; lbl.Valid {
					vals[j] = strconv.Itoa(lbl.Value)
				}
				continue
			}
			vals[j] = l.attrs[i][j]
		}
		var g geom.Geom
		if p.Polygonal != nil {
			g = p.Polygonal
		}
		if err := e.EncodeFields(g, vals...); err != nil {
			return fmt.Errorf("impute: writing shapefile: %v", err)
		}
	}
	return nil
}
