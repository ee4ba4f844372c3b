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
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/spf13/cast"
	"github.com/tealeg/xlsx"
)

// Shapefile fields that hold the resolved grid coordinates in output
// files.
const (
	RowField    = "rowID"
	ColumnField = "columnID"
)

// maxFieldName is the longest allowed shapefile field name.
const maxFieldName = 10

// shpBase removes any .shp extension from fileName.
func shpBase(fileName string) string {
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}

// fieldName converts a shapefile field name into a string.
func fieldName(f goshp.Field) string {
	n := strings.IndexByte(string(f.Name[:]), 0)
	if n == -1 {
		n = len(f.Name)
	}
	return strings.TrimSpace(string(f.Name[:n]))
}

// numericField reports whether f holds numbers.
func numericField(f goshp.Field) bool {
	return f.Fieldtype == 'N' || f.Fieldtype == 'F'
}

// parseFloat converts a shapefile attribute to a float, returning
// NaN for empty or unparseable values.
func parseFloat(s string) float64 {
	s = trimAttribute(s)
	if s == "" {
		return math.NaN()
	}
	v, err := cast.ToFloat64E(s)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Layer is a set of fishnet cells read from, or to be written to, a
// polygon shapefile.
type Layer struct {
	// PageField is the name of the field holding the page names.
	PageField string

	Cells []*Cell

	// fields holds the field definitions of the file the layer was
	// read from, in order.
	fields []goshp.Field
}

func trimAttribute(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}

// ReadLayer reads fishnet cells from the polygon shapefile fileName.
// The page name of each cell is read from pageField (matched without
// regard to case). Every numeric field other than RowField and
// ColumnField is read into the cell attributes, with empty or
// unparseable values stored as NaN, and every other field is kept as
// text.
func ReadLayer(fileName, pageField string) (*Layer, error) {
	f, err := shp.NewDecoder(shpBase(fileName) + ".shp")
	if err != nil {
		return nil, fmt.Errorf("fishnet: opening cell shapefile '%s': %v", fileName, err)
	}
	defer f.Close()

	l := &Layer{fields: f.Fields()}
	names := make([]string, len(l.fields))
	numeric := make(map[string]bool)
	for i, fld := range l.fields {
		names[i] = fieldName(fld)
		if strings.EqualFold(names[i], pageField) {
			l.PageField = names[i]
		}
		numeric[names[i]] = numericField(fld)
	}
	if l.PageField == "" {
		return nil, fmt.Errorf("fishnet: cell shapefile '%s' does not contain page name field '%s'", fileName, pageField)
	}

	for {
		g, fields, more := f.DecodeRowFields(names...)
		if !more {
			break
		}
		var poly geom.Polygonal
		if g != nil {
			var ok bool
			poly, ok = g.(geom.Polygonal)
			if !ok {
				return nil, fmt.Errorf("fishnet: cell shapefile '%s' has non-polygon geometry type %T", fileName, g)
			}
		}
		c := NewCell(trimAttribute(fields[l.PageField]), poly)
		for _, n := range names {
			switch {
			case n == l.PageField, n == RowField, n == ColumnField:
				// Derived from the page name.
			case numeric[n]:
				c.Attributes[n] = parseFloat(fields[n])
			default:
				c.Text[n] = trimAttribute(fields[n])
			}
		}
		l.Cells = append(l.Cells, c)
	}
	if err := f.Error(); err != nil {
		return nil, fmt.Errorf("fishnet: reading cell shapefile '%s': %v", fileName, err)
	}
	return l, nil
}

// ReadCells reads the cells of the polygon shapefile fileName using
// ReadLayer.
func ReadCells(fileName, pageField string) ([]*Cell, error) {
	l, err := ReadLayer(fileName, pageField)
	if err != nil {
		return nil, err
	}
	return l.Cells, nil
}

// attributeNames returns the sorted union of the attribute names of
// cells.
func attributeNames(cells []*Cell) []string {
	m := make(map[string]struct{})
	for _, c := range cells {
		for k := range c.Attributes {
			m[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Write writes the layer to a polygon shapefile. The fields of the
// file the layer was read from come first, in their original order
// and with their original definitions, followed by RowField and
// ColumnField if they were not already present and then by any new
// attributes in alphabetical order. Missing and NaN values are written
// empty.
func (l *Layer) Write(fileName string) error {
	fields := append([]goshp.Field(nil), l.fields...)
	if len(fields) == 0 {
		fields = append(fields, goshp.StringField(l.PageField, 50))
	}
	have := make(map[string]bool)
	for _, f := range fields {
		have[fieldName(f)] = true
	}
	for _, n := range []string{RowField, ColumnField} {
		if !have[n] {
			fields = append(fields, goshp.NumberField(n, 10))
		}
	}
	for _, a := range attributeNames(l.Cells) {
		if have[a] {
			continue
		}
		if len(a) > maxFieldName {
			return fmt.Errorf("fishnet: attribute name '%s' is longer than %d characters", a, maxFieldName)
		}
		fields = append(fields, goshp.FloatField(a, 14, 8))
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = fieldName(f)
	}

	shape, err := shp.NewEncoderFromFields(shpBase(fileName)+".shp", goshp.POLYGON, fields...)
	if err != nil {
		return fmt.Errorf("fishnet: creating output shapefile: %v", err)
	}
	defer shape.Close()
	for _, c := range l.Cells {
		vals := make([]interface{}, len(names))
		for i, n := range names {
			switch {
			case n == l.PageField:
				vals[i] = c.PageName
			case n == RowField:
				vals[i] = c.Row
			case n == ColumnField:
				vals[i] = c.Col
			default:
				if v, ok := c.Attributes[n]; ok && !math.IsNaN(v) {
					vals[i] = v
				} else if ok {
					vals[i] = ""
				} else {
					vals[i] = c.Text[n]
				}
			}
		}
		var g geom.Geom
		if c.Polygonal != nil {
			g = c.Polygonal
		}
		if err := shape.EncodeFields(g, vals...); err != nil {
			return fmt.Errorf("fishnet: writing output shapefile: %v", err)
		}
	}
	return nil
}

// WriteCells writes cells to a new polygon shapefile, with their page
// names in pageField, their resolved grid coordinates, their text
// fields and their attributes.
func WriteCells(fileName, pageField string, cells []*Cell) error {
	l := &Layer{PageField: pageField, Cells: cells}
	for _, n := range textNames(cells) {
		if len(n) > maxFieldName {
			return fmt.Errorf("fishnet: field name '%s' is longer than %d characters", n, maxFieldName)
		}
		l.fields = append(l.fields, goshp.StringField(n, 50))
	}
	if len(l.fields) > 0 {
		l.fields = append([]goshp.Field{goshp.StringField(pageField, 50)}, l.fields...)
	}
	return l.Write(fileName)
}

// textNames returns the sorted union of the text field names of cells.
func textNames(cells []*Cell) []string {
	m := make(map[string]struct{})
	for _, c := range cells {
		for k := range c.Text {
			m[k] = struct{}{}
		}
	}
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// CopyProjection copies the .prj file that accompanies shapefile src,
// if there is one, so that it accompanies shapefile dst.
func CopyProjection(src, dst string) error {
	in, err := os.Open(shpBase(src) + ".prj")
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("fishnet: opening projection file: %v", err)
	}
	defer in.Close()
	out, err := os.Create(shpBase(dst) + ".prj")
	if err != nil {
		return fmt.Errorf("fishnet: creating projection file: %v", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("fishnet: copying projection file: %v", err)
	}
	return out.Close()
}

// WriteExcel writes a table of filter results to the xlsx file
// fileName. There is one row per cell, holding the page name, the grid
// coordinates, the filter input from values (which is indexed the same
// as cells) under the header input, and the output of each operator
// under its Description.
func WriteExcel(fileName, input string, values []float64, cells []*Cell, ops ...Operator) error {
	if len(values) != len(cells) {
		return fmt.Errorf("fishnet: %d cells but %d values", len(cells), len(values))
	}
	if len(ops) == 0 {
		ops = DefaultOperators()
	}
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("filters")
	if err != nil {
		return fmt.Errorf("fishnet: creating xlsx sheet: %v", err)
	}
	header := sheet.AddRow()
	for _, h := range []string{"PageName", RowField, ColumnField, input} {
		header.AddCell().SetString(h)
	}
	for _, op := range ops {
		header.AddCell().SetString(op.Description)
	}
	for i, c := range cells {
		r := sheet.AddRow()
		r.AddCell().SetString(c.PageName)
		r.AddCell().SetInt(c.Row)
		r.AddCell().SetInt(c.Col)
		setFloat(r.AddCell(), values[i])
		for _, op := range ops {
			v, ok := c.Attributes[op.Name]
			if !ok {
				v = math.NaN()
			}
			setFloat(r.AddCell(), v)
		}
	}
	if err := f.Save(fileName); err != nil {
		return fmt.Errorf("fishnet: saving xlsx file: %v", err)
	}
	return nil
}

// setFloat stores v in cell, leaving it empty if v is NaN.
func setFloat(cell *xlsx.Cell, v float64) {
	if math.IsNaN(v) {
		return
	}
	cell.SetFloat(v)
}
