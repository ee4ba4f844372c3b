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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"gonum.org/v1/gonum/mat"
)

// Table holds one row of numeric features per entity.
type Table struct {
	// Key is the name of the identifier column.
	Key string

	// KeyIndex is the position of the identifier column among all of
	// the columns in the table as read. WriteTable puts it back there.
	KeyIndex int

	// IDs holds the identifier of each entity.
	IDs []string

	// Columns holds the names of the feature columns.
	Columns []string

	// Data holds one row per entity and one column per feature.
	Data *mat.Dense
}

// LabelColumn is a named labeling to be appended to a table on output.
type LabelColumn struct {
	Name   string
	Labels []int
}

// ReadTable reads a CSV table from r. The column named key holds the
// entity identifiers and every other column must hold numbers.
func ReadTable(r io.Reader, key string) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cluster: reading table: %v", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("cluster: table is empty")
	}
	header := records[0]
	keyCol := -1
	t := &Table{Key: key}
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == key {
			keyCol = i
			continue
		}
		t.Columns = append(t.Columns, h)
	}
	if keyCol < 0 {
		return nil, fmt.Errorf("cluster: table has no identifier column '%s'", key)
	}
	t.KeyIndex = keyCol
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("cluster: table has no feature columns")
	}
	rows := records[1:]
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: table has no rows", ErrTooFewEntities)
	}
	t.Data = mat.NewDense(len(rows), len(t.Columns), nil)
	t.IDs = make([]string, len(rows))
	for i, rec := range rows {
		j := 0
		for c, v := range rec {
			if c == keyCol {
				t.IDs[i] = v
				continue
			}
			f, err := cast.ToFloat64E(strings.TrimSpace(v))
			if err != nil || strings.TrimSpace(v) == "" {
				return nil, fmt.Errorf("cluster: row %d column '%s': invalid number %q", i+1, t.Columns[j], v)
			}
			t.Data.Set(i, j, f)
			j++
		}
	}
	return t, nil
}

// WriteTable writes t to w as CSV, with the identifier column at
// t.KeyIndex, followed by the given label columns.
func WriteTable(w io.Writer, t *Table, labels ...LabelColumn) error {
	n, _ := t.Data.Dims()
	for _, l := range labels {
		if len(l.Labels) != n {
			return fmt.Errorf("cluster: label column '%s' has %d rows but table has %d", l.Name, len(l.Labels), n)
		}
	}
	keyAt := min(max(t.KeyIndex, 0), len(t.Columns))
	withKey := func(key string, cols []string) []string {
		o := make([]string, 0, len(cols)+1+len(labels))
		o = append(o, cols[:keyAt]...)
		o = append(o, key)
		return append(o, cols[keyAt:]...)
	}
	cw := csv.NewWriter(w)
	header := withKey(t.Key, t.Columns)
	for _, l := range labels {
		header = append(header, l.Name)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("cluster: writing table: %v", err)
	}
	for i, id := range t.IDs {
		row := t.Data.RawRowView(i)
		vals := make([]string, len(row))
		for j, v := range row {
			vals[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		rec := withKey(id, vals)
		for _, l := range labels {
			rec = append(rec, strconv.Itoa(l.Labels[i]))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("cluster: writing table: %v", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("cluster: writing table: %v", err)
	}
	return nil
}

// GroupMean groups the rows of t by floor(ID / divisor), where the IDs
// must be numeric, and averages each column within each group,
// skipping NaN values. The returned table has one row per group in
// ascending order, identified by the group number.
func GroupMean(t *Table, divisor float64) (*Table, error) {
	if divisor <= 0 {
		return nil, fmt.Errorf("cluster: invalid group divisor %g", divisor)
	}
	_, d := t.Data.Dims()
	sums := make(map[float64][]float64)
	counts := make(map[float64][]float64)
	for i, id := range t.IDs {
		v, err := cast.ToFloat64E(strings.TrimSpace(id))
		if err != nil {
			return nil, fmt.Errorf("cluster: grouping row %d: non-numeric %s %q", i+1, t.Key, id)
		}
		g := math.Floor(v / divisor)
		if sums[g] == nil {
			sums[g] = make([]float64, d)
			counts[g] = make([]float64, d)
		}
		for j, x := range t.Data.RawRowView(i) {
			if math.IsNaN(x) {
				continue
			}
			sums[g][j] += x
			counts[g][j]++
		}
	}
	groups := make([]float64, 0, len(sums))
	for g := range sums {
		groups = append(groups, g)
	}
	sort.Float64s(groups)

	o := &Table{
		Key:      t.Key,
		KeyIndex: t.KeyIndex,
		IDs:      make([]string, len(groups)),
		Columns:  append([]string(nil), t.Columns...),
		Data:     mat.NewDense(len(groups), d, nil),
	}
	for i, g := range groups {
		o.IDs[i] = strconv.FormatFloat(g, 'f', -1, 64)
		for j := 0; j < d; j++ {
			o.Data.Set(i, j, sums[g][j]/counts[g][j])
		}
	}
	return o, nil
}
