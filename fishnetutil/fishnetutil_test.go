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
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spatialmodel/fishnet"
	"github.com/spatialmodel/fishnet/cluster"
	"github.com/spatialmodel/fishnet/impute"
	"github.com/spatialmodel/fishnet/internal/hash"
)

func square(x, y float64) geom.Polygon {
	return geom.Polygon{{
		{X: x, Y: y}, {X: x + 1, Y: y}, {X: x + 1, Y: y + 1}, {X: x, Y: y + 1}, {X: x, Y: y},
	}}
}

func logrusDiscard() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestFilter(t *testing.T) {
	dir := t.TempDir()
	var cells []*fishnet.Cell
	for row := 1; row <= 3; row++ {
		for col := 1; col <= 3; col++ {
			c := fishnet.NewCell(fishnet.FormatPageName(row, col), square(float64(col), float64(-row)))
			c.Attributes["NTL_MEAN"] = float64(row + col)
			c.Text["District"] = fmt.Sprintf("D%d", row)
			cells = append(cells, c)
		}
	}
	in := filepath.Join(dir, "fishnet.shp")
	if err := fishnet.WriteCells(in, "PageName", cells); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "filtered.shp")
	excel := filepath.Join(dir, "filtered.xlsx")

	Cfg.Set("config", "")
	Cfg.Set("Filter.Input", in)
	Cfg.Set("Filter.Output", out)
	Cfg.Set("Filter.PageField", "PageName")
	Cfg.Set("Filter.Attribute", "NTL_MEAN")
	Cfg.Set("Filter.Expression", "")
	Cfg.Set("Filter.ExcelOutput", excel)
	Root.SetArgs([]string{"filter"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}

	result, err := fishnet.ReadCells(out, "PageName")
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 9 {
		t.Fatalf("have %d cells, want 9", len(result))
	}
	for _, c := range result {
		if have, want := c.Text["District"], fmt.Sprintf("D%d", c.Row); have != want {
			t.Errorf("%s district: have %q, want %q", c.PageName, have, want)
		}
		if c.PageName != "B2" {
			continue
		}
		if have := c.Attributes["Conv3x3"]; math.Abs(have-4) > 1.e-8 {
			t.Errorf("Conv3x3: have %g, want 4", have)
		}
		if have := c.Attributes["Laplacian"]; math.Abs(have) > 1.e-8 {
			t.Errorf("Laplacian: have %g, want 0", have)
		}
	}
	if _, err := os.Stat(excel); err != nil {
		t.Error(err)
	}
}

func TestFilterExpression(t *testing.T) {
	dir := t.TempDir()
	c := fishnet.NewCell("A1", square(0, 0))
	c.Attributes["Floor_SUM"] = 9000
	in := filepath.Join(dir, "fishnet.shp")
	if err := fishnet.WriteCells(in, "PageName", []*fishnet.Cell{c}); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "filtered.shp")

	Cfg.Set("config", "")
	Cfg.Set("Filter.Input", in)
	Cfg.Set("Filter.Output", out)
	Cfg.Set("Filter.PageField", "PageName")
	Cfg.Set("Filter.Expression", "Floor_SUM / 1000")
	Cfg.Set("Filter.ExcelOutput", "")
	Root.SetArgs([]string{"filter"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}

	result, err := fishnet.ReadCells(out, "PageName")
	if err != nil {
		t.Fatal(err)
	}
	if have := result[0].Attributes["Conv3x3"]; math.Abs(have-1) > 1.e-8 {
		t.Errorf("Conv3x3: have %g, want 1", have)
	}
}

func TestFilterMissingAttribute(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "fishnet.shp")
	if err := fishnet.WriteCells(in, "PageName", []*fishnet.Cell{fishnet.NewCell("A1", square(0, 0))}); err != nil {
		t.Fatal(err)
	}
	err := RunFilter(logrusDiscard(), in, filepath.Join(dir, "out.shp"), "PageName", "NTL_MEAN", "", "")
	if err == nil {
		t.Error("expected an error for a missing attribute")
	}
}

func TestCluster(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "features.csv")
	const features = `File,v
a,0
b,0.1
c,0.2
d,0.3
e,0.4
f,100
g,100.1
h,100.2
i,100.3
j,100.4
`
	if err := os.WriteFile(in, []byte(features), 0644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "clusters.csv")

	Cfg.Set("config", "")
	Cfg.Set("Cluster.Input", in)
	Cfg.Set("Cluster.Output", out)
	Cfg.Set("Cluster.KeyColumn", "File")
	Cfg.Set("Cluster.K", 2)
	Cfg.Set("Cluster.Iterations", 11)
	Cfg.Set("Cluster.Strategy", "kmeans")
	Cfg.Set("Cluster.GroupDivisor", 0.0)
	Cfg.Set("Cluster.PlotDir", dir)
	Cfg.Set("Cluster.ElbowMax", 4)
	Root.SetArgs([]string{"cluster"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	wantHeader := []string{"File", "v", ConsensusColumn, HierarchicalColumn, DensityColumn}
	if strings.Join(records[0], ",") != strings.Join(wantHeader, ",") {
		t.Errorf("header: have %v, want %v", records[0], wantHeader)
	}
	if len(records) != 11 {
		t.Fatalf("have %d records, want 11", len(records))
	}
	for col := 2; col < 5; col++ {
		for i := 2; i <= 5; i++ {
			if records[i][col] != records[1][col] || records[5+i][col] != records[6][col] {
				t.Errorf("column %s: entities in the same group have different labels", records[0][col])
			}
		}
		if records[1][col] == records[6][col] {
			t.Errorf("column %s: groups have the same label", records[0][col])
		}
	}
	for _, name := range []string{"elbow.png", ConsensusColumn + ".png", HierarchicalColumn + ".png", DensityColumn + ".png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Error(err)
		}
	}
}

func TestClusterLogsOptions(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "features.csv")
	const features = "File,v\na,0\nb,0.1\nc,0.2\nd,100\ne,100.1\nf,100.2\n"
	if err := os.WriteFile(in, []byte(features), 0644); err != nil {
		t.Fatal(err)
	}
	o := cluster.Options{K: 2, Iterations: 5, Strategy: cluster.KMeans{}, Density: cluster.DBSCAN{MinSamples: 2}}
	log, hook := test.NewNullLogger()
	if err := RunCluster(context.Background(), log, in, filepath.Join(dir, "out.csv"), "File", 0, "", 0, o); err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, e := range hook.AllEntries() {
		if e.Message == "clustering" {
			found = true
			if have, want := e.Data["options"], hash.Hash(o); have != want {
				t.Errorf("options fingerprint: have %v, want %s", have, want)
			}
		}
	}
	if !found {
		t.Error("no clustering log entry")
	}
}

func TestClusterOptions(t *testing.T) {
	Cfg.Set("Cluster.K", 3)
	Cfg.Set("Cluster.Iterations", 7)
	Cfg.Set("Cluster.Strategy", "dbscan")
	Cfg.Set("Cluster.DBSCAN.Eps", 0.25)
	Cfg.Set("Cluster.DBSCAN.MinSamples", 3)
	o, err := ClusterOptions(Cfg)
	if err != nil {
		t.Fatal(err)
	}
	if o.K != 3 || o.Iterations != 7 {
		t.Errorf("have k=%d iterations=%d, want 3 and 7", o.K, o.Iterations)
	}
	if o.Strategy != o.Density {
		t.Errorf("dbscan strategy should use the density settings: have %#v", o.Strategy)
	}
	if o.Density.Eps != 0.25 || o.Density.MinSamples != 3 {
		t.Errorf("density settings: have %+v", o.Density)
	}

	Cfg.Set("Cluster.Strategy", "spectral")
	if _, err := ClusterOptions(Cfg); err == nil {
		t.Error("expected an error for an invalid strategy")
	}
	Cfg.Set("Cluster.Strategy", "kmeans")
	Cfg.Set("Cluster.K", 0)
	if _, err := ClusterOptions(Cfg); err == nil {
		t.Error("expected an error for zero clusters")
	}
	Cfg.Set("Cluster.K", 2)
}

// writeLabelLayer writes a row of four squares in which the second and
// fourth have missing labels.
func writeLabelLayer(t *testing.T, fileName string) {
	t.Helper()
	e, err := shp.NewEncoderFromFields(fileName, goshp.POLYGON,
		goshp.StringField("Name", 10), goshp.NumberField("Cluster", 10))
	if err != nil {
		t.Fatal(err)
	}
	for i, c := range []string{"2", "", "2", ""} {
		if err := e.EncodeFields(square(float64(i), 0), string(rune('a'+i)), c); err != nil {
			t.Fatal(err)
		}
	}
	e.Close()
}

func TestImpute(t *testing.T) {
	for _, fixedPoint := range []bool{true, false} {
		dir := t.TempDir()
		in := filepath.Join(dir, "clusters.shp")
		writeLabelLayer(t, in)
		out := filepath.Join(dir, "imputed.shp")

		Cfg.Set("config", "")
		Cfg.Set("Impute.Input", in)
		Cfg.Set("Impute.Output", out)
		Cfg.Set("Impute.LabelField", "Cluster")
		Cfg.Set("Impute.FixedPoint", fixedPoint)
		Root.SetArgs([]string{"impute"})
		if err := Root.Execute(); err != nil {
			t.Fatal(err)
		}

		l, err := impute.ReadLayer(out, "Cluster")
		if err != nil {
			t.Fatal(err)
		}
		// Both missing labels have a labeled neighbor, so a single
		// pass fills them in.
		for oid, lbl := range l.Labels {
			if !lbl.Valid || lbl.Value != 2 {
				t.Errorf("fixedPoint=%v: polygon %d has label %s, want 2", fixedPoint, oid, lbl)
			}
		}
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "fishnet.toml")
	const cfg = `LogLevel = "warning"
`
	if err := os.WriteFile(cfgFile, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	Cfg.Set("config", cfgFile)
	buf := new(bytes.Buffer)
	Root.SetOut(buf)
	defer Root.SetOut(nil)
	Root.SetArgs([]string{"config"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	Cfg.Set("config", "")
	for _, want := range []string{`LogLevel = "warning"`, "[Impute]", "[Cluster.DBSCAN]"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("configuration output doesn't contain %q:\n%s", want, buf.String())
		}
	}
}

func TestVersion(t *testing.T) {
	buf := new(bytes.Buffer)
	Root.SetOut(buf)
	defer Root.SetOut(nil)
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if want := "fishnet v" + fishnet.Version + "\n"; buf.String() != want {
		t.Errorf("have %q, want %q", buf.String(), want)
	}
}

func TestCheckOutputFile(t *testing.T) {
	if _, err := checkOutputFile(""); err == nil {
		t.Error("expected an error for an empty file name")
	}
	if _, err := checkOutputFile(filepath.Join(t.TempDir(), "missing", "out.shp")); err == nil {
		t.Error("expected an error for a missing directory")
	}
	dir := t.TempDir()
	os.Setenv("FISHNET_TEST_DIR", dir)
	defer os.Unsetenv("FISHNET_TEST_DIR")
	f, err := checkOutputFile("${FISHNET_TEST_DIR}/out.shp")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "out.shp"); f != want {
		t.Errorf("have %s, want %s", f, want)
	}
}
