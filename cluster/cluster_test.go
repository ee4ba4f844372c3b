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
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// twoGroups returns five values near 0 followed by five values near
// 100, as a single-column matrix.
func twoGroups() *mat.Dense {
	return mat.NewDense(10, 1, []float64{0, 0.1, 0.2, 0.3, 0.4, 100, 100.1, 100.2, 100.3, 100.4})
}

// requireSeparated checks that the first five labels are equal, the
// last five labels are equal, and the two halves differ.
func requireSeparated(t *testing.T, labels []int) {
	t.Helper()
	require.Len(t, labels, 10)
	for i := 1; i < 5; i++ {
		require.Equal(t, labels[0], labels[i], "labels %v", labels)
		require.Equal(t, labels[5], labels[5+i], "labels %v", labels)
	}
	require.NotEqual(t, labels[0], labels[5], "labels %v", labels)
}

func TestStandardize(t *testing.T) {
	x, err := Standardize(mat.NewDense(3, 2, []float64{1, 10, 2, 10, 3, 40}))
	require.NoError(t, err)
	s := math.Sqrt(1.5)
	assert.InDeltaSlice(t, []float64{-s, 0, s}, mat.Col(nil, 0, x), 1.e-12)
	assert.InDeltaSlice(t, []float64{-1 / math.Sqrt2, -1 / math.Sqrt2, math.Sqrt2}, mat.Col(nil, 1, x), 1.e-12)

	_, err = Standardize(mat.NewDense(2, 1, []float64{3, 3}))
	assert.ErrorIs(t, err, ErrDegenerateFeature)

	_, err = Standardize(mat.NewDense(2, 1, []float64{3, math.NaN()}))
	assert.ErrorIs(t, err, ErrNonFinite)

	_, err = Standardize(mat.NewDense(1, 1, []float64{3}))
	assert.ErrorIs(t, err, ErrTooFewEntities)
}

func TestStrategies(t *testing.T) {
	x, err := Standardize(twoGroups())
	require.NoError(t, err)
	for _, s := range []Strategy{KMeans{}, Agglomerative{}, DBSCAN{}} {
		t.Run(s.Name(), func(t *testing.T) {
			labels, err := s.Fit(x, 2, 3)
			require.NoError(t, err)
			requireSeparated(t, labels)
		})
	}
}

func TestKMeansDeterministic(t *testing.T) {
	x := mat.NewDense(8, 2, []float64{0, 0, 1, 0, 0, 1, 5, 5, 6, 5, 5, 6, 10, 0, 10, 1})
	a, err := KMeans{}.Fit(x, 3, 42)
	require.NoError(t, err)
	b, err := KMeans{}.Fit(x, 3, 42)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestKMeansTooFew(t *testing.T) {
	_, err := KMeans{}.Fit(twoGroups(), 11, 0)
	assert.ErrorIs(t, err, ErrTooFewEntities)
	_, err = KMeans{}.Fit(twoGroups(), 0, 0)
	assert.ErrorIs(t, err, ErrTooFewEntities)
}

func TestKMeansNoConvergence(t *testing.T) {
	x := mat.NewDense(6, 1, []float64{0, 1, 3, 10, 11, 13})
	_, err := KMeans{MaxIter: 1, Tol: 1.e-300}.Fit(x, 2, 0)
	assert.ErrorIs(t, err, ErrNoConvergence)
}

func TestAgglomerative(t *testing.T) {
	x := mat.NewDense(6, 1, []float64{0, 1, 5, 6, 20, 21})
	labels, err := Agglomerative{}.Fit(x, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1, 1, 2, 2}, labels)

	labels, err = Agglomerative{}.Fit(x, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0, 1, 1}, labels)
}

func TestDBSCANNoise(t *testing.T) {
	x := mat.NewDense(5, 1, []float64{0, 0.1, 0.2, 0.3, 50})
	labels, err := DBSCAN{Eps: 0.5, MinSamples: 3}.Fit(x, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0, Noise}, labels)

	labels, err = DBSCAN{}.Fit(x, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{Noise, Noise, Noise, Noise, Noise}, labels)
}

func TestConsensus(t *testing.T) {
	x, err := Standardize(twoGroups())
	require.NoError(t, err)
	ctx := context.Background()

	labels, votes, err := Consensus(ctx, x, 2, 11, KMeans{})
	require.NoError(t, err)
	requireSeparated(t, labels)
	for i := 0; i < 10; i++ {
		assert.Equal(t, 11., mat.Sum(votes.RowView(i)))
	}

	again, _, err := Consensus(ctx, x, 2, 11, KMeans{})
	require.NoError(t, err)
	assert.Equal(t, labels, again)
}

func TestConsensusAnyIterations(t *testing.T) {
	x, err := Standardize(twoGroups())
	require.NoError(t, err)
	for T := 10; T <= 200; T++ {
		labels, votes, err := Consensus(context.Background(), x, 2, T, KMeans{})
		require.NoError(t, err)
		requireSeparated(t, labels)
		assert.Equal(t, float64(T), votes.At(0, labels[0]), "T=%d", T)
	}
}

func TestKMeansNumbering(t *testing.T) {
	x, err := Standardize(twoGroups())
	require.NoError(t, err)
	for seed := uint64(0); seed < 20; seed++ {
		labels, err := KMeans{}.Fit(x, 2, seed)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1}, labels, "seed %d", seed)
	}
}

func TestConsensusCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Consensus(ctx, twoGroups(), 2, 10, KMeans{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVote(t *testing.T) {
	labels, votes := vote([][]int{{0, 1, Noise}, {1, 1, Noise}, {1, 0, 2}}, 3, 2)
	// Entities 0 and 1 each have two votes for label 1.
	assert.Equal(t, []int{1, 1, 2}, labels)
	r, c := votes.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)

	labels, _ = vote([][]int{{0}, {1}}, 1, 2)
	assert.Equal(t, []int{0}, labels, "tie")

	labels, _ = vote([][]int{{Noise}}, 1, 2)
	assert.Equal(t, []int{Noise}, labels, "no votes")
}

func TestSilhouette(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{0, 1, 10, 11})
	s, err := Silhouette(x, []int{0, 0, 1, 1})
	require.NoError(t, err)
	assert.InDelta(t, (2*9.5/10.5+2*8.5/9.5)/4, s, 1.e-12)

	// Singleton cluster scores zero.
	x3 := mat.NewDense(3, 1, []float64{0, 1, 10})
	s, err = Silhouette(x3, []int{0, 0, 1})
	require.NoError(t, err)
	assert.InDelta(t, (9./10+8./9)/3, s, 1.e-12)

	_, err = Silhouette(x, []int{0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrSilhouetteUndefined)
	_, err = Silhouette(x, []int{0, 1, 2, 3})
	assert.ErrorIs(t, err, ErrSilhouetteUndefined)
}

func TestAdjustedRandIndex(t *testing.T) {
	tests := []struct {
		name string
		a, b []int
		want float64
	}{
		{name: "permuted", a: []int{0, 0, 1, 1}, b: []int{1, 1, 0, 0}, want: 1},
		{name: "single cluster", a: []int{0, 0, 0}, b: []int{5, 5, 5}, want: 1},
		{name: "split", a: []int{0, 0, 1, 1}, b: []int{0, 0, 1, 2}, want: 4. / 7},
		{name: "crossed", a: []int{0, 0, 1, 1}, b: []int{0, 1, 0, 1}, want: -0.5},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.InDelta(t, test.want, AdjustedRandIndex(test.a, test.b), 1.e-12)
		})
	}
	assert.Panics(t, func() { AdjustedRandIndex([]int{0}, []int{0, 1}) })
}

func TestInertiaElbow(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{0, 2, 10, 12})
	assert.Equal(t, 4., Inertia(x, []int{0, 0, 1, 1}))
	assert.Equal(t, 2., Inertia(x, []int{0, 0, Noise, Noise}))

	e, err := Elbow(x, 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, e, 4)
	assert.InDelta(t, 104., e[0], 1.e-12)
	assert.InDelta(t, 4., e[1], 1.e-12)
	assert.InDelta(t, 0., e[3], 1.e-12)
}

func TestParseStrategy(t *testing.T) {
	for name, want := range map[string]Strategy{
		"kmeans":        KMeans{},
		"Ward":          Agglomerative{},
		"agglomerative": Agglomerative{},
		"DBSCAN":        DBSCAN{},
	} {
		s, err := ParseStrategy(name)
		require.NoError(t, err)
		assert.Equal(t, want, s)
	}
	_, err := ParseStrategy("spectral")
	assert.Error(t, err)
}

const testTable = `File,Floor_SUM,NTL_MEAN
100001,10,1
100002,20,3
200001,30,5
`

func TestTable(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader(testTable), "File")
	require.NoError(t, err)
	assert.Equal(t, []string{"100001", "100002", "200001"}, tbl.IDs)
	assert.Equal(t, []string{"Floor_SUM", "NTL_MEAN"}, tbl.Columns)

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, tbl, LabelColumn{Name: "Final_Cluster", Labels: []int{0, 0, 1}}))
	want := `File,Floor_SUM,NTL_MEAN,Final_Cluster
100001,10,1,0
100002,20,3,0
200001,30,5,1
`
	assert.Equal(t, want, buf.String())

	assert.Error(t, WriteTable(&buf, tbl, LabelColumn{Name: "x", Labels: []int{0}}))

	_, err = ReadTable(strings.NewReader(testTable), "ID")
	assert.Error(t, err)
	_, err = ReadTable(strings.NewReader("File,a\n1,\n"), "File")
	assert.Error(t, err)
}

func TestTableKeyPosition(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader("a,File,b\n1,x,2\n3,y,4\n"), "File")
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.KeyIndex)
	assert.Equal(t, []string{"a", "b"}, tbl.Columns)

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, tbl, LabelColumn{Name: "Final_Cluster", Labels: []int{0, 1}}))
	assert.Equal(t, "a,File,b,Final_Cluster\n1,x,2,0\n3,y,4,1\n", buf.String())
}

func TestGroupMean(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader(testTable), "File")
	require.NoError(t, err)
	g, err := GroupMean(tbl, 100000)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, g.IDs)
	assert.Equal(t, []float64{15, 2}, g.Data.RawRowView(0))
	assert.Equal(t, []float64{30, 5}, g.Data.RawRowView(1))

	_, err = GroupMean(tbl, 0)
	assert.Error(t, err)
	tbl.IDs[0] = "abc"
	_, err = GroupMean(tbl, 100000)
	assert.Error(t, err)
}

func TestAnalyze(t *testing.T) {
	tbl := &Table{Key: "File", IDs: make([]string, 10), Columns: []string{"v"}, Data: twoGroups()}
	r, err := Analyze(context.Background(), tbl, Options{Iterations: 11})
	require.NoError(t, err)
	requireSeparated(t, r.Consensus)
	requireSeparated(t, r.Hierarchical)
	requireSeparated(t, r.Density)
	assert.InDelta(t, 1, r.ARI[HierarchicalLabels], 1.e-12)
	assert.InDelta(t, 1, r.ARI[DensityLabels], 1.e-12)
	for _, name := range []string{ConsensusLabels, HierarchicalLabels, DensityLabels} {
		assert.Greater(t, r.Silhouette[name], 0.99, name)
	}
}

func TestPlots(t *testing.T) {
	dir := t.TempDir()
	x := mat.NewDense(6, 2, []float64{0, 0, 1, 0.5, 0, 1, 5, 5, 6, 5.5, 5, 6})
	xy, err := Project2D(x)
	require.NoError(t, err)
	r, c := xy.Dims()
	assert.Equal(t, 6, r)
	assert.Equal(t, 2, c)

	clusters := filepath.Join(dir, "clusters.png")
	require.NoError(t, PlotClusters(x, []int{0, 0, 0, 1, 1, Noise}, "test", clusters))
	elbow := filepath.Join(dir, "elbow.png")
	require.NoError(t, PlotElbow([]float64{10, 4, 2}, 1, elbow))
	for _, f := range []string{clusters, elbow} {
		_, err := os.Stat(f)
		assert.NoError(t, err)
	}
}
