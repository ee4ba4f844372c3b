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
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/fishnet/cluster"
	"github.com/spatialmodel/fishnet/internal/hash"
)

// Names of the label columns added to the clustering output.
const (
	ConsensusColumn    = "Final_Cluster"
	HierarchicalColumn = "Agglomerative_Cluster"
	DensityColumn      = "DBSCAN_Cluster"
)

// RunCluster reads the feature table in the CSV file input, labels
// the entities using consensus clustering, and writes the table with
// the consensus and comparison labels appended to output.
// If groupDivisor is greater than zero, rows are first averaged in
// groups of floor(key / groupDivisor). If plotDir is not empty, an
// elbow plot covering up to elbowMax clusters and a principal
// component plot of each labeling are saved there.
func RunCluster(ctx context.Context, log logrus.FieldLogger, input, output, key string,
	groupDivisor float64, plotDir string, elbowMax int, o cluster.Options) error {

	if o.Strategy == nil {
		o.Strategy = cluster.KMeans{}
	}
	inHash, err := hash.Files(input)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"file": input, "hash": inHash}).Info("reading features")
	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("fishnet: %v", err)
	}
	t, err := cluster.ReadTable(f, key)
	f.Close()
	if err != nil {
		return err
	}
	if groupDivisor > 0 {
		n := len(t.IDs)
		t, err = cluster.GroupMean(t, groupDivisor)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"rows": n, "groups": len(t.IDs)}).Info("averaged rows in groups")
	}

	log.WithFields(logrus.Fields{
		"entities":   len(t.IDs),
		"features":   len(t.Columns),
		"k":          o.K,
		"iterations": o.Iterations,
		"strategy":   o.Strategy.Name(),
		"options":    hash.Hash(o),
	}).Info("clustering")
	r, err := cluster.Analyze(ctx, t, o)
	if err != nil {
		return err
	}
	for _, name := range []string{cluster.ConsensusLabels, cluster.HierarchicalLabels, cluster.DensityLabels} {
		fields := logrus.Fields{"labeling": name, "silhouette": r.Silhouette[name]}
		if ari, ok := r.ARI[name]; ok {
			fields["ari"] = ari
		}
		log.WithFields(fields).Info("cluster quality")
	}

	w, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("fishnet: %v", err)
	}
	err = cluster.WriteTable(w, t,
		cluster.LabelColumn{Name: ConsensusColumn, Labels: r.Consensus},
		cluster.LabelColumn{Name: HierarchicalColumn, Labels: r.Hierarchical},
		cluster.LabelColumn{Name: DensityColumn, Labels: r.Density},
	)
	if cerr := w.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("fishnet: %v", cerr)
	}
	if err != nil {
		return err
	}
	log.WithField("file", output).Info("wrote cluster labels")

	if plotDir == "" {
		return nil
	}
	return plotClusters(log, plotDir, elbowMax, r)
}

func plotClusters(log logrus.FieldLogger, dir string, elbowMax int, r *cluster.Result) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("fishnet: the plot directory doesn't exist: %v", err)
	}
	inertia, err := cluster.Elbow(r.Standardized, 1, elbowMax, 0)
	if err != nil {
		return err
	}
	elbow := filepath.Join(dir, "elbow.png")
	if err = cluster.PlotElbow(inertia, 1, elbow); err != nil {
		return err
	}
	log.WithField("file", elbow).Info("saved elbow plot")

	for _, l := range []struct {
		name, title string
		labels      []int
	}{
		{name: ConsensusColumn, title: "Consensus clusters", labels: r.Consensus},
		{name: HierarchicalColumn, title: "Agglomerative clusters", labels: r.Hierarchical},
		{name: DensityColumn, title: "DBSCAN clusters", labels: r.Density},
	} {
		fileName := filepath.Join(dir, l.name+".png")
		if err = cluster.PlotClusters(r.Standardized, l.labels, l.title, fileName); err != nil {
			return err
		}
		log.WithField("file", fileName).Info("saved cluster plot")
	}
	return nil
}
