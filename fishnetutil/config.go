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
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/fishnet/cluster"
)

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: Filter.Output="output.shp")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("fishnet: the output file directory doesn't exist: %v", err)
	}
	return f, nil
}

// newLogger returns a logger that writes text-formatted messages at or
// above the given level to w.
func newLogger(w io.Writer, level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("fishnet: invalid LogLevel: %v", err)
	}
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
	})
	return log, nil
}

// ClusterOptions reads the consensus clustering settings from cfg.
func ClusterOptions(cfg *viper.Viper) (cluster.Options, error) {
	s, err := cluster.ParseStrategy(cfg.GetString("Cluster.Strategy"))
	if err != nil {
		return cluster.Options{}, err
	}
	o := cluster.Options{
		K:          cfg.GetInt("Cluster.K"),
		Iterations: cfg.GetInt("Cluster.Iterations"),
		Strategy:   s,
		Density: cluster.DBSCAN{
			Eps:        cfg.GetFloat64("Cluster.DBSCAN.Eps"),
			MinSamples: cfg.GetInt("Cluster.DBSCAN.MinSamples"),
		},
	}
	if _, ok := s.(cluster.DBSCAN); ok {
		o.Strategy = o.Density
	}
	if o.K < 1 {
		return o, fmt.Errorf("fishnet: Cluster.K must be at least 1 but is %d", o.K)
	}
	if o.Iterations < 1 {
		return o, fmt.Errorf("fishnet: Cluster.Iterations must be at least 1 but is %d", o.Iterations)
	}
	return o, nil
}

// shapefileParts returns the names of the files that make up the
// shapefile fileName.
func shapefileParts(fileName string) []string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return []string{base + ".shp", base + ".shx", base + ".dbf", base + ".prj"}
}
