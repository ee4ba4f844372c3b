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

// Package fishnetutil contains the command-line interface and
// configuration handling for fishnet.
package fishnetutil

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/fishnet"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to fishnet.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of log messages to print:
              one of debug, info, warning, or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Filter.Input",
			usage: `
              Filter.Input is the path to the fishnet polygon shapefile
              holding the cells to be filtered. It can include environment
              variables.`,
			defaultVal: "fishnet.shp",
			flagsets:   []*pflag.FlagSet{filterCmd.Flags()},
		},
		{
			name: "Filter.Output",
			usage: `
              Filter.Output is the path where the filtered shapefile should
              be written. It can include environment variables.`,
			defaultVal: "fishnet_filtered.shp",
			flagsets:   []*pflag.FlagSet{filterCmd.Flags()},
		},
		{
			name: "Filter.PageField",
			usage: `
              Filter.PageField is the name of the field holding the page
              name (for example "AC45") that locates each cell in the grid.`,
			defaultVal: "PageName",
			flagsets:   []*pflag.FlagSet{filterCmd.Flags()},
		},
		{
			name: "Filter.Attribute",
			usage: `
              Filter.Attribute is the numeric field that the filters are
              applied to. It is ignored if Filter.Expression is set.`,
			defaultVal: "NTL_MEAN",
			flagsets:   []*pflag.FlagSet{filterCmd.Flags()},
		},
		{
			name: "Filter.Expression",
			usage: `
              Filter.Expression is an optional expression of the numeric
              fields of each cell (for example "Floor_SUM / 1000") whose
              value is filtered instead of Filter.Attribute.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{filterCmd.Flags()},
		},
		{
			name: "Filter.ExcelOutput",
			usage: `
              Filter.ExcelOutput is an optional path where a table of the
              filter results should be written in xlsx format.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{filterCmd.Flags()},
		},
		{
			name: "Cluster.Input",
			usage: `
              Cluster.Input is the path to the CSV file holding one row of
              numeric features per entity.`,
			defaultVal: "features.csv",
			flagsets:   []*pflag.FlagSet{clusterCmd.Flags()},
		},
		{
			name: "Cluster.Output",
			usage: `
              Cluster.Output is the path where the input table with the
              appended label columns should be written.`,
			defaultVal: "clusters.csv",
			flagsets:   []*pflag.FlagSet{clusterCmd.Flags()},
		},
		{
			name: "Cluster.KeyColumn",
			usage: `
              Cluster.KeyColumn is the name of the column holding the entity
              identifiers. All other columns are features.`,
			defaultVal: "File",
			flagsets:   []*pflag.FlagSet{clusterCmd.Flags()},
		},
		{
			name: "Cluster.K",
			usage: `
              Cluster.K is the number of clusters.`,
			shorthand:  "k",
			defaultVal: 2,
			flagsets:   []*pflag.FlagSet{clusterCmd.Flags()},
		},
		{
			name: "Cluster.Iterations",
			usage: `
              Cluster.Iterations is the number of randomly seeded runs that
              vote on the consensus labels.`,
			defaultVal: 100,
			flagsets:   []*pflag.FlagSet{clusterCmd.Flags()},
		},
		{
			name: "Cluster.Strategy",
			usage: `
              Cluster.Strategy is the algorithm used for the consensus runs:
              kmeans, agglomerative, or dbscan.`,
			defaultVal: "kmeans",
			flagsets:   []*pflag.FlagSet{clusterCmd.Flags()},
		},
		{
			name: "Cluster.DBSCAN.Eps",
			usage: `
              Cluster.DBSCAN.Eps is the neighborhood radius, in standardized
              units, for the density-based comparison labeling.`,
			defaultVal: 0.5,
			flagsets:   []*pflag.FlagSet{clusterCmd.Flags()},
		},
		{
			name: "Cluster.DBSCAN.MinSamples",
			usage: `
              Cluster.DBSCAN.MinSamples is the number of entities within
              Cluster.DBSCAN.Eps, including the entity itself, needed to make
              a core point.`,
			defaultVal: 5,
			flagsets:   []*pflag.FlagSet{clusterCmd.Flags()},
		},
		{
			name: "Cluster.GroupDivisor",
			usage: `
              Cluster.GroupDivisor, if greater than zero, causes rows to be
              averaged in groups of floor(key / GroupDivisor) before
              clustering. The key column must then be numeric.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{clusterCmd.Flags()},
		},
		{
			name: "Cluster.PlotDir",
			usage: `
              Cluster.PlotDir is an optional directory where elbow and
              principal component plots should be saved.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{clusterCmd.Flags()},
		},
		{
			name: "Cluster.ElbowMax",
			usage: `
              Cluster.ElbowMax is the largest number of clusters included in
              the elbow plot.`,
			defaultVal: 10,
			flagsets:   []*pflag.FlagSet{clusterCmd.Flags()},
		},
		{
			name: "Impute.Input",
			usage: `
              Impute.Input is the path to the polygon shapefile with missing
              labels.`,
			defaultVal: "clusters.shp",
			flagsets:   []*pflag.FlagSet{imputeCmd.Flags()},
		},
		{
			name: "Impute.Output",
			usage: `
              Impute.Output is the path where the shapefile with filled-in
              labels should be written.`,
			defaultVal: "clusters_imputed.shp",
			flagsets:   []*pflag.FlagSet{imputeCmd.Flags()},
		},
		{
			name: "Impute.LabelField",
			usage: `
              Impute.LabelField is the name of the integer label field.
              Empty values are treated as missing.`,
			defaultVal: "Cluster",
			flagsets:   []*pflag.FlagSet{imputeCmd.Flags()},
		},
		{
			name: "Impute.FixedPoint",
			usage: `
              Impute.FixedPoint specifies whether to repeat imputation passes
              until no more labels can be filled in. If false, a single pass
              is made.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{imputeCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("FISHNET")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}

	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(filterCmd)
	Root.AddCommand(clusterCmd)
	Root.AddCommand(imputeCmd)
	Root.AddCommand(configCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("fishnet: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "fishnet",
	Short: "Spatial analytics for fishnet grids.",
	Long: `fishnet computes smoothing and edge-detection filters over fishnet grid
cells, groups entities with a consensus of repeated clustering runs, and
fills in missing cluster labels from neighboring polygons.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'FISHNET_var' where 'var' is the
name of the variable to be set, with '.' replaced by '_'. File paths
are additionally allowed to contain environment variables within them.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of fishnet.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("fishnet v%s\n", fishnet.Version)
	},
	DisableAutoGenTag: true,
}

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Calculate neighborhood filters over grid cells",
	Long: `filter reads a fishnet polygon shapefile, locates each cell in the grid
using its page name, and adds 3×3 and 5×5 box means and Sobel, Prewitt, and
Laplacian edge strengths of the chosen attribute as new fields
(Conv3x3, Conv5x5, Sobel, Prewitt, and Laplacian). Cells missing from the
grid count as zero.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(cmd.ErrOrStderr(), Cfg.GetString("LogLevel"))
		if err != nil {
			return err
		}
		output, err := checkOutputFile(Cfg.GetString("Filter.Output"))
		if err != nil {
			return err
		}
		return RunFilter(log,
			os.ExpandEnv(Cfg.GetString("Filter.Input")),
			output,
			Cfg.GetString("Filter.PageField"),
			Cfg.GetString("Filter.Attribute"),
			Cfg.GetString("Filter.Expression"),
			os.ExpandEnv(Cfg.GetString("Filter.ExcelOutput")),
		)
	},
	DisableAutoGenTag: true,
}

var clusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Cluster entities by consensus",
	Long: `cluster reads a CSV table of numeric features, standardizes them, and
labels each entity by majority vote of repeated clustering runs with
seeds 0 through Cluster.Iterations-1. Ward hierarchical and DBSCAN
labelings are calculated for comparison and written alongside as
Agglomerative_Cluster and DBSCAN_Cluster; the consensus is written as
Final_Cluster. Silhouette scores and adjusted Rand indices are logged.

Run labels are not matched to each other before voting, so an
algorithm that numbers the same groups differently from run to run
splits its votes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(cmd.ErrOrStderr(), Cfg.GetString("LogLevel"))
		if err != nil {
			return err
		}
		output, err := checkOutputFile(Cfg.GetString("Cluster.Output"))
		if err != nil {
			return err
		}
		opts, err := ClusterOptions(Cfg)
		if err != nil {
			return err
		}
		return RunCluster(context.Background(), log,
			os.ExpandEnv(Cfg.GetString("Cluster.Input")),
			output,
			Cfg.GetString("Cluster.KeyColumn"),
			Cfg.GetFloat64("Cluster.GroupDivisor"),
			os.ExpandEnv(Cfg.GetString("Cluster.PlotDir")),
			Cfg.GetInt("Cluster.ElbowMax"),
			opts,
		)
	},
	DisableAutoGenTag: true,
}

var imputeCmd = &cobra.Command{
	Use:   "impute",
	Short: "Fill in missing labels from neighbors",
	Long: `impute reads a polygon shapefile and gives each polygon with a missing
label the most common label among the polygons it touches. Polygons are
processed in object ID order and labels filled in earlier are visible to
later polygons. Polygons with no labeled neighbors keep missing labels.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(cmd.ErrOrStderr(), Cfg.GetString("LogLevel"))
		if err != nil {
			return err
		}
		output, err := checkOutputFile(Cfg.GetString("Impute.Output"))
		if err != nil {
			return err
		}
		return RunImpute(log,
			os.ExpandEnv(Cfg.GetString("Impute.Input")),
			output,
			Cfg.GetString("Impute.LabelField"),
			Cfg.GetBool("Impute.FixedPoint"),
		)
	},
	DisableAutoGenTag: true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the configuration",
	Long: `config prints the configuration that results from combining the
defaults, the configuration file, environment variables, and
command-line arguments, in TOML format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return toml.NewEncoder(cmd.OutOrStdout()).Encode(settings())
	},
	DisableAutoGenTag: true,
}

// settings returns the current value of every option, nested by the
// sections in the option names.
func settings() map[string]interface{} {
	o := make(map[string]interface{})
	for _, option := range options {
		if option.name == "config" {
			continue
		}
		parts := strings.Split(option.name, ".")
		m := o
		for _, p := range parts[:len(parts)-1] {
			sub, ok := m[p].(map[string]interface{})
			if !ok {
				sub = make(map[string]interface{})
				m[p] = sub
			}
			m = sub
		}
		m[parts[len(parts)-1]] = Cfg.Get(option.name)
	}
	return o
}
