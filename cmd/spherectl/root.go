package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/spherenn/internal/domain/geo"
	logpkg "github.com/kailas-cloud/spherenn/internal/logger"
	"github.com/kailas-cloud/spherenn/internal/search/engine"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	json    bool
	verbose bool
	metric  string
}

func (o *globalOptions) parseMetric() (geo.Metric, error) {
	return geo.ParseMetric(o.metric)
}

func (o *globalOptions) logger() *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	l, err := logpkg.NewLogger("local", "debug")
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// indexFlags configure index construction for nearest and validate.
type indexFlags struct {
	engine   string
	leafSize int
	vpEffort int
}

func (f *indexFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.engine, "engine", string(engine.BallTree), "Index engine: balltree, vptree, brute")
	cmd.Flags().IntVar(&f.leafSize, "leaf-size", 0, "Ball tree leaf size (default 16)")
	cmd.Flags().IntVar(&f.vpEffort, "vp-effort", 0, "Vantage point selection effort (default 2)")
}

func (f *indexFlags) options(m geo.Metric) (engine.Options, error) {
	name, err := engine.Parse(f.engine)
	if err != nil {
		return engine.Options{}, err
	}
	return engine.Options{Engine: name, Metric: m, LeafSize: f.leafSize, VPEffort: f.vpEffort}, nil
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "spherectl",
		Short: "spherectl - nearest neighbours on the sphere",
		Long: `spherectl answers nearest-neighbour queries over directions on the unit sphere.

Directions are given as azimuth and elevation in degrees. Reference sets are read
from YAML files or taken from a built-in scenario, indexed in memory, and every
index answer can be cross-checked against brute force.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVar(&opts.json, "json", false, "Output as JSON")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log index builds to stderr")
	root.PersistentFlags().StringVar(&opts.metric, "metric", "great_circle", "Distance metric: great_circle, haversine, chord")

	root.AddCommand(newDistanceCmd(opts))
	root.AddCommand(newNearestCmd(opts))
	root.AddCommand(newValidateCmd(opts))
	root.AddCommand(newVersionCmd(opts))
	return root
}
