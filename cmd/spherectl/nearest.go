package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/spherenn/internal/domain/geo"
	"github.com/kailas-cloud/spherenn/internal/search/brute"
	"github.com/kailas-cloud/spherenn/internal/search/engine"
)

type neighbor struct {
	Index   int            `json:"index"`
	Point   geo.Coordinate `json:"point"`
	Radians float64        `json:"radians"`
	Degrees float64        `json:"degrees"`
}

type nearestResult struct {
	Set         string         `json:"set"`
	Engine      string         `json:"engine"`
	Query       geo.Coordinate `json:"query"`
	Neighbors   []neighbor     `json:"neighbors"`
	Evaluations int            `json:"evaluations"`
	Brute       *neighbor      `json:"brute,omitempty"`
}

func newNearestCmd(opts *globalOptions) *cobra.Command {
	var (
		ref   referenceFlags
		idx   indexFlags
		k     int
		check bool
	)

	cmd := &cobra.Command{
		Use:   "nearest <azimuth> <elevation>",
		Short: "Find the nearest reference directions to a query",
		Long: `Build an index over a reference set and report the k nearest directions.

Example:
  spherectl nearest 10 5 --scenario equator-pole
  spherectl nearest 95 80 --ref stars.yaml -k 3 --engine vptree --json
  spherectl nearest 45 45 --scenario equator-pole --check`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.parseMetric()
			if err != nil {
				return err
			}
			q, err := parseCoordinate(args[0], args[1])
			if err != nil {
				return err
			}
			set, err := ref.load()
			if err != nil {
				return err
			}
			eopts, err := idx.options(m)
			if err != nil {
				return err
			}

			log := opts.logger()
			defer func() { _ = log.Sync() }()

			points := set.Points()
			start := time.Now()
			index, err := engine.Build(points, eopts)
			if err != nil {
				return fmt.Errorf("build index: %w", err)
			}
			log.Debug("index built",
				zap.String("engine", index.Engine()),
				zap.Int("points", index.Len()),
				zap.Duration("duration", time.Since(start)),
			)

			found, stats, err := index.Search(q.Point(), k)
			if err != nil {
				return err
			}

			coords := set.Coordinates()
			res := nearestResult{
				Set:         set.Name(),
				Engine:      index.Engine(),
				Query:       q,
				Neighbors:   make([]neighbor, len(found)),
				Evaluations: stats.Evaluations,
			}
			for i, r := range found {
				res.Neighbors[i] = neighbor{
					Index: r.Index(), Point: coords[r.Index()],
					Radians: r.Distance(), Degrees: degrees(r.Distance()),
				}
			}
			if check {
				want, err := brute.Nearest(q.Point(), points, m)
				if err != nil {
					return err
				}
				res.Brute = &neighbor{
					Index: want.Index(), Point: coords[want.Index()],
					Radians: want.Distance(), Degrees: degrees(want.Distance()),
				}
			}

			if opts.json {
				return outputAsJSON(cmd, res)
			}
			outputNearestHuman(cmd, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&ref.file, "ref", "", "YAML file with the reference set")
	cmd.Flags().StringVar(&ref.scenario, "scenario", "", "Built-in reference set: "+scenarioEquatorPole)
	cmd.Flags().IntVarP(&k, "top", "k", 1, "Number of neighbours")
	cmd.Flags().BoolVar(&check, "check", false, "Also run brute force and show its answer")
	idx.register(cmd)
	return cmd
}

func outputNearestHuman(cmd *cobra.Command, res nearestResult) {
	outputText(cmd, "Query (%g, %g) against %s [%s, %d evaluations]\n",
		res.Query.AzimuthDeg, res.Query.ElevationDeg, res.Set, res.Engine, res.Evaluations)
	for i, n := range res.Neighbors {
		outputText(cmd, "  %d. #%d (%g, %g)  %.9f°\n", i+1, n.Index, n.Point.AzimuthDeg, n.Point.ElevationDeg, n.Degrees)
	}
	if res.Brute != nil {
		outputText(cmd, "  brute force: #%d  %.9f°\n", res.Brute.Index, res.Brute.Degrees)
	}
}
