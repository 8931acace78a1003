package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/spherenn/internal/domain/geo"
	"github.com/kailas-cloud/spherenn/internal/sampling"
	"github.com/kailas-cloud/spherenn/internal/usecase/validation"
)

// errValidationFailed makes the process exit non-zero when answers disagree.
var errValidationFailed = errors.New("validation failed")

func newValidateCmd(opts *globalOptions) *cobra.Command {
	var (
		ref       referenceFlags
		idx       indexFlags
		queries   string
		count     int
		seed      int64
		tolerance float64
		workers   int
		order     int
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Cross-check an index against brute force",
		Long: `Run every query through brute force and the index and report disagreements.

Queries come from a YAML file (same layout as reference files) or are drawn
uniformly over the sphere. The command exits non-zero when any answer differs
by more than the tolerance.

Example:
  spherectl validate --scenario equator-pole
  spherectl validate --ref stars.yaml --count 10000 --seed 7 --engine vptree
  spherectl validate --ref stars.yaml --queries probes.yaml --tolerance 0 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := opts.parseMetric()
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

			var qs []geo.Coordinate
			if queries != "" {
				rf, err := readReferenceFile(queries)
				if err != nil {
					return err
				}
				qs = rf.Points
			} else {
				qs = sampling.Uniform(count, seed)
			}

			log := opts.logger()
			defer func() { _ = log.Sync() }()

			rep, err := validation.Run(cmd.Context(), validation.Config{
				ReferenceSet:  set.Points(),
				QueryPoints:   geo.Points(qs),
				Tolerance:     tolerance,
				Engine:        eopts.Engine,
				Metric:        m,
				LeafSize:      eopts.LeafSize,
				Workers:       workers,
				CoverageOrder: order,
			})
			if err != nil {
				return err
			}
			log.Debug("validation finished",
				zap.String("report_id", rep.ID),
				zap.Int("queries", rep.Total),
				zap.Duration("duration", rep.Duration),
			)

			if opts.json {
				if err := outputAsJSON(cmd, rep); err != nil {
					return err
				}
			} else {
				outputReportHuman(cmd, set.Name(), rep)
			}
			if !rep.Passed() {
				return fmt.Errorf("%w: %d of %d queries disagree", errValidationFailed, len(rep.Mismatches), rep.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ref.file, "ref", "", "YAML file with the reference set")
	cmd.Flags().StringVar(&ref.scenario, "scenario", "", "Built-in reference set: "+scenarioEquatorPole)
	cmd.Flags().StringVar(&queries, "queries", "", "YAML file with query points (default: random)")
	cmd.Flags().IntVar(&count, "count", 200, "Number of random queries")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Seed for random queries")
	cmd.Flags().Float64Var(&tolerance, "tolerance", validation.DefaultTolerance, "Allowed distance deviation in radians")
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel queries (default GOMAXPROCS)")
	cmd.Flags().IntVar(&order, "coverage-order", validation.DefaultCoverageOrder, "HEALPix order for the coverage statistic, negative disables")
	idx.register(cmd)
	return cmd
}

func outputReportHuman(cmd *cobra.Command, set string, rep *validation.Report) {
	status := "PASS"
	if !rep.Passed() {
		status = "FAIL"
	}
	outputText(cmd, "%s  %s  %s over %s (%d points, metric %s)\n",
		status, rep.ID, rep.Engine, set, rep.ReferenceSize, rep.Metric)
	outputText(cmd, "  queries:       %d\n", rep.Total)
	outputText(cmd, "  matches:       %d (%d exact)\n", rep.Matches, rep.ExactMatches)
	outputText(cmd, "  mismatches:    %d\n", len(rep.Mismatches))
	outputText(cmd, "  max deviation: %.3e rad (tolerance %.1e)\n", rep.MaxDeviation, rep.Tolerance)
	outputText(cmd, "  evaluations:   %.1f per query\n", rep.MeanEvaluations())
	if rep.Coverage != nil {
		outputText(cmd, "  coverage:      %d/%d cells at order %d (%.1f%%)\n",
			rep.Coverage.Cells, rep.Coverage.Total, rep.Coverage.Order, 100*rep.Coverage.Fraction())
	}
	outputText(cmd, "  duration:      %s\n", rep.Duration)
	for _, mm := range rep.Mismatches {
		outputText(cmd, "  query #%d (%g, %g): brute #%d %.12f, index #%d %.12f\n",
			mm.QueryIndex, mm.Query.AzimuthDeg, mm.Query.ElevationDeg,
			mm.BruteIndex, mm.BruteDistance, mm.IndexIndex, mm.IndexDistance)
	}
}
