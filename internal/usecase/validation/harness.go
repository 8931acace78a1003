// Package validation cross-checks an index against the brute-force scan.
package validation

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/spherenn/internal/domain"
	"github.com/kailas-cloud/spherenn/internal/domain/geo"
	"github.com/kailas-cloud/spherenn/internal/search"
	"github.com/kailas-cloud/spherenn/internal/search/brute"
	"github.com/kailas-cloud/spherenn/internal/search/engine"
)

// DefaultTolerance is the accepted distance deviation in radians.
const DefaultTolerance = 1e-9

// Config describes one validation run.
type Config struct {
	ReferenceSet []geo.Point
	QueryPoints  []geo.Point
	// Tolerance is the maximum |d_index - d_brute| for a match. Must be >= 0.
	Tolerance float64

	// Index is used when set; otherwise one is built from ReferenceSet.
	Index    search.Index
	Engine   engine.Name
	Metric   geo.Metric
	LeafSize int
	// Workers bounds query fan-out. <= 0 selects GOMAXPROCS.
	Workers int
	// CoverageOrder is the HEALPix order for the coverage statistic.
	// 0 selects DefaultCoverageOrder, negative disables it.
	CoverageOrder int
}

// Mismatch describes a query whose answers disagree beyond tolerance.
type Mismatch struct {
	QueryIndex    int            `json:"query_index"`
	Query         geo.Coordinate `json:"query"`
	BruteIndex    int            `json:"brute_index"`
	IndexIndex    int            `json:"index_index"`
	BruteDistance float64        `json:"brute_distance"`
	IndexDistance float64        `json:"index_distance"`
}

// Deviation returns |IndexDistance - BruteDistance|.
func (m Mismatch) Deviation() float64 {
	return math.Abs(m.IndexDistance - m.BruteDistance)
}

// Report summarizes a validation run.
type Report struct {
	ID            string        `json:"id"`
	Engine        string        `json:"engine"`
	Metric        string        `json:"metric"`
	ReferenceSize int           `json:"reference_size"`
	Total         int           `json:"total"`
	Matches       int           `json:"matches"`
	ExactMatches  int           `json:"exact_matches"`
	Mismatches    []Mismatch    `json:"mismatches"`
	MaxDeviation  float64       `json:"max_deviation"`
	Tolerance     float64       `json:"tolerance"`
	Evaluations   int           `json:"index_evaluations"`
	Coverage      *Coverage     `json:"coverage,omitempty"`
	Duration      time.Duration `json:"duration_ns"`
}

// Passed reports whether every query matched.
func (r *Report) Passed() bool { return len(r.Mismatches) == 0 }

// MeanEvaluations returns the average number of index distance evaluations per query.
func (r *Report) MeanEvaluations() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Evaluations) / float64(r.Total)
}

type outcome struct {
	bruteIdx, indexIdx   int
	bruteDist, indexDist float64
	evaluations          int
}

// Run executes both searchers for every query and compares their answers.
// It performs no IO.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	if len(cfg.ReferenceSet) == 0 {
		return nil, domain.ErrEmptyReferenceSet
	}
	if math.IsNaN(cfg.Tolerance) || cfg.Tolerance < 0 {
		return nil, domain.NewQueryError("tolerance", "must be a non-negative number")
	}
	start := time.Now()

	idx := cfg.Index
	if idx == nil {
		var err error
		idx, err = engine.Build(cfg.ReferenceSet, engine.Options{
			Engine:   cfg.Engine,
			Metric:   cfg.Metric,
			LeafSize: cfg.LeafSize,
		})
		if err != nil {
			return nil, fmt.Errorf("build index: %w", err)
		}
	} else if idx.Len() != len(cfg.ReferenceSet) {
		return nil, fmt.Errorf("index holds %d points, reference set %d: %w",
			idx.Len(), len(cfg.ReferenceSet), domain.ErrInvalidReferenceSet)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	outcomes := make([]outcome, len(cfg.QueryPoints))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, q := range cfg.QueryPoints {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			want, err := brute.Nearest(q, cfg.ReferenceSet, cfg.Metric)
			if err != nil {
				return fmt.Errorf("brute force query %d: %w", i, err)
			}
			got, stats, err := idx.Search(q, 1)
			if err != nil {
				return fmt.Errorf("index query %d: %w", i, err)
			}
			if len(got) == 0 {
				return fmt.Errorf("index query %d: %w", i, domain.ErrInvalidQuery)
			}
			outcomes[i] = outcome{
				bruteIdx: want.Index(), bruteDist: want.Distance(),
				indexIdx: got[0].Index(), indexDist: got[0].Distance(),
				evaluations: stats.Evaluations,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{
		ID:            ulid.Make().String(),
		Engine:        idx.Engine(),
		Metric:        cfg.Metric.String(),
		ReferenceSize: len(cfg.ReferenceSet),
		Total:         len(cfg.QueryPoints),
		Tolerance:     cfg.Tolerance,
		Mismatches:    []Mismatch{},
	}
	for i, o := range outcomes {
		rep.Evaluations += o.evaluations
		dev := math.Abs(o.indexDist - o.bruteDist)
		rep.MaxDeviation = math.Max(rep.MaxDeviation, dev)
		if o.indexIdx == o.bruteIdx {
			rep.ExactMatches++
			rep.Matches++
			continue
		}
		if dev <= cfg.Tolerance {
			rep.Matches++
			continue
		}
		az, el := cfg.QueryPoints[i].Degrees()
		rep.Mismatches = append(rep.Mismatches, Mismatch{
			QueryIndex:    i,
			Query:         geo.Coordinate{AzimuthDeg: az, ElevationDeg: el},
			BruteIndex:    o.bruteIdx,
			IndexIndex:    o.indexIdx,
			BruteDistance: o.bruteDist,
			IndexDistance: o.indexDist,
		})
	}

	order := cfg.CoverageOrder
	if order == 0 {
		order = DefaultCoverageOrder
	}
	if order > 0 {
		c := coverage(cfg.QueryPoints, order)
		rep.Coverage = &c
	}
	rep.Duration = time.Since(start)
	return rep, nil
}
