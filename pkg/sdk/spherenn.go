package spherenn

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/spherenn/internal/domain"
	"github.com/kailas-cloud/spherenn/internal/domain/geo"
	"github.com/kailas-cloud/spherenn/internal/domain/search/result"
	"github.com/kailas-cloud/spherenn/internal/sampling"
	"github.com/kailas-cloud/spherenn/internal/search"
	"github.com/kailas-cloud/spherenn/internal/search/brute"
	"github.com/kailas-cloud/spherenn/internal/search/engine"
	"github.com/kailas-cloud/spherenn/internal/usecase/validation"
)

// Point is a direction in radians. Build one with NewPoint.
type Point = geo.Point

// Coordinate is a raw azimuth/elevation pair in degrees.
type Coordinate = geo.Coordinate

// Metric selects the distance formula.
type Metric = geo.Metric

// Supported metrics. All agree to within floating-point rounding.
const (
	GreatCircle = geo.GreatCircle
	Haversine   = geo.Haversine
	Chord       = geo.Chord
)

// Engine names an index structure.
type Engine = engine.Name

// Supported engines.
const (
	EngineBallTree = engine.BallTree
	EngineVPTree   = engine.VPTree
	EngineBrute    = engine.Brute
)

// DefaultTolerance is the deviation Validate accepts between equidistant answers.
const DefaultTolerance = validation.DefaultTolerance

// Report is the outcome of Validate.
type Report = validation.Report

// Mismatch describes one query where the index and brute force disagree.
type Mismatch = validation.Mismatch

// Neighbor is a reference point found by a search.
type Neighbor struct {
	// Index is the position of the point in the reference slice.
	Index int
	// Distance is the angle to the query in radians.
	Distance float64
}

func toNeighbor(r result.Result) Neighbor {
	return Neighbor{Index: r.Index(), Distance: r.Distance()}
}

// NewPoint converts degrees to a Point. Out-of-range values are not rejected.
func NewPoint(azimuthDeg, elevationDeg float64) Point {
	return geo.NewPoint(azimuthDeg, elevationDeg)
}

// Distance returns the great-circle angle between a and b, in radians.
func Distance(a, b Point) float64 {
	return geo.Distance(a, b)
}

// RandomPoints draws n directions uniformly over the sphere. The same seed
// always yields the same points.
func RandomPoints(n int, seed int64) []Point {
	return geo.Points(sampling.Uniform(n, seed))
}

// Index answers nearest-neighbour queries over a fixed reference set.
// It is safe for concurrent use.
type Index struct {
	inner search.Index
	obs   *observer
}

// BuildIndex indexes ref. The slice is copied.
func BuildIndex(ref []Point, opts ...Option) (*Index, error) {
	cfg := newConfig(opts)
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	inner, err := engine.Build(append([]Point(nil), ref...), engine.Options{
		Engine:   cfg.engine,
		Metric:   cfg.metric,
		LeafSize: cfg.leafSize,
		VPEffort: cfg.vpEffort,
	})
	obs.observe("index.build", start, err)
	if err != nil {
		return nil, err
	}
	return &Index{inner: inner, obs: obs}, nil
}

// Nearest returns the reference point closest to q.
func (i *Index) Nearest(q Point) (Neighbor, error) {
	found, err := i.NearestK(q, 1)
	if err != nil {
		return Neighbor{}, err
	}
	if len(found) == 0 {
		return Neighbor{}, ErrInvalidQuery
	}
	return found[0], nil
}

// NearestK returns up to k reference points ordered by distance, then index.
// A query with a NaN or infinite angle fails with ErrInvalidQuery.
func (i *Index) NearestK(q Point, k int) ([]Neighbor, error) {
	if i == nil || i.inner == nil {
		return nil, ErrIndexNotBuilt
	}
	if !q.Finite() {
		return nil, domain.NewQueryError("query", "coordinates must be finite")
	}
	start := time.Now()
	found, stats, err := i.inner.Search(q, k)
	i.obs.observe("index.search", start, err)
	if err != nil {
		return nil, err
	}
	i.obs.evaluated(i.inner.Engine(), stats.Evaluations)

	out := make([]Neighbor, len(found))
	for j, r := range found {
		out[j] = toNeighbor(r)
	}
	return out, nil
}

// Len returns the number of indexed points.
func (i *Index) Len() int {
	if i == nil || i.inner == nil {
		return 0
	}
	return i.inner.Len()
}

// Engine returns the name of the underlying index structure.
func (i *Index) Engine() Engine {
	if i == nil || i.inner == nil {
		return ""
	}
	return Engine(i.inner.Engine())
}

// BruteForceNearest scans ref for the point closest to q. Ties go to the lowest index.
func BruteForceNearest(q Point, ref []Point, opts ...Option) (Neighbor, error) {
	if !q.Finite() {
		return Neighbor{}, domain.NewQueryError("query", "coordinates must be finite")
	}
	cfg := newConfig(opts)
	r, err := brute.Nearest(q, ref, cfg.metric)
	if err != nil {
		return Neighbor{}, err
	}
	return toNeighbor(r), nil
}

// Validate runs every query through brute force and the configured index and
// reports where they disagree by more than the tolerance.
func Validate(ctx context.Context, ref, queries []Point, opts ...Option) (*Report, error) {
	for i, q := range queries {
		if !q.Finite() {
			return nil, domain.NewQueryError(fmt.Sprintf("queries[%d]", i), "coordinates must be finite")
		}
	}
	cfg := newConfig(opts)
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rep, err := validation.Run(ctx, validation.Config{
		ReferenceSet:  ref,
		QueryPoints:   queries,
		Tolerance:     cfg.tolerance,
		Engine:        cfg.engine,
		Metric:        cfg.metric,
		LeafSize:      cfg.leafSize,
		Workers:       cfg.workers,
		CoverageOrder: cfg.coverageOrder,
	})
	obs.observe("validate", start, err)
	if err != nil {
		return nil, err
	}
	if !rep.Passed() && obs.logger != nil {
		obs.logger.Warn("validation found mismatches",
			"report_id", rep.ID,
			"engine", rep.Engine,
			"mismatches", len(rep.Mismatches),
			"max_deviation", rep.MaxDeviation,
		)
	}
	return rep, nil
}
