package validation

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/kailas-cloud/spherenn/internal/domain"
	"github.com/kailas-cloud/spherenn/internal/domain/geo"
	"github.com/kailas-cloud/spherenn/internal/domain/search/result"
	"github.com/kailas-cloud/spherenn/internal/sampling"
	"github.com/kailas-cloud/spherenn/internal/search"
	"github.com/kailas-cloud/spherenn/internal/search/engine"
)

// fixedIndex answers every query with the same hit.
type fixedIndex struct {
	hit   result.Result
	err   error
	empty bool
	size  int
}

func (f *fixedIndex) Search(_ geo.Point, _ int) ([]result.Result, search.Stats, error) {
	if f.err != nil {
		return nil, search.Stats{}, f.err
	}
	if f.empty {
		return []result.Result{}, search.Stats{}, nil
	}
	return []result.Result{f.hit}, search.Stats{Evaluations: 1}, nil
}

func (f *fixedIndex) Nearest(geo.Point) (result.Result, error) { return f.hit, f.err }

func (f *fixedIndex) Len() int {
	if f.size > 0 {
		return f.size
	}
	return 5
}

func (f *fixedIndex) Engine() string                           { return "fixed" }

func scenario() []geo.Point { return geo.Points(geo.EquatorAndPole()) }

func TestRun_Scenario(t *testing.T) {
	rep, err := Run(context.Background(), Config{
		ReferenceSet: scenario(),
		QueryPoints:  []geo.Point{geo.NewPoint(0, 0), geo.NewPoint(45, 0), geo.NewPoint(0, 89)},
		Tolerance:    DefaultTolerance,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !rep.Passed() || rep.Total != 3 || rep.Matches != 3 || rep.ExactMatches != 3 {
		t.Fatalf("unexpected report %+v", rep)
	}
	if rep.Engine != "balltree" || rep.Metric != "great_circle" || rep.ReferenceSize != 5 {
		t.Fatalf("unexpected metadata %+v", rep)
	}
	if len(rep.ID) != 26 {
		t.Fatalf("want ULID id, got %q", rep.ID)
	}
}

func TestRun_RandomQueriesAllEngines(t *testing.T) {
	ref := geo.Points(sampling.Uniform(1500, 1))
	queries := geo.Points(sampling.Uniform(400, 2))
	for _, name := range []engine.Name{engine.BallTree, engine.VPTree, engine.Brute} {
		t.Run(string(name), func(t *testing.T) {
			rep, err := Run(context.Background(), Config{
				ReferenceSet: ref,
				QueryPoints:  queries,
				Tolerance:    DefaultTolerance,
				Engine:       name,
				Workers:      4,
			})
			if err != nil {
				t.Fatal(err)
			}
			if !rep.Passed() {
				t.Fatalf("%d mismatches, first: %+v", len(rep.Mismatches), rep.Mismatches[0])
			}
			if rep.MaxDeviation > DefaultTolerance {
				t.Fatalf("max deviation %v", rep.MaxDeviation)
			}
			if rep.MeanEvaluations() <= 0 {
				t.Fatal("expected evaluation counts")
			}
		})
	}
}

func TestRun_EquidistantAlternativeMatches(t *testing.T) {
	// index 1 lies at the same distance π/4 as index 0
	q := geo.NewPoint(45, 0)
	rep, err := Run(context.Background(), Config{
		ReferenceSet: scenario(),
		QueryPoints:  []geo.Point{q},
		Tolerance:    DefaultTolerance,
		Index:        &fixedIndex{hit: result.New(1, geo.Distance(q, geo.NewPoint(90, 0)))},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !rep.Passed() || rep.Matches != 1 || rep.ExactMatches != 0 {
		t.Fatalf("equidistant answer must match: %+v", rep)
	}
	if rep.Engine != "fixed" {
		t.Fatalf("engine = %s", rep.Engine)
	}
}

func TestRun_ReportsMismatch(t *testing.T) {
	rep, err := Run(context.Background(), Config{
		ReferenceSet: scenario(),
		QueryPoints:  []geo.Point{geo.NewPoint(0, 89), geo.NewPoint(2, 1)},
		Tolerance:    DefaultTolerance,
		Index:        &fixedIndex{hit: result.New(2, math.Pi/2)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Passed() || len(rep.Mismatches) != 2 {
		t.Fatalf("want 2 mismatches, got %+v", rep.Mismatches)
	}
	m := rep.Mismatches[0]
	if m.QueryIndex != 0 || m.BruteIndex != 4 || m.IndexIndex != 2 {
		t.Fatalf("unexpected diagnostic %+v", m)
	}
	if math.Abs(m.Query.ElevationDeg-89) > 1e-9 {
		t.Fatalf("query must be reported in degrees, got %+v", m.Query)
	}
	if math.Abs(m.Deviation()-(math.Pi/2-math.Pi/180)) > 1e-9 {
		t.Fatalf("deviation = %v", m.Deviation())
	}
	if rep.MaxDeviation < m.Deviation() {
		t.Fatalf("max deviation %v below mismatch deviation %v", rep.MaxDeviation, m.Deviation())
	}
}

func TestRun_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := Run(ctx, Config{QueryPoints: scenario()}); !errors.Is(err, domain.ErrEmptyReferenceSet) {
		t.Errorf("want ErrEmptyReferenceSet, got %v", err)
	}
	if _, err := Run(ctx, Config{ReferenceSet: scenario(), Tolerance: -1}); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("want ErrInvalidQuery, got %v", err)
	}
	if _, err := Run(ctx, Config{ReferenceSet: scenario(), Engine: "annoy"}); !errors.Is(err, domain.ErrUnknownEngine) {
		t.Errorf("want ErrUnknownEngine, got %v", err)
	}
	boom := errors.New("boom")
	_, err := Run(ctx, Config{
		ReferenceSet: scenario(),
		QueryPoints:  scenario(),
		Index:        &fixedIndex{err: boom},
	})
	if !errors.Is(err, boom) {
		t.Errorf("want index error, got %v", err)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, Config{
		ReferenceSet: scenario(),
		QueryPoints:  geo.Points(sampling.Uniform(100, 3)),
		Workers:      1,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestRun_NoQueries(t *testing.T) {
	rep, err := Run(context.Background(), Config{ReferenceSet: scenario(), CoverageOrder: -1})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Total != 0 || !rep.Passed() || rep.Coverage != nil || rep.MeanEvaluations() != 0 {
		t.Fatalf("unexpected report %+v", rep)
	}
}

func TestCoverage(t *testing.T) {
	c := coverage(geo.Points(sampling.Uniform(20000, 4)), 1)
	if c.Total != 48 {
		t.Fatalf("order 1 has 48 cells, got %d", c.Total)
	}
	if c.Cells != 48 || c.Fraction() != 1 {
		t.Fatalf("20000 uniform samples must touch every cell, got %d", c.Cells)
	}

	single := coverage([]geo.Point{geo.NewPoint(10, 10), geo.NewPoint(10, 10)}, 2)
	if single.Cells != 1 {
		t.Fatalf("duplicate points must share a cell, got %d", single.Cells)
	}
	if (Coverage{}).Fraction() != 0 {
		t.Fatal("empty coverage fraction must be 0")
	}
}

func TestRun_EmptyIndexAnswer(t *testing.T) {
	_, err := Run(context.Background(), Config{
		ReferenceSet: scenario(),
		QueryPoints:  []geo.Point{geo.NewPoint(0, 0)},
		Index:        &fixedIndex{empty: true},
	})
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("want ErrInvalidQuery, got %v", err)
	}
}

func TestRun_NonFiniteQueryAllEngines(t *testing.T) {
	ref := geo.Points(sampling.Uniform(200, 5))
	for _, name := range []engine.Name{engine.BallTree, engine.VPTree, engine.Brute} {
		t.Run(string(name), func(t *testing.T) {
			_, err := Run(context.Background(), Config{
				ReferenceSet: ref,
				QueryPoints:  []geo.Point{geo.NewPoint(math.NaN(), 0)},
				Engine:       name,
				LeafSize:     4,
			})
			// NaN must never crash the run; the outcome depends on the engine
			if err != nil && !errors.Is(err, domain.ErrInvalidQuery) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestRun_IndexSizeMismatch(t *testing.T) {
	_, err := Run(context.Background(), Config{
		ReferenceSet: scenario(),
		QueryPoints:  scenario(),
		Index:        &fixedIndex{size: 7},
	})
	if !errors.Is(err, domain.ErrInvalidReferenceSet) {
		t.Fatalf("want ErrInvalidReferenceSet, got %v", err)
	}
}
