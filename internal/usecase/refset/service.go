package refset

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/spherenn/internal/domain"
	"github.com/kailas-cloud/spherenn/internal/domain/geo"
	domref "github.com/kailas-cloud/spherenn/internal/domain/refset"
	"github.com/kailas-cloud/spherenn/internal/domain/search/result"
	"github.com/kailas-cloud/spherenn/internal/metrics"
	"github.com/kailas-cloud/spherenn/internal/sampling"
	"github.com/kailas-cloud/spherenn/internal/search"
	"github.com/kailas-cloud/spherenn/internal/search/brute"
	"github.com/kailas-cloud/spherenn/internal/search/engine"
	"github.com/kailas-cloud/spherenn/internal/usecase/validation"
)

const (
	defaultMaxPoints      = 1_000_000
	defaultMaxK           = 100
	defaultQueries        = 200
	defaultMaxQueries     = 100_000
	defaultValidationSeed = 1
)

// Config tunes the service. Zero values fall back to defaults.
type Config struct {
	Engine   engine.Name
	Metric   geo.Metric
	LeafSize int
	VPEffort int

	MaxPoints int
	MaxK      int

	Tolerance      float64
	DefaultQueries int
	MaxQueries     int
	Seed           int64
	Workers        int
	CoverageOrder  int
}

func (c *Config) applyDefaults() {
	if c.Engine == "" {
		c.Engine = engine.BallTree
	}
	if c.MaxPoints <= 0 {
		c.MaxPoints = defaultMaxPoints
	}
	if c.MaxK <= 0 {
		c.MaxK = defaultMaxK
	}
	if c.Tolerance == 0 {
		c.Tolerance = validation.DefaultTolerance
	}
	if c.DefaultQueries <= 0 {
		c.DefaultQueries = defaultQueries
	}
	if c.MaxQueries <= 0 {
		c.MaxQueries = defaultMaxQueries
	}
	if c.Seed == 0 {
		c.Seed = defaultValidationSeed
	}
}

// Neighbor is one answer of a nearest query.
type Neighbor struct {
	Index      int
	Coordinate geo.Coordinate
	Distance   float64
}

// NearestResult is the outcome of a nearest query against a named set.
type NearestResult struct {
	Set         string
	Engine      string
	Mode        Mode
	Neighbors   []Neighbor
	Evaluations int
}

// ValidateRequest parameterizes a validation run. Without explicit queries,
// Count uniformly distributed directions are drawn from Seed.
type ValidateRequest struct {
	Queries   []geo.Coordinate
	Count     int
	Seed      int64
	Tolerance *float64
}

type cached struct {
	set    domref.Set
	points []geo.Point
	index  search.Index
}

// Service manages named reference sets and answers queries against them.
// Indexes are built lazily and kept in memory until the set changes.
type Service struct {
	repo    Repository
	reports ReportStore
	cfg     Config
	logger  *zap.Logger

	mu       sync.RWMutex
	indexes  map[string]*cached
	versions map[string]uint64
	builds   singleflight.Group
}

// New creates a reference set service. reports can be nil (reports are then not persisted).
func New(repo Repository, reports ReportStore, cfg Config, logger *zap.Logger) *Service {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		reports:  reports,
		cfg:      cfg,
		logger:   logger,
		indexes:  make(map[string]*cached),
		versions: make(map[string]uint64),
	}
}

// Put validates and stores a set, replacing any previous version.
// Returns true when the set did not exist before.
func (s *Service) Put(
	ctx context.Context, name, description string, coords []geo.Coordinate,
) (domref.Set, bool, error) {
	if len(coords) > s.cfg.MaxPoints {
		return domref.Set{}, false, fmt.Errorf("%w: %d points exceeds limit %d",
			domain.ErrInvalidReferenceSet, len(coords), s.cfg.MaxPoints)
	}
	set, err := domref.New(name, description, coords)
	if err != nil {
		return domref.Set{}, false, fmt.Errorf("validate reference set: %w", err)
	}

	prev, err := s.repo.Get(ctx, name)
	created := false
	switch {
	case err == nil:
		set = set.WithCreatedAt(prev.CreatedAt())
	case errors.Is(err, domain.ErrNotFound):
		created = true
	default:
		return domref.Set{}, false, fmt.Errorf("get reference set: %w", err)
	}

	if err := s.repo.Put(ctx, set); err != nil {
		return domref.Set{}, false, fmt.Errorf("put reference set: %w", err)
	}
	s.invalidate(name)

	s.logger.Info("reference set stored",
		zap.String("set", name),
		zap.Int("points", set.Len()),
		zap.Bool("created", created),
	)
	return set, created, nil
}

// Get retrieves a set by name.
func (s *Service) Get(ctx context.Context, name string) (domref.Set, error) {
	set, err := s.repo.Get(ctx, name)
	if err != nil {
		return domref.Set{}, fmt.Errorf("get reference set: %w", err)
	}
	return set, nil
}

// List returns summaries of all stored sets.
func (s *Service) List(ctx context.Context) ([]domref.Summary, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reference sets: %w", err)
	}
	return out, nil
}

// Delete removes a set and drops its index.
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := s.repo.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete reference set: %w", err)
	}
	s.invalidate(name)
	return nil
}

// Distance returns the angular distance between two directions.
func (s *Service) Distance(a, b geo.Coordinate) (float64, error) {
	if !a.Finite() {
		return 0, domain.NewQueryError("a", "coordinates must be finite")
	}
	if !b.Finite() {
		return 0, domain.NewQueryError("b", "coordinates must be finite")
	}
	return s.cfg.Metric.Distance(a.Point(), b.Point()), nil
}

// Metric returns the configured distance metric.
func (s *Service) Metric() geo.Metric { return s.cfg.Metric }

// Nearest finds the k reference points closest to q in the named set.
func (s *Service) Nearest(
	ctx context.Context, name string, q geo.Coordinate, k int, mode Mode,
) (NearestResult, error) {
	if !q.Finite() {
		return NearestResult{}, domain.NewQueryError("query", "coordinates must be finite")
	}
	if k <= 0 || k > s.cfg.MaxK {
		return NearestResult{}, domain.NewQueryError("k", fmt.Sprintf("must be between 1 and %d", s.cfg.MaxK))
	}
	if mode == "" {
		mode = ModeIndex
	}

	c, err := s.index(ctx, name)
	if err != nil {
		return NearestResult{}, err
	}

	engineName := c.index.Engine()
	if mode == ModeBrute {
		engineName = string(engine.Brute)
	}

	start := time.Now()
	var (
		found []result.Result
		stats search.Stats
	)
	switch mode {
	case ModeBrute:
		found, err = brute.NearestK(q.Point(), c.points, k, s.cfg.Metric)
		stats.Evaluations = len(c.points)
	default:
		found, stats, err = c.index.Search(q.Point(), k)
	}
	metrics.SearchQueryDuration.WithLabelValues(engineName, string(mode)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchQueriesTotal.WithLabelValues(engineName, string(mode), "error").Inc()
		return NearestResult{}, fmt.Errorf("nearest in %s: %w", name, err)
	}
	metrics.SearchQueriesTotal.WithLabelValues(engineName, string(mode), "ok").Inc()
	metrics.SearchDistanceEvaluations.WithLabelValues(engineName).Observe(float64(stats.Evaluations))

	coords := c.set.Coordinates()
	neighbors := make([]Neighbor, len(found))
	for i, r := range found {
		neighbors[i] = Neighbor{Index: r.Index(), Coordinate: coords[r.Index()], Distance: r.Distance()}
	}
	return NearestResult{
		Set:         name,
		Engine:      engineName,
		Mode:        mode,
		Neighbors:   neighbors,
		Evaluations: stats.Evaluations,
	}, nil
}

// Validate cross-checks the set's index against brute force and stores the report.
func (s *Service) Validate(ctx context.Context, name string, req ValidateRequest) (*validation.Report, error) {
	queries, err := s.validationQueries(req)
	if err != nil {
		return nil, err
	}
	tolerance := s.cfg.Tolerance
	if req.Tolerance != nil {
		tolerance = *req.Tolerance
	}

	c, err := s.index(ctx, name)
	if err != nil {
		return nil, err
	}

	rep, err := validation.Run(ctx, validation.Config{
		ReferenceSet:  c.points,
		QueryPoints:   geo.Points(queries),
		Tolerance:     tolerance,
		Index:         c.index,
		Metric:        s.cfg.Metric,
		Workers:       s.cfg.Workers,
		CoverageOrder: s.cfg.CoverageOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", name, err)
	}

	outcome := "pass"
	if !rep.Passed() {
		outcome = "fail"
	}
	metrics.ValidationRunsTotal.WithLabelValues(rep.Engine, outcome).Inc()
	metrics.ValidationMismatchesTotal.WithLabelValues(rep.Engine).Add(float64(len(rep.Mismatches)))

	logFn := s.logger.Info
	if !rep.Passed() {
		logFn = s.logger.Warn
	}
	logFn("validation finished",
		zap.String("set", name),
		zap.String("report_id", rep.ID),
		zap.String("engine", rep.Engine),
		zap.Int("queries", rep.Total),
		zap.Int("mismatches", len(rep.Mismatches)),
		zap.Float64("max_deviation", rep.MaxDeviation),
		zap.Duration("duration", rep.Duration),
	)

	if s.reports != nil {
		if err := s.reports.Save(ctx, rep); err != nil {
			return nil, fmt.Errorf("save report: %w", err)
		}
	}
	return rep, nil
}

// GetReport loads a stored validation report.
func (s *Service) GetReport(ctx context.Context, id string) (*validation.Report, error) {
	if s.reports == nil {
		return nil, domain.ErrNotFound
	}
	rep, err := s.reports.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return rep, nil
}

// CachedIndexes returns the number of indexes resident in memory.
func (s *Service) CachedIndexes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.indexes)
}

func (s *Service) validationQueries(req ValidateRequest) ([]geo.Coordinate, error) {
	if req.Tolerance != nil && !(*req.Tolerance >= 0) {
		return nil, domain.NewQueryError("tolerance", "must be a non-negative number")
	}
	if len(req.Queries) > 0 {
		if len(req.Queries) > s.cfg.MaxQueries {
			return nil, domain.NewQueryError("queries", fmt.Sprintf("at most %d allowed", s.cfg.MaxQueries))
		}
		for i, q := range req.Queries {
			if !q.Finite() {
				return nil, domain.NewQueryError(fmt.Sprintf("queries[%d]", i), "coordinates must be finite")
			}
		}
		return req.Queries, nil
	}

	count := req.Count
	if count == 0 {
		count = s.cfg.DefaultQueries
	}
	if count < 0 || count > s.cfg.MaxQueries {
		return nil, domain.NewQueryError("count", fmt.Sprintf("must be between 1 and %d", s.cfg.MaxQueries))
	}
	seed := req.Seed
	if seed == 0 {
		seed = s.cfg.Seed
	}
	return sampling.Uniform(count, seed), nil
}

// index returns the cached index for name, building it on first use.
func (s *Service) index(ctx context.Context, name string) (*cached, error) {
	s.mu.RLock()
	c, ok := s.indexes[name]
	s.mu.RUnlock()
	if ok {
		return c, nil
	}

	v, err, _ := s.builds.Do(name, func() (any, error) {
		s.mu.RLock()
		version := s.versions[name]
		s.mu.RUnlock()

		// joined callers must not fail when the first one is cancelled
		set, err := s.repo.Get(context.WithoutCancel(ctx), name)
		if err != nil {
			return nil, fmt.Errorf("get reference set: %w", err)
		}
		if set.Len() == 0 {
			return nil, fmt.Errorf("%s: %w", name, domain.ErrEmptyReferenceSet)
		}

		points := set.Points()
		start := time.Now()
		idx, err := engine.Build(points, engine.Options{
			Engine:   s.cfg.Engine,
			Metric:   s.cfg.Metric,
			LeafSize: s.cfg.LeafSize,
			VPEffort: s.cfg.VPEffort,
		})
		if err != nil {
			return nil, fmt.Errorf("build index for %s: %w", name, err)
		}
		elapsed := time.Since(start)
		metrics.IndexBuildDuration.WithLabelValues(idx.Engine()).Observe(elapsed.Seconds())
		metrics.IndexedPoints.WithLabelValues(name).Set(float64(len(points)))
		s.logger.Info("index built",
			zap.String("set", name),
			zap.String("engine", idx.Engine()),
			zap.Int("points", len(points)),
			zap.Duration("duration", elapsed),
		)

		c := &cached{set: set, points: points, index: idx}
		s.mu.Lock()
		// the set changed while building: answer this caller, cache nothing
		if s.versions[name] == version {
			s.indexes[name] = c
		}
		s.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cached), nil
}

func (s *Service) invalidate(name string) {
	s.builds.Forget(name)
	s.mu.Lock()
	_, ok := s.indexes[name]
	delete(s.indexes, name)
	s.versions[name]++
	s.mu.Unlock()
	if ok {
		metrics.IndexedPoints.DeleteLabelValues(name)
	}
}
