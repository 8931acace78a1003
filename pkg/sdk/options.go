package spherenn

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures index construction, searches and validation.
type Option interface {
	apply(*config)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

type config struct {
	engine   Engine
	metric   Metric
	leafSize int
	vpEffort int

	tolerance     float64
	workers       int
	coverageOrder int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

func newConfig(opts []Option) *config {
	c := &config{engine: EngineBallTree, metric: GreatCircle, tolerance: DefaultTolerance}
	for _, o := range opts {
		o.apply(c)
	}
	return c
}

// WithEngine selects the index structure. Default: EngineBallTree.
func WithEngine(e Engine) Option {
	return optionFunc(func(c *config) {
		c.engine = e
	})
}

// WithLeafSize sets the ball tree leaf capacity. Default: 16.
func WithLeafSize(n int) Option {
	return optionFunc(func(c *config) {
		c.leafSize = n
	})
}

// WithVPEffort sets how many candidates the vantage point tree examines per split.
func WithVPEffort(n int) Option {
	return optionFunc(func(c *config) {
		c.vpEffort = n
	})
}

// WithMetric selects the distance formula. Default: GreatCircle.
func WithMetric(m Metric) Option {
	return optionFunc(func(c *config) {
		c.metric = m
	})
}

// WithTolerance sets the allowed distance deviation for Validate, in radians.
func WithTolerance(tol float64) Option {
	return optionFunc(func(c *config) {
		c.tolerance = tol
	})
}

// WithWorkers bounds Validate parallelism. Default: GOMAXPROCS.
func WithWorkers(n int) Option {
	return optionFunc(func(c *config) {
		c.workers = n
	})
}

// WithCoverageOrder sets the HEALPix order of the validation coverage statistic.
// Negative disables it.
func WithCoverageOrder(order int) Option {
	return optionFunc(func(c *config) {
		c.coverageOrder = order
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *config) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts, durations and
// distance evaluations) on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *config) {
		c.metricsReg = reg
	})
}
