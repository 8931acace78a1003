package balltree

import "github.com/kailas-cloud/spherenn/internal/domain/geo"

const (
	// DefaultLeafSize is the bucket size below which nodes are not split.
	DefaultLeafSize = 16
	// DefaultPruneSlack absorbs rounding error in the triangle-inequality bound (radians).
	DefaultPruneSlack = 1e-7
)

// Option configures Build.
type Option func(*Config)

// Config holds build and query parameters of a ball tree.
type Config struct {
	LeafSize   int
	Metric     geo.Metric
	PruneSlack float64
}

// WithLeafSize sets the maximum number of points stored in a leaf.
func WithLeafSize(n int) Option {
	return func(cfg *Config) {
		cfg.LeafSize = n
	}
}

// WithMetric selects the distance formula (default GreatCircle).
func WithMetric(m geo.Metric) Option {
	return func(cfg *Config) {
		cfg.Metric = m
	}
}

// WithPruneSlack sets the tolerance added to the current best distance before
// a subtree is discarded.
func WithPruneSlack(slack float64) Option {
	return func(cfg *Config) {
		cfg.PruneSlack = slack
	}
}

func newConfig(opts ...Option) Config {
	cfg := Config{
		LeafSize:   DefaultLeafSize,
		Metric:     geo.GreatCircle,
		PruneSlack: DefaultPruneSlack,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.LeafSize <= 0 {
		cfg.LeafSize = DefaultLeafSize
	}
	if cfg.PruneSlack < 0 {
		cfg.PruneSlack = 0
	}
	return cfg
}
