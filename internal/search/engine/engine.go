// Package engine builds a search.Index by engine name.
package engine

import (
	"fmt"

	"github.com/kailas-cloud/spherenn/internal/domain"
	"github.com/kailas-cloud/spherenn/internal/domain/geo"
	"github.com/kailas-cloud/spherenn/internal/search"
	"github.com/kailas-cloud/spherenn/internal/search/balltree"
	"github.com/kailas-cloud/spherenn/internal/search/brute"
	"github.com/kailas-cloud/spherenn/internal/search/vptree"
)

// Name identifies an index implementation.
type Name string

const (
	// BallTree is the default metric ball tree.
	BallTree Name = "balltree"
	// VPTree is gonum's vantage-point tree.
	VPTree Name = "vptree"
	// Brute is the exhaustive scan.
	Brute Name = "brute"
)

// IsValid checks if the engine is supported.
func (n Name) IsValid() bool {
	return n == BallTree || n == VPTree || n == Brute
}

// Parse resolves an engine name. Empty selects BallTree.
func Parse(s string) (Name, error) {
	if s == "" {
		return BallTree, nil
	}
	n := Name(s)
	if !n.IsValid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownEngine, s)
	}
	return n, nil
}

// Options configures Build.
type Options struct {
	Engine   Name
	Metric   geo.Metric
	LeafSize int
	VPEffort int
}

// Build constructs the index named by opts.Engine over ref.
func Build(ref []geo.Point, opts Options) (search.Index, error) {
	name := opts.Engine
	if name == "" {
		name = BallTree
	}
	var (
		idx search.Index
		err error
	)
	switch name {
	case BallTree:
		idx, err = balltree.Build(ref, balltree.WithLeafSize(opts.LeafSize), balltree.WithMetric(opts.Metric))
	case VPTree:
		idx, err = vptree.Build(ref, opts.Metric, opts.VPEffort)
	case Brute:
		idx, err = brute.New(ref, opts.Metric)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEngine, name)
	}
	if err != nil {
		return nil, err
	}
	return idx, nil
}
