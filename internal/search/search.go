// Package search defines the nearest-neighbour contract shared by the
// brute-force scan and the tree indexes.
package search

import (
	"github.com/kailas-cloud/spherenn/internal/domain/geo"
	"github.com/kailas-cloud/spherenn/internal/domain/search/result"
)

// Stats describes the work done by a single query.
type Stats struct {
	// Evaluations is the number of metric calls.
	Evaluations int
}

// Index answers nearest-neighbour queries over an immutable reference set.
// Implementations are safe for concurrent use.
type Index interface {
	// Search returns up to k hits ordered by (distance, index).
	Search(q geo.Point, k int) ([]result.Result, Stats, error)
	// Nearest returns the single closest reference point.
	Nearest(q geo.Point) (result.Result, error)
	// Len returns the number of indexed points.
	Len() int
	// Engine names the implementation (balltree, vptree, brute).
	Engine() string
}
