// Package brute implements the exhaustive nearest-neighbour scan used as the
// correctness reference for the tree indexes.
package brute

import (
	"iter"

	"github.com/kailas-cloud/spherenn/internal/domain"
	"github.com/kailas-cloud/spherenn/internal/domain/geo"
	"github.com/kailas-cloud/spherenn/internal/domain/search/result"
	"github.com/kailas-cloud/spherenn/internal/search"
)

// Distances yields (index, distance) for every reference point in order.
// The sequence is lazy and restartable; each iteration recomputes distances.
func Distances(q geo.Point, ref []geo.Point, m geo.Metric) iter.Seq2[int, float64] {
	return func(yield func(int, float64) bool) {
		for i, p := range ref {
			if !yield(i, m.Distance(q, p)) {
				return
			}
		}
	}
}

// Nearest returns the closest reference point. On exact ties the lowest index wins.
func Nearest(q geo.Point, ref []geo.Point, m geo.Metric) (result.Result, error) {
	if len(ref) == 0 {
		return result.Result{}, domain.ErrEmptyReferenceSet
	}
	best, bestDist := -1, 0.0
	for i, d := range Distances(q, ref, m) {
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return result.New(best, bestDist), nil
}

// NearestK returns the k closest reference points ordered by (distance, index).
// k larger than the reference set is clamped.
func NearestK(q geo.Point, ref []geo.Point, k int, m geo.Metric) ([]result.Result, error) {
	if len(ref) == 0 {
		return nil, domain.ErrEmptyReferenceSet
	}
	if k <= 0 {
		return nil, domain.NewQueryError("k", "must be positive")
	}
	k = min(k, len(ref))
	c := search.NewCollector(k)
	for i, d := range Distances(q, ref, m) {
		c.Offer(result.New(i, d))
	}
	return c.Sorted(), nil
}

// Index adapts the scan to search.Index.
type Index struct {
	points []geo.Point
	metric geo.Metric
}

var _ search.Index = (*Index)(nil)

// New returns a brute-force index over a copy of ref.
func New(ref []geo.Point, m geo.Metric) (*Index, error) {
	if len(ref) == 0 {
		return nil, domain.ErrEmptyReferenceSet
	}
	return &Index{points: append([]geo.Point(nil), ref...), metric: m}, nil
}

// Search implements search.Index.
func (b *Index) Search(q geo.Point, k int) ([]result.Result, search.Stats, error) {
	if b == nil || len(b.points) == 0 {
		return nil, search.Stats{}, domain.ErrIndexNotBuilt
	}
	rs, err := NearestK(q, b.points, k, b.metric)
	if err != nil {
		return nil, search.Stats{}, err
	}
	return rs, search.Stats{Evaluations: len(b.points)}, nil
}

// Nearest implements search.Index.
func (b *Index) Nearest(q geo.Point) (result.Result, error) {
	if b == nil || len(b.points) == 0 {
		return result.Result{}, domain.ErrIndexNotBuilt
	}
	return Nearest(q, b.points, b.metric)
}

// Len returns the number of reference points.
func (b *Index) Len() int {
	if b == nil {
		return 0
	}
	return len(b.points)
}

// Engine returns "brute".
func (b *Index) Engine() string { return "brute" }
