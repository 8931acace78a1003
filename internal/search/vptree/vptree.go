// Package vptree adapts gonum's vantage-point tree to spherical points.
package vptree

import (
	"fmt"
	"sort"

	gvp "gonum.org/v1/gonum/spatial/vptree"

	"github.com/kailas-cloud/spherenn/internal/domain"
	"github.com/kailas-cloud/spherenn/internal/domain/geo"
	"github.com/kailas-cloud/spherenn/internal/domain/search/result"
	"github.com/kailas-cloud/spherenn/internal/search"
)

// DefaultEffort is the number of vantage point candidates tried per node.
const DefaultEffort = 2

// item is a reference point that remembers its position.
type item struct {
	index  int
	point  geo.Point
	metric geo.Metric
}

// Distance implements gvp.Comparable.
func (p item) Distance(c gvp.Comparable) float64 {
	return p.metric.Distance(p.point, c.(item).point)
}

// query is the probe point; it counts metric evaluations.
type query struct {
	point  geo.Point
	metric geo.Metric
	evals  *int
}

// Distance implements gvp.Comparable.
func (q query) Distance(c gvp.Comparable) float64 {
	*q.evals++
	return q.metric.Distance(q.point, c.(item).point)
}

// Index is a vantage-point tree over a reference set.
// Exactly equidistant neighbours may be returned in any order.
type Index struct {
	tree   *gvp.Tree
	n      int
	metric geo.Metric
}

var _ search.Index = (*Index)(nil)

// Build constructs the tree. effort <= 0 selects DefaultEffort.
func Build(ref []geo.Point, m geo.Metric, effort int) (*Index, error) {
	if len(ref) == 0 {
		return nil, domain.ErrEmptyReferenceSet
	}
	if effort <= 0 {
		effort = DefaultEffort
	}
	items := make([]gvp.Comparable, len(ref))
	for i, p := range ref {
		items[i] = item{index: i, point: p, metric: m}
	}
	t, err := gvp.New(items, effort, nil)
	if err != nil {
		return nil, fmt.Errorf("build vptree: %w", err)
	}
	return &Index{tree: t, n: len(ref), metric: m}, nil
}

// Search implements search.Index.
func (idx *Index) Search(q geo.Point, k int) ([]result.Result, search.Stats, error) {
	var stats search.Stats
	if idx == nil || idx.tree == nil {
		return nil, stats, domain.ErrIndexNotBuilt
	}
	if k <= 0 {
		return nil, stats, domain.NewQueryError("k", "must be positive")
	}
	k = min(k, idx.n)

	keeper := gvp.NewNKeeper(k)
	idx.tree.NearestSet(keeper, query{point: q, metric: idx.metric, evals: &stats.Evaluations})

	out := make([]result.Result, 0, k)
	for _, cd := range keeper.Heap {
		// the keeper is seeded with a nil sentinel
		it, ok := cd.Comparable.(item)
		if !ok {
			continue
		}
		out = append(out, result.New(it.index, cd.Dist))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Closer(out[j]) })
	return out, stats, nil
}

// Nearest implements search.Index.
func (idx *Index) Nearest(q geo.Point) (result.Result, error) {
	rs, _, err := idx.Search(q, 1)
	if err != nil {
		return result.Result{}, err
	}
	if len(rs) == 0 {
		return result.Result{}, domain.ErrIndexNotBuilt
	}
	return rs[0], nil
}

// Len returns the number of indexed points.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return idx.n
}

// Engine returns "vptree".
func (idx *Index) Engine() string { return "vptree" }
