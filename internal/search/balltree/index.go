// Package balltree implements a metric ball tree over points on the unit sphere.
package balltree

import (
	"container/heap"

	"github.com/kailas-cloud/spherenn/internal/domain"
	"github.com/kailas-cloud/spherenn/internal/domain/geo"
	"github.com/kailas-cloud/spherenn/internal/domain/search/result"
	"github.com/kailas-cloud/spherenn/internal/search"
)

// Index is an immutable ball tree. The zero value is not built.
type Index struct {
	cfg    Config
	points []geo.Point
	root   *node
}

var _ search.Index = (*Index)(nil)

// Build constructs the tree over a copy of ref.
func Build(ref []geo.Point, opts ...Option) (*Index, error) {
	if len(ref) == 0 {
		return nil, domain.ErrEmptyReferenceSet
	}
	cfg := newConfig(opts...)
	points := append([]geo.Point(nil), ref...)

	indices := make([]int, len(points))
	for i := range indices {
		indices[i] = i
	}
	return &Index{
		cfg:    cfg,
		points: points,
		root:   buildNode(0, indices, points, cfg),
	}, nil
}

// Nearest returns the closest reference point; ties go to the lowest index.
func (idx *Index) Nearest(q geo.Point) (result.Result, error) {
	rs, _, err := idx.Search(q, 1)
	if err != nil {
		return result.Result{}, err
	}
	return rs[0], nil
}

// NearestK returns the k closest reference points ordered by (distance, index).
func (idx *Index) NearestK(q geo.Point, k int) ([]result.Result, error) {
	rs, _, err := idx.Search(q, k)
	return rs, err
}

// Search runs a best-first traversal ordered by the lower bound
// max(0, d(q, pivot) - radius) of each ball.
func (idx *Index) Search(q geo.Point, k int) ([]result.Result, search.Stats, error) {
	var stats search.Stats
	if idx == nil || idx.root == nil {
		return nil, stats, domain.ErrIndexNotBuilt
	}
	if k <= 0 {
		return nil, stats, domain.NewQueryError("k", "must be positive")
	}
	k = min(k, len(idx.points))

	dist := func(i int) float64 {
		stats.Evaluations++
		return idx.cfg.Metric.Distance(q, idx.points[i])
	}

	best := search.NewCollector(k)
	pq := nodeQueue{{node: idx.root, bound: lowerBound(dist(idx.root.pivot), idx.root.radius)}}

	for pq.Len() > 0 {
		entry := heap.Pop(&pq).(nodeEntry)
		// Bounds are popped in ascending order, so nothing left can improve.
		if best.Full() && entry.bound > best.Worst().Distance()+idx.cfg.PruneSlack {
			break
		}
		n := entry.node
		if n.leaf() {
			for _, i := range n.indices {
				best.Offer(result.New(i, dist(i)))
			}
			continue
		}
		for _, child := range [2]*node{n.left, n.right} {
			b := lowerBound(dist(child.pivot), child.radius)
			if best.Full() && b > best.Worst().Distance()+idx.cfg.PruneSlack {
				continue
			}
			heap.Push(&pq, nodeEntry{node: child, bound: b})
		}
	}
	return best.Sorted(), stats, nil
}

// Len returns the number of indexed points.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.points)
}

// Engine returns "balltree".
func (idx *Index) Engine() string { return "balltree" }

// Config exposes the build configuration for diagnostics.
func (idx *Index) Config() Config { return idx.cfg }

// Shape reports node count, leaf count and depth of the tree.
func (idx *Index) Shape() (nodes, leaves, depth int) {
	if idx == nil {
		return 0, 0, 0
	}
	return shape(idx.root)
}

func lowerBound(d, radius float64) float64 {
	return max(0, d-radius)
}

type nodeEntry struct {
	node  *node
	bound float64
}

type nodeQueue []nodeEntry

func (h nodeQueue) Len() int           { return len(h) }
func (h nodeQueue) Less(i, j int) bool { return h[i].bound < h[j].bound }
func (h nodeQueue) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *nodeQueue) Push(x interface{}) {
	*h = append(*h, x.(nodeEntry))
}

func (h *nodeQueue) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
