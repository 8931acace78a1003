package search

import (
	"container/heap"
	"sort"

	"github.com/kailas-cloud/spherenn/internal/domain/search/result"
)

// Collector keeps the k closest results offered to it.
// Ordering is by distance, then by lower index.
type Collector struct {
	k int
	h worstFirst
}

// NewCollector returns a collector for the k best results.
func NewCollector(k int) *Collector {
	return &Collector{k: k, h: make(worstFirst, 0, k)}
}

// Offer considers r for the result set.
func (c *Collector) Offer(r result.Result) {
	if len(c.h) < c.k {
		heap.Push(&c.h, r)
		return
	}
	if r.Closer(c.h[0]) {
		c.h[0] = r
		heap.Fix(&c.h, 0)
	}
}

// Full reports whether k results have been collected.
func (c *Collector) Full() bool { return len(c.h) >= c.k }

// Worst returns the k-th best result collected so far. Only valid when Full.
func (c *Collector) Worst() result.Result { return c.h[0] }

// Sorted returns the collected results, best first.
func (c *Collector) Sorted() []result.Result {
	out := make([]result.Result, len(c.h))
	copy(out, c.h)
	sort.Slice(out, func(i, j int) bool { return out[i].Closer(out[j]) })
	return out
}

type worstFirst []result.Result

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return h[j].Closer(h[i]) }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *worstFirst) Push(x interface{}) {
	*h = append(*h, x.(result.Result))
}

func (h *worstFirst) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
