package balltree

import "github.com/kailas-cloud/spherenn/internal/domain/geo"

// node covers every point of its subtree with a ball of radius around pivot.
type node struct {
	pivot   int
	radius  float64
	indices []int // leaf only
	left    *node
	right   *node
}

func (n *node) leaf() bool { return n.left == nil }

// buildNode partitions indices around pivot. pivot must be one of indices.
func buildNode(pivot int, indices []int, pts []geo.Point, cfg Config) *node {
	// Find the covering radius and the farthest member A in one pass.
	far, radius := pivot, 0.0
	for _, i := range indices {
		d := cfg.Metric.Distance(pts[pivot], pts[i])
		if d > radius {
			far, radius = i, d
		}
	}

	n := &node{pivot: pivot, radius: radius}
	if len(indices) <= cfg.LeafSize || radius == 0 {
		n.indices = append([]int(nil), indices...)
		return n
	}

	a := far
	b, spread := a, 0.0
	for _, i := range indices {
		d := cfg.Metric.Distance(pts[a], pts[i])
		if d > spread {
			b, spread = i, d
		}
	}

	leftIdx := make([]int, 0, len(indices)/2+1)
	rightIdx := make([]int, 0, len(indices)/2+1)
	for _, i := range indices {
		if cfg.Metric.Distance(pts[a], pts[i]) <= cfg.Metric.Distance(pts[b], pts[i]) {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	// Guard against degenerate splits.
	if spread == 0 || len(leftIdx) == 0 || len(rightIdx) == 0 {
		n.indices = append([]int(nil), indices...)
		return n
	}

	n.left = buildNode(a, leftIdx, pts, cfg)
	n.right = buildNode(b, rightIdx, pts, cfg)
	return n
}

// shape walks the tree and reports node count, leaf count and depth.
func shape(n *node) (nodes, leaves, depth int) {
	if n == nil {
		return 0, 0, 0
	}
	if n.leaf() {
		return 1, 1, 1
	}
	ln, ll, ld := shape(n.left)
	rn, rl, rd := shape(n.right)
	return ln + rn + 1, ll + rl, max(ld, rd) + 1
}
