package search

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/spherenn/internal/domain/search/result"
)

type hit struct {
	Index    int
	Distance float64
}

func hits(rs []result.Result) []hit {
	out := make([]hit, len(rs))
	for i, r := range rs {
		out[i] = hit{r.Index(), r.Distance()}
	}
	return out
}

func TestCollector_KeepsBest(t *testing.T) {
	c := NewCollector(3)
	for i, d := range []float64{0.9, 0.1, 0.5, 0.3, 0.7, 0.2} {
		c.Offer(result.New(i, d))
	}
	want := []hit{{1, 0.1}, {5, 0.2}, {3, 0.3}}
	if diff := cmp.Diff(want, hits(c.Sorted())); diff != "" {
		t.Errorf("Sorted mismatch (-want +got):\n%s", diff)
	}
	if !c.Full() || c.Worst().Index() != 3 {
		t.Errorf("worst = %d, want 3", c.Worst().Index())
	}
}

func TestCollector_TiesPreferLowerIndex(t *testing.T) {
	c := NewCollector(2)
	for _, i := range []int{4, 2, 3, 0, 1} {
		c.Offer(result.New(i, 0.5))
	}
	want := []hit{{0, 0.5}, {1, 0.5}}
	if diff := cmp.Diff(want, hits(c.Sorted())); diff != "" {
		t.Errorf("Sorted mismatch (-want +got):\n%s", diff)
	}
}

func TestCollector_NotFull(t *testing.T) {
	c := NewCollector(5)
	c.Offer(result.New(0, 1))
	if c.Full() {
		t.Fatal("collector with one result must not be full")
	}
	if got := len(c.Sorted()); got != 1 {
		t.Fatalf("want 1 result, got %d", got)
	}
}
