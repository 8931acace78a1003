package vptree

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/kailas-cloud/spherenn/internal/domain"
	"github.com/kailas-cloud/spherenn/internal/domain/geo"
	"github.com/kailas-cloud/spherenn/internal/search/brute"
)

func randomPoints(r *rand.Rand, n int) []geo.Point {
	out := make([]geo.Point, n)
	for i := range out {
		out[i] = geo.NewPoint(r.Float64()*360, math.Asin(r.Float64()*2-1)*180/math.Pi)
	}
	return out
}

func TestBuild_Empty(t *testing.T) {
	if _, err := Build(nil, geo.GreatCircle, 0); !errors.Is(err, domain.ErrEmptyReferenceSet) {
		t.Fatalf("want ErrEmptyReferenceSet, got %v", err)
	}
}

func TestIndex_NotBuilt(t *testing.T) {
	var idx Index
	if _, err := idx.Nearest(geo.NewPoint(1, 2)); !errors.Is(err, domain.ErrIndexNotBuilt) {
		t.Fatalf("want ErrIndexNotBuilt, got %v", err)
	}
}

func TestNearest_Scenario(t *testing.T) {
	idx, err := Build(geo.Points(geo.EquatorAndPole()), geo.GreatCircle, 0)
	if err != nil {
		t.Fatal(err)
	}
	got, err := idx.Nearest(geo.NewPoint(0, 89))
	if err != nil {
		t.Fatal(err)
	}
	if got.Index() != 4 || math.Abs(got.Distance()-math.Pi/180) > 1e-9 {
		t.Fatalf("got (%d, %v), want (4, π/180)", got.Index(), got.Distance())
	}
}

func TestNearest_AgreesWithBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	ref := randomPoints(r, 1000)
	idx, err := Build(ref, geo.Haversine, 3)
	if err != nil {
		t.Fatal(err)
	}
	for _, q := range randomPoints(r, 200) {
		want, _ := brute.Nearest(q, ref, geo.Haversine)
		got, err := idx.Nearest(q)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got.Distance()-want.Distance()) > 1e-9 {
			t.Fatalf("distance %v, brute force %v", got.Distance(), want.Distance())
		}
	}
}

func TestSearch_KSortedAndCounted(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	ref := randomPoints(r, 300)
	idx, err := Build(ref, geo.GreatCircle, 0)
	if err != nil {
		t.Fatal(err)
	}
	rs, stats, err := idx.Search(geo.NewPoint(10, 10), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 5 {
		t.Fatalf("want 5 results, got %d", len(rs))
	}
	for i := 1; i < len(rs); i++ {
		if rs[i].Closer(rs[i-1]) {
			t.Fatalf("results not sorted at %d", i)
		}
	}
	if stats.Evaluations == 0 || stats.Evaluations > len(ref) {
		t.Fatalf("unexpected evaluation count %d", stats.Evaluations)
	}
	if _, _, err := idx.Search(geo.NewPoint(0, 0), 0); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("want ErrInvalidQuery, got %v", err)
	}
}
