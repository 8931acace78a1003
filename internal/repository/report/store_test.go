package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/spherenn/internal/db/memory"
	"github.com/kailas-cloud/spherenn/internal/domain"
	"github.com/kailas-cloud/spherenn/internal/domain/geo"
	"github.com/kailas-cloud/spherenn/internal/usecase/validation"
)

type recordingKV struct {
	key string
	ttl time.Duration
}

func (r *recordingKV) Get(context.Context, string) ([]byte, error) { return nil, errors.New("unused") }

func (r *recordingKV) SetWithTTL(_ context.Context, key string, _ []byte, ttl time.Duration) error {
	r.key, r.ttl = key, ttl
	return nil
}

func TestSave_KeyAndTTL(t *testing.T) {
	kv := &recordingKV{}
	s := New(kv, "", 0)
	if err := s.Save(context.Background(), &validation.Report{ID: "01ABC"}); err != nil {
		t.Fatal(err)
	}
	if kv.key != "spherenn:report:01ABC" || kv.ttl != DefaultTTL {
		t.Fatalf("key=%q ttl=%v", kv.key, kv.ttl)
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(memory.New(), "t", time.Hour)
	rep := &validation.Report{
		ID:      "01HZX",
		Engine:  "balltree",
		Total:   2,
		Matches: 1,
		Mismatches: []validation.Mismatch{{
			QueryIndex: 1, Query: geo.Coordinate{AzimuthDeg: 10, ElevationDeg: 5},
			BruteIndex: 0, IndexIndex: 3, BruteDistance: 0.1, IndexDistance: 0.2,
		}},
		Coverage: &validation.Coverage{Order: 3, Cells: 2, Total: 768},
		Duration: 3 * time.Millisecond,
	}
	if err := s.Save(ctx, rep); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, "01HZX")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(rep, got); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
