// Package report persists validation reports with an expiry.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/spherenn/internal/db"
	"github.com/kailas-cloud/spherenn/internal/domain"
	"github.com/kailas-cloud/spherenn/internal/usecase/validation"
)

// DefaultTTL keeps reports for a day.
const DefaultTTL = 24 * time.Hour

type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Store saves reports as JSON values keyed by report ID.
type Store struct {
	kv     kvStore
	prefix string
	ttl    time.Duration
}

// New creates a report store.
func New(kv kvStore, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "spherenn"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{kv: kv, prefix: prefix, ttl: ttl}
}

func (s *Store) key(id string) string { return s.prefix + ":report:" + id }

// Save stores the report under its ID.
func (s *Store) Save(ctx context.Context, rep *validation.Report) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := s.kv.SetWithTTL(ctx, s.key(rep.ID), data, s.ttl); err != nil {
		return fmt.Errorf("save report %s: %w", rep.ID, err)
	}
	return nil
}

// Get loads a report. Expired or unknown IDs return domain.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*validation.Report, error) {
	data, err := s.kv.Get(ctx, s.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}
	var rep validation.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("unmarshal report %s: %w", id, err)
	}
	return &rep, nil
}
