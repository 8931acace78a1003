package refset

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/spherenn/internal/db"
	"github.com/kailas-cloud/spherenn/internal/domain"
	domref "github.com/kailas-cloud/spherenn/internal/domain/refset"
)

// store is the consumer interface for reference sets (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo implements usecase/refset.Repository.
// Metadata lives in a hash, coordinates in a JSON value next to it.
type Repo struct {
	store  store
	prefix string
}

// New creates a reference set repository. prefix namespaces every key.
func New(s store, prefix string) *Repo {
	if prefix == "" {
		prefix = "spherenn"
	}
	return &Repo{store: s, prefix: prefix}
}

func (r *Repo) metaKey(name string) string   { return r.prefix + ":refset:" + name }
func (r *Repo) pointsKey(name string) string { return r.prefix + ":points:" + name }

// Put stores or replaces a set. Coordinates are written before metadata so a
// visible hash always has its points.
func (r *Repo) Put(ctx context.Context, s domref.Set) error {
	data, err := encodeCoordinates(s.Coordinates())
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, r.pointsKey(s.Name()), data); err != nil {
		return fmt.Errorf("set points %s: %w", s.Name(), err)
	}
	if err := r.store.HSet(ctx, r.metaKey(s.Name()), setToHash(s)); err != nil {
		return fmt.Errorf("hset refset %s: %w", s.Name(), err)
	}
	return nil
}

// Get retrieves a set with its coordinates.
func (r *Repo) Get(ctx context.Context, name string) (domref.Set, error) {
	m, err := r.store.HGetAll(ctx, r.metaKey(name))
	if err != nil {
		return domref.Set{}, fmt.Errorf("hgetall refset %s: %w", name, err)
	}
	if len(m) == 0 {
		return domref.Set{}, domain.ErrNotFound
	}

	data, err := r.store.Get(ctx, r.pointsKey(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domref.Set{}, fmt.Errorf("points of %s missing: %w", name, domain.ErrNotFound)
		}
		return domref.Set{}, fmt.Errorf("get points %s: %w", name, err)
	}
	coords, err := decodeCoordinates(data)
	if err != nil {
		return domref.Set{}, err
	}
	return setFromHash(m, coords)
}

// Exists checks whether a set is stored.
func (r *Repo) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := r.store.Exists(ctx, r.metaKey(name))
	if err != nil {
		return false, fmt.Errorf("exists refset %s: %w", name, err)
	}
	return ok, nil
}

// List returns set summaries sorted by name.
func (r *Repo) List(ctx context.Context) ([]domref.Summary, error) {
	keys, err := r.store.Scan(ctx, r.metaKey("*"))
	if err != nil {
		return nil, fmt.Errorf("scan refsets: %w", err)
	}
	if len(keys) == 0 {
		return []domref.Summary{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall refsets: %w", err)
	}

	out := make([]domref.Summary, 0, len(results))
	for i, m := range results {
		// deleted between SCAN and HGETALL
		if len(m) == 0 {
			continue
		}
		s, err := summaryFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes a set and its coordinates.
func (r *Repo) Delete(ctx context.Context, name string) error {
	ok, err := r.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	if err := r.store.Del(ctx, r.metaKey(name), r.pointsKey(name)); err != nil {
		return fmt.Errorf("del refset %s: %w", name, err)
	}
	return nil
}
