package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexCounter reports how many reference-set indexes are resident in memory.
type IndexCounter interface {
	CachedIndexes() int
}
