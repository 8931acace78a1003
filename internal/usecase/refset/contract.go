package refset

import (
	"context"

	domref "github.com/kailas-cloud/spherenn/internal/domain/refset"
	"github.com/kailas-cloud/spherenn/internal/usecase/validation"
)

// Repository defines the storage contract for reference sets.
type Repository interface {
	Put(ctx context.Context, s domref.Set) error
	Get(ctx context.Context, name string) (domref.Set, error)
	Exists(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]domref.Summary, error)
	Delete(ctx context.Context, name string) error
}

// ReportStore persists validation reports.
type ReportStore interface {
	Save(ctx context.Context, rep *validation.Report) error
	Get(ctx context.Context, id string) (*validation.Report, error)
}
