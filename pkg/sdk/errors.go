package spherenn

import "github.com/kailas-cloud/spherenn/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrEmptyReferenceSet = domain.ErrEmptyReferenceSet
	ErrInvalidQuery      = domain.ErrInvalidQuery
	ErrIndexNotBuilt     = domain.ErrIndexNotBuilt
	ErrUnknownEngine     = domain.ErrUnknownEngine
)
