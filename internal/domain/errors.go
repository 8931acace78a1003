package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing reference set.
	ErrNotFound = errors.New("not found")
	// ErrEmptyReferenceSet signals a search or build over zero reference points.
	ErrEmptyReferenceSet = errors.New("empty reference set")
	// ErrInvalidQuery signals a malformed query (non-finite coordinates, bad k).
	ErrInvalidQuery = errors.New("invalid query")
	// ErrIndexNotBuilt signals a query against an index that was never built.
	ErrIndexNotBuilt = errors.New("index not built")
	// ErrInvalidReferenceSet signals a reference set that fails validation.
	ErrInvalidReferenceSet = errors.New("invalid reference set")
	// ErrUnknownEngine signals an unsupported search engine name.
	ErrUnknownEngine = errors.New("unknown engine")
)

// QueryError wraps ErrInvalidQuery with the offending parameter.
type QueryError struct {
	Param  string
	Reason string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidQuery.Error(), e.Param, e.Reason)
}

func (e *QueryError) Unwrap() error { return ErrInvalidQuery }

// NewQueryError creates an invalid query error for the given parameter.
func NewQueryError(param, reason string) error {
	return &QueryError{Param: param, Reason: reason}
}
