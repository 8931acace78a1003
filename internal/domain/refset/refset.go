package refset

import (
	"fmt"
	"regexp"
	"time"

	"github.com/kailas-cloud/spherenn/internal/domain"
	"github.com/kailas-cloud/spherenn/internal/domain/geo"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxNameLength bounds set names.
const MaxNameLength = 64

// Set is a named reference set of directions (immutable value object).
// Coordinates keep the degrees they were submitted with; points are derived
// on demand through geo.NewPoint.
type Set struct {
	name        string
	description string
	coordinates []geo.Coordinate
	createdAt   int64
	updatedAt   int64
}

// ValidateName checks the name format: ^[a-zA-Z0-9_-]+$, 1-64 chars.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidReferenceSet)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name too long (max %d)", domain.ErrInvalidReferenceSet, MaxNameLength)
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("%w: name must be alphanumeric with underscores and hyphens", domain.ErrInvalidReferenceSet)
	}
	return nil
}

// New validates and creates a Set. Every coordinate must be finite.
func New(name, description string, coords []geo.Coordinate) (Set, error) {
	if err := ValidateName(name); err != nil {
		return Set{}, err
	}
	for i, c := range coords {
		if !c.Finite() {
			return Set{}, fmt.Errorf("%w: coordinate %d is not finite", domain.ErrInvalidReferenceSet, i)
		}
	}
	now := time.Now().UnixMilli()
	return Set{
		name:        name,
		description: description,
		coordinates: append([]geo.Coordinate(nil), coords...),
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct restores a Set from storage without validation.
func Reconstruct(name, description string, coords []geo.Coordinate, createdAt, updatedAt int64) Set {
	return Set{
		name:        name,
		description: description,
		coordinates: coords,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// WithCreatedAt returns a copy keeping an earlier creation time (used on replace).
func (s Set) WithCreatedAt(createdAt int64) Set {
	s.createdAt = createdAt
	return s
}

// Name returns the set name.
func (s Set) Name() string { return s.name }

// Description returns the free-form description.
func (s Set) Description() string { return s.description }

// Coordinates returns a copy of the stored degree pairs.
func (s Set) Coordinates() []geo.Coordinate {
	return append([]geo.Coordinate(nil), s.coordinates...)
}

// Len returns the number of reference points.
func (s Set) Len() int { return len(s.coordinates) }

// Points converts the coordinates to points, preserving order.
func (s Set) Points() []geo.Point { return geo.Points(s.coordinates) }

// CreatedAt returns the creation timestamp in Unix milliseconds.
func (s Set) CreatedAt() int64 { return s.createdAt }

// UpdatedAt returns the last replace timestamp in Unix milliseconds.
func (s Set) UpdatedAt() int64 { return s.updatedAt }

// Summary is set metadata without coordinates, used for listings.
type Summary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Count       int    `json:"count"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}
