// Package sampling generates query directions for validation runs.
package sampling

import (
	"math/rand"

	"github.com/golang/geo/s2"

	"github.com/kailas-cloud/spherenn/internal/domain/geo"
)

// Sampler draws directions uniformly distributed over the sphere.
// It is deterministic for a given seed and not safe for concurrent use.
type Sampler struct {
	rng *rand.Rand
}

// New returns a sampler seeded with seed.
func New(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// Coordinate draws one direction. An isotropic Gaussian vector projected onto
// the sphere is uniform.
func (s *Sampler) Coordinate() geo.Coordinate {
	var p s2.Point
	for {
		x, y, z := s.rng.NormFloat64(), s.rng.NormFloat64(), s.rng.NormFloat64()
		if x != 0 || y != 0 || z != 0 {
			p = s2.PointFromCoords(x, y, z)
			break
		}
	}
	ll := s2.LatLngFromPoint(p)
	az := ll.Lng.Degrees()
	if az < 0 {
		az += 360
	}
	if az >= 360 {
		az = 0
	}
	return geo.Coordinate{AzimuthDeg: az, ElevationDeg: ll.Lat.Degrees()}
}

// Coordinates draws n directions.
func (s *Sampler) Coordinates(n int) []geo.Coordinate {
	out := make([]geo.Coordinate, max(n, 0))
	for i := range out {
		out[i] = s.Coordinate()
	}
	return out
}

// Uniform draws n directions from a fresh sampler seeded with seed.
func Uniform(n int, seed int64) []geo.Coordinate {
	return New(seed).Coordinates(n)
}
