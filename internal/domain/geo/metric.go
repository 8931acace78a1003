package geo

import (
	"fmt"
	"math"
)

// Metric selects a great-circle distance formula. All formulas return the
// central angle in radians, range [0, π].
type Metric int

const (
	// GreatCircle uses the spherical law of cosines.
	GreatCircle Metric = iota
	// Haversine uses the haversine formula, stable for small separations.
	Haversine
	// Chord converts the 3D chord between unit vectors into an angle.
	Chord
)

// String returns the metric name.
func (m Metric) String() string {
	switch m {
	case GreatCircle:
		return "great_circle"
	case Haversine:
		return "haversine"
	case Chord:
		return "chord"
	default:
		return fmt.Sprintf("metric(%d)", int(m))
	}
}

// ParseMetric parses a metric name. Empty string selects GreatCircle.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "", "great_circle", "cosine":
		return GreatCircle, nil
	case "haversine":
		return Haversine, nil
	case "chord":
		return Chord, nil
	default:
		return 0, fmt.Errorf("unknown metric %q", s)
	}
}

// Distance returns the central angle between a and b under metric m.
// Identical points are exactly 0 apart and the result is symmetric.
func (m Metric) Distance(a, b Point) float64 {
	if a == b {
		return 0
	}
	switch m {
	case Haversine:
		return haversine(a, b)
	case Chord:
		return chord(a, b)
	default:
		return lawOfCosines(a, b)
	}
}

// Distance is the great-circle distance in radians using the law of cosines.
func Distance(a, b Point) float64 {
	return GreatCircle.Distance(a, b)
}

func lawOfCosines(a, b Point) float64 {
	dAz := b.azimuth - a.azimuth
	inner := math.Sin(a.elevation)*math.Sin(b.elevation) +
		math.Cos(a.elevation)*math.Cos(b.elevation)*math.Cos(dAz)
	// rounding can push inner just outside [-1, 1]
	return math.Acos(clamp(inner, -1, 1))
}

func haversine(a, b Point) float64 {
	sEl := math.Sin((b.elevation - a.elevation) / 2)
	sAz := math.Sin((b.azimuth - a.azimuth) / 2)
	h := sEl*sEl + math.Cos(a.elevation)*math.Cos(b.elevation)*sAz*sAz
	h = clamp(h, 0, 1)
	return 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func chord(a, b Point) float64 {
	va, vb := ToECEF(a), ToECEF(b)
	dx := va[0] - vb[0]
	dy := va[1] - vb[1]
	dz := va[2] - vb[2]
	return ChordToAngle(math.Sqrt(dx*dx + dy*dy + dz*dz))
}
