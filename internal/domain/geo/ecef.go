package geo

import "math"

// ToECEF converts a point to a unit vector (x toward azimuth 0, z toward the zenith).
func ToECEF(p Point) [3]float64 {
	ce := math.Cos(p.elevation)
	return [3]float64{
		ce * math.Cos(p.azimuth),
		ce * math.Sin(p.azimuth),
		math.Sin(p.elevation),
	}
}

// FromECEF converts a (not necessarily normalized) vector back to a Point.
// Azimuth is returned in [0, 2π). At the poles azimuth is 0.
func FromECEF(v [3]float64) Point {
	n := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if n == 0 {
		return Point{}
	}
	az := math.Atan2(v[1], v[0])
	if az < 0 {
		az += 2 * math.Pi
	}
	return Point{azimuth: az, elevation: math.Asin(clamp(v[2]/n, -1, 1))}
}

// ChordToAngle converts the straight-line distance between two unit vectors
// to the central angle: chord = 2*sin(angle/2).
func ChordToAngle(chord float64) float64 {
	// numerical noise can push chord/2 slightly above 1
	half := chord / 2
	if half > 1 {
		half = 1
	}
	return 2 * math.Asin(half)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
