package geo

import "math"

// Point is a direction on the unit sphere stored in radians.
// Azimuth is the longitude-like angle, canonically in [0, 2π).
// Elevation is latitude-like, canonically in [-π/2, π/2] with +π/2 at the zenith.
// Out-of-range values are kept as given.
type Point struct {
	azimuth   float64
	elevation float64
}

// NewPoint converts an (azimuth, elevation) pair in degrees into a Point.
// There is no range validation.
func NewPoint(azimuthDeg, elevationDeg float64) Point {
	return Point{
		azimuth:   azimuthDeg / 360 * 2 * math.Pi,
		elevation: elevationDeg / 360 * 2 * math.Pi,
	}
}

// Azimuth returns the azimuth in radians.
func (p Point) Azimuth() float64 { return p.azimuth }

// Elevation returns the elevation in radians.
func (p Point) Elevation() float64 { return p.elevation }

// Degrees returns the point as an (azimuth, elevation) pair in degrees.
func (p Point) Degrees() (azimuthDeg, elevationDeg float64) {
	return p.azimuth * 360 / (2 * math.Pi), p.elevation * 360 / (2 * math.Pi)
}

// Finite reports whether both angles are finite numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.azimuth) && !math.IsInf(p.azimuth, 0) &&
		!math.IsNaN(p.elevation) && !math.IsInf(p.elevation, 0)
}

// Coordinate is a raw degree pair as received from a file, request or store.
type Coordinate struct {
	AzimuthDeg   float64 `json:"azimuth" yaml:"azimuth"`
	ElevationDeg float64 `json:"elevation" yaml:"elevation"`
}

// Point converts the coordinate through NewPoint.
func (c Coordinate) Point() Point {
	return NewPoint(c.AzimuthDeg, c.ElevationDeg)
}

// Finite reports whether both components are finite numbers.
func (c Coordinate) Finite() bool {
	return !math.IsNaN(c.AzimuthDeg) && !math.IsInf(c.AzimuthDeg, 0) &&
		!math.IsNaN(c.ElevationDeg) && !math.IsInf(c.ElevationDeg, 0)
}

// Points converts a coordinate list, preserving order.
func Points(cs []Coordinate) []Point {
	out := make([]Point, len(cs))
	for i, c := range cs {
		out[i] = c.Point()
	}
	return out
}

// EquatorAndPole is the reference scenario of four equatorial directions
// (azimuth 0, 90, 180, 270) plus the zenith.
func EquatorAndPole() []Coordinate {
	return []Coordinate{
		{AzimuthDeg: 0, ElevationDeg: 0},
		{AzimuthDeg: 90, ElevationDeg: 0},
		{AzimuthDeg: 180, ElevationDeg: 0},
		{AzimuthDeg: 270, ElevationDeg: 0},
		{AzimuthDeg: 0, ElevationDeg: 90},
	}
}
