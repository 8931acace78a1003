package validation

import (
	"math"

	"github.com/owlpinetech/healpix"

	"github.com/kailas-cloud/spherenn/internal/domain/geo"
)

// DefaultCoverageOrder gives 768 equal-area cells.
const DefaultCoverageOrder = 3

// Coverage counts HEALPix cells touched by a point set.
type Coverage struct {
	Order int `json:"order"`
	Cells int `json:"cells"`
	Total int `json:"total"`
}

// Fraction returns the share of touched cells.
func (c Coverage) Fraction() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Cells) / float64(c.Total)
}

func coverage(points []geo.Point, order int) Coverage {
	o := healpix.HealpixOrder(order)
	seen := make(map[int]struct{})
	for _, p := range points {
		seen[cell(p, o)] = struct{}{}
	}
	return Coverage{Order: order, Cells: len(seen), Total: o.Pixels()}
}

func cell(p geo.Point, order healpix.HealpixOrder) int {
	lon := math.Mod(p.Azimuth(), 2*math.Pi)
	if lon < 0 {
		lon += 2 * math.Pi
	}
	lat := math.Max(-math.Pi/2, math.Min(math.Pi/2, p.Elevation()))
	return healpix.NewLatLonCoordinate(lat, lon).PixelId(order, healpix.NestScheme)
}
