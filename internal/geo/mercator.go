package geo

import "math"

// MercatorLatLimit is where latitudes are clamped before the log-tangent,
// keeping the projection finite near the poles.
const MercatorLatLimit = 87.0

// ProjectedPoint is a coordinate in Mercator-projected degrees
type ProjectedPoint struct {
	X float64
	Y float64
}

// Projector converts geographic points into projected space. With Disabled
// set it passes (lon, lat) through unchanged, which is handy for checking
// data against a plain equirectangular grid.
type Projector struct {
	Disabled bool
}

// Project applies the Web-Mercator style transform
func (p Projector) Project(g GeoPoint) ProjectedPoint {
	if p.Disabled {
		return ProjectedPoint{X: g.Lon, Y: g.Lat}
	}

	lat := math.Max(-MercatorLatLimit, math.Min(MercatorLatLimit, g.Lat))
	lat *= degToRad

	mercN := math.Log(math.Tan(math.Pi/4 + lat/2))
	return ProjectedPoint{
		X: g.Lon,
		Y: 360 * mercN / (2 * math.Pi),
	}
}

// Unproject is the inverse of Project for points inside the clamped range
func (p Projector) Unproject(pp ProjectedPoint) GeoPoint {
	if p.Disabled {
		return GeoPoint{Lon: pp.X, Lat: pp.Y}
	}

	mercN := pp.Y * 2 * math.Pi / 360
	lat := math.Atan(math.Sinh(mercN)) / degToRad
	return GeoPoint{Lon: pp.X, Lat: lat}
}
