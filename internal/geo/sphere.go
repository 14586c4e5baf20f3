package geo

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean earth radius used for great-circle distances
const EarthRadiusKm = 6371.0

// DefaultGeodesicSteps is the number of interpolation steps in a route preview
const DefaultGeodesicSteps = 15

const degToRad = math.Pi / 180.0

// ToUnitSphere maps a geographic point onto the unit sphere.
// Longitude is offset by -90 degrees so that (0, 0) lands on the +Z axis,
// the north pole on +Y.
func ToUnitSphere(p GeoPoint) r3.Vector {
	lon := (p.Lon - 90) * degToRad
	lat := p.Lat * degToRad

	xz := math.Cos(lat)
	return r3.Vector{
		X: xz * math.Cos(lon),
		Y: math.Sin(lat),
		Z: xz * math.Sin(-lon),
	}
}

// FromUnitSphere is the inverse of ToUnitSphere. v must already be normalized.
// Longitude is undefined at the poles and comes back as whatever atan2 yields.
func FromUnitSphere(v r3.Vector) GeoPoint {
	y := math.Max(-1, math.Min(1, v.Y))
	return GeoPoint{
		Lon: math.Atan2(v.X, v.Z) / degToRad,
		Lat: math.Asin(y) / degToRad,
	}
}

// Geodesic approximates the great circle from a to b with steps+1 points.
// The sphere vectors are lerped and renormalized (nlerp), which is close
// enough to slerp for drawing purposes. Steps below 1 are treated as 1.
func Geodesic(a, b GeoPoint, steps int) []GeoPoint {
	vecs := geodesicVectors(a, b, steps)
	out := make([]GeoPoint, len(vecs))
	for i, v := range vecs {
		out[i] = FromUnitSphere(v)
	}
	return out
}

func geodesicVectors(a, b GeoPoint, steps int) []r3.Vector {
	if steps < 1 {
		steps = 1
	}

	va := ToUnitSphere(a)
	vb := ToUnitSphere(b)

	out := make([]r3.Vector, 0, steps+1)
	for step := 0; step <= steps; step++ {
		t := float64(step) / float64(steps)
		c := va.Add(vb.Sub(va).Mul(t))

		// Antipodal endpoints collapse the midpoint onto the origin; any
		// direction perpendicular to a is an equally short way around.
		if c.Norm2() < 1e-18 {
			c = va.Ortho()
		}
		out = append(out, c.Normalize())
	}
	return out
}

// Distance returns the great-circle distance between two points in kilometres
func Distance(a, b GeoPoint) float64 {
	la := s2.LatLngFromDegrees(a.Lat, a.Lon)
	lb := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return la.Distance(lb).Radians() * EarthRadiusKm
}

// PathDistance sums the great-circle distance of consecutive points
func PathDistance(points []GeoPoint) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}
