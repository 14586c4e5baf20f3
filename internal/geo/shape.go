package geo

import "math"

// GeoPoint is a geographic coordinate in degrees, longitude first
type GeoPoint struct {
	Lon float64
	Lat float64
}

// Pt is shorthand for GeoPoint{Lon: lon, Lat: lat}
func Pt(lon, lat float64) GeoPoint {
	return GeoPoint{Lon: lon, Lat: lat}
}

// Lerp interpolates linearly in geographic space. t is not clamped.
func (p GeoPoint) Lerp(q GeoPoint, t float64) GeoPoint {
	return GeoPoint{
		Lon: p.Lon + t*(q.Lon-p.Lon),
		Lat: p.Lat + t*(q.Lat-p.Lat),
	}
}

// Normalize wraps longitude into [-180, 180] and clamps latitude to [-90, 90]
func (p GeoPoint) Normalize() GeoPoint {
	if p.Lon < -180 || p.Lon > 180 {
		p.Lon = math.Remainder(p.Lon, 360)
	}
	p.Lat = math.Max(-90, math.Min(90, p.Lat))
	return p
}

// Bounds represents a geographic bounding box
type Bounds struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// Contains checks if a point is within the bounds
func (b Bounds) Contains(p GeoPoint) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}

// Extend grows the bounds to include p
func (b Bounds) Extend(p GeoPoint) Bounds {
	b.MinLon = math.Min(b.MinLon, p.Lon)
	b.MinLat = math.Min(b.MinLat, p.Lat)
	b.MaxLon = math.Max(b.MaxLon, p.Lon)
	b.MaxLat = math.Max(b.MaxLat, p.Lat)
	return b
}

// BoundsOf returns the smallest bounds containing every point of every part.
func BoundsOf(parts [][]GeoPoint) Bounds {
	b := Bounds{MinLon: math.Inf(1), MinLat: math.Inf(1), MaxLon: math.Inf(-1), MaxLat: math.Inf(-1)}
	for _, part := range parts {
		for _, p := range part {
			b = b.Extend(p)
		}
	}
	return b
}

// Shape is one boundary feature (a country outline, a coastline) made of
// one or more polylines. Shapes are loaded once and never mutated.
type Shape struct {
	Name   string
	Parts  [][]GeoPoint
	Bounds Bounds
}

// NewShape builds a shape and computes its bounds. Parts with fewer than two
// vertices cannot produce a segment and are dropped.
func NewShape(name string, parts [][]GeoPoint) Shape {
	kept := make([][]GeoPoint, 0, len(parts))
	for _, part := range parts {
		if len(part) > 1 {
			kept = append(kept, part)
		}
	}
	return Shape{
		Name:   name,
		Parts:  kept,
		Bounds: BoundsOf(kept),
	}
}

// Empty reports whether the shape has nothing to draw
func (s Shape) Empty() bool {
	return len(s.Parts) == 0
}

// SegmentCount returns the number of drawable vertex pairs
func (s Shape) SegmentCount() int {
	n := 0
	for _, part := range s.Parts {
		n += len(part) - 1
	}
	return n
}
