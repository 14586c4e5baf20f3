package geo

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LoadGeoJSON reads a FeatureCollection and converts every polygonal or
// linear feature into a Shape.
func LoadGeoJSON(path string) ([]Shape, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geojson %s: %w", path, err)
	}

	shapes, err := ParseGeoJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parse geojson %s: %w", path, err)
	}

	slog.Debug("loaded geojson", "path", path, "shapes", len(shapes))
	return shapes, nil
}

// ParseGeoJSON converts a FeatureCollection document into shapes
func ParseGeoJSON(data []byte) ([]Shape, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}

	shapes := make([]Shape, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}

		name := f.Properties.MustString("name", "")
		if name == "" {
			name = f.Properties.MustString("ADMIN", "")
		}

		shape := NewShape(name, geometryParts(f.Geometry))
		if shape.Empty() {
			continue
		}
		shapes = append(shapes, shape)
	}
	return shapes, nil
}

// geometryParts flattens any orb geometry into drawable polylines
func geometryParts(g orb.Geometry) [][]GeoPoint {
	switch geom := g.(type) {
	case orb.LineString:
		return [][]GeoPoint{fromOrb(geom)}
	case orb.Ring:
		return [][]GeoPoint{fromOrb(geom)}
	case orb.MultiLineString:
		parts := make([][]GeoPoint, 0, len(geom))
		for _, ls := range geom {
			parts = append(parts, fromOrb(ls))
		}
		return parts
	case orb.Polygon:
		parts := make([][]GeoPoint, 0, len(geom))
		for _, ring := range geom {
			parts = append(parts, fromOrb(ring))
		}
		return parts
	case orb.MultiPolygon:
		var parts [][]GeoPoint
		for _, poly := range geom {
			parts = append(parts, geometryParts(poly)...)
		}
		return parts
	case orb.Collection:
		var parts [][]GeoPoint
		for _, sub := range geom {
			parts = append(parts, geometryParts(sub)...)
		}
		return parts
	default:
		return nil
	}
}

func fromOrb[T ~[]orb.Point](points T) []GeoPoint {
	out := make([]GeoPoint, len(points))
	for i, p := range points {
		out[i] = GeoPoint{Lon: p.Lon(), Lat: p.Lat()}
	}
	return out
}
