package geo

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"
)

// nameFields are the attribute columns checked, in order, for a shape name
var nameFields = []string{"NAME", "ADMIN", "NAME_EN", "NAMEASCII"}

// ShapefileLoader reads boundary polygons and polylines from an ESRI shapefile
type ShapefileLoader struct {
	path string
}

// NewShapefileLoader creates a new shapefile loader
func NewShapefileLoader(path string) *ShapefileLoader {
	return &ShapefileLoader{
		path: path,
	}
}

// Load reads every polygon and polyline record. Each ring or line of a
// record becomes one part of the resulting shape; point records are skipped.
func (s *ShapefileLoader) Load() ([]Shape, error) {
	reader, err := shp.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile %s: %w", s.path, err)
	}
	defer reader.Close()

	nameIdx := FieldIndex(reader.Fields(), nameFields...)

	shapes := make([]Shape, 0)
	segments := 0
	for reader.Next() {
		n, p := reader.Shape()

		var line *shp.PolyLine
		switch geom := p.(type) {
		case *shp.PolyLine:
			line = geom
		case *shp.Polygon:
			pl := shp.PolyLine(*geom)
			line = &pl
		default:
			continue
		}

		name := ""
		if nameIdx >= 0 {
			name = strings.TrimSpace(reader.ReadAttribute(n, nameIdx))
		}

		shape := NewShape(name, splitParts(line))
		if shape.Empty() {
			continue
		}
		shapes = append(shapes, shape)
		segments += shape.SegmentCount()
	}

	slog.Debug("loaded shapefile", "path", s.path, "shapes", len(shapes), "segments", segments)
	return shapes, nil
}

// splitParts cuts the flat point array of a record at its part offsets
func splitParts(line *shp.PolyLine) [][]GeoPoint {
	parts := make([][]GeoPoint, 0, len(line.Parts))
	for i, start := range line.Parts {
		end := int32(len(line.Points))
		if i+1 < len(line.Parts) {
			end = line.Parts[i+1]
		}
		if start < 0 || end > int32(len(line.Points)) || start >= end {
			continue
		}

		part := make([]GeoPoint, 0, end-start)
		for _, pt := range line.Points[start:end] {
			part = append(part, GeoPoint{Lon: pt.X, Lat: pt.Y})
		}
		parts = append(parts, part)
	}
	return parts
}

// FieldIndex returns the index of the first attribute column matching one of
// names, or -1. Field names in shapefiles are fixed-size byte arrays padded
// with NULs.
func FieldIndex(fields []shp.Field, names ...string) int {
	for _, want := range names {
		for i, field := range fields {
			fieldName := strings.TrimRight(string(field.Name[:]), "\x00 ")
			if strings.EqualFold(fieldName, want) {
				return i
			}
		}
	}
	return -1
}

// LoadBoundaries loads shapes from a .shp or .geojson/.json file, picking the
// reader by extension.
func LoadBoundaries(path string) ([]Shape, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return NewShapefileLoader(path).Load()
	case ".geojson", ".json":
		return LoadGeoJSON(path)
	default:
		return nil, fmt.Errorf("unsupported boundary format: %s", path)
	}
}
