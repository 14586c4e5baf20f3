package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
)

func writeTestShapefile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "countries.shp")
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		t.Fatalf("create shapefile: %v", err)
	}

	if err := w.SetFields([]shp.Field{shp.StringField("NAME", 32)}); err != nil {
		t.Fatalf("set fields: %v", err)
	}

	island := shp.Polygon(*shp.NewPolyLine([][]shp.Point{
		{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 0}},
		{{X: 20, Y: 20}, {X: 25, Y: 20}, {X: 20, Y: 25}, {X: 20, Y: 20}},
	}))
	row := w.Write(&island)
	if err := w.WriteAttribute(int(row), 0, "Twin Isles"); err != nil {
		t.Fatalf("write attribute: %v", err)
	}

	tiny := shp.Polygon(*shp.NewPolyLine([][]shp.Point{
		{{X: -40, Y: -5}, {X: -30, Y: -5}, {X: -35, Y: 5}, {X: -40, Y: -5}},
	}))
	row = w.Write(&tiny)
	if err := w.WriteAttribute(int(row), 0, "Tiny"); err != nil {
		t.Fatalf("write attribute: %v", err)
	}

	w.Close()
	return path
}

func TestShapefileLoader(t *testing.T) {
	path := writeTestShapefile(t)

	shapes, err := NewShapefileLoader(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(shapes) != 2 {
		t.Fatalf("expected 2 shapes, got %d", len(shapes))
	}

	isles := shapes[0]
	if isles.Name != "Twin Isles" {
		t.Errorf("name = %q", isles.Name)
	}
	if len(isles.Parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(isles.Parts))
	}
	if len(isles.Parts[0]) != 4 || isles.Parts[1][1] != Pt(25, 20) {
		t.Errorf("parts split wrong: %v", isles.Parts)
	}
	want := Bounds{MinLon: 0, MinLat: 0, MaxLon: 25, MaxLat: 25}
	if isles.Bounds != want {
		t.Errorf("bounds = %+v, want %+v", isles.Bounds, want)
	}
	if isles.SegmentCount() != 6 {
		t.Errorf("segments = %d, want 6", isles.SegmentCount())
	}

	if shapes[1].Name != "Tiny" {
		t.Errorf("second name = %q", shapes[1].Name)
	}
}

func TestShapefileLoaderMissing(t *testing.T) {
	if _, err := NewShapefileLoader(filepath.Join(t.TempDir(), "nope.shp")).Load(); err == nil {
		t.Fatal("expected error for missing file")
	}
}

const testGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name": "Squareland"},
      "geometry": {"type": "Polygon", "coordinates": [[[0,0],[4,0],[4,4],[0,4],[0,0]]]}
    },
    {
      "type": "Feature",
      "properties": {"ADMIN": "Archipelago"},
      "geometry": {"type": "MultiPolygon", "coordinates": [
        [[[10,10],[11,10],[11,11],[10,10]]],
        [[[12,12],[13,12],[13,13],[12,12]]]
      ]}
    },
    {
      "type": "Feature",
      "properties": {"name": "River"},
      "geometry": {"type": "LineString", "coordinates": [[-5,-5],[-4,-3],[-2,-2]]}
    },
    {
      "type": "Feature",
      "properties": {"name": "Lighthouse"},
      "geometry": {"type": "Point", "coordinates": [1,1]}
    }
  ]
}`

func TestParseGeoJSON(t *testing.T) {
	shapes, err := ParseGeoJSON([]byte(testGeoJSON))
	if err != nil {
		t.Fatalf("ParseGeoJSON: %v", err)
	}
	if len(shapes) != 3 {
		t.Fatalf("expected 3 shapes (point dropped), got %d", len(shapes))
	}

	if shapes[0].Name != "Squareland" || len(shapes[0].Parts[0]) != 5 {
		t.Errorf("polygon converted wrong: %+v", shapes[0])
	}
	if shapes[1].Name != "Archipelago" || len(shapes[1].Parts) != 2 {
		t.Errorf("multipolygon converted wrong: %+v", shapes[1])
	}
	if shapes[1].Bounds != (Bounds{MinLon: 10, MinLat: 10, MaxLon: 13, MaxLat: 13}) {
		t.Errorf("multipolygon bounds = %+v", shapes[1].Bounds)
	}
	if shapes[2].Parts[0][1] != Pt(-4, -3) {
		t.Errorf("linestring keeps lon/lat order, got %v", shapes[2].Parts[0][1])
	}
}

func TestLoadBoundaries(t *testing.T) {
	dir := t.TempDir()
	gj := filepath.Join(dir, "world.geojson")
	if err := os.WriteFile(gj, []byte(testGeoJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	shapes, err := LoadBoundaries(gj)
	if err != nil || len(shapes) != 3 {
		t.Fatalf("geojson: %d shapes, err %v", len(shapes), err)
	}

	shapes, err = LoadBoundaries(writeTestShapefile(t))
	if err != nil || len(shapes) != 2 {
		t.Fatalf("shapefile: %d shapes, err %v", len(shapes), err)
	}

	if _, err := LoadBoundaries(filepath.Join(dir, "world.kml")); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestNewShapeDropsDegenerateParts(t *testing.T) {
	s := NewShape("x", [][]GeoPoint{{Pt(1, 1)}, {}, {Pt(0, 0), Pt(1, 1)}})
	if len(s.Parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(s.Parts))
	}
	if NewShape("y", [][]GeoPoint{{Pt(3, 3)}}).Empty() != true {
		t.Error("single vertex shape should be empty")
	}
}
