package render

import (
	"strings"
	"testing"

	"asciiflight/internal/geo"
)

type recordingObserver struct {
	frames []FrameStats
}

func (r *recordingObserver) ObserveFrame(s FrameStats) {
	r.frames = append(r.frames, s)
}

func triangle(name string, lon, lat, size float64) geo.Shape {
	return geo.NewShape(name, [][]geo.GeoPoint{{
		geo.Pt(lon, lat),
		geo.Pt(lon+size, lat),
		geo.Pt(lon, lat+size),
		geo.Pt(lon, lat),
	}})
}

// newTestMap returns a renderer on a 41x21 canvas; with the default margin
// of one the framebuffer is 40x20 and the aspect ratio exactly 1.
func newTestMap(shapes ...geo.Shape) (*MapRenderer, *Canvas, *geo.Camera) {
	fb := NewFrameBuffer(1, nil)
	m := NewMapRenderer(shapes, fb, nil)
	canvas := NewCanvas(41, 21)
	cam := geo.NewCamera(geo.Pt(0, 0), 10)
	return m, canvas, cam
}

func TestDrawMapCullsShapeOutsideViewport(t *testing.T) {
	m, canvas, cam := newTestMap(triangle("far away", 100, 30, 10))
	obs := &recordingObserver{}
	m.SetObserver(obs)

	m.DrawMap(cam, canvas)

	if n := m.FrameBuffer().PlottedCells(); n != 0 {
		t.Fatalf("expected zero plotted cells, got %d", n)
	}
	stats := m.LastStats()
	if stats.ShapesCulled != 1 || stats.Segments != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(obs.frames) != 1 || obs.frames[0] != stats {
		t.Errorf("observer got %+v", obs.frames)
	}
}

func TestDrawMapRendersVisibleShape(t *testing.T) {
	m, canvas, cam := newTestMap(triangle("home", -5, -5, 8))

	m.DrawMap(cam, canvas)
	if m.FrameBuffer().PlottedCells() == 0 {
		t.Fatal("visible triangle plotted nothing")
	}
	if s := m.LastStats(); s.ShapesCulled != 0 || s.Segments != 3 || s.SegmentsCulled != 0 {
		t.Errorf("stats = %+v", s)
	}

	m.Scanout(canvas)
	drawn := 0
	for y := 0; y < 20; y++ {
		drawn += len(strings.TrimSpace(canvas.Row(y)))
	}
	if drawn == 0 {
		t.Error("scanout left the canvas blank")
	}
	if m.FrameBuffer().PlottedCells() != 0 {
		t.Error("framebuffer should be empty after scanout")
	}
}

func TestDrawMapCullsOffscreenSegments(t *testing.T) {
	shape := geo.NewShape("split", [][]geo.GeoPoint{
		{geo.Pt(-5, 0), geo.Pt(5, 0)},
		{geo.Pt(50, 40), geo.Pt(60, 40)},
	})
	m, canvas, cam := newTestMap(shape)

	m.DrawMap(cam, canvas)

	s := m.LastStats()
	if s.ShapesCulled != 0 {
		t.Fatalf("shape bbox covers the view and must not be culled: %+v", s)
	}
	if s.Segments != 2 || s.SegmentsCulled != 1 {
		t.Errorf("stats = %+v", s)
	}
	if m.FrameBuffer().PlottedCells() == 0 {
		t.Error("visible segment was not drawn")
	}
}

func TestDrawMapUpdatesViewportEachFrame(t *testing.T) {
	m, canvas, cam := newTestMap(triangle("home", -5, -5, 8))

	m.DrawMap(cam, canvas)
	m.Scanout(canvas)

	cam.Pan(10, 0)
	m.DrawMap(cam, canvas)
	if m.LastStats().ShapesCulled != 1 {
		t.Errorf("after panning away the shape should be culled, stats %+v", m.LastStats())
	}
}

func TestDrawMapPolarShape(t *testing.T) {
	polar := geo.NewShape("ice", [][]geo.GeoPoint{{
		geo.Pt(-180, 89), geo.Pt(0, 90), geo.Pt(180, 89),
	}})
	m, canvas, cam := newTestMap(polar)
	cam.Center = geo.Pt(0, 80)
	cam.Zoom = 60

	m.DrawMap(cam, canvas)
	m.Scanout(canvas)
	// Nothing to assert beyond not panicking and not emitting NaN driven
	// writes outside the canvas.
}

func TestDrawWaypointsUsesRouteTag(t *testing.T) {
	m, canvas, cam := newTestMap()
	m.DrawMap(cam, canvas)

	route := geo.Geodesic(geo.Pt(-8, -3), geo.Pt(8, 4), geo.DefaultGeodesicSteps)
	m.DrawWaypoints(cam, route)

	fb := m.FrameBuffer()
	found := false
	for y := 0; y < fb.Height(); y++ {
		for x := 0; x < fb.Width(); x++ {
			c := fb.Cell(x, y)
			if c.Empty() {
				continue
			}
			found = true
			if c.Tag != TagRoute {
				t.Fatalf("cell %d,%d has tag %d", x, y, c.Tag)
			}
		}
	}
	if !found {
		t.Error("route drew nothing")
	}

	m.DrawWaypoints(cam, route[:1])
	m.DrawWaypoints(cam, nil)
}

func TestDrawGraticule(t *testing.T) {
	m, canvas, cam := newTestMap()
	m.DrawMap(cam, canvas)
	m.DrawGraticule(cam, 30)

	// The equator and the prime meridian cross the middle of the view.
	if m.FrameBuffer().Cell(20, 10).Empty() {
		t.Error("graticule should cross the center")
	}
	if m.FrameBuffer().Cell(20, 10).Tag != TagGrid {
		t.Error("graticule should use the grid tag")
	}
}

func TestPutLabel(t *testing.T) {
	m, canvas, cam := newTestMap()
	m.DrawMap(cam, canvas)
	m.Scanout(canvas)

	if !m.PutLabel(canvas, cam, geo.Pt(0, 0), "● EFHK", StyleLabel) {
		t.Fatal("center label should be visible")
	}
	if row := canvas.Row(10); !strings.HasPrefix(row[strings.IndexRune(row, '●'):], "● EFHK") || strings.IndexRune(row, '●') != 20 {
		t.Errorf("row 10 = %q", row)
	}

	if m.PutLabel(canvas, cam, geo.Pt(40, 0), "EAST", StyleLabel) {
		t.Error("off-screen label should be skipped")
	}
	if m.PutLabel(canvas, cam, geo.Pt(-20, 0), "WEST", StyleLabel) {
		t.Error("off-screen label should be skipped")
	}

	// Anchored near the right edge, the text is cut instead of wrapping.
	east := cam.Unproject(geo.ClipPoint{X: 0.99, Y: 0.26})
	if !m.PutLabel(canvas, cam, east, "LONGNAME", StyleLabel) {
		t.Fatal("edge label anchor is on screen")
	}
	if row := canvas.Row(5); !strings.HasSuffix(row, "LO") {
		t.Errorf("row 5 = %q", row)
	}
}

func TestPaletteFromHex(t *testing.T) {
	p, err := NewPalette([]string{"#102030", "#ff0000"})
	if err != nil {
		t.Fatalf("NewPalette: %v", err)
	}
	if p.Style(TagRoute) == p.Style(TagTerrain) {
		t.Error("route and terrain should differ")
	}
	if p.Style(TagGrid) != p.Style(TagTerrain) {
		t.Error("missing tag should fall back to terrain")
	}

	if _, err := NewPalette([]string{"chartreuse-ish"}); err == nil {
		t.Error("expected error for bad hex colour")
	}
}

func TestPutStringClipsAndSkipsOutOfBounds(t *testing.T) {
	c := NewCanvas(5, 2)
	end := PutString(c, 2, 0, "abcdef", StyleLabel)
	if c.Row(0) != "  abc" || end != 5 {
		t.Errorf("row = %q end = %d", c.Row(0), end)
	}
	Put(c, -1, 0, 'x', StyleLabel)
	Put(c, 0, 7, 'x', StyleLabel)
	if c.Row(1) != "     " {
		t.Errorf("out of bounds write leaked: %q", c.Row(1))
	}
}
