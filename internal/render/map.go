package render

import (
	"log/slog"
	"math"

	"asciiflight/internal/geo"

	"github.com/gdamore/tcell/v2"
)

// FrameStats summarizes the culling work of one DrawMap call
type FrameStats struct {
	Shapes         int
	ShapesCulled   int
	Segments       int
	SegmentsCulled int
	CellsPlotted   int
}

// StatsObserver receives per-frame statistics
type StatsObserver interface {
	ObserveFrame(FrameStats)
}

// MapRenderer owns the boundary shapes and rasterizes them, routes and the
// graticule into a framebuffer.
type MapRenderer struct {
	shapes   []geo.Shape
	fb       *FrameBuffer
	palette  *Palette
	observer StatsObserver
	last     FrameStats
}

// NewMapRenderer creates a new map renderer
func NewMapRenderer(shapes []geo.Shape, fb *FrameBuffer, palette *Palette) *MapRenderer {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &MapRenderer{
		shapes:  shapes,
		fb:      fb,
		palette: palette,
	}
}

// SetObserver registers a receiver for frame statistics
func (m *MapRenderer) SetObserver(o StatsObserver) {
	m.observer = o
}

// FrameBuffer returns the framebuffer being drawn into
func (m *MapRenderer) FrameBuffer() *FrameBuffer {
	return m.fb
}

// LastStats returns the statistics of the most recent DrawMap
func (m *MapRenderer) LastStats() FrameStats {
	return m.last
}

// DrawMap starts a frame on a display of the surface's size: it clears the
// framebuffer, refreshes the camera viewport and rasterizes every boundary
// shape that survives culling.
func (m *MapRenderer) DrawMap(cam *geo.Camera, s Surface) {
	m.fb.Clear(s.Size())
	cam.UpdateViewport(m.fb.Width(), m.fb.Height())

	stats := FrameStats{Shapes: len(m.shapes)}
	viewport := cam.Viewport()

	for i := range m.shapes {
		shape := &m.shapes[i]

		// Coarse cull on the projected geographic bounding box.
		bmin := cam.Projector.Project(geo.Pt(shape.Bounds.MinLon, shape.Bounds.MinLat))
		bmax := cam.Projector.Project(geo.Pt(shape.Bounds.MaxLon, shape.Bounds.MaxLat))
		if !viewport.Intersects(bmin, bmax) {
			stats.ShapesCulled++
			continue
		}

		for _, part := range shape.Parts {
			if len(part) < 2 {
				continue
			}
			prev := cam.Project(part[0])
			for _, p := range part[1:] {
				cur := cam.Project(p)
				stats.Segments++

				if segmentOffscreen(prev, cur) {
					stats.SegmentsCulled++
					prev = cur
					continue
				}

				m.fb.Line(prev, cur, TagTerrain)
				// Reinforce the vertex so small islands stay visible zoomed out.
				m.fb.Plot(cur, TagTerrain)
				prev = cur
			}
		}
	}

	stats.CellsPlotted = m.fb.PlottedCells()
	m.last = stats
	if m.observer != nil {
		m.observer.ObserveFrame(stats)
	}
	slog.Debug("map drawn",
		"shapes", stats.Shapes,
		"shapes_culled", stats.ShapesCulled,
		"segments", stats.Segments,
		"segments_culled", stats.SegmentsCulled)
}

// segmentOffscreen reports whether the segment's clip space bounding box lies
// entirely outside the unit square.
func segmentOffscreen(a, b geo.ClipPoint) bool {
	minX, maxX := math.Min(a.X, b.X), math.Max(a.X, b.X)
	minY, maxY := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return maxX < 0 || minX > 1 || maxY < 0 || minY > 1
}

// DrawWaypoints connects consecutive points with route-tagged lines
func (m *MapRenderer) DrawWaypoints(cam *geo.Camera, points []geo.GeoPoint) {
	m.drawPolyline(cam, points, TagRoute)
}

// DrawGraticule draws meridians and parallels every step degrees
func (m *MapRenderer) DrawGraticule(cam *geo.Camera, step float64) {
	if step <= 0 {
		return
	}

	const res = 2.0
	for lon := -180.0; lon <= 180.0; lon += step {
		var line []geo.GeoPoint
		for lat := -90.0; lat <= 90.0; lat += res {
			line = append(line, geo.Pt(lon, lat))
		}
		m.drawPolyline(cam, line, TagGrid)
	}
	for lat := -90.0 + step; lat < 90.0; lat += step {
		var line []geo.GeoPoint
		for lon := -180.0; lon <= 180.0; lon += res {
			line = append(line, geo.Pt(lon, lat))
		}
		m.drawPolyline(cam, line, TagGrid)
	}
}

func (m *MapRenderer) drawPolyline(cam *geo.Camera, points []geo.GeoPoint, tag Tag) {
	if len(points) < 2 {
		return
	}
	last := cam.Project(points[0])
	for _, p := range points[1:] {
		cur := cam.Project(p)
		m.fb.Line(last, cur, tag)
		last = cur
	}
}

// Scanout flushes the framebuffer onto the surface
func (m *MapRenderer) Scanout(s Surface) {
	m.fb.Scanout(s, m.palette)
}

// PutLabel writes text at the cell under a geographic point. Text bypasses
// the framebuffer, so it must be written after Scanout or it would be
// overwritten. Returns false when the anchor is off-screen.
func (m *MapRenderer) PutLabel(s Surface, cam *geo.Camera, p geo.GeoPoint, text string, style tcell.Style) bool {
	clip := cam.Project(p)
	if !clip.Visible() {
		return false
	}

	x := int(clip.X * float64(m.fb.Width()))
	y := int(clip.Y * float64(m.fb.Height()))
	PutString(s, x, y, text, style)
	return true
}
