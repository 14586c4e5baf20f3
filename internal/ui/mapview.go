package ui

import (
	"context"
	"log/slog"
	"time"

	"asciiflight/internal/geo"
	"asciiflight/internal/poi"
	"asciiflight/internal/render"
)

// poiTimeout bounds a single place lookup so a slow database cannot stall
// the frame loop
const poiTimeout = 250 * time.Millisecond

// placeLimit caps labels per category per frame
const placeLimit = 200

// GraticuleStep is the spacing of the optional lat/lon grid in degrees
const GraticuleStep = 30.0

// MapView owns the camera, framebuffer and boundary renderer and composes
// one frame onto an off-screen canvas.
type MapView struct {
	camera    *geo.Camera
	renderer  *render.MapRenderer
	canvas    *render.Canvas
	places    poi.Source
	graticule bool
	steps     int

	origin geo.GeoPoint
	route  []geo.GeoPoint

	// per category; a slot is only valid after its query succeeded
	lastQuery [2]poi.Query
	cached    [2]bool
	found     [2][]poi.Place
	visible   []poi.Place

	onPOIError func(category string)
}

// MapOptions configures a MapView. A nil Origin starts the route at Center.
type MapOptions struct {
	Center   geo.GeoPoint
	Origin   *geo.GeoPoint
	Zoom     float64
	Mercator bool
	Margin   int
	Unicode  bool
	Steps    int
	Palette  *render.Palette
}

// NewMapView creates a new map view
func NewMapView(width, height int, shapes []geo.Shape, places poi.Source, opts MapOptions) *MapView {
	glyphs := &render.ASCIIGlyphs
	if opts.Unicode {
		glyphs = &render.BlockGlyphs
	}
	fb := render.NewFrameBuffer(opts.Margin, glyphs)

	camera := geo.NewCamera(opts.Center, opts.Zoom)
	camera.Projector.Disabled = !opts.Mercator

	origin := opts.Center
	if opts.Origin != nil {
		origin = *opts.Origin
	}

	steps := opts.Steps
	if steps < 1 {
		steps = geo.DefaultGeodesicSteps
	}

	return &MapView{
		camera:   camera,
		renderer: render.NewMapRenderer(shapes, fb, opts.Palette),
		canvas:   render.NewCanvas(width, height),
		places:   places,
		steps:    steps,
		origin:   origin,
	}
}

// Camera returns the view's camera
func (m *MapView) Camera() *geo.Camera {
	return m.camera
}

// Canvas returns the off-screen frame
func (m *MapView) Canvas() *render.Canvas {
	return m.canvas
}

// SetObserver forwards per-frame statistics to o
func (m *MapView) SetObserver(o render.StatsObserver) {
	m.renderer.SetObserver(o)
}

// Origin returns the start of the planned route
func (m *MapView) Origin() geo.GeoPoint {
	return m.origin
}

// SetOrigin moves the start of the planned route
func (m *MapView) SetOrigin(p geo.GeoPoint) {
	m.origin = p
	slog.Debug("route origin set", "lon", p.Lon, "lat", p.Lat)
}

// ToggleGraticule shows or hides the lat/lon grid
func (m *MapView) ToggleGraticule() {
	m.graticule = !m.graticule
}

// ToggleProjection switches between Mercator and plain lon/lat
func (m *MapView) ToggleProjection() {
	m.camera.Projector.Disabled = !m.camera.Projector.Disabled
}

// Mercator reports whether the Mercator projection is active
func (m *MapView) Mercator() bool {
	return !m.camera.Projector.Disabled
}

// PreviewRoute returns the geodesic from the route origin to the camera
// center, which is drawn every frame while roaming.
func (m *MapView) PreviewRoute() []geo.GeoPoint {
	return geo.Geodesic(m.origin, m.camera.Center, m.steps)
}

// SetRoute overrides the drawn route; nil restores the live preview
func (m *MapView) SetRoute(route []geo.GeoPoint) {
	m.route = route
}

// VisiblePlaces returns the places labelled in the last frame
func (m *MapView) VisiblePlaces() []poi.Place {
	return m.visible
}

// Draw renders a complete frame: boundaries, grid, route, then labels on top
// of the scanned out map, and copies it to the screen.
func (m *MapView) Draw(screen render.Surface) {
	m.canvas.Resize(screen.Size())

	m.renderer.DrawMap(m.camera, m.canvas)
	if m.graticule {
		m.renderer.DrawGraticule(m.camera, GraticuleStep)
	}

	route := m.route
	if route == nil {
		route = m.PreviewRoute()
	}
	m.renderer.DrawWaypoints(m.camera, route)
	m.renderer.Scanout(m.canvas)

	m.drawPlaces()
	m.renderer.PutLabel(m.canvas, m.camera, m.origin, "✈", render.StyleMarker)
	m.drawCrosshair()

	m.canvas.Blit(screen, 0, 0)
}

// drawPlaces labels the airports and cities the source returns for the
// current view. Cities go first so airport labels win where they overlap.
func (m *MapView) drawPlaces() {
	if m.places == nil {
		m.visible = nil
		return
	}

	bounds := m.camera.VisibleBounds()
	queries := [2]poi.Query{
		{Category: poi.CategoryCity, Bounds: bounds, Zoom: m.camera.Zoom, Limit: placeLimit},
		{Category: poi.CategoryAirport, Bounds: bounds, Zoom: m.camera.Zoom, Limit: placeLimit},
	}

	changed := false
	for i, q := range queries {
		if m.cached[i] && q == m.lastQuery[i] {
			continue
		}
		changed = true

		ctx, cancel := context.WithTimeout(context.Background(), poiTimeout)
		found, err := m.places.Places(ctx, q)
		cancel()
		if err != nil {
			// Left uncached so the next frame retries.
			slog.Warn("place query failed", "category", q.Category, "err", err)
			if m.onPOIError != nil {
				m.onPOIError(q.Category.String())
			}
			m.cached[i] = false
			m.found[i] = nil
			continue
		}
		m.lastQuery[i] = q
		m.cached[i] = true
		m.found[i] = found
	}
	if changed {
		m.visible = append(m.visible[:0], m.found[0]...)
		m.visible = append(m.visible, m.found[1]...)
	}

	for _, p := range m.visible {
		style := render.StyleAirport
		if p.Category == poi.CategoryCity {
			style = render.StyleCity
		}
		m.renderer.PutLabel(m.canvas, m.camera, p.Point, p.Label(), style)
	}
}

func (m *MapView) drawCrosshair() {
	fb := m.renderer.FrameBuffer()
	render.Put(m.canvas, fb.Width()/2, fb.Height()/2, '+', render.StyleMarker)
}
