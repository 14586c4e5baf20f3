package geo

import (
	"math"
)

// ClipPoint is a normalized view coordinate. (0, 0) is the top-left corner
// of the display and (1, 1) the bottom-right; anything outside [0, 1) is
// off-screen and must not be plotted.
type ClipPoint struct {
	X float64
	Y float64
}

// Visible reports whether the point falls on screen
func (c ClipPoint) Visible() bool {
	return c.X >= 0 && c.X < 1 && c.Y >= 0 && c.Y < 1
}

// Viewport is the visible rectangle in projected space
type Viewport struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Intersects checks whether the projected box [min, max] overlaps the viewport
func (v Viewport) Intersects(min, max ProjectedPoint) bool {
	if max.X < v.MinX || min.X > v.MaxX {
		return false
	}
	if max.Y < v.MinY || min.Y > v.MaxY {
		return false
	}
	return true
}

// Camera holds the view center, zoom and aspect ratio and converts
// geographic points to clip space. Zoom is the half-height of the view in
// projected degrees.
type Camera struct {
	Center    GeoPoint
	Zoom      float64
	Projector Projector

	aspect   float64
	viewport Viewport
}

// NewCamera creates a camera looking at center. UpdateViewport must run
// before the first Project.
func NewCamera(center GeoPoint, zoom float64) *Camera {
	return &Camera{
		Center: center,
		Zoom:   zoom,
		aspect: 1.0,
	}
}

// UpdateViewport recomputes the aspect ratio and the projected viewport for
// a display of w by h cells. Character cells are roughly twice as tall as
// wide, hence the halving. Call once per frame, after any pan or zoom.
func (c *Camera) UpdateViewport(w, h int) {
	if w > 0 && h > 0 {
		c.aspect = float64(w) / float64(h) / 2.0
	}

	center := c.Projector.Project(c.Center)
	c.viewport = Viewport{
		MinX: center.X - c.Zoom*c.aspect,
		MinY: center.Y - c.Zoom,
		MaxX: center.X + c.Zoom*c.aspect,
		MaxY: center.Y + c.Zoom,
	}
}

// Project converts a geographic point to clip space.
// Y is inverted: north is up, but row 0 is the top of the screen.
func (c *Camera) Project(p GeoPoint) ClipPoint {
	return c.ProjectMercator(c.Projector.Project(p))
}

// ProjectMercator converts an already projected point to clip space
func (c *Camera) ProjectMercator(pp ProjectedPoint) ClipPoint {
	v := c.viewport
	return ClipPoint{
		X: (pp.X - v.MinX) / (v.MaxX - v.MinX),
		Y: 1.0 - (pp.Y-v.MinY)/(v.MaxY-v.MinY),
	}
}

// Unproject converts a clip space point back to geographic coordinates
func (c *Camera) Unproject(cp ClipPoint) GeoPoint {
	v := c.viewport
	pp := ProjectedPoint{
		X: v.MinX + cp.X*(v.MaxX-v.MinX),
		Y: v.MinY + (1.0-cp.Y)*(v.MaxY-v.MinY),
	}
	return c.Projector.Unproject(pp)
}

// Viewport returns the projected box computed by the last UpdateViewport
func (c *Camera) Viewport() Viewport {
	return c.viewport
}

// Aspect returns the aspect ratio computed by the last UpdateViewport
func (c *Camera) Aspect() float64 {
	return c.aspect
}

// VisibleBounds returns the geographic area covered by the viewport,
// clamped to the valid coordinate range.
func (c *Camera) VisibleBounds() Bounds {
	topLeft := c.Unproject(ClipPoint{X: 0, Y: 0})
	bottomRight := c.Unproject(ClipPoint{X: 1, Y: 1})

	return Bounds{
		MinLon: math.Max(-180, math.Min(topLeft.Lon, bottomRight.Lon)),
		MinLat: math.Max(-90, math.Min(topLeft.Lat, bottomRight.Lat)),
		MaxLon: math.Min(180, math.Max(topLeft.Lon, bottomRight.Lon)),
		MaxLat: math.Min(90, math.Max(topLeft.Lat, bottomRight.Lat)),
	}
}

// Pan moves the center by (dx, dy) view half-heights, so the on-screen
// speed is the same at every zoom level.
func (c *Camera) Pan(dx, dy float64) {
	c.Center = GeoPoint{
		Lon: c.Center.Lon + dx*c.Zoom,
		Lat: c.Center.Lat + dy*c.Zoom,
	}.Normalize()
}

// ZoomBy multiplies the zoom. Clamping to a positive range is up to the
// input handler.
func (c *Camera) ZoomBy(factor float64) {
	c.Zoom *= factor
}
