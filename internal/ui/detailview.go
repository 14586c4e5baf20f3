package ui

import (
	"fmt"

	"asciiflight/internal/geo"
	"asciiflight/internal/render"

	"github.com/mattn/go-runewidth"
)

// InfoState is what the info panel shows
type InfoState struct {
	Origin     geo.GeoPoint
	Center     geo.GeoPoint
	Zoom       float64
	Mercator   bool
	Target     string
	RouteKm    float64
	Travelling bool
}

// DetailView displays the route and camera state
type DetailView struct {
	state         InfoState
	x, y          int
	width, height int
}

// NewDetailView creates a new detail view
func NewDetailView(x, y, width, height int) *DetailView {
	return &DetailView{
		x:      x,
		y:      y,
		width:  width,
		height: height,
	}
}

// SetState sets the values to display
func (d *DetailView) SetState(s InfoState) {
	d.state = s
}

func formatPoint(p geo.GeoPoint) string {
	ns, ew := 'N', 'E'
	lat, lon := p.Lat, p.Lon
	if lat < 0 {
		ns, lat = 'S', -lat
	}
	if lon < 0 {
		ew, lon = 'W', -lon
	}
	return fmt.Sprintf("%7.3f%c %8.3f%c", lat, ns, lon, ew)
}

// Lines returns the panel text
func (d *DetailView) Lines() []string {
	s := d.state
	projection := "Mercator"
	if !s.Mercator {
		projection = "Lon/Lat"
	}
	target := s.Target
	if target == "" {
		target = "camera center"
	}
	status := "Roaming"
	if s.Travelling {
		status = "Travelling (Esc to stop)"
	}

	return []string{
		fmt.Sprintf("Origin:     %s", formatPoint(s.Origin)),
		fmt.Sprintf("Center:     %s", formatPoint(s.Center)),
		fmt.Sprintf("Zoom:       %.3g", s.Zoom),
		fmt.Sprintf("Projection: %s", projection),
		fmt.Sprintf("Target:     %s", target),
		fmt.Sprintf("Route:      %.0f km", s.RouteKm),
		status,
	}
}

// Draw renders the detail view
func (d *DetailView) Draw(s render.Surface) {
	render.DrawBox(s, d.x, d.y, d.width, d.height, render.StyleLabel)

	title := " Route "
	render.PutString(s, d.x+(d.width-len(title))/2, d.y, title, render.StyleLabel)

	right := d.x + d.width - 1
	for i, line := range d.Lines() {
		y := d.y + 1 + i
		if y >= d.y+d.height-1 {
			break
		}
		d.drawLine(s, d.x+2, y, right, line)
	}

	help := " wasd pan  z/x zoom  e origin  ⏎ fly  q quit "
	render.PutString(s, d.x+1, d.y+d.height-1, help, render.StyleLabel.Dim(true))
}

// drawLine writes text between x and the right border, cut by display width
func (d *DetailView) drawLine(s render.Surface, x, y, right int, text string) {
	if right <= x {
		return
	}
	render.PutString(s, x, y, runewidth.Truncate(text, right-x, ""), render.StylePanel)
}

// UpdateDimensions updates the view dimensions
func (d *DetailView) UpdateDimensions(x, y, width, height int) {
	d.x = x
	d.y = y
	d.width = width
	d.height = height
}
