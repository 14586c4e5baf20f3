package render

import (
	"math"

	"asciiflight/internal/geo"
)

// Quadrant is one of the four sub-cells of a character cell
type Quadrant uint8

const (
	TopLeft Quadrant = 1 << iota
	TopRight
	BottomLeft
	BottomRight
)

// Tag selects the palette style of a cell
type Tag uint8

const (
	TagTerrain Tag = iota
	TagRoute
	TagGrid
)

// GlyphTable maps a 4-bit quadrant mask to the character that best
// approximates it.
type GlyphTable [16]rune

// ASCIIGlyphs approximates quadrant patterns with plain ASCII
var ASCIIGlyphs = GlyphTable{
	' ', '`', '\'', '"', ',', ':', '/', 'F',
	'.', '\\', ':', '\\', '_', 'b', 'd', '-',
}

// BlockGlyphs uses the Unicode quadrant block elements
var BlockGlyphs = GlyphTable{
	' ', '▘', '▝', '▀', '▖', '▌', '▞', '▛',
	'▗', '▚', '▐', '▜', '▄', '▙', '▟', '█',
}

// Cell is one character cell of the framebuffer
type Cell struct {
	Quadrants Quadrant
	Tag       Tag
}

// Empty reports whether no quadrant is set
func (c Cell) Empty() bool {
	return c.Quadrants&0xF == 0
}

// Glyph returns the character for this cell's quadrant pattern
func (c Cell) Glyph(table *GlyphTable) rune {
	return table[c.Quadrants&0xF]
}

// FrameBuffer accumulates sub-cell plots for one frame. Each character cell
// is split into a 2x2 grid, doubling the effective resolution; Scanout
// folds the grid back into one glyph per cell and empties the buffer.
type FrameBuffer struct {
	width  int
	height int
	margin int
	cells  []Cell
	dirty  bool
	glyphs *GlyphTable
}

// NewFrameBuffer creates an empty framebuffer. The buffer is margin cells
// smaller than the display in each direction.
func NewFrameBuffer(margin int, glyphs *GlyphTable) *FrameBuffer {
	if glyphs == nil {
		glyphs = &ASCIIGlyphs
	}
	return &FrameBuffer{
		margin: margin,
		glyphs: glyphs,
	}
}

// Width returns the buffer width in cells
func (f *FrameBuffer) Width() int {
	return f.width
}

// Height returns the buffer height in cells
func (f *FrameBuffer) Height() int {
	return f.height
}

// Resize reallocates the cells for a display of w by h, but only when the
// size actually changed. Reports whether a reallocation happened.
func (f *FrameBuffer) Resize(displayW, displayH int) bool {
	w := max(displayW-f.margin, 0)
	h := max(displayH-f.margin, 0)
	if w == f.width && h == f.height && f.cells != nil {
		return false
	}

	f.width = w
	f.height = h
	f.cells = make([]Cell, w*h)
	f.dirty = false
	return true
}

// Clear prepares the buffer for a new frame on a display of w by h. Scanout
// already empties every cell, so this only wipes when something was drawn
// without being scanned out.
func (f *FrameBuffer) Clear(displayW, displayH int) {
	if f.Resize(displayW, displayH) || !f.dirty {
		return
	}
	clear(f.cells)
	f.dirty = false
}

// Cell returns the cell at x, y, or an empty cell when out of range
func (f *FrameBuffer) Cell(x, y int) Cell {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return Cell{}
	}
	return f.cells[y*f.width+x]
}

// Plot sets the sub-cell under a clip space point
func (f *FrameBuffer) Plot(p geo.ClipPoint, tag Tag) {
	f.plotCell(p.X*float64(f.width), p.Y*float64(f.height), tag)
}

// plotCell sets the quadrant of cell (floor(x), floor(y)) picked by the
// fractional part of x and y. Out of range or NaN positions are dropped.
func (f *FrameBuffer) plotCell(x, y float64, tag Tag) {
	if !(x >= 0 && y >= 0 && x < float64(f.width) && y < float64(f.height)) {
		return
	}

	cx, fx := math.Modf(x)
	cy, fy := math.Modf(y)

	q := TopLeft
	if fx >= 0.5 {
		q <<= 1
	}
	if fy >= 0.5 {
		q <<= 2
	}

	i := int(cy)*f.width + int(cx)
	f.cells[i].Quadrants |= q
	f.cells[i].Tag = tag
	f.dirty = true
}

// Line rasterizes a segment between two clip space points with a DDA walk
// over the sub-cell grid. Both endpoints are always plotted so rounding
// never leaves a gap at the ends.
func (f *FrameBuffer) Line(a, b geo.ClipPoint, tag Tag) {
	a, b, ok := clipSegment(a, b)
	if !ok {
		return
	}

	sw := float64(f.width * 2)
	sh := float64(f.height * 2)
	ax, ay := a.X*sw, a.Y*sh
	bx, by := b.X*sw, b.Y*sh

	dx := bx - ax
	dy := by - ay
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))

	if steps > 0 {
		xinc := dx / float64(steps)
		yinc := dy / float64(steps)
		x, y := ax, ay
		for i := 0; i <= steps; i++ {
			f.plotCell(x*0.5, y*0.5, tag)
			x += xinc
			y += yinc
		}
	}

	f.plotCell(ax*0.5, ay*0.5, tag)
	f.plotCell(bx*0.5, by*0.5, tag)
}

// clipMargin lets clipped endpoints land just outside the screen so the
// visible part of the line still reaches the border.
const clipMargin = 0.01

// clipSegment trims a segment to the slightly enlarged unit square
// (Liang-Barsky). Without it a segment spanning thousands of screens at deep
// zoom would be walked sub-cell by sub-cell.
func clipSegment(a, b geo.ClipPoint) (geo.ClipPoint, geo.ClipPoint, bool) {
	const lo, hi = -clipMargin, 1 + clipMargin

	dx := b.X - a.X
	dy := b.Y - a.Y
	t0, t1 := 0.0, 1.0

	edges := [4][2]float64{
		{-dx, a.X - lo},
		{dx, hi - a.X},
		{-dy, a.Y - lo},
		{dy, hi - a.Y},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return a, b, false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return a, b, false
			}
			t1 = math.Min(t1, r)
		}
	}

	if math.IsNaN(t0) || math.IsNaN(t1) {
		return a, b, false
	}

	return geo.ClipPoint{X: a.X + t0*dx, Y: a.Y + t0*dy},
		geo.ClipPoint{X: a.X + t1*dx, Y: a.Y + t1*dy},
		true
}

// Scanout writes every cell to the surface as one glyph and resets the
// buffer. Text meant to sit on top of the map has to be written after this.
func (f *FrameBuffer) Scanout(s Surface, palette *Palette) {
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			i := y*f.width + x
			cell := f.cells[i]
			if cell.Empty() {
				Put(s, x, y, ' ', palette.Blank())
			} else {
				Put(s, x, y, cell.Glyph(f.glyphs), palette.Style(cell.Tag))
			}
			f.cells[i] = Cell{}
		}
	}
	f.dirty = false
}

// PlottedCells counts non-empty cells. Used by tests and stats.
func (f *FrameBuffer) PlottedCells() int {
	n := 0
	for _, c := range f.cells {
		if !c.Empty() {
			n++
		}
	}
	return n
}
