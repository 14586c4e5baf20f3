package render

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Surface is a character grid addressed by column and row. tcell.Screen
// satisfies it, and so does Canvas.
type Surface interface {
	SetContent(x, y int, mainc rune, combc []rune, style tcell.Style)
	Size() (width, height int)
}

// Put writes one cell after checking it is inside the surface. Writes that
// would land outside, e.g. after a resize race, are dropped.
func Put(s Surface, x, y int, ch rune, style tcell.Style) {
	w, h := s.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	s.SetContent(x, y, ch, nil, style)
}

// PutString writes text starting at x, y and returns the column after it.
// Wide runes take two columns; anything past the right edge is cut.
func PutString(s Surface, x, y int, text string, style tcell.Style) int {
	w, _ := s.Size()
	for _, ch := range text {
		cw := runewidth.RuneWidth(ch)
		if cw == 0 {
			continue
		}
		if x+cw > w {
			break
		}
		Put(s, x, y, ch, style)
		x += cw
	}
	return x
}

// Canvas is an off-screen Surface. A frame is composed on it and blitted to
// the terminal in one pass.
type Canvas struct {
	width  int
	height int
	cells  [][]CanvasCell
}

// CanvasCell is a single character cell with style
type CanvasCell struct {
	Char  rune
	Style tcell.Style
}

// NewCanvas creates a new blank canvas
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{}
	c.Resize(width, height)
	return c
}

// Resize reallocates the canvas when the size changed
func (c *Canvas) Resize(width, height int) {
	if c.cells != nil && width == c.width && height == c.height {
		return
	}
	c.width = max(width, 0)
	c.height = max(height, 0)
	c.cells = make([][]CanvasCell, c.height)
	for i := range c.cells {
		c.cells[i] = make([]CanvasCell, c.width)
	}
	c.Clear()
}

// SetContent implements Surface
func (c *Canvas) SetContent(x, y int, mainc rune, _ []rune, style tcell.Style) {
	if x >= 0 && x < c.width && y >= 0 && y < c.height {
		c.cells[y][x] = CanvasCell{Char: mainc, Style: style}
	}
}

// Size implements Surface
func (c *Canvas) Size() (int, int) {
	return c.width, c.height
}

// Get retrieves the cell at the given position
func (c *Canvas) Get(x, y int) CanvasCell {
	if x >= 0 && x < c.width && y >= 0 && y < c.height {
		return c.cells[y][x]
	}
	return CanvasCell{Char: ' ', Style: tcell.StyleDefault}
}

// Clear resets the entire canvas to spaces with default style
func (c *Canvas) Clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = CanvasCell{Char: ' ', Style: tcell.StyleDefault}
		}
	}
}

// Row returns the characters of row y as a string, for tests and debugging
func (c *Canvas) Row(y int) string {
	if y < 0 || y >= c.height {
		return ""
	}
	row := make([]rune, c.width)
	for x, cell := range c.cells[y] {
		row[x] = cell.Char
	}
	return string(row)
}

// Blit copies the canvas to another surface at the given offset
func (c *Canvas) Blit(dst Surface, offsetX, offsetY int) {
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			cell := c.cells[y][x]
			Put(dst, offsetX+x, offsetY+y, cell.Char, cell.Style)
		}
	}
}

// DrawBox draws a box outline using box-drawing characters and blanks its
// interior so panels are opaque over the map.
func DrawBox(s Surface, x, y, width, height int, style tcell.Style) {
	if width < 2 || height < 2 {
		return
	}

	for row := y + 1; row < y+height-1; row++ {
		for col := x + 1; col < x+width-1; col++ {
			Put(s, col, row, ' ', tcell.StyleDefault)
		}
	}

	Put(s, x, y, '┌', style)
	Put(s, x+width-1, y, '┐', style)
	Put(s, x, y+height-1, '└', style)
	Put(s, x+width-1, y+height-1, '┘', style)

	for i := 1; i < width-1; i++ {
		Put(s, x+i, y, '─', style)
		Put(s, x+i, y+height-1, '─', style)
	}

	for i := 1; i < height-1; i++ {
		Put(s, x, y+i, '│', style)
		Put(s, x+width-1, y+i, '│', style)
	}
}
