package render

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultPaletteHex holds the tag colours: terrain, route, grid
var DefaultPaletteHex = []string{"#ffffff", "#ff5555", "#55ff55"}

// Style definitions for text drawn on top of the map
var (
	StyleLabel        = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	StyleAirport      = tcell.StyleDefault.Foreground(tcell.ColorOrange)
	StyleCity         = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	StylePanel        = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	StyleListItem     = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	StyleListSelected = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	StyleMarker       = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
)

// Palette maps framebuffer tags to terminal styles
type Palette struct {
	styles []tcell.Style
	blank  tcell.Style
}

// NewPalette builds a palette from hex colours, one per tag in tag order
func NewPalette(hexColors []string) (*Palette, error) {
	styles := make([]tcell.Style, 0, len(hexColors))
	for i, hex := range hexColors {
		c, err := colorful.Hex(hex)
		if err != nil {
			return nil, fmt.Errorf("palette entry %d %q: %w", i, hex, err)
		}
		r, g, b := c.RGB255()
		fg := tcell.NewRGBColor(int32(r), int32(g), int32(b))
		styles = append(styles, tcell.StyleDefault.Foreground(fg))
	}

	return &Palette{
		styles: styles,
		blank:  tcell.StyleDefault,
	}, nil
}

// DefaultPalette returns the built-in palette
func DefaultPalette() *Palette {
	p, err := NewPalette(DefaultPaletteHex)
	if err != nil {
		panic(err)
	}
	return p
}

// Style returns the style for a tag. Tags without an entry fall back to the
// terrain colour.
func (p *Palette) Style(tag Tag) tcell.Style {
	if int(tag) < len(p.styles) {
		return p.styles[tag]
	}
	if len(p.styles) > 0 {
		return p.styles[0]
	}
	return tcell.StyleDefault
}

// Blank returns the style used for empty cells
func (p *Palette) Blank() tcell.Style {
	return p.blank
}
