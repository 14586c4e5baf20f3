package ui

import (
	"fmt"

	"asciiflight/internal/poi"
	"asciiflight/internal/render"

	"github.com/mattn/go-runewidth"
)

// ListView displays a scrollable list of places sorted by distance from the
// route origin
type ListView struct {
	places        []poi.Ranked
	selectedIndex int
	selectedKey   string
	scrollOffset  int
	maxVisible    int
	x, y          int
	width, height int
}

// NewListView creates a new place list view
func NewListView(x, y, width, height int) *ListView {
	l := &ListView{selectedIndex: -1}
	l.UpdateDimensions(x, y, width, height)
	return l
}

func placeKey(p poi.Place) string {
	return p.Category.String() + "/" + p.Ident + "/" + p.Name
}

// Update refreshes the list. The selection follows the selected place when
// it is still present and is dropped otherwise.
func (l *ListView) Update(places []poi.Ranked) {
	l.places = places
	l.selectedIndex = -1
	if l.selectedKey != "" {
		for i, p := range places {
			if placeKey(p.Place) == l.selectedKey {
				l.selectedIndex = i
				break
			}
		}
		if l.selectedIndex < 0 {
			l.selectedKey = ""
		}
	}
	l.adjustScroll()
}

// SelectNext moves selection down
func (l *ListView) SelectNext() {
	if l.selectedIndex < len(l.places)-1 {
		l.selectedIndex++
		l.selectedKey = placeKey(l.places[l.selectedIndex].Place)
		l.adjustScroll()
	}
}

// SelectPrev moves selection up; moving above the first entry clears it
func (l *ListView) SelectPrev() {
	if l.selectedIndex >= 0 {
		l.selectedIndex--
		l.selectedKey = ""
		if l.selectedIndex >= 0 {
			l.selectedKey = placeKey(l.places[l.selectedIndex].Place)
		}
		l.adjustScroll()
	}
}

// ClearSelection deselects any place
func (l *ListView) ClearSelection() {
	l.selectedIndex = -1
	l.selectedKey = ""
	l.adjustScroll()
}

// adjustScroll adjusts scroll offset to keep selected item visible
func (l *ListView) adjustScroll() {
	if l.selectedIndex >= l.scrollOffset+l.maxVisible {
		l.scrollOffset = l.selectedIndex - l.maxVisible + 1
	}
	if l.selectedIndex >= 0 && l.selectedIndex < l.scrollOffset {
		l.scrollOffset = l.selectedIndex
	}
	l.scrollOffset = max(0, min(l.scrollOffset, len(l.places)-l.maxVisible))
}

// GetSelected returns the currently selected place
func (l *ListView) GetSelected() *poi.Ranked {
	if l.selectedIndex >= 0 && l.selectedIndex < len(l.places) {
		return &l.places[l.selectedIndex]
	}
	return nil
}

// Draw renders the list view
func (l *ListView) Draw(s render.Surface) {
	render.DrawBox(s, l.x, l.y, l.width, l.height, render.StyleLabel)

	title := fmt.Sprintf(" Places (%d) ", len(l.places))
	render.PutString(s, l.x+(l.width-runewidth.StringWidth(title))/2, l.y, title, render.StyleLabel)

	inner := l.width - 2
	visibleCount := min(l.maxVisible, len(l.places)-l.scrollOffset)
	for i := 0; i < visibleCount; i++ {
		idx := l.scrollOffset + i
		style := render.StyleListItem
		if idx == l.selectedIndex {
			style = render.StyleListSelected
		}

		text := runewidth.FillRight(runewidth.Truncate(listLine(l.places[idx], inner), inner, "…"), inner)
		render.PutString(s, l.x+1, l.y+i+1, text, style)
	}

	if len(l.places) > l.maxVisible {
		render.Put(s, l.x+l.width-2, l.y, '↕', render.StyleLabel)
	}
}

// listLine formats one entry: name on the left, distance right-aligned
func listLine(r poi.Ranked, width int) string {
	name := r.Name
	if r.Category == poi.CategoryAirport && r.Ident != "" {
		name = r.Ident + " " + r.Name
	}
	dist := fmt.Sprintf("%6.0f km", r.DistanceKm)
	room := width - len(dist) - 1
	if room < 1 {
		return dist
	}
	return runewidth.FillRight(runewidth.Truncate(name, room, "…"), room) + " " + dist
}

// UpdateDimensions updates the view dimensions
func (l *ListView) UpdateDimensions(x, y, width, height int) {
	l.x = x
	l.y = y
	l.width = width
	l.height = height
	l.maxVisible = max(height-2, 1)
	l.adjustScroll()
}
