package poi

import (
	"context"
	"errors"
	"slices"
	"strings"

	"asciiflight/internal/geo"
)

// ErrNotFound is returned when an identifier resolves to no place
var ErrNotFound = errors.New("place not found")

// Category groups places that share a zoom threshold and style
type Category int

const (
	CategoryAirport Category = iota
	CategoryCity
)

func (c Category) String() string {
	switch c {
	case CategoryAirport:
		return "airport"
	case CategoryCity:
		return "city"
	default:
		return "unknown"
	}
}

// Place is a labelled point of interest
type Place struct {
	Ident    string
	Name     string
	Category Category
	Kind     string
	Point    geo.GeoPoint
	Rank     int
}

// Label returns the text drawn next to the place marker
func (p Place) Label() string {
	if p.Category == CategoryAirport {
		return "● " + p.Ident
	}
	return p.Name
}

// Query selects places of one category inside a geographic box at a zoom
type Query struct {
	Category Category
	Bounds   geo.Bounds
	Zoom     float64
	Limit    int
}

// Source supplies places on demand
type Source interface {
	Places(ctx context.Context, q Query) ([]Place, error)
	Locate(ctx context.Context, ident string) (Place, error)
}

// LevelOfDetail holds the zoom at or below which each category is shown.
// A smaller zoom means the camera is closer to the ground.
type LevelOfDetail struct {
	AirportZoom float64
	CityZoom    float64
}

// DefaultLevelOfDetail shows airports from zoom 15 and cities from zoom 5
var DefaultLevelOfDetail = LevelOfDetail{AirportZoom: 15, CityZoom: 5}

// Allows reports whether a category is visible at zoom
func (l LevelOfDetail) Allows(c Category, zoom float64) bool {
	switch c {
	case CategoryAirport:
		return zoom <= l.AirportZoom
	case CategoryCity:
		return zoom <= l.CityZoom
	default:
		return false
	}
}

type lodSource struct {
	Source
	lod LevelOfDetail
}

// WithLevelOfDetail wraps a source so queries above the category's zoom
// threshold return nothing without touching the underlying source.
func WithLevelOfDetail(src Source, lod LevelOfDetail) Source {
	return &lodSource{Source: src, lod: lod}
}

func (s *lodSource) Places(ctx context.Context, q Query) ([]Place, error) {
	if !s.lod.Allows(q.Category, q.Zoom) {
		return nil, nil
	}
	return s.Source.Places(ctx, q)
}

// MemorySource serves places held in memory
type MemorySource struct {
	places  []Place
	byIdent map[string]int
}

// NewMemorySource creates a source over places. Places are ranked so the
// most important come first when a query has a limit.
func NewMemorySource(places ...[]Place) *MemorySource {
	var all []Place
	for _, p := range places {
		all = append(all, p...)
	}
	slices.SortStableFunc(all, func(a, b Place) int {
		return b.Rank - a.Rank
	})

	byIdent := make(map[string]int, len(all))
	for i, p := range all {
		if p.Ident != "" {
			byIdent[strings.ToUpper(p.Ident)] = i
		}
	}
	return &MemorySource{places: all, byIdent: byIdent}
}

// Places returns the places of q.Category inside q.Bounds
func (m *MemorySource) Places(_ context.Context, q Query) ([]Place, error) {
	var out []Place
	for _, p := range m.places {
		if p.Category != q.Category || !q.Bounds.Contains(p.Point) {
			continue
		}
		out = append(out, p)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

// Locate finds a place by identifier, case-insensitively
func (m *MemorySource) Locate(_ context.Context, ident string) (Place, error) {
	i, ok := m.byIdent[strings.ToUpper(strings.TrimSpace(ident))]
	if !ok {
		return Place{}, ErrNotFound
	}
	return m.places[i], nil
}

// Ranked is a place with its distance from a reference point
type Ranked struct {
	Place
	DistanceKm float64
}

// SortByDistance orders places by great-circle distance from origin,
// nearest first.
func SortByDistance(places []Place, origin geo.GeoPoint) []Ranked {
	out := make([]Ranked, len(places))
	for i, p := range places {
		out[i] = Ranked{Place: p, DistanceKm: geo.Distance(origin, p.Point)}
	}
	slices.SortStableFunc(out, func(a, b Ranked) int {
		switch {
		case a.DistanceKm < b.DistanceKm:
			return -1
		case a.DistanceKm > b.DistanceKm:
			return 1
		default:
			return 0
		}
	})
	return out
}

type multiSource []Source

// Combine merges several sources. Places concatenates their results and
// Locate returns the first match.
func Combine(sources ...Source) Source {
	return multiSource(sources)
}

func (m multiSource) Places(ctx context.Context, q Query) ([]Place, error) {
	var out []Place
	for _, src := range m {
		places, err := src.Places(ctx, q)
		if err != nil {
			return out, err
		}
		out = append(out, places...)
	}
	return out, nil
}

func (m multiSource) Locate(ctx context.Context, ident string) (Place, error) {
	for _, src := range m {
		p, err := src.Locate(ctx, ident)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return p, err
	}
	return Place{}, ErrNotFound
}
