package poi

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"asciiflight/internal/geo"

	"github.com/jonas-p/go-shp"
)

// LoadCities reads point records from a Natural Earth populated places
// shapefile. Population, when present, becomes the rank.
func LoadCities(path string) ([]Place, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open populated places %s: %w", path, err)
	}
	defer reader.Close()

	fields := reader.Fields()
	nameIdx := geo.FieldIndex(fields, "NAME", "NAMEASCII", "NAME_EN")
	popIdx := geo.FieldIndex(fields, "POP_MAX", "POP_MIN")
	kindIdx := geo.FieldIndex(fields, "FEATURECLA")
	if nameIdx < 0 {
		return nil, fmt.Errorf("populated places %s: no name column", path)
	}

	var cities []Place
	for reader.Next() {
		n, s := reader.Shape()
		pt, ok := s.(*shp.Point)
		if !ok {
			continue
		}

		name := strings.TrimSpace(reader.ReadAttribute(n, nameIdx))
		if name == "" {
			continue
		}

		city := Place{
			Name:     name,
			Category: CategoryCity,
			Point:    geo.Pt(pt.X, pt.Y),
		}
		if popIdx >= 0 {
			pop, err := strconv.ParseFloat(strings.TrimSpace(reader.ReadAttribute(n, popIdx)), 64)
			if err == nil {
				city.Rank = int(pop)
			}
		}
		if kindIdx >= 0 {
			city.Kind = strings.TrimSpace(reader.ReadAttribute(n, kindIdx))
		}
		cities = append(cities, city)
	}

	slog.Debug("loaded cities", "path", path, "count", len(cities))
	return cities, nil
}
