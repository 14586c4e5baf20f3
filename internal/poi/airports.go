package poi

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"

	"asciiflight/internal/geo"
)

// DefaultAirportTypes keeps the map readable at continental zoom
var DefaultAirportTypes = []string{"large_airport"}

// airportRank orders airport types by importance
var airportRank = map[string]int{
	"large_airport":  3,
	"medium_airport": 2,
	"small_airport":  1,
}

// AirportLoader loads airport data from OurAirports CSV
type AirportLoader struct {
	csvPath string
	types   []string
}

// NewAirportLoader creates a new airport loader. Only airports whose type is
// in types are kept; an empty list uses DefaultAirportTypes.
func NewAirportLoader(csvPath string, types []string) *AirportLoader {
	if len(types) == 0 {
		types = DefaultAirportTypes
	}
	return &AirportLoader{
		csvPath: csvPath,
		types:   types,
	}
}

// Load reads the OurAirports CSV file
func (a *AirportLoader) Load() ([]Place, error) {
	file, err := os.Open(a.csvPath)
	if err != nil {
		return nil, fmt.Errorf("open airports CSV: %w", err)
	}
	defer file.Close()

	airports, err := a.Read(file)
	if err != nil {
		return nil, err
	}
	slog.Debug("loaded airports", "path", a.csvPath, "count", len(airports))
	return airports, nil
}

// Read parses OurAirports CSV rows from r. Rows with unparsable coordinates
// are skipped.
func (a *AirportLoader) Read(r io.Reader) ([]Place, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	col := make(map[string]int)
	for i, name := range header {
		col[name] = i
	}
	for _, name := range []string{"ident", "type", "name", "latitude_deg", "longitude_deg"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing required column: %s", name)
		}
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var airports []Place
	skipped := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		kind := field(record, "type")
		if !slices.Contains(a.types, kind) {
			continue
		}

		lat, err := strconv.ParseFloat(field(record, "latitude_deg"), 64)
		if err != nil {
			skipped++
			continue
		}
		lon, err := strconv.ParseFloat(field(record, "longitude_deg"), 64)
		if err != nil {
			skipped++
			continue
		}

		airports = append(airports, Place{
			Ident:    field(record, "ident"),
			Name:     field(record, "name"),
			Category: CategoryAirport,
			Kind:     kind,
			Point:    geo.Pt(lon, lat),
			Rank:     airportRank[kind],
		})
	}

	if skipped > 0 {
		slog.Debug("skipped airport rows", "count", skipped)
	}
	return airports, nil
}
