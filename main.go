package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"asciiflight/internal/cache"
	"asciiflight/internal/config"
	"asciiflight/internal/debug"
	"asciiflight/internal/geo"
	"asciiflight/internal/metrics"
	"asciiflight/internal/poi"
	"asciiflight/internal/ui"

	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run starts the program and returns the process exit code. Deferred
// cleanup, like flushing the debug log, runs before main exits.
func run(args []string) int {
	// Parse command line flags
	fs := pflag.NewFlagSet("asciiflight", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	help := fs.BoolP("help", "h", false, "Show help message")
	fs.Usage = func() {
		fmt.Println("asciiflight - ASCII world map with great-circle travel")
		fmt.Println("\nUsage: asciiflight [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	// Show help if requested
	if *help {
		fs.Usage()
		return 0
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Set up debug logging if requested
	if cfg.Log.File != "" {
		logFile, err := debug.OpenFile(cfg.Log.File, cfg.Log.Level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			debug.Setup(nil, cfg.Log.Level)
		} else {
			defer logFile.Close()
		}
	} else {
		debug.Setup(nil, cfg.Log.Level)
	}
	if debug.Enabled() {
		fmt.Printf("Debug logging enabled: %s\n", cfg.Log.File)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize cache manager
	fmt.Println("Initializing map data cache...")
	cacheManager, err := cache.NewManager(cfg.Data.CacheDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize cache: %v\n", err)
		return 1
	}

	if cfg.Data.Download {
		fmt.Println("Checking Natural Earth data...")
		if err := cacheManager.EnsureData(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to download map data: %v\n", err)
			return 1
		}
	}

	// Load boundaries; the map still runs without them
	fmt.Println("Loading boundaries...")
	boundaries := cfg.Data.Boundaries
	if boundaries == "" {
		boundaries = cacheManager.GetDataPath(cache.CountriesBase)
	}
	shapes, err := geo.LoadBoundaries(boundaries)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load boundaries: %v\n", err)
		slog.Warn("boundaries unavailable", "path", boundaries, "err", err)
	}
	fmt.Printf("Loaded %d shapes\n", len(shapes))

	places, closePlaces, err := openPlaces(ctx, cfg, cacheManager)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closePlaces()

	origin, err := resolveOrigin(ctx, places, cfg.Map.Origin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	opts := ui.Options{
		Map: ui.MapOptions{
			Center:   geo.Pt(cfg.Map.CenterLon, cfg.Map.CenterLat),
			Origin:   origin,
			Zoom:     cfg.Map.Zoom,
			Mercator: cfg.Map.Mercator,
			Margin:   cfg.Map.Margin,
			Unicode:  cfg.Map.Unicode,
			Steps:    cfg.Map.GeodesicSteps,
		},
		MinZoom:  cfg.Map.MinZoom,
		MaxZoom:  cfg.Map.MaxZoom,
		PanStep:  cfg.Map.PanStep,
		SpeedKms: cfg.Travel.SpeedKms,
	}

	if cfg.Metrics.Addr != "" {
		recorder := metrics.NewRecorder()
		opts.Observer = recorder
		opts.OnLeg = recorder.ObserveLeg
		opts.OnPOIError = recorder.POIError

		go func() {
			if err := recorder.Serve(ctx, cfg.Metrics.Addr); err != nil {
				slog.Error("metrics server stopped", "err", err)
			}
		}()
		fmt.Printf("Serving metrics on %s/metrics\n", cfg.Metrics.Addr)
	}

	// Create and run application
	fmt.Printf("Starting asciiflight (zoom: %g, speed: %g km/s)...\n", cfg.Map.Zoom, cfg.Travel.SpeedKms)
	app, err := ui.NewApp(shapes, places, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create application: %v\n", err)
		return 1
	}

	// Run with panic recovery to ensure terminal is always restored
	code := 0
	func() {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(os.Stderr, "\nPanic: %v\n", r)
				code = 1
			}
		}()

		if err := app.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			code = 1
		}
	}()

	fmt.Println("\nGoodbye!")
	return code
}

// resolveOrigin looks up the configured route origin ident. An empty ident
// returns nil, leaving the origin at the camera center.
func resolveOrigin(ctx context.Context, places poi.Source, ident string) (*geo.GeoPoint, error) {
	if ident == "" {
		return nil, nil
	}
	if places == nil {
		return nil, fmt.Errorf("origin %s: no place source configured", ident)
	}

	p, err := places.Locate(ctx, ident)
	if errors.Is(err, poi.ErrNotFound) {
		return nil, fmt.Errorf("origin %s: no such airport", ident)
	}
	if err != nil {
		return nil, fmt.Errorf("origin %s: %w", ident, err)
	}

	slog.Info("route origin", "ident", ident, "name", p.Name, "lon", p.Point.Lon, "lat", p.Point.Lat)
	return &p.Point, nil
}

// openPlaces builds the point of interest source configured by poi.source.
// Airports and cities that fail to load are skipped with a warning.
func openPlaces(ctx context.Context, cfg *config.Config, cacheManager *cache.Manager) (poi.Source, func(), error) {
	noop := func() {}
	if cfg.POI.Source == config.SourceNone {
		return nil, noop, nil
	}

	if cfg.Data.Download {
		if err := cacheManager.EnsureAirportData(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download airports: %v\n", err)
		}
	}
	airports, err := poi.NewAirportLoader(cacheManager.GetAirportCSVPath(), cfg.POI.AirportTypes).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: airports unavailable: %v\n", err)
	}

	cities, err := poi.LoadCities(cacheManager.GetDataPath(cache.PlacesBase))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cities unavailable: %v\n", err)
	}
	fmt.Printf("Loaded %d airports and %d cities\n", len(airports), len(cities))

	lod := poi.LevelOfDetail{AirportZoom: cfg.POI.LabelZoom, CityZoom: cfg.POI.CityZoom}

	if cfg.POI.Source != config.SourcePostgres {
		return poi.WithLevelOfDetail(poi.NewMemorySource(airports, cities), lod), noop, nil
	}

	fmt.Println("Connecting to PostgreSQL...")
	db, err := poi.OpenPostgres(ctx, cfg.POI.DSN, cfg.POI.AirportTypes)
	if err != nil {
		return nil, noop, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, noop, err
	}
	if len(airports) > 0 {
		if err := db.Import(ctx, airports); err != nil {
			db.Close()
			return nil, noop, err
		}
		slog.Info("imported airports", "count", len(airports))
	}

	return poi.WithLevelOfDetail(poi.Combine(db, poi.NewMemorySource(cities)), lod), db.Close, nil
}
