package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Data    DataConfig    `mapstructure:"data"`
	Map     MapConfig     `mapstructure:"map"`
	Travel  TravelConfig  `mapstructure:"travel"`
	POI     POIConfig     `mapstructure:"poi"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type DataConfig struct {
	CacheDir   string `mapstructure:"cache_dir"`
	Boundaries string `mapstructure:"boundaries"`
	Download   bool   `mapstructure:"download"`
}

type MapConfig struct {
	CenterLon     float64 `mapstructure:"center_lon"`
	CenterLat     float64 `mapstructure:"center_lat"`
	Origin        string  `mapstructure:"origin"`
	Zoom          float64 `mapstructure:"zoom"`
	MinZoom       float64 `mapstructure:"min_zoom"`
	MaxZoom       float64 `mapstructure:"max_zoom"`
	PanStep       float64 `mapstructure:"pan_step"`
	Mercator      bool    `mapstructure:"mercator"`
	GeodesicSteps int     `mapstructure:"geodesic_steps"`
	Margin        int     `mapstructure:"margin"`
	Unicode       bool    `mapstructure:"unicode"`
}

type TravelConfig struct {
	SpeedKms float64 `mapstructure:"speed_kms"`
}

type POIConfig struct {
	Source       string   `mapstructure:"source"`
	AirportTypes []string `mapstructure:"airport_types"`
	LabelZoom    float64  `mapstructure:"label_zoom"`
	CityZoom     float64  `mapstructure:"city_zoom"`
	DSN          string   `mapstructure:"dsn"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// POI source names
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
	SourceNone     = "none"
)

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"cache":      "data.cache_dir",
	"boundaries": "data.boundaries",
	"download":   "data.download",
	"lon":        "map.center_lon",
	"lat":        "map.center_lat",
	"origin":     "map.origin",
	"zoom":       "map.zoom",
	"mercator":   "map.mercator",
	"unicode":    "map.unicode",
	"speed":      "travel.speed_kms",
	"poi":        "poi.source",
	"dsn":        "poi.dsn",
	"debug-log":  "log.file",
	"log-level":  "log.level",
	"metrics":    "metrics.addr",
}

// RegisterFlags adds the command line flags Load understands to fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Config file (default: ./asciiflight.yaml or ~/.asciiflight/asciiflight.yaml)")
	fs.String("cache", "", "Cache directory for map data (default: ~/.asciiflight/data)")
	fs.String("boundaries", "", "Boundary data set, .shp or .geojson (default: cached Natural Earth countries)")
	fs.Bool("download", true, "Download missing map data")
	fs.Float64("lon", 24.9633, "Initial camera longitude")
	fs.Float64("lat", 60.3172, "Initial camera latitude")
	fs.String("origin", "", "Route origin as an airport ident (e.g., EFHK); default is the camera center")
	fs.Float64("zoom", 30, "Initial zoom, half the view height in projected degrees")
	fs.Bool("mercator", true, "Use the Mercator projection")
	fs.Bool("unicode", false, "Draw with Unicode quadrant blocks instead of ASCII")
	fs.Float64("speed", 1000, "Travel speed in km per second")
	fs.String("poi", SourceCSV, "Point of interest source: csv, postgres or none")
	fs.String("dsn", "", "PostgreSQL DSN for -poi postgres")
	fs.StringP("debug-log", "d", "", "Debug log file (e.g., debug.log)")
	fs.String("log-level", "info", "Log level: debug, info, warn, error")
	fs.String("metrics", "", "Serve prometheus metrics on this address (e.g., :9090)")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.cache_dir", "")
	v.SetDefault("data.boundaries", "")
	v.SetDefault("data.download", true)
	v.SetDefault("map.center_lon", 24.9633)
	v.SetDefault("map.center_lat", 60.3172)
	v.SetDefault("map.origin", "")
	v.SetDefault("map.zoom", 30.0)
	v.SetDefault("map.min_zoom", 0.01)
	v.SetDefault("map.max_zoom", 180.0)
	v.SetDefault("map.pan_step", 0.1)
	v.SetDefault("map.mercator", true)
	v.SetDefault("map.geodesic_steps", 15)
	v.SetDefault("map.margin", 1)
	v.SetDefault("map.unicode", false)
	v.SetDefault("travel.speed_kms", 1000.0)
	v.SetDefault("poi.source", SourceCSV)
	v.SetDefault("poi.airport_types", []string{"large_airport"})
	v.SetDefault("poi.label_zoom", 15.0)
	v.SetDefault("poi.city_zoom", 5.0)
	v.SetDefault("poi.dsn", "")
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("metrics.addr", "")
}

// Load reads configuration from defaults, an optional config file,
// ASCIIFLIGHT_* environment variables and flags, in increasing priority.
// fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Config file (optional)
	explicit := ""
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			explicit = f.Value.String()
		}
	}
	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", explicit, err)
		}
	} else {
		v.SetConfigName("asciiflight")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.asciiflight")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// Environment variables: ASCIIFLIGHT_MAP_ZOOM → map.zoom
	v.SetEnvPrefix("ASCIIFLIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that configuration values are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Map.Zoom <= 0 {
		errs = append(errs, fmt.Sprintf("map.zoom must be positive, got %g", c.Map.Zoom))
	}
	if c.Map.MinZoom <= 0 || c.Map.MinZoom >= c.Map.MaxZoom {
		errs = append(errs, fmt.Sprintf("map.min_zoom must be positive and below map.max_zoom, got %g and %g", c.Map.MinZoom, c.Map.MaxZoom))
	}
	if c.Map.CenterLat < -90 || c.Map.CenterLat > 90 {
		errs = append(errs, fmt.Sprintf("map.center_lat must be within [-90, 90], got %g", c.Map.CenterLat))
	}
	if c.Map.CenterLon < -180 || c.Map.CenterLon > 180 {
		errs = append(errs, fmt.Sprintf("map.center_lon must be within [-180, 180], got %g", c.Map.CenterLon))
	}
	if c.Map.PanStep <= 0 {
		errs = append(errs, "map.pan_step must be positive")
	}
	if c.Map.GeodesicSteps < 1 {
		errs = append(errs, fmt.Sprintf("map.geodesic_steps must be at least 1, got %d", c.Map.GeodesicSteps))
	}
	if c.Map.Margin < 0 {
		errs = append(errs, "map.margin must not be negative")
	}
	if c.Travel.SpeedKms <= 0 {
		errs = append(errs, fmt.Sprintf("travel.speed_kms must be positive, got %g", c.Travel.SpeedKms))
	}

	switch c.POI.Source {
	case SourceCSV:
	case SourceNone:
		if c.Map.Origin != "" {
			errs = append(errs, "map.origin needs a poi.source to look it up in")
		}
	case SourcePostgres:
		if c.POI.DSN == "" {
			errs = append(errs, "poi.dsn is required for the postgres source")
		}
	default:
		errs = append(errs, fmt.Sprintf("poi.source must be csv, postgres or none, got %q", c.POI.Source))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
