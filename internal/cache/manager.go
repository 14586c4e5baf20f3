package cache

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const userAgent = "Mozilla/5.0 (compatible; asciiflight/1.0)"

// Base names of the cached data sets
const (
	CountriesBase = "ne_110m_admin_0_countries"
	PlacesBase    = "ne_50m_populated_places"
	AirportsFile  = "airports.csv"
)

// DefaultAirportsURL is the OurAirports CSV export
const DefaultAirportsURL = "https://davidmegginson.github.io/ourairports-data/airports.csv"

// Manager handles downloading and caching Natural Earth and OurAirports data
type Manager struct {
	cacheDir    string
	client      *http.Client
	files       []DataFile
	airportsURL string
}

// DataFile represents a zipped Natural Earth shapefile to download
type DataFile struct {
	Name     string // Friendly name
	URL      string // Download URL
	Base     string // Base filename (without extension)
	Optional bool   // If true, failure to download won't stop the app
}

// NaturalEarthFiles are the data sets the map needs
var NaturalEarthFiles = []DataFile{
	{
		Name: "Countries",
		URL:  "https://naciscdn.org/naturalearth/110m/cultural/ne_110m_admin_0_countries.zip",
		Base: CountriesBase,
	},
	{
		Name:     "Populated Places",
		URL:      "https://naciscdn.org/naturalearth/50m/cultural/ne_50m_populated_places.zip",
		Base:     PlacesBase,
		Optional: true,
	},
}

// Option configures a Manager
type Option func(*Manager)

// WithHTTPClient replaces the download client
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.client = c }
}

// WithFiles replaces the Natural Earth file list
func WithFiles(files []DataFile) Option {
	return func(m *Manager) { m.files = files }
}

// WithAirportsURL replaces the airport CSV location
func WithAirportsURL(url string) Option {
	return func(m *Manager) { m.airportsURL = url }
}

// NewManager creates a new cache manager.
// If cacheDir is empty, uses ~/.asciiflight/data
func NewManager(cacheDir string, opts ...Option) (*Manager, error) {
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cacheDir = filepath.Join(home, ".asciiflight", "data")
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	m := &Manager{
		cacheDir:    cacheDir,
		client:      &http.Client{Timeout: 5 * time.Minute},
		files:       NaturalEarthFiles,
		airportsURL: DefaultAirportsURL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// EnsureData downloads every missing Natural Earth data set. Optional files
// that fail to download are skipped with a warning. The airport CSV is
// fetched separately by EnsureAirportData.
func (m *Manager) EnsureData(ctx context.Context) error {
	for _, file := range m.files {
		if err := m.ensureFile(ctx, file); err != nil {
			if file.Optional {
				slog.Warn("skipping optional data set", "name", file.Name, "err", err)
				continue
			}
			return fmt.Errorf("failed to ensure %s: %w", file.Name, err)
		}
	}

	return nil
}

// ensureFile checks if a data file exists, downloads if needed
func (m *Manager) ensureFile(ctx context.Context, file DataFile) error {
	if _, err := os.Stat(m.GetDataPath(file.Base)); err == nil {
		return nil
	}

	slog.Info("downloading", "name", file.Name, "url", file.URL)

	tmpFile, err := os.CreateTemp("", "ne_*.zip")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	if err := m.download(ctx, file.URL, tmpFile); err != nil {
		return err
	}
	tmpFile.Close()

	if err := extractZip(tmpFile.Name(), m.cacheDir); err != nil {
		return fmt.Errorf("failed to extract: %w", err)
	}
	if _, err := os.Stat(m.GetDataPath(file.Base)); err != nil {
		return fmt.Errorf("archive did not contain %s.shp", file.Base)
	}

	slog.Info("downloaded and extracted", "name", file.Name)
	return nil
}

// download streams url into w
func (m *Manager) download(ctx context.Context, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s (URL: %s)", resp.Status, url)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to save download: %w", err)
	}
	return nil
}

// extractZip flattens every regular file of the archive into destDir
func extractZip(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(filepath.Base(f.Name), ".") {
			continue
		}

		destPath := filepath.Join(destDir, filepath.Base(f.Name))
		rc, err := f.Open()
		if err != nil {
			return err
		}

		outFile, err := os.Create(destPath)
		if err != nil {
			rc.Close()
			return err
		}

		_, err = io.Copy(outFile, rc)
		outFile.Close()
		rc.Close()

		if err != nil {
			return err
		}
	}

	return nil
}

// GetDataPath returns the shapefile path for a base name
func (m *Manager) GetDataPath(base string) string {
	return filepath.Join(m.cacheDir, base+".shp")
}

// GetCacheDir returns the cache directory
func (m *Manager) GetCacheDir() string {
	return m.cacheDir
}

// EnsureAirportData downloads the OurAirports CSV if not already cached.
// The file is written under a temporary name and renamed once complete.
func (m *Manager) EnsureAirportData(ctx context.Context) error {
	csvPath := m.GetAirportCSVPath()
	if _, err := os.Stat(csvPath); err == nil {
		return nil
	}

	slog.Info("downloading airport database", "url", m.airportsURL)

	partial := csvPath + ".part"
	outFile, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(partial)

	if err := m.download(ctx, m.airportsURL, outFile); err != nil {
		outFile.Close()
		return err
	}
	if err := outFile.Close(); err != nil {
		return fmt.Errorf("failed to save airports CSV: %w", err)
	}
	if err := os.Rename(partial, csvPath); err != nil {
		return fmt.Errorf("failed to save airports CSV: %w", err)
	}

	slog.Info("downloaded airport database")
	return nil
}

// GetAirportCSVPath returns the path to the airports CSV file
func (m *Manager) GetAirportCSVPath() string {
	return filepath.Join(m.cacheDir, AirportsFile)
}
