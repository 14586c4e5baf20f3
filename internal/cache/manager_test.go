package cache

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func zipArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type testServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	countries := zipArchive(t, map[string]string{
		"ne_test_countries.shp":           "shp",
		"ne_test_countries.dbf":           "dbf",
		"nested/ne_test_countries.prj":    "prj",
		"__MACOSX/.ne_test_countries.shp": "junk",
	})

	ts := &testServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/countries.zip", func(w http.ResponseWriter, r *http.Request) {
		ts.hits.Add(1)
		if r.Header.Get("User-Agent") == "" {
			http.Error(w, "no agent", http.StatusForbidden)
			return
		}
		w.Write(countries)
	})
	mux.HandleFunc("/airports.csv", func(w http.ResponseWriter, r *http.Request) {
		ts.hits.Add(1)
		w.Write([]byte("ident,type,name,latitude_deg,longitude_deg\n"))
	})
	ts.Server = httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newTestManager(t *testing.T, ts *testServer, files []DataFile) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir(),
		WithHTTPClient(ts.Client()),
		WithFiles(files),
		WithAirportsURL(ts.URL+"/airports.csv"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestEnsureDataDownloadsAndExtracts(t *testing.T) {
	ts := newTestServer(t)
	m := newTestManager(t, ts, []DataFile{
		{Name: "Countries", URL: ts.URL + "/countries.zip", Base: "ne_test_countries"},
	})

	if err := m.EnsureData(context.Background()); err != nil {
		t.Fatalf("EnsureData: %v", err)
	}

	for _, name := range []string{"ne_test_countries.shp", "ne_test_countries.dbf", "ne_test_countries.prj"} {
		if _, err := os.Stat(filepath.Join(m.GetCacheDir(), name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(m.GetCacheDir(), ".ne_test_countries.shp")); err == nil {
		t.Error("hidden archive entries should be skipped")
	}
	if m.GetDataPath("ne_test_countries") != filepath.Join(m.GetCacheDir(), "ne_test_countries.shp") {
		t.Errorf("data path = %s", m.GetDataPath("ne_test_countries"))
	}

	hits := ts.hits.Load()
	if err := m.EnsureData(context.Background()); err != nil {
		t.Fatalf("second EnsureData: %v", err)
	}
	if ts.hits.Load() != hits {
		t.Error("cached files should not be downloaded again")
	}
}

func TestEnsureDataLeavesAirportsAlone(t *testing.T) {
	ts := newTestServer(t)
	m := newTestManager(t, ts, []DataFile{
		{Name: "Countries", URL: ts.URL + "/countries.zip", Base: "ne_test_countries"},
	})

	if err := m.EnsureData(context.Background()); err != nil {
		t.Fatalf("EnsureData: %v", err)
	}
	if ts.hits.Load() != 1 {
		t.Errorf("hits = %d, want only the countries archive", ts.hits.Load())
	}
	if _, err := os.Stat(m.GetAirportCSVPath()); err == nil {
		t.Error("EnsureData should not fetch the airport CSV")
	}

	if err := m.EnsureAirportData(context.Background()); err != nil {
		t.Fatalf("EnsureAirportData: %v", err)
	}
	if _, err := os.Stat(m.GetAirportCSVPath()); err != nil {
		t.Errorf("airport CSV missing: %v", err)
	}
}

func TestEnsureDataOptionalFailure(t *testing.T) {
	ts := newTestServer(t)
	m := newTestManager(t, ts, []DataFile{
		{Name: "Missing", URL: ts.URL + "/missing.zip", Base: "ne_missing", Optional: true},
	})

	if err := m.EnsureData(context.Background()); err != nil {
		t.Errorf("optional failure should not be fatal: %v", err)
	}
}

func TestEnsureDataRequiredFailure(t *testing.T) {
	ts := newTestServer(t)
	m := newTestManager(t, ts, []DataFile{
		{Name: "Missing", URL: ts.URL + "/missing.zip", Base: "ne_missing"},
	})

	if err := m.EnsureData(context.Background()); err == nil {
		t.Error("expected error for required data set")
	}
}

func TestEnsureDataArchiveWithoutShapefile(t *testing.T) {
	ts := newTestServer(t)
	m := newTestManager(t, ts, []DataFile{
		{Name: "Wrong", URL: ts.URL + "/countries.zip", Base: "ne_other"},
	})

	if err := m.EnsureData(context.Background()); err == nil {
		t.Error("expected error when the archive lacks the shapefile")
	}
}

func TestEnsureAirportDataFailureLeavesNoFile(t *testing.T) {
	ts := newTestServer(t)
	m, err := NewManager(t.TempDir(),
		WithHTTPClient(ts.Client()),
		WithFiles(nil),
		WithAirportsURL(ts.URL+"/nothing.csv"))
	if err != nil {
		t.Fatal(err)
	}

	if err := m.EnsureAirportData(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(m.GetAirportCSVPath()); err == nil {
		t.Error("failed download left a file behind")
	}
	if _, err := os.Stat(m.GetAirportCSVPath() + ".part"); err == nil {
		t.Error("partial file left behind")
	}
}

func TestEnsureDataCancelled(t *testing.T) {
	ts := newTestServer(t)
	m := newTestManager(t, ts, []DataFile{
		{Name: "Countries", URL: ts.URL + "/countries.zip", Base: "ne_test_countries"},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.EnsureData(ctx); err == nil {
		t.Error("expected error from cancelled context")
	}
}
