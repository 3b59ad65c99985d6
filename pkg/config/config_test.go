package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestYAMLProviderLoadConfig(t *testing.T) {
	provider := NewYAMLProvider(filepath.Join("testdata", "config.yaml"))
	defer provider.Close()

	if !provider.IsReadOnly() {
		t.Error("YAML provider should be read-only")
	}

	cfg, err := provider.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Site.Name != "Ebro Valley" {
		t.Errorf("unexpected site name %q", cfg.Site.Name)
	}
	if cfg.Site.Latitude != 41.65 || cfg.Site.Longitude != -0.88 {
		t.Errorf("unexpected coordinates %.2f, %.2f", cfg.Site.Latitude, cfg.Site.Longitude)
	}
	if cfg.Site.WindHeight != 10 {
		t.Errorf("unexpected wind height %.1f", cfg.Site.WindHeight)
	}
	if cfg.Dataset.Path != "data/monthly.csv" {
		t.Errorf("unexpected dataset path %q", cfg.Dataset.Path)
	}
	if !reflect.DeepEqual(cfg.Analysis.Scales, []int{1, 6, 12}) {
		t.Errorf("unexpected scales %v", cfg.Analysis.Scales)
	}
	if cfg.Analysis.Kernel != "gaussian" {
		t.Errorf("unexpected kernel %q", cfg.Analysis.Kernel)
	}
	if cfg.Plots.Dir != "out/plots" {
		t.Errorf("unexpected plots dir %q", cfg.Plots.Dir)
	}
	if cfg.Storage.Postgres == nil || cfg.Storage.Postgres.ConnectionString == "" {
		t.Error("expected a postgres storage section")
	}
	if cfg.Storage.SQLite == nil || cfg.Storage.SQLite.Path != "out/results.db" {
		t.Error("expected a sqlite storage section")
	}
	if cfg.HTTP == nil {
		t.Fatal("expected an http section")
	}
	if cfg.HTTP.Port != 8080 || cfg.HTTP.Schedule != "0 3 1 * *" {
		t.Errorf("unexpected http section %+v", cfg.HTTP)
	}
}

func TestYAMLProviderValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing dataset path",
			content: `site:
  name: "Somewhere"
  latitude: 40
  longitude: 0
`,
		},
		{
			name: "latitude out of range",
			content: `site:
  name: "Somewhere"
  latitude: 95
  longitude: 0
dataset:
  path: "data/monthly.csv"
`,
		},
		{
			name: "zero scale",
			content: `site:
  name: "Somewhere"
  latitude: 40
  longitude: 0
dataset:
  path: "data/monthly.csv"
analysis:
  scales: [0, 12]
`,
		},
		{
			name:    "malformed yaml",
			content: "site: [unclosed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("writing temp config: %v", err)
			}
			provider := NewYAMLProvider(path)
			defer provider.Close()
			if _, err := provider.LoadConfig(); err == nil {
				t.Error("expected an error, got nil")
			}
		})
	}
}

func TestSQLiteProviderRoundtrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "config.db")
	provider, err := NewSQLiteProvider(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteProvider failed: %v", err)
	}
	defer provider.Close()

	if provider.IsReadOnly() {
		t.Error("SQLite provider should be writable")
	}

	// An empty database has no configuration row yet.
	if _, err := provider.LoadConfig(); err == nil {
		t.Error("expected an error loading from an empty config database")
	}

	want := &ConfigData{
		Site: SiteData{
			Name:      "Ebro Valley",
			Latitude:  41.65,
			Longitude: -0.88,
			Altitude:  225,
		},
		Dataset:  DatasetData{Path: "data/monthly.csv"},
		Analysis: AnalysisData{Scales: []int{1, 12}, Kernel: "triangular", CacheDir: ".fitcache"},
		Plots:    PlotsData{Dir: "plots"},
		Storage: StorageData{
			SQLite: &SQLiteData{Path: "out/results.db"},
		},
		HTTP: &HTTPData{ListenAddr: "0.0.0.0", Port: 9090, Schedule: "@monthly"},
	}
	if err := provider.SaveConfig(want); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	got, err := provider.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("roundtrip mismatch:\n got %+v\nwant %+v", got, want)
	}

	// A second save replaces, never accumulates.
	want.Site.Name = "Duero Valley"
	want.Analysis.Scales = []int{3}
	if err := provider.SaveConfig(want); err != nil {
		t.Fatalf("second SaveConfig failed: %v", err)
	}
	got, err = provider.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig after replace failed: %v", err)
	}
	if got.Site.Name != "Duero Valley" || !reflect.DeepEqual(got.Analysis.Scales, []int{3}) {
		t.Errorf("replacement not applied: %+v", got)
	}
}

func TestSQLiteProviderReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "config.db")

	first, err := NewSQLiteProvider(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteProvider failed: %v", err)
	}
	cfg := &ConfigData{
		Site:    SiteData{Name: "Somewhere", Latitude: 40},
		Dataset: DatasetData{Path: "data/monthly.csv"},
	}
	if err := first.SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Reopening runs the migrations again; they must be idempotent.
	second, err := NewSQLiteProvider(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()

	got, err := second.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig after reopen failed: %v", err)
	}
	if got.Site.Name != "Somewhere" {
		t.Errorf("unexpected site name %q", got.Site.Name)
	}
}
