package storage

import (
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wxtools/droughtindex/internal/dataset"
	"github.com/wxtools/droughtindex/internal/pipeline"
)

func fakeResult(t *testing.T) *pipeline.Result {
	t.Helper()
	rows := make([]dataset.Month, 12)
	for i := range rows {
		rows[i] = dataset.Month{
			Year: 1990, Month: time.Month(i + 1),
			Precip: float64(20 + i), TempMax: 15, TempMin: 5, TempMean: 10,
		}
	}
	table, err := dataset.NewTable(rows)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	table.Checksum = "deadbeef"

	index := make([]float64, 12)
	for i := range index {
		index[i] = float64(i) - 5
	}
	index[0] = math.NaN()
	if err := table.AddColumn("spei_12_penman", index); err != nil {
		t.Fatalf("AddColumn failed: %v", err)
	}

	return &pipeline.Result{
		RunID:        uuid.New(),
		Site:         pipeline.Site{Name: "Test Basin", Latitude: 41.6, Altitude: 520},
		Table:        table,
		Scales:       []int{12},
		StartedAt:    time.Now().UTC(),
		CompletedAt:  time.Now().UTC(),
		PatchedCells: 2,
	}
}

func TestExportSQLite(t *testing.T) {
	result := fakeResult(t)
	path := filepath.Join(t.TempDir(), "results.db")

	if err := ExportSQLite(result, path); err != nil {
		t.Fatalf("ExportSQLite failed: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("opening export: %v", err)
	}
	defer db.Close()

	var id, site, checksum string
	var patched int
	err = db.QueryRow(`SELECT id, site_name, dataset_checksum, patched_cells FROM run`).
		Scan(&id, &site, &checksum, &patched)
	if err != nil {
		t.Fatalf("reading run row: %v", err)
	}
	if id != result.RunID.String() || site != "Test Basin" || checksum != "deadbeef" || patched != 2 {
		t.Errorf("unexpected run row: %s %s %s %d", id, site, checksum, patched)
	}

	var monthCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM months`).Scan(&monthCount); err != nil {
		t.Fatalf("counting months: %v", err)
	}
	if monthCount != 12 {
		t.Errorf("expected 12 month rows, got %d", monthCount)
	}

	var precip float64
	if err := db.QueryRow(`SELECT precip_mm FROM months WHERE row_index = 3`).Scan(&precip); err != nil {
		t.Fatalf("reading month row: %v", err)
	}
	if precip != 23 {
		t.Errorf("expected precip 23, got %.1f", precip)
	}

	// The NaN warmup cell persists as NULL.
	var value sql.NullFloat64
	err = db.QueryRow(`SELECT value FROM series WHERE column_name = 'spei_12_penman' AND row_index = 0`).
		Scan(&value)
	if err != nil {
		t.Fatalf("reading series row: %v", err)
	}
	if value.Valid {
		t.Errorf("expected NULL for the NaN cell, got %.2f", value.Float64)
	}

	err = db.QueryRow(`SELECT value FROM series WHERE column_name = 'spei_12_penman' AND row_index = 11`).
		Scan(&value)
	if err != nil {
		t.Fatalf("reading series row: %v", err)
	}
	if !value.Valid || value.Float64 != 6 {
		t.Errorf("expected 6, got %+v", value)
	}
}

func TestExportSQLiteOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")

	first := fakeResult(t)
	if err := ExportSQLite(first, path); err != nil {
		t.Fatalf("first export failed: %v", err)
	}

	second := fakeResult(t)
	second.Site.Name = "Another Basin"
	if err := ExportSQLite(second, path); err != nil {
		t.Fatalf("second export failed: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("opening export: %v", err)
	}
	defer db.Close()

	var runCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM run`).Scan(&runCount); err != nil {
		t.Fatalf("counting runs: %v", err)
	}
	if runCount != 1 {
		t.Errorf("expected 1 run row after overwrite, got %d", runCount)
	}

	var site string
	if err := db.QueryRow(`SELECT site_name FROM run`).Scan(&site); err != nil {
		t.Fatalf("reading run row: %v", err)
	}
	if site != "Another Basin" {
		t.Errorf("expected the second run, got %q", site)
	}
}
