package storage

import (
	"database/sql"
	"fmt"
	"math"

	_ "modernc.org/sqlite"

	"github.com/wxtools/droughtindex/internal/pipeline"
	"github.com/wxtools/droughtindex/pkg/migrate"
)

var exportMigrations = []migrate.Migration{
	{
		Version: 1,
		Name:    "initial export schema",
		Up: `
CREATE TABLE run (
	id TEXT PRIMARY KEY,
	site_name TEXT NOT NULL,
	latitude REAL NOT NULL,
	longitude REAL NOT NULL,
	altitude REAL NOT NULL,
	dataset_checksum TEXT NOT NULL,
	patched_cells INTEGER NOT NULL,
	started_at TEXT NOT NULL,
	completed_at TEXT NOT NULL
);
CREATE TABLE months (
	row_index INTEGER PRIMARY KEY,
	year INTEGER NOT NULL,
	month INTEGER NOT NULL,
	precip_mm REAL, tmax_c REAL, tmin_c REAL, tmean_c REAL,
	wind_ms REAL, sun_hours REAL, cloud_pct REAL
);
CREATE TABLE series (
	column_name TEXT NOT NULL,
	row_index INTEGER NOT NULL,
	value REAL,
	PRIMARY KEY (column_name, row_index)
);`,
	},
}

// ExportSQLite writes a completed run into a standalone SQLite file so the
// results can be inspected without the PostgreSQL archive. An existing file
// at the path is overwritten table-by-table.
func ExportSQLite(result *pipeline.Result, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening export database: %w", err)
	}
	defer db.Close()

	if err := migrate.New(db, "schema_migrations", exportMigrations).Up(); err != nil {
		return fmt.Errorf("migrating export schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning export transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"run", "months", "series"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO run (id, site_name, latitude, longitude, altitude,
		                 dataset_checksum, patched_cells, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID.String(), result.Site.Name,
		result.Site.Latitude, result.Site.Longitude, result.Site.Altitude,
		result.Table.Checksum, result.PatchedCells,
		result.StartedAt.Format("2006-01-02T15:04:05Z"),
		result.CompletedAt.Format("2006-01-02T15:04:05Z"),
	)
	if err != nil {
		return fmt.Errorf("inserting run row: %w", err)
	}

	monthStmt, err := tx.Prepare(`
		INSERT INTO months (row_index, year, month, precip_mm, tmax_c, tmin_c,
		                    tmean_c, wind_ms, sun_hours, cloud_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing months insert: %w", err)
	}
	defer monthStmt.Close()

	for i, r := range result.Table.Rows() {
		if _, err := monthStmt.Exec(i, r.Year, int(r.Month),
			r.Precip, r.TempMax, r.TempMin, r.TempMean,
			r.WindSpeed, r.SunHours, r.CloudCover); err != nil {
			return fmt.Errorf("inserting month row %d: %w", i, err)
		}
	}

	seriesStmt, err := tx.Prepare(`INSERT INTO series (column_name, row_index, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing series insert: %w", err)
	}
	defer seriesStmt.Close()

	for _, col := range result.Table.Columns() {
		values, _ := result.Table.Column(col)
		for i, v := range values {
			var value interface{}
			if !math.IsNaN(v) {
				value = v
			}
			if _, err := seriesStmt.Exec(col, i, value); err != nil {
				return fmt.Errorf("inserting %s row %d: %w", col, i, err)
			}
		}
	}

	return tx.Commit()
}
