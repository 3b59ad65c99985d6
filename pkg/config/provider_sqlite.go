package config

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/wxtools/droughtindex/pkg/migrate"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// schemaMigrations defines the configuration database schema. The scalar
// sections live in a single-row table; scales get their own table because a
// config carries any number of them.
var schemaMigrations = []migrate.Migration{
	{
		Version: 1,
		Name:    "initial config schema",
		Up: `
CREATE TABLE config (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	site_name TEXT NOT NULL,
	latitude REAL NOT NULL,
	longitude REAL NOT NULL,
	altitude REAL NOT NULL,
	wind_height REAL NOT NULL DEFAULT 0,
	angstrom_a REAL NOT NULL DEFAULT 0,
	angstrom_b REAL NOT NULL DEFAULT 0,
	dataset_path TEXT NOT NULL,
	kernel TEXT NOT NULL DEFAULT '',
	shift INTEGER NOT NULL DEFAULT 0,
	cache_dir TEXT NOT NULL DEFAULT '',
	plots_dir TEXT NOT NULL DEFAULT '',
	postgres_dsn TEXT,
	sqlite_export_path TEXT,
	http_listen_addr TEXT,
	http_port INTEGER,
	http_schedule TEXT
);
CREATE TABLE config_scales (
	scale INTEGER NOT NULL,
	position INTEGER NOT NULL
);`,
	},
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if err := migrate.New(db, "schema_migrations", schemaMigrations).Up(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate config database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	var postgresDSN, sqlitePath, httpAddr, httpSchedule sql.NullString
	var httpPort sql.NullInt64

	err := s.db.QueryRow(`
		SELECT site_name, latitude, longitude, altitude, wind_height,
		       angstrom_a, angstrom_b, dataset_path, kernel, shift, cache_dir,
		       plots_dir, postgres_dsn, sqlite_export_path,
		       http_listen_addr, http_port, http_schedule
		FROM config WHERE id = 1
	`).Scan(
		&config.Site.Name, &config.Site.Latitude, &config.Site.Longitude,
		&config.Site.Altitude, &config.Site.WindHeight,
		&config.Site.AngstromA, &config.Site.AngstromB,
		&config.Dataset.Path, &config.Analysis.Kernel, &config.Analysis.Shift,
		&config.Analysis.CacheDir, &config.Plots.Dir,
		&postgresDSN, &sqlitePath, &httpAddr, &httpPort, &httpSchedule,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("config database %s holds no configuration", s.dbPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config row: %w", err)
	}

	scales, err := s.loadScales()
	if err != nil {
		return nil, err
	}
	config.Analysis.Scales = scales

	if postgresDSN.Valid && postgresDSN.String != "" {
		config.Storage.Postgres = &PostgresData{ConnectionString: postgresDSN.String}
	}
	if sqlitePath.Valid && sqlitePath.String != "" {
		config.Storage.SQLite = &SQLiteData{Path: sqlitePath.String}
	}
	if httpAddr.Valid || httpPort.Valid || httpSchedule.Valid {
		config.HTTP = &HTTPData{
			ListenAddr: httpAddr.String,
			Port:       int(httpPort.Int64),
			Schedule:   httpSchedule.String,
		}
	}

	if err := validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

func (s *SQLiteProvider) loadScales() ([]int, error) {
	rows, err := s.db.Query(`SELECT scale FROM config_scales ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scales: %w", err)
	}
	defer rows.Close()

	var scales []int
	for rows.Next() {
		var scale int
		if err := rows.Scan(&scale); err != nil {
			return nil, fmt.Errorf("failed to scan scale row: %w", err)
		}
		scales = append(scales, scale)
	}
	return scales, rows.Err()
}

// SaveConfig writes a complete configuration, replacing any existing one.
// Used by the config-convert tool.
func (s *SQLiteProvider) SaveConfig(config *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM config`); err != nil {
		return fmt.Errorf("failed to clear config: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM config_scales`); err != nil {
		return fmt.Errorf("failed to clear scales: %w", err)
	}

	var postgresDSN, sqlitePath, httpAddr, httpSchedule interface{}
	var httpPort interface{}
	if config.Storage.Postgres != nil {
		postgresDSN = config.Storage.Postgres.ConnectionString
	}
	if config.Storage.SQLite != nil {
		sqlitePath = config.Storage.SQLite.Path
	}
	if config.HTTP != nil {
		httpAddr = config.HTTP.ListenAddr
		httpPort = config.HTTP.Port
		httpSchedule = config.HTTP.Schedule
	}

	_, err = tx.Exec(`
		INSERT INTO config (
			id, site_name, latitude, longitude, altitude, wind_height,
			angstrom_a, angstrom_b, dataset_path, kernel, shift, cache_dir,
			plots_dir, postgres_dsn, sqlite_export_path,
			http_listen_addr, http_port, http_schedule
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		config.Site.Name, config.Site.Latitude, config.Site.Longitude,
		config.Site.Altitude, config.Site.WindHeight,
		config.Site.AngstromA, config.Site.AngstromB,
		config.Dataset.Path, config.Analysis.Kernel, config.Analysis.Shift,
		config.Analysis.CacheDir, config.Plots.Dir,
		postgresDSN, sqlitePath, httpAddr, httpPort, httpSchedule,
	)
	if err != nil {
		return fmt.Errorf("failed to insert config row: %w", err)
	}

	for i, scale := range config.Analysis.Scales {
		if _, err := tx.Exec(`INSERT INTO config_scales (scale, position) VALUES (?, ?)`,
			scale, i); err != nil {
			return fmt.Errorf("failed to insert scale %d: %w", scale, err)
		}
	}

	return tx.Commit()
}

// IsReadOnly returns false; SQLite configs support SaveConfig
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}
