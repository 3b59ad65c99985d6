// Package migrate applies versioned schema migrations to the SQLite databases
// droughtindex writes: converted configuration files and results exports.
package migrate

import (
	"database/sql"
	"fmt"
	"sort"
)

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
}

// Migrator applies a fixed, in-code migration set to a database.
type Migrator struct {
	db         *sql.DB
	table      string
	migrations []Migration
}

// New creates a migrator for a migration set tracked in the named version
// table.
func New(db *sql.DB, table string, migrations []Migration) *Migrator {
	sorted := append([]Migration(nil), migrations...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})
	return &Migrator{
		db:         db,
		table:      table,
		migrations: sorted,
	}
}

// Up applies every pending migration in version order.
func (m *Migrator) Up() error {
	if _, err := m.db.Exec(fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (version INTEGER NOT NULL)`, m.table)); err != nil {
		return fmt.Errorf("creating migration table: %w", err)
	}

	current, err := m.CurrentVersion()
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version <= current {
			continue
		}
		if err := m.apply(migration); err != nil {
			return fmt.Errorf("applying migration %d (%s): %w", migration.Version, migration.Name, err)
		}
	}
	return nil
}

// CurrentVersion returns the highest applied migration version, 0 when none.
func (m *Migrator) CurrentVersion() (int, error) {
	var version sql.NullInt64
	err := m.db.QueryRow(fmt.Sprintf(`SELECT MAX(version) FROM %s`, m.table)).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("reading migration version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

func (m *Migrator) apply(migration Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(migration.Up); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf(`INSERT INTO %s (version) VALUES (?)`, m.table), migration.Version); err != nil {
		return fmt.Errorf("failed to record migration version: %w", err)
	}
	return tx.Commit()
}
