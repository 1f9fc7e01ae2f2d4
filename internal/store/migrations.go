package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Initial schema: raster catalog and analysis log",
		SQL: `
CREATE TABLE IF NOT EXISTS rasters (
    scale TEXT NOT NULL,
    year INTEGER NOT NULL,
    month INTEGER NOT NULL,
    path TEXT NOT NULL,
    rows INTEGER,
    cols INTEGER,
    min_lat REAL,
    max_lat REAL,
    min_lon REAL,
    max_lon REAL,
    resolution REAL,
    fetched_at DATETIME NOT NULL,
    PRIMARY KEY (scale, year, month)
);

CREATE TABLE IF NOT EXISTS analysis_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    scale TEXT NOT NULL,
    year INTEGER NOT NULL,
    month INTEGER NOT NULL,
    region TEXT NOT NULL,
    total_area REAL,
    hazard_area REAL,
    hazard_pct REAL,
    valid_cells INTEGER,
    child_count INTEGER,
    duration_ms INTEGER,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_rasters_fetched ON rasters(fetched_at);
`,
	},
	{
		Version:     2,
		Description: "Add warnings table for threshold-derived drought warnings",
		SQL: `
CREATE TABLE IF NOT EXISTS warnings (
    region TEXT NOT NULL,
    scale TEXT NOT NULL,
    year INTEGER NOT NULL,
    month INTEGER NOT NULL,
    level TEXT NOT NULL,
    hazard_pct REAL NOT NULL,
    headline TEXT,
    first_seen_at DATETIME NOT NULL,
    last_seen_at DATETIME NOT NULL,
    PRIMARY KEY (region, scale)
);

CREATE INDEX IF NOT EXISTS idx_warnings_last_seen ON warnings(last_seen_at);
`,
	},
	{
		Version:     3,
		Description: "Index analysis log by recency for the history page",
		SQL: `
CREATE INDEX IF NOT EXISTS idx_analysis_created ON analysis_runs(created_at);
`,
	},
	{
		Version:     4,
		Description: "Add fetch_runs audit log for raster downloads",
		SQL: `
CREATE TABLE IF NOT EXISTS fetch_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at DATETIME NOT NULL,
    finished_at DATETIME,
    source TEXT NOT NULL,
    period TEXT NOT NULL,
    bytes_fetched INTEGER,
    success BOOLEAN NOT NULL DEFAULT FALSE,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_fetch_runs_started ON fetch_runs(started_at);
`,
	},
	{
		Version:     5,
		Description: "Record raster file checksums and sizes for provenance",
		SQL: `
ALTER TABLE rasters ADD COLUMN sha256 TEXT;
ALTER TABLE rasters ADD COLUMN size_bytes INTEGER;
`,
	},
}

func (s *Store) Migrate() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("get applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		log.Printf("migrations: applying %d (%s)", m.Version, m.Description)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Description, time.Now().UTC(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}

		log.Printf("migrations: completed %d", m.Version)
	}

	return nil
}

func (s *Store) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME
		)
	`)
	return err
}

func (s *Store) getAppliedMigrations() (map[int]bool, error) {
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (s *Store) MigrationVersion() (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
