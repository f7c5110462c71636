package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sqlite connection backing the marketplace snapshot store
type DB struct {
	*sql.DB
}

// NewDB opens the snapshot database with WAL and pooling configured
func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "bidguard.db")
	connStr := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	d := &DB{DB: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Snapshot database initialized", "path", dbPath)
	return d, nil
}

// migrate creates the schema if it does not exist
func (d *DB) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS missions (
			id TEXT PRIMARY KEY,
			budget TEXT NOT NULL,
			complexity TEXT NOT NULL,
			urgency TEXT NOT NULL,
			required_skills TEXT NOT NULL,
			category TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS providers (
			id TEXT PRIMARY KEY,
			rating REAL NOT NULL,
			completed_projects INTEGER NOT NULL,
			success_rate REAL NOT NULL,
			response_time_hours REAL NOT NULL,
			skills TEXT NOT NULL,
			location TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS bids (
			id TEXT PRIMARY KEY,
			mission_id TEXT NOT NULL,
			provider_id TEXT NOT NULL,
			price TEXT NOT NULL,
			timeline_days INTEGER NOT NULL,
			submitted_at TIMESTAMP NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (mission_id) REFERENCES missions(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bids_mission ON bids(mission_id)`,
		`CREATE TABLE IF NOT EXISTS integrity_reports (
			mission_id TEXT PRIMARY KEY,
			snapshot_hash TEXT NOT NULL,
			report TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range schema {
		if _, err := d.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
