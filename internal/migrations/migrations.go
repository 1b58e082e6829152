package migrations

import (
	"database/sql"
	"errors"
	"fmt"
)

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// AllMigrations contains all database migrations in order
var AllMigrations = []Migration{
	{
		Version: 1,
		Name:    "Add tab and timestamp indices to query_history",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_query_history_tab ON query_history(tab_id);
			CREATE INDEX IF NOT EXISTS idx_query_history_timestamp ON query_history(timestamp DESC);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_query_history_tab;
			DROP INDEX IF EXISTS idx_query_history_timestamp;
		`,
	},
	{
		Version: 2,
		Name:    "Add workspace index to query_history",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_query_history_workspace ON query_history(workspace);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_query_history_workspace;
		`,
	},
	{
		Version: 3,
		Name:    "Add endpoint index for history stats",
		Up: `
			CREATE INDEX IF NOT EXISTS idx_query_history_endpoint ON query_history(workspace, url, operation_name);
		`,
		Down: `
			DROP INDEX IF EXISTS idx_query_history_endpoint;
		`,
	},
}

// InitSchema creates all tables required across all modules
// This must be called before running migrations to ensure all tables exist
func InitSchema(db *sql.DB) error {
	schema := `
	-- Durable key-value store backing workspace and tab state
	CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- Executed queries
	CREATE TABLE IF NOT EXISTS query_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		workspace TEXT NOT NULL DEFAULT '',
		tab_id TEXT NOT NULL,
		url TEXT NOT NULL,
		proxy INTEGER NOT NULL DEFAULT 0,
		operation_name TEXT,
		query TEXT NOT NULL,
		variables TEXT,
		status INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		response_size INTEGER,
		error TEXT
	);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Run executes all pending migrations on the database
func Run(db *sql.DB) error {
	// Initialize schema first to ensure all tables exist
	if err := InitSchema(db); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := GetCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	for _, migration := range AllMigrations {
		if migration.Version <= currentVersion {
			continue
		}
		if err := apply(db, migration); err != nil {
			return err
		}
	}

	return nil
}

// apply runs one migration and records it atomically
func apply(db *sql.DB, migration Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", migration.Version, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(migration.Up); err != nil {
		return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Name, err)
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		migration.Version, migration.Name,
	); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
	}

	return tx.Commit()
}

// GetCurrentVersion returns the current database schema version
func GetCurrentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`
		SELECT COALESCE(MAX(version), 0)
		FROM schema_migrations
	`).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	return version, nil
}
