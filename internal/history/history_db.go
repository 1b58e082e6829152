package history

import (
	"database/sql"
	"fmt"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05.000"

// Manager stores entries in the query_history table. The database must have
// been opened through storage.OpenDatabase so the table exists.
type Manager struct {
	db        *sql.DB
	workspace string
	cache     *statsCache
}

// NewManager scopes history to one workspace key
func NewManager(db *sql.DB, workspace string) *Manager {
	return &Manager{db: db, workspace: workspace, cache: newStatsCache(statsCacheTTL)}
}

// Save records an entry. A zero timestamp is replaced by the current time.
func (m *Manager) Save(entry Entry) (int64, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	res, err := m.db.Exec(`
		INSERT INTO query_history (
			timestamp, workspace, tab_id, url, proxy, operation_name, query,
			variables, status, duration_ms, response_size, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.Timestamp.UTC().Format(timestampLayout),
		m.workspace,
		entry.TabID,
		entry.URL,
		entry.Proxy,
		entry.OperationName,
		entry.Query,
		entry.Variables,
		entry.Status,
		entry.Duration,
		entry.ResponseSize,
		entry.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save history entry: %w", err)
	}
	m.cache.invalidate(m.workspace)

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read history entry id: %w", err)
	}
	return id, nil
}

// List returns the newest entries first. An empty tabID lists every tab;
// limit <= 0 means no limit.
func (m *Manager) List(tabID string, limit int) ([]Entry, error) {
	query := `
		SELECT id, timestamp, workspace, tab_id, url, proxy, operation_name, query,
		       variables, status, duration_ms, response_size, error
		FROM query_history
		WHERE workspace = ? AND (? = '' OR tab_id = ?)
		ORDER BY timestamp DESC, id DESC
	`
	args := []any{m.workspace, tabID, tabID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := m.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry

	for rows.Next() {
		var (
			entry         Entry
			timestamp     string
			operationName sql.NullString
			variables     sql.NullString
			responseSize  sql.NullInt64
			errorMsg      sql.NullString
		)

		err := rows.Scan(
			&entry.ID,
			&timestamp,
			&entry.Workspace,
			&entry.TabID,
			&entry.URL,
			&entry.Proxy,
			&operationName,
			&entry.Query,
			&variables,
			&entry.Status,
			&entry.Duration,
			&responseSize,
			&errorMsg,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		entry.Timestamp = parseTimestamp(timestamp)
		entry.OperationName = operationName.String
		entry.Variables = variables.String
		entry.ResponseSize = int(responseSize.Int64)
		entry.Error = errorMsg.String

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// parseTimestamp accepts the stored layout and the RFC3339 text the sqlite
// driver produces for DATETIME columns
func parseTimestamp(value string) time.Time {
	if t, err := time.ParseInLocation(timestampLayout, value, time.UTC); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}

// Clear removes the history of the workspace, or of one tab when tabID is set
func (m *Manager) Clear(tabID string) (int64, error) {
	res, err := m.db.Exec(
		"DELETE FROM query_history WHERE workspace = ? AND (? = '' OR tab_id = ?)",
		m.workspace, tabID, tabID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	m.cache.invalidate(m.workspace)
	n, _ := res.RowsAffected()
	return n, nil
}

// Count returns the number of entries of the workspace
func (m *Manager) Count() (int, error) {
	var count int
	err := m.db.QueryRow("SELECT COUNT(*) FROM query_history WHERE workspace = ?", m.workspace).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get history count: %w", err)
	}
	return count, nil
}
