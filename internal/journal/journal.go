package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/nerrad567/floralink/internal/poller"
)

const (
	// dirPermissions is the permission mode for the database directory.
	dirPermissions = 0750

	// filePermissions is the permission mode for the database file.
	filePermissions = 0600

	// msPerSecond converts seconds to milliseconds.
	msPerSecond = 1000

	// connectionTimeout is the timeout for verifying database connectivity.
	connectionTimeout = 5 * time.Second
)

// schema is the poll history table, created on open.
const schema = `
CREATE TABLE IF NOT EXISTS poll_history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at TEXT    NOT NULL,
	class       TEXT    NOT NULL,
	name        TEXT    NOT NULL,
	mac         TEXT    NOT NULL,
	success     INTEGER NOT NULL,
	reading     TEXT
);
CREATE INDEX IF NOT EXISTS idx_poll_history_name_time
	ON poll_history(name, recorded_at);
`

// Config contains journal database options.
// These map to the journal section of config.yaml.
type Config struct {
	// Path is the filesystem path to the SQLite database file.
	// The directory will be created if it doesn't exist.
	Path string

	// WALMode enables Write-Ahead Logging for better concurrent access.
	WALMode bool

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	BusyTimeout int
}

// Journal wraps the SQLite connection holding poll history.
type Journal struct {
	db   *sql.DB
	path string
}

// Entry is one recorded acquisition.
type Entry struct {
	ID         int64
	RecordedAt time.Time
	Class      string
	Name       string
	MAC        string
	Success    bool
	Reading    string
}

// Open creates the journal database, applying the schema if needed.
//
// Parameters:
//   - cfg: Journal configuration
//
// Returns:
//   - *Journal: Connected journal
//   - error: If connection or schema setup fails
func Open(cfg Config) (*Journal, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
		cfg.Path,
		cfg.BusyTimeout*msPerSecond,
	)
	if cfg.WALMode {
		connStr += "&_journal_mode=WAL&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("verifying journal connection: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, fmt.Errorf("applying journal schema: %w", err)
	}

	_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // File appears after first write on some filesystems

	return &Journal{db: db, path: cfg.Path}, nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	if err := j.db.Close(); err != nil {
		return fmt.Errorf("closing journal database: %w", err)
	}
	return nil
}

// Path returns the filesystem path to the database file.
func (j *Journal) Path() string {
	return j.path
}

// HealthCheck verifies the database is accessible.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (j *Journal) HealthCheck(ctx context.Context) error {
	var result int
	if err := j.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("journal health check failed: %w", err)
	}
	return nil
}

// RecordResults stores one completed pass. Satisfies the worker's result
// sink; all rows of a pass commit atomically.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - results: The pass outcomes, one per sensor
//
// Returns:
//   - error: If the transaction fails
func (j *Journal) RecordResults(ctx context.Context, results []poller.Result) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting journal transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op if committed

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO poll_history (recorded_at, class, name, mac, success, reading)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing journal insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck // Statement dies with the transaction

	for _, res := range results {
		var reading any
		if res.Success && res.Reading != nil {
			payload, err := json.Marshal(res.Reading)
			if err != nil {
				return fmt.Errorf("encoding reading for journal: %w", err)
			}
			reading = string(payload)
		}

		_, err := stmt.ExecContext(ctx,
			res.Timestamp.UTC().Format(time.RFC3339),
			res.Class,
			res.Name,
			res.MAC,
			res.Success,
			reading,
		)
		if err != nil {
			return fmt.Errorf("recording %s acquisition: %w", res.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing journal transaction: %w", err)
	}
	return nil
}

// History returns a sensor's most recent entries, newest first.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - name: The sensor's cleaned identifier
//   - limit: Maximum rows to return
//
// Returns:
//   - []Entry: Matching entries, newest first
//   - error: If the query fails
func (j *Journal) History(ctx context.Context, name string, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, recorded_at, class, name, mac, success, COALESCE(reading, '')
		 FROM poll_history WHERE name = ?
		 ORDER BY recorded_at DESC, id DESC LIMIT ?`,
		name, limit)
	if err != nil {
		return nil, fmt.Errorf("querying journal history: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only cursor

	var entries []Entry
	for rows.Next() {
		var e Entry
		var recordedAt string
		if err := rows.Scan(&e.ID, &recordedAt, &e.Class, &e.Name, &e.MAC, &e.Success, &e.Reading); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}
		e.RecordedAt, err = time.Parse(time.RFC3339, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing journal timestamp %q: %w", recordedAt, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal history: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than the cutoff.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - before: Entries recorded before this instant are removed
//
// Returns:
//   - int64: Number of rows deleted
//   - error: If the delete fails
func (j *Journal) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := j.db.ExecContext(ctx,
		`DELETE FROM poll_history WHERE recorded_at < ?`,
		before.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("pruning journal: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned rows: %w", err)
	}
	return deleted, nil
}
