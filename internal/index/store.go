package index

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/zbsdsb/ai-session-viewer/internal/logging"
)

// SchemaVersion is the schema the code expects. New migrations raise it.
const SchemaVersion = 1

// Index wraps the SQLite session index. Queries run concurrently under
// WAL mode; reconciles are serialized within the process.
type Index struct {
	db   *sql.DB
	path string
	log  *slog.Logger

	reconcileMu sync.Mutex
}

// Exists reports whether an index database has been built at path.
// Querying a path that does not exist yields empty results without
// creating the file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Open creates or opens the index database at dbPath with WAL mode and
// a busy timeout, and applies the schema.
func Open(dbPath string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("index: mkdir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("index: open: %w", err)
	}

	// WAL mode: allows concurrent readers while writing.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("index: wal mode: %w", err)
	}

	// Busy timeout: wait up to 5s if another process holds a lock.
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("index: busy timeout: %w", err)
	}

	ix := &Index{
		db:   db,
		path: dbPath,
		log:  logging.ForComponent(logging.CompStore),
	}
	if err := ix.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return ix, nil
}

// Close forces a WAL checkpoint before closing so the .db file is complete
// on its own.
func (ix *Index) Close() error {
	_, _ = ix.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return ix.db.Close()
}

// Path returns the database file location.
func (ix *Index) Path() string {
	return ix.path
}

// DB exposes the raw handle, mainly for tests.
func (ix *Index) DB() *sql.DB {
	return ix.db
}

// migrate creates the schema if it does not exist.
func (ix *Index) migrate() error {
	tx, err := ix.db.Begin()
	if err != nil {
		return fmt.Errorf("index: begin migrate: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("index: create metadata: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id            INTEGER PRIMARY KEY,
			tool          TEXT NOT NULL,
			session_id    TEXT NOT NULL,
			project_path  TEXT,
			start_time    TEXT,
			last_time     TEXT,
			message_count INTEGER,
			first_message TEXT,
			summary       TEXT,
			file_path     TEXT NOT NULL UNIQUE,
			file_size     INTEGER,
			model         TEXT,
			mtime         INTEGER
		)
	`); err != nil {
		return fmt.Errorf("index: create sessions: %w", err)
	}

	for _, stmt := range []string{
		"CREATE INDEX IF NOT EXISTS idx_sessions_tool ON sessions(tool)",
		"CREATE INDEX IF NOT EXISTS idx_sessions_start_time ON sessions(start_time)",
		"CREATE INDEX IF NOT EXISTS idx_sessions_project_path ON sessions(project_path)",
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("index: create index: %w", err)
		}
	}

	if _, err := tx.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS sessions_fts
		USING fts5(content, project_path, session_id, tool)
	`); err != nil {
		return fmt.Errorf("index: create fts table: %w", err)
	}

	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO metadata (key, value) VALUES ('schema_version', ?)",
		fmt.Sprintf("%d", SchemaVersion),
	); err != nil {
		return fmt.Errorf("index: set schema version: %w", err)
	}

	return tx.Commit()
}

// fingerprint is the change-detection state kept per indexed file.
type fingerprint struct {
	id    int64
	size  int64
	mtime int64
}

// fingerprints loads the id and (size, mtime) pair for every indexed
// file, keyed by file path.
func (ix *Index) fingerprints() (map[string]fingerprint, error) {
	rows, err := ix.db.Query("SELECT id, file_path, file_size, mtime FROM sessions")
	if err != nil {
		return nil, fmt.Errorf("index: load fingerprints: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]fingerprint)
	for rows.Next() {
		var fp fingerprint
		var path string
		var size, mtime sql.NullInt64
		if err := rows.Scan(&fp.id, &path, &size, &mtime); err != nil {
			return nil, fmt.Errorf("index: scan fingerprint: %w", err)
		}
		fp.size = size.Int64
		fp.mtime = mtime.Int64
		existing[path] = fp
	}
	return existing, rows.Err()
}
