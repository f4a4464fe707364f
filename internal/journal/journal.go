// Package journal keeps a best-effort index of captures in SQLite.
//
// The journal is auxiliary: the per-key snapshot files are the
// persistence of record, and a journal failure is always a warning,
// never a reason to fail a capture. The busy timeout is kept short so
// a contended journal cannot stall a hook invocation.
package journal

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Entry is one journaled capture.
type Entry struct {
	ID        string `json:"id"`
	KeyRaw    string `json:"key"`
	KeySafe   string `json:"key_safe"`
	Mode      string `json:"mode"` // "metadata" or "code"
	Tool      string `json:"tool,omitempty"`
	Path      string `json:"path"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Bytes     int64  `json:"bytes"`
	Matcher   string `json:"matcher,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// Open opens (and migrates) the journal database at dbPath.
func Open(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	dsn := dbPath + "?_pragma=busy_timeout(1000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := getUserVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS captures (
		  id         TEXT PRIMARY KEY,
		  key_raw    TEXT NOT NULL,
		  key_safe   TEXT NOT NULL,
		  mode       TEXT NOT NULL,
		  tool       TEXT,
		  path       TEXT NOT NULL,
		  width      INTEGER,
		  height     INTEGER,
		  bytes      INTEGER NOT NULL,
		  matcher    TEXT,
		  created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_captures_created
		ON captures(created_at DESC);

		CREATE INDEX IF NOT EXISTS idx_captures_key
		ON captures(key_safe, created_at DESC);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

func getUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

func setUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Record inserts one capture row. The entry ID is assigned here.
func Record(db *sql.DB, e Entry) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}

	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}

	_, err = db.Exec(`
		INSERT INTO captures (id, key_raw, key_safe, mode, tool, path, width, height, bytes, matcher, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), e.KeyRaw, e.KeySafe, e.Mode, e.Tool, e.Path,
		e.Width, e.Height, e.Bytes, e.Matcher, e.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert capture: %w", err)
	}
	return id.String(), nil
}

// Recent returns the newest entries, most recent first. A key filter
// narrows results to one sanitized key; empty means all keys.
func Recent(db *sql.DB, keySafe string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, key_raw, key_safe, mode, tool, path, width, height, bytes, matcher, created_at
		FROM captures`
	args := []any{}
	if keySafe != "" {
		query += ` WHERE key_safe = ?`
		args = append(args, keySafe)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query captures: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var tool, matcher sql.NullString
		var width, height sql.NullInt64
		if err := rows.Scan(&e.ID, &e.KeyRaw, &e.KeySafe, &e.Mode, &tool, &e.Path,
			&width, &height, &e.Bytes, &matcher, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan capture: %w", err)
		}
		e.Tool = tool.String
		e.Matcher = matcher.String
		e.Width = int(width.Int64)
		e.Height = int(height.Int64)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
