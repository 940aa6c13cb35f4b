package kv

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is a Store backed by a single-table sqlite database.
type SQLite struct {
	db       *sql.DB
	path     string
	maxBytes int64 // 0 = unlimited
}

// Verify SQLite implements Store
var _ Store = (*SQLite)(nil)

// Open creates (or reuses) the database under dataDir.
func Open(dataDir string) (*SQLite, error) {
	return OpenWithQuota(dataDir, 0)
}

// OpenWithQuota opens the database with a total value-size budget in bytes.
// Writes that would push the stored total past the budget fail with
// ErrQuotaExceeded, mirroring browser storage quota behavior.
func OpenWithQuota(dataDir string, maxBytes int64) (*SQLite, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "zenspace.db")
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLite{db: db, path: dbPath, maxBytes: maxBytes}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Get retrieves the value for a key.
func (s *SQLite) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set upserts a value under key, enforcing the byte budget when set.
func (s *SQLite) Set(key string, value []byte) error {
	if s.maxBytes > 0 {
		var current, existing int64
		if err := s.db.QueryRow(`SELECT COALESCE(SUM(LENGTH(value)), 0) FROM kv`).Scan(&current); err != nil {
			return err
		}
		// Replacing a key frees its old bytes first.
		_ = s.db.QueryRow(`SELECT LENGTH(value) FROM kv WHERE key = ?`, key).Scan(&existing)
		if current-existing+int64(len(value)) > s.maxBytes {
			return fmt.Errorf("write %d bytes to %q: %w", len(value), key, ErrQuotaExceeded)
		}
	}

	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now())
	return err
}

// Delete removes a key.
func (s *SQLite) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}

// Keys lists all stored keys.
func (s *SQLite) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
