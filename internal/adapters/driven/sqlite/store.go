// Package sqlite provides the persistent driven adapters, backed by a
// single SQLite database inside the configured data directory. The
// database survives process restarts.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver
)

// Store owns the SQLite database shared by the vector index and the
// book registry.
type Store struct {
	db   *sql.DB
	path string

	// seq hands out insertion-order numbers for chunks. Loaded from
	// the existing maximum at open so order survives restarts.
	seqMu sync.Mutex
	seq   int64
}

// NewStore opens (or creates) the database under dataDir
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("sqlite: data directory is required")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "bookrag.db")

	// WAL mode for better concurrency between readers and the writer
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	if err := s.loadSeq(); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading sequence: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS collections (
		name       TEXT PRIMARY KEY,
		distance   TEXT NOT NULL,
		dimensions INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS chunks (
		collection TEXT NOT NULL REFERENCES collections(name) ON DELETE CASCADE,
		id         TEXT NOT NULL,
		text       TEXT NOT NULL,
		metadata   TEXT NOT NULL DEFAULT '{}',
		embedding  BLOB NOT NULL,
		seq        INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (collection, id)
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_collection ON chunks(collection, seq);

	CREATE TABLE IF NOT EXISTS books (
		id       TEXT NOT NULL,
		user_id  TEXT NOT NULL,
		title    TEXT NOT NULL,
		pages    INTEGER NOT NULL,
		chunks   INTEGER NOT NULL DEFAULT 0,
		added_at DATETIME NOT NULL,
		PRIMARY KEY (user_id, id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) loadSeq() error {
	row := s.db.QueryRow("SELECT COALESCE(MAX(seq), 0) FROM chunks")
	return row.Scan(&s.seq)
}

// nextSeq returns the next insertion-order number
func (s *Store) nextSeq() int64 {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	s.seq++
	return s.seq
}
