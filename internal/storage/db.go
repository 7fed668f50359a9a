package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// MemoryDB is the path that selects an in-memory database.
const MemoryDB = ":memory:"

// DB wraps the SQLite database connection.
type DB struct {
	conn *sql.DB
	path string
}

// OpenDB opens (or creates) the SQLite database at path. An empty path or
// MemoryDB opens a private in-memory database that lives as long as the DB.
func OpenDB(path string) (*DB, error) {
	if path == "" {
		path = MemoryDB
	}

	dsn := path
	if path != MemoryDB {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Every connection to :memory: is a separate database, and SQLite
	// serializes writers anyway.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, path: path}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Conn returns the underlying sql.DB for direct queries.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the database location, or MemoryDB.
func (db *DB) Path() string {
	return db.path
}

// migrate creates the schema if it doesn't exist.
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS activity (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		op         TEXT    NOT NULL,
		url        TEXT    NOT NULL DEFAULT '',
		title      TEXT    NOT NULL DEFAULT '',
		ok         INTEGER NOT NULL DEFAULT 1,
		message    TEXT    NOT NULL DEFAULT '',
		created_at TEXT    NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_activity_op ON activity(op);
	`

	_, err := db.conn.Exec(schema)
	return err
}
