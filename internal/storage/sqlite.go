package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// SQLiteBackend stores each collection document as a row of a single table.
type SQLiteBackend struct {
	conn *sql.DB
}

// OpenSQLiteBackend opens the database file and ensures the schema is up to date.
func OpenSQLiteBackend(path string) (*SQLiteBackend, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteBackend{conn: db}, nil
}

// Close closes the database connection.
func (b *SQLiteBackend) Close() error {
	return b.conn.Close()
}

// Read returns the stored document for c, or nil if it was never written.
func (b *SQLiteBackend) Read(c Collection) ([]byte, error) {
	var body string
	err := b.conn.QueryRow(`SELECT body FROM collections WHERE name = ?`, string(mustKnow(c))).Scan(&body)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read collection %s: %w", c, err)
	}
	return []byte(body), nil
}

// Write replaces the document for c inside a transaction.
func (b *SQLiteBackend) Write(c Collection, data []byte) error {
	tx, err := b.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin write of %s: %w", c, err)
	}

	_, err = tx.Exec(`
		INSERT INTO collections (name, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`,
		string(mustKnow(c)),
		string(data),
		time.Now().UTC(),
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to write collection %s: %w", c, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit collection %s: %w", c, err)
	}
	return nil
}
