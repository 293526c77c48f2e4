// Package store provides append-only persistence for labeled training
// samples, backed by SQLite or a flat CSV file.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/ayusman/signbridge/internal/collect"
)

// Backend names accepted by Open.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Dataset is a labeled sample store.
type Dataset interface {
	collect.SampleWriter
	// All returns every stored sample in arrival order.
	All() ([]collect.LabeledSample, error)
	Close() error
}

// Open returns the Dataset for backend at path.
func Open(backend, path string) (Dataset, error) {
	switch backend {
	case BackendCSV, "":
		c, err := NewCSV(path)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendSQLite:
		s, err := New(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", backend)
}

// Store represents a SQLite database connection for storing labeled samples.
type Store struct {
	db   *sql.DB
	path string
	// mu serializes appends; SQLite allows a single writer.
	mu sync.Mutex
}

// New creates a new Store with the given database path.
// It opens the database connection, enables foreign keys, and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

