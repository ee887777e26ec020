package database

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// Manager owns the single SQLite connection handle. The handle is opened
// lazily on first use and reused for the lifetime of the process; Close
// releases it on shutdown.
type Manager struct {
	path string
	mu   sync.Mutex
	conn *sql.DB
}

// NewManager creates a manager for the given database file path. No
// connection is opened until Ensure is called.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Ensure opens the database connection if it does not exist yet, creating
// the backing file if absent. Calling Ensure while already connected is a
// no-op returning the existing handle.
func (m *Manager) Ensure() (*sql.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != nil {
		return m.conn, nil
	}

	// SQLite connection with WAL mode for better concurrency
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", m.path)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	// SQLite with WAL mode supports concurrent reads but serializes writes
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)

	log.Debug().Str("path", m.path).Msg("Database connection established")

	m.conn = conn
	return m.conn, nil
}

// Path returns the database file path.
func (m *Manager) Path() string {
	return m.path
}

// Close releases the connection handle if one is open. Safe to call
// multiple times; a no-op if the connection was never opened.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		return nil
	}

	err := m.conn.Close()
	m.conn = nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Debug().Str("path", m.path).Msg("Database connection closed")
	return nil
}

// Ping verifies the connection is usable, opening it if needed.
func (m *Manager) Ping() error {
	conn, err := m.Ensure()
	if err != nil {
		return err
	}
	return conn.Ping()
}
