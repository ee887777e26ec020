package database

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultListLimit is the row cap for the unpaginated list operation
	DefaultListLimit = 10
	// MaxPageLimit bounds the page size a caller may request
	MaxPageLimit = 500
)

// Store executes generic table operations against the managed connection.
// Every statement runs under the configured timeout; on timeout the
// in-flight execution is abandoned, not cancelled, so a timed-out write
// may still apply inside the backend.
type Store struct {
	manager *Manager
	timeout time.Duration
}

// NewStore creates a store using the given connection manager and per-call
// timeout.
func NewStore(manager *Manager, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &Store{manager: manager, timeout: timeout}
}

// Manager returns the underlying connection manager.
func (s *Store) Manager() *Manager {
	return s.manager
}

type queryResult struct {
	rows []Row
	err  error
}

type execResult struct {
	lastID   int64
	affected int64
	err      error
}

// runQuery executes a SELECT under the timeout and returns all rows.
func (s *Store) runQuery(query string, args ...any) ([]Row, error) {
	conn, err := s.manager.Ensure()
	if err != nil {
		return nil, err
	}

	done := make(chan queryResult, 1)
	go func() {
		rows, err := conn.Query(query, args...)
		if err != nil {
			done <- queryResult{err: classify(err)}
			return
		}
		defer rows.Close()
		out, err := scanRows(rows)
		done <- queryResult{rows: out, err: err}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.rows, res.err
	case <-timer.C:
		log.Warn().Str("query", query).Dur("timeout", s.timeout).Msg("Query abandoned after timeout")
		return nil, fmt.Errorf("%w after %s", ErrQueryTimeout, s.timeout)
	}
}

// runExec executes a mutating statement under the timeout.
func (s *Store) runExec(query string, args ...any) (lastID, affected int64, err error) {
	conn, err := s.manager.Ensure()
	if err != nil {
		return 0, 0, err
	}

	done := make(chan execResult, 1)
	go func() {
		res, err := conn.Exec(query, args...)
		if err != nil {
			done <- execResult{err: classify(err)}
			return
		}
		// Both are best-effort in SQLite; errors here are not actionable
		id, _ := res.LastInsertId()
		n, _ := res.RowsAffected()
		done <- execResult{lastID: id, affected: n}
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.lastID, res.affected, res.err
	case <-timer.C:
		log.Warn().Str("query", query).Dur("timeout", s.timeout).Msg("Statement abandoned after timeout")
		return 0, 0, fmt.Errorf("%w after %s", ErrQueryTimeout, s.timeout)
	}
}

// List returns the first DefaultListLimit rows of a table in storage order.
func (s *Store) List(table string) ([]Row, error) {
	if err := checkIdentifier(table); err != nil {
		return nil, err
	}
	return s.runQuery(fmt.Sprintf("SELECT * FROM %s LIMIT %d", table, DefaultListLimit))
}

// Get returns the row with the given id, or ErrNotFound.
func (s *Store) Get(table, id string) (Row, error) {
	if err := checkIdentifier(table); err != nil {
		return nil, err
	}
	rows, err := s.runQuery(fmt.Sprintf("SELECT * FROM %s WHERE id = ?", table), id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no row with id %s in %s", ErrNotFound, id, table)
	}
	return rows[0], nil
}

// Page returns one page of rows. Page numbering starts at 1.
func (s *Store) Page(table string, page, limit int) ([]Row, error) {
	if err := checkIdentifier(table); err != nil {
		return nil, err
	}
	if page < 1 || limit < 1 {
		return nil, fmt.Errorf("%w: page and limit must be positive", ErrBadRequest)
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	offset := (page - 1) * limit
	return s.runQuery(fmt.Sprintf("SELECT * FROM %s LIMIT ? OFFSET ?", table), limit, offset)
}

// Insert adds a row built from the column/value map and returns the
// generated row id.
func (s *Store) Insert(table string, body Row) (int64, error) {
	if err := checkIdentifier(table); err != nil {
		return 0, err
	}
	columns, args, err := sortedColumns(body)
	if err != nil {
		return 0, err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders)

	lastID, _, err := s.runExec(query, args...)
	if err != nil {
		return 0, err
	}
	return lastID, nil
}

// Update modifies the row with the given id and returns the affected-row
// count. An empty body is rejected before any statement is built; the
// alternative is a syntactically invalid UPDATE.
func (s *Store) Update(table, id string, body Row) (int64, error) {
	if err := checkIdentifier(table); err != nil {
		return 0, err
	}
	columns, args, err := sortedColumns(body)
	if err != nil {
		return 0, err
	}

	assignments := make([]string, len(columns))
	for i, col := range columns {
		assignments[i] = col + " = ?"
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(assignments, ", "))
	_, affected, err := s.runExec(query, args...)
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// Delete removes the row with the given id. The existence check and the
// delete are two separate statements with no transaction between them; a
// concurrent delete of the same id is an accepted race.
func (s *Store) Delete(table, id string) error {
	if _, err := s.Get(table, id); err != nil {
		return err
	}
	_, _, err := s.runExec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	return err
}

// CreateTable creates a table from a raw column-definition fragment.
func (s *Store) CreateTable(name, columns string) error {
	if err := checkIdentifier(name); err != nil {
		return err
	}
	if err := checkDDLFragment(columns); err != nil {
		return err
	}
	_, _, err := s.runExec(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", name, columns))
	return err
}

// AddColumn appends a column to an existing table.
func (s *Store) AddColumn(table, column, columnType string) error {
	if err := checkIdentifier(table); err != nil {
		return err
	}
	if err := checkIdentifier(column); err != nil {
		return fmt.Errorf("%w: invalid column name %q", ErrBadRequest, column)
	}
	if err := checkDDLFragment(columnType); err != nil {
		return err
	}
	_, _, err := s.runExec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, columnType))
	return err
}

// DropTable removes a table and all of its rows.
func (s *Store) DropTable(table string) error {
	if err := checkIdentifier(table); err != nil {
		return err
	}
	_, _, err := s.runExec(fmt.Sprintf("DROP TABLE %s", table))
	return err
}

// Tables lists user table names, excluding SQLite internals.
func (s *Store) Tables() ([]string, error) {
	rows, err := s.runQuery(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		if name, ok := row["name"].(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// Columns describes a table's columns via PRAGMA table_info. SQLite
// reports an empty result rather than an error for missing tables, so that
// case is rewritten to ErrNoSuchTable here.
func (s *Store) Columns(table string) ([]Row, error) {
	if err := checkIdentifier(table); err != nil {
		return nil, err
	}
	rows, err := s.runQuery(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchTable, table)
	}
	return rows, nil
}

// sortedColumns validates and orders a request body's columns so generated
// statements are deterministic.
func sortedColumns(body Row) ([]string, []any, error) {
	if len(body) == 0 {
		return nil, nil, fmt.Errorf("%w: request body must contain at least one column", ErrBadRequest)
	}
	columns := make([]string, 0, len(body))
	for col := range body {
		if !ValidIdentifier(col) {
			return nil, nil, fmt.Errorf("%w: invalid column name %q", ErrBadRequest, col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	args := make([]any, len(columns))
	for i, col := range columns {
		args[i] = body[col]
	}
	return columns, args, nil
}
