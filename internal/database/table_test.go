package database

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	m := NewManager(filepath.Join(t.TempDir(), "test.db"))
	t.Cleanup(func() { _ = m.Close() })

	s := NewStore(m, 30*time.Second)
	if err := s.CreateTable("items", "id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, sku TEXT UNIQUE"); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	return s
}

func seedItems(t *testing.T, s *Store, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		if _, err := s.Insert("items", Row{
			"name": fmt.Sprintf("item-%d", i),
			"sku":  fmt.Sprintf("sku-%d", i),
		}); err != nil {
			t.Fatalf("failed to seed row %d: %v", i, err)
		}
	}
}

func countItems(t *testing.T, s *Store) int64 {
	t.Helper()
	rows, err := s.runQuery("SELECT COUNT(*) AS n FROM items")
	if err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	n, ok := rows[0]["n"].(int64)
	if !ok {
		t.Fatalf("unexpected count type %T", rows[0]["n"])
	}
	return n
}

func TestList_CapsAtTenRowsInStorageOrder(t *testing.T) {
	s := testStore(t)
	seedItems(t, s, 25)

	rows, err := s.List("items")
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(rows))
	}
	if rows[0]["name"] != "item-1" || rows[9]["name"] != "item-10" {
		t.Fatalf("expected storage order, got first=%v last=%v", rows[0]["name"], rows[9]["name"])
	}
}

func TestList_MissingTableIsClassified(t *testing.T) {
	s := testStore(t)

	_, err := s.List("nonexistent")
	if !errors.Is(err, ErrNoSuchTable) {
		t.Fatalf("expected ErrNoSuchTable, got %v", err)
	}
}

func TestGet_ReturnsRowOrNotFound(t *testing.T) {
	s := testStore(t)
	seedItems(t, s, 3)

	row, err := s.Get("items", "2")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if row["name"] != "item-2" {
		t.Fatalf("expected item-2, got %v", row["name"])
	}

	_, err = s.Get("items", "999")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPage_ReturnsRequestedWindow(t *testing.T) {
	s := testStore(t)
	seedItems(t, s, 25)

	page1, err := s.Page("items", 1, 10)
	if err != nil {
		t.Fatalf("Page returned error: %v", err)
	}
	if len(page1) != 10 || page1[0]["name"] != "item-1" || page1[9]["name"] != "item-10" {
		t.Fatalf("unexpected page 1: len=%d first=%v last=%v", len(page1), page1[0]["name"], page1[9]["name"])
	}

	page3, err := s.Page("items", 3, 10)
	if err != nil {
		t.Fatalf("Page returned error: %v", err)
	}
	if len(page3) != 5 || page3[0]["name"] != "item-21" || page3[4]["name"] != "item-25" {
		t.Fatalf("unexpected page 3: len=%d", len(page3))
	}

	beyond, err := s.Page("items", 10, 10)
	if err != nil {
		t.Fatalf("Page returned error: %v", err)
	}
	if len(beyond) != 0 {
		t.Fatalf("expected empty page past the end, got %d rows", len(beyond))
	}
}

func TestPage_RejectsNonPositiveParams(t *testing.T) {
	s := testStore(t)

	if _, err := s.Page("items", 0, 10); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for page 0, got %v", err)
	}
	if _, err := s.Page("items", 1, 0); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for limit 0, got %v", err)
	}
}

func TestInsert_RoundTripsThroughGet(t *testing.T) {
	s := testStore(t)

	id, err := s.Insert("items", Row{"name": "widget", "sku": "w-1"})
	if err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected generated id 1, got %d", id)
	}

	row, err := s.Get("items", fmt.Sprintf("%d", id))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if row["name"] != "widget" || row["sku"] != "w-1" {
		t.Fatalf("round trip mismatch: %v", row)
	}
}

func TestInsert_UniqueViolationIsConflictAndAddsNothing(t *testing.T) {
	s := testStore(t)
	seedItems(t, s, 1)

	_, err := s.Insert("items", Row{"name": "dup", "sku": "sku-1"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if n := countItems(t, s); n != 1 {
		t.Fatalf("expected 1 row after failed insert, got %d", n)
	}
}

func TestInsert_EmptyBodyRejected(t *testing.T) {
	s := testStore(t)

	if _, err := s.Insert("items", Row{}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestUpdate_AffectsMatchingRow(t *testing.T) {
	s := testStore(t)
	seedItems(t, s, 2)

	affected, err := s.Update("items", "1", Row{"name": "renamed"})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 affected row, got %d", affected)
	}

	row, err := s.Get("items", "1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if row["name"] != "renamed" {
		t.Fatalf("expected renamed, got %v", row["name"])
	}
}

func TestUpdate_EmptyBodyRejectedBeforeExecution(t *testing.T) {
	s := testStore(t)
	seedItems(t, s, 1)

	if _, err := s.Update("items", "1", Row{}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestDelete_RemovesExactlyOneRow(t *testing.T) {
	s := testStore(t)
	seedItems(t, s, 3)

	if err := s.Delete("items", "2"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if n := countItems(t, s); n != 2 {
		t.Fatalf("expected 2 rows after delete, got %d", n)
	}
	if _, err := s.Get("items", "2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDelete_MissingRowLeavesTableUnchanged(t *testing.T) {
	s := testStore(t)
	seedItems(t, s, 3)

	if err := s.Delete("items", "99"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n := countItems(t, s); n != 3 {
		t.Fatalf("expected table unchanged, got %d rows", n)
	}
}

func TestCreateTable_ValidatesInput(t *testing.T) {
	s := testStore(t)

	if err := s.CreateTable("bad name", "id INTEGER"); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for invalid name, got %v", err)
	}
	if err := s.CreateTable("ok", ""); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for empty columns, got %v", err)
	}
	if err := s.CreateTable("ok", "id INTEGER); DROP TABLE items; --"); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for multi-statement fragment, got %v", err)
	}
}

func TestCreateTable_BackendErrorIsExecutionError(t *testing.T) {
	s := testStore(t)

	err := s.CreateTable("broken", "id INTEGER,,")
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected ExecutionError, got %v", err)
	}
}

func TestAddColumn_ThenInsertUsesIt(t *testing.T) {
	s := testStore(t)

	if err := s.AddColumn("items", "qty", "INTEGER DEFAULT 0"); err != nil {
		t.Fatalf("AddColumn returned error: %v", err)
	}

	id, err := s.Insert("items", Row{"name": "boxed", "sku": "b-1", "qty": 7})
	if err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	row, err := s.Get("items", fmt.Sprintf("%d", id))
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if row["qty"] != int64(7) {
		t.Fatalf("expected qty 7, got %v (%T)", row["qty"], row["qty"])
	}
}

func TestAddColumn_MissingTableIsClassified(t *testing.T) {
	s := testStore(t)

	err := s.AddColumn("nonexistent", "qty", "INTEGER")
	if !errors.Is(err, ErrNoSuchTable) {
		t.Fatalf("expected ErrNoSuchTable, got %v", err)
	}
}

func TestTablesAndColumns(t *testing.T) {
	s := testStore(t)
	if err := s.CreateTable("archive", "id INTEGER PRIMARY KEY"); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}

	tables, err := s.Tables()
	if err != nil {
		t.Fatalf("Tables returned error: %v", err)
	}
	if len(tables) != 2 || tables[0] != "archive" || tables[1] != "items" {
		t.Fatalf("unexpected tables: %v", tables)
	}

	columns, err := s.Columns("items")
	if err != nil {
		t.Fatalf("Columns returned error: %v", err)
	}
	if len(columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(columns))
	}

	if _, err := s.Columns("nonexistent"); !errors.Is(err, ErrNoSuchTable) {
		t.Fatalf("expected ErrNoSuchTable, got %v", err)
	}
}

func TestDropTable_RemovesTable(t *testing.T) {
	s := testStore(t)

	if err := s.DropTable("items"); err != nil {
		t.Fatalf("DropTable returned error: %v", err)
	}
	if _, err := s.List("items"); !errors.Is(err, ErrNoSuchTable) {
		t.Fatalf("expected ErrNoSuchTable after drop, got %v", err)
	}
}

func TestHostileIdentifiersRejectedBeforeExecution(t *testing.T) {
	s := testStore(t)
	seedItems(t, s, 1)

	if _, err := s.List("items; DROP TABLE items"); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
	if _, err := s.Insert("items", Row{"name": "x", "sku=?, name": "y"}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for hostile column, got %v", err)
	}
	if n := countItems(t, s); n != 1 {
		t.Fatalf("expected table unchanged, got %d rows", n)
	}
}

func TestRunQuery_TimesOutAndAbandonsStatement(t *testing.T) {
	s := testStore(t)
	// Warm the connection so the timeout covers execution only
	if _, err := s.manager.Ensure(); err != nil {
		t.Fatalf("Ensure returned error: %v", err)
	}

	slow := NewStore(s.manager, time.Millisecond)
	_, err := slow.runQuery(`
		WITH RECURSIVE c(x) AS (SELECT 1 UNION ALL SELECT x + 1 FROM c WHERE x < 5000000)
		SELECT COUNT(x) FROM c
	`)
	if !errors.Is(err, ErrQueryTimeout) {
		t.Fatalf("expected ErrQueryTimeout, got %v", err)
	}
}
