package database

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsure_CreatesBackingFileLazily(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	m := NewManager(dbPath)
	defer m.Close()

	if _, err := os.Stat(dbPath); !os.IsNotExist(err) {
		t.Fatalf("expected no file before first Ensure, stat err: %v", err)
	}

	if _, err := m.Ensure(); err != nil {
		t.Fatalf("Ensure returned error: %v", err)
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected backing file after Ensure: %v", err)
	}
}

func TestEnsure_IsIdempotent(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "test.db"))
	defer m.Close()

	first, err := m.Ensure()
	if err != nil {
		t.Fatalf("first Ensure returned error: %v", err)
	}
	second, err := m.Ensure()
	if err != nil {
		t.Fatalf("second Ensure returned error: %v", err)
	}
	if first != second {
		t.Fatal("expected Ensure to reuse the existing handle")
	}
}

func TestEnsure_FailsWhenPathUnusable(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing-dir", "nested", "test.db"))
	defer m.Close()

	if _, err := m.Ensure(); err == nil {
		t.Fatal("expected Ensure to fail for an unusable path")
	}
}

func TestClose_SafeWithoutOpenAndRepeatable(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "test.db"))

	if err := m.Close(); err != nil {
		t.Fatalf("Close before open returned error: %v", err)
	}

	if _, err := m.Ensure(); err != nil {
		t.Fatalf("Ensure returned error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("first Close returned error: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close returned error: %v", err)
	}
}
