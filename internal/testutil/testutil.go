// Package testutil provides shared test helpers for setting up archives and databases.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/f2023065371-lang/fazal-portfolio/internal/index"
	"github.com/f2023065371-lang/fazal-portfolio/internal/storage"
)

// TestDB creates a temporary SQLite index that is automatically closed.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestArchive creates a temporary document directory and its index.
func TestArchive(t *testing.T) (*storage.FS, *index.DB) {
	t.Helper()
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return store, TestDB(t)
}
