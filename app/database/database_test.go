package database

import (
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func createTestSource(t *testing.T, db *DB, name, slug string) *Source {
	t.Helper()

	repo := NewSourceRepository(db)
	id, err := repo.CreateSource(&Source{
		Name:        name,
		SourceType:  SourceTypeATS,
		CompanySlug: slug,
		Active:      true,
	})
	if err != nil {
		t.Fatalf("Failed to create test source: %v", err)
	}

	src, err := repo.GetSource(id)
	if err != nil || src == nil {
		t.Fatalf("Failed to read back test source: %v", err)
	}
	return src
}
