package registry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jobsift/jobsift/app/database"
	"github.com/jobsift/jobsift/app/importer"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func createSource(t *testing.T, repo *database.SourceRepository, name, slug string, tags []string) *database.Source {
	t.Helper()

	id, err := repo.CreateSource(&database.Source{
		Name:        name,
		SourceType:  database.SourceTypeATS,
		CompanySlug: slug,
		Active:      true,
		Tags:        tags,
	})
	if err != nil {
		t.Fatalf("Failed to create source: %v", err)
	}
	src, err := repo.GetSource(id)
	if err != nil || src == nil {
		t.Fatalf("Failed to read back source: %v", err)
	}
	return src
}

type fakeRunner struct {
	runSource func(ctx context.Context, sourceID string) (importer.Stats, error)
}

func (f *fakeRunner) RunSource(ctx context.Context, sourceID string) (importer.Stats, error) {
	return f.runSource(ctx, sourceID)
}
