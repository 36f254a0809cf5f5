package migrations

import (
	"context"
	"path/filepath"
	"testing"

	"lorekeeper/app/internal/data/database"
)

func TestMigrateCreatesTables(t *testing.T) {
	t.Parallel()

	db, err := database.Open(database.Options{Path: filepath.Join(t.TempDir(), "lorekeeper.db")})
	if err != nil {
		t.Fatalf("opening database failed: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := database.Close(db); closeErr != nil {
			t.Errorf("closing database failed: %v", closeErr)
		}
	})

	if err := Migrate(context.Background(), db, nil); err != nil {
		t.Fatalf("Migrate returned error: %v", err)
	}
	// A second run must be a no-op.
	if err := Migrate(context.Background(), db, nil); err != nil {
		t.Fatalf("second Migrate returned error: %v", err)
	}

	for _, table := range []string{"wiki_entries", "wiki_aliases", "guild_settings"} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("expected table %s to exist", table)
		}
	}
}

func TestMigrateRequiresDB(t *testing.T) {
	t.Parallel()

	if err := Migrate(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error when db is nil")
	}
}
