// Package testing provides shared test helpers: managed test databases
// and the reference-data fixture set behind the worked pricing example.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/bidfoundry/quotient/internal/database"

	_ "modernc.org/sqlite"
)

// NewTestDB creates a file-backed SQLite database with the embedded
// schema for name applied. File-backed because the PRAGMA profiles
// (WAL, synchronous) behave differently on :memory: databases, and
// because size/stat assertions need a real file.
//
// name must be one of the managed databases: refdata, tenders, audit,
// config, cache. Migrate picks the schema by that name. The database
// is closed via t.Cleanup.
func NewTestDB(t *testing.T, dir, name string) *database.DB {
	t.Helper()

	profile := database.ProfileStandard
	switch name {
	case "audit":
		profile = database.ProfileLedger
	case "cache":
		profile = database.ProfileCache
	}

	db, err := database.New(database.Config{
		Path:    filepath.Join(dir, name+".db"),
		Profile: profile,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	return db
}
