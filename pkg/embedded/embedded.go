// Package embedded provides embedded static assets for the application.
package embedded

import (
	"embed"
)

// Files contains all files embedded in the Go binary:
// - Database schemas (schemas/*.sql) - single source of truth, applied by database.Migrate
// - Reference-data seeds (seeds/*.json) - loaded on first run when tables are empty
//
//go:embed schemas seeds
var Files embed.FS
