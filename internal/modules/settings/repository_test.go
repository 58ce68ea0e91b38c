package settings

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/bidfoundry/quotient/pkg/embedded"
)

func setupConfigDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	content, err := embedded.Files.ReadFile("schemas/config_schema.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(content))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })
	return db
}

func newTestRepository(t *testing.T) *Repository {
	return NewRepository(setupConfigDB(t), zerolog.Nop())
}

func TestSetAndGet(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Set("pricing_base_margin_pct", "0.25", nil))

	value, err := repo.Get("pricing_base_margin_pct")
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, "0.25", *value)

	// Overwrite through the same key
	require.NoError(t, repo.Set("pricing_base_margin_pct", "0.30", nil))
	value, err = repo.Get("pricing_base_margin_pct")
	require.NoError(t, err)
	require.NotNil(t, value)
	assert.Equal(t, "0.30", *value)
}

func TestGetMissingReturnsNil(t *testing.T) {
	repo := newTestRepository(t)

	value, err := repo.Get("never_stored")
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestSetWithDescription(t *testing.T) {
	repo := newTestRepository(t)

	desc := "Starting margin percentage"
	require.NoError(t, repo.Set("pricing_base_margin_pct", "0.22", &desc))

	var stored string
	err := repo.db.QueryRow(
		"SELECT description FROM settings WHERE key = ?", "pricing_base_margin_pct",
	).Scan(&stored)
	require.NoError(t, err)
	assert.Equal(t, desc, stored)
}

func TestTypedGetters(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.SetFloat("volatility_threshold_pct", 7.5))
	floatVal, err := repo.GetFloat("volatility_threshold_pct", 5.0)
	require.NoError(t, err)
	assert.InDelta(t, 7.5, floatVal, 1e-9)

	// Int parsing tolerates float-formatted values
	require.NoError(t, repo.Set("backup_retention_days", "12.0", nil))
	intVal, err := repo.GetInt("backup_retention_days", 7)
	require.NoError(t, err)
	assert.Equal(t, 12, intVal)

	require.NoError(t, repo.SetBool("remote_enabled", true))
	boolVal, err := repo.GetBool("remote_enabled", false)
	require.NoError(t, err)
	assert.True(t, boolVal)

	boolVal, err = repo.GetBool("never_stored", true)
	require.NoError(t, err)
	assert.True(t, boolVal)
}

func TestGetFloatParseFailureFallsBack(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Set("volatility_threshold_pct", "not a number", nil))

	value, err := repo.GetFloat("volatility_threshold_pct", 5.0)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, value, 1e-9)
}

func TestGetAll(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Set("s3_bucket", "quotient-prod", nil))
	require.NoError(t, repo.SetFloat("matching_min_confidence", 0.6))

	all, err := repo.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "quotient-prod", all["s3_bucket"])
}

func TestDeleteIsIdempotent(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.SetFloat("matching_min_confidence", 0.6))
	require.NoError(t, repo.Delete("matching_min_confidence"))

	value, err := repo.Get("matching_min_confidence")
	require.NoError(t, err)
	assert.Nil(t, value)

	// Deleting again is not an error
	require.NoError(t, repo.Delete("matching_min_confidence"))
}
