// Package settings manages runtime configuration stored in config.db.
// Settings are key-value pairs layered over compiled-in defaults and take
// precedence over environment variables, so the pricing desk can retune
// the pipeline without a restart.
package settings

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles settings database operations. Values are stored as
// strings and converted on read; the typed getters fall back to a default
// when the key is absent or unparseable.
// Database: config.db (settings table)
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new settings repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "settings").Logger(),
	}
}

// Get retrieves a setting value by key. Returns nil if the setting does
// not exist (not an error).
func (r *Repository) Get(key string) (*string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return &value, nil
}

// Set stores a setting value, inserting or updating as needed. The
// description is optional.
func (r *Repository) Set(key string, value string, description *string) error {
	now := time.Now().Unix()

	if description != nil {
		_, err := r.db.Exec(`
			INSERT INTO settings (key, value, description, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				description = excluded.description,
				updated_at = excluded.updated_at
		`, key, value, *description, now)
		return err
	}

	_, err := r.db.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, now)
	return err
}

// GetAll retrieves all stored settings as a map of raw string values.
func (r *Repository) GetAll() (map[string]string, error) {
	rows, err := r.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("failed to get all settings: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan setting row")
			continue
		}
		result[key] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settings: %w", err)
	}

	return result, nil
}

// GetFloat retrieves a setting as float64, returning defaultValue when the
// key is absent. Parse failures are logged, not returned.
func (r *Repository) GetFloat(key string, defaultValue float64) (float64, error) {
	value, err := r.Get(key)
	if err != nil {
		return defaultValue, err
	}
	if value == nil {
		return defaultValue, nil
	}

	floatVal, err := strconv.ParseFloat(*value, 64)
	if err != nil {
		r.log.Warn().
			Err(err).
			Str("key", key).
			Str("value", *value).
			Msg("Failed to parse float setting")
		return defaultValue, nil
	}

	return floatVal, nil
}

// SetFloat stores a float64 setting
func (r *Repository) SetFloat(key string, value float64) error {
	return r.Set(key, fmt.Sprintf("%f", value), nil)
}

// GetInt retrieves a setting as int, returning defaultValue when the key
// is absent. Parses via float first to handle "12.0" strings.
func (r *Repository) GetInt(key string, defaultValue int) (int, error) {
	value, err := r.Get(key)
	if err != nil {
		return defaultValue, err
	}
	if value == nil {
		return defaultValue, nil
	}

	floatVal, err := strconv.ParseFloat(*value, 64)
	if err != nil {
		r.log.Warn().
			Err(err).
			Str("key", key).
			Str("value", *value).
			Msg("Failed to parse int setting")
		return defaultValue, nil
	}

	return int(floatVal), nil
}

// SetInt stores an integer setting
func (r *Repository) SetInt(key string, value int) error {
	return r.Set(key, fmt.Sprintf("%d", value), nil)
}

// GetBool retrieves a setting as bool. Recognizes "true", "1", "yes" and
// "on" as truthy; everything else is false.
func (r *Repository) GetBool(key string, defaultValue bool) (bool, error) {
	value, err := r.Get(key)
	if err != nil {
		return defaultValue, err
	}
	if value == nil {
		return defaultValue, nil
	}

	lower := *value
	if lower == "true" || lower == "1" || lower == "yes" || lower == "on" {
		return true, nil
	}

	return false, nil
}

// SetBool stores a boolean setting as "true" or "false"
func (r *Repository) SetBool(key string, value bool) error {
	strVal := "false"
	if value {
		strVal = "true"
	}
	return r.Set(key, strVal, nil)
}

// Delete removes a setting override. Idempotent.
func (r *Repository) Delete(key string) error {
	_, err := r.db.Exec("DELETE FROM settings WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}
