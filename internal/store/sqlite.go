// ABOUTME: SQLite implementation of settings.Backend using modernc.org/sqlite
// ABOUTME: Stores one row per (level, key) with JSON encoded values

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cocomud/cocomud/internal/settings"
)

// SQLiteStore implements settings.Backend using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS settings (
			level      INTEGER NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (level, key),
			CHECK (level BETWEEN 1 AND 4)
		);

		CREATE INDEX IF NOT EXISTS idx_settings_key ON settings(key);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadLayer returns every override stored for level.
func (s *SQLiteStore) LoadLayer(ctx context.Context, level settings.Level) (map[string]any, error) {
	if !level.Valid() {
		return nil, settings.ErrInvalidLevel
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM settings WHERE level = ?`, int(level))
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]any)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scanning setting: %w", err)
		}
		v, err := decodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", key, err)
		}
		values[key] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating settings: %w", err)
	}
	return values, nil
}

// SaveLayer replaces every override stored for level in one transaction.
func (s *SQLiteStore) SaveLayer(ctx context.Context, level settings.Level, values map[string]any) error {
	if !level.Valid() {
		return settings.ErrInvalidLevel
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM settings WHERE level = ?`, int(level)); err != nil {
		return fmt.Errorf("clearing %s layer: %w", level, err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for key, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings (level, key, value, updated_at) VALUES (?, ?, ?, ?)`,
			int(level), key, string(raw), now,
		); err != nil {
			return fmt.Errorf("inserting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s layer: %w", level, err)
	}

	s.logger.Debug("settings layer saved", "level", level.String(), "keys", len(values))
	return nil
}

// PutSetting upserts a single override.
func (s *SQLiteStore) PutSetting(ctx context.Context, level settings.Level, key string, value any) error {
	if !level.Valid() {
		return settings.ErrInvalidLevel
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (level, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(level, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, int(level), key, string(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving setting: %w", err)
	}
	return nil
}

// GetSetting returns a single override, or ErrNotFound.
func (s *SQLiteStore) GetSetting(ctx context.Context, level settings.Level, key string) (*Setting, error) {
	var raw, updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT value, updated_at FROM settings WHERE level = ? AND key = ?`,
		int(level), key,
	).Scan(&raw, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying setting: %w", err)
	}

	v, err := decodeValue(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}
	updatedAt, err := time.Parse(time.RFC3339, updated)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &Setting{Level: level, Key: key, Value: v, UpdatedAt: updatedAt}, nil
}

// DeleteSetting removes a single override. Returns ErrNotFound if absent.
func (s *SQLiteStore) DeleteSetting(ctx context.Context, level settings.Level, key string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM settings WHERE level = ? AND key = ?`, int(level), key)
	if err != nil {
		return fmt.Errorf("deleting setting: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// decodeValue restores a JSON encoded value. Whole numbers come back as int
// so they compare equal to values read from YAML.
func decodeValue(raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	if f, ok := v.(float64); ok && f == float64(int(f)) {
		return int(f), nil
	}
	return v, nil
}
