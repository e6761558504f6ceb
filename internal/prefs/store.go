// Package prefs persists user preferences in a small sqlite database.
package prefs

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"vsxdl/internal/utils"

	_ "modernc.org/sqlite"
)

const KeyDarkMode = "dark_mode"

type Store struct {
	db     *sql.DB
	logger *utils.Logger
}

// Open connects to the database at path, creating its directory. The schema
// is only created when autoMigrate is set.
func Open(path string, autoMigrate bool) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, logger: utils.NewLogger()}
	if autoMigrate {
		if err := createTables(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("database migration error: %w", err)
		}
		s.logger.LogDatabaseOperation("migration", nil)
	}

	return s, nil
}

func createTables(db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := db.Exec(createTableSQL)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the stored value and whether the key exists.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Set(key, value string) error {
	query := `
		INSERT OR REPLACE INTO preferences (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
	`
	if _, err := s.db.Exec(query, key, value); err != nil {
		return fmt.Errorf("failed to write preference %s: %w", key, err)
	}
	return nil
}

// DarkMode defaults to true until the user picks a theme.
func (s *Store) DarkMode() (bool, error) {
	value, ok, err := s.Get(KeyDarkMode)
	if err != nil || !ok {
		return true, err
	}
	dark, err := strconv.ParseBool(value)
	if err != nil {
		s.logger.LogWarning("ignoring invalid %s value %q", KeyDarkMode, value)
		return true, nil
	}
	return dark, nil
}

func (s *Store) SetDarkMode(dark bool) error {
	return s.Set(KeyDarkMode, strconv.FormatBool(dark))
}
