package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrateUp applies every up script in name order. Scripts are idempotent,
// so running it against an existing database is safe.
func MigrateUp(db *sql.DB) error {
	_, err := applyMigrations(db, ".up.sql", false)
	return err
}

// MigrateDown applies the down scripts newest first.
func MigrateDown(db *sql.DB) error {
	_, err := applyMigrations(db, ".down.sql", true)
	return err
}

// Migrations lists the embedded up scripts.
func Migrations() ([]string, error) {
	entries, err := fs.Glob(migrationFiles, "migrations/*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(entries)
	return entries, nil
}

func applyMigrations(db *sql.DB, suffix string, reverse bool) ([]string, error) {
	entries, err := fs.Glob(migrationFiles, "migrations/*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(entries)
	if reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(entries)))
	}
	for _, name := range entries {
		sqlBytes, readErr := migrationFiles.ReadFile(name)
		if readErr != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, readErr)
		}
		if _, execErr := db.Exec(string(sqlBytes)); execErr != nil {
			return nil, fmt.Errorf("apply migration %s: %w", name, execErr)
		}
	}
	return entries, nil
}
