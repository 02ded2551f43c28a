// Package migrations holds the versioned SQL schema and runs it with
// golang-migrate. Each supported driver has its own directory.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// Drivers lists the database drivers with a schema directory
var Drivers = []string{"sqlite", "postgres"}

// databaseURL turns the app's driver/DSN pair into a golang-migrate URL
func databaseURL(driver, dsn string) (string, error) {
	switch driver {
	case "sqlite":
		if dsn == "" || strings.Contains(dsn, ":memory:") {
			return "", fmt.Errorf("sqlite migrations need a database file, got %q", dsn)
		}
		return "sqlite3://" + strings.TrimPrefix(dsn, "file:"), nil
	case "postgres":
		if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
			return "", errors.New("postgres migrations need a postgres:// URL")
		}
		return dsn, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// New builds a migrator from the embedded schema. A non-empty dir replaces
// it with SQL files read from disk.
func New(driver, dsn, dir string) (*migrate.Migrate, error) {
	dbURL, err := databaseURL(driver, dsn)
	if err != nil {
		return nil, err
	}
	if dir != "" {
		return migrate.New("file://"+dir, dbURL)
	}
	src, err := iofs.New(files, driver)
	if err != nil {
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}
	return migrate.NewWithSourceInstance("iofs", src, dbURL)
}

// Up applies every pending migration. An up-to-date schema is not an error.
func Up(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Down rolls back steps migrations, or all of them when steps <= 0
func Down(m *migrate.Migrate, steps int) error {
	var err error
	if steps > 0 {
		err = m.Steps(-steps)
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Status reports the applied version; version 0 means no migrations ran
func Status(m *migrate.Migrate) (version uint, dirty bool, err error) {
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// Close releases the source and database handles
func Close(m *migrate.Migrate) error {
	srcErr, dbErr := m.Close()
	return errors.Join(srcErr, dbErr)
}
