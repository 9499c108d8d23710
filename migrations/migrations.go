// Package migrations embeds the schema migrations for every storage backend
// and applies them with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed postgres/*.sql
var postgresFS embed.FS

//go:embed sqlite/*.sql
var sqliteFS embed.FS

// NewPostgres returns a migrator for the PostgreSQL database at dsn.
//
// Precondition: dsn must be a postgres:// URL.
// Postcondition: The caller must Close the returned migrator.
func NewPostgres(dsn string) (*migrate.Migrate, error) {
	src, err := iofs.New(postgresFS, "postgres")
	if err != nil {
		return nil, fmt.Errorf("opening embedded postgres migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres migrator: %w", err)
	}
	return m, nil
}

// NewSQLite returns a migrator bound to an open SQLite handle.
//
// Precondition: db must be a database/sql handle opened with the "sqlite" driver.
// Postcondition: Closing the returned migrator also closes db.
func NewSQLite(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(sqliteFS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("opening embedded sqlite migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("creating sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("creating sqlite migrator: %w", err)
	}
	return m, nil
}

// Up applies every pending migration.
//
// Postcondition: Returns nil when the schema is already current.
func Up(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
