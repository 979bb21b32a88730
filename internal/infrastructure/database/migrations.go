package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// MigrationsFS holds the embedded migration files. It is set by the
// migrations package at init time so the SQL ships inside the binary:
//
//	import _ "github.com/nerrad567/kanban-core/migrations"
var MigrationsFS fs.FS

// MigrationsDir is the directory within MigrationsFS containing migration files.
var MigrationsDir = "."

// migrationsTable records the applied schema version.
const migrationsTable = "schema_migrations"

// ErrNoMigrations is returned when MigrationsFS has not been registered.
var ErrNoMigrations = errors.New("no migrations registered")

// MigrationStatus describes the schema version recorded in the database.
type MigrationStatus struct {
	Version uint
	Dirty   bool
}

// Migrate applies all pending up migrations in version order.
//
// Each migration file runs in its own transaction. If migration N fails the
// earlier ones stay committed and the schema is marked dirty at N.
// Running Migrate against an up-to-date schema is a no-op.
func (db *DB) Migrate(ctx context.Context) error {
	m, err := db.newMigrator()
	if err != nil {
		return err
	}

	stop := watchContext(ctx, m)
	defer stop()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return ctx.Err()
}

// MigrateDown rolls back the most recent migration.
// This is primarily for development and testing.
func (db *DB) MigrateDown(ctx context.Context) error {
	m, err := db.newMigrator()
	if err != nil {
		return err
	}

	stop := watchContext(ctx, m)
	defer stop()

	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("rolling back migration: %w", err)
	}
	return nil
}

// GetMigrationStatus returns the current schema version.
// A database with no migrations applied reports version 0.
func (db *DB) GetMigrationStatus(_ context.Context) (MigrationStatus, error) {
	m, err := db.newMigrator()
	if err != nil {
		return MigrationStatus{}, err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationStatus{}, nil
	}
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("reading migration version: %w", err)
	}
	return MigrationStatus{Version: version, Dirty: dirty}, nil
}

// newMigrator builds a migrate instance over the embedded files and this
// connection. The instance is never closed: closing it would close the
// shared *sql.DB as well.
func (db *DB) newMigrator() (*migrate.Migrate, error) {
	if MigrationsFS == nil {
		return nil, ErrNoMigrations
	}

	src, err := iofs.New(MigrationsFS, MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("loading migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db.DB.DB, &migratesqlite.Config{
		MigrationsTable: migrationsTable,
	})
	if err != nil {
		return nil, fmt.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

// watchContext asks m to stop after the current migration once ctx is done.
func watchContext(ctx context.Context, m *migrate.Migrate) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			select {
			case m.GracefulStop <- true:
			default:
			}
		case <-done:
		}
	}()
	return func() { close(done) }
}
