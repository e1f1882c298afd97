package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrations embed.FS

func (db *DB) provider() (*goose.Provider, error) {
	var (
		dialect = goose.DialectSQLite3
		dir     = "migrations/sqlite"
	)

	if db.driver == DriverPostgres {
		dialect = goose.DialectPostgres
		dir = "migrations/postgres"
	}

	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return nil, fmt.Errorf("sub migrations fs: %w", err)
	}

	provider, err := goose.NewProvider(dialect, db.DB, fsys)
	if err != nil {
		return nil, fmt.Errorf("new migration provider: %w", err)
	}

	return provider, nil
}

// Migrate applies all pending migrations.
func (db *DB) Migrate(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			db.log.ErrorContext(ctx, "migrate failed", "error", err)
		}
	}()

	provider, err := db.provider()
	if err != nil {
		return err
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	for _, r := range results {
		db.log.InfoContext(ctx, "migration applied",
			"version", r.Source.Version,
			"duration", r.Duration,
		)
	}

	return nil
}

// Reset drops every table and recreates the schema. All data is lost.
func (db *DB) Reset(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			db.log.ErrorContext(ctx, "reset failed", "error", err)
		} else {
			db.log.InfoContext(ctx, "database reset")
		}
	}()

	provider, err := db.provider()
	if err != nil {
		return err
	}

	if _, err := provider.DownTo(ctx, 0); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	return nil
}
