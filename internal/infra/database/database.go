// Package database opens the application database and owns its schema.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "modernc.org/sqlite"             // registers "sqlite"

	"github.com/mkrupp/homecase-blog/internal/infra/logging"
)

// Supported values of Config.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnsupportedDriver is returned by Open for an unknown Config.Driver.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Config selects and tunes the database connection.
type Config struct {
	// Driver is "sqlite" or "postgres"
	Driver string `env:"DRIVER" default:"sqlite"`
	// DSN is a file path for sqlite or a connection URL for postgres
	DSN string `env:"DSN" default:"var/storage/blog.db"`

	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" default:"0"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" default:"5m"`
}

// DB is the shared connection pool. Queries are written with "?"
// placeholders and passed through Rebind.
type DB struct {
	*sql.DB

	driver string
	log    logging.Logger
}

// Open connects to the configured database and verifies the connection.
// The schema is not touched; call Migrate for that.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	log := logging.GetLogger("infra.database").With(
		logging.Group("db", "driver", cfg.Driver),
	)

	var (
		driverName string
		dsn        = cfg.DSN
	)

	switch cfg.Driver {
	case DriverSQLite:
		driverName = "sqlite"

		if err := ensureDir(dsn); err != nil {
			return nil, err
		}

		dsn = sqliteDSN(dsn)
	case DriverPostgres:
		driverName = "pgx"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.DebugContext(ctx, "database opened")

	return &DB{DB: sqlDB, driver: cfg.Driver, log: log}, nil
}

// Wrap adopts an already opened pool, e.g. one created by sqlmock.
func Wrap(sqlDB *sql.DB, driver string) *DB {
	return &DB{
		DB:     sqlDB,
		driver: driver,
		log:    logging.GetLogger("infra.database"),
	}
}

// Driver returns the configured driver name.
func (db *DB) Driver() string {
	return db.driver
}

// Rebind rewrites "?" placeholders into the driver's native form.
func (db *DB) Rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}

	var (
		sb strings.Builder
		n  int
	)

	sb.Grow(len(query) + 8)

	for _, c := range query {
		if c != '?' {
			sb.WriteRune(c)

			continue
		}

		n++
		sb.WriteString("$" + strconv.Itoa(n))
	}

	return sb.String()
}

// Close closes the pool.
func (db *DB) Close() error {
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

// sqliteDSN enables foreign keys and a busy timeout on every pooled
// connection. DSNs that carry their own query string are left alone.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn
	}

	return dsn + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func ensureDir(dsn string) error {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}

	path, _, _ := strings.Cut(dsn, "?")

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}

	return nil
}
