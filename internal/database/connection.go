package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
)

// Options selects and configures the database a migration run talks to.
type Options struct {
	// Driver is one of postgres, mysql or sqlite. Empty means detect from DSN.
	Driver string

	// DSN is the connection string handed to the driver.
	DSN string
}

// Opener opens a database handle. Open is the production implementation.
type Opener func(ctx context.Context, opts Options) (*Handle, error)

// Handle owns a database pool limited to a single connection.
type Handle struct {
	db      *sql.DB
	dialect Dialect
}

// Open validates opts, opens the pool and pings the server.
func Open(ctx context.Context, opts Options) (*Handle, error) {
	if strings.TrimSpace(opts.DSN) == "" {
		return nil, errors.New("connection string cannot be empty")
	}

	driver := opts.Driver
	dsn := opts.DSN
	if driver == "" {
		detected, err := DetectDriver(dsn)
		if err != nil {
			return nil, err
		}
		driver = detected
	}

	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	dsn, err = normalizeDSN(dialect.Name(), dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect.Name(), err)
	}

	// Migrations are issued strictly in sequence over one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect.Name(), err)
	}

	return &Handle{db: db, dialect: dialect}, nil
}

// Dialect returns the dialect the handle was opened with.
func (h *Handle) Dialect() Dialect {
	return h.dialect
}

// DB exposes the underlying pool.
func (h *Handle) DB() *sql.DB {
	return h.db
}

// Conn acquires the handle's single connection. Callers must Close it.
func (h *Handle) Conn(ctx context.Context) (*sql.Conn, error) {
	conn, err := h.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire %s connection: %w", h.dialect.Name(), err)
	}
	return conn, nil
}

// Close closes the pool.
func (h *Handle) Close() error {
	if h == nil || h.db == nil {
		return nil
	}
	return h.db.Close()
}

// DetectDriver infers the driver from the shape of a connection string.
func DetectDriver(dsn string) (string, error) {
	value := strings.TrimSpace(dsn)
	lower := strings.ToLower(value)

	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DriverPostgres, nil
	case strings.HasPrefix(lower, "mysql://"):
		return DriverMySQL, nil
	case strings.HasPrefix(lower, "sqlite://"), strings.HasPrefix(lower, "file:"), value == ":memory:":
		return DriverSQLite, nil
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return DriverSQLite, nil
	case strings.Contains(value, "@tcp(") || strings.Contains(value, "@unix("):
		return DriverMySQL, nil
	case strings.Contains(lower, "host=") || strings.Contains(lower, "dbname="):
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("cannot detect driver from connection string; set the driver explicitly")
}

// normalizeDSN strips URL schemes the underlying drivers do not understand
// and validates the result early to provide actionable errors.
func normalizeDSN(driver, dsn string) (string, error) {
	switch driver {
	case DriverPostgres:
		if _, err := pgx.ParseConfig(dsn); err != nil {
			return "", fmt.Errorf("invalid postgres dsn: %w", err)
		}
		return dsn, nil
	case DriverMySQL:
		if len(dsn) >= len("mysql://") && strings.EqualFold(dsn[:len("mysql://")], "mysql://") {
			dsn = dsn[len("mysql://"):]
		}
		if _, err := mysql.ParseDSN(dsn); err != nil {
			return "", fmt.Errorf("invalid mysql dsn: %w", err)
		}
		return dsn, nil
	case DriverSQLite:
		if len(dsn) >= len("sqlite://") && strings.EqualFold(dsn[:len("sqlite://")], "sqlite://") {
			dsn = dsn[len("sqlite://"):]
		}
		if dsn == "" {
			return "", errors.New("invalid sqlite dsn: empty path")
		}
		return dsn, nil
	}
	return dsn, nil
}
