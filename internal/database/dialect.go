package database

import (
	"fmt"
	"strings"
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Dialect abstracts the provider-specific SQL the migration ledger needs.
type Dialect interface {
	// Name returns the canonical driver name (postgres, mysql, sqlite).
	Name() string

	// DriverName returns the database/sql driver registered for the dialect.
	DriverName() string

	// QuoteIdent quotes a table name for use in generated statements.
	QuoteIdent(name string) string

	// Placeholder returns the bind parameter marker for the n-th argument (1-based).
	Placeholder(n int) string

	// TableExistsQuery returns a query taking the table name as its only
	// argument and yielding a single count column.
	TableExistsQuery() string

	// CreateLedgerTable returns the DDL creating the bookkeeping table.
	CreateLedgerTable(table string) string

	// IsUniqueViolation reports whether err is a unique constraint violation.
	IsUniqueViolation(err error) bool
}

// DialectFor returns the dialect registered under driver.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverPostgres, "postgresql", "pgx":
		return postgresDialect{}, nil
	case DriverMySQL:
		return mysqlDialect{}, nil
	case DriverSQLite, "sqlite3":
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}
