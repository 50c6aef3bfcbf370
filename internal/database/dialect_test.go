package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestDialectFor(t *testing.T) {
	tests := []struct {
		driver   string
		expected string
		wantErr  bool
	}{
		{driver: "postgres", expected: DriverPostgres},
		{driver: "PostgreSQL", expected: DriverPostgres},
		{driver: "pgx", expected: DriverPostgres},
		{driver: "mysql", expected: DriverMySQL},
		{driver: "sqlite", expected: DriverSQLite},
		{driver: " sqlite3 ", expected: DriverSQLite},
		{driver: "oracle", wantErr: true},
		{driver: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			dialect, err := DialectFor(tt.driver)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for driver %q", tt.driver)
				}
				return
			}
			if err != nil {
				t.Fatalf("DialectFor(%q) returned error: %v", tt.driver, err)
			}
			if dialect.Name() != tt.expected {
				t.Fatalf("expected %s dialect, got %s", tt.expected, dialect.Name())
			}
		})
	}
}

func TestDialect_Placeholders(t *testing.T) {
	pg, _ := DialectFor(DriverPostgres)
	my, _ := DialectFor(DriverMySQL)
	lite, _ := DialectFor(DriverSQLite)

	if got := pg.Placeholder(2); got != "$2" {
		t.Errorf("postgres placeholder: got %q", got)
	}
	if got := my.Placeholder(2); got != "?" {
		t.Errorf("mysql placeholder: got %q", got)
	}
	if got := lite.Placeholder(1); got != "?" {
		t.Errorf("sqlite placeholder: got %q", got)
	}
}

func TestDialect_QuoteIdent(t *testing.T) {
	pg, _ := DialectFor(DriverPostgres)
	my, _ := DialectFor(DriverMySQL)

	if got := pg.QuoteIdent(`odd"name`); got != `"odd""name"` {
		t.Errorf("postgres quoting: got %s", got)
	}
	if got := my.QuoteIdent("odd`name"); got != "`odd``name`" {
		t.Errorf("mysql quoting: got %s", got)
	}
}

func TestDialect_CreateLedgerTable(t *testing.T) {
	for _, driver := range []string{DriverPostgres, DriverMySQL, DriverSQLite} {
		dialect, err := DialectFor(driver)
		if err != nil {
			t.Fatalf("DialectFor(%s): %v", driver, err)
		}
		ddl := dialect.CreateLedgerTable("schema_migration")
		if !strings.Contains(ddl, "schema_migration") {
			t.Errorf("%s DDL does not name the table: %s", driver, ddl)
		}
		if !strings.Contains(ddl, "version varchar(255)") {
			t.Errorf("%s DDL lacks the version column: %s", driver, ddl)
		}
		if !strings.Contains(strings.ToUpper(ddl), "UNIQUE") {
			t.Errorf("%s DDL lacks the unique constraint: %s", driver, ddl)
		}
	}
}

func TestDialect_IsUniqueViolation(t *testing.T) {
	pg, _ := DialectFor(DriverPostgres)
	my, _ := DialectFor(DriverMySQL)

	pgErr := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if !pg.IsUniqueViolation(pgErr) {
		t.Error("expected postgres 23505 to be a unique violation")
	}
	if pg.IsUniqueViolation(&pgconn.PgError{Code: "42P01"}) {
		t.Error("42P01 is not a unique violation")
	}

	if !my.IsUniqueViolation(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}) {
		t.Error("expected mysql 1062 to be a unique violation")
	}
	if my.IsUniqueViolation(errors.New("boom")) {
		t.Error("plain errors are not unique violations")
	}
}

func TestSQLiteDialect_UniqueViolationFromDriver(t *testing.T) {
	ctx := context.Background()
	handle, err := Open(ctx, Options{DSN: filepath.Join(t.TempDir(), "ledger.db")})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer handle.Close()

	conn, err := handle.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	defer conn.Close()

	dialect := handle.Dialect()
	if _, err := conn.ExecContext(ctx, dialect.CreateLedgerTable("ledger")); err != nil {
		t.Fatalf("create ledger: %v", err)
	}
	if _, err := conn.ExecContext(ctx, `INSERT INTO "ledger" (version) VALUES (?)`, "v1"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err = conn.ExecContext(ctx, `INSERT INTO "ledger" (version) VALUES (?)`, "v1")
	if err == nil {
		t.Fatal("expected duplicate insert to fail")
	}
	if !dialect.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	var count int
	if err := conn.QueryRowContext(ctx, dialect.TableExistsQuery(), "ledger").Scan(&count); err != nil {
		t.Fatalf("table exists query: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected ledger table to exist, count=%d", count)
	}
}
