package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/example/sqlmigrate/internal/database"
)

// Queryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Ledger reads and writes the bookkeeping table recording applied versions.
// It never caches: every call goes to the database.
type Ledger struct {
	q       Queryer
	dialect database.Dialect
	table   string
	logger  *slog.Logger
}

// NewLedger creates a ledger over table using q for all queries.
func NewLedger(q Queryer, dialect database.Dialect, table string, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		q:       q,
		dialect: dialect,
		table:   table,
		logger:  logger,
	}
}

// Within returns a copy of the ledger issuing its queries through q, typically
// a transaction.
func (l *Ledger) Within(q Queryer) *Ledger {
	clone := *l
	clone.q = q
	return &clone
}

// Table returns the bookkeeping table name.
func (l *Ledger) Table() string {
	return l.table
}

// EnsureTable creates the bookkeeping table when it does not exist yet and
// reports whether it did. An existing table is left untouched.
func (l *Ledger) EnsureTable(ctx context.Context) (bool, error) {
	exists, err := l.tableExists(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		l.logger.Debug("bookkeeping table present", "table", l.table)
		return false, nil
	}

	createSQL := l.dialect.CreateLedgerTable(l.table)
	if _, err := l.q.ExecContext(ctx, createSQL); err != nil {
		return false, NewDatabaseError("", createSQL, "create bookkeeping table", err)
	}
	l.logger.Info("bookkeeping table created", "table", l.table)
	return true, nil
}

func (l *Ledger) tableExists(ctx context.Context) (bool, error) {
	querySQL := l.dialect.TableExistsQuery()

	var count int
	if err := l.q.QueryRowContext(ctx, querySQL, l.table).Scan(&count); err != nil {
		return false, NewDatabaseError("", querySQL, "check bookkeeping table", err)
	}
	return count > 0, nil
}

// ListApplied returns every recorded version sorted by version string.
func (l *Ledger) ListApplied(ctx context.Context, order Order) ([]string, error) {
	direction := "ASC"
	if order == Descending {
		direction = "DESC"
	}
	querySQL := fmt.Sprintf("SELECT version FROM %s ORDER BY version %s",
		l.dialect.QuoteIdent(l.table), direction)

	rows, err := l.q.QueryContext(ctx, querySQL)
	if err != nil {
		return nil, NewDatabaseError("", querySQL, "list applied versions", err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, NewDatabaseError("", querySQL, "scan applied version", err)
		}
		versions = append(versions, version)
	}
	if err := rows.Err(); err != nil {
		return nil, NewDatabaseError("", querySQL, "iterate applied versions", err)
	}

	return versions, nil
}

// RecordApply inserts version. A version already present fails with
// ErrDuplicateVersion: the ledger and the catalog disagree.
func (l *Ledger) RecordApply(ctx context.Context, version string) error {
	insertSQL := fmt.Sprintf("INSERT INTO %s (version) VALUES (%s)",
		l.dialect.QuoteIdent(l.table), l.dialect.Placeholder(1))

	if _, err := l.q.ExecContext(ctx, insertSQL, version); err != nil {
		if l.dialect.IsUniqueViolation(err) {
			return NewDatabaseError(version, insertSQL, "record apply",
				fmt.Errorf("%w: %w", ErrDuplicateVersion, err))
		}
		return NewDatabaseError(version, insertSQL, "record apply", err)
	}
	return nil
}

// RecordRevert deletes version. Deleting nothing is not an error.
func (l *Ledger) RecordRevert(ctx context.Context, version string) error {
	deleteSQL := fmt.Sprintf("DELETE FROM %s WHERE version = %s",
		l.dialect.QuoteIdent(l.table), l.dialect.Placeholder(1))

	result, err := l.q.ExecContext(ctx, deleteSQL, version)
	if err != nil {
		return NewDatabaseError(version, deleteSQL, "record revert", err)
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		l.logger.Warn("revert removed no ledger row", "table", l.table, "version", version)
	}
	return nil
}

// Record writes the ledger change matching direction d.
func (l *Ledger) Record(ctx context.Context, d Direction, version string) error {
	if d == Down {
		return l.RecordRevert(ctx, version)
	}
	return l.RecordApply(ctx, version)
}
