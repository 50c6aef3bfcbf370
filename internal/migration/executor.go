package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// TxMode controls how a work unit is wrapped.
type TxMode string

const (
	// TxModeUnit runs each work unit's statements and its ledger write in one
	// transaction committed only on full success.
	TxModeUnit TxMode = "unit"

	// TxModeNone runs statements directly on the connection. A failure leaves
	// the effects of earlier statements in place.
	TxModeNone TxMode = "none"
)

// Conn is the database connection the executor runs work units on.
type Conn interface {
	Queryer
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Executor runs planned work units strictly in order and stops on the first
// failure.
type Executor struct {
	conn   Conn
	ledger *Ledger
	mode   TxMode
	logger *slog.Logger
}

// NewExecutor creates an executor writing ledger updates through ledger.
func NewExecutor(conn Conn, ledger *Ledger, mode TxMode, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	if mode == "" {
		mode = TxModeUnit
	}
	return &Executor{
		conn:   conn,
		ledger: ledger,
		mode:   mode,
		logger: logger,
	}
}

// Execute runs units in order. The returned result lists completed versions
// even when an error stops the run.
func (e *Executor) Execute(ctx context.Context, units []WorkUnit) (Result, error) {
	result := Result{
		State:   StateExecuting,
		Planned: make([]string, len(units)),
	}
	for i, unit := range units {
		result.Planned[i] = unit.File.Version
	}
	if len(units) > 0 {
		result.Direction = units[0].File.Direction
	}

	startTime := time.Now()
	for i, unit := range units {
		unitStart := time.Now()
		logger := e.logger.With(
			"version", unit.File.Version,
			"file", unit.File.Name,
			"direction", string(unit.File.Direction),
			"step", fmt.Sprintf("%d/%d", i+1, len(units)),
		)
		logger.Info("executing migration", "statements", len(unit.Statements))

		var err error
		if e.mode == TxModeNone {
			err = e.runDirect(ctx, unit)
		} else {
			err = e.runInTransaction(ctx, unit)
		}
		if err != nil {
			result.State = StateFailed
			result.Failed = unit.File.Version
			logger.Error("migration failed; remaining migrations skipped",
				"error", err,
				"error_kind", ErrorKind(err),
				"completed", len(result.Completed),
				"skipped", len(units)-i-1)
			return result, err
		}

		result.Completed = append(result.Completed, unit.File.Version)
		logger.Info("migration completed", "duration", time.Since(unitStart))
	}

	result.State = StateComplete
	e.logger.Info("migration run completed",
		"count", len(result.Completed),
		"duration", time.Since(startTime))
	return result, nil
}

func (e *Executor) runInTransaction(ctx context.Context, unit WorkUnit) (err error) {
	tx, err := e.conn.BeginTx(ctx, nil)
	if err != nil {
		return NewMigrationError(unit.File.Version, unit.File.Path, "begin transaction",
			NewDatabaseError(unit.File.Version, "", "begin transaction", err))
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				e.logger.Error("rollback failed", "version", unit.File.Version, "error", rollbackErr)
			}
		}
	}()

	if err = e.runStatements(ctx, tx, unit); err != nil {
		return err
	}

	if err = e.ledger.Within(tx).Record(ctx, unit.File.Direction, unit.File.Version); err != nil {
		return NewMigrationError(unit.File.Version, unit.File.Path, "record version", err)
	}

	if err = tx.Commit(); err != nil {
		return NewMigrationError(unit.File.Version, unit.File.Path, "commit transaction",
			NewDatabaseError(unit.File.Version, "", "commit transaction", err))
	}
	return nil
}

func (e *Executor) runDirect(ctx context.Context, unit WorkUnit) error {
	if err := e.runStatements(ctx, e.conn, unit); err != nil {
		return err
	}

	if err := e.ledger.Within(e.conn).Record(ctx, unit.File.Direction, unit.File.Version); err != nil {
		return NewMigrationError(unit.File.Version, unit.File.Path, "record version",
			fmt.Errorf("%w: %w", ErrLedgerUpdate, err))
	}
	return nil
}

func (e *Executor) runStatements(ctx context.Context, q Queryer, unit WorkUnit) error {
	for i, stmt := range unit.Statements {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			return NewMigrationError(unit.File.Version, unit.File.Path, fmt.Sprintf("execute statement %d", i+1),
				NewDatabaseError(unit.File.Version, stmt, fmt.Sprintf("execute statement %d", i+1),
					fmt.Errorf("%w: %w", ErrStatement, err)))
		}
	}
	return nil
}
