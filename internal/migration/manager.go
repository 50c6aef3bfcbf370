package migration

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/example/sqlmigrate/internal/database"
	"github.com/example/sqlmigrate/internal/logging"
)

// Manager sequences the migration operations. Every operation opens its own
// connection and releases it before returning, on success and failure alike.
type Manager struct {
	config   Config
	logger   *slog.Logger
	open     database.Opener
	now      func() time.Time
	newRunID func() string
}

// Option customises a Manager.
type Option func(*Manager)

// WithOpener replaces database.Open, mainly for tests.
func WithOpener(open database.Opener) Option {
	return func(m *Manager) {
		if open != nil {
			m.open = open
		}
	}
}

// WithClock sets the time source used to stamp new migrations.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithRunIDs sets the generator for the run id attached to each operation's
// log records.
func WithRunIDs(next func() string) Option {
	return func(m *Manager) {
		if next != nil {
			m.newRunID = next
		}
	}
}

// NewManager validates config and builds a manager.
func NewManager(config Config, logger *slog.Logger, opts ...Option) (*Manager, error) {
	config = config.WithDefaults()
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		config:   config,
		logger:   logger,
		open:     database.Open,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.config
}

// session is the per-operation state shared by the pipeline steps.
type session struct {
	conn   *sql.Conn
	ledger *Ledger
	logger *slog.Logger
}

// Init ensures the migration folder and the bookkeeping table exist.
func (m *Manager) Init(ctx context.Context) error {
	logger := m.operationLogger(ctx, "init")
	return m.withSession(ctx, logger, func(ctx context.Context, s *session) error {
		s.logger.Info("migration workspace ready",
			"folder", m.config.MigrationFolder,
			"table", m.config.MigrationTable)
		return nil
	})
}

// Create bootstraps like Init, then scaffolds an up/down pair for label and
// returns the paths written.
func (m *Manager) Create(ctx context.Context, label string) ([]string, error) {
	logger := m.operationLogger(ctx, "create", "label", label)

	if err := validateLabel(label); err != nil {
		logger.Warn("rejected migration label", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	var paths []string
	err := m.withSession(ctx, logger, func(ctx context.Context, s *session) error {
		written, err := Scaffold(m.config.MigrationFolder, label, m.now())
		if err != nil {
			return err
		}
		paths = written
		for _, path := range written {
			s.logger.Info("migration file created", "file", path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// Up applies pending migrations in ascending order, stopping after target
// when it is set.
func (m *Manager) Up(ctx context.Context, target string) (Result, error) {
	return m.run(ctx, Up, target)
}

// Down reverts applied migrations in descending order, stopping after target
// when it is set.
func (m *Manager) Down(ctx context.Context, target string) (Result, error) {
	return m.run(ctx, Down, target)
}

func (m *Manager) run(ctx context.Context, d Direction, target string) (Result, error) {
	operation := string(d)
	logger := m.operationLogger(ctx, operation, "target", target)

	result := Result{Direction: d, State: StateIdle}
	err := m.withSession(ctx, logger, func(ctx context.Context, s *session) error {
		logger := s.logger
		result.State = StatePlanning

		catalog, err := ScanMigrations(m.config.MigrationFolder)
		if err != nil {
			return err
		}
		if unpaired := catalog.Unpaired(); len(unpaired) > 0 {
			logger.Warn("migrations without a matching counterpart", "versions", unpaired)
		}

		order := Ascending
		if d == Down {
			order = Descending
		}
		applied, err := s.ledger.ListApplied(ctx, order)
		if err != nil {
			return err
		}

		var plan Plan
		if d == Down {
			plan, err = PlanRevert(catalog.Down, applied, target, m.config.StrictTarget)
		} else {
			plan, err = PlanApply(catalog.Up, applied, target, m.config.StrictTarget)
		}
		if err != nil {
			return err
		}
		result.Target = plan.Target
		result.TargetFound = plan.TargetFound

		if plan.Target != "" && !plan.TargetFound {
			logger.Warn("target version not found; running every available migration",
				"target", plan.Target, "count", len(plan.Files))
		}
		if len(plan.Files) == 0 {
			logger.Info("nothing to do", "applied", len(applied))
			result.State = StateComplete
			return nil
		}
		logger.Info("migration plan ready", "count", len(plan.Files), "versions", plan.Versions())

		units, err := LoadWorkUnits(plan.Files)
		if err != nil {
			return err
		}

		executor := NewExecutor(s.conn, s.ledger, m.config.TxMode, logger)
		executed, err := executor.Execute(ctx, units)
		executed.Target = result.Target
		executed.TargetFound = result.TargetFound
		result = executed
		return err
	})
	if err != nil && result.State != StateFailed {
		result.State = StateFailed
	}
	result.Direction = d
	return result, err
}

// Status reports applied, pending, unpaired and missing versions.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	logger := m.operationLogger(ctx, "status")

	var status Status
	err := m.withSession(ctx, logger, func(ctx context.Context, s *session) error {
		logger := s.logger
		catalog, err := ScanMigrations(m.config.MigrationFolder)
		if err != nil {
			return err
		}
		applied, err := s.ledger.ListApplied(ctx, Ascending)
		if err != nil {
			return err
		}
		plan, err := PlanApply(catalog.Up, applied, "", false)
		if err != nil {
			return err
		}

		onDisk := make(map[string]bool, len(catalog.Up))
		for _, f := range catalog.Up {
			onDisk[f.Version] = true
		}
		var missing []string
		for _, version := range applied {
			if !onDisk[version] {
				missing = append(missing, version)
			}
		}

		status = Status{
			Applied:  applied,
			Pending:  plan.Files,
			Unpaired: catalog.Unpaired(),
			Missing:  missing,
		}
		if len(applied) > 0 {
			status.CurrentVersion = applied[len(applied)-1]
		}

		if status.CurrentVersion == "" {
			logger.Info("database schema: no migrations applied")
		} else {
			logger.Info("database schema: current version", "version", status.CurrentVersion)
		}
		logger.Info("migration status",
			"applied", len(status.Applied),
			"pending", len(status.Pending),
			"unpaired", len(status.Unpaired),
			"missing", len(status.Missing))
		return nil
	})
	return status, err
}

// withSession runs the bootstrap steps shared by every operation, then fn.
// The connection is released exactly once whatever fn returns.
func (m *Manager) withSession(ctx context.Context, logger *slog.Logger, fn func(context.Context, *session) error) (err error) {
	startTime := time.Now()
	defer func() {
		if err != nil {
			logger.Error("operation failed",
				"error", err,
				"error_kind", ErrorKind(err),
				"duration", time.Since(startTime))
			return
		}
		logger.Debug("operation finished", "duration", time.Since(startTime))
	}()

	if err := os.MkdirAll(m.config.MigrationFolder, 0o755); err != nil {
		return NewFileSystemError(m.config.MigrationFolder, "create directory", err)
	}

	handle, err := m.open(ctx, database.Options{
		Driver: m.config.Driver,
		DSN:    m.config.ConnectionString,
	})
	if err != nil {
		return NewDatabaseError("", "", "connect", fmt.Errorf("%w: %w", ErrConnection, err))
	}
	defer func() {
		if closeErr := handle.Close(); closeErr != nil {
			logger.Warn("failed to close database", "error", closeErr)
		}
	}()

	conn, err := handle.Conn(ctx)
	if err != nil {
		return NewDatabaseError("", "", "connect", fmt.Errorf("%w: %w", ErrConnection, err))
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Warn("failed to release connection", "error", closeErr)
			return
		}
		logger.Debug("connection released")
	}()

	dialect := handle.Dialect()
	logger = logger.With("driver", dialect.Name())
	ledger := NewLedger(conn, dialect, m.config.MigrationTable, logger)
	if _, err := ledger.EnsureTable(ctx); err != nil {
		return err
	}

	return fn(ctx, &session{
		conn:   conn,
		ledger: ledger,
		logger: logger,
	})
}

func (m *Manager) operationLogger(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = m.logger
	}

	pairs := []any{"run_id", m.newRunID(), "operation", operation}
	pairs = append(pairs, attrs...)
	return logger.With(pairs...)
}
