package testfixtures

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/example/sqlmigrate/internal/database"
)

// Workspace is a temporary migration folder paired with a SQLite database
// file, for integration-style migration tests.
type Workspace struct {
	Root   string // Temporary root directory
	Dir    string // Migration folder, not created until needed
	DBPath string // SQLite database file
}

// NewWorkspace creates a workspace under tb.TempDir. The migration folder is
// created eagerly unless lazy is requested via NewLazyWorkspace.
func NewWorkspace(tb testing.TB) *Workspace {
	tb.Helper()

	ws := NewLazyWorkspace(tb)
	if err := os.MkdirAll(ws.Dir, 0o755); err != nil {
		tb.Fatalf("failed to create migration folder: %v", err)
	}
	return ws
}

// NewLazyWorkspace is like NewWorkspace but leaves the migration folder
// absent so bootstrap behaviour can be observed.
func NewLazyWorkspace(tb testing.TB) *Workspace {
	tb.Helper()

	root := tb.TempDir()
	return &Workspace{
		Root:   root,
		Dir:    filepath.Join(root, "migration"),
		DBPath: filepath.Join(root, "migrate.db"),
	}
}

// DSN returns the connection string of the workspace database.
func (w *Workspace) DSN() string {
	return w.DBPath
}

// WriteFile writes name into the migration folder and returns its path.
func (w *Workspace) WriteFile(tb testing.TB, name, content string) string {
	tb.Helper()

	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		tb.Fatalf("failed to create migration folder: %v", err)
	}
	path := filepath.Join(w.Dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tb.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// WriteMigration writes the up/down pair of version.
func (w *Workspace) WriteMigration(tb testing.TB, version, up, down string) {
	tb.Helper()

	w.WriteFile(tb, UpName(version), up)
	w.WriteFile(tb, DownName(version), down)
}

// Open opens the workspace database. The handle is closed on test cleanup.
func (w *Workspace) Open(tb testing.TB) *sql.DB {
	tb.Helper()

	handle, err := database.Open(context.Background(), database.Options{
		Driver: database.DriverSQLite,
		DSN:    w.DBPath,
	})
	if err != nil {
		tb.Fatalf("failed to open workspace database: %v", err)
	}
	tb.Cleanup(func() {
		_ = handle.Close()
	})
	return handle.DB()
}

// TableExists reports whether the workspace database has table name.
func (w *Workspace) TableExists(tb testing.TB, name string) bool {
	tb.Helper()

	db := w.Open(tb)
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&count)
	if err != nil {
		tb.Fatalf("failed to probe table %s: %v", name, err)
	}
	return count > 0
}

// LedgerVersions returns the versions recorded in table, ascending.
func (w *Workspace) LedgerVersions(tb testing.TB, table string) []string {
	tb.Helper()

	db := w.Open(tb)
	rows, err := db.Query(`SELECT version FROM "` + table + `" ORDER BY version`)
	if err != nil {
		tb.Fatalf("failed to read ledger %s: %v", table, err)
	}
	defer rows.Close()

	var versions []string
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			tb.Fatalf("failed to scan ledger row: %v", err)
		}
		versions = append(versions, version)
	}
	if err := rows.Err(); err != nil {
		tb.Fatalf("failed to iterate ledger rows: %v", err)
	}
	return versions
}
