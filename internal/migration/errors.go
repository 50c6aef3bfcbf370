package migration

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the migration engine.
var (
	// ErrFilesystem indicates an unreadable migration folder or an unwritable file.
	ErrFilesystem = errors.New("filesystem error")

	// ErrMalformedFilename indicates a file in the migration folder that carries
	// a version prefix but does not follow the naming convention.
	ErrMalformedFilename = errors.New("malformed migration filename")

	// ErrConnection indicates the database could not be reached.
	ErrConnection = errors.New("database connection failed")

	// ErrStatement indicates a SQL statement within a work unit failed.
	ErrStatement = errors.New("migration statement failed")

	// ErrLedgerUpdate indicates the statements of a work unit ran but the
	// bookkeeping row could not be written. Manual reconciliation is required.
	ErrLedgerUpdate = errors.New("ledger update failed after statements were applied; manual reconciliation required")

	// ErrDuplicateVersion indicates the ledger already holds the version.
	ErrDuplicateVersion = errors.New("duplicate migration version")

	// ErrTargetVersionNotFound indicates a target version absent from the
	// working set while strict targeting is enabled.
	ErrTargetVersionNotFound = errors.New("target version not found")

	// ErrInvalidLabel indicates a label that cannot form a migration filename.
	ErrInvalidLabel = errors.New("invalid migration label")

	// ErrInvalidConfig indicates an unusable configuration.
	ErrInvalidConfig = errors.New("invalid migration configuration")
)

// MigrationError wraps migration-specific errors with additional context
type MigrationError struct {
	Version   string // Migration version that caused the error
	FilePath  string // Path to the migration file
	Operation string // Operation being performed (scan, execute, etc.)
	Err       error  // Underlying error
}

// Error implements the error interface
func (e *MigrationError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("migration %s (%s): %s: %v", e.Version, e.FilePath, e.Operation, e.Err)
	}
	return fmt.Sprintf("migration error (%s): %s: %v", e.FilePath, e.Operation, e.Err)
}

// Unwrap returns the underlying error for error unwrapping
func (e *MigrationError) Unwrap() error {
	return e.Err
}

// NewMigrationError creates a new MigrationError with context
func NewMigrationError(version, filePath, operation string, err error) *MigrationError {
	return &MigrationError{
		Version:   version,
		FilePath:  filePath,
		Operation: operation,
		Err:       err,
	}
}

// FileSystemError wraps file system related errors during migration operations.
// It always matches ErrFilesystem.
type FileSystemError struct {
	Path      string // File or directory path
	Operation string // File operation (read, scan, etc.)
	Err       error  // Underlying error
}

// Error implements the error interface
func (e *FileSystemError) Error() string {
	return fmt.Sprintf("filesystem error during %s of %s: %v", e.Operation, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *FileSystemError) Unwrap() error {
	return e.Err
}

// Is reports ErrFilesystem as a match.
func (e *FileSystemError) Is(target error) bool {
	return target == ErrFilesystem
}

// NewFileSystemError creates a new FileSystemError
func NewFileSystemError(path, operation string, err error) *FileSystemError {
	return &FileSystemError{
		Path:      path,
		Operation: operation,
		Err:       err,
	}
}

// DatabaseError wraps database-related errors during migration operations
type DatabaseError struct {
	Version   string // Migration version (if applicable)
	Query     string // SQL query that failed (if applicable)
	Operation string // Database operation (execute, query, etc.)
	Err       error  // Underlying error
}

// Error implements the error interface
func (e *DatabaseError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("database error in migration %s during %s: %v", e.Version, e.Operation, e.Err)
	}
	return fmt.Sprintf("database error during %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error
func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// NewDatabaseError creates a new DatabaseError
func NewDatabaseError(version, query, operation string, err error) *DatabaseError {
	return &DatabaseError{
		Version:   version,
		Query:     query,
		Operation: operation,
		Err:       err,
	}
}

// ErrorKind maps migration errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrLedgerUpdate):
		return "ledger_update"
	case errors.Is(err, ErrDuplicateVersion):
		return "duplicate_version"
	case errors.Is(err, ErrStatement):
		return "statement"
	case errors.Is(err, ErrMalformedFilename):
		return "malformed_filename"
	case errors.Is(err, ErrTargetVersionNotFound):
		return "target_not_found"
	case errors.Is(err, ErrConnection):
		return "connection"
	case errors.Is(err, ErrInvalidLabel):
		return "invalid_label"
	case errors.Is(err, ErrInvalidConfig):
		return "invalid_config"
	case errors.Is(err, ErrFilesystem):
		return "filesystem"
	}

	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return "database"
	}

	return "unexpected"
}
