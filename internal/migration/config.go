package migration

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultMigrationFolder is the folder scanned when none is configured.
	DefaultMigrationFolder = "migration"

	// DefaultMigrationTable is the bookkeeping table used when none is configured.
	DefaultMigrationTable = "schema_migration"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Config holds everything a migration run needs. It is passed explicitly to
// the manager; no component reads package-level defaults.
type Config struct {
	// ConnectionString is handed to the database driver. Required.
	ConnectionString string

	// Driver selects postgres, mysql or sqlite. Empty means detect from
	// ConnectionString.
	Driver string

	// MigrationFolder contains the migration scripts.
	MigrationFolder string

	// MigrationTable is the bookkeeping table name.
	MigrationTable string

	// TxMode controls transactional wrapping of work units.
	TxMode TxMode

	// StrictTarget rejects target versions absent from the working set
	// instead of running every available migration.
	StrictTarget bool
}

// DefaultConfig returns a configuration with defaults for everything but the
// connection string.
func DefaultConfig(connectionString string) Config {
	return Config{
		ConnectionString: connectionString,
		MigrationFolder:  DefaultMigrationFolder,
		MigrationTable:   DefaultMigrationTable,
		TxMode:           TxModeUnit,
	}
}

// WithDefaults fills empty optional fields.
func (c Config) WithDefaults() Config {
	if strings.TrimSpace(c.MigrationFolder) == "" {
		c.MigrationFolder = DefaultMigrationFolder
	}
	if strings.TrimSpace(c.MigrationTable) == "" {
		c.MigrationTable = DefaultMigrationTable
	}
	if c.TxMode == "" {
		c.TxMode = TxModeUnit
	}
	return c
}

// ValidateConfig validates the migration configuration
func ValidateConfig(config Config) error {
	if strings.TrimSpace(config.ConnectionString) == "" {
		return fmt.Errorf("%w: connection string is required", ErrInvalidConfig)
	}

	if strings.TrimSpace(config.MigrationFolder) == "" {
		return fmt.Errorf("%w: migration folder cannot be empty", ErrInvalidConfig)
	}

	if !tableNamePattern.MatchString(config.MigrationTable) {
		return fmt.Errorf("%w: migration table %q must be a plain identifier", ErrInvalidConfig, config.MigrationTable)
	}

	switch config.TxMode {
	case TxModeUnit, TxModeNone:
	default:
		return fmt.Errorf("%w: transaction mode %q must be %q or %q", ErrInvalidConfig, config.TxMode, TxModeUnit, TxModeNone)
	}

	return nil
}

// ParseTxMode converts a configuration value into a TxMode.
func ParseTxMode(value string) (TxMode, error) {
	switch mode := TxMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case "":
		return TxModeUnit, nil
	case TxModeUnit, TxModeNone:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: unknown transaction mode %q", ErrInvalidConfig, value)
	}
}
