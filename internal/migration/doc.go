// Package migration applies and reverts versioned SQL migration scripts.
//
// Migration files live in a single folder and are named
// {13-digit-epoch-ms}-{label}-up.sql and {13-digit-epoch-ms}-{label}-down.sql.
// The version of a migration is the filename prefix before the direction
// suffix. Applied versions are recorded in a bookkeeping table (default
// schema_migration) holding one row per applied version.
//
// A run scans the folder, reads the applied versions, plans the files to run
// and executes them one at a time, stopping at the first failure. By default
// each migration runs in its own transaction together with its bookkeeping
// write; TxModeNone runs statements directly instead.
//
// Example usage:
//
//	manager, err := migration.NewManager(migration.DefaultConfig(dsn), logger)
//	if err != nil {
//		return err
//	}
//	result, err := manager.Up(ctx, "")
package migration
