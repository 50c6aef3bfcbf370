package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/example/sqlmigrate/internal/config"
	"github.com/example/sqlmigrate/internal/logging"
	"github.com/example/sqlmigrate/internal/migration"
)

type command struct {
	usage string
	run   func(ctx context.Context, manager *migration.Manager, args []string, out io.Writer) error
}

var commands = map[string]command{
	"init":   {usage: "create the migration folder and bookkeeping table", run: runInit},
	"create": {usage: "create <label>: scaffold a new up/down migration pair", run: runCreate},
	"up":     {usage: "up [target]: apply pending migrations, optionally stopping after target", run: runUp},
	"down":   {usage: "down [target]: revert applied migrations, optionally stopping after target", run: runDown},
	"status": {usage: "show applied, pending and unpaired migrations", run: runStatus},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sqlmigrate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath       = fs.String("config", "", "path to a YAML configuration file")
		connectionString string
		migrationFolder  string
		migrationTable   string
	)
	fs.StringVar(&connectionString, "c", "", "database connection string")
	fs.StringVar(&connectionString, "connection-string", "", "database connection string")
	fs.StringVar(&migrationFolder, "f", "", "folder containing migration files (default \"migration\")")
	fs.StringVar(&migrationFolder, "migration-folder", "", "folder containing migration files (default \"migration\")")
	fs.StringVar(&migrationTable, "t", "", "bookkeeping table name (default \"schema_migration\")")
	fs.StringVar(&migrationTable, "migration-table", "", "bookkeeping table name (default \"schema_migration\")")
	driver := fs.String("driver", "", "database driver: postgres, mysql or sqlite (default: detect)")
	txMode := fs.String("tx-mode", "", "transaction mode: unit or none (default \"unit\")")
	strictTarget := fs.Bool("strict-target", false, "fail when the target version is not found")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn or error")
	logFormat := fs.String("log-format", "", "log format: json or text")
	fs.Usage = func() { usage(fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	rest := fs.Args()
	if len(rest) == 0 {
		usage(fs)
		return 1
	}
	name := rest[0]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %s\n", name)
		usage(fs)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	// Flags given explicitly win over file and environment values.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "c", "connection-string":
			cfg.ConnectionString = connectionString
		case "f", "migration-folder":
			cfg.MigrationFolder = migrationFolder
		case "t", "migration-table":
			cfg.MigrationTable = migrationTable
		case "driver":
			cfg.Driver = *driver
		case "tx-mode":
			cfg.TxMode = *txMode
		case "strict-target":
			cfg.StrictTarget = *strictTarget
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		}
	})

	logger := logging.NewLogger(stderr, cfg.LogLevel, cfg.LogFormat)

	migrationConfig, err := cfg.Migration()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	manager, err := migration.NewManager(migrationConfig, logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err, "error_kind", migration.ErrorKind(err))
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	ctx = logging.ContextWithLogger(ctx, logger)
	if err := cmd.run(ctx, manager, rest[1:], stdout); err != nil {
		logger.Error("command failed", "command", name, "error", err, "error_kind", migration.ErrorKind(err))
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "usage: sqlmigrate [flags] <command> [arg]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-7s %s\n", name, commands[name].usage)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "flags:")
	fs.PrintDefaults()
}

func optionalTarget(name string, args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", nil
	case 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("%s takes at most one target version, got %d arguments", name, len(args))
	}
}

func runInit(ctx context.Context, manager *migration.Manager, args []string, out io.Writer) error {
	if len(args) != 0 {
		return fmt.Errorf("init takes no arguments")
	}
	if err := manager.Init(ctx); err != nil {
		return err
	}
	cfg := manager.Config()
	fmt.Fprintf(out, "initialized folder %s and table %s\n", cfg.MigrationFolder, cfg.MigrationTable)
	return nil
}

func runCreate(ctx context.Context, manager *migration.Manager, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("create requires exactly one label")
	}
	paths, err := manager.Create(ctx, args[0])
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Fprintln(out, "created", path)
	}
	return nil
}

func runUp(ctx context.Context, manager *migration.Manager, args []string, out io.Writer) error {
	target, err := optionalTarget("up", args)
	if err != nil {
		return err
	}
	result, err := manager.Up(ctx, target)
	printResult(out, "applied", result)
	return err
}

func runDown(ctx context.Context, manager *migration.Manager, args []string, out io.Writer) error {
	target, err := optionalTarget("down", args)
	if err != nil {
		return err
	}
	result, err := manager.Down(ctx, target)
	printResult(out, "reverted", result)
	return err
}

func printResult(out io.Writer, verb string, result migration.Result) {
	for _, version := range result.Completed {
		fmt.Fprintf(out, "%s %s\n", verb, version)
	}
	if result.Failed != "" {
		fmt.Fprintf(out, "failed %s after %d of %d migration(s)\n", result.Failed, len(result.Completed), len(result.Planned))
		return
	}
	if result.Target != "" && !result.TargetFound {
		fmt.Fprintf(out, "target %s not found; ran every available migration\n", result.Target)
	}
	if result.State == migration.StateComplete && len(result.Completed) == 0 {
		fmt.Fprintln(out, "nothing to do")
	}
}

func runStatus(ctx context.Context, manager *migration.Manager, args []string, out io.Writer) error {
	if len(args) != 0 {
		return fmt.Errorf("status takes no arguments")
	}
	status, err := manager.Status(ctx)
	if err != nil {
		return err
	}

	current := status.CurrentVersion
	if current == "" {
		current = "(none)"
	}
	fmt.Fprintf(out, "current version: %s\n", current)
	fmt.Fprintf(out, "applied: %d\n", len(status.Applied))
	fmt.Fprintf(out, "pending: %d\n", len(status.Pending))
	for _, f := range status.Pending {
		fmt.Fprintf(out, "  %s\n", f.Version)
	}
	for _, version := range status.Unpaired {
		fmt.Fprintf(out, "unpaired: %s\n", version)
	}
	for _, version := range status.Missing {
		fmt.Fprintf(out, "missing file: %s\n", version)
	}
	return nil
}
