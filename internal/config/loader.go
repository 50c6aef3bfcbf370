package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/sqlmigrate/internal/database"
	"github.com/example/sqlmigrate/internal/migration"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SQLMIGRATE_"

// Config captures file and environment driven configuration for sqlmigrate.
type Config struct {
	ConnectionString string `yaml:"connection_string"`
	Driver           string `yaml:"driver"`
	MigrationFolder  string `yaml:"migration_folder"`
	MigrationTable   string `yaml:"migration_table"`
	TxMode           string `yaml:"tx_mode"`
	StrictTarget     bool   `yaml:"strict_target"`
	LogLevel         string `yaml:"log_level"`
	LogFormat        string `yaml:"log_format"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		MigrationFolder: migration.DefaultMigrationFolder,
		MigrationTable:  migration.DefaultMigrationTable,
		TxMode:          string(migration.TxModeUnit),
		LogLevel:        "info",
		LogFormat:       "json",
	}
}

// Load builds the configuration from defaults, the optional YAML file at path
// and the process environment, in increasing order of precedence.
//
// The connection string is not required here because command-line flags may
// still provide it; migration.ValidateConfig enforces it before any database
// work.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		fileCfg, err := LoadFile(path, cfg)
		if err != nil {
			return Config{}, err
		}
		cfg = fileCfg
	}

	cfg, err := applyEnv(cfg)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML document at path onto base. Unknown keys are
// rejected so that typos do not silently fall back to defaults.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg := base
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if invalid := cfg.invalidFields(); len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid values in config file %s: %s", path, strings.Join(invalid, ", "))
	}
	return cfg, nil
}

func applyEnv(cfg Config) (Config, error) {
	invalid := make([]string, 0, 2)

	overrides := []struct {
		key    string
		target *string
	}{
		{"CONNECTION_STRING", &cfg.ConnectionString},
		{"DRIVER", &cfg.Driver},
		{"MIGRATION_FOLDER", &cfg.MigrationFolder},
		{"MIGRATION_TABLE", &cfg.MigrationTable},
		{"TX_MODE", &cfg.TxMode},
		{"LOG_LEVEL", &cfg.LogLevel},
		{"LOG_FORMAT", &cfg.LogFormat},
	}
	for _, s := range overrides {
		if value := strings.TrimSpace(os.Getenv(EnvPrefix + s.key)); value != "" {
			*s.target = value
		}
	}

	if strictValue := strings.TrimSpace(os.Getenv(EnvPrefix + "STRICT_TARGET")); strictValue != "" {
		strict, err := strconv.ParseBool(strictValue)
		if err != nil {
			invalid = append(invalid, EnvPrefix+"STRICT_TARGET")
		} else {
			cfg.StrictTarget = strict
		}
	}

	for _, field := range cfg.invalidFields() {
		invalid = append(invalid, EnvPrefix+strings.ToUpper(field))
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// invalidFields lists the yaml names of fields holding unusable values.
func (c Config) invalidFields() []string {
	var invalid []string
	if c.Driver != "" {
		if _, err := database.DialectFor(c.Driver); err != nil {
			invalid = append(invalid, "driver")
		}
	}
	if _, err := migration.ParseTxMode(c.TxMode); err != nil {
		invalid = append(invalid, "tx_mode")
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		invalid = append(invalid, "log_level")
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "json", "text":
	default:
		invalid = append(invalid, "log_format")
	}
	return invalid
}

// Migration converts the configuration into the migration engine's form.
func (c Config) Migration() (migration.Config, error) {
	mode, err := migration.ParseTxMode(c.TxMode)
	if err != nil {
		return migration.Config{}, err
	}
	return migration.Config{
		ConnectionString: c.ConnectionString,
		Driver:           c.Driver,
		MigrationFolder:  c.MigrationFolder,
		MigrationTable:   c.MigrationTable,
		TxMode:           mode,
		StrictTarget:     c.StrictTarget,
	}.WithDefaults(), nil
}
