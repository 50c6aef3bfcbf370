package migration

import (
	"errors"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig("postgres://localhost/app")

	if config.ConnectionString != "postgres://localhost/app" {
		t.Errorf("Expected connection string to be kept, got %s", config.ConnectionString)
	}
	if config.MigrationFolder != "migration" {
		t.Errorf("Expected MigrationFolder migration, got %s", config.MigrationFolder)
	}
	if config.MigrationTable != "schema_migration" {
		t.Errorf("Expected MigrationTable schema_migration, got %s", config.MigrationTable)
	}
	if config.TxMode != TxModeUnit {
		t.Errorf("Expected TxMode unit, got %s", config.TxMode)
	}
	if config.StrictTarget {
		t.Error("Expected StrictTarget to be false")
	}
	if err := ValidateConfig(config); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestConfigWithDefaults(t *testing.T) {
	config := Config{ConnectionString: "app.db", MigrationTable: "ledger"}.WithDefaults()

	if config.MigrationFolder != DefaultMigrationFolder {
		t.Errorf("Expected default folder, got %s", config.MigrationFolder)
	}
	if config.MigrationTable != "ledger" {
		t.Errorf("Expected explicit table to be kept, got %s", config.MigrationTable)
	}
	if config.TxMode != TxModeUnit {
		t.Errorf("Expected default tx mode, got %s", config.TxMode)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := DefaultConfig("app.db")

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing connection string", mutate: func(c *Config) { c.ConnectionString = "  " }, wantErr: true},
		{name: "empty folder", mutate: func(c *Config) { c.MigrationFolder = "" }, wantErr: true},
		{name: "table with schema qualifier", mutate: func(c *Config) { c.MigrationTable = "public.schema_migration" }, wantErr: true},
		{name: "table with quote", mutate: func(c *Config) { c.MigrationTable = `bad"name` }, wantErr: true},
		{name: "table starting with digit", mutate: func(c *Config) { c.MigrationTable = "1ledger" }, wantErr: true},
		{name: "underscored table", mutate: func(c *Config) { c.MigrationTable = "_migrations_v2" }},
		{name: "unknown tx mode", mutate: func(c *Config) { c.TxMode = "statement" }, wantErr: true},
		{name: "none tx mode", mutate: func(c *Config) { c.TxMode = TxModeNone }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid
			tt.mutate(&config)

			err := ValidateConfig(config)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("expected ErrInvalidConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseTxMode(t *testing.T) {
	tests := []struct {
		input   string
		want    TxMode
		wantErr bool
	}{
		{input: "", want: TxModeUnit},
		{input: "unit", want: TxModeUnit},
		{input: " NONE ", want: TxModeNone},
		{input: "always", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseTxMode(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("ParseTxMode(%q): expected ErrInvalidConfig, got %v", tt.input, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseTxMode(%q) = %q, %v; want %q", tt.input, got, err, tt.want)
		}
	}
}
