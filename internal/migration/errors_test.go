package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "statement", err: NewMigrationError("v", "f", "execute statement 1", fmt.Errorf("%w: boom", ErrStatement)), want: "statement"},
		{name: "ledger update", err: fmt.Errorf("%w: %w", ErrLedgerUpdate, ErrDuplicateVersion), want: "ledger_update"},
		{name: "duplicate", err: NewDatabaseError("v", "INSERT", "record apply", ErrDuplicateVersion), want: "duplicate_version"},
		{name: "malformed", err: fmt.Errorf("scan: %w", ErrMalformedFilename), want: "malformed_filename"},
		{name: "target", err: ErrTargetVersionNotFound, want: "target_not_found"},
		{name: "connection", err: NewDatabaseError("", "", "connect", ErrConnection), want: "connection"},
		{name: "label", err: ErrInvalidLabel, want: "invalid_label"},
		{name: "config", err: ErrInvalidConfig, want: "invalid_config"},
		{name: "filesystem", err: NewFileSystemError("/tmp", "read directory", fs.ErrNotExist), want: "filesystem"},
		{name: "plain database", err: NewDatabaseError("", "SELECT", "query", errors.New("no such table")), want: "database"},
		{name: "other", err: errors.New("surprise"), want: "unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorKind(tt.err); got != tt.want {
				t.Fatalf("ErrorKind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	migErr := NewMigrationError("1400000000000-users", "migration/1400000000000-users-up.sql", "execute statement 2", errors.New("syntax error"))
	if msg := migErr.Error(); !strings.Contains(msg, "1400000000000-users") || !strings.Contains(msg, "execute statement 2") {
		t.Errorf("unexpected message %q", msg)
	}

	fsErr := NewFileSystemError("migration", "read directory", fs.ErrPermission)
	if !errors.Is(fsErr, fs.ErrPermission) || !errors.Is(fsErr, ErrFilesystem) {
		t.Errorf("FileSystemError must match both the cause and ErrFilesystem")
	}

	dbErr := NewDatabaseError("", "", "connect", ErrConnection)
	if msg := dbErr.Error(); !strings.HasPrefix(msg, "database error during connect") {
		t.Errorf("unexpected message %q", msg)
	}
}
