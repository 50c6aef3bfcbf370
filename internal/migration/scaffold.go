package migration

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

const (
	upTemplate   = "-- create table example_table ( id serial primary key not null, name text unique not null );\n"
	downTemplate = "-- drop table if exists example_table;\n"
)

// NewVersion stamps label with the epoch-millisecond time of now.
func NewVersion(now time.Time, label string) (string, error) {
	if err := validateLabel(label); err != nil {
		return "", err
	}
	version := fmt.Sprintf("%013d-%s", now.UnixMilli(), label)
	if _, err := ParseFileName(FileName(version, Up)); err != nil {
		return "", fmt.Errorf("%w: %q does not form a valid migration filename", ErrInvalidLabel, label)
	}
	return version, nil
}

func validateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return fmt.Errorf("%w: label cannot be empty", ErrInvalidLabel)
	}
	if strings.ContainsAny(label, `/\`) || strings.IndexFunc(label, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: label %q cannot contain path separators or whitespace", ErrInvalidLabel, label)
	}
	return nil
}

// Scaffold writes a new up/down pair for label into migrationDir and returns
// the paths written, up first. Existing files are never overwritten.
func Scaffold(migrationDir, label string, now time.Time) ([]string, error) {
	version, err := NewVersion(now, label)
	if err != nil {
		return nil, err
	}

	pairs := []struct {
		direction Direction
		template  string
	}{
		{Up, upTemplate},
		{Down, downTemplate},
	}

	written := make([]string, 0, len(pairs))
	for _, p := range pairs {
		path := filepath.Join(migrationDir, FileName(version, p.direction))
		if err := writeNewFile(path, p.template); err != nil {
			for _, done := range written {
				_ = os.Remove(done)
			}
			return nil, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeNewFile(path, content string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return NewFileSystemError(path, "create file", err)
	}
	if _, err := file.WriteString(content); err != nil {
		closeErr := file.Close()
		_ = os.Remove(path)
		return errors.Join(NewFileSystemError(path, "write file", err), closeErr)
	}
	if err := file.Close(); err != nil {
		return NewFileSystemError(path, "close file", err)
	}
	return nil
}
