package migration

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Migration filenames look like {13-digit-version}-{label}-{up|down}.sql. The
// version token is everything before the direction suffix, so two migrations
// sharing a timestamp but not a label stay distinct.
var (
	versionPrefixPattern = regexp.MustCompile(`^\d{13}-`)
	migrationFilePattern = regexp.MustCompile(`^(\d{13}-.+)-(up|down)\.sql$`)
)

// HasVersionPrefix reports whether name starts with a 13-digit version prefix.
// Files without it are not considered migrations at all.
func HasVersionPrefix(name string) bool {
	return versionPrefixPattern.MatchString(name)
}

// ExtractVersion returns the version token of a migration filename.
func ExtractVersion(filename string) (string, error) {
	f, err := ParseFileName(filename)
	if err != nil {
		return "", err
	}
	return f.Version, nil
}

// ParseFileName validates filename and returns its version and direction.
func ParseFileName(filename string) (File, error) {
	matches := migrationFilePattern.FindStringSubmatch(filename)
	if matches == nil {
		return File{}, NewMigrationError("", filename, "parse filename",
			fmt.Errorf("%w: %q does not match {13-digit-version}-{label}-{up|down}.sql", ErrMalformedFilename, filename))
	}
	return File{
		Version:   matches[1],
		Direction: Direction(matches[2]),
		Name:      filename,
	}, nil
}

// FileName builds the filename of version in direction d.
func FileName(version string, d Direction) string {
	return version + "-" + string(d) + ".sql"
}

// NormalizeTarget accepts a version token or a migration filename (optionally
// with a directory) and returns the version token to compare against.
func NormalizeTarget(target string) string {
	target = strings.TrimSpace(target)
	if matches := migrationFilePattern.FindStringSubmatch(filepath.Base(target)); matches != nil {
		return matches[1]
	}
	return target
}
