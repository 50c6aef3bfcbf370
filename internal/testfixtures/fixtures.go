package testfixtures

import (
	"fmt"
	"time"
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Version returns a deterministic version token n milliseconds after
// ReferenceTime. Increasing n yields versions that sort later.
func Version(n int, label string) string {
	return fmt.Sprintf("%013d-%s", referenceTime.UnixMilli()+int64(n), label)
}

// UpName returns the up filename for version.
func UpName(version string) string {
	return version + "-up.sql"
}

// DownName returns the down filename for version.
func DownName(version string) string {
	return version + "-down.sql"
}
