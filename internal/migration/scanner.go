package migration

import (
	"os"
	"path/filepath"
	"sort"
)

// Catalog is the set of migration files found in a folder, partitioned by
// direction. Up is sorted oldest first, Down newest first.
type Catalog struct {
	Up   []File
	Down []File
}

// Files returns the catalog side for direction d.
func (c Catalog) Files(d Direction) []File {
	if d == Down {
		return c.Down
	}
	return c.Up
}

// Unpaired returns, in ascending order, the versions that only have an up or
// only a down file.
func (c Catalog) Unpaired() []string {
	up := make(map[string]bool, len(c.Up))
	for _, f := range c.Up {
		up[f.Version] = true
	}
	down := make(map[string]bool, len(c.Down))
	for _, f := range c.Down {
		down[f.Version] = true
	}

	var unpaired []string
	for version := range up {
		if !down[version] {
			unpaired = append(unpaired, version)
		}
	}
	for version := range down {
		if !up[version] {
			unpaired = append(unpaired, version)
		}
	}
	sort.Strings(unpaired)
	return unpaired
}

// ScanMigrations lists migrationDir and builds its catalog.
//
// Entries without a 13-digit version prefix are ignored so that other files
// may live alongside migrations. Entries carrying the prefix must follow the
// full naming convention or the scan fails with ErrMalformedFilename.
func ScanMigrations(migrationDir string) (Catalog, error) {
	entries, err := os.ReadDir(migrationDir)
	if err != nil {
		return Catalog{}, NewFileSystemError(migrationDir, "read directory", err)
	}

	var catalog Catalog
	for _, entry := range entries {
		if entry.IsDir() || !HasVersionPrefix(entry.Name()) {
			continue
		}

		file, err := ParseFileName(entry.Name())
		if err != nil {
			return Catalog{}, err
		}
		file.Path = filepath.Join(migrationDir, entry.Name())

		if file.Direction == Up {
			catalog.Up = append(catalog.Up, file)
		} else {
			catalog.Down = append(catalog.Down, file)
		}
	}

	// The version prefix is fixed-width, so lexicographic order is chronological.
	sort.Slice(catalog.Up, func(i, j int) bool {
		return catalog.Up[i].Name < catalog.Up[j].Name
	})
	sort.Slice(catalog.Down, func(i, j int) bool {
		return catalog.Down[i].Name > catalog.Down[j].Name
	})

	return catalog, nil
}

// LoadWorkUnits reads each planned file and splits it into statements,
// preserving the plan order.
func LoadWorkUnits(files []File) ([]WorkUnit, error) {
	units := make([]WorkUnit, 0, len(files))
	for _, f := range files {
		content, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, NewMigrationError(f.Version, f.Path, "read migration",
				NewFileSystemError(f.Path, "read file", err))
		}
		units = append(units, WorkUnit{
			File:       f,
			Statements: SplitStatements(string(content)),
		})
	}
	return units, nil
}
