package migration

import "fmt"

// PlanApply selects the up files whose versions are not in applied, keeping
// the catalog's ascending order, then truncates after the file matching
// target.
//
// A target absent from the selection leaves it untouched, so every pending
// migration runs, unless strict is set, in which case the call fails with
// ErrTargetVersionNotFound.
func PlanApply(upFiles []File, applied []string, target string, strict bool) (Plan, error) {
	appliedSet := versionSet(applied)
	undone := make([]File, 0, len(upFiles))
	for _, f := range upFiles {
		if f.Direction == Up && !appliedSet[f.Version] {
			undone = append(undone, f)
		}
	}
	return truncate(Up, undone, target, strict)
}

// PlanRevert selects the down files whose versions are in applied, keeping the
// catalog's descending order, then truncates after the file matching target
// with the same not-found rules as PlanApply.
func PlanRevert(downFiles []File, applied []string, target string, strict bool) (Plan, error) {
	appliedSet := versionSet(applied)
	done := make([]File, 0, len(downFiles))
	for _, f := range downFiles {
		if f.Direction == Down && appliedSet[f.Version] {
			done = append(done, f)
		}
	}
	return truncate(Down, done, target, strict)
}

// truncate keeps files up to and including the one whose version equals
// target. Versions are compared as exact strings.
func truncate(d Direction, files []File, target string, strict bool) (Plan, error) {
	plan := Plan{
		Direction: d,
		Files:     files,
		Target:    NormalizeTarget(target),
	}
	if plan.Target == "" {
		return plan, nil
	}

	for i, f := range files {
		if f.Version == plan.Target {
			plan.Files = files[:i+1]
			plan.TargetFound = true
			return plan, nil
		}
	}

	if strict {
		return Plan{}, fmt.Errorf("%w: %q is not among the %d %s migration(s) available",
			ErrTargetVersionNotFound, plan.Target, len(files), d)
	}
	return plan, nil
}

func versionSet(versions []string) map[string]bool {
	set := make(map[string]bool, len(versions))
	for _, v := range versions {
		set[v] = true
	}
	return set
}
