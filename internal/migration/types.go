package migration

// Direction tells whether a migration file applies or reverts a version.
type Direction string

const (
	// Up applies a version.
	Up Direction = "up"
	// Down reverts a version.
	Down Direction = "down"
)

// Order is the sort order requested from the ledger.
type Order int

const (
	Ascending Order = iota
	Descending
)

// File is a migration script discovered in the migration folder.
type File struct {
	Version   string    // Version token, e.g. "1400000000000-create_users"
	Direction Direction // Up or Down
	Name      string    // Base filename
	Path      string    // Path to the file on disk
}

// WorkUnit is the statement-split content of one migration file.
type WorkUnit struct {
	File       File
	Statements []string
}

// Plan is the ordered, possibly target-truncated selection of files to run.
type Plan struct {
	Direction Direction
	Files     []File

	// Target is the normalized target version, empty when none was requested.
	Target string

	// TargetFound reports whether Target matched a file of the working set.
	TargetFound bool
}

// Versions returns the version tokens of the plan in execution order.
func (p Plan) Versions() []string {
	versions := make([]string, len(p.Files))
	for i, f := range p.Files {
		versions[i] = f.Version
	}
	return versions
}

// RunState tracks where an execution run stopped.
type RunState string

const (
	StateIdle      RunState = "idle"
	StatePlanning  RunState = "planning"
	StateExecuting RunState = "executing"
	StateFailed    RunState = "failed"
	StateComplete  RunState = "complete"
)

// Result summarises an up or down run.
type Result struct {
	Direction Direction
	State     RunState

	// Planned lists the versions selected by the planner, in order.
	Planned []string

	// Completed lists the versions whose work units fully succeeded.
	Completed []string

	// Failed is the version whose work unit stopped the run.
	Failed string

	Target      string
	TargetFound bool
}

// Status provides information about the current migration state
type Status struct {
	CurrentVersion string   // Latest applied migration version
	Applied        []string // Applied versions, ascending
	Pending        []File   // Up files not yet applied, ascending
	Unpaired       []string // Versions with only one direction on disk
	Missing        []string // Applied versions without an up file on disk
}
