package pipeline

// State names the orchestrator's current stage. Transitions are strictly
// sequential and terminal on the first unrecovered failure.
type State string

const (
	StateIdle                  State = "idle"
	StateValidatingProject     State = "validating-project"
	StateDetectingPlatform     State = "detecting-platform"
	StateCheckingExisting      State = "checking-existing"
	StateBackingUp             State = "backing-up"
	StateGeneratingFiles       State = "generating-files"
	StateRecordingDependencies State = "recording-dependencies"
	StatePatchingEntryPoint    State = "patching-entry-point"
	StateMergingConfig         State = "merging-config"
	StateRunningValidationGate State = "running-validation-gate"
	StateCommitting            State = "committing"
	StateRollingBack           State = "rolling-back"
	StateDone                  State = "done"
)

// Options is one pipeline invocation.
type Options struct {
	// ProjectRoot is the target project directory.
	ProjectRoot string

	// Provider is the provider ID to wire in.
	Provider string

	// Platform overrides detection when non-empty.
	Platform string

	// EntryFunc names the initialization routine to patch. Empty means the
	// patcher's default.
	EntryFunc string

	// Force overwrites an existing installation of the same provider.
	Force bool

	// DryRun stops after platform detection without mutating anything.
	DryRun bool

	// Backup controls snapshot capture. NewOptions enables it.
	Backup bool
}

// NewOptions returns Options with the defaults callers usually want:
// backups enabled, everything else off.
func NewOptions(root, provider string) Options {
	return Options{
		ProjectRoot: root,
		Provider:    provider,
		Backup:      true,
	}
}

// Result is the pipeline outcome. No partial success is ever reported as
// success: when Success is false the tree is either untouched or restored.
type Result struct {
	Success  bool
	Provider string
	Platform string

	// FilesCreated and FilesModified are relative to the project root.
	// Both are empty after a successful rollback.
	FilesCreated  []string
	FilesModified []string

	// Warnings are informational: forced overwrites, dry-run notes, passed
	// gate checks, and rollback problems.
	Warnings []string

	// SnapshotID is the snapshot captured for this run, if any. The
	// snapshot itself is deleted on both commit and rollback.
	SnapshotID string

	// Err is the failure cause when Success is false.
	Err error
}
