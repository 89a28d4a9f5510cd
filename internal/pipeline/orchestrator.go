package pipeline

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	awerrors "github.com/authwire/authwire/internal/errors"
	"github.com/authwire/authwire/internal/gate"
	"github.com/authwire/authwire/internal/patch"
	"github.com/authwire/authwire/internal/platform"
	"github.com/authwire/authwire/internal/project"
	"github.com/authwire/authwire/internal/provider"
	"github.com/authwire/authwire/internal/snapshot"
	"github.com/authwire/authwire/pkg/fileutil"
)

// Orchestrator drives the state machine. It is not safe for concurrent use.
type Orchestrator struct {
	log       *slog.Logger
	providers *provider.Registry
	snapshots *snapshot.Manager
	gate      *gate.Runner
	state     State
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProviders replaces the built-in provider registry.
func WithProviders(r *provider.Registry) Option {
	return func(o *Orchestrator) { o.providers = r }
}

// WithSnapshots replaces the default snapshot manager.
func WithSnapshots(m *snapshot.Manager) Option {
	return func(o *Orchestrator) { o.snapshots = m }
}

// WithGate replaces the default validation battery.
func WithGate(r *gate.Runner) Option {
	return func(o *Orchestrator) { o.gate = r }
}

// New creates an Orchestrator with the built-in providers, the default
// snapshot store, and the fixed gate battery.
func New(log *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		log:       log,
		providers: provider.DefaultRegistry(),
		snapshots: snapshot.NewManager(),
		gate:      gate.NewRunner(),
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current stage, for callers that observe progress.
func (o *Orchestrator) State() State {
	return o.state
}

// Providers returns the registry the orchestrator resolves providers from.
func (o *Orchestrator) Providers() *provider.Registry {
	return o.providers
}

func (o *Orchestrator) transition(s State) {
	o.log.Debug("pipeline state", "from", string(o.state), "to", string(s))
	o.state = s
}

// Run executes one invocation. Every failure is converted into the Result;
// Run never returns an error and never panics past its boundary.
func (o *Orchestrator) Run(opts Options) Result {
	res := Result{Provider: opts.Provider}
	o.state = StateIdle

	o.transition(StateValidatingProject)
	info, err := project.Load(opts.ProjectRoot)
	if err != nil {
		return o.done(res, err)
	}

	desc, ok := o.providers.Get(opts.Provider)
	if !ok {
		return o.done(res, awerrors.Classifyf(awerrors.KindValidation,
			"unknown provider %q (known: %s)", opts.Provider, strings.Join(o.providers.IDs(), ", ")))
	}

	o.transition(StateDetectingPlatform)
	name := opts.Platform
	if name == "" {
		name = platform.Detect(opts.ProjectRoot)
	}
	plat, ok := platform.Get(name)
	if !ok {
		return o.done(res, awerrors.Classifyf(awerrors.KindValidation,
			"cannot determine hosting platform for %s; pass one of: %s",
			opts.ProjectRoot, strings.Join(platform.Names(), ", ")))
	}
	res.Platform = plat.Name
	o.log.Info("platform detected", "platform", plat.Name, "provider", desc.ID)

	if opts.DryRun {
		res.Success = true
		res.Warnings = append(res.Warnings, "dry run: no files were modified")
		o.transition(StateDone)
		return res
	}

	o.transition(StateCheckingExisting)
	warning, err := o.checkExisting(info, desc, opts.Force)
	if err != nil {
		return o.done(res, err)
	}
	if warning != "" {
		res.Warnings = append(res.Warnings, warning)
	}

	if opts.Backup {
		o.transition(StateBackingUp)
		id, err := o.snapshots.Capture(info.Root, capturePaths(info))
		if err != nil {
			return o.done(res, awerrors.Classify(awerrors.KindValidation,
				errors.Wrap(err, "capturing snapshot")))
		}
		res.SnapshotID = id
		o.log.Info("snapshot captured", "id", id)
	}

	o.transition(StateGeneratingFiles)
	files, err := desc.Generate(provider.Context{Module: info.ModulePath})
	if err != nil {
		return o.rollback(info.Root, res, awerrors.Classify(awerrors.KindTransform,
			errors.Wrapf(err, "generating %s files", desc.ID)))
	}
	for _, f := range files {
		abs := filepath.Join(info.Root, filepath.FromSlash(f.RelPath))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return o.rollback(info.Root, res, awerrors.Classify(awerrors.KindIO, err))
		}
		if err := fileutil.AtomicWriteFile(abs, f.Content, 0o644); err != nil {
			return o.rollback(info.Root, res, awerrors.Classify(awerrors.KindIO, err))
		}
		res.FilesCreated = append(res.FilesCreated, f.RelPath)
	}

	o.transition(StateRecordingDependencies)
	modified, err := provider.RecordDependencies(
		filepath.Join(info.Root, project.ManifestFile), desc.Requirements)
	if err != nil {
		return o.rollback(info.Root, res, err)
	}
	if modified {
		res.FilesModified = append(res.FilesModified, project.ManifestFile)
	}

	o.transition(StatePatchingEntryPoint)
	patched, err := patch.Apply(patch.Request{
		FilePath:   info.EntryPoint,
		ModulePath: info.ModulePath,
		ImportPath: info.AuthImportPath(),
		Symbol:     desc.EntrySymbol,
		Call:       desc.EntryCall,
		InitFunc:   opts.EntryFunc,
		Force:      opts.Force,
	})
	if err != nil {
		return o.rollback(info.Root, res, err)
	}
	if patched.Modified {
		res.FilesModified = append(res.FilesModified, info.EntryPointRel())
	}

	o.transition(StateMergingConfig)
	touched, err := mergeConfig(info.Root, plat, desc)
	if err != nil {
		return o.rollback(info.Root, res, err)
	}
	res.FilesModified = append(res.FilesModified, touched...)

	o.transition(StateRunningValidationGate)
	report := o.gate.Run(gate.Input{
		Root:         info.Root,
		CreatedFiles: res.FilesCreated,
		EntryPoint:   info.EntryPoint,
		ImportPath:   info.AuthImportPath(),
		Symbol:       desc.EntrySymbol,
		Platform:     plat,
		Force:        opts.Force,
	})
	if !report.Passed {
		return o.rollback(info.Root, res, awerrors.Classifyf(awerrors.KindPostValidation,
			"%s", strings.Join(report.Errors, "; ")))
	}
	for _, check := range report.PassedChecks {
		res.Warnings = append(res.Warnings, "check passed: "+check)
	}

	o.transition(StateCommitting)
	if res.SnapshotID != "" {
		if err := o.snapshots.Remove(info.Root, res.SnapshotID); err != nil {
			res.Warnings = append(res.Warnings, "snapshot cleanup failed: "+err.Error())
		}
	}

	res.Success = true
	o.transition(StateDone)
	o.log.Info("provider wired",
		"provider", desc.ID, "created", len(res.FilesCreated), "modified", len(res.FilesModified))
	return res
}

// done terminates a run that failed before any mutation. No rollback is
// needed; the tree is untouched.
func (o *Orchestrator) done(res Result, err error) Result {
	res.Err = err
	res.Success = false
	o.transition(StateDone)
	return res
}

// rollback restores the snapshot, if one exists, and terminates the run
// with cause as the reported error. Restore problems become warnings; the
// original cause always remains the reported failure.
func (o *Orchestrator) rollback(root string, res Result, cause error) Result {
	res.Err = cause
	res.Success = false

	if res.SnapshotID == "" {
		o.transition(StateDone)
		return res
	}

	o.transition(StateRollingBack)
	o.log.Warn("rolling back", "snapshot", res.SnapshotID, "cause", cause.Error())

	if err := o.snapshots.Restore(root, res.SnapshotID); err != nil {
		res.Warnings = append(res.Warnings, "rollback failed: "+err.Error())
	} else {
		res.FilesCreated = nil
		res.FilesModified = nil
	}
	if err := o.snapshots.Remove(root, res.SnapshotID); err != nil {
		res.Warnings = append(res.Warnings, "snapshot cleanup failed: "+err.Error())
	}

	o.transition(StateDone)
	return res
}

// checkExisting rejects a project that already has a provider wired. A
// different provider is always a conflict, force or not: combining two
// providers' files and keys is undefined and never attempted. The same
// provider needs force, which downgrades the conflict to a warning.
func (o *Orchestrator) checkExisting(info *project.Info, desc provider.Descriptor, force bool) (string, error) {
	wired := make(map[string]bool)
	for _, id := range o.providers.Detect(info.Root) {
		wired[id] = true
	}
	if data, err := os.ReadFile(info.EntryPoint); err == nil {
		for _, id := range o.providers.IDs() {
			d, _ := o.providers.Get(id)
			if strings.Contains(string(data), d.EntrySymbol) {
				wired[id] = true
			}
		}
	}

	for _, id := range o.providers.IDs() {
		if wired[id] && id != desc.ID {
			return "", awerrors.Classifyf(awerrors.KindConflict,
				"provider %s is already wired into this project; remove it before adding %s", id, desc.ID)
		}
	}

	if wired[desc.ID] {
		if !force {
			return "", awerrors.Classifyf(awerrors.KindConflict,
				"provider %s is already configured (use --force to overwrite)", desc.ID)
		}
		return "existing " + desc.ID + " configuration will be overwritten", nil
	}
	return "", nil
}

// capturePaths is the capture set for one run: the manifest, the entry
// point, the env template, every platform config file, and the generated
// subtree. Absent paths are captured as tombstones so restore can recreate
// absence.
func capturePaths(info *project.Info) []string {
	paths := []string{
		project.ManifestFile,
		info.EntryPointRel(),
		".env.example",
		"internal/auth",
	}
	for _, name := range platform.Names() {
		if p, ok := platform.Get(name); ok {
			paths = append(paths, p.ConfigFile)
		}
	}
	return paths
}
