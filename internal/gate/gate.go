// Package gate runs the post-mutation validation battery. The checks are
// fast and purely textual; they never type-check or build the target
// project. A failed report triggers rollback in the pipeline.
package gate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/authwire/authwire/internal/configmerge"
	"github.com/authwire/authwire/internal/platform"
	"github.com/authwire/authwire/pkg/fileutil"
)

// Input is everything the battery inspects: the mutated tree and the facts
// the orchestrator recorded while mutating it.
type Input struct {
	// Root is the project root.
	Root string

	// CreatedFiles are the paths the orchestrator created, relative to Root.
	CreatedFiles []string

	// EntryPoint is the absolute path of the patched bootstrap file.
	EntryPoint string

	// ImportPath and Symbol identify the patch: the auth package import and
	// the registration symbol inserted into the initialization routine.
	ImportPath string
	Symbol     string

	// Platform is the detected hosting platform, nil when unknown.
	Platform *platform.Platform

	// Force relaxes the exactly-once symbol check, since a forced run may
	// legitimately duplicate the registration call.
	Force bool
}

// Report is the battery outcome.
type Report struct {
	Passed       bool
	Errors       []string
	PassedChecks []string
}

// Check is one validation in the battery.
type Check interface {
	// Name returns the unique identifier for this check.
	Name() string

	// Run returns nil on pass.
	Run(in Input) error
}

// Runner executes checks and aggregates their results.
type Runner struct {
	checks []Check
}

// NewRunner returns a runner loaded with the fixed battery.
func NewRunner() *Runner {
	return &Runner{
		checks: []Check{
			filesExistCheck{},
			entrySymbolCheck{},
			placeholderCheck{},
			configParsesCheck{},
		},
	}
}

// AddCheck appends an extra check to the battery.
func (r *Runner) AddCheck(c Check) {
	r.checks = append(r.checks, c)
}

// Run executes every check. All checks run even after a failure so the
// report names everything wrong at once.
func (r *Runner) Run(in Input) Report {
	report := Report{Passed: true}

	for _, check := range r.checks {
		if err := check.Run(in); err != nil {
			report.Passed = false
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", check.Name(), err))
			continue
		}
		report.PassedChecks = append(report.PassedChecks, check.Name())
	}

	return report
}

// filesExistCheck verifies every recorded created file is on disk.
type filesExistCheck struct{}

func (filesExistCheck) Name() string { return "created-files-exist" }

func (filesExistCheck) Run(in Input) error {
	for _, rel := range in.CreatedFiles {
		abs := filepath.Join(in.Root, filepath.FromSlash(rel))
		info, err := os.Stat(abs)
		if err != nil {
			return fmt.Errorf("%s missing", rel)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", rel)
		}
	}
	return nil
}

// entrySymbolCheck verifies the patch landed exactly once.
type entrySymbolCheck struct{}

func (entrySymbolCheck) Name() string { return "entry-point-symbols" }

func (entrySymbolCheck) Run(in Input) error {
	if in.EntryPoint == "" {
		return nil
	}

	data, err := fileutil.ReadFileWithLimit(in.EntryPoint)
	if err != nil {
		return fmt.Errorf("reading entry point: %v", err)
	}
	content := string(data)

	imports := strings.Count(content, `"`+in.ImportPath+`"`)
	if imports != 1 {
		return fmt.Errorf("import %s appears %d times, want 1", in.ImportPath, imports)
	}

	calls := strings.Count(content, in.Symbol+"(")
	switch {
	case calls == 0:
		return fmt.Errorf("registration call %s missing", in.Symbol)
	case calls > 1 && !in.Force:
		return fmt.Errorf("registration call %s appears %d times, want 1", in.Symbol, calls)
	}
	return nil
}

// placeholderCheck scans created files for unrendered template markers.
type placeholderCheck struct{}

func (placeholderCheck) Name() string { return "no-placeholders" }

func (placeholderCheck) Run(in Input) error {
	for _, rel := range in.CreatedFiles {
		data, err := fileutil.ReadFileWithLimit(filepath.Join(in.Root, filepath.FromSlash(rel)))
		if err != nil {
			return fmt.Errorf("reading %s: %v", rel, err)
		}
		if strings.Contains(string(data), "{{") || strings.Contains(string(data), "}}") {
			return fmt.Errorf("%s contains unrendered placeholders", rel)
		}
	}
	return nil
}

// configParsesCheck re-parses the platform config after merging.
type configParsesCheck struct{}

func (configParsesCheck) Name() string { return "platform-config-parses" }

func (configParsesCheck) Run(in Input) error {
	if in.Platform == nil || in.Platform.ConfigFile == "" {
		return nil
	}

	path := filepath.Join(in.Root, in.Platform.ConfigFile)
	data, err := fileutil.ReadFileWithLimit(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading %s: %v", in.Platform.ConfigFile, err)
	}

	switch in.Platform.Format {
	case platform.FormatTOML:
		if err := configmerge.ValidateTOML(data); err != nil {
			return fmt.Errorf("%s: %v", in.Platform.ConfigFile, err)
		}
	case platform.FormatJSONC:
		if err := configmerge.ValidateJSONC(data); err != nil {
			return fmt.Errorf("%s: %v", in.Platform.ConfigFile, err)
		}
	case platform.FormatYAML:
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("%s: %v", in.Platform.ConfigFile, err)
		}
	}
	return nil
}
