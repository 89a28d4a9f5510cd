// Package project validates a generated server project and resolves the
// paths the scaffolding pipeline operates on: the go.mod manifest, the entry
// point source file, and the generated-source subtree for auth code.
package project

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"golang.org/x/mod/modfile"

	awerrors "github.com/authwire/authwire/internal/errors"
)

// ManifestFile is the project manifest name.
const ManifestFile = "go.mod"

// Sentinel errors for project validation.
var (
	// ErrNoManifest indicates the project root has no go.mod.
	ErrNoManifest = errors.New("project has no go.mod manifest")

	// ErrNoSourceTree indicates the project root has no internal/ source tree.
	ErrNoSourceTree = errors.New("project has no internal/ source tree")
)

// Info describes a validated project.
type Info struct {
	// Root is the absolute project root path.
	Root string

	// ModulePath is the module path declared in go.mod.
	ModulePath string

	// EntryPoint is the absolute path of the bootstrap source file. It is
	// always set (the patcher reports its own failure if the file is gone);
	// when no candidate exists on disk it points at the default location.
	EntryPoint string

	// AuthDir is the absolute path of the subtree that receives generated
	// provider files.
	AuthDir string
}

// entryPointCandidates are probed in order; the first existing file wins.
func entryPointCandidates(root string) []string {
	candidates := []string{filepath.Join(root, "main.go")}

	matches, _ := filepath.Glob(filepath.Join(root, "cmd", "*", "main.go"))
	sort.Strings(matches)
	candidates = append(candidates, matches...)

	return candidates
}

// Load validates the project at root and resolves its paths.
// Failures are classified as validation failures; they occur before any
// snapshot or mutation.
func Load(root string) (*Info, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, awerrors.Classify(awerrors.KindValidation, errors.Wrap(err, "resolving project root"))
	}

	manifestPath := filepath.Join(abs, ManifestFile)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, awerrors.Classify(awerrors.KindValidation, ErrNoManifest)
		}
		return nil, awerrors.Classify(awerrors.KindIO, errors.Wrap(err, "reading go.mod"))
	}

	mod, err := modfile.Parse(manifestPath, data, nil)
	if err != nil {
		return nil, awerrors.Classify(awerrors.KindValidation, errors.Wrap(err, "parsing go.mod"))
	}
	if mod.Module == nil || mod.Module.Mod.Path == "" {
		return nil, awerrors.Classify(awerrors.KindValidation,
			errors.New("go.mod has no module declaration"))
	}

	srcInfo, err := os.Stat(filepath.Join(abs, "internal"))
	if err != nil || !srcInfo.IsDir() {
		return nil, awerrors.Classify(awerrors.KindValidation, ErrNoSourceTree)
	}

	entry := ""
	for _, candidate := range entryPointCandidates(abs) {
		if fileExists(candidate) {
			entry = candidate
			break
		}
	}
	if entry == "" {
		// Default location; the patcher turns this into a transform failure.
		entry = filepath.Join(abs, "main.go")
	}

	return &Info{
		Root:       abs,
		ModulePath: mod.Module.Mod.Path,
		EntryPoint: entry,
		AuthDir:    filepath.Join(abs, "internal", "auth"),
	}, nil
}

// AuthImportPath returns the import path of the generated auth package.
func (i *Info) AuthImportPath() string {
	return i.ModulePath + "/internal/auth"
}

// EntryPointRel returns the entry point path relative to the project root.
func (i *Info) EntryPointRel() string {
	rel, err := filepath.Rel(i.Root, i.EntryPoint)
	if err != nil {
		return i.EntryPoint
	}
	return rel
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
