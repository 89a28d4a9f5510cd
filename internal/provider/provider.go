package provider

import (
	"regexp"
)

// Requirement is one module dependency the generated code needs in the
// target project's go.mod.
type Requirement struct {
	Path    string
	Version string
}

// File is one generated source file, relative to the project root.
type File struct {
	RelPath string
	Content []byte
}

// Context carries the target-project facts a generator may interpolate.
type Context struct {
	// Module is the target project's module path.
	Module string
}

// GenerateFunc produces the provider's source files. It must be pure: same
// Context in, same files out, no filesystem access.
type GenerateFunc func(Context) ([]File, error)

// Descriptor is the static metadata of one authentication provider.
type Descriptor struct {
	// ID is the provider identifier, e.g. "auth0".
	ID string

	// ConfigKeys are the environment keys the generated code reads. They
	// are merged into the platform config and the env template file.
	ConfigKeys []string

	// Requirements are the module dependencies to record in the target
	// project's go.mod.
	Requirements []Requirement

	// Files are the paths Generate will produce, relative to the project
	// root. Known statically so conflict checks and the validation gate
	// need not run the generator.
	Files []string

	// EntrySymbol is the registration symbol whose presence in the entry
	// point marks the provider as wired, e.g. "auth.RegisterAuth0".
	EntrySymbol string

	// EntryCall is the registration statement inserted into the entry
	// point's initialization routine.
	EntryCall string

	Generate GenerateFunc
}

var idPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ValidID reports whether id is acceptable as a provider identifier.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}
