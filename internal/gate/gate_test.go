package gate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authwire/authwire/internal/platform"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func passingInput(t *testing.T) Input {
	t.Helper()
	root := t.TempDir()

	write(t, root, "internal/auth/auth0.go", "package auth\n")
	write(t, root, "main.go", `package main

import (
	"example.com/demo/internal/auth"
)

func main() {
	auth.RegisterAuth0(mux)
}
`)

	fly, ok := platform.Get(platform.Fly)
	require.True(t, ok)
	write(t, root, fly.ConfigFile, "app = \"demo\"\n\n[env]\nAUTH0_DOMAIN = \"x\"\n")

	return Input{
		Root:         root,
		CreatedFiles: []string{"internal/auth/auth0.go"},
		EntryPoint:   filepath.Join(root, "main.go"),
		ImportPath:   "example.com/demo/internal/auth",
		Symbol:       "auth.RegisterAuth0",
		Platform:     fly,
	}
}

func TestRunner_AllPass(t *testing.T) {
	report := NewRunner().Run(passingInput(t))

	assert.True(t, report.Passed)
	assert.Empty(t, report.Errors)
	assert.Equal(t, []string{
		"created-files-exist",
		"entry-point-symbols",
		"no-placeholders",
		"platform-config-parses",
	}, report.PassedChecks)
}

func TestRunner_MissingCreatedFile(t *testing.T) {
	in := passingInput(t)
	in.CreatedFiles = append(in.CreatedFiles, "internal/auth/gone.go")

	report := NewRunner().Run(in)

	assert.False(t, report.Passed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "created-files-exist")
	assert.Contains(t, report.Errors[0], "gone.go")
}

func TestRunner_AllChecksRunAfterFailure(t *testing.T) {
	in := passingInput(t)
	in.CreatedFiles = append(in.CreatedFiles, "internal/auth/gone.go")

	report := NewRunner().Run(in)

	assert.Contains(t, report.PassedChecks, "entry-point-symbols",
		"a failing check must not stop the battery")
}

func TestEntrySymbolCheck_MissingCall(t *testing.T) {
	in := passingInput(t)
	write(t, in.Root, "main.go", `package main

import (
	"example.com/demo/internal/auth"
)

func main() {
}
`)

	report := NewRunner().Run(in)

	assert.False(t, report.Passed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "auth.RegisterAuth0")
}

func TestEntrySymbolCheck_DuplicateCall(t *testing.T) {
	in := passingInput(t)
	write(t, in.Root, "main.go", `package main

import (
	"example.com/demo/internal/auth"
)

func main() {
	auth.RegisterAuth0(mux)
	auth.RegisterAuth0(mux)
}
`)

	report := NewRunner().Run(in)
	assert.False(t, report.Passed)

	in.Force = true
	report = NewRunner().Run(in)
	assert.True(t, report.Passed, "force relaxes the exactly-once call rule")
}

func TestEntrySymbolCheck_DuplicateImportNotExcusedByForce(t *testing.T) {
	in := passingInput(t)
	write(t, in.Root, "main.go", `package main

import (
	"example.com/demo/internal/auth"
	"example.com/demo/internal/auth"
)

func main() {
	auth.RegisterAuth0(mux)
}
`)
	in.Force = true

	report := NewRunner().Run(in)
	assert.False(t, report.Passed, "a duplicate import never compiles, force or not")
}

func TestPlaceholderCheck(t *testing.T) {
	in := passingInput(t)
	write(t, in.Root, "internal/auth/auth0.go", "package auth\n\n// {{ .Module }}\n")

	report := NewRunner().Run(in)

	assert.False(t, report.Passed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "no-placeholders")
}

func TestConfigParsesCheck_BrokenTOML(t *testing.T) {
	in := passingInput(t)
	write(t, in.Root, "fly.toml", "[env\nbroken")

	report := NewRunner().Run(in)

	assert.False(t, report.Passed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "platform-config-parses")
}

func TestConfigParsesCheck_AbsentConfigPasses(t *testing.T) {
	in := passingInput(t)
	require.NoError(t, os.Remove(filepath.Join(in.Root, "fly.toml")))

	report := NewRunner().Run(in)
	assert.True(t, report.Passed, "a platform config that was never there is not our failure")
}

func TestConfigParsesCheck_UnknownPlatform(t *testing.T) {
	in := passingInput(t)
	in.Platform = nil

	report := NewRunner().Run(in)
	assert.True(t, report.Passed)
}

func TestRunner_AddCheck(t *testing.T) {
	r := NewRunner()
	r.AddCheck(failingCheck{})

	report := r.Run(passingInput(t))

	assert.False(t, report.Passed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "always-fails")
}

type failingCheck struct{}

func (failingCheck) Name() string { return "always-fails" }

func (failingCheck) Run(Input) error {
	return assert.AnError
}
