package provider

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/mod/modfile"

	awerrors "github.com/authwire/authwire/internal/errors"
)

const gomodFixture = "module example.com/demo\n\ngo 1.22\n"

func writeGomod(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "go.mod")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func requireVersion(t *testing.T, path, modPath string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	mf, err := modfile.Parse(path, data, nil)
	require.NoError(t, err)
	for _, r := range mf.Require {
		if r.Mod.Path == modPath {
			return r.Mod.Version
		}
	}
	t.Fatalf("%s not required in %s", modPath, path)
	return ""
}

func TestRecordDependencies(t *testing.T) {
	path := writeGomod(t, gomodFixture)
	reqs := []Requirement{{Path: "github.com/auth0/go-jwt-middleware/v2", Version: "v2.2.1"}}

	modified, err := RecordDependencies(path, reqs)
	require.NoError(t, err)
	assert.True(t, modified)

	assert.Equal(t, "v2.2.1", requireVersion(t, path, "github.com/auth0/go-jwt-middleware/v2"))
}

func TestRecordDependencies_Idempotent(t *testing.T) {
	path := writeGomod(t, gomodFixture)
	reqs := []Requirement{{Path: "github.com/auth0/go-jwt-middleware/v2", Version: "v2.2.1"}}

	_, err := RecordDependencies(path, reqs)
	require.NoError(t, err)

	modified, err := RecordDependencies(path, reqs)
	require.NoError(t, err)
	assert.False(t, modified)
}

func TestRecordDependencies_AddOnlyKeepsExistingVersion(t *testing.T) {
	path := writeGomod(t, gomodFixture+"\nrequire github.com/auth0/go-jwt-middleware/v2 v2.0.0\n")

	modified, err := RecordDependencies(path, []Requirement{
		{Path: "github.com/auth0/go-jwt-middleware/v2", Version: "v2.2.1"},
	})
	require.NoError(t, err)

	assert.False(t, modified)
	assert.Equal(t, "v2.0.0", requireVersion(t, path, "github.com/auth0/go-jwt-middleware/v2"),
		"an existing requirement is never upgraded")
}

func TestRecordDependencies_InvalidVersion(t *testing.T) {
	path := writeGomod(t, gomodFixture)

	_, err := RecordDependencies(path, []Requirement{{Path: "example.com/dep", Version: "not-a-version"}})
	require.Error(t, err)
	assert.Equal(t, awerrors.KindTransform, awerrors.KindOf(err))
}

func TestRecordDependencies_InvalidPath(t *testing.T) {
	path := writeGomod(t, gomodFixture)

	_, err := RecordDependencies(path, []Requirement{{Path: "not a module path", Version: "v1.0.0"}})
	require.Error(t, err)
	assert.Equal(t, awerrors.KindTransform, awerrors.KindOf(err))
}

func TestRecordDependencies_MissingFile(t *testing.T) {
	_, err := RecordDependencies(filepath.Join(t.TempDir(), "go.mod"), nil)
	require.Error(t, err)
	assert.Equal(t, awerrors.KindIO, awerrors.KindOf(err))
}

func TestRecordDependencies_MalformedGomod(t *testing.T) {
	path := writeGomod(t, "module \"unterminated\n")

	_, err := RecordDependencies(path, []Requirement{{Path: "example.com/dep", Version: "v1.0.0"}})
	require.Error(t, err)
	assert.Equal(t, awerrors.KindTransform, awerrors.KindOf(err))
}
