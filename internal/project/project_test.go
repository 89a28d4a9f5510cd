package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	awerrors "github.com/authwire/authwire/internal/errors"
)

func newProject(t *testing.T, modulePath string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"),
		[]byte("module "+modulePath+"\n\ngo 1.25\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "internal"), 0o755))
	return root
}

func TestLoad(t *testing.T) {
	root := newProject(t, "example.com/demo")
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"),
		[]byte("package main\n\nfunc main() {}\n"), 0o644))

	info, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, "example.com/demo", info.ModulePath)
	assert.Equal(t, filepath.Join(root, "main.go"), info.EntryPoint)
	assert.Equal(t, filepath.Join(root, "internal", "auth"), info.AuthDir)
	assert.Equal(t, "example.com/demo/internal/auth", info.AuthImportPath())
	assert.Equal(t, "main.go", info.EntryPointRel())
}

func TestLoad_CmdEntryPoint(t *testing.T) {
	root := newProject(t, "example.com/demo")
	serverMain := filepath.Join(root, "cmd", "server", "main.go")
	require.NoError(t, os.MkdirAll(filepath.Dir(serverMain), 0o755))
	require.NoError(t, os.WriteFile(serverMain, []byte("package main\n"), 0o644))

	info, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, serverMain, info.EntryPoint)
	assert.Equal(t, filepath.Join("cmd", "server", "main.go"), info.EntryPointRel())
}

func TestLoad_RootMainWinsOverCmd(t *testing.T) {
	root := newProject(t, "example.com/demo")
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n"), 0o644))
	cmdMain := filepath.Join(root, "cmd", "api", "main.go")
	require.NoError(t, os.MkdirAll(filepath.Dir(cmdMain), 0o755))
	require.NoError(t, os.WriteFile(cmdMain, []byte("package main\n"), 0o644))

	info, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "main.go"), info.EntryPoint)
}

func TestLoad_MissingEntryPointDefaults(t *testing.T) {
	root := newProject(t, "example.com/demo")

	info, err := Load(root)
	require.NoError(t, err, "a missing entry point is a transform failure later, not a validation failure")
	assert.Equal(t, filepath.Join(root, "main.go"), info.EntryPoint)
}

func TestLoad_NoManifest(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "internal"), 0o755))

	_, err := Load(root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoManifest))
	assert.Equal(t, awerrors.KindValidation, awerrors.KindOf(err))
}

func TestLoad_NoSourceTree(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"),
		[]byte("module example.com/demo\n"), 0o644))

	_, err := Load(root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoSourceTree))
	assert.Equal(t, awerrors.KindValidation, awerrors.KindOf(err))
}

func TestLoad_MalformedManifest(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"),
		[]byte("this is not a go.mod\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "internal"), 0o755))

	_, err := Load(root)
	require.Error(t, err)
	assert.Equal(t, awerrors.KindValidation, awerrors.KindOf(err))
}
