package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	cp "github.com/otiai10/copy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	awerrors "github.com/authwire/authwire/internal/errors"
	"github.com/authwire/authwire/internal/gate"
	"github.com/authwire/authwire/internal/logging"
	"github.com/authwire/authwire/internal/snapshot"
)

const testMain = `package main

import (
	"net/http"

	"example.com/demo/internal/server"
)

func main() {
	mux := http.NewServeMux()
	server.Register(mux)
	_ = http.ListenAndServe(":8080", mux)
}
`

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

// writeProject lays out a minimal generated server project targeting fly.
func writeProject(t *testing.T, root string) {
	t.Helper()
	writeFile(t, root, "go.mod", "module example.com/demo\n\ngo 1.22\n")
	writeFile(t, root, "main.go", testMain)
	writeFile(t, root, "internal/server/server.go",
		"package server\n\nimport \"net/http\"\n\nfunc Register(mux *http.ServeMux) {}\n")
	writeFile(t, root, "fly.toml", "app = \"demo\"\n\n[env]\nPORT = \"8080\"\n")
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *snapshot.Manager) {
	t.Helper()
	mgr := snapshot.NewManager(snapshot.WithStoreDir(t.TempDir()))
	return New(logging.ForTest(t), WithSnapshots(mgr)), mgr
}

// hashTree fingerprints every file under root by path and content.
func hashTree(t *testing.T, root string) string {
	t.Helper()
	var entries []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		entries = append(entries, filepath.ToSlash(rel)+":"+hex.EncodeToString(sum[:]))
		return nil
	})
	require.NoError(t, err)
	sort.Strings(entries)

	sum := sha256.Sum256([]byte(strings.Join(entries, "\n")))
	return hex.EncodeToString(sum[:])
}

func readProjectFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func TestRun_EndToEndSuccess(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)
	o, mgr := newTestOrchestrator(t)

	res := o.Run(NewOptions(root, "auth0"))

	require.NoError(t, res.Err)
	assert.True(t, res.Success)
	assert.Equal(t, "fly", res.Platform)
	assert.Equal(t, StateDone, o.State())

	assert.Equal(t, []string{
		"internal/auth/auth0.go",
		"internal/auth/auth0_middleware.go",
		"internal/auth/auth0_routes.go",
	}, res.FilesCreated)
	assert.Equal(t, []string{"go.mod", "main.go", "fly.toml", ".env.example"}, res.FilesModified)

	entry := readProjectFile(t, root, "main.go")
	assert.Equal(t, 1, strings.Count(entry, `"example.com/demo/internal/auth"`))
	assert.Equal(t, 1, strings.Count(entry, "auth.RegisterAuth0(mux)"))

	gomod := readProjectFile(t, root, "go.mod")
	assert.Contains(t, gomod, "github.com/auth0/go-jwt-middleware/v2 v2.2.1")

	fly := readProjectFile(t, root, "fly.toml")
	assert.Contains(t, fly, "AUTH0_DOMAIN = \"$AUTH0_DOMAIN\"")
	assert.Contains(t, fly, "PORT = \"8080\"", "unrelated keys survive the merge")

	env := readProjectFile(t, root, ".env.example")
	assert.Contains(t, env, "# auth0")
	assert.Contains(t, env, "AUTH0_DOMAIN=")

	for _, check := range []string{"created-files-exist", "entry-point-symbols", "no-placeholders"} {
		assert.Contains(t, res.Warnings, "check passed: "+check)
	}

	left, err := mgr.List(root)
	require.NoError(t, err)
	assert.Empty(t, left, "the snapshot is deleted on commit")
}

func TestRun_SecondRunConflicts(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)
	o, _ := newTestOrchestrator(t)

	first := o.Run(NewOptions(root, "auth0"))
	require.True(t, first.Success)
	after := hashTree(t, root)

	second := o.Run(NewOptions(root, "auth0"))

	assert.False(t, second.Success)
	assert.Equal(t, awerrors.KindConflict, awerrors.KindOf(second.Err))
	assert.Equal(t, after, hashTree(t, root),
		"a conflicting run must not touch the tree")
}

func TestRun_DifferentProviderConflictsEvenWithForce(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)
	o, _ := newTestOrchestrator(t)

	require.True(t, o.Run(NewOptions(root, "auth0")).Success)

	opts := NewOptions(root, "clerk")
	opts.Force = true
	res := o.Run(opts)

	assert.False(t, res.Success)
	assert.Equal(t, awerrors.KindConflict, awerrors.KindOf(res.Err))
	assert.Contains(t, res.Err.Error(), "auth0")
}

func TestRun_ForceOverwritesSameProvider(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)
	o, _ := newTestOrchestrator(t)

	require.True(t, o.Run(NewOptions(root, "auth0")).Success)

	opts := NewOptions(root, "auth0")
	opts.Force = true
	res := o.Run(opts)

	require.NoError(t, res.Err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Warnings, "existing auth0 configuration will be overwritten")
}

func TestRun_DryRun(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)
	o, mgr := newTestOrchestrator(t)

	before := hashTree(t, root)

	opts := NewOptions(root, "auth0")
	opts.DryRun = true
	res := o.Run(opts)

	assert.True(t, res.Success)
	assert.Equal(t, "fly", res.Platform)
	assert.Empty(t, res.SnapshotID)
	assert.Contains(t, res.Warnings, "dry run: no files were modified")
	assert.Equal(t, before, hashTree(t, root))

	left, err := mgr.List(root)
	require.NoError(t, err)
	assert.Empty(t, left, "a dry run never creates a snapshot")
}

func TestRun_DryRunStillValidates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module example.com/demo\n\ngo 1.22\n")
	o, _ := newTestOrchestrator(t)

	opts := NewOptions(root, "auth0")
	opts.DryRun = true
	res := o.Run(opts)

	assert.False(t, res.Success, "dry run success reflects precondition validation")
	assert.Equal(t, awerrors.KindValidation, awerrors.KindOf(res.Err))
}

func TestRun_RollbackOnMissingEntryPoint(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)
	require.NoError(t, os.Remove(filepath.Join(root, "main.go")))

	pristine := filepath.Join(t.TempDir(), "pristine")
	require.NoError(t, cp.Copy(root, pristine))

	o, mgr := newTestOrchestrator(t)
	res := o.Run(NewOptions(root, "auth0"))

	assert.False(t, res.Success)
	require.Error(t, res.Err)
	assert.Equal(t, awerrors.KindTransform, awerrors.KindOf(res.Err))
	assert.Contains(t, res.Err.Error(), "entry point")

	assert.Empty(t, res.FilesCreated, "a rolled-back run reports no surviving changes")
	assert.Equal(t, hashTree(t, pristine), hashTree(t, root),
		"the tree must be byte-identical to its pre-run state")

	left, err := mgr.List(root)
	require.NoError(t, err)
	assert.Empty(t, left, "the snapshot is deleted after rollback")
}

type sabotageCheck struct{}

func (sabotageCheck) Name() string { return "sabotage" }

func (sabotageCheck) Run(gate.Input) error { return fmt.Errorf("injected failure") }

func TestRun_RollbackOnGateFailure(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)

	pristine := filepath.Join(t.TempDir(), "pristine")
	require.NoError(t, cp.Copy(root, pristine))

	runner := gate.NewRunner()
	runner.AddCheck(sabotageCheck{})

	mgr := snapshot.NewManager(snapshot.WithStoreDir(t.TempDir()))
	o := New(logging.ForTest(t), WithSnapshots(mgr), WithGate(runner))

	res := o.Run(NewOptions(root, "auth0"))

	assert.False(t, res.Success)
	assert.Equal(t, awerrors.KindPostValidation, awerrors.KindOf(res.Err))
	assert.Contains(t, res.Err.Error(), "injected failure")
	assert.Equal(t, hashTree(t, pristine), hashTree(t, root))

	left, err := mgr.List(root)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestRun_NoBackupSkipsSnapshot(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)
	o, mgr := newTestOrchestrator(t)

	opts := NewOptions(root, "auth0")
	opts.Backup = false
	res := o.Run(opts)

	require.NoError(t, res.Err)
	assert.True(t, res.Success)
	assert.Empty(t, res.SnapshotID)

	left, err := mgr.List(root)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestRun_UnknownProvider(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)
	o, _ := newTestOrchestrator(t)

	res := o.Run(NewOptions(root, "okta"))

	assert.False(t, res.Success)
	assert.Equal(t, awerrors.KindValidation, awerrors.KindOf(res.Err))
	assert.Contains(t, res.Err.Error(), "auth0, clerk, firebase")
}

func TestRun_UndetectablePlatform(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)
	require.NoError(t, os.Remove(filepath.Join(root, "fly.toml")))
	o, _ := newTestOrchestrator(t)

	res := o.Run(NewOptions(root, "auth0"))

	assert.False(t, res.Success)
	assert.Equal(t, awerrors.KindValidation, awerrors.KindOf(res.Err))
}

func TestRun_CallerSuppliedPlatform(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)
	require.NoError(t, os.Remove(filepath.Join(root, "fly.toml")))
	o, _ := newTestOrchestrator(t)

	opts := NewOptions(root, "auth0")
	opts.Platform = "fly"
	res := o.Run(opts)

	require.NoError(t, res.Err)
	assert.True(t, res.Success)
	assert.NotContains(t, res.FilesModified, "fly.toml",
		"an absent platform config is skipped, not created")
	assert.Contains(t, res.FilesModified, ".env.example")
}

func TestRun_MissingManifest(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	res := o.Run(NewOptions(t.TempDir(), "auth0"))

	assert.False(t, res.Success)
	assert.Equal(t, awerrors.KindValidation, awerrors.KindOf(res.Err))
}

func TestRun_VercelConfigMerge(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root)
	require.NoError(t, os.Remove(filepath.Join(root, "fly.toml")))
	writeFile(t, root, "vercel.json", "{\n  \"version\": 2\n}\n")

	o, _ := newTestOrchestrator(t)
	res := o.Run(NewOptions(root, "clerk"))

	require.NoError(t, res.Err)
	assert.True(t, res.Success)
	assert.Equal(t, "vercel", res.Platform)

	cfg := readProjectFile(t, root, "vercel.json")
	assert.Contains(t, cfg, `"CLERK_SECRET_KEY": "@clerk-secret-key"`)
}
