package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/authwire/authwire/pkg/fileutil"
)

// Version is set at build time via ldflags.
var Version = "dev"

// idTimeLayout is the timestamp embedded in snapshot identifiers.
const idTimeLayout = "20060102T150405"

// Manager handles snapshot capture, restore, listing, and pruning.
type Manager struct {
	storeDir string
}

// Option configures a Manager.
type Option func(*Manager)

// WithStoreDir sets the root directory snapshots are stored under.
func WithStoreDir(dir string) Option {
	return func(m *Manager) {
		m.storeDir = dir
	}
}

// NewManager creates a snapshot Manager with the given options.
// By default snapshots live under the XDG cache directory.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		storeDir: filepath.Join(xdg.CacheHome, "authwire", "snapshots"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Capture snapshots the given root-relative paths and returns the snapshot ID.
//
// Files are stored with preserved permissions and a SHA256 hash. Paths that
// do not exist are recorded as absent so restore can recreate their absence.
// Directory paths are captured recursively and recorded as subtrees; files
// created under a subtree after the capture are deleted on restore.
func (m *Manager) Capture(root string, paths []string) (string, error) {
	if root == "" {
		return "", errors.New("project root is required")
	}
	if len(paths) == 0 {
		return "", errors.New("at least one path is required")
	}

	id := newID()
	snapDir := m.snapshotDir(root, id)

	if err := os.MkdirAll(filepath.Join(snapDir, "files"), 0o755); err != nil {
		return "", errors.Wrap(err, "creating snapshot directory")
	}

	manifest := &Manifest{
		Version:     ManifestVersion,
		CreatedAt:   time.Now().UTC(),
		Root:        root,
		ToolVersion: Version,
		ID:          id,
	}

	for _, rel := range paths {
		abs := filepath.Join(root, rel)

		info, err := os.Stat(abs)
		if err != nil {
			if os.IsNotExist(err) {
				manifest.Absent = append(manifest.Absent, rel)
				continue
			}
			os.RemoveAll(snapDir)
			return "", errors.Wrapf(err, "stat %s", rel)
		}

		if info.IsDir() {
			manifest.Subtrees = append(manifest.Subtrees, Subtree{RelPath: rel})
			files, err := m.captureDir(root, rel, snapDir)
			if err != nil {
				os.RemoveAll(snapDir)
				return "", errors.Wrapf(err, "capturing directory %s", rel)
			}
			manifest.Files = append(manifest.Files, files...)
		} else {
			f, err := m.captureFile(root, rel, snapDir)
			if err != nil {
				os.RemoveAll(snapDir)
				return "", errors.Wrapf(err, "capturing file %s", rel)
			}
			manifest.Files = append(manifest.Files, *f)
		}
	}

	if err := fileutil.AtomicWriteJSON(filepath.Join(snapDir, "manifest.json"), manifest); err != nil {
		os.RemoveAll(snapDir)
		return "", errors.Wrap(err, "writing manifest")
	}

	return id, nil
}

// captureFile copies a single project file into the snapshot store.
func (m *Manager) captureFile(root, rel, snapDir string) (*File, error) {
	src := filepath.Join(root, rel)
	dst := filepath.Join(snapDir, "files", filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating parent directory")
	}

	hash, mode, err := copyFile(src, dst)
	if err != nil {
		return nil, err
	}

	return &File{
		RelPath:    rel,
		SHA256Hash: hash,
		Mode:       mode,
	}, nil
}

func (m *Manager) captureDir(root, rel, snapDir string) ([]File, error) {
	var files []File

	srcDir := filepath.Join(root, rel)
	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		fileRel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		f, err := m.captureFile(root, fileRel, snapDir)
		if err != nil {
			return err
		}
		files = append(files, *f)
		return nil
	})

	return files, err
}

// Restore returns the project tree to the state recorded in the snapshot:
// captured files get their exact bytes and permissions back, absent paths
// are deleted, and files under captured subtrees that were not part of the
// capture set are removed.
func (m *Manager) Restore(root, id string) error {
	manifest, err := m.Get(root, id)
	if err != nil {
		return err
	}

	snapDir := m.snapshotDir(root, id)

	for _, f := range manifest.Files {
		src := filepath.Join(snapDir, "files", filepath.FromSlash(f.RelPath))

		// Verify integrity before touching the project
		hash, err := hashFile(src)
		if err != nil {
			return errors.Wrapf(err, "reading snapshot file %s", f.RelPath)
		}
		if hash != f.SHA256Hash {
			return errors.Wrapf(ErrSnapshotCorrupted, "file %s hash mismatch", f.RelPath)
		}

		dst := filepath.Join(root, f.RelPath)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return errors.Wrapf(err, "creating directory for %s", f.RelPath)
		}
		if _, _, err := copyFile(src, dst); err != nil {
			return errors.Wrapf(err, "restoring %s", f.RelPath)
		}
		if err := os.Chmod(dst, f.Mode); err != nil {
			return errors.Wrapf(err, "setting permissions for %s", f.RelPath)
		}
	}

	// Recreate absence of paths that did not exist at capture time
	for _, rel := range manifest.Absent {
		if err := os.RemoveAll(filepath.Join(root, rel)); err != nil {
			return errors.Wrapf(err, "removing %s", rel)
		}
	}

	// Delete files created under captured subtrees after the capture
	for _, sub := range manifest.Subtrees {
		if err := m.cleanSubtree(root, sub, manifest); err != nil {
			return err
		}
	}

	return nil
}

// cleanSubtree removes files under a captured subtree that are not in the
// capture set, then prunes directories left empty.
func (m *Manager) cleanSubtree(root string, sub Subtree, manifest *Manifest) error {
	dir := filepath.Join(root, sub.RelPath)

	var emptyCandidates []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if path != dir {
				emptyCandidates = append(emptyCandidates, path)
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if !manifest.captured(rel) {
			if err := os.Remove(path); err != nil {
				return errors.Wrapf(err, "removing created file %s", rel)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Deepest first so nested empty directories collapse
	slices.SortFunc(emptyCandidates, func(a, b string) int {
		return len(b) - len(a)
	})
	for _, d := range emptyCandidates {
		entries, err := os.ReadDir(d)
		if err == nil && len(entries) == 0 {
			os.Remove(d)
		}
	}

	return nil
}

// Remove deletes a snapshot's storage. Removing a snapshot that does not
// exist is not an error.
func (m *Manager) Remove(root, id string) error {
	if id == "" {
		return nil
	}
	if err := os.RemoveAll(m.snapshotDir(root, id)); err != nil {
		return errors.Wrapf(err, "removing snapshot %s", id)
	}
	return nil
}

// List returns the snapshot IDs for a project root, newest first, ordered by
// the timestamp embedded in each identifier.
func (m *Manager) List(root string) ([]string, error) {
	entries, err := os.ReadDir(m.rootStoreDir(root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading snapshot directory")
	}

	type stamped struct {
		id string
		at time.Time
	}
	var found []stamped

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		at, err := parseID(entry.Name())
		if err != nil {
			// Not a snapshot directory
			continue
		}
		found = append(found, stamped{id: entry.Name(), at: at})
	}

	slices.SortFunc(found, func(a, b stamped) int {
		if a.at.After(b.at) {
			return -1
		}
		if a.at.Before(b.at) {
			return 1
		}
		return strings.Compare(b.id, a.id)
	})

	ids := make([]string, len(found))
	for i, s := range found {
		ids[i] = s.id
	}
	return ids, nil
}

// Prune removes old snapshots beyond keep for the project root.
func (m *Manager) Prune(root string, keep int) error {
	if keep < 0 {
		return errors.New("keep must be non-negative")
	}

	ids, err := m.List(root)
	if err != nil {
		return err
	}

	for i := keep; i < len(ids); i++ {
		if err := m.Remove(root, ids[i]); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the manifest for a specific snapshot.
func (m *Manager) Get(root, id string) (*Manifest, error) {
	if id == "" {
		return nil, errors.New("snapshot ID is required")
	}

	manifestPath := filepath.Join(m.snapshotDir(root, id), "manifest.json")

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrSnapshotNotFound, "snapshot %s", id)
		}
		return nil, errors.Wrap(err, "reading manifest")
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Wrap(err, "parsing manifest")
	}

	manifest.ID = id
	return &manifest, nil
}

// snapshotDir returns the storage directory for one snapshot.
func (m *Manager) snapshotDir(root, id string) string {
	return filepath.Join(m.rootStoreDir(root), id)
}

// rootStoreDir returns the storage directory for a project root, keyed by a
// hash so unrelated projects never collide.
func (m *Manager) rootStoreDir(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(m.storeDir, hex.EncodeToString(sum[:])[:12])
}

// newID generates a snapshot identifier with an embedded timestamp and a
// short random suffix to disambiguate captures within one second.
func newID() string {
	return time.Now().UTC().Format(idTimeLayout) + "-" + uuid.NewString()[:8]
}

// parseID extracts the timestamp embedded in a snapshot identifier.
func parseID(id string) (time.Time, error) {
	stamp, _, ok := strings.Cut(id, "-")
	if !ok {
		return time.Time{}, errors.Newf("malformed snapshot ID %q", id)
	}
	return time.Parse(idTimeLayout, stamp)
}

// hashFile computes the SHA256 hash of a file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "opening file")
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(err, "reading file")
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// copyFile copies a file from src to dst, returning the SHA256 hash and mode.
func copyFile(src, dst string) (hash string, mode fs.FileMode, err error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return "", 0, errors.Wrap(err, "opening source file")
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return "", 0, errors.Wrap(err, "stat source file")
	}
	mode = srcInfo.Mode()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", 0, errors.Wrap(err, "creating destination file")
	}

	h := sha256.New()
	w := io.MultiWriter(dstFile, h)

	if _, err := io.Copy(w, srcFile); err != nil {
		dstFile.Close()
		return "", 0, errors.Wrap(err, "copying file")
	}

	if err := dstFile.Close(); err != nil {
		return "", 0, errors.Wrap(err, "closing destination file")
	}

	if err := os.Chmod(dst, mode); err != nil {
		return "", 0, errors.Wrap(err, "setting permissions")
	}

	return hex.EncodeToString(h.Sum(nil)), mode, nil
}
