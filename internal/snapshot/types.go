package snapshot

import (
	"io/fs"
	"time"

	"github.com/cockroachdb/errors"
)

// Manifest format version for forward compatibility.
const ManifestVersion = 1

// Default configuration values.
const (
	// DefaultRetentionCount is the number of snapshots retained per project
	// when pruning.
	DefaultRetentionCount = 5
)

// Sentinel errors for snapshot operations.
var (
	// ErrSnapshotNotFound indicates no snapshot exists with the given ID.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrSnapshotCorrupted indicates file integrity verification failed.
	// This occurs when a stored file's SHA256 hash doesn't match the manifest.
	ErrSnapshotCorrupted = errors.New("snapshot corrupted")
)

// Manifest describes one snapshot. It is stored as manifest.json in the
// snapshot directory.
type Manifest struct {
	// Version is the manifest format version for forward compatibility.
	Version int `json:"version"`

	// CreatedAt is when the snapshot was taken.
	CreatedAt time.Time `json:"created_at"`

	// Root is the absolute project root the snapshot belongs to.
	Root string `json:"root"`

	// Files contains metadata for each captured file.
	Files []File `json:"files"`

	// Absent lists root-relative paths that did not exist at capture time.
	Absent []string `json:"absent,omitempty"`

	// Subtrees lists directories captured recursively.
	Subtrees []Subtree `json:"subtrees,omitempty"`

	// ToolVersion is the authwire version that took the snapshot.
	ToolVersion string `json:"tool_version"`

	// ID is the snapshot identifier. Populated when loading from disk but
	// not stored in JSON.
	ID string `json:"-"`
}

// File contains metadata for a single captured file.
type File struct {
	// RelPath is the path relative to the project root.
	RelPath string `json:"rel_path"`

	// SHA256Hash is the hex-encoded SHA256 hash of the captured bytes.
	SHA256Hash string `json:"sha256_hash"`

	// Mode is the file's permission bits at capture time.
	Mode fs.FileMode `json:"mode"`
}

// Subtree records a directory captured recursively. A directory that did
// not exist at capture time is recorded under Absent instead; restore then
// removes it wholesale.
type Subtree struct {
	// RelPath is the directory path relative to the project root.
	RelPath string `json:"rel_path"`
}

// captured returns true if relPath was captured as a file in the manifest.
func (m *Manifest) captured(relPath string) bool {
	for _, f := range m.Files {
		if f.RelPath == relPath {
			return true
		}
	}
	return false
}
