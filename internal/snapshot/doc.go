// Package snapshot implements filesystem snapshot and restore for the
// scaffolding pipeline.
//
// The target filesystem offers no multi-file transaction primitive, so the
// pipeline captures the exact byte content of every path it may touch before
// the first write. A snapshot records three kinds of entries:
//
//   - captured files: current bytes, permissions, and a SHA256 hash
//   - absent paths: files that did not exist at capture time, so restore can
//     recreate their absence
//   - subtrees: directories captured recursively; on restore, files under a
//     subtree that were not part of the capture set are deleted
//
// Restoring a snapshot returns every captured path to its pre-operation byte
// content and removes anything created after the capture. Snapshots are
// stored outside the project tree, under the XDG cache directory, keyed by a
// hash of the project root.
package snapshot
