// Package pipeline sequences a transactional mutation of a target project:
// validate, detect the hosting platform, snapshot, generate provider files,
// record dependencies, patch the entry point, merge platform config, and
// gate the result. Any failure after the snapshot restores the tree, so the
// project is mutated either completely or not at all.
//
// The pipeline is strictly sequential; every stage depends on the on-disk
// effects of the previous one. Concurrent invocations against the same
// project root are unsupported.
package pipeline
