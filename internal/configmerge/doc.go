// Package configmerge performs format-aware, add-only merging of key/value
// settings into platform configuration files and the project's env template.
//
// All three formats (TOML-style section files, JSON-with-comments, dotenv)
// share one semantic model: a document is an ordered list of source lines
// plus section/key lookup over them. Edits splice individual lines so every
// untouched line renders back byte-identical; the merger never reorders or
// rewrites keys it was not asked to touch, and removes a section only once
// it becomes empty.
//
// Parse failures are ordinary error values returned from the Load functions;
// the pipeline classifies them as transform failures.
package configmerge
