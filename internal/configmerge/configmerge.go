package configmerge

import "strings"

// KV is one settings key and its value. Updates are ordered, so merged keys
// land in the file in the order the provider declares them.
type KV struct {
	Key   string
	Value string
}

// Document is the shared semantic model over one configuration file.
// Mutating methods report whether the document changed, so callers can
// decide whether to record the file as touched.
type Document interface {
	// MergeKeys creates section if absent and sets each update key that is
	// absent, or present when overwrite is true.
	MergeKeys(section string, updates []KV, overwrite bool) bool

	// RemoveKeys deletes the named keys if present and deletes the section
	// once it holds no keys.
	RemoveKeys(section string, keys []string) bool

	// HasKeys reports whether every named key is present in the section.
	HasKeys(section string, keys []string) bool

	// GetValue returns the value of one key.
	GetValue(section, key string) (string, bool)

	// Render serializes the document. Untouched lines are byte-identical
	// to the input.
	Render() []byte
}

// splitLines splits file content into lines without the trailing newlines.
// A final newline produces a trailing empty element, so joinLines is lossless.
func splitLines(data []byte) []string {
	return strings.Split(string(data), "\n")
}

// joinLines is the inverse of splitLines.
func joinLines(lines []string) []byte {
	return []byte(strings.Join(lines, "\n"))
}

// lastContentIndex returns the index of the last non-blank line, or -1.
func lastContentIndex(lines []string) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return i
		}
	}
	return -1
}

// isBlank reports whether the line is empty or whitespace only.
func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
