package configmerge

import (
	"regexp"
	"strings"
)

// dotenvKeyLine matches `KEY=value`, tolerating an `export` prefix.
var dotenvKeyLine = regexp.MustCompile(`^(?:export\s+)?([A-Za-z_][A-Za-z0-9_]*)=(.*)$`)

// DotenvDocument is a line-preserving view of an environment-variable
// template file (.env.example). Keys are global; the section name only
// labels the comment header a provider's block is grouped under.
type DotenvDocument struct {
	lines []string
}

// LoadDotenv returns a line-preserving document over dotenv content.
// Any text loads; lines that are not KEY=value are preserved untouched.
func LoadDotenv(data []byte) *DotenvDocument {
	return &DotenvDocument{lines: splitLines(data)}
}

// Render serializes the document.
func (d *DotenvDocument) Render() []byte {
	return joinLines(d.lines)
}

// header returns the line index of the section's comment header, or -1.
func (d *DotenvDocument) header(section string) int {
	want := "# " + section
	for i, line := range d.lines {
		if strings.TrimSpace(line) == want {
			return i
		}
	}
	return -1
}

// findKey returns the line index of a key anywhere in the file, or -1.
func (d *DotenvDocument) findKey(key string) int {
	for i, line := range d.lines {
		if m := dotenvKeyLine.FindStringSubmatch(line); m != nil && m[1] == key {
			return i
		}
	}
	return -1
}

// MergeKeys implements Document. New keys are appended under the section's
// comment header, which is created at the end of the file when missing.
func (d *DotenvDocument) MergeKeys(section string, updates []KV, overwrite bool) bool {
	changed := false

	var missing []KV
	for _, kv := range updates {
		idx := d.findKey(kv.Key)
		if idx < 0 {
			missing = append(missing, kv)
			continue
		}
		if !overwrite {
			continue
		}
		replacement := kv.Key + "=" + kv.Value
		if d.lines[idx] != replacement {
			d.lines[idx] = replacement
			changed = true
		}
	}

	if len(missing) == 0 {
		return changed
	}

	at := d.header(section)
	if at < 0 {
		// New header block at the end of the file
		end := lastContentIndex(d.lines) + 1
		block := []string{}
		if end > 0 {
			block = append(block, "")
		}
		block = append(block, "# "+section)
		for _, kv := range missing {
			block = append(block, kv.Key+"="+kv.Value)
		}
		rest := append([]string{}, d.lines[end:]...)
		d.lines = append(d.lines[:end], append(block, rest...)...)
		return true
	}

	// Append after the last key line of the existing block
	insertAt := at + 1
	for insertAt < len(d.lines) && dotenvKeyLine.MatchString(d.lines[insertAt]) {
		insertAt++
	}
	block := make([]string, 0, len(missing))
	for _, kv := range missing {
		block = append(block, kv.Key+"="+kv.Value)
	}
	rest := append([]string{}, d.lines[insertAt:]...)
	d.lines = append(d.lines[:insertAt], append(block, rest...)...)
	return true
}

// RemoveKeys implements Document. The section header is dropped once its
// block holds no keys.
func (d *DotenvDocument) RemoveKeys(section string, keys []string) bool {
	changed := false

	for _, key := range keys {
		if idx := d.findKey(key); idx >= 0 {
			d.lines = append(d.lines[:idx], d.lines[idx+1:]...)
			changed = true
		}
	}

	if !changed {
		return false
	}

	at := d.header(section)
	if at >= 0 && (at+1 >= len(d.lines) || !dotenvKeyLine.MatchString(d.lines[at+1])) {
		d.lines = append(d.lines[:at], d.lines[at+1:]...)
		// Collapse the separator blank left behind
		if at > 0 && at < len(d.lines) && isBlank(d.lines[at]) && isBlank(d.lines[at-1]) {
			d.lines = append(d.lines[:at], d.lines[at+1:]...)
		}
		for len(d.lines) >= 2 && isBlank(d.lines[len(d.lines)-1]) && isBlank(d.lines[len(d.lines)-2]) {
			d.lines = d.lines[:len(d.lines)-1]
		}
	}

	return true
}

// HasKeys implements Document; the section is ignored because dotenv keys
// are global.
func (d *DotenvDocument) HasKeys(_ string, keys []string) bool {
	for _, key := range keys {
		if d.findKey(key) < 0 {
			return false
		}
	}
	return true
}

// GetValue implements Document.
func (d *DotenvDocument) GetValue(_ string, key string) (string, bool) {
	idx := d.findKey(key)
	if idx < 0 {
		return "", false
	}
	m := dotenvKeyLine.FindStringSubmatch(d.lines[idx])
	return m[2], true
}
