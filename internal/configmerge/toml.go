package configmerge

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	toml "github.com/pelletier/go-toml/v2"
)

// tomlKeyLine matches `key = value` with optional indentation.
var tomlKeyLine = regexp.MustCompile(`^(\s*)([A-Za-z0-9_.-]+)\s*=\s*(.*)$`)

// TOMLDocument is a line-preserving view of a TOML-style section/key-value
// file (fly.toml, netlify.toml). Only string-valued keys are ever written.
type TOMLDocument struct {
	lines []string
}

// LoadTOML parses data as TOML and returns a line-preserving document.
// The content is validated with a full TOML parse; edits themselves operate
// on the raw lines so comments and formatting survive.
func LoadTOML(data []byte) (*TOMLDocument, error) {
	var probe map[string]any
	if err := toml.Unmarshal(data, &probe); err != nil {
		return nil, errors.Wrap(err, "parsing TOML")
	}
	return &TOMLDocument{lines: splitLines(data)}, nil
}

// Render serializes the document.
func (d *TOMLDocument) Render() []byte {
	return joinLines(d.lines)
}

// sectionBounds returns the line range of a section: start is the header
// line, end is exclusive (next section header or EOF). The empty section
// name addresses the top of the file before any header. Returns start=-1
// when the section does not exist.
func (d *TOMLDocument) sectionBounds(section string) (start, end int) {
	if section == "" {
		for i, line := range d.lines {
			if isSectionHeader(line) {
				return 0, i
			}
		}
		return 0, len(d.lines)
	}

	header := "[" + section + "]"
	start = -1
	for i, line := range d.lines {
		trimmed := strings.TrimSpace(line)
		if start == -1 {
			if trimmed == header {
				start = i
			}
			continue
		}
		if isSectionHeader(line) {
			return start, i
		}
	}
	if start == -1 {
		return -1, -1
	}
	return start, len(d.lines)
}

func isSectionHeader(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")
}

// findKey returns the line index of key within the section, or -1.
func (d *TOMLDocument) findKey(section, key string) int {
	start, end := d.sectionBounds(section)
	if start == -1 {
		return -1
	}
	from := start
	if section != "" {
		from = start + 1
	}
	for i := from; i < end; i++ {
		if m := tomlKeyLine.FindStringSubmatch(d.lines[i]); m != nil && m[2] == key {
			return i
		}
	}
	return -1
}

// MergeKeys implements Document.
func (d *TOMLDocument) MergeKeys(section string, updates []KV, overwrite bool) bool {
	if len(updates) == 0 {
		return false
	}

	changed := false

	start, _ := d.sectionBounds(section)
	if start == -1 {
		d.appendSection(section, updates)
		return true
	}

	for _, kv := range updates {
		idx := d.findKey(section, kv.Key)
		line := tomlEntry("", kv)

		if idx >= 0 {
			if !overwrite {
				continue
			}
			indent := tomlKeyLine.FindStringSubmatch(d.lines[idx])[1]
			replacement := tomlEntry(indent, kv)
			if d.lines[idx] != replacement {
				d.lines[idx] = replacement
				changed = true
			}
			continue
		}

		// Insert after the last key line of the section, or right after
		// the header when the section has none.
		start, end := d.sectionBounds(section)
		insertAt := start + 1
		if section == "" {
			insertAt = start
		}
		for i := insertAt; i < end; i++ {
			if tomlKeyLine.MatchString(d.lines[i]) {
				insertAt = i + 1
			}
		}
		d.insertLine(insertAt, line)
		changed = true
	}

	return changed
}

// RemoveKeys implements Document.
func (d *TOMLDocument) RemoveKeys(section string, keys []string) bool {
	changed := false

	for _, key := range keys {
		if idx := d.findKey(section, key); idx >= 0 {
			d.lines = append(d.lines[:idx], d.lines[idx+1:]...)
			changed = true
		}
	}

	if changed && section != "" {
		d.dropSectionIfEmpty(section)
	}

	return changed
}

// dropSectionIfEmpty removes a section header whose body holds no keys and
// no comments. Comment lines keep the section alive: they are not ours to
// delete.
func (d *TOMLDocument) dropSectionIfEmpty(section string) {
	start, end := d.sectionBounds(section)
	if start == -1 {
		return
	}
	for i := start + 1; i < end; i++ {
		if !isBlank(d.lines[i]) {
			return
		}
	}
	d.lines = append(d.lines[:start], d.lines[end:]...)
	d.trimLeadingBlanks(start)

	// A section removed at EOF leaves a dangling separator blank
	for len(d.lines) >= 2 && isBlank(d.lines[len(d.lines)-1]) && isBlank(d.lines[len(d.lines)-2]) {
		d.lines = d.lines[:len(d.lines)-1]
	}
}

// trimLeadingBlanks collapses blank lines left behind at idx after a section
// removal, so two sections never end up separated by more than one blank.
func (d *TOMLDocument) trimLeadingBlanks(idx int) {
	for idx < len(d.lines)-1 && isBlank(d.lines[idx]) && (idx == 0 || isBlank(d.lines[idx-1])) {
		d.lines = append(d.lines[:idx], d.lines[idx+1:]...)
	}
}

// HasKeys implements Document.
func (d *TOMLDocument) HasKeys(section string, keys []string) bool {
	for _, key := range keys {
		if d.findKey(section, key) < 0 {
			return false
		}
	}
	return true
}

// GetValue implements Document.
func (d *TOMLDocument) GetValue(section, key string) (string, bool) {
	idx := d.findKey(section, key)
	if idx < 0 {
		return "", false
	}
	m := tomlKeyLine.FindStringSubmatch(d.lines[idx])
	return unquoteTOML(strings.TrimSpace(m[3])), true
}

// appendSection adds a new section with its keys at the end of the file.
func (d *TOMLDocument) appendSection(section string, updates []KV) {
	at := lastContentIndex(d.lines) + 1

	block := []string{}
	if at > 0 {
		block = append(block, "")
	}
	if section != "" {
		block = append(block, "["+section+"]")
	}
	for _, kv := range updates {
		block = append(block, tomlEntry("", kv))
	}

	rest := append([]string{}, d.lines[at:]...)
	d.lines = append(d.lines[:at], append(block, rest...)...)
}

func (d *TOMLDocument) insertLine(at int, line string) {
	rest := append([]string{}, d.lines[at:]...)
	d.lines = append(d.lines[:at], append([]string{line}, rest...)...)
}

// tomlEntry renders one key line with TOML string quoting.
func tomlEntry(indent string, kv KV) string {
	escaped := strings.ReplaceAll(kv.Value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return fmt.Sprintf(`%s%s = "%s"`, indent, kv.Key, escaped)
}

// unquoteTOML strips surrounding quotes from a basic TOML string value.
func unquoteTOML(value string) string {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		inner := value[1 : len(value)-1]
		inner = strings.ReplaceAll(inner, `\"`, `"`)
		inner = strings.ReplaceAll(inner, `\\`, `\`)
		return inner
	}
	return value
}

// ValidateTOML reports whether data parses as TOML. The validation gate uses
// it to confirm a merged file is still well formed.
func ValidateTOML(data []byte) error {
	var probe map[string]any
	return errors.Wrap(toml.Unmarshal(data, &probe), "validating TOML")
}
