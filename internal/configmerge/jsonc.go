package configmerge

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

// JSONCDocument is a line-preserving view of a JSON-with-comments config
// file (vercel.json). Edits splice lines; the file is expected to be
// formatted one entry per line, which is how these files are generated.
type JSONCDocument struct {
	lines []string
}

// LoadJSONC validates data as comment-tolerant JSON and returns a
// line-preserving document.
func LoadJSONC(data []byte) (*JSONCDocument, error) {
	if err := ValidateJSONC(data); err != nil {
		return nil, err
	}
	return &JSONCDocument{lines: splitLines(data)}, nil
}

// Render serializes the document.
func (d *JSONCDocument) Render() []byte {
	return joinLines(d.lines)
}

// ValidateJSONC reports whether data is a JSON object once comments are
// stripped. The validation gate uses it to confirm a merged file is still
// well formed.
func ValidateJSONC(data []byte) error {
	var probe map[string]any
	if err := json.Unmarshal(StripComments(data), &probe); err != nil {
		return errors.Wrap(err, "parsing JSONC")
	}
	return nil
}

// StripComments replaces // and /* */ comments with spaces, preserving all
// offsets and newlines so line numbers stay aligned with the original.
func StripComments(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)

	const (
		codeState = iota
		stringState
		lineComment
		blockComment
	)

	state := codeState
	for i := 0; i < len(out); i++ {
		c := out[i]
		switch state {
		case codeState:
			switch {
			case c == '"':
				state = stringState
			case c == '/' && i+1 < len(out) && out[i+1] == '/':
				state = lineComment
				out[i] = ' '
			case c == '/' && i+1 < len(out) && out[i+1] == '*':
				state = blockComment
				out[i] = ' '
			}
		case stringState:
			if c == '\\' {
				i++
			} else if c == '"' {
				state = codeState
			}
		case lineComment:
			if c == '\n' {
				state = codeState
			} else {
				out[i] = ' '
			}
		case blockComment:
			if c == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i] = ' '
				out[i+1] = ' '
				i++
				state = codeState
			} else if c != '\n' {
				out[i] = ' '
			}
		}
	}

	return out
}

// stripped returns comment-free copies of the current lines.
func (d *JSONCDocument) stripped() []string {
	return splitLines(StripComments(d.Render()))
}

// depths returns the nesting depth at the start of each line, counting
// braces and brackets outside strings. The extra final element is the depth
// after the last line, so depths[i+1] is always the depth at the end of
// line i.
func depths(stripped []string) []int {
	out := make([]int, len(stripped)+1)
	depth := 0
	for i, line := range stripped {
		out[i] = depth
		inString := false
		for j := 0; j < len(line); j++ {
			c := line[j]
			if inString {
				if c == '\\' {
					j++
				} else if c == '"' {
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
		out[i+1] = depth
	}
	return out
}

// findSection locates a top-level object-valued key. Returns the header and
// closing line indexes, or header=-1 when absent. inline is true for a
// single-line empty object (`"env": {}`).
func (d *JSONCDocument) findSection(section string) (header, closeIdx int, inline bool) {
	stripped := d.stripped()
	depth := depths(stripped)
	re := regexp.MustCompile(`^\s*"` + regexp.QuoteMeta(section) + `"\s*:\s*\{\s*(\}\s*,?\s*)?$`)

	for i, line := range stripped {
		if depth[i] != 1 {
			continue
		}
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if m[1] != "" {
			return i, i, true
		}
		// Multiline: the object closes on the line that brings the depth
		// back down to the root object's level
		for j := i + 1; j < len(stripped); j++ {
			if depth[j] >= 2 && depth[j+1] <= 1 {
				return i, j, false
			}
		}
		return -1, -1, false
	}
	return -1, -1, false
}

// entryPattern matches one `"key": value` line within a section.
func entryPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`^(\s*)"` + regexp.QuoteMeta(key) + `"\s*:\s*(.*?)(,?)\s*$`)
}

// findEntry returns the line index of key inside the section body, or -1.
func (d *JSONCDocument) findEntry(header, closeIdx int, key string) int {
	stripped := d.stripped()
	re := entryPattern(key)
	for i := header + 1; i < closeIdx; i++ {
		if re.MatchString(stripped[i]) {
			return i
		}
	}
	return -1
}

// lastEntryIndex returns the index of the last entry line in the section
// body, or -1 when the body holds no entries.
func (d *JSONCDocument) lastEntryIndex(header, closeIdx int) int {
	stripped := d.stripped()
	re := regexp.MustCompile(`^\s*".*"\s*:`)
	last := -1
	for i := header + 1; i < closeIdx; i++ {
		if re.MatchString(stripped[i]) {
			last = i
		}
	}
	return last
}

// MergeKeys implements Document.
func (d *JSONCDocument) MergeKeys(section string, updates []KV, overwrite bool) bool {
	if len(updates) == 0 {
		return false
	}

	header, closeIdx, inline := d.findSection(section)
	if header == -1 {
		d.appendObject(section, updates)
		return true
	}

	if inline {
		d.expandInline(header, updates)
		return true
	}

	changed := false
	for _, kv := range updates {
		header, closeIdx, _ = d.findSection(section)
		idx := d.findEntry(header, closeIdx, kv.Key)

		if idx >= 0 {
			if !overwrite {
				continue
			}
			m := entryPattern(kv.Key).FindStringSubmatch(StripCommentsLine(d.lines[idx]))
			replacement := fmt.Sprintf(`%s%s%s`, m[1], jsonEntry(kv), m[3])
			if d.lines[idx] != replacement {
				d.lines[idx] = replacement
				changed = true
			}
			continue
		}

		last := d.lastEntryIndex(header, closeIdx)
		if last == -1 {
			d.insertLine(header+1, indentOf(d.lines[header])+"  "+jsonEntry(kv))
		} else {
			if !strings.HasSuffix(strings.TrimRight(StripCommentsLine(d.lines[last]), " \t"), ",") {
				d.lines[last] += ","
			}
			d.insertLine(last+1, indentOf(d.lines[last])+jsonEntry(kv))
		}
		changed = true
	}

	return changed
}

// RemoveKeys implements Document.
func (d *JSONCDocument) RemoveKeys(section string, keys []string) bool {
	header, closeIdx, inline := d.findSection(section)
	if header == -1 || inline {
		return false
	}

	changed := false
	for _, key := range keys {
		header, closeIdx, _ = d.findSection(section)
		if header == -1 {
			break
		}
		idx := d.findEntry(header, closeIdx, key)
		if idx < 0 {
			continue
		}
		d.lines = append(d.lines[:idx], d.lines[idx+1:]...)
		changed = true
	}

	if !changed {
		return false
	}

	header, closeIdx, _ = d.findSection(section)
	if header == -1 {
		return true
	}

	if d.lastEntryIndex(header, closeIdx) == -1 {
		d.removeRange(header, closeIdx)
		return true
	}

	// The removed key may have been the last entry; strip the dangling comma
	last := d.lastEntryIndex(header, closeIdx)
	trimmed := strings.TrimRight(d.lines[last], " \t")
	if strings.HasSuffix(trimmed, ",") {
		d.lines[last] = strings.TrimSuffix(trimmed, ",")
	}

	return true
}

// removeRange deletes lines [from, to] and repairs the comma on the previous
// sibling when the removed block was the last member of the root object.
func (d *JSONCDocument) removeRange(from, to int) {
	d.lines = append(d.lines[:from], d.lines[to+1:]...)

	stripped := d.stripped()
	prev := -1
	for i := from - 1; i >= 0; i-- {
		if !isBlank(stripped[i]) {
			prev = i
			break
		}
	}
	if prev == -1 {
		return
	}

	next := -1
	for i := from; i < len(stripped); i++ {
		if !isBlank(stripped[i]) {
			next = i
			break
		}
	}
	if next == -1 || strings.TrimSpace(stripped[next]) != "}" {
		return
	}

	trimmed := strings.TrimRight(d.lines[prev], " \t")
	if strings.HasSuffix(trimmed, ",") {
		d.lines[prev] = strings.TrimSuffix(trimmed, ",")
	}
}

// HasKeys implements Document.
func (d *JSONCDocument) HasKeys(section string, keys []string) bool {
	header, closeIdx, inline := d.findSection(section)
	if header == -1 || inline {
		return false
	}
	for _, key := range keys {
		if d.findEntry(header, closeIdx, key) < 0 {
			return false
		}
	}
	return true
}

// GetValue implements Document.
func (d *JSONCDocument) GetValue(section, key string) (string, bool) {
	header, closeIdx, inline := d.findSection(section)
	if header == -1 || inline {
		return "", false
	}
	idx := d.findEntry(header, closeIdx, key)
	if idx < 0 {
		return "", false
	}

	m := entryPattern(key).FindStringSubmatch(StripCommentsLine(d.lines[idx]))
	var value string
	if err := json.Unmarshal([]byte(strings.TrimSpace(m[2])), &value); err != nil {
		return strings.TrimSpace(m[2]), true
	}
	return value, true
}

// appendObject inserts a new top-level object before the root closing brace.
func (d *JSONCDocument) appendObject(section string, updates []KV) {
	stripped := d.stripped()

	rootClose := -1
	for i := len(stripped) - 1; i >= 0; i-- {
		if strings.TrimSpace(stripped[i]) == "}" {
			rootClose = i
			break
		}
	}
	if rootClose == -1 {
		return
	}

	prev := -1
	for i := rootClose - 1; i >= 0; i-- {
		if !isBlank(stripped[i]) {
			prev = i
			break
		}
	}
	if prev >= 0 {
		trimmed := strings.TrimRight(StripCommentsLine(d.lines[prev]), " \t")
		if !strings.HasSuffix(trimmed, ",") && !strings.HasSuffix(trimmed, "{") {
			d.lines[prev] += ","
		}
	}

	indent := "  "
	block := []string{indent + fmt.Sprintf(`"%s": {`, section)}
	for i, kv := range updates {
		entry := indent + "  " + jsonEntry(kv)
		if i < len(updates)-1 {
			entry += ","
		}
		block = append(block, entry)
	}
	block = append(block, indent+"}")

	rest := append([]string{}, d.lines[rootClose:]...)
	d.lines = append(d.lines[:rootClose], append(block, rest...)...)
}

// expandInline rewrites a `"env": {}` line into a multiline object holding
// the updates, preserving any trailing comma.
func (d *JSONCDocument) expandInline(header int, updates []KV) {
	indent := indentOf(d.lines[header])
	suffix := ""
	if strings.HasSuffix(strings.TrimRight(StripCommentsLine(d.lines[header]), " \t"), ",") {
		suffix = ","
	}

	section := strings.SplitN(strings.TrimSpace(StripCommentsLine(d.lines[header])), ":", 2)[0]
	block := []string{indent + section + ": {"}
	for i, kv := range updates {
		entry := indent + "  " + jsonEntry(kv)
		if i < len(updates)-1 {
			entry += ","
		}
		block = append(block, entry)
	}
	block = append(block, indent+"}"+suffix)

	rest := append([]string{}, d.lines[header+1:]...)
	d.lines = append(d.lines[:header], append(block, rest...)...)
}

func (d *JSONCDocument) insertLine(at int, line string) {
	rest := append([]string{}, d.lines[at:]...)
	d.lines = append(d.lines[:at], append([]string{line}, rest...)...)
}

// StripCommentsLine strips comments from a single line.
func StripCommentsLine(line string) string {
	return string(StripComments([]byte(line)))
}

// jsonEntry renders one `"key": "value"` pair with JSON escaping.
func jsonEntry(kv KV) string {
	key, _ := json.Marshal(kv.Key)
	value, _ := json.Marshal(kv.Value)
	return fmt.Sprintf(`%s: %s`, key, value)
}

// indentOf returns the leading whitespace of a line.
func indentOf(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
