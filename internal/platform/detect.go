package platform

import (
	"bytes"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Detect classifies the hosting platform of the project at root.
//
// Platforms are probed in the deterministic order of Names(); the first
// config file that exists and passes its content check wins. Returns Unknown
// when nothing matches.
func Detect(root string) string {
	for _, name := range Names() {
		p := platforms[name]
		data, err := os.ReadFile(filepath.Join(root, p.ConfigFile))
		if err != nil {
			continue
		}
		if sniff(p, data) {
			return name
		}
	}
	return Unknown
}

// sniff runs the per-format content check. A config file that exists but is
// garbage does not classify the project; detection stays presence+content.
func sniff(p *Platform, data []byte) bool {
	switch p.Format {
	case FormatTOML:
		var doc map[string]any
		return toml.Unmarshal(data, &doc) == nil
	case FormatJSONC:
		return looksLikeJSONObject(data)
	case FormatYAML:
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return false
		}
		// render.yaml always declares its services list
		_, ok := doc["services"]
		return ok
	default:
		return false
	}
}

// looksLikeJSONObject checks that the file opens with a JSON object once
// whitespace and // or /* */ comments are skipped. Full JSONC parsing happens
// later in the config merger; detection only needs the shape.
func looksLikeJSONObject(data []byte) bool {
	i := 0
	for i < len(data) {
		switch {
		case data[i] == ' ' || data[i] == '\t' || data[i] == '\n' || data[i] == '\r':
			i++
		case bytes.HasPrefix(data[i:], []byte("//")):
			nl := bytes.IndexByte(data[i:], '\n')
			if nl < 0 {
				return false
			}
			i += nl + 1
		case bytes.HasPrefix(data[i:], []byte("/*")):
			end := bytes.Index(data[i+2:], []byte("*/"))
			if end < 0 {
				return false
			}
			i += 2 + end + 2
		default:
			return data[i] == '{'
		}
	}
	return false
}
