package platform

import (
	"fmt"
	"strings"
)

// Platform identifiers for supported hosting targets.
const (
	Fly     = "fly"
	Vercel  = "vercel"
	Netlify = "netlify"
	Render  = "render"

	// Unknown is returned when no platform config file is recognized.
	Unknown = "unknown"
)

// Format identifies the syntax of a platform's configuration file.
type Format string

const (
	// FormatTOML is a section/key-value text format with comments.
	FormatTOML Format = "toml"
	// FormatJSONC is JSON with comment tolerance.
	FormatJSONC Format = "jsonc"
	// FormatYAML is YAML; used for detection only, never merged in place.
	FormatYAML Format = "yaml"
)

// Platform describes a hosting target: where its configuration lives, how it
// is formatted, and how secrets are referenced from config values.
type Platform struct {
	// Name is the platform identifier.
	Name string

	// ConfigFile is the platform config file path relative to the project root.
	ConfigFile string

	// Format is the syntax of ConfigFile.
	Format Format

	// EnvSection is the section (or top-level object key) of ConfigFile that
	// holds environment variables. Empty means the platform takes env vars
	// out of band and only the .env template is written.
	EnvSection string

	// secretPattern formats a settings key into the platform's secret
	// reference syntax.
	secretPattern func(key string) string
}

// SecretRef returns the platform-native reference for a secret-valued key.
func (p *Platform) SecretRef(key string) string {
	if p.secretPattern == nil {
		return ""
	}
	return p.secretPattern(key)
}

// MergesConfig reports whether provider settings are merged into the
// platform config file (as opposed to the env template only).
func (p *Platform) MergesConfig() bool {
	return p.EnvSection != ""
}

var platforms = map[string]*Platform{
	Fly: {
		Name:          Fly,
		ConfigFile:    "fly.toml",
		Format:        FormatTOML,
		EnvSection:    "env",
		secretPattern: func(key string) string { return "$" + key },
	},
	Vercel: {
		Name:          Vercel,
		ConfigFile:    "vercel.json",
		Format:        FormatJSONC,
		EnvSection:    "env",
		secretPattern: func(key string) string { return "@" + kebab(key) },
	},
	Netlify: {
		Name:          Netlify,
		ConfigFile:    "netlify.toml",
		Format:        FormatTOML,
		EnvSection:    "build.environment",
		secretPattern: func(key string) string { return "$" + key },
	},
	Render: {
		Name:       Render,
		ConfigFile: "render.yaml",
		Format:     FormatYAML,
		// Render env vars are managed through the dashboard or render.yaml
		// envVars entries; we only populate the env template for it.
		EnvSection:    "",
		secretPattern: func(key string) string { return fmt.Sprintf("${%s}", key) },
	},
}

// Get returns the platform metadata for name.
func Get(name string) (*Platform, bool) {
	p, ok := platforms[name]
	return p, ok
}

// Valid returns true if the platform name is recognized.
func Valid(name string) bool {
	_, ok := platforms[name]
	return ok
}

// Names returns all supported platform identifiers in detection order.
func Names() []string {
	return []string{Fly, Vercel, Netlify, Render}
}

// kebab converts an UPPER_SNAKE settings key to lower-kebab-case, the shape
// Vercel uses for secret names.
func kebab(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "_", "-")
}
