package provider

import (
	"bytes"
	"sort"
	"text/template"

	"github.com/cockroachdb/errors"
)

// builtins returns descriptors for the providers that ship with the tool.
func builtins() []Descriptor {
	return []Descriptor{
		{
			ID:         "auth0",
			ConfigKeys: []string{"AUTH0_DOMAIN", "AUTH0_CLIENT_ID", "AUTH0_AUDIENCE"},
			Requirements: []Requirement{
				{Path: "github.com/auth0/go-jwt-middleware/v2", Version: "v2.2.1"},
			},
			Files: []string{
				"internal/auth/auth0.go",
				"internal/auth/auth0_middleware.go",
				"internal/auth/auth0_routes.go",
			},
			EntrySymbol: "auth.RegisterAuth0",
			EntryCall:   "auth.RegisterAuth0(mux)",
			Generate:    generator(auth0Templates),
		},
		{
			ID:         "clerk",
			ConfigKeys: []string{"CLERK_SECRET_KEY", "CLERK_PUBLISHABLE_KEY"},
			Requirements: []Requirement{
				{Path: "github.com/clerk/clerk-sdk-go/v2", Version: "v2.2.0"},
			},
			Files: []string{
				"internal/auth/clerk.go",
				"internal/auth/clerk_middleware.go",
				"internal/auth/clerk_routes.go",
			},
			EntrySymbol: "auth.RegisterClerk",
			EntryCall:   "auth.RegisterClerk(mux)",
			Generate:    generator(clerkTemplates),
		},
		{
			ID:         "firebase",
			ConfigKeys: []string{"FIREBASE_PROJECT_ID", "FIREBASE_API_KEY"},
			Requirements: []Requirement{
				{Path: "firebase.google.com/go/v4", Version: "v4.14.1"},
				{Path: "google.golang.org/api", Version: "v0.190.0"},
			},
			Files: []string{
				"internal/auth/firebase.go",
				"internal/auth/firebase_middleware.go",
				"internal/auth/firebase_routes.go",
			},
			EntrySymbol: "auth.RegisterFirebase",
			EntryCall:   "auth.RegisterFirebase(mux)",
			Generate:    generator(firebaseTemplates),
		},
	}
}

// fileTemplate pairs an output path with its parsed template.
type fileTemplate struct {
	relPath string
	tmpl    *template.Template
}

func parseFiles(pairs map[string]string) []fileTemplate {
	fts := make([]fileTemplate, 0, len(pairs))
	for _, relPath := range sortedKeys(pairs) {
		fts = append(fts, fileTemplate{
			relPath: relPath,
			tmpl:    template.Must(template.New(relPath).Parse(pairs[relPath])),
		})
	}
	return fts
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// generator builds a GenerateFunc that renders each template with the
// Context. Output order follows the sorted file paths.
func generator(fts []fileTemplate) GenerateFunc {
	return func(ctx Context) ([]File, error) {
		files := make([]File, 0, len(fts))
		for _, ft := range fts {
			var buf bytes.Buffer
			if err := ft.tmpl.Execute(&buf, ctx); err != nil {
				return nil, errors.Wrapf(err, "rendering %s", ft.relPath)
			}
			files = append(files, File{RelPath: ft.relPath, Content: buf.Bytes()})
		}
		return files, nil
	}
}
