package provider

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltins_Generate(t *testing.T) {
	ctx := Context{Module: "example.com/demo"}

	for _, d := range builtins() {
		t.Run(d.ID, func(t *testing.T) {
			files, err := d.Generate(ctx)
			require.NoError(t, err)
			require.Len(t, files, len(d.Files))

			var all strings.Builder
			for i, f := range files {
				assert.Equal(t, d.Files[i], f.RelPath,
					"generator output order must match the declared file set")
				assert.Contains(t, string(f.Content), "package auth\n",
					"%s must belong to package auth", f.RelPath)
				assert.NotContains(t, string(f.Content), "{{",
					"%s has unrendered template markers", f.RelPath)
				all.Write(f.Content)
			}

			assert.Contains(t, all.String(), "example.com/demo",
				"the module path appears in the generated header")

			funcName := strings.TrimPrefix(d.EntrySymbol, "auth.")
			assert.Contains(t, all.String(), "func "+funcName+"(mux *http.ServeMux)",
				"the registration entry point must be generated")

			for _, key := range d.ConfigKeys {
				if strings.HasSuffix(key, "_API_KEY") || strings.HasSuffix(key, "_PUBLISHABLE_KEY") ||
					strings.HasSuffix(key, "_CLIENT_ID") {
					// client-side keys are recorded in config but not
					// necessarily read by server code
					continue
				}
				assert.Contains(t, all.String(), key,
					"server-side config key %s must be read by the generated code", key)
			}
		})
	}
}

func TestBuiltins_GenerateIsPure(t *testing.T) {
	ctx := Context{Module: "example.com/demo"}

	for _, d := range builtins() {
		first, err := d.Generate(ctx)
		require.NoError(t, err)
		second, err := d.Generate(ctx)
		require.NoError(t, err)
		assert.Equal(t, first, second, "%s generator must be deterministic", d.ID)
	}
}

func TestBuiltins_EntryCallMatchesSymbol(t *testing.T) {
	for _, d := range builtins() {
		assert.True(t, strings.HasPrefix(d.EntryCall, d.EntrySymbol+"("),
			"%s entry call must invoke its entry symbol", d.ID)
	}
}
