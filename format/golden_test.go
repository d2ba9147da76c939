package format_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/lambda/format"
)

// golden file extension -> emitter name
var goldenFormats = map[string]string{
	".toml": "toml",
	".ini":  "ini",
	".dot":  "dot",
	".mmd":  "mermaid",
	".d2":   "d2",
}

// TestGolden renders each Mark case with the emitter named by the golden
// file's extension and compares the output with the fixture.
func TestGolden(t *testing.T) {
	casesDir := filepath.Join("testdata", "cases")
	goldenDir := filepath.Join("testdata", "golden")

	entries, err := os.ReadDir(goldenDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		name, ok := goldenFormats[ext]
		if !ok {
			continue
		}

		t.Run(entry.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join(casesDir, strings.TrimSuffix(entry.Name(), ext)+".mk"))
			require.NoError(t, err)
			want, err := os.ReadFile(filepath.Join(goldenDir, entry.Name()))
			require.NoError(t, err)

			it := mark(t, string(src))
			got, err := format.Emit(name, it)
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSpace(string(want)), strings.TrimSpace(got))

			again, err := format.Emit(name, it)
			require.NoError(t, err)
			assert.Equal(t, got, again, "output is deterministic")
		})
	}
}
