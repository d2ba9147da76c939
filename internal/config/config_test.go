package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/lambda/internal/config"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	c := config.Default()
	assert.Equal(t, 64, c.Validate.MaxDepth)
	assert.False(t, c.Validate.Strict)
	assert.True(t, c.Validate.AllowUnknown())
	assert.Equal(t, 64<<10, c.Pool.GrowSize)
	assert.Equal(t, 20, c.Pool.TolerancePct)
	assert.Zero(t, c.Pool.Limit)
	assert.Len(t, c.Pool.Options(), 2)
	assert.Len(t, c.Validate.Options(), 3)
}

func TestDecode(t *testing.T) {
	t.Parallel()

	c, err := config.Decode(strings.NewReader(`
validate:
  strict: true
format:
  css: true
  gzip: true
pool:
  limit: 1048576
`))
	require.NoError(t, err)
	assert.Equal(t, 64, c.Validate.MaxDepth, "unset keys keep defaults")
	assert.True(t, c.Validate.Strict)
	assert.False(t, c.Validate.AllowUnknown(), "strict implies no unknown fields")
	assert.True(t, c.Format.CSS)
	assert.False(t, c.Format.Standalone)
	assert.True(t, c.Format.Gzip)
	assert.Equal(t, 1<<20, c.Pool.Limit)
	assert.Len(t, c.Pool.Options(), 3)

	c, err = config.Decode(strings.NewReader("validate:\n  strict: true\n  allow_unknown_fields: true\n"))
	require.NoError(t, err)
	assert.True(t, c.Validate.AllowUnknown(), "explicit setting overrides strict")

	c, err = config.Decode(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), c)
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	for _, src := range []string{
		"validate: [",
		"bogus: 1\n",
		"validate:\n  max_depth: 0\n",
		"pool:\n  grow_size: -1\n",
		"pool:\n  tolerance_pct: -5\n",
		"pool:\n  limit: -1\n",
	} {
		_, err := config.Decode(strings.NewReader(src))
		assert.Error(t, err, src)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lambda.yaml")
	require.NoError(t, os.WriteFile(path, []byte("validate:\n  max_depth: 8\n"), 0o600))

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, c.Validate.MaxDepth)

	t.Setenv(config.EnvVar, path)
	c, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 8, c.Validate.MaxDepth)

	t.Setenv(config.EnvVar, "")
	c, err = config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), c)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
