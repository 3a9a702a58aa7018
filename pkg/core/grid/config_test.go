package grid

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("Full", func(t *testing.T) {
		path := writeConfig(t, `
lengthscale: 0.25
scale: 0.2
backend: sparse
hash_bits: 16
stencil: [1, 65535, 65536, 65537]
workers: 3
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, Config{
			Lengthscale: 0.25,
			Scale:       0.2,
			Backend:     Sparse,
			HashBits:    16,
			Stencil:     []int64{1, 65535, 65536, 65537},
			Workers:     3,
		}, cfg)
	})

	t.Run("Partial", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, "lengthscale: 4\n"))
		require.NoError(t, err)
		want := DefaultConfig()
		want.Lengthscale = 4
		assert.Equal(t, want, cfg)
	})

	t.Run("Empty", func(t *testing.T) {
		cfg, err := LoadConfig(writeConfig(t, ""))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("NoPath", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("UnknownKey", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "lengthscale: 1\ncell_size: 2\n"))
		assert.Error(t, err)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := LoadConfig(writeConfig(t, "lengthscale: -1\n"))
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
