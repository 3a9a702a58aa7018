package persistence

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanonone/kektorgrid/pkg/core/grid"
	"github.com/sanonone/kektorgrid/pkg/core/points"
)

func randomGrid(t *testing.T, cfg grid.Config) *grid.Grid {
	t.Helper()
	rng := rand.New(rand.NewSource(5))
	data := make([]float64, 800*3)
	for i := range data {
		data[i] = rng.Float64() * 8
	}
	set, err := points.NewDense(data, 3)
	require.NoError(t, err)
	g, err := grid.New(set, cfg)
	require.NoError(t, err)
	return g
}

func TestSnapshotRoundTrip(t *testing.T) {
	configs := map[string]grid.Config{
		"Bounded":         {Lengthscale: 1, Scale: 0.8, Backend: grid.Bounded},
		"Sparse":          {Lengthscale: 1, Backend: grid.Sparse, HashBits: 12},
		"ExplicitStencil": {Lengthscale: 0.5, Scale: 1, Backend: grid.Bounded, Stencil: []int64{1, 2}},
	}
	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			g := randomGrid(t, cfg)

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, g))

			snap, err := Read(&buf)
			require.NoError(t, err)
			assert.Equal(t, g.ID(), snap.ID)
			assert.False(t, snap.CustomHash)

			restored, err := Restore(snap, nil)
			require.NoError(t, err)
			assert.Equal(t, g.ID(), restored.Parent())
			assert.True(t, restored.Index().HintUsed())
			assert.Equal(t, g.Config(), restored.Config())
			assert.Equal(t, g.Permutation(), restored.Permutation())
			assert.Equal(t, g.Pivots(), restored.Pivots())
			assert.Equal(t, g.Stencil(), restored.Stencil())
			assert.Equal(t, g.Pairs(), restored.Pairs())
		})
	}
}

func TestSnapshotCustomHash(t *testing.T) {
	hash := func(c []int64) int64 { return c[0] % 5 }
	g := randomGrid(t, grid.Config{Lengthscale: 1, Backend: grid.Sparse, Hash: hash, Stencil: []int64{1, 2, 3, 4}})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, g))
	snap, err := Read(&buf)
	require.NoError(t, err)
	assert.True(t, snap.CustomHash)

	_, err = Restore(snap, nil)
	assert.ErrorIs(t, err, ErrHashRequired)

	restored, err := Restore(snap, hash)
	require.NoError(t, err)
	assert.Equal(t, g.Pairs(), restored.Pairs())
}

func TestSnapshotFile(t *testing.T) {
	g := randomGrid(t, grid.Config{Lengthscale: 1, Backend: grid.Bounded})
	path := filepath.Join(t.TempDir(), "grid.snap")

	require.NoError(t, SaveFile(path, g))
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file left behind")

	snap, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, g.ID(), snap.ID)
	assert.Equal(t, g.Positions().Data(), snap.Positions)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.snap"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadEmptyStream(t *testing.T) {
	_, err := Read(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrIncompleteFrame)
}

func TestSnapshotEmptyStencil(t *testing.T) {
	g := randomGrid(t, grid.Config{Lengthscale: 1, Scale: 2, Backend: grid.Bounded, Stencil: []int64{}})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, g))
	snap, err := Read(&buf)
	require.NoError(t, err)
	assert.True(t, snap.EmptyStencil)

	restored, err := Restore(snap, nil)
	require.NoError(t, err)
	assert.NotNil(t, restored.Stencil())
	assert.Empty(t, restored.Stencil())
	assert.Equal(t, g.Pairs(), restored.Pairs())

	derived := randomGrid(t, grid.Config{Lengthscale: 1, Scale: 2, Backend: grid.Bounded})
	buf.Reset()
	require.NoError(t, Write(&buf, derived))
	snap, err = Read(&buf)
	require.NoError(t, err)
	assert.False(t, snap.EmptyStencil)

	restored, err = Restore(snap, nil)
	require.NoError(t, err)
	assert.Equal(t, derived.Stencil(), restored.Stencil())
	assert.Equal(t, derived.Pairs(), restored.Pairs())
}
