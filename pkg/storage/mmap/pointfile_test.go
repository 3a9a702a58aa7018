package mmap

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanonone/kektorgrid/pkg/core/grid"
	"github.com/sanonone/kektorgrid/pkg/core/points"
)

func TestPointFileRoundTrip(t *testing.T) {
	set, err := points.FromRows([][]float64{{0, 0, 1}, {0.5, 0, -2}, {0, 0.5, 3.25}, {10, 10, 10}})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "cloud.kgp")

	require.NoError(t, WritePoints(path, set))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(PointsHeaderSize+4*3*8), info.Size())

	pf, err := OpenPoints(path)
	require.NoError(t, err)
	defer pf.Close()

	assert.Equal(t, 4, pf.Points().Len())
	assert.Equal(t, 3, pf.Points().Dims())
	assert.Equal(t, set.Data(), pf.Points().Data())

	// the grid reads the mapping in place
	g, err := grid.New(pf.Points(), grid.Config{Lengthscale: 20, Scale: 3.1, Backend: grid.Bounded})
	require.NoError(t, err)
	assert.ElementsMatch(t, []grid.Pair{{1, 0}, {2, 0}}, g.Pairs())
}

func TestPointFileHalfPrecision(t *testing.T) {
	set, err := points.FromRows([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "half.kgp")

	require.NoError(t, WritePoints(path, points.NewHalf(set)))
	pf, err := OpenPoints(path)
	require.NoError(t, err)
	defer pf.Close()
	assert.Equal(t, []float64{1, 2, 3, 4}, pf.Points().Data())
}

func TestOpenPointsRejects(t *testing.T) {
	dir := t.TempDir()

	short := filepath.Join(dir, "short.kgp")
	require.NoError(t, os.WriteFile(short, []byte("KGPT"), 0o644))

	header := make([]byte, PointsHeaderSize+16)
	binary.LittleEndian.PutUint32(header[0:4], PointsMagic)
	binary.LittleEndian.PutUint32(header[4:8], PointsVersion)
	binary.LittleEndian.PutUint32(header[8:12], 2)
	binary.LittleEndian.PutUint64(header[12:20], 5) // 5 points promised, 1 present
	truncated := filepath.Join(dir, "truncated.kgp")
	require.NoError(t, os.WriteFile(truncated, header, 0o644))

	garbage := make([]byte, PointsHeaderSize)
	copy(garbage, "not a point file")
	wrongMagic := filepath.Join(dir, "magic.kgp")
	require.NoError(t, os.WriteFile(wrongMagic, garbage, 0o644))

	for name, path := range map[string]string{"Short": short, "Truncated": truncated, "Magic": wrongMagic} {
		t.Run(name, func(t *testing.T) {
			_, err := OpenPoints(path)
			assert.ErrorIs(t, err, ErrNotPointFile)
		})
	}

	_, err := OpenPoints(filepath.Join(dir, "missing.kgp"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
