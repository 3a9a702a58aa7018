// Package persistence stores grid snapshots on disk.
//
// A snapshot holds the points and the configuration of a grid together with
// its permutation, and is written as a single checksummed frame with a gob
// payload. Restoring rebuilds the grid with the stored permutation as sort
// hint, so a restored grid is identical to the saved one and its
// construction skips most of the sorting work.
package persistence

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/sanonone/kektorgrid/pkg/core/cell"
	"github.com/sanonone/kektorgrid/pkg/core/grid"
	"github.com/sanonone/kektorgrid/pkg/core/points"
)

// ErrHashRequired is returned when restoring a snapshot of a grid that used a
// custom hash function without supplying one.
var ErrHashRequired = errors.New("snapshot was built with a custom hash; one must be supplied")

// GridSnapshot is the serializable state of a grid.
type GridSnapshot struct {
	ID        uuid.UUID
	Dims      int
	Positions []float64 // row-major, Dims values per point

	Lengthscale float64
	Scale       float64
	Backend     grid.Backend
	HashBits    uint
	Stencil     []int64
	Workers     int
	CustomHash  bool

	// EmptyStencil marks an explicit empty stencil, which gob decodes as
	// nil and would otherwise restore as the derived one.
	EmptyStencil bool

	Permutation []int32
}

// Capture returns the snapshot of g. The slices alias the grid's storage.
func Capture(g *grid.Grid) *GridSnapshot {
	cfg := g.Config()
	return &GridSnapshot{
		ID:          g.ID(),
		Dims:        g.Dims(),
		Positions:   g.Positions().Data(),
		Lengthscale: cfg.Lengthscale,
		Scale:       cfg.Scale,
		Backend:     cfg.Backend,
		HashBits:    cfg.HashBits,
		Stencil:     cfg.Stencil,
		Workers:     cfg.Workers,
		CustomHash:  cfg.Hash != nil,
		Permutation: g.Permutation(),

		EmptyStencil: cfg.Stencil != nil && len(cfg.Stencil) == 0,
	}
}

// Config returns the grid configuration stored in the snapshot, using hash
// as the cell hash when the snapshot was built with a custom one.
func (s *GridSnapshot) Config(hash cell.HashFunc) (grid.Config, error) {
	cfg := grid.Config{
		Lengthscale: s.Lengthscale,
		Scale:       s.Scale,
		Backend:     s.Backend,
		HashBits:    s.HashBits,
		Stencil:     s.Stencil,
		Workers:     s.Workers,
	}
	if s.EmptyStencil {
		cfg.Stencil = []int64{}
	}
	if s.CustomHash {
		if hash == nil {
			return cfg, ErrHashRequired
		}
		cfg.Hash = hash
	}
	return cfg, nil
}

// Restore rebuilds the grid described by s. hash is only consulted for
// snapshots of grids that used a custom hash. The restored grid gets a new
// id and records the snapshot id as its parent.
func Restore(s *GridSnapshot, hash cell.HashFunc) (*grid.Grid, error) {
	cfg, err := s.Config(hash)
	if err != nil {
		return nil, err
	}
	set, err := points.NewDense(s.Positions, s.Dims)
	if err != nil {
		return nil, fmt.Errorf("failed to restore positions: %w", err)
	}
	g, err := grid.Resume(set, cfg, s.Permutation, s.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild grid %s: %w", s.ID, err)
	}
	slog.Debug("[SNAPSHOT] restored", "snapshot", s.ID, "id", g.ID(), "points", g.Len(), "hinted", g.Index().HintUsed())
	return g, nil
}

// Write serializes g as a single snapshot frame.
func Write(w io.Writer, g *grid.Grid) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(Capture(g)); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := NewFrameWriter(w).WriteFrame(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Read decodes the snapshot frame at the head of r.
func Read(r io.Reader) (*GridSnapshot, error) {
	payload, _, err := ReadFrame(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrIncompleteFrame
		}
		return nil, err
	}
	var s GridSnapshot
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}

// SaveFile writes the snapshot of g to path. The file is written to a
// temporary sibling first and renamed into place, so path always holds
// either the previous or the new snapshot.
func SaveFile(path string, g *grid.Grid) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := Write(f, g); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return err
	}
	slog.Info("[SNAPSHOT] written", "path", path, "id", g.ID(), "points", g.Len())
	return nil
}

// LoadFile reads the snapshot stored at path.
func LoadFile(path string) (*GridSnapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
