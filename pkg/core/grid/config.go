package grid

import (
	"math"

	"github.com/sanonone/kektorgrid/pkg/core/cell"
)

// Backend selects the bucket index strategy.
type Backend string

const (
	// Bounded ranks cells lexicographically inside the grid shape (a perfect
	// hash) and resolves keys with a map.
	Bounded Backend = "bounded"
	// Sparse hashes cells with a caller-supplied function, tolerates aliased
	// keys and resolves them through an ordered directory.
	Sparse Backend = "sparse"
)

// Config holds the parameters of a grid.
type Config struct {
	// Lengthscale is the edge length of a cell. Must be > 0.
	Lengthscale float64 `yaml:"lengthscale" json:"lengthscale"`

	// Scale is the interaction radius used by pair enumeration. 0 means
	// Lengthscale.
	Scale float64 `yaml:"scale" json:"scale"`

	// Backend selects the bucket index. Default: Bounded.
	Backend Backend `yaml:"backend" json:"backend"`

	// Hash maps cells to keys for the Sparse backend. When nil, a linear
	// cell.ShiftHash with HashBits bits per axis is used. Large point sets
	// are hashed from several goroutines at once, so Hash must be safe for
	// concurrent use.
	Hash cell.HashFunc `yaml:"-" json:"-"`

	// HashBits is the per-axis width of the default sparse hash. 0 spreads
	// the 63 available bits evenly over the axes.
	HashBits uint `yaml:"hash_bits" json:"hash_bits"`

	// Stencil holds the key deltas of the neighbour cells visited for every
	// occupied cell during pair enumeration. It must be a half-stencil: no
	// zero delta, no duplicates, and never both o and -o; otherwise pairs
	// would be reported twice. The grid validates this but cannot check that
	// the stencil actually covers Scale for a custom Hash; that is the
	// caller's responsibility.
	//
	// When nil the grid derives cell.HalfStencil from the strides of its
	// linear hash. That stencil covers one ring of cells, so Scale must not
	// exceed Lengthscale.
	Stencil []int64 `yaml:"stencil" json:"stencil"`

	// Workers bounds the goroutines used by the parallel phases. <= 0 means
	// runtime.NumCPU().
	Workers int `yaml:"workers" json:"workers"`
}

// DefaultConfig returns a bounded grid with unit cells whose interaction
// radius equals the cell size.
func DefaultConfig() Config {
	return Config{
		Lengthscale: 1,
		Backend:     Bounded,
	}
}

// validate checks the parameters that do not depend on the points and
// returns the effective interaction radius.
func (c Config) validate() (float64, error) {
	if !(c.Lengthscale > 0) || math.IsInf(c.Lengthscale, 0) {
		return 0, invalidf("lengthscale must be positive and finite, got %g", c.Lengthscale)
	}
	if !(c.Scale >= 0) || math.IsInf(c.Scale, 0) {
		return 0, invalidf("scale must be non-negative and finite, got %g", c.Scale)
	}
	switch c.Backend {
	case Bounded:
		if c.Hash != nil {
			return 0, invalidf("a custom hash requires the %q backend", Sparse)
		}
	case Sparse:
		if c.Hash != nil && c.Stencil == nil {
			return 0, invalidf("a custom hash needs an explicit stencil")
		}
	default:
		return 0, invalidf("unknown backend %q", c.Backend)
	}
	if c.Stencil != nil {
		if err := cell.ValidateStencil(c.Stencil); err != nil {
			return 0, invalidf("%v", err)
		}
	}

	scale := c.Scale
	if scale == 0 {
		scale = c.Lengthscale
	}
	if c.Stencil == nil && scale > c.Lengthscale {
		return 0, invalidf("scale %g exceeds lengthscale %g; the derived stencil only covers neighbouring cells", scale, c.Lengthscale)
	}
	return scale, nil
}
