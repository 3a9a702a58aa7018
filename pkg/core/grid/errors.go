package grid

import (
	"errors"
	"fmt"

	"github.com/sanonone/kektorgrid/pkg/core/bucket"
)

var (
	// ErrInvalidConfiguration is returned when the grid parameters or the
	// point set cannot describe a grid: non-positive lengthscale, malformed
	// extents, empty or non-finite point sets, invalid stencils.
	ErrInvalidConfiguration = errors.New("grid: invalid configuration")

	// ErrDegenerateConfiguration is returned when every point lands in a cell
	// of its own. It wraps bucket.ErrDegenerate.
	ErrDegenerateConfiguration = fmt.Errorf("grid: degenerate configuration: %w", bucket.ErrDegenerate)

	// ErrDimensionMismatch is returned by queries whose vectors or boxes do
	// not have the dimension of the grid.
	ErrDimensionMismatch = errors.New("grid: dimension mismatch")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}
