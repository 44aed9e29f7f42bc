package coupling

import (
	"fmt"
	"math"

	"github.com/san-kum/heatsim/internal/grid"
	"github.com/san-kum/heatsim/internal/thermal"
)

// stencil is a precomputed bilinear lookup into the plate field.
type stencil struct {
	i0, j0 int
	wx, wy float64
}

// cell locates the lower node and fractional offset of coordinate v on axis a,
// clamped so the upper node always exists.
func cell(a grid.Axis, v float64) (int, float64) {
	f := (v - a.Origin) / a.Spacing
	i := int(math.Floor(f))
	if i < 0 {
		i = 0
	}
	if i > a.N-2 {
		i = a.N - 2
	}
	w := f - float64(i)
	return i, math.Max(0, math.Min(1, w))
}

func locate(g grid.Cartesian, x, y float64) (stencil, error) {
	if !g.Contains(x, y) {
		return stencil{}, fmt.Errorf("%w: %w: (%g, %g) outside [0, %g]x[0, %g]",
			thermal.ErrConfig, thermal.ErrOutOfDomain, x, y, g.X.End(), g.Y.End())
	}
	i, wx := cell(g.X, x)
	j, wy := cell(g.Y, y)
	return stencil{i0: i, j0: j, wx: wx, wy: wy}, nil
}

func (s stencil) eval(f *thermal.Field2D) float64 {
	t00 := f.At(s.i0, s.j0)
	t10 := f.At(s.i0+1, s.j0)
	t01 := f.At(s.i0, s.j0+1)
	t11 := f.At(s.i0+1, s.j0+1)
	return (1-s.wx)*(1-s.wy)*t00 + s.wx*(1-s.wy)*t10 + (1-s.wx)*s.wy*t01 + s.wx*s.wy*t11
}
