// Package grid builds the immutable structured coordinate descriptors of the
// fluid channel, the base plate and the fins.
package grid

import (
	"math"

	"github.com/san-kum/heatsim/internal/thermal"
	"gonum.org/v1/gonum/floats"
)

// Axis is a uniform 1-D discretization of [Origin, Origin+(N-1)*Spacing].
type Axis struct {
	N       int
	Spacing float64
	Origin  float64
}

// NewAxis spreads n nodes uniformly over [lo, hi].
func NewAxis(name string, n int, lo, hi float64) (Axis, error) {
	if n < 2 {
		return Axis{}, thermal.ConfigError("%s axis needs at least 2 nodes, got %d", name, n)
	}
	if !(hi > lo) || math.IsInf(hi-lo, 0) {
		return Axis{}, thermal.ConfigError("%s axis extent [%g, %g] is empty", name, lo, hi)
	}
	return Axis{N: n, Spacing: (hi - lo) / float64(n-1), Origin: lo}, nil
}

func (a Axis) Coord(i int) float64 {
	return a.Origin + float64(i)*a.Spacing
}

// End is the coordinate of the last node.
func (a Axis) End() float64 {
	return a.Coord(a.N - 1)
}

// Coords returns every node coordinate; the last one equals End exactly.
func (a Axis) Coords() []float64 {
	return floats.Span(make([]float64, a.N), a.Origin, a.End())
}

// Line is the 1-D coolant channel grid.
type Line struct {
	X Axis
}

func NewLine(n int, length float64) (Line, error) {
	x, err := NewAxis("fluid x", n, 0, length)
	if err != nil {
		return Line{}, err
	}
	return Line{X: x}, nil
}

// Cartesian is the 2-D base plate grid, x along the flow and y through the
// thickness (y=0 wetted face, y=Y.End() air face).
type Cartesian struct {
	X, Y Axis
}

func NewCartesian(nx, ny int, lx, ly float64) (Cartesian, error) {
	if nx < 3 || ny < 3 {
		return Cartesian{}, thermal.ConfigError("plate grid needs at least 3x3 nodes, got %dx%d", nx, ny)
	}
	x, err := NewAxis("plate x", nx, 0, lx)
	if err != nil {
		return Cartesian{}, err
	}
	y, err := NewAxis("plate y", ny, 0, ly)
	if err != nil {
		return Cartesian{}, err
	}
	return Cartesian{X: x, Y: y}, nil
}

// Contains reports whether (x, y) lies inside the plate footprint, allowing a
// relative slack of 1e-9 of the extent for round-off.
func (c Cartesian) Contains(x, y float64) bool {
	sx := 1e-9 * (c.X.End() - c.X.Origin)
	sy := 1e-9 * (c.Y.End() - c.Y.Origin)
	return x >= c.X.Origin-sx && x <= c.X.End()+sx && y >= c.Y.Origin-sy && y <= c.Y.End()+sy
}

// Polar is a semicircular fin grid. R spans [0, radius] with index 0 at the
// centre; Theta spans [0, π]. CenterX and BaseY place the fin centre in plate
// coordinates.
type Polar struct {
	R, Theta Axis
	CenterX  float64
	BaseY    float64
}

func NewPolar(nr, ntheta int, radius, centerX, baseY float64) (Polar, error) {
	if nr < 3 || ntheta < 3 {
		return Polar{}, thermal.ConfigError("fin grid needs at least 3x3 nodes, got %dx%d", nr, ntheta)
	}
	r, err := NewAxis("fin r", nr, 0, radius)
	if err != nil {
		return Polar{}, err
	}
	th, err := NewAxis("fin theta", ntheta, 0, math.Pi)
	if err != nil {
		return Polar{}, err
	}
	return Polar{R: r, Theta: th, CenterX: centerX, BaseY: baseY}, nil
}

// Radius is the outer radius R.
func (p Polar) Radius() float64 {
	return p.R.End()
}

// EdgePoint maps radial node j on the θ=0 edge (m=0) or the θ=π edge
// (m=Theta.N-1) onto the plate's air face. The sine term is dropped so both
// edges sit exactly on y=BaseY.
func (p Polar) EdgePoint(j int, atPi bool) (x, y float64) {
	r := p.R.Coord(j)
	if atPi {
		return p.CenterX - r, p.BaseY
	}
	return p.CenterX + r, p.BaseY
}

// Set is the complete discretization of one heat sink.
type Set struct {
	Fluid Line
	Plate Cartesian
	Fins  []Polar
}

// NodeCount is the total number of unknowns across every domain.
func (s Set) NodeCount() int {
	n := s.Fluid.X.N + s.Plate.X.N*s.Plate.Y.N
	for _, f := range s.Fins {
		n += f.R.N * f.Theta.N
	}
	return n
}
