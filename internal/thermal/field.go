package thermal

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Field1D holds temperatures along a line of nodes [K].
type Field1D struct {
	data []float64
}

func NewField1D(n int) *Field1D {
	return &Field1D{data: make([]float64, n)}
}

// Field1DFrom wraps a copy of values.
func Field1DFrom(values []float64) *Field1D {
	f := NewField1D(len(values))
	copy(f.data, values)
	return f
}

func (f *Field1D) Len() int             { return len(f.data) }
func (f *Field1D) At(i int) float64     { return f.data[i] }
func (f *Field1D) Set(i int, v float64) { f.data[i] = v }

// Values exposes the backing slice. Callers must not retain it across steps.
func (f *Field1D) Values() []float64 { return f.data }

func (f *Field1D) Fill(v float64) {
	for i := range f.data {
		f.data[i] = v
	}
}

func (f *Field1D) Clone() *Field1D {
	return Field1DFrom(f.data)
}

func (f *Field1D) CopyFrom(src *Field1D) error {
	if len(src.data) != len(f.data) {
		return fmt.Errorf("%w: %d vs %d nodes", ErrDimensionMismatch, len(src.data), len(f.data))
	}
	copy(f.data, src.data)
	return nil
}

func (f *Field1D) Mean() float64 { return stat.Mean(f.data, nil) }
func (f *Field1D) Min() float64  { return floats.Min(f.data) }
func (f *Field1D) Max() float64  { return floats.Max(f.data) }

// MaxAbsDiff returns max|f - other| over all nodes.
func (f *Field1D) MaxAbsDiff(other *Field1D) float64 {
	return floats.Distance(f.data, other.data, inf)
}

// Field2D holds temperatures on an Nx×Ny structured grid, stored row-major
// with the first index as the primary axis.
type Field2D struct {
	nx, ny int
	data   []float64
}

func NewField2D(nx, ny int) *Field2D {
	return &Field2D{nx: nx, ny: ny, data: make([]float64, nx*ny)}
}

// Field2DFrom wraps a copy of values laid out as [i*ny+j].
func Field2DFrom(nx, ny int, values []float64) (*Field2D, error) {
	if len(values) != nx*ny {
		return nil, fmt.Errorf("%w: %d values for %dx%d grid", ErrDimensionMismatch, len(values), nx, ny)
	}
	f := NewField2D(nx, ny)
	copy(f.data, values)
	return f, nil
}

func (f *Field2D) Dims() (int, int)        { return f.nx, f.ny }
func (f *Field2D) At(i, j int) float64     { return f.data[i*f.ny+j] }
func (f *Field2D) Set(i, j int, v float64) { f.data[i*f.ny+j] = v }
func (f *Field2D) Values() []float64       { return f.data }
func (f *Field2D) Mean() float64           { return stat.Mean(f.data, nil) }
func (f *Field2D) Min() float64            { return floats.Min(f.data) }
func (f *Field2D) Max() float64            { return floats.Max(f.data) }

func (f *Field2D) SameShape(other *Field2D) bool {
	return f.nx == other.nx && f.ny == other.ny
}

func (f *Field2D) Fill(v float64) {
	for i := range f.data {
		f.data[i] = v
	}
}

// Row returns a copy of the values with fixed primary index i.
func (f *Field2D) Row(i int) []float64 {
	out := make([]float64, f.ny)
	copy(out, f.data[i*f.ny:(i+1)*f.ny])
	return out
}

// Column returns a copy of the values with fixed secondary index j.
func (f *Field2D) Column(j int) []float64 {
	out := make([]float64, f.nx)
	for i := range out {
		out[i] = f.data[i*f.ny+j]
	}
	return out
}

func (f *Field2D) Clone() *Field2D {
	c := NewField2D(f.nx, f.ny)
	copy(c.data, f.data)
	return c
}

func (f *Field2D) CopyFrom(src *Field2D) error {
	if !f.SameShape(src) {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, src.nx, src.ny, f.nx, f.ny)
	}
	copy(f.data, src.data)
	return nil
}

// MaxAbsDiff returns max|f - other| over all nodes.
func (f *Field2D) MaxAbsDiff(other *Field2D) float64 {
	return floats.Distance(f.data, other.data, inf)
}

// Fields is the set of temperature fields evolved together.
type Fields struct {
	Fluid *Field1D
	Plate *Field2D
	Fins  []*Field2D
}

func (s *Fields) Clone() *Fields {
	c := &Fields{
		Fluid: s.Fluid.Clone(),
		Plate: s.Plate.Clone(),
		Fins:  make([]*Field2D, len(s.Fins)),
	}
	for k, fin := range s.Fins {
		c.Fins[k] = fin.Clone()
	}
	return c
}

func (s *Fields) CopyFrom(src *Fields) error {
	if len(s.Fins) != len(src.Fins) {
		return fmt.Errorf("%w: %d vs %d fins", ErrDimensionMismatch, len(src.Fins), len(s.Fins))
	}
	if err := s.Fluid.CopyFrom(src.Fluid); err != nil {
		return err
	}
	if err := s.Plate.CopyFrom(src.Plate); err != nil {
		return err
	}
	for k := range s.Fins {
		if err := s.Fins[k].CopyFrom(src.Fins[k]); err != nil {
			return err
		}
	}
	return nil
}

// MaxAbsDiff returns the largest nodal change between two field sets.
func (s *Fields) MaxAbsDiff(other *Fields) float64 {
	m := s.Fluid.MaxAbsDiff(other.Fluid)
	if d := s.Plate.MaxAbsDiff(other.Plate); d > m {
		m = d
	}
	for k := range s.Fins {
		if d := s.Fins[k].MaxAbsDiff(other.Fins[k]); d > m {
			m = d
		}
	}
	return m
}

// FinMean is the average of the per-fin means.
func (s *Fields) FinMean() float64 {
	if len(s.Fins) == 0 {
		return 0
	}
	means := make([]float64, len(s.Fins))
	for k, fin := range s.Fins {
		means[k] = fin.Mean()
	}
	return stat.Mean(means, nil)
}

// NodeCount is the total number of nodes across every domain.
func (s *Fields) NodeCount() int {
	n := s.Fluid.Len() + len(s.Plate.data)
	for _, fin := range s.Fins {
		n += len(fin.data)
	}
	return n
}
