// Package physics provides the explicit finite-difference solvers of the
// heat-sink domains.
//
// Each solver checks its stability bound when it is constructed and advances
// one field from an old buffer into a new one:
//
//   - [Fluid]: upwind advection with Newton coupling to the plate surface
//   - [Plate]: 2-D FTCS diffusion with two Robin faces and insulated ends
//   - [Fin]: 2-D FTCS diffusion in polar coordinates with a removable
//     singularity at r=0
//
// Solvers never read and write the same buffer in one step:
//
//	next := old.Clone()
//	if err := plate.Step(old, fluid, next); err != nil {
//	    return err
//	}
//	old, next = next, old
//
// Every Step ends with [thermal.Check], so a returned field is always finite
// and inside its domain's physical range.
package physics
