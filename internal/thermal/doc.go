// Package thermal provides the temperature-field primitives shared by every
// domain of the heat-sink simulation.
//
// The package defines the buffers that solvers read from and write to, plus the
// single integrity checker applied after every solver call:
//
//   - [Field1D]: temperatures along the coolant channel
//   - [Field2D]: temperatures over a plate or a fin, first index primary
//   - [Fields]: the fluid, plate and fin fields evolved together
//   - [Check]: range and finiteness validation parameterized by [Domain]
//
// # Buffers
//
// Solvers never update a field in place. They read an old buffer and write a
// new one; the orchestrator swaps the two afterwards.
//
// # Errors
//
// Configuration, stability and integrity failures are reported through the
// sentinel errors declared in this package so callers can use errors.Is.
package thermal
