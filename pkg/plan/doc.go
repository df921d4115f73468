// Package plan computes capture plans for long exposures.
//
// Image sensors report a frame ceiling: the longest exposure a single frame
// may use. A requested exposure beyond that ceiling is either split into
// several equal frames (stacking), clamped to the ceiling, or forwarded
// unchanged, depending on the selected Policy.
//
// # Stacking
//
// For a request of total T and a ceiling C with T > C:
//
//	frames   = ceil(T / C)
//	exposure = T / frames
//
// Every frame has the same exposure, which keeps later alignment simple.
// Arithmetic is done on integer nanoseconds, so frames*exposure differs
// from T by less than one nanosecond per frame.
package plan
