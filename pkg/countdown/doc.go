// Package countdown implements the shutter timer that runs before a capture.
//
// A Scheduler emits one Tick per interval (one second by default) and stops
// by itself after the requested number of ticks. Each countdown is tagged
// with a caller-supplied id that is echoed in every Tick, so a consumer can
// discard ticks that belong to a countdown it has already abandoned.
//
// # Cancellation
//
// Stop invalidates the running countdown. A tick whose timer already fired
// but whose callback has not yet run is dropped, not delivered.
//
// # Ordering
//
// The next tick is only armed after the callback for the previous one has
// returned, so ticks of one countdown never overlap and arrive in order.
package countdown
