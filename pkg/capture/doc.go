// Package capture implements the capture session controller.
//
// A Controller owns exactly one capture session and drives it through
//
//	IDLE -> COUNTING_DOWN -> CAPTURING -> {COMPLETED | FAILED} -> IDLE
//
// It reads exposure parameters from an exposure.Store, computes a frame plan
// with a plan.Calculator, runs an optional countdown and then issues frames
// one at a time to an Adapter. Terminal states are announced to listeners and
// immediately reset to IDLE.
//
// # Adapter Contract
//
// Adapters are the imaging subsystem. Configure is called with the effective
// parameters before every capture and reports the subsystem's Capability.
// Capture starts one frame and returns; the adapter later reports exactly one
// EventCaptureStarted followed by one EventCaptureEnded through
// Controller.Post, echoing the FrameTag it was given.
//
// # Concurrency
//
// Requests, countdown ticks, timeouts and adapter events all go through one
// serial queue: handlers run one at a time in arrival order, and events
// posted while a handler runs (including from inside Adapter.Capture) are
// queued behind it. Events tagged with a session other than the current one
// are discarded.
//
// # Errors
//
// Synchronous misuse is returned directly (ErrSessionBusy, ErrInvalidDelay,
// ErrClosed). Failures while capturing (ErrAdapterUnreachable, ErrFrameFailed,
// ErrTimeout, ErrInvalidCapability) surface only as the FAILED state, in
// Change.Err and Snapshot.LastError. Nothing is retried.
package capture
