// Package simulator provides an in-process imaging subsystem.
//
// Camera implements capture.Adapter and capture.PreviewAdapter on top of a
// device.Characteristics. Frames run on their own goroutine and report
// started and ended events through the bound EventSink after the (scaled)
// exposure time, the way a native capture pipeline would.
//
// The Simulate* methods inject faults for tests and demos.
package simulator
