// Package exposure holds the user's desired exposure parameters.
//
// A Config carries ISO, exposure duration, focus distance and the
// auto/manual exposure mode. The Store wraps a Config with range clamping
// and change notification so slider-driven UIs can write continuous values
// without producing errors.
//
// # Mutual Exclusion
//
// Automatic metering and manual parameters are mutually exclusive on the
// imaging subsystem. Applied is the only view handed to an adapter: in auto
// mode it carries no manual values at all, in manual mode it carries all
// three.
//
// # Bounds
//
//   - ISO: 50 to 3200
//   - Exposure: 1 ms to 30 s
//   - Focus distance: 0.0 (infinity) to 1.0
//
// Device-specific limits are described by Capability and applied by the
// adapter, not by the Store.
package exposure
