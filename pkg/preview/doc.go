// Package preview keeps the live viewfinder in step with the exposure
// parameters.
//
// Slider drags produce bursts of store changes. The Debouncer coalesces them:
// the window starts with the first change after the previous apply and only
// the settled configuration is sent once the window closes. If the settled
// preview equals the last one applied, nothing is sent.
//
// Preview updates are withheld while a capture session is in progress and
// flushed when the controller returns to IDLE.
//
// Preview exposure is capped at exposure.MaxPreviewExposure so the viewfinder
// stays responsive while long stills are configured.
package preview
