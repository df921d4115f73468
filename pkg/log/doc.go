// Package log records the capture trace: a machine-readable history of what
// a capture controller did during a run.
//
// The trace is not operational logging. slog lines are for people watching a
// terminal; trace events are for replaying a night afterwards with the
// astrocam-log tool.
//
// A controller receives a Logger through its config:
//
//	file, err := log.NewFileLogger("night.clog")
//	...
//	cfg.Trace = log.NewMultiLogger(file, log.NewSlogAdapter(slog.Default()))
//
// Every Event carries a run id, the session id and exactly one payload:
// a state change (including countdown ticks), a frame event, the computed
// plan, the exposure configuration sent to the camera, or an error.
//
// Trace files are a plain sequence of CBOR-encoded events using integer keys.
// They use the .clog extension and can be appended to while being read.
package log
