// Package remote serves the remote shutter API: a small JSON-over-HTTP view
// of one capture controller.
//
// Routes (all under /api/v1):
//
//	GET  /health     liveness and version
//	GET  /session    session snapshot
//	GET  /exposure   exposure parameters
//	PUT  /exposure   partial exposure update
//	POST /capture    {"delay_seconds": n}, 202 when accepted
//	POST /cancel     cancel a countdown, 202
//
// A busy session answers 409, malformed bodies 400.
package remote
