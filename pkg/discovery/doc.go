// Package discovery advertises and finds astrocam remote shutters via
// mDNS/DNS-SD.
//
// # Service (_astrocam._tcp)
//
// A camera running the remote API advertises one instance of
// _astrocam._tcp in the local domain. The instance name is user-facing
// (e.g. "astrocam backyard") and limited to one DNS label.
//
// TXT records:
//   - id: camera id (required)
//   - model: device model (optional)
//   - ver: software version (optional)
//   - api: HTTP path prefix of the remote API (required)
//
// Browsers aggregate entries for the same instance seen on several
// interfaces into one Service with all addresses.
package discovery
