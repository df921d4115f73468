package discovery

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	// ServiceType is the DNS-SD service type of the remote shutter.
	ServiceType = "_astrocam._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// DefaultPort is the default remote API port.
	DefaultPort = 8088

	// DefaultAPIPath is the default API prefix.
	DefaultAPIPath = "/api/v1"

	// BrowseTimeout is the default timeout for browsing.
	BrowseTimeout = 5 * time.Second

	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63
)

// TXT record keys.
const (
	TXTKeyID      = "id"
	TXTKeyModel   = "model"
	TXTKeyVersion = "ver"
	TXTKeyAPI     = "api"
)

// Discovery errors.
var (
	ErrMissingRequired     = errors.New("missing required TXT record")
	ErrInstanceNameTooLong = errors.New("instance name too long")
	ErrNotAdvertising      = errors.New("not advertising")
)

// Info is what a camera advertises.
type Info struct {
	// Instance is the user-facing instance name.
	Instance string

	// ID identifies the camera.
	ID string

	Model   string
	Version string

	// APIPath is the remote API prefix. Empty selects DefaultAPIPath.
	APIPath string

	// Port is the remote API port. Zero selects DefaultPort.
	Port int
}

// Service is a discovered camera.
type Service struct {
	Info

	Host      string
	Addresses []string
}

// URL returns the base URL of the service's remote API, using the first
// address or the host name.
func (s *Service) URL() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return fmt.Sprintf("http://%s%s", net.JoinHostPort(host, strconv.Itoa(s.Port)), s.APIPath)
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
