// Package config loads the astrocam application configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cameraestellar/astrocam-go/pkg/capture"
	"github.com/cameraestellar/astrocam-go/pkg/device"
	"github.com/cameraestellar/astrocam-go/pkg/discovery"
	"github.com/cameraestellar/astrocam-go/pkg/exposure"
	"github.com/cameraestellar/astrocam-go/pkg/plan"
	"github.com/cameraestellar/astrocam-go/pkg/simulator"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// LoadError describes a failure to load a configuration file.
type LoadError struct {
	File    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.File, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Config is the application configuration.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Capture   CaptureConfig   `yaml:"capture"`
	Exposure  exposure.Config `yaml:"exposure"`
	Trace     TraceConfig     `yaml:"trace"`
	Remote    RemoteConfig    `yaml:"remote"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Simulator SimulatorConfig `yaml:"simulator"`
}

// CaptureConfig tunes the capture controller.
type CaptureConfig struct {
	// Policy is stack, clamp or honor.
	Policy string `yaml:"policy"`

	// MaxFrames limits stacking plans (0 = unlimited).
	MaxFrames int `yaml:"max_frames"`

	CountdownInterval time.Duration `yaml:"countdown_interval"`
	FrameOverhead     time.Duration `yaml:"frame_overhead"`
	TimeoutMargin     time.Duration `yaml:"timeout_margin"`
	ConfigureTimeout  time.Duration `yaml:"configure_timeout"`
}

// TraceConfig selects capture trace outputs.
type TraceConfig struct {
	// Path of the .clog file. Empty disables the file trace.
	Path string `yaml:"path"`

	// Slog mirrors trace events to the operational log at debug level.
	Slog bool `yaml:"slog"`
}

// RemoteConfig configures the remote shutter API.
type RemoteConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// DiscoveryConfig configures mDNS advertisement of the remote API.
type DiscoveryConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Instance  string `yaml:"instance"`
	Interface string `yaml:"interface"`
}

// SimulatorConfig configures the simulated camera.
type SimulatorConfig struct {
	// CameraID picks a camera from the simulated catalog. Empty selects
	// the best camera for long exposures.
	CameraID string `yaml:"camera_id"`

	// MaxExposure overrides the camera's longest single frame when set.
	MaxExposure time.Duration `yaml:"max_exposure"`

	TimeScale  float64       `yaml:"time_scale"`
	StartDelay time.Duration `yaml:"start_delay"`
	FailFrames []int         `yaml:"fail_frames"`
}

// Default returns the built-in configuration.
func Default() Config {
	cc := capture.DefaultConfig()
	return Config{
		LogLevel: "info",
		Capture: CaptureConfig{
			Policy:            cc.Calculator.Policy.String(),
			CountdownInterval: cc.CountdownInterval,
			FrameOverhead:     cc.FrameOverhead,
			TimeoutMargin:     cc.TimeoutMargin,
			ConfigureTimeout:  cc.ConfigureTimeout,
		},
		Exposure: exposure.DefaultConfig(),
		Remote: RemoteConfig{
			Listen: fmt.Sprintf(":%d", discovery.DefaultPort),
		},
		Discovery: DiscoveryConfig{
			Instance: "astrocam",
		},
		Simulator: SimulatorConfig{
			TimeScale: 1,
		},
	}
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Load reads path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, &LoadError{File: path, Message: "failed to parse", Cause: err}
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	if _, err := plan.ParsePolicy(c.Capture.Policy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Capture.MaxFrames < 0 {
		return fmt.Errorf("%w: max_frames must not be negative", ErrInvalid)
	}
	for name, d := range map[string]time.Duration{
		"countdown_interval": c.Capture.CountdownInterval,
		"frame_overhead":     c.Capture.FrameOverhead,
		"timeout_margin":     c.Capture.TimeoutMargin,
		"configure_timeout":  c.Capture.ConfigureTimeout,
		"start_delay":        c.Simulator.StartDelay,
	} {
		if d < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalid, name)
		}
	}
	if c.Remote.Enabled && c.Remote.Listen == "" {
		return fmt.Errorf("%w: remote.listen is required", ErrInvalid)
	}
	if c.Discovery.Enabled {
		if !c.Remote.Enabled {
			return fmt.Errorf("%w: discovery requires remote", ErrInvalid)
		}
		if err := discovery.ValidateInstanceName(c.Discovery.Instance); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	if c.Simulator.MaxExposure < 0 {
		return fmt.Errorf("%w: simulator.max_exposure must not be negative", ErrInvalid)
	}
	if c.Simulator.CameraID != "" {
		if _, ok := simulator.Lookup(c.Simulator.CameraID); !ok {
			return fmt.Errorf("%w: unknown simulator camera %q", ErrInvalid, c.Simulator.CameraID)
		}
	}
	if c.Simulator.TimeScale < 0 {
		return fmt.Errorf("%w: simulator.time_scale must not be negative", ErrInvalid)
	}
	return nil
}

// Calculator returns the configured plan calculator.
func (c *Config) Calculator() plan.Calculator {
	policy, _ := plan.ParsePolicy(c.Capture.Policy)
	return plan.Calculator{Policy: policy, MaxFrames: c.Capture.MaxFrames}
}

// ControllerConfig builds a capture.Config driving adapter. Device, Logger
// and Trace are left for the caller.
func (c *Config) ControllerConfig(adapter capture.Adapter) capture.Config {
	cc := capture.DefaultConfig()
	cc.Adapter = adapter
	cc.Store = exposure.NewStore(c.Exposure)
	cc.Calculator = c.Calculator()
	cc.CountdownInterval = c.Capture.CountdownInterval
	cc.FrameOverhead = c.Capture.FrameOverhead
	cc.TimeoutMargin = c.Capture.TimeoutMargin
	cc.ConfigureTimeout = c.Capture.ConfigureTimeout
	return cc
}

// SimulatorConfig builds the simulated camera configuration.
func (c *Config) SimulatorConfig() (simulator.Config, error) {
	var (
		chars device.Characteristics
		err   error
	)
	if c.Simulator.CameraID != "" {
		var ok bool
		if chars, ok = simulator.Lookup(c.Simulator.CameraID); !ok {
			return simulator.Config{}, fmt.Errorf("%w: unknown simulator camera %q", ErrInvalid, c.Simulator.CameraID)
		}
	} else if chars, err = device.SelectAstroCamera(simulator.Catalog()); err != nil {
		return simulator.Config{}, err
	}
	if c.Simulator.MaxExposure > 0 {
		chars.ExposureRange.Upper = c.Simulator.MaxExposure
	}
	return simulator.Config{
		Characteristics: chars,
		TimeScale:       c.Simulator.TimeScale,
		StartDelay:      c.Simulator.StartDelay,
		FailFrames:      append([]int(nil), c.Simulator.FailFrames...),
	}, nil
}
