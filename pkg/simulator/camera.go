package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cameraestellar/astrocam-go/pkg/capture"
	"github.com/cameraestellar/astrocam-go/pkg/device"
	"github.com/cameraestellar/astrocam-go/pkg/exposure"
)

// Simulator errors.
var (
	ErrSensorFault   = errors.New("sensor fault")
	ErrUnreachable   = errors.New("camera service unreachable")
	ErrNotConfigured = errors.New("camera not configured")
	ErrFrameInFlight = errors.New("frame already in flight")
	ErrNotBound      = errors.New("no event sink bound")
)

// AutoExposure is the frame time used when metering is automatic.
const AutoExposure = 33 * time.Millisecond

// Config configures a simulated Camera.
type Config struct {
	Characteristics device.Characteristics

	// TimeScale multiplies every frame exposure. Zero selects 1.
	TimeScale float64

	// StartDelay is the time between Capture and the started event.
	StartDelay time.Duration

	// FailFrames lists frame indices that end with ErrSensorFault.
	FailFrames []int

	// Logger is used for operational logging. Nil disables.
	Logger *slog.Logger
}

// DefaultCharacteristics is a phone main camera able to expose for 30 s.
func DefaultCharacteristics() device.Characteristics {
	return device.Characteristics{
		ID:            "sim-0",
		Facing:        device.FacingBack,
		HardwareLevel: device.LevelFull,
		ISORange:      exposure.Range{Lower: 50, Upper: 3200},
		ExposureRange: exposure.DurationRange{Lower: 10 * time.Microsecond, Upper: 30 * time.Second},
		SensorWidth:   6.4,
		ActiveWidth:   4000,
		ManualSensor:  true,
		Raw:           true,
	}
}

// Camera is a simulated imaging subsystem.
type Camera struct {
	config Config

	mu          sync.Mutex
	sink        capture.EventSink
	applied     *exposure.Applied
	restarts    int
	inFlight    bool
	unreachable bool
	fail        map[int]bool
	requests    []capture.FrameRequest
	previews    []exposure.PreviewSettings

	wg      sync.WaitGroup
	closing chan struct{}
	closed  bool
}

// New creates a Camera. Bind must be called before the first capture.
func New(config Config) *Camera {
	if config.TimeScale <= 0 {
		config.TimeScale = 1
	}
	if config.Characteristics.ID == "" {
		config.Characteristics = DefaultCharacteristics()
	}
	c := &Camera{
		config:  config,
		fail:    make(map[int]bool),
		closing: make(chan struct{}),
	}
	for _, i := range config.FailFrames {
		c.fail[i] = true
	}
	return c
}

// Bind sets the sink that receives frame events.
func (c *Camera) Bind(sink capture.EventSink) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
}

// Characteristics returns the simulated camera's characteristics.
func (c *Camera) Characteristics() device.Characteristics {
	return c.config.Characteristics
}

// Configure applies cfg. A change between automatic and manual metering
// recreates the capture session.
func (c *Camera) Configure(ctx context.Context, cfg exposure.Applied) (exposure.Capability, error) {
	if err := ctx.Err(); err != nil {
		return exposure.Capability{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.unreachable {
		return exposure.Capability{}, ErrUnreachable
	}

	capability := c.config.Characteristics.Capability()
	if cfg.IsManual() {
		if !capability.SupportsManual {
			return exposure.Capability{}, fmt.Errorf("%s: manual sensor control not supported", c.config.Characteristics.ID)
		}
		m := *cfg.Manual
		m.ISO = capability.ClampISO(m.ISO)
		m.Exposure = capability.ClampExposure(m.Exposure)
		cfg.Manual = &m
	}

	if c.applied != nil && c.applied.AutoExposure != cfg.AutoExposure {
		c.restarts++
		c.debugLog("capture session recreated", "auto", cfg.AutoExposure)
	}
	c.applied = &cfg
	return capability, nil
}

// Capture starts one frame.
func (c *Camera) Capture(ctx context.Context, req capture.FrameRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		return ErrUnreachable
	case c.unreachable:
		return ErrUnreachable
	case c.sink == nil:
		return ErrNotBound
	case c.applied == nil:
		return ErrNotConfigured
	case c.inFlight:
		return ErrFrameInFlight
	}

	c.inFlight = true
	c.requests = append(c.requests, req)
	fail := c.fail[req.Tag.Frame]
	sink := c.sink

	d := AutoExposure
	if c.applied.IsManual() {
		d = c.config.Characteristics.Capability().ClampExposure(req.Exposure)
	}
	d = time.Duration(float64(d) * c.config.TimeScale)

	c.wg.Add(1)
	go c.run(ctx, sink, req.Tag, d, fail)
	return nil
}

func (c *Camera) run(ctx context.Context, sink capture.EventSink, tag capture.FrameTag, d time.Duration, fail bool) {
	defer c.wg.Done()

	if !c.sleep(ctx, c.config.StartDelay) {
		c.finish()
		return
	}
	sink.Post(capture.Started(tag))

	var err error
	if !c.sleep(ctx, d) {
		err = context.Canceled
	} else if fail {
		err = ErrSensorFault
	}
	c.finish()
	sink.Post(capture.Ended(tag, err))
}

func (c *Camera) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-c.closing:
		return false
	}
}

func (c *Camera) finish() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

// ApplyPreview records the viewfinder settings.
func (c *Camera) ApplyPreview(ctx context.Context, settings exposure.PreviewSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unreachable {
		return ErrUnreachable
	}
	c.previews = append(c.previews, settings)
	return nil
}

// SimulateUnreachable makes every call fail with ErrUnreachable.
func (c *Camera) SimulateUnreachable(unreachable bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unreachable = unreachable
}

// SimulateFrameFailure makes frame index end with ErrSensorFault.
func (c *Camera) SimulateFrameFailure(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail[index] = true
}

// ClearFailures removes every injected frame failure.
func (c *Camera) ClearFailures() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = make(map[int]bool)
}

// Applied returns the last applied configuration, after device clamping.
func (c *Camera) Applied() (exposure.Applied, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.applied == nil {
		return exposure.Applied{}, false
	}
	return *c.applied, true
}

// SessionRestarts counts capture sessions recreated by mode switches.
func (c *Camera) SessionRestarts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.restarts
}

// Requests returns the frame requests received so far.
func (c *Camera) Requests() []capture.FrameRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]capture.FrameRequest(nil), c.requests...)
}

// Previews returns the preview settings received so far.
func (c *Camera) Previews() []exposure.PreviewSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]exposure.PreviewSettings(nil), c.previews...)
}

// Close aborts running frames and waits for their goroutines.
func (c *Camera) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.closing)
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

func (c *Camera) debugLog(msg string, args ...any) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, args...)
	}
}

var (
	_ capture.Adapter        = (*Camera)(nil)
	_ capture.PreviewAdapter = (*Camera)(nil)
)
