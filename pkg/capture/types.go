package capture

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cameraestellar/astrocam-go/pkg/exposure"
	"github.com/cameraestellar/astrocam-go/pkg/log"
	"github.com/cameraestellar/astrocam-go/pkg/plan"
)

// Controller errors.
var (
	ErrSessionBusy        = errors.New("capture session busy")
	ErrAdapterUnreachable = errors.New("imaging subsystem unreachable")
	ErrFrameFailed        = errors.New("frame failed")
	ErrTimeout            = errors.New("capture timed out")
	ErrInvalidDelay       = errors.New("invalid countdown delay")
	ErrClosed             = errors.New("controller closed")
	ErrInvalidConfig      = errors.New("invalid configuration")

	// ErrInvalidCapability is returned when the adapter reports a
	// non-positive frame ceiling.
	ErrInvalidCapability = plan.ErrInvalidCapability
)

// State is the capture session state.
type State uint8

const (
	// StateIdle - ready to accept a capture request.
	StateIdle State = iota

	// StateCountingDown - waiting for the shutter timer.
	StateCountingDown

	// StateCapturing - frames are being issued to the adapter.
	StateCapturing

	// StateCompleted - every frame succeeded. Transient.
	StateCompleted

	// StateFailed - the session was aborted. Transient.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateCountingDown:
		return "COUNTING_DOWN"
	case StateCapturing:
		return "CAPTURING"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Busy reports whether a session is in progress.
func (s State) Busy() bool {
	return s == StateCountingDown || s == StateCapturing
}

// FrameTag identifies one issued frame. Adapters echo it in their events.
type FrameTag struct {
	Session uint64
	Frame   int
}

// FrameRequest is passed to Adapter.Capture.
type FrameRequest struct {
	Tag FrameTag

	// Count is the number of frames in the plan.
	Count int

	// Exposure is the per-frame exposure; zero when metering is automatic.
	Exposure time.Duration
}

// EventKind distinguishes adapter events.
type EventKind uint8

const (
	// EventCaptureStarted - the sensor began exposing. Advisory only.
	EventCaptureStarted EventKind = iota

	// EventCaptureEnded - the frame finished; Err is set on failure.
	EventCaptureEnded
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventCaptureStarted:
		return "STARTED"
	case EventCaptureEnded:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

// Event is an asynchronous report from the imaging subsystem.
type Event struct {
	Kind EventKind
	Tag  FrameTag
	Err  error
}

// Started returns the started event for tag.
func Started(tag FrameTag) Event {
	return Event{Kind: EventCaptureStarted, Tag: tag}
}

// Ended returns the ended event for tag. A nil err means success.
func Ended(tag FrameTag, err error) Event {
	return Event{Kind: EventCaptureEnded, Tag: tag, Err: err}
}

// EventSink receives adapter events. Controller implements it.
type EventSink interface {
	Post(Event)
}

// Adapter is the imaging subsystem as seen by the controller.
type Adapter interface {
	// Configure applies cfg, recreating the camera session if the exposure
	// mode changed, and reports what the subsystem can do.
	Configure(ctx context.Context, cfg exposure.Applied) (exposure.Capability, error)

	// Capture starts one frame and returns without waiting for it.
	Capture(ctx context.Context, req FrameRequest) error
}

// PreviewAdapter is implemented by adapters with a live viewfinder.
type PreviewAdapter interface {
	ApplyPreview(ctx context.Context, settings exposure.PreviewSettings) error
}

// Snapshot is a read-only copy of the session.
type Snapshot struct {
	SessionID          uint64
	State              State
	RemainingCountdown int

	// Plan is the plan of the current or last session; nil before the first
	// capture or when configuration failed.
	Plan *plan.Plan

	FramesIssued    int
	FramesCompleted int

	// Exposing is set between a frame's started and ended events.
	Exposing bool

	// LastError is the failure of the last session, cleared when a new
	// session starts.
	LastError error

	Config exposure.Config
}

// Change describes one state transition or countdown tick.
type Change struct {
	Session   uint64
	Old       State
	New       State
	Remaining int
	Plan      *plan.Plan
	Err       error
}

// FrameEvent reports progress of a single frame to listeners.
type FrameEvent struct {
	Kind  EventKind
	Tag   FrameTag
	Count int
	Err   error
}

// Config configures a Controller.
type Config struct {
	// Adapter is the imaging subsystem. Required.
	Adapter Adapter

	// Store holds the exposure parameters. Nil creates a store with
	// exposure.DefaultConfig().
	Store *exposure.Store

	// Calculator decides how exposures past the frame ceiling are planned.
	Calculator plan.Calculator

	// CountdownInterval is the time between countdown ticks.
	CountdownInterval time.Duration

	// FrameOverhead is added to every frame's exposure in the timeout bound.
	FrameOverhead time.Duration

	// TimeoutMargin is added once to the timeout bound.
	TimeoutMargin time.Duration

	// ConfigureTimeout bounds each Adapter.Configure call.
	ConfigureTimeout time.Duration

	// Device names the camera in trace events (optional).
	Device string

	// Logger is used for operational logging. Nil disables.
	Logger *slog.Logger

	// Trace receives capture trace events. Nil disables.
	Trace log.Logger
}

// DefaultConfig returns a Config with sensible defaults. Adapter must still
// be set.
func DefaultConfig() Config {
	return Config{
		Calculator:        plan.Calculator{Policy: plan.PolicyStack},
		CountdownInterval: time.Second,
		FrameOverhead:     500 * time.Millisecond,
		TimeoutMargin:     10 * time.Second,
		ConfigureTimeout:  5 * time.Second,
	}
}

// Validate checks if the config is valid.
func (c *Config) Validate() error {
	if c.Adapter == nil {
		return ErrInvalidConfig
	}
	if c.CountdownInterval < 0 || c.FrameOverhead < 0 || c.TimeoutMargin < 0 || c.ConfigureTimeout < 0 {
		return ErrInvalidConfig
	}
	if c.Calculator.MaxFrames < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// errorKind classifies err for trace events.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrFrameFailed):
		return "FRAME_FAILED"
	case errors.Is(err, ErrAdapterUnreachable):
		return "ADAPTER_UNREACHABLE"
	case errors.Is(err, ErrInvalidCapability):
		return "INVALID_CAPABILITY"
	default:
		return "PLAN"
	}
}
