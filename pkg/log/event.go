package log

import (
	"strings"
	"time"
)

// Event represents a capture trace event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// RunID identifies the controller instance that produced the event (UUID).
	RunID string `cbor:"2,keyasint"`

	// SessionID is the capture session the event belongs to (0 before the
	// first session).
	SessionID uint64 `cbor:"3,keyasint,omitempty"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Device identifies the camera (optional).
	Device string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	StateChange *StateChangeEvent `cbor:"10,keyasint,omitempty"`
	Frame       *FrameEvent       `cbor:"11,keyasint,omitempty"`
	Plan        *PlanEvent        `cbor:"12,keyasint,omitempty"`
	Config      *ConfigEvent      `cbor:"13,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryState indicates a session state change.
	CategoryState Category = 0
	// CategoryFrame indicates frame progress.
	CategoryFrame Category = 1
	// CategoryPlan indicates a computed capture plan.
	CategoryPlan Category = 2
	// CategoryConfig indicates parameters applied to the subsystem.
	CategoryConfig Category = 3
	// CategoryError indicates an error event.
	CategoryError Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryState:
		return "STATE"
	case CategoryFrame:
		return "FRAME"
	case CategoryPlan:
		return "PLAN"
	case CategoryConfig:
		return "CONFIG"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory parses a category name (case-insensitive).
func ParseCategory(s string) (Category, bool) {
	for _, c := range []Category{CategoryState, CategoryFrame, CategoryPlan, CategoryConfig, CategoryError} {
		if strings.EqualFold(c.String(), s) {
			return c, true
		}
	}
	return 0, false
}

// StateChangeEvent captures a session state transition or countdown tick.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Remaining is the countdown remaining after the change.
	Remaining int `cbor:"3,keyasint,omitempty"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// FrameEvent captures progress of a single frame.
type FrameEvent struct {
	// Type is the frame lifecycle step.
	Type FrameEventType `cbor:"1,keyasint"`

	// Index is the zero-based frame index within the plan.
	Index int `cbor:"2,keyasint"`

	// Count is the number of frames in the plan.
	Count int `cbor:"3,keyasint"`

	// Exposure is the frame exposure (nanoseconds).
	Exposure time.Duration `cbor:"4,keyasint,omitempty"`

	// Success is set on ended frames that succeeded.
	Success bool `cbor:"5,keyasint,omitempty"`

	// Error is the failure description for failed frames.
	Error string `cbor:"6,keyasint,omitempty"`
}

// FrameEventType is the lifecycle step of a frame.
type FrameEventType uint8

const (
	// FrameIssued indicates the capture command was sent.
	FrameIssued FrameEventType = 0
	// FrameStarted indicates the subsystem began exposing.
	FrameStarted FrameEventType = 1
	// FrameEnded indicates the subsystem finished the frame.
	FrameEnded FrameEventType = 2
)

// String returns the frame event type name.
func (f FrameEventType) String() string {
	switch f {
	case FrameIssued:
		return "ISSUED"
	case FrameStarted:
		return "STARTED"
	case FrameEnded:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

// PlanEvent captures the plan computed when a capture begins.
type PlanEvent struct {
	// FrameCount is the number of frames.
	FrameCount int `cbor:"1,keyasint"`

	// FrameExposure is the per-frame exposure.
	FrameExposure time.Duration `cbor:"2,keyasint"`

	// Total is the requested total exposure.
	Total time.Duration `cbor:"3,keyasint"`

	// Ceiling is the frame ceiling reported by the subsystem.
	Ceiling time.Duration `cbor:"4,keyasint"`

	// Policy is the stacking policy name.
	Policy string `cbor:"5,keyasint"`
}

// ConfigEvent captures the parameters forwarded to the subsystem.
type ConfigEvent struct {
	// AutoExposure is set when automatic metering was applied.
	AutoExposure bool `cbor:"1,keyasint,omitempty"`

	// Manual values; zero in auto mode.
	ISO           float64       `cbor:"2,keyasint,omitempty"`
	Exposure      time.Duration `cbor:"3,keyasint,omitempty"`
	FocusDistance float64       `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData captures errors.
type ErrorEventData struct {
	// Kind is a short error class (e.g. "FRAME_FAILED").
	Kind string `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
