package remote

import (
	"context"
	"time"

	"github.com/cameraestellar/astrocam-go/pkg/capture"
	"github.com/cameraestellar/astrocam-go/pkg/exposure"
	"github.com/cameraestellar/astrocam-go/pkg/plan"
)

// Controller is the part of capture.Controller the API drives.
type Controller interface {
	RunID() string
	Snapshot() capture.Snapshot
	SetISO(iso float64) float64
	SetExposureSeconds(sec float64) time.Duration
	SetFocusDistance(f float64) float64
	SetAutoExposure(auto bool) error
	StartCapture(ctx context.Context, delaySeconds int) (uint64, error)
	Cancel()
}

var _ Controller = (*capture.Controller)(nil)

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	RunID   string `json:"run_id"`
}

// ExposureView is the JSON form of exposure.Config.
type ExposureView struct {
	ISO             float64 `json:"iso"`
	ExposureSeconds float64 `json:"exposure_seconds"`
	FocusDistance   float64 `json:"focus_distance"`
	AutoExposure    bool    `json:"auto_exposure"`
}

func exposureView(c exposure.Config) ExposureView {
	return ExposureView{
		ISO:             c.ISO,
		ExposureSeconds: c.Exposure.Seconds(),
		FocusDistance:   c.FocusDistance,
		AutoExposure:    c.AutoExposure,
	}
}

// ExposureUpdate is the body of PUT /exposure. Absent fields are unchanged.
type ExposureUpdate struct {
	ISO             *float64 `json:"iso,omitempty"`
	ExposureSeconds *float64 `json:"exposure_seconds,omitempty"`
	FocusDistance   *float64 `json:"focus_distance,omitempty"`
	AutoExposure    *bool    `json:"auto_exposure,omitempty"`
}

func (u ExposureUpdate) empty() bool {
	return u.ISO == nil && u.ExposureSeconds == nil && u.FocusDistance == nil && u.AutoExposure == nil
}

// PlanView is the JSON form of plan.Plan.
type PlanView struct {
	FrameCount           int     `json:"frame_count"`
	FrameExposureSeconds float64 `json:"frame_exposure_seconds"`
	TotalSeconds         float64 `json:"total_seconds"`
	Policy               string  `json:"policy"`
}

// SessionView is the JSON form of capture.Snapshot.
type SessionView struct {
	SessionID          uint64       `json:"session_id"`
	State              string       `json:"state"`
	RemainingCountdown int          `json:"remaining_countdown"`
	Plan               *PlanView    `json:"plan,omitempty"`
	FramesIssued       int          `json:"frames_issued"`
	FramesCompleted    int          `json:"frames_completed"`
	Exposing           bool         `json:"exposing"`
	LastError          string       `json:"last_error,omitempty"`
	Exposure           ExposureView `json:"exposure"`
}

func sessionView(s capture.Snapshot) SessionView {
	v := SessionView{
		SessionID:          s.SessionID,
		State:              s.State.String(),
		RemainingCountdown: s.RemainingCountdown,
		FramesIssued:       s.FramesIssued,
		FramesCompleted:    s.FramesCompleted,
		Exposing:           s.Exposing,
		Exposure:           exposureView(s.Config),
	}
	if s.Plan != nil {
		v.Plan = planView(*s.Plan)
	}
	if s.LastError != nil {
		v.LastError = s.LastError.Error()
	}
	return v
}

func planView(p plan.Plan) *PlanView {
	return &PlanView{
		FrameCount:           p.FrameCount,
		FrameExposureSeconds: p.FrameExposure.Seconds(),
		TotalSeconds:         p.Total.Seconds(),
		Policy:               p.Policy.String(),
	}
}

// CaptureRequest is the body of POST /capture.
type CaptureRequest struct {
	DelaySeconds int `json:"delay_seconds"`
}

// AcceptedResponse answers accepted asynchronous requests. For a capture,
// SessionID is the session the request started and State the state it
// entered.
type AcceptedResponse struct {
	SessionID uint64 `json:"session_id"`
	State     string `json:"state"`
}
