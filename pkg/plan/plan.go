package plan

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Plan errors.
var (
	ErrInvalidCapability = errors.New("invalid capability: frame ceiling must be positive")
	ErrInvalidExposure   = errors.New("invalid exposure: total must be positive")
	ErrTooManyFrames     = errors.New("plan exceeds maximum frame count")
	ErrUnknownPolicy     = errors.New("unknown stacking policy")
)

// Policy selects how requests beyond the frame ceiling are handled.
type Policy uint8

const (
	// PolicyStack splits the request into equal frames under the ceiling.
	PolicyStack Policy = iota

	// PolicyClamp takes one frame, shortened to the ceiling.
	PolicyClamp

	// PolicyHonorRequest takes one frame of the raw request, even past the
	// ceiling. The adapter decides what the hardware actually does.
	PolicyHonorRequest
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicyStack:
		return "stack"
	case PolicyClamp:
		return "clamp"
	case PolicyHonorRequest:
		return "honor"
	default:
		return "unknown"
	}
}

// ParsePolicy parses a policy name as produced by String.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stack", "":
		return PolicyStack, nil
	case "clamp":
		return PolicyClamp, nil
	case "honor", "honor-request", "raw":
		return PolicyHonorRequest, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(b []byte) error {
	v, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Plan describes the frames to capture for one request.
type Plan struct {
	// FrameExposure is the exposure of every frame.
	FrameExposure time.Duration `json:"frame_exposure"`

	// FrameCount is the number of frames, at least 1.
	FrameCount int `json:"frame_count"`

	// Total is the requested total exposure.
	Total time.Duration `json:"total"`

	// Policy is the policy the plan was computed under.
	Policy Policy `json:"policy"`
}

// Stacked reports whether the plan has more than one frame.
func (p Plan) Stacked() bool {
	return p.FrameCount > 1
}

// Captured returns the total exposure the plan will actually record.
func (p Plan) Captured() time.Duration {
	return p.FrameExposure * time.Duration(p.FrameCount)
}

// String returns a compact description for logs.
func (p Plan) String() string {
	return fmt.Sprintf("%d x %v (%s)", p.FrameCount, p.FrameExposure, p.Policy)
}

// Calculate computes a stacking plan for total under ceiling.
func Calculate(total, ceiling time.Duration) (Plan, error) {
	if ceiling <= 0 {
		return Plan{}, ErrInvalidCapability
	}
	if total <= 0 {
		return Plan{}, ErrInvalidExposure
	}

	if total <= ceiling {
		return Plan{FrameExposure: total, FrameCount: 1, Total: total, Policy: PolicyStack}, nil
	}

	frames := (total + ceiling - 1) / ceiling
	return Plan{
		FrameExposure: total / frames,
		FrameCount:    int(frames),
		Total:         total,
		Policy:        PolicyStack,
	}, nil
}

// Calculator computes plans under a fixed policy.
// The zero value stacks without a frame limit.
type Calculator struct {
	// Policy selects the behavior past the ceiling.
	Policy Policy

	// MaxFrames rejects stacking plans with more frames (0 = unlimited).
	MaxFrames int
}

// Plan computes a plan for total under ceiling according to c.Policy.
func (c Calculator) Plan(total, ceiling time.Duration) (Plan, error) {
	if ceiling <= 0 {
		return Plan{}, ErrInvalidCapability
	}
	if total <= 0 {
		return Plan{}, ErrInvalidExposure
	}

	switch c.Policy {
	case PolicyStack:
		p, err := Calculate(total, ceiling)
		if err != nil {
			return Plan{}, err
		}
		if c.MaxFrames > 0 && p.FrameCount > c.MaxFrames {
			return Plan{}, fmt.Errorf("%w: %d > %d", ErrTooManyFrames, p.FrameCount, c.MaxFrames)
		}
		return p, nil

	case PolicyClamp:
		frame := total
		if frame > ceiling {
			frame = ceiling
		}
		return Plan{FrameExposure: frame, FrameCount: 1, Total: total, Policy: PolicyClamp}, nil

	case PolicyHonorRequest:
		return Plan{FrameExposure: total, FrameCount: 1, Total: total, Policy: PolicyHonorRequest}, nil

	default:
		return Plan{}, fmt.Errorf("%w: %d", ErrUnknownPolicy, c.Policy)
	}
}
