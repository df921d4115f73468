package plan

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func TestCalculateSingleFrame(t *testing.T) {
	tests := []struct {
		name    string
		total   time.Duration
		ceiling time.Duration
	}{
		{"WellBelow", 50 * time.Millisecond, 150 * time.Millisecond},
		{"Equal", 150 * time.Millisecond, 150 * time.Millisecond},
		{"Minimum", time.Millisecond, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Calculate(tt.total, tt.ceiling)
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			if p.FrameCount != 1 {
				t.Errorf("FrameCount = %d, want 1", p.FrameCount)
			}
			if p.FrameExposure != tt.total {
				t.Errorf("FrameExposure = %v, want %v", p.FrameExposure, tt.total)
			}
			if p.Stacked() {
				t.Error("Stacked() = true for a single frame")
			}
		})
	}
}

func TestCalculateStacking(t *testing.T) {
	tests := []struct {
		name       string
		total      time.Duration
		ceiling    time.Duration
		wantFrames int
		wantFrame  time.Duration
	}{
		{"ThirtySecondsAtPointFifteen", 30 * time.Second, 150 * time.Millisecond, 200, 150 * time.Millisecond},
		{"UnevenSplit", time.Second, 300 * time.Millisecond, 4, 250 * time.Millisecond},
		{"JustOver", 151 * time.Millisecond, 150 * time.Millisecond, 2, 75500 * time.Microsecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Calculate(tt.total, tt.ceiling)
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			if p.FrameCount != tt.wantFrames {
				t.Errorf("FrameCount = %d, want %d", p.FrameCount, tt.wantFrames)
			}
			if p.FrameExposure != tt.wantFrame {
				t.Errorf("FrameExposure = %v, want %v", p.FrameExposure, tt.wantFrame)
			}
		})
	}
}

func TestCalculateProperties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		ceiling := time.Duration(r.Int63n(int64(2*time.Second))) + time.Microsecond
		total := time.Duration(r.Int63n(int64(30*time.Second))) + time.Microsecond

		p, err := Calculate(total, ceiling)
		if err != nil {
			t.Fatalf("Calculate(%v, %v) error = %v", total, ceiling, err)
		}

		if total <= ceiling {
			if p.FrameCount != 1 || p.FrameExposure != total {
				t.Fatalf("Calculate(%v, %v) = %v, want single frame", total, ceiling, p)
			}
			continue
		}

		wantFrames := int((total + ceiling - 1) / ceiling)
		if p.FrameCount != wantFrames {
			t.Fatalf("Calculate(%v, %v) frames = %d, want %d", total, ceiling, p.FrameCount, wantFrames)
		}
		if p.FrameExposure > ceiling {
			t.Fatalf("Calculate(%v, %v) frame %v exceeds ceiling", total, ceiling, p.FrameExposure)
		}
		// Within one nanosecond step per frame.
		diff := total - p.Captured()
		if diff < 0 || diff >= time.Duration(p.FrameCount) {
			t.Fatalf("Calculate(%v, %v) captured %v, off by %v", total, ceiling, p.Captured(), diff)
		}
	}
}

func TestCalculateInvalidCapability(t *testing.T) {
	for _, ceiling := range []time.Duration{0, -time.Second} {
		for _, total := range []time.Duration{time.Millisecond, 30 * time.Second, 0} {
			_, err := Calculate(total, ceiling)
			if !errors.Is(err, ErrInvalidCapability) {
				t.Errorf("Calculate(%v, %v) error = %v, want ErrInvalidCapability", total, ceiling, err)
			}
		}
	}
}

func TestCalculateInvalidExposure(t *testing.T) {
	_, err := Calculate(0, time.Second)
	if !errors.Is(err, ErrInvalidExposure) {
		t.Errorf("Calculate(0, 1s) error = %v, want ErrInvalidExposure", err)
	}
}

func TestCalculatorPolicies(t *testing.T) {
	total := 30 * time.Second
	ceiling := 150 * time.Millisecond

	tests := []struct {
		policy     Policy
		wantFrames int
		wantFrame  time.Duration
	}{
		{PolicyStack, 200, 150 * time.Millisecond},
		{PolicyClamp, 1, 150 * time.Millisecond},
		{PolicyHonorRequest, 1, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			p, err := Calculator{Policy: tt.policy}.Plan(total, ceiling)
			if err != nil {
				t.Fatalf("Plan() error = %v", err)
			}
			if p.FrameCount != tt.wantFrames || p.FrameExposure != tt.wantFrame {
				t.Errorf("Plan() = %v, want %d x %v", p, tt.wantFrames, tt.wantFrame)
			}
			if p.Policy != tt.policy {
				t.Errorf("Policy = %v, want %v", p.Policy, tt.policy)
			}
			if p.Total != total {
				t.Errorf("Total = %v, want %v", p.Total, total)
			}
		})
	}
}

func TestCalculatorRejectsInvalidCapabilityForAllPolicies(t *testing.T) {
	for _, policy := range []Policy{PolicyStack, PolicyClamp, PolicyHonorRequest} {
		_, err := Calculator{Policy: policy}.Plan(time.Second, 0)
		if !errors.Is(err, ErrInvalidCapability) {
			t.Errorf("%v: error = %v, want ErrInvalidCapability", policy, err)
		}
	}
}

func TestCalculatorMaxFrames(t *testing.T) {
	c := Calculator{Policy: PolicyStack, MaxFrames: 100}

	_, err := c.Plan(30*time.Second, 150*time.Millisecond)
	if !errors.Is(err, ErrTooManyFrames) {
		t.Errorf("Plan() error = %v, want ErrTooManyFrames", err)
	}

	p, err := c.Plan(15*time.Second, 150*time.Millisecond)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if p.FrameCount != 100 {
		t.Errorf("FrameCount = %d, want 100", p.FrameCount)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"stack", PolicyStack, false},
		{"", PolicyStack, false},
		{"CLAMP", PolicyClamp, false},
		{"honor", PolicyHonorRequest, false},
		{"raw", PolicyHonorRequest, false},
		{"bogus", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParsePolicy(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPolicyString(t *testing.T) {
	tests := []struct {
		p    Policy
		want string
	}{
		{PolicyStack, "stack"},
		{PolicyClamp, "clamp"},
		{PolicyHonorRequest, "honor"},
		{Policy(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
