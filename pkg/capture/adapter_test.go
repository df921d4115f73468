package capture_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cameraestellar/astrocam-go/pkg/capture"
	"github.com/cameraestellar/astrocam-go/pkg/capture/mocks"
	"github.com/cameraestellar/astrocam-go/pkg/exposure"
	"github.com/cameraestellar/astrocam-go/pkg/log"
)

var errLink = errors.New("camera service disconnected")

func newMockController(t *testing.T, adapter *mocks.MockAdapter, trace log.Logger) *capture.Controller {
	t.Helper()
	cfg := capture.DefaultConfig()
	cfg.Adapter = adapter
	cfg.Trace = trace
	cfg.Device = "mock"
	c, err := capture.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestConfigureErrorIsAdapterUnreachable(t *testing.T) {
	adapter := mocks.NewMockAdapter(t)
	adapter.EXPECT().Configure(mock.Anything, mock.Anything).Return(exposure.Capability{}, errLink).Once()

	c := newMockController(t, adapter, nil)
	require.NoError(t, c.RequestCapture(0))

	snap := c.Snapshot()
	assert.Equal(t, capture.StateIdle, snap.State)
	assert.ErrorIs(t, snap.LastError, capture.ErrAdapterUnreachable)
	assert.ErrorIs(t, snap.LastError, errLink)
	assert.Zero(t, snap.FramesIssued)
}

func TestCaptureErrorIsAdapterUnreachable(t *testing.T) {
	adapter := mocks.NewMockAdapter(t)
	adapter.EXPECT().Configure(mock.Anything, mock.Anything).
		Return(exposure.Capability{MaxFrameExposure: time.Second}, nil).Once()
	adapter.EXPECT().Capture(mock.Anything, mock.Anything).Return(errLink).Once()

	c := newMockController(t, adapter, nil)
	require.NoError(t, c.RequestCapture(0))

	snap := c.Snapshot()
	assert.Equal(t, capture.StateIdle, snap.State)
	assert.ErrorIs(t, snap.LastError, capture.ErrAdapterUnreachable)
	assert.Equal(t, 1, snap.FramesIssued)
}

func TestConfigureReceivesManualParameters(t *testing.T) {
	adapter := mocks.NewMockAdapter(t)
	adapter.EXPECT().Configure(mock.Anything, mock.MatchedBy(func(a exposure.Applied) bool {
		return a.IsManual() && a.Manual.ISO == 3200 && a.Manual.Exposure == 30*time.Second && a.Manual.FocusDistance == 0
	})).Return(exposure.Capability{MaxFrameExposure: 10 * time.Second}, nil).Once()
	adapter.EXPECT().Capture(mock.Anything, mock.MatchedBy(func(r capture.FrameRequest) bool {
		return r.Count == 3 && r.Exposure == 10*time.Second && r.Tag.Frame == 0
	})).Return(nil).Once()

	c := newMockController(t, adapter, nil)
	c.SetISO(6400)
	c.SetExposureSeconds(30)

	require.NoError(t, c.RequestCapture(0))
	assert.Equal(t, capture.StateCapturing, c.State())
	assert.Equal(t, 10*time.Second, c.Capability().MaxFrameExposure)
}

func TestAutoExposureHidesManualParameters(t *testing.T) {
	adapter := mocks.NewMockAdapter(t)
	adapter.EXPECT().Configure(mock.Anything, exposure.Applied{AutoExposure: true}).
		Return(exposure.Capability{MaxFrameExposure: time.Second}, nil).Once()
	adapter.EXPECT().Capture(mock.Anything, mock.Anything).Return(nil).Once()

	c := newMockController(t, adapter, nil)
	require.NoError(t, c.SetAutoExposure(true))
	require.NoError(t, c.RequestCapture(0))
}

func TestTraceRecordsSession(t *testing.T) {
	adapter := mocks.NewMockAdapter(t)
	adapter.EXPECT().Configure(mock.Anything, mock.Anything).
		Return(exposure.Capability{MaxFrameExposure: 50 * time.Millisecond}, nil).Once()

	var c *capture.Controller
	adapter.EXPECT().Capture(mock.Anything, mock.Anything).
		RunAndReturn(func(_ context.Context, req capture.FrameRequest) error {
			c.Post(capture.Started(req.Tag))
			c.Post(capture.Ended(req.Tag, nil))
			return nil
		}).Times(2)

	trace := &traceRecorder{}
	c = newMockController(t, adapter, trace)
	c.SetExposureSeconds(0.1)

	require.NoError(t, c.RequestCapture(0))
	require.Equal(t, capture.StateIdle, c.State())

	counts := map[log.Category]int{}
	for _, e := range trace.events {
		counts[e.Category]++
		assert.Equal(t, c.RunID(), e.RunID)
		assert.Equal(t, uint64(1), e.SessionID)
		assert.Equal(t, "mock", e.Device)
	}
	assert.Equal(t, 3, counts[log.CategoryState], "capturing, completed, idle")
	assert.Equal(t, 1, counts[log.CategoryConfig])
	assert.Equal(t, 1, counts[log.CategoryPlan])
	assert.Equal(t, 6, counts[log.CategoryFrame], "2 x issued, started, ended")
	assert.Zero(t, counts[log.CategoryError])

	var planEvent *log.PlanEvent
	for _, e := range trace.events {
		if e.Plan != nil {
			planEvent = e.Plan
		}
	}
	require.NotNil(t, planEvent)
	assert.Equal(t, 2, planEvent.FrameCount)
	assert.Equal(t, "stack", planEvent.Policy)
}

// traceRecorder is only written from the goroutine driving the controller.
type traceRecorder struct {
	events []log.Event
}

func (r *traceRecorder) Log(e log.Event) {
	r.events = append(r.events, e)
}
