package preview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameraestellar/astrocam-go/pkg/capture"
	"github.com/cameraestellar/astrocam-go/pkg/exposure"
)

type fakeTarget struct {
	mu      sync.Mutex
	applied []exposure.PreviewSettings
	err     error
}

func (f *fakeTarget) ApplyPreview(_ context.Context, s exposure.PreviewSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.applied = append(f.applied, s)
	return nil
}

func (f *fakeTarget) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.applied)
}

func (f *fakeTarget) lastApplied() exposure.PreviewSettings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applied[len(f.applied)-1]
}

type fakeSession struct {
	mu        sync.Mutex
	state     capture.State
	listeners []func(capture.Change)
}

func (f *fakeSession) WhenIdle(fn func()) bool {
	f.mu.Lock()
	idle := f.state == capture.StateIdle
	f.mu.Unlock()
	if idle {
		fn()
	}
	return true
}

func (f *fakeSession) OnStateChange(fn func(capture.Change)) {
	f.listeners = append(f.listeners, fn)
}

func (f *fakeSession) set(s capture.State) {
	f.mu.Lock()
	old := f.state
	f.state = s
	f.mu.Unlock()
	for _, fn := range f.listeners {
		fn(capture.Change{Old: old, New: s})
	}
}

func TestDebouncerCoalescesBurst(t *testing.T) {
	store := exposure.NewStore(exposure.DefaultConfig())
	target := &fakeTarget{}
	d := New(store, target, nil, Config{Delay: 20 * time.Millisecond})
	defer d.Close()

	for i := 0; i < 10; i++ {
		store.SetISO(float64(100 + i*100))
	}

	require.Eventually(t, func() bool { return target.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, 1, target.count())
	assert.Equal(t, 1000.0, target.lastApplied().Applied.Manual.ISO)
	assert.Equal(t, 1, d.Applied())
}

func TestDebouncerCapsPreviewExposure(t *testing.T) {
	store := exposure.NewStore(exposure.DefaultConfig())
	target := &fakeTarget{}
	d := New(store, target, nil, Config{Delay: 5 * time.Millisecond})
	defer d.Close()

	store.SetExposureSeconds(20)
	require.Eventually(t, func() bool { return target.count() == 1 }, time.Second, 5*time.Millisecond)

	got := target.lastApplied()
	require.True(t, got.Applied.IsManual())
	assert.Equal(t, exposure.MaxPreviewExposure, got.Applied.Manual.Exposure)
	assert.Equal(t, 20*time.Second, store.Exposure())
}

func TestDebouncerSkipsUnchangedPreview(t *testing.T) {
	store := exposure.NewStore(exposure.DefaultConfig())
	target := &fakeTarget{}
	d := New(store, target, nil, Config{Delay: 5 * time.Millisecond})
	defer d.Close()

	store.SetExposureSeconds(10)
	require.Eventually(t, func() bool { return target.count() == 1 }, time.Second, 5*time.Millisecond)

	// Both exceed the preview cap, so the viewfinder does not change.
	store.SetExposureSeconds(20)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 1, target.count())
}

func TestDebouncerWithheldDuringCapture(t *testing.T) {
	store := exposure.NewStore(exposure.DefaultConfig())
	target := &fakeTarget{}
	session := &fakeSession{state: capture.StateCapturing}
	d := New(store, target, session, Config{Delay: 5 * time.Millisecond})
	defer d.Close()

	store.SetISO(1600)
	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, target.count())

	session.set(capture.StateIdle)
	require.Eventually(t, func() bool { return target.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1600.0, target.lastApplied().Applied.Manual.ISO)
}

func TestDebouncerAutoModeHidesManual(t *testing.T) {
	store := exposure.NewStore(exposure.DefaultConfig())
	target := &fakeTarget{}
	d := New(store, target, nil, Config{Delay: 5 * time.Millisecond})
	defer d.Close()

	store.SetAutoExposure(true)
	require.Eventually(t, func() bool { return target.count() == 1 }, time.Second, 5*time.Millisecond)

	got := target.lastApplied()
	assert.True(t, got.Applied.AutoExposure)
	assert.Nil(t, got.Applied.Manual)
}

func TestDebouncerFlush(t *testing.T) {
	store := exposure.NewStore(exposure.DefaultConfig())
	target := &fakeTarget{}
	d := New(store, target, nil, Config{Delay: time.Hour})
	defer d.Close()

	require.NoError(t, d.Flush())
	assert.Equal(t, 1, target.count())

	require.NoError(t, d.Flush())
	assert.Equal(t, 2, target.count(), "Flush resends even if unchanged")
}

func TestDebouncerApplyErrorKeepsDirty(t *testing.T) {
	store := exposure.NewStore(exposure.DefaultConfig())
	target := &fakeTarget{err: errors.New("session closed")}
	d := New(store, target, nil, Config{Delay: time.Hour})
	defer d.Close()

	assert.Error(t, d.Flush())
	assert.Zero(t, d.Applied())

	target.mu.Lock()
	target.err = nil
	target.mu.Unlock()

	require.NoError(t, d.Flush())
	assert.Equal(t, 1, d.Applied())
}

func TestDebouncerClosedIgnoresChanges(t *testing.T) {
	store := exposure.NewStore(exposure.DefaultConfig())
	target := &fakeTarget{}
	d := New(store, target, nil, Config{Delay: 5 * time.Millisecond})
	d.Close()

	store.SetISO(200)
	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, target.count())
}

// viewfinder is a camera that notes whether Configure ever ran while a
// preview was being applied.
type viewfinder struct {
	mu         sync.Mutex
	previewing bool
	overlapped bool
	started    chan struct{}
	configured chan struct{}
}

func (v *viewfinder) ApplyPreview(context.Context, exposure.PreviewSettings) error {
	v.mu.Lock()
	v.previewing = true
	v.mu.Unlock()
	close(v.started)

	time.Sleep(30 * time.Millisecond)

	v.mu.Lock()
	v.previewing = false
	v.mu.Unlock()
	return nil
}

func (v *viewfinder) Configure(context.Context, exposure.Applied) (exposure.Capability, error) {
	v.mu.Lock()
	v.overlapped = v.overlapped || v.previewing
	v.mu.Unlock()
	close(v.configured)
	return exposure.Capability{MaxFrameExposure: time.Second, SupportsManual: true}, nil
}

func (v *viewfinder) Capture(context.Context, capture.FrameRequest) error { return nil }

func TestDebouncerPreviewDoesNotOverlapCapture(t *testing.T) {
	cam := &viewfinder{started: make(chan struct{}), configured: make(chan struct{})}
	cfg := capture.DefaultConfig()
	cfg.Adapter = cam
	ctrl, err := capture.New(cfg)
	require.NoError(t, err)
	defer ctrl.Close()

	d := New(ctrl.Store(), cam, ctrl, Config{Delay: time.Hour})
	defer d.Close()

	go func() { _ = d.Flush() }()
	<-cam.started

	// The request lands while ApplyPreview is running.
	require.NoError(t, ctrl.RequestCapture(0))

	select {
	case <-cam.configured:
	case <-time.After(time.Second):
		t.Fatal("capture never configured")
	}
	cam.mu.Lock()
	defer cam.mu.Unlock()
	assert.False(t, cam.overlapped, "Configure ran during ApplyPreview")
	assert.Equal(t, 1, d.Applied())
}
