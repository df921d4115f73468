package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameraestellar/astrocam-go/internal/config"
	"github.com/cameraestellar/astrocam-go/pkg/capture"
	tracelog "github.com/cameraestellar/astrocam-go/pkg/log"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	c := config.Default()
	c.Capture.CountdownInterval = 10 * time.Millisecond
	c.Simulator.MaxExposure = time.Second
	c.Simulator.TimeScale = 0.001
	c.Trace.Path = filepath.Join(t.TempDir(), "run.clog")
	return c
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"10", 10 * time.Second, false},
		{"0.5", 500 * time.Millisecond, false},
		{"1m30s", 90 * time.Second, false},
		{" 250ms ", 250 * time.Millisecond, false},
		{"-1", 0, true},
		{"-2s", 0, true},
		{"soon", 0, true},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRunCaptureWritesTrace(t *testing.T) {
	c := testConfig(t)
	rt, err := newRuntime(c, setupLogging("error"))
	require.NoError(t, err)
	rt.ctrl.SetExposureSeconds(2)

	out := &syncBuffer{}
	require.NoError(t, runCapture(context.Background(), rt.ctrl, 1, out))
	rt.Close()

	text := out.String()
	assert.Contains(t, text, "  1...")
	assert.Contains(t, text, "frame 2/2 done")
	assert.Contains(t, text, "Completed: 2 x 1s (stack)")

	r, err := tracelog.NewReader(c.Trace.Path)
	require.NoError(t, err)
	defer r.Close()
	events, err := r.ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, rt.ctrl.RunID(), events[0].RunID)
	assert.Equal(t, "sim-0", events[0].Device)
}

func TestRunCaptureReportsFailure(t *testing.T) {
	c := testConfig(t)
	c.Simulator.FailFrames = []int{0}
	rt, err := newRuntime(c, setupLogging("error"))
	require.NoError(t, err)
	defer rt.Close()

	err = runCapture(context.Background(), rt.ctrl, 0, &syncBuffer{})
	assert.True(t, errors.Is(err, capture.ErrFrameFailed), "err = %v", err)
}

func TestRunCaptureInterruptCancelsCountdown(t *testing.T) {
	c := testConfig(t)
	c.Capture.CountdownInterval = time.Hour
	rt, err := newRuntime(c, setupLogging("error"))
	require.NoError(t, err)
	defer rt.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = runCapture(ctx, rt.ctrl, 5, &syncBuffer{})
	require.Error(t, err)
	assert.Equal(t, capture.StateIdle, rt.ctrl.State())
}

func TestRootFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "astrocam.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capture:\n  policy: clamp\n"), 0o644))

	root := newRootCmd()
	require.NoError(t, root.ParseFlags([]string{"--config", path, "--camera", "sim-2", "--max-exposure", "4s"}))
	require.NoError(t, loadConfig(root))

	assert.Equal(t, "clamp", cfg.Capture.Policy)
	assert.Equal(t, "sim-2", cfg.Simulator.CameraID)
	assert.Equal(t, 4*time.Second, cfg.Simulator.MaxExposure)
}

func TestRootRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "astrocam.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capture:\n  policy: sideways\n"), 0o644))

	root := newRootCmd()
	require.NoError(t, root.ParseFlags([]string{"--config", path}))
	err := loadConfig(root)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "policy"), err.Error())

	require.NoError(t, root.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--max-exposure", "later"}))
	assert.Error(t, loadConfig(root))
}
