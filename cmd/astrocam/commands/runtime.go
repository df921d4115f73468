package commands

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cameraestellar/astrocam-go/internal/config"
	"github.com/cameraestellar/astrocam-go/pkg/capture"
	"github.com/cameraestellar/astrocam-go/pkg/device"
	tracelog "github.com/cameraestellar/astrocam-go/pkg/log"
	"github.com/cameraestellar/astrocam-go/pkg/preview"
	"github.com/cameraestellar/astrocam-go/pkg/simulator"
)

// runtime wires a controller to the simulated camera.
type runtime struct {
	logger  *slog.Logger
	camera  *simulator.Camera
	chars   device.Characteristics
	ctrl    *capture.Controller
	preview *preview.Debouncer
	trace   *tracelog.FileLogger
}

func newRuntime(cfg config.Config, logger *slog.Logger) (*runtime, error) {
	sc, err := cfg.SimulatorConfig()
	if err != nil {
		return nil, err
	}
	sc.Logger = logger
	rt := &runtime{
		logger: logger,
		camera: simulator.New(sc),
		chars:  sc.Characteristics,
	}

	cc := cfg.ControllerConfig(rt.camera)
	cc.Device = rt.chars.ID
	cc.Logger = logger

	var sinks []tracelog.Logger
	if cfg.Trace.Path != "" {
		if rt.trace, err = tracelog.NewFileLogger(cfg.Trace.Path); err != nil {
			rt.camera.Close()
			return nil, fmt.Errorf("failed to open trace: %w", err)
		}
		sinks = append(sinks, rt.trace)
	}
	if cfg.Trace.Slog {
		sinks = append(sinks, tracelog.NewSlogAdapter(logger))
	}
	if len(sinks) > 0 {
		cc.Trace = tracelog.NewMultiLogger(sinks...)
	}

	if rt.ctrl, err = capture.New(cc); err != nil {
		rt.Close()
		return nil, err
	}
	rt.camera.Bind(rt.ctrl)
	rt.preview = preview.New(rt.ctrl.Store(), rt.camera, rt.ctrl, preview.Config{Logger: logger})
	if err := rt.preview.Flush(); err != nil {
		logger.Warn("initial preview failed", "error", err)
	}
	return rt, nil
}

// Close releases everything in reverse order of creation.
func (rt *runtime) Close() {
	if rt.preview != nil {
		rt.preview.Close()
	}
	if rt.ctrl != nil {
		rt.ctrl.Close()
	}
	rt.camera.Close()
	if rt.trace != nil {
		if err := rt.trace.Close(); err != nil {
			rt.logger.Warn("failed to close trace", "error", err)
		}
	}
}

// parseDuration accepts Go durations ("1.5s") and bare seconds ("1.5").
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if sec, err := strconv.ParseFloat(s, 64); err == nil {
		if sec < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		return time.Duration(sec * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}
