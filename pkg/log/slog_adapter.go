package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter. A nil logger uses slog.Default().
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("run_id", event.RunID),
		slog.Uint64("session", event.SessionID),
		slog.String("category", event.Category.String()),
	}
	if event.Device != "" {
		attrs = append(attrs, slog.String("device", event.Device))
	}

	switch {
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Remaining > 0 {
			attrs = append(attrs, slog.Int("remaining", event.StateChange.Remaining))
		}
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Frame != nil:
		attrs = append(attrs,
			slog.String("frame", event.Frame.Type.String()),
			slog.Int("index", event.Frame.Index),
			slog.Int("count", event.Frame.Count),
		)
		if event.Frame.Exposure > 0 {
			attrs = append(attrs, slog.Duration("exposure", event.Frame.Exposure))
		}
		if event.Frame.Type == FrameEnded {
			attrs = append(attrs, slog.Bool("success", event.Frame.Success))
		}
		if event.Frame.Error != "" {
			attrs = append(attrs, slog.String("error", event.Frame.Error))
		}
	case event.Plan != nil:
		attrs = append(attrs,
			slog.Int("frames", event.Plan.FrameCount),
			slog.Duration("frame_exposure", event.Plan.FrameExposure),
			slog.Duration("total", event.Plan.Total),
			slog.Duration("ceiling", event.Plan.Ceiling),
			slog.String("policy", event.Plan.Policy),
		)
	case event.Config != nil:
		if event.Config.AutoExposure {
			attrs = append(attrs, slog.Bool("auto", true))
		} else {
			attrs = append(attrs,
				slog.Float64("iso", event.Config.ISO),
				slog.Duration("exposure", event.Config.Exposure),
				slog.Float64("focus", event.Config.FocusDistance),
			)
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_kind", event.Error.Kind),
			slog.String("error_msg", event.Error.Message),
		)
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "capture", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
