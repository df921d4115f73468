// Package commands implements the astrocam-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/cameraestellar/astrocam-go/pkg/log"
)

const timestampLayout = "2006-01-02T15:04:05.000000Z"

// RunView writes every event of path matching filter to output.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
}

// formatEvent writes a header line and indented details for event.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format(timestampLayout)
	fmt.Fprintf(w, "%s [run:%s] #%d %-6s %s\n", ts, shortenID(event.RunID), event.SessionID, event.Category, summary(event))

	switch {
	case event.StateChange != nil && event.StateChange.Reason != "":
		fmt.Fprintf(w, "  Reason: %s\n", event.StateChange.Reason)
	case event.Plan != nil:
		fmt.Fprintf(w, "  Total: %s  Ceiling: %s  Policy: %s\n",
			formatDuration(event.Plan.Total), formatDuration(event.Plan.Ceiling), event.Plan.Policy)
	case event.Error != nil && event.Error.Context != "":
		fmt.Fprintf(w, "  Context: %s\n", event.Error.Context)
	}
}

// summary is the one-line description of an event's payload.
func summary(event log.Event) string {
	switch {
	case event.StateChange != nil:
		sc := event.StateChange
		s := sc.NewState
		if sc.OldState != "" {
			s = sc.OldState + " -> " + sc.NewState
		}
		if sc.NewState == "COUNTING_DOWN" {
			s += fmt.Sprintf(" (%d)", sc.Remaining)
		}
		return s
	case event.Frame != nil:
		f := event.Frame
		s := fmt.Sprintf("%s %d/%d", f.Type, f.Index+1, f.Count)
		if f.Exposure > 0 {
			s += " " + formatDuration(f.Exposure)
		}
		if f.Type == log.FrameEnded && !f.Success {
			s += " failed: " + f.Error
		}
		return s
	case event.Plan != nil:
		return fmt.Sprintf("%d x %s", event.Plan.FrameCount, formatDuration(event.Plan.FrameExposure))
	case event.Config != nil:
		c := event.Config
		if c.AutoExposure {
			return "auto"
		}
		return fmt.Sprintf("iso=%.0f exposure=%s focus=%.2f", c.ISO, formatDuration(c.Exposure), c.FocusDistance)
	case event.Error != nil:
		return event.Error.Kind + ": " + event.Error.Message
	default:
		return ""
	}
}

// shortenID returns the first 8 characters of a run ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}
