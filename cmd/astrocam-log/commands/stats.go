package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/cameraestellar/astrocam-go/pkg/log"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	Runs             map[string]int
	Sessions         map[sessionKey]*SessionStats
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

type sessionKey struct {
	run string
	id  uint64
}

// SessionStats holds statistics for a single capture session.
type SessionStats struct {
	RunID     string
	ID        uint64
	FirstSeen time.Time
	LastSeen  time.Time

	// Outcome is COMPLETED, FAILED, CANCELLED or the last state seen.
	Outcome string

	Plan         *log.PlanEvent
	FramesOK     int
	FramesFailed int
	Error        string
}

// Outcomes a session can end with.
const (
	OutcomeCompleted = "COMPLETED"
	OutcomeFailed    = "FAILED"
	OutcomeCancelled = "CANCELLED"
)

// Collect reads path into Stats.
func Collect(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		Runs:             make(map[string]int),
		Sessions:         make(map[sessionKey]*SessionStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}
	return stats, nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByCategory[event.Category]++
	s.Runs[event.RunID]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}
	if event.Error != nil {
		s.Errors++
	}
	if event.SessionID == 0 {
		return
	}

	key := sessionKey{event.RunID, event.SessionID}
	sess, ok := s.Sessions[key]
	if !ok {
		sess = &SessionStats{RunID: event.RunID, ID: event.SessionID, FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
		s.Sessions[key] = sess
	}
	if event.Timestamp.After(sess.LastSeen) {
		sess.LastSeen = event.Timestamp
	}

	switch {
	case event.StateChange != nil:
		sc := event.StateChange
		switch {
		case sc.NewState == OutcomeCompleted || sc.NewState == OutcomeFailed:
			sess.Outcome = sc.NewState
		case sc.NewState == "IDLE" && sc.OldState == "COUNTING_DOWN":
			sess.Outcome = OutcomeCancelled
		case sc.NewState != "IDLE" && !sess.ended():
			sess.Outcome = sc.NewState
		}
	case event.Plan != nil:
		sess.Plan = event.Plan
	case event.Frame != nil && event.Frame.Type == log.FrameEnded:
		if event.Frame.Success {
			sess.FramesOK++
		} else {
			sess.FramesFailed++
		}
	case event.Error != nil:
		sess.Error = event.Error.Message
	}
}

func (s *SessionStats) ended() bool {
	return s.Outcome == OutcomeCompleted || s.Outcome == OutcomeFailed || s.Outcome == OutcomeCancelled
}

// SortedSessions returns the sessions ordered by first event.
func (s *Stats) SortedSessions() []*SessionStats {
	out := make([]*SessionStats, 0, len(s.Sessions))
	for _, sess := range s.Sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FirstSeen.Equal(out[j].FirstSeen) {
			return out[i].FirstSeen.Before(out[j].FirstSeen)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := Collect(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Capture Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Runs:         %d\n", len(stats.Runs))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryState, log.CategoryFrame, log.CategoryPlan, log.CategoryConfig, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	sessions := stats.SortedSessions()
	outcomes := make(map[string]int)
	for _, s := range sessions {
		outcomes[s.Outcome]++
	}
	fmt.Fprintf(w, "Sessions: %d (%d completed, %d failed, %d cancelled)\n", len(sessions),
		outcomes[OutcomeCompleted], outcomes[OutcomeFailed], outcomes[OutcomeCancelled])
	for _, s := range sessions {
		fmt.Fprintf(w, "  [%s #%d] %s, %s\n", shortenID(s.RunID), s.ID, s.Outcome,
			s.LastSeen.Sub(s.FirstSeen).Round(time.Millisecond))
		if s.Plan != nil {
			fmt.Fprintf(w, "           Plan: %d x %s (%s), frames %d ok / %d failed\n",
				s.Plan.FrameCount, formatDuration(s.Plan.FrameExposure), s.Plan.Policy, s.FramesOK, s.FramesFailed)
		}
		if s.Error != "" {
			fmt.Fprintf(w, "           Error: %s\n", s.Error)
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
