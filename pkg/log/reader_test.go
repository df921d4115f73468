package log

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func createTestTraceFile(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.clog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}

func readAll(t *testing.T, path string, f Filter) []Event {
	t.Helper()
	r, err := NewFilteredReader(path, f)
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer r.Close()
	events, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	return events
}

func sampleEvents(base time.Time) []Event {
	return []Event{
		{Timestamp: base, RunID: "a", SessionID: 1, Category: CategoryState,
			StateChange: &StateChangeEvent{OldState: "IDLE", NewState: "CAPTURING"}},
		{Timestamp: base.Add(time.Second), RunID: "a", SessionID: 1, Category: CategoryFrame,
			Frame: &FrameEvent{Type: FrameIssued, Count: 1}},
		{Timestamp: base.Add(2 * time.Second), RunID: "a", SessionID: 2, Category: CategoryError,
			Error: &ErrorEventData{Kind: "TIMEOUT", Message: "no end event"}},
		{Timestamp: base.Add(3 * time.Second), RunID: "b", SessionID: 1, Category: CategoryFrame,
			Frame: &FrameEvent{Type: FrameEnded, Count: 1, Success: true}},
	}
}

func TestReaderIteratesEvents(t *testing.T) {
	base := time.Date(2026, 8, 12, 22, 0, 0, 0, time.UTC)
	path := createTestTraceFile(t, sampleEvents(base))

	r, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	for i, want := range sampleEvents(base) {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("Next() #%d: %v", i, err)
		}
		if got.Category != want.Category || !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("event %d: got %v@%v, want %v@%v", i, got.Category, got.Timestamp, want.Category, want.Timestamp)
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next() at end = %v, want io.EOF", err)
	}
}

func TestReaderHandlesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.clog")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if events := readAll(t, path, Filter{}); len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
}

func TestReaderHandlesTruncatedFile(t *testing.T) {
	path := createTestTraceFile(t, sampleEvents(time.Now()))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data[:len(data)-3], 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	events, err := r.ReadAll()
	if err == nil {
		t.Error("expected error for truncated trace")
	}
	if len(events) != 3 {
		t.Errorf("got %d complete events before truncation, want 3", len(events))
	}
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 8, 12, 22, 0, 0, 0, time.UTC)
	path := createTestTraceFile(t, sampleEvents(base))

	session1 := uint64(1)
	frame := CategoryFrame
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"none", Filter{}, 4},
		{"run", Filter{RunID: "a"}, 3},
		{"session", Filter{SessionID: &session1}, 3},
		{"category", Filter{Category: &frame}, 2},
		{"time range", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"combined", Filter{RunID: "a", SessionID: &session1, Category: &frame}, 1},
		{"no match", Filter{RunID: "zzz"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(readAll(t, path, tt.filter)); got != tt.want {
				t.Errorf("got %d events, want %d", got, tt.want)
			}
		})
	}
}

func TestNewReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "missing.clog")); err == nil {
		t.Error("expected error for missing file")
	}
}
