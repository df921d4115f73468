package commands

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cameraestellar/astrocam-go/pkg/log"
)

// FilterOptions holds the textual filter flags shared by view and filter.
type FilterOptions struct {
	RunID     string
	Session   string
	TimeStart string
	TimeEnd   string
	Category  string
}

// BuildFilter parses opts into a log.Filter.
func BuildFilter(opts FilterOptions) (log.Filter, error) {
	filter := log.Filter{RunID: opts.RunID}

	if opts.Session != "" {
		id, err := strconv.ParseUint(opts.Session, 10, 64)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid session: %s", opts.Session)
		}
		filter.SessionID = &id
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	if opts.Category != "" {
		c, ok := log.ParseCategory(opts.Category)
		if !ok {
			return log.Filter{}, fmt.Errorf("invalid category: %s (must be state, frame, plan, config, or error)", opts.Category)
		}
		filter.Category = &c
	}

	return filter, nil
}

// RunFilter copies the events of path matching opts into output and
// returns how many were written.
func RunFilter(path, output string, opts FilterOptions) (int, error) {
	filter, err := BuildFilter(opts)
	if err != nil {
		return 0, err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output trace: %w", err)
	}

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Close()
			return count, fmt.Errorf("failed to read event: %w", err)
		}
		logger.Log(event)
		count++
	}

	return count, logger.Close()
}
