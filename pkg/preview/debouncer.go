package preview

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/cameraestellar/astrocam-go/pkg/capture"
	"github.com/cameraestellar/astrocam-go/pkg/exposure"
)

// DefaultDelay is the coalescing window.
const DefaultDelay = 50 * time.Millisecond

// Session is the part of capture.Controller the debouncer watches.
// WhenIdle runs fn serialized with the session's state changes, and only
// while it is IDLE.
type Session interface {
	OnStateChange(func(capture.Change))
	WhenIdle(fn func()) bool
}

// Config configures a Debouncer.
type Config struct {
	// Delay is the coalescing window. Zero selects DefaultDelay.
	Delay time.Duration

	// ApplyTimeout bounds each ApplyPreview call.
	ApplyTimeout time.Duration

	// Logger is used for operational logging. Nil disables.
	Logger *slog.Logger
}

// Debouncer applies coalesced preview settings to a PreviewAdapter.
type Debouncer struct {
	store   *exposure.Store
	target  capture.PreviewAdapter
	session Session
	config  Config

	mu      sync.Mutex
	timer   *time.Timer
	dirty   bool
	last    *exposure.PreviewSettings
	applied int
	closed  bool
}

// New creates a Debouncer and subscribes it to store and session changes.
// session may be nil, in which case previews are never withheld.
func New(store *exposure.Store, target capture.PreviewAdapter, session Session, config Config) *Debouncer {
	if config.Delay <= 0 {
		config.Delay = DefaultDelay
	}
	if config.ApplyTimeout <= 0 {
		config.ApplyTimeout = time.Second
	}
	d := &Debouncer{
		store:   store,
		target:  target,
		session: session,
		config:  config,
	}
	store.OnChange(func(exposure.Config) { d.Changed() })
	if session != nil {
		session.OnStateChange(func(ch capture.Change) {
			if ch.New == capture.StateIdle {
				d.resume()
			}
		})
	}
	return d
}

// Changed marks the preview dirty and (re)starts the window if none is open.
func (d *Debouncer) Changed() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.dirty = true
	if d.timer == nil {
		d.timer = time.AfterFunc(d.config.Delay, d.fire)
	}
}

// Flush applies the current settings immediately, ignoring the window and
// the last applied value. It still defers to a running capture.
func (d *Debouncer) Flush() error {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.dirty = true
	d.last = nil
	d.mu.Unlock()
	return d.apply()
}

// Applied returns how many previews were sent to the adapter.
func (d *Debouncer) Applied() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.applied
}

// Close stops the window timer. Later changes are ignored.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.timer = nil
	d.mu.Unlock()
	_ = d.apply()
}

// resume flushes a preview withheld during a capture.
func (d *Debouncer) resume() {
	d.mu.Lock()
	pending := d.dirty && d.timer == nil && !d.closed
	if pending {
		d.timer = time.AfterFunc(d.config.Delay, d.fire)
	}
	d.mu.Unlock()
}

// apply sends the preview on the session's queue so a capture cannot start
// while ApplyPreview is in flight. A preview skipped there stays dirty and
// is resent by resume once the session is back to IDLE.
func (d *Debouncer) apply() error {
	if d.session == nil {
		return d.send()
	}
	errc := make(chan error, 1)
	if !d.session.WhenIdle(func() { errc <- d.send() }) {
		d.debugLog("preview dropped, session closed")
		return nil
	}
	select {
	case err := <-errc:
		return err
	default:
		// Skipped during a capture, or queued behind another handler.
		return nil
	}
}

func (d *Debouncer) send() error {
	settings := d.store.Config().Preview()

	d.mu.Lock()
	if d.closed || !d.dirty {
		d.mu.Unlock()
		return nil
	}
	d.dirty = false
	if d.last != nil && reflect.DeepEqual(*d.last, settings) {
		d.mu.Unlock()
		d.debugLog("preview unchanged")
		return nil
	}
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), d.config.ApplyTimeout)
	defer cancel()
	if err := d.target.ApplyPreview(ctx, settings); err != nil {
		d.mu.Lock()
		d.dirty = true
		d.mu.Unlock()
		if d.config.Logger != nil {
			d.config.Logger.Warn("preview apply failed", "error", err)
		}
		return err
	}

	d.mu.Lock()
	d.last = &settings
	d.applied++
	d.mu.Unlock()
	return nil
}

func (d *Debouncer) debugLog(msg string, args ...any) {
	if d.config.Logger != nil {
		d.config.Logger.Debug(msg, args...)
	}
}
