package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cameraestellar/astrocam-go/pkg/countdown"
	"github.com/cameraestellar/astrocam-go/pkg/exposure"
	"github.com/cameraestellar/astrocam-go/pkg/log"
	"github.com/cameraestellar/astrocam-go/pkg/plan"
)

// Controller owns one capture session and drives the adapter.
type Controller struct {
	config  Config
	adapter Adapter
	store   *exposure.Store
	sched   *countdown.Scheduler
	runID   string

	logger *slog.Logger
	trace  log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	queue serialQueue

	// mu guards the session fields below. Only queue handlers write them.
	mu         sync.RWMutex
	closed     bool
	session    uint64
	state      State
	remaining  int
	plan       *plan.Plan
	capability exposure.Capability
	issued     int
	completed  int
	exposing   bool
	lastErr    error
	timer      *time.Timer
	timerTag   FrameTag

	listenerMu     sync.RWMutex
	stateListeners []func(Change)
	frameListeners []func(FrameEvent)
}

// New creates a Controller in the IDLE state.
func New(config Config) (*Controller, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	defaults := DefaultConfig()
	if config.CountdownInterval == 0 {
		config.CountdownInterval = defaults.CountdownInterval
	}
	if config.ConfigureTimeout == 0 {
		config.ConfigureTimeout = defaults.ConfigureTimeout
	}
	if config.Store == nil {
		config.Store = exposure.NewStore(exposure.DefaultConfig())
	}

	c := &Controller{
		config:  config,
		adapter: config.Adapter,
		store:   config.Store,
		sched:   countdown.New(config.CountdownInterval),
		runID:   uuid.NewString(),
		logger:  config.Logger,
		trace:   config.Trace,
		state:   StateIdle,
	}
	if c.trace == nil {
		c.trace = log.NoopLogger{}
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.store.SetModeGuard(c.vetModeSwitch)
	return c, nil
}

// RunID returns the id stamped on this controller's trace events.
func (c *Controller) RunID() string {
	return c.runID
}

// Store returns the exposure parameter store. The controller owns its mode
// guard, so a mode switch through the store is refused while a session is
// in progress, exactly as through SetAutoExposure.
func (c *Controller) Store() *exposure.Store {
	return c.store
}

// OnStateChange registers fn for every state change and countdown tick.
// Listeners run on the controller's event path and must not block.
func (c *Controller) OnStateChange(fn func(Change)) {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	c.stateListeners = append(c.stateListeners, fn)
}

// OnFrame registers fn for frame started and ended events.
func (c *Controller) OnFrame(fn func(FrameEvent)) {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	c.frameListeners = append(c.frameListeners, fn)
}

// Snapshot returns a copy of the session.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	s := Snapshot{
		SessionID:          c.session,
		State:              c.state,
		RemainingCountdown: c.remaining,
		FramesIssued:       c.issued,
		FramesCompleted:    c.completed,
		Exposing:           c.exposing,
		LastError:          c.lastErr,
	}
	if c.plan != nil {
		p := *c.plan
		s.Plan = &p
	}
	c.mu.RUnlock()

	s.Config = c.store.Config()
	return s
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Capability returns the capability reported by the last Configure.
func (c *Controller) Capability() exposure.Capability {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.capability
}

// SetISO stores iso, clamped, and returns the stored value.
func (c *Controller) SetISO(iso float64) float64 {
	return c.store.SetISO(iso)
}

// SetExposureSeconds stores the exposure, clamped, and returns it.
func (c *Controller) SetExposureSeconds(sec float64) time.Duration {
	return c.store.SetExposureSeconds(sec)
}

// SetFocusDistance stores the focus distance, clamped, and returns it.
func (c *Controller) SetFocusDistance(f float64) float64 {
	return c.store.SetFocusDistance(f)
}

// SetAutoExposure switches between automatic and manual metering.
// The switch is rejected with ErrSessionBusy unless the session is IDLE.
func (c *Controller) SetAutoExposure(auto bool) error {
	return c.store.SetAutoExposure(auto)
}

// vetModeSwitch is the store's mode guard. It runs under the store lock;
// a session reads the store only after entering CAPTURING, so an accepted
// switch is ordered before that session's Configure.
func (c *Controller) vetModeSwitch(bool) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	if c.state != StateIdle {
		return fmt.Errorf("%w: %s", ErrSessionBusy, c.state)
	}
	return nil
}

// RequestCapture starts a session after delaySeconds of countdown.
// It is a no-op while a session is in progress. Completion is reported
// through OnStateChange and Snapshot.
func (c *Controller) RequestCapture(delaySeconds int) error {
	if delaySeconds < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDelay, delaySeconds)
	}
	if !c.queue.post(func() { c.handleRequest(delaySeconds, nil) }) {
		return ErrClosed
	}
	return nil
}

// StartCapture is RequestCapture for callers that need the outcome. It waits
// until the request has been handled and returns the new session id, or
// ErrSessionBusy when a session was already in progress. It must not be
// called from a listener or adapter callback, which run on the queue it
// waits for.
func (c *Controller) StartCapture(ctx context.Context, delaySeconds int) (uint64, error) {
	if delaySeconds < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDelay, delaySeconds)
	}
	reply := make(chan requestResult, 1)
	if !c.queue.post(func() { c.handleRequest(delaySeconds, reply) }) {
		return 0, ErrClosed
	}
	select {
	case r := <-reply:
		return r.session, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-c.ctx.Done():
		return 0, ErrClosed
	}
}

// WhenIdle runs fn on the event queue if the session is IDLE when its turn
// comes. No state change interleaves with fn. It reports false if the
// controller is closed; fn may run before or after WhenIdle returns.
func (c *Controller) WhenIdle(fn func()) bool {
	return c.queue.post(func() {
		if state := c.State(); state != StateIdle {
			c.debugLog("idle work skipped", "state", state)
			return
		}
		fn()
	})
}

// Cancel aborts a countdown. It has no effect in any other state.
func (c *Controller) Cancel() {
	c.queue.post(c.handleCancel)
}

// Post delivers an adapter event.
func (c *Controller) Post(ev Event) {
	c.queue.post(func() { c.handleEvent(ev) })
}

// Close stops timers and rejects further requests. An in-flight adapter
// call sees its context cancelled.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.stopTimerLocked()
	c.mu.Unlock()

	c.sched.Stop()
	c.queue.close()
	c.cancel()
	return nil
}

var _ EventSink = (*Controller)(nil)

type requestResult struct {
	session uint64
	err     error
}

// handleRequest runs on the queue. reply, if set, learns the outcome before
// the session proceeds.
func (c *Controller) handleRequest(delay int, reply chan<- requestResult) {
	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		c.debugLog("capture request ignored", "state", state)
		if reply != nil {
			reply <- requestResult{err: fmt.Errorf("%w: %s", ErrSessionBusy, state)}
		}
		return
	}

	c.session++
	id := c.session
	c.plan = nil
	c.issued = 0
	c.completed = 0
	c.exposing = false
	c.lastErr = nil

	if delay == 0 {
		c.mu.Unlock()
		if reply != nil {
			reply <- requestResult{session: id}
		}
		c.beginCapture(id, StateIdle)
		return
	}

	c.state = StateCountingDown
	c.remaining = delay
	c.mu.Unlock()
	if reply != nil {
		reply <- requestResult{session: id}
	}

	c.debugLog("countdown started", "session", id, "seconds", delay)
	c.notify(Change{Session: id, Old: StateIdle, New: StateCountingDown, Remaining: delay})

	_ = c.sched.Start(id, delay, func(t countdown.Tick) {
		c.queue.post(func() { c.handleTick(t) })
	})
}

func (c *Controller) handleTick(t countdown.Tick) {
	c.mu.Lock()
	if c.state != StateCountingDown || t.ID != c.session {
		c.mu.Unlock()
		c.debugLog("stale countdown tick discarded", "session", t.ID)
		return
	}
	c.remaining = t.Remaining
	c.mu.Unlock()

	if t.Remaining > 0 {
		c.notify(Change{Session: t.ID, Old: StateCountingDown, New: StateCountingDown, Remaining: t.Remaining})
		return
	}
	c.beginCapture(t.ID, StateCountingDown)
}

func (c *Controller) handleCancel() {
	c.mu.Lock()
	if c.state != StateCountingDown {
		state := c.state
		c.mu.Unlock()
		c.debugLog("cancel ignored", "state", state)
		return
	}
	id := c.session
	c.state = StateIdle
	c.remaining = 0
	c.mu.Unlock()

	c.sched.Stop()
	c.notifyReason(Change{Session: id, Old: StateCountingDown, New: StateIdle}, "cancelled")
}

// beginCapture enters CAPTURING, configures the adapter, plans and issues
// the first frame.
func (c *Controller) beginCapture(id uint64, from State) {
	c.mu.Lock()
	c.state = StateCapturing
	c.remaining = 0
	c.mu.Unlock()
	c.notify(Change{Session: id, Old: from, New: StateCapturing})

	cfg := c.store.Config()
	applied := cfg.Applied()
	c.traceConfig(id, applied)

	ctx, cancel := context.WithTimeout(c.ctx, c.config.ConfigureTimeout)
	capability, err := c.adapter.Configure(ctx, applied)
	cancel()
	if err != nil {
		c.fail(id, fmt.Errorf("%w: configure: %w", ErrAdapterUnreachable, err))
		return
	}

	p, err := c.planFor(cfg, capability)
	if err != nil {
		c.mu.Lock()
		c.capability = capability
		c.mu.Unlock()
		c.fail(id, err)
		return
	}

	c.mu.Lock()
	c.capability = capability
	c.plan = &p
	c.mu.Unlock()

	c.debugLog("capture planned", "session", id, "plan", p.String(), "config", cfg.String())
	c.emit(id, log.Event{
		Category: log.CategoryPlan,
		Plan: &log.PlanEvent{
			FrameCount:    p.FrameCount,
			FrameExposure: p.FrameExposure,
			Total:         p.Total,
			Ceiling:       capability.MaxFrameExposure,
			Policy:        p.Policy.String(),
		},
	})

	c.issueFrame(id, 0)
}

// planFor plans the session. Automatic metering captures a single frame of
// unknown exposure.
func (c *Controller) planFor(cfg exposure.Config, capability exposure.Capability) (plan.Plan, error) {
	if capability.MaxFrameExposure <= 0 {
		return plan.Plan{}, fmt.Errorf("%w: frame ceiling %v", ErrInvalidCapability, capability.MaxFrameExposure)
	}
	if cfg.AutoExposure {
		return plan.Plan{FrameCount: 1, Policy: c.config.Calculator.Policy}, nil
	}
	return c.config.Calculator.Plan(cfg.Exposure, capability.MaxFrameExposure)
}

func (c *Controller) issueFrame(id uint64, index int) {
	c.mu.Lock()
	p := *c.plan
	tag := FrameTag{Session: id, Frame: index}
	c.issued = index + 1
	c.exposing = false
	c.armTimeoutLocked(tag, p.FrameCount-index, c.frameBudget(p))
	c.mu.Unlock()

	c.emit(id, log.Event{
		Category: log.CategoryFrame,
		Frame: &log.FrameEvent{
			Type:     log.FrameIssued,
			Index:    index,
			Count:    p.FrameCount,
			Exposure: p.FrameExposure,
		},
	})

	req := FrameRequest{Tag: tag, Count: p.FrameCount, Exposure: p.FrameExposure}
	if err := c.adapter.Capture(c.ctx, req); err != nil {
		c.fail(id, fmt.Errorf("%w: capture frame %d of %d: %w", ErrAdapterUnreachable, index+1, p.FrameCount, err))
	}
}

// frameBudget is the exposure assumed per frame when bounding the wait.
func (c *Controller) frameBudget(p plan.Plan) time.Duration {
	if p.FrameExposure > 0 {
		return p.FrameExposure
	}
	return c.capability.MaxFrameExposure
}

func (c *Controller) handleEvent(ev Event) {
	c.mu.Lock()
	if c.state != StateCapturing || ev.Tag.Session != c.session || ev.Tag.Frame != c.issued-1 {
		state, session := c.state, c.session
		c.mu.Unlock()
		c.debugLog("stale adapter event discarded",
			"kind", ev.Kind, "session", ev.Tag.Session, "frame", ev.Tag.Frame,
			"current", session, "state", state)
		return
	}
	count := c.plan.FrameCount

	switch ev.Kind {
	case EventCaptureStarted:
		c.exposing = true
		c.mu.Unlock()
		c.notifyFrame(FrameEvent{Kind: ev.Kind, Tag: ev.Tag, Count: count})
		c.emit(ev.Tag.Session, log.Event{
			Category: log.CategoryFrame,
			Frame:    &log.FrameEvent{Type: log.FrameStarted, Index: ev.Tag.Frame, Count: count},
		})

	case EventCaptureEnded:
		c.exposing = false
		if ev.Err == nil {
			c.completed++
		}
		done := c.completed == count
		c.mu.Unlock()

		fe := &log.FrameEvent{Type: log.FrameEnded, Index: ev.Tag.Frame, Count: count, Success: ev.Err == nil}
		if ev.Err != nil {
			fe.Error = ev.Err.Error()
		}
		c.notifyFrame(FrameEvent{Kind: ev.Kind, Tag: ev.Tag, Count: count, Err: ev.Err})
		c.emit(ev.Tag.Session, log.Event{Category: log.CategoryFrame, Frame: fe})

		switch {
		case ev.Err != nil:
			c.fail(ev.Tag.Session, fmt.Errorf("%w: frame %d of %d: %w", ErrFrameFailed, ev.Tag.Frame+1, count, ev.Err))
		case done:
			c.complete(ev.Tag.Session)
		default:
			c.issueFrame(ev.Tag.Session, ev.Tag.Frame+1)
		}

	default:
		c.mu.Unlock()
		c.debugLog("unknown adapter event", "kind", ev.Kind)
	}
}

func (c *Controller) handleTimeout(tag FrameTag) {
	c.mu.Lock()
	if c.state != StateCapturing || tag != c.timerTag || tag.Session != c.session {
		c.mu.Unlock()
		return
	}
	count := 0
	if c.plan != nil {
		count = c.plan.FrameCount
	}
	c.mu.Unlock()

	c.fail(tag.Session, fmt.Errorf("%w: frame %d of %d", ErrTimeout, tag.Frame+1, count))
}

// armTimeoutLocked bounds the wait for the remaining frames.
func (c *Controller) armTimeoutLocked(tag FrameTag, frames int, perFrame time.Duration) {
	c.stopTimerLocked()
	bound := time.Duration(frames)*(perFrame+c.config.FrameOverhead) + c.config.TimeoutMargin
	c.timerTag = tag
	c.timer = time.AfterFunc(bound, func() {
		c.queue.post(func() { c.handleTimeout(tag) })
	})
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerTag = FrameTag{}
}

func (c *Controller) complete(id uint64) {
	c.mu.Lock()
	c.stopTimerLocked()
	c.state = StateCompleted
	c.mu.Unlock()

	c.infoLog("capture completed", "session", id, "frames", c.Snapshot().FramesCompleted)
	c.notify(Change{Session: id, Old: StateCapturing, New: StateCompleted, Plan: c.currentPlan()})
	c.reset(id, StateCompleted)
}

func (c *Controller) fail(id uint64, err error) {
	c.mu.Lock()
	c.stopTimerLocked()
	c.state = StateFailed
	c.exposing = false
	c.lastErr = err
	c.mu.Unlock()

	c.warnLog("capture failed", "session", id, "error", err)
	c.emit(id, log.Event{
		Category: log.CategoryError,
		Error:    &log.ErrorEventData{Kind: errorKind(err), Message: err.Error(), Context: "capture"},
	})
	c.notify(Change{Session: id, Old: StateCapturing, New: StateFailed, Plan: c.currentPlan(), Err: err})
	c.reset(id, StateFailed)
}

func (c *Controller) reset(id uint64, from State) {
	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()
	c.notify(Change{Session: id, Old: from, New: StateIdle})
}

func (c *Controller) currentPlan() *plan.Plan {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.plan == nil {
		return nil
	}
	p := *c.plan
	return &p
}

func (c *Controller) notify(ch Change) {
	c.notifyReason(ch, "")
}

func (c *Controller) notifyReason(ch Change, reason string) {
	sc := &log.StateChangeEvent{
		NewState:  ch.New.String(),
		Remaining: ch.Remaining,
		Reason:    reason,
	}
	if ch.Old != ch.New {
		sc.OldState = ch.Old.String()
	}
	if ch.Err != nil && reason == "" {
		sc.Reason = ch.Err.Error()
	}
	c.emit(ch.Session, log.Event{Category: log.CategoryState, StateChange: sc})

	c.listenerMu.RLock()
	listeners := c.stateListeners
	c.listenerMu.RUnlock()
	for _, fn := range listeners {
		fn(ch)
	}
}

func (c *Controller) notifyFrame(fe FrameEvent) {
	c.listenerMu.RLock()
	listeners := c.frameListeners
	c.listenerMu.RUnlock()
	for _, fn := range listeners {
		fn(fe)
	}
}

func (c *Controller) traceConfig(id uint64, applied exposure.Applied) {
	ev := &log.ConfigEvent{AutoExposure: applied.AutoExposure}
	if m := applied.Manual; m != nil {
		ev.ISO = m.ISO
		ev.Exposure = m.Exposure
		ev.FocusDistance = m.FocusDistance
	}
	c.emit(id, log.Event{Category: log.CategoryConfig, Config: ev})
}

func (c *Controller) emit(id uint64, ev log.Event) {
	ev.Timestamp = time.Now()
	ev.RunID = c.runID
	ev.SessionID = id
	ev.Device = c.config.Device
	c.trace.Log(ev)
}

func (c *Controller) debugLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func (c *Controller) infoLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Controller) warnLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
