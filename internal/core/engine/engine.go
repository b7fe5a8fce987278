package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"rangetimer/internal/core/model"

	"github.com/google/uuid"
)

const (
	// CommandLeadTime delays the state change of an announced step so the
	// command audio starts before the display updates.
	CommandLeadTime = 350 * time.Millisecond
	// FallbackDelay is used when a step cannot be scheduled normally.
	FallbackDelay = time.Second
	// MaxListenerFailures is the number of listener failures tolerated before a hard stop.
	MaxListenerFailures = 5
	// DiagnosticsCapacity bounds the diagnostic trail.
	DiagnosticsCapacity = 200
	// DiagnosticsKey is the store key the diagnostic blob is written under.
	DiagnosticsKey = "rangetimer.diagnostics"
)

// ErrListenerPanic wraps a recovered listener panic.
var ErrListenerPanic = errors.New("listener panicked")

// Config contains runtime options for Engine.
type Config struct {
	Clock          Clock
	Logger         *slog.Logger
	Store          KeyValueStore
	DiagnosticsKey string
}

type registeredListener struct {
	id       ListenerID
	listener Listener
}

type leadIn struct {
	timer  Timer
	events []Event
}

// Engine executes a timing sequence against wall-clock time.
type Engine struct {
	mu      sync.Mutex
	options Config
	logger  *slog.Logger
	runID   string
	steps   []model.TimingStep
	total   time.Duration

	index     int
	running   bool
	paused    bool
	completed bool
	startTime time.Time
	pausedAt  time.Time
	elapsed   time.Duration

	pending     Timer
	pendingDue  time.Time
	resumeDelay time.Duration
	ticket      uint64
	lead        *leadIn

	listeners      []registeredListener
	nextListenerID ListenerID
	failures       int
	faulty         map[ListenerID]bool
	halted         bool

	outbox   []Event
	draining bool
	trail    *diagnosticRing
}

// New creates an Engine for the provided sequence.
func New(steps []model.TimingStep, options Config) *Engine {
	if options.Clock == nil {
		options.Clock = systemClock{}
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.DiagnosticsKey == "" {
		options.DiagnosticsKey = DiagnosticsKey
	}

	runID := uuid.NewString()
	cloned := model.Clone(steps)
	return &Engine{
		options: options,
		logger:  options.Logger.With("run_id", runID),
		runID:   runID,
		steps:   cloned,
		total:   model.TotalDuration(cloned),
		trail:   newDiagnosticRing(DiagnosticsCapacity),
		faulty:  make(map[ListenerID]bool),
	}
}

// RunID returns the identifier stamped into diagnostics.
func (engine *Engine) RunID() string {
	return engine.runID
}

// AddListener registers an observer and returns its removal handle.
func (engine *Engine) AddListener(listener Listener) ListenerID {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.nextListenerID++
	id := engine.nextListenerID
	engine.listeners = append(engine.listeners, registeredListener{id: id, listener: listener})
	return id
}

// RemoveListener unregisters an observer. It reports whether the id was registered.
func (engine *Engine) RemoveListener(id ListenerID) bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	for index, registered := range engine.listeners {
		if registered.id == id {
			engine.listeners = append(engine.listeners[:index:index], engine.listeners[index+1:]...)
			return true
		}
	}
	return false
}

// Subscribe registers a channel observer. Events are dropped when the buffer is full.
// The returned cancel function unregisters and closes the channel.
func (engine *Engine) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	subscriber := &channelListener{ch: make(chan Event, buffer)}
	id := engine.AddListener(subscriber)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			engine.RemoveListener(id)
			subscriber.close()
		})
	}
	return subscriber.ch, cancel
}

// Start begins the sequence from the first step. It is a no-op while running.
// Listener failures are counted per run.
func (engine *Engine) Start() {
	engine.mu.Lock()
	if engine.running {
		engine.mu.Unlock()
		return
	}
	engine.cancelTimersLocked()
	engine.failures = 0
	engine.faulty = make(map[ListenerID]bool)
	engine.halted = false
	engine.running = true
	engine.paused = false
	engine.completed = false
	engine.index = 0
	engine.elapsed = 0
	engine.startTime = engine.options.Clock.Now()
	engine.ticket++
	engine.advanceLocked()
	engine.mu.Unlock()

	engine.drain()
}

// Pause freezes the run. It is a no-op unless running and not paused.
func (engine *Engine) Pause() {
	engine.mu.Lock()
	if !engine.running || engine.paused {
		engine.mu.Unlock()
		return
	}
	now := engine.options.Clock.Now()
	engine.resumeDelay = 0
	if engine.pending != nil {
		engine.pending.Stop()
		engine.pending = nil
		if remaining := engine.pendingDue.Sub(now); remaining > 0 {
			engine.resumeDelay = remaining
		}
	}
	engine.ticket++
	engine.elapsed = now.Sub(engine.startTime)
	engine.pausedAt = now
	engine.paused = true
	engine.enqueueLocked(Event{Type: EventPause})
	engine.mu.Unlock()

	engine.drain()
}

// Resume continues a paused run, excluding the paused time from elapsed time.
func (engine *Engine) Resume() {
	engine.mu.Lock()
	if !engine.running || !engine.paused {
		engine.mu.Unlock()
		return
	}
	now := engine.options.Clock.Now()
	engine.startTime = engine.startTime.Add(now.Sub(engine.pausedAt))
	engine.paused = false
	engine.enqueueLocked(Event{Type: EventResume})
	engine.scheduleLocked(engine.resumeDelay)
	engine.mu.Unlock()

	engine.drain()
}

// Reset stops the run, rewinds it and emits a reset event.
func (engine *Engine) Reset() {
	engine.mu.Lock()
	engine.stopLocked()
	engine.index = 0
	engine.elapsed = 0
	engine.completed = false
	engine.halted = false
	engine.enqueueLocked(Event{Type: EventReset})
	engine.mu.Unlock()

	engine.drain()
}

// Stop cancels pending callbacks without emitting an event. Safe to call repeatedly.
func (engine *Engine) Stop() {
	engine.mu.Lock()
	engine.stopLocked()
	engine.mu.Unlock()
}

// ElapsedTime returns run time excluding pauses.
func (engine *Engine) ElapsedTime() time.Duration {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.elapsedLocked(engine.options.Clock.Now())
}

// RemainingTime returns the summed step delays minus elapsed time, floored at zero.
func (engine *Engine) RemainingTime() time.Duration {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	remaining := engine.total - engine.elapsedLocked(engine.options.Clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TotalDuration returns the summed step delays.
func (engine *Engine) TotalDuration() time.Duration {
	return engine.total
}

// Status returns the lifecycle position of the run.
func (engine *Engine) Status() Status {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	switch {
	case engine.running && engine.paused:
		return StatusPaused
	case engine.running:
		return StatusRunning
	case engine.completed:
		return StatusCompleted
	default:
		return StatusIdle
	}
}

// CurrentIndex returns the step cursor.
func (engine *Engine) CurrentIndex() int {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.index
}

// Failures returns the number of listener failures seen by this engine.
func (engine *Engine) Failures() int {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.failures
}

// Diagnostics returns a copy of the diagnostic trail, oldest first.
func (engine *Engine) Diagnostics() []DiagnosticEntry {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.trail.snapshot()
}

func (engine *Engine) executeStep(ticket uint64) {
	engine.mu.Lock()
	if !engine.running || engine.paused || ticket != engine.ticket {
		engine.mu.Unlock()
		return
	}
	engine.pending = nil
	engine.advanceLocked()
	engine.mu.Unlock()

	engine.drain()
}

// advanceLocked runs the step under the cursor and schedules the next one.
func (engine *Engine) advanceLocked() {
	engine.flushLeadInLocked()
	delay, next := engine.runStepLocked()
	if next {
		engine.scheduleLocked(delay)
	}
}

func (engine *Engine) runStepLocked() (delay time.Duration, next bool) {
	advanced := false
	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		engine.logger.Error("step execution failed", "index", engine.index, "panic", recovered)
		engine.noteLocked("", fmt.Sprintf("scheduling fault at index %d: %v", engine.index, recovered))
		if !advanced {
			engine.index++
		}
		delay, next = FallbackDelay, true
	}()

	if engine.index >= len(engine.steps) {
		engine.completeLocked()
		return 0, false
	}

	step := engine.steps[engine.index]
	if !step.Valid() {
		engine.logger.Warn("skipping malformed step", "index", engine.index, "step_id", step.ID)
		engine.noteLocked(step.ID, fmt.Sprintf("skipped malformed step at index %d", engine.index))
		engine.index++
		return 0, true
	}

	if step.AnnouncesCommand() {
		engine.enqueueLocked(Event{Type: EventCommand, Command: step.Command, State: step.State, StepID: step.ID})
		engine.startLeadInLocked(stateEvents(step))
	} else {
		engine.enqueueLocked(stateEvents(step)...)
	}

	engine.index++
	advanced = true
	return step.Delay, true
}

func stateEvents(step model.TimingStep) []Event {
	events := []Event{{
		Type:      EventStateChange,
		State:     step.State,
		Command:   step.Command,
		StepID:    step.ID,
		Countdown: step.Countdown,
	}}
	if step.Countdown != nil {
		events = append(events, Event{
			Type:      EventCountdown,
			State:     step.State,
			StepID:    step.ID,
			Countdown: step.Countdown,
		})
	}
	return events
}

func (engine *Engine) startLeadInLocked(events []Event) {
	lead := &leadIn{events: events}
	lead.timer = engine.options.Clock.AfterFunc(CommandLeadTime, func() {
		engine.fireLeadIn(lead)
	})
	engine.lead = lead
}

func (engine *Engine) fireLeadIn(lead *leadIn) {
	engine.mu.Lock()
	if engine.lead != lead {
		engine.mu.Unlock()
		return
	}
	engine.lead = nil
	engine.enqueueLocked(lead.events...)
	engine.mu.Unlock()

	engine.drain()
}

// flushLeadInLocked emits a still pending lead-in before the next step so
// events never interleave across step boundaries.
func (engine *Engine) flushLeadInLocked() {
	if engine.lead == nil {
		return
	}
	engine.lead.timer.Stop()
	engine.enqueueLocked(engine.lead.events...)
	engine.lead = nil
}

func (engine *Engine) scheduleLocked(delay time.Duration) {
	if delay < 0 {
		delay = FallbackDelay
	}
	engine.ticket++
	ticket := engine.ticket

	defer func() {
		recovered := recover()
		if recovered == nil {
			return
		}
		engine.logger.Error("scheduling next step failed, completing run", "index", engine.index, "panic", recovered)
		engine.noteLocked("", fmt.Sprintf("scheduling fault at index %d: %v", engine.index, recovered))
		engine.pending = nil
		engine.flushLeadInLocked()
		engine.completeLocked()
	}()

	engine.pendingDue = engine.options.Clock.Now().Add(delay)
	engine.pending = engine.options.Clock.AfterFunc(delay, func() {
		engine.executeStep(ticket)
	})
}

func (engine *Engine) completeLocked() {
	now := engine.options.Clock.Now()
	engine.elapsed = engine.elapsedLocked(now)
	engine.running = false
	engine.paused = false
	engine.completed = true
	engine.enqueueLocked(Event{Type: EventComplete})
}

func (engine *Engine) cancelTimersLocked() {
	if engine.pending != nil {
		engine.pending.Stop()
		engine.pending = nil
	}
	if engine.lead != nil {
		engine.lead.timer.Stop()
		engine.lead = nil
	}
	engine.ticket++
}

func (engine *Engine) stopLocked() {
	engine.cancelTimersLocked()
	if engine.running {
		engine.elapsed = engine.elapsedLocked(engine.options.Clock.Now())
	}
	engine.running = false
	engine.paused = false
	engine.completed = false
}

func (engine *Engine) elapsedLocked(now time.Time) time.Duration {
	if engine.running && !engine.paused {
		return now.Sub(engine.startTime)
	}
	return engine.elapsed
}

func (engine *Engine) enqueueLocked(events ...Event) {
	now := engine.options.Clock.Now()
	for _, event := range events {
		event.Timestamp = now
		engine.outbox = append(engine.outbox, event)
	}
}

func (engine *Engine) noteLocked(stepID, note string) {
	engine.trail.add(DiagnosticEntry{
		Timestamp: engine.options.Clock.Now(),
		StepID:    stepID,
		Note:      note,
	})
}

// drain delivers queued events in order. Only one caller delivers at a time;
// events queued by listeners during delivery are picked up by that caller.
func (engine *Engine) drain() {
	engine.mu.Lock()
	if engine.draining {
		engine.mu.Unlock()
		return
	}
	engine.draining = true

	for len(engine.outbox) > 0 {
		event := engine.outbox[0]
		engine.outbox = engine.outbox[1:]
		engine.trail.add(DiagnosticEntry{Timestamp: event.Timestamp, Event: event.Type, StepID: event.StepID})
		listeners := engine.recipientsLocked()
		engine.mu.Unlock()

		failed := dispatch(event, listeners)

		engine.mu.Lock()
		for _, failure := range failed {
			engine.failures++
			engine.faulty[failure.id] = true
			engine.logger.Warn("listener failed", "event", event.Type, "step_id", event.StepID, "failures", engine.failures, "error", failure.err)
			engine.noteLocked(event.StepID, "listener failed: "+failure.err.Error())
		}
		if len(failed) > 0 && engine.failures > MaxListenerFailures && !engine.halted {
			engine.hardStopLocked()
		}
	}

	engine.draining = false
	engine.mu.Unlock()
}

// recipientsLocked snapshots the listeners. After a hard stop the listeners
// that failed during the run are left out.
func (engine *Engine) recipientsLocked() []registeredListener {
	recipients := make([]registeredListener, 0, len(engine.listeners))
	for _, registered := range engine.listeners {
		if engine.halted && engine.faulty[registered.id] {
			continue
		}
		recipients = append(recipients, registered)
	}
	return recipients
}

type listenerFailure struct {
	id  ListenerID
	err error
}

func dispatch(event Event, listeners []registeredListener) []listenerFailure {
	var failed []listenerFailure
	for _, registered := range listeners {
		if err := invoke(registered.listener, event); err != nil {
			failed = append(failed, listenerFailure{id: registered.id, err: err})
		}
	}
	return failed
}

func invoke(listener Listener, event Event) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%w: %v", ErrListenerPanic, recovered)
		}
	}()
	return listener.HandleEvent(event)
}

func (engine *Engine) hardStopLocked() {
	engine.logger.Error("too many listener failures, stopping run", "failures", engine.failures)
	engine.noteLocked("", fmt.Sprintf("hard stop after %d listener failures", engine.failures))
	engine.stopLocked()
	engine.completed = true
	engine.halted = true
	engine.outbox = nil
	engine.enqueueLocked(Event{Type: EventComplete})

	if engine.options.Store == nil {
		return
	}
	blob, err := encodeDiagnostics(engine.runID, engine.options.Clock.Now(), engine.failures, engine.trail.snapshot())
	if err != nil {
		engine.logger.Warn("encode diagnostics", "error", err)
		return
	}
	go engine.persistDiagnostics(blob)
}

func (engine *Engine) persistDiagnostics(blob string) {
	defer func() {
		if recovered := recover(); recovered != nil {
			engine.logger.Warn("persist diagnostics panicked", "panic", recovered)
		}
	}()
	if err := engine.options.Store.SetString(engine.options.DiagnosticsKey, blob); err != nil {
		engine.logger.Warn("persist diagnostics", "error", err)
	}
}

type channelListener struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func (subscriber *channelListener) HandleEvent(event Event) error {
	subscriber.mu.Lock()
	defer subscriber.mu.Unlock()
	if subscriber.closed {
		return nil
	}
	select {
	case subscriber.ch <- event:
	default:
	}
	return nil
}

func (subscriber *channelListener) close() {
	subscriber.mu.Lock()
	defer subscriber.mu.Unlock()
	if !subscriber.closed {
		subscriber.closed = true
		close(subscriber.ch)
	}
}
