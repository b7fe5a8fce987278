// Package session runs one program: it activates the program, drives an engine
// over its sequence, voices commands and gates the start behind the manual
// range commands the program requires.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"rangetimer/internal/audio"
	"rangetimer/internal/core/engine"
	"rangetimer/internal/core/model"
	"rangetimer/internal/core/program"
)

var (
	// ErrGateClosed is returned by Start while manual commands are still pending.
	ErrGateClosed = errors.New("manual commands not completed")
	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("session closed")
)

// Options configure a Session. Zero values select defaults.
type Options struct {
	Clock   engine.Clock
	Logger  *slog.Logger
	Store   engine.KeyValueStore
	Player  audio.Player
	Partial map[string]any
}

// Session owns the engine of a single run.
type Session struct {
	registry *program.Registry
	program  program.Program
	engine   *engine.Engine
	player   audio.Player
	logger   *slog.Logger
	audible  bool

	mu           sync.Mutex
	manual       []string
	acknowledged int
	closed       bool
}

// New activates program id (applying options.Partial first) and prepares a run.
// The registry is left unchanged on error.
func New(registry *program.Registry, id string, options Options) (*Session, error) {
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Player == nil {
		options.Player = audio.Silent{}
	}

	active, err := registry.SetActive(id, options.Partial)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	steps := active.TimingSequence()
	session := &Session{
		registry: registry,
		program:  active,
		player:   options.Player,
		logger:   options.Logger.With("program", id),
		audible:  slices.ContainsFunc(steps, func(step model.TimingStep) bool { return step.AudioEnabled }),
		manual:   active.UIConfig().ManualCommands,
	}
	session.engine = engine.New(steps, engine.Config{
		Clock:  options.Clock,
		Logger: options.Logger,
		Store:  options.Store,
	})
	session.engine.AddListener(engine.ListenerFunc(session.announce))

	session.logger.Info("session ready", "steps", len(steps), "total", active.TotalDuration(), "run_id", session.engine.RunID())
	return session, nil
}

// Program returns the program being run.
func (session *Session) Program() program.Program {
	return session.program
}

// Engine exposes the underlying engine for time queries.
func (session *Session) Engine() *engine.Engine {
	return session.engine
}

// ManualCommands lists the range commands that must be given before the start.
func (session *Session) ManualCommands() []string {
	return slices.Clone(session.manual)
}

// NextCommand returns the next manual command to give, or "" once the gate is open.
func (session *Session) NextCommand() string {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.acknowledged >= len(session.manual) {
		return ""
	}
	return session.manual[session.acknowledged]
}

// GateOpen reports whether every manual command has been given.
func (session *Session) GateOpen() bool {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.acknowledged >= len(session.manual)
}

// AdvanceGate gives the next manual command, voicing it when the program has
// sound, and reports whether the gate is now open.
func (session *Session) AdvanceGate() (string, bool) {
	session.mu.Lock()
	if session.acknowledged >= len(session.manual) {
		session.mu.Unlock()
		return "", true
	}
	command := session.manual[session.acknowledged]
	session.acknowledged++
	open := session.acknowledged >= len(session.manual)
	session.mu.Unlock()

	if session.audible {
		if err := session.player.Play(command); err != nil {
			session.logger.Warn("manual command cue failed", "command", command, "error", err)
		}
	}
	return command, open
}

// Start runs the sequence once the gate is open.
func (session *Session) Start() error {
	session.mu.Lock()
	if session.closed {
		session.mu.Unlock()
		return ErrClosed
	}
	if session.acknowledged < len(session.manual) {
		pending := session.manual[session.acknowledged]
		session.mu.Unlock()
		return fmt.Errorf("%w: next is %s", ErrGateClosed, pending)
	}
	session.mu.Unlock()

	session.engine.Start()
	return nil
}

// Pause freezes the run.
func (session *Session) Pause() {
	session.engine.Pause()
}

// Resume continues a paused run.
func (session *Session) Resume() {
	session.engine.Resume()
}

// Reset rewinds the run and closes the gate again.
func (session *Session) Reset() {
	session.engine.Reset()
	session.mu.Lock()
	session.acknowledged = 0
	session.mu.Unlock()
}

// Events returns a channel of engine events and its cancel function.
func (session *Session) Events(buffer int) (<-chan engine.Event, func()) {
	return session.engine.Subscribe(buffer)
}

// Close stops the run and clears the active program. Safe to call repeatedly.
func (session *Session) Close() {
	session.mu.Lock()
	if session.closed {
		session.mu.Unlock()
		return
	}
	session.closed = true
	session.mu.Unlock()

	session.engine.Stop()
	session.registry.ClearActive()
	session.logger.Info("session closed", "elapsed", session.engine.ElapsedTime())
}

func (session *Session) announce(event engine.Event) error {
	if event.Type != engine.EventCommand {
		return nil
	}
	if err := session.player.Play(event.Command); err != nil {
		return fmt.Errorf("play %s: %w", event.Command, err)
	}
	return nil
}
