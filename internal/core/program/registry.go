package program

import (
	"fmt"
	"log/slog"
	"sync"
)

// Registry maps program ids to instances and tracks the active program.
// Build one per process and pass it to the screens that need it.
type Registry struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	programs map[string]Program
	order    []string
	active   string
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:   logger,
		programs: make(map[string]Program),
	}
}

// NewDefaultRegistry creates a registry holding the Field, Duel and PPC programs.
func NewDefaultRegistry(logger *slog.Logger) *Registry {
	registry := NewRegistry(logger)
	for _, program := range []Program{NewField(), NewDuel(), NewPPC()} {
		// Built-in ids are distinct.
		_ = registry.Register(program)
	}
	return registry
}

// Register adds a program. Ids must be unique.
func (registry *Registry) Register(program Program) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, exists := registry.programs[program.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateProgram, program.ID())
	}
	registry.programs[program.ID()] = program
	registry.order = append(registry.order, program.ID())
	return nil
}

// Program looks up a program by id.
func (registry *Registry) Program(id string) (Program, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	program, ok := registry.programs[id]
	return program, ok
}

// SetActive resolves a program, applies the optional partial settings and
// marks it active. On error neither the settings nor the active program change.
func (registry *Registry) SetActive(id string, partial map[string]any) (Program, error) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	program, ok := registry.programs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, id)
	}
	if len(partial) > 0 {
		if err := program.UpdateSettings(partial); err != nil {
			registry.logger.Warn("rejected program settings", "program", id, "error", err)
			return nil, fmt.Errorf("activate %s: %w", id, err)
		}
	}
	registry.active = id
	registry.logger.Debug("program activated", "program", id)
	return program, nil
}

// Active returns the active program, if any.
func (registry *Registry) Active() (Program, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	if registry.active == "" {
		return nil, false
	}
	program, ok := registry.programs[registry.active]
	return program, ok
}

// ClearActive forgets the active program. Call it on every run teardown.
func (registry *Registry) ClearActive() {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if registry.active != "" {
		registry.logger.Debug("program deactivated", "program", registry.active)
	}
	registry.active = ""
}

// Available lists programs in registration order. An empty category lists all.
func (registry *Registry) Available(category Category) []Program {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	programs := make([]Program, 0, len(registry.order))
	for _, id := range registry.order {
		program := registry.programs[id]
		if category == "" || program.Category() == category {
			programs = append(programs, program)
		}
	}
	return programs
}
