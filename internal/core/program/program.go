// Package program turns discipline settings into timing sequences and keeps
// track of which program is active for the current run.
package program

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"rangetimer/internal/core/model"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidSettings indicates settings rejected by a program's validator.
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrUnknownProgram indicates a lookup for an unregistered program id.
	ErrUnknownProgram = errors.New("unknown program")
	// ErrDuplicateProgram indicates a second registration under the same id.
	ErrDuplicateProgram = errors.New("program already registered")
)

// Kind tags the discipline a program implements.
type Kind string

const (
	KindField Kind = "field"
	KindDuel  Kind = "duel"
	KindPPC   Kind = "ppc"
)

// Category groups programs for listing.
type Category string

const (
	CategoryStandard Category = "standard"
	CategoryPPC      Category = "ppc"
)

// UIConfig carries display hints for the run screen.
type UIConfig struct {
	StateColors    map[string]string
	CountUpStates  []string
	ManualCommands []string
	Subtitle       string
}

// Program is a named discipline configuration producing a timing sequence.
type Program interface {
	ID() string
	Name() string
	Kind() Kind
	Category() Category
	Settings() any
	UpdateSettings(partial map[string]any) error
	ValidateSettings(settings any) error
	TimingSequence() []model.TimingStep
	TotalDuration() time.Duration
	UIConfig() UIConfig
}

// Definition composes a settings value with its generator and validator.
type Definition[S any] struct {
	mu       sync.RWMutex
	id       string
	name     string
	kind     Kind
	category Category
	settings S
	generate func(S) []model.TimingStep
	validate func(S) error
	uiConfig func(S) UIConfig
}

// Spec holds the parts of a Definition.
type Spec[S any] struct {
	ID       string
	Name     string
	Kind     Kind
	Category Category
	Defaults S
	Generate func(S) []model.TimingStep
	Validate func(S) error
	UIConfig func(S) UIConfig
}

// NewDefinition builds a program from its parts. The defaults must be valid.
func NewDefinition[S any](spec Spec[S]) *Definition[S] {
	return &Definition[S]{
		id:       spec.ID,
		name:     spec.Name,
		kind:     spec.Kind,
		category: spec.Category,
		settings: spec.Defaults,
		generate: spec.Generate,
		validate: spec.Validate,
		uiConfig: spec.UIConfig,
	}
}

// ID returns the program identifier.
func (definition *Definition[S]) ID() string { return definition.id }

// Name returns the display name.
func (definition *Definition[S]) Name() string { return definition.name }

// Kind returns the discipline tag.
func (definition *Definition[S]) Kind() Kind { return definition.kind }

// Category returns the listing group.
func (definition *Definition[S]) Category() Category { return definition.category }

// Current returns a copy of the typed settings.
func (definition *Definition[S]) Current() S {
	definition.mu.RLock()
	defer definition.mu.RUnlock()
	return definition.settings
}

// Settings returns a copy of the settings as an untyped value.
func (definition *Definition[S]) Settings() any {
	return definition.Current()
}

// SetSettings validates and replaces the settings wholesale.
func (definition *Definition[S]) SetSettings(settings S) error {
	if err := definition.validate(settings); err != nil {
		return err
	}
	definition.mu.Lock()
	definition.settings = settings
	definition.mu.Unlock()
	return nil
}

// UpdateSettings overlays partial (keyed by yaml field name) onto the current
// settings. Nothing is applied unless the merged result validates.
func (definition *Definition[S]) UpdateSettings(partial map[string]any) error {
	definition.mu.Lock()
	defer definition.mu.Unlock()

	merged, err := overlay(definition.settings, partial)
	if err != nil {
		return err
	}
	if err := definition.validate(merged); err != nil {
		return err
	}
	definition.settings = merged
	return nil
}

// ValidateSettings checks a settings value, pointer or partial map without applying it.
func (definition *Definition[S]) ValidateSettings(settings any) error {
	switch value := settings.(type) {
	case S:
		return definition.validate(value)
	case *S:
		if value == nil {
			return fmt.Errorf("%w: nil settings", ErrInvalidSettings)
		}
		return definition.validate(*value)
	case map[string]any:
		merged, err := overlay(definition.Current(), value)
		if err != nil {
			return err
		}
		return definition.validate(merged)
	default:
		return fmt.Errorf("%w: unsupported settings type %T", ErrInvalidSettings, settings)
	}
}

// TimingSequence generates the steps for the current settings.
func (definition *Definition[S]) TimingSequence() []model.TimingStep {
	return definition.generate(definition.Current())
}

// TotalDuration sums the delays of the current sequence.
func (definition *Definition[S]) TotalDuration() time.Duration {
	return model.TotalDuration(definition.TimingSequence())
}

// UIConfig returns display hints for the current settings.
func (definition *Definition[S]) UIConfig() UIConfig {
	if definition.uiConfig == nil {
		return UIConfig{}
	}
	return definition.uiConfig(definition.Current())
}

func overlay[S any](current S, partial map[string]any) (S, error) {
	if len(partial) == 0 {
		return current, nil
	}
	if err := checkWholeNumbers(partial); err != nil {
		return current, err
	}
	raw, err := yaml.Marshal(partial)
	if err != nil {
		return current, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	merged := current
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(&merged); err != nil {
		return current, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return merged, nil
}

// checkWholeNumbers rejects fractional values, which the decoder would
// otherwise truncate into integer fields.
func checkWholeNumbers(partial map[string]any) error {
	for key, value := range partial {
		var number float64
		switch typed := value.(type) {
		case float64:
			number = typed
		case float32:
			number = float64(typed)
		default:
			continue
		}
		if number != math.Trunc(number) {
			return fmt.Errorf("%w: %s must be a whole number, got %v", ErrInvalidSettings, key, value)
		}
	}
	return nil
}

func checkRange(field string, value, lower, upper int) error {
	if value < lower || value > upper {
		return fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrInvalidSettings, field, lower, upper, value)
	}
	return nil
}

func tick(id, state string, countdown int, delay time.Duration) model.TimingStep {
	return model.TimingStep{ID: id, State: state, Countdown: model.Count(countdown), Delay: delay}
}
