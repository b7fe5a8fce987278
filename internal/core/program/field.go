package program

import (
	"fmt"
	"time"

	"rangetimer/internal/core/model"
)

// FieldID identifies the Standard Field program.
const FieldID = "standard_field"

const (
	StatePrepare        = "prepare"
	StatePrepareWarning = "prepare_warning"
	StateFire           = "fire"
	StateFireWarning    = "fire_warning"
	StateFinished       = "finished"

	CommandShootersReady = "shooters_ready"
	CommandWarning       = "warning"
	CommandFire          = "fire"
	CommandStop          = "stop"
)

const (
	tickDelay          = time.Second
	shootersReadyDelay = 2 * time.Second
)

// FieldSettings configures the Standard Field program. Durations are seconds.
type FieldSettings struct {
	ShootingDuration int  `yaml:"shootingDuration"`
	PrepareTime      int  `yaml:"prepareTime"`
	PrepareWarning   int  `yaml:"prepareWarning"`
	WarningTime      int  `yaml:"warningTime"`
	CompetitionMode  bool `yaml:"competitionMode"`
	SoundMode        bool `yaml:"soundMode"`
}

// DefaultFieldSettings returns the visual-only default drill.
func DefaultFieldSettings() FieldSettings {
	return FieldSettings{
		ShootingDuration: 10,
		PrepareTime:      10,
		PrepareWarning:   5,
		WarningTime:      2,
	}
}

// AudioEnabled reports whether command steps are announced.
func (settings FieldSettings) AudioEnabled() bool {
	return settings.SoundMode && !settings.CompetitionMode
}

// ValidateFieldSettings checks ranges and phase ordering.
func ValidateFieldSettings(settings FieldSettings) error {
	if err := checkRange("shootingDuration", settings.ShootingDuration, 1, 300); err != nil {
		return err
	}
	if err := checkRange("prepareTime", settings.PrepareTime, 1, 300); err != nil {
		return err
	}
	if settings.PrepareWarning < 0 || settings.PrepareWarning >= settings.PrepareTime {
		return fmt.Errorf("%w: prepareWarning must be at least 0 and less than prepareTime (%d)", ErrInvalidSettings, settings.PrepareTime)
	}
	if settings.WarningTime < 0 || settings.WarningTime >= settings.ShootingDuration {
		return fmt.Errorf("%w: warningTime must be at least 0 and less than shootingDuration (%d)", ErrInvalidSettings, settings.ShootingDuration)
	}
	return nil
}

// FieldSequence builds the prepare, warning, fire and finish phases.
// The fire phase counts up from zero.
func FieldSequence(settings FieldSettings) []model.TimingStep {
	audio := settings.AudioEnabled()
	fireSeconds := settings.ShootingDuration - settings.WarningTime
	steps := make([]model.TimingStep, 0, settings.PrepareTime+settings.ShootingDuration+3)

	if audio {
		steps = append(steps, model.TimingStep{
			ID:           "shooters_ready",
			State:        StatePrepare,
			Command:      CommandShootersReady,
			AudioEnabled: true,
			Countdown:    model.Count(settings.PrepareTime),
			Delay:        shootersReadyDelay,
		})
	}

	steps = append(steps, tick("prepare_start", StatePrepare, settings.PrepareTime, 0))
	for count := settings.PrepareTime; count > settings.PrepareWarning; count-- {
		steps = append(steps, tick(fmt.Sprintf("prepare_%d", count), StatePrepare, count, tickDelay))
	}

	for count := settings.PrepareWarning; count >= 1; count-- {
		step := tick(fmt.Sprintf("prepare_warning_%d", count), StatePrepareWarning, count, tickDelay)
		if count == settings.PrepareWarning {
			step.Command = CommandWarning
			step.AudioEnabled = audio
		}
		steps = append(steps, step)
	}

	fireStart := tick("fire_start", StateFire, 0, tickDelay)
	fireStart.Command = CommandFire
	fireStart.AudioEnabled = audio
	steps = append(steps, fireStart)
	for count := 1; count < fireSeconds; count++ {
		steps = append(steps, tick(fmt.Sprintf("fire_%d", count), StateFire, count, tickDelay))
	}

	for count := fireSeconds; count < settings.ShootingDuration; count++ {
		step := tick(fmt.Sprintf("fire_warning_%d", count), StateFireWarning, count, tickDelay)
		if count == fireSeconds {
			step.Command = CommandWarning
			step.AudioEnabled = audio
		}
		steps = append(steps, step)
	}

	finished := tick("finished", StateFinished, settings.ShootingDuration, 0)
	finished.Command = CommandStop
	finished.AudioEnabled = audio
	return append(steps, finished)
}

func fieldUIConfig(FieldSettings) UIConfig {
	return UIConfig{
		StateColors: map[string]string{
			StatePrepare:        "white",
			StatePrepareWarning: "yellow",
			StateFire:           "green",
			StateFireWarning:    "yellow",
			StateFinished:       "red",
		},
		CountUpStates: []string{StateFire, StateFireWarning},
	}
}

// NewField creates the Standard Field program with default settings.
func NewField() *Definition[FieldSettings] {
	return NewDefinition(Spec[FieldSettings]{
		ID:       FieldID,
		Name:     "Standard Field",
		Kind:     KindField,
		Category: CategoryStandard,
		Defaults: DefaultFieldSettings(),
		Generate: FieldSequence,
		Validate: ValidateFieldSettings,
		UIConfig: fieldUIConfig,
	})
}
