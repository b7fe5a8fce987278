package program

import (
	"fmt"
	"time"

	"rangetimer/internal/core/model"
)

// DuelID identifies the Standard Duel program.
const DuelID = "standard_duel"

const (
	StateCountdown = "countdown"
	StateRed       = "red"
	StateGreen     = "green"
)

// DuelSettings configures the Standard Duel program. Durations are seconds.
type DuelSettings struct {
	CountdownDuration  int `yaml:"countdownDuration"`
	NumberOfCycles     int `yaml:"numberOfCycles"`
	RedLightDuration   int `yaml:"redLightDuration"`
	GreenLightDuration int `yaml:"greenLightDuration"`
}

// DefaultDuelSettings returns the standard duel course.
func DefaultDuelSettings() DuelSettings {
	return DuelSettings{
		CountdownDuration:  60,
		NumberOfCycles:     5,
		RedLightDuration:   7,
		GreenLightDuration: 3,
	}
}

// ValidateDuelSettings checks ranges.
func ValidateDuelSettings(settings DuelSettings) error {
	if err := checkRange("countdownDuration", settings.CountdownDuration, 1, 300); err != nil {
		return err
	}
	if err := checkRange("numberOfCycles", settings.NumberOfCycles, 1, 20); err != nil {
		return err
	}
	if err := checkRange("redLightDuration", settings.RedLightDuration, 1, 60); err != nil {
		return err
	}
	return checkRange("greenLightDuration", settings.GreenLightDuration, 1, 60)
}

// DuelSequence builds the countdown followed by red/green light cycles.
func DuelSequence(settings DuelSettings) []model.TimingStep {
	steps := make([]model.TimingStep, 0, settings.CountdownDuration+2*settings.NumberOfCycles+1)
	for count := settings.CountdownDuration; count >= 1; count-- {
		steps = append(steps, tick(fmt.Sprintf("countdown_%d", count), StateCountdown, count, tickDelay))
	}
	for cycle := 1; cycle <= settings.NumberOfCycles; cycle++ {
		steps = append(steps,
			model.TimingStep{
				ID:    fmt.Sprintf("cycle_%d_red", cycle),
				State: StateRed,
				Delay: time.Duration(settings.RedLightDuration) * time.Second,
			},
			model.TimingStep{
				ID:    fmt.Sprintf("cycle_%d_green", cycle),
				State: StateGreen,
				Delay: time.Duration(settings.GreenLightDuration) * time.Second,
			},
		)
	}
	return append(steps, model.TimingStep{ID: "finished", State: StateFinished})
}

func duelUIConfig(settings DuelSettings) UIConfig {
	return UIConfig{
		StateColors: map[string]string{
			StateCountdown: "white",
			StateRed:       "red",
			StateGreen:     "green",
			StateFinished:  "red",
		},
		Subtitle: fmt.Sprintf("%d × %ds / %ds", settings.NumberOfCycles, settings.RedLightDuration, settings.GreenLightDuration),
	}
}

// NewDuel creates the Standard Duel program with default settings.
func NewDuel() *Definition[DuelSettings] {
	return NewDefinition(Spec[DuelSettings]{
		ID:       DuelID,
		Name:     "Standard Duel",
		Kind:     KindDuel,
		Category: CategoryStandard,
		Defaults: DefaultDuelSettings(),
		Generate: DuelSequence,
		Validate: ValidateDuelSettings,
		UIConfig: duelUIConfig,
	})
}
