package program

import (
	"fmt"
	"time"

	"rangetimer/internal/core/model"
)

// PPCID identifies the PPC program.
const PPCID = "ppc"

const (
	StatePrestart = "prestart"
	StateShooting = "shooting"

	CommandBeep        = "beep"
	CommandLoad        = "load"
	CommandAreYouReady = "are_you_ready"
	CommandLineReady   = "line_ready"
)

const (
	beepDelay      = 200 * time.Millisecond
	finishedDelay  = 3500 * time.Millisecond
	prestartCounts = 3
)

// PPCSettings selects a discipline and stage.
type PPCSettings struct {
	Discipline     string `yaml:"discipline"`
	CurrentStageID string `yaml:"currentStageId,omitempty"`
	SoundMode      bool   `yaml:"soundMode"`
}

// DefaultPPCSettings returns the first stage of the PPC 1500 match.
func DefaultPPCSettings() PPCSettings {
	return PPCSettings{Discipline: "pistol_1500", SoundMode: true}
}

// ValidatePPCSettings checks the discipline and stage against the catalogue.
func ValidatePPCSettings(settings PPCSettings) error {
	if settings.Discipline == "" {
		return fmt.Errorf("%w: discipline is required", ErrInvalidSettings)
	}
	if _, err := StageByID(settings.Discipline, settings.CurrentStageID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return nil
}

// PPCSequence builds the pre-start countdown, the shooting window and the
// closing gap for the selected stage. Unresolvable settings yield no steps.
// Manual range commands happen before the run and are not part of the sequence.
func PPCSequence(settings PPCSettings) []model.TimingStep {
	stage, err := StageByID(settings.Discipline, settings.CurrentStageID)
	if err != nil {
		return nil
	}
	return stageSequence(stage, settings.SoundMode)
}

func stageSequence(stage Stage, audio bool) []model.TimingStep {
	steps := make([]model.TimingStep, 0, stage.TimeLimit+prestartCounts+3)

	for count := prestartCounts; count >= 1; count-- {
		delay := tickDelay
		if count == 1 {
			delay -= beepDelay
		}
		steps = append(steps, tick(fmt.Sprintf("prestart_%d", count), StatePrestart, -count, delay))
	}
	steps = append(steps, model.TimingStep{
		ID:           "beep_start",
		State:        StatePrestart,
		Command:      CommandBeep,
		AudioEnabled: audio,
		Delay:        beepDelay,
	})

	steps = append(steps, tick("shooting_start", StateShooting, stage.TimeLimit, tickDelay))
	for count := stage.TimeLimit - 1; count >= 2; count-- {
		steps = append(steps, tick(fmt.Sprintf("shooting_%d", count), StateShooting, count, tickDelay))
	}
	if stage.TimeLimit > 1 {
		steps = append(steps, tick("shooting_1", StateShooting, 1, tickDelay-beepDelay))
	}

	beepEnd := tick("beep_end", StateShooting, 0, beepDelay)
	beepEnd.Command = CommandBeep
	beepEnd.AudioEnabled = audio
	steps = append(steps, beepEnd)

	return append(steps, model.TimingStep{ID: "finished", State: StateFinished, Delay: finishedDelay})
}

func ppcUIConfig(settings PPCSettings) UIConfig {
	config := UIConfig{
		StateColors: map[string]string{
			StatePrestart: "white",
			StateShooting: "green",
			StateFinished: "red",
		},
		ManualCommands: []string{CommandLoad, CommandAreYouReady, CommandLineReady},
	}
	if stage, err := StageByID(settings.Discipline, settings.CurrentStageID); err == nil {
		config.Subtitle = fmt.Sprintf("%s · %d yd · %d rounds · %ds", stage.Name, stage.Distance, stage.Rounds(), stage.TimeLimit)
	}
	return config
}

// NewPPC creates the PPC program with default settings.
func NewPPC() *Definition[PPCSettings] {
	return NewDefinition(Spec[PPCSettings]{
		ID:       PPCID,
		Name:     "PPC",
		Kind:     KindPPC,
		Category: CategoryPPC,
		Defaults: DefaultPPCSettings(),
		Generate: PPCSequence,
		Validate: ValidatePPCSettings,
		UIConfig: ppcUIConfig,
	})
}
