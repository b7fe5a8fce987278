package program

import (
	"strings"
	"testing"
	"time"

	"rangetimer/internal/core/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldDefaultSequence(t *testing.T) {
	steps := FieldSequence(DefaultFieldSettings())
	require.NotEmpty(t, steps)

	prepare := 0
	var fireStarts []model.TimingStep
	for _, step := range steps {
		assert.True(t, step.Valid(), step.ID)
		assert.False(t, strings.HasPrefix(step.ID, "shooters_ready"))
		assert.False(t, step.AudioEnabled, step.ID)
		if step.State == StatePrepare {
			prepare++
		}
		if step.ID == "fire_start" {
			fireStarts = append(fireStarts, step)
		}
	}

	assert.Positive(t, prepare)
	require.Len(t, fireStarts, 1)
	assert.Equal(t, StateFire, fireStarts[0].State)
	require.NotNil(t, fireStarts[0].Countdown)
	assert.Equal(t, 0, *fireStarts[0].Countdown)

	assert.Equal(t, "prepare_start", steps[0].ID)
	assert.Zero(t, steps[0].Delay)
	assert.Equal(t, StateFinished, steps[len(steps)-1].State)
	assert.GreaterOrEqual(t, model.TotalDuration(steps), 20*time.Second)
}

func TestFieldPhases(t *testing.T) {
	steps := FieldSequence(DefaultFieldSettings())

	var trace []string
	for _, step := range steps {
		trace = append(trace, step.ID)
	}
	assert.Equal(t, []string{
		"prepare_start",
		"prepare_10", "prepare_9", "prepare_8", "prepare_7", "prepare_6",
		"prepare_warning_5", "prepare_warning_4", "prepare_warning_3", "prepare_warning_2", "prepare_warning_1",
		"fire_start", "fire_1", "fire_2", "fire_3", "fire_4", "fire_5", "fire_6", "fire_7",
		"fire_warning_8", "fire_warning_9",
		"finished",
	}, trace)

	last := -1
	for _, step := range steps {
		if step.State == StateFire || step.State == StateFireWarning {
			assert.Greater(t, *step.Countdown, last, "fire phase counts up")
			last = *step.Countdown
		}
	}
}

func TestFieldAudio(t *testing.T) {
	tests := []struct {
		name        string
		soundMode   bool
		competition bool
		wantAudio   bool
	}{
		{name: "visual only", soundMode: false, competition: false, wantAudio: false},
		{name: "sound mode", soundMode: true, competition: false, wantAudio: true},
		{name: "competition suppresses audio", soundMode: true, competition: true, wantAudio: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultFieldSettings()
			settings.SoundMode = tt.soundMode
			settings.CompetitionMode = tt.competition
			steps := FieldSequence(settings)

			announced := 0
			for _, step := range steps {
				if step.AudioEnabled {
					announced++
					assert.NotEmpty(t, step.Command, step.ID)
				}
			}
			if tt.wantAudio {
				assert.Equal(t, "shooters_ready", steps[0].ID)
				assert.Positive(t, announced)
			} else {
				assert.Zero(t, announced)
			}
		})
	}
}

func TestFieldWithoutWarnings(t *testing.T) {
	settings := FieldSettings{ShootingDuration: 3, PrepareTime: 2, PrepareWarning: 0, WarningTime: 0}
	require.NoError(t, ValidateFieldSettings(settings))

	steps := FieldSequence(settings)
	for _, step := range steps {
		assert.NotEqual(t, StatePrepareWarning, step.State)
		assert.NotEqual(t, StateFireWarning, step.State)
	}
	assert.Equal(t, 5*time.Second, model.TotalDuration(steps))
}

func TestValidateFieldSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FieldSettings)
		valid  bool
	}{
		{name: "defaults", mutate: func(*FieldSettings) {}, valid: true},
		{name: "max duration", mutate: func(s *FieldSettings) { s.ShootingDuration = 300 }, valid: true},
		{name: "negative duration", mutate: func(s *FieldSettings) { s.ShootingDuration = -5 }, valid: false},
		{name: "duration too long", mutate: func(s *FieldSettings) { s.ShootingDuration = 301 }, valid: false},
		{name: "warning equals prepare", mutate: func(s *FieldSettings) { s.PrepareWarning = 10 }, valid: false},
		{name: "negative warning", mutate: func(s *FieldSettings) { s.PrepareWarning = -1 }, valid: false},
		{name: "fire warning covers duration", mutate: func(s *FieldSettings) { s.WarningTime = 10 }, valid: false},
		{name: "zero prepare", mutate: func(s *FieldSettings) { s.PrepareTime = 0; s.PrepareWarning = 0 }, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultFieldSettings()
			tt.mutate(&settings)
			err := ValidateFieldSettings(settings)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidSettings)
			}
		})
	}
}
