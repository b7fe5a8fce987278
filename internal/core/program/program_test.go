package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builtins() []Program {
	return []Program{NewField(), NewDuel(), NewPPC()}
}

func TestSequencesAreValidAndDeterministic(t *testing.T) {
	for _, program := range builtins() {
		t.Run(program.ID(), func(t *testing.T) {
			require.NoError(t, program.ValidateSettings(program.Settings()))

			first := program.TimingSequence()
			require.NotEmpty(t, first)
			for _, step := range first {
				assert.True(t, step.Valid(), step.ID)
			}
			assert.Equal(t, first, program.TimingSequence())

			seen := map[string]bool{}
			for _, step := range first {
				assert.False(t, seen[step.ID], "duplicate step id %s", step.ID)
				seen[step.ID] = true
			}
		})
	}
}

func TestUpdateSettingsMergesPartial(t *testing.T) {
	field := NewField()

	require.NoError(t, field.UpdateSettings(map[string]any{"shootingDuration": 20, "soundMode": true}))

	current := field.Current()
	assert.Equal(t, 20, current.ShootingDuration)
	assert.True(t, current.SoundMode)
	assert.Equal(t, 10, current.PrepareTime)
	assert.Equal(t, 5, current.PrepareWarning)
}

func TestUpdateSettingsRejectsWholesale(t *testing.T) {
	tests := []struct {
		name    string
		partial map[string]any
	}{
		{name: "out of range", partial: map[string]any{"shootingDuration": 20, "prepareWarning": 50}},
		{name: "negative", partial: map[string]any{"shootingDuration": -5}},
		{name: "non numeric", partial: map[string]any{"shootingDuration": "ten"}},
		{name: "numeric string", partial: map[string]any{"prepareTime": "10"}},
		{name: "fractional", partial: map[string]any{"prepareTime": 7.5}},
		{name: "fractional float32", partial: map[string]any{"warningTime": float32(1.25)}},
		{name: "fractional beside valid", partial: map[string]any{"shootingDuration": 20, "prepareTime": 9.9}},
		{name: "unknown field", partial: map[string]any{"shootingDurationX": 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field := NewField()
			before := field.Current()

			err := field.UpdateSettings(tt.partial)
			assert.ErrorIs(t, err, ErrInvalidSettings)
			assert.Equal(t, before, field.Current())
		})
	}
}

func TestValidateSettingsAcceptsSeveralShapes(t *testing.T) {
	field := NewField()
	settings := DefaultFieldSettings()

	assert.NoError(t, field.ValidateSettings(settings))
	assert.NoError(t, field.ValidateSettings(&settings))
	assert.NoError(t, field.ValidateSettings(map[string]any{"shootingDuration": 30}))

	assert.ErrorIs(t, field.ValidateSettings(map[string]any{"shootingDuration": -5}), ErrInvalidSettings)
	assert.ErrorIs(t, field.ValidateSettings(DefaultDuelSettings()), ErrInvalidSettings)
	assert.ErrorIs(t, field.ValidateSettings((*FieldSettings)(nil)), ErrInvalidSettings)
	assert.ErrorIs(t, field.ValidateSettings(42), ErrInvalidSettings)
	assert.ErrorIs(t, field.ValidateSettings(map[string]any{"prepareTime": 7.5}), ErrInvalidSettings)
}

func TestSetSettings(t *testing.T) {
	duel := NewDuel()
	settings := DefaultDuelSettings()
	settings.NumberOfCycles = 21

	assert.ErrorIs(t, duel.SetSettings(settings), ErrInvalidSettings)
	assert.Equal(t, DefaultDuelSettings(), duel.Current())

	settings.NumberOfCycles = 2
	require.NoError(t, duel.SetSettings(settings))
	assert.Equal(t, 2, duel.Current().NumberOfCycles)
}

func TestTotalDurationMatchesSequence(t *testing.T) {
	for _, program := range builtins() {
		var sum int64
		for _, step := range program.TimingSequence() {
			sum += int64(step.Delay)
		}
		assert.Equal(t, sum, int64(program.TotalDuration()), program.ID())
	}
}
