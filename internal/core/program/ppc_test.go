package program

import (
	"slices"
	"testing"
	"time"

	"rangetimer/internal/core/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogueLoads(t *testing.T) {
	disciplines, err := Disciplines()
	require.NoError(t, err)
	require.NotEmpty(t, disciplines)

	for _, discipline := range disciplines {
		for _, stage := range discipline.Stages {
			assert.Contains(t, TimeLimits, stage.TimeLimit, stage.ID)
			assert.Positive(t, stage.Rounds(), stage.ID)
		}
	}
}

func TestParseCatalogueRejectsBadTimeLimit(t *testing.T) {
	_, err := parseCatalogue([]byte(`
disciplines:
  - id: x
    name: X
    stages:
      - { id: s, name: S, distance: 7, timeLimit: 9, series: [{ position: standing, rounds: 6 }] }
`))
	assert.Error(t, err)
}

func TestStageByID(t *testing.T) {
	first, err := StageByID("pistol_1500", "")
	require.NoError(t, err)
	assert.Equal(t, "m1_7y", first.ID)

	stage, err := StageByID("pistol_1500", "m4_15y")
	require.NoError(t, err)
	assert.Equal(t, 8, stage.TimeLimit)
	assert.Equal(t, 15, stage.Distance)

	_, err = StageByID("pistol_1500", "nope")
	assert.ErrorIs(t, err, ErrUnknownStage)

	_, err = StageByID("nope", "")
	assert.ErrorIs(t, err, ErrUnknownDiscipline)
}

func TestPPCSequence(t *testing.T) {
	steps := PPCSequence(PPCSettings{Discipline: "pistol_1500", CurrentStageID: "m4_15y", SoundMode: true})
	require.NotEmpty(t, steps)

	var ids []string
	for _, step := range steps {
		require.True(t, step.Valid(), step.ID)
		ids = append(ids, step.ID)
	}
	assert.Equal(t, []string{
		"prestart_3", "prestart_2", "prestart_1", "beep_start",
		"shooting_start", "shooting_7", "shooting_6", "shooting_5", "shooting_4", "shooting_3", "shooting_2",
		"shooting_1", "beep_end", "finished",
	}, ids)

	byID := func(id string) model.TimingStep {
		index := slices.IndexFunc(steps, func(step model.TimingStep) bool { return step.ID == id })
		require.GreaterOrEqual(t, index, 0, id)
		return steps[index]
	}

	assert.Equal(t, 800*time.Millisecond, byID("prestart_1").Delay)
	assert.Equal(t, -1, *byID("prestart_1").Countdown)
	assert.Equal(t, 200*time.Millisecond, byID("beep_start").Delay)
	assert.True(t, byID("beep_start").AnnouncesCommand())
	assert.Equal(t, 8, *byID("shooting_start").Countdown)
	assert.Equal(t, 800*time.Millisecond, byID("shooting_1").Delay)
	assert.Equal(t, 3500*time.Millisecond, byID("finished").Delay)
	assert.Equal(t, 14500*time.Millisecond, model.TotalDuration(steps))

	for _, step := range steps {
		assert.NotContains(t, []string{CommandLoad, CommandAreYouReady, CommandLineReady}, step.Command)
	}
}

func TestPPCSequenceWithoutSound(t *testing.T) {
	steps := PPCSequence(PPCSettings{Discipline: "standard_pistol"})
	require.NotEmpty(t, steps)
	for _, step := range steps {
		assert.False(t, step.AudioEnabled)
	}
	assert.Equal(t, 165*time.Second+6500*time.Millisecond, model.TotalDuration(steps))
}

func TestPPCSequenceUnknownStage(t *testing.T) {
	assert.Empty(t, PPCSequence(PPCSettings{Discipline: "pistol_1500", CurrentStageID: "nope"}))
}

func TestValidatePPCSettings(t *testing.T) {
	assert.NoError(t, ValidatePPCSettings(DefaultPPCSettings()))
	assert.NoError(t, ValidatePPCSettings(PPCSettings{Discipline: "service_pistol", CurrentStageID: "sp_25y"}))
	assert.ErrorIs(t, ValidatePPCSettings(PPCSettings{}), ErrInvalidSettings)
	assert.ErrorIs(t, ValidatePPCSettings(PPCSettings{Discipline: "air_rifle"}), ErrInvalidSettings)

	err := ValidatePPCSettings(PPCSettings{Discipline: "service_pistol", CurrentStageID: "m1_7y"})
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.ErrorIs(t, err, ErrUnknownStage)
}

func TestPPCUIConfig(t *testing.T) {
	config := NewPPC().UIConfig()
	assert.Equal(t, []string{CommandLoad, CommandAreYouReady, CommandLineReady}, config.ManualCommands)
	assert.Contains(t, config.Subtitle, "7 yd")
}
