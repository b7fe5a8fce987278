package settings

import (
	"testing"

	"rangetimer/internal/core/program"
	"rangetimer/internal/i18n"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedKeys(t *testing.T) {
	keys, err := orderedKeys(program.DefaultFieldSettings())
	require.NoError(t, err)
	assert.Equal(t, []string{"shootingDuration", "prepareTime", "prepareWarning", "warningTime", "competitionMode", "soundMode"}, keys)

	_, err = orderedKeys("not a struct")
	assert.Error(t, err)
}

func TestSaveAppliesSettings(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	field := program.NewField()
	saved := 0
	prefs, err := New(app, i18n.New("en"), field, func(program.Program) { saved++ }, nil)
	require.NoError(t, err)

	prefs.controls["prepareTime"].(*intControl).entry.SetText("15")
	prefs.controls["soundMode"].(*checkControl).check.SetChecked(true)
	prefs.handleSave()

	assert.Equal(t, 1, saved)
	assert.Equal(t, 15, field.Current().PrepareTime)
	assert.True(t, field.Current().SoundMode)
	assert.Empty(t, prefs.message.Text)
}

func TestSaveRejectsInvalidInput(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	duel := program.NewDuel()
	saved := 0
	prefs, err := New(app, i18n.New("en"), duel, func(program.Program) { saved++ }, nil)
	require.NoError(t, err)

	prefs.controls["numberOfCycles"].(*intControl).entry.SetText("five")
	prefs.handleSave()
	assert.Contains(t, prefs.message.Text, "numberOfCycles must be a whole number")

	prefs.controls["numberOfCycles"].(*intControl).entry.SetText("50")
	prefs.handleSave()
	assert.Contains(t, prefs.message.Text, "numberOfCycles")

	assert.Zero(t, saved)
	assert.Equal(t, program.DefaultDuelSettings(), duel.Current())
}

func TestPPCStageChoice(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()

	ppc := program.NewPPC()
	prefs, err := New(app, i18n.New("en"), ppc, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, prefs.keys, stageKey)

	discipline := prefs.controls[disciplineKey].(*choiceControl)
	stage := prefs.controls[stageKey].(*choiceControl)
	assert.Equal(t, "pistol_1500", discipline.selected())
	assert.Equal(t, "m1_7y", stage.selected())

	discipline.choose("service_pistol")
	assert.Equal(t, "sp_7y", stage.selected())
	stage.choose("sp_25y")

	prefs.handleSave()
	assert.Equal(t, program.PPCSettings{Discipline: "service_pistol", CurrentStageID: "sp_25y", SoundMode: true}, ppc.Current())
}
