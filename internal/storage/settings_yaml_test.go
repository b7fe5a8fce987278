package storage

import (
	"os"
	"path/filepath"
	"testing"

	"rangetimer/internal/core/program"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProgramSettingsMissingFile(t *testing.T) {
	registry := program.NewDefaultRegistry(nil)

	last, err := LoadProgramSettings(filepath.Join(t.TempDir(), "absent.yaml"), registry, nil)
	require.NoError(t, err)
	assert.Empty(t, last)

	field, ok := registry.Program(program.FieldID)
	require.True(t, ok)
	assert.Equal(t, program.DefaultFieldSettings(), field.Settings())
}

func TestProgramSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", settingsFileName)

	source := program.NewDefaultRegistry(nil)
	_, err := source.SetActive(program.DuelID, map[string]any{"numberOfCycles": 8})
	require.NoError(t, err)
	_, err = source.SetActive(program.PPCID, map[string]any{"discipline": "service_pistol", "currentStageId": "sp_15y"})
	require.NoError(t, err)
	require.NoError(t, SaveProgramSettings(path, source, program.PPCID))

	target := program.NewDefaultRegistry(nil)
	last, err := LoadProgramSettings(path, target, nil)
	require.NoError(t, err)
	assert.Equal(t, program.PPCID, last)

	duel, _ := target.Program(program.DuelID)
	assert.Equal(t, 8, duel.Settings().(program.DuelSettings).NumberOfCycles)

	ppc, _ := target.Program(program.PPCID)
	assert.Equal(t, program.PPCSettings{Discipline: "service_pistol", CurrentStageID: "sp_15y", SoundMode: true}, ppc.Settings())
}

func TestLoadProgramSettingsSkipsInvalidEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), settingsFileName)
	content := `last_program: retired_program
programs:
  standard_field:
    prepareTime: 12
  standard_duel:
    numberOfCycles: 99
  retired_program:
    speed: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	registry := program.NewDefaultRegistry(nil)
	last, err := LoadProgramSettings(path, registry, nil)
	require.NoError(t, err)
	assert.Empty(t, last)

	field, _ := registry.Program(program.FieldID)
	assert.Equal(t, 12, field.Settings().(program.FieldSettings).PrepareTime)

	duel, _ := registry.Program(program.DuelID)
	assert.Equal(t, program.DefaultDuelSettings(), duel.Settings())
}

func TestLoadProgramSettingsSkipsFractionalValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), settingsFileName)
	content := `programs:
  standard_field:
    prepareTime: 7.5
    shootingDuration: 20
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	registry := program.NewDefaultRegistry(nil)
	_, err := LoadProgramSettings(path, registry, nil)
	require.NoError(t, err)

	field, _ := registry.Program(program.FieldID)
	assert.Equal(t, program.DefaultFieldSettings(), field.Settings())
}

func TestLoadProgramSettingsRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), settingsFileName)
	require.NoError(t, os.WriteFile(path, []byte("programs: [unclosed"), 0o644))

	_, err := LoadProgramSettings(path, program.NewDefaultRegistry(nil), nil)
	assert.ErrorContains(t, err, "parse settings yaml")
}

func TestSettingsMap(t *testing.T) {
	field, _ := program.NewDefaultRegistry(nil).Program(program.FieldID)

	values, err := SettingsMap(field)
	require.NoError(t, err)
	assert.Equal(t, 10, values["shootingDuration"])
	assert.Equal(t, false, values["soundMode"])
	assert.Len(t, values, 6)
}
