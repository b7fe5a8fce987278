// Package settings renders the settings editor of a program.
package settings

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"rangetimer/internal/core/program"
	"rangetimer/internal/i18n"
	"rangetimer/internal/storage"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"gopkg.in/yaml.v3"
)

const (
	disciplineKey = "discipline"
	stageKey      = "currentStageId"
)

type control interface {
	value() (any, error)
	object() fyne.CanvasObject
}

// Window edits the settings of one program.
type Window struct {
	window     fyne.Window
	translator i18n.Translator
	logger     *slog.Logger
	target     program.Program
	keys       []string
	controls   map[string]control
	message    *widget.Label
	onSave     func(program.Program)
}

// New creates a settings window for target. onSave runs after the settings are applied.
func New(app fyne.App, translator i18n.Translator, target program.Program, onSave func(program.Program), logger *slog.Logger) (*Window, error) {
	if logger == nil {
		logger = slog.Default()
	}
	keys, err := orderedKeys(target.Settings())
	if err != nil {
		return nil, err
	}

	prefs := &Window{
		window:     app.NewWindow(fmt.Sprintf("%s · %s", target.Name(), translator.T("Settings"))),
		translator: translator,
		logger:     logger,
		target:     target,
		keys:       keys,
		controls:   make(map[string]control, len(keys)),
		message:    widget.NewLabel(""),
		onSave:     onSave,
	}
	if err := prefs.buildControls(); err != nil {
		return nil, err
	}

	form := container.NewVBox(widget.NewLabelWithStyle(target.Name(), fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
	for _, key := range keys {
		current := prefs.controls[key]
		if check, ok := current.(*checkControl); ok {
			form.Add(check.object())
			continue
		}
		form.Add(container.NewBorder(nil, nil, widget.NewLabel(translator.T(key)), nil, current.object()))
	}
	form.Add(prefs.message)

	saveButton := widget.NewButton(translator.T("Save"), prefs.handleSave)
	cancelButton := widget.NewButton(translator.T("Cancel"), func() {
		prefs.window.Hide()
	})
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	prefs.window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	prefs.window.Resize(fyne.NewSize(420, 420))
	return prefs, nil
}

// Show displays the settings window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

func (prefs *Window) buildControls() error {
	values, err := storage.SettingsMap(prefs.target)
	if err != nil {
		return err
	}

	for _, key := range prefs.keys {
		switch current := values[key].(type) {
		case bool:
			check := widget.NewCheck(prefs.translator.T(key), nil)
			check.SetChecked(current)
			prefs.controls[key] = &checkControl{check: check}
		case int:
			entry := widget.NewEntry()
			entry.SetText(strconv.Itoa(current))
			prefs.controls[key] = &intControl{key: key, entry: entry}
		default:
			text, _ := current.(string)
			entry := widget.NewEntry()
			entry.SetText(text)
			prefs.controls[key] = &textControl{entry: entry}
		}
	}

	if _, ok := prefs.controls[disciplineKey]; ok {
		return prefs.buildStageChoice(values)
	}
	return nil
}

// buildStageChoice replaces the PPC text fields with catalogue selectors.
func (prefs *Window) buildStageChoice(values map[string]any) error {
	disciplines, err := program.Disciplines()
	if err != nil {
		return err
	}
	disciplineIDs := make([]string, 0, len(disciplines))
	disciplineNames := make([]string, 0, len(disciplines))
	for _, discipline := range disciplines {
		disciplineIDs = append(disciplineIDs, discipline.ID)
		disciplineNames = append(disciplineNames, discipline.Name)
	}

	stage := newChoiceControl(nil, nil)
	loadStages := func(disciplineID string, selected string) {
		stages, err := program.Stages(disciplineID)
		if err != nil {
			prefs.logger.Warn("load stages", "discipline", disciplineID, "error", err)
			stages = nil
		}
		ids := make([]string, 0, len(stages))
		names := make([]string, 0, len(stages))
		for _, candidate := range stages {
			ids = append(ids, candidate.ID)
			names = append(names, candidate.Name)
		}
		stage.reset(ids, names, selected)
	}

	discipline := newChoiceControl(disciplineIDs, disciplineNames)
	currentDiscipline, _ := values[disciplineKey].(string)
	currentStage, _ := values[stageKey].(string)
	discipline.choose(currentDiscipline)
	loadStages(currentDiscipline, currentStage)
	discipline.onChange = func(id string) {
		loadStages(id, "")
	}

	prefs.controls[disciplineKey] = discipline
	prefs.controls[stageKey] = stage
	if !slices.Contains(prefs.keys, stageKey) {
		prefs.keys = append(prefs.keys, stageKey)
	}
	return nil
}

// collect reads every control into a partial settings map.
func (prefs *Window) collect() (map[string]any, error) {
	partial := make(map[string]any, len(prefs.controls))
	for _, key := range prefs.keys {
		value, err := prefs.controls[key].value()
		if err != nil {
			return nil, err
		}
		partial[key] = value
	}
	return partial, nil
}

func (prefs *Window) handleSave() {
	partial, err := prefs.collect()
	if err == nil {
		err = prefs.target.UpdateSettings(partial)
	}
	if err != nil {
		prefs.logger.Info("settings rejected", "program", prefs.target.ID(), "error", err)
		prefs.message.SetText(err.Error())
		return
	}

	prefs.message.SetText("")
	if prefs.onSave != nil {
		prefs.onSave(prefs.target)
	}
	prefs.window.Hide()
}

// orderedKeys lists the yaml keys of settings in declaration order.
func orderedKeys(settings any) ([]string, error) {
	var document yaml.Node
	if err := document.Encode(settings); err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	if document.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("encode settings: expected a mapping, got kind %d", document.Kind)
	}
	keys := make([]string, 0, len(document.Content)/2)
	for index := 0; index+1 < len(document.Content); index += 2 {
		keys = append(keys, document.Content[index].Value)
	}
	return keys, nil
}

type checkControl struct {
	check *widget.Check
}

func (current *checkControl) value() (any, error)       { return current.check.Checked, nil }
func (current *checkControl) object() fyne.CanvasObject { return current.check }

type intControl struct {
	key   string
	entry *widget.Entry
}

func (current *intControl) value() (any, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(current.entry.Text))
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a whole number", program.ErrInvalidSettings, current.key)
	}
	return parsed, nil
}

func (current *intControl) object() fyne.CanvasObject { return current.entry }

type textControl struct {
	entry *widget.Entry
}

func (current *textControl) value() (any, error)       { return strings.TrimSpace(current.entry.Text), nil }
func (current *textControl) object() fyne.CanvasObject { return current.entry }

// choiceControl maps a Select of display names to ids.
type choiceControl struct {
	ids      []string
	selector *widget.Select
	onChange func(id string)
}

func newChoiceControl(ids, names []string) *choiceControl {
	choice := &choiceControl{ids: ids}
	choice.selector = widget.NewSelect(names, func(string) {
		if choice.onChange != nil {
			choice.onChange(choice.selected())
		}
	})
	return choice
}

func (choice *choiceControl) reset(ids, names []string, selected string) {
	choice.ids = ids
	choice.selector.SetOptions(names)
	choice.selector.ClearSelected()
	choice.choose(selected)
}

func (choice *choiceControl) choose(id string) {
	for index, candidate := range choice.ids {
		if candidate == id {
			choice.selector.SetSelectedIndex(index)
			return
		}
	}
	if len(choice.ids) > 0 {
		choice.selector.SetSelectedIndex(0)
	}
}

func (choice *choiceControl) selected() string {
	index := choice.selector.SelectedIndex()
	if index < 0 || index >= len(choice.ids) {
		return ""
	}
	return choice.ids[index]
}

func (choice *choiceControl) value() (any, error)       { return choice.selected(), nil }
func (choice *choiceControl) object() fyne.CanvasObject { return choice.selector }
