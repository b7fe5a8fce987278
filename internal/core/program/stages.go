package program

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"rangetimer/resources"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownDiscipline indicates a discipline missing from the stage catalogue.
	ErrUnknownDiscipline = errors.New("unknown discipline")
	// ErrUnknownStage indicates a stage id missing from its discipline.
	ErrUnknownStage = errors.New("unknown stage")
)

// TimeLimits lists the permitted PPC stage time limits in seconds.
var TimeLimits = []int{8, 12, 20, 35, 90, 165}

// Series is a block of rounds fired from one position.
type Series struct {
	Position string `yaml:"position"`
	Rounds   int    `yaml:"rounds"`
}

// Stage is a PPC course of fire.
type Stage struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Distance  int      `yaml:"distance"`
	TimeLimit int      `yaml:"timeLimit"`
	Series    []Series `yaml:"series"`
}

// Rounds returns the total rounds fired in the stage.
func (stage Stage) Rounds() int {
	total := 0
	for _, series := range stage.Series {
		total += series.Rounds
	}
	return total
}

// Discipline groups the stages of one PPC match type.
type Discipline struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name"`
	Stages []Stage `yaml:"stages"`
}

type catalogue struct {
	Disciplines []Discipline `yaml:"disciplines"`
}

var loadCatalogue = sync.OnceValues(func() (catalogue, error) {
	raw, err := resources.PPCStages()
	if err != nil {
		return catalogue{}, err
	}
	return parseCatalogue(raw)
})

func parseCatalogue(raw []byte) (catalogue, error) {
	var parsed catalogue
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return catalogue{}, fmt.Errorf("parse stage catalogue: %w", err)
	}
	if len(parsed.Disciplines) == 0 {
		return catalogue{}, errors.New("stage catalogue has no disciplines")
	}
	for _, discipline := range parsed.Disciplines {
		if len(discipline.Stages) == 0 {
			return catalogue{}, fmt.Errorf("discipline %s has no stages", discipline.ID)
		}
		for _, stage := range discipline.Stages {
			if !slices.Contains(TimeLimits, stage.TimeLimit) {
				return catalogue{}, fmt.Errorf("stage %s: time limit %d not permitted", stage.ID, stage.TimeLimit)
			}
			if stage.Distance <= 0 || stage.Rounds() <= 0 {
				return catalogue{}, fmt.Errorf("stage %s: distance and rounds must be positive", stage.ID)
			}
		}
	}
	return parsed, nil
}

// Disciplines returns the PPC disciplines in catalogue order.
func Disciplines() ([]Discipline, error) {
	loaded, err := loadCatalogue()
	if err != nil {
		return nil, err
	}
	return slices.Clone(loaded.Disciplines), nil
}

// Stages returns the stages of a discipline in course order.
func Stages(disciplineID string) ([]Stage, error) {
	discipline, err := findDiscipline(disciplineID)
	if err != nil {
		return nil, err
	}
	return slices.Clone(discipline.Stages), nil
}

// StageByID resolves a stage inside a discipline. An empty stage id selects the first stage.
func StageByID(disciplineID, stageID string) (Stage, error) {
	discipline, err := findDiscipline(disciplineID)
	if err != nil {
		return Stage{}, err
	}
	if stageID == "" {
		return discipline.Stages[0], nil
	}
	for _, stage := range discipline.Stages {
		if stage.ID == stageID {
			return stage, nil
		}
	}
	return Stage{}, fmt.Errorf("%w: %s in %s", ErrUnknownStage, stageID, disciplineID)
}

func findDiscipline(disciplineID string) (Discipline, error) {
	loaded, err := loadCatalogue()
	if err != nil {
		return Discipline{}, err
	}
	for _, discipline := range loaded.Disciplines {
		if discipline.ID == disciplineID {
			return discipline, nil
		}
	}
	return Discipline{}, fmt.Errorf("%w: %s", ErrUnknownDiscipline, disciplineID)
}
