package model

import "time"

// TimingStep is one scheduled point in a drill sequence.
type TimingStep struct {
	ID           string        `yaml:"id" json:"id"`
	Delay        time.Duration `yaml:"delay" json:"delay"`
	State        string        `yaml:"state" json:"state"`
	Command      string        `yaml:"command,omitempty" json:"command,omitempty"`
	AudioEnabled bool          `yaml:"audioEnabled,omitempty" json:"audioEnabled,omitempty"`
	Countdown    *int          `yaml:"countdown,omitempty" json:"countdown,omitempty"`
}

// Valid reports whether the step can be executed by the engine.
func (step TimingStep) Valid() bool {
	return step.ID != "" && step.State != "" && step.Delay >= 0
}

// HasCommand reports whether the step announces a command.
func (step TimingStep) HasCommand() bool {
	return step.Command != ""
}

// AnnouncesCommand reports whether the step plays a command before its state change.
func (step TimingStep) AnnouncesCommand() bool {
	return step.AudioEnabled && step.HasCommand()
}

// Count returns a countdown pointer for step literals.
func Count(value int) *int {
	return &value
}

// TotalDuration sums the delays of all steps.
func TotalDuration(steps []TimingStep) time.Duration {
	var total time.Duration
	for _, step := range steps {
		total += step.Delay
	}
	return total
}

// Clone returns a deep copy of the sequence.
func Clone(steps []TimingStep) []TimingStep {
	if steps == nil {
		return nil
	}
	cloned := make([]TimingStep, len(steps))
	for index, step := range steps {
		if step.Countdown != nil {
			step.Countdown = Count(*step.Countdown)
		}
		cloned[index] = step
	}
	return cloned
}
