package run

import (
	"fmt"
	"image/color"
	"slices"
	"time"

	"rangetimer/internal/core/engine"
	"rangetimer/internal/core/program"
	"rangetimer/internal/i18n"
)

var (
	colorWhite  = color.NRGBA{R: 245, G: 245, B: 245, A: 255}
	colorYellow = color.NRGBA{R: 232, G: 190, B: 66, A: 255}
	colorGreen  = color.NRGBA{R: 46, G: 160, B: 67, A: 255}
	colorRed    = color.NRGBA{R: 200, G: 40, B: 40, A: 255}
	colorIdle   = color.NRGBA{R: 60, G: 60, B: 60, A: 255}
)

// display is the run screen state derived from engine events.
type display struct {
	translator i18n.Translator
	colors     map[string]string
	countUp    []string

	state     string
	label     string
	countdown string
	command   string
	paused    bool
	finished  bool
}

func newDisplay(config program.UIConfig, translator i18n.Translator) *display {
	return &display{
		translator: translator,
		colors:     config.StateColors,
		countUp:    config.CountUpStates,
	}
}

func (view *display) apply(event engine.Event) {
	switch event.Type {
	case engine.EventStateChange:
		view.state = event.State
		view.label = view.translator.T(event.State)
		view.countdown = countdownText(event.Countdown)
	case engine.EventCountdown:
		view.countdown = countdownText(event.Countdown)
	case engine.EventCommand:
		view.command = view.translator.T(event.Command)
	case engine.EventPause:
		view.paused = true
	case engine.EventResume:
		view.paused = false
	case engine.EventReset:
		*view = display{translator: view.translator, colors: view.colors, countUp: view.countUp}
	case engine.EventComplete:
		view.finished = true
		view.paused = false
	}
}

// caption is the line under the controls: the run result once complete,
// otherwise the last announced command.
func (view *display) caption() string {
	if view.finished {
		return view.translator.T("Run complete")
	}
	return view.command
}

func (view *display) background() color.NRGBA {
	if view.state == "" {
		return colorIdle
	}
	return namedColor(view.colors[view.state])
}

func (view *display) countsUp() bool {
	return slices.Contains(view.countUp, view.state)
}

func namedColor(name string) color.NRGBA {
	switch name {
	case "white":
		return colorWhite
	case "yellow":
		return colorYellow
	case "green":
		return colorGreen
	case "red":
		return colorRed
	default:
		return colorIdle
	}
}

// countdownText renders a countdown value. Pre-start counts are negative and
// shown by magnitude.
func countdownText(countdown *int) string {
	if countdown == nil {
		return ""
	}
	value := *countdown
	if value < 0 {
		value = -value
	}
	if value >= 60 {
		return fmt.Sprintf("%d:%02d", value/60, value%60)
	}
	return fmt.Sprintf("%d", value)
}

func formatDuration(value time.Duration) string {
	if value < 0 {
		value = 0
	}
	seconds := int(value.Seconds())
	minutes := seconds / 60
	seconds = seconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// textColor keeps labels readable on light backgrounds.
func textColor(background color.NRGBA) color.NRGBA {
	if background == colorWhite || background == colorYellow {
		return color.NRGBA{R: 20, G: 20, B: 20, A: 255}
	}
	return colorWhite
}
