// Package run renders the run screen of a session.
package run

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rangetimer/internal/core/engine"
	"rangetimer/internal/i18n"
	"rangetimer/internal/session"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

const (
	clockRefresh = 250 * time.Millisecond
	eventBuffer  = 64
)

// Window shows the state, countdown and controls of one session.
type Window struct {
	window     fyne.Window
	translator i18n.Translator
	logger     *slog.Logger
	session    *session.Session
	view       *display

	background     *canvas.Rectangle
	stateLabel     *canvas.Text
	countdownLabel *canvas.Text
	subtitleLabel  *canvas.Text
	clockLabel     *canvas.Text
	messageLabel   *widget.Label
	startButton    *widget.Button
	pauseButton    *widget.Button
	resetButton    *widget.Button
	commandButton  *widget.Button

	cancelEvents func()
	cancelCtx    context.CancelFunc
	onClose      func()
}

// New creates the run window for runSession. The session is closed with the window.
func New(app fyne.App, translator i18n.Translator, runSession *session.Session, logger *slog.Logger) *Window {
	if logger == nil {
		logger = slog.Default()
	}
	current := runSession.Program()
	config := current.UIConfig()

	window := app.NewWindow(current.Name())
	if app.Icon() != nil {
		window.SetIcon(app.Icon())
	}

	background := canvas.NewRectangle(colorIdle)

	stateLabel := canvas.NewText("", colorWhite)
	stateLabel.Alignment = fyne.TextAlignCenter
	stateLabel.TextStyle = fyne.TextStyle{Bold: true}
	stateLabel.TextSize = 32

	countdownLabel := canvas.NewText("", colorWhite)
	countdownLabel.Alignment = fyne.TextAlignCenter
	countdownLabel.TextStyle = fyne.TextStyle{Bold: true, Monospace: true}
	countdownLabel.TextSize = 120

	subtitleLabel := canvas.NewText(config.Subtitle, colorWhite)
	subtitleLabel.Alignment = fyne.TextAlignCenter
	subtitleLabel.TextSize = 16

	clockLabel := canvas.NewText(formatDuration(current.TotalDuration()), colorWhite)
	clockLabel.Alignment = fyne.TextAlignCenter
	clockLabel.TextStyle = fyne.TextStyle{Monospace: true}
	clockLabel.TextSize = 20

	runWindow := &Window{
		window:         window,
		translator:     translator,
		logger:         logger,
		session:        runSession,
		view:           newDisplay(config, translator),
		background:     background,
		stateLabel:     stateLabel,
		countdownLabel: countdownLabel,
		subtitleLabel:  subtitleLabel,
		clockLabel:     clockLabel,
		messageLabel:   widget.NewLabel(""),
	}

	runWindow.startButton = widget.NewButton(translator.T("Start"), runWindow.handleStart)
	runWindow.pauseButton = widget.NewButton(translator.T("Pause"), runWindow.handlePause)
	runWindow.resetButton = widget.NewButton(translator.T("Reset"), runWindow.handleReset)
	runWindow.commandButton = widget.NewButton("", runWindow.handleCommand)
	runWindow.refreshControls()

	face := container.NewVBox(
		layout.NewSpacer(),
		stateLabel,
		countdownLabel,
		subtitleLabel,
		clockLabel,
		layout.NewSpacer(),
	)
	buttons := container.NewHBox(
		runWindow.commandButton,
		layout.NewSpacer(),
		runWindow.startButton,
		runWindow.pauseButton,
		runWindow.resetButton,
	)
	content := container.NewBorder(nil, container.NewVBox(runWindow.messageLabel, buttons), nil, nil, face)
	window.SetContent(container.NewStack(background, content))
	window.Resize(fyne.NewSize(480, 640))
	window.SetOnClosed(runWindow.teardown)

	runWindow.listen()
	return runWindow
}

// Show displays the window.
func (runWindow *Window) Show() {
	runWindow.window.Show()
	runWindow.window.RequestFocus()
}

// SetOnClose registers a callback run after the session is closed.
func (runWindow *Window) SetOnClose(handler func()) {
	runWindow.onClose = handler
}

func (runWindow *Window) listen() {
	events, cancel := runWindow.session.Events(eventBuffer)
	runWindow.cancelEvents = cancel
	go func() {
		for event := range events {
			fyne.Do(func() {
				runWindow.view.apply(event)
				runWindow.render()
			})
		}
	}()

	ctx, cancelCtx := context.WithCancel(context.Background())
	runWindow.cancelCtx = cancelCtx
	go runWindow.tickClock(ctx)
}

func (runWindow *Window) tickClock(ctx context.Context) {
	ticker := time.NewTicker(clockRefresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runEngine := runWindow.session.Engine()
			value := runEngine.RemainingTime()
			fyne.Do(func() {
				if runWindow.view.countsUp() {
					value = runEngine.ElapsedTime()
				}
				runWindow.clockLabel.Text = formatDuration(value)
				runWindow.clockLabel.Refresh()
			})
		}
	}
}

func (runWindow *Window) render() {
	background := runWindow.view.background()
	foreground := textColor(background)
	runWindow.background.FillColor = background
	canvas.Refresh(runWindow.background)

	runWindow.stateLabel.Text = runWindow.view.label
	if runWindow.view.paused {
		runWindow.stateLabel.Text = runWindow.translator.T("Pause")
	}
	runWindow.countdownLabel.Text = runWindow.view.countdown
	runWindow.messageLabel.SetText(runWindow.view.caption())

	for _, text := range []*canvas.Text{runWindow.stateLabel, runWindow.countdownLabel, runWindow.subtitleLabel, runWindow.clockLabel} {
		text.Color = foreground
		text.Refresh()
	}
	runWindow.refreshControls()
}

func (runWindow *Window) refreshControls() {
	status := runWindow.session.Engine().Status()

	if next := runWindow.session.NextCommand(); next != "" && status == engine.StatusIdle {
		runWindow.commandButton.SetText(runWindow.translator.T(next))
		runWindow.commandButton.Show()
	} else {
		runWindow.commandButton.Hide()
	}

	if status == engine.StatusPaused {
		runWindow.pauseButton.SetText(runWindow.translator.T("Resume"))
	} else {
		runWindow.pauseButton.SetText(runWindow.translator.T("Pause"))
	}

	setEnabled(runWindow.startButton, status == engine.StatusIdle && runWindow.session.GateOpen())
	setEnabled(runWindow.pauseButton, status == engine.StatusRunning || status == engine.StatusPaused)
	setEnabled(runWindow.resetButton, status != engine.StatusIdle)
}

func (runWindow *Window) handleStart() {
	err := runWindow.session.Start()
	switch {
	case errors.Is(err, session.ErrGateClosed):
		runWindow.messageLabel.SetText(runWindow.translator.T(runWindow.session.NextCommand()))
	case err != nil:
		runWindow.logger.Warn("start run", "error", err)
		runWindow.messageLabel.SetText(err.Error())
	default:
		runWindow.messageLabel.SetText("")
	}
	runWindow.refreshControls()
}

func (runWindow *Window) handlePause() {
	if runWindow.session.Engine().Status() == engine.StatusPaused {
		runWindow.session.Resume()
	} else {
		runWindow.session.Pause()
	}
	runWindow.refreshControls()
}

func (runWindow *Window) handleReset() {
	runWindow.session.Reset()
	runWindow.clockLabel.Text = formatDuration(runWindow.session.Engine().TotalDuration())
	runWindow.render()
}

func (runWindow *Window) handleCommand() {
	command, _ := runWindow.session.AdvanceGate()
	runWindow.messageLabel.SetText(runWindow.translator.T(command))
	runWindow.refreshControls()
}

func (runWindow *Window) teardown() {
	if runWindow.cancelCtx != nil {
		runWindow.cancelCtx()
	}
	if runWindow.cancelEvents != nil {
		runWindow.cancelEvents()
	}
	runWindow.session.Close()
	if runWindow.onClose != nil {
		runWindow.onClose()
	}
}

func setEnabled(button *widget.Button, enabled bool) {
	if enabled {
		button.Enable()
		return
	}
	button.Disable()
}
