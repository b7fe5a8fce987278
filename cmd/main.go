package main

import (
	"log/slog"
	"os"

	"rangetimer/internal/audio"
	"rangetimer/internal/config"
	"rangetimer/internal/core/program"
	"rangetimer/internal/i18n"
	"rangetimer/internal/platform"
	"rangetimer/internal/session"
	"rangetimer/internal/storage"
	"rangetimer/internal/ui/run"
	"rangetimer/internal/ui/settings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	instance, err := platform.Acquire(cfg.AppID, logger)
	if err != nil {
		logger.Info("already running, bringing it forward", "error", err)
		if err := platform.Activate(cfg.AppID); err != nil {
			logger.Warn("activate running instance", "error", err)
		}
		return
	}
	defer func() {
		_ = instance.Release()
	}()

	translator := i18n.New(i18n.Detect(cfg.Lang, logger))
	registry := program.NewDefaultRegistry(logger)

	settingsPath, err := storage.ResolveConfigPath(cfg.AppName)
	if err != nil {
		logger.Warn("settings will not persist", "error", err)
	}
	lastProgram := ""
	if settingsPath != "" {
		lastProgram, err = storage.LoadProgramSettings(settingsPath, registry, logger)
		if err != nil {
			logger.Warn("load program settings", "path", settingsPath, "error", err)
		}
	}

	player := newPlayer(cfg, logger)

	fyneApp := app.NewWithID(cfg.AppID)
	store := storage.NewPreferencesStore(fyneApp.Preferences())

	persist := func() {
		if settingsPath == "" {
			return
		}
		if err := storage.SaveProgramSettings(settingsPath, registry, lastProgram); err != nil {
			logger.Warn("save program settings", "path", settingsPath, "error", err)
		}
	}

	var activeRun *run.Window
	startRun := func(id string) {
		if activeRun != nil {
			logger.Info("a run is already open", "program", id)
			return
		}
		runSession, err := session.New(registry, id, session.Options{
			Logger: logger,
			Store:  store,
			Player: player,
		})
		if err != nil {
			logger.Error("start session", "program", id, "error", err)
			return
		}
		lastProgram = id
		persist()

		activeRun = run.New(fyneApp, translator, runSession, logger)
		activeRun.SetOnClose(func() {
			activeRun = nil
		})
		activeRun.Show()
	}

	openSettings := func(target program.Program) {
		prefsWindow, err := settings.New(fyneApp, translator, target, func(program.Program) {
			persist()
		}, logger)
		if err != nil {
			logger.Error("open settings", "program", target.ID(), "error", err)
			return
		}
		prefsWindow.Show()
	}

	mainWindow := fyneApp.NewWindow(cfg.AppName)
	list := container.NewVBox()
	for _, category := range []program.Category{program.CategoryStandard, program.CategoryPPC} {
		for _, entry := range registry.Available(category) {
			title := widget.NewLabelWithStyle(entry.Name(), fyne.TextAlignLeading, fyne.TextStyle{Bold: entry.ID() == lastProgram})
			runButton := widget.NewButton(translator.T("Start"), func() {
				startRun(entry.ID())
			})
			settingsButton := widget.NewButton(translator.T("Settings"), func() {
				openSettings(entry)
			})
			list.Add(container.NewHBox(title, layout.NewSpacer(), settingsButton, runButton))
		}
		list.Add(widget.NewSeparator())
	}
	mainWindow.SetContent(container.NewPadded(list))
	mainWindow.Resize(fyne.NewSize(420, 300))
	mainWindow.SetMaster()

	go instance.Serve(func() {
		fyne.Do(func() {
			mainWindow.Show()
			mainWindow.RequestFocus()
		})
	})

	logger.Info("starting", "app", cfg.AppName, "lang", translator.Lang(), "last_program", lastProgram)
	mainWindow.ShowAndRun()
}

func newPlayer(cfg *config.Config, logger *slog.Logger) audio.Player {
	if !cfg.AudioEnabled {
		return audio.Silent{}
	}
	player, err := audio.NewBeepPlayer(audio.Config{SampleRate: cfg.SampleRate, Logger: logger})
	if err != nil {
		logger.Warn("audio unavailable, running silent", "error", err)
		return audio.Silent{}
	}
	if cfg.CuesDir != "" {
		loaded, err := player.LoadCueDir(cfg.CuesDir)
		if err != nil {
			logger.Warn("load cue overrides", "dir", cfg.CuesDir, "error", err)
		}
		logger.Info("cue overrides loaded", "count", loaded)
	}
	return player
}
