// Package i18n selects the UI language and translates labels.
package i18n

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/jeandeaual/go-locale"
)

// DefaultLang is used when no supported language is detected.
const DefaultLang = "en"

// Supported lists the available languages.
var Supported = []string{"en", "de", "pl", "ru"}

var translations = map[string]map[string]string{
	"Start":        {"de": "Start", "pl": "Start", "ru": "Старт"},
	"Pause":        {"de": "Pause", "pl": "Pauza", "ru": "Пауза"},
	"Resume":       {"de": "Weiter", "pl": "Wznów", "ru": "Продолжить"},
	"Reset":        {"de": "Zurücksetzen", "pl": "Resetuj", "ru": "Сброс"},
	"Settings":     {"de": "Einstellungen", "pl": "Ustawienia", "ru": "Настройки"},
	"Save":         {"de": "Speichern", "pl": "Zapisz", "ru": "Сохранить"},
	"Cancel":       {"de": "Abbrechen", "pl": "Anuluj", "ru": "Отмена"},
	"Close":        {"de": "Schließen", "pl": "Zamknij", "ru": "Закрыть"},
	"Next command": {"de": "Nächstes Kommando", "pl": "Następna komenda", "ru": "Следующая команда"},
	"Run complete": {"de": "Lauf beendet", "pl": "Koniec przebiegu", "ru": "Упражнение завершено"},
	"Total":        {"de": "Gesamt", "pl": "Razem", "ru": "Всего"},

	"prepare":         {"en": "Prepare", "de": "Vorbereitung", "pl": "Przygotowanie", "ru": "Подготовка"},
	"prepare_warning": {"en": "Get ready", "de": "Achtung", "pl": "Uwaga", "ru": "Внимание"},
	"fire":            {"en": "Fire", "de": "Feuer", "pl": "Ognia", "ru": "Огонь"},
	"fire_warning":    {"en": "Cease fire soon", "de": "Achtung", "pl": "Uwaga", "ru": "Внимание"},
	"finished":        {"en": "Stop", "de": "Ende", "pl": "Koniec", "ru": "Стоп"},
	"countdown":       {"en": "Countdown", "de": "Countdown", "pl": "Odliczanie", "ru": "Отсчёт"},
	"red":             {"en": "Red", "de": "Rot", "pl": "Czerwone", "ru": "Красный"},
	"green":           {"en": "Green", "de": "Grün", "pl": "Zielone", "ru": "Зелёный"},
	"prestart":        {"en": "Stand by", "de": "Achtung", "pl": "Uwaga", "ru": "Внимание"},
	"shooting":        {"en": "Shooting", "de": "Schießen", "pl": "Strzelanie", "ru": "Стрельба"},

	"shooters_ready": {"en": "Shooters ready", "de": "Schützen bereit", "pl": "Zawodnicy gotowi", "ru": "Стрелки готовы"},
	"warning":        {"en": "Warning", "de": "Warnung", "pl": "Ostrzeżenie", "ru": "Предупреждение"},
	"stop":           {"en": "Stop", "de": "Stopp", "pl": "Stop", "ru": "Стоп"},
	"beep":           {"en": "Signal", "de": "Signal", "pl": "Sygnał", "ru": "Сигнал"},

	"load":          {"en": "Load", "de": "Laden", "pl": "Ładuj", "ru": "Заряжай"},
	"are_you_ready": {"en": "Is the line ready?", "de": "Ist die Linie bereit?", "pl": "Czy linia gotowa?", "ru": "Линия готова?"},
	"line_ready":    {"en": "The line is ready", "de": "Die Linie ist bereit", "pl": "Linia gotowa", "ru": "Линия готова"},

	"shootingDuration":   {"en": "Shooting time (s)", "de": "Schießzeit (s)", "pl": "Czas strzelania (s)", "ru": "Время стрельбы (с)"},
	"prepareTime":        {"en": "Preparation (s)", "de": "Vorbereitung (s)", "pl": "Przygotowanie (s)", "ru": "Подготовка (с)"},
	"prepareWarning":     {"en": "Preparation warning (s)", "de": "Vorwarnung (s)", "pl": "Ostrzeżenie (s)", "ru": "Предупреждение (с)"},
	"warningTime":        {"en": "End warning (s)", "de": "Endwarnung (s)", "pl": "Ostrzeżenie końcowe (s)", "ru": "Предупреждение о конце (с)"},
	"competitionMode":    {"en": "Competition mode", "de": "Wettkampfmodus", "pl": "Tryb zawodów", "ru": "Режим соревнований"},
	"soundMode":          {"en": "Sound", "de": "Ton", "pl": "Dźwięk", "ru": "Звук"},
	"countdownDuration":  {"en": "Countdown (s)", "de": "Countdown (s)", "pl": "Odliczanie (s)", "ru": "Отсчёт (с)"},
	"numberOfCycles":     {"en": "Cycles", "de": "Durchgänge", "pl": "Cykle", "ru": "Циклы"},
	"redLightDuration":   {"en": "Red light (s)", "de": "Rotphase (s)", "pl": "Czerwone (s)", "ru": "Красный (с)"},
	"greenLightDuration": {"en": "Green light (s)", "de": "Grünphase (s)", "pl": "Zielone (s)", "ru": "Зелёный (с)"},
	"discipline":         {"en": "Discipline", "de": "Disziplin", "pl": "Konkurencja", "ru": "Дисциплина"},
	"currentStageId":     {"en": "Stage", "de": "Durchgang", "pl": "Etap", "ru": "Упражнение"},
}

// Detect picks the language from an explicit override, then the system locale.
func Detect(override string, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}
	if forced := strings.TrimSpace(override); forced != "" {
		if lang := Normalize(forced); lang != "" {
			return lang
		}
		logger.Warn("unsupported language override", "lang", forced)
	}

	userLocales, err := locale.GetLocales()
	if err != nil {
		logger.Info("could not read system locale, using default", "error", err)
		return DefaultLang
	}
	for _, userLocale := range userLocales {
		if lang := Normalize(userLocale); lang != "" {
			logger.Debug("detected language", "locale", userLocale, "lang", lang)
			return lang
		}
	}
	return DefaultLang
}

// Normalize maps a locale tag such as "de_AT" or "pl-PL" to a supported language, or "".
func Normalize(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if cut := strings.IndexAny(tag, "-_."); cut >= 0 {
		tag = tag[:cut]
	}
	if slices.Contains(Supported, tag) {
		return tag
	}
	return ""
}

// Translator translates keys into one language.
type Translator struct {
	lang string
}

// New creates a Translator. Unsupported languages fall back to English.
func New(lang string) Translator {
	if normalized := Normalize(lang); normalized != "" {
		return Translator{lang: normalized}
	}
	return Translator{lang: DefaultLang}
}

// Lang returns the active language.
func (translator Translator) Lang() string {
	return translator.lang
}

// T returns the translation of key, or key itself when none exists.
func (translator Translator) T(key string) string {
	if translated, ok := translations[key][translator.lang]; ok {
		return translated
	}
	return key
}
