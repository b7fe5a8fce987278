package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{tag: "de_AT", want: "de"},
		{tag: "pl-PL", want: "pl"},
		{tag: "RU", want: "ru"},
		{tag: "en_US.UTF-8", want: "en"},
		{tag: "pt-BR", want: ""},
		{tag: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.tag))
		})
	}
}

func TestDetectOverride(t *testing.T) {
	assert.Equal(t, "pl", Detect("pl", nil))
	assert.Equal(t, "ru", Detect(" ru_RU ", nil))
}

func TestTranslator(t *testing.T) {
	assert.Equal(t, "Feuer", New("de").T("fire"))
	assert.Equal(t, "Linia gotowa", New("pl").T("line_ready"))
	assert.Equal(t, "The line is ready", New("en").T("line_ready"))
	assert.Equal(t, "Start", New("en").T("Start"))
	assert.Equal(t, "unknown key", New("ru").T("unknown key"))
	assert.Equal(t, "en", New("pt").Lang())
}

func TestRunScreenKeysAreTranslated(t *testing.T) {
	keys := []string{
		"prepare", "prepare_warning", "fire", "fire_warning", "finished",
		"countdown", "red", "green", "prestart", "shooting",
		"shooters_ready", "warning", "stop", "beep", "load", "are_you_ready", "line_ready",
	}
	for _, lang := range Supported {
		translator := New(lang)
		for _, key := range keys {
			_, ok := translations[key][lang]
			assert.Truef(t, ok, "missing %s translation for %q", lang, key)
			assert.NotEqual(t, key, translator.T(key))
		}
	}
	assert.Equal(t, "Get ready", New("en").T("prepare_warning"))
}
