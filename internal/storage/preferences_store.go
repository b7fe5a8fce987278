package storage

import "fyne.io/fyne/v2"

// PreferencesStore persists small string values in the fyne app preferences.
type PreferencesStore struct {
	prefs fyne.Preferences
}

// NewPreferencesStore wraps prefs, usually fyne.App.Preferences().
func NewPreferencesStore(prefs fyne.Preferences) *PreferencesStore {
	return &PreferencesStore{prefs: prefs}
}

// SetString stores value under key.
func (store *PreferencesStore) SetString(key, value string) error {
	store.prefs.SetString(key, value)
	return nil
}

// String returns the value stored under key, or "".
func (store *PreferencesStore) String(key string) string {
	return store.prefs.String(key)
}
