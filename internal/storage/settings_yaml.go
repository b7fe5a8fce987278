package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"rangetimer/internal/core/program"

	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	LastProgram string                    `yaml:"last_program,omitempty"`
	Programs    map[string]map[string]any `yaml:"programs"`
}

// ResolveConfigPath returns the settings file location inside the user config dir.
func ResolveConfigPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

// LoadProgramSettings applies stored settings to the registered programs and
// returns the last selected program id.
// A missing file leaves the defaults in place. Entries for unknown programs or
// with invalid values are skipped with a warning.
func LoadProgramSettings(path string, registry *program.Registry, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return "", fmt.Errorf("parse settings yaml: %w", err)
	}

	for id, partial := range fileData.Programs {
		target, ok := registry.Program(id)
		if !ok {
			logger.Warn("ignoring settings for unknown program", "program", id)
			continue
		}
		if err := target.UpdateSettings(partial); err != nil {
			logger.Warn("ignoring stored program settings", "program", id, "error", err)
		}
	}

	if _, ok := registry.Program(fileData.LastProgram); !ok {
		return "", nil
	}
	return fileData.LastProgram, nil
}

// SaveProgramSettings writes the settings of every registered program to YAML.
func SaveProgramSettings(path string, registry *program.Registry, lastProgram string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	fileData := yamlSettings{
		LastProgram: lastProgram,
		Programs:    make(map[string]map[string]any),
	}
	for _, entry := range registry.Available("") {
		values, err := SettingsMap(entry)
		if err != nil {
			return err
		}
		fileData.Programs[entry.ID()] = values
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

// SettingsMap flattens a program's settings into yaml field name keys.
func SettingsMap(entry program.Program) (map[string]any, error) {
	raw, err := yaml.Marshal(entry.Settings())
	if err != nil {
		return nil, fmt.Errorf("marshal %s settings: %w", entry.ID(), err)
	}
	values := make(map[string]any)
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("unmarshal %s settings: %w", entry.ID(), err)
	}
	return values, nil
}
