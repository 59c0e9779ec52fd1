package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NicolasHaas/chanrelay/pkg/model"
)

// Settings stores user preferences persisted as YAML next to the binary.
type Settings struct {
	DefaultChannel string        `yaml:"default_channel"`
	KeepaliveQuiet time.Duration `yaml:"keepalive_quiet"`
	KeepaliveCheck time.Duration `yaml:"keepalive_check"`
	LogLevel       string        `yaml:"log_level,omitempty"`
}

// DefaultSettings returns default settings.
func DefaultSettings() *Settings {
	return &Settings{
		DefaultChannel: model.DefaultChannel,
		KeepaliveQuiet: DefaultKeepaliveQuiet,
		KeepaliveCheck: DefaultKeepaliveCheck,
	}
}

// SettingsPath returns settings.yaml in the executable's directory.
func SettingsPath() string {
	return besideExecutable("settings.yaml")
}

// LoadSettings reads settings from path. A missing file yields defaults.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path) //nolint:gosec // path from user-provided CLI flag
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("client: read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("client: parse settings: %w", err)
	}
	if err := model.ValidateChannelName(s.DefaultChannel); err != nil {
		return nil, fmt.Errorf("client: settings default_channel: %w", err)
	}
	return s, nil
}

// Save writes settings to path as YAML.
func (s *Settings) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func besideExecutable(name string) string {
	exe, err := os.Executable()
	if err != nil {
		return name
	}
	return filepath.Join(filepath.Dir(exe), name)
}
