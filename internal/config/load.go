package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"go.yaml.in/yaml/v3"
)

// configPaths returns candidate configuration file paths in priority
// order, mirroring bmf-san-ggc's getConfigPaths (home directory, then
// XDG config directory).
func configPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".golineconfig.yaml"),
		filepath.Join(home, ".config", "goline", "config.yaml"),
	}
}

// historyPath resolves the configured history file path against $HOME,
// per spec §6's "$HOME/.history (or _history on DOS) unless a caller
// supplies a path".
func historyPath(configured string) string {
	if configured != "" {
		return configured
	}
	if runtime.GOOS == "windows" {
		if appdata := os.Getenv("APPDATA"); appdata != "" {
			return filepath.Join(appdata, "_history")
		}
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".history")
}

// Load loads configuration from the first available config file,
// defaulting (and leaving configPath pointed at the first candidate path)
// if none exists yet.
func (m *Manager) Load() error {
	return m.LoadWithFileOps(OSFileOps{})
}

// LoadWithFileOps loads configuration with injectable file operations.
func (m *Manager) LoadWithFileOps(fileOps FileOps) error {
	for _, path := range configPaths() {
		if _, err := fileOps.Stat(path); err == nil {
			m.configPath = path
			return m.loadFromFileWithOps(path, fileOps)
		}
	}
	m.configPath = configPaths()[0]
	m.config.History.Path = historyPath(m.config.History.Path)
	return nil
}

func (m *Manager) loadFromFileWithOps(path string, fileOps FileOps) error {
	data, err := fileOps.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.History.Path = historyPath(cfg.History.Path)
	m.config = cfg
	return nil
}
