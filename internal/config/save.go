package config

import (
	"fmt"
	"path/filepath"
	"runtime"

	"go.yaml.in/yaml/v3"
)

// Save writes the configuration atomically (temp file + rename), hardening
// permissions afterward, mirroring bmf-san-ggc/internal/config's Save.
func (m *Manager) Save() error {
	return m.SaveWithFileOps(OSFileOps{})
}

// SaveWithFileOps saves configuration with injectable file operations.
func (m *Manager) SaveWithFileOps(fileOps FileOps) error {
	if m.configPath == "" {
		m.configPath = configPaths()[0]
	}
	dir := filepath.Dir(m.configPath)
	if err := fileOps.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("config: mkdir %s: %w", dir, err)
	}
	data, err := yaml.Marshal(m.config)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	tmpName, err := m.writeTemp(dir, data, fileOps)
	if err != nil {
		return err
	}
	if runtime.GOOS == "windows" {
		_ = fileOps.Remove(m.configPath)
	}
	if err := fileOps.Rename(tmpName, m.configPath); err != nil {
		_ = fileOps.Remove(tmpName)
		return fmt.Errorf("config: rename into place: %w", err)
	}
	if runtime.GOOS != "windows" {
		_ = fileOps.Chmod(m.configPath, 0600)
	}
	return nil
}

func (m *Manager) writeTemp(dir string, data []byte, fileOps FileOps) (string, error) {
	tmp, err := fileOps.CreateTemp(dir, ".goline-config-*.tmp")
	if err != nil {
		return "", fmt.Errorf("config: create temp file: %w", err)
	}
	name := tmp.Name()
	if runtime.GOOS != "windows" {
		_ = fileOps.Chmod(name, 0600)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = fileOps.Remove(name)
		return "", fmt.Errorf("config: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = fileOps.Remove(name)
		return "", fmt.Errorf("config: close temp file: %w", err)
	}
	return name, nil
}
