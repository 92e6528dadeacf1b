package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// SaveConfig writes single keys into the global or local config file.
type SaveConfig struct {
	// GlobalConfigDir is the directory under ~/.config/ for global config.
	GlobalConfigDir string

	// GlobalConfigFile is the filename. Defaults to "config.yaml".
	GlobalConfigFile string

	// LocalConfigName is the filename for local config in git root.
	LocalConfigName string

	// ValidGlobalKeys lists keys that can be set in global config.
	ValidGlobalKeys []string

	// ValidLocalKeys lists keys that can be set in local config.
	ValidLocalKeys []string
}

func (c SaveConfig) globalConfigFile() string {
	if c.GlobalConfigFile != "" {
		return c.GlobalConfigFile
	}
	return "config.yaml"
}

// GlobalPath returns the global config file path.
func (c SaveConfig) GlobalPath() (string, error) {
	if c.GlobalConfigDir == "" {
		return "", fmt.Errorf("global config directory not configured")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", c.GlobalConfigDir, c.globalConfigFile()), nil
}

// SaveGlobal saves a key-value pair to the global config file. The file may
// hold credentials-adjacent settings and is written owner-only.
func (c SaveConfig) SaveGlobal(key, value string) error {
	path, err := c.GlobalPath()
	if err != nil {
		return err
	}
	if err := checkKey("global", c.ValidGlobalKeys, key); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return updateFile(path, 0o600, func(m map[string]any) bool {
		m[key] = parseValue(value)
		return true
	})
}

// SaveLocal saves a key-value pair to the local config file in the git root.
func (c SaveConfig) SaveLocal(gitRoot, key, value string) error {
	if gitRoot == "" {
		return fmt.Errorf("git root not found")
	}
	if c.LocalConfigName == "" {
		return fmt.Errorf("local config name not configured")
	}
	if err := checkKey("local", c.ValidLocalKeys, key); err != nil {
		return err
	}
	// Local config is shared with the repository and stays world-readable.
	return updateFile(filepath.Join(gitRoot, c.LocalConfigName), 0o644, func(m map[string]any) bool {
		m[key] = parseValue(value)
		return true
	})
}

// DeleteGlobalKey removes a key from the global config. A missing file or
// key is not an error.
func (c SaveConfig) DeleteGlobalKey(key string) error {
	path, err := c.GlobalPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return updateFile(path, 0o600, func(m map[string]any) bool {
		if _, ok := m[key]; !ok {
			return false
		}
		delete(m, key)
		return true
	})
}

func checkKey(scope string, valid []string, key string) error {
	if len(valid) > 0 && !slices.Contains(valid, key) {
		return fmt.Errorf("unknown %s config key: %s\n\nValid keys: %s",
			scope, key, strings.Join(valid, ", "))
	}
	return nil
}

// updateFile loads path as a YAML map (malformed or missing content starts
// empty), applies fn, and writes the result back when fn reports a change.
func updateFile(path string, perm os.FileMode, fn func(map[string]any) bool) error {
	existing := make(map[string]any)
	if data, err := os.ReadFile(path); err == nil {
		var parsed map[string]any
		if yaml.Unmarshal(data, &parsed) == nil && parsed != nil {
			existing = parsed
		}
	}
	if !fn(existing) {
		return nil
	}
	data, err := yaml.Marshal(existing)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, perm) //nolint:gosec
}

// parseValue converts "true"/"false" to booleans so the YAML stays typed.
func parseValue(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	return value
}
