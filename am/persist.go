package am

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/graphshell/errors"
)

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	// Check if file exists before backing up
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil // No file to backup
	}

	// Rotate backups: .back3 -> delete, .back2 -> .back3, .back1 -> .back2, current -> .back1
	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	// Delete oldest backup if exists
	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		// Log deletion failures (but don't fail config save)
		fmt.Printf("warning: failed to delete old backup %s: %v\n", back3, err)
	}

	// Rotate .back2 to .back3
	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}

	// Rotate .back1 to .back2
	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	// Copy current to .back1
	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	if err := os.WriteFile(back1, content, 0644); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}

	return nil
}

// GetUIConfigPath returns the path to the UI-managed config file in
// ~/.graphshell/graphshell_from_ui.toml
func GetUIConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".graphshell", "graphshell_from_ui.toml")
}

// loadOrInitializeUIConfig loads the UI config file, or creates an empty one if it doesn't exist
func loadOrInitializeUIConfig() (map[string]interface{}, string, error) {
	configPath := GetUIConfigPath()
	if configPath == "" {
		return nil, "", errors.New("could not determine home directory")
	}

	graphshellDir := filepath.Dir(configPath)
	if err := os.MkdirAll(graphshellDir, 0750); err != nil {
		return nil, "", errors.Wrap(err, "failed to create .graphshell directory")
	}

	var config map[string]interface{}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, "", errors.Wrap(err, "failed to parse UI config")
		}
	} else {
		config = make(map[string]interface{})
	}

	return config, configPath, nil
}

// saveUIConfig writes the config to the UI config file with backup
func saveUIConfig(config map[string]interface{}, configPath string) error {
	if err := createBackup(configPath); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	// Mark this as our own write to prevent reload loops
	globalWatcherMu.Lock()
	if globalWatcher != nil {
		globalWatcher.MarkOwnWrite()
	}
	globalWatcherMu.Unlock()

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write UI config")
	}

	return nil
}

// setUISectionField merges a single field into a named top-level TOML
// section of the UI config and persists it.
func setUISectionField(section, field string, value interface{}) error {
	config, configPath, err := loadOrInitializeUIConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load UI config")
	}

	var sectionMap map[string]interface{}
	if s, ok := config[section].(map[string]interface{}); ok {
		sectionMap = s
	} else {
		sectionMap = make(map[string]interface{})
	}

	sectionMap[field] = value
	config[section] = sectionMap

	return saveUIConfig(config, configPath)
}

// UpdateSyncEnabled updates the sync.enabled setting in UI config
func UpdateSyncEnabled(enabled bool) error {
	return setUISectionField("sync", "enabled", enabled)
}

// UpdateSyncDeviceName updates the sync.device_name setting in UI config
func UpdateSyncDeviceName(name string) error {
	return setUISectionField("sync", "device_name", name)
}

// UpdateSyncReadOnly updates the sync.read_only setting in UI config
func UpdateSyncReadOnly(readOnly bool) error {
	return setUISectionField("sync", "read_only", readOnly)
}

// UpdateLifecycleMaxActiveEngines updates the lifecycle.max_active_engines
// setting in UI config, controlling how many Active-tier engines the LRU
// keeps warm before demoting the least recently used to Warm.
func UpdateLifecycleMaxActiveEngines(max int) error {
	return setUISectionField("lifecycle", "max_active_engines", max)
}

// UpdateWorkbenchDetachMarginPx updates the workbench.detach_margin_px
// setting in UI config.
func UpdateWorkbenchDetachMarginPx(px float64) error {
	return setUISectionField("workbench", "detach_margin_px", px)
}
