package am

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkSettingsFromSource(t *testing.T) {
	t.Run("Flat settings", func(t *testing.T) {
		settings := map[string]interface{}{
			"max_retries":         3,
			"max_active_engines":  6,
			"confirmation_window": "2s",
		}

		sourceMap := make(map[string]SourceInfo)
		markSettingsFromSource(settings, "", SourceUser, "/home/user/.graphshell/graphshell.toml", sourceMap)

		assert.Len(t, sourceMap, 3)
		assert.Equal(t, SourceUser, sourceMap["max_retries"].Source)
		assert.Equal(t, "/home/user/.graphshell/graphshell.toml", sourceMap["max_retries"].Path)
	})

	t.Run("Nested settings", func(t *testing.T) {
		settings := map[string]interface{}{
			"lifecycle": map[string]interface{}{
				"max_retries":        3,
				"max_active_engines": 6,
			},
			"database": map[string]interface{}{
				"path": "graphshell.db",
			},
		}

		sourceMap := make(map[string]SourceInfo)
		markSettingsFromSource(settings, "", SourceUser, "/test/graphshell.toml", sourceMap)

		assert.Equal(t, SourceUser, sourceMap["lifecycle.max_retries"].Source)
		assert.Equal(t, SourceUser, sourceMap["lifecycle.max_active_engines"].Source)
		assert.Equal(t, SourceUser, sourceMap["database.path"].Source)

		assert.Equal(t, "/test/graphshell.toml", sourceMap["lifecycle.max_retries"].Path)
	})

	t.Run("Deeply nested settings", func(t *testing.T) {
		settings := map[string]interface{}{
			"database": map[string]interface{}{
				"bounded_storage": map[string]interface{}{
					"max_snapshots": 8,
				},
			},
		}

		sourceMap := make(map[string]SourceInfo)
		markSettingsFromSource(settings, "", SourceProject, "/project/graphshell.toml", sourceMap)

		info, exists := sourceMap["database.bounded_storage.max_snapshots"]
		assert.True(t, exists)
		assert.Equal(t, SourceProject, info.Source)
		assert.Equal(t, "/project/graphshell.toml", info.Path)
	})
}

func TestFlattenSettingsWithSources(t *testing.T) {
	t.Run("Basic flattening with source assignment", func(t *testing.T) {
		settings := map[string]interface{}{
			"lifecycle": map[string]interface{}{
				"max_retries":       3,
				"max_active_engines": 6,
			},
		}

		sourceMap := map[string]SourceInfo{
			"lifecycle.max_retries": {
				Source: SourceUser,
				Path:   "/home/user/.graphshell/graphshell.toml",
			},
			"lifecycle.max_active_engines": {
				Source: SourceUserUI,
				Path:   "/home/user/.graphshell/graphshell_from_ui.toml",
			},
		}

		introspection := &ConfigIntrospection{Settings: make([]SettingInfo, 0)}
		flattenSettingsWithSources(settings, "", introspection, sourceMap)

		assert.Len(t, introspection.Settings, 2)

		var retriesSetting, enginesSetting *SettingInfo
		for i := range introspection.Settings {
			if introspection.Settings[i].Key == "lifecycle.max_retries" {
				retriesSetting = &introspection.Settings[i]
			}
			if introspection.Settings[i].Key == "lifecycle.max_active_engines" {
				enginesSetting = &introspection.Settings[i]
			}
		}

		require.NotNil(t, retriesSetting)
		require.NotNil(t, enginesSetting)

		assert.Equal(t, SourceUser, retriesSetting.Source)
		assert.Equal(t, 3, retriesSetting.Value)

		assert.Equal(t, SourceUserUI, enginesSetting.Source)
		assert.Equal(t, 6, enginesSetting.Value)
	})

	t.Run("Environment variable override", func(t *testing.T) {
		oldEnv := os.Getenv("GRAPHSHELL_LIFECYCLE_MAX_RETRIES")
		defer os.Setenv("GRAPHSHELL_LIFECYCLE_MAX_RETRIES", oldEnv)
		os.Setenv("GRAPHSHELL_LIFECYCLE_MAX_RETRIES", "5")

		settings := map[string]interface{}{
			"lifecycle": map[string]interface{}{
				"max_retries": 3, // Config file value
			},
		}

		sourceMap := map[string]SourceInfo{
			"lifecycle.max_retries": {
				Source: SourceUser,
				Path:   "/home/user/.graphshell/graphshell.toml",
			},
		}

		introspection := &ConfigIntrospection{Settings: make([]SettingInfo, 0)}
		flattenSettingsWithSources(settings, "", introspection, sourceMap)

		require.Len(t, introspection.Settings, 1)
		setting := introspection.Settings[0]

		assert.Equal(t, SourceEnvironment, setting.Source)
		assert.Equal(t, "GRAPHSHELL_LIFECYCLE_MAX_RETRIES", setting.SourcePath)
	})

	t.Run("Default source for unmapped settings", func(t *testing.T) {
		settings := map[string]interface{}{
			"lifecycle": map[string]interface{}{
				"max_retries": 3,
			},
		}

		sourceMap := make(map[string]SourceInfo)

		introspection := &ConfigIntrospection{Settings: make([]SettingInfo, 0)}
		flattenSettingsWithSources(settings, "", introspection, sourceMap)

		require.Len(t, introspection.Settings, 1)
		setting := introspection.Settings[0]

		assert.Equal(t, SourceDefault, setting.Source)
		assert.Equal(t, "built-in default", setting.SourcePath)
	})
}

func TestBuildSourceMap(t *testing.T) {
	t.Run("Environment variable precedence", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "graphshell.toml")

		configContent := `
[lifecycle]
max_retries = 3
max_active_engines = 6
`
		err := os.WriteFile(configPath, []byte(configContent), 0644)
		require.NoError(t, err)

		oldEnv := os.Getenv("GRAPHSHELL_LIFECYCLE_MAX_RETRIES")
		defer os.Setenv("GRAPHSHELL_LIFECYCLE_MAX_RETRIES", oldEnv)
		os.Setenv("GRAPHSHELL_LIFECYCLE_MAX_RETRIES", "7")

		sourceMap := make(map[string]SourceInfo)

		settings := map[string]interface{}{
			"lifecycle": map[string]interface{}{
				"max_retries":        3,
				"max_active_engines": 6,
			},
		}

		markSettingsFromSource(settings, "", SourceUser, configPath, sourceMap)

		for key := range sourceMap {
			envKey := "GRAPHSHELL_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
			if os.Getenv(envKey) != "" {
				sourceMap[key] = SourceInfo{
					Source: SourceEnvironment,
					Path:   envKey,
				}
			}
		}

		assert.Equal(t, SourceEnvironment, sourceMap["lifecycle.max_retries"].Source)
		assert.Equal(t, "GRAPHSHELL_LIFECYCLE_MAX_RETRIES", sourceMap["lifecycle.max_retries"].Path)

		assert.Equal(t, SourceUser, sourceMap["lifecycle.max_active_engines"].Source)
		assert.Equal(t, configPath, sourceMap["lifecycle.max_active_engines"].Path)
	})
}

func TestConfigSourceConstants(t *testing.T) {
	assert.Equal(t, ConfigSource("default"), SourceDefault)
	assert.Equal(t, ConfigSource("system"), SourceSystem)
	assert.Equal(t, ConfigSource("user"), SourceUser)
	assert.Equal(t, ConfigSource("user_ui"), SourceUserUI)
	assert.Equal(t, ConfigSource("project"), SourceProject)
	assert.Equal(t, ConfigSource("environment"), SourceEnvironment)
}

func TestGetConfigIntrospection(t *testing.T) {
	t.Run("Integration test with env var override", func(t *testing.T) {
		oldEnv := os.Getenv("GRAPHSHELL_LIFECYCLE_MAX_RETRIES")
		defer os.Setenv("GRAPHSHELL_LIFECYCLE_MAX_RETRIES", oldEnv)
		os.Setenv("GRAPHSHELL_LIFECYCLE_MAX_RETRIES", "99")

		introspection, err := GetConfigIntrospection()
		require.NoError(t, err)
		require.NotNil(t, introspection)

		settingsByKey := make(map[string]SettingInfo)
		for _, setting := range introspection.Settings {
			settingsByKey[setting.Key] = setting
		}

		retriesSetting, ok := settingsByKey["lifecycle.max_retries"]
		require.True(t, ok, "lifecycle.max_retries should be in introspection")
		assert.Equal(t, SourceEnvironment, retriesSetting.Source)
		assert.Equal(t, "GRAPHSHELL_LIFECYCLE_MAX_RETRIES", retriesSetting.SourcePath)

		assert.NotNil(t, introspection)
		assert.NotEmpty(t, introspection.Settings, "Settings should not be empty")

		lastKey := ""
		for _, setting := range introspection.Settings {
			if lastKey != "" {
				assert.True(t, setting.Key >= lastKey,
					"Settings should be in sorted order: %s should be >= %s", setting.Key, lastKey)
			}
			lastKey = setting.Key
		}

		validSources := map[ConfigSource]bool{
			SourceDefault:     true,
			SourceSystem:      true,
			SourceUser:        true,
			SourceUserUI:      true,
			SourceProject:     true,
			SourceEnvironment: true,
		}
		for _, setting := range introspection.Settings {
			assert.True(t, validSources[setting.Source],
				"Setting %s has invalid source: %s", setting.Key, setting.Source)
		}
	})
}
