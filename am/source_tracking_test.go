package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSourceTrackingIntegration tests that configuration loading correctly tracks
// where each setting came from through the entire load -> introspection flow
func TestSourceTrackingIntegration(t *testing.T) {
	t.Run("Precedence: graphshell.toml wins over config.toml", func(t *testing.T) {
		Reset()
		defer Reset()

		tempDir := t.TempDir()
		graphshellDir := filepath.Join(tempDir, ".graphshell")
		require.NoError(t, os.MkdirAll(graphshellDir, 0755))

		configToml := `
[database]
path = "config.db"
max_connections = 10

[server]
port = 8080
`
		require.NoError(t, os.WriteFile(
			filepath.Join(graphshellDir, "config.toml"),
			[]byte(configToml),
			0644,
		))

		graphshellToml := `
[database]
path = "graphshell-user.db"

[mod]
enabled = ["annotations", "history"]
`
		require.NoError(t, os.WriteFile(
			filepath.Join(graphshellDir, "graphshell.toml"),
			[]byte(graphshellToml),
			0644,
		))

		originalWd, _ := os.Getwd()
		os.Chdir(tempDir)
		defer os.Chdir(originalWd)

		os.Setenv("HOME", tempDir)
		defer os.Unsetenv("HOME")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "graphshell-user.db", cfg.Database.Path, "graphshell.toml should win over config.toml")

		intro, err := GetConfigIntrospection()
		require.NoError(t, err)

		var dbPath, dbMaxConn, serverPort, modEnabled *SettingInfo
		for i := range intro.Settings {
			setting := &intro.Settings[i]
			switch setting.Key {
			case "database.path":
				dbPath = setting
			case "database.max_connections":
				dbMaxConn = setting
			case "server.port":
				serverPort = setting
			case "mod.enabled":
				modEnabled = setting
			}
		}

		require.NotNil(t, dbPath, "database.path should be in introspection")
		assert.Contains(t, dbPath.SourcePath, "graphshell.toml", "database.path should come from graphshell.toml")
		assert.Equal(t, "graphshell-user.db", dbPath.Value)

		require.NotNil(t, dbMaxConn, "database.max_connections should be in introspection")
		assert.Contains(t, dbMaxConn.SourcePath, "config.toml", "database.max_connections should come from config.toml")
		assert.Equal(t, int64(10), dbMaxConn.Value) // TOML integers decode as int64

		require.NotNil(t, serverPort, "server.port should be in introspection")
		assert.Contains(t, serverPort.SourcePath, "config.toml", "server.port should come from config.toml")

		require.NotNil(t, modEnabled, "mod.enabled should be in introspection")
		assert.Contains(t, modEnabled.SourcePath, "graphshell.toml", "mod.enabled should come from graphshell.toml")
	})

	t.Run("Environment variables override files", func(t *testing.T) {
		Reset()
		defer Reset()

		tempDir := t.TempDir()
		graphshellDir := filepath.Join(tempDir, ".graphshell")
		require.NoError(t, os.MkdirAll(graphshellDir, 0755))

		graphshellToml := `
[database]
path = "file.db"

[server]
port = 8080
`
		require.NoError(t, os.WriteFile(
			filepath.Join(graphshellDir, "graphshell.toml"),
			[]byte(graphshellToml),
			0644,
		))

		os.Setenv("GRAPHSHELL_DATABASE_PATH", "env.db")
		defer os.Unsetenv("GRAPHSHELL_DATABASE_PATH")

		originalWd, _ := os.Getwd()
		os.Chdir(tempDir)
		defer os.Chdir(originalWd)

		os.Setenv("HOME", tempDir)
		defer os.Unsetenv("HOME")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "env.db", cfg.Database.Path, "Environment variable should override file")

		intro, err := GetConfigIntrospection()
		require.NoError(t, err)

		var dbPath *SettingInfo
		for i := range intro.Settings {
			if intro.Settings[i].Key == "database.path" {
				dbPath = &intro.Settings[i]
				break
			}
		}

		require.NotNil(t, dbPath)
		assert.Equal(t, SourceEnvironment, dbPath.Source)
		assert.Equal(t, "GRAPHSHELL_DATABASE_PATH", dbPath.SourcePath)
		assert.Equal(t, "env.db", dbPath.Value)
	})

	t.Run("Project config overrides user config", func(t *testing.T) {
		Reset()
		defer Reset()

		homeDir := t.TempDir()
		userGraphshellDir := filepath.Join(homeDir, ".graphshell")
		require.NoError(t, os.MkdirAll(userGraphshellDir, 0755))

		userConfig := `
[server]
port = 8080
log_level = "info"
`
		require.NoError(t, os.WriteFile(
			filepath.Join(userGraphshellDir, "graphshell.toml"),
			[]byte(userConfig),
			0644,
		))

		projectDir := t.TempDir()
		projectConfig := `
[server]
port = 9090
`
		require.NoError(t, os.WriteFile(
			filepath.Join(projectDir, "graphshell.toml"),
			[]byte(projectConfig),
			0644,
		))

		os.Chdir(projectDir)
		os.Setenv("HOME", homeDir)
		defer os.Unsetenv("HOME")

		cfg, err := Load()
		require.NoError(t, err)

		require.NotNil(t, cfg.Server.Port, "Project config should override user config")
		assert.Equal(t, 9090, *cfg.Server.Port)

		intro, err := GetConfigIntrospection()
		require.NoError(t, err)

		var serverPort, serverLogLevel *SettingInfo
		for i := range intro.Settings {
			setting := &intro.Settings[i]
			switch setting.Key {
			case "server.port":
				serverPort = setting
			case "server.log_level":
				serverLogLevel = setting
			}
		}

		require.NotNil(t, serverPort)
		assert.Equal(t, SourceProject, serverPort.Source)
		assert.Contains(t, serverPort.SourcePath, "graphshell.toml")
		assert.Equal(t, int64(9090), serverPort.Value)

		require.NotNil(t, serverLogLevel)
		assert.Equal(t, SourceUser, serverLogLevel.Source)
		assert.Equal(t, "info", serverLogLevel.Value)
	})

	t.Run("UI config files load with correct precedence", func(t *testing.T) {
		Reset()
		defer Reset()

		tempDir := t.TempDir()
		graphshellDir := filepath.Join(tempDir, ".graphshell")
		require.NoError(t, os.MkdirAll(graphshellDir, 0755))

		userConfig := `
[lifecycle]
max_retries = 2
max_active_engines = 5
`
		require.NoError(t, os.WriteFile(
			filepath.Join(graphshellDir, "graphshell.toml"),
			[]byte(userConfig),
			0644,
		))

		uiConfig := `
[lifecycle]
max_active_engines = 10

[sync]
device_name = "laptop"
`
		require.NoError(t, os.WriteFile(
			filepath.Join(graphshellDir, "graphshell_from_ui.toml"),
			[]byte(uiConfig),
			0644,
		))

		originalWd, _ := os.Getwd()
		os.Chdir(tempDir)
		defer os.Chdir(originalWd)

		os.Setenv("HOME", tempDir)
		defer os.Unsetenv("HOME")

		_, err := Load()
		require.NoError(t, err)

		intro, err := GetConfigIntrospection()
		require.NoError(t, err)

		settings := make(map[string]*SettingInfo)
		for i := range intro.Settings {
			setting := &intro.Settings[i]
			settings[setting.Key] = setting
		}

		maxRetries := settings["lifecycle.max_retries"]
		require.NotNil(t, maxRetries)
		assert.Equal(t, SourceUser, maxRetries.Source)
		assert.Contains(t, maxRetries.SourcePath, "graphshell.toml")
		assert.Equal(t, int64(2), maxRetries.Value)

		maxActive := settings["lifecycle.max_active_engines"]
		require.NotNil(t, maxActive)
		assert.Equal(t, SourceUserUI, maxActive.Source)
		assert.Contains(t, maxActive.SourcePath, "graphshell_from_ui.toml")
		assert.Equal(t, int64(10), maxActive.Value)

		deviceName := settings["sync.device_name"]
		require.NotNil(t, deviceName)
		assert.Equal(t, SourceUserUI, deviceName.Source)
		assert.Contains(t, deviceName.SourcePath, "graphshell_from_ui.toml")
		assert.Equal(t, "laptop", deviceName.Value)
	})

	t.Run("System config loads when present", func(t *testing.T) {
		if os.Getuid() != 0 {
			t.Skip("Skipping system config test (requires root)")
		}
		// Would test /etc/graphshell/graphshell.toml and /etc/graphshell/config.toml loading
	})
}

// TestSourceTrackingDefaults verifies that default values are properly tracked
func TestSourceTrackingDefaults(t *testing.T) {
	Reset()
	defer Reset()

	tempDir := t.TempDir()
	os.Chdir(tempDir)
	os.Setenv("HOME", tempDir)
	defer os.Unsetenv("HOME")

	_, err := Load()
	require.NoError(t, err)

	intro, err := GetConfigIntrospection()
	require.NoError(t, err)

	var cooldownFactor *SettingInfo
	for i := range intro.Settings {
		if intro.Settings[i].Key == "lifecycle.cooldown_factor" {
			cooldownFactor = &intro.Settings[i]
			break
		}
	}

	require.NotNil(t, cooldownFactor, "Default lifecycle.cooldown_factor should be present")
	assert.Equal(t, SourceDefault, cooldownFactor.Source)
	assert.Equal(t, "built-in default", cooldownFactor.SourcePath, "Default values should carry the built-in default source path")
	assert.Equal(t, 2.0, cooldownFactor.Value, "Should have the default value")
}
