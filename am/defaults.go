package am

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Core defaults
	v.SetDefault("core.data_dir", "~/.graphshell")
	v.SetDefault("core.debug_invariants", false)
	v.SetDefault("core.log_theme", "everforest")

	// Database defaults
	v.SetDefault("database.path", "graphshell.db")
	v.SetDefault("database.bounded_storage.max_journal_bytes", 64*1024*1024) // 64MiB before rotation
	v.SetDefault("database.bounded_storage.max_snapshots", 8)
	v.SetDefault("database.bounded_storage.max_sync_log_rows", 10000)

	// Server (local control/debug surface) defaults. server.port is left
	// unset (nil) by default; GetServerPort falls back to DefaultServerPort.
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
		"tauri://localhost", // desktop shell webview origin
	})

	// Lifecycle (engine Cold/Warm/Active + backpressure) defaults
	v.SetDefault("lifecycle.confirmation_window", 2*time.Second)
	v.SetDefault("lifecycle.probe_timeout", 8*time.Second)
	v.SetDefault("lifecycle.max_retries", 3)
	v.SetDefault("lifecycle.cooldown_min", 1*time.Second)
	v.SetDefault("lifecycle.cooldown_max", 30*time.Second)
	v.SetDefault("lifecycle.cooldown_factor", 2.0)
	v.SetDefault("lifecycle.max_active_engines", 6)

	// Control panel defaults
	v.SetDefault("control_panel.queue_capacity", 256)
	v.SetDefault("control_panel.shutdown_timeout", 30*time.Second)

	// Sync defaults
	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.device_name", "")
	v.SetDefault("sync.max_payload_bytes", 8*1024*1024) // 8MiB
	v.SetDefault("sync.exchange_interval", 15*time.Second)
	v.SetDefault("sync.read_only", false)

	// Persistence defaults
	v.SetDefault("persistence.snapshot_interval", 5*time.Minute)
	v.SetDefault("persistence.journal_path", "journal.log")
	v.SetDefault("persistence.snapshot_dir", "snapshots")
	v.SetDefault("persistence.workspace_dir", "workspaces")

	// Workbench defaults
	v.SetDefault("workbench.detach_margin_px", 48.0)

	// Mod loader defaults
	v.SetDefault("mod.enabled", []string{}) // no mods enabled by default (explicit opt-in via graphshell.toml)
	v.SetDefault("mod.paths", []string{
		"~/.graphshell/mods", // User-level mods
		"./mods",             // Project-level mods
	})

	// Auth defaults
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.token_expiry", "15m")
	v.SetDefault("auth.refresh_expiry", "30d")
}

// BindSensitiveEnvVars explicitly binds sensitive configuration to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("database.path", "GRAPHSHELL_DATABASE_PATH")
	v.BindEnv("auth.jwt_secret", "GRAPHSHELL_AUTH_JWT_SECRET")
	v.BindEnv("sync.device_name", "GRAPHSHELL_SYNC_DEVICE_NAME")
}

// GetServerPort returns the configured control-surface port, or
// DefaultServerPort if not configured.
func GetServerPort() int {
	cfg, err := Load()
	if err != nil || cfg.Server.Port == nil {
		return DefaultServerPort
	}
	return *cfg.Server.Port
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return "graphshell.db" // Fallback default
	}
	return c.Database.Path
}

// GetServerAllowedOrigins returns the allowed CORS origins. Merges
// configured origins with secure defaults, ensuring critical origins
// (localhost, 127.0.0.1, tauri) are always included even if not in config.
func (c *Config) GetServerAllowedOrigins() []string {
	defaults := []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
		"tauri://localhost",
	}

	if len(c.Server.AllowedOrigins) == 0 {
		return defaults
	}

	originSet := make(map[string]bool)
	for _, origin := range defaults {
		originSet[origin] = true
	}
	for _, origin := range c.Server.AllowedOrigins {
		originSet[origin] = true
	}

	merged := make([]string, 0, len(originSet))
	for origin := range originSet {
		merged = append(merged, origin)
	}
	sort.Strings(merged)

	return merged
}

// GetLogTheme returns the log theme (default: everforest)
func (c *Config) GetLogTheme() string {
	if c.Core.LogTheme == "" {
		return "everforest"
	}
	return c.Core.LogTheme
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Database: %s, Core: {LogTheme: %s}, Lifecycle: {MaxActiveEngines: %d}}",
		c.Database.Path, c.Core.LogTheme, c.Lifecycle.MaxActiveEngines)
}
