package am

import "time"

// Config represents the core graphshell configuration
type Config struct {
	Core         CoreConfig         `mapstructure:"core"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Server       ServerConfig       `mapstructure:"server"`
	Lifecycle    LifecycleConfig    `mapstructure:"lifecycle"`
	ControlPanel ControlPanelConfig `mapstructure:"control_panel"`
	Sync         SyncConfig         `mapstructure:"sync"`
	Persistence  PersistenceConfig  `mapstructure:"persistence"`
	Workbench    WorkbenchConfig    `mapstructure:"workbench"`
	Mod          ModConfig          `mapstructure:"mod"`
	Auth         AuthConfig         `mapstructure:"auth"`
}

// CoreConfig holds cross-cutting runtime settings.
type CoreConfig struct {
	DataDir string `mapstructure:"data_dir"` // Root directory for journal/snapshots/db (default: ~/.graphshell)
	// DebugInvariants is loaded from configuration and shown by
	// `config show`; no reducer or workbench code reads it, so it does not
	// change how invariant violations are handled.
	DebugInvariants bool   `mapstructure:"debug_invariants"`
	LogTheme        string `mapstructure:"log_theme"` // Color theme: gruvbox, everforest
}

// AuthConfig configures authentication for remote sync peers
type AuthConfig struct {
	Enabled       bool          `mapstructure:"enabled"`        // Enable authentication (default: false for local-only)
	JWTSecret     string        `mapstructure:"jwt_secret"`     // Secret for signing JWTs
	TokenExpiry   string        `mapstructure:"token_expiry"`   // JWT token expiry duration (default: 15m)
	RefreshExpiry string        `mapstructure:"refresh_expiry"` // Refresh token expiry (default: 30d)
	TLS           AuthTLSConfig `mapstructure:"tls"`            // TLS/HTTPS configuration
}

// AuthTLSConfig configures TLS/HTTPS for secure connections
type AuthTLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`   // Enable HTTPS
	CertFile string `mapstructure:"cert_file"` // Path to TLS certificate file
	KeyFile  string `mapstructure:"key_file"`  // Path to TLS private key file
}

// DatabaseConfig configures the embedded SQLite trust store and sync log
type DatabaseConfig struct {
	Path           string               `mapstructure:"path"`
	BoundedStorage BoundedStorageConfig `mapstructure:"bounded_storage"`
}

// BoundedStorageConfig holds retention limits for journal/sync history.
// The values are loaded from configuration; no persistence code reads them,
// so the journal is not rotated and snapshots and sync rows are not pruned.
type BoundedStorageConfig struct {
	MaxJournalBytes int64 `mapstructure:"max_journal_bytes"` // journal size limit
	MaxSnapshots    int   `mapstructure:"max_snapshots"`     // snapshot count limit
	MaxSyncLogRows  int   `mapstructure:"max_sync_log_rows"` // sync log row limit per peer
}

// ServerConfig configures the local control/debug HTTP surface, if enabled
type ServerConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           *int     `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Server port constants
const (
	DefaultServerPort  = 8977 // Development port
	FallbackServerPort = 8978 // Used if the default is already bound
)

// LifecycleConfig governs engine Cold/Warm/Active transitions, the
// engine-creation backpressure state machine, and LRU eviction.
type LifecycleConfig struct {
	ConfirmationWindow time.Duration `mapstructure:"confirmation_window"` // default: 2s
	ProbeTimeout       time.Duration `mapstructure:"probe_timeout"`       // default: 8s
	MaxRetries         int           `mapstructure:"max_retries"`         // default: 3
	CooldownMin        time.Duration `mapstructure:"cooldown_min"`        // default: 1s
	CooldownMax        time.Duration `mapstructure:"cooldown_max"`        // default: 30s
	CooldownFactor     float64       `mapstructure:"cooldown_factor"`     // default: 2
	MaxActiveEngines   int           `mapstructure:"max_active_engines"`  // LRU cap before demoting Active->Warm
	MaxWarmEngines     int           `mapstructure:"max_warm_engines"`    // LRU cap before demoting Warm->Cold
	ReconcileInterval  time.Duration `mapstructure:"reconcile_interval"`  // cadence of the per-frame reconcile loop, default: 250ms
}

// ControlPanelConfig governs the control panel's intent queue capacity and
// shutdown behavior.
type ControlPanelConfig struct {
	QueueCapacity   int           `mapstructure:"queue_capacity"`   // default: 256
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // default: 30s
}

// SyncConfig governs peer discovery and exchange behavior.
type SyncConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	DeviceName       string        `mapstructure:"device_name"`
	MaxPayloadBytes  int64         `mapstructure:"max_payload_bytes"`
	ExchangeInterval time.Duration `mapstructure:"exchange_interval"`
	ReadOnly         bool          `mapstructure:"read_only"`
}

// PersistenceConfig governs journal/snapshot cadence and paths.
type PersistenceConfig struct {
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval"`
	JournalPath      string        `mapstructure:"journal_path"`
	SnapshotDir      string        `mapstructure:"snapshot_dir"`
	WorkspaceDir     string        `mapstructure:"workspace_dir"`
}

// WorkbenchConfig governs pane-tree presentation defaults.
type WorkbenchConfig struct {
	DetachMarginPx float64 `mapstructure:"detach_margin_px"`
}

// ModConfig configures the mod loader.
type ModConfig struct {
	Enabled []string `mapstructure:"enabled"` // whitelist of enabled mod ids
	Paths   []string `mapstructure:"paths"`   // mod search paths (e.g., ["~/.graphshell/mods", "./mods"])
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
	ExecutablePermissions  = 0755 // Executable file permissions (rwxr-xr-x)
)
