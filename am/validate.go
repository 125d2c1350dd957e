package am

import "fmt"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Database path is optional - empty defaults to "graphshell.db" per defaults.go
	// No validation needed here

	if c.Lifecycle.MaxRetries < 0 {
		return fmt.Errorf("lifecycle.max_retries must be >= 0, got %d", c.Lifecycle.MaxRetries)
	}
	if c.Lifecycle.ConfirmationWindow <= 0 {
		return fmt.Errorf("lifecycle.confirmation_window must be > 0, got %v", c.Lifecycle.ConfirmationWindow)
	}
	if c.Lifecycle.ProbeTimeout <= 0 {
		return fmt.Errorf("lifecycle.probe_timeout must be > 0, got %v", c.Lifecycle.ProbeTimeout)
	}
	if c.Lifecycle.CooldownMax < c.Lifecycle.CooldownMin {
		return fmt.Errorf("lifecycle.cooldown_max (%v) must be >= lifecycle.cooldown_min (%v)", c.Lifecycle.CooldownMax, c.Lifecycle.CooldownMin)
	}
	if c.Lifecycle.CooldownFactor <= 1 {
		return fmt.Errorf("lifecycle.cooldown_factor must be > 1, got %v", c.Lifecycle.CooldownFactor)
	}
	if c.Lifecycle.MaxActiveEngines <= 0 {
		return fmt.Errorf("lifecycle.max_active_engines must be > 0, got %d", c.Lifecycle.MaxActiveEngines)
	}

	if c.ControlPanel.QueueCapacity <= 0 {
		return fmt.Errorf("control_panel.queue_capacity must be > 0, got %d", c.ControlPanel.QueueCapacity)
	}
	if c.ControlPanel.ShutdownTimeout <= 0 {
		return fmt.Errorf("control_panel.shutdown_timeout must be > 0, got %v", c.ControlPanel.ShutdownTimeout)
	}

	if c.Sync.Enabled && c.Sync.MaxPayloadBytes <= 0 {
		return fmt.Errorf("sync.max_payload_bytes must be > 0 when sync is enabled, got %d", c.Sync.MaxPayloadBytes)
	}

	if c.Persistence.SnapshotInterval <= 0 {
		return fmt.Errorf("persistence.snapshot_interval must be > 0, got %v", c.Persistence.SnapshotInterval)
	}
	if c.Persistence.JournalPath == "" {
		return fmt.Errorf("persistence.journal_path cannot be empty")
	}

	return nil
}
