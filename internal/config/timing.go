package config

import "time"

// TimingConfig holds the time constants of the dispatcher, the randomizer
// and the web server.
type TimingConfig struct {
	// KeepAwakeMargin is subtracted from half the awake time of a receiver
	// to get the keep-awake interval.
	KeepAwakeMargin time.Duration `toml:"keep_awake_margin" yaml:"keep_awake_margin" json:"keepAwakeMargin"`

	// CommandStaleAfter is how late a scheduled command may fire before it
	// is dropped.
	CommandStaleAfter time.Duration `toml:"command_stale_after" yaml:"command_stale_after" json:"commandStaleAfter"`

	// StartupBeepPause separates the test beeps at randomizer start.
	StartupBeepPause time.Duration `toml:"startup_beep_pause" yaml:"startup_beep_pause" json:"startupBeepPause"`

	// RelayAckTimeout bounds every wait for a relay response.
	RelayAckTimeout time.Duration `toml:"relay_ack_timeout" yaml:"relay_ack_timeout" json:"relayAckTimeout"`

	HTTPReadTimeout  time.Duration `toml:"http_read_timeout" yaml:"http_read_timeout" json:"httpReadTimeout"`
	HTTPWriteTimeout time.Duration `toml:"http_write_timeout" yaml:"http_write_timeout" json:"httpWriteTimeout"`
	ShutdownTimeout  time.Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdownTimeout"`

	// EventHeartbeat is the keep-alive interval of the event stream.
	EventHeartbeat time.Duration `toml:"event_heartbeat" yaml:"event_heartbeat" json:"eventHeartbeat"`
}

// LoadTimingBaseline returns the built-in timing values.
func LoadTimingBaseline() *TimingConfig {
	return &TimingConfig{
		KeepAwakeMargin:   10 * time.Second,
		CommandStaleAfter: 30 * time.Second,
		StartupBeepPause:  1 * time.Second,
		RelayAckTimeout:   5 * time.Second,
		HTTPReadTimeout:   15 * time.Second,
		HTTPWriteTimeout:  30 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		EventHeartbeat:    15 * time.Second,
	}
}

// mergeTimingConfigs merges file configuration with current configuration.
// File values take precedence over current values.
func mergeTimingConfigs(current, file *TimingConfig) *TimingConfig {
	merged := *current

	// Apply file overrides (only if file values are non-zero)
	if file.KeepAwakeMargin != 0 {
		merged.KeepAwakeMargin = file.KeepAwakeMargin
	}
	if file.CommandStaleAfter != 0 {
		merged.CommandStaleAfter = file.CommandStaleAfter
	}
	if file.StartupBeepPause != 0 {
		merged.StartupBeepPause = file.StartupBeepPause
	}
	if file.RelayAckTimeout != 0 {
		merged.RelayAckTimeout = file.RelayAckTimeout
	}
	if file.HTTPReadTimeout != 0 {
		merged.HTTPReadTimeout = file.HTTPReadTimeout
	}
	if file.HTTPWriteTimeout != 0 {
		merged.HTTPWriteTimeout = file.HTTPWriteTimeout
	}
	if file.ShutdownTimeout != 0 {
		merged.ShutdownTimeout = file.ShutdownTimeout
	}
	if file.EventHeartbeat != 0 {
		merged.EventHeartbeat = file.EventHeartbeat
	}

	return &merged
}
