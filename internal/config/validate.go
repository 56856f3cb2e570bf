package config

import (
	"fmt"
	"strings"
)

// Validate checks the global, timing and profile sections. Receiver sections
// are checked one by one with ReceiverSection.Validate so that a broken
// receiver only excludes itself.
func Validate(config *Config) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateGlobal(&config.Global); err != nil {
		return fmt.Errorf("global validation failed: %w", err)
	}

	if err := ValidateTiming(&config.Timing); err != nil {
		return fmt.Errorf("timing validation failed: %w", err)
	}

	if err := validateProfiles(config); err != nil {
		return fmt.Errorf("randomizer validation failed: %w", err)
	}
	return nil
}

func validateGlobal(global *Global) error {
	if global.WebPort < 1 || global.WebPort > 65535 {
		return fmt.Errorf("%w: web_port must be between 1 and 65535, got %d", ErrInvalidConfig, global.WebPort)
	}

	switch global.DurationRounding {
	case RoundingHuman, RoundingRaw:
	default:
		return fmt.Errorf("%w: duration_rounding must be %q or %q, got %q",
			ErrInvalidConfig, RoundingHuman, RoundingRaw, global.DurationRounding)
	}

	return nil
}

// ValidateTiming enforces that every timing value is usable.
func ValidateTiming(config *TimingConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	// A zero margin is allowed, the keep-awake interval is then half the awake time
	if config.KeepAwakeMargin < 0 {
		return fmt.Errorf("%w: keep-awake margin must be non-negative, got %v", ErrInvalidConfig, config.KeepAwakeMargin)
	}

	if config.CommandStaleAfter <= 0 {
		return fmt.Errorf("%w: command staleness window must be positive, got %v", ErrInvalidConfig, config.CommandStaleAfter)
	}
	if config.StartupBeepPause < 0 {
		return fmt.Errorf("%w: startup beep pause must be non-negative, got %v", ErrInvalidConfig, config.StartupBeepPause)
	}
	if config.RelayAckTimeout <= 0 {
		return fmt.Errorf("%w: relay ack timeout must be positive, got %v", ErrInvalidConfig, config.RelayAckTimeout)
	}

	// HTTP server timeouts
	if config.HTTPReadTimeout <= 0 {
		return fmt.Errorf("%w: http read timeout must be positive, got %v", ErrInvalidConfig, config.HTTPReadTimeout)
	}
	if config.HTTPWriteTimeout <= 0 {
		return fmt.Errorf("%w: http write timeout must be positive, got %v", ErrInvalidConfig, config.HTTPWriteTimeout)
	}
	if config.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown timeout must be positive, got %v", ErrInvalidConfig, config.ShutdownTimeout)
	}
	if config.EventHeartbeat <= 0 {
		return fmt.Errorf("%w: event heartbeat must be positive, got %v", ErrInvalidConfig, config.EventHeartbeat)
	}

	return nil
}

func validateProfiles(config *Config) error {
	for name, profile := range config.Profiles {
		if name == DefaultSection {
			return fmt.Errorf("%w: profile %q shadows the [%s] section", ErrInvalidConfig, name, DefaultSection)
		}
		for key := range profile {
			if _, err := config.Randomizer.Get(key); err != nil {
				return fmt.Errorf("profile %q: %w", name, err)
			}
		}
	}
	return nil
}

// Validate checks the shape of a receiver section. Protocol specific checks
// of transmitter codes and channels are done by the receivers themselves.
func (r ReceiverSection) Validate() error {
	if strings.TrimSpace(r.Type) == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidConfig)
	}
	if r.LimitShockMaxPowerPercent != nil && (*r.LimitShockMaxPowerPercent < 0 || *r.LimitShockMaxPowerPercent > 100) {
		return fmt.Errorf("%w: limit_shock_max_power_percent must be between 0 and 100", ErrInvalidConfig)
	}
	if r.LimitShockMaxDurationMs != nil && (*r.LimitShockMaxDurationMs < 0 || *r.LimitShockMaxDurationMs > 10000) {
		return fmt.Errorf("%w: limit_shock_max_duration_ms must be between 0 and 10000", ErrInvalidConfig)
	}
	if r.BeepShockDelayMs != nil && *r.BeepShockDelayMs < 0 {
		return fmt.Errorf("%w: beep_shock_delay_ms must be non-negative", ErrInvalidConfig)
	}
	if r.RandomProbabilityWeight != nil && *r.RandomProbabilityWeight < 0 {
		return fmt.Errorf("%w: random_probability_weight must be non-negative", ErrInvalidConfig)
	}
	return nil
}
