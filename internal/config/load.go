package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"
)

// Default returns a configuration without receivers.
func Default() *Config {
	return &Config{
		Global: Global{
			WebPort:          DefaultWebPort,
			DurationRounding: RoundingHuman,
		},
		Timing:     *LoadTimingBaseline(),
		Randomizer: DefaultRandomizer(),
	}
}

// DefaultPath returns ~/.config/remoshock.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "remoshock.toml"), nil
}

// ResolvePath picks the configuration file: an explicit path wins, then
// REMOSHOCK_CONFIG, then DefaultPath.
func ResolvePath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv("REMOSHOCK_CONFIG"); env != "" {
		return env, nil
	}
	return DefaultPath()
}

// Load merges Default() + the configuration file + env overrides (REMOSHOCK_*)
// and validates the result. path may be empty, see ResolvePath.
func Load(path string) (*Config, error) {
	path, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	config, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	config.Path = path

	// Apply environment variable overrides
	if err := applyEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	// Validate the final configuration
	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Format of a configuration file.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Parse decodes a configuration document on top of the defaults. Keys the
// document omits keep their default values.
func Parse(data []byte, format Format) (*Config, error) {
	config := Default()
	baseline := config.Timing
	config.Timing = TimingConfig{}

	switch format {
	case FormatYAML:
		if err := yaml.UnmarshalStrict(data, config); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), config)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown keys %v", ErrInvalidConfig, undecoded)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidConfig, format)
	}

	// Merge file timing with the baseline
	config.Timing = *mergeTimingConfigs(&baseline, &config.Timing)

	return config, nil
}

// Write stores a configuration in the format chosen by the file extension.
// An existing file is never overwritten.
func Write(path string, config *Config) error {
	var buf bytes.Buffer
	switch formatOf(path) {
	case FormatYAML:
		out, err := yaml.Marshal(config)
		if err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		buf.Write(out)
	default:
		if err := toml.NewEncoder(&buf).Encode(config); err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies REMOSHOCK_* environment variables to the config.
func applyEnvOverrides(config *Config) error {
	config.Global.SDR = GetEnvVar("REMOSHOCK_SDR", config.Global.SDR)
	config.Global.WebAuthenticationToken = GetEnvVar("REMOSHOCK_WEB_AUTHENTICATION_TOKEN", config.Global.WebAuthenticationToken)
	config.Global.DurationRounding = GetEnvVar("REMOSHOCK_DURATION_ROUNDING", config.Global.DurationRounding)
	config.Global.AuditDir = GetEnvVar("REMOSHOCK_AUDIT_DIR", config.Global.AuditDir)
	config.Global.RelayDevice = GetEnvVar("REMOSHOCK_RELAY_DEVICE", config.Global.RelayDevice)

	if val := os.Getenv("REMOSHOCK_WEB_PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("REMOSHOCK_WEB_PORT: %w", err)
		}
		config.Global.WebPort = port
	}

	// Timing configuration
	t := &config.Timing
	t.KeepAwakeMargin = GetEnvDuration("REMOSHOCK_TIMING_KEEP_AWAKE_MARGIN", t.KeepAwakeMargin)
	t.CommandStaleAfter = GetEnvDuration("REMOSHOCK_TIMING_COMMAND_STALE_AFTER", t.CommandStaleAfter)
	t.StartupBeepPause = GetEnvDuration("REMOSHOCK_TIMING_STARTUP_BEEP_PAUSE", t.StartupBeepPause)
	t.RelayAckTimeout = GetEnvDuration("REMOSHOCK_TIMING_RELAY_ACK_TIMEOUT", t.RelayAckTimeout)
	t.HTTPReadTimeout = GetEnvDuration("REMOSHOCK_TIMING_HTTP_READ_TIMEOUT", t.HTTPReadTimeout)
	t.HTTPWriteTimeout = GetEnvDuration("REMOSHOCK_TIMING_HTTP_WRITE_TIMEOUT", t.HTTPWriteTimeout)
	t.ShutdownTimeout = GetEnvDuration("REMOSHOCK_TIMING_SHUTDOWN_TIMEOUT", t.ShutdownTimeout)
	t.EventHeartbeat = GetEnvDuration("REMOSHOCK_TIMING_EVENT_HEARTBEAT", t.EventHeartbeat)

	return nil
}

// GetEnvVar returns the value of an environment variable or a default value.
func GetEnvVar(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvDuration returns the value of an environment variable as a duration with a default.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetEnvInt returns the value of an environment variable as an int with a default.
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// GetEnvBool returns the value of an environment variable as a bool with a default.
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
