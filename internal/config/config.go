package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/remoshock/remoshock/internal/receiver"
)

var (
	ErrInvalidConfig  = errors.New("INVALID_CONFIG")
	ErrUnknownKey     = errors.New("UNKNOWN_KEY")
	ErrUnknownSection = errors.New("UNKNOWN_SECTION")
	ErrNotFound       = errors.New("CONFIG_NOT_FOUND")
)

// Duration rounding modes.
const (
	RoundingHuman = "human"
	RoundingRaw   = "raw"
)

const (
	DefaultWebPort = 7777

	// DefaultSection is the randomizer section used unless another is named.
	DefaultSection = "randomizer"

	defaultColor                     = "#FFF"
	defaultLimitShockMaxPowerPercent = 100
	defaultLimitShockMaxDurationMs   = 10000
	defaultBeepShockDelayMs          = 1000
)

// Config is a complete remoshock configuration.
type Config struct {
	Global     Global                    `toml:"global" yaml:"global" json:"global"`
	Timing     TimingConfig              `toml:"timing" yaml:"timing" json:"timing"`
	Randomizer RandomizerSettings        `toml:"randomizer" yaml:"randomizer" json:"randomizer"`
	Profiles   map[string]map[string]int `toml:"profile,omitempty" yaml:"profile,omitempty" json:"profiles,omitempty"`
	Receivers  []ReceiverSection         `toml:"receiver" yaml:"receiver" json:"receivers"`

	// Path is the file the configuration was read from.
	Path string `toml:"-" yaml:"-" json:"-"`
}

// Global holds process wide settings.
type Global struct {
	SDR                    string `toml:"sdr,omitempty" yaml:"sdr,omitempty" json:"sdr,omitempty"`
	WebPort                int    `toml:"web_port" yaml:"web_port" json:"webPort"`
	WebAuthenticationToken string `toml:"web_authentication_token" yaml:"web_authentication_token" json:"-"`
	DurationRounding       string `toml:"duration_rounding" yaml:"duration_rounding" json:"durationRounding"`
	AuditDir               string `toml:"audit_dir,omitempty" yaml:"audit_dir,omitempty" json:"auditDir,omitempty"`
	RelayDevice            string `toml:"relay_device,omitempty" yaml:"relay_device,omitempty" json:"relayDevice,omitempty"`
}

// RandomizerSettings are the numeric randomizer parameters. The tags use
// the key names of the configuration file and of the web interface.
type RandomizerSettings struct {
	BeepProbabilityPercent  int `toml:"beep_probability_percent" yaml:"beep_probability_percent" json:"beep_probability_percent"`
	ShockProbabilityPercent int `toml:"shock_probability_percent" yaml:"shock_probability_percent" json:"shock_probability_percent"`
	ShockMinDurationMs      int `toml:"shock_min_duration_ms" yaml:"shock_min_duration_ms" json:"shock_min_duration_ms"`
	ShockMaxDurationMs      int `toml:"shock_max_duration_ms" yaml:"shock_max_duration_ms" json:"shock_max_duration_ms"`
	ShockMinPowerPercent    int `toml:"shock_min_power_percent" yaml:"shock_min_power_percent" json:"shock_min_power_percent"`
	ShockMaxPowerPercent    int `toml:"shock_max_power_percent" yaml:"shock_max_power_percent" json:"shock_max_power_percent"`
	PauseMinS               int `toml:"pause_min_s" yaml:"pause_min_s" json:"pause_min_s"`
	PauseMaxS               int `toml:"pause_max_s" yaml:"pause_max_s" json:"pause_max_s"`
	StartDelayMinMinutes    int `toml:"start_delay_min_minutes" yaml:"start_delay_min_minutes" json:"start_delay_min_minutes"`
	StartDelayMaxMinutes    int `toml:"start_delay_max_minutes" yaml:"start_delay_max_minutes" json:"start_delay_max_minutes"`
	RuntimeMinMinutes       int `toml:"runtime_min_minutes" yaml:"runtime_min_minutes" json:"runtime_min_minutes"`
	RuntimeMaxMinutes       int `toml:"runtime_max_minutes" yaml:"runtime_max_minutes" json:"runtime_max_minutes"`
	ProbabilityWeight       int `toml:"probability_weight" yaml:"probability_weight" json:"probability_weight"`
}

// RandomizerKeys lists the required randomizer parameters in file order.
var RandomizerKeys = []string{
	"beep_probability_percent",
	"shock_probability_percent",
	"shock_min_duration_ms",
	"shock_max_duration_ms",
	"shock_min_power_percent",
	"shock_max_power_percent",
	"pause_min_s",
	"pause_max_s",
	"start_delay_min_minutes",
	"start_delay_max_minutes",
	"runtime_min_minutes",
	"runtime_max_minutes",
}

// OverridableKeys may be overridden per receiver with a random_ prefix.
var OverridableKeys = []string{
	"shock_min_duration_ms",
	"shock_max_duration_ms",
	"shock_min_power_percent",
	"shock_max_power_percent",
	"probability_weight",
}

// DefaultRandomizer returns the settings of a freshly generated configuration.
func DefaultRandomizer() RandomizerSettings {
	return RandomizerSettings{
		BeepProbabilityPercent:  100,
		ShockProbabilityPercent: 100,
		ShockMinDurationMs:      250,
		ShockMaxDurationMs:      250,
		ShockMinPowerPercent:    5,
		ShockMaxPowerPercent:    10,
		PauseMinS:               300,
		PauseMaxS:               900,
		StartDelayMinMinutes:    0,
		StartDelayMaxMinutes:    0,
		RuntimeMinMinutes:       1440,
		RuntimeMaxMinutes:       1440,
		ProbabilityWeight:       1,
	}
}

func (s *RandomizerSettings) field(key string) *int {
	switch key {
	case "beep_probability_percent":
		return &s.BeepProbabilityPercent
	case "shock_probability_percent":
		return &s.ShockProbabilityPercent
	case "shock_min_duration_ms":
		return &s.ShockMinDurationMs
	case "shock_max_duration_ms":
		return &s.ShockMaxDurationMs
	case "shock_min_power_percent":
		return &s.ShockMinPowerPercent
	case "shock_max_power_percent":
		return &s.ShockMaxPowerPercent
	case "pause_min_s":
		return &s.PauseMinS
	case "pause_max_s":
		return &s.PauseMaxS
	case "start_delay_min_minutes":
		return &s.StartDelayMinMinutes
	case "start_delay_max_minutes":
		return &s.StartDelayMaxMinutes
	case "runtime_min_minutes":
		return &s.RuntimeMinMinutes
	case "runtime_max_minutes":
		return &s.RuntimeMaxMinutes
	case "probability_weight":
		return &s.ProbabilityWeight
	}
	return nil
}

// Get returns the value of a parameter by its key name.
func (s RandomizerSettings) Get(key string) (int, error) {
	p := s.field(key)
	if p == nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return *p, nil
}

// Set changes a parameter by its key name.
func (s *RandomizerSettings) Set(key string, value int) error {
	p := s.field(key)
	if p == nil {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	*p = value
	return nil
}

// ReceiverSection is one [[receiver]] entry. Optional numbers are pointers
// so that an absent key can be told apart from zero.
type ReceiverSection struct {
	Type            string `toml:"type" yaml:"type" json:"type"`
	Name            string `toml:"name" yaml:"name" json:"name"`
	Color           string `toml:"color,omitempty" yaml:"color,omitempty" json:"color,omitempty"`
	TransmitterCode string `toml:"transmitter_code,omitempty" yaml:"transmitter_code,omitempty" json:"transmitterCode,omitempty"`
	Channel         int    `toml:"channel" yaml:"channel" json:"channel"`

	LimitShockMaxPowerPercent *int `toml:"limit_shock_max_power_percent,omitempty" yaml:"limit_shock_max_power_percent,omitempty" json:"limitShockMaxPowerPercent,omitempty"`
	LimitShockMaxDurationMs   *int `toml:"limit_shock_max_duration_ms,omitempty" yaml:"limit_shock_max_duration_ms,omitempty" json:"limitShockMaxDurationMs,omitempty"`
	BeepShockDelayMs          *int `toml:"beep_shock_delay_ms,omitempty" yaml:"beep_shock_delay_ms,omitempty" json:"beepShockDelayMs,omitempty"`

	RelayArgs []int `toml:"relay_args,omitempty" yaml:"relay_args,omitempty" json:"relayArgs,omitempty"`

	RandomProbabilityWeight    *int `toml:"random_probability_weight,omitempty" yaml:"random_probability_weight,omitempty" json:"randomProbabilityWeight,omitempty"`
	RandomShockMinPowerPercent *int `toml:"random_shock_min_power_percent,omitempty" yaml:"random_shock_min_power_percent,omitempty" json:"randomShockMinPowerPercent,omitempty"`
	RandomShockMaxPowerPercent *int `toml:"random_shock_max_power_percent,omitempty" yaml:"random_shock_max_power_percent,omitempty" json:"randomShockMaxPowerPercent,omitempty"`
	RandomShockMinDurationMs   *int `toml:"random_shock_min_duration_ms,omitempty" yaml:"random_shock_min_duration_ms,omitempty" json:"randomShockMinDurationMs,omitempty"`
	RandomShockMaxDurationMs   *int `toml:"random_shock_max_duration_ms,omitempty" yaml:"random_shock_max_duration_ms,omitempty" json:"randomShockMaxDurationMs,omitempty"`
}

// Properties converts the section of the n-th receiver (1-based) into
// receiver properties, filling in defaults for absent keys.
func (r ReceiverSection) Properties(n int) receiver.Properties {
	props := receiver.Properties{
		Type:                      strings.ToLower(strings.TrimSpace(r.Type)),
		Name:                      r.Name,
		Color:                     r.Color,
		TransmitterCode:           strings.TrimSpace(r.TransmitterCode),
		Channel:                   r.Channel,
		LimitShockMaxPowerPercent: intOr(r.LimitShockMaxPowerPercent, defaultLimitShockMaxPowerPercent),
		LimitShockMaxDurationMs:   intOr(r.LimitShockMaxDurationMs, defaultLimitShockMaxDurationMs),
		BeepShockDelayMs:          intOr(r.BeepShockDelayMs, defaultBeepShockDelayMs),
		RelayArgs:                 r.RelayArgs,
		Random: receiver.RandomOverrides{
			ProbabilityWeight:    r.RandomProbabilityWeight,
			ShockMinPowerPercent: r.RandomShockMinPowerPercent,
			ShockMaxPowerPercent: r.RandomShockMaxPowerPercent,
			ShockMinDurationMs:   r.RandomShockMinDurationMs,
			ShockMaxDurationMs:   r.RandomShockMaxDurationMs,
		},
	}
	if props.Name == "" {
		props.Name = fmt.Sprintf("Receiver %d", n)
	}
	if props.Color == "" {
		props.Color = defaultColor
	}
	return props
}

// ReceiverProperties converts all receiver sections in file order.
func (c *Config) ReceiverProperties() []receiver.Properties {
	props := make([]receiver.Properties, 0, len(c.Receivers))
	for i, r := range c.Receivers {
		props = append(props, r.Properties(i+1))
	}
	return props
}

// Section returns the randomizer settings of a named section. The default
// section is [randomizer]; a [profile.<name>] table starts from the
// [randomizer] values and replaces the keys it names.
func (c *Config) Section(name string) (RandomizerSettings, error) {
	if name == "" || name == DefaultSection {
		return c.Randomizer, nil
	}
	profile, ok := c.Profiles[name]
	if !ok {
		return RandomizerSettings{}, fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}
	settings := c.Randomizer
	for key, value := range profile {
		if err := settings.Set(key, value); err != nil {
			return RandomizerSettings{}, fmt.Errorf("section %q: %w", name, err)
		}
	}
	return settings, nil
}

// Sections returns the settings of every randomizer section by name.
func (c *Config) Sections() map[string]RandomizerSettings {
	sections := map[string]RandomizerSettings{DefaultSection: c.Randomizer}
	for name := range c.Profiles {
		if s, err := c.Section(name); err == nil {
			sections[name] = s
		}
	}
	return sections
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
