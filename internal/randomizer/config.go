package randomizer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/remoshock/remoshock/internal/config"
	"github.com/remoshock/remoshock/internal/receiver"
)

// ErrInvalidConfig wraps every validation failure of a randomizer configuration.
var ErrInvalidConfig = errors.New("INVALID_RANDOMIZER_CONFIG")

// Config is the configuration of one randomizer run.
type Config struct {
	config.RandomizerSettings

	SkipStartupBeeps bool `json:"skip_startup_beeps"`

	// Overrides holds the per receiver overrides; index 0 is receiver 1.
	Overrides []receiver.RandomOverrides `json:"-"`
}

// NewConfig combines a randomizer section with the overrides configured
// on the receivers.
func NewConfig(settings config.RandomizerSettings, receivers []receiver.Properties) Config {
	cfg := Config{RandomizerSettings: settings}
	for _, props := range receivers {
		cfg.Overrides = append(cfg.Overrides, props.Random)
	}
	return cfg
}

type bounds struct {
	key      string
	min, max int
}

var rangeChecks = []bounds{
	{"beep_probability_percent", 0, 100},
	{"shock_probability_percent", 0, 100},
	{"shock_min_duration_ms", 0, 10000},
	{"shock_max_duration_ms", 0, 10000},
	{"shock_min_power_percent", 0, 100},
	{"shock_max_power_percent", 0, 100},
	{"pause_min_s", 0, 24 * 60 * 60},
	{"pause_max_s", 0, 24 * 60 * 60},
	{"start_delay_min_minutes", 0, 7 * 24 * 60},
	{"start_delay_max_minutes", 0, 7 * 24 * 60},
	{"runtime_min_minutes", 0, 365 * 24 * 60},
	{"runtime_max_minutes", 0, 365 * 24 * 60},
}

var orderedPairs = [][2]string{
	{"shock_min_duration_ms", "shock_max_duration_ms"},
	{"shock_min_power_percent", "shock_max_power_percent"},
	{"pause_min_s", "pause_max_s"},
	{"start_delay_min_minutes", "start_delay_max_minutes"},
	{"runtime_min_minutes", "runtime_max_minutes"},
}

var receiverPairs = orderedPairs[:2]

// Validate collects every range and ordering violation into one error.
func (c Config) Validate(receiverCount int) error {
	var errs []error

	for _, b := range rangeChecks {
		v, _ := c.Get(b.key)
		if v < b.min || v > b.max {
			errs = append(errs, fmt.Errorf("%w: parameter %q must be between %d and %d", ErrInvalidConfig, b.key, b.min, b.max))
		}
	}

	for _, pair := range orderedPairs {
		lo, _ := c.Get(pair[0])
		hi, _ := c.Get(pair[1])
		if lo > hi {
			errs = append(errs, fmt.Errorf("%w: parameter %q (%d) must be equal to or larger than %q (%d)",
				ErrInvalidConfig, pair[1], hi, pair[0], lo))
		}
	}

	total := 0
	for n := 1; n <= receiverCount; n++ {
		for _, pair := range receiverPairs {
			lo, hi := c.Value(n, pair[0]), c.Value(n, pair[1])
			if lo > hi {
				errs = append(errs, fmt.Errorf("%w: parameter %q (%d) must be equal to or larger than %q (%d) but this is not the case of receiver %d",
					ErrInvalidConfig, pair[1], hi, pair[0], lo, n))
			}
		}
		for _, key := range []string{"shock_min_power_percent", "shock_max_power_percent"} {
			if v := c.Value(n, key); v < 0 || v > 100 {
				errs = append(errs, fmt.Errorf("%w: parameter %q of receiver %d must be between 0 and 100", ErrInvalidConfig, key, n))
			}
		}
		for _, key := range []string{"shock_min_duration_ms", "shock_max_duration_ms"} {
			if v := c.Value(n, key); v < 0 || v > 10000 {
				errs = append(errs, fmt.Errorf("%w: parameter %q of receiver %d must be between 0 and 10000", ErrInvalidConfig, key, n))
			}
		}
		weight := c.Value(n, "probability_weight")
		if weight < 0 {
			errs = append(errs, fmt.Errorf("%w: probability weight of receiver %d must not be negative", ErrInvalidConfig, n))
			continue
		}
		total += weight
	}
	if receiverCount > 0 && total <= 0 {
		errs = append(errs, fmt.Errorf("%w: at least one receiver needs a positive probability weight", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// Value returns a setting for receiver n (1-based), honoring its overrides.
func (c Config) Value(n int, key string) int {
	if n >= 1 && n <= len(c.Overrides) {
		if p := overrideField(&c.Overrides[n-1], key); p != nil && *p != nil {
			return **p
		}
	}
	v, _ := c.Get(key)
	return v
}

// Weights returns the probability weights of n receivers.
func (c Config) Weights(n int) []int {
	weights := make([]int, n)
	for i := range weights {
		weights[i] = c.Value(i+1, "probability_weight")
	}
	return weights
}

func overrideField(o *receiver.RandomOverrides, key string) **int {
	switch key {
	case "probability_weight":
		return &o.ProbabilityWeight
	case "shock_min_power_percent":
		return &o.ShockMinPowerPercent
	case "shock_max_power_percent":
		return &o.ShockMaxPowerPercent
	case "shock_min_duration_ms":
		return &o.ShockMinDurationMs
	case "shock_max_duration_ms":
		return &o.ShockMaxDurationMs
	}
	return nil
}

// Form renders a configuration as flat key/value pairs, with receiver
// overrides as "r<n>.<key>".
func (c Config) Form() map[string]string {
	form := make(map[string]string)
	for _, key := range config.RandomizerKeys {
		v, _ := c.Get(key)
		form[key] = strconv.Itoa(v)
	}
	form["probability_weight"] = strconv.Itoa(c.ProbabilityWeight)
	for i := range c.Overrides {
		for _, key := range config.OverridableKeys {
			if p := overrideField(&c.Overrides[i], key); p != nil && *p != nil {
				form[fmt.Sprintf("r%d.%s", i+1, key)] = strconv.Itoa(**p)
			}
		}
	}
	form["skip_startup_beeps"] = strconv.FormatBool(c.SkipStartupBeeps)
	return form
}

// ParseForm builds a run configuration from flat key/value pairs as sent
// by the web interface. Every randomizer key is required. Receiver
// overrides absent from the form are cleared. The global probability
// weight is taken from base.
func ParseForm(form map[string]string, receiverCount int, base Config) (Config, error) {
	cfg := Config{RandomizerSettings: base.RandomizerSettings}

	var errs []error
	for _, key := range config.RandomizerKeys {
		raw, ok := form[key]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: parameter %q is missing", ErrInvalidConfig, key))
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: parameter %q is not a number", ErrInvalidConfig, key))
			continue
		}
		_ = cfg.Set(key, v)
	}

	cfg.Overrides = make([]receiver.RandomOverrides, receiverCount)
	for n := 1; n <= receiverCount; n++ {
		for _, key := range config.OverridableKeys {
			raw, ok := form[fmt.Sprintf("r%d.%s", n, key)]
			if !ok {
				continue
			}
			v, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: parameter \"r%d.%s\" is not a number", ErrInvalidConfig, n, key))
				continue
			}
			*overrideField(&cfg.Overrides[n-1], key) = &v
		}
	}

	if raw, ok := form["skip_startup_beeps"]; ok {
		skip, err := strconv.ParseBool(raw)
		cfg.SkipStartupBeeps = err == nil && skip
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
