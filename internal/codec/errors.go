package codec

import (
	"errors"
	"fmt"
)

// Normalized configuration errors.
var (
	ErrInvalidConfig = errors.New("INVALID_CONFIG")
	ErrUnsupported   = errors.New("UNSUPPORTED")
)

// ConfigError describes why a receiver configuration was rejected.
type ConfigError struct {
	Code   error       // ErrInvalidConfig or ErrUnsupported
	Field  string      // configuration key
	Value  interface{} // offending value
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", e.Code, e.Reason)
	}
	return fmt.Sprintf("%v: invalid %s %q: %s", e.Code, e.Field, fmt.Sprint(e.Value), e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Code
}

func invalidTransmitterCode(code string, length int) error {
	return &ConfigError{
		Code:   ErrInvalidConfig,
		Field:  "transmitter_code",
		Value:  code,
		Reason: fmt.Sprintf("must be a sequence of length %d consisting of the characters 0 and 1", length),
	}
}

func invalidChannel(field string, channel, min, max int) error {
	reason := fmt.Sprintf("must be a whole number between %d and %d inclusive", min, max)
	if min == max {
		reason = fmt.Sprintf("must be %d", min)
	}
	return &ConfigError{
		Code:   ErrInvalidConfig,
		Field:  field,
		Value:  channel,
		Reason: reason,
	}
}
