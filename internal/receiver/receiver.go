// Package receiver turns a configured collar into something the dispatcher
// can command, independent of how the signal reaches it.
package receiver

import (
	"context"
	"errors"

	"github.com/remoshock/remoshock/internal/codec"
	"github.com/remoshock/remoshock/internal/relay"
	"github.com/remoshock/remoshock/internal/sender"
)

var (
	ErrUnknownType = errors.New("UNKNOWN_RECEIVER_TYPE")
	ErrNotBooted   = errors.New("NOT_BOOTED")
)

// RandomOverrides replace randomizer settings for one receiver. nil means
// the global value applies.
type RandomOverrides struct {
	ProbabilityWeight    *int `json:"probabilityWeight,omitempty"`
	ShockMinPowerPercent *int `json:"shockMinPowerPercent,omitempty"`
	ShockMaxPowerPercent *int `json:"shockMaxPowerPercent,omitempty"`
	ShockMinDurationMs   *int `json:"shockMinDurationMs,omitempty"`
	ShockMaxDurationMs   *int `json:"shockMaxDurationMs,omitempty"`
}

// Properties is the configuration of one receiver.
type Properties struct {
	Type            string `json:"type"`
	Name            string `json:"name"`
	Color           string `json:"color"`
	TransmitterCode string `json:"transmitterCode"`
	Channel         int    `json:"channel"`

	LimitShockMaxPowerPercent int `json:"limitShockMaxPowerPercent"`
	LimitShockMaxDurationMs   int `json:"limitShockMaxDurationMs"`
	BeepShockDelayMs          int `json:"beepShockDelayMs"`

	// RelayArgs are the three firmware arguments of relay receivers.
	RelayArgs []int `json:"relayArgs,omitempty"`

	Random RandomOverrides `json:"random"`
}

// Summary is what front ends need to render a receiver.
type Summary struct {
	Name              string             `json:"name"`
	Color             string             `json:"color"`
	Power             int                `json:"power"`
	Duration          int                `json:"duration"`
	DurationIncrement int                `json:"durationIncrement"`
	Capabilities      codec.Capabilities `json:"capabilities"`
}

// Receiver is a configured receiver of any kind.
type Receiver interface {
	// Validate checks the configuration. Invalid receivers are not booted.
	Validate() error

	Capabilities() codec.Capabilities
	Timings() codec.Timings
	Properties() Properties

	RequiresRadio() bool
	RequiresRelay() bool

	// Boot connects the receiver to the transport it requires.
	Boot(ctx context.Context, radio sender.Sender, rl relay.Relay) error

	// Command transmits one action. power and durationMs are already validated.
	Command(ctx context.Context, action codec.Action, power, durationMs int) error

	// Config returns the display summary.
	Config() Summary
}

func summarize(props Properties, timings codec.Timings, caps codec.Capabilities) Summary {
	return Summary{
		Name:              props.Name,
		Color:             props.Color,
		Power:             10,
		Duration:          500,
		DurationIncrement: timings.DurationIncrementMs,
		Capabilities:      caps,
	}
}
