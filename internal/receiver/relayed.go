package receiver

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/remoshock/remoshock/internal/codec"
	"github.com/remoshock/remoshock/internal/relay"
	"github.com/remoshock/remoshock/internal/sender"
)

// Relayed is a receiver keyed by the serial relay firmware.
type Relayed struct {
	props  Properties
	typ    relay.ReceiverType
	relay  relay.Relay
	index  int
	logger zerolog.Logger
}

// NewRelayed creates a relay receiver of the given firmware type.
func NewRelayed(props Properties, typ relay.ReceiverType, logger zerolog.Logger) *Relayed {
	return &Relayed{
		props:  props,
		typ:    typ,
		logger: logger.With().Str("receiver", props.Name).Str("type", props.Type).Logger(),
	}
}

// Args returns the three firmware arguments. Relay driven Petrainer
// receivers take them from the transmitter code and channel.
func (r *Relayed) Args() ([3]byte, error) {
	var args [3]byte
	if r.typ == relay.TypePetrainer && len(r.props.RelayArgs) == 0 {
		if len(r.props.TransmitterCode) != 16 {
			return args, &codec.ConfigError{
				Code:   codec.ErrInvalidConfig,
				Field:  "transmitter_code",
				Value:  r.props.TransmitterCode,
				Reason: "expected 16 bits",
			}
		}
		hi, err1 := strconv.ParseUint(r.props.TransmitterCode[:8], 2, 8)
		lo, err2 := strconv.ParseUint(r.props.TransmitterCode[8:], 2, 8)
		if err1 != nil || err2 != nil {
			return args, &codec.ConfigError{
				Code:   codec.ErrInvalidConfig,
				Field:  "transmitter_code",
				Value:  r.props.TransmitterCode,
				Reason: "expected a bit string",
			}
		}
		if r.props.Channel < 1 || r.props.Channel > 2 {
			return args, &codec.ConfigError{
				Code:   codec.ErrInvalidConfig,
				Field:  "channel",
				Value:  r.props.Channel,
				Reason: "must be between 1 and 2",
			}
		}
		return [3]byte{byte(hi), byte(lo), byte(r.props.Channel)}, nil
	}

	if len(r.props.RelayArgs) != 3 {
		return args, &codec.ConfigError{
			Code:   codec.ErrInvalidConfig,
			Field:  "relay_args",
			Value:  r.props.RelayArgs,
			Reason: "expected three values",
		}
	}
	for i, v := range r.props.RelayArgs {
		if v < 0 || v > 255 {
			return args, &codec.ConfigError{
				Code:   codec.ErrInvalidConfig,
				Field:  "relay_args",
				Value:  v,
				Reason: "must be between 0 and 255",
			}
		}
		args[i] = byte(v)
	}
	return args, nil
}

func (r *Relayed) Validate() error {
	if _, err := r.Args(); err != nil {
		return fmt.Errorf("receiver %q: %w", r.props.Name, err)
	}
	return nil
}

func (r *Relayed) Capabilities() codec.Capabilities {
	return codec.Capabilities{Light: true, Beep: true, Vibrate: true, Shock: true}
}

func (r *Relayed) Timings() codec.Timings {
	return codec.Timings{DurationMinMs: 500, DurationIncrementMs: 500}
}

func (r *Relayed) Properties() Properties { return r.props }

func (r *Relayed) RequiresRadio() bool { return false }

func (r *Relayed) RequiresRelay() bool { return true }

// Boot registers the receiver with the firmware.
func (r *Relayed) Boot(ctx context.Context, _ sender.Sender, rl relay.Relay) error {
	if rl == nil {
		return fmt.Errorf("receiver %q requires the serial relay: %w", r.props.Name, ErrNotBooted)
	}
	args, err := r.Args()
	if err != nil {
		return err
	}
	index, err := rl.RegisterReceiver(ctx, r.typ, args[0], args[1], args[2])
	if err != nil {
		return fmt.Errorf("receiver %q: %w", r.props.Name, err)
	}
	r.relay = rl
	r.index = index
	return nil
}

// Command forwards the action. BEEPSHOCK is a beep, the configured pause and
// a shock. The firmware keeps its receivers awake itself.
func (r *Relayed) Command(ctx context.Context, action codec.Action, power, durationMs int) error {
	if action == codec.ActionKeepAwake {
		return nil
	}
	if r.relay == nil {
		return fmt.Errorf("receiver %q: %w", r.props.Name, ErrNotBooted)
	}

	if action == codec.ActionBeepShock {
		if err := r.relay.Command(ctx, codec.ActionBeep, r.index, 0, 0); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(r.props.BeepShockDelayMs) * time.Millisecond):
		}
		action = codec.ActionShock
	}
	return r.relay.Command(ctx, action, r.index, power, durationMs)
}

func (r *Relayed) Config() Summary {
	return summarize(r.props, r.Timings(), r.Capabilities())
}
