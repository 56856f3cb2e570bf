package receiver

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/remoshock/remoshock/internal/codec"
	"github.com/remoshock/remoshock/internal/relay"
	"github.com/remoshock/remoshock/internal/sender"
)

// Radio is a receiver reached through the SDR sender.
type Radio struct {
	props  Properties
	codec  codec.Codec
	sender sender.Sender
	logger zerolog.Logger
}

// NewRadio wraps a codec.
func NewRadio(props Properties, c codec.Codec, logger zerolog.Logger) *Radio {
	return &Radio{
		props:  props,
		codec:  c,
		logger: logger.With().Str("receiver", props.Name).Str("type", c.Name()).Logger(),
	}
}

func (r *Radio) Validate() error {
	if err := r.codec.Validate(); err != nil {
		return fmt.Errorf("receiver %q: %w", r.props.Name, err)
	}
	return nil
}

func (r *Radio) Capabilities() codec.Capabilities { return r.codec.Capabilities() }

func (r *Radio) Timings() codec.Timings { return r.codec.Timings() }

func (r *Radio) Properties() Properties { return r.props }

func (r *Radio) RequiresRadio() bool { return true }

func (r *Radio) RequiresRelay() bool { return false }

// Codec exposes the protocol for diagnostics.
func (r *Radio) Codec() codec.Codec { return r.codec }

func (r *Radio) Boot(_ context.Context, radio sender.Sender, _ relay.Relay) error {
	if radio == nil {
		return fmt.Errorf("receiver %q requires a radio sender: %w", r.props.Name, ErrNotBooted)
	}
	r.sender = radio
	return nil
}

// Command assembles the transmission and hands it to the sender. Commands
// the protocol does not transmit, like KEEPAWAKE on PAC, send nothing.
func (r *Radio) Command(ctx context.Context, action codec.Action, power, durationMs int) error {
	tx := r.codec.Command(action, power, durationMs)
	if tx.Empty() {
		r.logger.Debug().Stringer("action", action).Msg("Nothing to transmit")
		return nil
	}
	if r.sender == nil {
		return fmt.Errorf("receiver %q: %w", r.props.Name, ErrNotBooted)
	}
	return r.sender.Send(ctx, tx)
}

func (r *Radio) Config() Summary {
	return summarize(r.props, r.codec.Timings(), r.codec.Capabilities())
}
