// Package sender transmits codec buffers through a software defined radio.
package sender

import (
	"context"
	"errors"

	"github.com/remoshock/remoshock/internal/codec"
)

// ErrNoDevice is returned when no SDR device is configured.
var ErrNoDevice = errors.New("NO_DEVICE")

// Sender transmits one buffer. Implementations serialize their own hardware
// access; callers may still hold a higher level transmission lock.
type Sender interface {
	Send(ctx context.Context, tx codec.Transmission) error
}
