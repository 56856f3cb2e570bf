// Package command defines ports (interfaces) for dispatcher operations.
package command

import (
	"context"
	"errors"

	"github.com/remoshock/remoshock/internal/codec"
)

// DispatcherPort defines the minimal interface front ends need from the dispatcher.
type DispatcherPort interface {
	Dispatch(ctx context.Context, index int, action codec.Action, power, durationMs int) error
	Command(ctx context.Context, index int, action codec.Action, power, durationMs int)
	GetConfig() Config
	ReceiverCount() int
}

// ErrNoReceivers indicates that no configured receiver passed validation.
var ErrNoReceivers = errors.New("NO_RECEIVERS")

// ErrInvalidReceiver indicates a receiver index outside the configured range.
var ErrInvalidReceiver = errors.New("INVALID_RECEIVER")

// ErrInvalidRange indicates a power or duration outside the accepted range.
var ErrInvalidRange = errors.New("INVALID_RANGE")

// ErrBackendMissing indicates that a receiver requires a transport nobody provided.
var ErrBackendMissing = errors.New("BACKEND_MISSING")
