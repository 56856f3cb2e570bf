// Package fake provides a sender that records transmissions instead of
// sending them. It backs mock mode and tests.
package fake

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/remoshock/remoshock/internal/codec"
)

// Sender records every transmission it is asked to send.
type Sender struct {
	mu            sync.Mutex
	transmissions []codec.Transmission
	logger        zerolog.Logger

	// Error simulation
	err error
}

// NewSender creates a recording sender.
func NewSender(logger zerolog.Logger) *Sender {
	return &Sender{logger: logger.With().Str("component", "fakesender").Logger()}
}

// Send records tx. Empty transmissions are ignored like a real sender would.
func (s *Sender) Send(ctx context.Context, tx codec.Transmission) error {
	// Check for context cancellation
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	if tx.Empty() {
		return nil
	}
	s.transmissions = append(s.transmissions, tx)
	s.logger.Info().
		Float64("frequencyHz", tx.Params.FrequencyHz).
		Int("bufferLen", len(tx.Buffer)).
		Msg("Mock transmission, nothing sent")
	return nil
}

// Transmissions returns a copy of everything sent so far.
func (s *Sender) Transmissions() []codec.Transmission {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]codec.Transmission, len(s.transmissions))
	copy(out, s.transmissions)
	return out
}

// Count returns the number of recorded transmissions.
func (s *Sender) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transmissions)
}

// SetError makes every following Send fail with err. nil restores success.
func (s *Sender) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Reset forgets all recorded transmissions.
func (s *Sender) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transmissions = nil
}
