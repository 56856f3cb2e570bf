package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/remoshock/remoshock/internal/codec"
	"github.com/remoshock/remoshock/internal/relay"
)

var _ relay.Relay = (*mockRelay)(nil)

// mockRelay acknowledges everything without a microcontroller.
type mockRelay struct {
	mu     sync.Mutex
	count  int
	logger zerolog.Logger
}

func (m *mockRelay) RegisterReceiver(_ context.Context, typ relay.ReceiverType, arg1, arg2, arg3 byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	index := m.count
	m.count++
	m.logger.Debug().Int("index", index).Uint8("type", uint8(typ)).Msg("Mock relay receiver registered")
	return index, nil
}

func (m *mockRelay) Command(_ context.Context, action codec.Action, index, power, durationMs int) error {
	m.logger.Debug().
		Int("index", index).
		Str("action", action.String()).
		Int("power", power).
		Int("durationMs", durationMs).
		Msg("Mock relay command")
	return nil
}
