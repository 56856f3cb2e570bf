package receiver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remoshock/remoshock/internal/codec"
	"github.com/remoshock/remoshock/internal/relay"
	"github.com/remoshock/remoshock/internal/sender/fake"
)

func pacProperties() Properties {
	return Properties{
		Type:             "pac",
		Name:             "PAC1",
		Color:            "#FFD",
		TransmitterCode:  "010110110",
		Channel:          2,
		BeepShockDelayMs: 1000,
	}
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(Properties{Type: "nameless"}, zerolog.Nop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownType))
	assert.Contains(t, err.Error(), "wodondog")
}

func TestNewIsCaseInsensitive(t *testing.T) {
	props := pacProperties()
	props.Type = "PAC"

	r, err := New(props, zerolog.Nop())
	require.NoError(t, err)
	assert.NoError(t, r.Validate())
	assert.True(t, r.RequiresRadio())
	assert.False(t, r.RequiresRelay())
}

func TestTypes(t *testing.T) {
	types := Types()
	assert.Len(t, types, 10)
	assert.Contains(t, types, "patpett150")
	assert.Contains(t, types, "arduino_optocoupler")
}

func TestRadioValidate(t *testing.T) {
	props := pacProperties()
	props.TransmitterCode = "0101"

	r, err := New(props, zerolog.Nop())
	require.NoError(t, err)
	err = r.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, codec.ErrInvalidConfig))
	assert.Contains(t, err.Error(), "PAC1")
}

func TestRadioCommand(t *testing.T) {
	ctx := context.Background()
	r, err := New(pacProperties(), zerolog.Nop())
	require.NoError(t, err)

	err = r.Command(ctx, codec.ActionShock, 10, 250)
	assert.True(t, errors.Is(err, ErrNotBooted))

	assert.Error(t, r.Boot(ctx, nil, nil))

	s := fake.NewSender(zerolog.Nop())
	require.NoError(t, r.Boot(ctx, s, nil))
	require.NoError(t, r.Command(ctx, codec.ActionShock, 10, 250))
	require.NoError(t, r.Command(ctx, codec.ActionKeepAwake, 0, 0))

	sent := s.Transmissions()
	require.Len(t, sent, 1)
	pac := r.(*Radio).Codec()
	assert.Equal(t, pac.Command(codec.ActionShock, 10, 250), sent[0])
}

func TestRadioConfig(t *testing.T) {
	r, err := New(pacProperties(), zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, Summary{
		Name:              "PAC1",
		Color:             "#FFD",
		Power:             10,
		Duration:          500,
		DurationIncrement: 250,
		Capabilities:      codec.Capabilities{Beep: true, Shock: true},
	}, r.Config())
}

type relayCall struct {
	action codec.Action
	index  int
	power  int
	ms     int
	at     time.Time
}

type fakeRelay struct {
	mu         sync.Mutex
	registered [][4]byte
	calls      []relayCall
}

func (f *fakeRelay) RegisterReceiver(_ context.Context, typ relay.ReceiverType, a1, a2, a3 byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, [4]byte{byte(typ), a1, a2, a3})
	return len(f.registered) - 1, nil
}

func (f *fakeRelay) Command(_ context.Context, action codec.Action, index, power, durationMs int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, relayCall{action, index, power, durationMs, time.Now()})
	return nil
}

func TestRelayedPetrainerArgs(t *testing.T) {
	r, err := New(Properties{Type: "arduino_petrainer", Name: "A", TransmitterCode: "0101010111110000", Channel: 2}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, r.Validate())

	args, err := r.(*Relayed).Args()
	require.NoError(t, err)
	assert.Equal(t, [3]byte{0x55, 0xF0, 2}, args)
}

func TestRelayedValidate(t *testing.T) {
	tests := []struct {
		name  string
		props Properties
	}{
		{"short code", Properties{Type: "arduino_petrainer", TransmitterCode: "0101", Channel: 1}},
		{"bad channel", Properties{Type: "arduino_petrainer", TransmitterCode: "0101010111110000", Channel: 3}},
		{"missing pins", Properties{Type: "arduino_optocoupler"}},
		{"pin out of range", Properties{Type: "arduino_optocoupler", RelayArgs: []int{1, 2, 300}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.props, zerolog.Nop())
			require.NoError(t, err)
			assert.True(t, errors.Is(r.Validate(), codec.ErrInvalidConfig))
		})
	}
}

func TestRelayedCommand(t *testing.T) {
	ctx := context.Background()
	props := Properties{Type: "arduino_optocoupler", Name: "Opto", RelayArgs: []int{3, 4, 5}, BeepShockDelayMs: 20}
	r, err := New(props, zerolog.Nop())
	require.NoError(t, err)

	rl := &fakeRelay{}
	assert.True(t, errors.Is(r.Command(ctx, codec.ActionBeep, 0, 0), ErrNotBooted))
	require.NoError(t, r.Boot(ctx, nil, rl))
	assert.Equal(t, [][4]byte{{1, 3, 4, 5}}, rl.registered)

	require.NoError(t, r.Command(ctx, codec.ActionKeepAwake, 0, 0))
	assert.Empty(t, rl.calls)

	require.NoError(t, r.Command(ctx, codec.ActionBeepShock, 30, 500))
	require.Len(t, rl.calls, 2)
	assert.Equal(t, codec.ActionBeep, rl.calls[0].action)
	assert.Equal(t, codec.ActionShock, rl.calls[1].action)
	assert.Equal(t, 30, rl.calls[1].power)
	assert.Equal(t, 500, rl.calls[1].ms)
	assert.GreaterOrEqual(t, rl.calls[1].at.Sub(rl.calls[0].at), 20*time.Millisecond)
}

func TestRelayedBeepShockHonorsContext(t *testing.T) {
	props := Properties{Type: "arduino_optocoupler", RelayArgs: []int{3, 4, 5}, BeepShockDelayMs: 60000}
	r, err := New(props, zerolog.Nop())
	require.NoError(t, err)
	rl := &fakeRelay{}
	require.NoError(t, r.Boot(context.Background(), nil, rl))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err = r.Command(ctx, codec.ActionBeepShock, 30, 500)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, rl.calls, 1)
}
