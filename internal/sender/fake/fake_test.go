package fake

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/remoshock/remoshock/internal/codec"
)

func TestSenderRecords(t *testing.T) {
	s := NewSender(zerolog.Nop())
	ctx := context.Background()

	assert.NoError(t, s.Send(ctx, codec.Transmission{Buffer: "1010"}))
	assert.NoError(t, s.Send(ctx, codec.Transmission{Buffer: "  "}))
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, "1010", s.Transmissions()[0].Buffer)

	s.Reset()
	assert.Equal(t, 0, s.Count())
}

func TestSenderErrors(t *testing.T) {
	s := NewSender(zerolog.Nop())
	boom := errors.New("boom")

	s.SetError(boom)
	assert.ErrorIs(t, s.Send(context.Background(), codec.Transmission{Buffer: "1"}), boom)
	assert.Equal(t, 0, s.Count())

	s.SetError(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, codec.Transmission{Buffer: "1"}), context.Canceled)
}
