package sender

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remoshock/remoshock/internal/codec"
)

func TestArgs(t *testing.T) {
	tx := codec.Transmission{
		Params: codec.NewPetrainer(codec.Config{}).Params(),
		Buffer: "1110 1000",
	}

	assert.Equal(t, []string{
		"--transmit",
		"--device", "HackRF",
		"--frequency", "433980000",
		"--sample-rate", "2000000",
		"--carrier-frequency", "0",
		"--modulation-type", "ASK",
		"--samples-per-symbol", "500",
		"--parameters", "0", "100",
		"--pause", "0",
		"--if-gain", "47",
		"--messages", "1110 1000",
	}, Args("HackRF", tx))
}

func TestNewURHCLI(t *testing.T) {
	_, err := NewURHCLI("", zerolog.Nop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoDevice))

	u, err := NewURHCLI("hackrfcli", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "HackRF", u.Device())

	u, err = NewURHCLI("LimeSDR", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "LimeSDR", u.Device())
}

func TestURHCLISkipsEmptyTransmission(t *testing.T) {
	u, err := NewURHCLI("LimeSDR", zerolog.Nop())
	require.NoError(t, err)
	u.binary = "/nonexistent/urh_cli"

	assert.NoError(t, u.Send(context.Background(), codec.Transmission{}))
	assert.Error(t, u.Send(context.Background(), codec.Transmission{Buffer: "1"}))
}
