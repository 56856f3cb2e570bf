package codec

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// digest identifies a transmit buffer recorded from a known good transmitter.
func digest(buffer string) string {
	sum := sha256.Sum256([]byte(buffer))
	return hex.EncodeToString(sum[:])[:16]
}

func TestRepeatCountRoundsHalfToEven(t *testing.T) {
	tests := []struct {
		name       string
		durationMs int
		floorMs    int
		messageMs  float64
		minRepeats int
		want       int
	}{
		{"floor", 500, 500, 45.75, 3, 3},
		{"one second", 1000, 500, 45.75, 3, 14},
		{"half rounds up to even", 375, 250, 250, 1, 2},
		{"half rounds down to even", 625, 250, 250, 1, 2},
		{"pac 260", 260, 250, 250, 1, 1},
		{"max", 10000, 500, 60, 5, 163},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repeatCount(tt.durationMs, tt.floorMs, tt.messageMs, tt.minRepeats))
		})
	}
}

func TestDelayDirectives(t *testing.T) {
	assert.Equal(t, "/1.1s", delaySeconds(beepShockDelaySeconds(1000)))
	assert.Equal(t, "/1.0s", delaySeconds(1))
	assert.Equal(t, "/0.6s", delaySeconds(beepShockDelaySeconds(500)))
	assert.Equal(t, "/1100ms", delayMillis(1100))
}

func TestBits(t *testing.T) {
	assert.Equal(t, "00000000", bits(0, 8))
	assert.Equal(t, "01100011", bits(99, 8))
	assert.Equal(t, "10", bits(2, 2))
	assert.Equal(t, "101", bits(5, 2))
}

func TestParseAction(t *testing.T) {
	action, err := ParseAction("beepshock")
	require.NoError(t, err)
	assert.Equal(t, ActionBeepShock, action)
	assert.Equal(t, "BEEPSHOCK", action.String())

	_, err = ParseAction("zap")
	assert.Error(t, err)

	assert.False(t, ActionKeepAwake.Transmittable())
	assert.True(t, ActionLight.Transmittable())
	assert.True(t, ActionBeepShock.InvolvesShock())
	assert.False(t, ActionVibrate.InvolvesShock())
}

func TestValidateTransmitterCode(t *testing.T) {
	tests := []struct {
		name  string
		codec Codec
	}{
		{"pac too short", NewPAC(Config{TransmitterCode: "01011011", Channel: 0})},
		{"pac bad charset", NewPAC(Config{TransmitterCode: "01011011x", Channel: 0})},
		{"petrainer too long", NewPetrainer(Config{TransmitterCode: "01010101010101010", Channel: 1})},
		{"wodondog empty", NewWodondog(Config{Channel: 1})},
		{"wodondogb spaces", NewWodondogB(Config{TransmitterCode: " 0101010101010101", Channel: 1})},
		{"patpet newline", NewPatpetT150(Config{TransmitterCode: "0101010101010101\n", Channel: 1})},
		{"pawanti short", NewPawanti(Config{TransmitterCode: "0110", Channel: 1})},
		{"dogtra short", NewDogtra(Config{TransmitterCode: "0", Channel: 1})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.codec.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), "transmitter_code")
		})
	}
}

func TestValidateChannel(t *testing.T) {
	tests := []struct {
		name    string
		codec   Codec
		wantErr bool
	}{
		{"pac button 0", NewPAC(Config{TransmitterCode: "010110110", Channel: 0}), false},
		{"pac button 7", NewPAC(Config{TransmitterCode: "010110110", Channel: 7}), false},
		{"pac button 8", NewPAC(Config{TransmitterCode: "010110110", Channel: 8}), true},
		{"pac button -1", NewPAC(Config{TransmitterCode: "010110110", Channel: -1}), true},
		{"petrainer 2", NewPetrainer(Config{TransmitterCode: "0101010101010101", Channel: 2}), false},
		{"petrainer 3", NewPetrainer(Config{TransmitterCode: "0101010101010101", Channel: 3}), true},
		{"wodondog 3", NewWodondog(Config{TransmitterCode: "0101010101010101", Channel: 3}), false},
		{"wodondog 0", NewWodondog(Config{TransmitterCode: "0101010101010101", Channel: 0}), true},
		{"wodondogb 4", NewWodondogB(Config{TransmitterCode: "0101010101010101", Channel: 4}), true},
		{"patpet 3", NewPatpetT150(Config{TransmitterCode: "0101010101010101", Channel: 3}), true},
		{"pawanti 4", NewPawanti(Config{TransmitterCode: "011001010000000000001011", Channel: 4}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.codec.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfig))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEmptyTransmission(t *testing.T) {
	assert.True(t, Transmission{}.Empty())
	assert.True(t, Transmission{Buffer: "  "}.Empty())
	assert.False(t, Transmission{Buffer: "01"}.Empty())
}

func TestSymbolEncodingLength(t *testing.T) {
	frame := strings.Repeat("10", 20)
	for _, enc := range []symbolEncoding{pacEncoding, petrainerEncoding, wodondogEncoding, wodondogBEncoding, patpetT150Encoding, pawantiEncoding} {
		assert.Equal(t, enc.constants().EncodedLen(frame), len(enc.encode(frame)))
	}
}
