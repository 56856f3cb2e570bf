package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pacFrame = "010100100011011000000110"

func TestGeneratePACFrame(t *testing.T) {
	assert.Equal(t, pacFrame, GeneratePACFrame("010110110", 18, 2, 1))
}

func TestPACEncodeForTransmission(t *testing.T) {
	p := NewPAC(Config{TransmitterCode: "010110110", Channel: 2})
	encoded := p.EncodeForTransmission(pacFrame)

	assert.Equal(t, "010101010101010111110010110010110010010110010010010110110010110110010010010010010010110110010", encoded)
	assert.Len(t, encoded, 19+2+3*len(pacFrame))
}

func TestPACIntensityIsLeastSignificantBitFirst(t *testing.T) {
	assert.Equal(t, "100000", pacIntensity(1))
	assert.Equal(t, "000001", pacIntensity(32))
	assert.Equal(t, "111111", pacIntensity(63))
}

func TestPACChecksumSensitivity(t *testing.T) {
	covered := map[int]bool{}
	for _, positions := range pacParity {
		for _, pos := range positions {
			covered[pos] = true
		}
	}

	frame := []byte(pacFrame)
	base := pacChecksum(string(frame[:16]) + "CCCCC" + string(frame[21:]))
	for pos := range covered {
		flipped := append([]byte(nil), frame...)
		flipped[pos] ^= 1
		got := pacChecksum(string(flipped[:16]) + "CCCCC" + string(flipped[21:]))
		assert.NotEqual(t, base, got, "flipping bit %d must change the checksum", pos)
	}
}

func TestPACGenerateMapsActions(t *testing.T) {
	p := NewPAC(Config{TransmitterCode: "010110110", Channel: 2})

	beep := p.Generate(ActionBeep, 50)
	vibrate := p.Generate(ActionVibrate, 50)
	shock := p.Generate(ActionShock, 50)
	light := p.Generate(ActionLight, 50)

	assert.Equal(t, beep, vibrate)
	assert.Equal(t, byte('1'), beep[21])
	assert.Equal(t, byte('0'), shock[21])
	assert.Equal(t, GeneratePACFrame("010110110", 0, 2, 0), light)
	assert.Equal(t, GeneratePACFrame("010110110", 63, 2, 0), p.Generate(ActionShock, 100))
}

func TestPACCommand(t *testing.T) {
	p := NewPAC(Config{TransmitterCode: "010110110", Channel: 2, BeepShockDelayMs: 1000})

	t.Run("keep awake transmits nothing", func(t *testing.T) {
		tx := p.Command(ActionKeepAwake, 0, 250)
		assert.True(t, tx.Empty())
	})

	t.Run("one message per 250ms", func(t *testing.T) {
		tx := p.Command(ActionShock, 10, 260)
		assert.Len(t, strings.Fields(tx.Buffer), 1)
		tx = p.Command(ActionShock, 10, 1000)
		assert.Len(t, strings.Fields(tx.Buffer), 4)
	})

	t.Run("beep shock starts with a beep and a delay", func(t *testing.T) {
		tx := p.Command(ActionBeepShock, 10, 250)
		beep := p.EncodeForTransmission(GeneratePACFrame("010110110", 0, 2, 1))
		require.True(t, strings.HasPrefix(tx.Buffer, beep+"/1.0s "))
		shock := p.EncodeForTransmission(GeneratePACFrame("010110110", 6, 2, 0))
		assert.True(t, strings.HasSuffix(tx.Buffer, shock+" "))
	})
}
