package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDogtraIsNotSupported(t *testing.T) {
	err := NewDogtra(Config{TransmitterCode: "000010011111", Channel: 1}).Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))

	err = NewDogtra(Config{TransmitterCode: "000010011111", Channel: 2}).Validate()
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestDogtraIntensity(t *testing.T) {
	assert.Equal(t, "0101000000000000000000", dogtraIntensity(0))
	assert.Len(t, dogtraIntensity(255), 22)
}

func TestDogtraEncodeForTransmission(t *testing.T) {
	d := NewDogtra(Config{TransmitterCode: "000010011111", Channel: 1})

	assert.Equal(t,
		"11100010010010010011010010011011011011011010011010010011100000011111101000000",
		d.EncodeForTransmission("00001001111101001100000011111101000000"))
}

func TestDogtraCommand(t *testing.T) {
	d := NewDogtra(Config{TransmitterCode: "000010011111", Channel: 1})
	tx := d.Command(ActionShock, 0, 5000)

	message := d.EncodeForTransmission(GenerateDogtraFrame("000010011111", 0, false))
	assert.Equal(t, dogtraStart+strings.Repeat(message, 2), tx.Buffer)
}
