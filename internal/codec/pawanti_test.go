package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPawantiValidate(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{"known code", "011001010000000000001011", nil},
		{"second known code", "011000000000000000001011", nil},
		{"incomplete table", "011100000000000000001011", ErrUnsupported},
		{"unknown code", "111111111111111111111111", ErrUnsupported},
		{"malformed code", "0110", ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewPawanti(Config{TransmitterCode: tt.code, Channel: 1}).Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestPawantiGenerate(t *testing.T) {
	p := NewPawanti(Config{TransmitterCode: "011001010000000000001011", Channel: 2})

	assert.Equal(t, "00101101000101010110010100000000000010111", p.Generate(ActionShock, 50))
	assert.Equal(t, "00101000001000010110010100000000000010111", p.Generate(ActionVibrate, 0))

	beep := p.Generate(ActionBeep, 100)
	assert.Equal(t, "0000", beep[12:16])
	assert.Equal(t, "1010", beep[4:8])
}

func TestPawantiIntensityScale(t *testing.T) {
	p := NewPawanti(Config{TransmitterCode: "011001010000000000001011", Channel: 1})

	assert.Equal(t, "0001", p.Generate(ActionShock, 0)[12:16])
	assert.Equal(t, "1001", p.Generate(ActionShock, 100)[12:16])
	assert.Equal(t, "1001", p.Generate(ActionShock, 89)[12:16])
}

func TestPawantiCommandStartsWithWakeUp(t *testing.T) {
	p := NewPawanti(Config{TransmitterCode: "011001010000000000001011", Channel: 1, BeepShockDelayMs: 400})
	tx := p.Command(ActionBeepShock, 10, 500)

	require.True(t, strings.HasPrefix(tx.Buffer, strings.Repeat("01", 298)))
	assert.Contains(t, tx.Buffer, "/500ms ")
}
