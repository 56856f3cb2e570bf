package codec_test

import (
	"testing"

	"github.com/remoshock/remoshock/internal/codec"
	"github.com/remoshock/remoshock/internal/codec/codectest"
)

func TestCodecConformance(t *testing.T) {
	tests := []struct {
		name   string
		new    func() codec.Codec
		expect codectest.Expectations
	}{
		{
			name:   "pac",
			new:    func() codec.Codec { return codec.NewPAC(codec.Config{TransmitterCode: "010110110", Channel: 2, BeepShockDelayMs: 1000}) },
			expect: codectest.Expectations{FrameLen: 24},
		},
		{
			name:   "petrainer",
			new:    func() codec.Codec { return codec.NewPetrainer(codec.Config{TransmitterCode: "0101010101010101", Channel: 1, BeepShockDelayMs: 1000}) },
			expect: codectest.Expectations{FrameLen: 40},
		},
		{
			name:   "wodondog",
			new:    func() codec.Codec { return codec.NewWodondog(codec.Config{TransmitterCode: "0101010101010101", Channel: 3, BeepShockDelayMs: 1000}) },
			expect: codectest.Expectations{FrameLen: 40},
		},
		{
			name:   "wodondogb",
			new:    func() codec.Codec { return codec.NewWodondogB(codec.Config{TransmitterCode: "0101010101010101", Channel: 2, BeepShockDelayMs: 1000}) },
			expect: codectest.Expectations{FrameLen: 40},
		},
		{
			name:   "patpett150",
			new:    func() codec.Codec { return codec.NewPatpetT150(codec.Config{TransmitterCode: "0101010101010101", Channel: 2, BeepShockDelayMs: 1000}) },
			expect: codectest.Expectations{FrameLen: 40},
		},
		{
			name:   "pawanti",
			new:    func() codec.Codec { return codec.NewPawanti(codec.Config{TransmitterCode: "011000000000000000001011", Channel: 1, BeepShockDelayMs: 1000}) },
			expect: codectest.Expectations{FrameLen: 41},
		},
		{
			name:   "dogtra",
			new:    func() codec.Codec { return codec.NewDogtra(codec.Config{TransmitterCode: "000010011111", Channel: 1, BeepShockDelayMs: 1000}) },
			expect: codectest.Expectations{FrameLen: 38, Unsupported: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codectest.RunConformance(t, tt.new, tt.expect)
		})
	}
}
