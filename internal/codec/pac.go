package codec

import (
	"strconv"
	"strings"
)

var pacCode = codePattern(9)

// Bits 8, 22 and 23 of the frame for each button.
var pacButtonCodes = [8]string{
	"000", // E/P left
	"011", // B1 right 1
	"010", // B2 right 2, E/P right
	"110", // B3 right 3
	"100", // B4 left 1
	"001", // B5 left 2
	"101", // B6 left 3
	"111", // unused
}

// Data bit positions covered by each of the five parity bits.
var pacParity = [5][]int{
	{0, 8},
	{1, 9, 21},
	{2, 10, 22},
	{3, 11, 23},
	{4, 12},
}

var pacEncoding = symbolEncoding{
	prefix: "0101010101010101111" + "10",
	zero:   "010",
	one:    "110",
}

// PAC speaks the protocol of PAC ACX collars on 27.1MHz.
type PAC struct {
	cfg Config
}

// NewPAC creates a PAC codec. The channel selects the transmitter button (0-7).
func NewPAC(cfg Config) *PAC {
	return &PAC{cfg: cfg}
}

func (p *PAC) Name() string { return "pac" }

func (p *PAC) Validate() error {
	if err := validateCode(pacCode, p.cfg.TransmitterCode, 9); err != nil {
		return err
	}
	if p.cfg.Channel < 0 || p.cfg.Channel > 7 {
		return invalidChannel("button", p.cfg.Channel, 0, 7)
	}
	return nil
}

func (p *PAC) Capabilities() Capabilities {
	return Capabilities{Beep: true, Shock: true}
}

func (p *PAC) Timings() Timings {
	return Timings{DurationMinMs: 250, DurationIncrementMs: 250}
}

func (p *PAC) Params() RadioParams {
	return RadioParams{
		FrequencyHz:        27.1e6,
		SampleRate:         2e6,
		CarrierFrequencyHz: 27.1e6,
		Modulation:         ModulationFSK,
		SamplesPerSymbol:   3100,
		LowFrequencyHz:     92e3,
		HighFrequencyHz:    95e3,
		PauseSamples:       262924,
	}
}

func (p *PAC) Framing() FramingConstants { return pacEncoding.constants() }

// Generate maps the action onto the two PAC modes: BEEP and VIBRATE beep,
// everything else shocks. LIGHT is a shock at power 0.
func (p *PAC) Generate(action Action, power int) string {
	beep := 0
	if action == ActionBeep || action == ActionVibrate {
		beep = 1
	}
	if action == ActionLight {
		power = 0
	}
	return GeneratePACFrame(p.cfg.TransmitterCode, clampPower(power, 100)*63/100, p.cfg.Channel, beep)
}

// GeneratePACFrame builds the 24 bit frame for a transmitter code, an
// intensity on the PAC scale 0-63, a button 0-7 and beep (1) or shock (0).
func GeneratePACFrame(code string, intensity, button, beep int) string {
	buttonCode := pacButtonCodes[button]
	pre := code[0:2] + pacIntensity(intensity) + buttonCode[0:1] + code[2:]
	post := strconv.Itoa(beep) + buttonCode[1:3]
	return pre + pacChecksum(pre+"CCCCC"+post) + post
}

// pacIntensity writes the intensity as 6 bits, least significant bit first.
func pacIntensity(intensity int) string {
	var b strings.Builder
	for i := 0; i < 6; i++ {
		b.WriteByte(byte('0' + intensity>>i&1))
	}
	return b.String()
}

// pacChecksum computes the parity bits over a frame whose checksum bits
// (positions 16-20) are placeholders.
func pacChecksum(data string) string {
	var b strings.Builder
	for _, positions := range pacParity {
		sum := 0
		for _, pos := range positions {
			sum += int(data[pos] - '0')
		}
		b.WriteByte(byte('0' + sum%2))
	}
	return b.String()
}

func (p *PAC) EncodeForTransmission(frame string) string {
	return pacEncoding.encode(frame)
}

// Command sends one message per 250ms. PAC receivers do not fall asleep, so
// KEEPAWAKE transmits nothing.
func (p *PAC) Command(action Action, power, durationMs int) Transmission {
	if action == ActionKeepAwake {
		return Transmission{Params: p.Params()}
	}

	var b strings.Builder
	if action == ActionBeepShock {
		beep := p.EncodeForTransmission(GeneratePACFrame(p.cfg.TransmitterCode, 0, p.cfg.Channel, 1))
		b.WriteString(beep)
		b.WriteString(delaySeconds(float64(p.cfg.BeepShockDelayMs) / 1000))
		b.WriteString(" ")
		action = ActionShock
	}

	durationMs = clampDuration(durationMs, 250)
	message := p.EncodeForTransmission(p.Generate(action, power))
	repeated(&b, message, " ", repeatCount(durationMs, 250, 250, 1))

	return Transmission{Params: p.Params(), Buffer: b.String()}
}
