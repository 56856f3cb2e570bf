package codec

import (
	"fmt"
	"strings"
)

var pawantiCode = codePattern(24)

var pawantiActions = map[Action]string{
	ActionBeep:    "011",
	ActionVibrate: "010",
	ActionShock:   "001",
}

// The checksum algorithm is unknown. These are the values observed from real
// transmitters, keyed by action code followed by intensity code. The channel
// does not affect the checksum. An empty value has not been observed yet.
var pawantiChecksums = map[string]map[string]string{
	"011001010000000000001011": {
		"0110000": "1010",
		"0100001": "1000", "0100010": "1011", "0100011": "1010", "0100100": "1101", "0100101": "1100",
		"0100110": "1111", "0100111": "1110", "0101000": "0001", "0101001": "0000",
		"0010001": "1001", "0010010": "1010", "0010011": "1011", "0010100": "1100", "0010101": "1101",
		"0010110": "1110", "0010111": "1111", "0011000": "0000", "0011001": "0001",
		"1000101": "1100", "1001010": "0001",
	},
	"011000000000000000001011": {
		"0110000": "0010",
		"0100001": "0100", "0100010": "0101", "0100011": "0110", "0100100": "0111", "0100101": "0001",
		"0100110": "1000", "0100111": "1011", "0101000": "1010", "0101001": "1101",
		"0010001": "1011", "0010010": "1010", "0010011": "1001", "0010100": "1000", "0010101": "1000",
		"0010110": "1001", "0010111": "1010", "0011000": "1011", "0011001": "1100",
		"1000101": "1011", "1001010": "1110",
	},
	"011100000000000000001011": {
		"0110000": "0001",
		"0100001": "0101", "0100010": "0100", "0100011": "0111", "0100100": "0110", "0100101": "1010",
		"0100110": "1011", "0100111": "1000", "0101000": "1001", "0101001": "1110",
		"0010001": "0110", "0010010": "1000", "0010011": "0010", "0010100": "0011", "0010101": "",
		"0010110": "", "0010111": "", "0011000": "", "0011001": "",
		"1000101": "", "1001010": "",
	},
}

// pawantiPreamble wakes the receiver up before every command.
var pawantiPreamble = strings.Repeat("01", 298)

var pawantiEncoding = symbolEncoding{
	prefix: strings.Repeat("0", 35),
	zero:   "001100",
	one:    "001111",
}

// Pawanti speaks the protocol of Pawanti collars on 433MHz.
//
// Only transmitter codes with a complete checksum table are accepted.
type Pawanti struct {
	cfg Config
}

// NewPawanti creates a Pawanti codec.
func NewPawanti(cfg Config) *Pawanti {
	return &Pawanti{cfg: cfg}
}

func (p *Pawanti) Name() string { return "pawanti" }

func (p *Pawanti) Validate() error {
	if err := validateCode(pawantiCode, p.cfg.TransmitterCode, 24); err != nil {
		return err
	}
	if missing := pawantiMissingChecksums(p.cfg.TransmitterCode); missing != "" {
		return &ConfigError{
			Code:   ErrUnsupported,
			Field:  "transmitter_code",
			Value:  p.cfg.TransmitterCode,
			Reason: missing,
		}
	}
	return validateChannel(p.cfg.Channel, 1, 3)
}

// pawantiMissingChecksums explains why a code cannot be used, or returns "".
func pawantiMissingChecksums(code string) string {
	table, ok := pawantiChecksums[code]
	if !ok {
		return "the checksum is only known for specific transmitter codes"
	}
	var missing []string
	for key, checksum := range table {
		if checksum == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Sprintf("the checksum table is incomplete (%d unknown entries)", len(missing))
	}
	return ""
}

func (p *Pawanti) Capabilities() Capabilities {
	return Capabilities{Light: true, Beep: true, Vibrate: true, Shock: true}
}

func (p *Pawanti) Timings() Timings {
	return Timings{DurationMinMs: 500, DurationIncrementMs: 500}
}

func (p *Pawanti) Params() RadioParams {
	return RadioParams{
		FrequencyHz:        433e6,
		SampleRate:         2e6,
		CarrierFrequencyHz: 433e6,
		Modulation:         ModulationFSK,
		SamplesPerSymbol:   500,
		LowFrequencyHz:     859000,
		HighFrequencyHz:    928000,
		PauseSamples:       357599,
	}
}

func (p *Pawanti) Framing() FramingConstants { return pawantiEncoding.constants() }

// Generate builds the 41 bit frame:
//
//	00 channel(2) checksum(4) 0 action(3) intensity(4) transmitter code(24) 1
//
// Intensity runs from 1 to 9; beeps always use 0.
func (p *Pawanti) Generate(action Action, power int) string {
	actionCode, ok := pawantiActions[action]
	if !ok {
		action = ActionVibrate
		actionCode = pawantiActions[action]
	}
	intensity := int(float64(clampPower(power, 100))/100*9) + 1
	if intensity > 9 {
		intensity = 9
	}
	intensityCode := bits(intensity, 4)
	if action == ActionBeep {
		intensityCode = "0000"
	}
	return "00" + bits(p.cfg.Channel, 2) + p.checksum(actionCode, intensityCode) + "0" +
		actionCode + intensityCode + p.cfg.TransmitterCode + "1"
}

func (p *Pawanti) checksum(actionCode, intensityCode string) string {
	if checksum := pawantiChecksums[p.cfg.TransmitterCode][actionCode+intensityCode]; checksum != "" {
		return checksum
	}
	return "0000"
}

func (p *Pawanti) EncodeForTransmission(frame string) string {
	return pawantiEncoding.encode(frame)
}

// Command sends the wake-up preamble followed by one message per 48ms,
// at least five.
func (p *Pawanti) Command(action Action, power, durationMs int) Transmission {
	if action == ActionKeepAwake {
		action, power, durationMs = ActionVibrate, 0, 250
	}

	var b strings.Builder
	b.WriteString(pawantiPreamble)
	if action == ActionBeepShock {
		beep := p.EncodeForTransmission(p.Generate(ActionBeep, 1))
		repeated(&b, beep, "", 3)
		b.WriteString(delayMillis(p.cfg.BeepShockDelayMs + 100))
		b.WriteString(" ")
		action = ActionShock
	}
	if action == ActionLight {
		action, power = ActionVibrate, 0
	}

	durationMs = clampDuration(durationMs, 500)
	message := p.EncodeForTransmission(p.Generate(action, power))
	repeated(&b, message, "", repeatCount(durationMs, 500, 48, 5))

	return Transmission{Params: p.Params(), Buffer: b.String()}
}
