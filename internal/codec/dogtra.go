package codec

import "strings"

var dogtraCode = codePattern(12)

// dogtraStart precedes every transmission.
const dogtraStart = "11111110000000111111100000000000"

// Dogtra speaks the protocol of Dogtra collars on 27.1MHz.
//
// The intensity mapping is not understood yet, so Validate always fails and
// the codec is only reachable from tests and diagnostics.
type Dogtra struct {
	cfg Config
}

// NewDogtra creates a Dogtra codec.
func NewDogtra(cfg Config) *Dogtra {
	return &Dogtra{cfg: cfg}
}

func (d *Dogtra) Name() string { return "dogtra" }

func (d *Dogtra) Validate() error {
	if err := validateCode(dogtraCode, d.cfg.TransmitterCode, 12); err != nil {
		return err
	}
	if err := validateChannel(d.cfg.Channel, 1, 1); err != nil {
		return err
	}
	return &ConfigError{Code: ErrUnsupported, Reason: "Dogtra is not supported yet"}
}

func (d *Dogtra) Capabilities() Capabilities {
	return Capabilities{Beep: true, Vibrate: true, Shock: true}
}

func (d *Dogtra) Timings() Timings {
	return Timings{DurationMinMs: 250, DurationIncrementMs: 250}
}

func (d *Dogtra) Params() RadioParams {
	return RadioParams{
		FrequencyHz:        27.1e6,
		SampleRate:         2e6,
		CarrierFrequencyHz: 27.1e6,
		Modulation:         ModulationFSK,
		SamplesPerSymbol:   1500,
		LowFrequencyHz:     41e3,
		HighFrequencyHz:    46e3,
		PauseSamples:       262924,
	}
}

// Generate converts power to the Dogtra scale 0-255. BEEP and VIBRATE page
// the receiver, LIGHT is a shock at power 0.
func (d *Dogtra) Generate(action Action, power int) string {
	vibrate := action == ActionBeep || action == ActionVibrate
	if action == ActionLight {
		power = 0
	}
	return GenerateDogtraFrame(d.cfg.TransmitterCode, clampPower(power, 100)*255/100, vibrate)
}

// GenerateDogtraFrame builds the frame for an intensity on the Dogtra scale.
func GenerateDogtraFrame(code string, intensity int, vibrate bool) string {
	command := "100"
	if vibrate {
		command = "001"
	}
	return code + "1" + command + dogtraIntensity(intensity)
}

// dogtraIntensity writes hundreds as ones, tens+1 as zeros and units+1 as
// ones, terminated by 01 and padded to 22 bits.
func dogtraIntensity(intensity int) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("1", intensity/100))
	intensity %= 100
	b.WriteString(strings.Repeat("0", intensity/10+1))
	intensity %= 10
	b.WriteString(strings.Repeat("1", intensity+1))
	b.WriteString("01")
	s := b.String()
	if len(s) < 22 {
		s += strings.Repeat("0", 22-len(s))
	}
	return s
}

// EncodeForTransmission interleaves the first 16 bits with 01 fillers and
// appends the rest unchanged.
func (d *Dogtra) EncodeForTransmission(frame string) string {
	var b strings.Builder
	b.WriteString("11100" + "01")
	head := frame
	if len(head) > 16 {
		head = frame[:16]
	}
	for i := 0; i < len(head); i++ {
		b.WriteByte(head[i])
		b.WriteString("01")
	}
	b.WriteString(frame[len(head):])
	return b.String()
}

// Command always sends two messages; the duration is not mapped yet.
func (d *Dogtra) Command(action Action, power, durationMs int) Transmission {
	var b strings.Builder
	if action == ActionBeepShock {
		b.WriteString(d.EncodeForTransmission(GenerateDogtraFrame(d.cfg.TransmitterCode, 0, true)))
		b.WriteString("/1s")
		action = ActionShock
	}
	if action == ActionKeepAwake {
		return Transmission{Params: d.Params()}
	}
	message := d.EncodeForTransmission(d.Generate(action, power))
	repeated(&b, message, "", repeatCount(500, 0, 250, 0))
	return Transmission{Params: d.Params(), Buffer: dogtraStart + strings.TrimSpace(b.String())}
}
