package codec

import "strings"

var patpetT150Code = codePattern(16)

var patpetT150Layout = nibbleLayout{
	channelNormal:  []string{"0000", "1110"},
	channelInverse: []string{"1101", "0001"},
	actionNormal: map[Action]string{
		ActionBeep:    "1001",
		ActionVibrate: "0101",
		ActionShock:   "0011",
	},
	actionInverse: map[Action]string{
		ActionBeep:    "1100",
		ActionVibrate: "0110",
		ActionShock:   "0011",
	},
}

// Pulse width encoding: zeros and ones differ in length.
var patpetT150Encoding = symbolEncoding{
	prefix: "11110000",
	zero:   "10000",
	one:    "100000000",
	suffix: "1",
}

// PatpetT150 speaks the protocol of Patpet T150 collars on 915MHz.
type PatpetT150 struct {
	cfg Config
}

// NewPatpetT150 creates a PatpetT150 codec.
func NewPatpetT150(cfg Config) *PatpetT150 {
	return &PatpetT150{cfg: cfg}
}

func (p *PatpetT150) Name() string { return "patpett150" }

func (p *PatpetT150) Validate() error {
	if err := validateCode(patpetT150Code, p.cfg.TransmitterCode, 16); err != nil {
		return err
	}
	return validateChannel(p.cfg.Channel, 1, 2)
}

func (p *PatpetT150) Capabilities() Capabilities {
	return Capabilities{Light: true, Beep: true, Vibrate: true, Shock: true}
}

// Timings: the receiver falls asleep after one minute.
func (p *PatpetT150) Timings() Timings {
	return Timings{DurationMinMs: 500, DurationIncrementMs: 250, AwakeTimeS: 60}
}

func (p *PatpetT150) Params() RadioParams {
	return RadioParams{
		FrequencyHz:        915e6,
		SampleRate:         2e6,
		CarrierFrequencyHz: 0,
		Modulation:         ModulationASK,
		SamplesPerSymbol:   410,
		LowFrequencyHz:     0,
		HighFrequencyHz:    100,
		PauseSamples:       11531,
	}
}

func (p *PatpetT150) Framing() FramingConstants { return patpetT150Encoding.constants() }

func (p *PatpetT150) Generate(action Action, power int) string {
	return patpetT150Layout.frame(p.cfg.TransmitterCode, p.cfg.Channel, action, clampPower(power, 100))
}

func (p *PatpetT150) EncodeForTransmission(frame string) string {
	return patpetT150Encoding.encode(frame)
}

// Command sends one message per 60ms, at least five.
func (p *PatpetT150) Command(action Action, power, durationMs int) Transmission {
	if action == ActionKeepAwake {
		action, power, durationMs = ActionVibrate, 0, 250
	}
	if action == ActionLight {
		action, power = ActionVibrate, 0
	}

	var b strings.Builder
	if action == ActionBeepShock {
		beep := p.EncodeForTransmission(p.Generate(ActionBeep, 1))
		b.WriteString(strings.Repeat(beep+" ", 4))
		b.WriteString(beep)
		b.WriteString(delaySeconds(beepShockDelaySeconds(p.cfg.BeepShockDelayMs)))
		b.WriteString(" ")
		action = ActionShock
	}

	durationMs = clampDuration(durationMs, 500)
	message := p.EncodeForTransmission(p.Generate(action, power))
	repeated(&b, message, " ", repeatCount(durationMs, 500, 60, 5))

	return Transmission{Params: p.Params(), Buffer: b.String()}
}
