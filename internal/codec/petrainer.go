package codec

import "strings"

var petrainerCode = codePattern(16)

var petrainerLayout = nibbleLayout{
	channelNormal:  []string{"1000", "1111"},
	channelInverse: []string{"1110", "0000"},
	actionNormal: map[Action]string{
		ActionLight:   "1000",
		ActionBeep:    "0100",
		ActionVibrate: "0010",
		ActionShock:   "0001",
	},
	actionInverse: map[Action]string{
		ActionLight:   "1110",
		ActionBeep:    "1101",
		ActionVibrate: "1011",
		ActionShock:   "0111",
	},
}

var petrainerEncoding = pulseEncoding("1")

// Petrainer speaks the protocol of Petrainer collars and their many rebrands
// on 433.98MHz.
type Petrainer struct {
	cfg Config
}

// NewPetrainer creates a Petrainer codec.
func NewPetrainer(cfg Config) *Petrainer {
	return &Petrainer{cfg: cfg}
}

func (p *Petrainer) Name() string { return "petrainer" }

// Validate checks the 16 bit transmitter code and channel 1-2.
func (p *Petrainer) Validate() error {
	if err := validateCode(petrainerCode, p.cfg.TransmitterCode, 16); err != nil {
		return err
	}
	return validateChannel(p.cfg.Channel, 1, 2)
}

func (p *Petrainer) Capabilities() Capabilities {
	return Capabilities{Light: true, Beep: true, Vibrate: true, Shock: true}
}

func (p *Petrainer) Timings() Timings {
	return Timings{DurationMinMs: 500, DurationIncrementMs: 500, AwakeTimeS: 5 * 60}
}

func (p *Petrainer) Params() RadioParams {
	return RadioParams{
		FrequencyHz:        433.98e6,
		SampleRate:         2e6,
		CarrierFrequencyHz: 0,
		Modulation:         ModulationASK,
		SamplesPerSymbol:   500,
		LowFrequencyHz:     0,
		HighFrequencyHz:    100,
		PauseSamples:       0,
	}
}

func (p *Petrainer) Framing() FramingConstants { return petrainerEncoding.constants() }

func (p *Petrainer) Generate(action Action, power int) string {
	return petrainerLayout.frame(p.cfg.TransmitterCode, p.cfg.Channel, action, clampPower(power, 100))
}

func (p *Petrainer) EncodeForTransmission(frame string) string {
	return petrainerEncoding.encode(frame)
}

// Command sends one message per 42.5ms, at least one.
func (p *Petrainer) Command(action Action, power, durationMs int) Transmission {
	if action == ActionKeepAwake {
		action, power, durationMs = ActionLight, 0, 250
	}

	var b strings.Builder
	if action == ActionBeepShock {
		beep := p.EncodeForTransmission(p.Generate(ActionBeep, 1))
		repeated(&b, beep, "", 3)
		b.WriteString(delaySeconds(beepShockDelaySeconds(p.cfg.BeepShockDelayMs)))
		b.WriteString(" ")
		action = ActionShock
	}

	durationMs = clampDuration(durationMs, 500)
	message := p.EncodeForTransmission(p.Generate(action, power))
	repeated(&b, message, "", repeatCount(durationMs, 500, 42.5, 1))

	return Transmission{Params: p.Params(), Buffer: b.String()}
}
