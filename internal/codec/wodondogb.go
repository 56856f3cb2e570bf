package codec

import "strings"

var wodondogBCode = codePattern(16)

var wodondogBLayout = nibbleLayout{
	channelNormal:  []string{"0100", "1111", "1000"},
	channelInverse: []string{"1101", "0000", "1110"},
	actionNormal: map[Action]string{
		ActionBeep:    "0100",
		ActionVibrate: "0010",
		ActionShock:   "0001",
	},
	actionInverse: map[Action]string{
		ActionBeep:    "1101",
		ActionVibrate: "1011",
		ActionShock:   "0111",
	},
}

var wodondogBEncoding = pulseEncoding("100010001")

// WodondogB speaks the protocol of Wodondog collars without flashlight.
type WodondogB struct {
	cfg Config
}

// NewWodondogB creates a WodondogB codec.
func NewWodondogB(cfg Config) *WodondogB {
	return &WodondogB{cfg: cfg}
}

func (w *WodondogB) Name() string { return "wodondogb" }

func (w *WodondogB) Validate() error {
	if err := validateCode(wodondogBCode, w.cfg.TransmitterCode, 16); err != nil {
		return err
	}
	return validateChannel(w.cfg.Channel, 1, 3)
}

func (w *WodondogB) Capabilities() Capabilities {
	return Capabilities{Light: true, Beep: true, Vibrate: true, Shock: true}
}

func (w *WodondogB) Timings() Timings {
	return Timings{DurationMinMs: 500, DurationIncrementMs: 500, AwakeTimeS: 5 * 60}
}

func (w *WodondogB) Params() RadioParams {
	return RadioParams{
		FrequencyHz:        433e6,
		SampleRate:         2e6,
		CarrierFrequencyHz: 947e3,
		Modulation:         ModulationASK,
		SamplesPerSymbol:   513,
		LowFrequencyHz:     0,
		HighFrequencyHz:    100,
		PauseSamples:       7082,
	}
}

func (w *WodondogB) Framing() FramingConstants { return wodondogBEncoding.constants() }

func (w *WodondogB) Generate(action Action, power int) string {
	return wodondogBLayout.frame(w.cfg.TransmitterCode, w.cfg.Channel, action, clampPower(power, 100))
}

func (w *WodondogB) EncodeForTransmission(frame string) string {
	return wodondogBEncoding.encode(frame)
}

// Command sends one message per 48ms, at least five. The shock circuit
// reacts late, so shocks get 15 additional messages.
func (w *WodondogB) Command(action Action, power, durationMs int) Transmission {
	if action == ActionKeepAwake {
		action, power, durationMs = ActionVibrate, 0, 250
	}

	var b strings.Builder
	if action == ActionBeepShock {
		beep := w.EncodeForTransmission(w.Generate(ActionBeep, 1))
		repeated(&b, beep, "", 3)
		b.WriteString(delaySeconds(beepShockDelaySeconds(w.cfg.BeepShockDelayMs)))
		b.WriteString(" ")
		action = ActionShock
	}
	if action == ActionLight {
		action, power = ActionVibrate, 0
	}

	durationMs = clampDuration(durationMs, 500)
	repeats := repeatCount(durationMs, 500, 48, 5)
	if action == ActionShock {
		repeats += 15
	}
	message := w.EncodeForTransmission(w.Generate(action, power))
	repeated(&b, message, " ", repeats)

	return Transmission{Params: w.Params(), Buffer: b.String()}
}
