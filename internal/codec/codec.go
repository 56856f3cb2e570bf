package codec

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// MaxDurationMs is the longest command any protocol transmits.
const MaxDurationMs = 10000

// Modulation of the radio carrier.
type Modulation string

const (
	ModulationASK Modulation = "ASK"
	ModulationFSK Modulation = "FSK"
)

// RadioParams are the sender settings a protocol is transmitted with.
type RadioParams struct {
	FrequencyHz        float64    `json:"frequencyHz"`
	SampleRate         float64    `json:"sampleRate"`
	CarrierFrequencyHz float64    `json:"carrierFrequencyHz"`
	Modulation         Modulation `json:"modulation"`
	SamplesPerSymbol   int        `json:"samplesPerSymbol"`
	LowFrequencyHz     float64    `json:"lowFrequencyHz"`
	HighFrequencyHz    float64    `json:"highFrequencyHz"`
	PauseSamples       int        `json:"pauseSamples"`
}

// Transmission is a complete transmit buffer for one command.
//
// Buffer holds the encoded messages, optionally separated by spaces and
// interleaved with delay directives of the form "/<value>s" or "/<value>ms".
// An empty Buffer means there is nothing to transmit.
type Transmission struct {
	Params RadioParams
	Buffer string
}

// Empty reports whether the transmission carries no messages.
func (t Transmission) Empty() bool {
	return strings.TrimSpace(t.Buffer) == ""
}

// Capabilities lists the actions a receiver supports.
type Capabilities struct {
	Light   bool `json:"light"`
	Beep    bool `json:"beep"`
	Vibrate bool `json:"vibrate"`
	Shock   bool `json:"shock"`
}

// Timings are the duration constraints of a receiver.
type Timings struct {
	DurationMinMs       int `json:"durationMinMs"`
	DurationIncrementMs int `json:"durationIncrementMs"`
	AwakeTimeS          int `json:"awakeTimeS"` // 0 if the receiver never falls asleep
}

// Config is the per-receiver configuration a codec needs.
type Config struct {
	TransmitterCode  string
	Channel          int
	BeepShockDelayMs int
}

// Codec generates and frames the radio messages of one protocol.
type Codec interface {
	// Name returns the receiver type this codec serves.
	Name() string

	// Validate checks the transmitter code and channel.
	// Errors wrap ErrInvalidConfig or ErrUnsupported.
	Validate() error

	Capabilities() Capabilities
	Timings() Timings
	Params() RadioParams

	// Generate returns the logical frame for a single message.
	Generate(action Action, power int) string

	// EncodeForTransmission expands a logical frame into the physical message.
	EncodeForTransmission(frame string) string

	// Command assembles the transmit buffer for a whole command.
	Command(action Action, power, durationMs int) Transmission
}

// symbolEncoding expands every logical bit into a fixed physical symbol.
type symbolEncoding struct {
	prefix string
	zero   string
	one    string
	suffix string
}

func (e symbolEncoding) encode(frame string) string {
	var b strings.Builder
	b.Grow(len(e.prefix) + len(frame)*len(e.one) + len(e.suffix))
	b.WriteString(e.prefix)
	for i := 0; i < len(frame); i++ {
		if frame[i] == '1' {
			b.WriteString(e.one)
		} else {
			b.WriteString(e.zero)
		}
	}
	b.WriteString(e.suffix)
	return b.String()
}

// FramingConstants describes the physical framing of a protocol.
type FramingConstants struct {
	PreambleLen int
	ZeroWidth   int
	OneWidth    int
	SuffixLen   int
}

// EncodedLen is the physical length of a frame.
func (f FramingConstants) EncodedLen(frame string) int {
	ones := strings.Count(frame, "1")
	zeros := len(frame) - ones
	return f.PreambleLen + zeros*f.ZeroWidth + ones*f.OneWidth + f.SuffixLen
}

func (e symbolEncoding) constants() FramingConstants {
	return FramingConstants{
		PreambleLen: len(e.prefix),
		ZeroWidth:   len(e.zero),
		OneWidth:    len(e.one),
		SuffixLen:   len(e.suffix),
	}
}

// Framed is implemented by codecs whose physical framing is a pure symbol expansion.
type Framed interface {
	Framing() FramingConstants
}

// clampDuration limits a duration to the protocol floor and MaxDurationMs.
func clampDuration(durationMs, floorMs int) int {
	if durationMs < floorMs {
		return floorMs
	}
	if durationMs > MaxDurationMs {
		return MaxDurationMs
	}
	return durationMs
}

func clampPower(power, max int) int {
	if power < 0 {
		return 0
	}
	if power > max {
		return max
	}
	return power
}

// repeatCount returns how often a message is sent so that the transmission
// lasts durationMs. minRepeats messages are always sent for the floor duration.
// Halves round to even.
func repeatCount(durationMs, floorMs int, messageMs float64, minRepeats int) int {
	return int(math.RoundToEven(float64(durationMs-floorMs)/messageMs + float64(minRepeats)))
}

// repeated writes n copies of message, each followed by sep.
func repeated(b *strings.Builder, message, sep string, n int) {
	for i := 0; i < n; i++ {
		b.WriteString(message)
		b.WriteString(sep)
	}
}

// delaySeconds formats a pause directive in seconds, e.g. "/1.1s".
func delaySeconds(seconds float64) string {
	v := strconv.FormatFloat(seconds, 'f', -1, 64)
	if !strings.Contains(v, ".") {
		v += ".0"
	}
	return "/" + v + "s"
}

// delayMillis formats a pause directive in milliseconds, e.g. "/1100ms".
func delayMillis(ms int) string {
	return "/" + strconv.Itoa(ms) + "ms"
}

// beepShockDelaySeconds is the pause between the beep burst and the shock,
// including the settle margin of 100ms.
func beepShockDelaySeconds(delayMs int) float64 {
	return float64(delayMs)/1000 + 0.1
}

// bits formats v as a zero padded binary string of at least width digits.
func bits(v, width int) string {
	s := strconv.FormatInt(int64(v), 2)
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}

func codePattern(length int) *regexp.Regexp {
	return regexp.MustCompile(`^[01]{` + strconv.Itoa(length) + `}$`)
}

func validateCode(pattern *regexp.Regexp, code string, length int) error {
	if !pattern.MatchString(code) {
		return invalidTransmitterCode(code, length)
	}
	return nil
}

func validateChannel(channel, min, max int) error {
	if channel < min || channel > max {
		return invalidChannel("channel", channel, min, max)
	}
	return nil
}
