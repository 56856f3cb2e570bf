package codec

// nibbleLayout is the frame layout shared by the protocols that protect
// channel and action by repeating them bit-inverted at the end of the frame:
//
//	channel(4) action(4) transmitter code(16) power(8) ~action(4) ~channel(4)
type nibbleLayout struct {
	channelNormal  []string
	channelInverse []string
	actionNormal   map[Action]string
	actionInverse  map[Action]string
}

// frame builds the 40 bit frame. Actions without a code of their own are sent
// as VIBRATE. The channel must have been validated.
func (l nibbleLayout) frame(code string, channel int, action Action, power int) string {
	normal, ok := l.actionNormal[action]
	if !ok {
		action = ActionVibrate
		normal = l.actionNormal[action]
	}
	return l.channelNormal[channel-1] + normal +
		code + bits(power, 8) +
		l.actionInverse[action] + l.channelInverse[channel-1]
}

// pulseEncoding is the on-off keying used by several 433MHz protocols: a long
// pulse is a one, a short pulse a zero.
func pulseEncoding(suffix string) symbolEncoding {
	return symbolEncoding{
		prefix: "111111000",
		zero:   "1000",
		one:    "1110",
		suffix: suffix,
	}
}
