package relay

import (
	"os"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is the speed the firmware listens on.
const DefaultBaudRate = 9600

var openSerial = serial.Open

// PortMode returns the line settings of the firmware: 9600 baud, 8N1.
func PortMode() *serial.Mode {
	return &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// serialPort maps read deadlines onto the read timeout of a serial port,
// whose Read returns no bytes and no error when the timeout expires.
type serialPort struct {
	serial.Port
	deadline time.Time
}

func (p *serialPort) SetReadDeadline(t time.Time) error {
	p.deadline = t
	if t.IsZero() {
		return p.Port.SetReadTimeout(serial.NoTimeout)
	}
	return nil
}

func (p *serialPort) Read(b []byte) (int, error) {
	if p.deadline.IsZero() {
		return p.Port.Read(b)
	}
	for {
		remaining := time.Until(p.deadline)
		if remaining <= 0 {
			return 0, os.ErrDeadlineExceeded
		}
		if err := p.Port.SetReadTimeout(remaining); err != nil {
			return 0, err
		}
		n, err := p.Port.Read(b)
		if n > 0 || err != nil {
			return n, err
		}
	}
}
