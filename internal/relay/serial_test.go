package relay

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/remoshock/remoshock/internal/codec"
)

// fakeSerial behaves like a serial port: a read with a timeout returns no
// bytes and no error once the timeout expires.
type fakeSerial struct {
	serial.Port

	mu       sync.Mutex
	written  bytes.Buffer
	replies  *bytes.Reader
	timeout  time.Duration
	timeouts []time.Duration
	closed   bool
}

func (f *fakeSerial) Write(b []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.written.Write(b)
}

func (f *fakeSerial) Read(b []byte) (int, error) {
	f.mu.Lock()
	if f.replies.Len() > 0 {
		defer f.mu.Unlock()
		return f.replies.Read(b)
	}
	timeout := f.timeout
	f.mu.Unlock()
	if timeout > 0 {
		time.Sleep(timeout)
	}
	return 0, nil
}

func (f *fakeSerial) SetReadTimeout(t time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeout = t
	f.timeouts = append(f.timeouts, t)
	return nil
}

func (f *fakeSerial) Close() error {
	f.closed = true
	return nil
}

func useFakeSerial(t *testing.T, port *fakeSerial) (*string, **serial.Mode) {
	t.Helper()
	var device string
	var mode *serial.Mode
	previous := openSerial
	openSerial = func(name string, m *serial.Mode) (serial.Port, error) {
		device, mode = name, m
		return port, nil
	}
	t.Cleanup(func() { openSerial = previous })
	return &device, &mode
}

func TestOpenUsesFirmwareLineSettings(t *testing.T) {
	port := &fakeSerial{replies: bytes.NewReader([]byte{CodeAcknowledge, 0})}
	device, mode := useFakeSerial(t, port)

	c, err := Open("", time.Second, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, DefaultDevice, *device)
	assert.Equal(t, &serial.Mode{BaudRate: 9600, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}, *mode)

	// line feed and carriage return values go out unchanged
	require.NoError(t, c.Command(context.Background(), codec.ActionLight, 0, 10, 500))
	assert.Equal(t, []byte{10, 4, 0, 10, 1, 244}, port.written.Bytes())
	assert.Equal(t, serial.NoTimeout, port.timeouts[len(port.timeouts)-1])

	require.NoError(t, c.Close())
	assert.True(t, port.closed)
}

func TestSerialReadTimesOut(t *testing.T) {
	port := &fakeSerial{replies: bytes.NewReader(nil)}
	useFakeSerial(t, port)

	c, err := Open("/dev/ttyUSB3", 30*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)

	started := time.Now()
	err = c.Command(context.Background(), codec.ActionBeep, 0, 0, 250)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(started), time.Second)
}
