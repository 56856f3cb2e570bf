// Package relay talks to the arshock firmware on a microcontroller that keys
// receivers through a serial link.
//
// Every request is a 6 byte packet [code, 4, arg, arg, arg, arg], except the
// boot request [100, 0]. Responses are [code, length] followed by length
// parameter bytes. Each request is acknowledged with code 200.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/remoshock/remoshock/internal/codec"
)

// Protocol codes. Action codes share the values of codec.Action.
const (
	CodeBoot        byte = 100
	CodeBooted      byte = 101
	CodeAdd         byte = 102
	CodeAcknowledge byte = 200
	CodePing        byte = 201
	CodePong        byte = 202
	CodeDebug       byte = 253
	CodeError       byte = 254
	CodeCrash       byte = 255
)

// ReceiverType is the kind of receiver the firmware drives.
type ReceiverType byte

const (
	// TypePetrainer sends Petrainer frames: code first byte, code second byte, channel.
	TypePetrainer ReceiverType = 0
	// TypeOptocoupler presses buttons: beep pin, vibrate pin, shock pin.
	TypeOptocoupler ReceiverType = 1
	// TypeOptocouplerBeepModifier holds a modifier pin: beep modifier pin, unused, button pin.
	TypeOptocouplerBeepModifier ReceiverType = 2
)

// DefaultDevice is the serial device the microcontroller usually shows up as.
const DefaultDevice = "/dev/ttyACM0"

// ErrTimeout is returned when the firmware does not answer in time.
var ErrTimeout = errors.New("RELAY_TIMEOUT")

// Relay is the client side of the firmware protocol.
type Relay interface {
	RegisterReceiver(ctx context.Context, typ ReceiverType, arg1, arg2, arg3 byte) (int, error)
	Command(ctx context.Context, action codec.Action, index, power, durationMs int) error
}

// Client implements Relay over any byte stream.
type Client struct {
	mu         sync.Mutex
	port       io.ReadWriter
	ackTimeout time.Duration
	settle     time.Duration
	index      int
	logger     zerolog.Logger
}

// NewClient creates a client on an already opened stream.
func NewClient(port io.ReadWriter, ackTimeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		port:       port,
		ackTimeout: ackTimeout,
		settle:     time.Second,
		index:      -1,
		logger:     logger.With().Str("component", "relay").Logger(),
	}
}

// Open opens a serial device in raw mode with the line settings of the
// firmware and returns a client for it.
func Open(device string, ackTimeout time.Duration, logger zerolog.Logger) (*Client, error) {
	if device == "" {
		device = DefaultDevice
	}
	port, err := openSerial(device, PortMode())
	if err != nil {
		return nil, fmt.Errorf("failed to open relay device %s: %w", device, err)
	}
	return NewClient(&serialPort{Port: port}, ackTimeout, logger), nil
}

// Close closes the underlying stream if it can be closed.
func (c *Client) Close() error {
	if closer, ok := c.port.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Boot resets the firmware and waits until it reports to be ready.
func (c *Client) Boot(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.settle):
	}

	if _, err := c.port.Write([]byte{CodeBoot, 0}); err != nil {
		return fmt.Errorf("relay boot: %w", err)
	}
	if err := c.readUntil(ctx, CodeBooted); err != nil {
		return fmt.Errorf("relay boot: %w", err)
	}
	if err := c.readUntil(ctx, CodeAcknowledge); err != nil {
		return fmt.Errorf("relay boot: %w", err)
	}
	c.logger.Info().Msg("Relay booted")
	return nil
}

// RegisterReceiver adds a receiver to the firmware and returns its index.
func (c *Client) RegisterReceiver(ctx context.Context, typ ReceiverType, arg1, arg2, arg3 byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.send(ctx, []byte{CodeAdd, 4, byte(typ), arg1, arg2, arg3}); err != nil {
		return 0, fmt.Errorf("register receiver: %w", err)
	}
	c.index++
	return c.index, nil
}

// Command keys a registered receiver.
func (c *Client) Command(ctx context.Context, action codec.Action, index, power, durationMs int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	packet := []byte{byte(action), 4, byte(index), byte(power), byte(durationMs / 256), byte(durationMs % 256)}
	return c.send(ctx, packet)
}

func (c *Client) send(ctx context.Context, packet []byte) error {
	if _, err := c.port.Write(packet); err != nil {
		return err
	}
	return c.readUntil(ctx, CodeAcknowledge)
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// readUntil consumes responses until one with the wanted code arrives.
// Other responses are logged.
func (c *Client) readUntil(ctx context.Context, want byte) error {
	if d, ok := c.port.(readDeadliner); ok && c.ackTimeout > 0 {
		_ = d.SetReadDeadline(time.Now().Add(c.ackTimeout))
		defer func() { _ = d.SetReadDeadline(time.Time{}) }()
	}

	header := make([]byte, 2)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := io.ReadFull(c.port, header); err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return fmt.Errorf("waiting for response %d: %w", want, ErrTimeout)
			}
			return fmt.Errorf("waiting for response %d: %w", want, err)
		}
		if header[0] == want {
			return nil
		}

		params := make([]byte, header[1])
		if _, err := io.ReadFull(c.port, params); err != nil {
			return fmt.Errorf("reading response %d: %w", header[0], err)
		}
		event := c.logger.Debug()
		if header[0] == CodeError || header[0] == CodeCrash {
			event = c.logger.Error()
		}
		event.Uint8("code", header[0]).Bytes("params", params).Msg("Relay message")
	}
}
