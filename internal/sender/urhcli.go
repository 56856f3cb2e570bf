package sender

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/remoshock/remoshock/internal/codec"
)

// DefaultIFGain is passed to urh_cli for every transmission.
const DefaultIFGain = 47

// URHCLI sends buffers by running the Universal Radio Hacker command line tool.
type URHCLI struct {
	mu     sync.Mutex
	device string
	binary string
	logger zerolog.Logger
}

// NewURHCLI creates a sender for the given SDR device, e.g. "HackRF" or "LimeSDR".
// The alias "hackrfcli" selects HackRF.
func NewURHCLI(device string, logger zerolog.Logger) (*URHCLI, error) {
	if device == "" {
		return nil, fmt.Errorf("urh_cli sender: %w", ErrNoDevice)
	}
	if strings.EqualFold(device, "hackrfcli") || strings.EqualFold(device, "hackrf") {
		device = "HackRF"
	}
	return &URHCLI{
		device: device,
		binary: "urh_cli",
		logger: logger.With().Str("component", "urhcli").Logger(),
	}, nil
}

// Device returns the SDR device name passed to urh_cli.
func (u *URHCLI) Device() string { return u.device }

// Send runs urh_cli and waits for it to finish.
func (u *URHCLI) Send(ctx context.Context, tx codec.Transmission) error {
	if tx.Empty() {
		return nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	args := Args(u.device, tx)
	u.logger.Debug().Strs("args", args[:len(args)-1]).Int("bufferLen", len(tx.Buffer)).Msg("Starting urh_cli")

	cmd := exec.CommandContext(ctx, u.binary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("urh_cli failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Args builds the urh_cli argument list for a transmission.
func Args(device string, tx codec.Transmission) []string {
	p := tx.Params
	return []string{
		"--transmit",
		"--device", device,
		"--frequency", formatFloat(p.FrequencyHz),
		"--sample-rate", formatFloat(p.SampleRate),
		"--carrier-frequency", formatFloat(p.CarrierFrequencyHz),
		"--modulation-type", string(p.Modulation),
		"--samples-per-symbol", strconv.Itoa(p.SamplesPerSymbol),
		"--parameters", formatFloat(p.LowFrequencyHz), formatFloat(p.HighFrequencyHz),
		"--pause", strconv.Itoa(p.PauseSamples),
		"--if-gain", strconv.Itoa(DefaultIFGain),
		"--messages", tx.Buffer,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
