// Package app wires configuration, receivers, transports and the command
// dispatcher for the remoshock binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/remoshock/remoshock/internal/audit"
	"github.com/remoshock/remoshock/internal/command"
	"github.com/remoshock/remoshock/internal/config"
	"github.com/remoshock/remoshock/internal/randomizer"
	"github.com/remoshock/remoshock/internal/receiver"
	"github.com/remoshock/remoshock/internal/relay"
	"github.com/remoshock/remoshock/internal/scheduler"
	"github.com/remoshock/remoshock/internal/sender"
	"github.com/remoshock/remoshock/internal/sender/fake"
)

// Version of the remoshock binaries.
const Version = "1.0.0"

// Options select the configuration and the transports.
type Options struct {
	// ConfigPath overrides REMOSHOCK_CONFIG and the default path.
	ConfigPath string

	// Mock replaces radio and relay with fakes that transmit nothing.
	Mock bool

	// SDR overrides the sdr setting of the configuration.
	SDR string
}

// App holds the booted components.
type App struct {
	Config     *config.Config
	Scheduler  *scheduler.Scheduler
	Dispatcher *command.Dispatcher

	// Radio is the sender handed to radio receivers; nil until Boot needs it.
	Radio sender.Sender

	opts    Options
	closers []io.Closer
	logger  zerolog.Logger
}

// Load reads the configuration and builds the receivers and the dispatcher.
func Load(opts Options, logger zerolog.Logger) (*App, error) {
	path, err := config.ResolvePath(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.SDR != "" {
		cfg.Global.SDR = opts.SDR
	}
	return New(cfg, opts, logger), nil
}

// New builds the components for an already loaded configuration. A
// receiver section that is malformed or names an unknown type is logged and
// excluded; booting without any receiver fails with command.ErrNoReceivers.
func New(cfg *config.Config, opts Options, logger zerolog.Logger) *App {
	receivers := make([]receiver.Receiver, 0, len(cfg.Receivers))
	for i, section := range cfg.Receivers {
		r, err := newReceiver(section, i+1, logger)
		if err != nil {
			logger.Error().Err(err).Int("receiver", i+1).Msg("Receiver excluded")
			continue
		}
		receivers = append(receivers, r)
	}

	s := scheduler.New(logger)
	return &App{
		Config:     cfg,
		Scheduler:  s,
		Dispatcher: command.NewDispatcher(receivers, s, &cfg.Timing, cfg.Global.DurationRounding, logger),
		opts:       opts,
		logger:     logger.With().Str("component", "app").Logger(),
	}
}

func newReceiver(section config.ReceiverSection, n int, logger zerolog.Logger) (receiver.Receiver, error) {
	if err := section.Validate(); err != nil {
		return nil, err
	}
	return receiver.New(section.Properties(n), logger)
}

// Boot opens the audit trail and boots the dispatcher with the transports
// its receivers need.
func (a *App) Boot(ctx context.Context) error {
	if dir := a.Config.Global.AuditDir; dir != "" {
		auditLogger, err := audit.NewLogger(dir)
		if err != nil {
			return fmt.Errorf("failed to initialize audit logger: %w", err)
		}
		a.Dispatcher.SetAuditLogger(auditLogger)
		a.closers = append(a.closers, auditLogger)
		a.logger.Info().Str("file", auditLogger.GetFilePath()).Msg("Audit logger initialized")
	}

	if a.opts.Mock {
		a.logger.Warn().Msg("Mock mode, nothing is transmitted")
	}
	return a.Dispatcher.Boot(ctx, command.Backends{
		Radio: a.openRadio,
		Relay: a.openRelay,
	})
}

func (a *App) openRadio(_ context.Context) (sender.Sender, error) {
	if a.opts.Mock {
		a.Radio = fake.NewSender(a.logger)
		return a.Radio, nil
	}
	s, err := sender.NewURHCLI(a.Config.Global.SDR, a.logger)
	if err != nil {
		return nil, err
	}
	a.Radio = s
	return s, nil
}

func (a *App) openRelay(ctx context.Context) (relay.Relay, error) {
	if a.opts.Mock {
		return &mockRelay{logger: a.logger}, nil
	}
	client, err := relay.Open(a.Config.Global.RelayDevice, a.Config.Timing.RelayAckTimeout, a.logger)
	if err != nil {
		return nil, err
	}
	if err := client.Boot(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	a.closers = append(a.closers, client)
	return client, nil
}

// RandomizerConfig builds the run configuration of a randomizer section
// for the booted receivers.
func (a *App) RandomizerConfig(section string) (randomizer.Config, error) {
	settings, err := a.Config.Section(section)
	if err != nil {
		return randomizer.Config{}, err
	}
	props := make([]receiver.Properties, 0, a.Dispatcher.ReceiverCount())
	for i := 1; i <= a.Dispatcher.ReceiverCount(); i++ {
		r, err := a.Dispatcher.Receiver(i)
		if err != nil {
			return randomizer.Config{}, err
		}
		props = append(props, r.Properties())
	}
	return randomizer.NewConfig(settings, props), nil
}

// NewRandomizer creates a randomizer driving the dispatcher.
func (a *App) NewRandomizer(cfg randomizer.Config) *randomizer.Randomizer {
	return randomizer.New(a.Dispatcher, a.Scheduler, &a.Config.Timing, cfg, a.logger)
}

// Close stops the keep-awake tasks and closes the transports.
func (a *App) Close() error {
	a.Dispatcher.Shutdown()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
