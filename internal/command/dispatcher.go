package command

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/remoshock/remoshock/internal/audit"
	"github.com/remoshock/remoshock/internal/codec"
	"github.com/remoshock/remoshock/internal/config"
	"github.com/remoshock/remoshock/internal/receiver"
	"github.com/remoshock/remoshock/internal/relay"
	"github.com/remoshock/remoshock/internal/scheduler"
	"github.com/remoshock/remoshock/internal/sender"
)

// KeepAwakeGroup is the scheduler group of all keep-awake tasks.
const KeepAwakeGroup = "keepawake"

// Dispatcher owns the receivers and serializes every transmission.
type Dispatcher struct {
	// Transmission lock; one command is on the air at a time
	mu sync.Mutex

	// Receivers that passed validation, commanded by 1-based index
	receivers []receiver.Receiver
	all       []receiver.Receiver

	scheduler *scheduler.Scheduler
	timing    *config.TimingConfig
	rounding  string

	// hooksMu guards the collaborators set after construction
	hooksMu     sync.RWMutex
	auditLogger AuditLogger
	publisher   Publisher

	sectionsMu sync.RWMutex
	sections   map[string]func() interface{}

	booted bool
	logger zerolog.Logger
}

// Compile-time assertion that Dispatcher implements DispatcherPort
var _ DispatcherPort = (*Dispatcher)(nil)

// Compile-time assertion that Dispatcher can be driven by scheduled tasks
var _ scheduler.Commander = (*Dispatcher)(nil)

// AuditLogger interface for writing audit records.
type AuditLogger interface {
	LogCommand(ctx context.Context, index int, receiverName, action string, params map[string]interface{}, outcome string, err error, latency time.Duration)
}

// Publisher announces transmitted commands to live observers.
type Publisher interface {
	PublishCommand(index int, receiverName, action string, power, durationMs int)
}

// Backends create the transports on demand. A factory is only invoked when
// at least one receiver requires it.
type Backends struct {
	Radio func(ctx context.Context) (sender.Sender, error)
	Relay func(ctx context.Context) (relay.Relay, error)
}

// NewDispatcher creates a dispatcher for the given receivers. Receivers are
// validated by Boot.
func NewDispatcher(receivers []receiver.Receiver, s *scheduler.Scheduler, timing *config.TimingConfig, rounding string, logger zerolog.Logger) *Dispatcher {
	if timing == nil {
		timing = config.LoadTimingBaseline()
	}
	if rounding == "" {
		rounding = config.RoundingHuman
	}
	return &Dispatcher{
		all:       receivers,
		scheduler: s,
		timing:    timing,
		rounding:  rounding,
		sections:  make(map[string]func() interface{}),
		logger:    logger.With().Str("component", "dispatcher").Logger(),
	}
}

// SetAuditLogger sets the audit logger.
func (d *Dispatcher) SetAuditLogger(logger AuditLogger) {
	d.hooksMu.Lock()
	defer d.hooksMu.Unlock()
	d.auditLogger = logger
}

// SetPublisher sets the publisher notified after every transmission.
func (d *Dispatcher) SetPublisher(p Publisher) {
	d.hooksMu.Lock()
	defer d.hooksMu.Unlock()
	d.publisher = p
}

// SetSection registers an additional section reported by GetConfig.
func (d *Dispatcher) SetSection(name string, provider func() interface{}) {
	d.sectionsMu.Lock()
	defer d.sectionsMu.Unlock()
	d.sections[name] = provider
}

// Boot validates the receivers, initializes the transports they need,
// boots every receiver and schedules the keep-awake tasks.
func (d *Dispatcher) Boot(ctx context.Context, backends Backends) error {
	if d.booted {
		return fmt.Errorf("dispatcher already booted")
	}

	valid := make([]receiver.Receiver, 0, len(d.all))
	for i, r := range d.all {
		if err := r.Validate(); err != nil {
			d.logger.Error().Err(err).Int("receiver", i+1).Msg("Receiver excluded")
			continue
		}
		valid = append(valid, r)
	}
	if len(valid) == 0 {
		return ErrNoReceivers
	}

	radioRequired, relayRequired := false, false
	for _, r := range valid {
		radioRequired = radioRequired || r.RequiresRadio()
		relayRequired = relayRequired || r.RequiresRelay()
	}

	var radio sender.Sender
	if radioRequired {
		if backends.Radio == nil {
			return fmt.Errorf("%w: radio", ErrBackendMissing)
		}
		s, err := backends.Radio(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize radio: %w", err)
		}
		radio = s
	}

	var rl relay.Relay
	if relayRequired {
		if backends.Relay == nil {
			return fmt.Errorf("%w: relay", ErrBackendMissing)
		}
		r, err := backends.Relay(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize relay: %w", err)
		}
		rl = r
	}

	for i, r := range valid {
		if err := r.Boot(ctx, radio, rl); err != nil {
			return fmt.Errorf("failed to boot receiver %d: %w", i+1, err)
		}
	}

	d.receivers = valid
	d.booted = true

	d.scheduleKeepAwake()

	d.logger.Info().
		Int("receivers", len(valid)).
		Bool("radio", radioRequired).
		Bool("relay", relayRequired).
		Msg("Dispatcher booted")
	return nil
}

// KeepAwakeInterval is the refresh interval of a receiver that falls asleep
// after awake. It leaves margin before the half period; if that leaves
// nothing the half period is used.
func KeepAwakeInterval(awake, margin time.Duration) time.Duration {
	interval := awake/2 - margin
	if interval <= 0 {
		interval = awake / 2
	}
	return interval
}

func (d *Dispatcher) scheduleKeepAwake() {
	if d.scheduler == nil {
		return
	}
	for i, r := range d.receivers {
		awake := time.Duration(r.Timings().AwakeTimeS) * time.Second
		if awake <= 0 {
			continue
		}

		index := i + 1
		interval := KeepAwakeInterval(awake, d.timing.KeepAwakeMargin)
		duration := r.Timings().DurationMinMs
		if duration <= 0 {
			duration = 1
		}

		task := scheduler.NewCommandTask(time.Time{}, fmt.Sprintf("keepawake-%d", index), KeepAwakeGroup,
			d, index, codec.ActionKeepAwake, 0, duration)
		task.StaleAfter = d.timing.CommandStaleAfter

		if !d.scheduler.Schedule(scheduler.NewPeriodicTask(d.scheduler, interval, task)) {
			d.logger.Warn().Int("receiver", index).Msg("Failed to schedule keep-awake task")
			continue
		}
		d.logger.Debug().Int("receiver", index).Dur("interval", interval).Msg("Keep-awake scheduled")
	}
}

// Command sends one command. Problems are logged and never returned, so
// that scheduled tasks and the randomizer can fire and forget.
func (d *Dispatcher) Command(ctx context.Context, index int, action codec.Action, power, durationMs int) {
	_ = d.Dispatch(ctx, index, action, power, durationMs)
}

// Dispatch validates, limits and normalizes a command, then transmits it
// under the transmission lock. index is 1-based.
func (d *Dispatcher) Dispatch(ctx context.Context, index int, action codec.Action, power, durationMs int) error {
	start := time.Now()
	params := map[string]interface{}{"power": power, "durationMs": durationMs}

	if index < 1 || index > len(d.receivers) {
		err := fmt.Errorf("%w: receiver %d, valid range is 1 to %d", ErrInvalidReceiver, index, len(d.receivers))
		d.logger.Error().Err(err).Msg("Command rejected")
		d.logAudit(ctx, index, "", action, params, audit.OutcomeRejected, err, time.Since(start))
		return err
	}
	r := d.receivers[index-1]
	props := r.Properties()

	if power < 0 || power > 100 {
		err := fmt.Errorf("%w: power %d, valid range is 0 to 100", ErrInvalidRange, power)
		d.logger.Error().Err(err).Int("receiver", index).Msg("Command rejected")
		d.logAudit(ctx, index, props.Name, action, params, audit.OutcomeRejected, err, time.Since(start))
		return err
	}
	if durationMs < 0 || durationMs > codec.MaxDurationMs {
		err := fmt.Errorf("%w: duration %d, valid range is 0 to %d", ErrInvalidRange, durationMs, codec.MaxDurationMs)
		d.logger.Error().Err(err).Int("receiver", index).Msg("Command rejected")
		d.logAudit(ctx, index, props.Name, action, params, audit.OutcomeRejected, err, time.Since(start))
		return err
	}

	if action == codec.ActionShock || action == codec.ActionBeepShock {
		power, durationMs = d.limit(index, props, power, durationMs)
	}

	if durationMs == 0 {
		d.logger.Debug().Int("receiver", index).Str("action", action.String()).Msg("Zero duration, nothing to send")
		d.logAudit(ctx, index, props.Name, action, params, audit.OutcomeSkipped, nil, time.Since(start))
		return nil
	}

	normalized := d.normalize(r.Timings(), durationMs)
	params["power"] = power
	params["durationMs"] = normalized

	d.mu.Lock()
	err := r.Command(ctx, action, power, normalized)
	d.mu.Unlock()

	latency := time.Since(start)
	if err != nil {
		d.logger.Error().Err(err).Int("receiver", index).Str("action", action.String()).Msg("Command failed")
		d.logAudit(ctx, index, props.Name, action, params, audit.OutcomeError, err, latency)
		return fmt.Errorf("receiver %d: %w", index, err)
	}

	d.logger.Info().
		Int("receiver", index).
		Str("action", action.String()).
		Int("power", power).
		Int("durationMs", normalized).
		Msg("Command sent")
	d.logAudit(ctx, index, props.Name, action, params, audit.OutcomeSuccess, nil, latency)
	d.hooksMu.RLock()
	publisher := d.publisher
	d.hooksMu.RUnlock()
	if publisher != nil {
		publisher.PublishCommand(index, props.Name, action.String(), power, normalized)
	}
	return nil
}

// limit applies the shock limits of a receiver.
func (d *Dispatcher) limit(index int, props receiver.Properties, power, durationMs int) (int, int) {
	if power > props.LimitShockMaxPowerPercent {
		d.logger.Warn().
			Int("receiver", index).
			Int("power", power).
			Int("limit", props.LimitShockMaxPowerPercent).
			Msg("Power limited by limit_shock_max_power_percent")
		power = props.LimitShockMaxPowerPercent
	}
	if durationMs > props.LimitShockMaxDurationMs {
		d.logger.Warn().
			Int("receiver", index).
			Int("durationMs", durationMs).
			Int("limit", props.LimitShockMaxDurationMs).
			Msg("Duration limited by limit_shock_max_duration_ms")
		durationMs = props.LimitShockMaxDurationMs
	}
	return power, durationMs
}

// normalize rounds a duration to the increment of the receiver, halves to
// even, and never below its minimum. Raw mode passes durations through.
func (d *Dispatcher) normalize(timings codec.Timings, durationMs int) int {
	return NormalizeDuration(d.rounding, timings, durationMs)
}

// NormalizeDuration applies a rounding mode to a duration.
func NormalizeDuration(rounding string, timings codec.Timings, durationMs int) int {
	if rounding == config.RoundingRaw || timings.DurationIncrementMs <= 0 {
		return durationMs
	}
	inc := timings.DurationIncrementMs
	normalized := int(math.RoundToEven(float64(durationMs)/float64(inc))) * inc
	if normalized < timings.DurationMinMs {
		normalized = timings.DurationMinMs
	}
	return normalized
}

func (d *Dispatcher) logAudit(ctx context.Context, index int, name string, action codec.Action, params map[string]interface{}, outcome string, err error, latency time.Duration) {
	d.hooksMu.RLock()
	auditLogger := d.auditLogger
	d.hooksMu.RUnlock()
	if auditLogger != nil {
		auditLogger.LogCommand(ctx, index, name, action.String(), params, outcome, err, latency)
	}
}

// Config is the display configuration of the dispatcher.
type Config struct {
	Receivers []receiver.Summary     `json:"receivers"`
	Sections  map[string]interface{} `json:"sections,omitempty"`
}

// GetConfig aggregates the receiver summaries and the registered sections.
func (d *Dispatcher) GetConfig() Config {
	cfg := Config{Receivers: make([]receiver.Summary, 0, len(d.receivers))}
	for _, r := range d.receivers {
		cfg.Receivers = append(cfg.Receivers, r.Config())
	}

	d.sectionsMu.RLock()
	defer d.sectionsMu.RUnlock()
	if len(d.sections) > 0 {
		cfg.Sections = make(map[string]interface{}, len(d.sections))
		for name, provider := range d.sections {
			cfg.Sections[name] = provider()
		}
	}
	return cfg
}

// ReceiverCount returns the number of commandable receivers.
func (d *Dispatcher) ReceiverCount() int {
	return len(d.receivers)
}

// Receiver returns the receiver with the given 1-based index.
func (d *Dispatcher) Receiver(index int) (receiver.Receiver, error) {
	if index < 1 || index > len(d.receivers) {
		return nil, fmt.Errorf("%w: receiver %d", ErrInvalidReceiver, index)
	}
	return d.receivers[index-1], nil
}

// Shutdown stops the keep-awake tasks.
func (d *Dispatcher) Shutdown() {
	if d.scheduler != nil {
		d.scheduler.CancelGroup(KeepAwakeGroup)
	}
	d.logger.Debug().Msg("Dispatcher shut down")
}

// IsValidation reports whether err rejects a command before transmission.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidReceiver) || errors.Is(err, ErrInvalidRange)
}
