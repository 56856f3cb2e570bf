package randomizer

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/remoshock/remoshock/internal/codec"
	"github.com/remoshock/remoshock/internal/config"
	"github.com/remoshock/remoshock/internal/scheduler"
)

const (
	startupBeepDurationMs = 250
	beepDurationMs        = 250
)

// Dispatcher is the part of the command dispatcher the randomizer drives.
type Dispatcher interface {
	scheduler.Commander
	ReceiverCount() int
}

// Status of the randomizer.
const (
	StatusRunning  = "running"
	StatusInactive = "inactive"
)

// Status reports whether a run is active and with which configuration.
type Status struct {
	Status string            `json:"status"`
	Config Config            `json:"config"`
	Form   map[string]string `json:"form"`
}

// Randomizer runs at most one randomized command loop at a time.
type Randomizer struct {
	dispatcher Dispatcher
	scheduler  *scheduler.Scheduler
	timing     *config.TimingConfig
	logger     zerolog.Logger

	// slot serializes Start and Stop; mu guards the fields below
	slot    sync.Mutex
	mu      sync.Mutex
	cfg     Config
	cancel  context.CancelFunc
	done    chan struct{}
	running bool

	rngMu sync.Mutex
	rng   *rand.Rand

	// unit is the length of one configured second
	unit time.Duration
	now  func() time.Time
}

// New creates an idle randomizer. cfg is reported by Status until the
// first run starts.
func New(d Dispatcher, s *scheduler.Scheduler, timing *config.TimingConfig, cfg Config, logger zerolog.Logger) *Randomizer {
	if timing == nil {
		timing = config.LoadTimingBaseline()
	}
	return &Randomizer{
		dispatcher: d,
		scheduler:  s,
		timing:     timing,
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		unit:       time.Second,
		now:        time.Now,
		logger:     logger.With().Str("component", "randomizer").Logger(),
	}
}

// Start validates cfg, stops and awaits a previous run and spawns a new
// one. An invalid configuration leaves a running loop untouched.
func (r *Randomizer) Start(cfg Config) error {
	if err := cfg.Validate(r.dispatcher.ReceiverCount()); err != nil {
		return err
	}

	r.slot.Lock()
	defer r.slot.Unlock()

	ctx, done := r.claim(context.Background(), cfg)
	go func() {
		defer r.release(done)
		if err := r.run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error().Err(err).Msg("Randomizer run failed")
		}
	}()

	r.logger.Info().Msg("Randomizer run spawned")
	return nil
}

// Stop cancels the current run and waits until it has exited.
func (r *Randomizer) Stop() {
	r.slot.Lock()
	defer r.slot.Unlock()
	r.stop()
}

// stop must be called with r.slot held.
func (r *Randomizer) stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.running = false
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// claim stops and awaits the active run and registers a new one derived
// from parent. It must be called with r.slot held.
func (r *Randomizer) claim(parent context.Context, cfg Config) (context.Context, chan struct{}) {
	r.stop()

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	r.mu.Lock()
	r.cfg = cfg
	r.cancel = cancel
	r.done = done
	r.running = true
	r.mu.Unlock()
	return ctx, done
}

// release ends the run registered with done. A stop waiting on done has
// already unregistered it.
func (r *Randomizer) release(done chan struct{}) {
	r.mu.Lock()
	cancel := r.cancel
	current := r.done == done
	if current {
		r.cancel, r.done = nil, nil
		r.running = false
	}
	r.mu.Unlock()

	if current {
		cancel()
	}
	close(done)
}

// Status returns the state of the randomizer.
func (r *Randomizer) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := StatusInactive
	if r.running {
		status = StatusRunning
	}
	return Status{Status: status, Config: r.cfg, Form: r.cfg.Form()}
}

// Run validates cfg and executes one run in the calling goroutine until it
// completes or ctx is canceled. A run spawned by Start is stopped first, and
// a later Start or Stop cancels this one.
func (r *Randomizer) Run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(r.dispatcher.ReceiverCount()); err != nil {
		return err
	}

	r.slot.Lock()
	runCtx, done := r.claim(ctx, cfg)
	r.slot.Unlock()

	defer r.release(done)
	return r.run(runCtx, cfg)
}

func (r *Randomizer) run(ctx context.Context, cfg Config) error {
	group := "randomizer-" + uuid.NewString()
	defer r.scheduler.CancelGroup(group)

	if err := r.testReceivers(ctx, cfg); err != nil {
		return err
	}

	weights := cfg.Weights(r.dispatcher.ReceiverCount())

	startDelay := r.between(cfg.StartDelayMinMinutes*60, cfg.StartDelayMaxMinutes*60)
	if startDelay > 0 {
		r.logger.Info().Int("seconds", startDelay).Msg("Waiting for start delay")
		if err := r.wait(ctx, group, r.now().Add(time.Duration(startDelay)*r.unit)); err != nil {
			r.logger.Info().Msg("Randomizer canceled")
			return err
		}
	}

	runtime := time.Duration(r.between(cfg.RuntimeMinMinutes*60, cfg.RuntimeMaxMinutes*60)) * r.unit
	started := r.now()
	r.logger.Info().Dur("runtime", runtime).Msg("Randomizer started")

	for r.now().Sub(started) < runtime {
		pause := time.Duration(r.between(cfg.PauseMinS, cfg.PauseMaxS)) * r.unit

		index := r.pickReceiver(weights)
		action := r.DetermineAction(cfg)
		power := r.between(cfg.Value(index, "shock_min_power_percent"), cfg.Value(index, "shock_max_power_percent"))
		duration := beepDurationMs
		if action != codec.ActionBeep {
			duration = r.between(cfg.Value(index, "shock_min_duration_ms"), cfg.Value(index, "shock_max_duration_ms"))
		}

		task := scheduler.NewCommandTask(r.now().Add(pause), "", group, r.dispatcher, index, action, power, duration)
		task.StaleAfter = r.timing.CommandStaleAfter
		if err := r.execute(ctx, task); err != nil {
			r.logger.Info().Msg("Randomizer canceled")
			return err
		}
	}

	r.logger.Info().Msg("Runtime completed")
	return nil
}

// testReceivers beeps every receiver once so that users can check that
// all of them are switched on.
func (r *Randomizer) testReceivers(ctx context.Context, cfg Config) error {
	if cfg.SkipStartupBeeps {
		return nil
	}
	count := r.dispatcher.ReceiverCount()
	for i := 1; i <= count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.logger.Info().Int("receiver", i).Msg("Testing receiver")
		r.dispatcher.Command(ctx, i, codec.ActionBeep, 0, startupBeepDurationMs)
		if err := sleep(ctx, r.timing.StartupBeepPause); err != nil {
			return err
		}
	}
	r.logger.Info().Msg("Beep command sent to all known receivers")
	return nil
}

// DetermineAction draws the action of the next event.
func (r *Randomizer) DetermineAction(cfg Config) codec.Action {
	if r.intn(100) < cfg.BeepProbabilityPercent {
		if r.intn(100) < cfg.ShockProbabilityPercent {
			return codec.ActionBeepShock
		}
		return codec.ActionBeep
	}
	if r.intn(100) < cfg.ShockProbabilityPercent {
		return codec.ActionShock
	}
	return codec.ActionLight
}

// pickReceiver returns a 1-based receiver index drawn by weight.
func (r *Randomizer) pickReceiver(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return 1
	}
	pick := r.intn(total)
	for i, w := range weights {
		if pick < w {
			return i + 1
		}
		pick -= w
	}
	return len(weights)
}

// between returns a uniform integer in [lo, hi].
func (r *Randomizer) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.intn(hi-lo+1)
}

func (r *Randomizer) intn(n int) int {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return r.rng.Intn(n)
}

// signalTask runs a task and reports its completion.
type signalTask struct {
	scheduler.Runnable
	fired chan struct{}
}

func (s *signalTask) Run() {
	defer close(s.fired)
	s.Runnable.Run()
}

// execute runs task at its deadline or returns early when ctx is canceled.
// A deadline that already passed runs the task at once.
func (r *Randomizer) execute(ctx context.Context, task scheduler.Runnable) error {
	signal := &signalTask{Runnable: task, fired: make(chan struct{})}
	if !r.scheduler.Schedule(signal) {
		if err := ctx.Err(); err != nil {
			return err
		}
		signal.Run()
		return nil
	}
	select {
	case <-signal.fired:
		return nil
	case <-ctx.Done():
		if !r.scheduler.Cancel(task.Task().ID) {
			// already fired, the payload may be transmitting
			<-signal.fired
		}
		return ctx.Err()
	}
}

// wait blocks until at or until ctx is canceled.
func (r *Randomizer) wait(ctx context.Context, group string, at time.Time) error {
	return r.execute(ctx, scheduler.NewTask(at, "", group, func() {}))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
