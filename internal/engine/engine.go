package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/SoarinFerret/ReadRemind/internal/config"
	"github.com/SoarinFerret/ReadRemind/internal/device"
	"github.com/SoarinFerret/ReadRemind/internal/logging"
	"github.com/SoarinFerret/ReadRemind/internal/metrics"
	"github.com/SoarinFerret/ReadRemind/internal/presence"
)

// shutdownTimeout bounds the final state write.
const shutdownTimeout = 5 * time.Second

// Engine samples the distance sensor and drives the presence machine.
type Engine struct {
	machine   *presence.Machine
	sensor    device.Sensor
	debouncer *Debouncer
	proximity float64
	interval  time.Duration

	runningLED  presence.Indicator
	presenceLED presence.Indicator
	reloads     <-chan *config.Config
	sleep       <-chan bool
	paused      bool
	recorder    metrics.Recorder
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRunningLED lights ind while the engine runs.
func WithRunningLED(ind presence.Indicator) Option {
	return func(e *Engine) { e.runningLED = ind }
}

// WithPresenceLED turns ind off at shutdown; the machine drives it otherwise.
func WithPresenceLED(ind presence.Indicator) Option {
	return func(e *Engine) { e.presenceLED = ind }
}

// WithReloads applies configs received on ch between samples.
func WithReloads(ch <-chan *config.Config) Option {
	return func(e *Engine) { e.reloads = ch }
}

// WithSleepEvents pauses sampling while the system is suspended. true on ch
// means suspend, false means resume.
func WithSleepEvents(ch <-chan bool) Option {
	return func(e *Engine) { e.sleep = ch }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine for machine reading from sensor.
func NewEngine(machine *presence.Machine, sensor device.Sensor, cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		machine:   machine,
		sensor:    sensor,
		debouncer: NewDebouncer(cfg.DebounceSamples, machine.Snapshot().Present),
		proximity: cfg.ProximityCM,
		interval:  time.Duration(cfg.PollInterval),
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type settler interface {
	Settle(ctx context.Context) error
}

// Run samples every poll interval until ctx is cancelled, then writes the
// final state and turns the LEDs off.
func (e *Engine) Run(ctx context.Context) error {
	defer e.shutdown()

	if err := e.settle(ctx); err != nil {
		return nil
	}

	e.setLED(e.runningLED, true)
	e.machine.SyncIndicator()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Info("Engine started - monitoring book presence",
		slog.Duration("interval", e.interval), slog.Float64("proximity_cm", e.proximity))

	// Run immediately on start
	e.sample(ctx)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine shutting down...")
			return nil
		case cfg := <-e.reloads:
			if e.apply(cfg) {
				ticker.Reset(e.interval)
			}
		case sleeping := <-e.sleep:
			if err := e.handleSleep(ctx, sleeping); err != nil {
				return nil
			}
		case <-ticker.C:
			if !e.paused {
				e.sample(ctx)
			}
		}
	}
}

func (e *Engine) settle(ctx context.Context) error {
	s, ok := e.sensor.(settler)
	if !ok {
		return nil
	}
	e.logger.Info("Waiting for sensor to settle")
	return s.Settle(ctx)
}

// handleSleep stops sampling across a suspend. On resume the sensor settles
// again before the next reading.
func (e *Engine) handleSleep(ctx context.Context, sleeping bool) error {
	if sleeping == e.paused {
		return nil
	}
	e.paused = sleeping
	if sleeping {
		e.logger.Info("Pausing sampling for suspend")
		return nil
	}
	if err := e.settle(ctx); err != nil {
		return err
	}
	e.logger.Info("Resuming sampling")
	e.sample(ctx)
	return nil
}

// sample takes one reading and feeds it to the machine.
func (e *Engine) sample(ctx context.Context) {
	distance, err := e.sensor.Read(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		e.recorder.IncSensorError()
		e.logger.Warn("Skipping sample, sensor read failed", logging.Err(err))
		return
	}

	raw := device.IsPresent(distance, e.proximity)
	e.recorder.ObserveSample(raw, distance)
	present := e.debouncer.Update(raw)

	res := e.machine.Observe(ctx, present)
	e.record(res, distance)
}

func (e *Engine) record(res presence.Result, distance float64) {
	if res.Transitioned {
		e.recorder.IncTransition(res.Present)
		e.logger.Info("Book presence changed",
			logging.Present(res.Present), logging.Elapsed(res.Elapsed), logging.Distance(distance))
	}
	if res.Nag != presence.NagNone {
		e.recorder.IncNag(string(res.Nag))
	}
	if res.NotifyErr != nil {
		e.recorder.IncNotifyFailure()
	}
	if res.PersistErr != nil {
		e.recorder.IncPersistFailure()
	}
}

// apply adopts the runtime-adjustable parts of cfg and reports whether the
// poll interval changed.
func (e *Engine) apply(cfg *config.Config) bool {
	if cfg == nil {
		return false
	}
	e.machine.SetPolicy(cfg.Policy())
	e.proximity = cfg.ProximityCM
	e.debouncer.SetRequired(cfg.DebounceSamples)

	e.logger.Info("Applied configuration",
		slog.Float64("proximity_cm", e.proximity), slog.Int("debounce_samples", cfg.DebounceSamples))

	interval := time.Duration(cfg.PollInterval)
	if interval <= 0 || interval == e.interval {
		return false
	}
	e.interval = interval
	return true
}

func (e *Engine) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.machine.Flush(ctx); err != nil {
		e.recorder.IncPersistFailure()
	}
	e.setLED(e.presenceLED, false)
	e.setLED(e.runningLED, false)
}

func (e *Engine) setLED(ind presence.Indicator, on bool) {
	if ind != nil {
		ind.Set(on)
	}
}
