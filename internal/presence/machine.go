package presence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SoarinFerret/ReadRemind/internal/logging"
)

// Notifier delivers a user-facing message.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// Indicator mirrors the presence state on an output such as an LED.
type Indicator interface {
	Set(present bool)
}

// Saver persists the full state record.
type Saver interface {
	Save(ctx context.Context, s State) error
}

// Clock returns the current instant.
type Clock func() time.Time

// Policy holds the nag thresholds.
type Policy struct {
	NoReadThreshold time.Duration // present longer than this: "time to read"
	ReadThreshold   time.Duration // absent longer than this: "right on"
	MinNagInterval  time.Duration
	// HoldNagClock leaves LastNag untouched when a check lands inside
	// MinNagInterval, so the clock measures time since the last evaluated check
	// instead of the last check of any kind.
	HoldNagClock bool
}

// DefaultPolicy returns 24h / 120m / 60m.
func DefaultPolicy() Policy {
	return Policy{
		NoReadThreshold: 24 * time.Hour,
		ReadThreshold:   120 * time.Minute,
		MinNagInterval:  60 * time.Minute,
	}
}

// NagKind identifies which nag fired during a check.
type NagKind string

const (
	NagNone   NagKind = ""
	NagNoRead NagKind = "no_read"
	NagRead   NagKind = "read"
)

// Result describes what a single Observe call did.
type Result struct {
	Transitioned bool
	Present      bool
	// Elapsed is the time spent in the prior state on a transition, or the time
	// in the current state when a nag check evaluated its thresholds.
	Elapsed time.Duration
	// RateLimited is set when the nag check ran inside MinNagInterval.
	RateLimited bool
	Nag         NagKind
	Message     string
	PersistErr  error
	NotifyErr   error
}

// Machine is the presence state machine. Observe must be called from a single
// goroutine; Snapshot may be called from any goroutine.
type Machine struct {
	mu     sync.RWMutex
	state  State
	policy Policy

	saver     Saver
	indicator Indicator
	notifier  Notifier
	clock     Clock
	logger    *slog.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock overrides time.Now.
func WithClock(c Clock) Option {
	return func(m *Machine) { m.clock = c }
}

// WithPolicy overrides DefaultPolicy.
func WithPolicy(p Policy) Option {
	return func(m *Machine) { m.policy = p }
}

// WithLogger overrides slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// New creates a Machine starting from initial, which is either a restored
// record or Fresh(). A nil indicator is replaced by a no-op.
func New(initial State, saver Saver, indicator Indicator, notifier Notifier, opts ...Option) *Machine {
	m := &Machine{
		state:     initial,
		policy:    DefaultPolicy(),
		saver:     saver,
		indicator: indicator,
		notifier:  notifier,
		clock:     time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.indicator == nil {
		m.indicator = nopIndicator{}
	}
	return m
}

// Observe feeds the latest inferred presence into the machine.
func (m *Machine) Observe(ctx context.Context, presentNow bool) Result {
	now := m.now()

	if presentNow == m.state.Present {
		return m.nagCheck(ctx, now)
	}

	prev := m.state.LastTransition
	m.mu.Lock()
	m.state.Present = presentNow
	m.state.LastTransition = now
	m.mu.Unlock()

	res := Result{
		Transitioned: true,
		Present:      presentNow,
		Elapsed:      now.Sub(prev),
	}
	res.PersistErr = m.persist(ctx)
	m.indicator.Set(presentNow)

	if presentNow {
		res.Message = setDownMessage(res.Elapsed)
	} else {
		res.Message = pickedUpMessage(res.Elapsed)
	}
	res.NotifyErr = m.notify(ctx, res.Message)
	return res
}

// nagCheck runs on every observation without a transition. The nag clock is
// reset on every call, whether or not a message went out, unless the policy
// holds it during the rate-limit window.
func (m *Machine) nagCheck(ctx context.Context, now time.Time) Result {
	res := Result{Present: m.state.Present}
	policy := m.Policy()

	if now.Sub(m.state.LastNag) < policy.MinNagInterval {
		res.RateLimited = true
		if policy.HoldNagClock {
			return res
		}
	} else {
		res.Elapsed = m.state.TimeInState(now)
		switch {
		case m.state.Present && res.Elapsed > policy.NoReadThreshold:
			res.Nag = NagNoRead
			res.Message = noReadMessage(res.Elapsed)
		case !m.state.Present && res.Elapsed > policy.ReadThreshold:
			res.Nag = NagRead
			res.Message = readMessage(res.Elapsed)
		}
		if res.Message != "" {
			res.NotifyErr = m.notify(ctx, res.Message)
		}
	}

	m.mu.Lock()
	m.state.LastNag = now
	m.mu.Unlock()
	res.PersistErr = m.persist(ctx)
	return res
}

// now reads the clock, never returning an instant earlier than one already
// recorded so both timestamps stay non-decreasing.
func (m *Machine) now() time.Time {
	t := m.clock()
	if latest := m.state.latest(); t.Before(latest) {
		m.logger.Warn("Clock is behind recorded state, holding time",
			slog.Time("clock", t), slog.Time("recorded", latest))
		return latest
	}
	return t
}

func (m *Machine) persist(ctx context.Context) error {
	if m.saver == nil {
		return nil
	}
	if err := m.saver.Save(ctx, m.state); err != nil {
		m.logger.Error("Failed to persist presence state", logging.Err(err))
		return err
	}
	return nil
}

func (m *Machine) notify(ctx context.Context, message string) error {
	m.logger.Info("Notification", logging.Message(message))
	if m.notifier == nil {
		return nil
	}
	if err := m.notifier.Send(ctx, message); err != nil {
		m.logger.Error("Failed to send notification", logging.Message(message), logging.Err(err))
		return err
	}
	return nil
}

// SyncIndicator drives the indicator from the current state, used at startup
// after restoring a persisted record.
func (m *Machine) SyncIndicator() {
	m.indicator.Set(m.state.Present)
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Policy returns the thresholds currently in effect.
func (m *Machine) Policy() Policy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.policy
}

// SetPolicy replaces the thresholds. Takes effect on the next Observe.
func (m *Machine) SetPolicy(p Policy) {
	m.mu.Lock()
	m.policy = p
	m.mu.Unlock()
}

// Flush writes the current state once more, used at shutdown.
func (m *Machine) Flush(ctx context.Context) error {
	return m.persist(ctx)
}

type nopIndicator struct{}

func (nopIndicator) Set(bool) {}
