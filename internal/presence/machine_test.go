package presence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SoarinFerret/ReadRemind/internal/logging"
)

type fakeClock struct{ t time.Time }

func newClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time                { return c.t }
func (c *fakeClock) Advance(d time.Duration)       { c.t = c.t.Add(d) }
func (c *fakeClock) Set(t time.Time)               { c.t = t }
func (c *fakeClock) Ago(d time.Duration) time.Time { return c.t.Add(-d) }

type fakeSaver struct {
	saves []State
	err   error
}

func (s *fakeSaver) Save(_ context.Context, st State) error {
	s.saves = append(s.saves, st)
	return s.err
}

func (s *fakeSaver) last() State { return s.saves[len(s.saves)-1] }

type fakeIndicator struct{ calls []bool }

func (i *fakeIndicator) Set(present bool) { i.calls = append(i.calls, present) }

type fakeNotifier struct {
	messages []string
	err      error
}

func (n *fakeNotifier) Send(_ context.Context, message string) error {
	n.messages = append(n.messages, message)
	return n.err
}

type harness struct {
	clock     *fakeClock
	saver     *fakeSaver
	indicator *fakeIndicator
	notifier  *fakeNotifier
	machine   *Machine
}

func newHarness(initial State, clock *fakeClock, opts ...Option) *harness {
	h := &harness{
		clock:     clock,
		saver:     &fakeSaver{},
		indicator: &fakeIndicator{},
		notifier:  &fakeNotifier{},
	}
	opts = append([]Option{WithClock(clock.Now), WithLogger(logging.NewNop())}, opts...)
	h.machine = New(initial, h.saver, h.indicator, h.notifier, opts...)
	return h
}

var base = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

func TestObserve_TransitionReportsExactDuration(t *testing.T) {
	clock := newClock(base)
	h := newHarness(State{Present: true, LastTransition: base.Add(-3*time.Hour - 7*time.Minute - 42*time.Second), LastNag: base}, clock)

	res := h.machine.Observe(context.Background(), false)

	assert.True(t, res.Transitioned)
	assert.Equal(t, 3*time.Hour+7*time.Minute+42*time.Second, res.Elapsed)
	assert.Equal(t, []string{"Book was picked up after 3 hour(s) 7 minute(s) 42 second(s)"}, h.notifier.messages)

	st := h.machine.Snapshot()
	assert.False(t, st.Present)
	assert.Equal(t, base, st.LastTransition)
	assert.Equal(t, base, st.LastNag, "nag clock untouched on a transition")
}

func TestObserve_SetDownMessageKeepsSubMinuteRemainder(t *testing.T) {
	clock := newClock(base)
	h := newHarness(State{Present: false, LastTransition: base.Add(-26*time.Hour - 59*time.Second - 500*time.Millisecond)}, clock)

	res := h.machine.Observe(context.Background(), true)

	assert.Equal(t, 26*time.Hour+59*time.Second+500*time.Millisecond, res.Elapsed)
	assert.Equal(t, []string{"Book was set down after 1 day(s) 2 hour(s) 0 minute(s) 59.5 second(s)"}, h.notifier.messages)
}

func TestObserve_SetDownMessage(t *testing.T) {
	clock := newClock(base)
	h := newHarness(State{Present: false, LastTransition: base.Add(-45 * time.Minute)}, clock)

	h.machine.Observe(context.Background(), true)

	assert.Equal(t, []string{"Book was set down after 45 minute(s) 0 second(s)"}, h.notifier.messages)
}

func TestObserve_TransitionPersistsBeforeIndicatorAndSkipsNag(t *testing.T) {
	clock := newClock(base)
	// Both thresholds long exceeded; a nag check would fire if it ran.
	h := newHarness(State{Present: false, LastTransition: base.Add(-48 * time.Hour)}, clock)

	res := h.machine.Observe(context.Background(), true)

	require.Len(t, h.saver.saves, 1)
	assert.True(t, h.saver.last().Present)
	assert.Equal(t, base, h.saver.last().LastTransition)
	assert.Equal(t, []bool{true}, h.indicator.calls)
	assert.Equal(t, NagNone, res.Nag)
	assert.Len(t, h.notifier.messages, 1)
}

func TestObserve_NoTransitionIsIdempotent(t *testing.T) {
	clock := newClock(base)
	start := State{Present: true, LastTransition: base.Add(-time.Hour), LastNag: base.Add(-time.Minute)}
	h := newHarness(start, clock)

	for i := 0; i < 10; i++ {
		clock.Advance(time.Second)
		res := h.machine.Observe(context.Background(), true)
		assert.False(t, res.Transitioned)
	}

	st := h.machine.Snapshot()
	assert.True(t, st.Present)
	assert.Equal(t, start.LastTransition, st.LastTransition)
	assert.Equal(t, clock.Now(), st.LastNag)
	assert.Empty(t, h.indicator.calls)
}

func TestObserve_ThresholdCrossing(t *testing.T) {
	tests := []struct {
		name      string
		present   bool
		inState   time.Duration
		sinceNag  time.Duration
		wantNag   NagKind
		wantMsg   string
		wantLimit bool
	}{
		{
			name:     "present past no-read threshold",
			present:  true,
			inState:  25 * time.Hour,
			sinceNag: 2 * time.Hour,
			wantNag:  NagNoRead,
			wantMsg:  "You haven't picked up your book for 1 day(s) 1 hour(s) 0 minute(s) 0 second(s). Time to read!",
		},
		{
			name:      "present past threshold but nagged recently",
			present:   true,
			inState:   25 * time.Hour,
			sinceNag:  10 * time.Minute,
			wantNag:   NagNone,
			wantLimit: true,
		},
		{
			name:     "present under threshold",
			present:  true,
			inState:  23 * time.Hour,
			sinceNag: 2 * time.Hour,
			wantNag:  NagNone,
		},
		{
			name:     "absent past read threshold",
			present:  false,
			inState:  150 * time.Minute,
			sinceNag: 61 * time.Minute,
			wantNag:  NagRead,
			wantMsg:  "Have you really been reading for 2 hour(s) 30 minute(s) 0 second(s)? Right on!",
		},
		{
			name:     "absent exactly at read threshold",
			present:  false,
			inState:  120 * time.Minute,
			sinceNag: 2 * time.Hour,
			wantNag:  NagNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newClock(base)
			h := newHarness(State{
				Present:        tt.present,
				LastTransition: clock.Ago(tt.inState),
				LastNag:        clock.Ago(tt.sinceNag),
			}, clock)

			res := h.machine.Observe(context.Background(), tt.present)

			assert.Equal(t, tt.wantNag, res.Nag)
			assert.Equal(t, tt.wantLimit, res.RateLimited)
			if tt.wantMsg != "" {
				assert.Equal(t, []string{tt.wantMsg}, h.notifier.messages)
			} else {
				assert.Empty(t, h.notifier.messages)
			}
			// The nag clock always advances and is persisted.
			assert.Equal(t, base, h.machine.Snapshot().LastNag)
			require.Len(t, h.saver.saves, 1)
			assert.Equal(t, base, h.saver.last().LastNag)
		})
	}
}

func TestObserve_NagRateLimit(t *testing.T) {
	clock := newClock(base)
	h := newHarness(State{Present: true, LastTransition: base.Add(-30 * time.Hour)}, clock)

	gaps := []time.Duration{
		0, 10 * time.Minute, 59 * time.Minute, 61 * time.Minute, time.Second,
		2 * time.Hour, 30 * time.Minute, 60 * time.Minute, 5 * time.Minute,
	}
	var sentAt []time.Time
	var checks int
	for _, gap := range gaps {
		clock.Advance(gap)
		res := h.machine.Observe(context.Background(), true)
		checks++
		if res.Message != "" {
			sentAt = append(sentAt, clock.Now())
		}
		assert.Equal(t, clock.Now(), h.machine.Snapshot().LastNag)
	}

	require.NotEmpty(t, sentAt)
	for i := 1; i < len(sentAt); i++ {
		assert.GreaterOrEqual(t, sentAt[i].Sub(sentAt[i-1]), DefaultPolicy().MinNagInterval)
	}
	assert.Len(t, h.saver.saves, checks)
}

func TestObserve_FirstRunNagsImmediately(t *testing.T) {
	clock := newClock(base)
	h := newHarness(Fresh(), clock)

	res := h.machine.Observe(context.Background(), false)

	assert.Equal(t, NagRead, res.Nag)
	require.Len(t, h.notifier.messages, 1)
	assert.Contains(t, h.notifier.messages[0], "Have you really been reading for")
}

func TestObserve_FirstTransitionFromSentinel(t *testing.T) {
	clock := newClock(base)
	h := newHarness(Fresh(), clock)

	res := h.machine.Observe(context.Background(), true)

	assert.True(t, res.Transitioned)
	assert.Equal(t, time.Duration(1<<63-1), res.Elapsed)
	assert.Equal(t, base, h.machine.Snapshot().LastTransition)
}

func TestObserve_RestartContinuity(t *testing.T) {
	T := time.Date(2024, 6, 3, 8, 0, 0, 0, time.Local)
	clock := newClock(T.Add(5 * time.Minute))
	h := newHarness(State{Present: false, LastTransition: T, LastNag: T}, clock)

	res := h.machine.Observe(context.Background(), true)

	assert.Equal(t, 5*time.Minute, res.Elapsed)
	assert.Equal(t, []string{"Book was set down after 5 minute(s) 0 second(s)"}, h.notifier.messages)
	assert.Equal(t, T.Add(5*time.Minute), h.machine.Snapshot().LastTransition)
}

func TestObserve_IndicatorFollowsTransitionsOnly(t *testing.T) {
	clock := newClock(base)
	h := newHarness(State{LastTransition: base, LastNag: base}, clock)

	seq := []bool{false, true, true, true, false, false, true}
	for _, p := range seq {
		clock.Advance(time.Second)
		h.machine.Observe(context.Background(), p)
	}

	assert.Equal(t, []bool{true, false, true}, h.indicator.calls)
}

func TestObserve_ClockBehindHoldsTime(t *testing.T) {
	clock := newClock(base)
	h := newHarness(State{Present: true, LastTransition: base, LastNag: base}, clock)

	clock.Set(base.Add(-time.Hour))
	res := h.machine.Observe(context.Background(), false)

	assert.Equal(t, time.Duration(0), res.Elapsed)
	st := h.machine.Snapshot()
	assert.Equal(t, base, st.LastTransition)
	assert.Equal(t, base, st.LastNag)
}

func TestObserve_PersistFailureDoesNotStopMachine(t *testing.T) {
	clock := newClock(base)
	h := newHarness(State{Present: false, LastTransition: base.Add(-time.Hour)}, clock)
	h.saver.err = errors.New("disk full")

	res := h.machine.Observe(context.Background(), true)

	assert.Error(t, res.PersistErr)
	assert.True(t, h.machine.Snapshot().Present)
	assert.Equal(t, []bool{true}, h.indicator.calls)
	assert.Len(t, h.notifier.messages, 1)
}

func TestObserve_NotifyFailureKeepsBookkeeping(t *testing.T) {
	clock := newClock(base)
	h := newHarness(State{Present: true, LastTransition: base.Add(-25 * time.Hour), LastNag: base.Add(-2 * time.Hour)}, clock)
	h.notifier.err = errors.New("network unreachable")

	res := h.machine.Observe(context.Background(), true)

	assert.Error(t, res.NotifyErr)
	assert.Equal(t, NagNoRead, res.Nag)
	assert.Equal(t, base, h.machine.Snapshot().LastNag)
	assert.Len(t, h.saver.saves, 1)
}

func TestObserve_HoldNagClock(t *testing.T) {
	clock := newClock(base)
	policy := DefaultPolicy()
	policy.HoldNagClock = true
	h := newHarness(State{Present: true, LastTransition: base.Add(-30 * time.Hour), LastNag: base}, clock, WithPolicy(policy))

	// Polling every minute: the clock is held, so the nag fires once the
	// interval since the last evaluated check has passed.
	var sent int
	for i := 0; i < 61; i++ {
		clock.Advance(time.Minute)
		res := h.machine.Observe(context.Background(), true)
		if res.Message != "" {
			sent++
			assert.Equal(t, 59, i)
		}
	}
	assert.Equal(t, 1, sent)
	assert.Equal(t, base.Add(60*time.Minute), h.machine.Snapshot().LastNag)
	assert.Len(t, h.saver.saves, 1)
}

func TestSetPolicy(t *testing.T) {
	clock := newClock(base)
	h := newHarness(State{Present: false, LastTransition: base.Add(-30 * time.Minute)}, clock)

	h.machine.SetPolicy(Policy{NoReadThreshold: time.Hour, ReadThreshold: 10 * time.Minute, MinNagInterval: time.Minute})
	res := h.machine.Observe(context.Background(), false)

	assert.Equal(t, NagRead, res.Nag)
	assert.Equal(t, 10*time.Minute, h.machine.Policy().ReadThreshold)
}

func TestSyncIndicatorAndFlush(t *testing.T) {
	clock := newClock(base)
	h := newHarness(State{Present: true, LastTransition: base}, clock)

	h.machine.SyncIndicator()
	require.NoError(t, h.machine.Flush(context.Background()))

	assert.Equal(t, []bool{true}, h.indicator.calls)
	require.Len(t, h.saver.saves, 1)
	assert.True(t, h.saver.last().Present)
}

func TestNew_NilCollaborators(t *testing.T) {
	m := New(Fresh(), nil, nil, nil, WithLogger(logging.NewNop()))
	res := m.Observe(context.Background(), true)
	assert.True(t, res.Transitioned)
	assert.NoError(t, res.PersistErr)
	assert.NoError(t, res.NotifyErr)
}
