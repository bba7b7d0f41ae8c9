package ipc

import (
	"errors"
	"time"

	"github.com/SoarinFerret/ReadRemind/internal/presence"
)

var errNoNotifier = errors.New("no notifier configured")

// Status is the JSON view of the monitor served over D-Bus and HTTP.
type Status struct {
	Present         bool       `json:"is_book_present"`
	LastStateChange *time.Time `json:"last_state_change,omitempty"`
	LastNagNotif    *time.Time `json:"last_nag_notif,omitempty"`
	// TimeInState is empty until the first transition has been seen.
	TimeInState        string  `json:"time_in_state,omitempty"`
	TimeInStateSeconds float64 `json:"time_in_state_seconds,omitempty"`
}

// NewStatus builds a Status for s as of now.
func NewStatus(s presence.State, now time.Time) Status {
	st := Status{Present: s.Present}
	if !s.LastTransition.IsZero() {
		changed := s.LastTransition
		st.LastStateChange = &changed
		inState := s.TimeInState(now)
		st.TimeInState = presence.FormatElapsed(inState)
		st.TimeInStateSeconds = inState.Seconds()
	}
	if !s.LastNag.IsZero() {
		nagged := s.LastNag
		st.LastNagNotif = &nagged
	}
	return st
}
