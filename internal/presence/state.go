// Package presence turns a stream of book present/absent observations into
// transition and nag notifications while keeping a durable, restart-safe record
// of the current state.
//
// The package has no hardware, filesystem or network dependencies: the sensor
// side feeds booleans into Machine.Observe, and persistence, the presence LED and
// the notification transport are injected collaborators. Time is injectable so
// every threshold can be exercised with a controlled clock.
package presence

import "time"

// State is the record persisted after every mutation.
//
// A zero LastTransition or LastNag means "never". Time.Sub saturates at the
// maximum Duration, so elapsed time measured from the zero instant is simply
// enormous rather than overflowing.
type State struct {
	Present        bool
	LastTransition time.Time
	LastNag        time.Time
}

// Fresh returns the state used on the very first run.
func Fresh() State {
	return State{}
}

// TimeInState returns how long the book has been in its current state at now.
func (s State) TimeInState(now time.Time) time.Duration {
	return now.Sub(s.LastTransition)
}

// latest returns the most recent instant recorded in the state.
func (s State) latest() time.Time {
	if s.LastNag.After(s.LastTransition) {
		return s.LastNag
	}
	return s.LastTransition
}
