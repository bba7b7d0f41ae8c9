package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SoarinFerret/ReadRemind/internal/presence"
)

// ErrMalformed is returned when a stored record cannot be decoded.
var ErrMalformed = errors.New("malformed state record")

// naiveLayout is the offset-less ISO-8601 form, interpreted in local time.
const naiveLayout = "2006-01-02T15:04:05.999999999"

// neverText is how the "never" sentinel is written.
const neverText = "0001-01-01T00:00:00"

// record is the on-disk shape of presence.State.
type record struct {
	IsBookPresent   *bool      `json:"is_book_present"`
	LastStateChange *timestamp `json:"last_state_change"`
	LastNagNotif    *timestamp `json:"last_nag_notif"`
}

// timestamp is an ISO-8601 instant. Non-zero values are written in local time
// with nanoseconds and offset.
type timestamp time.Time

func (t timestamp) MarshalText() ([]byte, error) {
	tt := time.Time(t)
	if tt.IsZero() {
		return []byte(neverText), nil
	}
	return []byte(tt.Local().Format(time.RFC3339Nano)), nil
}

func (t *timestamp) UnmarshalText(text []byte) error {
	parsed, err := parseTimestamp(string(text))
	if err != nil {
		return err
	}
	*t = timestamp(parsed)
	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		var naiveErr error
		parsed, naiveErr = time.ParseInLocation(naiveLayout, s, time.Local)
		if naiveErr != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
	}

	if isNever(parsed) {
		return time.Time{}, nil
	}
	return parsed, nil
}

// isNever reports whether t is midnight on 0001-01-01 in its own zone.
func isNever(t time.Time) bool {
	y, m, d := t.Date()
	return y == 1 && m == time.January && d == 1 &&
		t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

// Encode serializes s as the indented JSON record.
func Encode(s presence.State) ([]byte, error) {
	present := s.Present
	changed := timestamp(s.LastTransition)
	nagged := timestamp(s.LastNag)
	return json.MarshalIndent(record{
		IsBookPresent:   &present,
		LastStateChange: &changed,
		LastNagNotif:    &nagged,
	}, "", "    ")
}

// Decode parses a JSON record. Every field must be present.
func Decode(data []byte) (presence.State, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return presence.State{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var missing []string
	if r.IsBookPresent == nil {
		missing = append(missing, "is_book_present")
	}
	if r.LastStateChange == nil {
		missing = append(missing, "last_state_change")
	}
	if r.LastNagNotif == nil {
		missing = append(missing, "last_nag_notif")
	}
	if len(missing) > 0 {
		return presence.State{}, fmt.Errorf("%w: missing %s", ErrMalformed, strings.Join(missing, ", "))
	}

	return presence.State{
		Present:        *r.IsBookPresent,
		LastTransition: time.Time(*r.LastStateChange),
		LastNag:        time.Time(*r.LastNagNotif),
	}, nil
}
