package presence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatElapsed renders d for notification text, e.g.
// "1 day(s) 2 hour(s) 5 minute(s) 12 second(s)". Leading zero units are
// dropped. Seconds keep any fractional part so the text is exact.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	days := int64(d / (24 * time.Hour))
	hours := int64(d/time.Hour) % 24
	minutes := int64(d/time.Minute) % 60
	seconds := formatSeconds(d % time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%d day(s) %d hour(s) %d minute(s) %s second(s)", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%d hour(s) %d minute(s) %s second(s)", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%d minute(s) %s second(s)", minutes, seconds)
	default:
		return fmt.Sprintf("%s second(s)", seconds)
	}
}

// formatSeconds prints d (under a minute) as whole seconds, or with a
// trimmed decimal fraction down to the nanosecond.
func formatSeconds(d time.Duration) string {
	whole := int64(d / time.Second)
	frac := int64(d % time.Second)
	if frac == 0 {
		return strconv.FormatInt(whole, 10)
	}
	return strings.TrimRight(fmt.Sprintf("%d.%09d", whole, frac), "0")
}

func setDownMessage(elapsed time.Duration) string {
	return fmt.Sprintf("Book was set down after %s", FormatElapsed(elapsed))
}

func pickedUpMessage(elapsed time.Duration) string {
	return fmt.Sprintf("Book was picked up after %s", FormatElapsed(elapsed))
}

func noReadMessage(inState time.Duration) string {
	return fmt.Sprintf("You haven't picked up your book for %s. Time to read!", FormatElapsed(inState))
}

func readMessage(inState time.Duration) string {
	return fmt.Sprintf("Have you really been reading for %s? Right on!", FormatElapsed(inState))
}
