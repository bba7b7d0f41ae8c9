// Package logging builds the daemon's slog logger and holds the attribute
// keys shared across packages.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// Canonical attribute keys.
const (
	KeyPresent  = "present"
	KeyElapsed  = "elapsed"
	KeyMessage  = "message"
	KeyPath     = "path"
	KeyDistance = "distance_cm"
	KeyError    = "error"
)

func Present(p bool) slog.Attr          { return slog.Bool(KeyPresent, p) }
func Elapsed(d time.Duration) slog.Attr { return slog.Duration(KeyElapsed, d) }
func Message(m string) slog.Attr        { return slog.String(KeyMessage, m) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Distance(cm float64) slog.Attr     { return slog.Float64(KeyDistance, cm) }
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

// New creates the application logger writing to stderr. format is "text"
// (default) or "json".
func New(level slog.Level, format string) (*slog.Logger, error) {
	return newWithWriter(os.Stderr, level, format)
}

func newWithWriter(w io.Writer, level slog.Level, format string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
