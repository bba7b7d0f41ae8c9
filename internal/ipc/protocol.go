// Package ipc exposes the monitor over D-Bus so readremindctl can query it.
package ipc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/SoarinFerret/ReadRemind/internal/presence"
)

const (
	ObjectPath    = "/io/github/soarinferret/readremind"
	InterfaceName = "io.github.soarinferret.readremind.Monitor"
	ServiceName   = "io.github.soarinferret.readremind"
)

// Snapshotter provides a copy of the current presence state.
type Snapshotter interface {
	Snapshot() presence.State
}

// Sender delivers a message through the daemon's notifiers.
type Sender interface {
	Send(ctx context.Context, message string) error
}

// Monitor is the object exported on the bus.
type Monitor struct {
	Source   Snapshotter
	Notifier Sender
	Clock    func() time.Time
	Timeout  time.Duration
	// Context bounds method calls; cancelling it aborts in-flight sends.
	// Nil means context.Background().
	Context context.Context
}

func (m *Monitor) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now()
}

// GetStatus returns the current state as JSON.
func (m *Monitor) GetStatus() (string, *dbus.Error) {
	data, err := json.Marshal(NewStatus(m.Source.Snapshot(), m.now()))
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return string(data), nil
}

// SendNotification pushes message through the configured notifiers, used to
// check delivery end to end.
func (m *Monitor) SendNotification(message string) *dbus.Error {
	if m.Notifier == nil {
		return dbus.MakeFailedError(errNoNotifier)
	}
	ctx := m.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}
	if err := m.Notifier.Send(ctx, message); err != nil {
		return dbus.MakeFailedError(err)
	}
	return nil
}
