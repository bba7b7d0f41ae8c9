package notify

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Desktop shows messages through org.freedesktop.Notifications on the
// session bus.
type Desktop struct {
	conn *dbus.Conn
}

// NewDesktop connects to the session bus of the user running the daemon.
func NewDesktop() (*Desktop, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Desktop{conn: conn}, nil
}

func (d *Desktop) Send(ctx context.Context, message string) error {
	obj := d.conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	call := obj.CallWithContext(ctx, "org.freedesktop.Notifications.Notify", 0,
		"ReadRemind",             // app_name
		uint32(0),                // replaces_id
		"accessories-dictionary", // app_icon
		"ReadRemind",             // summary
		message,                  // body
		[]string{},               // actions
		map[string]dbus.Variant{ // hints
			"urgency": dbus.MakeVariant(byte(1)), // normal urgency
		},
		int32(10000), // expire_timeout (10 seconds)
	)

	if call.Err != nil {
		return fmt.Errorf("failed to send desktop notification: %w", call.Err)
	}
	return nil
}

func (d *Desktop) Close() error {
	return d.conn.Close()
}
