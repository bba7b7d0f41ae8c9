package ipc

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Bus names accepted by Connect.
const (
	BusSession = "session"
	BusSystem  = "system"
)

// Connect opens the named bus.
func Connect(bus string) (*dbus.Conn, error) {
	switch bus {
	case BusSystem:
		conn, err := dbus.ConnectSystemBus()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to system bus: %w", err)
		}
		return conn, nil
	case BusSession, "":
		conn, err := dbus.ConnectSessionBus()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to session bus: %w", err)
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("unknown bus %q", bus)
	}
}

// Serve exports m on bus until ctx is cancelled.
func Serve(ctx context.Context, bus string, m *Monitor) error {
	conn, err := Connect(bus)
	if err != nil {
		return err
	}
	defer conn.Close()

	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("name %s already taken", ServiceName)
	}

	if err := conn.Export(m, dbus.ObjectPath(ObjectPath), InterfaceName); err != nil {
		return fmt.Errorf("failed to export interface: %w", err)
	}

	<-ctx.Done()
	return nil
}
