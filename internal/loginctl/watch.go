// Package loginctl follows systemd-logind suspend and resume signals.
package loginctl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	managerPath      = "/org/freedesktop/login1"
	managerInterface = "org.freedesktop.login1.Manager"
	prepareForSleep  = managerInterface + ".PrepareForSleep"
)

// WatchSleep forwards PrepareForSleep signals to events: true when the system
// is about to suspend, false once it has resumed. It returns when ctx is done.
func WatchSleep(ctx context.Context, events chan<- bool, logger *slog.Logger) error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer conn.Close()

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(managerPath),
		dbus.WithMatchInterface(managerInterface),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		return fmt.Errorf("add match failed: %w", err)
	}

	c := make(chan *dbus.Signal, 10)
	conn.Signal(c)
	defer conn.RemoveSignal(c)

	return forward(ctx, c, events, logger)
}

func forward(ctx context.Context, signals <-chan *dbus.Signal, events chan<- bool, logger *slog.Logger) error {
	for {
		select {
		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			sleeping, ok := parseSleep(sig)
			if !ok {
				continue
			}
			if sleeping {
				logger.Info("System is going to sleep")
			} else {
				logger.Info("System has woken up")
			}
			select {
			case events <- sleeping:
			case <-ctx.Done():
				return nil
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func parseSleep(sig *dbus.Signal) (sleeping bool, ok bool) {
	if sig == nil || sig.Name != prepareForSleep || len(sig.Body) == 0 {
		return false, false
	}
	sleeping, ok = sig.Body[0].(bool)
	return sleeping, ok
}
