package arg

import (
	"fmt"
	"os"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/SoarinFerret/ReadRemind/internal/ipc"
)

var bus string

var rootCmd = &cobra.Command{
	Use:   "readremindctl",
	Short: "readremindctl is the command line tool for ReadRemind",
	Long: `readremindctl talks to a running readremindd over D-Bus.
You can use it to check whether the book is on its shelf or to send a test notification.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&bus, "bus", ipc.BusSession, "D-Bus to connect to: session or system")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func monitorObject() (*dbus.Conn, dbus.BusObject, error) {
	conn, err := ipc.Connect(bus)
	if err != nil {
		return nil, nil, err
	}
	return conn, conn.Object(ipc.ServiceName, dbus.ObjectPath(ipc.ObjectPath)), nil
}
