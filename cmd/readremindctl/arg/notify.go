package arg

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SoarinFerret/ReadRemind/internal/ipc"
)

func init() {
	rootCmd.AddCommand(notifyCmd)
}

var notifyCmd = &cobra.Command{
	Use:   "notify <message>",
	Short: "Send a test notification",
	Long:  "Send a custom message through every notifier readremindd has configured",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args, " ")

		conn, obj, err := monitorObject()
		if err != nil {
			return err
		}
		defer conn.Close()

		call := obj.Call(ipc.InterfaceName+".SendNotification", 0, message)
		if call.Err != nil {
			return fmt.Errorf("failed to send notification: %w", call.Err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Notification sent: %s\n", message)
		return nil
	},
}
