package arg

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/SoarinFerret/ReadRemind/internal/ipc"
)

var rawStatus bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check if readremindd is running and show where the book is",
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, obj, err := monitorObject()
		if err != nil {
			return err
		}
		defer conn.Close()

		var result string
		if err := obj.Call(ipc.InterfaceName+".GetStatus", 0).Store(&result); err != nil {
			return fmt.Errorf("failed to call method: %w", err)
		}

		if rawStatus {
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		}
		var st ipc.Status
		if err := json.Unmarshal([]byte(result), &st); err != nil {
			return fmt.Errorf("malformed status: %w", err)
		}
		printStatus(cmd.OutOrStdout(), st)
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&rawStatus, "json", false, "print the raw JSON status")
	rootCmd.AddCommand(statusCmd)
}

func printStatus(w io.Writer, st ipc.Status) {
	where := "off the shelf"
	if st.Present {
		where = "on the shelf"
	}
	fmt.Fprintf(w, "Book:           %s\n", where)
	if st.LastStateChange == nil {
		fmt.Fprintln(w, "Last change:    never")
	} else {
		fmt.Fprintf(w, "Last change:    %s (%s ago)\n", st.LastStateChange.Format(time.DateTime), st.TimeInState)
	}
	if st.LastNagNotif == nil {
		fmt.Fprintln(w, "Last nag check: never")
	} else {
		fmt.Fprintf(w, "Last nag check: %s\n", st.LastNagNotif.Format(time.DateTime))
	}
}
