package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var offlineCmd = &cobra.Command{
	Use:   "offline [on|off]",
	Short: "Toggle the manual offline override",
	Long: `Toggle the manual offline override.

While the override is on, every repository operation behaves as if the
network were down: writes land locally and queue for replay. Turning
the override off lets the daemon resume syncing on its next probe.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var offline bool
		switch args[0] {
		case "on":
			offline = true
		case "off":
			offline = false
		default:
			return fmt.Errorf("expected on or off, got %q", args[0])
		}

		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.monitor.SetManualOffline(cmd.Context(), offline); err != nil {
			return err
		}
		if offline {
			fmt.Println("Manual offline override enabled.")
		} else {
			fmt.Println("Manual offline override cleared.")
		}
		return nil
	},
}
