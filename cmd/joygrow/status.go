package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connectivity and queue state",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()

		reachable := a.remote.Ping(ctx) == nil
		fmt.Printf("Remote reachable:  %t\n", reachable)
		fmt.Printf("Manual offline:    %t\n", a.monitor.ManualOffline())

		if a.cfg.UserID == "" {
			fmt.Println("Active user:       (none)")
			return nil
		}
		fmt.Printf("Active user:       %s\n", a.cfg.UserID)

		pending, err := a.queue.CountPending(ctx, a.cfg.UserID)
		if err != nil {
			return err
		}
		fmt.Printf("Pending queue:     %d item(s)\n", pending)
		return nil
	},
}
