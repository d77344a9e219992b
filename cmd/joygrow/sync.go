package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replay the pending offline queue now",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		userID, err := a.requireUser()
		if err != nil {
			return err
		}

		ctx := cmd.Context()

		// One probe so the monitor reflects reality before we decide.
		if err := a.remote.Ping(ctx); err != nil {
			return fmt.Errorf("remote unreachable: %w", err)
		}

		res, err := a.engine.SyncAll(ctx, userID)
		if err != nil {
			return fmt.Errorf("sync pass aborted: %w", err)
		}
		if res.Skipped {
			fmt.Println("A sync pass is already running.")
			return nil
		}

		pending, err := a.queue.CountPending(ctx, userID)
		if err != nil {
			return err
		}
		fmt.Printf("Synced %d item(s) (%d via conflict), %d failed, %d deferred, %d still pending.\n",
			res.Synced, res.Conflicts, res.Failed, res.Deferred, pending)
		return nil
	},
}
