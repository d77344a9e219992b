package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/blob"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/config"
	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/localstore"
)

var (
	resetForce     bool
	resetQueueOnly bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the local store, its persisted image and the queue",
	Long: `Discard the local store, its persisted image and the queue.

Unsynced offline mutations are lost. The next start initializes a
fresh empty store. With --queue-only, only the active user's queue
items are removed and the cached data stays.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetForce {
			return fmt.Errorf("refusing to discard local data without --force")
		}

		if resetQueueOnly {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			userID, err := a.requireUser()
			if err != nil {
				return err
			}
			if err := a.queue.Clear(cmd.Context(), userID); err != nil {
				return err
			}
			fmt.Printf("Cleared sync queue for %s.\n", userID)
			return nil
		}

		cfg, err := config.Load(flagConfig)
		if err != nil {
			return err
		}

		store, err := blob.NewFileStore(cfg.BlobDir())
		if err != nil {
			return err
		}
		if err := store.Delete(localstore.DefaultImageKey); err != nil {
			return fmt.Errorf("failed to delete persisted image: %w", err)
		}
		if err := os.Remove(cfg.DatabasePath()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove working database: %w", err)
		}
		if err := os.Remove(cfg.FlagPath()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove offline flag: %w", err)
		}

		fmt.Println("Local store reset.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "confirm discarding unsynced local data")
	resetCmd.Flags().BoolVar(&resetQueueOnly, "queue-only", false, "clear the active user's sync queue, keep cached data")
}
