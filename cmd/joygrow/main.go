// Command joygrow runs the offline-first sync engine for the JoyGrow
// study app: a background daemon that keeps the local store and the
// remote data service converged, plus one-shot management commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagUser   string
)

var rootCmd = &cobra.Command{
	Use:   "joygrow",
	Short: "Offline-first sync engine for the JoyGrow study app",
	Long: `joygrow keeps a local embedded database and the remote JoyGrow data
service converged. Mutations made while offline are queued locally and
replayed in order once connectivity returns.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ./joygrow.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "active user id (overrides config)")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(offlineCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(resetCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
