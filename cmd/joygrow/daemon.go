package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ruzzzzzzzz/JoyGrow-sub002/internal/syncengine"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the background sync daemon",
	Long: `Run the background sync daemon.

The daemon probes connectivity, watches the manual offline flag,
replays the pending queue on every reconnect and on a fixed interval,
and serves health and metrics endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		userID, err := a.requireUser()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a.monitor.OnOnline(func(ctx context.Context) {
			res, err := a.engine.SyncAll(ctx, userID)
			if err != nil {
				a.log.Warn().Err(err).Msg("reconnect sync pass aborted")
				return
			}
			if !res.Skipped {
				a.log.Info().Int("synced", res.Synced).Msg("reconnect sync pass finished")
			}
		})
		if err := a.monitor.Start(ctx); err != nil {
			return err
		}

		scheduler := syncengine.NewScheduler(a.engine, a.monitor, a.cfg.SyncInterval,
			a.log.With().Str("component", "scheduler").Logger())
		if err := scheduler.Start(ctx, userID); err != nil {
			return err
		}
		defer scheduler.Stop()

		srv := newAdminServer(a)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error().Err(err).Msg("admin server failed")
			}
		}()

		a.log.Info().
			Str("listen", a.cfg.ListenAddr).
			Str("user", userID).
			Msg("daemon started")

		<-ctx.Done()
		a.log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Warn().Err(err).Msg("admin server shutdown failed")
		}
		a.monitor.Wait()
		return nil
	},
}

func newAdminServer(a *app) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","online":%t,"syncing":%t}`,
			a.monitor.Online(), a.engine.Syncing())
	})
	return &http.Server{
		Addr:         a.cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}
