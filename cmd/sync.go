package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ardiansyahn/crm-backoffice/internal/scheduler"
	"github.com/ardiansyahn/crm-backoffice/pkg/logger"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch all collections from the backend",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fail(err)
		}
		defer app.Close()

		ctx := context.Background()
		if _, err := app.requireSession(ctx); err != nil {
			fail(err)
		}

		if err := app.Cache.Refresh(ctx, true); err != nil {
			fail(err)
		}

		snap := app.Cache.Snapshot()
		fmt.Printf("Synced at %s\n", snap.LastUpdated.Format("15:04:05"))
		for name, count := range snap.Counts() {
			fmt.Printf("  %-14s %d\n", name, count)
		}
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep collections synced on an interval",
	Long:  `Run a foreground refresh loop that re-syncs every collection on the configured interval until interrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fail(err)
		}
		defer app.Close()

		ctx, cancel := context.WithCancel(logger.With(context.Background(), "component", "watch"))
		defer cancel()

		if _, err := app.requireSession(ctx); err != nil {
			fail(err)
		}

		sched := scheduler.New(app.Config.Refresh.Interval, app.Config.Refresh.Enabled, app.Logger)
		sched.Register("datacache", func(ctx context.Context) {
			if err := app.Cache.Refresh(ctx, false); err != nil {
				logger.From(ctx).Warn("background refresh failed", "error", err)
			}
		})
		// a dead session makes further cycles pointless
		app.Sessions.OnLogout(func() { sched.SetEnabled(false) })

		if err := app.Cache.Refresh(ctx, true); err != nil {
			app.Logger.Warn("initial refresh failed", "error", err)
		}

		go sched.Run(ctx)

		app.Logger.Info("watching for changes, press Ctrl+C to stop")
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		app.Logger.Info("received signal, shutting down", "signal", sig)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(watchCmd)
}
