// Command gridctl observes and steers a running gridsim through its API.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/talgya/gridworld/internal/console"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var apiURL, adminKey string

	root := &cobra.Command{
		Use:           "gridctl",
		Short:         "Observe and steer a running gridsim",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&apiURL, "url", envOrDefault("GRIDSIM_API_URL", "http://localhost:8080"), "gridsim API base URL")
	root.PersistentFlags().StringVar(&adminKey, "admin-key", os.Getenv("GRIDSIM_API_ADMIN_KEY"), "bearer token for intents")

	actor := func() (*console.Actor, error) {
		if adminKey == "" {
			return nil, fmt.Errorf("an admin key is required (--admin-key or GRIDSIM_API_ADMIN_KEY)")
		}
		return console.NewActor(apiURL, adminKey), nil
	}

	root.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print a summary of the grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := console.NewObserver(apiURL).Observe(cmd.Context())
			if err != nil {
				return err
			}
			for _, line := range console.Summary(snap, console.Triage(snap)) {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "pause",
		Short: "Toggle the simulation's pause state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := actor()
			if err != nil {
				return err
			}
			paused, err := a.TogglePause(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), map[bool]string{true: "paused", false: "running"}[paused])
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "speed <index>",
		Short: "Select a speed preset (0 slowest, 6 fastest)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("speed index: %w", err)
			}
			a, err := actor()
			if err != nil {
				return err
			}
			applied, err := a.SetSpeed(cmd.Context(), index)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "speed %d\n", applied)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "quit",
		Short: "Shut the simulation down",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := actor()
			if err != nil {
				return err
			}
			return a.Quit(cmd.Context())
		},
	})

	var (
		interval   time.Duration
		memoryPath string
		dryRun     bool
	)
	watch := &cobra.Command{
		Use:   "watch",
		Short: "Observe, triage and act on an interval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := &console.Watcher{
				Observer: console.NewObserver(apiURL),
				Memory:   console.LoadMemory(memoryPath),
				Out:      cmd.OutOrStdout(),
			}
			if !dryRun {
				a, err := actor()
				if err != nil {
					return err
				}
				w.Actor = a
			}

			slog.Info("waiting for gridsim API", "url", apiURL)
			if err := console.WaitForAPI(ctx, w.Observer, 2*time.Minute); err != nil {
				return err
			}
			return w.Run(ctx, interval)
		},
	}
	watch.Flags().DurationVar(&interval, "interval", 30*time.Second, "time between cycles")
	watch.Flags().StringVar(&memoryPath, "memory", "", "file keeping recent cycles across runs")
	watch.Flags().BoolVar(&dryRun, "dry-run", false, "report decisions without acting")
	root.AddCommand(watch)

	return root
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
