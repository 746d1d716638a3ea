// Command gridsim runs the grid simulation: weather, economy and the
// power-plant/factory network, with an HTTP API for observers.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/talgya/gridworld/internal/api"
	"github.com/talgya/gridworld/internal/config"
	"github.com/talgya/gridworld/internal/engine"
	"github.com/talgya/gridworld/internal/persistence"
	"github.com/talgya/gridworld/internal/telemetry"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		journalPath string
		speed       int
		port        int
	)

	root := &cobra.Command{
		Use:           "gridsim",
		Short:         "Run the grid simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			flags := cmd.Flags()
			if flags.Changed("speed") {
				cfg.SpeedIndex = speed
			}
			if flags.Changed("port") {
				cfg.API.Port = port
			}
			if flags.Changed("journal") {
				cfg.Journal.Path = journalPath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	flags := root.Flags()
	flags.StringVar(&configPath, "config", "", "config file path (default: ./gridsim.yaml)")
	flags.IntVar(&speed, "speed", 0, "speed preset, 0 (slowest) to 6")
	flags.IntVar(&port, "port", 0, "HTTP API port, 0 disables the API")
	flags.StringVar(&journalPath, "journal", "", "sqlite journal path, empty disables it")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gridsim %s\n", version)
			fmt.Printf("  commit:  %s\n", commit)
			fmt.Printf("  built:   %s\n", date)
		},
	})
	return root
}

// setupLogging installs a text handler on a terminal and JSON otherwise.
func setupLogging(level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: telemetry.ReplaceLevel}
	var h slog.Handler
	if fd := os.Stdout.Fd(); isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func run(ctx context.Context, cfg *config.Config) error {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := setupLogging(level)

	factories, err := cfg.FactoryConfigs()
	if err != nil {
		return err
	}
	opts := engine.Options{
		Seed:         cfg.Seed,
		SpeedIndex:   cfg.SpeedIndex,
		SinkCapacity: cfg.Sink.Capacity,
		Plant:        cfg.PlantConfig(),
		Factories:    factories,
		Logger:       logger,
	}

	// ── Journal ──────────────────────────────────────────────────────
	var history api.History
	if path := cfg.Journal.Path; path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create journal dir: %w", err)
			}
		}
		db, err := persistence.Open(path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer db.Close()
		slog.Info("journal opened", "path", path)
		opts.Journal, opts.Recorder, history = db, db, db
	}

	sim, err := engine.NewSimulation(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	sim.Start(ctx)

	// ── HTTP API ─────────────────────────────────────────────────────
	apiCtx, apiCancel := context.WithCancel(context.Background())
	defer apiCancel()
	apiErr := make(chan error, 1)
	if cfg.API.Port > 0 {
		if cfg.API.AdminKey == "" {
			slog.Warn("GRIDSIM_API_ADMIN_KEY not set, intent endpoints disabled")
		}
		srv := api.NewServer(sim, history, cfg.API)
		go func() { apiErr <- srv.ListenAndServe(apiCtx) }()
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.API.Port)
	}

	fmt.Printf("Grid is live: %d factories, seed %d. (Ctrl+C to stop)\n", len(sim.Factories), sim.Seed())

	select {
	case <-ctx.Done():
		slog.Info("received signal, shutting down")
	case <-sim.Done():
		slog.Info("quit intent received, shutting down")
	case err := <-apiErr:
		if err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}

	apiCancel()
	err = sim.Shutdown()
	fmt.Println("Simulation stopped.")
	return err
}
