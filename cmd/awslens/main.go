package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awslens/awslens/internal/api"
	"github.com/awslens/awslens/internal/config"
	"github.com/awslens/awslens/internal/logging"
	"github.com/awslens/awslens/internal/monitor"
	"github.com/awslens/awslens/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	flagHost     string
	flagPort     int
	flagDemo     bool
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:     "awslens",
	Short:   "AWSLens - read-only AWS monitoring dashboard",
	Long:    `AWSLens is a single-binary dashboard for EC2 and RDS inventory, CloudWatch health and Cost Explorer spend across every enabled AWS region`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		runServer(cmd)
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagHost, "host", "", "bind address (overrides AWSLENS_HOST)")
	rootCmd.Flags().IntVar(&flagPort, "port", 0, "listen port (overrides AWSLENS_PORT)")
	rootCmd.Flags().BoolVar(&flagDemo, "demo", false, "serve the built-in demo fleet, no AWS credentials needed")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("AWSLens %s\n", Version)
		if BuildTime != "unknown" {
			fmt.Printf("Built: %s\n", BuildTime)
		}
		if GitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", GitCommit)
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command) {
	// Baseline logger so failures before config.Load are still structured
	logging.Init(logging.Config{
		Format:    "auto",
		Level:     "info",
		Component: "awslens",
	})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	applyFlagOverrides(cmd, cfg)

	// Re-initialize logging with configuration-driven settings
	logging.Init(logging.Config{
		Format:    cfg.LogFormat,
		Level:     cfg.LogLevel,
		Component: "awslens",
	})

	log.Info().
		Str("version", Version).
		Strs("regions", cfg.Regions).
		Bool("demo", cfg.DemoMode).
		Bool("auth", cfg.AuthEnabled()).
		Msg("Starting AWSLens")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wsHub := websocket.NewHub(nil)
	wsHub.SetAllowedOrigins(cfg.ResolveOrigins())

	mon := monitor.New(cfg, wsHub)

	// Initial payload for new WebSocket clients, same shape as broadcasts.
	wsHub.SetStateGetter(func() any {
		return mon.GetState()
	})

	router := api.NewRouter(cfg, mon, wsHub, Version)

	// ReadHeaderTimeout instead of ReadTimeout: a ReadTimeout deadline
	// persists on the connection after the WebSocket upgrade and kills
	// long-lived subscriptions.
	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      0, // WebSocket writes manage their own deadlines
		IdleTimeout:       120 * time.Second,
	}

	watcher, err := config.NewWatcher(cfg, func(changes config.ReloadedSettings) {
		router.UpdateAuth(changes.AuthUser, changes.AuthPass, changes.APIToken)
		mon.SetMutes(changes.MutePatterns)
		logging.Init(logging.Config{
			Format:    cfg.LogFormat,
			Level:     changes.LogLevel,
			Component: "awslens",
		})
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create config watcher, env changes will require a restart")
	}
	if watcher != nil {
		if err := watcher.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start config watcher")
		}
		defer watcher.Stop()
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		wsHub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		return mon.Start(ctx)
	})

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// SIGHUP re-reads the env file without a restart.
	reloadChan := make(chan os.Signal, 1)
	signal.Notify(reloadChan, syscall.SIGHUP)
	g.Go(func() error {
		for {
			select {
			case <-reloadChan:
				log.Info().Msg("Received SIGHUP, reloading configuration")
				if watcher != nil {
					watcher.Reload()
				}
			case <-ctx.Done():
				return nil
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Component terminated with error")
		_ = mon.Close()
		os.Exit(1)
	}

	if err := mon.Close(); err != nil {
		log.Warn().Err(err).Msg("Sample store close error")
	}

	log.Info().Msg("Server stopped")
}

// applyFlagOverrides lets explicit CLI flags win over environment config.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = flagHost
	}
	if flags.Changed("port") {
		cfg.Port = flagPort
	}
	if flags.Changed("demo") {
		cfg.DemoMode = flagDemo
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
}
