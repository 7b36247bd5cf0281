// Package cli implements the marketsnap command tree.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/tdvu/marketsnap/internal/control"
	"github.com/tdvu/marketsnap/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
	requeue bool
)

var rootCmd = &cobra.Command{
	Use:   "marketsnap",
	Short: "Marketplace valuation snapshot service",
	Long: `Marketsnap tracks a marketplace collection: it syncs assets, orders and
trades, prices every proto's floor, and persists periodic valuation snapshots.`,
	Run: runService,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&requeue, "requeue", true, "enable requeue processing of failed protos")
}

// initLogger installs the default slog handler: tint for terminals, JSON
// when the config asks for it.
func initLogger(level slog.Level, format string) {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
		})
	}
	slog.SetDefault(slog.New(handler))
}

func loadConfig() *config.AppConfig {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		initLogger(slog.LevelInfo, "")
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}
	initLogger(slogLevel, cfg.Logging.Format)

	return cfg
}

func controlConfig(cfg *config.AppConfig) control.Config {
	return control.Config{
		Port:           cfg.Server.Port,
		Exchange:       cfg.Exchange,
		Market:         cfg.Market,
		Redis:          cfg.Redis,
		Database:       cfg.Database,
		RequeueEnabled: requeue && cfg.Market.Requeue,
	}
}

func runService(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	app, err := control.NewService(controlConfig(cfg))
	if err != nil {
		slog.Error("Failed to initialize service", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start service", "error", err)
		os.Exit(1)
	}

	slog.Info("Service started", "config", cfgPath, "collection", cfg.Market.Collection)

	sig := <-sigChan
	slog.Info("Received signal, shutting down...", "signal", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
}
