package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThomasGit2000/trading-bot/internal/api"
	"github.com/ThomasGit2000/trading-bot/internal/api/job"
	"github.com/ThomasGit2000/trading-bot/internal/app"
	"github.com/ThomasGit2000/trading-bot/internal/metrics"
	"github.com/ThomasGit2000/trading-bot/internal/snapshot"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	serveReplay string
	servePreset string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the backtest API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveReplay, "replay", "", "replay a backtest of SYMBOL into /api/state on startup")
	serveCmd.Flags().StringVar(&servePreset, "preset", "", "preset used by --replay")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var reg *metrics.Registry
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	a, err := app.Open(ctx, cfg, log, app.WithMetrics(reg))
	if err != nil {
		return err
	}
	defer a.Close()

	jobs := job.NewStore(cfg.Server.MaxJobs, time.Duration(cfg.Server.JobTTLHours)*time.Hour)

	server, err := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		APIKey:      cfg.Server.APIKey,
		MetricsPath: cfg.Metrics.Path,
		ReplayDelay: cfg.Server.ReplayDelay,
	}, api.Dependencies{App: a, Jobs: jobs, Metrics: reg}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	if cfg.Snapshot.Redis.Enabled {
		pub := snapshot.NewRedisPublisher(cfg.Snapshot.Redis.RedisConfig, log)
		defer pub.Close()
		if err := pub.HealthCheck(ctx); err != nil {
			log.Warn("redis unreachable, snapshots will be retried per publish", zap.Error(err))
		}
		go func() {
			if err := pub.Run(ctx, a.Hub()); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("snapshot forwarder stopped", zap.Error(err))
			}
		}()
	}

	if serveReplay != "" {
		go func() {
			req := app.RunRequest{Symbol: serveReplay, Preset: servePreset}
			if _, err := a.Replay(ctx, req, cfg.Server.ReplayDelay); err != nil && ctx.Err() == nil {
				log.Error("replay failed", zap.String("symbol", serveReplay), zap.Error(err))
			}
		}()
	}

	log.Info("starting tradebot server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("metrics", reg != nil),
	)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("shutting down tradebot server")
	cancel()
	a.Hub().Close()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	return server.Shutdown(shutdownCtx)
}
