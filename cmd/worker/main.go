package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/endrithotii/daskann/common/id"
	"github.com/endrithotii/daskann/common/llm"
	"github.com/endrithotii/daskann/common/logger"
	"github.com/endrithotii/daskann/common/otel"
	"github.com/endrithotii/daskann/core/config"
	"github.com/endrithotii/daskann/core/db"
	"github.com/endrithotii/daskann/internal/queue"
	"github.com/endrithotii/daskann/internal/service"
	"github.com/endrithotii/daskann/internal/store"
	"github.com/endrithotii/daskann/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "daskann worker starting",
		"env", cfg.Env,
		"sweep_interval", cfg.Sweep.Interval,
		"batch_size", cfg.Sweep.BatchSize)

	// Initialize snowflake ID generator (use different node ID than server)
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	var (
		publisher service.NotificationPublisher
		lock      worker.Locker
	)
	if cfg.Redis.Enabled() {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
			os.Exit(1)
		}

		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		slog.InfoContext(ctx, "redis connected",
			"stream", cfg.Redis.NotificationStream,
			"lock_key", cfg.Redis.SweepLockKey)

		publisher = queue.NewPublisher(redisClient, cfg.Redis.NotificationStream, slog.Default())
		lock = queue.NewLock(redisClient, cfg.Redis.SweepLockKey, cfg.Redis.SweepLockTTL)
	}

	var analysisLLM llm.Client
	if cfg.AnalysisLLM.Enabled() {
		analysisLLM, err = llm.New(llm.Config{
			APIKey:  cfg.AnalysisLLM.APIKey,
			BaseURL: cfg.AnalysisLLM.BaseURL,
			Model:   cfg.AnalysisLLM.Model,
			Timeout: cfg.AnalysisLLM.Timeout,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to create analysis llm client", "error", err)
			os.Exit(1)
		}
	} else {
		slog.WarnContext(ctx, "analysis llm not configured, discussions close without consensus")
	}

	// The worker never moderates, so it has no moderation client.
	services := service.NewServices(
		store.NewStores(database.Queries()),
		service.NewTxRunner(database),
		analysisLLM,
		nil,
		cfg,
		publisher,
	)

	sweeper := worker.NewSweeper(services.Sweep(), lock, worker.SweeperConfig{
		Interval:   cfg.Sweep.Interval,
		RunOnStart: true,
	})

	runCtx, stopRun := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		sweeper.Run(runCtx)
		close(done)
	}()

	slog.InfoContext(ctx, "sweeper initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	go sweeper.Stop()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded, abandoning current sweep")
		stopRun()
	case <-done:
	}
	stopRun()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(ctx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
     _           _
  __| | __ _ ___| | ____ _ _ __  _ __
 / _' |/ _' / __| |/ / _' | '_ \| '_ \
| (_| | (_| \__ \   < (_| | | | | | | |
 \__,_|\__,_|___/_|\_\__,_|_| |_|_| |_|  worker
`
