package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/endrithotii/daskann/common/id"
	"github.com/endrithotii/daskann/common/llm"
	"github.com/endrithotii/daskann/common/logger"
	"github.com/endrithotii/daskann/common/otel"
	"github.com/endrithotii/daskann/core/config"
	"github.com/endrithotii/daskann/core/db"
	"github.com/endrithotii/daskann/internal/http/middleware"
	httprouter "github.com/endrithotii/daskann/internal/http/router"
	"github.com/endrithotii/daskann/internal/queue"
	"github.com/endrithotii/daskann/internal/service"
	"github.com/endrithotii/daskann/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		// Can't use slog yet: OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "daskann server starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	if err := database.Migrate(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to apply migrations", "error", err)
		os.Exit(1)
	}

	// Left as a nil interface when Redis is not configured; a typed nil would be called.
	var publisher service.NotificationPublisher
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
		slog.InfoContext(ctx, "redis connected", "stream", cfg.Redis.NotificationStream)

		publisher = queue.NewPublisher(redisClient, cfg.Redis.NotificationStream, slog.Default())
	} else {
		slog.InfoContext(ctx, "redis disabled, notifications are inbox only")
	}

	analysisLLM := newLLMClient(ctx, "analysis", cfg.AnalysisLLM)
	moderationLLM := newLLMClient(ctx, "moderation", cfg.ModerationLLM)

	services := service.NewServices(
		store.NewStores(database.Queries()),
		service.NewTxRunner(database),
		analysisLLM,
		moderationLLM,
		cfg,
		publisher,
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Closing a discussion may wait on the analysis collaborator.
		WriteTimeout: cfg.AnalysisLLM.Timeout*2 + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

// newLLMClient returns nil when the collaborator has no API key.
func newLLMClient(ctx context.Context, name string, cfg config.LLMConfig) llm.Client {
	if !cfg.Enabled() {
		slog.WarnContext(ctx, "llm collaborator not configured", "collaborator", name)
		return nil
	}
	client, err := llm.New(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create llm client", "collaborator", name, "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "llm collaborator configured", "collaborator", name, "model", client.Model())
	return client
}

func setupRouter(cfg config.Config, services *service.Services) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		AdminAPIKey: cfg.AdminAPIKey,
	})

	return router
}

const banner = `
     _           _
  __| | __ _ ___| | ____ _ _ __  _ __
 / _' |/ _' / __| |/ / _' | '_ \| '_ \
| (_| | (_| \__ \   < (_| | | | | | | |
 \__,_|\__,_|___/_|\_\__,_|_| |_|_| |_|  server
`
