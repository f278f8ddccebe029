// cmd/presence-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/LianruiSun/JobboCat/internal/common/config"
	"github.com/LianruiSun/JobboCat/internal/common/database"
	"github.com/LianruiSun/JobboCat/internal/common/logger"
	"github.com/LianruiSun/JobboCat/internal/common/observability"
	"github.com/LianruiSun/JobboCat/internal/presence"
	"github.com/LianruiSun/JobboCat/internal/stats"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting presence server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("presenceStore", cfg.Presence.Store),
	)

	obs := observability.New("presence-server")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Presence store (strategy selected by configuration) ---
	var store presence.Store
	switch cfg.Presence.Store {
	case "local":
		zapLog.Info("Using in-process presence store; counts reset on restart")
		store = presence.NewLocalStore()
	default:
		var redisClient *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return redisClient.Ping(pingCtx)
		}, 5, 2*time.Second, zapLog, "Redis initialization")
		if err != nil {
			zapLog.Fatal("redis init failed", zap.Error(err))
		}
		defer redisClient.Close()
		store = presence.NewRedisStore(redisClient, cfg.Presence.Key)
	}

	// --- Postgres for session records and aggregates ---
	var pgClient *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pgClient, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return pgClient.Ping(pingCtx)
	}, 5, 2*time.Second, zapLog, "Postgres initialization")
	if err != nil {
		zapLog.Fatal("postgres init failed", zap.Error(err))
	}
	defer pgClient.Close()

	presenceService := presence.NewService(store, cfg.Presence.Window(), cfg.Presence.Grace(), log)
	heartbeatHandler := presence.NewHandler(presenceService, obs, log)

	statsService := stats.NewService(pgClient.GetDB(), log)
	statsHandler := stats.NewHandler(statsService, log)

	mux := http.NewServeMux()
	mux.Handle("/heartbeat", heartbeatHandler)
	mux.HandleFunc("/focusing", statsHandler.Focusing)
	mux.HandleFunc("/stats/users", statsHandler.TotalUsers)
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      mux,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// pprof on a separate listener when configured
	if cfg.Server.MetricsAddress != "" {
		go func() {
			zapLog.Info("Debug server listening", zap.String("address", cfg.Server.MetricsAddress))
			if err := http.ListenAndServe(cfg.Server.MetricsAddress, nil); err != nil {
				zapLog.Warn("debug server stopped", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLog.Info("Shutdown complete")
}
