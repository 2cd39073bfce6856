package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/lowkeylabs/authgate/internal/config"
	"github.com/lowkeylabs/authgate/internal/ratelimit/store"
	"github.com/lowkeylabs/authgate/internal/server"
	"github.com/lowkeylabs/authgate/internal/storage/postgres"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	userStore, err := postgres.NewUserStore(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("init database", zap.Error(err))
	}
	defer userStore.Close()

	counters, err := newCounterStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("init rate-window store", zap.Error(err))
	}
	defer func() { _ = counters.Close() }()

	srv := server.New(cfg, userStore, counters, logger)

	go func() {
		logger.Info("authgate listening", zap.String("addr", cfg.HTTPAddress()))
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Environment == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newCounterStore picks the rate-window backend: Redis when configured,
// otherwise in-process counters.
func newCounterStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Store, error) {
	if cfg.RedisAddr == "" {
		logger.Info("using in-memory rate-window store")
		return store.NewMemoryStore(), nil
	}
	logger.Info("using redis rate-window store", zap.String("addr", cfg.RedisAddr))
	return store.NewRedisStore(ctx, cfg.RedisAddr, os.Getenv("REDIS_PASSWORD"), 0, "authgate:")
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}
}
