package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"resumepager/internal/api"
	"resumepager/internal/auth"
	"resumepager/internal/config"
	"resumepager/internal/database"
	"resumepager/internal/engine"
	"resumepager/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	log.Printf("api bootstrapped with db host=%s port=%d db=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}
	log.Printf("database ready")

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer asynqClient.Close()

	tokens, err := auth.NewTokenService(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatalf("init token service: %v", err)
	}

	eng, err := engine.Open(cfg.Browser, cfg.Pagination.Options(), logger)
	if err != nil {
		log.Fatalf("open measurement engine: %v", err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Error("close measurement surface failed", slog.Any("error", err))
		}
	}()

	deps := api.Deps{
		DB:              db,
		Queue:           asynqClient,
		Storage:         storageClient,
		Paginator:       eng.Paginator,
		Tokens:          tokens,
		Counter:         redisClient,
		Subscriber:      redisClient,
		Options:         cfg.Pagination.Options(),
		PreviewDebounce: cfg.Preview.Debounce,
		PresignTTL:      cfg.MinIO.PresignTTL,
		AllowedOrigins:  cfg.API.AllowedOrigins,
		Logger:          logger,
	}
	if cfg.Clamd.Address != "" {
		deps.Scanner = api.NewClamdScanner(cfg.Clamd.Address)
	}

	router := api.NewRouter(logger)
	api.RegisterRoutes(router, deps)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("api listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server stopped", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown api server", slog.Any("error", err))
	}
}
