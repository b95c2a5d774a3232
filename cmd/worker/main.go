package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"resumepager/internal/config"
	"resumepager/internal/database"
	"resumepager/internal/engine"
	"resumepager/internal/metrics"
	"resumepager/internal/storage"
	"resumepager/internal/tasks"
	"resumepager/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Println("database connection ready for worker")

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
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

	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}
	server := asynq.NewServer(redisOpt, asynq.Config{
		// 测量页面同一时间只服务一个会话，更高的并发只会排队。
		Concurrency: 2,
	})

	exportHandler := worker.NewExportTaskHandler(db, eng.Paginator, eng.Exporter, storageClient, redisClient, logger)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeResumeExport, exportHandler)

	logger.Info("worker service started", slog.String("redis_addr", redisAddr))
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
