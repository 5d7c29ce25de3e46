package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"schoolattend/internal/attendance"
	"schoolattend/internal/config"
	"schoolattend/internal/jobs"
	"schoolattend/internal/queue"
	"schoolattend/internal/store"
)

// Worker consumes queued uploads from Redis and ingests them.
func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.QueueBackend != "redis" {
		log.Error("worker needs QUEUE_BACKEND=redis; the memory queue is served by the API process")
		os.Exit(1)
	}

	backend, err := store.Open(ctx, store.Options{
		Backend:         cfg.StoreBackend,
		DatabaseURL:     cfg.DatabaseURL,
		CredentialsFile: cfg.CredentialsFile,
		ProjectID:       cfg.ProjectID,
		StartupRetries:  cfg.StartupRetries,
		Logger:          log,
	})
	if err != nil {
		log.Error("store connect failed", "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()
	if err := redisClient.WaitReady(ctx, cfg.StartupRetries, log); err != nil {
		log.Error("redis connect failed", "error", err)
		return
	}

	w := jobs.NewWorker(jobs.NewRedis(redisClient.Client, 0), attendance.NewService(backend, log), log)
	if err := w.Run(ctx, queue.NewRedisQueue(redisClient.Client, "")); err != nil {
		log.Error("queue consume init failed", "error", err)
	}
}
