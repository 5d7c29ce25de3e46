package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"schoolattend/internal/attendance"
	"schoolattend/internal/cloudinary"
	"schoolattend/internal/config"
	"schoolattend/internal/directory"
	"schoolattend/internal/jobs"
	"schoolattend/internal/queue"
	"schoolattend/internal/results"
	"schoolattend/internal/server"
	"schoolattend/internal/store"
)

func main() {
	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel)
	slog.SetDefault(log)

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, log); err != nil {
		log.Error("http server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.App, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, store.Options{
		Backend:         cfg.StoreBackend,
		DatabaseURL:     cfg.DatabaseURL,
		CredentialsFile: cfg.CredentialsFile,
		ProjectID:       cfg.ProjectID,
		StartupRetries:  cfg.StartupRetries,
		Logger:          log,
	})
	if err != nil {
		return err
	}
	defer backend.Close()

	att := attendance.NewService(backend, log)
	deps := server.Deps{
		Config:     cfg,
		Store:      backend,
		Attendance: att,
		Directory:  directory.NewService(backend, log),
		Results:    results.NewService(backend),
		Log:        log,
	}

	if cfg.QueueBackend == "redis" {
		redisClient := store.NewRedis(cfg.RedisAddr)
		defer redisClient.Close()
		if err := redisClient.WaitReady(ctx, cfg.StartupRetries, log); err != nil {
			return err
		}
		deps.Redis = redisClient
		deps.Queue = queue.NewRedisQueue(redisClient.Client, "")
		deps.Jobs = jobs.NewRedis(redisClient.Client, 0)
	} else {
		// Without a shared queue the API process runs the worker itself.
		q := queue.NewInMemory(64)
		tracker := jobs.NewMemory()
		deps.Queue, deps.Jobs = q, tracker
		go func() {
			if err := jobs.NewWorker(tracker, att, log).Run(ctx, q); err != nil {
				log.Error("in-process worker failed", "error", err)
			}
		}()
	}

	if cfg.Cloudinary.CloudName != "" {
		cdn := cloudinary.New(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, cfg.Cloudinary.Folder)
		if cdn.Configured() {
			deps.Archive = cdn
			log.Info("cloudinary archive configured", "cloud", cfg.Cloudinary.CloudName)
		}
	} else {
		log.Info("cloudinary not configured; uploads are not archived")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      server.NewRouter(deps),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "port", cfg.HTTPPort, "store", cfg.StoreBackend, "queue", cfg.QueueBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server forced shutdown", "error", err)
	}
	log.Info("server exited")
	return nil
}
