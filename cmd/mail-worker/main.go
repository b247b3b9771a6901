package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/instance"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/mailqueue"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "mail-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "mail-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
		"queue":    cfg.MailQueue.Name,
	})

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	mailMetrics := metrics.NewMailMetrics(registry)

	sender, err := mailer.NewSMTP(cfg.SMTP, logg, mailMetrics)
	requireResource(ctx, logg, "smtp", err)

	key := redisClient.QueueKey(cfg.MailQueue.Name)
	queue, err := mailqueue.NewQueue(redisClient, key, mailMetrics)
	requireResource(ctx, logg, "mail queue", err)

	worker, err := mailqueue.NewWorker(mailqueue.WorkerParams{
		Source:          redisClient,
		Requeue:         queue,
		Sender:          sender,
		Logger:          logg,
		PollTimeout:     cfg.MailQueue.PollTimeout,
		MaxAttempts:     cfg.MailQueue.MaxAttempts,
		RetryBackoff:    cfg.MailQueue.RetryBackoff,
		MaxRetryBackoff: cfg.MailQueue.MaxRetryBackoff,
	})
	requireResource(ctx, logg, "mail worker", err)

	if backlog, err := redisClient.Len(ctx, key); err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "could not read mail backlog")
	} else {
		logg.Info(logg.WithField(ctx, "backlog", backlog), "mail worker starting")
	}

	if cfg.Metrics.Enabled {
		go serveMetrics(ctx, logg, registry, cfg.App.Port)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "mail worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "mail worker shutting down gracefully")
}

func serveMetrics(ctx context.Context, logg *logger.Logger, gatherer prometheus.Gatherer, port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "metrics server stopped", err)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
