package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/categories"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/reviews"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/env"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/mailer"
	"github.com/angelmondragon/storefront-backend/pkg/mailqueue"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mailMetrics := metrics.NewMailMetrics(registry)

	smtpSender, err := mailer.NewSMTP(cfg.SMTP, logg, mailMetrics)
	if err != nil {
		logg.Error(ctx, "failed to configure smtp", err)
		os.Exit(1)
	}
	mailQueue, err := mailqueue.NewQueue(redisClient, redisClient.QueueKey(cfg.MailQueue.Name), mailMetrics)
	if err != nil {
		logg.Error(ctx, "failed to create mail queue", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:   users.NewRepository(dbClient.DB()),
		Notifier:   smtpSender,
		Dispatcher: mailQueue,
		App:        cfg.App,
		JWTConfig:  cfg.JWT,
		Passwords:  cfg.Password,
		Auth:       cfg.Auth,
		Logger:     logg,
		Metrics:    metrics.NewAuthMetrics(registry),
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	categoryRepo := categories.NewRepository(dbClient.DB())
	categoryService, err := categories.NewService(categoryRepo)
	if err != nil {
		logg.Error(ctx, "failed to create category service", err)
		os.Exit(1)
	}

	productRepo := products.NewRepository(dbClient.DB())
	productService, err := products.NewService(productRepo, categoryRepo)
	if err != nil {
		logg.Error(ctx, "failed to create product service", err)
		os.Exit(1)
	}

	reviewService, err := reviews.NewService(dbClient, reviews.NewRepository(dbClient.DB()), productRepo)
	if err != nil {
		logg.Error(ctx, "failed to create review service", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(orders.ServiceParams{
		Tx:       dbClient,
		Orders:   orders.NewRepository(dbClient.DB()),
		Products: productRepo,
		Config:   cfg.Orders,
	})
	if err != nil {
		logg.Error(ctx, "failed to create order service", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg,
			routes.Services{
				Auth:       authService,
				Categories: categoryService,
				Products:   productService,
				Reviews:    reviewService,
				Orders:     orderService,
			},
			routes.Observability{HTTP: metrics.NewHTTPMetrics(registry), Gatherer: registry},
			controllers.ReadinessCheck{Name: "database", Pinger: dbClient},
			controllers.ReadinessCheck{Name: "redis", Pinger: redisClient},
		),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}
}
