package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/alerts"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/config"
	addProduct "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/http-server/handlers/products/add"
	deleteProduct "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/http-server/handlers/products/delete"
	getProducts "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/http-server/handlers/products/get"
	getByID "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/http-server/handlers/products/get_by_id"
	syncStatus "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/http-server/handlers/sync/status"
	triggerSync "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/http-server/handlers/sync/trigger"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/lib/jwt"
	sl "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/lib/logger"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/metrics"
	authMiddlware "github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/middleware/auth"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/notifier"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/paapi"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/rabbitmq"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/scheduler"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/storage/postgres"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/storage/redis"
	"github.com/skoufo82/pinterest-affiliate-platform-sub000/internal/syncjob"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting price sync service", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	jwtParser := jwt.New(cfg.JWTSecret)

	redisClient, err := redis.New(ctx, cfg.Redis.Addr, cfg.Redis.Db, cfg.Redis.DefaultTTL)
	if err != nil {
		log.Error("failed to connect redis", sl.Err(err))
		os.Exit(1)
	}
	defer redisClient.Close()

	postgresClient, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", sl.Err(err))
		os.Exit(1)
	}
	defer postgresClient.Close()

	rabbitMQClient, err := rabbitmq.New(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("failed to connect rabbitMQ", sl.Err(err))
		os.Exit(1)
	}
	defer rabbitMQClient.Close()

	if err := rabbitMQClient.DeclareQueue(cfg.RabbitMQ.AlertsQueue); err != nil {
		log.Error("failed to declare alerts queue", sl.Err(err))
		os.Exit(1)
	}

	pricingClient, err := paapi.New(paapi.Config{
		Endpoint:    cfg.PAAPI.Endpoint,
		AccessKey:   cfg.PAAPI.AccessKey,
		SecretKey:   cfg.PAAPI.SecretKey,
		PartnerTag:  cfg.PAAPI.PartnerTag,
		Marketplace: cfg.PAAPI.Marketplace,
		Timeout:     cfg.PAAPI.Timeout,
	})
	if err != nil {
		log.Error("failed to create pricing client", sl.Err(err))
		os.Exit(1)
	}

	alertSink := alerts.NewSink(rabbitmq.NewProducer(
		rabbitMQClient.Channel,
		cfg.RabbitMQ.AlertsQueue,
	))

	metricsSink := metrics.NewSink(log, postgresClient)

	orchestrator := syncjob.New(
		log,
		postgresClient,
		pricingClient,
		alertSink,
		metricsSink,
		syncjob.Options{
			BatchSize:      cfg.Sync.BatchSize,
			RequestsPerSec: cfg.Sync.RequestsPerSec,
			MaxAttempts:    cfg.Sync.MaxAttempts,
			InitialDelay:   cfg.Sync.InitialDelay,
		},
	)

	runner := syncjob.NewRunner(log, orchestrator, redisClient, cfg.Sync.RunLockTTL)

	alertNotifier := notifier.New(
		log,
		rabbitmq.NewConsumer(
			rabbitMQClient.Channel,
			log,
			cfg.RabbitMQ.AlertsQueue,
			cfg.RabbitMQ.WorkerPoolSize,
		),
		notifier.SMTPConfig{
			Host:       cfg.SMTP.Host,
			Port:       cfg.SMTP.Port,
			User:       cfg.SMTP.User,
			Password:   cfg.SMTP.Password,
			From:       cfg.SMTP.From,
			Recipients: cfg.SMTP.Recipients,
		},
	)

	if err := alertNotifier.Run(ctx); err != nil {
		log.Error("failed to start alert notifier", sl.Err(err))
		os.Exit(1)
	}

	syncScheduler := scheduler.New(log, runner, cfg.Sync.Interval)
	go syncScheduler.Start(ctx)

	requestValidator := validator.New()

	router := setupRouter(
		log,
		requestValidator,
		postgresClient,
		redisClient,
		runner,
		*jwtParser,
	)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("server shutdown failed", sl.Err(err))
		}
	}()

	log.Info("http server listening", slog.String("address", cfg.HTTPServer.Address))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("http server failed", sl.Err(err))
		os.Exit(1)
	}

	log.Info("service stopped")
}

func setupRouter(
	log *slog.Logger,
	validate *validator.Validate,
	postgres *postgres.PostgresRepo,
	redis *redis.RedisRepo,
	runner *syncjob.Runner,
	jwtParser jwt.JWTParser,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(authMiddlware.AuthMiddleware(jwtParser))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/product", addProduct.New(log, postgres, validate))
	r.Get("/products", getProducts.New(log, postgres))
	r.Get("/product", getByID.New(log, postgres))
	r.Delete("/product", deleteProduct.New(log, postgres))

	r.Group(func(r chi.Router) {
		r.Use(authMiddlware.AdminOnly)

		r.Post("/sync", triggerSync.New(log, runner, validate))
		r.Get("/sync/status", syncStatus.New(log, redis))
	})

	return r
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
