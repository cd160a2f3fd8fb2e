package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/rental-hub/rental-hub/internal/api/http"
	appNotification "github.com/rental-hub/rental-hub/internal/application/notification"
	appQuote "github.com/rental-hub/rental-hub/internal/application/quote"
	"github.com/rental-hub/rental-hub/internal/config"
	"github.com/rental-hub/rental-hub/internal/infrastructure/bus"
	"github.com/rental-hub/rental-hub/internal/infrastructure/email"
	"github.com/rental-hub/rental-hub/internal/infrastructure/kafka"
	"github.com/rental-hub/rental-hub/internal/infrastructure/postgres"
	"github.com/rental-hub/rental-hub/internal/infrastructure/push"
	"github.com/rental-hub/rental-hub/internal/infrastructure/watch"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// repositories
	quoteRepo := postgres.NewQuoteRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)
	retryRepo := postgres.NewRetryRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	// delivery channels
	pushClient := push.NewClient(cfg.PushEndpoint, cfg.PushTimeout)
	var emailClient appNotification.EmailSender = email.NoopSender{}
	if cfg.EmailEnabled {
		emailClient = email.NewClient(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	}

	// services
	dispatcher := appNotification.NewDispatcher(notificationRepo, retryRepo, userRepo, pushClient, emailClient, logger)
	retryProcessor := appNotification.NewRetryProcessor(retryRepo, quoteRepo, dispatcher, nil, logger)
	notificationSvc := appNotification.NewService(notificationRepo, logger)
	watchHub := watch.NewHub(quoteRepo, logger)

	handlers := []bus.Handler{dispatcher, watchHub}
	var kafkaPublisher *kafka.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		handlers = append(handlers, kafkaPublisher)
	}
	transitionBus := bus.New(256, logger, handlers...)
	quoteSvc := appQuote.NewService(quoteRepo, transitionBus, logger)

	// API server
	apiServer := httpapi.NewServer(quoteSvc, notificationSvc, retryProcessor, watchHub, cfg.DrainBatchSize)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // SSE streams stay open indefinitely
		IdleTimeout:  60 * time.Second,
	}

	busCtx, stopBus := context.WithCancel(context.Background())
	go transitionBus.Run(busCtx)

	// background retry sweep
	go func() {
		ticker := time.NewTicker(cfg.DrainInterval)
		defer ticker.Stop()
		for {
			select {
			case <-busCtx.Done():
				return
			case <-ticker.C:
				if _, _, err := retryProcessor.Drain(context.Background(), cfg.DrainBatchSize); err != nil {
					logger.Warn().Err(err).Msg("retry sweep failed")
				}
			}
		}
	}()

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
	stopBus()
	if kafkaPublisher != nil {
		_ = kafkaPublisher.Close()
	}
}
