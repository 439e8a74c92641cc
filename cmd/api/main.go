package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"provider/internal/api"
	"provider/internal/config"
	"provider/internal/database"
	"provider/internal/domain"
	"provider/internal/events"
	"provider/internal/export"
	"provider/internal/locator"
	"provider/internal/logging"
	"provider/internal/metrics"
	"provider/internal/repository"
	"provider/internal/service"
	"provider/internal/webhook"
	"provider/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger, database.WithListingIDStart(cfg.Listings.IDStart))
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	webhookWorker := worker.NewWebhookWorker(
		db,
		webhook.NewSender(cfg.Webhooks.Timeout),
		redisClient,
		worker.RetryPolicyFromConfig(cfg.Webhooks),
		&logger,
		worker.WithPolling(cfg.Webhooks.PollInterval, cfg.Webhooks.BatchSize),
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		webhookWorker.Start(ctx)
	}()

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(db, cfg.Backup, &logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			backupService.Start(ctx)
		}()
	}

	eventBus := newEventBus(&logger)
	services := buildServices(cfg, db, newListingCache(cfg, redisClient, &logger), eventBus, webhookWorker, &logger)

	grpcServer, err := api.NewGRPCServer(&cfg.API, services.Bookings, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("create grpc server")
		return err
	}
	httpServer := api.NewHTTPServer(&cfg.API, db, services, &logger)

	startMetrics(ctx, cfg, &logger)

	err = startServers(ctx, grpcServer, httpServer, cfg, &logger)
	wg.Wait()
	return err
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// newListingCache prefers Redis and falls back to process memory.
func newListingCache(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.ListingCache {
	memory := repository.NewMemoryListingCache(cfg.Redis.CacheTTL)
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverListingCache(
		repository.NewRedisListingCache(redisClient, cfg.Redis.CacheTTL),
		memory,
		logger,
	)
}

// newEventBus counts every domain event and logs bookings.
func newEventBus(logger *zerolog.Logger) *events.EventBus {
	bus := events.NewEventBus()
	bus.Subscribe(events.Wildcard, func(e *events.Event) error {
		metrics.IncEvent(e.Type)
		return nil
	})

	eventLogger := logging.Component(logger, "events")
	logBooking := func(e *events.Event) error {
		var p events.BookingEventPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		eventLogger.Info().
			Str("type", e.Type).
			Int64("listing_id", p.ListingID).
			Int64("locator", p.Locator).
			Msg("booking event")
		return nil
	}
	bus.Subscribe(events.EventBookingConfirmed, logBooking)
	bus.Subscribe(events.EventBookingCancelled, logBooking)
	return bus
}

func buildServices(
	cfg *config.Config,
	db *database.DB,
	cache domain.ListingCache,
	bus *events.EventBus,
	notifier domain.OutboxNotifier,
	logger *zerolog.Logger,
) api.Services {
	return api.Services{
		Listings:  service.NewListingService(db, cache, bus, notifier, logger),
		Catalog:   service.NewCatalogService(db, cache, logger),
		Customers: service.NewCustomerService(db, logger),
		Bookings:  service.NewBookingService(db, locator.New(cfg.Locator.MaxAttempts), bus, notifier, logger),
		Webhooks:  service.NewWebhookService(db, logger),
		Exporter:  export.NewBookingExporter(cfg.Exports.SheetName),
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	if cfg.API.GRPC.Enabled {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().
		Bool("grpc_enabled", cfg.API.GRPC.Enabled).
		Str("grpc_addr", grpcServer.Addr()).
		Int("http_port", cfg.API.HTTP.Port).
		Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcServer.Shutdown(shutdownCtx)
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
