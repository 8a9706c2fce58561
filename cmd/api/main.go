package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/records-api/internal/config"
	noteHandler "github.com/jwalitptl/records-api/internal/handler/note"
	patientHandler "github.com/jwalitptl/records-api/internal/handler/patient"
	"github.com/jwalitptl/records-api/internal/handler/prometheus"
	"github.com/jwalitptl/records-api/internal/middleware"
	"github.com/jwalitptl/records-api/internal/repository"
	"github.com/jwalitptl/records-api/internal/repository/memory"
	"github.com/jwalitptl/records-api/internal/repository/postgres"
	"github.com/jwalitptl/records-api/internal/router"
	eventService "github.com/jwalitptl/records-api/internal/service/event"
	noteService "github.com/jwalitptl/records-api/internal/service/note"
	patientService "github.com/jwalitptl/records-api/internal/service/patient"
	"github.com/jwalitptl/records-api/pkg/logger"
	"github.com/jwalitptl/records-api/pkg/messaging"
	"github.com/jwalitptl/records-api/pkg/messaging/redis"
	"github.com/jwalitptl/records-api/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	l, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize logger")
	}

	registry := promclient.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry, cfg.Metrics.Namespace, "")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize store
	store, err := openStore(ctx, cfg.Database, m)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to open store")
	}
	defer store.Close()

	// Initialize event publishing
	publisher, closeEvents, err := openEvents(cfg, &l, m)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer closeEvents()

	events := eventService.NewEventService(publisher, &l)

	// Initialize services and handlers
	patientSvc := patientService.NewService(store, events, &l)
	noteSvc := noteService.NewService(store, events, &l)

	var promHandler *prometheus.Handler
	if cfg.Metrics.Enabled {
		promHandler = prometheus.New(registry, cfg.Metrics.Namespace)
	}

	r, err := router.NewRouter(routerConfig(cfg), promHandler,
		patientHandler.NewHandler(patientSvc),
		noteHandler.NewHandler(noteSvc),
	)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to build router")
	}
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		l.Info().Str("addr", srv.Addr).Str("driver", cfg.Database.Driver).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	l.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	l.Info().Msg("server exited properly")
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, m *metrics.Metrics) (repository.Store, error) {
	if cfg.Driver == "memory" {
		return memory.NewStore(), nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := postgres.NewDB(connectCtx, cfg)
	if err != nil {
		return nil, err
	}
	return postgres.NewStore(db, m), nil
}

func openEvents(cfg *config.Config, l *zerolog.Logger, m *metrics.Metrics) (messaging.Publisher, func(), error) {
	if !cfg.Events.Enabled {
		return messaging.NopPublisher{}, func() {}, nil
	}

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:             cfg.Redis.URL,
		MaxRetries:      cfg.Redis.MaxRetries,
		RetryBackoff:    cfg.Redis.RetryBackoff,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		BreakerFailures: cfg.Redis.BreakerFailures,
		BreakerTimeout:  cfg.Redis.BreakerTimeout,
	}, l, m)
	if err != nil {
		return nil, nil, err
	}

	closeBroker := func() {
		if err := broker.Close(); err != nil {
			l.Warn().Err(err).Msg("failed to close Redis broker")
		}
	}
	return messaging.NewEventPublisher(broker, cfg.Events.Channel, m), closeBroker, nil
}

func routerConfig(cfg *config.Config) router.RouterConfig {
	rc := router.RouterConfig{
		Mode: cfg.Server.Mode,
		CORSConfig: middleware.CORSConfig{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     cfg.CORS.AllowedMethods,
			AllowHeaders:     cfg.CORS.AllowedHeaders,
			ExposeHeaders:    []string{"Content-Length", "Content-Type", middleware.HeaderXRequestID},
			AllowCredentials: true,
			MaxAge:           cfg.CORS.MaxAge,
		},
		SizeLimit: middleware.SizeLimitConfig{
			MaxBodySize:   cfg.Server.MaxBodyBytes,
			MaxUploadSize: cfg.Server.MaxUploadBytes,
			MaxHeaderSize: middleware.DefaultSizeLimitConfig().MaxHeaderSize,
		},
		MetricsPath: cfg.Metrics.Path,
	}

	if cfg.RateLimit.Enabled {
		rc.RateLimit = &middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.RPS),
			Burst: cfg.RateLimit.Burst,
			TTL:   cfg.RateLimit.TTL,
		}
	}
	return rc
}
