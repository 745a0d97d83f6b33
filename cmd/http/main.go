package main

import (
	"context"
	"log"
	"os"

	"github.com/lifetravel/endpoint/internal/infrastructure/configs"
	"github.com/lifetravel/endpoint/internal/infrastructure/events"
	"github.com/lifetravel/endpoint/internal/infrastructure/logging"
	"github.com/lifetravel/endpoint/internal/infrastructure/messaging"
	"github.com/lifetravel/endpoint/internal/infrastructure/metrics"
	"github.com/lifetravel/endpoint/internal/infrastructure/ratelimiter"
	"github.com/lifetravel/endpoint/internal/infrastructure/tracing"
	"github.com/lifetravel/endpoint/internal/infrastructure/ws"
	"github.com/lifetravel/endpoint/internal/presentation/api"
	"github.com/lifetravel/endpoint/internal/presentation/handler/health"
	"github.com/lifetravel/endpoint/internal/presentation/handler/itinerary"
)

const (
	serviceName      = "endpoint-api"
	metricsNamespace = "endpoint"
)

//	@title			LifeTravel Endpoint API
//	@version		1.0
//	@description	WebSocket intake for itinerary requests, published to the agent broker.
//	@BasePath		/
func main() {
	configPath, err := configs.DetermineConfigPath(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		FilePath: cfg.Logger.FilePath,
		Encoding: cfg.Logger.Encoding,
		Level:    cfg.Logger.Level,
		Logger:   cfg.Logger.Logger,
	})
	defer logger.Sync()

	sh, err := tracing.InitTracer(tracing.Config{
		ServiceName: serviceName,
		Environment: cfg.Tracing.Environment,
		Endpoint:    cfg.Tracing.Endpoint,
		Enabled:     cfg.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(logging.General, logging.Tracing, "failed to initialize the tracer", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}
	defer sh(context.Background())

	logger.Info(logging.General, logging.Startup, "configuration loaded", map[logging.ExtraKey]any{
		"config_path":      configPath,
		"addr":             cfg.HTTP.Addr(),
		logging.Exchange:   cfg.RabbitMQ.Exchange,
		logging.RoutingKey: cfg.RabbitMQ.RoutingKey,
		"tracing":          cfg.Tracing.Enabled,
	})

	m := metrics.New(metricsNamespace)
	core := ws.NewCore()

	dialer := messaging.NewDialer(serviceName, cfg.RabbitMQ.DialTimeout)
	publisher := events.NewItineraryPublisher(cfg.RabbitMQ, serviceName, dialer, logger)

	rl, err := ratelimiter.NewLimiter(ratelimiter.Options{
		Strategy:          cfg.RateLimiter.Strategy,
		RequestsPerSecond: cfg.RateLimiter.RequestsPerSecond,
		Burst:             cfg.RateLimiter.Burst,
		Window:            cfg.RateLimiter.Window,
		TTL:               cfg.RateLimiter.TTL,
		SourceHeaderKey:   cfg.RateLimiter.SourceHeaderKey,
	})
	if err != nil {
		logger.Fatal(logging.General, logging.RateLimiting, "failed to create rate limiter", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}
	defer rl.Close()

	itineraryHandler := itinerary.NewHandler(publisher, core, *cfg, logger, m)
	healthHandler := health.NewHandler()

	app := api.NewApplication(*cfg, serviceName, itineraryHandler, healthHandler, core, logger, m, rl)

	mux := app.Mount()
	if err := app.Run(mux); err != nil {
		logger.Fatal(logging.General, logging.Shutdown, "server stopped with error", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
	}
}
