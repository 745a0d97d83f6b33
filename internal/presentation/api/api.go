package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lifetravel/endpoint/docs"
	"github.com/lifetravel/endpoint/internal/infrastructure/configs"
	"github.com/lifetravel/endpoint/internal/infrastructure/logging"
	"github.com/lifetravel/endpoint/internal/infrastructure/metrics"
	"github.com/lifetravel/endpoint/internal/infrastructure/ratelimiter"
	"github.com/lifetravel/endpoint/internal/infrastructure/ws"
	healthHandler "github.com/lifetravel/endpoint/internal/presentation/handler/health"
	itineraryHandler "github.com/lifetravel/endpoint/internal/presentation/handler/itinerary"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Application struct {
	config           configs.Config
	serviceName      string
	itineraryHandler *itineraryHandler.Handler
	healthHandler    *healthHandler.Handler
	core             *ws.Core
	logger           logging.Logger
	metrics          *metrics.Metrics
	ratelimiter      ratelimiter.Limiter
}

func NewApplication(
	config configs.Config,
	serviceName string,
	itineraryHandler *itineraryHandler.Handler,
	healthHandler *healthHandler.Handler,
	core *ws.Core,
	logger logging.Logger,
	metrics *metrics.Metrics,
	ratelimiter ratelimiter.Limiter,
) *Application {
	return &Application{
		config:           config,
		serviceName:      serviceName,
		itineraryHandler: itineraryHandler,
		healthHandler:    healthHandler,
		core:             core,
		logger:           logger,
		metrics:          metrics,
		ratelimiter:      ratelimiter,
	}
}

func (app *Application) Mount() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.loggerMiddleware)
	r.Use(app.recoverer)
	r.Use(app.enableCors)

	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.With(app.rateLimiterMiddleware).Get("/itinerary", app.itineraryHandler.ItineraryWebSocketHandler)
		})
	})

	r.Get("/health", app.healthHandler.GetHealth)
	r.Get("/healthz", app.healthHandler.GetHealth)
	r.Get("/ready", app.healthHandler.GetHealth)
	r.Get("/live", app.healthHandler.GetHealth)

	r.Handle("/metrics", app.metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	return otelhttp.NewHandler(r, app.serviceName)
}

// Run serves mux on the configured address until SIGINT or SIGTERM.
func (app *Application) Run(mux http.Handler) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", app.config.HTTP.Addr())
	if err != nil {
		return err
	}
	return app.Serve(ctx, ln, mux)
}

// Serve accepts connections on ln until ctx is done, then stops accepting
// and closes every open session within the shutdown timeout.
func (app *Application) Serve(ctx context.Context, ln net.Listener, mux http.Handler) error {
	srv := &http.Server{
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error, 1)

	go func() {
		<-ctx.Done()

		app.logger.Info(logging.General, logging.Shutdown, "shutdown requested", map[logging.ExtraKey]any{
			"open_sessions": app.core.Len(),
		})

		timeout := app.config.HTTP.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		// Hijacked connections are not tracked by the server.
		shutdown <- errors.Join(srv.Shutdown(shutdownCtx), app.core.Shutdown(shutdownCtx))
	}()

	app.logger.Info(logging.General, logging.Startup, "server has started", map[logging.ExtraKey]any{
		"addr": ln.Addr().String(),
	})

	err := srv.Serve(ln)
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdown; err != nil {
		return err
	}

	app.logger.Info(logging.General, logging.Shutdown, "server has stopped", map[logging.ExtraKey]any{
		"addr": ln.Addr().String(),
	})

	return nil
}
