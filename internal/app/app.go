package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"milexcli/internal/config"
	"milexcli/internal/dataprocessing"
	apperrors "milexcli/internal/errors"
	"milexcli/internal/infrastructure"
	customMiddleware "milexcli/internal/middleware"
	"milexcli/internal/services"
	handlers "milexcli/internal/transport/http"
)

// Application wires configuration, data access, services and the HTTP
// server of the expenditure API.
type Application struct {
	Config             *config.Config
	Paths              *config.Paths
	Router             *chi.Mux
	Server             *http.Server
	Repository         *dataprocessing.Repository
	ExpenditureService *services.ExpenditureService
	HealthService      *services.HealthService
	Logger             *slog.Logger
	Metrics            *infrastructure.Metrics
	OTelProviders      *infrastructure.OTelProviders
}

// NewApplication loads the configuration and the logger from the
// environment and builds the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New builds the application from an explicit configuration
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Metrics), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	metrics, err := infrastructure.NewMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		Metrics:       metrics,
		OTelProviders: otelProviders,
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

func (a *Application) initializeServices() {
	a.Repository = dataprocessing.NewRepository(dataprocessing.RepositoryConfig{
		DataDir:    a.Paths.DataDir,
		MergedFile: a.Config.Data.MergedFile,
		BaseYear:   a.Config.Data.BaseYear,
		EndYear:    a.Config.Data.EndYear,
	}, a.Logger, a.Metrics)

	a.ExpenditureService = services.NewExpenditureService(a.Repository, a.Logger)
	a.HealthService = services.NewHealthService(config.AppVersion, a.Paths, a.Repository, a.Logger)
}

// setupRouter applies the middleware chain in this order:
// RequestID → RealIP → tracing → logger → recoverer → security headers →
// CORS → rate limiter.
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apperrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.Tracing(a.OTelProviders.Tracer))
	r.Use(customMiddleware.StructuredLogger(a.Logger, a.Metrics))
	r.Use(errorHandler.Recoverer)
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
			ExposedHeaders: []string{customMiddleware.RequestIDHeader},
			Logger:         a.Logger,
		}))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	years := a.Repository.CanonicalYears()
	expenditureHandler := handlers.NewExpenditureHandler(
		a.ExpenditureService,
		customMiddleware.NewValidator(a.Logger),
		a.Logger,
		errorHandler,
	).WithYearRange(years[0], years[len(years)-1])

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		expenditureHandler.RegisterRoutes(r)
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle(a.Config.Metrics.Path, a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Warm loads the merged table so that the first request does not pay for
// reading the spreadsheets. Failures are logged; the readiness probe reports
// them.
func (a *Application) Warm(ctx context.Context) {
	start := time.Now()
	all, err := a.Repository.LoadAll(ctx)
	if err != nil {
		a.Logger.WarnContext(ctx, "initial table load failed", slog.String("error", err.Error()))
		return
	}
	a.Logger.InfoContext(ctx, "tables loaded",
		slog.Int("countries", all.Len()),
		slog.Int("years", len(all.Years)),
		slog.Duration("duration", time.Since(start)))
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	a.Logger.InfoContext(ctx, "Starting server",
		slog.String("address", ln.Addr().String()),
		slog.String("data_dir", a.Paths.DataDir))

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "Shutdown requested")
	}

	return a.Stop(context.WithoutCancel(ctx))
}

// Run listens on the configured port and serves until ctx is cancelled
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	go a.Warm(ctx)
	return a.Serve(ctx, ln)
}

// Stop gracefully stops the server and flushes telemetry
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}
