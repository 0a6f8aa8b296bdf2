package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"evsales/internal/config"
	apierrors "evsales/internal/errors"
	"evsales/internal/files"
	"evsales/internal/infrastructure"
	customMiddleware "evsales/internal/middleware"
	"evsales/internal/services"
	handlers "evsales/internal/transport/http"
)

// Application wires the local web viewer together
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Pipeline      *services.Pipeline
	DataService   *services.DataService
	HealthService *services.HealthService
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.Metrics
	ErrorHandler  *apierrors.ErrorHandler
}

// Options carries what the caller owns rather than the config.
type Options struct {
	// BaseDir resolves relative paths; empty means the working directory.
	BaseDir string
	// TraceOut receives stdout-exported spans; nil means stderr.
	TraceOut io.Writer
}

// NewApplication creates a new application instance with dependency injection
func NewApplication(cfg *config.Config, logger *slog.Logger, opts Options) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	paths, err := config.ResolvePaths(cfg, opts.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	paths.LogPathResolution(logger)
	if !config.FileExists(paths.InputFile) {
		logger.Warn("Dataset not found, readiness will fail until it exists",
			slog.String("path", paths.InputFile))
	}

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, opts.TraceOut, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	metrics, err := infrastructure.NewMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, false),
	}
	a.initializeServices()
	a.setupRouter()
	a.createServer()
	return a, nil
}

func (a *Application) initializeServices() {
	a.Pipeline = services.NewPipeline(a.Config, a.Logger, a.OTelProviders.Tracer, a.Metrics)
	a.DataService = services.NewDataService(a.Pipeline, a.Paths.InputFile, a.Logger, a.Metrics)
	a.HealthService = services.NewHealthService(config.AppVersion, a.Paths.InputFile, "", a.Logger)
}

// setupRouter configures the HTTP router with all routes.
// Ordering: RequestID → RealIP → Telemetry → Logger → Recoverer → Timeout.
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.NewTelemetry(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)

	// Health and scrape endpoints stay outside the rate limit.
	health := handlers.NewHealthHandler(a.HealthService, a.Logger)
	r.Get("/healthz", health.LivenessCheck)
	r.Get("/readyz", health.ReadinessCheck)
	r.Get("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.ErrorHandler).GetMetrics)

	r.Group(func(r chi.Router) {
		if rl := a.Config.Server.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger, a.ErrorHandler).Handler)
		}
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))

		r.Get("/", handlers.ServeIndex(a.DataService, a.Logger, a.ErrorHandler))

		artifacts := handlers.NewArtifactHandler(files.NewDiscovery(a.Paths.BaseDir),
			[]string{a.Paths.ExportDir, a.Paths.ChartsDir}, a.Logger, a.ErrorHandler)
		r.Get("/artifacts", artifacts.ListArtifacts)

		r.Mount("/api", handlers.NewDataHandler(a.DataService, a.Logger, a.ErrorHandler).Routes())

		charts := handlers.NewChartHandler(a.DataService, a.Config.Charts.Width, a.Config.Charts.Height,
			a.Metrics, a.Logger, a.ErrorHandler)
		r.Mount("/charts", charts.Routes())
	})

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         a.Config.Server.Addr,
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Serve accepts connections on ln until Stop is called. It returns nil after
// a graceful shutdown.
func (a *Application) Serve(ln net.Listener) error {
	a.Logger.Info("Application started",
		slog.String("address", "http://"+ln.Addr().String()),
		slog.String("dataset", a.Paths.InputFile))
	if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run serves on the configured address until ctx is done or the process
// receives SIGINT/SIGTERM.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Config.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Config.Server.Addr, err)
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- a.Serve(ln) }()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		a.Logger.Info("Received shutdown signal")
	}
	if err := a.Stop(context.Background()); err != nil {
		return err
	}
	return <-serveErr
}
