package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"golang.org/x/sync/errgroup"

	"nomina/internal/domain/audit"
	"nomina/internal/domain/holidays"
	"nomina/internal/domain/payroll"
	"nomina/internal/platform/config"
	"nomina/internal/platform/db"
	"nomina/internal/platform/jobs"
	"nomina/internal/platform/metrics"
	healthhandler "nomina/internal/transport/http/handlers/health"
	holidayshandler "nomina/internal/transport/http/handlers/holidays"
	payrollhandler "nomina/internal/transport/http/handlers/payroll"
	"nomina/internal/transport/http/middleware"
)

const shutdownTimeout = 15 * time.Second

// Deps are the collaborators the router serves.
type Deps struct {
	Config    config.Config
	Logger    *slog.Logger
	Metrics   *metrics.Collector
	Payroll   *payroll.Service
	Calendars holidayshandler.Calendars
	Audit     audit.Log
	DB        healthhandler.Pinger
}

// NewLogger builds the JSON logger shared by the app and the access log.
func NewLogger(cfg config.Config) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(cfg.Environment != "production")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "nomina"),
		slog.String("env", cfg.Environment),
	)
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.SlogLevel(),
		Schema: httplog.SchemaECS,
	}))
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics(deps.Metrics))
	}
	router.Use(chiMiddleware.Recoverer)
	router.Use(chiMiddleware.CleanPath)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         300,
	}))

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = deps.Metrics
	}
	healthhandler.NewHandler(deps.DB, collector).RegisterRoutes(router)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))

		payrollhandler.NewHandler(deps.Payroll, deps.Audit).RegisterRoutes(r)
		if deps.Calendars != nil {
			holidayshandler.NewHandler(deps.Calendars, cfg.HolidayCountry).RegisterRoutes(r)
		}
	})
	return router
}

// Run connects to Postgres, wires the services and serves until ctx is done.
func Run(ctx context.Context, cfg config.Config) error {
	logger := NewLogger(cfg)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	engine, err := cfg.PayrollEngine()
	if err != nil {
		return err
	}
	baseSalary, err := cfg.BaseSalary()
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL, db.DefaultPoolOptions())
	if err != nil {
		return fmt.Errorf("db connect failed: %w", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
	}

	collector := metrics.New()
	source := &holidays.StoreSource{
		Store:  holidays.NewStore(pool, cfg.HolidayCountry),
		Remote: holidays.NewHTTPSource(cfg.HolidayAPIURL, cfg.HolidayCountry, cfg.HolidayTimeout),
		Logger: logger,
	}
	calendars := holidays.NewCache(source, collector, logger)
	service := payroll.NewService(payroll.NewStore(pool), calendars, engine, baseSalary, collector, logger)

	jobs.New(jobs.NewRunStore(pool), calendars, cfg.HolidayPrefetchInterval).Start(ctx)

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: NewRouter(Deps{
			Config:    cfg,
			Logger:    logger,
			Metrics:   collector,
			Payroll:   service,
			Calendars: calendars,
			Audit:     audit.New(pool),
			DB:        pool,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("nomina server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
