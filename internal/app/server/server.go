package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"timekeep/internal/domain/attendance"
	"timekeep/internal/domain/audit"
	"timekeep/internal/domain/payroll"
	"timekeep/internal/domain/requests"
	"timekeep/internal/domain/users"
	"timekeep/internal/platform/config"
	"timekeep/internal/platform/db"
	"timekeep/internal/platform/jobs"
	"timekeep/internal/platform/logger"
	"timekeep/internal/platform/metrics"
	"timekeep/internal/platform/ratelimit"
	"timekeep/internal/transport/http/api"
	attendancehandler "timekeep/internal/transport/http/handlers/attendance"
	audithandler "timekeep/internal/transport/http/handlers/audit"
	authhandler "timekeep/internal/transport/http/handlers/auth"
	payrollhandler "timekeep/internal/transport/http/handlers/payroll"
	requestshandler "timekeep/internal/transport/http/handlers/requests"
	usershandler "timekeep/internal/transport/http/handlers/users"
	"timekeep/internal/transport/http/middleware"
)

const (
	readyTimeout    = 2 * time.Second
	shutdownTimeout = 10 * time.Second
)

type App struct {
	Config  config.Config
	DB      *pgxpool.Pool
	Router  http.Handler
	Metrics *metrics.Collector
	Log     zerolog.Logger
	Jobs    *jobs.Service

	closers []func()
}

type limiters struct {
	general    ratelimit.Limiter
	credential ratelimit.Limiter
}

// New connects storage, applies migrations and seed data when enabled, and
// builds the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{
		Config:  cfg,
		Metrics: metrics.New(),
		Log:     logger.New(cfg.LogLevel, cfg.Environment),
	}
	app.Jobs = jobs.New(app.Log)

	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("resolve timezone: %w", err)
	}
	if cfg.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.JWTSecret = secret
		app.Config.JWTSecret = secret
		app.Log.Warn().Msg("JWT_SECRET not set; using an ephemeral secret, tokens will not survive a restart")
	}

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	app.DB = pool
	app.closers = append(app.closers, pool.Close)

	if cfg.RunMigrations {
		if err := app.Jobs.RunNow(ctx, jobs.JobMigrate, func(ctx context.Context) error {
			return db.Migrate(ctx, pool)
		}); err != nil {
			app.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := app.Jobs.RunNow(ctx, jobs.JobSeed, func(ctx context.Context) error {
			return db.Seed(ctx, pool, cfg)
		}); err != nil {
			app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	lims, err := app.buildLimiters(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	recorder := audit.NewRecorder(audit.NewStore(pool, cfg.DBTimeout))
	usersSvc := users.NewService(users.NewStore(pool, cfg.DBTimeout), cfg.JWTSecret, cfg.TokenTTL)
	attendanceSvc := attendance.NewService(attendance.NewStore(pool, cfg.DBTimeout), attendance.Policy{
		DailyOvertimeHours: cfg.DailyOvertimeHours,
		WindowDays:         cfg.WorkWindowDays,
		Location:           loc,
	})
	payrollSvc := payroll.NewService(payroll.NewStore(pool, cfg.DBTimeout), attendanceSvc, payroll.Policy{
		MonthlyOvertimeHours: cfg.MonthlyOvertimeHours,
		SalariedReportHours:  cfg.SalariedReportHours,
	})
	requestsSvc := requests.NewService(requests.NewStore(pool, cfg.DBTimeout))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(app.Log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Metrics(app.Metrics))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(lims.general))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, map[string]string{"status": "ok"}, middleware.GetRequestID(r.Context()))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			api.Fail(w, http.StatusServiceUnavailable, "not_ready", "database not ready", middleware.GetRequestID(r.Context()))
			return
		}
		api.Success(w, map[string]string{"status": "ready"}, middleware.GetRequestID(r.Context()))
	})
	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, app.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Group(func(r chi.Router) {
		r.Use(middleware.CredentialRateLimit(lims.credential))
		authhandler.NewHandler(usersSvc, recorder).RegisterRoutes(r)
	})
	usershandler.NewHandler(usersSvc, recorder).RegisterRoutes(router)
	attendancehandler.NewHandler(attendanceSvc, recorder).RegisterRoutes(router)
	payrollhandler.NewHandler(payrollSvc, recorder).RegisterRoutes(router)
	requestshandler.NewHandler(requestsSvc, recorder).RegisterRoutes(router)
	audithandler.NewHandler(recorder).RegisterRoutes(router)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusNotFound, "not_found", "route not found", middleware.GetRequestID(r.Context()))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", middleware.GetRequestID(r.Context()))
	})

	app.Router = router

	jobsCtx, cancelJobs := context.WithCancel(context.Background())
	app.Jobs.Start(jobsCtx)
	app.closers = append(app.closers, func() {
		cancelJobs()
		app.Jobs.Wait()
	})
	return app, nil
}

// buildLimiters picks the rate-limit backend. Credential routes get a quarter
// of the general budget.
func (a *App) buildLimiters(ctx context.Context) (limiters, error) {
	cfg := a.Config
	credentialLimit := max(cfg.RateLimitPerMinute/4, 1)

	if cfg.RateLimitBackend == config.RateLimitBackendRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, readyTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return limiters{}, fmt.Errorf("redis ping: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return limiters{
			general:    ratelimit.NewRedis(client, cfg.RateLimitPerMinute, cfg.RateLimitWindow),
			credential: ratelimit.NewRedis(client, credentialLimit, cfg.RateLimitWindow),
		}, nil
	}

	general := ratelimit.NewMemory(cfg.RateLimitPerMinute, cfg.RateLimitWindow)
	credential := ratelimit.NewMemory(credentialLimit, cfg.RateLimitWindow)
	a.Jobs.Every(jobs.JobRateLimitSweep, cfg.RateLimitWindow, func(context.Context) error {
		general.Sweep()
		credential.Sweep()
		return nil
	})
	return limiters{general: general, credential: credential}, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func Run() {
	cfg := config.Load()
	rootLog := logger.New(cfg.LogLevel, cfg.Environment)
	log.Logger = rootLog
	zerolog.DefaultContextLogger = &rootLog

	if err := cfg.Validate(); err != nil {
		rootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg)
	if err != nil {
		rootLog.Fatal().Err(err).Msg("startup failed")
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		rootLog.Info().Str("addr", cfg.Addr).Str("env", cfg.Environment).Msg("timekeep listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		rootLog.Error().Err(err).Msg("server failed")
	case <-ctx.Done():
		rootLog.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		rootLog.Error().Err(err).Msg("graceful shutdown failed")
	}
}
